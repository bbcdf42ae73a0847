// Package search coordinates catalog requests coming from the UI: at most one
// request is in flight, and requests made meanwhile collapse into a single
// follow-up that runs when the current one completes.
package search

import (
	"fmt"

	"github.com/google/uuid"

	"modeldeck/internal/backend"
	"modeldeck/internal/domain"
	"modeldeck/internal/logging"
)

// Coordinator is owned by the UI goroutine. Its methods must not be called
// concurrently; dispatch goroutines only talk back through the results
// channel and the Waker.
type Coordinator struct {
	commands chan<- backend.Command
	waker    Waker
	results  chan Outcome

	state      State
	current    *Request
	next       *Request
	keyword    string
	hasKeyword bool
}

// New creates an idle coordinator sending on commands and waking waker after
// each outcome.
func New(commands chan<- backend.Command, waker Waker) *Coordinator {
	if waker == nil {
		waker = WakerFunc(func() {})
	}
	return &Coordinator{
		commands: commands,
		waker:    waker,
		// one dispatch at a time, so one slot never blocks the sender
		results: make(chan Outcome, 1),
		state:   StateIdle,
	}
}

// Search submits a keyword search
func (c *Coordinator) Search(keyword string) {
	c.Submit(Search(keyword))
}

// LoadFeatured submits a featured-models request
func (c *Coordinator) LoadFeatured() {
	c.Submit(Featured())
}

// Submit dispatches req now, or parks it as the follow-up when a request is
// already pending. A parked request replaces any earlier parked one.
func (c *Coordinator) Submit(req Request) {
	if c.state == StatePending {
		if c.next != nil {
			logging.Debug("search: replacing queued request", "dropped", c.next, "queued", req)
		} else {
			logging.Debug("search: queueing request", "queued", req)
		}
		c.next = &req
		return
	}

	c.state = StatePending
	c.current = &req
	c.next = nil
	c.dispatch(req)
}

func (c *Coordinator) dispatch(req Request) {
	id := uuid.NewString()
	logging.Debug("search: dispatching", "id", id, "request", req)

	commands, results, waker := c.commands, c.results, c.waker
	go func() {
		reply := backend.NewReplyChan()
		commands <- backend.Command{
			ID:    id,
			Kind:  req.backendKind(),
			Query: req.Query,
			Reply: reply,
		}
		r := <-reply

		results <- Outcome{RequestID: id, Models: r.Models, Err: r.Err}
		waker.Notify()
	}()
}

// Poll consumes a delivered outcome without blocking. It returns ErrNoResult
// and leaves the state untouched when nothing has arrived.
func (c *Coordinator) Poll() ([]domain.Model, error) {
	select {
	case o := <-c.results:
		if o.Err != nil {
			logging.Warn("search: request failed", "id", o.RequestID, "request", c.current, "err", o.Err)
			c.state = StateErrored
			c.current = nil
			c.next = nil
			return nil, fmt.Errorf("%w: %w", ErrBackendFailure, o.Err)
		}

		done := c.current
		c.current = nil
		c.state = StateIdle
		if done != nil && done.Kind == KindSearch {
			c.keyword = done.Query
			c.hasKeyword = true
		}
		logging.Debug("search: request completed", "id", o.RequestID, "results", len(o.Models))

		if next := c.next; next != nil {
			c.next = nil
			c.Submit(*next)
		}
		return o.Models, nil

	default:
		return nil, ErrNoResult
	}
}

// IsPending reports whether a request is in flight
func (c *Coordinator) IsPending() bool {
	return c.state == StatePending
}

// HadError reports whether the last request failed
func (c *Coordinator) HadError() bool {
	return c.state == StateErrored
}

// State returns the current state
func (c *Coordinator) State() State {
	return c.state
}

// Keyword returns the query of the last successful search
func (c *Coordinator) Keyword() (string, bool) {
	return c.keyword, c.hasKeyword
}

// Current returns the in-flight request
func (c *Coordinator) Current() (Request, bool) {
	if c.current == nil {
		return Request{}, false
	}
	return *c.current, true
}

// Next returns the request queued behind the in-flight one
func (c *Coordinator) Next() (Request, bool) {
	if c.next == nil {
		return Request{}, false
	}
	return *c.next, true
}
