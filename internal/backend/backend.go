// Package backend serves catalog queries asynchronously over a command
// channel. Every command carries its own reply channel and receives exactly
// one reply.
package backend

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"modeldeck/internal/domain"
	"modeldeck/internal/eventbus"
	"modeldeck/internal/logging"
)

// ErrStopped is the reply error for commands received after shutdown began.
var ErrStopped = errors.New("backend stopped")

// Kind identifies the command shape
type Kind int

const (
	KindSearch Kind = iota
	KindFeatured
)

func (k Kind) String() string {
	switch k {
	case KindSearch:
		return "search"
	case KindFeatured:
		return "featured"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// Command is a single request to the backend
type Command struct {
	ID    string
	Kind  Kind
	Query string // KindSearch only
	Reply chan<- Reply
}

// Reply is the one message sent on a command's reply channel
type Reply struct {
	Models []domain.Model
	Err    error
}

// NewReplyChan returns a reply channel that never blocks the backend.
func NewReplyChan() chan Reply {
	return make(chan Reply, 1)
}

// Source answers catalog queries. *catalog.Store satisfies it.
type Source interface {
	Search(ctx context.Context, query string, limit int) ([]domain.Model, error)
	Featured(ctx context.Context, limit int) ([]domain.Model, error)
}

// Options tunes the service
type Options struct {
	Workers       int
	Timeout       time.Duration // per command, 0 = none
	RatePerSecond float64       // 0 = unlimited
	Burst         int
	ResultLimit   int
	QueueSize     int
}

// DefaultOptions returns conservative defaults
func DefaultOptions() Options {
	return Options{
		Workers:     2,
		Timeout:     10 * time.Second,
		Burst:       1,
		ResultLimit: 50,
		QueueSize:   8,
	}
}

// Service reads commands and answers them from a Source
type Service struct {
	source   Source
	bus      eventbus.EventBus
	opts     Options
	commands chan Command
	limiter  *rate.Limiter
	workers  chan struct{} // semaphore bounding concurrent queries
	wg       sync.WaitGroup
}

// New creates a backend service. bus may be nil.
func New(source Source, bus eventbus.EventBus, opts Options) *Service {
	def := DefaultOptions()
	if opts.Workers <= 0 {
		opts.Workers = def.Workers
	}
	if opts.Burst <= 0 {
		opts.Burst = def.Burst
	}
	if opts.ResultLimit <= 0 {
		opts.ResultLimit = def.ResultLimit
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = def.QueueSize
	}

	limit := rate.Inf
	if opts.RatePerSecond > 0 {
		limit = rate.Limit(opts.RatePerSecond)
	}

	return &Service{
		source:   source,
		bus:      bus,
		opts:     opts,
		commands: make(chan Command, opts.QueueSize),
		limiter:  rate.NewLimiter(limit, opts.Burst),
		workers:  make(chan struct{}, opts.Workers),
	}
}

// Commands returns the channel clients send commands on.
func (s *Service) Commands() chan<- Command {
	return s.commands
}

// Run serves commands until ctx is cancelled. Commands still queued at that
// point are answered with ErrStopped; in-flight ones see their context
// cancelled and reply with that error.
func (s *Service) Run(ctx context.Context) error {
	logging.Info("backend: serving", "workers", s.opts.Workers, "timeout", s.opts.Timeout)
	defer s.wg.Wait()

	for {
		select {
		case <-ctx.Done():
			s.drain()
			return nil
		case cmd := <-s.commands:
			s.dispatch(ctx, cmd)
		}
	}
}

func (s *Service) dispatch(ctx context.Context, cmd Command) {
	select {
	case s.workers <- struct{}{}:
	case <-ctx.Done():
		s.reply(cmd, Reply{Err: ErrStopped})
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() { <-s.workers }()
		s.reply(cmd, s.handle(ctx, cmd))
	}()
}

func (s *Service) handle(ctx context.Context, cmd Command) Reply {
	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return Reply{Err: fmt.Errorf("rate limiter: %w", err)}
	}

	start := time.Now()
	var (
		models []domain.Model
		err    error
	)
	switch cmd.Kind {
	case KindSearch:
		models, err = s.source.Search(ctx, cmd.Query, s.opts.ResultLimit)
	case KindFeatured:
		models, err = s.source.Featured(ctx, s.opts.ResultLimit)
	default:
		err = fmt.Errorf("unknown command kind %s", cmd.Kind)
	}

	if err != nil {
		err = fmt.Errorf("%s %q: %w", cmd.Kind, cmd.Query, err)
		logging.Error("backend: command failed", "id", cmd.ID, "kind", cmd.Kind, "err", err)
		s.publish(eventbus.ErrorEvent{Message: "catalog query failed", Err: err})
		return Reply{Err: err}
	}

	logging.Debug("backend: command served", "id", cmd.ID, "kind", cmd.Kind,
		"query", cmd.Query, "results", len(models), "took", time.Since(start))
	s.publish(eventbus.SearchServedEvent{
		RequestID: cmd.ID,
		Kind:      cmd.Kind.String(),
		Query:     cmd.Query,
		Results:   len(models),
	})
	return Reply{Models: models}
}

// reply delivers r without ever blocking the backend on a misbehaving client
func (s *Service) reply(cmd Command, r Reply) {
	if cmd.Reply == nil {
		logging.Warn("backend: command without reply channel", "id", cmd.ID)
		return
	}
	select {
	case cmd.Reply <- r:
	default:
		logging.Warn("backend: reply channel full, dropping reply", "id", cmd.ID)
	}
}

func (s *Service) drain() {
	for {
		select {
		case cmd := <-s.commands:
			s.reply(cmd, Reply{Err: ErrStopped})
		default:
			return
		}
	}
}

func (s *Service) publish(e eventbus.DomainEvent) {
	if s.bus != nil {
		s.bus.Publish(e)
	}
}
