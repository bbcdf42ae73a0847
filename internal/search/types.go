package search

import (
	"errors"
	"fmt"

	"modeldeck/internal/backend"
	"modeldeck/internal/domain"
)

var (
	// ErrBackendFailure wraps the backend's error when a request fails.
	ErrBackendFailure = errors.New("error fetching models from the catalog")

	// ErrNoResult is returned by Poll when no outcome has been delivered.
	// Callers should only poll after a wake or while IsPending() is true.
	ErrNoResult = errors.New("no search result available")
)

// Kind identifies what a Request asks for
type Kind int

const (
	KindSearch Kind = iota
	KindFeatured
)

// Request is an immutable search or featured-list request
type Request struct {
	Kind  Kind
	Query string // KindSearch only
}

// Search builds a keyword search request
func Search(query string) Request {
	return Request{Kind: KindSearch, Query: query}
}

// Featured builds a featured-models request
func Featured() Request {
	return Request{Kind: KindFeatured}
}

func (r Request) String() string {
	if r.Kind == KindFeatured {
		return "featured"
	}
	return fmt.Sprintf("search(%q)", r.Query)
}

func (r Request) backendKind() backend.Kind {
	if r.Kind == KindFeatured {
		return backend.KindFeatured
	}
	return backend.KindSearch
}

// State of the coordinator
type State int

const (
	StateIdle State = iota
	StatePending
	StateErrored
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePending:
		return "pending"
	case StateErrored:
		return "errored"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// Outcome is what a dispatch goroutine hands back to the coordinator.
// Err != nil means the request failed.
type Outcome struct {
	RequestID string
	Models    []domain.Model
	Err       error
}

// Waker tells the UI that an outcome is ready to be polled
type Waker interface {
	Notify()
}

// WakerFunc adapts a function to Waker
type WakerFunc func()

func (f WakerFunc) Notify() { f() }
