package ui

import (
	"modeldeck/internal/eventbus"
)

// EventMsg wraps a domain event for the UI
type EventMsg struct {
	Event eventbus.DomainEvent
}

// SearchReadyMsg is sent by the waker when the coordinator has an outcome
type SearchReadyMsg struct{}

// pagerClosedMsg is sent when the detail pager exits
type pagerClosedMsg struct {
	err error
}
