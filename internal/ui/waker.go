package ui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"modeldeck/internal/logging"
)

// Sender is the part of *tea.Program the waker needs
type Sender interface {
	Send(msg tea.Msg)
}

// ProgramWaker wakes the Bubble Tea loop by sending SearchReadyMsg. It is
// created before the program exists and attached afterwards.
type ProgramWaker struct {
	mu     sync.RWMutex
	sender Sender
	missed bool
}

// NewProgramWaker creates an unattached waker
func NewProgramWaker() *ProgramWaker {
	return &ProgramWaker{}
}

// Attach sets the program to notify. A wake that arrived before Attach is
// delivered now.
func (w *ProgramWaker) Attach(s Sender) {
	w.mu.Lock()
	w.sender = s
	missed := w.missed
	w.missed = false
	w.mu.Unlock()

	if missed && s != nil {
		s.Send(SearchReadyMsg{})
	}
}

// Notify implements search.Waker
func (w *ProgramWaker) Notify() {
	w.mu.Lock()
	s := w.sender
	if s == nil {
		w.missed = true
		w.mu.Unlock()
		logging.Debug("ui: wake before program attached")
		return
	}
	w.mu.Unlock()

	s.Send(SearchReadyMsg{})
}
