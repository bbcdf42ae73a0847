package ui

import (
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
)

type recordingSender struct {
	mu   sync.Mutex
	msgs []tea.Msg
}

func (s *recordingSender) Send(msg tea.Msg) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = append(s.msgs, msg)
}

func (s *recordingSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.msgs)
}

func TestProgramWakerSendsSearchReady(t *testing.T) {
	w := NewProgramWaker()
	s := &recordingSender{}
	w.Attach(s)

	w.Notify()
	w.Notify()

	assert.Equal(t, 2, s.count())
	assert.Equal(t, SearchReadyMsg{}, s.msgs[0])
}

func TestProgramWakerReplaysMissedWake(t *testing.T) {
	w := NewProgramWaker()
	w.Notify()
	w.Notify()

	s := &recordingSender{}
	w.Attach(s)
	assert.Equal(t, 1, s.count(), "missed wakes collapse into one")

	w.Attach(&recordingSender{})
	assert.Equal(t, 1, s.count())
}
