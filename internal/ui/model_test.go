package ui

import (
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"modeldeck/internal/backend"
	"modeldeck/internal/config"
	"modeldeck/internal/domain"
	"modeldeck/internal/eventbus"
	"modeldeck/internal/search"
)

type harness struct {
	t     *testing.T
	model *Model
	cmds  chan backend.Command
	woke  chan struct{}
}

func newHarness(t *testing.T, featuredOnStart bool) *harness {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.UISettings.FeaturedOnStart = featuredOnStart

	h := &harness{
		t:    t,
		cmds: make(chan backend.Command, 8),
		woke: make(chan struct{}, 8),
	}
	coord := search.New(h.cmds, search.WakerFunc(func() { h.woke <- struct{}{} }))
	h.model = NewModel(coord, cfg)
	h.model.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return h
}

func (h *harness) typeText(s string) {
	for _, r := range s {
		h.model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func (h *harness) press(k tea.KeyType) tea.Cmd {
	_, cmd := h.model.Update(tea.KeyMsg{Type: k})
	return cmd
}

func (h *harness) expectCommand() backend.Command {
	h.t.Helper()
	select {
	case cmd := <-h.cmds:
		return cmd
	case <-time.After(2 * time.Second):
		h.t.Fatal("expected a backend command")
		return backend.Command{}
	}
}

func (h *harness) expectNoCommand() {
	h.t.Helper()
	select {
	case cmd := <-h.cmds:
		h.t.Fatalf("unexpected command %+v", cmd)
	case <-time.After(50 * time.Millisecond):
	}
}

// answer replies to cmd and delivers the wake to the model like the program would
func (h *harness) answer(cmd backend.Command, r backend.Reply) {
	h.t.Helper()
	cmd.Reply <- r
	select {
	case <-h.woke:
	case <-time.After(2 * time.Second):
		h.t.Fatal("no wake")
	}
	h.model.Update(SearchReadyMsg{})
}

func catalog(names ...string) []domain.Model {
	out := make([]domain.Model, len(names))
	for i, n := range names {
		out[i] = domain.Model{ID: "id/" + n, Name: n, Downloads: int64(100 - i)}
	}
	return out
}

func TestInitLoadsFeaturedWhenConfigured(t *testing.T) {
	h := newHarness(t, true)
	h.model.Init()

	cmd := h.expectCommand()
	assert.Equal(t, backend.KindFeatured, cmd.Kind)
	assert.Contains(t, h.model.View(), "loading featured models")

	h.answer(cmd, backend.Reply{Models: catalog("Llama", "Phi")})
	view := h.model.View()
	assert.Contains(t, view, "Featured models")
	assert.Contains(t, view, "Llama")
	assert.Contains(t, view, "2 models")
}

func TestInitSkipsFeaturedWhenDisabled(t *testing.T) {
	h := newHarness(t, false)
	h.model.Init()
	h.expectNoCommand()
}

func TestTypingSearchesAndCoalesces(t *testing.T) {
	h := newHarness(t, false)

	h.typeText("ph")
	first := h.expectCommand()
	assert.Equal(t, "p", first.Query)
	h.expectNoCommand()

	h.answer(first, backend.Reply{Models: catalog("Phi-2", "Pythia")})
	second := h.expectCommand()
	assert.Equal(t, "ph", second.Query)

	h.answer(second, backend.Reply{Models: catalog("Phi-2")})
	view := h.model.View()
	assert.Contains(t, view, `Results for "ph"`)
	assert.Contains(t, view, "last search: ph")
	assert.Len(t, h.model.Results(), 1)
}

func TestClearingInputLoadsFeatured(t *testing.T) {
	h := newHarness(t, false)

	h.typeText("x")
	h.answer(h.expectCommand(), backend.Reply{})

	h.press(tea.KeyBackspace)
	cmd := h.expectCommand()
	assert.Equal(t, backend.KindFeatured, cmd.Kind)
}

func TestTabLoadsFeatured(t *testing.T) {
	h := newHarness(t, false)
	h.press(tea.KeyTab)
	assert.Equal(t, backend.KindFeatured, h.expectCommand().Kind)
}

func TestFailureShowsBanner(t *testing.T) {
	h := newHarness(t, false)

	h.typeText("q")
	h.answer(h.expectCommand(), backend.Reply{Err: errors.New("database locked")})

	view := h.model.View()
	assert.Contains(t, view, "search failed")
	assert.Contains(t, view, "database locked")
}

func TestSpuriousWakeIsIgnored(t *testing.T) {
	h := newHarness(t, false)

	_, cmd := h.model.Update(SearchReadyMsg{})
	assert.Nil(t, cmd)
	assert.Empty(t, h.model.Results())
	assert.NotContains(t, h.model.View(), "search failed")
}

func TestCursorMovementAndDetailPager(t *testing.T) {
	h := newHarness(t, true)
	h.model.Init()
	h.answer(h.expectCommand(), backend.Reply{Models: catalog("A", "B", "C")})

	var opened string
	h.model.openPager = func(content string) tea.Cmd {
		opened = content
		return nil
	}

	h.press(tea.KeyDown)
	h.press(tea.KeyDown)
	h.press(tea.KeyDown)
	sel, ok := h.model.Selected()
	require.True(t, ok)
	assert.Equal(t, "C", sel.Name)

	h.press(tea.KeyUp)
	h.press(tea.KeyEnter)
	assert.Contains(t, opened, "id/B")
}

func TestViewportScrollsWithCursor(t *testing.T) {
	h := newHarness(t, true)
	h.model.Update(tea.WindowSizeMsg{Width: 80, Height: chrome + 3})
	h.model.Init()

	names := []string{"m0", "m1", "m2", "m3", "m4", "m5", "m6", "m7"}
	h.answer(h.expectCommand(), backend.Reply{Models: catalog(names...)})
	assert.Contains(t, h.model.View(), "5 more")

	for i := 0; i < 6; i++ {
		h.press(tea.KeyDown)
	}
	view := h.model.View()
	assert.Contains(t, view, "m6")
	assert.NotContains(t, view, "m0")
}

func TestCatalogReloadResubmitsCurrentQuery(t *testing.T) {
	h := newHarness(t, false)
	h.typeText("g")
	h.answer(h.expectCommand(), backend.Reply{Models: catalog("Gemma")})

	h.model.Update(EventMsg{Event: eventbus.CatalogReloadedEvent{Imported: 9}})
	cmd := h.expectCommand()
	assert.Equal(t, "g", cmd.Query)
	assert.Contains(t, h.model.View(), "catalog reloaded: 9 models imported")
}

func TestEventsUpdateStatusLine(t *testing.T) {
	h := newHarness(t, false)

	h.model.Update(EventMsg{Event: eventbus.CatalogLoadedEvent{Stats: domain.CatalogStats{Models: 6, Featured: 3}}})
	assert.Contains(t, h.model.View(), "catalog: 6 models (3 featured)")

	h.model.Update(EventMsg{Event: eventbus.ErrorEvent{Message: "seed reload failed", Err: errors.New("bad toml")}})
	assert.Contains(t, h.model.View(), "seed reload failed: bad toml")
}

func TestQuitKey(t *testing.T) {
	h := newHarness(t, false)
	cmd := h.press(tea.KeyEsc)
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}
