package ui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"modeldeck/internal/config"
	"modeldeck/internal/domain"
	"modeldeck/internal/eventbus"
	"modeldeck/internal/logging"
	"modeldeck/internal/search"
	"modeldeck/internal/ui/views"
)

// chrome is the number of lines around the result list: title, input,
// heading, status and help
const chrome = 9

// Model represents the UI state
type Model struct {
	coord  *search.Coordinator
	config *config.Config

	input   textinput.Model
	spinner spinner.Model
	help    help.Model
	keys    keyMap

	styles   *views.Styles
	renderer *views.ModelRenderer

	results []domain.Model
	heading string
	cursor  int
	offset  int

	lastQuery string
	lastErr   error
	status    string

	width  int
	height int

	openPager func(content string) tea.Cmd
}

// NewModel creates a new UI model driving coord
func NewModel(coord *search.Coordinator, cfg *config.Config) *Model {
	input := textinput.New()
	input.Placeholder = "search models"
	input.Prompt = "› "
	input.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	styles := views.NewStyles()
	return &Model{
		coord:    coord,
		config:   cfg,
		input:    input,
		spinner:  sp,
		help:     help.New(),
		keys:     defaultKeyMap(),
		styles:   styles,
		renderer: views.NewModelRenderer(styles, cfg.UISettings.ShowTags),
		height:   24,
		openPager: func(content string) tea.Cmd {
			return tea.Exec(&detailPager{content: content}, func(err error) tea.Msg {
				return pagerClosedMsg{err: err}
			})
		},
	}
}

// Init returns an initial command
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink}
	if m.config.UISettings.FeaturedOnStart {
		m.coord.LoadFeatured()
		cmds = append(cmds, m.spinner.Tick)
	}
	return tea.Batch(cmds...)
}

// Update handles messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.input.Width = max(msg.Width-8, 10)
		m.clampViewport()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case SearchReadyMsg:
		return m, m.handleSearchReady()

	case spinner.TickMsg:
		if !m.coord.IsPending() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case EventMsg:
		return m, m.handleEvent(msg.Event)

	case pagerClosedMsg:
		if msg.err != nil {
			logging.Error("ui: pager failed", "err", msg.err)
			m.status = "pager: " + msg.err.Error()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.clampViewport()
		return m, nil
	case key.Matches(msg, m.keys.Up):
		m.moveCursor(-1)
		return m, nil
	case key.Matches(msg, m.keys.Down):
		m.moveCursor(1)
		return m, nil
	case key.Matches(msg, m.keys.PageUp):
		m.moveCursor(-m.listHeight())
		return m, nil
	case key.Matches(msg, m.keys.PageDown):
		m.moveCursor(m.listHeight())
		return m, nil
	case key.Matches(msg, m.keys.Open):
		if sel, ok := m.Selected(); ok {
			return m, m.openPager(m.renderer.RenderDetail(sel))
		}
		return m, nil
	case key.Matches(msg, m.keys.Featured):
		m.input.SetValue("")
		m.lastQuery = ""
		return m, m.submit(search.Featured())
	case key.Matches(msg, m.keys.Clear):
		m.input.SetValue("")
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)

	query := strings.TrimSpace(m.input.Value())
	if query == m.lastQuery {
		return m, cmd
	}
	m.lastQuery = query

	req := search.Search(query)
	if query == "" {
		req = search.Featured()
	}
	return m, tea.Batch(cmd, m.submit(req))
}

// submit hands req to the coordinator and starts the spinner if it was idle
func (m *Model) submit(req search.Request) tea.Cmd {
	wasPending := m.coord.IsPending()
	m.coord.Submit(req)
	if wasPending {
		return nil
	}
	return m.spinner.Tick
}

func (m *Model) handleSearchReady() tea.Cmd {
	completed, _ := m.coord.Current()

	models, err := m.coord.Poll()
	switch {
	case errors.Is(err, search.ErrNoResult):
		return nil
	case err != nil:
		m.lastErr = err
		return nil
	}

	m.lastErr = nil
	m.results = models
	m.cursor = 0
	m.offset = 0
	if completed.Kind == search.KindFeatured {
		m.heading = "Featured models"
	} else {
		m.heading = fmt.Sprintf("Results for %q", completed.Query)
	}

	// a queued request was promoted; keep the spinner going
	if m.coord.IsPending() {
		return m.spinner.Tick
	}
	return nil
}

func (m *Model) handleEvent(e eventbus.DomainEvent) tea.Cmd {
	switch ev := e.(type) {
	case eventbus.CatalogLoadedEvent:
		m.status = fmt.Sprintf("catalog: %d models (%d featured)", ev.Stats.Models, ev.Stats.Featured)
	case eventbus.CatalogReloadedEvent:
		m.status = fmt.Sprintf("catalog reloaded: %d models imported", ev.Imported)
		if m.lastQuery != "" {
			return m.submit(search.Search(m.lastQuery))
		}
		return m.submit(search.Featured())
	case eventbus.ErrorEvent:
		m.status = ev.Message
		if ev.Err != nil {
			m.status += ": " + ev.Err.Error()
		}
	}
	return nil
}

func (m *Model) moveCursor(delta int) {
	if len(m.results) == 0 {
		return
	}
	m.cursor = min(max(m.cursor+delta, 0), len(m.results)-1)
	m.clampViewport()
}

func (m *Model) listHeight() int {
	h := m.height - chrome
	if m.help.ShowAll {
		h -= 3
	}
	return max(h, 1)
}

// clampViewport keeps the cursor inside the visible window
func (m *Model) clampViewport() {
	h := m.listHeight()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+h {
		m.offset = m.cursor - h + 1
	}
	m.offset = max(min(m.offset, len(m.results)-h), 0)
}

// Selected returns the model under the cursor
func (m *Model) Selected() (domain.Model, bool) {
	if m.cursor < 0 || m.cursor >= len(m.results) {
		return domain.Model{}, false
	}
	return m.results[m.cursor], true
}

// Results returns the models currently displayed
func (m *Model) Results() []domain.Model {
	return m.results
}

// View renders the UI
func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(m.styles.Title.Render("modeldeck"))
	b.WriteString("\n\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")

	if m.heading != "" {
		b.WriteString(m.styles.Heading.Render(m.heading))
		b.WriteString("\n")
	}

	width := m.width - 4
	if len(m.results) == 0 && m.heading != "" {
		b.WriteString(m.styles.Dim.Render("  no models found"))
		b.WriteString("\n")
	}
	end := min(m.offset+m.listHeight(), len(m.results))
	for i := m.offset; i < end; i++ {
		b.WriteString(m.renderer.RenderRow(m.results[i], i == m.cursor, width))
		b.WriteString("\n")
	}
	if end < len(m.results) {
		b.WriteString(m.styles.Scroll.Render(fmt.Sprintf("  … %d more", len(m.results)-end)))
		b.WriteString("\n")
	}

	b.WriteString(m.styles.Status.Render(m.statusLine()))
	b.WriteString("\n")
	b.WriteString(m.styles.Help.Render(m.help.View(m.keys)))

	return m.styles.Main.Render(b.String())
}

func (m *Model) statusLine() string {
	var parts []string
	switch {
	case m.coord.IsPending():
		label := "searching"
		if cur, ok := m.coord.Current(); ok && cur.Kind == search.KindFeatured {
			label = "loading featured models"
		}
		parts = append(parts, m.styles.StatusLoading.Render(m.spinner.View()+" "+label+"…"))
	case m.coord.HadError():
		msg := "search failed"
		if m.lastErr != nil {
			msg += ": " + m.lastErr.Error()
		}
		parts = append(parts, m.styles.StatusError.Render(msg))
	case m.heading != "":
		parts = append(parts, m.styles.StatusSuccess.Render(fmt.Sprintf("%d models", len(m.results))))
	}

	if kw, ok := m.coord.Keyword(); ok {
		parts = append(parts, "last search: "+kw)
	}
	if m.status != "" {
		parts = append(parts, m.status)
	}
	return strings.Join(parts, " · ")
}
