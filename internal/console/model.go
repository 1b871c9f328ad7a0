// Package console is the interactive invoice grid: a status sidebar, a filter
// row, the paginated table and the invoice actions, driven by a
// grid.Controller.
package console

import (
	"context"
	"fmt"
	"strings"
	"time"

	"einvoice/internal/filter"
	"einvoice/internal/grid"
	"einvoice/internal/logger"
	"einvoice/internal/render"
	"einvoice/pkg/models"
	"einvoice/pkg/services"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"
)

type mode int

const (
	modeBrowse mode = iota
	modeFilter
)

// sidebar order: View All, then the statuses.
var sidebar = append([]models.Status{""}, models.Statuses...)

// Options configures a Model.
type Options struct {
	Actions     services.ActionService
	Renderer    *render.Renderer
	SubmittedBy string
	ExportDir   string
	Title       string
	Now         func() time.Time

	// Seed is the initial filter, applied without an extra fetch.
	Seed filter.Patch
}

// Model is the bubbletea model of the console.
type Model struct {
	grid    *grid.Controller
	actions services.ActionService
	render  *render.Renderer
	log     zerolog.Logger

	submittedBy string
	exportDir   string
	title       string
	now         func() time.Time
	seed        filter.Patch

	ctx         context.Context
	snaps       chan grid.Snapshot
	unsubscribe func()

	snap    grid.Snapshot
	cursor  int
	mode    mode
	field   int
	input   textinput.Model
	details bool
	busy    bool
	flash   string
}

type snapshotMsg grid.Snapshot

type actionDoneMsg struct {
	verb   string
	detail string
	err    error
}

// New wires a model to g. The grid must not be started yet; Init starts it.
func New(ctx context.Context, g *grid.Controller, opts Options) *Model {
	ti := textinput.New()
	ti.Placeholder = "filter value"
	ti.CharLimit = 64
	ti.Prompt = ""

	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.ExportDir == "" {
		opts.ExportDir = "."
	}

	m := &Model{
		grid:        g,
		actions:     opts.Actions,
		render:      opts.Renderer,
		log:         logger.WithComponent("console"),
		submittedBy: opts.SubmittedBy,
		exportDir:   opts.ExportDir,
		title:       opts.Title,
		now:         opts.Now,
		seed:        opts.Seed,
		ctx:         ctx,
		snaps:       make(chan grid.Snapshot, 1),
		input:       ti,
		snap:        g.Snapshot(),
	}
	m.unsubscribe = g.Subscribe(m.offer)
	return m
}

// offer keeps only the newest snapshot in the channel.
func (m *Model) offer(s grid.Snapshot) {
	for {
		select {
		case m.snaps <- s:
			return
		default:
		}
		select {
		case old := <-m.snaps:
			if old.Version > s.Version {
				s = old
			}
		default:
		}
	}
}

func (m *Model) waitForSnapshot() tea.Cmd {
	ch := m.snaps
	return func() tea.Msg {
		s, ok := <-ch
		if !ok {
			return nil
		}
		return snapshotMsg(s)
	}
}

// Init implements tea.Model. It starts the grid with the seed filter.
func (m *Model) Init() tea.Cmd {
	m.grid.Start(m.seed)
	return m.waitForSnapshot()
}

// Close detaches the model from the grid.
func (m *Model) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
		m.unsubscribe = nil
	}
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case snapshotMsg:
		m.apply(grid.Snapshot(msg))
		return m, m.waitForSnapshot()

	case actionDoneMsg:
		m.busy = false
		if msg.err != nil {
			m.flash = fmt.Sprintf("%s failed: %v", msg.verb, msg.err)
			return m, nil
		}
		m.flash = msg.verb + " done"
		if msg.detail != "" {
			m.flash += ": " + msg.detail
		}
		if msg.verb != "export" {
			m.grid.Refresh()
		}
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.mode == modeFilter {
			return m, m.handleFilterKey(msg)
		}
		return m, m.handleBrowseKey(msg)
	}
	return m, nil
}

// apply takes a snapshot unless a newer one is already shown.
func (m *Model) apply(s grid.Snapshot) {
	if s.Version < m.snap.Version {
		return
	}
	m.snap = s
	if n := len(s.Rows.Invoices); m.cursor >= n {
		m.cursor = max(n-1, 0)
	}
}

func (m *Model) handleBrowseKey(msg tea.KeyMsg) tea.Cmd {
	if m.busy && msg.String() != "q" {
		return nil
	}

	switch key := msg.String(); key {
	case "q":
		return tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.snap.Rows.Invoices)-1 {
			m.cursor++
		}
	case "left", "h", "pgup":
		if m.snap.Page > 1 {
			m.grid.SetPage(m.snap.Page - 1)
		}
	case "right", "l", "pgdown":
		if m.snap.Page < m.snap.PageCount() {
			m.grid.SetPage(m.snap.Page + 1)
		}
	case "+":
		m.grid.SetPageSize(m.snap.PageSize * 2)
	case "-":
		m.grid.SetPageSize(max(m.snap.PageSize/2, 5))
	case " ":
		if inv := m.current(); inv != nil {
			m.grid.Toggle(inv.ID)
		}
	case "a":
		if m.grid.AllVisibleSelected() {
			m.grid.SelectNone()
		} else {
			m.grid.SelectAllVisible()
		}
	case "enter":
		m.details = !m.details
	case "r":
		m.grid.Refresh()
	case "c":
		m.grid.ClearFilters()
	case "/":
		m.enterFilter()
	case "1", "2", "3", "4", "5":
		status := sidebar[key[0]-'1']
		m.grid.SelectStatus(string(status))
	case "s":
		return m.runAction("submit")
	case "m":
		return m.runAction("merge")
	case "x":
		return m.runAction("red note")
	case "e":
		return m.runAction("export")
	}
	return nil
}

func (m *Model) enterFilter() {
	m.mode = modeFilter
	m.loadField()
	m.input.Focus()
}

// loadField puts the local value of the focused field into the input.
func (m *Model) loadField() {
	v := m.snap.Local.Get(filter.Fields[m.field])
	if v.IsAbsent() {
		m.input.SetValue("")
		return
	}
	m.input.SetValue(v.String())
	m.input.CursorEnd()
}

func (m *Model) handleFilterKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc", "enter":
		m.mode = modeBrowse
		m.input.Blur()
		return nil
	case "tab":
		m.field = (m.field + 1) % len(filter.Fields)
		m.loadField()
		return nil
	case "shift+tab":
		m.field = (m.field + len(filter.Fields) - 1) % len(filter.Fields)
		m.loadField()
		return nil
	}

	var cmd tea.Cmd
	before := m.input.Value()
	m.input, cmd = m.input.Update(msg)
	if after := m.input.Value(); after != before {
		m.grid.SetFilter(filter.Fields[m.field], after)
	}
	return cmd
}

func (m *Model) current() *models.Invoice {
	rows := m.snap.Rows.Invoices
	if m.cursor < 0 || m.cursor >= len(rows) {
		return nil
	}
	return &rows[m.cursor]
}

// targets is the selection, or the row under the cursor when nothing is
// selected.
func (m *Model) targets() []string {
	if len(m.snap.Selected) > 0 {
		return append([]string(nil), m.snap.Selected...)
	}
	if inv := m.current(); inv != nil {
		return []string{inv.ID}
	}
	return nil
}

// View implements tea.Model.
func (m *Model) View() string {
	var b strings.Builder
	if m.title != "" {
		b.WriteString(lipgloss.NewStyle().Bold(true).Render(m.title))
		b.WriteString("\n\n")
	}

	active, _ := models.ParseStatus(m.snap.Committed.Get(filter.FieldStatus).Text())
	side := m.render.Sidebar(m.snap.Rows.Totals, m.snap.Rows.AllCount(), active)

	selected := make(map[string]bool, len(m.snap.Selected))
	for _, id := range m.snap.Selected {
		selected[id] = true
	}
	var main strings.Builder
	main.WriteString(m.render.Filters(m.snap.Local, m.snap.Committed))
	main.WriteString("\n")
	if m.mode == modeFilter {
		fmt.Fprintf(&main, "%s: %s\n", filter.Fields[m.field], m.input.View())
	}
	if m.snap.State == grid.Loading {
		main.WriteString("Loading...\n")
	}
	if m.snap.State == grid.Error {
		main.WriteString(m.render.Error(m.snap.Err))
		main.WriteString("\n")
	}
	main.WriteString(m.render.Page(m.snap.Rows, m.cursor, func(id string) bool { return selected[id] }))
	main.WriteString("\n")
	if inv := m.current(); m.details && inv != nil {
		main.WriteString(m.render.Lines(*inv))
		main.WriteString("\n")
	}
	main.WriteString(m.render.Footer(m.snap.Page, m.snap.PageCount(), m.snap.Rows.Total, len(m.snap.Selected)))

	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, side, "   ", main.String()))
	b.WriteString("\n")
	if m.flash != "" {
		b.WriteString(m.flash)
		b.WriteString("\n")
	}
	b.WriteString(helpLine)
	return b.String()
}

const helpLine = "j/k move  h/l page  space select  a all  / filter  c clear  1-5 status  enter lines  s submit  m merge  x red note  e export  r refresh  q quit"
