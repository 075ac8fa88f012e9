// Package tui provides a narrow, read-only terminal view over the
// tracking store: a live list of tracked jobs with their state, queue,
// last-modified time and comment. It shows no percent completion, since
// the store holds no scheduler-observed usage. It does not
// submit, rerun, or delete jobs; all of that lives in internal/sweep and
// the cobra commands that drive it.
package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/wbeardall/schedtools-go/internal/jobmodel"
)

// Source supplies the rows the monitor displays. It is satisfied by
// tracking.TrackingQueue plus a refresh step, kept narrow so the monitor
// can be driven by a fake in tests.
type Source interface {
	Refresh(ctx context.Context) ([]jobmodel.JobSpec, error)
}

// Model is the bubbletea model for the monitor view.
type Model struct {
	source        Source
	table         table.Model
	lastRefresh   time.Time
	lastErr       error
	refreshPeriod time.Duration
}

// NewModel builds a monitor Model polling source every refreshPeriod.
func NewModel(source Source, refreshPeriod time.Duration) Model {
	columns := []table.Column{
		{Title: "ID", Width: 24},
		{Title: "State", Width: 12},
		{Title: "Queue", Width: 10},
		{Title: "Modified", Width: 20},
		{Title: "Comment", Width: 40},
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(20),
	)
	style := table.DefaultStyles()
	style.Header = style.Header.Bold(true).BorderStyle(lipgloss.NormalBorder()).BorderBottom(true)
	style.Selected = selectedStyle
	t.SetStyles(style)

	if refreshPeriod <= 0 {
		refreshPeriod = 15 * time.Second
	}
	return Model{source: source, table: t, refreshPeriod: refreshPeriod}
}

type refreshMsg struct {
	specs []jobmodel.JobSpec
	err   error
}

func (m Model) refreshCmd() tea.Cmd {
	return func() tea.Msg {
		specs, err := m.source.Refresh(context.Background())
		return refreshMsg{specs: specs, err: err}
	}
}

func (m Model) tickCmd() tea.Cmd {
	return tea.Tick(m.refreshPeriod, func(time.Time) tea.Msg { return tickMsg{} })
}

type tickMsg struct{}

// Init kicks off the first refresh and the recurring tick.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.refreshCmd(), m.tickCmd())
}

// Update handles bubbletea messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "r":
			return m, m.refreshCmd()
		}
	case tickMsg:
		return m, tea.Batch(m.refreshCmd(), m.tickCmd())
	case refreshMsg:
		m.lastRefresh = time.Now()
		m.lastErr = msg.err
		if msg.err == nil {
			m.table.SetRows(rowsFor(msg.specs))
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func rowsFor(specs []jobmodel.JobSpec) []table.Row {
	rows := make([]table.Row, 0, len(specs))
	for _, s := range specs {
		rows = append(rows, table.Row{
			s.ID,
			string(s.State),
			s.Queue,
			humanize.Time(s.ModifiedTime),
			s.Comment,
		})
	}
	return rows
}

// View renders the monitor.
func (m Model) View() string {
	header := titleStyle.Render("remote-jobs monitor")
	status := dimStyle.Render(fmt.Sprintf("last refresh: %s", humanize.Time(m.lastRefresh)))
	if m.lastErr != nil {
		status = errorStyle.Render(fmt.Sprintf("refresh failed: %v", m.lastErr))
	}
	help := helpStyle.Render("r refresh  q quit")
	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		panelStyle.Render(m.table.View()),
		status,
		help,
	)
}
