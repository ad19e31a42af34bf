package watch

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/biocat/internal/api"
	"github.com/muurk/biocat/internal/ui"
)

// pollTimeout bounds a single refresh cycle. A stuck poll must not
// outlive the next tick.
const pollTimeout = 30 * time.Second

// refreshMsg carries the result of one polling cycle.
type refreshMsg struct {
	snapshot     *api.Snapshot
	measurements *api.Measurements
	err          error
	fetchedAt    time.Time
}

// tickMsg triggers the next polling cycle.
type tickMsg time.Time

// keyMap defines key bindings for the watch dashboard
type keyMap struct {
	Refresh key.Binding
	Help    key.Binding
	Quit    key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Refresh, k.Help, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Refresh, k.Help, k.Quit}}
}

// Model is the bubbletea model for the live device dashboard. It polls
// the cloud API on a fixed interval and renders the latest snapshot.
type Model struct {
	client   *api.Client
	interval time.Duration

	snapshot     *api.Snapshot
	measurements *api.Measurements
	lastError    error
	lastUpdated  time.Time
	refreshing   bool

	width  int
	height int

	spinner spinner.Model
	help    help.Model
	keys    keyMap
	quit    bool
}

// NewModel creates a dashboard model polling with the given interval.
func NewModel(client *api.Client, interval time.Duration) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(ui.PrimaryColor)

	keys := keyMap{
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}

	return Model{
		client:     client,
		interval:   interval,
		refreshing: true,
		spinner:    s,
		help:       help.New(),
		keys:       keys,
	}
}

// Init starts the spinner and kicks off the first poll immediately.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, refreshCmd(m.client))
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quit = true
			return m, tea.Quit

		case key.Matches(msg, m.keys.Refresh):
			if m.refreshing {
				return m, nil
			}
			m.refreshing = true
			return m, refreshCmd(m.client)

		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tickMsg:
		if m.refreshing {
			// A manual refresh is already in flight; skip this cycle.
			return m, scheduleTick(m.interval)
		}
		m.refreshing = true
		return m, refreshCmd(m.client)

	case refreshMsg:
		m.refreshing = false
		m.lastError = msg.err
		if msg.err == nil {
			m.snapshot = msg.snapshot
			m.measurements = msg.measurements
			m.lastUpdated = msg.fetchedAt
		}
		return m, scheduleTick(m.interval)
	}

	return m, nil
}

// refreshCmd fetches a snapshot and the current sensor readings.
func refreshCmd(client *api.Client) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), pollTimeout)
		defer cancel()

		snap, err := client.Snapshot(ctx)
		if err != nil {
			return refreshMsg{err: err}
		}

		// Measurements are best-effort on top of the snapshot; the
		// dashboard still renders without them.
		meas, err := client.Measurements(ctx)
		if err != nil {
			meas = nil
		}

		return refreshMsg{
			snapshot:     snap,
			measurements: meas,
			fetchedAt:    time.Now(),
		}
	}
}

func scheduleTick(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// View renders the dashboard
func (m Model) View() string {
	if m.quit {
		return ""
	}

	var sections []string

	title := lipgloss.NewStyle().
		Foreground(ui.PrimaryColor).
		Bold(true).
		Render("BIOCAT LIVE DASHBOARD")
	sections = append(sections, title)

	status := m.statusLine()
	sections = append(sections, status, "")

	if m.snapshot == nil && m.lastError == nil {
		sections = append(sections, fmt.Sprintf("  %s Contacting device...", m.spinner.View()))
	}

	if m.lastError != nil {
		sections = append(sections, ui.ErrorMessageStyle.Render("  "+m.lastError.Error()))
		if m.snapshot != nil {
			sections = append(sections, ui.TroubleshootingItemStyle.Render("  Showing the last successful reading."))
		}
		sections = append(sections, "")
	}

	if m.snapshot != nil {
		sections = append(sections, ui.RenderSnapshot(m.snapshot))
		if m.measurements != nil {
			sections = append(sections, ui.RenderMeasurements(m.measurements))
		}
	}

	sections = append(sections, "", m.help.View(m.keys))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) statusLine() string {
	muted := lipgloss.NewStyle().Foreground(ui.MutedColor)

	if m.refreshing {
		return muted.Render(fmt.Sprintf("  %s refreshing (every %s)", m.spinner.View(), m.interval))
	}
	if !m.lastUpdated.IsZero() {
		return muted.Render(fmt.Sprintf("  updated %s ago (every %s)",
			time.Since(m.lastUpdated).Round(time.Second), m.interval))
	}
	return muted.Render(fmt.Sprintf("  polling every %s", m.interval))
}

// Run starts the dashboard and blocks until the user quits.
func Run(client *api.Client, interval time.Duration) error {
	p := tea.NewProgram(NewModel(client, interval), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("dashboard failed: %w", err)
	}
	return nil
}
