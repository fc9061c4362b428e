// Package dashboard provides the token analysis tab: the summary cards above
// the intraday usage chart.
package dashboard

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/gemini-token-dashboard/internal/app"
	"github.com/j-veylop/gemini-token-dashboard/internal/services"
	"github.com/j-veylop/gemini-token-dashboard/internal/services/poller"
	"github.com/j-veylop/gemini-token-dashboard/internal/ui/components"
	"github.com/j-veylop/gemini-token-dashboard/internal/ui/panels/summary"
	"github.com/j-veylop/gemini-token-dashboard/internal/ui/panels/usage"
	"github.com/j-veylop/gemini-token-dashboard/internal/ui/styles"
)

// Model composes the summary and usage panels. Each panel polls on its own.
type Model struct {
	state    *app.State
	summary  *summary.Panel
	usage    *usage.Panel
	spinner  components.LoadingSpinner
	viewport viewport.Model
	width    int
	height   int
}

// New creates the dashboard over the manager's two feeds.
func New(state *app.State, mgr *services.Manager) *Model {
	return &Model{
		state:    state,
		summary:  summary.New(mgr.Summary()),
		usage:    usage.New(mgr.Usage()),
		spinner:  components.NewSpinner("Fetching statistics..."),
		viewport: viewport.New(0, 0),
	}
}

// Init starts both panels.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Init(), m.summary.Init(), m.usage.Init())
}

// Update forwards poller updates and keys to both panels.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case poller.Update:
		cmds = append(cmds, m.summary.Update(msg), m.usage.Update(msg))

	case tea.KeyMsg:
		cmds = append(cmds, m.summary.Update(msg), m.usage.Update(msg))
		if !m.isPanelKey(msg) {
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			cmds = append(cmds, cmd)
		}

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)

	case spinner.TickMsg:
		// The spinner only runs until the first result.
		if m.state.IsInitialLoading() {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) isPanelKey(msg tea.KeyMsg) bool {
	return key.Matches(msg, m.usage.Keys()...)
}

// Close stops both panels.
func (m *Model) Close() {
	m.summary.Close()
	m.usage.Close()
}

// SetSize sets the available size for the dashboard.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height

	inner := width - styles.DocStyle.GetHorizontalFrameSize()
	m.summary.SetWidth(inner)
	m.usage.SetWidth(inner)
}

// ShortHelp returns the chart focus keys. Refresh is a global key.
func (m *Model) ShortHelp() []key.Binding {
	return m.usage.Keys()
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		m.usage.Keys(),
	}
}
