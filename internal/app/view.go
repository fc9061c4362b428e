package app

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/j-veylop/gemini-token-dashboard/internal/ui/styles"
)

// toastTop is the row of the first toast, just below the tab bar.
const toastTop = 2

// View renders the tab bar, the active tab and any overlays.
func (m *Model) View() string {
	var b strings.Builder

	if m.width > 0 {
		b.WriteString(m.renderNavbar())
		b.WriteString("\n")
	}

	if !m.ready {
		b.WriteString(m.styles.Content.Render(m.spinner.View() + " Loading..."))
		return b.String()
	}

	if tab := m.currentTab(); tab != nil {
		b.WriteString(tab.View())
	} else {
		b.WriteString(m.renderPlaceholder())
	}

	view := b.String()

	if m.showHelp {
		panel := m.renderHelp()
		x := (m.width - lipgloss.Width(panel)) / 2
		y := (m.height - lipgloss.Height(panel)) / 2
		view = placeOverlay(view, panel, x, y)
	}

	if toasts := m.renderNotifications(); len(toasts) > 0 {
		stack := lipgloss.JoinVertical(lipgloss.Right, toasts...)
		view = placeOverlay(view, stack, m.width-lipgloss.Width(stack)-2, toastTop)
	}

	return view
}

// placeOverlay draws fg over bg with its top-left corner at (x, y). Lines of
// bg are padded when fg lands past their end, and bg grows when fg hangs
// below it.
func placeOverlay(bg, fg string, x, y int) string {
	x, y = max(x, 0), max(y, 0)

	bgLines := strings.Split(bg, "\n")
	fgLines := strings.Split(fg, "\n")
	fgWidth := lipgloss.Width(fg)

	for len(bgLines) < y+len(fgLines) {
		bgLines = append(bgLines, "")
	}

	for i, line := range fgLines {
		under := bgLines[y+i]

		left := ansi.Truncate(under, x, "")
		if w := lipgloss.Width(left); w < x {
			left += strings.Repeat(" ", x-w)
		}
		right := ansi.TruncateLeft(under, x+fgWidth, "")

		bgLines[y+i] = left + line + right
	}

	return strings.Join(bgLines, "\n")
}

func (m *Model) currentTab() Tab {
	if int(m.activeTab) < len(m.tabs) {
		return m.tabs[m.activeTab]
	}
	return nil
}

func (m *Model) renderNavbar() string {
	tabs := make([]string, 0, len(m.tabNames))
	for i, name := range m.tabNames {
		if TabID(i) == m.activeTab {
			tabs = append(tabs, m.styles.ActiveTab.Render(fmt.Sprintf("[%d] %s", i+1, name)))
		} else {
			tabs = append(tabs, m.styles.InactiveTab.Render(fmt.Sprintf(" %d  %s", i+1, name)))
		}
	}

	return m.styles.TabBar.Width(m.width).Render(lipgloss.JoinHorizontal(lipgloss.Top, tabs...))
}

func (m *Model) renderNotifications() []string {
	notifications := m.state.GetNotifications()
	if len(notifications) == 0 {
		return nil
	}

	toasts := make([]string, 0, len(notifications))
	for _, n := range notifications {
		style, prefix := m.notificationLook(n.Type)
		toasts = append(toasts, m.styles.Toast.Render(style.Render(prefix+" "+n.Message)))
	}
	return toasts
}

func (m *Model) notificationLook(t NotificationType) (lipgloss.Style, string) {
	switch t {
	case NotificationSuccess:
		return m.styles.NotificationSuccess, "[OK]"
	case NotificationError:
		return m.styles.NotificationError, "[ERR]"
	case NotificationWarning:
		return m.styles.NotificationWarning, "[WARN]"
	case NotificationLoading:
		return m.styles.NotificationInfo, m.spinner.View()
	default:
		return m.styles.NotificationInfo, "[INFO]"
	}
}

// renderHelp lists the global bindings followed by the active tab's.
func (m *Model) renderHelp() string {
	h := help.New()

	sections := []string{
		m.styles.Title.Render("Keyboard Shortcuts"),
		"",
		h.FullHelpView(m.keymap.FullHelp()),
	}

	if tab := m.currentTab(); tab != nil {
		if bindings := tab.ShortHelp(); len(bindings) > 0 {
			sections = append(sections,
				"",
				m.styles.Highlight.Render(m.tabNames[m.activeTab]+" Tab"),
				h.FullHelpView([][]key.Binding{bindings}),
			)
		}
	}

	sections = append(sections, "", m.styles.Subtle.Render("Press ? or Esc to close"))

	return styles.HelpPanelStyle.Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

func (m *Model) renderPlaceholder() string {
	name := m.activeTab.String()
	if int(m.activeTab) < len(m.tabNames) {
		name = m.tabNames[m.activeTab]
	}
	return m.styles.Content.Render(fmt.Sprintf(
		"Tab %d: %s\n\n%s",
		m.activeTab+1,
		name,
		m.styles.Subtle.Render("This tab is not yet implemented."),
	))
}
