// Package ui provides the terminal user interface using Bubble Tea.
package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/litescript/ls-armillary/internal/state"
	"github.com/litescript/ls-armillary/internal/version"
)

// ViewMode represents the current UI view.
type ViewMode int

const (
	ViewDashboard ViewMode = iota
	ViewBodyDetail
	ViewSky
	ViewOrrery
)

// Msg types for Bubble Tea
type (
	// TickMsg triggers periodic UI updates.
	TickMsg time.Time

	// AnimTickMsg triggers fast animation updates.
	AnimTickMsg time.Time

	// FrameUpdateMsg signals a new frame is in the state manager.
	FrameUpdateMsg struct {
		Snapshot state.Snapshot
	}

	// ErrorMsg signals a compute error.
	ErrorMsg struct {
		Error error
	}

	// OpenBodyMsg requests the detail view for a body.
	OpenBodyMsg struct {
		Name string
	}
)

// Model is the root Bubble Tea model.
type Model struct {
	state *state.Manager

	viewMode ViewMode
	width    int
	height   int
	ready    bool
	animTick int

	dashboard DashboardModel
	detail    BodyDetailModel
	skyView   SkyViewModel
	orrery    OrreryModel

	snapshot state.Snapshot
}

// New creates a new root UI model reading from stateMgr.
func New(stateMgr *state.Manager) Model {
	return Model{
		state:     stateMgr,
		viewMode:  ViewDashboard,
		dashboard: NewDashboardModel(),
		detail:    NewBodyDetailModel(),
		skyView:   NewSkyViewModel(),
		orrery:    NewOrreryModel(),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		tickCmd(),
		animTickCmd(),
		m.dashboard.Init(),
	)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit

		case "1", "d":
			m.viewMode = ViewDashboard
		case "2", "b":
			m.viewMode = ViewBodyDetail
		case "3", "s":
			if m.viewMode != ViewSky {
				m.skyView = m.skyView.FocusBody(m.dashboard.SelectedBody())
			}
			m.viewMode = ViewSky
		case "4", "o":
			m.viewMode = ViewOrrery

		case "tab":
			m.viewMode = (m.viewMode + 1) % 4

		default:
			cmds = append(cmds, m.updateActiveView(msg))
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true

		// Logo ~10 lines, footer ~2
		contentHeight := msg.Height - 14
		m.dashboard = m.dashboard.SetSize(msg.Width, contentHeight)
		m.detail = m.detail.SetSize(msg.Width, contentHeight)
		m.skyView = m.skyView.SetSize(msg.Width, contentHeight)
		m.orrery = m.orrery.SetSize(msg.Width, contentHeight)

	case TickMsg:
		cmds = append(cmds, tickCmd())
		if m.state != nil {
			m.applySnapshot(m.state.Snapshot())
		}

	case AnimTickMsg:
		cmds = append(cmds, animTickCmd())
		m.animTick++
		m.detail = m.detail.SetAnimTick(m.animTick)

	case FrameUpdateMsg:
		m.applySnapshot(msg.Snapshot)

	case OpenBodyMsg:
		m.detail = m.detail.SelectBody(msg.Name)
		m.detail = m.detail.UpdateHistory(m.bodyHistory(msg.Name))
		m.viewMode = ViewBodyDetail

	case ErrorMsg:
		m.dashboard = m.dashboard.SetError(msg.Error)

	default:
		cmds = append(cmds, m.updateActiveView(msg))
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) applySnapshot(snap state.Snapshot) {
	m.snapshot = snap
	m.dashboard = m.dashboard.UpdateData(snap)
	m.detail = m.detail.UpdateData(snap)
	m.detail = m.detail.UpdateHistory(m.bodyHistory(m.detail.SelectedBody()))
	m.skyView = m.skyView.UpdateData(snap)
	m.orrery = m.orrery.UpdateData(snap)
}

func (m Model) bodyHistory(name string) *state.BodyHistory {
	if m.state == nil || name == "" {
		return nil
	}
	return m.state.GetBodyHistory(name)
}

func (m *Model) updateActiveView(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch m.viewMode {
	case ViewDashboard:
		m.dashboard, cmd = m.dashboard.Update(msg)
	case ViewBodyDetail:
		prev := m.detail.SelectedBody()
		m.detail, cmd = m.detail.Update(msg)
		if name := m.detail.SelectedBody(); name != prev {
			m.detail = m.detail.UpdateHistory(m.bodyHistory(name))
		}
	case ViewSky:
		m.skyView, cmd = m.skyView.Update(msg)
	case ViewOrrery:
		m.orrery, cmd = m.orrery.Update(msg)
	}
	return cmd
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	var content string
	switch m.viewMode {
	case ViewDashboard:
		content = m.dashboard.View()
	case ViewBodyDetail:
		content = m.detail.View()
	case ViewSky:
		content = m.skyView.View()
	case ViewOrrery:
		content = m.orrery.View()
	}

	return m.renderHeader() + "\n" + content + "\n" + m.renderFooter()
}

func (m Model) renderHeader() string {
	return m.renderLogo() + m.renderTabs() + "\n"
}

func (m Model) renderLogo() string {
	logo := []string{
		`   █████╗ ██████╗ ███╗   ███╗██╗██╗     ██╗      █████╗ ██████╗ ██╗   ██╗`,
		`  ██╔══██╗██╔══██╗████╗ ████║██║██║     ██║     ██╔══██╗██╔══██╗╚██╗ ██╔╝`,
		`  ███████║██████╔╝██╔████╔██║██║██║     ██║     ███████║██████╔╝ ╚████╔╝ `,
		`  ██╔══██║██╔══██╗██║╚██╔╝██║██║██║     ██║     ██╔══██║██╔══██╗  ╚██╔╝  `,
		`  ██║  ██║██║  ██║██║ ╚═╝ ██║██║███████╗███████╗██║  ██║██║  ██║   ██║   `,
		`  ╚═╝  ╚═╝╚═╝  ╚═╝╚═╝     ╚═╝╚═╝╚══════╝╚══════╝╚═╝  ╚═╝╚═╝  ╚═╝   ╚═╝   `,
	}

	var b strings.Builder
	b.WriteString("\n")
	for row, line := range logo {
		runes := []rune(line)
		for col, r := range runes {
			color := gradientColor(col, row, len(runes), len(logo))
			b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render(string(r)))
		}
		b.WriteString("\n")
	}

	muted := lipgloss.NewStyle().Foreground(lipgloss.Color("60"))
	tagline := fmt.Sprintf("  Armillary sphere · angles, luminaries and horizon | v%s", version.Version)
	if m.snapshot.Frame != nil {
		tagline += " | " + m.snapshot.Frame.Provider
	}
	b.WriteString(muted.Render(tagline))
	b.WriteString("\n\n")

	return b.String()
}

// gradientColor returns a hex color for a position in the logo gradient:
// deep navy through teal to brass, fading toward the bottom rows.
func gradientColor(col, row, width, height int) string {
	xRatio := float64(col) / float64(width)
	yRatio := float64(row) / float64(height)

	var r, g, b float64
	if xRatio < 0.5 {
		// Navy (#1E3A8A) to teal (#14B8A6)
		t := xRatio / 0.5
		r = 30 + t*(20-30)
		g = 58 + t*(184-58)
		b = 138 + t*(166-138)
	} else {
		// Teal to brass (#D4A72C)
		t := (xRatio - 0.5) / 0.5
		r = 20 + t*(212-20)
		g = 184 + t*(167-184)
		b = 166 + t*(44-166)
	}

	f := 1.0 - yRatio*0.45
	return fmt.Sprintf("#%02X%02X%02X", clampByte(r*f), clampByte(g*f), clampByte(b*f))
}

func clampByte(v float64) int {
	switch {
	case v < 0:
		return 0
	case v > 255:
		return 255
	default:
		return int(v)
	}
}

func (m Model) renderTabs() string {
	tabs := []string{"[1] Dashboard", "[2] Body", "[3] Sky", "[4] Orrery"}
	activeStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#D4A72C")).Bold(true)
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("60"))

	var parts []string
	for i, tab := range tabs {
		if ViewMode(i) == m.viewMode {
			parts = append(parts, activeStyle.Render("▶ "+tab))
		} else {
			parts = append(parts, dimStyle.Render("  "+tab))
		}
	}
	return "  " + strings.Join(parts, "  ")
}

func (m Model) renderFooter() string {
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("60"))
	errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#E84A27"))
	accentStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#14B8A6"))

	spinnerFrames := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
	spinner := spinnerFrames[m.animTick%len(spinnerFrames)]

	var status string
	switch {
	case m.snapshot.LastError != nil:
		status = errorStyle.Render("ERROR: " + m.snapshot.LastError.Error())
	case !m.snapshot.LastCompute.IsZero():
		countdown := time.Until(m.snapshot.LastCompute.Add(m.refreshInterval())).Round(time.Second)
		if countdown < 0 {
			countdown = 0
		}
		status = accentStyle.Render(spinner) + dimStyle.Render(fmt.Sprintf(" next frame in %ds", int(countdown.Seconds())))
		if m.snapshot.ComputeDuration > 0 {
			status += dimStyle.Render(" (" + m.snapshot.ComputeDuration.Round(time.Millisecond).String() + ")")
		}
		if f := m.snapshot.Frame; f != nil && f.UsedFallback() {
			status += errorStyle.Render(fmt.Sprintf(" %d fallback(s)", len(f.Fallbacks)))
		}
	default:
		status = accentStyle.Render(spinner) + " " + m.renderShimmerText("Computing sky...")
	}

	var help string
	switch m.viewMode {
	case ViewBodyDetail:
		help = "←/→: body | w: wheel stars"
	case ViewSky:
		help = "j/k: focus | l: labels | t: stars | h: horizon view"
	case ViewOrrery:
		help = "j/k: focus | +/-: zoom | arrows: pan | f: find | l: labels | z: mode | t: stars"
	default:
		help = "↑↓: navigate | enter: body detail | tab: switch view"
	}

	return "  " + status + "  " + dimStyle.Render("|") + "  " + dimStyle.Render(help)
}

func (m Model) refreshInterval() time.Duration {
	if m.state == nil {
		return state.DefaultConfig().RefreshInterval
	}
	return m.state.RefreshInterval()
}

func tickCmd() tea.Cmd {
	return tea.Tick(500*time.Millisecond, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func animTickCmd() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(t time.Time) tea.Msg {
		return AnimTickMsg(t)
	})
}

// SendFrameUpdate creates a command that delivers a new snapshot.
func SendFrameUpdate(snapshot state.Snapshot) tea.Cmd {
	return func() tea.Msg {
		return FrameUpdateMsg{Snapshot: snapshot}
	}
}

// SendError creates a command that sends an error message.
func SendError(err error) tea.Cmd {
	return func() tea.Msg {
		return ErrorMsg{Error: err}
	}
}

// renderShimmerText renders text with a moving highlight.
func (m Model) renderShimmerText(text string) string {
	return shimmer(text, m.animTick)
}

func shimmer(text string, tick int) string {
	runes := []rune(text)
	if len(runes) == 0 {
		return ""
	}

	pos := tick % (len(runes) + 8)

	var result strings.Builder
	for i, r := range runes {
		dist := i - pos + 4
		if dist < 0 {
			dist = -dist
		}

		var r8, g8, b8 int
		switch {
		case dist <= 1:
			r8, g8, b8 = 150, 220, 210
		case dist <= 3:
			r8, g8, b8 = 110, 180, 170
		case dist <= 5:
			r8, g8, b8 = 80, 140, 135
		default:
			r8, g8, b8 = 60, 100, 110
		}

		style := lipgloss.NewStyle().Foreground(lipgloss.Color(fmt.Sprintf("#%02X%02X%02X", r8, g8, b8)))
		result.WriteString(style.Render(string(r)))
	}
	return result.String()
}
