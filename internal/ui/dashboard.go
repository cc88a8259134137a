package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/litescript/ls-armillary/internal/astro"
	"github.com/litescript/ls-armillary/internal/engine"
	"github.com/litescript/ls-armillary/internal/state"
)

// Styles for the dashboard
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#D4A72C"))

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")).
			Background(lipgloss.Color("235")).
			Padding(0, 1)

	rowStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	selectedRowStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("229")).
				Background(lipgloss.Color("24"))

	aboveStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#14B8A6"))

	belowStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("244"))

	fallbackStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("208"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))
)

// DashboardModel is the main overview: angles, bodies and the Sun's day.
type DashboardModel struct {
	width    int
	height   int
	cursor   int
	snapshot state.Snapshot
	lastErr  error
}

// NewDashboardModel creates a new dashboard model.
func NewDashboardModel() DashboardModel {
	return DashboardModel{}
}

// Init implements the Bubble Tea model interface.
func (m DashboardModel) Init() tea.Cmd {
	return nil
}

// SetSize updates the viewport size.
func (m DashboardModel) SetSize(width, height int) DashboardModel {
	m.width = width
	m.height = height
	return m
}

// UpdateData updates the model with new data.
func (m DashboardModel) UpdateData(snapshot state.Snapshot) DashboardModel {
	m.snapshot = snapshot
	if n := len(frameBodies(snapshot.Frame)); m.cursor >= n && n > 0 {
		m.cursor = n - 1
	}
	return m
}

// SetError sets the last error for display.
func (m DashboardModel) SetError(err error) DashboardModel {
	m.lastErr = err
	return m
}

// Update handles messages.
func (m DashboardModel) Update(msg tea.Msg) (DashboardModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		count := len(frameBodies(m.snapshot.Frame))

		switch msg.String() {
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < count-1 {
				m.cursor++
			}
		case "home":
			m.cursor = 0
		case "end":
			if count > 0 {
				m.cursor = count - 1
			}
		case "enter":
			if name := m.SelectedBody(); name != "" {
				return m, func() tea.Msg { return OpenBodyMsg{Name: name} }
			}
		}
	}

	return m, nil
}

// View renders the dashboard.
func (m DashboardModel) View() string {
	var b strings.Builder

	if m.lastErr != nil {
		b.WriteString(errorStyle.Render("Error: " + m.lastErr.Error()))
		b.WriteString("\n\n")
	}

	f := m.snapshot.Frame
	if f == nil {
		if m.lastErr == nil {
			b.WriteString("Waiting for first frame...\n")
		}
		return b.String()
	}

	b.WriteString(m.renderSkyClock(f))
	b.WriteString("\n")
	b.WriteString(m.renderAngles(f))
	b.WriteString("\n")
	b.WriteString(m.renderBodiesTable(f))
	b.WriteString("\n")
	b.WriteString(titleStyle.Render("Sun & Moon"))
	b.WriteString("\n")
	b.WriteString(RenderRiseSetPanel(f))
	b.WriteString("\n")
	b.WriteString(renderTraceSparkline(f, SparklineWidth))
	b.WriteString("\n")

	if events := m.snapshot.Events; len(events) > 0 {
		b.WriteString("\n")
		b.WriteString(m.renderEvents(events, 4))
	}

	return b.String()
}

func (m DashboardModel) renderSkyClock(f *engine.Frame) string {
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("60"))
	valueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("252"))

	t := f.Time()
	clock := fmt.Sprintf("%s UTC, %s day", t.Format("2006-01-02 15:04:05"), humanize.Ordinal(f.Instant.DayOfYear))
	parts := []string{
		valueStyle.Render(clock),
		dimStyle.Render("JD ") + valueStyle.Render(fmt.Sprintf("%.5f", f.JulianDate)),
		dimStyle.Render("LST ") + valueStyle.Render(formatLST(f.LSTDeg)),
		dimStyle.Render("ε ") + valueStyle.Render(fmt.Sprintf("%.4f°", astro.RadToDeg(f.ObliquityRad))),
	}
	obs := fmt.Sprintf("%.4f°, %.4f°", f.Location.LatDeg, f.Location.LonDeg)
	if f.Clamped {
		obs += " (clamped)"
	}
	parts = append(parts, dimStyle.Render("at ")+valueStyle.Render(obs))

	return "  " + strings.Join(parts, dimStyle.Render("  ·  "))
}

// formatLST renders sidereal time in degrees as HHhMMm.
func formatLST(deg float64) string {
	hours := astro.NormalizeDegrees(deg) / 15
	h := int(hours)
	mins := int((hours - float64(h)) * 60)
	return fmt.Sprintf("%02dh%02dm", h, mins)
}

func (m DashboardModel) renderAngles(f *engine.Frame) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Angles"))
	b.WriteString("\n")

	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Width(5)
	valueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Width(24)

	for i, name := range engine.AngleNames {
		if i%3 == 0 {
			b.WriteString("  ")
		}
		b.WriteString(labelStyle.Render(name))
		b.WriteString(valueStyle.Render(signGlyph(angleLongitude(f.Angles, name)) + " " + f.AngleZodiac[name]))
		if i%3 == 2 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (m DashboardModel) renderBodiesTable(f *engine.Frame) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Bodies"))
	b.WriteString("\n")

	header := fmt.Sprintf("%-10s %-20s %8s %8s  %-12s %-10s",
		"Body", "Longitude", "Alt", "Az", "Horizon", "Source")
	b.WriteString(headerStyle.Render(header))
	b.WriteString("\n")

	bodies := frameBodies(f)
	if len(bodies) == 0 {
		b.WriteString("  No bodies\n")
		return b.String()
	}

	maxRows := m.height - 22
	if maxRows < 5 {
		maxRows = 5
	}

	startIdx := 0
	if m.cursor >= maxRows {
		startIdx = m.cursor - maxRows + 1
	}
	endIdx := startIdx + maxRows
	if endIdx > len(bodies) {
		endIdx = len(bodies)
	}

	for i := startIdx; i < endIdx; i++ {
		p := bodies[i]

		source := truncate(p.Source, 10)
		if p.Fallback {
			source = "fallback"
		}

		row := fmt.Sprintf("%-10s %-20s %7.1f° %7.1f°  %s %-10s",
			truncate(p.Glyph+" "+p.Name, 10),
			p.Zodiac,
			p.AltDeg,
			p.AzDeg,
			m.renderAltitudeBar(p.AltDeg, 10),
			source,
		)

		switch {
		case i == m.cursor:
			b.WriteString(selectedRowStyle.Render(row))
		case p.Fallback:
			b.WriteString(fallbackStyle.Render(row))
		default:
			b.WriteString(rowStyle.Render(row))
		}
		b.WriteString("\n")
	}

	if len(bodies) > maxRows {
		b.WriteString(fmt.Sprintf("\n  Showing %d-%d of %d bodies", startIdx+1, endIdx, len(bodies)))
	}

	return b.String()
}

// renderAltitudeBar fills one cell per 90/width degrees above the horizon.
func (m DashboardModel) renderAltitudeBar(altDeg float64, width int) string {
	filled := 0
	if altDeg > 0 {
		filled = int(altDeg / 90 * float64(width))
	}
	if filled > width {
		filled = width
	}

	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)

	style := belowStyle
	if altDeg > 0 {
		style = aboveStyle
	}
	return "[" + style.Render(bar) + "]"
}

func (m DashboardModel) renderEvents(events []state.Event, n int) string {
	var b strings.Builder
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("60"))

	b.WriteString(titleStyle.Render("Recent Events"))
	b.WriteString("\n")

	if len(events) > n {
		events = events[len(events)-n:]
	}
	now := time.Now()
	for i := len(events) - 1; i >= 0; i-- {
		e := events[i]
		what := e.Body
		if e.NewValue != "" {
			what = strings.TrimSpace(what + " " + e.NewValue)
		}
		if what == "" {
			what = e.Detail
		}
		line := fmt.Sprintf("  %-16s %-36s", e.Type, truncate(what, 36))
		b.WriteString(rowStyle.Render(line))
		b.WriteString(dimStyle.Render(humanize.RelTime(e.Timestamp, now, "ago", "from now")))
		b.WriteString("\n")
	}
	return b.String()
}

// SelectedBody returns the name of the highlighted body, or "".
func (m DashboardModel) SelectedBody() string {
	bodies := frameBodies(m.snapshot.Frame)
	if m.cursor < 0 || m.cursor >= len(bodies) {
		return ""
	}
	return bodies[m.cursor].Name
}

// frameBodies lists the Sun, the Moon and the available planets of f.
func frameBodies(f *engine.Frame) []engine.BodyPosition {
	if f == nil {
		return nil
	}
	out := make([]engine.BodyPosition, 0, 2+len(f.Planets))
	out = append(out, f.Sun, f.Moon)
	for _, p := range f.Planets {
		if p.Available {
			out = append(out, p)
		}
	}
	return out
}

// findBody returns the named body of f.
func findBody(f *engine.Frame, name string) (engine.BodyPosition, bool) {
	for _, p := range frameBodies(f) {
		if p.Name == name {
			return p, true
		}
	}
	return engine.BodyPosition{}, false
}

func angleLongitude(a astro.Angles, name string) float64 {
	switch name {
	case "MC":
		return a.MC
	case "IC":
		return a.IC
	case "ASC":
		return a.ASC
	case "DSC":
		return a.DSC
	case "VTX":
		return a.VTX
	default:
		return a.AVX
	}
}

func signGlyph(lonDeg float64) string {
	return astro.Zodiac(lonDeg).SignInfo().Glyph
}

func truncate(s string, maxLen int) string {
	if len([]rune(s)) <= maxLen {
		return s
	}
	r := []rune(s)
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
