package ui

import (
	"fmt"
	"math"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/litescript/ls-armillary/internal/astro"
	"github.com/litescript/ls-armillary/internal/engine"
	"github.com/litescript/ls-armillary/internal/state"
)

// lightSecondsPerAU is the one-way light time across 1 AU.
const lightSecondsPerAU = 499.004784

// orreryBody is a body placed on the heliocentric chart.
type orreryBody struct {
	Name  string
	Glyph string
	Pos   astro.SphericalPosition
	Giant bool
}

// OrreryModel renders a top-down heliocentric view of the planets.
type OrreryModel struct {
	width  int
	height int
	frame  *engine.Frame
	bodies []orreryBody

	focusIdx   int // index in bodies, -1 = Sun
	zoomLevel  int // index into zoomLevels
	panX       float64
	panY       float64
	scaleMode  astro.ScaleMode
	labelMode  LabelMode
	userPanned bool // disables auto-center on zoom
	showStars  bool
}

// Discrete zoom levels for clean stepping
var zoomLevels = []float64{0.25, 0.5, 0.75, 1.0, 1.5, 2.0, 3.0, 5.0, 10.0}

const defaultZoomLevel = 3

// NewOrreryModel creates a new orrery model centered on the Sun.
func NewOrreryModel() OrreryModel {
	return OrreryModel{
		focusIdx:  -1,
		zoomLevel: defaultZoomLevel,
		scaleMode: astro.ScaleLogR,
		labelMode: LabelFocused,
		showStars: true,
	}
}

func (m OrreryModel) scale() float64 {
	if m.zoomLevel < 0 || m.zoomLevel >= len(zoomLevels) {
		return 1.0
	}
	return zoomLevels[m.zoomLevel]
}

func (m OrreryModel) projection() astro.ProjectionConfig {
	return astro.ProjectionConfig{Mode: m.scaleMode, Scale: astro.DefaultProjectionConfig().Scale}
}

// SetSize updates the viewport size.
func (m OrreryModel) SetSize(width, height int) OrreryModel {
	m.width = width
	m.height = height
	return m
}

// UpdateData rebuilds the chart from the snapshot's frame.
func (m OrreryModel) UpdateData(snapshot state.Snapshot) OrreryModel {
	m.frame = snapshot.Frame
	m.bodies = orreryBodies(snapshot.Frame)
	if m.focusIdx >= len(m.bodies) {
		m.focusIdx = -1
	}
	return m
}

// orreryBodies lists the planets with heliocentric positions. Earth is
// placed opposite the Sun's geocentric longitude at 1 AU.
func orreryBodies(f *engine.Frame) []orreryBody {
	if f == nil {
		return nil
	}
	var out []orreryBody
	for _, p := range f.Planets {
		if p.Helio == nil {
			continue
		}
		out = append(out, orreryBody{
			Name:  p.Name,
			Glyph: p.Glyph,
			Pos:   *p.Helio,
			Giant: p.Helio.R > 4,
		})
	}
	if len(out) == 0 {
		return nil
	}

	earth := orreryBody{
		Name:  "Earth",
		Glyph: "⊕",
		Pos:   astro.SphericalPosition{Lon: astro.NormalizeRadians(f.Sun.LonRad + math.Pi), R: 1},
	}
	// Keep order by distance from the Sun.
	idx := len(out)
	for i, b := range out {
		if b.Pos.R > 1 {
			idx = i
			break
		}
	}
	out = append(out[:idx], append([]orreryBody{earth}, out[idx:]...)...)
	return out
}

// Update handles input messages.
func (m OrreryModel) Update(msg tea.Msg) (OrreryModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		step := 0.1 / m.scale()
		switch msg.String() {
		case "j", "[":
			m.focusPrev()
		case "k", "]":
			m.focusNext()

		case "up":
			m.panY -= step
			m.userPanned = true
		case "down":
			m.panY += step
			m.userPanned = true
		case "left":
			m.panX -= step
			m.userPanned = true
		case "right":
			m.panX += step
			m.userPanned = true
		case "c":
			m.panX, m.panY = 0, 0
			m.userPanned = false

		case "f":
			m.centerOnFocused()
			m.userPanned = false

		case "+", "=":
			if m.zoomLevel < len(zoomLevels)-1 {
				m.zoomLevel++
				m.recenter()
			}
		case "-":
			if m.zoomLevel > 0 {
				m.zoomLevel--
				m.recenter()
			}
		case "0":
			m.zoomLevel = defaultZoomLevel
			m.recenter()

		case "z":
			m.scaleMode = (m.scaleMode + 1) % 3
			m.recenter()

		case "l":
			m.labelMode = (m.labelMode + 1) % 3

		case "t":
			m.showStars = !m.showStars

		case "r":
			m.panX, m.panY = 0, 0
			m.zoomLevel = defaultZoomLevel
			m.userPanned = false
		}
	}
	return m, nil
}

func (m *OrreryModel) recenter() {
	if !m.userPanned {
		m.centerOnFocused()
	}
}

func (m *OrreryModel) focusNext() {
	if len(m.bodies) == 0 {
		return
	}
	m.focusIdx++
	if m.focusIdx >= len(m.bodies) {
		m.focusIdx = -1
	}
	m.centerOnFocused()
	m.userPanned = false
}

func (m *OrreryModel) focusPrev() {
	if len(m.bodies) == 0 {
		return
	}
	m.focusIdx--
	if m.focusIdx < -1 {
		m.focusIdx = len(m.bodies) - 1
	}
	m.centerOnFocused()
	m.userPanned = false
}

// centerOnFocused pans so the focused body sits at screen center.
func (m *OrreryModel) centerOnFocused() {
	if m.focusIdx < 0 || m.focusIdx >= len(m.bodies) {
		m.panX, m.panY = 0, 0
		return
	}
	proj := astro.ProjectEclipticTopDown(m.bodies[m.focusIdx].Pos, m.projection())
	m.panX = -proj.X
	m.panY = -proj.Y
}

// View renders the orrery.
func (m OrreryModel) View() string {
	if m.width < 40 || m.height < 10 {
		return "Terminal too small for orrery view"
	}
	if len(m.bodies) == 0 {
		return "No heliocentric positions (the mean provider has none; try -ephem analytic)"
	}
	return lipgloss.JoinVertical(lipgloss.Left, m.buildCanvas(), m.renderHUD())
}

// orbitMark tracks a glyph's screen position for label rendering.
type orbitMark struct {
	x, y      int
	name      string
	isFocused bool
}

func (m OrreryModel) buildCanvas() string {
	canvasH := m.height - 5
	if canvasH < 5 {
		canvasH = 5
	}
	canvasW := m.width

	grid := make([][]rune, canvasH)
	for y := range grid {
		grid[y] = make([]rune, canvasW)
		for x := range grid[y] {
			grid[y][x] = ' '
		}
	}

	screenCX := canvasW / 2
	screenCY := canvasH / 2

	// Projection spans ~[-1, 1]; rows are half as tall as columns are wide.
	maxDisplayR := float64(min(screenCX, screenCY*2)) * 0.9
	displayScale := maxDisplayR * m.scale()
	cfg := m.projection()

	originX := screenCX + int(m.panX*displayScale)
	originY := screenCY - int(m.panY*displayScale*0.5)

	if m.showStars && m.frame != nil {
		m.drawStarRim(grid, screenCX, screenCY, maxDisplayR)
	}

	m.drawOrbitRings(grid, originX, originY, displayScale, cfg)

	var marks []orbitMark
	for i, body := range m.bodies {
		proj := astro.ProjectEclipticTopDown(body.Pos, cfg)
		sx := originX + int(proj.X*displayScale)
		sy := originY - int(proj.Y*displayScale*0.5)
		if sx < 0 || sx >= canvasW || sy < 0 || sy >= canvasH {
			continue
		}
		grid[sy][sx] = m.bodyGlyph(body, i == m.focusIdx)
		marks = append(marks, orbitMark{x: sx, y: sy, name: body.Name, isFocused: i == m.focusIdx})
	}

	// Sun last so it is always visible
	if originX >= 0 && originX < canvasW && originY >= 0 && originY < canvasH {
		grid[originY][originX] = '☉'
		marks = append(marks, orbitMark{x: originX, y: originY, name: "Sun", isFocused: m.focusIdx == -1})
	}

	m.renderLabels(grid, canvasW, canvasH, marks)

	return m.renderGrid(grid)
}

func (m OrreryModel) drawOrbitRings(grid [][]rune, cx, cy int, displayScale float64, cfg astro.ProjectionConfig) {
	for _, au := range []float64{1, 5, 10, 20, 30} {
		proj := astro.ProjectEclipticTopDown(astro.SphericalPosition{R: au}, cfg)
		drawEllipse(grid, cx, cy, proj.X*displayScale)
	}
}

// drawEllipse plots a circle of radius r columns, halved vertically.
func drawEllipse(grid [][]rune, cx, cy int, r float64) {
	if r < 1 {
		return
	}
	h := len(grid)
	w := len(grid[0])

	steps := int(2 * math.Pi * r)
	if steps < 8 {
		steps = 8
	}
	if steps > 360 {
		steps = 360
	}

	for i := 0; i < steps; i++ {
		theta := 2 * math.Pi * float64(i) / float64(steps)
		x := cx + int(r*math.Cos(theta))
		y := cy - int(r*math.Sin(theta)*0.5)
		if x >= 0 && x < w && y >= 0 && y < h && grid[y][x] == ' ' {
			grid[y][x] = '·'
		}
	}
}

// drawStarRim places the bright stars on a fixed rim at their ecliptic
// longitudes, a backdrop that ignores pan and zoom.
func (m OrreryModel) drawStarRim(grid [][]rune, cx, cy int, rimR float64) {
	h := len(grid)
	w := len(grid[0])

	for _, star := range astro.BrightStars(3.0) {
		lon := astro.DegToRad(star.EclipticLonDeg(m.frame.ObliquityRad))
		sx := cx + int(rimR*1.05*math.Cos(lon))
		sy := cy - int(rimR*1.05*math.Sin(lon)*0.5)
		if sx < 0 || sx >= w || sy < 0 || sy >= h || grid[sy][sx] != ' ' {
			continue
		}
		if g := m.starGlyph(star.Mag); g != ' ' {
			grid[sy][sx] = g
		}
	}
}

// starGlyph returns a subtle glyph for a star magnitude.
func (m OrreryModel) starGlyph(mag float64) rune {
	switch {
	case mag <= 1.0:
		return '∗'
	case mag <= 2.5:
		return '˙'
	default:
		return ' '
	}
}

// renderLabels draws body labels on the canvas.
func (m OrreryModel) renderLabels(grid [][]rune, width, height int, marks []orbitMark) {
	if m.labelMode == LabelNone {
		return
	}

	for _, mk := range marks {
		if m.labelMode == LabelFocused && !mk.isFocused {
			continue
		}

		labelX := mk.x + 2
		if mk.y < 0 || mk.y >= height || labelX >= width {
			continue
		}

		text := mk.name
		if mk.isFocused {
			text = "◄ " + mk.name
		}
		for i, r := range []rune(text) {
			x := labelX + i
			if x >= width {
				break
			}
			if grid[mk.y][x] == ' ' || grid[mk.y][x] == '·' {
				grid[mk.y][x] = r
			}
		}
	}
}

func (m OrreryModel) bodyGlyph(body orreryBody, focused bool) rune {
	switch {
	case body.Giant && focused:
		return '◉'
	case body.Giant:
		return '○'
	case focused:
		return '●'
	default:
		return '•'
	}
}

func (m OrreryModel) renderGrid(grid [][]rune) string {
	var b strings.Builder

	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	starStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	sunStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("220")).Bold(true)
	planetStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	giantStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	focusStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("229")).Bold(true)
	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("249"))

	for _, row := range grid {
		for _, ch := range row {
			var style lipgloss.Style
			switch ch {
			case ' ':
				b.WriteRune(ch)
				continue
			case '·':
				style = dimStyle
			case '∗', '˙':
				style = starStyle
			case '☉':
				style = sunStyle
			case '•':
				style = planetStyle
			case '○':
				style = giantStyle
			case '●', '◉', '◄':
				style = focusStyle
			default:
				style = labelStyle
			}
			b.WriteString(style.Render(string(ch)))
		}
		b.WriteRune('\n')
	}

	return b.String()
}

func (m OrreryModel) renderHUD() string {
	var b strings.Builder

	headerStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#D4A72C")).Bold(true)
	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Width(12)
	valueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	focused := m.FocusedBody()
	if focused != nil {
		b.WriteString(headerStyle.Render(focused.Glyph + " " + focused.Name))
		b.WriteString("  ")
		b.WriteString(labelStyle.Render("Distance:"))
		b.WriteString(valueStyle.Render(fmt.Sprintf("%.3f AU", focused.Pos.R)))
		b.WriteString("  ")
		b.WriteString(labelStyle.Render("Light Time:"))
		b.WriteString(valueStyle.Render(formatLightTime(focused.Pos.R * lightSecondsPerAU)))
	} else {
		b.WriteString(headerStyle.Render("☉ Sun"))
		b.WriteString("  ")
		b.WriteString(dimStyle.Render("(heliocentric ecliptic, vernal equinox to the right)"))
	}
	b.WriteString("\n")

	if focused != nil {
		b.WriteString(labelStyle.Render("Helio Lon:"))
		b.WriteString(valueStyle.Render(fmt.Sprintf("%.1f°", astro.RadToDeg(focused.Pos.Lon))))
		b.WriteString("  ")
		b.WriteString(labelStyle.Render("Helio Lat:"))
		b.WriteString(valueStyle.Render(fmt.Sprintf("%.1f°", astro.RadToDeg(focused.Pos.Lat))))
		b.WriteString("  ")
	}

	modeName := map[astro.ScaleMode]string{
		astro.ScaleLogR:  "Log",
		astro.ScaleInner: "Inner",
		astro.ScaleOuter: "Outer",
	}[m.scaleMode]

	labelName := map[LabelMode]string{
		LabelNone:    "off",
		LabelFocused: "focus",
		LabelAll:     "all",
	}[m.labelMode]

	starsName := "off"
	if m.showStars {
		starsName = "on"
	}

	b.WriteString(dimStyle.Render("Mode:"))
	b.WriteString(valueStyle.Render(modeName))
	b.WriteString("  ")
	b.WriteString(dimStyle.Render("Zoom:"))
	b.WriteString(valueStyle.Render(fmt.Sprintf("%.2gx", m.scale())))
	b.WriteString("  ")
	b.WriteString(dimStyle.Render("Labels:"))
	b.WriteString(valueStyle.Render(labelName))
	b.WriteString("  ")
	b.WriteString(dimStyle.Render("Stars:"))
	b.WriteString(valueStyle.Render(starsName))

	return b.String()
}

// FocusedBody returns the focused body, or nil for the Sun.
func (m OrreryModel) FocusedBody() *orreryBody {
	if m.focusIdx >= 0 && m.focusIdx < len(m.bodies) {
		return &m.bodies[m.focusIdx]
	}
	return nil
}

// SetFocusByName focuses a body by name.
func (m *OrreryModel) SetFocusByName(name string) {
	for i, body := range m.bodies {
		if body.Name == name {
			m.focusIdx = i
			return
		}
	}
}

// formatLightTime renders seconds of light travel as "8m 19s" or "4h 10m".
func formatLightTime(seconds float64) string {
	s := int(math.Round(seconds))
	switch {
	case s < 60:
		return fmt.Sprintf("%ds", s)
	case s < 3600:
		return fmt.Sprintf("%dm %02ds", s/60, s%60)
	default:
		return fmt.Sprintf("%dh %02dm", s/3600, (s%3600)/60)
	}
}
