package ui

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/litescript/ls-armillary/internal/astro"
	"github.com/litescript/ls-armillary/internal/engine"
	"github.com/litescript/ls-armillary/internal/state"
)

const (
	// Field of view in degrees
	fovAz = 120.0
	fovEl = 60.0

	// Animation
	animDuration  = 400 * time.Millisecond
	animFrameRate = 30 * time.Millisecond

	// Body colors
	colorBody        = "#9fc7ff"
	colorBodyFocused = "229"
	colorBodyBelow   = "240"

	// Star glyphs by magnitude
	glyphStarBright = '✶'
	glyphStarMedium = '✸'
	glyphStarDim    = '·'

	colorStarBright = "255"
	colorStarMedium = "250"
	colorStarDim    = "244"

	// Faintest catalog star drawn on the dome
	skyStarLimit = 2.5
)

// LabelMode controls how body labels are displayed.
type LabelMode int

const (
	LabelNone    LabelMode = iota // No labels
	LabelFocused                  // Only the focused body
	LabelAll                      // All bodies
)

// SkyViewModel renders the local sky dome with the frame's bodies and the
// bright stars.
type SkyViewModel struct {
	width  int
	height int

	// Camera position (center of view)
	camAz float64
	camEl float64

	// Animation state
	animating   bool
	animStartAz float64
	animStartEl float64
	animTargAz  float64
	animTargEl  float64
	animStart   time.Time

	focusIdx int
	frame    *engine.Frame
	bodies   []engine.BodyPosition

	labelMode LabelMode
	showStars bool
	stars     []astro.Star
}

// NewSkyViewModel creates a new sky view model looking south.
func NewSkyViewModel() SkyViewModel {
	return SkyViewModel{
		camAz:     180,
		camEl:     30,
		labelMode: LabelFocused,
		showStars: true,
		stars:     astro.BrightStars(skyStarLimit),
	}
}

// SetSize updates the viewport size.
func (m SkyViewModel) SetSize(width, height int) SkyViewModel {
	m.width = width
	m.height = height
	return m
}

// UpdateData updates with a new snapshot.
func (m SkyViewModel) UpdateData(snapshot state.Snapshot) SkyViewModel {
	m.frame = snapshot.Frame
	m.bodies = frameBodies(snapshot.Frame)

	if m.focusIdx >= len(m.bodies) {
		m.focusIdx = 0
	}

	// Follow the focused body while not animating
	if !m.animating && m.focusIdx < len(m.bodies) {
		m.camAz, m.camEl = cameraTarget(m.bodies[m.focusIdx])
	}
	return m
}

// FocusBody points the camera at the named body.
func (m SkyViewModel) FocusBody(name string) SkyViewModel {
	for i, p := range m.bodies {
		if p.Name == name {
			m.focusIdx = i
			m.camAz, m.camEl = cameraTarget(p)
			return m
		}
	}
	return m
}

// cameraTarget keeps the horizon in view for bodies below it.
func cameraTarget(p engine.BodyPosition) (az, el float64) {
	el = p.AltDeg
	if el < fovEl/2-5 {
		el = fovEl/2 - 5
	}
	return p.AzDeg, el
}

// animTickMsg is sent during animation
type animTickMsg time.Time

func animTick() tea.Cmd {
	return tea.Tick(animFrameRate, func(t time.Time) tea.Msg {
		return animTickMsg(t)
	})
}

// Update handles messages.
func (m SkyViewModel) Update(msg tea.Msg) (SkyViewModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			return m.focusPrev()
		case "down", "j":
			return m.focusNext()
		case "l":
			m.labelMode = (m.labelMode + 1) % 3
		case "t":
			m.showStars = !m.showStars
		case "h":
			return m.animateTo(180, fovEl/2-5)
		}

	case animTickMsg:
		if m.animating {
			return m.updateAnimation()
		}
	}

	return m, nil
}

func (m SkyViewModel) focusNext() (SkyViewModel, tea.Cmd) {
	if len(m.bodies) == 0 {
		return m, nil
	}
	m.focusIdx = (m.focusIdx + 1) % len(m.bodies)
	return m.startAnimation()
}

func (m SkyViewModel) focusPrev() (SkyViewModel, tea.Cmd) {
	if len(m.bodies) == 0 {
		return m, nil
	}
	m.focusIdx--
	if m.focusIdx < 0 {
		m.focusIdx = len(m.bodies) - 1
	}
	return m.startAnimation()
}

func (m SkyViewModel) startAnimation() (SkyViewModel, tea.Cmd) {
	if m.focusIdx >= len(m.bodies) {
		return m, nil
	}
	return m.animateTo(cameraTarget(m.bodies[m.focusIdx]))
}

func (m SkyViewModel) animateTo(az, el float64) (SkyViewModel, tea.Cmd) {
	m.animating = true
	m.animStartAz = m.camAz
	m.animStartEl = m.camEl
	m.animTargAz = az
	m.animTargEl = el
	m.animStart = time.Now()
	return m, animTick()
}

func (m SkyViewModel) updateAnimation() (SkyViewModel, tea.Cmd) {
	t := float64(time.Since(m.animStart)) / float64(animDuration)

	if t >= 1.0 {
		m.animating = false
		m.camAz = m.animTargAz
		m.camEl = m.animTargEl
		return m, nil
	}

	// Ease-out cubic
	t = 1 - math.Pow(1-t, 3)

	m.camAz = lerpAngle(m.animStartAz, m.animTargAz, t)
	m.camEl = lerp(m.animStartEl, m.animTargEl, t)

	return m, animTick()
}

// View renders the sky view.
func (m SkyViewModel) View() string {
	if m.width < 20 || m.height < 10 {
		return "Sky view requires larger terminal"
	}
	if m.frame == nil {
		return "Waiting for first frame..."
	}

	viewHeight := m.height - 4

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderSkyCanvas(m.width, viewHeight))
	b.WriteString("\n")
	b.WriteString(m.renderStatus())

	return b.String()
}

func (m SkyViewModel) renderHeader() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#14B8A6"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("60"))
	accentStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(colorBody))

	var labelStr string
	switch m.labelMode {
	case LabelNone:
		labelStr = dimStyle.Render("Labels: off")
	case LabelFocused:
		labelStr = accentStyle.Render("Labels: focus")
	case LabelAll:
		labelStr = accentStyle.Render("Labels: all")
	}

	starStr := dimStyle.Render("Stars: off")
	if m.showStars {
		starStr = accentStyle.Render("Stars: on")
	}

	compass := dimStyle.Render(fmt.Sprintf("Az:%.0f° El:%.0f°", m.camAz, m.camEl))
	twilight := RenderTwilightBar(astro.GetTwilightTier(m.frame.Sun.AltDeg))

	return fmt.Sprintf("%s | %s | %s | %s | %s", titleStyle.Render("Sky Dome"), labelStr, starStr, compass, twilight)
}

func (m SkyViewModel) renderStatus() string {
	if len(m.bodies) == 0 || m.focusIdx >= len(m.bodies) {
		return "No bodies"
	}

	p := m.bodies[m.focusIdx]
	horizon := "above horizon"
	if p.AltDeg < 0 {
		horizon = "below horizon"
	}

	line := fmt.Sprintf(">>> %s %s | Az:%.1f° Alt:%.1f° | %s | %s",
		p.Glyph, p.Name, p.AzDeg, p.AltDeg, p.Zodiac, horizon)

	accentStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("229"))
	status := accentStyle.Render(line)

	if p.Fallback {
		status += "\n" + fallbackStyle.Render("    position from fallback value")
	}
	return status
}

// bodyMark tracks a body's screen position for label rendering.
type bodyMark struct {
	x, y       int
	name       string
	isFocused  bool
	labelStart int
	labelEnd   int
}

func (m SkyViewModel) renderSkyCanvas(width, height int) string {
	canvas := make([][]rune, height)
	colors := make([][]lipgloss.Color, height)
	for y := 0; y < height; y++ {
		canvas[y] = make([]rune, width)
		colors[y] = make([]lipgloss.Color, width)
		for x := 0; x < width; x++ {
			canvas[y][x] = ' '
			colors[y][x] = "236"
		}
	}

	horizonY := height - 2
	lst := astro.DegToRad(m.frame.LSTDeg)
	lat := astro.DegToRad(m.frame.Location.LatDeg)

	// Stars wash out in daylight
	if m.showStars && m.frame.Sun.AltDeg < 0 {
		for _, star := range m.stars {
			h := star.Horizontal(lst, lat)
			if h.AltDeg() <= 0 {
				continue
			}
			x, y, visible := m.projectToScreen(h.AzDeg(), h.AltDeg(), width, height)
			if !visible || x < 0 || x >= width || y < 0 || y >= horizonY {
				continue
			}
			glyph, color := m.starGlyph(star.Mag)
			canvas[y][x] = glyph
			colors[y][x] = color
		}
	}

	for x := 0; x < width; x++ {
		canvas[horizonY][x] = '─'
		colors[horizonY][x] = "60"
	}

	m.drawCardinal(canvas, colors, width, height, "N", 0)
	m.drawCardinal(canvas, colors, width, height, "E", 90)
	m.drawCardinal(canvas, colors, width, height, "S", 180)
	m.drawCardinal(canvas, colors, width, height, "W", 270)

	var marks []bodyMark
	for i, p := range m.bodies {
		x, y, visible := m.projectToScreen(p.AzDeg, p.AltDeg, width, height)
		if !visible {
			continue
		}
		// Bodies below the horizon ride on the horizon line, dimmed.
		below := p.AltDeg < 0
		if below {
			y = horizonY
		}
		if x < 0 || x >= width || y < 0 || y > horizonY {
			continue
		}

		isFocused := i == m.focusIdx
		color := lipgloss.Color(colorBody)
		switch {
		case isFocused:
			color = colorBodyFocused
		case below:
			color = colorBodyBelow
		}

		canvas[y][x] = glyphRune(p.Glyph)
		colors[y][x] = color

		marks = append(marks, bodyMark{x: x, y: y, name: p.Name, isFocused: isFocused})
	}

	m.renderLabels(canvas, colors, width, horizonY, marks)

	// Observer at bottom center
	if x, y := width/2, height-1; y >= 0 && x < width {
		canvas[y][x] = '▲'
		colors[y][x] = "#14B8A6"
	}

	var b strings.Builder
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			b.WriteString(lipgloss.NewStyle().Foreground(colors[y][x]).Render(string(canvas[y][x])))
		}
		if y < height-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

// renderLabels draws body labels. Focused labels win overlapping cells.
func (m SkyViewModel) renderLabels(canvas [][]rune, colors [][]lipgloss.Color, width, horizonY int, marks []bodyMark) {
	if m.labelMode == LabelNone || len(marks) == 0 {
		return
	}

	for i := range marks {
		mk := &marks[i]
		mk.labelStart = mk.x + 2
		n := len([]rune(mk.name))
		if mk.isFocused {
			n += 2
		}
		mk.labelEnd = mk.labelStart + n
	}

	focusedClaims := make(map[int]map[int]bool)
	for _, mk := range marks {
		if !mk.isFocused {
			continue
		}
		if focusedClaims[mk.y] == nil {
			focusedClaims[mk.y] = make(map[int]bool)
		}
		for x := mk.labelStart; x < mk.labelEnd; x++ {
			focusedClaims[mk.y][x] = true
		}
	}

	for _, mk := range marks {
		show := m.labelMode == LabelAll || (m.labelMode == LabelFocused && mk.isFocused)
		if !show {
			continue
		}

		labelColor := lipgloss.Color(colorBody)
		text := mk.name
		if mk.isFocused {
			labelColor = colorBodyFocused
			text = "◄ " + mk.name
		}

		for i, r := range []rune(text) {
			x := mk.labelStart + i
			if x < 0 || x >= width || mk.y < 0 || mk.y > horizonY {
				continue
			}
			if !mk.isFocused && focusedClaims[mk.y][x] {
				continue
			}
			canvas[mk.y][x] = r
			colors[mk.y][x] = labelColor
		}
	}
}

// starGlyph returns the glyph and color for a star magnitude.
func (m SkyViewModel) starGlyph(mag float64) (rune, lipgloss.Color) {
	switch {
	case mag < 1.0:
		return glyphStarBright, colorStarBright
	case mag < 2.0:
		return glyphStarMedium, colorStarMedium
	default:
		return glyphStarDim, colorStarDim
	}
}

func (m SkyViewModel) drawCardinal(canvas [][]rune, colors [][]lipgloss.Color, width, height int, label string, az float64) {
	x, _, visible := m.projectToScreen(az, m.camEl, width, height)
	if !visible {
		return
	}
	y := height - 2

	if x >= 0 && x < width && y >= 0 && y < height {
		canvas[y][x] = rune(label[0])
		colors[y][x] = "252"
	}
}

// projectToScreen converts az/el to screen coordinates relative to the
// camera. Elevation outside the vertical field is still mapped so callers
// can pin below-horizon bodies; only azimuth decides visibility.
func (m SkyViewModel) projectToScreen(az, el float64, width, height int) (int, int, bool) {
	dAz := normalizeAngle(az - m.camAz)
	dEl := el - m.camEl

	if dAz < -fovAz/2 || dAz > fovAz/2 {
		return 0, 0, false
	}
	if dEl > fovEl/2 {
		return 0, 0, false
	}

	horizonY := height - 2
	x := int((dAz + fovAz/2) / fovAz * float64(width))
	y := int((fovEl/2 - dEl) / fovEl * float64(horizonY))

	return x, y, true
}

// normalizeAngle wraps angle to -180..+180 range
func normalizeAngle(a float64) float64 {
	for a > 180 {
		a -= 360
	}
	for a < -180 {
		a += 360
	}
	return a
}

// lerpAngle interpolates between angles, taking shortest path
func lerpAngle(a, b, t float64) float64 {
	diff := normalizeAngle(b - a)
	return a + diff*t
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// Init returns nil cmd
func (m SkyViewModel) Init() tea.Cmd {
	return nil
}
