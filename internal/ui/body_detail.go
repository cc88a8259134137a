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

// SparklineWidth is the cell count of altitude sparklines.
const SparklineWidth = 48

var sparklineBlocks = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// Altitude gradient endpoints: below horizon, horizon, zenith.
var (
	altColorLow  = [3]uint8{0x3c, 0x4f, 0x9a}
	altColorMid  = [3]uint8{0xff, 0x8c, 0x42}
	altColorHigh = [3]uint8{0xff, 0xd7, 0x00}
)

// BodyDetailModel shows one body on the zodiac wheel with its recent
// altitude history.
type BodyDetailModel struct {
	width     int
	height    int
	selected  string
	snapshot  state.Snapshot
	history   *state.BodyHistory
	animTick  int
	showStars bool // royal stars on the wheel
}

// NewBodyDetailModel creates a detail model focused on the Sun.
func NewBodyDetailModel() BodyDetailModel {
	return BodyDetailModel{
		selected:  "Sun",
		showStars: true,
	}
}

// SetSize updates the viewport size.
func (m BodyDetailModel) SetSize(width, height int) BodyDetailModel {
	m.width = width
	m.height = height
	return m
}

// SetAnimTick updates the animation tick for shimmer effects.
func (m BodyDetailModel) SetAnimTick(tick int) BodyDetailModel {
	m.animTick = tick
	return m
}

// UpdateData updates the model with new data.
func (m BodyDetailModel) UpdateData(snapshot state.Snapshot) BodyDetailModel {
	m.snapshot = snapshot
	if _, ok := findBody(snapshot.Frame, m.selected); !ok {
		if bodies := frameBodies(snapshot.Frame); len(bodies) > 0 {
			m.selected = bodies[0].Name
		}
	}
	return m
}

// UpdateHistory replaces the altitude history of the selected body.
func (m BodyDetailModel) UpdateHistory(h *state.BodyHistory) BodyDetailModel {
	m.history = h
	return m
}

// SelectBody focuses the named body.
func (m BodyDetailModel) SelectBody(name string) BodyDetailModel {
	m.selected = name
	m.history = nil
	return m
}

// SelectedBody returns the focused body name.
func (m BodyDetailModel) SelectedBody() string {
	return m.selected
}

// Update handles messages.
func (m BodyDetailModel) Update(msg tea.Msg) (BodyDetailModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "right", "l", "n":
			m.selectNext(1)
		case "left", "h", "p":
			m.selectNext(-1)
		case "w":
			m.showStars = !m.showStars
		}
	}
	return m, nil
}

func (m *BodyDetailModel) selectNext(step int) {
	bodies := frameBodies(m.snapshot.Frame)
	if len(bodies) == 0 {
		return
	}
	idx := 0
	for i, b := range bodies {
		if b.Name == m.selected {
			idx = i
			break
		}
	}
	idx = (idx + step + len(bodies)) % len(bodies)
	m.selected = bodies[idx].Name
	m.history = nil
}

// View renders the detail view.
func (m BodyDetailModel) View() string {
	f := m.snapshot.Frame
	if f == nil {
		return shimmer("Waiting for first frame...", m.animTick)
	}

	body, ok := findBody(f, m.selected)
	if !ok {
		return "Body not available: " + m.selected
	}

	var b strings.Builder
	b.WriteString(m.renderSelector(f))
	b.WriteString("\n\n")

	details := m.renderDetails(f, body)
	wheel := m.renderWheel(f, m.wheelRadius())
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, wheel, "   ", details))
	b.WriteString("\n\n")

	b.WriteString(titleStyle.Render("Altitude history"))
	b.WriteString("\n")
	b.WriteString(m.renderAltitudeSparkline())
	b.WriteString("\n")

	return b.String()
}

func (m BodyDetailModel) renderSelector(f *engine.Frame) string {
	activeStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("229")).Background(lipgloss.Color("24")).Padding(0, 1)
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Padding(0, 1)

	var parts []string
	for _, p := range frameBodies(f) {
		label := p.Glyph + " " + p.Name
		if p.Name == m.selected {
			parts = append(parts, activeStyle.Render(label))
		} else {
			parts = append(parts, dimStyle.Render(label))
		}
	}
	return strings.Join(parts, "")
}

func (m BodyDetailModel) renderDetails(f *engine.Frame, p engine.BodyPosition) string {
	var b strings.Builder

	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Width(14)
	valueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("252"))

	row := func(label, value string) {
		b.WriteString(labelStyle.Render(label))
		b.WriteString(valueStyle.Render(value))
		b.WriteString("\n")
	}

	b.WriteString(titleStyle.Render(p.Glyph + " " + p.Name))
	b.WriteString("\n")

	z := astro.Zodiac(p.LonDeg)
	sign := z.SignInfo()
	row("Longitude", fmt.Sprintf("%.4f°", p.LonDeg))
	row("Zodiac", fmt.Sprintf("%s %s", sign.Glyph, p.Zodiac))
	row("Element", string(sign.Element))
	row("Altitude", fmt.Sprintf("%.2f°", p.AltDeg))
	row("Azimuth", fmt.Sprintf("%.2f°", p.AzDeg))

	source := p.Source
	if p.Fallback {
		source = fallbackStyle.Render("fallback value")
	}
	row("Source", source)

	if p.Helio != nil {
		row("Helio lon", fmt.Sprintf("%.3f°", astro.RadToDeg(p.Helio.Lon)))
		row("Helio lat", fmt.Sprintf("%.3f°", astro.RadToDeg(p.Helio.Lat)))
		row("Distance", fmt.Sprintf("%.4f AU", p.Helio.R))
	}

	// Aspect to the ascendant, the wheel's reference point.
	sep := math.Abs(normalizeAngle(p.LonDeg - f.Angles.ASC))
	row("From ASC", fmt.Sprintf("%.1f°", sep))

	return b.String()
}

func (m BodyDetailModel) wheelRadius() int {
	r := (m.height - 8) / 2
	if r > 12 {
		r = 12
	}
	if r < 5 {
		r = 5
	}
	return r
}

// wheelPoint maps an ecliptic longitude onto the wheel. The ascendant sits
// at nine o'clock and longitude increases counter-clockwise. Columns are
// doubled for the terminal cell aspect.
func wheelPoint(lonDeg, ascDeg float64, cx, cy int, r float64) (int, int) {
	theta := astro.DegToRad(180 + lonDeg - ascDeg)
	x := cx + int(math.Round(2*r*math.Cos(theta)))
	y := cy - int(math.Round(r*math.Sin(theta)))
	return x, y
}

// renderWheel draws the zodiac ring with sign glyphs, the angles and the
// bodies of f.
func (m BodyDetailModel) renderWheel(f *engine.Frame, radius int) string {
	// One cell of margin for the angle labels outside the ring.
	h := 2*radius + 3
	w := 4*radius + 7
	cx, cy := w/2, radius+1

	grid := make([][]rune, h)
	colors := make([][]lipgloss.Color, h)
	for y := range grid {
		grid[y] = make([]rune, w)
		colors[y] = make([]lipgloss.Color, w)
		for x := range grid[y] {
			grid[y][x] = ' '
		}
	}
	put := func(x, y int, r rune, c lipgloss.Color) {
		if x >= 0 && x < w && y >= 0 && y < h {
			grid[y][x] = r
			colors[y][x] = c
		}
	}

	asc := f.Angles.ASC
	outer := float64(radius)

	// Ring
	for deg := 0.0; deg < 360; deg += 2 {
		x, y := wheelPoint(deg, asc, cx, cy, outer)
		put(x, y, '·', "60")
	}

	// Sign cusps and glyphs
	for _, s := range astro.Signs {
		x, y := wheelPoint(s.StartDeg, asc, cx, cy, outer)
		put(x, y, '+', "244")
		gx, gy := wheelPoint(s.StartDeg+15, asc, cx, cy, outer-1.5)
		put(gx, gy, glyphRune(s.Glyph), "#D4A72C")
	}

	// Horizon and meridian axes through the angles
	for _, name := range []string{"ASC", "DSC", "MC", "IC"} {
		lon := angleLongitude(f.Angles, name)
		for t := 0.0; t < outer-2; t++ {
			x, y := wheelPoint(lon, asc, cx, cy, t)
			put(x, y, '∙', "238")
		}
		x, y := wheelPoint(lon, asc, cx, cy, outer+0.6)
		put(x, y, rune(name[0]), "#14B8A6")
	}

	if m.showStars {
		for _, name := range astro.RoyalStars {
			if s, ok := astro.StarByName(name); ok {
				x, y := wheelPoint(s.EclipticLonDeg(f.ObliquityRad), asc, cx, cy, outer-3)
				put(x, y, '✶', "250")
			}
		}
	}

	// Bodies on the inner track, focused body drawn last
	var focused *engine.BodyPosition
	bodies := frameBodies(f)
	for i := range bodies {
		p := &bodies[i]
		if p.Name == m.selected {
			focused = p
			continue
		}
		x, y := wheelPoint(p.LonDeg, asc, cx, cy, outer-4)
		put(x, y, glyphRune(p.Glyph), "#5B8DEF")
	}
	if focused != nil {
		x, y := wheelPoint(focused.LonDeg, asc, cx, cy, outer-4)
		put(x, y, glyphRune(focused.Glyph), "229")
	}

	var b strings.Builder
	for y := range grid {
		for x, r := range grid[y] {
			if r == ' ' {
				b.WriteRune(r)
				continue
			}
			b.WriteString(lipgloss.NewStyle().Foreground(colors[y][x]).Render(string(r)))
		}
		if y < h-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func glyphRune(glyph string) rune {
	for _, r := range glyph {
		return r
	}
	return '•'
}

func (m BodyDetailModel) renderAltitudeSparkline() string {
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	if m.history == nil || len(m.history.AltitudeHistory) == 0 {
		return m.renderShimmerSparkline("Collecting samples...")
	}

	values := make([]float64, len(m.history.AltitudeHistory))
	for i, s := range m.history.AltitudeHistory {
		values[i] = s.Value
	}
	samples := resample(values, SparklineWidth)
	if len(samples) == 0 {
		return dimStyle.Render("No samples")
	}

	first := m.history.AltitudeHistory[0].Timestamp
	last := m.history.AltitudeHistory[len(m.history.AltitudeHistory)-1].Timestamp
	span := fmt.Sprintf(" %s → %s", first.Format("15:04"), last.Format("15:04"))

	return renderAltitudeBlocks(samples) + dimStyle.Render(span) +
		dimStyle.Render(fmt.Sprintf("  now: %.1f°", values[len(values)-1]))
}

func (m BodyDetailModel) renderShimmerSparkline(msg string) string {
	var sb strings.Builder

	offset := m.animTick % SparklineWidth
	for i := 0; i < SparklineWidth; i++ {
		dist := (i - offset + SparklineWidth) % SparklineWidth
		gray := 60
		if dist < 8 {
			gray = 60 + dist*8
		}
		color := fmt.Sprintf("#%02x%02x%02x", gray, gray, gray)
		sb.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render("▄"))
	}

	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	sb.WriteString(" ")
	sb.WriteString(dimStyle.Render(msg))

	return sb.String()
}

// renderTraceSparkline draws the Sun's altitude over the frame's UTC day.
func renderTraceSparkline(f *engine.Frame, width int) string {
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	if f == nil || len(f.Trace) == 0 {
		return dimStyle.Render("No altitude trace")
	}

	values := make([]float64, len(f.Trace))
	for i, s := range f.Trace {
		values[i] = s.AltDeg
	}
	samples := resample(values, width)

	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	var sb strings.Builder
	sb.WriteString(labelStyle.Render("☉ 00h "))

	// Cell of the frame's instant
	nowCell := int(f.Instant.MinutesUTC / 1440 * float64(width))
	for i, alt := range samples {
		if i == nowCell {
			sb.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("229")).Render("│"))
			continue
		}
		sb.WriteString(altitudeCell(alt))
	}
	sb.WriteString(labelStyle.Render(" 24h"))
	sb.WriteString(dimStyle.Render(fmt.Sprintf("  now: %.1f°", f.Sun.AltDeg)))
	return sb.String()
}

func renderAltitudeBlocks(samples []float64) string {
	var sb strings.Builder
	for _, alt := range samples {
		sb.WriteString(altitudeCell(alt))
	}
	return sb.String()
}

// altitudeCell maps -90..90° onto a colored block.
func altitudeCell(alt float64) string {
	t := (alt + 90) / 180
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}

	blockIdx := int(t * 7.0)
	if blockIdx > 7 {
		blockIdx = 7
	}

	r, g, b := interpolateAltColor(t)
	color := fmt.Sprintf("#%02x%02x%02x", r, g, b)
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render(string(sparklineBlocks[blockIdx]))
}

// interpolateAltColor blends low→mid over [0, 0.5] and mid→high over
// [0.5, 1]. t = 0.5 is the horizon.
func interpolateAltColor(t float64) (uint8, uint8, uint8) {
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}

	from, to, s := altColorLow, altColorMid, t*2
	if t >= 0.5 {
		from, to, s = altColorMid, altColorHigh, (t-0.5)*2
	}

	mix := func(a, b uint8) uint8 {
		return uint8(float64(a)*(1-s) + float64(b)*s)
	}
	return mix(from[0], to[0]), mix(from[1], to[1]), mix(from[2], to[2])
}

// resample averages values into width buckets.
func resample(values []float64, width int) []float64 {
	if len(values) == 0 || width <= 0 {
		return nil
	}

	result := make([]float64, width)
	perBucket := float64(len(values)) / float64(width)

	for i := 0; i < width; i++ {
		startIdx := int(float64(i) * perBucket)
		endIdx := int(float64(i+1) * perBucket)
		if endIdx <= startIdx {
			endIdx = startIdx + 1
		}
		if endIdx > len(values) {
			endIdx = len(values)
		}

		sum := 0.0
		count := 0
		for j := startIdx; j < endIdx; j++ {
			sum += values[j]
			count++
		}
		if count > 0 {
			result[i] = sum / float64(count)
		}
	}

	return result
}
