package ui

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/litescript/ls-armillary/internal/astro"
	"github.com/litescript/ls-armillary/internal/engine"
	"github.com/litescript/ls-armillary/internal/state"
)

// helioFrame builds a frame with a few heliocentric planet positions.
func helioFrame() *engine.Frame {
	planet := func(name, glyph string, lonDeg, r float64) engine.BodyPosition {
		return engine.BodyPosition{
			Name:      name,
			Glyph:     glyph,
			Available: true,
			LonDeg:    lonDeg,
			Helio:     &astro.SphericalPosition{Lon: astro.DegToRad(lonDeg), R: r},
		}
	}
	return &engine.Frame{
		ObliquityRad: astro.DegToRad(23.44),
		Sun:          engine.BodyPosition{Name: "Sun", Glyph: "☉", Available: true, LonRad: astro.DegToRad(0), LonDeg: 0},
		Moon:         engine.BodyPosition{Name: "Moon", Glyph: "☽", Available: true},
		Planets: []engine.BodyPosition{
			planet("Mercury", "☿", 40, 0.39),
			planet("Venus", "♀", 120, 0.72),
			planet("Mars", "♂", 250, 1.52),
			planet("Jupiter", "♃", 60, 5.2),
			{Name: "Saturn", Glyph: "♄"},
		},
	}
}

func TestOrreryBodies(t *testing.T) {
	assert.Nil(t, orreryBodies(nil))
	assert.Nil(t, orreryBodies(&engine.Frame{}), "no heliocentric positions, no bodies")

	bodies := orreryBodies(helioFrame())
	names := make([]string, len(bodies))
	for i, b := range bodies {
		names[i] = b.Name
	}
	assert.Equal(t, []string{"Mercury", "Venus", "Earth", "Mars", "Jupiter"}, names)

	earth := bodies[2]
	assert.InDelta(t, math.Pi, earth.Pos.Lon, 1e-9, "Earth is opposite the Sun")
	assert.Equal(t, 1.0, earth.Pos.R)

	assert.True(t, bodies[4].Giant)
	assert.False(t, bodies[0].Giant)
}

func TestOrreryFocusCycle(t *testing.T) {
	m := NewOrreryModel().UpdateData(state.Snapshot{Frame: helioFrame()})
	assert.Nil(t, m.FocusedBody(), "starts on the Sun")

	m, _ = m.Update(keyMsg("]"))
	require.NotNil(t, m.FocusedBody())
	assert.Equal(t, "Mercury", m.FocusedBody().Name)

	m, _ = m.Update(keyMsg("["))
	m, _ = m.Update(keyMsg("["))
	require.NotNil(t, m.FocusedBody())
	assert.Equal(t, "Jupiter", m.FocusedBody().Name, "wraps past the Sun")

	m.SetFocusByName("Earth")
	assert.Equal(t, "Earth", m.FocusedBody().Name)
}

func TestOrreryCenterOnFocused(t *testing.T) {
	m := NewOrreryModel().UpdateData(state.Snapshot{Frame: helioFrame()})
	m.SetFocusByName("Mars")
	m.centerOnFocused()

	proj := astro.ProjectEclipticTopDown(m.FocusedBody().Pos, m.projection())
	assert.InDelta(t, -proj.X, m.panX, 1e-12)
	assert.InDelta(t, -proj.Y, m.panY, 1e-12)

	m.focusIdx = -1
	m.centerOnFocused()
	assert.Zero(t, m.panX)
	assert.Zero(t, m.panY)
}

func TestOrreryZoom(t *testing.T) {
	m := NewOrreryModel()
	assert.Equal(t, 1.0, m.scale())

	for i := 0; i < 20; i++ {
		m, _ = m.Update(keyMsg("+"))
	}
	assert.Equal(t, zoomLevels[len(zoomLevels)-1], m.scale())

	for i := 0; i < 20; i++ {
		m, _ = m.Update(keyMsg("-"))
	}
	assert.Equal(t, zoomLevels[0], m.scale())

	m, _ = m.Update(keyMsg("0"))
	assert.Equal(t, 1.0, m.scale())
}

func TestOrreryPanDisablesAutoCenter(t *testing.T) {
	m := NewOrreryModel().UpdateData(state.Snapshot{Frame: helioFrame()})
	m, _ = m.Update(keyMsg("right"))
	assert.True(t, m.userPanned)
	panned := m.panX

	m, _ = m.Update(keyMsg("+"))
	assert.Equal(t, panned, m.panX, "zoom keeps a manual pan")

	m, _ = m.Update(keyMsg("c"))
	assert.False(t, m.userPanned)
	assert.Zero(t, m.panX)
}

func TestOrreryView(t *testing.T) {
	t.Run("too small", func(t *testing.T) {
		m := NewOrreryModel().SetSize(20, 5)
		assert.Contains(t, m.View(), "too small")
	})

	t.Run("no heliocentric data", func(t *testing.T) {
		m := NewOrreryModel().SetSize(100, 30).UpdateData(state.Snapshot{Frame: &engine.Frame{}})
		assert.Contains(t, m.View(), "No heliocentric positions")
	})

	t.Run("chart", func(t *testing.T) {
		m := NewOrreryModel().SetSize(100, 30).UpdateData(state.Snapshot{Frame: helioFrame()})
		out := m.View()
		assert.Contains(t, out, "☉")
		assert.Contains(t, out, "Sun")
		assert.Contains(t, out, "Zoom:")
	})

	t.Run("focused HUD", func(t *testing.T) {
		m := NewOrreryModel().SetSize(100, 30).UpdateData(state.Snapshot{Frame: helioFrame()})
		m.SetFocusByName("Earth")
		out := m.View()
		assert.Contains(t, out, "1.000 AU")
		assert.Contains(t, out, "8m 19s")
	})
}

func TestFormatLightTime(t *testing.T) {
	tests := []struct {
		seconds float64
		want    string
	}{
		{42, "42s"},
		{499.0, "8m 19s"},
		{5.2 * lightSecondsPerAU, "43m 15s"},
		{30 * lightSecondsPerAU, "4h 09m"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatLightTime(tt.seconds))
	}
}
