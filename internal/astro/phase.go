package astro

import "math"

// Phase names in order of increasing elongation.
var phaseNames = [8]string{
	"New Moon",
	"Waxing Crescent",
	"First Quarter",
	"Waxing Gibbous",
	"Full Moon",
	"Waning Gibbous",
	"Last Quarter",
	"Waning Crescent",
}

// LunarPhase describes the Moon's phase from its elongation.
type LunarPhase struct {
	Name         string  `json:"name"`
	Illumination int     `json:"illumination"` // percent, 0..100
	Elongation   float64 `json:"elongation"`   // degrees, [0, 360)
}

// PhaseOf computes the lunar phase from Sun and Moon ecliptic longitudes in
// radians. Each of the eight names covers 45° centered on its nominal
// elongation, so New Moon spans [337.5, 22.5).
func PhaseOf(sunLon, moonLon float64) LunarPhase {
	e := NormalizeDegrees(radToDeg(moonLon - sunLon))
	illum := math.Round((1 - math.Cos(degToRad(e))) / 2 * 100)

	return LunarPhase{
		Name:         PhaseName(e),
		Illumination: int(illum),
		Elongation:   e,
	}
}

// PhaseName returns the phase name for an elongation in degrees.
func PhaseName(elongationDeg float64) string {
	bucket := int(math.Floor(NormalizeDegrees(elongationDeg+22.5) / 45))
	return phaseNames[bucket%8]
}

// Waxing reports whether the Moon is between new and full.
func (p LunarPhase) Waxing() bool {
	return p.Elongation > 0 && p.Elongation < 180
}
