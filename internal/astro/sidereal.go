package astro

import "math"

// Sidereal is the local sidereal time of an instant along with the Julian Date
// it was derived from, so downstream formulas reuse the same JD.
type Sidereal struct {
	LSTDeg float64
	JD     float64
}

// LSTRad returns the local sidereal time in radians.
func (s Sidereal) LSTRad() float64 {
	return degToRad(s.LSTDeg)
}

// LocalSiderealTime computes the local sidereal time for an instant at the
// given east-positive longitude.
func LocalSiderealTime(in Instant, lonDeg float64) Sidereal {
	jd := JulianDate(in)
	return Sidereal{LSTDeg: LocalSiderealTimeJD(jd, lonDeg), JD: jd}
}

// LocalSiderealTimeJD computes the local sidereal time in degrees for a Julian
// Date and east-positive longitude.
func LocalSiderealTimeJD(jd, lonDeg float64) float64 {
	return NormalizeDegrees(GreenwichMeanSiderealTime(jd) + lonDeg)
}

// GreenwichMeanSiderealTime calculates GMST in degrees for a Julian Date.
// Uses the IAU 1982 cubic in Julian centuries since J2000.0.
func GreenwichMeanSiderealTime(jd float64) float64 {
	d := jd - J2000
	T := d / 36525.0

	// GMST = 280.46061837 + 360.98564736629*(JD-2451545) + 0.000387933*T^2 - T^3/38710000
	gmst := 280.46061837 +
		360.98564736629*d +
		0.000387933*T*T -
		T*T*T/38710000.0

	return NormalizeDegrees(gmst)
}

// NormalizeDegrees maps an angle onto [0, 360).
func NormalizeDegrees(a float64) float64 {
	a = math.Mod(a, 360)
	if a < 0 {
		a += 360
	}
	// math.Mod of a tiny negative value can round up to exactly 360.
	if a >= 360 {
		a = 0
	}
	return a + 0 // fold -0 to +0
}

// NormalizeRadians maps an angle onto [0, 2π).
func NormalizeRadians(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	if a >= 2*math.Pi {
		a = 0
	}
	return a + 0
}

// degToRad converts degrees to radians.
func degToRad(deg float64) float64 {
	return deg * math.Pi / 180
}

// radToDeg converts radians to degrees.
func radToDeg(rad float64) float64 {
	return rad * 180 / math.Pi
}

// DegToRad converts degrees to radians.
func DegToRad(deg float64) float64 { return degToRad(deg) }

// RadToDeg converts radians to degrees.
func RadToDeg(rad float64) float64 { return radToDeg(rad) }
