package astro

import "math"

// Angles holds the six astrological angles in degrees, each in [0, 360).
// IC and AVX are always derived from MC and VTX.
type Angles struct {
	MC  float64 `json:"mc"`
	IC  float64 `json:"ic"`
	ASC float64 `json:"asc"`
	DSC float64 `json:"dsc"`
	VTX float64 `json:"vtx"`
	AVX float64 `json:"avx"`
}

// ComputeAngles evaluates every angle for a local sidereal time, latitude and
// obliquity, all in radians.
func ComputeAngles(lst, lat, eps float64) Angles {
	mc := Midheaven(lst, eps)
	asc, dsc := AscendantDescendant(lst, lat, eps)
	vtx := Vertex(lst, lat, eps)
	return Angles{
		MC:  mc,
		IC:  Opposite(mc),
		ASC: asc,
		DSC: dsc,
		VTX: vtx,
		AVX: Opposite(vtx),
	}
}

// Opposite returns the point 180° away on the circle.
func Opposite(deg float64) float64 {
	return NormalizeDegrees(deg + 180)
}

// Midheaven returns the ecliptic longitude culminating on the local meridian.
func Midheaven(lst, eps float64) float64 {
	return NormalizeDegrees(radToDeg(math.Atan2(math.Sin(lst), math.Cos(lst)*math.Cos(eps))))
}

// AscendantDescendant returns the eastern and western ecliptic horizon
// crossings. The raw atan2 result is the descendant in this sign convention;
// south of the equator both cusps are rotated by 180°.
func AscendantDescendant(lst, lat, eps float64) (asc, dsc float64) {
	raw := radToDeg(math.Atan2(
		-math.Cos(lst),
		math.Sin(lst)*math.Cos(eps)+math.Tan(lat)*math.Sin(eps),
	))

	dsc = NormalizeDegrees(raw)
	asc = NormalizeDegrees(raw + 180)

	if lat < 0 {
		asc = NormalizeDegrees(asc + 180)
		dsc = NormalizeDegrees(dsc + 180)
	}
	return asc, dsc
}

// Vertex returns the western intersection of the prime vertical with the
// ecliptic. The point is taken at hour angle +90° (RA = LST - 90°) with
// declination asin(cos lat), then converted to ecliptic longitude.
func Vertex(lst, lat, eps float64) float64 {
	ra := lst - math.Pi/2
	dec := math.Asin(math.Cos(lat))
	ecl := EquatorialToEcliptic(ra, dec, eps)
	return NormalizeDegrees(radToDeg(ecl.Lon))
}
