package astro

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// AU is the Astronomical Unit in kilometers.
const AU = 149597870.7

// SphericalPosition is an ecliptic position: longitude and latitude in
// radians, distance in AU.
type SphericalPosition struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
	R   float64 `json:"r"`
}

// EclipticVector converts a spherical ecliptic position to rectangular
// coordinates (X toward the vernal equinox, Z toward the ecliptic pole).
func EclipticVector(p SphericalPosition) r3.Vec {
	sinL, cosL := math.Sincos(p.Lon)
	sinB, cosB := math.Sincos(p.Lat)
	return r3.Vec{
		X: p.R * cosB * cosL,
		Y: p.R * cosB * sinL,
		Z: p.R * sinB,
	}
}

// SphericalFromVector is the inverse of EclipticVector.
func SphericalFromVector(v r3.Vec) SphericalPosition {
	r := r3.Norm(v)
	if r == 0 {
		return SphericalPosition{}
	}
	return SphericalPosition{
		Lon: NormalizeRadians(math.Atan2(v.Y, v.X)),
		Lat: math.Asin(v.Z / r),
		R:   r,
	}
}

// Geocentric converts a heliocentric position to the geocentric one seen from
// Earth, both in the ecliptic frame.
func Geocentric(body, earth SphericalPosition) SphericalPosition {
	return SphericalFromVector(r3.Sub(EclipticVector(body), EclipticVector(earth)))
}

// EclipticToEquatorialVec rotates an ecliptic vector into the equatorial
// frame about the equinox (X) axis.
func EclipticToEquatorialVec(v r3.Vec, eps float64) r3.Vec {
	return r3.NewRotation(eps, r3.Vec{X: 1}).Rotate(v)
}

// EquatorialToEclipticVec rotates an equatorial vector into the ecliptic frame.
func EquatorialToEclipticVec(v r3.Vec, eps float64) r3.Vec {
	return r3.NewRotation(-eps, r3.Vec{X: 1}).Rotate(v)
}

// ProjectedPoint represents a 2D projected position with metadata.
type ProjectedPoint struct {
	X float64 // Screen X coordinate (normalized, -1 to 1)
	Y float64 // Screen Y coordinate (normalized, -1 to 1)
	R float64 // Original radial distance in AU
}

// ScaleMode defines how radial distances are mapped to screen space.
type ScaleMode int

const (
	// ScaleLogR uses logarithmic scaling: r_display = log10(r_AU + 1) * scale
	ScaleLogR ScaleMode = iota

	// ScaleInner uses linear scaling optimized for 0-5 AU
	ScaleInner

	// ScaleOuter uses linear scaling to 5 AU then logarithmic beyond
	ScaleOuter
)

// ProjectionConfig controls the top-down orrery projection.
type ProjectionConfig struct {
	Mode  ScaleMode
	Scale float64
}

// DefaultProjectionConfig returns the default projection settings.
func DefaultProjectionConfig() ProjectionConfig {
	return ProjectionConfig{Mode: ScaleLogR, Scale: 1.0 / math.Log10(31)}
}

// ProjectEclipticTopDown projects a heliocentric ecliptic position onto the
// ecliptic plane. X points toward the vernal equinox, Y toward longitude 90°.
func ProjectEclipticTopDown(p SphericalPosition, cfg ProjectionConfig) ProjectedPoint {
	v := EclipticVector(p)
	rPlane := math.Hypot(v.X, v.Y)
	rDisplay := scaleRadius(rPlane, cfg)
	angle := math.Atan2(v.Y, v.X)

	return ProjectedPoint{
		X: rDisplay * math.Cos(angle) * cfg.Scale,
		Y: rDisplay * math.Sin(angle) * cfg.Scale,
		R: p.R,
	}
}

func scaleRadius(rAU float64, cfg ProjectionConfig) float64 {
	switch cfg.Mode {
	case ScaleInner:
		// Clamp outer planets to the edge
		return math.Min(rAU, 5) / 5
	case ScaleOuter:
		// Inner planets get half the space
		if rAU <= 5 {
			return rAU / 5 * 0.5
		}
		return 0.5 + math.Log10(rAU/5+1)*0.5
	default:
		return math.Log10(rAU + 1)
	}
}
