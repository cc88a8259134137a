package astro

import (
	"fmt"
	"math"
)

// GeoLocation is an observer position on Earth.
type GeoLocation struct {
	LatDeg float64 `json:"lat" toml:"lat"` // north positive
	LonDeg float64 `json:"lon" toml:"lon"` // east positive
}

// Validate rejects latitudes outside ±90°, longitudes outside ±180° and NaN.
func (g GeoLocation) Validate() error {
	if math.IsNaN(g.LatDeg) || math.IsNaN(g.LonDeg) {
		return fmt.Errorf("%w: NaN coordinate", ErrInvalidLocation)
	}
	if g.LatDeg < -90 || g.LatDeg > 90 {
		return fmt.Errorf("%w: latitude %.4f", ErrInvalidLocation, g.LatDeg)
	}
	if g.LonDeg < -180 || g.LonDeg > 180 {
		return fmt.Errorf("%w: longitude %.4f", ErrInvalidLocation, g.LonDeg)
	}
	return nil
}

// ClampLatitude limits the latitude to ±limit degrees, keeping tan(lat) finite.
func (g GeoLocation) ClampLatitude(limit float64) GeoLocation {
	if g.LatDeg > limit {
		g.LatDeg = limit
	} else if g.LatDeg < -limit {
		g.LatDeg = -limit
	}
	return g
}

// Equatorial coordinates in radians. RA is in [0, 2π).
type Equatorial struct {
	RA  float64
	Dec float64
}

// Ecliptic coordinates in radians. Lon is in [0, 2π).
type Ecliptic struct {
	Lon float64
	Lat float64
}

// Horizontal coordinates in radians.
//   - Azimuth: 0 = North, π/2 = East, π = South, 3π/2 = West
//   - Altitude: 0 = horizon, π/2 = zenith
type Horizontal struct {
	Alt float64
	Az  float64
}

// AltDeg returns the altitude in degrees.
func (h Horizontal) AltDeg() float64 { return radToDeg(h.Alt) }

// AzDeg returns the azimuth in degrees.
func (h Horizontal) AzDeg() float64 { return radToDeg(h.Az) }

// EclipticToEquatorial rotates ecliptic coordinates by the obliquity about the
// equinox axis.
func EclipticToEquatorial(lon, lat, eps float64) Equatorial {
	sinE, cosE := math.Sincos(eps)
	sinL, cosL := math.Sincos(lon)

	ra := math.Atan2(sinL*cosE-math.Tan(lat)*sinE, cosL)
	dec := math.Asin(math.Sin(lat)*cosE + math.Cos(lat)*sinE*sinL)

	return Equatorial{RA: NormalizeRadians(ra), Dec: dec}
}

// EquatorialToEcliptic is the inverse rotation of EclipticToEquatorial.
func EquatorialToEcliptic(ra, dec, eps float64) Ecliptic {
	sinE, cosE := math.Sincos(eps)
	sinA, cosA := math.Sincos(ra)

	lon := math.Atan2(sinA*cosE+math.Tan(dec)*sinE, cosA)
	lat := math.Asin(math.Sin(dec)*cosE - math.Cos(dec)*sinE*sinA)

	return Ecliptic{Lon: NormalizeRadians(lon), Lat: lat}
}

// EquatorialToHorizontal converts equatorial coordinates to altitude and
// azimuth for a local sidereal time and latitude. Hour angle = LST - RA.
func EquatorialToHorizontal(ra, dec, lst, lat float64) Horizontal {
	ha := lst - ra

	sinLat, cosLat := math.Sincos(lat)
	sinDec, cosDec := math.Sincos(dec)
	sinHA, cosHA := math.Sincos(ha)

	sinAlt := sinDec*sinLat + cosDec*cosLat*cosHA
	// Clamp to handle floating point errors
	if sinAlt > 1 {
		sinAlt = 1
	} else if sinAlt < -1 {
		sinAlt = -1
	}
	alt := math.Asin(sinAlt)

	// Azimuth measured from north through east
	az := math.Atan2(-cosDec*sinHA, sinDec*cosLat-cosDec*sinLat*cosHA)

	return Horizontal{Alt: alt, Az: NormalizeRadians(az)}
}

// HorizontalToEquatorial is the inverse of EquatorialToHorizontal.
func HorizontalToEquatorial(alt, az, lst, lat float64) Equatorial {
	sinLat, cosLat := math.Sincos(lat)
	sinAlt, cosAlt := math.Sincos(alt)
	sinAz, cosAz := math.Sincos(az)

	dec := math.Asin(sinLat*sinAlt + cosLat*cosAlt*cosAz)
	ha := math.Atan2(-sinAz*cosAlt, cosLat*sinAlt-sinLat*cosAlt*cosAz)

	return Equatorial{RA: NormalizeRadians(lst - ha), Dec: dec}
}

// AngularSeparation calculates the angular separation between two points on
// the celestial sphere. All coordinates in degrees. Returns separation in degrees.
func AngularSeparation(ra1, dec1, ra2, dec2 float64) float64 {
	dRA := degToRad(ra2 - ra1)
	dDec := degToRad(dec2 - dec1)

	// Haversine formula
	a := math.Sin(dDec/2)*math.Sin(dDec/2) +
		math.Cos(degToRad(dec1))*math.Cos(degToRad(dec2))*math.Sin(dRA/2)*math.Sin(dRA/2)
	if a > 1 {
		a = 1
	}

	return radToDeg(2 * math.Asin(math.Sqrt(a)))
}
