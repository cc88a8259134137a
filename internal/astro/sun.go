package astro

import "math"

// Mean daily motions used by the offline fallbacks.
const (
	tropicalYearDays   = 365.2425
	meanLunarMotionDeg = 13.176
)

// MeanSunLongitude is the linear mean-longitude approximation of the Sun in
// degrees for a day of year: (280 + (doy-1)*360/365.2425) mod 360.
func MeanSunLongitude(dayOfYear int) float64 {
	return NormalizeDegrees(280 + float64(dayOfYear-1)*360/tropicalYearDays)
}

// MeanSunLongitudeAt extends MeanSunLongitude to a fractional day so that a
// day-long scan moves the Sun smoothly. At minute 0 it equals MeanSunLongitude.
func MeanSunLongitudeAt(dayOfYear int, minutesUTC float64) float64 {
	return NormalizeDegrees(MeanSunLongitude(dayOfYear) + minutesUTC/MinutesPerDay*360/tropicalYearDays)
}

// MeanMoonLongitude is the mean lunar motion approximation in degrees:
// (doy * 13.176) mod 360.
func MeanMoonLongitude(dayOfYear int) float64 {
	return NormalizeDegrees(float64(dayOfYear) * meanLunarMotionDeg)
}

// SunLongitudeFunc returns the Sun's ecliptic longitude in radians at a
// minute of the scanned UTC day.
type SunLongitudeFunc func(minuteUTC float64) float64

// InterpolatedLongitude returns a SunLongitudeFunc that moves linearly from
// lon0 at minute 0 to lon1 at minute 1440, taking the short way across 0/2π.
func InterpolatedLongitude(lon0, lon1 float64) SunLongitudeFunc {
	delta := math.Remainder(lon1-lon0, 2*math.Pi)
	return func(minute float64) float64 {
		return NormalizeRadians(lon0 + delta*minute/MinutesPerDay)
	}
}

// ConstantLongitude returns a SunLongitudeFunc fixed at lon radians.
func ConstantLongitude(lon float64) SunLongitudeFunc {
	return func(float64) float64 { return lon }
}
