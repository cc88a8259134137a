package astro

import (
	"errors"
	"fmt"
	"math"

	"github.com/soniakeys/meeus/v3/nutation"
)

// NominalObliquityDeg is the fixed obliquity used when the polynomial is unavailable.
const NominalObliquityDeg = 23.44

// NominalObliquity is NominalObliquityDeg in radians.
const NominalObliquity = NominalObliquityDeg * math.Pi / 180

// laskarValidCenturies bounds the Laskar polynomial to the ±10000 years it is
// fitted over.
const laskarValidCenturies = 100.0

// ErrObliquityUnavailable is returned when the obliquity polynomial cannot
// produce a usable value.
var ErrObliquityUnavailable = errors.New("obliquity unavailable")

// ObliquityFunc returns the mean obliquity of the ecliptic in radians.
type ObliquityFunc func(jd float64) (float64, error)

// MeanObliquity evaluates Laskar's mean obliquity polynomial for a Julian Date.
// Any panic, non-finite result or out-of-range epoch is reported as
// ErrObliquityUnavailable; the caller decides on a fallback.
func MeanObliquity(jd float64) (eps float64, err error) {
	if math.IsNaN(jd) || math.IsInf(jd, 0) {
		return 0, fmt.Errorf("%w: invalid julian date %v", ErrObliquityUnavailable, jd)
	}
	if T := JulianCenturies(jd); math.Abs(T) > laskarValidCenturies {
		return 0, fmt.Errorf("%w: %.0f centuries from J2000 outside polynomial range", ErrObliquityUnavailable, T)
	}

	defer func() {
		if r := recover(); r != nil {
			eps, err = 0, fmt.Errorf("%w: %v", ErrObliquityUnavailable, r)
		}
	}()

	eps = nutation.MeanObliquityLaskar(jd).Rad()
	if math.IsNaN(eps) || math.IsInf(eps, 0) {
		return 0, fmt.Errorf("%w: non-finite result", ErrObliquityUnavailable)
	}
	return eps, nil
}
