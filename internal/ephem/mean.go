package ephem

import (
	"context"

	"github.com/litescript/ls-armillary/internal/astro"
)

// MeanProvider serves the mean-motion approximations for the Sun and Moon.
// It needs no data and never fails for those two bodies; planets are
// unavailable.
type MeanProvider struct{}

// Name implements Provider.
func (MeanProvider) Name() string {
	return "Mean"
}

// Available implements Provider.
func (MeanProvider) Available(body Body) bool {
	return body == Sun || body == Moon
}

// Longitude implements Provider.
func (m MeanProvider) Longitude(ctx context.Context, body Body, jd float64) (Longitude, error) {
	if err := ctx.Err(); err != nil {
		return Longitude{}, err
	}

	day := jdToTime(jd).YearDay()
	switch body {
	case Sun:
		return newLongitude(body, astro.DegToRad(astro.MeanSunLongitude(day)), m.Name())
	case Moon:
		return newLongitude(body, astro.DegToRad(astro.MeanMoonLongitude(day)), m.Name())
	default:
		return Longitude{}, unavailable(m.Name(), body, "no mean-motion model")
	}
}
