package ephem

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Chain tries providers in order and returns the first success.
type Chain struct {
	providers []Provider
}

// NewChain creates a chain over the given providers.
func NewChain(providers ...Provider) *Chain {
	return &Chain{providers: providers}
}

// Name implements Provider.
func (c *Chain) Name() string {
	names := make([]string, len(c.providers))
	for i, p := range c.providers {
		names[i] = p.Name()
	}
	return strings.Join(names, "→")
}

// Providers returns the chained providers in order.
func (c *Chain) Providers() []Provider {
	return c.providers
}

// Available implements Provider.
func (c *Chain) Available(body Body) bool {
	for _, p := range c.providers {
		if p.Available(body) {
			return true
		}
	}
	return false
}

// Longitude implements Provider. When every provider fails the errors are
// joined; the result still matches ErrUnavailable.
func (c *Chain) Longitude(ctx context.Context, body Body, jd float64) (Longitude, error) {
	var errs []error
	for _, p := range c.providers {
		if !p.Available(body) {
			continue
		}
		lon, err := p.Longitude(ctx, body, jd)
		if err == nil {
			return lon, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Longitude{}, ctxErr
		}
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return Longitude{}, unavailable(c.Name(), body, "no provider covers it")
	}
	return Longitude{}, fmt.Errorf("%w: %w", ErrUnavailable, errors.Join(errs...))
}

// Heliocentric implements HeliocentricProvider using the first chained
// provider that has heliocentric positions for the body. Available describes
// geocentric longitudes and is not consulted.
func (c *Chain) Heliocentric(ctx context.Context, body Body, jd float64) (Heliocentric, error) {
	var errs []error
	for _, p := range c.providers {
		hp, ok := p.(HeliocentricProvider)
		if !ok {
			continue
		}
		h, err := hp.Heliocentric(ctx, body, jd)
		if err == nil {
			return h, nil
		}
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return Heliocentric{}, unavailable(c.Name(), body, "no heliocentric provider")
	}
	return Heliocentric{}, fmt.Errorf("%w: %w", ErrUnavailable, errors.Join(errs...))
}
