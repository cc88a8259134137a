package ephem

import (
	"context"
	"fmt"
	"sync"

	"github.com/soniakeys/meeus/v3/base"
	"github.com/soniakeys/meeus/v3/moonposition"
	pp "github.com/soniakeys/meeus/v3/planetposition"
	"github.com/soniakeys/meeus/v3/pluto"
	"github.com/soniakeys/meeus/v3/solar"
	"github.com/soniakeys/unit"

	"github.com/litescript/ls-armillary/internal/astro"
)

// AnalyticProvider computes positions from Meeus' series: the solar theory
// and ELP-derived lunar position are built in, planets need VSOP87B files.
//
// Julian Dates are passed to the series as dynamical time; the ~70 s
// difference from UT is below the minute resolution the engine works at.
type AnalyticProvider struct {
	dir string

	mu      sync.Mutex
	planets map[int]*pp.V87Planet
	loadErr map[int]error
}

// NewAnalyticProvider creates a provider reading VSOP87B files from dir.
// An empty dir defers to the VSOP87 environment variable.
func NewAnalyticProvider(dir string) *AnalyticProvider {
	return &AnalyticProvider{
		dir:     dir,
		planets: make(map[int]*pp.V87Planet),
		loadErr: make(map[int]error),
	}
}

// Name implements Provider.
func (p *AnalyticProvider) Name() string {
	return "Meeus"
}

// Available implements Provider. Planets are available once their VSOP87
// file (and Earth's) can be loaded.
func (p *AnalyticProvider) Available(body Body) bool {
	switch body {
	case Sun, Moon:
		return true
	case Pluto:
		_, err := p.planet(pp.Earth)
		return err == nil
	}
	info, ok := BodiesByNAIF[body]
	if !ok || info.VSOP == noVSOP || body == Earth {
		return false
	}
	if _, err := p.planet(pp.Earth); err != nil {
		return false
	}
	_, err := p.planet(info.VSOP)
	return err == nil
}

// Longitude implements Provider.
func (p *AnalyticProvider) Longitude(ctx context.Context, body Body, jd float64) (Longitude, error) {
	if err := ctx.Err(); err != nil {
		return Longitude{}, err
	}
	if _, ok := BodiesByNAIF[body]; !ok {
		return Longitude{}, fmt.Errorf("%w: %d", ErrUnknownBody, int(body))
	}

	switch body {
	case Sun:
		lon := solar.ApparentLongitude(base.J2000Century(jd))
		return newLongitude(body, lon.Rad(), p.Name())
	case Moon:
		lon, _, _ := moonposition.Position(jd)
		return newLongitude(body, lon.Rad(), p.Name())
	case Earth:
		return Longitude{}, unavailable(p.Name(), body, "observer's own planet")
	}

	earth, err := p.earthPosition(body, jd)
	if err != nil {
		return Longitude{}, err
	}
	helio, err := p.Heliocentric(ctx, body, jd)
	if err != nil {
		return Longitude{}, err
	}
	geo := astro.Geocentric(helio.Position, earth)
	return newLongitude(body, geo.Lon, p.Name())
}

// Heliocentric implements HeliocentricProvider. Pluto is referred to the
// J2000 ecliptic, the planets to the ecliptic of date.
func (p *AnalyticProvider) Heliocentric(ctx context.Context, body Body, jd float64) (Heliocentric, error) {
	if err := ctx.Err(); err != nil {
		return Heliocentric{}, err
	}

	if body == Sun {
		return Heliocentric{Body: body, Source: p.Name()}, nil
	}
	if body == Pluto {
		l, b, r := pluto.Heliocentric(jd)
		return Heliocentric{
			Body:     body,
			Position: astro.SphericalPosition{Lon: l.Rad(), Lat: b.Rad(), R: r},
			Source:   p.Name(),
		}, nil
	}

	info, ok := BodiesByNAIF[body]
	if !ok {
		return Heliocentric{}, fmt.Errorf("%w: %d", ErrUnknownBody, int(body))
	}
	if info.VSOP == noVSOP {
		return Heliocentric{}, unavailable(p.Name(), body, "no VSOP87 series")
	}
	planet, err := p.planet(info.VSOP)
	if err != nil {
		return Heliocentric{}, unavailable(p.Name(), body, err.Error())
	}
	l, b, r := planet.Position(jd)
	return Heliocentric{
		Body:     body,
		Position: astro.SphericalPosition{Lon: l.Rad(), Lat: b.Rad(), R: r},
		Source:   p.Name(),
	}, nil
}

// earthPosition returns Earth's heliocentric position in the frame matching body.
func (p *AnalyticProvider) earthPosition(body Body, jd float64) (astro.SphericalPosition, error) {
	earth, err := p.planet(pp.Earth)
	if err != nil {
		return astro.SphericalPosition{}, unavailable(p.Name(), body, err.Error())
	}
	var (
		l, b unit.Angle
		r    float64
	)
	if body == Pluto {
		l, b, r = earth.Position2000(jd)
	} else {
		l, b, r = earth.Position(jd)
	}
	return astro.SphericalPosition{Lon: l.Rad(), Lat: b.Rad(), R: r}, nil
}

// planet loads a VSOP87 series once; failures are remembered.
func (p *AnalyticProvider) planet(ibody int) (*pp.V87Planet, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if v, ok := p.planets[ibody]; ok {
		return v, nil
	}
	if err, ok := p.loadErr[ibody]; ok {
		return nil, err
	}

	var (
		v   *pp.V87Planet
		err error
	)
	if p.dir != "" {
		v, err = pp.LoadPlanetPath(ibody, p.dir)
	} else {
		v, err = pp.LoadPlanet(ibody)
	}
	if err != nil {
		err = fmt.Errorf("load VSOP87 series %d: %w", ibody, err)
		p.loadErr[ibody] = err
		return nil, err
	}
	p.planets[ibody] = v
	return v, nil
}
