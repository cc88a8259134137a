// Package ephem provides ecliptic longitudes of the Sun, Moon and planets
// from swappable ephemeris sources.
package ephem

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/litescript/ls-armillary/internal/astro"
)

// Errors returned by providers.
var (
	// ErrUnavailable means the provider cannot supply the requested body at
	// the requested time. Callers substitute a fallback.
	ErrUnavailable = errors.New("ephemeris unavailable")

	// ErrUnknownBody means the body is not in the registry.
	ErrUnknownBody = errors.New("unknown body")
)

// Longitude is a geocentric apparent ecliptic longitude.
type Longitude struct {
	Body   Body
	Rad    float64 // [0, 2π)
	Source string  // provider name
}

// Deg returns the longitude in degrees.
func (l Longitude) Deg() float64 {
	return astro.RadToDeg(l.Rad)
}

// Heliocentric is a body's heliocentric ecliptic position.
type Heliocentric struct {
	Body     Body
	Position astro.SphericalPosition
	Source   string
}

// Provider supplies ecliptic longitudes. Implementations normalize whatever
// shape their source returns; callers only see radians or an error wrapping
// ErrUnavailable.
type Provider interface {
	// Name returns the provider name for display/logging.
	Name() string

	// Longitude returns the geocentric apparent ecliptic longitude of a body
	// at a Julian Date.
	Longitude(ctx context.Context, body Body, jd float64) (Longitude, error)

	// Available returns true if this provider can supply data for the body.
	Available(body Body) bool
}

// HeliocentricProvider is implemented by providers that also know where
// bodies are relative to the Sun.
type HeliocentricProvider interface {
	Heliocentric(ctx context.Context, body Body, jd float64) (Heliocentric, error)
}

// newLongitude validates and normalizes a provider result.
func newLongitude(body Body, rad float64, source string) (Longitude, error) {
	if math.IsNaN(rad) || math.IsInf(rad, 0) {
		return Longitude{}, fmt.Errorf("%w: %s returned non-finite longitude for %s", ErrUnavailable, source, body)
	}
	return Longitude{Body: body, Rad: astro.NormalizeRadians(rad), Source: source}, nil
}

func unavailable(source string, body Body, reason string) error {
	return fmt.Errorf("%w: %s cannot supply %s: %s", ErrUnavailable, source, body, reason)
}

// jdToTime converts a Julian Date to UTC wall-clock time.
func jdToTime(jd float64) time.Time {
	ms := math.Round((jd - 2440587.5) * 86400000)
	return time.UnixMilli(int64(ms)).UTC()
}

// Mode represents which ephemeris source to use.
type Mode int

const (
	ModeAuto     Mode = iota // Try table, then analytic, then Horizons
	ModeAnalytic             // Meeus series with VSOP87 planets
	ModeHorizons             // JPL Horizons API
	ModeTable                // Tabulated CSV longitudes
	ModeMean                 // Mean-motion approximations only
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeAuto:
		return "auto"
	case ModeAnalytic:
		return "analytic"
	case ModeHorizons:
		return "horizons"
	case ModeTable:
		return "table"
	case ModeMean:
		return "mean"
	default:
		return "unknown"
	}
}

// ParseMode parses a mode string. Unknown values select ModeAuto.
func ParseMode(s string) Mode {
	switch s {
	case "analytic", "meeus", "vsop87":
		return ModeAnalytic
	case "horizons":
		return ModeHorizons
	case "table", "csv":
		return ModeTable
	case "mean":
		return ModeMean
	default:
		return ModeAuto
	}
}

// Options configures provider construction.
type Options struct {
	VSOP87Dir   string // directory of VSOP87B files; empty uses $VSOP87
	TablePath   string // CSV of tabulated longitudes
	HorizonsURL string // empty uses HorizonsAPIURL
	Offline     bool   // never contact Horizons in auto mode
	HTTPClient  *http.Client
}

// New builds the provider for a mode.
func New(mode Mode, opts Options) (Provider, error) {
	switch mode {
	case ModeAnalytic:
		return NewAnalyticProvider(opts.VSOP87Dir), nil
	case ModeHorizons:
		return newHorizons(opts), nil
	case ModeTable:
		if opts.TablePath == "" {
			return nil, errors.New("table mode requires a table path")
		}
		return LoadTableFile(opts.TablePath)
	case ModeMean:
		return MeanProvider{}, nil
	}

	var chain []Provider
	if opts.TablePath != "" {
		tp, err := LoadTableFile(opts.TablePath)
		if err != nil {
			return nil, err
		}
		chain = append(chain, tp)
	}
	chain = append(chain, NewAnalyticProvider(opts.VSOP87Dir))
	if !opts.Offline {
		chain = append(chain, newHorizons(opts))
	}
	return NewChain(chain...), nil
}

func newHorizons(opts Options) *HorizonsProvider {
	var hopts []HorizonsOption
	if opts.HorizonsURL != "" {
		hopts = append(hopts, WithBaseURL(opts.HorizonsURL))
	}
	if opts.HTTPClient != nil {
		hopts = append(hopts, WithHTTPClient(opts.HTTPClient))
	}
	return NewHorizonsProvider(hopts...)
}
