// Package engine composes the sky math and ephemeris providers into one
// Frame per (date, time, location) request.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/litescript/ls-armillary/internal/astro"
	"github.com/litescript/ls-armillary/internal/ephem"
	"github.com/litescript/ls-armillary/internal/logging"
)

const (
	// DefaultClampLatitude keeps tan(φ) finite in the angle formulas.
	DefaultClampLatitude = 89.9

	// DefaultProviderTimeout bounds a single provider call.
	DefaultProviderTimeout = 10 * time.Second

	// TraceStep is the spacing in minutes of the Sun altitude trace.
	TraceStep = 10
)

var errNonFinite = errors.New("non-finite value")

// Options configures an Engine. Zero values select defaults.
type Options struct {
	Provider        ephem.Provider      // nil uses ephem.MeanProvider
	Obliquity       astro.ObliquityFunc // nil uses astro.MeanObliquity
	Logger          *logging.Logger     // nil discards
	ClampLatitude   float64             // 0 uses DefaultClampLatitude, <0 disables
	ProviderTimeout time.Duration       // 0 uses DefaultProviderTimeout
	Cache           *RiseSetCache       // optional rise/set memo
	Store           RiseSetStore        // optional second-level rise/set cache
	Planets         []ephem.Body        // nil uses ephem.Planets()
	Heliocentric    bool                // also resolve heliocentric planet positions
}

// Engine computes Frames. It is safe for concurrent use.
type Engine struct {
	provider  ephem.Provider
	obliquity astro.ObliquityFunc
	log       *logging.Logger
	clamp     float64
	timeout   time.Duration
	cache     *RiseSetCache
	store     RiseSetStore
	planets   []ephem.Body
	helio     bool
}

// New creates an Engine.
func New(opts Options) *Engine {
	e := &Engine{
		provider:  opts.Provider,
		obliquity: opts.Obliquity,
		log:       opts.Logger,
		clamp:     opts.ClampLatitude,
		timeout:   opts.ProviderTimeout,
		cache:     opts.Cache,
		store:     opts.Store,
		planets:   opts.Planets,
		helio:     opts.Heliocentric,
	}
	if e.provider == nil {
		e.provider = ephem.MeanProvider{}
	}
	if e.obliquity == nil {
		e.obliquity = astro.MeanObliquity
	}
	if e.log == nil {
		e.log = logging.Discard()
	}
	if e.clamp == 0 {
		e.clamp = DefaultClampLatitude
	}
	if e.timeout <= 0 {
		e.timeout = DefaultProviderTimeout
	}
	if e.planets == nil {
		e.planets = ephem.Planets()
	}
	return e
}

// Provider returns the ephemeris provider in use.
func (e *Engine) Provider() ephem.Provider {
	return e.provider
}

// Inputs is one request to the engine.
type Inputs struct {
	Year       int
	DayOfYear  int
	MinutesUTC float64
	Location   astro.GeoLocation
	Timezone   string // IANA name for rise/set display; empty means UTC
}

// InputsAt builds Inputs from a wall-clock time.
func InputsAt(t time.Time, loc astro.GeoLocation, tz string) Inputs {
	in := astro.InstantFromTime(t)
	return Inputs{
		Year:       in.Year,
		DayOfYear:  in.DayOfYear,
		MinutesUTC: in.MinutesUTC,
		Location:   loc,
		Timezone:   tz,
	}
}

// BodyPosition is a body's place in a Frame.
type BodyPosition struct {
	Body      ephem.Body               `json:"-"`
	Name      string                   `json:"name"`
	Glyph     string                   `json:"glyph"`
	Available bool                     `json:"available"`
	Fallback  bool                     `json:"fallback,omitempty"`
	Source    string                   `json:"source,omitempty"`
	LonRad    float64                  `json:"lonRad"`
	LonDeg    float64                  `json:"lonDeg"`
	Zodiac    string                   `json:"zodiac,omitempty"`
	AltDeg    float64                  `json:"altDeg"`
	AzDeg     float64                  `json:"azDeg"`
	Helio     *astro.SphericalPosition `json:"helio,omitempty"`
}

// Frame is everything computed for one instant and place.
type Frame struct {
	Instant      astro.Instant     `json:"instant"`
	Location     astro.GeoLocation `json:"location"`
	Clamped      bool              `json:"clamped,omitempty"` // latitude was clamped
	JulianDate   float64           `json:"julianDate"`
	LSTDeg       float64           `json:"lstDeg"`
	ObliquityRad float64           `json:"obliquityRad"`
	Angles       astro.Angles      `json:"angles"`
	AngleZodiac  map[string]string `json:"angleZodiac"`
	Sun          BodyPosition      `json:"sun"`
	Moon         BodyPosition      `json:"moon"`
	Planets      []BodyPosition    `json:"planets"`
	Phase        astro.LunarPhase  `json:"phase"`
	Twilight     string            `json:"twilight"`

	RiseSet          astro.RiseSet          `json:"-"`
	Local            astro.LocalTimes       `json:"riseSet"`
	DayCondition     string                 `json:"dayCondition"`
	ZoneApproximated bool                   `json:"zoneApproximated,omitempty"`
	Trace            []astro.AltitudeSample `json:"-"`

	Provider  string     `json:"provider"`
	Fallbacks []Fallback `json:"fallbacks,omitempty"`
}

// Time returns the frame's instant as UTC wall-clock time.
func (f *Frame) Time() time.Time {
	return f.Instant.Time()
}

// UsedFallback reports whether any quantity was substituted.
func (f *Frame) UsedFallback() bool {
	return len(f.Fallbacks) > 0
}

// Compute produces the Frame for in. Only caller-contract violations are
// returned as errors; provider and numeric failures fall back and are
// recorded in Frame.Fallbacks.
func (e *Engine) Compute(ctx context.Context, in Inputs) (*Frame, error) {
	instant, err := astro.NewInstant(in.Year, in.DayOfYear, in.MinutesUTC)
	if err != nil {
		return nil, fmt.Errorf("compute frame: %w", err)
	}
	if err := in.Location.Validate(); err != nil {
		return nil, fmt.Errorf("compute frame: %w", err)
	}

	loc := in.Location
	if e.clamp > 0 {
		loc = loc.ClampLatitude(e.clamp)
	}

	f := &Frame{
		Instant:  instant,
		Location: loc,
		Clamped:  loc.LatDeg != in.Location.LatDeg,
		Provider: e.provider.Name(),
	}

	f.JulianDate = astro.JulianDate(instant)
	f.LSTDeg = astro.LocalSiderealTime(instant, loc.LonDeg).LSTDeg
	f.ObliquityRad = e.resolveObliquity(f, "obliquity", f.JulianDate)

	lst := astro.DegToRad(f.LSTDeg)
	lat := astro.DegToRad(loc.LatDeg)
	f.Angles = astro.ComputeAngles(lst, lat, f.ObliquityRad)
	f.AngleZodiac = angleZodiac(f.Angles)

	sunFallback := astro.DegToRad(astro.MeanSunLongitude(instant.DayOfYear))
	moonFallback := astro.DegToRad(astro.MeanMoonLongitude(instant.DayOfYear))
	f.Sun = e.resolveBody(ctx, f, ephem.Sun, "sun", &sunFallback)
	f.Moon = e.resolveBody(ctx, f, ephem.Moon, "moon", &moonFallback)
	f.Planets = e.resolvePlanets(ctx, f)

	for _, p := range append([]*BodyPosition{&f.Sun, &f.Moon}, planetRefs(f.Planets)...) {
		if p.Available {
			placeOnSky(p, lst, lat, f.ObliquityRad)
		}
	}

	f.Phase = astro.PhaseOf(f.Sun.LonRad, f.Moon.LonRad)
	f.Twilight = astro.GetTwilightTier(f.Sun.AltDeg).String()

	entry := e.riseSet(ctx, f, loc, instant.Year, instant.DayOfYear, in.Timezone)
	f.RiseSet = entry.RiseSet
	f.Local = entry.Local
	f.ZoneApproximated = entry.Approximated
	f.DayCondition = entry.RiseSet.Condition.String()
	f.Trace = entry.Trace

	return f, nil
}

// resolveObliquity evaluates the obliquity, falling back to the nominal value.
func (e *Engine) resolveObliquity(f *Frame, quantity string, jd float64) float64 {
	eps, err := e.obliquity(jd)
	lookup := finite(Lookup[float64]{Value: eps, Err: err}, fmt.Errorf("%w: %w", astro.ErrObliquityUnavailable, errNonFinite))

	value, fellBack := lookup.OrElse(astro.NominalObliquity)
	if fellBack {
		e.recordFallback(f, quantity, astro.NominalObliquityDeg, lookup.Err)
	}
	return value
}

// longitude asks the provider for a body, bounded by the provider timeout.
func (e *Engine) longitude(ctx context.Context, body ephem.Body, jd float64) Lookup[ephem.Longitude] {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	lon, err := e.provider.Longitude(ctx, body, jd)
	if err != nil {
		return Failed[ephem.Longitude](err)
	}
	return OK(lon)
}

// resolveBody looks up a body's longitude. With a fallback the body is always
// available; without one a failed lookup marks it unavailable.
func (e *Engine) resolveBody(ctx context.Context, f *Frame, body ephem.Body, quantity string, fallback *float64) BodyPosition {
	info, _ := body.Info()
	pos := BodyPosition{Body: body, Name: info.Name, Glyph: info.Glyph}

	lookup := e.longitude(ctx, body, f.JulianDate)
	if lookup.Err == nil {
		e.log.Debug("%s longitude %.4f° from %s", info.Name, lookup.Value.Deg(), lookup.Value.Source)
		pos.Available = true
		pos.Source = lookup.Value.Source
		pos.LonRad = lookup.Value.Rad
		pos.LonDeg = lookup.Value.Deg()
		pos.Zodiac = astro.ToZodiacString(pos.LonDeg)
		return pos
	}

	if fallback == nil {
		e.log.Debug("%s unavailable: %v", info.Name, lookup.Err)
		return pos
	}

	substitute := ephem.Longitude{Body: body, Rad: *fallback, Source: "fallback"}
	lon, _ := lookup.OrElse(substitute)
	e.recordFallback(f, quantity, lon.Deg(), lookup.Err)

	pos.Available = true
	pos.Fallback = true
	pos.Source = lon.Source
	pos.LonRad = lon.Rad
	pos.LonDeg = lon.Deg()
	pos.Zodiac = astro.ToZodiacString(pos.LonDeg)
	return pos
}

// resolvePlanets looks up the configured planets concurrently.
func (e *Engine) resolvePlanets(ctx context.Context, f *Frame) []BodyPosition {
	out := make([]BodyPosition, len(e.planets))
	hp, hasHelio := e.provider.(ephem.HeliocentricProvider)

	var g errgroup.Group
	for i, body := range e.planets {
		i, body := i, body
		g.Go(func() error {
			out[i] = e.resolveBody(ctx, f, body, body.String(), nil)
			if e.helio && hasHelio {
				out[i].Helio = e.heliocentric(ctx, hp, body, f.JulianDate)
			}
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (e *Engine) heliocentric(ctx context.Context, hp ephem.HeliocentricProvider, body ephem.Body, jd float64) *astro.SphericalPosition {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	h, err := hp.Heliocentric(ctx, body, jd)
	if err != nil {
		e.log.Debug("%s heliocentric unavailable: %v", body, err)
		return nil
	}
	return &h.Position
}

// riseSet returns the day's scan, consulting the caches first.
func (e *Engine) riseSet(ctx context.Context, f *Frame, loc astro.GeoLocation, year, doy int, tz string) RiseSetEntry {
	key := NewRiseSetKey(year, doy, loc, tz)

	if e.cache != nil {
		if entry, ok := e.cache.Get(key); ok {
			return entry
		}
	}
	if e.store != nil {
		if entry, err := e.store.LoadRiseSet(ctx, key); err == nil {
			if e.cache != nil {
				e.cache.Put(key, entry)
			}
			return entry
		}
	}

	entry, degraded := e.scanDay(ctx, f, loc, year, doy, tz)
	if degraded {
		// A fallback Sun is only good for this frame; keep it out of the
		// caches so a recovered provider rescans the day.
		return entry
	}

	if e.cache != nil {
		e.cache.Put(key, entry)
	}
	if e.store != nil {
		if err := e.store.SaveRiseSet(ctx, key, entry); err != nil {
			e.log.Warn("persist rise/set for %d-%03d: %v", year, doy, err)
		}
	}
	return entry
}

// scanDay runs the horizon-crossing scan with the Sun's longitude
// interpolated between 0h and 24h UTC. degraded reports that either end of
// the day used the mean Sun.
func (e *Engine) scanDay(ctx context.Context, f *Frame, loc astro.GeoLocation, year, doy int, tz string) (entry RiseSetEntry, degraded bool) {
	jd0 := astro.DayStartJD(year, doy)
	eps := e.resolveObliquity(f, "obliquity-day", jd0+0.5)

	lon0, fb0 := e.sunLongitudeAt(ctx, f, "sun-day-start", jd0, astro.MeanSunLongitudeAt(doy, 0))
	lon1, fb1 := e.sunLongitudeAt(ctx, f, "sun-day-end", jd0+1, astro.MeanSunLongitudeAt(doy, astro.MinutesPerDay))
	sunLon := astro.InterpolatedLongitude(lon0, lon1)

	rs := astro.ScanRiseSet(sunLon, loc, year, doy, eps)
	local, approximated := rs.Format(tz)
	if approximated {
		e.log.Warn("time zone %q unavailable, using %s from longitude", tz, local.Zone)
	}
	return RiseSetEntry{
		RiseSet:      rs,
		Local:        local,
		Approximated: approximated,
		Trace:        astro.AltitudeTrace(sunLon, loc, year, doy, eps, TraceStep),
	}, fb0 || fb1
}

func (e *Engine) sunLongitudeAt(ctx context.Context, f *Frame, quantity string, jd, fallbackDeg float64) (float64, bool) {
	lookup := e.longitude(ctx, ephem.Sun, jd)
	lon, fellBack := lookup.OrElse(ephem.Longitude{Rad: astro.DegToRad(fallbackDeg)})
	if fellBack {
		e.recordFallback(f, quantity, fallbackDeg, lookup.Err)
	}
	return lon.Rad, fellBack
}

// recordFallback logs and records a substitution. Planets have no fallback,
// so it is never reached from the concurrent planet lookups.
func (e *Engine) recordFallback(f *Frame, quantity string, valueDeg float64, err error) {
	e.log.Warn("%s fallback %.4f°: %v", quantity, valueDeg, err)
	f.Fallbacks = append(f.Fallbacks, Fallback{Quantity: quantity, Value: valueDeg, Reason: errString(err)})
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// placeOnSky fills the horizontal position of a body on the ecliptic.
func placeOnSky(p *BodyPosition, lst, lat, eps float64) {
	eq := astro.EclipticToEquatorial(p.LonRad, 0, eps)
	h := astro.EquatorialToHorizontal(eq.RA, eq.Dec, lst, lat)
	p.AltDeg = h.AltDeg()
	p.AzDeg = h.AzDeg()
}

func planetRefs(ps []BodyPosition) []*BodyPosition {
	refs := make([]*BodyPosition, len(ps))
	for i := range ps {
		refs[i] = &ps[i]
	}
	return refs
}

// AngleNames lists the angle keys of Frame.AngleZodiac in display order.
var AngleNames = []string{"MC", "IC", "ASC", "DSC", "VTX", "AVX"}

func angleZodiac(a astro.Angles) map[string]string {
	return map[string]string{
		"MC":  astro.ToZodiacString(a.MC),
		"IC":  astro.ToZodiacString(a.IC),
		"ASC": astro.ToZodiacString(a.ASC),
		"DSC": astro.ToZodiacString(a.DSC),
		"VTX": astro.ToZodiacString(a.VTX),
		"AVX": astro.ToZodiacString(a.AVX),
	}
}
