package ephem

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/litescript/ls-armillary/internal/astro"
)

const (
	// HorizonsAPIURL is the JPL Horizons JSON API endpoint.
	HorizonsAPIURL = "https://ssd.jpl.nasa.gov/api/horizons.api"

	// DayTableStep is the sampling step of cached daily longitude tables.
	DayTableStep = time.Hour

	// DayTableTTL is how long a daily table stays cached.
	DayTableTTL = 6 * time.Hour

	// VectorCacheTTL is how long to cache heliocentric positions.
	VectorCacheTTL = 10 * time.Minute

	// RequestTimeout is the default HTTP request timeout.
	RequestTimeout = 30 * time.Second
)

// HorizonsProvider queries JPL Horizons for geocentric ecliptic longitudes
// and heliocentric vectors.
type HorizonsProvider struct {
	baseURL string
	client  *http.Client

	mu      sync.RWMutex
	days    map[dayKey]*cachedDay
	vectors map[vectorKey]*cachedVector
}

// HorizonsOption configures a HorizonsProvider.
type HorizonsOption func(*HorizonsProvider)

// WithBaseURL overrides the API endpoint.
func WithBaseURL(u string) HorizonsOption {
	return func(p *HorizonsProvider) {
		p.baseURL = u
	}
}

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(c *http.Client) HorizonsOption {
	return func(p *HorizonsProvider) {
		p.client = c
	}
}

// WithTimeout sets the request timeout of the default client.
func WithTimeout(d time.Duration) HorizonsOption {
	return func(p *HorizonsProvider) {
		p.client = &http.Client{Timeout: d}
	}
}

type dayKey struct {
	body  Body
	dayJD float64 // JD at 0h UTC
}

type cachedDay struct {
	samples   []TableSample
	fetchedAt time.Time
}

type vectorKey struct {
	body   Body
	minute int64 // minutes since the Unix epoch
}

type cachedVector struct {
	pos       astro.SphericalPosition
	fetchedAt time.Time
}

// NewHorizonsProvider creates a new Horizons API client.
func NewHorizonsProvider(opts ...HorizonsOption) *HorizonsProvider {
	p := &HorizonsProvider{
		baseURL: HorizonsAPIURL,
		client:  &http.Client{Timeout: RequestTimeout},
		days:    make(map[dayKey]*cachedDay),
		vectors: make(map[vectorKey]*cachedVector),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name implements Provider.
func (p *HorizonsProvider) Name() string {
	return "Horizons"
}

// Available implements Provider.
func (p *HorizonsProvider) Available(body Body) bool {
	_, ok := BodiesByNAIF[body]
	return ok && body != Earth
}

// Longitude implements Provider. It fetches an hourly table for the whole
// UTC day once and interpolates within it.
func (p *HorizonsProvider) Longitude(ctx context.Context, body Body, jd float64) (Longitude, error) {
	if !p.Available(body) {
		if _, ok := BodiesByNAIF[body]; !ok {
			return Longitude{}, fmt.Errorf("%w: %d", ErrUnknownBody, int(body))
		}
		return Longitude{}, unavailable(p.Name(), body, "observer's own planet")
	}

	key := dayKey{body: body, dayJD: math.Floor(jd-0.5) + 0.5}
	samples, err := p.dayTable(ctx, key)
	if err != nil {
		return Longitude{}, unavailable(p.Name(), body, err.Error())
	}

	rad, ok := interpolateSamples(samples, jd)
	if !ok {
		return Longitude{}, unavailable(p.Name(), body, fmt.Sprintf("JD %.5f outside returned table", jd))
	}
	return newLongitude(body, rad, p.Name())
}

// InvalidateCache drops every cached table and vector.
func (p *HorizonsProvider) InvalidateCache() {
	p.mu.Lock()
	p.days = make(map[dayKey]*cachedDay)
	p.vectors = make(map[vectorKey]*cachedVector)
	p.mu.Unlock()
}

func (p *HorizonsProvider) dayTable(ctx context.Context, key dayKey) ([]TableSample, error) {
	p.mu.RLock()
	cached, ok := p.days[key]
	p.mu.RUnlock()

	if ok && time.Since(cached.fetchedAt) < DayTableTTL {
		return cached.samples, nil
	}

	start := jdToTime(key.dayJD)
	samples, err := p.queryLongitudes(ctx, key.body, start, start.Add(24*time.Hour), DayTableStep)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.days[key] = &cachedDay{samples: samples, fetchedAt: time.Now()}
	p.mu.Unlock()

	return samples, nil
}

// queryLongitudes requests an observer table of geocentric ecliptic
// longitudes.
func (p *HorizonsProvider) queryLongitudes(ctx context.Context, body Body, start, end time.Time, step time.Duration) ([]TableSample, error) {
	// Values must be quoted with single quotes
	params := url.Values{}
	params.Set("format", "json")
	params.Set("COMMAND", fmt.Sprintf("'%d'", int(body)))
	params.Set("OBJ_DATA", "NO")
	params.Set("MAKE_EPHEM", "YES")
	params.Set("EPHEM_TYPE", "OBSERVER")
	params.Set("CENTER", "'500@399'") // geocenter
	params.Set("START_TIME", fmt.Sprintf("'%s'", formatHorizonsTime(start)))
	params.Set("STOP_TIME", fmt.Sprintf("'%s'", formatHorizonsTime(end)))
	params.Set("STEP_SIZE", fmt.Sprintf("'%s'", formatStepSize(step)))
	params.Set("QUANTITIES", "'31'") // 31=Observer ecliptic lon/lat

	result, err := p.get(ctx, params)
	if err != nil {
		return nil, err
	}
	return parseLongitudeTable(result)
}

// Heliocentric implements HeliocentricProvider.
func (p *HorizonsProvider) Heliocentric(ctx context.Context, body Body, jd float64) (Heliocentric, error) {
	if body == Sun {
		return Heliocentric{Body: body, Source: p.Name()}, nil
	}
	if _, ok := BodiesByNAIF[body]; !ok {
		return Heliocentric{}, fmt.Errorf("%w: %d", ErrUnknownBody, int(body))
	}

	t := jdToTime(jd)
	key := vectorKey{body: body, minute: t.Unix() / 60}

	p.mu.RLock()
	cached, ok := p.vectors[key]
	p.mu.RUnlock()

	if ok && time.Since(cached.fetchedAt) < VectorCacheTTL {
		return Heliocentric{Body: body, Position: cached.pos, Source: p.Name()}, nil
	}

	vec, err := p.queryHeliocentricVector(ctx, body, t)
	if err != nil {
		return Heliocentric{}, unavailable(p.Name(), body, err.Error())
	}
	pos := astro.SphericalFromVector(vec)

	p.mu.Lock()
	p.vectors[key] = &cachedVector{pos: pos, fetchedAt: time.Now()}
	p.mu.Unlock()

	return Heliocentric{Body: body, Position: pos, Source: p.Name()}, nil
}

// queryHeliocentricVector queries Horizons for a heliocentric ecliptic
// position vector in AU.
func (p *HorizonsProvider) queryHeliocentricVector(ctx context.Context, body Body, t time.Time) (r3.Vec, error) {
	params := url.Values{}
	params.Set("format", "json")
	params.Set("COMMAND", fmt.Sprintf("'%d'", int(body)))
	params.Set("OBJ_DATA", "NO")
	params.Set("MAKE_EPHEM", "YES")
	params.Set("EPHEM_TYPE", "VECTORS")
	params.Set("CENTER", "'@10'")       // Sun center
	params.Set("REF_PLANE", "ECLIPTIC") // Ecliptic plane
	params.Set("REF_SYSTEM", "ICRF")
	params.Set("VEC_TABLE", "'2'") // Position only
	params.Set("VEC_LABELS", "NO")
	params.Set("OUT_UNITS", "'AU-D'")
	params.Set("START_TIME", fmt.Sprintf("'%s'", formatHorizonsTime(t)))
	params.Set("STOP_TIME", fmt.Sprintf("'%s'", formatHorizonsTime(t.Add(time.Minute))))
	params.Set("STEP_SIZE", "'1 m'")

	result, err := p.get(ctx, params)
	if err != nil {
		return r3.Vec{}, err
	}
	return parseVectorResult(result)
}

// get performs a request and returns the text result blob.
func (p *HorizonsProvider) get(ctx context.Context, params url.Values) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("build horizons request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("horizons request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("horizons returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var hr horizonsResponse
	if err := json.Unmarshal(body, &hr); err != nil {
		return "", fmt.Errorf("failed to parse JSON: %w", err)
	}
	if hr.Error != "" {
		return "", fmt.Errorf("horizons error: %s", hr.Error)
	}
	return hr.Result, nil
}

// horizonsResponse represents the JSON API response.
type horizonsResponse struct {
	Signature struct {
		Version string `json:"version"`
		Source  string `json:"source"`
	} `json:"signature"`
	Result string `json:"result"`
	Error  string `json:"error"`
}

// dataSection returns the lines between the $$SOE and $$EOE markers.
func dataSection(result string) ([]string, error) {
	soeIdx := strings.Index(result, "$$SOE")
	eoeIdx := strings.Index(result, "$$EOE")
	if soeIdx == -1 || eoeIdx == -1 || soeIdx >= eoeIdx {
		return nil, fmt.Errorf("could not find ephemeris data markers")
	}
	return strings.Split(result[soeIdx+5:eoeIdx], "\n"), nil
}

// parseLongitudeTable extracts samples from an observer table.
func parseLongitudeTable(result string) ([]TableSample, error) {
	lines, err := dataSection(result)
	if err != nil {
		return nil, err
	}

	var samples []TableSample
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		s, err := parseLongitudeLine(line)
		if err != nil {
			continue // Skip unparseable lines
		}
		samples = append(samples, s)
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("no longitude rows in response")
	}
	return samples, nil
}

// parseLongitudeLine parses a single observer table line.
// Format for QUANTITIES='31':
// 2025-Dec-05 00:00 *   253.1234567  -0.1234567
// Fields: date, time, optional flags, ecliptic longitude, latitude
func parseLongitudeLine(line string) (TableSample, error) {
	fields := strings.Fields(line)
	if len(fields) < 3 {
		return TableSample{}, fmt.Errorf("insufficient fields: %d", len(fields))
	}

	t, err := parseHorizonsDateTime(fields[0] + " " + fields[1])
	if err != nil {
		return TableSample{}, err
	}

	// Longitude is the first numeric field after any flags
	for _, f := range fields[2:] {
		lon, err := strconv.ParseFloat(f, 64)
		if err != nil {
			continue
		}
		return TableSample{
			JD:     astro.JulianDate(astro.InstantFromTime(t)),
			LonRad: astro.DegToRad(lon),
		}, nil
	}
	return TableSample{}, fmt.Errorf("could not find longitude value")
}

// parseVectorResult parses the first position vector of a VECTORS table.
//
// Vector format (VEC_TABLE='2'):
// 2460651.500000000 = A.D. 2024-Dec-05 00:00:00.0000 TDB
//
//	X = 1.234567890123456E+00 Y = 2.345678901234567E+00 Z = 3.456789012345678E-01
//
// or, without labels, three bare numbers.
func parseVectorResult(result string) (r3.Vec, error) {
	lines, err := dataSection(result)
	if err != nil {
		return r3.Vec{}, err
	}

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.Contains(line, "=") && strings.Contains(line, "A.D.") {
			continue
		}
		if strings.Contains(line, "X =") {
			return parseVectorLabeled(line)
		}
		if vec, err := parseVectorUnlabeled(line); err == nil {
			return vec, nil
		}
	}
	return r3.Vec{}, fmt.Errorf("could not parse vector data")
}

// parseVectorLabeled parses: X = 1.23E+00 Y = 2.34E+00 Z = 3.45E-01
func parseVectorLabeled(line string) (r3.Vec, error) {
	parts := strings.Split(line, "=")
	if len(parts) < 4 {
		return r3.Vec{}, fmt.Errorf("invalid labeled format")
	}

	var xyz [3]float64
	for i := range xyz {
		fields := strings.Fields(parts[i+1])
		if len(fields) == 0 {
			return r3.Vec{}, fmt.Errorf("missing component %d", i)
		}
		v, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return r3.Vec{}, err
		}
		xyz[i] = v
	}
	return r3.Vec{X: xyz[0], Y: xyz[1], Z: xyz[2]}, nil
}

// parseVectorUnlabeled parses: 1.23E+00  2.34E+00  3.45E-01
func parseVectorUnlabeled(line string) (r3.Vec, error) {
	fields := strings.Fields(line)
	if len(fields) < 3 {
		return r3.Vec{}, fmt.Errorf("insufficient fields: %d", len(fields))
	}

	var xyz [3]float64
	for i := range xyz {
		v, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return r3.Vec{}, err
		}
		xyz[i] = v
	}
	return r3.Vec{X: xyz[0], Y: xyz[1], Z: xyz[2]}, nil
}

// parseHorizonsDateTime parses Horizons date format like "2025-Dec-05 00:00".
func parseHorizonsDateTime(s string) (time.Time, error) {
	for _, layout := range []string{"2006-Jan-02 15:04", "2006-Jan-02 15:04:05", "2006-Jan-02 15:04:05.0000"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unable to parse date: %s", s)
}

// formatHorizonsTime formats a time for Horizons API.
func formatHorizonsTime(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04")
}

// formatStepSize formats a duration as a Horizons step size.
func formatStepSize(d time.Duration) string {
	minutes := int(d.Minutes())
	if minutes >= 60 && minutes%60 == 0 {
		return fmt.Sprintf("%d h", minutes/60)
	}
	return fmt.Sprintf("%d m", minutes)
}
