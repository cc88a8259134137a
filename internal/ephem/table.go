package ephem

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/litescript/ls-armillary/internal/astro"
)

// Column names probed when reading a longitude table, in priority order.
// Headers are matched case-insensitively.
var (
	longitudeColumns = []string{"apparentlongitudedd", "longitude", "lon", "lambda", "obseclon"}
	jdColumns        = []string{"jd", "julian_date", "jdut"}
	timeColumns      = []string{"time", "datetime", "date", "utc"}
	bodyColumns      = []string{"body", "target", "name", "naif"}
)

// tableTimeLayouts are tried in order for the time column.
var tableTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-Jan-02 15:04",
}

// TableSample is one tabulated longitude.
type TableSample struct {
	JD     float64
	LonRad float64
}

// TableProvider serves longitudes interpolated from tabulated samples, such
// as a CSV exported from another ephemeris.
type TableProvider struct {
	name string

	mu     sync.RWMutex
	series map[Body][]TableSample // sorted by JD
}

// NewTableProvider creates an empty table provider.
func NewTableProvider(name string) *TableProvider {
	return &TableProvider{
		name:   name,
		series: make(map[Body][]TableSample),
	}
}

// LoadTableFile reads a CSV longitude table from disk.
func LoadTableFile(path string) (*TableProvider, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open longitude table: %w", err)
	}
	defer f.Close()
	return LoadTable(f, "Table")
}

// LoadTable parses a CSV longitude table. Each row needs a body column, a
// Julian Date or timestamp column and a longitude column in degrees; the
// first matching header of each kind is used.
func LoadTable(r io.Reader, name string) (*TableProvider, error) {
	rows, err := gocsv.CSVToMaps(r)
	if err != nil {
		return nil, fmt.Errorf("parse longitude table: %w", err)
	}

	series := make(map[Body][]TableSample)
	for i, row := range rows {
		row = lowerKeys(row)

		body, err := rowBody(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		jd, err := rowJD(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		lonDeg, err := probeFloat(row, longitudeColumns)
		if err != nil {
			return nil, fmt.Errorf("row %d: longitude: %w", i+2, err)
		}
		series[body] = append(series[body], TableSample{JD: jd, LonRad: astro.DegToRad(lonDeg)})
	}

	p := NewTableProvider(name)
	p.Replace(series)
	return p, nil
}

// Replace swaps in a new set of samples.
func (p *TableProvider) Replace(series map[Body][]TableSample) {
	sorted := make(map[Body][]TableSample, len(series))
	for body, samples := range series {
		s := append([]TableSample(nil), samples...)
		sort.Slice(s, func(i, j int) bool { return s[i].JD < s[j].JD })
		sorted[body] = s
	}

	p.mu.Lock()
	p.series = sorted
	p.mu.Unlock()
}

// Name implements Provider.
func (p *TableProvider) Name() string {
	return p.name
}

// Available implements Provider.
func (p *TableProvider) Available(body Body) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.series[body]) > 0
}

// Span returns the Julian Date range covered for a body.
func (p *TableProvider) Span(body Body) (start, end float64, ok bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	s := p.series[body]
	if len(s) == 0 {
		return 0, 0, false
	}
	return s[0].JD, s[len(s)-1].JD, true
}

// Longitude implements Provider. Values between samples are interpolated
// linearly along the shorter arc; times outside the table are unavailable.
func (p *TableProvider) Longitude(ctx context.Context, body Body, jd float64) (Longitude, error) {
	if err := ctx.Err(); err != nil {
		return Longitude{}, err
	}

	p.mu.RLock()
	s := p.series[body]
	p.mu.RUnlock()

	if len(s) == 0 {
		return Longitude{}, unavailable(p.name, body, "no samples")
	}

	rad, ok := interpolateSamples(s, jd)
	if !ok {
		return Longitude{}, unavailable(p.name, body, fmt.Sprintf("JD %.5f outside table", jd))
	}
	return newLongitude(body, rad, p.name)
}

// interpolateSamples interpolates a JD-sorted series linearly along the
// shorter arc. It reports false outside the series.
func interpolateSamples(s []TableSample, jd float64) (float64, bool) {
	const eps = 1e-9
	if len(s) == 0 || jd < s[0].JD-eps || jd > s[len(s)-1].JD+eps {
		return 0, false
	}

	i := sort.Search(len(s), func(i int) bool { return s[i].JD >= jd })
	switch {
	case i < len(s) && math.Abs(s[i].JD-jd) <= eps:
		return s[i].LonRad, true
	case i == 0:
		return s[0].LonRad, true
	case i == len(s):
		return s[len(s)-1].LonRad, true
	}

	a, b := s[i-1], s[i]
	frac := (jd - a.JD) / (b.JD - a.JD)
	delta := math.Remainder(b.LonRad-a.LonRad, 2*math.Pi)
	return a.LonRad + delta*frac, true
}

func lowerKeys(row map[string]string) map[string]string {
	out := make(map[string]string, len(row))
	for k, v := range row {
		out[strings.ToLower(strings.TrimSpace(k))] = strings.TrimSpace(v)
	}
	return out
}

// probeFloat returns the first parseable, finite value among the columns.
func probeFloat(row map[string]string, columns []string) (float64, error) {
	for _, c := range columns {
		v, ok := row[c]
		if !ok || v == "" {
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			continue
		}
		return f, nil
	}
	return 0, fmt.Errorf("no numeric value in columns %v", columns)
}

func rowBody(row map[string]string) (Body, error) {
	for _, c := range bodyColumns {
		v, ok := row[c]
		if !ok || v == "" {
			continue
		}
		if id, err := strconv.Atoi(v); err == nil {
			if _, known := BodiesByNAIF[Body(id)]; known {
				return Body(id), nil
			}
		}
		if b, ok := LookupBody(v); ok {
			return b, nil
		}
		return 0, fmt.Errorf("%w: %q", ErrUnknownBody, v)
	}
	return 0, fmt.Errorf("no body column")
}

func rowJD(row map[string]string) (float64, error) {
	if jd, err := probeFloat(row, jdColumns); err == nil {
		return jd, nil
	}
	for _, c := range timeColumns {
		v, ok := row[c]
		if !ok || v == "" {
			continue
		}
		for _, layout := range tableTimeLayouts {
			if t, err := time.Parse(layout, v); err == nil {
				return astro.JulianDate(astro.InstantFromTime(t)), nil
			}
		}
		return 0, fmt.Errorf("unparseable time %q", v)
	}
	return 0, fmt.Errorf("no julian date or time column")
}
