package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/litescript/ls-armillary/internal/astro"
)

// AlmanacDay is one row of a rise/set almanac.
type AlmanacDay struct {
	Date      time.Time
	Year      int
	DayOfYear int
	RiseSet   astro.RiseSet
	Local     astro.LocalTimes
	DayLength time.Duration
	SunLonDeg float64 // at local mean noon
	Phase     astro.LunarPhase
	Fallbacks []Fallback
}

// Almanac computes consecutive days starting at start (UTC date). Each day
// is evaluated at local mean noon so the longitudes and phase describe the
// daylight hours.
func (e *Engine) Almanac(ctx context.Context, start time.Time, days int, loc astro.GeoLocation, tz string) ([]AlmanacDay, error) {
	if days <= 0 {
		return nil, fmt.Errorf("almanac: day count %d must be positive", days)
	}

	noon := 720 - 4*loc.LonDeg
	first := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)

	out := make([]AlmanacDay, 0, days)
	for i := 0; i < days; i++ {
		if err := ctx.Err(); err != nil {
			return out, err
		}

		day := first.AddDate(0, 0, i)
		f, err := e.Compute(ctx, InputsAt(day.Add(time.Duration(noon*float64(time.Minute))), loc, tz))
		if err != nil {
			return out, err
		}
		// Local noon can fall on the neighbouring UTC day; the scan is for day.
		rs := f.RiseSet
		local := f.Local
		if f.Instant.Year != day.Year() || f.Instant.DayOfYear != day.YearDay() {
			entry := e.riseSet(ctx, f, f.Location, day.Year(), day.YearDay(), tz)
			rs, local = entry.RiseSet, entry.Local
		}

		out = append(out, AlmanacDay{
			Date:      day,
			Year:      day.Year(),
			DayOfYear: day.YearDay(),
			RiseSet:   rs,
			Local:     local,
			DayLength: rs.DayLength(),
			SunLonDeg: f.Sun.LonDeg,
			Phase:     f.Phase,
			Fallbacks: f.Fallbacks,
		})
	}
	return out, nil
}
