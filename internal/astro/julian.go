// Package astro provides astronomical coordinate transformations and sky math.
package astro

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/soniakeys/meeus/v3/julian"
)

// MinutesPerDay is the length of a UTC day in minutes.
const MinutesPerDay = 1440

// J2000 is the Julian Date of the J2000.0 epoch (2000-01-01 12:00 UTC).
const J2000 = 2451545.0

// unixEpochJD is the Julian Date of 1970-01-01 00:00 UTC.
const unixEpochJD = 2440587.5

const msPerDay = 86400000.0

// Errors for caller-supplied instants and locations.
var (
	ErrInvalidDayOfYear = errors.New("day of year out of range for year")
	ErrInvalidMinutes   = errors.New("minutes since midnight not finite")
	ErrInvalidLocation  = errors.New("geographic location out of range")
)

// Instant is a moment in time expressed the way the scene layer supplies it:
// a year, a 1-based day of that year and minutes since UTC midnight.
type Instant struct {
	Year       int     `json:"year"`
	DayOfYear  int     `json:"dayOfYear"`  // 1..365 (366 in leap years)
	MinutesUTC float64 `json:"minutesUTC"` // 0 <= m < 1440
}

// NewInstant builds a validated Instant. Minutes wrap at 1440 onto the same
// day; a day of year outside the year's range or non-finite minutes are
// rejected.
func NewInstant(year, dayOfYear int, minutesUTC float64) (Instant, error) {
	if dayOfYear < 1 || dayOfYear > DaysInYear(year) {
		return Instant{}, fmt.Errorf("%w: day %d of %d", ErrInvalidDayOfYear, dayOfYear, year)
	}
	if math.IsNaN(minutesUTC) || math.IsInf(minutesUTC, 0) {
		return Instant{}, fmt.Errorf("%w: %v", ErrInvalidMinutes, minutesUTC)
	}
	m := math.Mod(minutesUTC, MinutesPerDay)
	if m < 0 {
		m += MinutesPerDay
	}
	return Instant{Year: year, DayOfYear: dayOfYear, MinutesUTC: m}, nil
}

// InstantFromTime converts a wall-clock time to an Instant in UTC.
func InstantFromTime(t time.Time) Instant {
	t = t.UTC()
	midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return Instant{
		Year:       t.Year(),
		DayOfYear:  t.YearDay(),
		MinutesUTC: t.Sub(midnight).Minutes(),
	}
}

// IsLeapYear reports whether y is a leap year in the proleptic Gregorian calendar.
func IsLeapYear(y int) bool {
	return julian.LeapYearGregorian(y)
}

// DaysInYear returns 366 for leap years and 365 otherwise.
func DaysInYear(y int) int {
	if IsLeapYear(y) {
		return 366
	}
	return 365
}

// CalendarDate converts a day of year to a calendar month and day.
func CalendarDate(year, dayOfYear int) (time.Month, int) {
	m, d := julian.DayOfYearToCalendar(dayOfYear, IsLeapYear(year))
	return time.Month(m), d
}

// Time returns the UTC wall-clock time of the instant. Days past the end of the
// year roll into the next year, matching time.Date normalization.
func (in Instant) Time() time.Time {
	midnight := time.Date(in.Year, time.January, in.DayOfYear, 0, 0, 0, 0, time.UTC)
	return midnight.Add(time.Duration(in.MinutesUTC * float64(time.Minute)))
}

// JulianDate returns the Julian Date of the instant using the Unix-epoch
// affine transform JD = unixMillis/86400000 + 2440587.5.
func JulianDate(in Instant) float64 {
	return float64(in.Time().UnixMilli())/msPerDay + unixEpochJD
}

// DayStartJD returns the Julian Date of 00:00 UTC on the instant's day.
func DayStartJD(year, dayOfYear int) float64 {
	return JulianDate(Instant{Year: year, DayOfYear: dayOfYear})
}

// JulianCenturies returns Julian centuries since J2000.0.
func JulianCenturies(jd float64) float64 {
	return (jd - J2000) / 36525.0
}
