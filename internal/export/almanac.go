package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/stat"

	"github.com/litescript/ls-armillary/internal/astro"
	"github.com/litescript/ls-armillary/internal/engine"
)

// AlmanacRow is one CSV row of an almanac.
type AlmanacRow struct {
	Date         string  `csv:"date"`
	DayOfYear    int     `csv:"day_of_year"`
	Sunrise      string  `csv:"sunrise"`
	Sunset       string  `csv:"sunset"`
	Transit      string  `csv:"transit"`
	Zone         string  `csv:"zone"`
	Condition    string  `csv:"condition"`
	DayMinutes   int     `csv:"day_minutes"`
	MaxAltitude  float64 `csv:"max_altitude"`
	SunLongitude float64 `csv:"sun_longitude"`
	Phase        string  `csv:"moon_phase"`
	Illumination int     `csv:"moon_illumination"`
	Fallbacks    int     `csv:"fallbacks"`
}

// AlmanacRows flattens almanac days into CSV rows.
func AlmanacRows(days []engine.AlmanacDay) []*AlmanacRow {
	rows := make([]*AlmanacRow, 0, len(days))
	for _, d := range days {
		rows = append(rows, &AlmanacRow{
			Date:         d.Date.Format("2006-01-02"),
			DayOfYear:    d.DayOfYear,
			Sunrise:      d.Local.Sunrise,
			Sunset:       d.Local.Sunset,
			Transit:      d.Local.Transit,
			Zone:         d.Local.Zone,
			Condition:    d.RiseSet.Condition.String(),
			DayMinutes:   int(d.DayLength.Minutes()),
			MaxAltitude:  scalar.Round(d.RiseSet.MaxAltitude, 3),
			SunLongitude: scalar.Round(d.SunLonDeg, 4),
			Phase:        d.Phase.Name,
			Illumination: d.Phase.Illumination,
			Fallbacks:    len(d.Fallbacks),
		})
	}
	return rows
}

// WriteAlmanacCSV writes the almanac as CSV with a header row.
func WriteAlmanacCSV(w io.Writer, days []engine.AlmanacDay) error {
	if err := gocsv.Marshal(AlmanacRows(days), w); err != nil {
		return fmt.Errorf("write almanac csv: %w", err)
	}
	return nil
}

// AlmanacStats summarizes day lengths over an almanac.
type AlmanacStats struct {
	Days     int
	Min      time.Duration
	Max      time.Duration
	Mean     time.Duration
	StdDev   time.Duration
	Shortest time.Time
	Longest  time.Time
	Polar    int // days in polar day or night
}

// SummarizeAlmanac computes day-length statistics. Polar days are counted
// but included with their 24h or 0 length.
func SummarizeAlmanac(days []engine.AlmanacDay) AlmanacStats {
	s := AlmanacStats{Days: len(days)}
	if len(days) == 0 {
		return s
	}

	minutes := make([]float64, len(days))
	for i, d := range days {
		minutes[i] = d.DayLength.Minutes()
		if d.RiseSet.Condition != astro.ConditionNormal {
			s.Polar++
		}
	}

	mean, std := stat.MeanStdDev(minutes, nil)
	if len(minutes) < 2 {
		std = 0
	}
	s.Min = asMinutes(floats.Min(minutes))
	s.Max = asMinutes(floats.Max(minutes))
	s.Mean = asMinutes(mean)
	s.StdDev = asMinutes(std)
	s.Shortest = days[floats.MinIdx(minutes)].Date
	s.Longest = days[floats.MaxIdx(minutes)].Date
	return s
}

// WriteAlmanacTable writes the almanac as a text table followed by its
// statistics.
func WriteAlmanacTable(w io.Writer, days []engine.AlmanacDay) {
	fmt.Fprintf(w, "%-10s %-4s %-11s %-11s %-11s %-8s %-16s\n",
		"Date", "Day", "Sunrise", "Sunset", "Transit", "Length", "Moon")
	fmt.Fprintln(w, strings.Repeat("─", ruleWidth))

	if len(days) == 0 {
		fmt.Fprintln(w, "No days")
		return
	}

	for _, d := range days {
		fmt.Fprintf(w, "%-10s %-4d %-11s %-11s %-11s %-8s %-16s\n",
			d.Date.Format("2006-01-02"), d.DayOfYear,
			d.Local.Sunrise, d.Local.Sunset, d.Local.Transit,
			formatDuration(d.DayLength), truncateStr(d.Phase.Name, 16))
	}

	s := SummarizeAlmanac(days)
	fmt.Fprintln(w, strings.Repeat("─", ruleWidth))
	fmt.Fprintf(w, "Days: %d  shortest %s (%s)  longest %s (%s)\n",
		s.Days, formatDuration(s.Min), s.Shortest.Format("Jan 2"),
		formatDuration(s.Max), s.Longest.Format("Jan 2"))
	fmt.Fprintf(w, "Mean daylight %s ± %s", formatDuration(s.Mean), formatDuration(s.StdDev))
	if s.Polar > 0 {
		fmt.Fprintf(w, ", %d polar", s.Polar)
	}
	fmt.Fprintln(w)
}

func asMinutes(m float64) time.Duration {
	return time.Duration(m * float64(time.Minute))
}
