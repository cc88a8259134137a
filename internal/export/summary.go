package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/litescript/ls-armillary/internal/astro"
	"github.com/litescript/ls-armillary/internal/engine"
	"github.com/litescript/ls-armillary/internal/state"
)

const ruleWidth = 72

// BodyRow represents one row in the bodies table.
type BodyRow struct {
	Name     string
	Glyph    string
	LonDeg   float64
	Zodiac   string
	AltDeg   float64
	AzDeg    float64
	Source   string
	Fallback bool
	Visible  bool
}

// GenerateBodyRows lists the Sun, Moon and every available planet.
func GenerateBodyRows(f *engine.Frame) []BodyRow {
	if f == nil {
		return nil
	}

	bodies := append([]engine.BodyPosition{f.Sun, f.Moon}, f.Planets...)
	rows := make([]BodyRow, 0, len(bodies))
	for _, b := range bodies {
		if !b.Available {
			continue
		}
		rows = append(rows, BodyRow{
			Name:     b.Name,
			Glyph:    b.Glyph,
			LonDeg:   b.LonDeg,
			Zodiac:   b.Zodiac,
			AltDeg:   b.AltDeg,
			AzDeg:    b.AzDeg,
			Source:   b.Source,
			Fallback: b.Fallback,
			Visible:  b.AltDeg > 0,
		})
	}
	return rows
}

// WriteSummaryTable writes a text table of the frame to w.
func WriteSummaryTable(w io.Writer, f *engine.Frame, timestamp time.Time) {
	fmt.Fprintf(w, "Armillary @ %s\n", timestamp.Format(time.RFC3339))
	fmt.Fprintln(w, strings.Repeat("─", ruleWidth))

	if f == nil {
		fmt.Fprintln(w, "No frame computed")
		return
	}

	in := f.Instant
	fmt.Fprintf(w, "Sky time  %s UTC, %s day of %d\n",
		f.Time().Format("2006-01-02 15:04"), humanize.Ordinal(in.DayOfYear), in.Year)
	fmt.Fprintf(w, "Observer  %s", formatLocation(f.Location))
	if f.Clamped {
		fmt.Fprint(w, " (latitude clamped)")
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "JD %.5f   LST %s   ε %.5f°\n",
		f.JulianDate, formatHours(f.LSTDeg), astro.RadToDeg(f.ObliquityRad))
	fmt.Fprintln(w, strings.Repeat("─", ruleWidth))

	// Angles
	fmt.Fprintf(w, "%-6s %10s  %-22s\n", "Angle", "Lon", "Zodiac")
	for _, name := range engine.AngleNames {
		deg := angleDeg(f.Angles, name)
		fmt.Fprintf(w, "%-6s %9.4f°  %-22s\n", name, deg, f.AngleZodiac[name])
	}
	fmt.Fprintln(w, strings.Repeat("─", ruleWidth))

	// Bodies
	rows := GenerateBodyRows(f)
	fmt.Fprintf(w, "%-9s %10s  %-22s %7s %7s  %-8s\n", "Body", "Lon", "Zodiac", "Alt", "Az", "Source")
	for _, r := range rows {
		src := truncateStr(r.Source, 8)
		if r.Fallback {
			src = "fallback"
		}
		fmt.Fprintf(w, "%-9s %9.4f°  %-22s %6.1f° %6.1f°  %-8s\n",
			truncateStr(r.Name, 9), r.LonDeg, r.Zodiac, r.AltDeg, r.AzDeg, src)
	}
	fmt.Fprintln(w, strings.Repeat("─", ruleWidth))

	fmt.Fprintf(w, "Moon      %s, %d%% lit (elongation %.1f°)\n",
		f.Phase.Name, f.Phase.Illumination, f.Phase.Elongation)
	fmt.Fprintf(w, "Sun       %s, %s\n", f.Twilight, f.DayCondition)
	zone := f.Local.Zone
	if f.ZoneApproximated {
		zone += " (approx.)"
	}
	fmt.Fprintf(w, "Rise/Set  ↑ %s  ↓ %s  transit %s  [%s]\n",
		f.Local.Sunrise, f.Local.Sunset, f.Local.Transit, zone)
	if d := f.RiseSet.DayLength(); d > 0 {
		fmt.Fprintf(w, "Daylight  %s\n", formatDuration(d))
	}

	if len(f.Fallbacks) > 0 {
		fmt.Fprintln(w, strings.Repeat("─", ruleWidth))
		for _, fb := range f.Fallbacks {
			fmt.Fprintf(w, "fallback  %-14s %9.4f°  %s\n", fb.Quantity, fb.Value, fb.Reason)
		}
	}

	fmt.Fprintf(w, "\nProvider: %s, %d bodies\n", f.Provider, len(rows))
}

// WriteEvents writes the event log, newest last, with relative timestamps.
func WriteEvents(w io.Writer, events []state.Event, now time.Time) {
	if len(events) == 0 {
		fmt.Fprintln(w, "No events")
		return
	}
	for _, e := range events {
		when := humanize.RelTime(e.Timestamp, now, "ago", "from now")
		line := fmt.Sprintf("%-15s %-8s", e.Type, e.Body)
		switch {
		case e.OldValue != "" && e.NewValue != "":
			line += fmt.Sprintf(" %s → %s", e.OldValue, e.NewValue)
		case e.NewValue != "":
			line += " " + e.NewValue
		}
		if e.Detail != "" {
			line += " (" + e.Detail + ")"
		}
		fmt.Fprintf(w, "%s  [%s]\n", line, when)
	}
}

func angleDeg(a astro.Angles, name string) float64 {
	switch name {
	case "MC":
		return a.MC
	case "IC":
		return a.IC
	case "ASC":
		return a.ASC
	case "DSC":
		return a.DSC
	case "VTX":
		return a.VTX
	case "AVX":
		return a.AVX
	}
	return 0
}

func formatLocation(g astro.GeoLocation) string {
	ns, ew := "N", "E"
	lat, lon := g.LatDeg, g.LonDeg
	if lat < 0 {
		ns, lat = "S", -lat
	}
	if lon < 0 {
		ew, lon = "W", -lon
	}
	return fmt.Sprintf("%.4f°%s %.4f°%s", lat, ns, lon, ew)
}

// formatHours renders degrees of right ascension as HHhMMmSSs.
func formatHours(deg float64) string {
	total := int(astro.NormalizeDegrees(deg)/15*3600 + 0.5)
	return fmt.Sprintf("%02dh%02dm%02ds", (total/3600)%24, (total/60)%60, total%60)
}

func formatDuration(d time.Duration) string {
	m := int(d.Round(time.Minute).Minutes())
	return fmt.Sprintf("%dh%02dm", m/60, m%60)
}

func truncateStr(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-2] + ".."
}
