package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/nathan-osman/go-sunrise"

	"github.com/litescript/ls-armillary/internal/astro"
	"github.com/litescript/ls-armillary/internal/engine"
	"github.com/litescript/ls-armillary/internal/ephem"
	"github.com/litescript/ls-armillary/internal/export"
	"github.com/litescript/ls-armillary/internal/state"
)

// runHeadless handles all headless modes without starting TUI.
func runHeadless(ctx context.Context, c *computer, isTTY bool) {
	var lastSeen time.Time

	outputOnce := func() error {
		if _, err := c.compute(ctx); err != nil {
			return err
		}
		snap := c.state.Snapshot()

		// Export JSON if requested
		if snapshotPath != "" {
			if err := writeSnapshot(snap); err != nil {
				return err
			}
		}

		// Print summary table if requested
		if summaryMode {
			export.WriteSummaryTable(os.Stdout, snap.Frame, snap.LastCompute)
		}

		// Events log
		if eventsMode {
			fmt.Println()
			events := snap.Events
			if len(events) > 10 {
				events = events[len(events)-10:]
			}
			export.WriteEvents(os.Stdout, events, time.Now())
		}

		// Beep on events recorded since the last output
		if beepMode && isTTY && hasNewSkyEvent(snap.Events, lastSeen) {
			fmt.Print("\a")
		}
		if n := len(snap.Events); n > 0 {
			lastSeen = snap.Events[n-1].Timestamp
		}
		return nil
	}

	// Single run
	if watchInterval == 0 {
		if err := outputOnce(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// Watch mode: repeat at interval
	if err := outputOnce(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}

	ticker := time.NewTicker(watchInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fmt.Println()
			if err := outputOnce(); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			}
		}
	}
}

// hasNewSkyEvent reports whether a sunrise, sunset, phase change or sign
// ingress was recorded after since.
func hasNewSkyEvent(events []state.Event, since time.Time) bool {
	for _, e := range events {
		if !e.Timestamp.After(since) {
			continue
		}
		switch e.Type {
		case state.EventSunrise, state.EventSunset, state.EventPhaseChange, state.EventSignIngress:
			return true
		}
	}
	return false
}

func writeSnapshot(snap state.Snapshot) error {
	exp := export.ExportSnapshot(snap, time.Now())
	return writeTo(snapshotPath, "snapshot", exp.WriteJSON)
}

// writeTo runs write against path, or stdout when path is "-".
func writeTo(path, what string, write func(io.Writer) error) error {
	if path == "-" {
		if err := write(os.Stdout); err != nil {
			return fmt.Errorf("write %s to stdout: %w", what, err)
		}
		return nil
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s file: %w", what, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s to file: %w", what, err)
	}
	return f.Close()
}

// runRange writes the multi-day outputs: almanac table, almanac CSV and the
// longitude dump.
func runRange(ctx context.Context, eng *engine.Engine, obs state.Observer, start time.Time) error {
	if almanacDays <= 0 {
		return fmt.Errorf("-days %d must be positive", almanacDays)
	}

	if almanacMode || tablePath != "" {
		days, err := eng.Almanac(ctx, start, almanacDays, obs.Location, obs.Timezone)
		if err != nil {
			return err
		}
		if almanacMode {
			export.WriteAlmanacTable(os.Stdout, days)
			if checkMode {
				fmt.Println()
				writeSunriseCheck(os.Stdout, days, obs)
			}
		}
		if tablePath != "" {
			err := writeTo(tablePath, "almanac", func(w io.Writer) error {
				return export.WriteAlmanacCSV(w, days)
			})
			if err != nil {
				return err
			}
		}
	}

	if longitudePath != "" {
		startJD := astro.JulianDate(astro.InstantFromTime(start))
		bodies := append([]ephem.Body{ephem.Sun, ephem.Moon}, ephem.Planets()...)
		rows, err := export.SampleLongitudes(ctx, eng.Provider(), bodies, startJD, startJD+float64(almanacDays-1), 1)
		if err != nil {
			return err
		}
		return writeTo(longitudePath, "longitudes", func(w io.Writer) error {
			return export.WriteLongitudeCSV(w, rows)
		})
	}
	return nil
}

// writeSunriseCheck sets the scanned sunrise and sunset beside the
// closed-form hour-angle solution for each almanac day.
func writeSunriseCheck(w io.Writer, days []engine.AlmanacDay, obs state.Observer) {
	zone, err := time.LoadLocation(obs.Timezone)
	if err != nil {
		zone = time.UTC
	}

	fmt.Fprintf(w, "%-10s %-11s %-11s %-11s %-11s\n", "Date", "Sunrise", "Reference", "Sunset", "Reference")
	fmt.Fprintln(w, strings.Repeat("─", 58))
	for _, d := range days {
		rise, set := sunrise.SunriseSunset(obs.Location.LatDeg, obs.Location.LonDeg, d.Date.Year(), d.Date.Month(), d.Date.Day())
		fmt.Fprintf(w, "%-10s %-11s %-11s %-11s %-11s\n",
			d.Date.Format("2006-01-02"),
			d.Local.Sunrise, referenceTime(rise, zone),
			d.Local.Sunset, referenceTime(set, zone))
	}
}

// referenceTime formats a closed-form event; the zero time marks a polar day
// or night.
func referenceTime(t time.Time, zone *time.Location) string {
	if t.IsZero() {
		return "-"
	}
	return t.In(zone).Format("15:04")
}
