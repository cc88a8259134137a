package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/litescript/ls-armillary/internal/astro"
	"github.com/litescript/ls-armillary/internal/engine"
	"github.com/litescript/ls-armillary/internal/state"
)

func TestSkyClock(t *testing.T) {
	start := time.Date(2024, 6, 21, 12, 0, 0, 0, time.UTC)
	c := newSkyClock(start)

	now := c.Now()
	assert.False(t, now.Before(start))
	assert.Less(t, now.Sub(start), time.Minute)
	assert.Equal(t, time.UTC, now.Location())
}

func TestHasNewSkyEvent(t *testing.T) {
	t0 := time.Date(2024, 3, 20, 6, 0, 0, 0, time.UTC)
	events := []state.Event{
		{Type: state.EventFallback, Timestamp: t0},
		{Type: state.EventSunrise, Timestamp: t0.Add(time.Minute)},
		{Type: state.EventProviderChange, Timestamp: t0.Add(2 * time.Minute)},
	}

	tests := []struct {
		name  string
		since time.Time
		want  bool
	}{
		{"all new", time.Time{}, true},
		{"sunrise already seen", t0.Add(time.Minute), false},
		{"nothing new", t0.Add(2 * time.Minute), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, hasNewSkyEvent(events, tt.since))
		})
	}
}

func TestReferenceTime(t *testing.T) {
	assert.Equal(t, "-", referenceTime(time.Time{}, time.UTC))

	zone, err := time.LoadLocation("Europe/London")
	require.NoError(t, err)
	assert.Equal(t, "05:43", referenceTime(time.Date(2024, 6, 21, 4, 43, 0, 0, time.UTC), zone))
}

func TestWriteSunriseCheck(t *testing.T) {
	obs := state.Observer{Location: astro.GeoLocation{LatDeg: 51.4769, LonDeg: 0}, Timezone: "UTC"}
	days := []engine.AlmanacDay{
		{
			Date:  time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC),
			Local: astro.LocalTimes{Sunrise: "06:03", Sunset: "18:14", Zone: "UTC"},
		},
	}

	var buf bytes.Buffer
	writeSunriseCheck(&buf, days, obs)
	out := buf.String()

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[2], "2024-03-20")
	assert.Contains(t, lines[2], "06:03")

	// The closed-form times land within a few minutes of the scan.
	fields := strings.Fields(lines[2])
	require.Len(t, fields, 5)
	assert.True(t, strings.HasPrefix(fields[2], "06:0"), "reference sunrise %s", fields[2])
	assert.True(t, strings.HasPrefix(fields[4], "18:1"), "reference sunset %s", fields[4])
}
