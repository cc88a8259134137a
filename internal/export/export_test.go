package export

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/litescript/ls-armillary/internal/astro"
	"github.com/litescript/ls-armillary/internal/engine"
	"github.com/litescript/ls-armillary/internal/ephem"
	"github.com/litescript/ls-armillary/internal/state"
)

var greenwich = astro.GeoLocation{LatDeg: 51.4769, LonDeg: 0}

// meanFrame computes a frame with the data-free mean provider.
func meanFrame(t *testing.T, day int, minutes float64) *engine.Frame {
	t.Helper()
	eng := engine.New(engine.Options{})
	f, err := eng.Compute(context.Background(), engine.Inputs{
		Year: 2024, DayOfYear: day, MinutesUTC: minutes, Location: greenwich, Timezone: "UTC",
	})
	require.NoError(t, err)
	return f
}

func TestExportSnapshot(t *testing.T) {
	f := meanFrame(t, 1, 0)
	generated := time.Date(2024, 1, 1, 0, 0, 5, 0, time.UTC)

	snap := state.Snapshot{
		SessionID:       "abc",
		Observer:        state.Observer{Location: greenwich, Timezone: "Europe/London"},
		Frame:           f,
		ComputeDuration: 1500 * time.Microsecond,
		Events:          []state.Event{{Type: state.EventSunrise, Body: "Sun"}},
	}
	export := ExportSnapshot(snap, generated)

	assert.Equal(t, generated, export.GeneratedAt)
	assert.Equal(t, "abc", export.SessionID)
	assert.Equal(t, "Europe/London", export.Timezone)
	assert.InDelta(t, 1.5, export.ComputeMillis, 1e-9)
	assert.Same(t, f, export.Frame)
	assert.Len(t, export.Events, 1)
	assert.Empty(t, export.Error)
	assert.False(t, export.FallbacksActive)
}

func TestExportSnapshot_Error(t *testing.T) {
	export := ExportSnapshot(state.Snapshot{LastError: errors.New("compute failed")}, time.Now())

	assert.Nil(t, export.Frame)
	assert.Equal(t, "compute failed", export.Error)
}

func TestSnapshotExport_WriteJSON(t *testing.T) {
	export := ExportFrame(meanFrame(t, 1, 0), time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	var buf bytes.Buffer
	require.NoError(t, export.WriteJSON(&buf))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))

	frame, ok := decoded["frame"].(map[string]any)
	require.True(t, ok, "frame should be an object")
	assert.InDelta(t, 2460310.5, frame["julianDate"], 1e-6)
	assert.Equal(t, "Mean", frame["provider"])

	sun := frame["sun"].(map[string]any)
	assert.Equal(t, "10°00' Capricorn", sun["zodiac"])

	rs := frame["riseSet"].(map[string]any)
	assert.Equal(t, "UTC", rs["zone"])
}

func TestWriteSummaryTable(t *testing.T) {
	f := meanFrame(t, 1, 0)

	var buf bytes.Buffer
	WriteSummaryTable(&buf, f, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	out := buf.String()

	for _, want := range []string{
		"Armillary @ 2024-01-01T00:00:00Z",
		"1st day of 2024",
		"51.4769°N 0.0000°E",
		"10°00' Capricorn",
		"ASC",
		"AVX",
		"Provider: Mean, 2 bodies",
	} {
		assert.Contains(t, out, want)
	}
}

func TestWriteSummaryTable_Nil(t *testing.T) {
	var buf bytes.Buffer
	WriteSummaryTable(&buf, nil, time.Now())
	assert.Contains(t, buf.String(), "No frame computed")
}

func TestWriteSummaryTable_Fallbacks(t *testing.T) {
	f := meanFrame(t, 1, 0)
	f.Fallbacks = []engine.Fallback{{Quantity: "sun", Value: 280, Reason: "ephemeris unavailable"}}
	f.Sun.Fallback = true

	var buf bytes.Buffer
	WriteSummaryTable(&buf, f, time.Now())
	out := buf.String()

	assert.Contains(t, out, "fallback  sun")
	assert.Contains(t, out, "ephemeris unavailable")
}

func TestGenerateBodyRows(t *testing.T) {
	f := meanFrame(t, 100, 720)
	f.Planets = []engine.BodyPosition{
		{Name: "Mars", Available: false},
		{Name: "Venus", Available: true, AltDeg: 12, LonDeg: 10},
	}

	rows := GenerateBodyRows(f)
	require.Len(t, rows, 3)
	assert.Equal(t, "Sun", rows[0].Name)
	assert.Equal(t, "Moon", rows[1].Name)
	assert.Equal(t, "Venus", rows[2].Name)
	assert.True(t, rows[2].Visible)

	assert.Nil(t, GenerateBodyRows(nil))
}

func TestWriteEvents(t *testing.T) {
	now := time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC)
	events := []state.Event{
		{Type: state.EventPhaseChange, Timestamp: now.Add(-2 * time.Minute), Body: "Moon", OldValue: "Full Moon", NewValue: "Waning Gibbous"},
		{Type: state.EventFallback, Timestamp: now.Add(-time.Hour), Body: "sun", NewValue: "280.0000°", Detail: "down"},
	}

	var buf bytes.Buffer
	WriteEvents(&buf, events, now)
	out := buf.String()

	assert.Contains(t, out, "Full Moon → Waning Gibbous")
	assert.Contains(t, out, "2 minutes ago")
	assert.Contains(t, out, "280.0000° (down)")
	assert.Contains(t, out, "1 hour ago")

	buf.Reset()
	WriteEvents(&buf, nil, now)
	assert.Equal(t, "No events\n", buf.String())
}

func TestFormatHours(t *testing.T) {
	tests := []struct {
		deg  float64
		want string
	}{
		{0, "00h00m00s"},
		{15, "01h00m00s"},
		{280.46061837, "18h41m51s"},
		{-15, "23h00m00s"},
	}
	for _, tt := range tests {
		if got := formatHours(tt.deg); got != tt.want {
			t.Errorf("formatHours(%v) = %q, want %q", tt.deg, got, tt.want)
		}
	}
}

func TestTruncateStr(t *testing.T) {
	tests := []struct {
		s      string
		maxLen int
		want   string
	}{
		{"Sun", 9, "Sun"},
		{"Analytic→Horizons", 8, "Analyt.."},
		{"Jupiter", 3, "Jup"},
	}
	for _, tt := range tests {
		if got := truncateStr(tt.s, tt.maxLen); got != tt.want {
			t.Errorf("truncateStr(%q, %d) = %q, want %q", tt.s, tt.maxLen, got, tt.want)
		}
	}
}

func almanacFixture() []engine.AlmanacDay {
	base := time.Date(2024, 3, 18, 0, 0, 0, 0, time.UTC)
	lengths := []int{720, 600, 660}
	days := make([]engine.AlmanacDay, len(lengths))
	for i, m := range lengths {
		days[i] = engine.AlmanacDay{
			Date:      base.AddDate(0, 0, i),
			Year:      2024,
			DayOfYear: 78 + i,
			Local:     astro.LocalTimes{Sunrise: "06:00", Sunset: "18:00", Transit: "12:00", Zone: "UTC"},
			DayLength: time.Duration(m) * time.Minute,
			SunLonDeg: 357.5 + float64(i),
			Phase:     astro.LunarPhase{Name: "Waxing Gibbous", Illumination: 70},
		}
	}
	return days
}

func TestSummarizeAlmanac(t *testing.T) {
	s := SummarizeAlmanac(almanacFixture())

	assert.Equal(t, 3, s.Days)
	assert.Equal(t, 600*time.Minute, s.Min)
	assert.Equal(t, 720*time.Minute, s.Max)
	assert.InDelta(t, 660, s.Mean.Minutes(), 1e-6)
	assert.InDelta(t, 60, s.StdDev.Minutes(), 1e-6)
	assert.Equal(t, 19, s.Shortest.Day())
	assert.Equal(t, 18, s.Longest.Day())
	assert.Zero(t, s.Polar)

	assert.Equal(t, AlmanacStats{}, SummarizeAlmanac(nil))
}

func TestWriteAlmanacCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteAlmanacCSV(&buf, almanacFixture()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "date,day_of_year,sunrise,sunset"), lines[0])

	var rows []*AlmanacRow
	require.NoError(t, gocsv.UnmarshalString(buf.String(), &rows))
	require.Len(t, rows, 3)
	assert.Equal(t, "2024-03-19", rows[1].Date)
	assert.Equal(t, 600, rows[1].DayMinutes)
	assert.Equal(t, "normal", rows[1].Condition)
	assert.InDelta(t, 358.5, rows[1].SunLongitude, 1e-9)
}

func TestWriteAlmanacTable(t *testing.T) {
	var buf bytes.Buffer
	WriteAlmanacTable(&buf, almanacFixture())
	out := buf.String()

	assert.Contains(t, out, "2024-03-18")
	assert.Contains(t, out, "shortest 10h00m (Mar 19)")
	assert.Contains(t, out, "Mean daylight 11h00m ± 1h00m")

	buf.Reset()
	WriteAlmanacTable(&buf, nil)
	assert.Contains(t, buf.String(), "No days")
}

func TestSampleLongitudes_RoundTrip(t *testing.T) {
	ctx := context.Background()
	start := astro.DayStartJD(2024, 1)

	rows, err := SampleLongitudes(ctx, ephem.MeanProvider{}, []ephem.Body{ephem.Sun, ephem.Mars, ephem.Moon}, start, start+2, 1)
	require.NoError(t, err)
	require.Len(t, rows, 6, "Mars is skipped, 3 samples each for Sun and Moon")
	assert.Equal(t, "Sun", rows[0].Body)
	assert.InDelta(t, 280, rows[0].Longitude, 1e-6)

	var buf bytes.Buffer
	require.NoError(t, WriteLongitudeCSV(&buf, rows))

	table, err := ephem.LoadTable(&buf, "Sampled")
	require.NoError(t, err)
	assert.True(t, table.Available(ephem.Sun))
	assert.False(t, table.Available(ephem.Mars))

	lon, err := table.Longitude(ctx, ephem.Moon, rows[3].JD)
	require.NoError(t, err)
	assert.InDelta(t, rows[3].Longitude, lon.Deg(), 1e-6)
}

func TestSampleLongitudes_Errors(t *testing.T) {
	ctx := context.Background()
	bodies := []ephem.Body{ephem.Sun}

	_, err := SampleLongitudes(ctx, ephem.MeanProvider{}, bodies, 0, 1, 0)
	assert.Error(t, err)

	_, err = SampleLongitudes(ctx, ephem.MeanProvider{}, bodies, 10, 1, 1)
	assert.Error(t, err)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = SampleLongitudes(cancelled, ephem.MeanProvider{}, bodies, 0, 1, 1)
	assert.ErrorIs(t, err, context.Canceled)
}
