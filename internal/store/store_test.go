package store

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/litescript/ls-armillary/internal/astro"
	"github.com/litescript/ls-armillary/internal/engine"
	"github.com/litescript/ls-armillary/internal/ephem"
)

var newYork = astro.GeoLocation{LatDeg: 40.7128, LonDeg: -74.006}

func openTemp(t *testing.T) *Almanac {
	t.Helper()
	a, err := Open(filepath.Join(t.TempDir(), "almanac.db"))
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	return a
}

func sampleEntry() engine.RiseSetEntry {
	rs := astro.RiseSet{
		Year:        2024,
		DayOfYear:   80,
		LonDeg:      newYork.LonDeg,
		Sunrise:     astro.Event{Kind: astro.EventTime, MinuteUTC: 658},
		Sunset:      astro.Event{Kind: astro.EventTime, MinuteUTC: 1386},
		Transit:     astro.Event{Kind: astro.EventTime, MinuteUTC: 1022},
		Condition:   astro.ConditionNormal,
		MaxAltitude: 49.5,
	}
	return engine.RiseSetEntry{
		RiseSet: rs,
		Local:   astro.LocalTimes{Sunrise: "06:58", Sunset: "19:06", Transit: "13:02", Zone: "America/New_York"},
		Trace:   []astro.AltitudeSample{{MinuteUTC: 0, AltDeg: -40}, {MinuteUTC: 10, AltDeg: -41}},
	}
}

func TestAlmanac_RiseSetRoundTrip(t *testing.T) {
	ctx := context.Background()
	a := openTemp(t)
	key := engine.NewRiseSetKey(2024, 80, newYork, "America/New_York")

	_, err := a.LoadRiseSet(ctx, key)
	assert.ErrorIs(t, err, ErrNotFound)

	want := sampleEntry()
	require.NoError(t, a.SaveRiseSet(ctx, key, want))

	got, err := a.LoadRiseSet(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	// Same day, different zone is a different row.
	_, err = a.LoadRiseSet(ctx, engine.NewRiseSetKey(2024, 80, newYork, "UTC"))
	assert.ErrorIs(t, err, ErrNotFound)

	// Saving again replaces.
	want.Approximated = true
	require.NoError(t, a.SaveRiseSet(ctx, key, want))
	got, err = a.LoadRiseSet(ctx, key)
	require.NoError(t, err)
	assert.True(t, got.Approximated)

	n, err := a.RiseSetCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestAlmanac_PersistsAcrossOpen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "almanac.db")
	key := engine.NewRiseSetKey(2024, 80, newYork, "America/New_York")

	a, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, a.SaveRiseSet(ctx, key, sampleEntry()))
	require.NoError(t, a.Close())

	b, err := Open(path)
	require.NoError(t, err)
	defer b.Close()

	got, err := b.LoadRiseSet(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, 658, got.RiseSet.Sunrise.MinuteUTC)
}

func TestAlmanac_BacksEngine(t *testing.T) {
	ctx := context.Background()
	a := openTemp(t)
	in := engine.Inputs{Year: 2024, DayOfYear: 80, MinutesUTC: 720, Location: newYork, Timezone: "UTC"}

	first, err := engine.New(engine.Options{Store: a}).Compute(ctx, in)
	require.NoError(t, err)

	n, err := a.RiseSetCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// A fresh engine reads the stored scan back.
	second, err := engine.New(engine.Options{Store: a}).Compute(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, first.Local, second.Local)
	assert.Equal(t, first.RiseSet, second.RiseSet)
}

// solsticeSun puts the Sun at 270° whatever the date; down fails every lookup.
type solsticeSun struct{ down bool }

func (solsticeSun) Name() string { return "solstice" }
func (solsticeSun) Available(ephem.Body) bool { return true }
func (p solsticeSun) Longitude(_ context.Context, body ephem.Body, _ float64) (ephem.Longitude, error) {
	if p.down {
		return ephem.Longitude{}, fmt.Errorf("%w: %s offline", ephem.ErrUnavailable, body)
	}
	return ephem.Longitude{Body: body, Rad: astro.DegToRad(270), Source: "solstice"}, nil
}

func TestAlmanac_SkipsFallbackScans(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "almanac.db")
	in := engine.Inputs{Year: 2024, DayOfYear: 80, MinutesUTC: 720, Location: newYork, Timezone: "UTC"}

	a, err := Open(path)
	require.NoError(t, err)
	degraded, err := engine.New(engine.Options{Provider: solsticeSun{down: true}, Store: a}).Compute(ctx, in)
	require.NoError(t, err)
	require.True(t, degraded.UsedFallback())

	n, err := a.RiseSetCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "a scan on the mean Sun is not persisted")
	require.NoError(t, a.Close())

	b, err := Open(path)
	require.NoError(t, err)
	defer b.Close()

	healthy, err := engine.New(engine.Options{Provider: solsticeSun{}, Store: b}).Compute(ctx, in)
	require.NoError(t, err)
	want, err := engine.New(engine.Options{Provider: solsticeSun{}}).Compute(ctx, in)
	require.NoError(t, err)

	assert.Equal(t, want.RiseSet, healthy.RiseSet)
	assert.NotEqual(t, degraded.RiseSet.Sunrise, healthy.RiseSet.Sunrise)

	n, err = b.RiseSetCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestAlmanac_Frames(t *testing.T) {
	ctx := context.Background()
	a := openTemp(t)
	eng := engine.New(engine.Options{})

	for m := 0; m < 3; m++ {
		f, err := eng.Compute(ctx, engine.Inputs{Year: 2024, DayOfYear: 1, MinutesUTC: float64(m * 60), Location: newYork})
		require.NoError(t, err)
		require.NoError(t, a.SaveFrame(ctx, "session-a", f))
	}
	f, err := eng.Compute(ctx, engine.Inputs{Year: 2024, DayOfYear: 2, Location: newYork})
	require.NoError(t, err)
	require.NoError(t, a.SaveFrame(ctx, "session-b", f))

	records, err := a.RecentFrames(ctx, "session-a", 2)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Greater(t, records[0].JD, records[1].JD, "newest first")
	assert.Equal(t, "Mean", records[0].Provider)

	decoded, err := records[0].Frame()
	require.NoError(t, err)
	assert.InDelta(t, records[0].JD, decoded.JulianDate, 1e-9)
	assert.Equal(t, "Sun", decoded.Sun.Name)

	none, err := a.RecentFrames(ctx, "missing", 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestAlmanac_ConcurrentSave(t *testing.T) {
	ctx := context.Background()
	a := openTemp(t)

	var wg sync.WaitGroup
	for d := 1; d <= 8; d++ {
		wg.Add(1)
		go func(day int) {
			defer wg.Done()
			key := engine.NewRiseSetKey(2024, day, newYork, "UTC")
			assert.NoError(t, a.SaveRiseSet(ctx, key, sampleEntry()))
		}(d)
	}
	wg.Wait()

	n, err := a.RiseSetCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 8, n)
}
