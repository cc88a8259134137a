package state

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/litescript/ls-armillary/internal/astro"
	"github.com/litescript/ls-armillary/internal/engine"
)

var greenwich = astro.GeoLocation{LatDeg: 51.4769, LonDeg: 0}

// testFrame builds a frame at minute m of 2024 day 80 with the given Sun
// altitude and longitudes.
func testFrame(m int, sunAlt, sunLon, moonLon float64) *engine.Frame {
	return &engine.Frame{
		Instant:  astro.Instant{Year: 2024, DayOfYear: 80, MinutesUTC: float64(m)},
		Location: greenwich,
		Provider: "Meeus",
		Sun:      engine.BodyPosition{Name: "Sun", Available: true, AltDeg: sunAlt, LonDeg: sunLon},
		Moon:     engine.BodyPosition{Name: "Moon", Available: true, AltDeg: 10, LonDeg: moonLon},
		Phase:    astro.PhaseOf(astro.DegToRad(sunLon), astro.DegToRad(moonLon)),
	}
}

func TestNewManager(t *testing.T) {
	cfg := DefaultConfig()
	m := NewManager(cfg)

	if m == nil {
		t.Fatal("NewManager returned nil")
	}

	if m.RefreshInterval() != cfg.RefreshInterval {
		t.Errorf("RefreshInterval = %v, want %v", m.RefreshInterval(), cfg.RefreshInterval)
	}

	if m.HasData() {
		t.Error("HasData should be false initially")
	}

	if _, err := uuid.Parse(m.SessionID()); err != nil {
		t.Errorf("SessionID %q is not a UUID: %v", m.SessionID(), err)
	}
	if NewManager(cfg).SessionID() == m.SessionID() {
		t.Error("session ids should differ between managers")
	}
}

func TestManager_Update(t *testing.T) {
	m := NewManager(DefaultConfig())

	frame := testFrame(600, 30, 0, 90)
	m.Update(frame, 100*time.Millisecond, nil)

	if !m.HasData() {
		t.Error("HasData should be true after Update")
	}

	snap := m.Snapshot()

	if snap.Frame != frame {
		t.Error("Snapshot Frame doesn't match")
	}

	if snap.ComputeDuration != 100*time.Millisecond {
		t.Errorf("ComputeDuration = %v, want 100ms", snap.ComputeDuration)
	}

	if snap.LastError != nil {
		t.Errorf("LastError = %v, want nil", snap.LastError)
	}
}

func TestManager_UpdateWithError(t *testing.T) {
	m := NewManager(DefaultConfig())

	testErr := &testError{msg: "compute failed"}
	m.Update(nil, 50*time.Millisecond, testErr)

	snap := m.Snapshot()

	if snap.Frame != nil {
		t.Error("Frame should be nil on error")
	}

	if snap.LastError != testErr {
		t.Errorf("LastError = %v, want %v", snap.LastError, testErr)
	}
}

func TestManager_HistoryBuffer(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxHistoryLen = 3
	m := NewManager(cfg)

	for i := 0; i < 5; i++ {
		m.Update(testFrame(600+i, 30, 0, 90), 0, nil)
	}

	// History should only have last 3 entries
	m.mu.RLock()
	histLen := len(m.history)
	m.mu.RUnlock()

	if histLen != 3 {
		t.Errorf("history length = %d, want 3", histLen)
	}
}

func TestManager_BodyHistory(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxBodyHistory = 5
	m := NewManager(cfg)

	for i := 0; i < 10; i++ {
		m.Update(testFrame(600+i, float64(20+i), 0, 90), 0, nil)
	}

	hist := m.GetBodyHistory("Sun")
	if hist == nil {
		t.Fatal("GetBodyHistory returned nil")
	}

	// Should only have last 5 entries
	if len(hist.AltitudeHistory) != 5 {
		t.Errorf("AltitudeHistory length = %d, want 5", len(hist.AltitudeHistory))
	}

	if hist.AltitudeHistory[0].Value != 25 {
		t.Errorf("First altitude = %v, want 25", hist.AltitudeHistory[0].Value)
	}

	if m.GetBodyHistory("Mars") != nil {
		t.Error("unavailable bodies should have no history")
	}
}

func TestManager_AltitudeRate(t *testing.T) {
	m := NewManager(DefaultConfig())

	m.Update(testFrame(600, 30, 0, 90), 0, nil)
	if r := m.AltitudeRate("Sun"); r != 0 {
		t.Errorf("rate with single point = %v, want 0", r)
	}

	// Ten minutes later the Sun is 2° higher: 12°/h.
	m.Update(testFrame(610, 32, 0, 90), 0, nil)
	if r := m.AltitudeRate("Sun"); r < 11.99 || r > 12.01 {
		t.Errorf("rate = %v, want 12", r)
	}
}

func TestManager_ConcurrentAccess(t *testing.T) {
	m := NewManager(DefaultConfig())

	var wg sync.WaitGroup
	iterations := 100

	// Writer goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < iterations; i++ {
			m.Update(testFrame(i, float64(i%20-10), float64(i), float64(i*13)), time.Duration(i)*time.Millisecond, nil)
		}
	}()

	// Reader goroutines
	for r := 0; r < 5; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < iterations; i++ {
				_ = m.Snapshot()
				_ = m.HasData()
				_ = m.RefreshInterval()
				_ = m.GetBodyHistory("Sun")
				_ = m.AltitudeRate("Moon")
				_ = m.RecentEvents(5)
			}
		}()
	}

	wg.Wait()
}

func TestManager_SetRefreshInterval(t *testing.T) {
	m := NewManager(DefaultConfig())

	newInterval := 30 * time.Second
	m.SetRefreshInterval(newInterval)

	if m.RefreshInterval() != newInterval {
		t.Errorf("RefreshInterval = %v, want %v", m.RefreshInterval(), newInterval)
	}
}

type testError struct {
	msg string
}

func (e *testError) Error() string {
	return e.msg
}

func findEvent(events []Event, typ EventType) *Event {
	for i := range events {
		if events[i].Type == typ {
			return &events[i]
		}
	}
	return nil
}

func TestManager_EventDetection_Fallback(t *testing.T) {
	m := NewManager(DefaultConfig())

	frame := testFrame(600, 30, 0, 90)
	frame.Fallbacks = []engine.Fallback{{Quantity: "sun", Value: 280, Reason: "ephemeris unavailable"}}
	m.Update(frame, 0, nil)

	fb := findEvent(m.RecentEvents(10), EventFallback)
	if fb == nil {
		t.Fatal("no FALLBACK event found")
	}
	if fb.Body != "sun" {
		t.Errorf("body = %q, want sun", fb.Body)
	}
	if fb.NewValue != "280.0000°" {
		t.Errorf("value = %q", fb.NewValue)
	}
}

func TestManager_EventDetection_SunriseSunset(t *testing.T) {
	m := NewManager(DefaultConfig())

	m.Update(testFrame(360, -2, 0, 90), 0, nil)
	m.Update(testFrame(370, 0.5, 0, 90), 0, nil)
	m.Update(testFrame(1100, -5, 0, 90), 0, nil)

	events := m.RecentEvents(10)
	if findEvent(events, EventSunrise) == nil {
		t.Error("no SUNRISE event found")
	}
	if findEvent(events, EventSunset) == nil {
		t.Error("no SUNSET event found")
	}
}

func TestManager_EventDetection_MovedObserverNoSunrise(t *testing.T) {
	m := NewManager(DefaultConfig())

	m.Update(testFrame(360, -2, 0, 90), 0, nil)
	moved := testFrame(361, 20, 0, 90)
	moved.Location = astro.GeoLocation{LatDeg: 0, LonDeg: 90}
	m.Update(moved, 0, nil)

	if findEvent(m.RecentEvents(10), EventSunrise) != nil {
		t.Error("sunrise reported across a location change")
	}
}

func TestManager_EventDetection_PhaseAndIngress(t *testing.T) {
	m := NewManager(DefaultConfig())

	// Moon 170° from the Sun (Full Moon starts at 157.5°) then 205°.
	m.Update(testFrame(0, -30, 29.9, 199.9), 0, nil)
	m.Update(testFrame(60, -30, 30.1, 235.1), 0, nil)

	events := m.RecentEvents(10)

	phase := findEvent(events, EventPhaseChange)
	if phase == nil {
		t.Fatal("no PHASE_CHANGE event found")
	}
	if phase.OldValue != "Full Moon" || phase.NewValue != "Waning Gibbous" {
		t.Errorf("phase change %q -> %q", phase.OldValue, phase.NewValue)
	}

	var sunIngress *Event
	for i := range events {
		if events[i].Type == EventSignIngress && events[i].Body == "Sun" {
			sunIngress = &events[i]
		}
	}
	if sunIngress == nil {
		t.Fatal("no SIGN_INGRESS event for the Sun")
	}
	if sunIngress.OldValue != "Aries" || sunIngress.NewValue != "Taurus" {
		t.Errorf("ingress %q -> %q, want Aries -> Taurus", sunIngress.OldValue, sunIngress.NewValue)
	}
}

func TestManager_EventDetection_ProviderChange(t *testing.T) {
	m := NewManager(DefaultConfig())

	m.Update(testFrame(0, -30, 0, 90), 0, nil)
	next := testFrame(1, -30, 0, 90)
	next.Provider = "Mean"
	m.Update(next, 0, nil)

	ev := findEvent(m.RecentEvents(10), EventProviderChange)
	if ev == nil {
		t.Fatal("no PROVIDER_CHANGE event found")
	}
	if ev.OldValue != "Meeus" || ev.NewValue != "Mean" {
		t.Errorf("provider change %q -> %q", ev.OldValue, ev.NewValue)
	}
}

func TestManager_SetObserver(t *testing.T) {
	m := NewManager(DefaultConfig())

	obs := Observer{Location: greenwich, Timezone: "Europe/London"}
	m.SetObserver(obs)
	m.SetObserver(obs) // unchanged, no second event

	if got := m.Observer(); got != obs {
		t.Errorf("Observer = %+v, want %+v", got, obs)
	}

	events := m.RecentEvents(10)
	if len(events) != 1 || events[0].Type != EventObserverChange {
		t.Fatalf("events = %+v, want one OBSERVER_CHANGE", events)
	}
	if events[0].NewValue != "51.4769,0.0000 Europe/London" {
		t.Errorf("NewValue = %q", events[0].NewValue)
	}
}

func TestManager_EventRingBuffer(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxEvents = 3
	m := NewManager(cfg)

	for i := 0; i < 5; i++ {
		f := testFrame(i, -30, 0, 90)
		f.Fallbacks = []engine.Fallback{{Quantity: string(rune('a' + i))}}
		m.Update(f, 0, nil)
	}

	events := m.Snapshot().Events
	if len(events) != 3 {
		t.Fatalf("events = %d, want 3", len(events))
	}
	for i, want := range []string{"c", "d", "e"} {
		if events[i].Body != want {
			t.Errorf("events[%d].Body = %q, want %q", i, events[i].Body, want)
		}
	}
}
