// Package state provides thread-safe state management for the application.
package state

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/litescript/ls-armillary/internal/astro"
	"github.com/litescript/ls-armillary/internal/engine"
)

// EventType represents the type of state change event.
type EventType string

const (
	EventFallback       EventType = "FALLBACK"
	EventSunrise        EventType = "SUNRISE"
	EventSunset         EventType = "SUNSET"
	EventPhaseChange    EventType = "PHASE_CHANGE"
	EventSignIngress    EventType = "SIGN_INGRESS"
	EventProviderChange EventType = "PROVIDER_CHANGE"
	EventObserverChange EventType = "OBSERVER_CHANGE"
)

// Event represents a change between consecutive frames.
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"` // wall clock
	SkyTime   time.Time `json:"sky_time"`  // frame instant
	Body      string    `json:"body,omitempty"`
	OldValue  string    `json:"old_value,omitempty"`
	NewValue  string    `json:"new_value,omitempty"`
	Detail    string    `json:"detail,omitempty"`
}

// HistoryEntry represents a single point in the history buffer.
type HistoryEntry struct {
	Timestamp time.Time
	Frame     *engine.Frame
}

// BodyHistory tracks recent sky positions of one body.
type BodyHistory struct {
	Name             string
	AltitudeHistory  []TimeSeries
	LongitudeHistory []TimeSeries
}

// TimeSeries is a single data point with timestamp.
type TimeSeries struct {
	Timestamp time.Time
	Value     float64
}

// Observer is where and in which zone the sky is computed.
type Observer struct {
	Location astro.GeoLocation
	Timezone string
}

// Manager handles all shared application state with thread-safe access.
type Manager struct {
	mu sync.RWMutex

	sessionID string
	observer  Observer

	// Current state
	current         *engine.Frame
	lastCompute     time.Time
	lastError       error
	computeDuration time.Duration

	// History buffers
	history        []HistoryEntry
	maxHistoryLen  int
	bodyHistory    map[string]*BodyHistory
	maxBodyHistory int

	// Event log (ring buffer)
	events       []Event
	maxEvents    int
	eventWriteAt int

	// Configuration
	refreshInterval time.Duration
}

// Config holds configuration for the state manager.
type Config struct {
	MaxHistoryLen   int
	MaxBodyHistory  int
	MaxEvents       int
	RefreshInterval time.Duration
	Observer        Observer
}

// DefaultConfig returns sensible default configuration.
func DefaultConfig() Config {
	return Config{
		MaxHistoryLen:   60,  // Keep ~1 hour at 1 frame/min
		MaxBodyHistory:  240, // 4 hours of per-body samples
		MaxEvents:       50,  // Last 50 events
		RefreshInterval: 5 * time.Second,
	}
}

// NewManager creates a new state manager with a fresh session id.
func NewManager(cfg Config) *Manager {
	maxEvents := cfg.MaxEvents
	if maxEvents <= 0 {
		maxEvents = 50
	}
	return &Manager{
		sessionID:       uuid.NewString(),
		observer:        cfg.Observer,
		maxHistoryLen:   cfg.MaxHistoryLen,
		maxBodyHistory:  cfg.MaxBodyHistory,
		maxEvents:       maxEvents,
		events:          make([]Event, 0, maxEvents),
		refreshInterval: cfg.RefreshInterval,
		bodyHistory:     make(map[string]*BodyHistory),
	}
}

// SessionID identifies this run in logs, exports and feeds.
func (m *Manager) SessionID() string {
	return m.sessionID
}

// Update atomically records a newly computed frame.
func (m *Manager) Update(frame *engine.Frame, computeDuration time.Duration, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.lastCompute = time.Now()
	m.lastError = err
	m.computeDuration = computeDuration

	if frame == nil {
		return
	}

	// Detect events before updating current state
	m.detectEvents(frame)

	m.current = frame

	m.history = append(m.history, HistoryEntry{Timestamp: frame.Time(), Frame: frame})
	if len(m.history) > m.maxHistoryLen {
		m.history = m.history[1:]
	}

	m.updateBodyHistory(frame)
}

// detectEvents compares a new frame with the previous one and generates events.
func (m *Manager) detectEvents(f *engine.Frame) {
	now := time.Now()
	sky := f.Time()

	for _, fb := range f.Fallbacks {
		m.addEvent(Event{
			Type:      EventFallback,
			Timestamp: now,
			SkyTime:   sky,
			Body:      fb.Quantity,
			NewValue:  fmt.Sprintf("%.4f°", fb.Value),
			Detail:    fb.Reason,
		})
	}

	prev := m.current
	if prev == nil {
		return
	}

	if prev.Provider != f.Provider {
		m.addEvent(Event{
			Type:      EventProviderChange,
			Timestamp: now,
			SkyTime:   sky,
			OldValue:  prev.Provider,
			NewValue:  f.Provider,
		})
	}

	// Day/night transitions only make sense for frames at the same place.
	if prev.Location == f.Location {
		wasUp := prev.Sun.AltDeg >= astro.HorizonAltitude
		isUp := f.Sun.AltDeg >= astro.HorizonAltitude
		switch {
		case !wasUp && isUp:
			m.addEvent(Event{Type: EventSunrise, Timestamp: now, SkyTime: sky, Body: "Sun"})
		case wasUp && !isUp:
			m.addEvent(Event{Type: EventSunset, Timestamp: now, SkyTime: sky, Body: "Sun"})
		}
	}

	if prev.Phase.Name != f.Phase.Name {
		m.addEvent(Event{
			Type:      EventPhaseChange,
			Timestamp: now,
			SkyTime:   sky,
			Body:      "Moon",
			OldValue:  prev.Phase.Name,
			NewValue:  f.Phase.Name,
		})
	}

	for _, pair := range [][2]engine.BodyPosition{{prev.Sun, f.Sun}, {prev.Moon, f.Moon}} {
		old, cur := pair[0], pair[1]
		if !old.Available || !cur.Available {
			continue
		}
		oldSign := astro.Zodiac(old.LonDeg).SignInfo().Name
		newSign := astro.Zodiac(cur.LonDeg).SignInfo().Name
		if oldSign != newSign {
			m.addEvent(Event{
				Type:      EventSignIngress,
				Timestamp: now,
				SkyTime:   sky,
				Body:      cur.Name,
				OldValue:  oldSign,
				NewValue:  newSign,
			})
		}
	}
}

// addEvent adds an event to the ring buffer.
func (m *Manager) addEvent(e Event) {
	if len(m.events) < m.maxEvents {
		m.events = append(m.events, e)
	} else {
		m.events[m.eventWriteAt] = e
		m.eventWriteAt = (m.eventWriteAt + 1) % m.maxEvents
	}
}

func (m *Manager) updateBodyHistory(f *engine.Frame) {
	ts := f.Time()
	bodies := append([]engine.BodyPosition{f.Sun, f.Moon}, f.Planets...)

	for _, b := range bodies {
		if !b.Available {
			continue
		}
		hist, ok := m.bodyHistory[b.Name]
		if !ok {
			hist = &BodyHistory{
				Name:             b.Name,
				AltitudeHistory:  make([]TimeSeries, 0, m.maxBodyHistory),
				LongitudeHistory: make([]TimeSeries, 0, m.maxBodyHistory),
			}
			m.bodyHistory[b.Name] = hist
		}

		hist.AltitudeHistory = appendBounded(hist.AltitudeHistory, TimeSeries{Timestamp: ts, Value: b.AltDeg}, m.maxBodyHistory)
		hist.LongitudeHistory = appendBounded(hist.LongitudeHistory, TimeSeries{Timestamp: ts, Value: b.LonDeg}, m.maxBodyHistory)
	}
}

func appendBounded(s []TimeSeries, p TimeSeries, limit int) []TimeSeries {
	s = append(s, p)
	if limit > 0 && len(s) > limit {
		s = s[1:]
	}
	return s
}

// Snapshot represents an immutable snapshot of current state.
type Snapshot struct {
	SessionID       string
	Observer        Observer
	Frame           *engine.Frame
	LastCompute     time.Time
	LastError       error
	ComputeDuration time.Duration
	Events          []Event
}

// Snapshot returns a consistent snapshot of current state.
func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return Snapshot{
		SessionID:       m.sessionID,
		Observer:        m.observer,
		Frame:           m.current,
		LastCompute:     m.lastCompute,
		LastError:       m.lastError,
		ComputeDuration: m.computeDuration,
		Events:          m.getEventsOrdered(),
	}
}

// getEventsOrdered returns events in chronological order.
func (m *Manager) getEventsOrdered() []Event {
	if len(m.events) == 0 {
		return nil
	}

	// If buffer isn't full yet, just copy
	if len(m.events) < m.maxEvents {
		result := make([]Event, len(m.events))
		copy(result, m.events)
		return result
	}

	// Ring buffer is full, reorder from oldest to newest
	result := make([]Event, m.maxEvents)
	for i := 0; i < m.maxEvents; i++ {
		idx := (m.eventWriteAt + i) % m.maxEvents
		result[i] = m.events[idx]
	}
	return result
}

// RecentEvents returns the last n events.
func (m *Manager) RecentEvents(n int) []Event {
	m.mu.RLock()
	defer m.mu.RUnlock()

	all := m.getEventsOrdered()
	if len(all) <= n {
		return all
	}
	return all[len(all)-n:]
}

// GetBodyHistory returns a copy of the history for a body, or nil.
func (m *Manager) GetBodyHistory(name string) *BodyHistory {
	m.mu.RLock()
	defer m.mu.RUnlock()

	hist, ok := m.bodyHistory[name]
	if !ok {
		return nil
	}

	copyHist := &BodyHistory{
		Name:             hist.Name,
		AltitudeHistory:  make([]TimeSeries, len(hist.AltitudeHistory)),
		LongitudeHistory: make([]TimeSeries, len(hist.LongitudeHistory)),
	}
	copy(copyHist.AltitudeHistory, hist.AltitudeHistory)
	copy(copyHist.LongitudeHistory, hist.LongitudeHistory)

	return copyHist
}

// AltitudeRate estimates a body's altitude change in degrees per hour of
// sky time from the last two samples.
func (m *Manager) AltitudeRate(name string) float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	hist, ok := m.bodyHistory[name]
	if !ok || len(hist.AltitudeHistory) < 2 {
		return 0
	}

	n := len(hist.AltitudeHistory)
	p1 := hist.AltitudeHistory[n-2]
	p2 := hist.AltitudeHistory[n-1]

	deltaTime := p2.Timestamp.Sub(p1.Timestamp).Hours()
	if deltaTime <= 0 {
		return 0
	}
	return (p2.Value - p1.Value) / deltaTime
}

// Observer returns the current observer.
func (m *Manager) Observer() Observer {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.observer
}

// SetObserver moves the observer and logs the change.
func (m *Manager) SetObserver(o Observer) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if o == m.observer {
		return
	}
	m.addEvent(Event{
		Type:      EventObserverChange,
		Timestamp: time.Now(),
		OldValue:  formatObserver(m.observer),
		NewValue:  formatObserver(o),
	})
	m.observer = o
}

func formatObserver(o Observer) string {
	s := fmt.Sprintf("%.4f,%.4f", o.Location.LatDeg, o.Location.LonDeg)
	if o.Timezone != "" {
		s += " " + o.Timezone
	}
	return s
}

// RefreshInterval returns the configured refresh interval.
func (m *Manager) RefreshInterval() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.refreshInterval
}

// SetRefreshInterval updates the refresh interval.
func (m *Manager) SetRefreshInterval(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refreshInterval = d
}

// HasData returns true once a frame has been recorded.
func (m *Manager) HasData() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current != nil
}
