// Package feed pushes computed frames to external consumers over a
// websocket hub and an MQTT broker.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/litescript/ls-armillary/internal/astro"
	"github.com/litescript/ls-armillary/internal/engine"
)

// Publisher receives every computed frame.
type Publisher interface {
	Publish(ctx context.Context, f *engine.Frame) error
	Close() error
}

// Message is the JSON envelope sent for each frame.
type Message struct {
	Type      string        `json:"type"`
	Session   string        `json:"session,omitempty"`
	Seq       uint64        `json:"seq"`
	SentAt    time.Time     `json:"sent_at"`
	Frame     *engine.Frame `json:"frame"`
	Summary   Summary       `json:"summary"`
	Fallbacks int           `json:"fallbacks"`
}

// Summary is the small retained state: the angles and luminaries by sign.
type Summary struct {
	JD        float64 `json:"jd"`
	ASC       string  `json:"asc"`
	MC        string  `json:"mc"`
	Sun       string  `json:"sun"`
	Moon      string  `json:"moon"`
	SunAltDeg float64 `json:"sun_alt"`
	Phase     string  `json:"phase"`
	Twilight  string  `json:"twilight"`
}

// Summarize extracts the Summary of a frame.
func Summarize(f *engine.Frame) Summary {
	return Summary{
		JD:        f.JulianDate,
		ASC:       astro.ToZodiacString(f.Angles.ASC),
		MC:        astro.ToZodiacString(f.Angles.MC),
		Sun:       f.Sun.Zodiac,
		Moon:      f.Moon.Zodiac,
		SunAltDeg: f.Sun.AltDeg,
		Phase:     f.Phase.Name,
		Twilight:  f.Twilight,
	}
}

// Encoder numbers and serializes frames for one session.
type Encoder struct {
	session string
	seq     atomic.Uint64
}

// NewEncoder creates an encoder tagging messages with session.
func NewEncoder(session string) *Encoder {
	return &Encoder{session: session}
}

// Encode wraps f in the next Message and marshals it.
func (e *Encoder) Encode(f *engine.Frame) ([]byte, error) {
	if f == nil {
		return nil, fmt.Errorf("encode frame: nil frame")
	}
	msg := Message{
		Type:      "frame",
		Session:   e.session,
		Seq:       e.seq.Add(1),
		SentAt:    time.Now().UTC(),
		Frame:     f,
		Summary:   Summarize(f),
		Fallbacks: len(f.Fallbacks),
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	return data, nil
}

// Multi fans a frame out to several publishers. Every publisher is tried;
// the first error is returned.
type Multi []Publisher

// Publish implements Publisher.
func (m Multi) Publish(ctx context.Context, f *engine.Frame) error {
	var first error
	for _, p := range m {
		if err := p.Publish(ctx, f); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Close implements Publisher.
func (m Multi) Close() error {
	var first error
	for _, p := range m {
		if err := p.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
