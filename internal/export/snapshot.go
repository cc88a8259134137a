// Package export renders frames and almanacs as JSON, CSV and text tables.
package export

import (
	"encoding/json"
	"io"
	"time"

	"github.com/litescript/ls-armillary/internal/engine"
	"github.com/litescript/ls-armillary/internal/state"
)

// SnapshotExport is the JSON-serializable representation of a session.
type SnapshotExport struct {
	GeneratedAt     time.Time     `json:"generated_at"`
	SessionID       string        `json:"session_id,omitempty"`
	Timezone        string        `json:"timezone,omitempty"`
	ComputeMillis   float64       `json:"compute_ms"`
	Frame           *engine.Frame `json:"frame"`
	Events          []state.Event `json:"events,omitempty"`
	Error           string        `json:"error,omitempty"`
	FallbacksActive bool          `json:"fallbacks_active"`
}

// ExportSnapshot converts a state snapshot to an exportable form.
func ExportSnapshot(snap state.Snapshot, generatedAt time.Time) *SnapshotExport {
	export := &SnapshotExport{
		GeneratedAt:   generatedAt,
		SessionID:     snap.SessionID,
		Timezone:      snap.Observer.Timezone,
		ComputeMillis: float64(snap.ComputeDuration) / float64(time.Millisecond),
		Frame:         snap.Frame,
		Events:        snap.Events,
	}
	if snap.LastError != nil {
		export.Error = snap.LastError.Error()
	}
	if snap.Frame != nil {
		export.FallbacksActive = snap.Frame.UsedFallback()
	}
	return export
}

// ExportFrame wraps a single frame with no session context.
func ExportFrame(f *engine.Frame, generatedAt time.Time) *SnapshotExport {
	return ExportSnapshot(state.Snapshot{Frame: f}, generatedAt)
}

// WriteJSON writes the snapshot as JSON to the given writer.
func (s *SnapshotExport) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}
