// Package store persists rise/set scans and computed frames in SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/litescript/ls-armillary/internal/engine"
)

// ErrNotFound is returned when no row matches a lookup.
var ErrNotFound = errors.New("not found")

// Almanac wraps a SQLite connection. It implements engine.RiseSetStore and
// is safe for concurrent use.
type Almanac struct {
	conn *sqlx.DB
}

var _ engine.RiseSetStore = (*Almanac)(nil)

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*Almanac, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// SQLite serializes writers; one connection avoids SQLITE_BUSY.
	conn.SetMaxOpenConns(1)

	a := &Almanac{conn: conn}
	if err := a.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return a, nil
}

// Close closes the database connection.
func (a *Almanac) Close() error {
	return a.conn.Close()
}

func (a *Almanac) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS rise_set (
		year INTEGER NOT NULL,
		day INTEGER NOT NULL,
		lat REAL NOT NULL,
		lon REAL NOT NULL,
		tz TEXT NOT NULL,
		condition TEXT NOT NULL,
		day_minutes INTEGER NOT NULL,
		entry_json TEXT NOT NULL,
		saved_at INTEGER NOT NULL,
		PRIMARY KEY (year, day, lat, lon, tz)
	);

	CREATE TABLE IF NOT EXISTS frames (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		jd REAL NOT NULL,
		provider TEXT NOT NULL,
		fallbacks INTEGER NOT NULL,
		frame_json TEXT NOT NULL,
		saved_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_frames_session ON frames(session_id);
	`
	_, err := a.conn.Exec(schema)
	return err
}

type riseSetRow struct {
	EntryJSON string `db:"entry_json"`
}

// LoadRiseSet implements engine.RiseSetStore.
func (a *Almanac) LoadRiseSet(ctx context.Context, key engine.RiseSetKey) (engine.RiseSetEntry, error) {
	var row riseSetRow
	err := a.conn.GetContext(ctx, &row,
		"SELECT entry_json FROM rise_set WHERE year = ? AND day = ? AND lat = ? AND lon = ? AND tz = ?",
		key.Year, key.Day, key.Lat, key.Lon, key.TZ,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return engine.RiseSetEntry{}, fmt.Errorf("rise/set %d-%03d: %w", key.Year, key.Day, ErrNotFound)
	}
	if err != nil {
		return engine.RiseSetEntry{}, fmt.Errorf("load rise/set: %w", err)
	}

	var entry engine.RiseSetEntry
	if err := json.Unmarshal([]byte(row.EntryJSON), &entry); err != nil {
		return engine.RiseSetEntry{}, fmt.Errorf("decode rise/set: %w", err)
	}
	return entry, nil
}

// SaveRiseSet implements engine.RiseSetStore. An existing row for key is
// replaced.
func (a *Almanac) SaveRiseSet(ctx context.Context, key engine.RiseSetKey, entry engine.RiseSetEntry) error {
	entryJSON, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode rise/set: %w", err)
	}

	_, err = a.conn.ExecContext(ctx,
		`INSERT OR REPLACE INTO rise_set
		(year, day, lat, lon, tz, condition, day_minutes, entry_json, saved_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		key.Year, key.Day, key.Lat, key.Lon, key.TZ,
		entry.RiseSet.Condition.String(),
		int(entry.RiseSet.DayLength().Minutes()),
		string(entryJSON),
		time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("save rise/set: %w", err)
	}
	return nil
}

// RiseSetCount returns the number of stored scans.
func (a *Almanac) RiseSetCount(ctx context.Context) (int, error) {
	var n int
	err := a.conn.GetContext(ctx, &n, "SELECT COUNT(*) FROM rise_set")
	return n, err
}

// FrameRecord is one logged frame.
type FrameRecord struct {
	ID        int64   `db:"id"`
	SessionID string  `db:"session_id"`
	JD        float64 `db:"jd"`
	Provider  string  `db:"provider"`
	Fallbacks int     `db:"fallbacks"`
	FrameJSON string  `db:"frame_json"`
	SavedAt   int64   `db:"saved_at"`
}

// Frame decodes the stored frame.
func (r FrameRecord) Frame() (*engine.Frame, error) {
	var f engine.Frame
	if err := json.Unmarshal([]byte(r.FrameJSON), &f); err != nil {
		return nil, fmt.Errorf("decode frame %d: %w", r.ID, err)
	}
	return &f, nil
}

// SaveFrame appends a frame to the session log.
func (a *Almanac) SaveFrame(ctx context.Context, sessionID string, f *engine.Frame) error {
	frameJSON, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}

	_, err = a.conn.ExecContext(ctx,
		`INSERT INTO frames (session_id, jd, provider, fallbacks, frame_json, saved_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		sessionID, f.JulianDate, f.Provider, len(f.Fallbacks), string(frameJSON), time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("save frame: %w", err)
	}
	return nil
}

// RecentFrames returns the most recent frames of a session, newest first.
func (a *Almanac) RecentFrames(ctx context.Context, sessionID string, limit int) ([]FrameRecord, error) {
	var records []FrameRecord
	err := a.conn.SelectContext(ctx, &records,
		"SELECT id, session_id, jd, provider, fallbacks, frame_json, saved_at FROM frames WHERE session_id = ? ORDER BY id DESC LIMIT ?",
		sessionID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("recent frames: %w", err)
	}
	return records, nil
}
