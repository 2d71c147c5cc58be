package main

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

// DB wraps the SQLite database connection
type DB struct {
	conn *sql.DB
}

// RoomRow is one recorded room
type RoomRow struct {
	Code      string
	Locked    bool
	CreatedAt time.Time
	ClosedAt  sql.NullTime
	Frames    int64
	Bytes     int64
}

// TrafficTotals sums every recorded room
type TrafficTotals struct {
	Rooms  int64 `json:"rooms"`
	Frames int64 `json:"frames"`
	Bytes  int64 `json:"bytes"`
}

// OpenDB opens (or creates) the SQLite database
func OpenDB(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// one writer; the analytics flusher and request handlers share it
	conn.SetMaxOpenConns(1)

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enabling WAL: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS rooms (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		code TEXT NOT NULL,
		locked INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL,
		closed_at DATETIME,
		frames INTEGER NOT NULL DEFAULT 0,
		bytes INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS analytics_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		event_type TEXT NOT NULL,
		room_code TEXT,
		peer_id TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_rooms_code ON rooms(code);
	CREATE INDEX IF NOT EXISTS idx_events_type ON analytics_events(event_type);
	`
	if _, err := db.conn.Exec(schema); err != nil {
		log.Error().Err(err).Msg("db migration failed")
		return fmt.Errorf("migrating: %w", err)
	}
	return nil
}

// GetSetting returns a stored setting, or "" when unset
func (db *DB) GetSetting(key string) string {
	var value string
	err := db.conn.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if err != nil {
		return ""
	}
	return value
}

// SetSetting stores a setting
func (db *DB) SetSetting(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	return err
}

// RecordRoomOpen inserts an open room and returns its row id
func (db *DB) RecordRoomOpen(code string, locked bool, at time.Time) (int64, error) {
	res, err := db.conn.Exec(
		"INSERT INTO rooms (code, locked, created_at) VALUES (?, ?, ?)",
		code, locked, at.UTC(),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// RecordRoomClose stamps a room closed with its traffic counters
func (db *DB) RecordRoomClose(id int64, frames, bytes int64, at time.Time) error {
	_, err := db.conn.Exec(
		"UPDATE rooms SET closed_at = ?, frames = ?, bytes = ? WHERE id = ?",
		at.UTC(), frames, bytes, id,
	)
	return err
}

// GetRoom returns a recorded room by row id
func (db *DB) GetRoom(id int64) (*RoomRow, error) {
	r := &RoomRow{}
	err := db.conn.QueryRow(
		"SELECT code, locked, created_at, closed_at, frames, bytes FROM rooms WHERE id = ?", id,
	).Scan(&r.Code, &r.Locked, &r.CreatedAt, &r.ClosedAt, &r.Frames, &r.Bytes)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return r, err
}

// Totals sums the counters of every recorded room
func (db *DB) Totals() (TrafficTotals, error) {
	var t TrafficTotals
	err := db.conn.QueryRow(
		"SELECT COUNT(*), COALESCE(SUM(frames), 0), COALESCE(SUM(bytes), 0) FROM rooms",
	).Scan(&t.Rooms, &t.Frames, &t.Bytes)
	return t, err
}
