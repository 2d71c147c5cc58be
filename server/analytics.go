package main

import (
	"database/sql"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Relay event types
const (
	EvtRoomOpen  = "room_open"
	EvtPeerJoin  = "peer_join"
	EvtPeerLeave = "peer_leave"
	EvtRoomClose = "room_close"
)

const (
	analyticsQueue    = 1024
	analyticsBatch    = 50
	analyticsInterval = 5 * time.Second
)

// AnalyticsEvent represents a single trackable event
type AnalyticsEvent struct {
	Type      string
	RoomCode  string
	PeerID    string
	Timestamp time.Time
}

// Analytics records relay events with batched background writes
type Analytics struct {
	db     *DB
	events chan AnalyticsEvent
	stop   chan struct{}
	wg     sync.WaitGroup

	mu    sync.RWMutex
	peers int
	rooms int
}

// NewAnalytics creates and starts the background writer. A nil db drops
// every event but still tracks live counts.
func NewAnalytics(db *DB) *Analytics {
	a := &Analytics{
		db:     db,
		events: make(chan AnalyticsEvent, analyticsQueue),
		stop:   make(chan struct{}),
	}
	a.wg.Add(1)
	go a.writer()
	return a
}

// Track enqueues an event without blocking
func (a *Analytics) Track(evtType, roomCode, peerID string) {
	select {
	case a.events <- AnalyticsEvent{
		Type:      evtType,
		RoomCode:  roomCode,
		PeerID:    peerID,
		Timestamp: time.Now().UTC(),
	}:
	default:
		log.Warn().Str("event", evtType).Msg("analytics queue full, dropping event")
	}
}

// SetLive updates the live peer and room counts
func (a *Analytics) SetLive(peers, rooms int) {
	a.mu.Lock()
	a.peers, a.rooms = peers, rooms
	a.mu.Unlock()
}

// Live returns the live peer and room counts
func (a *Analytics) Live() (int, int) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.peers, a.rooms
}

// Stop drains the queue and waits for the last flush
func (a *Analytics) Stop() {
	close(a.stop)
	a.wg.Wait()
}

func (a *Analytics) writer() {
	defer a.wg.Done()

	batch := make([]AnalyticsEvent, 0, analyticsBatch)
	ticker := time.NewTicker(analyticsInterval)
	defer ticker.Stop()

	for {
		select {
		case evt := <-a.events:
			batch = append(batch, evt)
			if len(batch) >= analyticsBatch {
				a.flush(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				a.flush(batch)
				batch = batch[:0]
			}
		case <-a.stop:
			for {
				select {
				case evt := <-a.events:
					batch = append(batch, evt)
				default:
					a.flush(batch)
					return
				}
			}
		}
	}
}

func (a *Analytics) flush(events []AnalyticsEvent) {
	if a.db == nil || len(events) == 0 {
		return
	}
	tx, err := a.db.conn.Begin()
	if err != nil {
		log.Error().Err(err).Msg("analytics: begin tx")
		return
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO analytics_events (event_type, room_code, peer_id, created_at) VALUES (?, ?, ?, ?)`)
	if err != nil {
		log.Error().Err(err).Msg("analytics: prepare")
		return
	}
	defer stmt.Close()

	for _, evt := range events {
		room := sql.NullString{String: evt.RoomCode, Valid: evt.RoomCode != ""}
		peer := sql.NullString{String: evt.PeerID, Valid: evt.PeerID != ""}
		if _, err := stmt.Exec(evt.Type, room, peer, evt.Timestamp.Format(time.RFC3339)); err != nil {
			log.Error().Err(err).Str("event", evt.Type).Msg("analytics: insert")
		}
	}
	if err := tx.Commit(); err != nil {
		log.Error().Err(err).Int("events", len(events)).Msg("analytics: commit")
	}
}

// EventCounts returns counts of each event type for the last N days
func (a *Analytics) EventCounts(days int) (map[string]int, error) {
	if a.db == nil {
		return nil, nil
	}
	rows, err := a.db.conn.Query(`
		SELECT event_type, COUNT(*) FROM analytics_events
		WHERE created_at >= date('now', '-' || ? || ' days')
		GROUP BY event_type
	`, days)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string]int)
	for rows.Next() {
		var evtType string
		var count int
		if err := rows.Scan(&evtType, &count); err != nil {
			return nil, err
		}
		result[evtType] = count
	}
	return result, rows.Err()
}
