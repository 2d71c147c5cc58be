package main

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

var (
	ErrRoomNotFound  = errors.New("room not found")
	ErrRoomFull      = errors.New("room full")
	ErrBadPassphrase = errors.New("bad passphrase")
	ErrSeatTaken     = errors.New("seat already connected")
	ErrTooManyRooms  = errors.New("too many open rooms")
)

// Room pairs the peers of one match. Frames from one member go to every
// other member.
type Room struct {
	Code      string
	CreatedAt time.Time

	rowID      int64
	passHash   []byte
	reserved   []bool
	members    []*Client
	lastActive time.Time
	frames     int64
	bytes      int64
}

func (r *Room) connected() int {
	n := 0
	for _, m := range r.members {
		if m != nil {
			n++
		}
	}
	return n
}

func (r *Room) freeSeat() int {
	for i, taken := range r.reserved {
		if !taken {
			return i
		}
	}
	return -1
}

// RoomManager handles creation, lookup and teardown of rooms
type RoomManager struct {
	mu    sync.Mutex
	rooms map[string]*Room

	db         *DB
	analytics  *Analytics
	maxRooms   int
	maxMembers int
	now        func() time.Time
}

// NewRoomManager creates a RoomManager. db and analytics may be nil.
func NewRoomManager(cfg Config, db *DB, analytics *Analytics) *RoomManager {
	return &RoomManager{
		rooms:      make(map[string]*Room),
		db:         db,
		analytics:  analytics,
		maxRooms:   cfg.MaxRooms,
		maxMembers: cfg.MaxMembers,
		now:        time.Now,
	}
}

// Create opens a room and reserves seat 0 for its creator
func (rm *RoomManager) Create(passHash []byte) (*Room, error) {
	now := rm.now()
	rm.mu.Lock()
	if len(rm.rooms) >= rm.maxRooms {
		rm.mu.Unlock()
		return nil, ErrTooManyRooms
	}
	code := GenerateRoomCode()
	for rm.rooms[code] != nil {
		code = GenerateRoomCode()
	}
	room := &Room{
		Code:       code,
		CreatedAt:  now,
		passHash:   passHash,
		reserved:   make([]bool, rm.maxMembers),
		members:    make([]*Client, rm.maxMembers),
		lastActive: now,
	}
	room.reserved[0] = true
	rm.rooms[code] = room
	rm.mu.Unlock()

	if rm.db != nil {
		id, err := rm.db.RecordRoomOpen(code, passHash != nil, now)
		if err != nil {
			log.Error().Err(err).Str("room", code).Msg("recording room open")
		}
		rm.mu.Lock()
		room.rowID = id
		rm.mu.Unlock()
	}
	rm.track(EvtRoomOpen, code, "")
	log.Info().Str("room", code).Bool("locked", passHash != nil).Msg("room opened")
	return room, nil
}

// Reserve checks the passphrase and hands out the next free seat
func (rm *RoomManager) Reserve(code string, check func(hash []byte) error) (int, error) {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	room := rm.rooms[code]
	if room == nil {
		return 0, ErrRoomNotFound
	}
	if err := check(room.passHash); err != nil {
		return 0, err
	}
	seat := room.freeSeat()
	if seat < 0 {
		return 0, ErrRoomFull
	}
	room.reserved[seat] = true
	room.lastActive = rm.now()
	return seat, nil
}

// Attach seats a connected client in its room
func (rm *RoomManager) Attach(code string, seat int, c *Client) error {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	room := rm.rooms[code]
	if room == nil {
		return ErrRoomNotFound
	}
	if seat < 0 || seat >= len(room.members) {
		return ErrRoomFull
	}
	if room.members[seat] != nil {
		return ErrSeatTaken
	}
	room.reserved[seat] = true
	room.members[seat] = c
	room.lastActive = rm.now()
	c.room = room
	c.seat = seat
	rm.track(EvtPeerJoin, code, c.id)
	log.Info().Str("room", code).Int("seat", seat).Str("peer", c.id).Msg("peer joined")
	return nil
}

// Relay forwards one frame from c to every other member of its room
func (rm *RoomManager) Relay(c *Client, frame []byte) {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	room := c.room
	if room == nil || rm.rooms[room.Code] != room {
		return
	}
	room.frames++
	room.bytes += int64(len(frame))
	room.lastActive = rm.now()
	for _, m := range room.members {
		if m != nil && m != c {
			m.SendRaw(frame)
		}
	}
}

// Leave frees c's seat. The room closes when its last member leaves.
func (rm *RoomManager) Leave(c *Client) {
	rm.mu.Lock()
	room := c.room
	if room == nil || rm.rooms[room.Code] != room || room.members[c.seat] != c {
		rm.mu.Unlock()
		return
	}
	room.members[c.seat] = nil
	room.reserved[c.seat] = false
	room.lastActive = rm.now()
	c.room = nil
	empty := room.connected() == 0
	if empty {
		delete(rm.rooms, room.Code)
	}
	rm.mu.Unlock()

	rm.track(EvtPeerLeave, room.Code, c.id)
	log.Info().Str("room", room.Code).Str("peer", c.id).Msg("peer left")
	if empty {
		rm.closed(room)
	}
}

// Reap closes rooms nobody has connected to for idle
func (rm *RoomManager) Reap(idle time.Duration) int {
	now := rm.now()
	var stale []*Room
	rm.mu.Lock()
	for code, room := range rm.rooms {
		if room.connected() == 0 && now.Sub(room.lastActive) > idle {
			delete(rm.rooms, code)
			stale = append(stale, room)
		}
	}
	rm.mu.Unlock()

	for _, room := range stale {
		rm.closed(room)
	}
	return len(stale)
}

// closed records a room already removed from the registry
func (rm *RoomManager) closed(room *Room) {
	if rm.db != nil && room.rowID != 0 {
		if err := rm.db.RecordRoomClose(room.rowID, room.frames, room.bytes, rm.now()); err != nil {
			log.Error().Err(err).Str("room", room.Code).Msg("recording room close")
		}
	}
	rm.track(EvtRoomClose, room.Code, "")
	log.Info().Str("room", room.Code).Int64("frames", room.frames).Int64("bytes", room.bytes).Msg("room closed")
}

func (rm *RoomManager) track(evt, code, peer string) {
	if rm.analytics != nil {
		rm.analytics.Track(evt, code, peer)
	}
}

// Exists reports whether a room is open
func (rm *RoomManager) Exists(code string) bool {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	return rm.rooms[code] != nil
}

// Counts returns the open rooms and connected peers
func (rm *RoomManager) Counts() (rooms, peers int) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	for _, room := range rm.rooms {
		peers += room.connected()
	}
	return len(rm.rooms), peers
}

// List returns the open rooms, oldest first
func (rm *RoomManager) List() []RoomInfo {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	list := make([]RoomInfo, 0, len(rm.rooms))
	for _, room := range rm.rooms {
		list = append(list, RoomInfo{
			Code:    room.Code,
			Members: room.connected(),
			Locked:  room.passHash != nil,
			Created: room.CreatedAt,
		})
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Created.Equal(list[j].Created) {
			return list[i].Code < list[j].Code
		}
		return list[i].Created.Before(list[j].Created)
	})
	return list
}
