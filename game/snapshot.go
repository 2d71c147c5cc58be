package game

import (
	"encoding/base64"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Snapshot is the full world a joining or incoming peer rebuilds from
type Snapshot struct {
	Heights    []float64        `msgpack:"h"`
	Holes      []Hole           `msgpack:"o"`
	Characters []CharacterState `msgpack:"c"`
	Ammo       []Ammo           `msgpack:"a"`
}

// Snapshot captures the terrain, roster and ammo
func (s *Sim) Snapshot() Snapshot {
	chars := make([]CharacterState, len(s.chars))
	for i, c := range s.chars {
		chars[i] = c.ToState()
	}
	ammo := make([]Ammo, len(s.match.Ammo))
	copy(ammo, s.match.Ammo)
	return Snapshot{
		Heights:    s.terrain.Heights(),
		Holes:      s.terrain.Holes(),
		Characters: chars,
		Ammo:       ammo,
	}
}

// encodeSnapshot packs a snapshot into a newline-free field
func encodeSnapshot(snap Snapshot) (string, error) {
	data, err := msgpack.Marshal(&snap)
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

func decodeSnapshot(field string) (Snapshot, error) {
	var snap Snapshot
	data, err := base64.StdEncoding.DecodeString(field)
	if err != nil {
		return snap, fmt.Errorf("%w: snapshot encoding: %v", ErrMalformedFrame, err)
	}
	if err := msgpack.Unmarshal(data, &snap); err != nil {
		return snap, fmt.Errorf("%w: snapshot payload: %v", ErrMalformedFrame, err)
	}
	return snap, nil
}

// sendSnapshot queues the full world for the other peer
func (s *Sim) sendSnapshot() {
	if !s.networked() {
		return
	}
	field, err := encodeSnapshot(s.Snapshot())
	if err != nil {
		s.log.Error().Err(err).Msg("encode snapshot")
		return
	}
	s.send(MsgSnapshot, field)
}

// applySnapshot replaces the terrain, roster and ammo. In-flight bodies
// and pending work are dropped; a snapshot only arrives between turns.
func (s *Sim) applySnapshot(snap Snapshot) error {
	if len(snap.Heights) < 2 {
		return fmt.Errorf("%w: snapshot has %d height samples", ErrMalformedFrame, len(snap.Heights))
	}
	if len(snap.Characters) != s.cfg.Slots() {
		return fmt.Errorf("%w: snapshot has %d characters, want %d", ErrMalformedFrame, len(snap.Characters), s.cfg.Slots())
	}
	if len(snap.Ammo) != s.cfg.Teams {
		return fmt.Errorf("%w: snapshot has ammo for %d teams, want %d", ErrMalformedFrame, len(snap.Ammo), s.cfg.Teams)
	}

	t := NewTerrain(s.cfg, snap.Heights)
	for _, h := range snap.Holes {
		t.PunchHole(h.Center, h.Radius)
	}
	chars := make([]*Character, len(snap.Characters))
	for i, st := range snap.Characters {
		if st.Slot != i {
			return fmt.Errorf("%w: snapshot slot %d at index %d", ErrMalformedFrame, st.Slot, i)
		}
		chars[i] = characterFromState(st)
	}

	s.terrain = t
	s.chars = chars
	s.match.Ammo = snap.Ammo
	s.projectiles.clear()
	s.cancelEndTurn()
	s.log.Debug().Int("holes", t.HoleCount()).Msg("snapshot applied")
	return nil
}

// State is everything a renderer needs for one frame
type State struct {
	Match       MatchState        `json:"match"`
	Camera      CameraState       `json:"camera"`
	Characters  []CharacterState  `json:"characters"`
	Projectiles []ProjectileState `json:"projectiles"`
	Holes       int               `json:"holes"`
}

// State returns the render view of the current tick
func (s *Sim) State() State {
	chars := make([]CharacterState, 0, len(s.chars))
	for _, c := range s.chars {
		if !c.Gone {
			chars = append(chars, c.ToState())
		}
	}
	projs := make([]ProjectileState, 0, s.projectiles.len())
	for _, p := range s.projectiles.list() {
		projs = append(projs, p.ToState())
	}
	return State{
		Match:       s.MatchState(),
		Camera:      s.camera.ToState(),
		Characters:  chars,
		Projectiles: projs,
		Holes:       s.terrain.HoleCount(),
	}
}
