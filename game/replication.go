package game

import (
	"fmt"
	"strings"
)

//go:generate go tool mockgen -destination=./mocks/transport_mock.go -package=mocks . Transport

// Transport carries frames to the other peer
type Transport interface {
	Send(frame string) error
}

// outbox batches outbound lines by key. Only the latest line per key is
// kept until the next flush; a cached key drops a line equal to the one
// last queued for it.
type outbox struct {
	pending map[string]string
	order   []string
	sent    map[string]string
}

func newOutbox() *outbox {
	return &outbox{
		pending: make(map[string]string),
		sent:    make(map[string]string),
	}
}

func (o *outbox) queue(key, line string, cache bool) bool {
	if cache && o.sent[key] == line {
		return false
	}
	if _, ok := o.pending[key]; !ok {
		o.order = append(o.order, key)
	}
	o.pending[key] = line
	if cache {
		o.sent[key] = line
	}
	return true
}

// drain returns the pending lines newline-joined in first-queued order
func (o *outbox) drain() string {
	if len(o.order) == 0 {
		return ""
	}
	var b strings.Builder
	for i, key := range o.order {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(o.pending[key])
	}
	clear(o.pending)
	o.order = o.order[:0]
	return b.String()
}

func (o *outbox) len() int {
	return len(o.order)
}

// networked reports whether the sim talks to another peer
func (s *Sim) networked() bool {
	return s.transport != nil
}

// send queues a message keyed by its type alone
func (s *Sim) send(t MsgType, fields ...string) {
	if !s.networked() {
		return
	}
	m := Message{Type: t, Fields: fields}
	s.out.queue(t.Code(), m.Encode(), false)
}

// sendKeyed queues a message keyed by type and entity id. The id travels
// as the first field.
func (s *Sim) sendKeyed(t MsgType, id int, cache bool, fields ...string) {
	if !s.networked() {
		return
	}
	m := Message{Type: t, Fields: append([]string{fmtInt(id)}, fields...)}
	s.out.queue(t.Code()+"|"+fmtInt(id), m.Encode(), cache)
}

// flush sends everything pending as one frame. Jump flags last until the
// flush so a sync carrying one is not overwritten within the window.
func (s *Sim) flush() {
	s.flushClock = 0
	for _, c := range s.chars {
		c.Jumped = false
	}
	if !s.networked() {
		return
	}
	frame := s.out.drain()
	if frame == "" {
		return
	}
	if err := s.transport.Send(frame); err != nil {
		s.log.Warn().Err(err).Msg("send frame")
	}
}

// updateNetwork flushes the outbox once per flush interval
func (s *Sim) updateNetwork(dt float64) {
	s.flushClock += dt
	if s.flushClock >= s.cfg.FlushInterval {
		s.flush()
	}
}

// Receive applies a frame from the other peer. Bad lines are logged and
// skipped; the rest of the frame still applies.
func (s *Sim) Receive(frame string) {
	msgs, errs := ParseFrame(frame)
	for _, err := range errs {
		s.log.Warn().Err(err).Msg("dropped inbound line")
	}
	for _, m := range msgs {
		if err := s.handle(m); err != nil {
			s.log.Warn().Err(err).Str("type", m.Type.String()).Msg("dropped inbound message")
		}
	}
}

// handle replays one message through the same entry points local play uses
func (s *Sim) handle(m Message) error {
	f := m.reader()
	switch m.Type {
	case MsgJoin:
		if !s.match.Authority || s.connected {
			return nil
		}
		s.connected = true
		s.match.Started = true
		s.log.Info().Msg("peer joined")
		s.sendSnapshot()
		s.sendGameState()
		s.flush()

	case MsgSnapshot:
		snap, err := decodeSnapshot(f.text())
		if err != nil {
			return err
		}
		if err := s.applySnapshot(snap); err != nil {
			return err
		}
		s.connected = true
		s.match.Started = true

	case MsgGameState:
		team, player, weapon, wind := f.int(), f.int(), WeaponID(f.int()), f.float()
		if f.err != nil {
			return f.err
		}
		return s.applyGameState(team, player, weapon, wind)

	case MsgEndTurn:
		s.match.Authority = true
		s.log.Info().Int("team", s.match.Team).Msg("authority received")

	case MsgSyncCharacter:
		c, err := s.character(f.int())
		if err != nil {
			return err
		}
		pos, vel := f.vec(), f.vec()
		aim, dir, hp, ix, power, rot, jumped := f.float(), f.int(), f.int(), f.int(), f.float(), f.float(), f.bool()
		if f.err != nil {
			return f.err
		}
		c.Pos, c.Vel = pos, vel
		c.Aim, c.Health, c.MoveX, c.Power, c.Rotation = aim, hp, ix, power, rot
		if dir == -1 || dir == 1 {
			c.Facing = dir
		}
		if jumped {
			s.emit(Event{Kind: EventJump, Pos: c.Pos})
		}

	case MsgKill:
		c, err := s.character(f.int())
		if err != nil {
			return err
		}
		explode, immediate := f.bool(), f.bool()
		if f.err != nil {
			return f.err
		}
		s.Kill(c, explode, immediate)

	case MsgSyncMissile, MsgSyncGrenade:
		id, pos, vel := f.int(), f.vec(), f.vec()
		if f.err != nil {
			return f.err
		}
		if p := s.projectiles.get(id); p != nil {
			p.Sync(pos, vel)
		}

	case MsgRemoveMissile, MsgRemoveGrenade:
		id := f.int()
		if f.err != nil {
			return f.err
		}
		if p := s.projectiles.get(id); p != nil {
			p.Detonate(s)
		}

	case MsgBlast:
		_, center, radius := f.int(), f.vec(), f.float()
		if f.err != nil {
			return f.err
		}
		s.ApplyBlast(center, radius, 0, -1)

	case MsgFireBazooka:
		id, origin, dir, aim, power := f.int(), f.vec(), f.int(), f.float(), f.float()
		if f.err != nil {
			return f.err
		}
		s.replayFire(func() { s.fireBazooka(id, origin, dir, aim, power) })

	case MsgFireShotgun, MsgFireUzi, MsgFireMinigun:
		id, origin, dir, aim, seed := f.int(), f.vec(), f.int(), f.float(), f.uint32()
		if f.err != nil {
			return f.err
		}
		g := map[MsgType]Gun{MsgFireShotgun: Shotgun, MsgFireUzi: Uzi, MsgFireMinigun: Minigun}[m.Type]
		s.replayFire(func() { s.fireGun(g, id, origin, dir, aim, seed) })

	case MsgFireAirStrike:
		id, fromX, target := f.int(), f.float(), f.vec()
		if f.err != nil {
			return f.err
		}
		s.replayFire(func() { s.fireAirStrike(id, fromX, target) })

	case MsgPlaceDynamite:
		id, origin := f.int(), f.vec()
		if f.err != nil {
			return f.err
		}
		s.replayFire(func() { s.fireDynamite(id, origin) })

	case MsgFireGrenade, MsgFireHolyGrenade, MsgFireClusterBomb:
		id, origin, dir, aim, power := f.int(), f.vec(), f.int(), f.float(), f.float()
		if f.err != nil {
			return f.err
		}
		kind := map[MsgType]ProjectileKind{
			MsgFireGrenade:     KindGrenade,
			MsgFireHolyGrenade: KindHolyGrenade,
			MsgFireClusterBomb: KindClusterBomb,
		}[m.Type]
		s.replayFire(func() { s.fireGrenade(m.Type, id, origin, dir, aim, power, kind) })

	case MsgFireHoming:
		id, origin, dir, aim, power, target := f.int(), f.vec(), f.int(), f.float(), f.float(), f.vec()
		if f.err != nil {
			return f.err
		}
		if power == 0 {
			s.fireHoming(id, origin, dir, aim, power, target)
			return nil
		}
		s.replayFire(func() { s.fireHoming(id, origin, dir, aim, power, target) })

	case MsgFireNyanStrike:
		id, target, seed := f.int(), f.vec(), f.uint32()
		if f.err != nil {
			return f.err
		}
		s.replayFire(func() { s.fireNyanStrike(id, target, seed) })

	case MsgSwingBat:
		slot, origin := f.int(), f.vec()
		if f.err != nil {
			return f.err
		}
		s.replayBat(slot, origin)

	case MsgFireCharge:
		id, pos, vel, power := f.int(), f.vec(), f.vec(), f.float()
		if f.err != nil {
			return f.err
		}
		s.spawnCharge(id, pos, vel, power)

	case MsgCameraFree:
		p := f.vec()
		if f.err != nil {
			return f.err
		}
		s.setCameraFree(p)

	case MsgCameraLock:
		s.camera.Free = false
		s.camera.unlock()

	case MsgFirework:
		id, pos, power := f.int(), f.vec(), f.float()
		if f.err != nil {
			return f.err
		}
		s.launchFirework(id, pos, power)

	case MsgGameOver:
		winner := f.int()
		if f.err != nil {
			return f.err
		}
		s.endMatch(winner)

	default:
		return fmt.Errorf("%w: %d", ErrUnknownMessage, int(m.Type))
	}
	return nil
}

// replayFire runs a remote weapon action and marks the turn as acting
func (s *Sim) replayFire(fire func()) {
	s.match.Paused = true
	if c := s.Active(); c != nil {
		c.Fired = true
	}
	fire()
}

// applyGameState mirrors the authority's turn state. A team change starts
// a fresh turn locally.
func (s *Sim) applyGameState(team, player int, weapon WeaponID, wind float64) error {
	if team < 0 || team >= s.cfg.Teams || player < 0 || player >= len(s.chars) || !weapon.valid() {
		return fmt.Errorf("%w: game state %d/%d/%d", ErrMalformedFrame, team, player, weapon)
	}
	if team != s.match.Team {
		s.match.TurnTime = s.cfg.TurnSeconds * 1000
		s.match.Paused = false
		s.match.timeoutCaptioned = false
		for _, c := range s.chars {
			c.Fired = false
			c.Ragdoll = false
			c.Target = nil
			c.Power = 0
		}
		s.camera.Free = false
		s.camera.unlock()
		s.caption(fmt.Sprintf("TEAM %d IT'S YOUR TURN", team+1))
	}
	s.match.Team = team
	s.match.Player = player
	s.match.Weapon = weapon
	s.match.Wind = wind
	return nil
}

func (s *Sim) character(slot int) (*Character, error) {
	if slot < 0 || slot >= len(s.chars) {
		return nil, fmt.Errorf("%w: no character in slot %d", ErrMalformedFrame, slot)
	}
	return s.chars[slot], nil
}
