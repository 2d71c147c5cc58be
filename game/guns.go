package game

import (
	"math"
)

// Gun describes a hit-scan volley
type Gun struct {
	Msg       MsgType
	Rounds    int
	MinDamage int
	MaxDamage int
	Spread    float64
	Delay     float64 // ms between rounds
}

var (
	Shotgun = Gun{Msg: MsgFireShotgun, Rounds: 1, MinDamage: 40, MaxDamage: 45, Spread: 0.05, Delay: 1000}
	Uzi     = Gun{Msg: MsgFireUzi, Rounds: 8, MinDamage: 12, MaxDamage: 16, Spread: 0.1, Delay: 50}
	Minigun = Gun{Msg: MsgFireMinigun, Rounds: 30, MinDamage: 16, MaxDamage: 20, Spread: 0.125, Delay: 40}
)

// Strike and melee constants
const (
	GunLockDelay    = 1000.0
	TracerOffset    = 20.0
	StrikeRounds    = 5
	StrikeHeight    = -50.0
	StrikeSpeed     = 0.2
	StrikeSpacing   = 150.0
	NyanHeight      = -20.0
	NyanSpeed       = 0.4
	NyanSpacing     = 1250.0
	BatReach2       = 2000.0
	BatDamage       = 15
	BatSpin         = 20.0
	FireworkSpacing = 150.0
)

// fireGun fires a volley of hit-scan rounds. The spread comes from seed so
// both peers trace the same rays.
func (s *Sim) fireGun(g Gun, id int, origin Vec, dir int, aim float64, seed uint32) {
	if s.authority() {
		s.send(g.Msg, fmtInt(id), fmtFloat(origin.X), fmtFloat(origin.Y), fmtInt(dir), fmtFloat(aim), fmtUint(seed))
	}
	s.cancelEndTurn()
	s.useAmmo()

	muzzle := V(origin.X, origin.Y-TorsoOffset)
	angle := aim
	if dir != 1 {
		angle = math.Pi - aim
	}
	rng := NewRand(seed)
	shooter := s.match.Player

	var round func(i int)
	round = func(i int) {
		if i >= g.Rounds {
			s.requestEndTurn(WeaponSettleDelay)
			return
		}
		a := angle + rng.Float64()*g.Spread*2 - g.Spread
		s.fireRound(g, id+i, muzzle, a, shooter, i == 0, func() { round(i + 1) })
	}
	round(0)
}

// fireRound traces one round and, after its delay, blasts at the hit point.
// A miss resolves at once with only the muzzle flash.
func (s *Sim) fireRound(g Gun, id int, muzzle Vec, angle float64, shooter int, lock bool, next func()) {
	n := V(math.Cos(angle), math.Sin(angle))
	dist := s.castShot(muzzle, n, shooter)
	start := muzzle.Add(n.Scale(TracerOffset))

	if math.IsInf(dist, 1) {
		s.emit(Event{Kind: EventMuzzleFlash, Pos: start})
		s.emit(Event{Kind: EventGunshot, Pos: start})
		next()
		return
	}

	hit := muzzle.Add(n.Scale(dist))
	delay := g.Delay
	if lock {
		s.camera.lockPoint(hit)
		delay = GunLockDelay
	}
	s.clock.After(delay, func() {
		s.emit(Event{Kind: EventTracer, Pos: start, To: hit})
		s.emit(Event{Kind: EventMuzzleFlash, Pos: start})
		s.emit(Event{Kind: EventGunshot, Pos: start})
		if s.authority() {
			damage := s.rng.Range(g.MinDamage, g.MaxDamage)
			s.blast(id, hit, float64(damage), GunKnockback, shooter)
		}
		next()
	})
}

// castShot is a brute-force cast that also stops at any character but the shooter
func (s *Sim) castShot(origin, dir Vec, shooter int) float64 {
	return s.terrain.BruteForceCast(origin, dir, func(p Vec) bool {
		return s.hitsCharacter(p, shooter)
	})
}

// swingBat knocks away every living character in reach of the swinger
func (s *Sim) swingBat(slot int, origin Vec, dir int, aim float64) {
	if !s.authority() {
		return
	}
	s.send(MsgSwingBat, fmtInt(slot), fmtFloat(origin.X), fmtFloat(origin.Y), fmtInt(dir), fmtFloat(aim))

	victims := s.batVictims(slot, origin)
	for _, c := range victims {
		c.Ragdoll = true
		c.Vel = V(math.Cos(aim)*float64(dir), math.Sin(aim))
		c.Spin = math.Max(BatSpin, BatSpin*float64(c.Facing))
		c.Health = max(c.Health-BatDamage, 0)
		s.checkHealth(c)
		s.camera.lockCharacter(c.Slot)
		s.requestEndTurn(WeaponSettleDelay)
		s.emit(Event{Kind: EventMuzzleFlash, Pos: c.Torso()})
	}
	if len(victims) == 0 {
		s.match.Paused = false
	}
}

// replayBat mirrors a swing on the follower. Knockback arrives with the
// character syncs.
func (s *Sim) replayBat(slot int, origin Vec) {
	if c := s.Active(); c != nil {
		c.Fired = true
	}
	victims := s.batVictims(slot, origin)
	for _, c := range victims {
		s.camera.lockCharacter(c.Slot)
		s.emit(Event{Kind: EventMuzzleFlash, Pos: c.Torso()})
	}
	s.match.Paused = len(victims) > 0
}

// batVictims returns the living characters within reach of a swing
func (s *Sim) batVictims(slot int, origin Vec) []*Character {
	var hit []*Character
	for _, c := range s.chars {
		if c.Slot == slot || c.Dead || SqDist(origin, c.Pos) >= BatReach2 {
			continue
		}
		hit = append(hit, c)
	}
	return hit
}

// fireAirStrike drops five missiles across the target after a short delay
func (s *Sim) fireAirStrike(id int, fromX float64, target Vec) {
	if s.authority() {
		s.send(MsgFireAirStrike, fmtInt(id), fmtFloat(fromX), fmtFloat(target.X), fmtFloat(target.Y))
	}
	s.camera.lockPoint(target)
	s.emit(Event{Kind: EventTargetLock, Pos: target})
	s.useAmmo()
	s.cancelEndTurn()

	dir := -1.0
	if fromX < target.X {
		dir = 1
	}
	s.clock.After(StrikeDelay, func() {
		for i := 0; i < StrikeRounds; i++ {
			offset := ((float64(i)-2.5)*50 - 150) * dir
			power := float64(s.rng.Range(55, 65))
			pos := V(target.X+offset, StrikeHeight)
			s.dropMissile(id+i, pos, V(StrikeSpeed*dir, StrikeSpeed), power, StrikeSpacing*float64(i+1), KindMissile, func(m *Missile) {
				m.Gravity = true
			})
		}
	})
}

// fireNyanStrike drops five decorative straight-flying missiles from the sky
func (s *Sim) fireNyanStrike(id int, target Vec, seed uint32) {
	if s.authority() {
		s.send(MsgFireNyanStrike, fmtInt(id), fmtFloat(target.X), fmtFloat(target.Y), fmtUint(seed))
	}
	s.camera.lockPoint(target)
	s.emit(Event{Kind: EventTargetLock, Pos: target})
	s.useAmmo()
	s.cancelEndTurn()

	rng := NewRand(seed)
	s.clock.After(StrikeDelay, func() {
		for i := 0; i < StrikeRounds; i++ {
			angle := math.Pi/2 + (rng.Float64()*0.2 - 0.1)
			vel := V(math.Cos(angle)*NyanSpeed, math.Sin(angle)*NyanSpeed)
			power := float64(s.rng.Range(75, 90))
			pos := V(target.X-vel.X*100, NyanHeight)
			s.dropMissile(id+i, pos, vel, power, NyanSpacing*float64(i+1), KindDecorative, nil)
		}
	})
}
