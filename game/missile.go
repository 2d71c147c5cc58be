package game

import "math"

// Missile constants
const (
	MissileSpeed     = 2.0
	MissileMuzzle    = 10.0
	SmokeInterval    = 30.0
	HomingArmTime    = 500.0
	HomingBlend      = 0.05
	HomingBias       = 1.02
	MissileMaxFlight = 20000.0
)

// Missile is the ballistic family: bazooka rockets, homing missiles,
// cluster charges and the decorative strike variants.
type Missile struct {
	id        int
	kind      ProjectileKind
	Pos       Vec
	Vel       Vec
	Power     float64 // blast radius
	Age       float64
	Wind      bool
	Gravity   bool
	Invisible bool
	Target    *Vec

	smoke float64
	done  bool
}

func (m *Missile) ID() int              { return m.id }
func (m *Missile) Kind() ProjectileKind { return m.kind }
func (m *Missile) Position() Vec        { return m.Pos }
func (m *Missile) Done() bool           { return m.done }

func (m *Missile) Sync(pos, vel Vec) {
	m.Pos = pos
	m.Vel = vel
}

// ToState converts a missile to its render state
func (m *Missile) ToState() ProjectileState {
	angle := math.Atan2(m.Vel.Y, m.Vel.X)
	if m.kind == KindDecorative {
		angle = 0
	}
	return ProjectileState{
		ID:        m.id,
		Kind:      m.kind,
		X:         m.Pos.X,
		Y:         m.Pos.Y,
		Angle:     angle,
		Invisible: m.Invisible,
	}
}

// Integrate applies gravity, drag, wind and homing, then checks for impact
func (m *Missile) Integrate(s *Sim, dt float64) {
	m.smoke += dt
	if m.smoke >= SmokeInterval {
		m.smoke -= SmokeInterval
		if !m.Invisible {
			s.emit(Event{Kind: EventSmoke, Pos: m.Pos})
		}
	}
	m.Age += dt

	homing := m.Target != nil && m.Age > HomingArmTime
	if !homing {
		if m.Gravity {
			m.Vel.Y += dt * s.cfg.MissileGravity
			m.Vel = m.Vel.Scale(1 - s.cfg.AirResistance)
		}
		if m.Wind {
			m.Vel.X += s.match.Wind * s.cfg.WindFactor
		}
	} else {
		m.steer()
	}

	m.Pos = m.Pos.Add(m.Vel.Scale(dt))

	if !s.authority() {
		return
	}
	s.sendKeyed(MsgSyncMissile, m.id, false, fmtFloat(m.Pos.X), fmtFloat(m.Pos.Y), fmtFloat(m.Vel.X), fmtFloat(m.Vel.Y))
	if s.collides(m.Pos, -1) || m.Age > MissileMaxFlight {
		s.sendKeyed(MsgRemoveMissile, m.id, false)
		m.Detonate(s)
	}
}

// steer turns the velocity toward the target while keeping the speed
func (m *Missile) steer() {
	speed := m.Vel.Magnitude()
	want := m.Target.Sub(m.Pos).Normalize().Scale(speed * HomingBias)
	m.Vel = LerpVec(m.Vel, want, HomingBlend).Normalize().Scale(speed)
}

// Detonate blasts at the missile's position and removes it. The last
// missile of a volley requests the end of the turn.
func (m *Missile) Detonate(s *Sim) {
	if m.done {
		return
	}
	m.done = true
	if s.authority() {
		s.blast(s.newID(), m.Pos, m.Power, MissileKnockback, -1)
	}
	s.projectiles.remove(m.id)
	if s.projectiles.count(KindMissile, KindHoming, KindCharge, KindDecorative) == 0 {
		s.emit(Event{Kind: EventTargetClear})
		s.requestEndTurn(WeaponSettleDelay)
	}
}

// launchMissile spawns a missile from a character's muzzle
func (s *Sim) launchMissile(id int, origin Vec, dir int, aim, power float64, kind ProjectileKind) *Missile {
	vel := V(math.Cos(aim)*power*MissileSpeed*float64(dir), math.Sin(aim)*power*MissileSpeed)
	m := &Missile{
		id:    id,
		kind:  kind,
		Pos:   V(origin.X+vel.X*MissileMuzzle, origin.Y-TorsoOffset+vel.Y*MissileMuzzle),
		Vel:   vel,
		Power: float64(s.rng.Range(70, 80)),
	}
	s.projectiles.add(m)
	s.camera.lockProjectile(id)
	s.emit(Event{Kind: EventShoot, Pos: m.Pos})
	s.emit(Event{Kind: EventMuzzleFlash, Pos: m.Pos})
	s.cancelEndTurn()
	return m
}

// dropMissile schedules a missile to appear after delay; ready runs once it exists
func (s *Sim) dropMissile(id int, pos, vel Vec, power, delay float64, kind ProjectileKind, ready func(*Missile)) {
	s.clock.After(delay, func() {
		m := &Missile{id: id, kind: kind, Pos: pos, Vel: vel, Power: power}
		s.projectiles.add(m)
		s.cancelEndTurn()
		if ready != nil {
			ready(m)
		}
	})
}

// spawnCharge adds an invisible gravity-bound sub-munition
func (s *Sim) spawnCharge(id int, pos, vel Vec, power float64) {
	if s.authority() {
		s.sendKeyed(MsgFireCharge, id, false, fmtFloat(pos.X), fmtFloat(pos.Y), fmtFloat(vel.X), fmtFloat(vel.Y), fmtFloat(power))
	}
	s.projectiles.add(&Missile{
		id:        id,
		kind:      KindCharge,
		Pos:       pos,
		Vel:       vel,
		Power:     power,
		Gravity:   true,
		Invisible: true,
	})
	s.cancelEndTurn()
}
