package game

import "math"

// Grenade constants
const (
	GrenadeSpeed     = 1.25
	GrenadeFuse      = 5000.0
	GrenadeFoot      = 8.0
	GrenadeDamping   = 0.6
	BounceSmokeSpeed = 0.4
	BounceSoundSpeed = 0.2
	FlashWindow      = 2000.0
	FlashPeriod      = 250.0
	HolyMultiplier   = 3
	ChargeSpread     = 0.25
	ChargeLift       = 0.5
)

// Grenade bounces until its fuse runs out. Cluster and holy variants leave
// sub-munitions behind.
type Grenade struct {
	id    int
	kind  ProjectileKind
	Pos   Vec
	Vel   Vec
	Power float64
	Fuse  float64
	done  bool
}

func (g *Grenade) ID() int              { return g.id }
func (g *Grenade) Kind() ProjectileKind { return g.kind }
func (g *Grenade) Position() Vec        { return g.Pos }
func (g *Grenade) Done() bool           { return g.done }

func (g *Grenade) Sync(pos, vel Vec) {
	g.Pos = pos
	g.Vel = vel
}

// ToState converts a grenade to its render state
func (g *Grenade) ToState() ProjectileState {
	return ProjectileState{
		ID:    g.id,
		Kind:  g.kind,
		X:     g.Pos.X,
		Y:     g.Pos.Y,
		Fuse:  g.Fuse,
		Flash: flashing(g.Fuse),
	}
}

// flashing blinks in the last two seconds of a fuse
func flashing(fuse float64) bool {
	return fuse < FlashWindow && int(fuse/FlashPeriod)%2 == 1
}

// Integrate falls, bounces off the ground or a crater wall, and detonates
// on the authority when the fuse is spent.
func (g *Grenade) Integrate(s *Sim, dt float64) {
	g.Fuse -= dt
	g.Vel.Y += dt * s.cfg.MissileGravity
	g.Pos = g.Pos.Add(g.Vel.Scale(dt))

	foot := g.Pos.Add(V(0, GrenadeFoot))
	if s.terrain.IsSolid(foot) {
		g.bounce(s, foot)
	}

	if !s.authority() {
		return
	}
	s.sendKeyed(MsgSyncGrenade, g.id, false, fmtFloat(g.Pos.X), fmtFloat(g.Pos.Y), fmtFloat(g.Vel.X), fmtFloat(g.Vel.Y))
	if g.Fuse <= 0 {
		s.sendKeyed(MsgRemoveGrenade, g.id, false)
		g.Detonate(s)
	}
}

func (g *Grenade) bounce(s *Sim, foot Vec) {
	speed := g.Vel.Magnitude()
	if speed > BounceSmokeSpeed {
		s.emit(Event{Kind: EventSmoke, Pos: g.Pos})
	}
	if speed > BounceSoundSpeed {
		s.emit(Event{Kind: EventBounce, Pos: g.Pos, Magnitude: speed * 3})
	}

	hit := s.terrain.Raycast(foot, V(0, -1))
	if hit.Hit() && hit.Distance > 0 {
		g.Pos.Y -= hit.Distance
	}
	surface := s.terrain.SurfaceAt(g.Pos, hit)
	g.Vel = g.Vel.Reflect(surface).Invert().Scale(GrenadeDamping)
}

// Detonate blasts and, for cluster variants, scatters charges
func (g *Grenade) Detonate(s *Sim) {
	if g.done {
		return
	}
	g.done = true
	if s.authority() {
		s.blast(s.newID(), g.Pos, g.Power, GrenadeKnockback, -1)
	}
	s.projectiles.remove(g.id)

	count := 0
	if s.authority() {
		power := 0
		switch g.kind {
		case KindHolyGrenade:
			count, power = 10, s.rng.Range(70, 90)
		case KindClusterBomb:
			count, power = 5, s.rng.Range(40, 60)
		}
		for i := 0; i < count; i++ {
			angle := s.rng.Float64() * math.Pi * 2
			vel := V(math.Sin(angle)*ChargeSpread, math.Cos(angle)*ChargeSpread-ChargeLift)
			s.spawnCharge(g.id+i+1, g.Pos, vel, float64(power))
		}
	}
	// charges request the end of the turn themselves once the last one lands
	if count == 0 {
		s.requestEndTurn(WeaponSettleDelay)
	}
}

// throwGrenade spawns a grenade from a character's hand
func (s *Sim) throwGrenade(id int, origin Vec, dir int, aim, power float64, kind ProjectileKind) *Grenade {
	damage := s.rng.Range(55, 65)
	if kind == KindHolyGrenade {
		damage *= HolyMultiplier
	}
	g := &Grenade{
		id:    id,
		kind:  kind,
		Pos:   V(origin.X, origin.Y-TorsoOffset),
		Vel:   V(math.Cos(aim)*power*GrenadeSpeed*float64(dir), math.Sin(aim)*power*GrenadeSpeed),
		Power: float64(damage),
		Fuse:  GrenadeFuse,
	}
	s.projectiles.add(g)
	s.camera.lockProjectile(id)
	s.cancelEndTurn()
	return g
}
