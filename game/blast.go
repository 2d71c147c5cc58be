package game

import "math"

// Blast tuning
const (
	BlastReach        = 1.5
	BlastImpulse      = 0.2
	BlastLift         = 0.1
	BlastMinSpin      = 10.0
	BlastShake        = 500.0
	ExplosionScale    = 0.9
	MissileKnockback  = 1.2
	GrenadeKnockback  = 1.2
	DynamiteKnockback = 2.4
	GunKnockback      = 0.25
	CorpseKnockback   = 1.0
)

// blastForce is log2(x)/2, or zero where that would not push outward
func blastForce(x float64) float64 {
	if !(x > 1) {
		return 0
	}
	return math.Log2(x) / 2
}

// blast replicates and applies a blast. Only the authority calls this.
func (s *Sim) blast(id int, center Vec, radius, knockback float64, ignore int) *Character {
	s.sendKeyed(MsgBlast, id, false, fmtFloat(center.X), fmtFloat(center.Y), fmtFloat(radius))
	return s.ApplyBlast(center, radius, knockback, ignore)
}

// ApplyBlast punches a hole and, on the authority, damages and knocks back
// every living character within 1.5 radii except the ignored slot (-1 for
// none). The character thrown hardest becomes the camera focus; on equal
// knockback the lower slot wins, since slots are visited in order and only
// a strictly greater value replaces the leader.
func (s *Sim) ApplyBlast(center Vec, radius, knockback float64, ignore int) *Character {
	s.terrain.PunchHole(center, radius)
	s.emit(Event{Kind: EventExplosion, Pos: center, Magnitude: radius * ExplosionScale})
	s.emit(Event{Kind: EventCameraShake, Pos: center, Magnitude: BlastShake})
	s.camera.shake(BlastShake)

	if !s.authority() {
		return nil
	}

	reach := radius * BlastReach
	r2 := reach * reach
	var focus *Character
	best := 0.0
	for _, c := range s.chars {
		if c.Dead || c.Slot == ignore {
			continue
		}
		d2 := SqDist(c.Pos, center)
		if d2 >= r2 {
			continue
		}
		falloff := 1 - d2/r2
		damage := falloff * radius / 2
		force := blastForce(falloff * radius)
		angle := math.Atan2(c.Pos.Y-center.Y, c.Pos.X-center.X)
		velocity := knockback * force * BlastImpulse

		if velocity > best {
			best = velocity
			focus = c
		}

		c.Vel = V(velocity*math.Cos(angle), velocity*math.Sin(angle)-BlastLift)
		c.Spin = math.Max(BlastMinSpin, force*10*float64(c.Facing))
		c.Health = max(c.Health-int(math.Floor(damage)), 0)
		c.Ragdoll = true
		s.checkHealth(c)
	}

	if focus != nil {
		s.camera.lockCharacter(focus.Slot)
	}
	return focus
}
