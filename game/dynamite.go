package game

// Dynamite constants
const (
	DynamiteFuse   = 5000.0
	DynamiteOffset = 5.0
)

// Dynamite sits where it was placed until its fuse runs out
type Dynamite struct {
	id    int
	Pos   Vec
	Power float64
	Fuse  float64
	done  bool
}

func (d *Dynamite) ID() int              { return d.id }
func (d *Dynamite) Kind() ProjectileKind { return KindDynamite }
func (d *Dynamite) Position() Vec        { return d.Pos }
func (d *Dynamite) Done() bool           { return d.done }

// Sync moves the stick; dynamite carries no velocity
func (d *Dynamite) Sync(pos, _ Vec) {
	d.Pos = pos
}

// ToState converts a stick of dynamite to its render state
func (d *Dynamite) ToState() ProjectileState {
	return ProjectileState{
		ID:    d.id,
		Kind:  KindDynamite,
		X:     d.Pos.X,
		Y:     d.Pos.Y,
		Fuse:  d.Fuse,
		Flash: flashing(d.Fuse),
	}
}

// Integrate burns the fuse. Both peers run it; only the authority blasts.
func (d *Dynamite) Integrate(s *Sim, dt float64) {
	d.Fuse -= dt
	if d.Fuse <= 0 {
		d.Detonate(s)
	}
}

// Detonate blasts at full radius and requests the end of the turn
func (d *Dynamite) Detonate(s *Sim) {
	if d.done {
		return
	}
	d.done = true
	if s.authority() {
		s.blast(s.newID(), d.Pos, d.Power, DynamiteKnockback, -1)
	}
	s.projectiles.remove(d.id)
	s.requestEndTurn(WeaponSettleDelay)
}

// placeDynamite drops a lit stick at a character's feet
func (s *Sim) placeDynamite(id int, origin Vec) *Dynamite {
	d := &Dynamite{
		id:    id,
		Pos:   V(origin.X, origin.Y-DynamiteOffset),
		Power: float64(s.rng.Range(90, 100)),
		Fuse:  DynamiteFuse,
	}
	s.projectiles.add(d)
	s.cancelEndTurn()
	return d
}
