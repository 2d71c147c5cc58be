package game

// ProjectileKind tags a projectile variant
type ProjectileKind int

const (
	KindMissile ProjectileKind = iota
	KindHoming
	KindCharge
	KindDecorative
	KindGrenade
	KindClusterBomb
	KindHolyGrenade
	KindDynamite
)

var kindNames = [...]string{
	KindMissile:     "missile",
	KindHoming:      "homing",
	KindCharge:      "charge",
	KindDecorative:  "decorative",
	KindGrenade:     "grenade",
	KindClusterBomb: "cluster_bomb",
	KindHolyGrenade: "holy_grenade",
	KindDynamite:    "dynamite",
}

func (k ProjectileKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Projectile is an airborne or placed body that ends in a blast
type Projectile interface {
	ID() int
	Kind() ProjectileKind
	Position() Vec
	// Integrate advances the body by dt ms. It may detonate it.
	Integrate(s *Sim, dt float64)
	Done() bool
	// Detonate blasts (on the authority) and removes the body
	Detonate(s *Sim)
	// Sync overwrites position and velocity from the authority
	Sync(pos, vel Vec)
	ToState() ProjectileState
}

// ProjectileState is the per-projectile view handed to renderers
type ProjectileState struct {
	ID        int            `json:"id"`
	Kind      ProjectileKind `json:"k"`
	X         float64        `json:"x"`
	Y         float64        `json:"y"`
	Angle     float64        `json:"a"`
	Fuse      float64        `json:"f,omitempty"`
	Flash     bool           `json:"fl,omitempty"`
	Invisible bool           `json:"inv,omitempty"`
}

// projectileOrder is the per-tick update order of the projectile classes
var projectileOrder = [][]ProjectileKind{
	{KindMissile, KindHoming, KindCharge, KindDecorative},
	{KindDynamite},
	{KindGrenade, KindClusterBomb, KindHolyGrenade},
}

// projectiles keeps bodies by id and in insertion order, so both peers
// step them in the same sequence.
type projectiles struct {
	byID  map[int]Projectile
	order []int
}

func newProjectiles() *projectiles {
	return &projectiles{byID: make(map[int]Projectile)}
}

func (p *projectiles) add(x Projectile) {
	if _, ok := p.byID[x.ID()]; !ok {
		p.order = append(p.order, x.ID())
	}
	p.byID[x.ID()] = x
}

func (p *projectiles) get(id int) Projectile {
	return p.byID[id]
}

func (p *projectiles) remove(id int) {
	if _, ok := p.byID[id]; !ok {
		return
	}
	delete(p.byID, id)
	for i, v := range p.order {
		if v == id {
			p.order = append(p.order[:i], p.order[i+1:]...)
			break
		}
	}
}

func (p *projectiles) len() int {
	return len(p.order)
}

// list returns the live bodies in insertion order
func (p *projectiles) list() []Projectile {
	out := make([]Projectile, 0, len(p.order))
	for _, id := range p.order {
		out = append(out, p.byID[id])
	}
	return out
}

// count returns how many live bodies match any of kinds
func (p *projectiles) count(kinds ...ProjectileKind) int {
	n := 0
	for _, id := range p.order {
		k := p.byID[id].Kind()
		for _, want := range kinds {
			if k == want {
				n++
				break
			}
		}
	}
	return n
}

func (p *projectiles) clear() {
	clear(p.byID)
	p.order = p.order[:0]
}

// updateProjectiles steps every class in order. Bodies spawned during the
// pass wait for the next tick.
func (s *Sim) updateProjectiles(dt float64) {
	for _, class := range projectileOrder {
		for _, p := range s.projectiles.list() {
			if p.Done() || !hasKind(class, p.Kind()) {
				continue
			}
			p.Integrate(s, dt)
		}
	}
}

func hasKind(kinds []ProjectileKind, k ProjectileKind) bool {
	for _, v := range kinds {
		if v == k {
			return true
		}
	}
	return false
}
