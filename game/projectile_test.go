package game

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stepUntilGone integrates projectiles until id is removed or ticks run out
func stepUntilGone(s *Sim, id int, ticks int) bool {
	for i := 0; i < ticks; i++ {
		s.clock.Advance(16)
		s.updateProjectiles(16)
		if s.projectiles.get(id) == nil {
			return true
		}
	}
	return false
}

func TestMissileFallsAndCraters(t *testing.T) {
	s := flatSim(t)
	s.match.Wind = 0.5
	m := s.launchMissile(42, V(1000, 1000), 1, 0, 0.5, KindMissile)
	m.Wind = true
	m.Gravity = true

	prevVY := m.Vel.Y
	for i := 0; i < 500 && s.projectiles.get(42) != nil; i++ {
		s.updateProjectiles(16)
		if !m.Done() {
			assert.Greater(t, m.Vel.Y, prevVY)
			prevVY = m.Vel.Y
		}
	}
	require.True(t, m.Done())

	require.Equal(t, 1, s.terrain.HoleCount())
	hole := s.terrain.Holes()[0]
	assert.Equal(t, m.Pos, hole.Center)
	assert.Equal(t, m.Power, hole.Radius)
	assert.GreaterOrEqual(t, m.Power, 70.0)
	assert.Less(t, m.Power, 80.0)
	assert.True(t, s.clock.Pending(s.endTurn))
	assert.Equal(t, 1, countEvents(s.DrainEvents(), EventTargetClear))
}

func TestMissileWindPushesSideways(t *testing.T) {
	s := flatSim(t)
	s.match.Wind = -0.9
	m := s.launchMissile(1, V(1000, 200), 1, -math.Pi/2, 0.2, KindMissile)
	m.Wind = true
	for i := 0; i < 10; i++ {
		m.Integrate(s, 16)
	}
	assert.Less(t, m.Vel.X, 0.0)
}

func TestGrenadeBouncesOffFlatGround(t *testing.T) {
	s := flatSim(t)
	g := s.throwGrenade(5, V(1000, groundY), 1, 0, 0, KindGrenade)
	g.Pos = V(1000, groundY-10)
	g.Vel = V(0.3, 0.3)
	before := g.Vel.Magnitude()

	g.Integrate(s, 16)
	assert.Less(t, g.Vel.Y, 0.0)
	assert.Greater(t, g.Vel.X, 0.0)
	assert.Less(t, g.Vel.Magnitude(), before)
	assert.False(t, s.terrain.IsSolid(g.Pos.Add(V(0, GrenadeFoot-0.01))))

	events := s.DrainEvents()
	assert.Equal(t, 1, countEvents(events, EventBounce))
	assert.Equal(t, 1, countEvents(events, EventSmoke))
}

func TestGrenadeFuseDetonates(t *testing.T) {
	s := flatSim(t)
	g := s.throwGrenade(9, V(1000, groundY), 1, -0.5, 0.4, KindGrenade)
	assert.GreaterOrEqual(t, g.Power, 55.0)
	assert.Less(t, g.Power, 65.0)

	require.True(t, stepUntilGone(s, 9, int(GrenadeFuse)/16+2))
	assert.Equal(t, 1, s.terrain.HoleCount())
	assert.True(t, s.clock.Pending(s.endTurn))
}

func TestHolyGrenadeTriplesPower(t *testing.T) {
	s := flatSim(t)
	g := s.throwGrenade(9, V(1000, groundY), 1, 0, 0.5, KindHolyGrenade)
	assert.GreaterOrEqual(t, g.Power, 165.0)
	assert.Less(t, g.Power, 195.0)
}

func TestGrenadeFlashes(t *testing.T) {
	assert.False(t, flashing(GrenadeFuse))
	assert.False(t, flashing(2100))
	assert.True(t, flashing(1900))
	assert.False(t, flashing(1700))
	assert.True(t, flashing(1400))
}

func TestClusterBombScattersCharges(t *testing.T) {
	s := flatSim(t)
	g := s.throwGrenade(100, V(3000, groundY), 1, 0, 0.2, KindClusterBomb)
	g.Detonate(s)

	assert.True(t, g.Done())
	assert.Nil(t, s.projectiles.get(100))
	require.Equal(t, 5, s.projectiles.count(KindCharge))
	for i := 0; i < 5; i++ {
		c, ok := s.projectiles.get(101 + i).(*Missile)
		require.True(t, ok)
		assert.True(t, c.Invisible)
		assert.True(t, c.Gravity)
		assert.GreaterOrEqual(t, c.Power, 40.0)
		assert.Less(t, c.Power, 60.0)
		assert.InDelta(t, ChargeSpread, c.Vel.Add(V(0, ChargeLift)).Magnitude(), 1e-9)
	}
	assert.False(t, s.clock.Pending(s.endTurn), "turn end waits for the charges")

	for s.projectiles.len() > 0 {
		s.updateProjectiles(16)
	}
	assert.True(t, s.clock.Pending(s.endTurn))
	assert.Equal(t, 6, s.terrain.HoleCount())
}

func TestHolyGrenadeScattersTenCharges(t *testing.T) {
	s := flatSim(t)
	g := s.throwGrenade(100, V(3000, groundY), 1, 0, 0.2, KindHolyGrenade)
	g.Detonate(s)
	assert.Equal(t, 10, s.projectiles.count(KindCharge))
}

func TestDynamiteBurnsOnBothPeers(t *testing.T) {
	for _, authority := range []bool{true, false} {
		s := flatSim(t)
		d := s.placeDynamite(3, V(3000, groundY))
		assert.Equal(t, V(3000, groundY-DynamiteOffset), d.Pos)
		assert.GreaterOrEqual(t, d.Power, 90.0)
		s.match.Authority = authority

		require.False(t, stepUntilGone(s, 3, int(DynamiteFuse)/16-1))
		require.True(t, stepUntilGone(s, 3, 3))
		if authority {
			assert.Equal(t, 1, s.terrain.HoleCount())
			assert.True(t, s.clock.Pending(s.endTurn))
		} else {
			assert.Equal(t, 0, s.terrain.HoleCount())
		}
	}
}

func TestFollowerNeverDetonatesInFlight(t *testing.T) {
	s := flatSim(t)
	s.match.Authority = false
	m := s.launchMissile(7, V(1000, groundY-20), 1, math.Pi/2, 1, KindMissile)
	g := s.throwGrenade(8, V(1100, groundY), 1, 0, 0, KindGrenade)
	g.Fuse = 10

	for i := 0; i < 20; i++ {
		s.updateProjectiles(16)
	}
	assert.False(t, m.Done())
	assert.False(t, g.Done())
	assert.Equal(t, 0, s.terrain.HoleCount())

	// the authority's remove message ends them
	m.Detonate(s)
	g.Detonate(s)
	assert.Equal(t, 0, s.projectiles.len())
	assert.Equal(t, 0, s.terrain.HoleCount())
}

func TestHomingMissileSteersAndKeepsSpeed(t *testing.T) {
	s := flatSim(t)
	s.match.Wind = 0
	target := V(2500, 1400)
	m := s.launchMissile(11, V(1000, 200), 1, 0, 0.5, KindHoming)
	m.Wind = true
	m.Gravity = true
	m.Target = &target

	off := func() float64 { return AngleBetween(m.Vel, target.Sub(m.Pos)) }
	for m.Age+16 <= HomingArmTime {
		m.Integrate(s, 16)
	}
	armed := off()
	speed := m.Vel.Magnitude()

	prev := armed
	for i := 0; i < 30; i++ {
		m.Integrate(s, 16)
		require.False(t, m.Done())
		assert.InDelta(t, speed, m.Vel.Magnitude(), 1e-9)
		now := off()
		assert.LessOrEqual(t, now, prev+1e-9)
		prev = now
	}
	assert.Greater(t, armed-prev, 0.087)
}

func TestMissileMaxFlight(t *testing.T) {
	s := flatSim(t)
	m := s.launchMissile(12, V(1000, -5000), 1, 0, 0, KindMissile)
	m.Age = MissileMaxFlight
	m.Integrate(s, 16)
	assert.True(t, m.Done())
}

func TestProjectilesKeepInsertionOrder(t *testing.T) {
	p := newProjectiles()
	for _, id := range []int{30, 10, 20} {
		p.add(&Missile{id: id})
	}
	p.add(&Missile{id: 10, Power: 5})
	p.remove(99)
	p.remove(30)

	var ids []int
	for _, x := range p.list() {
		ids = append(ids, x.ID())
	}
	assert.Equal(t, []int{10, 20}, ids)
	assert.Equal(t, 5.0, p.get(10).(*Missile).Power)
}
