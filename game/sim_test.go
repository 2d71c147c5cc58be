package game

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const groundY = 1500.0

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.InitialCraters = 0
	cfg.Seed = 7
	return cfg
}

func newTestSim(t *testing.T, opts ...Option) *Sim {
	t.Helper()
	s, err := New(testConfig(), opts...)
	require.NoError(t, err)
	return s
}

// flatten replaces the terrain with level ground at y
func flatten(s *Sim, y float64) {
	n := int(s.cfg.Width/s.cfg.SampleSpacing) + 2
	heights := make([]float64, n)
	for i := range heights {
		heights[i] = y - s.cfg.Ground() - surfaceBias
	}
	s.terrain = NewTerrain(s.cfg, heights)
}

// park lines the roster up on flat ground far to the right
func park(s *Sim) {
	for _, c := range s.chars {
		c.Pos = V(6000+float64(c.Slot)*100, groundY)
		c.Vel = Vec{}
		c.Grounded = true
	}
}

// flatSim is a local sim on level ground with the roster out of the way
func flatSim(t *testing.T) *Sim {
	t.Helper()
	s := newTestSim(t)
	flatten(s, groundY)
	park(s)
	return s
}

func captions(events []Event) []string {
	var out []string
	for _, e := range events {
		if e.Kind == EventCaption {
			out = append(out, e.Text)
		}
	}
	return out
}

func countEvents(events []Event, kind EventKind) int {
	n := 0
	for _, e := range events {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Teams = 3
	_, err := New(cfg)
	assert.Error(t, err)
}

func TestNewLocalIsAuthority(t *testing.T) {
	s := newTestSim(t)
	assert.True(t, s.Authority())
	assert.False(t, s.Started())
	assert.Len(t, s.Characters(), 8)

	active := s.Active()
	require.NotNil(t, active)
	assert.Equal(t, s.match.Team, active.Team)
}

func TestNewIsDeterministicPerSeed(t *testing.T) {
	a := newTestSim(t)
	b := newTestSim(t)
	assert.Equal(t, a.Terrain().Heights(), b.Terrain().Heights())
	for i := range a.chars {
		assert.Equal(t, a.chars[i].Pos, b.chars[i].Pos)
	}
	assert.Equal(t, a.match.Wind, b.match.Wind)
}

func TestRosterNamesAndTeams(t *testing.T) {
	s := newTestSim(t)
	for i, c := range s.chars {
		assert.Equal(t, i, c.Slot)
		assert.Equal(t, i%2, c.Team)
		assert.Equal(t, Names[i], c.Name)
		assert.Equal(t, MaxHealth, c.Health)
		assert.Less(t, s.terrain.HeightAt(c.Pos.X), s.cfg.Height-s.cfg.SpawnMargin)
	}
}

func TestStartAnnouncesTeam(t *testing.T) {
	s := newTestSim(t)
	s.Start()
	s.Start()
	got := captions(s.DrainEvents())
	require.Len(t, got, 1)
	assert.True(t, strings.HasSuffix(got[0], "IT'S YOUR TURN"))
	assert.Equal(t, PhaseActing, s.Phase())
}

func TestHostAndJoinNeedTransport(t *testing.T) {
	s := newTestSim(t)
	assert.ErrorIs(t, s.Host(), ErrNoTransport)
	assert.ErrorIs(t, s.Join(), ErrNoTransport)
}

func TestTickClampsDelta(t *testing.T) {
	s := flatSim(t)
	s.Tick(500, Input{})
	assert.Equal(t, MaxTickDelta, s.Now())
	s.Tick(-10, Input{})
	assert.Equal(t, MaxTickDelta, s.Now())
}

func TestCollidesWithCharacters(t *testing.T) {
	s := flatSim(t)
	c := s.chars[3]
	assert.True(t, s.collides(c.Torso(), -1))
	assert.False(t, s.collides(c.Torso(), c.Slot))
	assert.False(t, s.collides(V(100, 100), -1))
	assert.True(t, s.collides(V(100, groundY+5), -1))

	c.Gone = true
	assert.False(t, s.collides(c.Torso(), -1))
}

func TestQuitEndsWithoutWinner(t *testing.T) {
	s := flatSim(t)
	s.Start()
	s.Tick(16, Input{Quit: true})
	assert.True(t, s.GameOver())
	assert.Equal(t, NoWinner, s.match.Winner)
	assert.Equal(t, 0, s.clock.Len())
}

func TestStateListsPresentCharacters(t *testing.T) {
	s := flatSim(t)
	s.chars[0].Gone = true
	st := s.State()
	assert.Len(t, st.Characters, 7)
	assert.Equal(t, "BAZOOKA", st.Match.Weapon)
	assert.Equal(t, -1, st.Match.Ammo)
}
