package game

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"artillery/game/mocks"
)

// pipe collects outbound frames for delivery by the test
type pipe struct {
	frames []string
}

func (p *pipe) Send(frame string) error {
	p.frames = append(p.frames, frame)
	return nil
}

func (p *pipe) deliver(to *Sim) {
	frames := p.frames
	p.frames = nil
	for _, f := range frames {
		to.Receive(f)
	}
}

func networkedPair(t *testing.T) (host, follower *Sim, hp, fp *pipe) {
	t.Helper()
	hp, fp = &pipe{}, &pipe{}
	var err error
	host, err = New(testConfig(), WithTransport(hp))
	require.NoError(t, err)
	cfg := testConfig()
	cfg.Seed = 99
	follower, err = New(cfg, WithTransport(fp))
	require.NoError(t, err)

	require.NoError(t, host.Host())
	require.NoError(t, follower.Join())
	fp.deliver(host)
	hp.deliver(follower)
	return host, follower, hp, fp
}

func TestOutboxKeepsLatestPerKey(t *testing.T) {
	o := newOutbox()
	assert.True(t, o.queue("04|1", "04|1|a", true))
	assert.False(t, o.queue("04|1", "04|1|a", true))
	assert.True(t, o.queue("06|2", "06|2|x", false))
	assert.True(t, o.queue("04|1", "04|1|b", true))
	assert.Equal(t, 2, o.len())

	assert.Equal(t, "04|1|b\n06|2|x", o.drain())
	assert.Zero(t, o.len())
	assert.Empty(t, o.drain())

	// the cache outlives the flush
	assert.False(t, o.queue("04|1", "04|1|b", true))
	assert.True(t, o.queue("06|2", "06|2|x", false))
}

func TestHostAnswersJoinWithWorld(t *testing.T) {
	ctrl := gomock.NewController(t)
	tr := mocks.NewMockTransport(ctrl)

	var frame string
	tr.EXPECT().Send(gomock.Any()).DoAndReturn(func(f string) error {
		frame = f
		return nil
	})

	s, err := New(testConfig(), WithTransport(tr))
	require.NoError(t, err)
	require.NoError(t, s.Host())
	assert.False(t, s.Authority(), "no authority before a peer joins")

	s.Receive("00")
	assert.True(t, strings.HasPrefix(frame, "01|"))
	assert.Contains(t, frame, "\n02|")
	assert.True(t, s.Started())
	assert.True(t, s.Authority())

	// a second join is ignored
	s.Receive("00")
}

func TestSendErrorIsLogged(t *testing.T) {
	ctrl := gomock.NewController(t)
	tr := mocks.NewMockTransport(ctrl)
	tr.EXPECT().Send("00").Return(errors.New("connection closed"))

	var buf bytes.Buffer
	s, err := New(testConfig(), WithTransport(tr), WithLogger(zerolog.New(&buf)))
	require.NoError(t, err)
	require.NoError(t, s.Join())
	assert.Contains(t, buf.String(), "connection closed")
}

func TestJoinSyncsWorld(t *testing.T) {
	host, follower, _, _ := networkedPair(t)

	assert.True(t, host.Authority())
	assert.False(t, follower.Authority())
	assert.True(t, follower.Started())
	assert.Equal(t, host.Terrain().Heights(), follower.Terrain().Heights())
	assert.Equal(t, host.match.Team, follower.match.Team)
	assert.Equal(t, host.match.Player, follower.match.Player)
	assert.Equal(t, host.match.Wind, follower.match.Wind)
	for i, c := range host.chars {
		assert.Equal(t, c.Pos, follower.chars[i].Pos)
	}
}

func TestFramesFlushOnInterval(t *testing.T) {
	host, _, hp, _ := networkedPair(t)
	for i := 0; i < 3; i++ {
		host.Tick(16, Input{})
	}
	assert.Empty(t, hp.frames)
	host.Tick(16, Input{})
	assert.Len(t, hp.frames, 1)
}

func TestFollowerAppliesCharacterSync(t *testing.T) {
	_, follower, _, _ := networkedPair(t)
	follower.DrainEvents()

	follower.Receive("04|3|100|200|0.1|0|0.2|-1|55|1|0|0|1")
	c := follower.chars[3]
	assert.Equal(t, V(100, 200), c.Pos)
	assert.Equal(t, V(0.1, 0), c.Vel)
	assert.Equal(t, 0.2, c.Aim)
	assert.Equal(t, -1, c.Facing)
	assert.Equal(t, 55, c.Health)
	assert.Equal(t, 1, countEvents(follower.DrainEvents(), EventJump))

	follower.Receive("04|42|1|2|3|4|5|1|9|0|0|0|0\n04|3|1")
	assert.Equal(t, V(100, 200), c.Pos)
}

func TestFollowerDoesNotIntegrateCharacters(t *testing.T) {
	_, follower, _, _ := networkedPair(t)
	c := follower.chars[0]
	c.Pos = V(1000, 100)
	follower.Tick(16, Input{MoveX: 1})
	assert.Equal(t, V(1000, 100), c.Pos)
}

func TestEndTurnGrantsAuthority(t *testing.T) {
	_, follower, _, _ := networkedPair(t)
	follower.Receive("zz\n03")
	assert.True(t, follower.Authority())
}

func TestGameStateRejectsBadTeam(t *testing.T) {
	_, follower, _, _ := networkedPair(t)
	team := follower.match.Team
	follower.Receive("02|5|0|0|0.5")
	assert.Equal(t, team, follower.match.Team)

	follower.Receive("02|" + fmtInt(1-team) + "|" + fmtInt(1-team) + "|3|0.25")
	assert.Equal(t, 1-team, follower.match.Team)
	assert.Equal(t, WeaponAirStrike, follower.match.Weapon)
	assert.Equal(t, 0.25, follower.match.Wind)
}

func TestSnapshotRoundTrip(t *testing.T) {
	s := flatSim(t)
	s.terrain.PunchHole(V(400, groundY), 60)
	s.match.Ammo[1][WeaponDynamite] = 0
	field, err := encodeSnapshot(s.Snapshot())
	require.NoError(t, err)
	assert.NotContains(t, field, "|")
	assert.NotContains(t, field, "\n")

	snap, err := decodeSnapshot(field)
	require.NoError(t, err)
	other := newTestSim(t)
	require.NoError(t, other.applySnapshot(snap))
	assert.Equal(t, s.terrain.Heights(), other.terrain.Heights())
	assert.Equal(t, 1, other.terrain.HoleCount())
	assert.Equal(t, 0, other.match.Ammo[1][WeaponDynamite])
	assert.Equal(t, s.chars[4].Pos, other.chars[4].Pos)

	_, err = decodeSnapshot("not base64!")
	assert.ErrorIs(t, err, ErrMalformedFrame)
	assert.ErrorIs(t, other.applySnapshot(Snapshot{Heights: []float64{0, 0}}), ErrMalformedFrame)
}

func TestTurnReplicatesAndHandsOver(t *testing.T) {
	host, follower, hp, fp := networkedPair(t)
	host.Active().Aim = -1

	fired := false
	for i := 0; i < 4000 && host.Authority(); i++ {
		in := Input{Fire: i < 30}
		host.Tick(16, in)
		hp.deliver(follower)
		follower.Tick(16, Input{})
		fp.deliver(host)
		if countEvents(follower.DrainEvents(), EventShoot) > 0 {
			fired = true
		}
	}
	require.True(t, fired, "follower never saw the rocket")
	require.False(t, host.Authority())
	require.True(t, follower.Authority())

	assert.Equal(t, host.match.Team, follower.match.Team)
	assert.Equal(t, host.terrain.HoleCount(), follower.terrain.HoleCount())
	assert.GreaterOrEqual(t, follower.terrain.HoleCount(), 1)
	assert.Zero(t, follower.projectiles.len())
}

func TestFollowerReplaysBatSwing(t *testing.T) {
	_, follower, _, _ := networkedPair(t)
	me := follower.Active()
	enemy := follower.chars[(me.Slot+1)%len(follower.chars)]
	enemy.Pos = me.Pos.Add(V(20, 0))
	follower.DrainEvents()

	swing := func(origin Vec) {
		follower.Receive(strings.Join([]string{MsgSwingBat.Code(), fmtInt(me.Slot),
			fmtFloat(origin.X), fmtFloat(origin.Y), "1", "0"}, "|"))
	}
	swing(me.Pos)
	assert.True(t, me.Fired)
	assert.True(t, follower.match.Paused)
	assert.GreaterOrEqual(t, countEvents(follower.DrainEvents(), EventMuzzleFlash), 1)
	assert.Equal(t, MaxHealth, enemy.Health, "damage arrives with the character sync")

	swing(V(-5000, -5000))
	assert.False(t, follower.match.Paused)
	assert.Zero(t, countEvents(follower.DrainEvents(), EventMuzzleFlash))
}
