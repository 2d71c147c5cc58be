package game

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPendingDeathBlocksHandoff(t *testing.T) {
	s := flatSim(t)
	s.Start()
	team := s.match.Team
	c := s.chars[0]

	s.Kill(c, false, false)
	assert.False(t, s.ActivateNextTeam())
	assert.Equal(t, team, s.match.Team)

	s.clock.Advance(DeathGraceDelay)
	require.True(t, c.Gone)
	assert.True(t, s.ActivateNextTeam())
	assert.NotEqual(t, team, s.match.Team)
}

func TestActivateNextTeamResetsTurn(t *testing.T) {
	s := flatSim(t)
	s.Start()
	s.DrainEvents()
	s.match.Weapon = WeaponGrenade
	s.match.TurnTime = 3
	s.match.Paused = true
	for _, c := range s.chars {
		c.Fired = true
		c.Ragdoll = true
		c.Power = 0.7
	}

	require.True(t, s.ActivateNextTeam())
	assert.Equal(t, WeaponBazooka, s.match.Weapon)
	assert.Equal(t, s.cfg.TurnSeconds*1000, s.match.TurnTime)
	assert.False(t, s.match.Paused)
	assert.Equal(t, s.match.Team, s.Active().Team)
	for _, c := range s.chars {
		assert.False(t, c.Fired)
		assert.False(t, c.Ragdoll)
		assert.Zero(t, c.Power)
	}
	assert.Equal(t, []string{fmt.Sprintf("TEAM %d IT'S YOUR TURN", s.match.Team+1)}, captions(s.DrainEvents()))
}

func TestNextPlayerSkipsDead(t *testing.T) {
	s := flatSim(t)
	s.match.Player = 1
	s.chars[3].Dead = true
	s.ActivateNextPlayer()
	assert.Equal(t, 5, s.match.Player)

	s.ActivateNextPlayer()
	assert.Equal(t, 7, s.match.Player)
	s.ActivateNextPlayer()
	assert.Equal(t, 1, s.match.Player)
}

func TestNextPlayerCommandNeedsIdleTurn(t *testing.T) {
	s := flatSim(t)
	s.Start()
	first := s.match.Player
	s.Tick(16, Input{NextPlayer: true})
	assert.Equal(t, (first+2)%8, s.match.Player)

	s.Active().Fired = true
	s.Tick(16, Input{NextPlayer: true})
	assert.Equal(t, (first+2)%8, s.match.Player)
}

func TestWindStaysInRange(t *testing.T) {
	s := flatSim(t)
	for i := 0; i < 1000; i++ {
		w := s.rollWind()
		abs := w
		if abs < 0 {
			abs = -abs
		}
		assert.GreaterOrEqual(t, abs, MinWind)
		assert.LessOrEqual(t, abs, MaxWind)
	}
}

func TestTimeoutPassesTheTurn(t *testing.T) {
	s := flatSim(t)
	s.Start()
	s.DrainEvents()
	team := s.match.Team
	s.match.TurnTime = 10

	s.Tick(16, Input{})
	texts := captions(s.DrainEvents())
	require.NotEmpty(t, texts)
	assert.Equal(t, "OOPS, YOU RAN OUT OF TIME!", texts[0])
	assert.NotEqual(t, team, s.match.Team)
}

func TestTimeoutWaitsForPendingDeath(t *testing.T) {
	s := flatSim(t)
	s.Start()
	s.DrainEvents()
	team := s.match.Team
	s.Kill(s.chars[0], true, false)
	s.match.TurnTime = 10

	s.Tick(16, Input{})
	assert.Equal(t, team, s.match.Team)
	assert.True(t, s.match.Paused)
	assert.True(t, s.clock.Pending(s.endTurn))
	s.DrainEvents()

	oops := 0
	for i := 0; i < 100 && s.match.Team == team; i++ {
		s.Tick(50, Input{})
		for _, text := range captions(s.DrainEvents()) {
			if strings.HasPrefix(text, "OOPS") {
				oops++
			}
		}
	}
	assert.Zero(t, oops)
	assert.NotEqual(t, team, s.match.Team)
}

func TestTimerIgnoresPause(t *testing.T) {
	s := flatSim(t)
	s.Start()
	s.match.Paused = true
	s.Tick(16, Input{})
	assert.Equal(t, s.cfg.TurnSeconds*1000, s.match.TurnTime)
}

func TestLastTeamStandingWins(t *testing.T) {
	s := flatSim(t)
	s.Start()
	for _, c := range s.chars {
		if c.Team == 1 {
			c.Dead, c.Gone = true, true
		}
	}
	assert.False(t, s.ActivateNextTeam())
	assert.True(t, s.GameOver())
	assert.Equal(t, 0, s.match.Winner)
	assert.Contains(t, captions(s.DrainEvents()), "CONGRATULATIONS TEAM 1! YOU WIN!")
	assert.Equal(t, PhaseGameOver, s.Phase())

	s.clock.Advance(FireworkPeriod)
	assert.Equal(t, 1, s.projectiles.count(KindDecorative))
	s.clock.Advance(FireworkPeriod)
	assert.Equal(t, 2, s.projectiles.count(KindDecorative))
}

func TestEveryoneGoneIsADraw(t *testing.T) {
	s := flatSim(t)
	s.Start()
	for _, c := range s.chars {
		c.Dead, c.Gone = true, true
	}
	assert.True(t, s.checkGameOver())
	assert.Equal(t, Draw, s.match.Winner)
	assert.Contains(t, captions(s.DrainEvents()), "WHOA, IT'S A DRAW!")
}

func TestGameOverRefusesTurnEnd(t *testing.T) {
	s := flatSim(t)
	s.Start()
	s.Quit()
	s.requestEndTurn(10)
	assert.False(t, s.clock.Pending(s.endTurn))
	assert.False(t, s.ActivateNextTeam())
	assert.False(t, s.SelectWeapon(WeaponShotgun))
}

func TestPhaseFollowsMatch(t *testing.T) {
	s := flatSim(t)
	assert.Equal(t, PhaseWaiting, s.Phase())
	s.Start()
	assert.Equal(t, PhaseActing, s.Phase())
	s.match.Paused = true
	assert.Equal(t, PhaseResolving, s.Phase())
	s.requestEndTurn(WeaponSettleDelay)
	assert.Equal(t, PhaseEndPending, s.Phase())
	s.cancelEndTurn()
	s.cancelEndTurn()
	assert.Equal(t, PhaseResolving, s.Phase())
	assert.Equal(t, "resolving", s.MatchState().Phase)
}

func TestRequestEndTurnReschedules(t *testing.T) {
	s := flatSim(t)
	s.Start()
	team := s.match.Team
	s.requestEndTurn(100)
	s.requestEndTurn(300)
	assert.Equal(t, 1, s.clock.Len())
	s.clock.Advance(200)
	assert.Equal(t, team, s.match.Team)
	s.clock.Advance(100)
	assert.NotEqual(t, team, s.match.Team)
}
