package game

import (
	"fmt"
	"math"
)

// Phase is the coarse turn state derived from the match
type Phase int

const (
	PhaseWaiting Phase = iota
	PhaseActing
	PhaseResolving
	PhaseEndPending
	PhaseGameOver
)

var phaseNames = [...]string{
	PhaseWaiting:    "waiting",
	PhaseActing:     "acting",
	PhaseResolving:  "resolving",
	PhaseEndPending: "end_pending",
	PhaseGameOver:   "game_over",
}

func (p Phase) String() string {
	if int(p) < len(phaseNames) {
		return phaseNames[p]
	}
	return "unknown"
}

// Outcome of a finished match
const (
	NoWinner = -1
	Draw     = -2
)

// Wind bounds
const (
	MinWind      = 0.1
	MaxWind      = 0.9
	WindExponent = 1.8
)

// Match is the turn state. Only the turn logic writes it.
type Match struct {
	Team      int
	Player    int
	Weapon    WeaponID
	Ammo      []Ammo
	Wind      float64
	TurnTime  float64 // ms left in the turn
	Authority bool
	Started   bool
	Paused    bool
	GameOver  bool
	Winner    int

	timeoutCaptioned bool
}

// MatchState is the match view handed to renderers
type MatchState struct {
	Team      int     `json:"team"`
	Player    int     `json:"player"`
	Weapon    string  `json:"weapon"`
	Ammo      int     `json:"ammo"`
	Wind      float64 `json:"wind"`
	TurnTime  float64 `json:"turn_time"`
	Authority bool    `json:"authority"`
	Phase     string  `json:"phase"`
	Winner    int     `json:"winner"`
}

func newMatch(cfg Config) Match {
	ammo := make([]Ammo, cfg.Teams)
	for i := range ammo {
		ammo[i] = defaultAmmo()
	}
	return Match{
		Weapon:   WeaponBazooka,
		Ammo:     ammo,
		TurnTime: cfg.TurnSeconds * 1000,
		Winner:   NoWinner,
	}
}

// Phase derives the turn state from the match and the pending work
func (s *Sim) Phase() Phase {
	switch {
	case s.match.GameOver:
		return PhaseGameOver
	case !s.match.Started:
		return PhaseWaiting
	case s.clock.Pending(s.endTurn):
		return PhaseEndPending
	case s.match.Paused || s.projectiles.len() > 0:
		return PhaseResolving
	}
	return PhaseActing
}

// MatchState returns the match view
func (s *Sim) MatchState() MatchState {
	return MatchState{
		Team:      s.match.Team,
		Player:    s.match.Player,
		Weapon:    s.match.Weapon.String(),
		Ammo:      s.match.Ammo[s.match.Team][s.match.Weapon],
		Wind:      s.match.Wind,
		TurnTime:  s.match.TurnTime,
		Authority: s.authority(),
		Phase:     s.Phase().String(),
		Winner:    s.match.Winner,
	}
}

// Active returns the active character, or nil before the match starts
func (s *Sim) Active() *Character {
	if s.match.Player < 0 || s.match.Player >= len(s.chars) {
		return nil
	}
	return s.chars[s.match.Player]
}

// rollWind picks a new wind strength and direction
func (s *Sim) rollWind() float64 {
	w := Clamp(math.Pow(s.rng.Float64(), WindExponent)+MinWind, MinWind, MaxWind)
	return w * float64(s.rng.Sign())
}

// ActivateNextPlayer moves control to the next living character of the
// active team. Weapon, ammo and wind are untouched.
func (s *Sim) ActivateNextPlayer() {
	n := len(s.chars)
	if n == 0 {
		return
	}
	p := s.match.Player
	for i := 0; i < n; i++ {
		p = (p + s.cfg.Teams) % n
		if !s.chars[p].Dead {
			break
		}
	}
	s.match.Player = p
	s.camera.unlock()
}

// activateRandomPlayer picks a random slot of the active team and then the
// next living one after it
func (s *Sim) activateRandomPlayer() {
	s.match.Player = s.rng.Range(0, s.cfg.PlayersPerTeam)*s.cfg.Teams + s.match.Team
	s.ActivateNextPlayer()
}

// pendingDeaths reports whether any character is inside its death grace window
func (s *Sim) pendingDeaths() bool {
	for _, c := range s.chars {
		if c.Dead && !c.Gone {
			return true
		}
	}
	return false
}

// ActivateNextTeam ends the turn. It refuses while a death is pending or
// once the match is over. In networked play authority passes to the other
// peer; in local play a caption announces the next team.
func (s *Sim) ActivateNextTeam() bool {
	if !s.authority() || s.match.GameOver {
		return false
	}
	if s.pendingDeaths() || s.checkGameOver() {
		return false
	}

	s.match.Weapon = WeaponBazooka
	s.match.Team = (s.match.Team + 1) % s.cfg.Teams
	s.match.TurnTime = s.cfg.TurnSeconds * 1000
	s.match.Paused = false
	s.match.timeoutCaptioned = false
	s.activateRandomPlayer()
	s.match.Wind = s.rollWind()
	for _, c := range s.chars {
		c.Fired = false
		c.Ragdoll = false
		c.Target = nil
		c.Power = 0
	}
	s.camera.Free = false
	s.camera.unlock()
	s.log.Info().Int("team", s.match.Team).Int("player", s.match.Player).Float64("wind", s.match.Wind).Msg("turn started")

	s.sendGameState()
	if s.networked() {
		s.sendSnapshot()
		s.send(MsgEndTurn)
		s.match.Authority = false
		s.flush()
		return true
	}
	s.caption(fmt.Sprintf("TEAM %d IT'S YOUR TURN", s.match.Team+1))
	return true
}

// checkGameOver counts living characters per team and ends the match when
// a team has none left
func (s *Sim) checkGameOver() bool {
	if s.match.GameOver {
		return true
	}
	alive := make([]int, s.cfg.Teams)
	for _, c := range s.chars {
		if !c.Gone {
			alive[c.Team]++
		}
	}
	teams := 0
	winner := NoWinner
	for t, n := range alive {
		if n > 0 {
			teams++
			winner = t
		}
	}
	switch teams {
	case 0:
		s.endMatch(Draw)
	case 1:
		s.endMatch(winner)
	default:
		return false
	}
	return true
}

// endMatch sets the terminal state and starts the fireworks on the authority
func (s *Sim) endMatch(winner int) {
	if s.match.GameOver {
		return
	}
	s.match.GameOver = true
	s.match.Winner = winner
	s.cancelEndTurn()
	switch winner {
	case Draw:
		s.caption("WHOA, IT'S A DRAW!")
	case NoWinner:
	default:
		s.caption(fmt.Sprintf("CONGRATULATIONS TEAM %d! YOU WIN!", winner+1))
	}
	s.log.Info().Int("winner", winner).Msg("game over")
	if s.authority() {
		s.send(MsgGameOver, fmtInt(winner))
		if winner != NoWinner {
			s.clock.After(FireworkPeriod, s.firework)
		}
	}
}

// Quit abandons the match without a winner
func (s *Sim) Quit() {
	s.endMatch(NoWinner)
}

// firework drops a wind-blown missile somewhere in view and reschedules itself
func (s *Sim) firework() {
	if !s.authority() {
		return
	}
	id := s.newID()
	x := s.camera.Pos.X + (s.rng.Float64()-0.5)*s.cfg.ViewportWidth
	y := s.camera.Pos.Y - s.cfg.ViewportHeight/2
	power := float64(s.rng.Range(40, 60))
	s.send(MsgFirework, fmtInt(id), fmtFloat(x), fmtFloat(y), fmtFloat(power))
	s.launchFirework(id, V(x, y), power)
	s.clock.After(FireworkPeriod, s.firework)
}

func (s *Sim) launchFirework(id int, pos Vec, power float64) {
	s.projectiles.add(&Missile{
		id:      id,
		kind:    KindDecorative,
		Pos:     pos,
		Vel:     V(0, StrikeSpeed),
		Power:   power,
		Wind:    true,
		Gravity: true,
	})
}

// requestEndTurn (re)schedules the end of the turn after delay ms
func (s *Sim) requestEndTurn(delay float64) {
	if !s.authority() || s.match.GameOver {
		return
	}
	s.clock.Cancel(s.endTurn)
	s.endTurn = s.clock.After(delay, func() {
		s.endTurn = 0
		if !s.ActivateNextTeam() && s.pendingDeaths() {
			// the corpse requests the end of the turn again once it is gone
			s.log.Debug().Msg("end of turn deferred by pending death")
		}
	})
}

// cancelEndTurn drops a pending end of turn. It is a no-op when none is pending.
func (s *Sim) cancelEndTurn() {
	s.clock.Cancel(s.endTurn)
	s.endTurn = 0
}

// updateTimer counts the turn down and forces the turn over at zero
func (s *Sim) updateTimer(dt float64) {
	if !s.match.Started || s.match.Paused || s.match.GameOver {
		return
	}
	s.match.TurnTime = math.Max(s.match.TurnTime-dt, 0)
	if s.match.TurnTime > 0 || !s.authority() {
		return
	}
	if !s.match.timeoutCaptioned {
		s.match.timeoutCaptioned = true
		s.caption("OOPS, YOU RAN OUT OF TIME!")
	}
	if s.ActivateNextTeam() || s.match.GameOver {
		return
	}
	s.match.Paused = true
	s.requestEndTurn(TimeoutSettleDelay)
}

// sendGameState replicates team, player, weapon and wind
func (s *Sim) sendGameState() {
	if !s.authority() {
		return
	}
	s.send(MsgGameState, fmtInt(s.match.Team), fmtInt(s.match.Player), fmtInt(int(s.match.Weapon)), fmtFloat(s.match.Wind))
}
