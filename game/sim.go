package game

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

// MaxID bounds the random entity ids handed to projectiles and blasts
const MaxID = 999999999

var ErrNoTransport = errors.New("networked play needs a transport")

// Sim owns one match: terrain, roster, projectiles, turn state and the
// outbound queue. It is not safe for concurrent use; one goroutine ticks it
// and feeds it inbound frames.
type Sim struct {
	cfg Config
	log zerolog.Logger
	rng *Rand

	clock       *Scheduler
	terrain     *Terrain
	chars       []*Character
	projectiles *projectiles
	match       Match
	camera      Camera
	events      []Event

	transport  Transport
	out        *outbox
	flushClock float64
	connected  bool
	endTurn    TaskID
}

// Option configures a Sim
type Option func(*Sim)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Sim) {
		s.log = l
	}
}

// WithTransport makes the sim networked. Outbound frames go to t.
func WithTransport(t Transport) Option {
	return func(s *Sim) {
		s.transport = t
	}
}

// New generates a world from cfg.Seed and places the roster. A local sim
// is its own authority; a networked one must Host or Join.
func New(cfg Config, opts ...Option) (*Sim, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	s := &Sim{
		cfg:         cfg,
		log:         zerolog.Nop(),
		rng:         NewRand(cfg.Seed),
		clock:       NewScheduler(),
		projectiles: newProjectiles(),
		match:       newMatch(cfg),
		out:         newOutbox(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.terrain = GenerateTerrain(cfg, s.rng)
	s.terrain.Damage(s.rng, cfg.InitialCraters)
	s.chars = spawnCharacters(cfg, s.terrain, s.rng)
	s.activateRandomPlayer()
	s.match.Wind = s.rollWind()
	if c := s.Active(); c != nil {
		s.camera.Pos = c.Pos
	}

	if !s.networked() {
		s.match.Authority = true
		s.connected = true
	}
	return s, nil
}

// Start begins a local match
func (s *Sim) Start() {
	if s.match.Started {
		return
	}
	s.match.Started = true
	s.caption(fmt.Sprintf("TEAM %d IT'S YOUR TURN", s.match.Team+1))
	s.log.Info().Int("team", s.match.Team).Int("player", s.match.Player).Msg("match started")
}

// Host makes this peer the first authority. Play starts when the other
// peer's join arrives.
func (s *Sim) Host() error {
	if !s.networked() {
		return ErrNoTransport
	}
	s.match.Authority = true
	s.connected = false
	return nil
}

// Join asks the host for its world. Play starts when the snapshot arrives.
func (s *Sim) Join() error {
	if !s.networked() {
		return ErrNoTransport
	}
	s.match.Authority = false
	s.send(MsgJoin)
	s.flush()
	return nil
}

// authority reports whether this peer's simulation is ground truth now
func (s *Sim) authority() bool {
	return s.match.Authority && s.connected
}

// Authority reports whether this peer currently owns the turn
func (s *Sim) Authority() bool {
	return s.authority()
}

// Started reports whether the match is running
func (s *Sim) Started() bool {
	return s.match.Started
}

// GameOver reports whether the match has ended
func (s *Sim) GameOver() bool {
	return s.match.GameOver
}

// Config returns the match tuning
func (s *Sim) Config() Config {
	return s.cfg
}

// Terrain exposes the terrain for queries
func (s *Sim) Terrain() *Terrain {
	return s.terrain
}

// Characters returns the roster by slot
func (s *Sim) Characters() []*Character {
	return s.chars
}

// Now returns the simulation clock in ms
func (s *Sim) Now() float64 {
	return s.clock.Now()
}

func (s *Sim) newID() int {
	return s.rng.Range(0, MaxID)
}

// hitsCharacter reports whether p is inside any present character's torso
// other than the excluded slot
func (s *Sim) hitsCharacter(p Vec, exclude int) bool {
	for _, c := range s.chars {
		if c.Gone || c.Slot == exclude {
			continue
		}
		if SqDist(p, c.Torso()) <= CharacterRadius {
			return true
		}
	}
	return false
}

// collides treats solid terrain and every character but exclude (-1 for
// none) as an obstacle
func (s *Sim) collides(p Vec, exclude int) bool {
	return s.terrain.IsSolid(p) || s.hitsCharacter(p, exclude)
}

// Tick advances the match by dt ms. Subsystems run in a fixed order:
// scheduled work, characters, aim, power, projectiles, camera, turn timer,
// then the outbound flush.
func (s *Sim) Tick(dt float64, in Input) {
	dt = Clamp(dt, 0, MaxTickDelta)
	s.clock.Advance(dt)

	if in.Quit && !s.match.GameOver {
		s.Quit()
	}
	acting := s.authority() && s.match.Started && !s.match.GameOver
	if acting {
		s.handleCommands(in)
	}

	s.updateCharacters(dt, in, acting)
	if acting && !s.match.Paused {
		s.updateAim(dt, in)
		s.updatePower(dt, in)
	}
	s.updateProjectiles(dt)
	s.updateCamera(dt, in)
	s.updateTimer(dt)
	s.updateNetwork(dt)
}

// handleCommands applies the edge-triggered inputs of the active peer
func (s *Sim) handleCommands(in Input) {
	if in.Select {
		s.SelectWeapon(in.Weapon)
	}
	if in.NextPlayer {
		if c := s.Active(); c != nil && !c.Fired && !s.match.Paused {
			s.ActivateNextPlayer()
			s.sendGameState()
		}
	}
	if in.Pan == (Vec{}) && in.Click && s.camera.Free && !Weapons[s.match.Weapon].Target {
		s.UnlockCamera()
	}
}

// updateCharacters integrates the roster on the authority and queues a sync
// per character. Followers take positions from those syncs.
func (s *Sim) updateCharacters(dt float64, in Input, acting bool) {
	if !s.authority() {
		return
	}
	for _, c := range s.chars {
		if c.Gone {
			continue
		}
		var ci *Input
		if acting && c.Slot == s.match.Player {
			ci = &in
		}
		s.updateCharacter(c, dt, ci)
		s.syncCharacter(c)
	}
}
