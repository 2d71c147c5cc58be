package game

import (
	"fmt"
	"math"
)

// Character constants (per ms where a rate)
const (
	MaxHealth       = 100
	WalkAccel       = 0.1
	MaxWalkSpeed    = 0.125
	JumpImpulse     = 0.6
	JumpPush        = 0.2
	GroundFriction  = 0.5
	SpinDecay       = 0.01
	SpinSnap        = 1.0
	VelocitySnap    = 0.01
	AimRate         = 0.001
	PowerRate       = 0.001
	BounceDamping   = 0.5
	CharacterRadius = 120.0 // squared hit radius around the torso
	TorsoOffset     = 10.0
	spawnAttempts   = 1000
)

// Names is the fixed roster, indexed by slot
var Names = []string{"ALICE", "CLIVE", "BORIS", "RICHARD", "MIKE", "SARAH", "PAULINE", "HENRY"}

// Character is one combatant. Slot is its stable id; Team is Slot % teams.
type Character struct {
	Slot     int
	Team     int
	Name     string
	Pos      Vec
	Vel      Vec
	Rotation float64
	Spin     float64
	Aim      float64
	Facing   int
	Health   int
	Power    float64
	Cooldown float64
	MoveX    int

	Grounded bool
	Ragdoll  bool
	Fired    bool
	Jumped   bool
	Dead     bool
	Gone     bool

	// Target is the lock-on point of a two-phase weapon
	Target *Vec

	frame     int
	animClock float64
}

// CharacterState is the per-character view handed to renderers and snapshots
type CharacterState struct {
	Slot     int     `msgpack:"i" json:"i"`
	Team     int     `msgpack:"t" json:"t"`
	Name     string  `msgpack:"n" json:"n"`
	X        float64 `msgpack:"x" json:"x"`
	Y        float64 `msgpack:"y" json:"y"`
	DX       float64 `msgpack:"dx" json:"dx"`
	DY       float64 `msgpack:"dy" json:"dy"`
	Rotation float64 `msgpack:"r" json:"r"`
	Aim      float64 `msgpack:"a" json:"a"`
	Facing   int     `msgpack:"d" json:"d"`
	Health   int     `msgpack:"hp" json:"hp"`
	Power    float64 `msgpack:"p" json:"p"`
	Frame    int     `msgpack:"f" json:"f"`
	Ragdoll  bool    `msgpack:"rg" json:"rg"`
	Dead     bool    `msgpack:"dd" json:"dd"`
	Gone     bool    `msgpack:"g" json:"g"`
}

// ToState converts a character to its state snapshot
func (c *Character) ToState() CharacterState {
	return CharacterState{
		Slot:     c.Slot,
		Team:     c.Team,
		Name:     c.Name,
		X:        c.Pos.X,
		Y:        c.Pos.Y,
		DX:       c.Vel.X,
		DY:       c.Vel.Y,
		Rotation: c.Rotation,
		Aim:      c.Aim,
		Facing:   c.Facing,
		Health:   c.Health,
		Power:    c.Power,
		Frame:    c.frame,
		Ragdoll:  c.Ragdoll,
		Dead:     c.Dead,
		Gone:     c.Gone,
	}
}

func characterFromState(st CharacterState) *Character {
	facing := st.Facing
	if facing != -1 {
		facing = 1
	}
	return &Character{
		Slot:     st.Slot,
		Team:     st.Team,
		Name:     st.Name,
		Pos:      V(st.X, st.Y),
		Vel:      V(st.DX, st.DY),
		Rotation: st.Rotation,
		Aim:      st.Aim,
		Facing:   facing,
		Health:   st.Health,
		Power:    st.Power,
		Ragdoll:  st.Ragdoll,
		Dead:     st.Dead,
		Gone:     st.Gone,
	}
}

// Torso is the point used for hit tests and death blasts
func (c *Character) Torso() Vec {
	return V(c.Pos.X, c.Pos.Y-TorsoOffset)
}

// Alive reports whether the character still takes part in play
func (c *Character) Alive() bool {
	return !c.Dead && !c.Gone
}

// spawnCharacters rejection-samples spawn points on low enough ground
func spawnCharacters(cfg Config, t *Terrain, rng *Rand) []*Character {
	n := cfg.Slots()
	chars := make([]*Character, n)
	for i := 0; i < n; i++ {
		var x float64
		for attempt := 0; attempt < spawnAttempts; attempt++ {
			x = rng.Float64()*(cfg.Width-500) + 250
			if t.HeightAt(x) < cfg.Height-cfg.SpawnMargin {
				break
			}
		}
		name := fmt.Sprintf("PLAYER %d", i+1)
		if i < len(Names) {
			name = Names[i]
		}
		chars[i] = &Character{
			Slot:   i,
			Team:   i % cfg.Teams,
			Name:   name,
			Pos:    V(x, t.HeightAt(x)),
			Facing: rng.Sign(),
			Health: MaxHealth,
		}
	}
	return chars
}

// updateCharacter integrates one character. in is nil for everyone but the
// active character.
func (s *Sim) updateCharacter(c *Character, dt float64, in *Input) {
	ix := 0
	jumping := false
	if in != nil && c.Cooldown <= 0 && !c.Dead {
		ix = int(axis(in.MoveX))
		jumping = in.Jump && c.Grounded
	}

	control := c.Grounded && !c.Ragdoll
	if control {
		c.Vel.X += float64(ix) * WalkAccel
	}
	if jumping {
		c.Vel.Y -= JumpImpulse
	}
	if control {
		c.Vel.X = Clamp(c.Vel.X, -MaxWalkSpeed, MaxWalkSpeed)
	}
	if jumping {
		c.Vel.X += float64(c.Facing) * JumpPush
		c.Cooldown = JumpCooldown
		c.Jumped = true
		s.emit(Event{Kind: EventJump, Pos: c.Pos})
	}
	if !jumping && c.Grounded {
		c.Vel.X *= GroundFriction
	}

	c.Vel.Y += dt * s.cfg.PlayerGravity
	c.Pos = c.Pos.Add(c.Vel.Scale(dt))

	c.Spin = Lerp(c.Spin, 0, SpinDecay)
	c.Rotation += c.Spin * dt
	if c.Grounded {
		c.Rotation = 0
		c.Cooldown = math.Max(c.Cooldown-dt, 0)
	}
	if math.Abs(c.Spin) < SpinSnap {
		c.Spin = 0
	}

	if ix != 0 && !c.Ragdoll {
		c.Facing = ix
	}
	c.MoveX = ix
	if math.Abs(c.Vel.X) < VelocitySnap {
		c.Vel.X = 0
	}

	s.collideCharacter(c)
	s.animate(c, dt)

	if c.Pos.Y >= s.cfg.OceanLine() && !c.Dead {
		s.emit(Event{Kind: EventSplash, Pos: c.Pos})
		s.Kill(c, false, true)
	}
}

// collideCharacter pushes a character out of the terrain with four probes
func (s *Sim) collideCharacter(c *Character) {
	if !s.terrain.IsSolid(c.Pos) {
		c.Grounded = false
		return
	}
	up := s.terrain.Raycast(c.Pos, V(0, -1))
	down := s.terrain.Raycast(c.Pos.Add(V(0, -20)), V(0, 1))
	right := s.terrain.Raycast(c.Pos.Add(V(-5, -TorsoOffset)), V(1, 0))
	left := s.terrain.Raycast(c.Pos.Add(V(5, -TorsoOffset)), V(-1, 0))

	if up.Hit() && up.Distance > 0 && c.Vel.Y > 0 {
		c.Pos.Y -= up.Distance
		c.Vel.Y = c.dampen(c.Vel.Y, c.Ragdoll)
		c.Grounded = true
	}
	if down.Hit() && down.Distance > 0 && c.Vel.Y < 0 {
		c.Pos.Y += down.Distance
		c.Vel.Y = c.dampen(c.Vel.Y, c.Ragdoll)
	}
	if left.Hit() && left.Distance > 0 && c.Vel.X > 0 {
		c.Pos.X -= left.Distance
		c.Vel.X = c.dampen(c.Vel.X, c.Ragdoll || !c.Grounded)
	}
	if right.Hit() && right.Distance > 0 && c.Vel.X < 0 {
		c.Pos.X += right.Distance
		c.Vel.X = c.dampen(c.Vel.X, c.Ragdoll || !c.Grounded)
	}
}

func (c *Character) dampen(v float64, bounce bool) float64 {
	if bounce {
		return -v * BounceDamping
	}
	return 0
}

// animate advances the walk cycle frame while moving on the ground
func (s *Sim) animate(c *Character, dt float64) {
	if c.Grounded && c.MoveX != 0 {
		c.animClock += dt
		if c.animClock >= 100 {
			c.animClock -= 100
			c.frame = (c.frame + 1) % 4
		}
		return
	}
	c.animClock = 0
	c.frame = 0
}

// Kill starts the death sequence once. The character is gone after the
// grace delay, or on the next tick when immediate.
func (s *Sim) Kill(c *Character, explode, immediate bool) {
	if c.Dead {
		return
	}
	if s.authority() {
		s.sendKeyed(MsgKill, c.Slot, false, fmtBool(explode), fmtBool(immediate))
	}
	c.Dead = true
	s.log.Debug().Int("slot", c.Slot).Str("name", c.Name).Bool("explode", explode).Msg("character killed")

	delay := DeathGraceDelay
	if immediate {
		delay = 0
	}
	s.clock.After(delay, func() {
		c.Gone = true
		if explode {
			s.caption(fmt.Sprintf("GOOD BYE %s!", c.Name))
			if s.authority() {
				s.blast(s.newID(), c.Torso(), float64(s.rng.Range(60, 70)), CorpseKnockback, -1)
			}
		} else {
			s.caption(fmt.Sprintf("%s IS SLEEPING WITH THE FISHES!", c.Name))
		}
		s.camera.lockCharacter(c.Slot)
		if !immediate {
			s.requestEndTurn(WeaponSettleDelay)
		}
	})
}

// checkHealth kills a character whose health ran out
func (s *Sim) checkHealth(c *Character) {
	if c.Health < 1 && !c.Dead {
		c.Health = 0
		s.Kill(c, true, false)
	}
}

// syncCharacter queues the absolute state of a character for the follower
func (s *Sim) syncCharacter(c *Character) {
	s.sendKeyed(MsgSyncCharacter, c.Slot, true,
		fmtFloat(c.Pos.X), fmtFloat(c.Pos.Y),
		fmtFloat(c.Vel.X), fmtFloat(c.Vel.Y),
		fmtFloat(c.Aim), fmtInt(c.Facing), fmtInt(c.Health),
		fmtInt(c.MoveX), fmtFloat(c.Power), fmtFloat(c.Rotation),
		fmtBool(c.Jumped),
	)
}
