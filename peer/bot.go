package peer

import (
	"math"

	"artillery/game"
)

// bot weapons; all have unlimited ammo
var botWeapons = []game.WeaponID{game.WeaponBazooka, game.WeaponGrenade, game.WeaponShotgun}

const (
	botAim       = -math.Pi / 4
	botAimJitter = 0.3
	botAimSlack  = 0.02
	botReach     = 4000.0
)

// Bot is a scripted opponent. On each of its turns it faces the nearest
// enemy, raises the crosshair to roughly 45 degrees and fires with power
// scaled by distance.
type Bot struct {
	rng *game.Rand

	slot   int
	weapon game.WeaponID
	dir    int
	aim    float64
	charge float64 // ms of fire to hold
	held   float64
	done   bool
}

// NewBot returns a bot whose choices follow seed
func NewBot(seed uint32) *Bot {
	return &Bot{rng: game.NewRand(seed), slot: -1}
}

// Input plays the active character when this peer owns the turn
func (b *Bot) Input(s *game.Sim, dt float64) game.Input {
	if !s.Authority() || s.Phase() != game.PhaseActing {
		b.slot = -1
		return game.Input{}
	}
	c := s.Active()
	if c == nil || !c.Alive() {
		return game.Input{}
	}
	if c.Slot != b.slot {
		if !b.plan(s, c) {
			return game.Input{}
		}
		return game.Input{Select: true, Weapon: b.weapon}
	}
	if b.done {
		return game.Input{}
	}

	var in game.Input
	if c.Facing != b.dir {
		in.MoveX = b.dir
		return in
	}
	switch {
	case c.Aim > b.aim+botAimSlack:
		in.AimY = -1
		return in
	case c.Aim < b.aim-botAimSlack:
		in.AimY = 1
		return in
	}

	w := game.Weapons[b.weapon]
	if !w.Power {
		b.done = true
		in.Fire = true
		return in
	}
	if b.held < b.charge {
		b.held += dt
		in.Fire = true
		return in
	}
	// releasing fire launches
	b.done = true
	return in
}

func (b *Bot) plan(s *game.Sim, c *game.Character) bool {
	target, ok := nearestEnemy(s, c)
	if !ok {
		return false
	}
	b.slot = c.Slot
	b.weapon = botWeapons[b.rng.Range(0, len(botWeapons))]
	b.dir = 1
	if target.Pos.X < c.Pos.X {
		b.dir = -1
	}
	b.aim = botAim + (b.rng.Float64()*2-1)*botAimJitter
	dist := game.Distance(c.Pos, target.Pos)
	b.charge = game.Clamp(dist/botReach+b.rng.Float64()*0.1, 0.25, 1) * 1000
	b.held = 0
	b.done = false
	return true
}

func nearestEnemy(s *game.Sim, c *game.Character) (*game.Character, bool) {
	var best *game.Character
	bestDist := math.Inf(1)
	for _, other := range s.Characters() {
		if other.Team == c.Team || !other.Alive() {
			continue
		}
		if d := game.SqDist(c.Pos, other.Pos); d < bestDist {
			best, bestDist = other, d
		}
	}
	return best, best != nil
}
