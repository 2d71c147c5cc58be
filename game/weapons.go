package game

import "math"

// WeaponID indexes the weapon table
type WeaponID int

const (
	WeaponBazooka WeaponID = iota
	WeaponShotgun
	WeaponUzi
	WeaponAirStrike
	WeaponDynamite
	WeaponGrenade
	WeaponHolyGrenade
	WeaponMinigun
	WeaponHoming
	WeaponClusterBomb
	WeaponNyanStrike
	WeaponCricketBat
	WeaponCount
)

// Unlimited marks a weapon without an ammo limit
const Unlimited = -1

// Weapon describes how a weapon is operated
type Weapon struct {
	Name   string
	Power  bool // charged by holding fire
	Aim    bool // fired along the crosshair
	Target bool // fired at a pointer click
	Place  bool // dropped at the character's feet
	Ammo   int  // per team at match start
}

// Weapons is the weapon table, indexed by WeaponID
var Weapons = [WeaponCount]Weapon{
	WeaponBazooka:     {Name: "BAZOOKA", Power: true, Aim: true, Ammo: Unlimited},
	WeaponShotgun:     {Name: "SHOTGUN", Aim: true, Ammo: Unlimited},
	WeaponUzi:         {Name: "UZI", Aim: true, Ammo: Unlimited},
	WeaponAirStrike:   {Name: "AIR STRIKE", Target: true, Ammo: 2},
	WeaponDynamite:    {Name: "DYNAMITE", Place: true, Ammo: 2},
	WeaponGrenade:     {Name: "GRENADE", Power: true, Aim: true, Ammo: Unlimited},
	WeaponHolyGrenade: {Name: "UNHOLY BLACK CAT", Power: true, Aim: true, Ammo: 1},
	WeaponMinigun:     {Name: "MINIGUN", Aim: true, Ammo: 1},
	WeaponHoming:      {Name: "HOMING MISSILE", Power: true, Aim: true, Target: true, Ammo: 1},
	WeaponClusterBomb: {Name: "CLUSTER BOMB", Power: true, Aim: true, Ammo: 3},
	WeaponNyanStrike:  {Name: "NYAN STRIKE", Target: true, Ammo: 1},
	WeaponCricketBat:  {Name: "CRICKET BAT", Aim: true, Ammo: Unlimited},
}

func (w WeaponID) valid() bool {
	return w >= 0 && w < WeaponCount
}

func (w WeaponID) String() string {
	if !w.valid() {
		return "UNKNOWN"
	}
	return Weapons[w].Name
}

// Ammo is a team's remaining rounds per weapon
type Ammo [WeaponCount]int

func defaultAmmo() Ammo {
	var a Ammo
	for i, w := range Weapons {
		a[i] = w.Ammo
	}
	return a
}

// Has reports whether w can still be used
func (a *Ammo) Has(w WeaponID) bool {
	return w.valid() && a[w] != 0
}

func (a *Ammo) use(w WeaponID) {
	if w.valid() && a[w] > 0 {
		a[w]--
	}
}

// SelectWeapon switches the active weapon on the authority
func (s *Sim) SelectWeapon(w WeaponID) bool {
	if !s.authority() || !s.match.Started || s.match.GameOver {
		return false
	}
	if !s.match.Ammo[s.match.Team].Has(w) {
		return false
	}
	s.match.Weapon = w
	s.sendGameState()
	return true
}

func (s *Sim) useAmmo() {
	s.match.Ammo[s.match.Team].use(s.match.Weapon)
}

// updateAim moves the active crosshair
func (s *Sim) updateAim(dt float64, in Input) {
	c := s.Active()
	if c == nil || c.Dead || in.AimY == 0 {
		return
	}
	c.Aim = Clamp(c.Aim+axis(in.AimY)*dt*AimRate, -math.Pi/2, math.Pi/2)
}

// updatePower charges or fires the active weapon
func (s *Sim) updatePower(dt float64, in Input) {
	c := s.Active()
	if c == nil || c.Dead {
		return
	}
	w := Weapons[s.match.Weapon]

	if in.Click && w.Target && !c.Fired && s.match.Ammo[s.match.Team].Has(s.match.Weapon) {
		s.fireWeapon(c, in.Pointer)
		// the first click of a homing missile only locks the target
		if !w.Power {
			c.Fired = true
		}
		return
	}

	if c.Fired || !(w.Aim || w.Place) {
		return
	}
	if w.Power {
		if in.Fire {
			c.Power = Clamp(c.Power+dt*PowerRate, 0, 1)
		} else if c.Power > 0 {
			// a homing launch needs a locked target
			if s.match.Weapon == WeaponHoming && c.Target == nil {
				c.Power = 0
				return
			}
			s.fireWeapon(c, in.Pointer)
			c.Fired = true
			c.Power = 0
		}
		return
	}
	if in.Fire {
		s.fireWeapon(c, in.Pointer)
		c.Fired = true
	}
}

// fireWeapon dispatches the active weapon for the active character
func (s *Sim) fireWeapon(c *Character, target Vec) {
	id := s.newID()
	seed := s.rng.Uint32()
	w := s.match.Weapon
	if !(w == WeaponHoming && c.Power == 0) {
		s.match.Paused = true
	}
	s.log.Debug().Str("weapon", w.String()).Int("slot", c.Slot).Float64("power", c.Power).Msg("fire")

	switch w {
	case WeaponBazooka:
		s.fireBazooka(id, c.Pos, c.Facing, c.Aim, c.Power)
	case WeaponShotgun:
		s.fireGun(Shotgun, id, c.Pos, c.Facing, c.Aim, seed)
	case WeaponUzi:
		s.fireGun(Uzi, id, c.Pos, c.Facing, c.Aim, seed)
	case WeaponAirStrike:
		s.fireAirStrike(id, c.Pos.X, target)
	case WeaponDynamite:
		s.fireDynamite(id, c.Pos)
	case WeaponGrenade:
		s.fireGrenade(MsgFireGrenade, id, c.Pos, c.Facing, c.Aim, c.Power, KindGrenade)
	case WeaponHolyGrenade:
		s.fireGrenade(MsgFireHolyGrenade, id, c.Pos, c.Facing, c.Aim, c.Power, KindHolyGrenade)
	case WeaponMinigun:
		s.fireGun(Minigun, id, c.Pos, c.Facing, c.Aim, seed)
	case WeaponHoming:
		s.fireHoming(id, c.Pos, c.Facing, c.Aim, c.Power, target)
	case WeaponClusterBomb:
		s.fireGrenade(MsgFireClusterBomb, id, c.Pos, c.Facing, c.Aim, c.Power, KindClusterBomb)
	case WeaponNyanStrike:
		s.fireNyanStrike(id, target, seed)
	case WeaponCricketBat:
		s.swingBat(c.Slot, c.Pos, c.Facing, c.Aim)
	}
}

func (s *Sim) fireBazooka(id int, origin Vec, dir int, aim, power float64) {
	if s.authority() {
		s.send(MsgFireBazooka, fmtInt(id), fmtFloat(origin.X), fmtFloat(origin.Y), fmtInt(dir), fmtFloat(aim), fmtFloat(power))
	}
	m := s.launchMissile(id, origin, dir, aim, power, KindMissile)
	m.Wind = true
	m.Gravity = true
	s.useAmmo()
}

// fireHoming locks a target when power is zero, otherwise launches at the
// locked target.
func (s *Sim) fireHoming(id int, origin Vec, dir int, aim, power float64, target Vec) {
	if s.authority() {
		s.send(MsgFireHoming, fmtInt(id), fmtFloat(origin.X), fmtFloat(origin.Y), fmtInt(dir), fmtFloat(aim), fmtFloat(power), fmtFloat(target.X), fmtFloat(target.Y))
	}
	c := s.Active()
	if c == nil {
		return
	}
	if power == 0 {
		t := target
		c.Target = &t
		s.emit(Event{Kind: EventTargetLock, Pos: target})
		return
	}
	if c.Target == nil {
		return
	}
	m := s.launchMissile(id, origin, dir, aim, power, KindHoming)
	t := *c.Target
	m.Target = &t
	m.Wind = true
	m.Gravity = true
	c.Target = nil
	s.useAmmo()
}

func (s *Sim) fireGrenade(t MsgType, id int, origin Vec, dir int, aim, power float64, kind ProjectileKind) {
	if s.authority() {
		s.send(t, fmtInt(id), fmtFloat(origin.X), fmtFloat(origin.Y), fmtInt(dir), fmtFloat(aim), fmtFloat(power))
	}
	s.throwGrenade(id, origin, dir, aim, power, kind)
	s.useAmmo()
}

func (s *Sim) fireDynamite(id int, origin Vec) {
	if s.authority() {
		s.send(MsgPlaceDynamite, fmtInt(id), fmtFloat(origin.X), fmtFloat(origin.Y))
	}
	s.placeDynamite(id, origin)
	s.useAmmo()
}
