package game

// Input is the logical control state for one tick. Held actions are level
// triggered; Click, Select and NextPlayer are edge triggered.
type Input struct {
	MoveX int // -1 left, +1 right
	Jump  bool
	AimY  int // -1 up, +1 down
	Fire  bool

	Pointer    Vec // world coordinates
	Click      bool
	Select     bool
	Weapon     WeaponID // read when Select is set
	NextPlayer bool
	Quit       bool

	// Pan moves the free camera by this many units per ms
	Pan Vec
}

func axis(v int) float64 {
	switch {
	case v < 0:
		return -1
	case v > 0:
		return 1
	}
	return 0
}
