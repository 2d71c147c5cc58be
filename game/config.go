package game

import "fmt"

// Config holds the tuning of one match. It is immutable once a Sim is created.
type Config struct {
	Width         float64 `mapstructure:"width"`
	Height        float64 `mapstructure:"height"`
	GroundOffset  float64 `mapstructure:"ground_offset"`
	SampleSpacing float64 `mapstructure:"sample_spacing"`
	OceanMargin   float64 `mapstructure:"ocean_margin"`
	SpawnMargin   float64 `mapstructure:"spawn_margin"`

	NoiseScale       float64 `mapstructure:"noise_scale"`
	NoiseAmplitude   float64 `mapstructure:"noise_amplitude"`
	NoiseOctaves     int     `mapstructure:"noise_octaves"`
	NoisePersistence float64 `mapstructure:"noise_persistence"`
	InitialCraters   int     `mapstructure:"initial_craters"`

	PlayerGravity  float64 `mapstructure:"player_gravity"`
	MissileGravity float64 `mapstructure:"missile_gravity"`
	AirResistance  float64 `mapstructure:"air_resistance"`
	WindFactor     float64 `mapstructure:"wind_factor"`

	Teams          int     `mapstructure:"teams"`
	PlayersPerTeam int     `mapstructure:"players_per_team"`
	TurnSeconds    float64 `mapstructure:"turn_seconds"`
	ViewportWidth  float64 `mapstructure:"viewport_width"`
	ViewportHeight float64 `mapstructure:"viewport_height"`

	// FlushInterval is the outbound batching period in ms.
	FlushInterval float64 `mapstructure:"flush_interval"`
	Seed          uint32  `mapstructure:"seed"`
}

// Timing constants in simulation milliseconds.
const (
	WeaponSettleDelay  = 2000.0
	TimeoutSettleDelay = 4000.0
	// DeathGraceDelay lands strictly after any weapon settle scheduled in the
	// same resolution window.
	DeathGraceDelay = WeaponSettleDelay + 1

	JumpCooldown   = 500.0
	MaxTickDelta   = 50.0
	FireworkPeriod = 500.0
	StrikeDelay    = 1000.0
)

// DefaultConfig returns the standard 8000x2000 two-team match
func DefaultConfig() Config {
	return Config{
		Width:         8000,
		Height:        2000,
		GroundOffset:  400,
		SampleSpacing: 10,
		OceanMargin:   190,
		SpawnMargin:   210,

		NoiseScale:       0.00075,
		NoiseAmplitude:   1500,
		NoiseOctaves:     5,
		NoisePersistence: 0.4,
		InitialCraters:   10,

		PlayerGravity:  0.002,
		MissileGravity: 0.001,
		AirResistance:  0.002,
		WindFactor:     0.015,

		Teams:          2,
		PlayersPerTeam: 4,
		TurnSeconds:    30,
		ViewportWidth:  1600,
		ViewportHeight: 900,

		FlushInterval: 50,
	}
}

// Validate reports the first setting that cannot produce a playable match
func (c Config) Validate() error {
	switch {
	case c.Width <= 0 || c.Height <= 0:
		return fmt.Errorf("world size must be positive, got %vx%v", c.Width, c.Height)
	case c.SampleSpacing <= 0:
		return fmt.Errorf("sample spacing must be positive, got %v", c.SampleSpacing)
	case c.Teams != 2:
		return fmt.Errorf("exactly 2 teams are supported, got %d", c.Teams)
	case c.PlayersPerTeam < 1:
		return fmt.Errorf("players per team must be at least 1, got %d", c.PlayersPerTeam)
	case c.TurnSeconds <= 0:
		return fmt.Errorf("turn length must be positive, got %v", c.TurnSeconds)
	case c.FlushInterval <= 0:
		return fmt.Errorf("flush interval must be positive, got %v", c.FlushInterval)
	}
	return nil
}

// Ground is the baseline the height samples are offsets from
func (c Config) Ground() float64 {
	return c.Height + c.GroundOffset
}

// OceanLine is the y beyond which a character drowns
func (c Config) OceanLine() float64 {
	return c.Height - c.OceanMargin
}

// Slots returns the roster size
func (c Config) Slots() int {
	return c.Teams * c.PlayersPerTeam
}
