package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"artillery/game"
)

const (
	ModeLocal = "local"
	ModeHost  = "host"
	ModeJoin  = "join"
)

// Config holds the headless peer settings. Game tunables live under the
// "game" key and override game.DefaultConfig.
type Config struct {
	Mode       string        `mapstructure:"mode"`
	Relay      string        `mapstructure:"relay"`
	Code       string        `mapstructure:"code"`
	Passphrase string        `mapstructure:"passphrase"`
	BotSeed    uint32        `mapstructure:"bot_seed"`
	Fast       bool          `mapstructure:"fast"`
	Timeout    time.Duration `mapstructure:"timeout"`
	LogLevel   string        `mapstructure:"log_level"`

	Game game.Config `mapstructure:"-"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", ModeLocal)
	v.SetDefault("relay", "http://localhost:8080")
	v.SetDefault("code", "")
	v.SetDefault("passphrase", "")
	v.SetDefault("bot_seed", 0)
	v.SetDefault("fast", false)
	v.SetDefault("timeout", 10*time.Minute)
	v.SetDefault("log_level", "info")
}

// LoadConfig layers defaults, peer.yaml, PEER_* env vars and flags
func LoadConfig(args []string) (Config, error) {
	fs := pflag.NewFlagSet("peer", pflag.ContinueOnError)
	fs.String("mode", ModeLocal, "local, host or join")
	fs.String("relay", "http://localhost:8080", "relay base URL")
	fs.String("code", "", "room code to join")
	fs.String("passphrase", "", "room passphrase")
	fs.Uint32("seed", 0, "world seed; 0 picks one")
	fs.Uint32("bot-seed", 0, "bot seed; 0 picks one")
	fs.Bool("fast", false, "tick as fast as possible with a fixed step")
	fs.String("log-level", "info", "log level")
	configFile := fs.String("config", "", "config file")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	v := viper.New()
	setDefaults(v)
	for key, flag := range map[string]string{
		"mode":       "mode",
		"relay":      "relay",
		"code":       "code",
		"passphrase": "passphrase",
		"game.seed":  "seed",
		"bot_seed":   "bot-seed",
		"fast":       "fast",
		"log_level":  "log-level",
	} {
		if err := v.BindPFlag(key, fs.Lookup(flag)); err != nil {
			return Config{}, err
		}
	}
	v.SetEnvPrefix("PEER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if *configFile != "" {
		v.SetConfigFile(*configFile)
	} else {
		v.SetConfigName("peer")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	cfg.Game = game.DefaultConfig()
	if err := v.UnmarshalKey("game", &cfg.Game); err != nil {
		return Config{}, fmt.Errorf("decoding game config: %w", err)
	}
	// flag and env bindings are not visible through the "game" subtree
	cfg.Game.Seed = v.GetUint32("game.seed")
	return cfg, cfg.validate()
}

func (c Config) validate() error {
	switch c.Mode {
	case ModeLocal, ModeHost:
	case ModeJoin:
		if c.Code == "" {
			return errors.New("join needs a room code")
		}
	default:
		return fmt.Errorf("unknown mode %q", c.Mode)
	}
	return c.Game.Validate()
}
