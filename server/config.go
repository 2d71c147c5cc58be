package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds the relay settings
type Config struct {
	Addr      string `mapstructure:"addr"`
	DBPath    string `mapstructure:"db"`
	PublicURL string `mapstructure:"public_url"`
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`

	MaxMembers        int           `mapstructure:"max_members"`
	MaxRooms          int           `mapstructure:"max_rooms"`
	MaxConnsPerIP     int           `mapstructure:"max_conns_per_ip"`
	MaxConns          int           `mapstructure:"max_conns"`
	MaxMessageSize    int64         `mapstructure:"max_message_size"`
	MaxMessagesPerSec int           `mapstructure:"max_messages_per_sec"`
	RoomIdleTimeout   time.Duration `mapstructure:"room_idle_timeout"`

	TokenTTL   time.Duration `mapstructure:"token_ttl"`
	JWTSecret  string        `mapstructure:"jwt_secret"`
	BcryptCost int           `mapstructure:"bcrypt_cost"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("addr", ":8080")
	v.SetDefault("db", "relay.db")
	v.SetDefault("public_url", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")

	v.SetDefault("max_members", 2)
	v.SetDefault("max_rooms", 100)
	v.SetDefault("max_conns_per_ip", 5)
	v.SetDefault("max_conns", 1000)
	// a join answer carries the whole terrain snapshot
	v.SetDefault("max_message_size", 64*1024)
	v.SetDefault("max_messages_per_sec", 50)
	v.SetDefault("room_idle_timeout", 5*time.Minute)

	v.SetDefault("token_ttl", 24*time.Hour)
	v.SetDefault("jwt_secret", "")
	v.SetDefault("bcrypt_cost", 12)
}

// DefaultConfig returns the relay defaults without reading flags, files or env
func DefaultConfig() Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	return cfg
}

// LoadConfig layers defaults, an optional relay.yaml, RELAY_* env vars and
// command-line flags, in increasing priority.
func LoadConfig(args []string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	fs := pflag.NewFlagSet("relay", pflag.ContinueOnError)
	fs.String("addr", v.GetString("addr"), "listen address")
	fs.String("db", v.GetString("db"), "sqlite database path")
	fs.String("public-url", "", "base URL encoded in join QR codes")
	fs.String("log-level", v.GetString("log_level"), "trace|debug|info|warn|error")
	fs.String("config", "", "config file (default ./relay.yaml)")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	for key, flag := range map[string]string{
		"addr":       "addr",
		"db":         "db",
		"public_url": "public-url",
		"log_level":  "log-level",
	} {
		if err := v.BindPFlag(key, fs.Lookup(flag)); err != nil {
			return Config{}, err
		}
	}

	v.SetEnvPrefix("RELAY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if path, _ := fs.GetString("config"); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("relay")
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
	if cfg.MaxMembers < 2 {
		return Config{}, fmt.Errorf("max_members must be at least 2, got %d", cfg.MaxMembers)
	}
	return cfg, nil
}
