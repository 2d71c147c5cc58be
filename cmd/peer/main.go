// Command peer plays a headless match, either locally between two bots or
// against another peer through a relay room.
package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"artillery/game"
	"artillery/peer"
)

// fastStep is the simulated ms per tick in fast mode
const fastStep = 16.0

func setupLogging(level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	if isatty.IsTerminal(os.Stderr.Fd()) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}

func seedOr(seed uint32) uint32 {
	for seed == 0 {
		seed = rand.Uint32()
	}
	return seed
}

func run(ctx context.Context, cfg Config) error {
	cfg.Game.Seed = seedOr(cfg.Game.Seed)
	logger := log.With().Str("mode", cfg.Mode).Logger()

	var conn *peer.Conn
	opts := []game.Option{game.WithLogger(logger)}
	if cfg.Mode != ModeLocal {
		rooms := peer.NewRooms(cfg.Relay)
		code, token := cfg.Code, ""
		var err error
		if cfg.Mode == ModeHost {
			code, token, err = rooms.Create(ctx, cfg.Passphrase)
			if err == nil {
				logger.Info().Str("code", code).Msg("room open, waiting for the other peer")
			}
		} else {
			token, err = rooms.Join(ctx, code, cfg.Passphrase)
		}
		if err != nil {
			return err
		}
		if conn, err = peer.Dial(ctx, rooms.SocketURL(code, token), logger); err != nil {
			return err
		}
		defer conn.Close()
		opts = append(opts, game.WithTransport(conn))
	}

	sim, err := game.New(cfg.Game, opts...)
	if err != nil {
		return err
	}
	switch cfg.Mode {
	case ModeLocal:
		sim.Start()
	case ModeHost:
		err = sim.Host()
	case ModeJoin:
		err = sim.Join()
	}
	if err != nil {
		return err
	}

	r := &peer.Runner{
		Sim:  sim,
		Ctrl: peer.NewBot(seedOr(cfg.BotSeed)),
		Log:  logger,
	}
	if conn != nil {
		r.Link = conn
	}
	if cfg.Fast {
		r.Tick, r.Step = time.Millisecond, fastStep
	}
	logger.Info().Uint32("seed", cfg.Game.Seed).Msg("peer running")
	return r.Run(ctx)
}

func main() {
	cfg, err := LoadConfig(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	setupLogging(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	if err := run(ctx, cfg); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal().Err(err).Msg("peer stopped")
	}
}
