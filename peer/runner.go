package peer

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"artillery/game"
)

const (
	TickRate     = 60
	TickDuration = time.Second / TickRate
	// GameOverLinger keeps a finished match ticking so the fireworks play out
	GameOverLinger = 3 * time.Second
)

var ErrDisconnected = errors.New("other peer disconnected")

// Link is the inbound side of a transport
type Link interface {
	Frames() <-chan string
	Done() <-chan struct{}
}

// Controller produces the input for one tick
type Controller interface {
	Input(s *game.Sim, dt float64) game.Input
}

// ControllerFunc adapts a function to Controller
type ControllerFunc func(s *game.Sim, dt float64) game.Input

func (f ControllerFunc) Input(s *game.Sim, dt float64) game.Input {
	return f(s, dt)
}

// Runner owns a Sim and drives it from one goroutine: inbound frames are
// applied as they arrive and the simulation advances on a fixed ticker.
type Runner struct {
	Sim  *game.Sim
	Link Link // nil for local play
	Ctrl Controller

	// Tick is the ticker period; zero means TickDuration
	Tick time.Duration
	// Step fixes the simulated ms per tick; zero uses wall-clock time
	Step float64
	// Linger is how long to keep ticking after game over; zero means GameOverLinger
	Linger time.Duration

	OnEvent func(game.Event)
	Log     zerolog.Logger

	ticks int
}

// Ticks returns the number of ticks run so far
func (r *Runner) Ticks() int {
	return r.ticks
}

// Run ticks the simulation until ctx is done, the link drops or the match
// has been over for Linger.
func (r *Runner) Run(ctx context.Context) error {
	period := r.Tick
	if period <= 0 {
		period = TickDuration
	}
	linger := r.Linger
	if linger <= 0 {
		linger = GameOverLinger
	}
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	var frames <-chan string
	var done <-chan struct{}
	if r.Link != nil {
		frames, done = r.Link.Frames(), r.Link.Done()
	}

	last := time.Now()
	var overFor time.Duration
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-done:
			return ErrDisconnected

		case frame := <-frames:
			r.Sim.Receive(frame)

		case now := <-ticker.C:
			dt := r.Step
			if dt <= 0 {
				dt = float64(now.Sub(last)) / float64(time.Millisecond)
			}
			last = now

			var in game.Input
			if r.Ctrl != nil {
				in = r.Ctrl.Input(r.Sim, dt)
			}
			r.Sim.Tick(dt, in)
			r.ticks++
			r.dispatch(r.Sim.DrainEvents())

			if r.Sim.GameOver() {
				overFor += time.Duration(dt * float64(time.Millisecond))
				if overFor >= linger {
					st := r.Sim.MatchState()
					r.Log.Info().Int("winner", st.Winner).Int("ticks", r.ticks).Msg("match over")
					return nil
				}
			}
		}
	}
}

func (r *Runner) dispatch(events []game.Event) {
	for _, e := range events {
		if r.OnEvent != nil {
			r.OnEvent(e)
			continue
		}
		if e.Kind == game.EventCaption {
			r.Log.Info().Msg(e.Text)
		} else {
			r.Log.Trace().Stringer("event", e.Kind).Float64("x", e.Pos.X).Float64("y", e.Pos.Y).Send()
		}
	}
}
