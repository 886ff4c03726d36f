package deploy

import (
	"context"
	"time"

	"github.com/arthur-debert/revlink/pkg/errors"
	"github.com/arthur-debert/revlink/pkg/logging"
	"github.com/rs/zerolog"
)

// Updater runs one update cycle.
type Updater interface {
	Update(ctx context.Context) error
}

// Runner invokes an Updater immediately and then on every interval tick,
// one cycle at a time, until its context ends.
type Runner struct {
	updater  Updater
	interval time.Duration
	trigger  chan struct{}
	logger   zerolog.Logger
}

// NewRunner returns a Runner for u.
func NewRunner(u Updater, interval time.Duration) *Runner {
	return &Runner{
		updater:  u,
		interval: interval,
		trigger:  make(chan struct{}, 1),
		logger:   logging.GetLogger("runner"),
	}
}

// Trigger asks for an extra cycle as soon as the current one finishes.
// Requests made while one is already pending are merged.
func (r *Runner) Trigger() {
	select {
	case r.trigger <- struct{}{}:
	default:
	}
}

// Run blocks until ctx is done. Failed cycles are logged and do not stop
// the loop.
func (r *Runner) Run(ctx context.Context) error {
	if r.interval <= 0 {
		return errors.Newf(errors.ErrInvalidInput, "runner interval must be positive, got %s", r.interval)
	}

	r.logger.Info().Dur("interval", r.interval).Msg("Runner started")
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.cycle(ctx, "start")
	for {
		select {
		case <-ctx.Done():
			r.logger.Info().Msg("Runner stopped")
			return nil
		case <-ticker.C:
			r.cycle(ctx, "tick")
		case <-r.trigger:
			r.cycle(ctx, "trigger")
		}
	}
}

func (r *Runner) cycle(ctx context.Context, reason string) {
	if ctx.Err() != nil {
		return
	}
	if err := r.updater.Update(ctx); err != nil {
		// The updater logs details; this records that the loop carries on.
		r.logger.Debug().
			Str("reason", reason).
			Str("code", string(errors.GetErrorCode(err))).
			Msg("Cycle failed, waiting for next run")
		return
	}
	r.logger.Debug().Str("reason", reason).Msg("Cycle finished")
}
