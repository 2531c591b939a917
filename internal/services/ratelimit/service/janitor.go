package service

import (
	"context"
	"time"

	"bunshare/internal/platform/logger"
	ptime "bunshare/internal/platform/time"
)

// Sweeper evicts expired windows
type Sweeper interface {
	Sweep(ctx context.Context, now time.Time) (int, error)
}

// Janitor sweeps a store on an interval. It is a suture service.
type Janitor struct {
	s     Sweeper
	every time.Duration
	clock ptime.Clock
	log   *logger.Logger
}

// NewJanitor sweeps s every interval (default 5m)
func NewJanitor(s Sweeper, every time.Duration, clock ptime.Clock) *Janitor {
	if every <= 0 {
		every = 5 * time.Minute
	}
	if clock == nil {
		clock = ptime.System{}
	}
	return &Janitor{s: s, every: every, clock: clock, log: logger.Named("ratelimit-janitor")}
}

// Serve sweeps until ctx is done
func (j *Janitor) Serve(ctx context.Context) error {
	t := time.NewTicker(j.every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			_, _ = j.SweepOnce(ctx)
		}
	}
}

// SweepOnce runs one sweep and logs the result
func (j *Janitor) SweepOnce(ctx context.Context) (int, error) {
	n, err := j.s.Sweep(ctx, j.clock.Now())
	if err != nil {
		j.log.Warn().Err(err).Msg("rate limit sweep failed")
		return 0, err
	}
	if n > 0 {
		j.log.Debug().Int("evicted", n).Msg("rate limit windows swept")
	}
	return n, nil
}

func (j *Janitor) String() string { return "ratelimit-janitor" }
