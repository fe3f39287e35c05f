package workflow

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Runner retries a whole run function with backoff. Because completed
// steps replay from the store, a retried run only re-executes steps that
// had not finished.
type Runner struct {
	maxAttempts int
	backoff     time.Duration
	log         zerolog.Logger
}

func NewRunner(maxAttempts int, backoff time.Duration, log zerolog.Logger) *Runner {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if backoff <= 0 {
		backoff = time.Second
	}
	return &Runner{
		maxAttempts: maxAttempts,
		backoff:     backoff,
		log:         log.With().Str("component", "workflow_runner").Logger(),
	}
}

func (r *Runner) Execute(ctx context.Context, run *Run, fn func(context.Context) error) error {
	var lastErr error
	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		r.log.Warn().Err(lastErr).Str("run_id", run.ID).Int("attempt", attempt).Msg("workflow attempt failed")

		if attempt < r.maxAttempts {
			t := time.NewTimer(r.backoff * time.Duration(attempt))
			select {
			case <-ctx.Done():
				t.Stop()
				return ctx.Err()
			case <-t.C:
			}
		}
	}
	return lastErr
}
