package workflow

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"
)

// Run is one durable workflow execution identified by its run id. Steps
// executed through Do record their output in the step store; re-executing
// the same run replays recorded outputs instead of running the step again.
type Run struct {
	ID    string
	store StepStore
	log   zerolog.Logger
}

func NewRun(id string, store StepStore, log zerolog.Logger) *Run {
	return &Run{
		ID:    id,
		store: store,
		log:   log.With().Str("component", "workflow").Str("run_id", id).Logger(),
	}
}

func (r *Run) Logger() zerolog.Logger { return r.log }

// Do executes a named step at most once per run. A previously completed
// step's recorded output is decoded and returned without calling fn. A
// step whose fn fails records nothing, so the next attempt re-runs it; a
// failed record write is fatal to the step for the same reason.
func Do[T any](ctx context.Context, r *Run, name string, fn func(context.Context) (T, error)) (T, error) {
	var zero T

	if raw, ok, err := r.store.Get(ctx, r.ID, name); err != nil {
		return zero, fmt.Errorf("step %q: read log: %w", name, err)
	} else if ok {
		var out T
		if err := json.Unmarshal(raw, &out); err != nil {
			return zero, fmt.Errorf("step %q: decode recorded output: %w", name, err)
		}
		r.log.Debug().Str("step", name).Msg("replaying completed step")
		return out, nil
	}

	r.log.Info().Str("step", name).Msg("executing step")
	out, err := fn(ctx)
	if err != nil {
		return zero, fmt.Errorf("step %q: %w", name, err)
	}

	raw, err := json.Marshal(out)
	if err != nil {
		return zero, fmt.Errorf("step %q: encode output: %w", name, err)
	}
	if err := r.store.Put(ctx, r.ID, name, raw); err != nil {
		return zero, fmt.Errorf("step %q: record output: %w", name, err)
	}

	r.log.Info().Str("step", name).Msg("step complete")
	return out, nil
}
