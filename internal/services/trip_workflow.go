package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"tripweaver/internal/cache"
	"tripweaver/internal/models/trip_models"
	"tripweaver/internal/workflow"
	"tripweaver/pkg/utils"
)

// demoFlag in the user prompt is stripped before any model sees it and
// instead marks the resulting plan as a demo.
const demoFlag = "--demo"

// TripPlannerInterface drives one trip through the four durable steps:
// generate-skeleton, fetch-options, curate-itinerary, save-state. Each
// step's output is checkpointed, so a retried run only pays for the steps
// that had not completed.
type TripPlannerInterface interface {
	PlanTrip(ctx context.Context, run *workflow.Run, req trip_models.TripRequest) (trip_models.CuratedItinerary, error)
}

type TripPlanner struct {
	skeleton SkeletonServiceInterface
	options  OptionsServiceInterface
	curator  CuratorServiceInterface
	cache    cache.TripCache
	ttlSec   int
	now      func() time.Time
	log      zerolog.Logger
}

func NewTripPlanner(
	skeleton SkeletonServiceInterface,
	options OptionsServiceInterface,
	curator CuratorServiceInterface,
	tripCache cache.TripCache,
	ttlSec int,
	log zerolog.Logger,
) TripPlannerInterface {
	return &TripPlanner{
		skeleton: skeleton,
		options:  options,
		curator:  curator,
		cache:    tripCache,
		ttlSec:   ttlSec,
		now:      time.Now,
		log:      log.With().Str("component", "planner").Logger(),
	}
}

type saveResult struct {
	Saved  bool   `json:"saved"`
	TripID string `json:"tripId"`
}

func (p *TripPlanner) PlanTrip(ctx context.Context, run *workflow.Run, req trip_models.TripRequest) (trip_models.CuratedItinerary, error) {
	var empty trip_models.CuratedItinerary

	isDemo := strings.Contains(req.UserPrompt, demoFlag)
	cleanPrompt := strings.TrimSpace(strings.ReplaceAll(req.UserPrompt, demoFlag, ""))

	tripID := req.TripID
	if tripID == "" {
		tripID = run.ID
	}

	today := p.now().UTC()

	skeletonResult, err := workflow.Do(ctx, run, "generate-skeleton", func(ctx context.Context) (trip_models.SkeletonResult, error) {
		return p.skeleton.GenerateSkeleton(ctx, cleanPrompt, today), nil
	})
	if err != nil {
		return empty, err
	}

	options, err := workflow.Do(ctx, run, "fetch-options", func(ctx context.Context) (trip_models.FetchedOptions, error) {
		return p.options.FetchOptions(ctx, skeletonResult.Skeleton, skeletonResult.TripParams), nil
	})
	if err != nil {
		return empty, err
	}

	plan, err := workflow.Do(ctx, run, "curate-itinerary", func(ctx context.Context) (trip_models.CuratedItinerary, error) {
		return p.curator.Curate(ctx, CurateInput{
			Skeleton:   skeletonResult.Skeleton,
			TripParams: skeletonResult.TripParams,
			Options:    options,
			UserPrompt: cleanPrompt,
			TripID:     tripID,
			IsDemo:     isDemo,
		}), nil
	})
	if err != nil {
		return empty, err
	}

	_, err = workflow.Do(ctx, run, "save-state", func(ctx context.Context) (saveResult, error) {
		if err := p.cache.Set(ctx, plan.ID, plan, p.ttlSec); err != nil {
			return saveResult{}, fmt.Errorf("%w: %v", utils.ErrCacheWrite, err)
		}
		p.log.Info().Str("trip_id", plan.ID).Int("ttl_sec", p.ttlSec).Msg("itinerary saved")
		return saveResult{Saved: true, TripID: plan.ID}, nil
	})
	if err != nil {
		return empty, err
	}

	return plan, nil
}
