package services_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"tripweaver/internal/cache"
	"tripweaver/internal/models/trip_models"
	"tripweaver/internal/services"
	"tripweaver/internal/workflow"
)

type countingSkeleton struct {
	calls  int
	prompt string
}

func (c *countingSkeleton) GenerateSkeleton(_ context.Context, prompt string, _ time.Time) trip_models.SkeletonResult {
	c.calls++
	c.prompt = prompt
	return trip_models.SkeletonResult{
		Skeleton: []trip_models.TripSegment{
			{Order: 1, Location: "Rome", CheckIn: "2026-09-01", CheckOut: "2026-09-03"},
		},
		TripParams: trip_models.TripParams{Destination: "Rome", Travelers: 2, BudgetUSD: 2000},
	}
}

type countingOptions struct {
	calls int
}

func (c *countingOptions) FetchOptions(_ context.Context, skeleton []trip_models.TripSegment, _ trip_models.TripParams) trip_models.FetchedOptions {
	c.calls++
	return trip_models.FetchedOptions{
		SegmentsData: []trip_models.SegmentData{{Segment: skeleton[0]}},
	}
}

type countingCurator struct {
	calls int
	last  services.CurateInput
}

func (c *countingCurator) Curate(_ context.Context, in services.CurateInput) trip_models.CuratedItinerary {
	c.calls++
	c.last = in
	return trip_models.CuratedItinerary{
		ID:          in.TripID,
		Destination: "Rome",
		TotalBudget: 420,
		Currency:    "USD",
		Travelers:   2,
		Days:        []trip_models.ItineraryDay{{Day: 1, Date: "2026-09-01", Location: "Rome"}},
		IsDemo:      in.IsDemo,
	}
}

// flakyCache fails writes until healed, simulating a transient redis
// outage during save-state.
type flakyCache struct {
	*cache.MemoryTripCache
	failing bool
}

func (f *flakyCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	if f.failing {
		return errors.New("cache unavailable")
	}
	return f.MemoryTripCache.Set(ctx, key, v, ttlSec)
}

func TestPlanTrip_RunsAllStepsAndSaves(t *testing.T) {
	skeleton := &countingSkeleton{}
	options := &countingOptions{}
	curator := &countingCurator{}
	tripCache := cache.NewMemoryTripCache()

	planner := services.NewTripPlanner(skeleton, options, curator, tripCache, 604800, zerolog.Nop())
	run := workflow.NewRun("trip-xyz", workflow.NewMemoryStepStore(), zerolog.Nop())

	req := trip_models.TripRequest{TripID: "trip-xyz", UserPrompt: "3 days in Rome --demo"}
	plan, err := planner.PlanTrip(context.Background(), run, req)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	if !plan.IsDemo {
		t.Fatal("--demo in the prompt must mark the plan as demo")
	}
	if strings.Contains(skeleton.prompt, "--demo") {
		t.Fatalf("demo flag must be stripped before the model sees the prompt: %q", skeleton.prompt)
	}
	if strings.Contains(curator.last.UserPrompt, "--demo") {
		t.Fatalf("demo flag leaked into the curator prompt: %q", curator.last.UserPrompt)
	}

	var saved trip_models.CuratedItinerary
	found, err := tripCache.Get(context.Background(), "trip-xyz", &saved)
	if err != nil || !found {
		t.Fatalf("itinerary should be cached under the trip id (found=%v err=%v)", found, err)
	}
	if saved.TotalBudget != 420 {
		t.Fatalf("cached plan differs from the returned one: %+v", saved)
	}
}

func TestPlanTrip_ReplaySkipsCompletedSteps(t *testing.T) {
	skeleton := &countingSkeleton{}
	options := &countingOptions{}
	curator := &countingCurator{}
	store := workflow.NewMemoryStepStore()
	tripCache := cache.NewMemoryTripCache()

	planner := services.NewTripPlanner(skeleton, options, curator, tripCache, 604800, zerolog.Nop())
	req := trip_models.TripRequest{TripID: "trip-replay", UserPrompt: "Rome"}

	for i := 0; i < 2; i++ {
		run := workflow.NewRun("trip-replay", store, zerolog.Nop())
		if _, err := planner.PlanTrip(context.Background(), run, req); err != nil {
			t.Fatalf("attempt %d: unexpected err: %v", i, err)
		}
	}

	if skeleton.calls != 1 || options.calls != 1 || curator.calls != 1 {
		t.Fatalf("completed steps must replay, not re-run: skeleton=%d options=%d curator=%d",
			skeleton.calls, options.calls, curator.calls)
	}
}

func TestPlanTrip_SaveFailureRetriesOnlySave(t *testing.T) {
	skeleton := &countingSkeleton{}
	options := &countingOptions{}
	curator := &countingCurator{}
	store := workflow.NewMemoryStepStore()
	tripCache := &flakyCache{MemoryTripCache: cache.NewMemoryTripCache(), failing: true}

	planner := services.NewTripPlanner(skeleton, options, curator, tripCache, 604800, zerolog.Nop())
	req := trip_models.TripRequest{TripID: "trip-flaky", UserPrompt: "Rome"}

	run := workflow.NewRun("trip-flaky", store, zerolog.Nop())
	if _, err := planner.PlanTrip(context.Background(), run, req); err == nil {
		t.Fatal("expected error while cache is down")
	}

	tripCache.failing = false
	run = workflow.NewRun("trip-flaky", store, zerolog.Nop())
	if _, err := planner.PlanTrip(context.Background(), run, req); err != nil {
		t.Fatalf("retry should succeed: %v", err)
	}

	if curator.calls != 1 {
		t.Fatalf("curation already completed and must not re-run, got %d calls", curator.calls)
	}
	var saved trip_models.CuratedItinerary
	if found, _ := tripCache.Get(context.Background(), "trip-flaky", &saved); !found {
		t.Fatal("itinerary should be cached after the retry")
	}
}
