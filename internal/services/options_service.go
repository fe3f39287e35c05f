package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"tripweaver/internal/geo"
	"tripweaver/internal/models/trip_models"
	"tripweaver/internal/providers"
	"tripweaver/pkg/utils"
)

// llmGeocodeThreshold bounds how many residual items the stage-2 LLM
// fallback is allowed to handle, capping worst-case model cost per segment.
const llmGeocodeThreshold = 10

// OptionsServiceInterface fetches and cleans lodging and activity
// candidates for every skeleton segment. Best effort throughout: provider
// and geocoding failures shrink the result, they never abort it.
type OptionsServiceInterface interface {
	FetchOptions(ctx context.Context, skeleton []trip_models.TripSegment, params trip_models.TripParams) trip_models.FetchedOptions
}

type OptionsService struct {
	stays         []providers.StayProvider
	activities    []providers.ActivityProvider
	geo           geo.ResolverInterface
	maxActivities int
	minActivities int
	log           zerolog.Logger
}

func NewOptionsService(
	stays []providers.StayProvider,
	activities []providers.ActivityProvider,
	resolver geo.ResolverInterface,
	maxActivities, minActivities int,
	log zerolog.Logger,
) OptionsServiceInterface {
	return &OptionsService{
		stays:         stays,
		activities:    activities,
		geo:           resolver,
		maxActivities: maxActivities,
		minActivities: minActivities,
		log:           log.With().Str("component", "options").Logger(),
	}
}

// FetchOptions walks the segments one at a time. Serialization between
// segments is deliberate: the providers share rate limits, and fanning out
// across segments multiplies concurrent pressure by segment count.
func (s *OptionsService) FetchOptions(ctx context.Context, skeleton []trip_models.TripSegment, params trip_models.TripParams) trip_models.FetchedOptions {
	out := trip_models.FetchedOptions{
		SegmentsData: make([]trip_models.SegmentData, 0, len(skeleton)),
	}

	for _, seg := range skeleton {
		data := s.fetchSegment(ctx, seg, params)
		out.SegmentsData = append(out.SegmentsData, data)
		out.TotalStays += len(data.Stays)
		out.TotalActivities += len(data.Activities)
	}

	s.log.Info().
		Int("segments", len(skeleton)).
		Int("stays", out.TotalStays).
		Int("activities", out.TotalActivities).
		Msg("options fetched")
	return out
}

func (s *OptionsService) fetchSegment(ctx context.Context, seg trip_models.TripSegment, params trip_models.TripParams) trip_models.SegmentData {
	stays, activities := s.gatherItems(ctx, seg, params)

	// Filter out stays above the nightly ceiling before spending geocoding
	// effort on them.
	nightlyCeiling := params.BudgetUSD / 7
	affordable := stays[:0]
	for _, stay := range stays {
		if stay.Price <= nightlyCeiling {
			affordable = append(affordable, stay)
		}
	}
	stays = affordable

	activities = DedupeItems(activities)
	activities = utils.Shuffle(activities)
	if len(activities) > s.maxActivities {
		activities = activities[:s.maxActivities]
	}

	stays, activities = s.healCoordinates(ctx, seg.Location, stays, activities)

	return trip_models.SegmentData{Segment: seg, Stays: stays, Activities: activities}
}

// gatherItems runs every provider concurrently for one segment. A failing
// provider contributes nothing instead of failing the segment, so the
// group never reports an error.
func (s *OptionsService) gatherItems(ctx context.Context, seg trip_models.TripSegment, params trip_models.TripParams) ([]trip_models.TripItem, []trip_models.TripItem) {
	var (
		mu         sync.Mutex
		stays      []trip_models.TripItem
		activities []trip_models.TripItem
	)

	g, ctx := errgroup.WithContext(ctx)
	for _, p := range s.stays {
		p := p
		g.Go(func() error {
			items, err := p.FetchStays(ctx, seg.Location, seg.CheckIn, seg.CheckOut, params.Travelers)
			if err != nil {
				s.log.Warn().Err(err).Str("provider", p.Name()).Str("location", seg.Location).Msg("stay fetch failed")
				return nil
			}
			mu.Lock()
			stays = append(stays, items...)
			mu.Unlock()
			return nil
		})
	}

	for _, p := range s.activities {
		p := p
		g.Go(func() error {
			items, err := p.FetchActivities(ctx, seg.Location)
			if err != nil {
				s.log.Warn().Err(err).Str("provider", p.Name()).Str("location", seg.Location).Msg("activity fetch failed")
				return nil
			}
			mu.Lock()
			activities = append(activities, items...)
			mu.Unlock()
			return nil
		})
	}

	_ = g.Wait()
	return stays, activities
}

// healCoordinates runs the two-stage geocoder over every item carrying
// sentinel coordinates. Stays that stay unresolved are dropped; activities
// are topped up with jittered city-center pins so the map always has
// enough to render.
func (s *OptionsService) healCoordinates(ctx context.Context, city string, stays, activities []trip_models.TripItem) ([]trip_models.TripItem, []trip_models.TripItem) {
	type slot struct {
		items []trip_models.TripItem
		idx   int
	}
	pending := make(map[string]slot)
	var queries []geo.Query

	collect := func(items []trip_models.TripItem) {
		for i, item := range items {
			if !item.Coordinates.IsZero() {
				continue
			}
			q := geo.Query{ID: item.ID, Query: fmt.Sprintf("%s, %s", item.Name, city)}
			queries = append(queries, q)
			pending[item.ID] = slot{items: items, idx: i}
		}
	}
	collect(stays)
	collect(activities)

	if len(queries) > 0 {
		resolved, err := s.geo.ResolveBatch(ctx, queries)
		if err != nil {
			s.log.Warn().Err(err).Str("city", city).Msg("batch geocoding failed")
		}
		apply := func(coords map[string]trip_models.Coordinates) {
			for id, c := range coords {
				if sl, ok := pending[id]; ok {
					sl.items[sl.idx].Coordinates = c
					delete(pending, id)
				}
			}
		}
		apply(resolved)

		if n := len(pending); n > 0 && n <= llmGeocodeThreshold {
			var residual []geo.Query
			for _, q := range queries {
				if _, ok := pending[q.ID]; ok {
					residual = append(residual, q)
				}
			}
			fallback, err := s.geo.ResolveWithLLM(ctx, residual)
			if err != nil {
				s.log.Warn().Err(err).Str("city", city).Msg("LLM fallback geocoding failed")
			}
			apply(fallback)
		}
	}

	validStays := make([]trip_models.TripItem, 0, len(stays))
	for _, stay := range stays {
		if !stay.Coordinates.IsZero() {
			validStays = append(validStays, stay)
		}
	}

	validActivities := make([]trip_models.TripItem, 0, len(activities))
	var unresolved []trip_models.TripItem
	for _, act := range activities {
		if act.Coordinates.IsZero() {
			unresolved = append(unresolved, act)
			continue
		}
		validActivities = append(validActivities, act)
	}

	// Force-include jittered city-center activities when geocoding left too
	// few pins for a usable day.
	if len(validActivities) < s.minActivities {
		center := geo.CityCenter(city)
		for _, act := range unresolved {
			if len(validActivities) >= s.minActivities {
				break
			}
			act.Coordinates = geo.Jitter(center, 0.02)
			act.IsEstimate = true
			validActivities = append(validActivities, act)
		}
	}

	if dropped := len(stays) - len(validStays); dropped > 0 {
		s.log.Debug().Int("dropped", dropped).Str("city", city).Msg("stays without coordinates dropped")
	}

	return utils.Shuffle(validStays), validActivities
}
