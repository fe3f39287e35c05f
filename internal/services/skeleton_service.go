package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"tripweaver/internal/models/trip_models"
	"tripweaver/pkg/llm"
)

const dateLayout = "2006-01-02"

const skeletonSchema = `[
  {
    "order": number,
    "location": "string - CITY NAME ONLY, e.g. 'Tokyo' or 'Paris'",
    "checkIn": "string - YYYY-MM-DD format",
    "checkOut": "string - YYYY-MM-DD format",
    "searchQueries": {
      "stays": "string - hotel search query",
      "activityKeywords": ["array of attractions/activities"]
    }
  }
]`

const tripParamsSchema = `{
  "destination": "string - the destination city/country",
  "originCity": "string | null - the origin city if mentioned",
  "startDate": "string - YYYY-MM-DD format",
  "endDate": "string - YYYY-MM-DD format",
  "travelers": "number - default 2",
  "budgetUSD": "number - default 3000",
  "tripVibe": "string[] - e.g. ['romantic', 'adventure']"
}`

// SkeletonServiceInterface converts a free-text trip request into dated
// city segments plus trip-wide parameters. It never fails: any model or
// parse error degrades to a heuristic single-segment skeleton.
type SkeletonServiceInterface interface {
	GenerateSkeleton(ctx context.Context, prompt string, today time.Time) trip_models.SkeletonResult
}

type SkeletonService struct {
	ai  llm.ChatClientInterface
	log zerolog.Logger
}

func NewSkeletonService(ai llm.ChatClientInterface, log zerolog.Logger) SkeletonServiceInterface {
	return &SkeletonService{
		ai:  ai,
		log: log.With().Str("component", "skeleton").Logger(),
	}
}

func (s *SkeletonService) GenerateSkeleton(ctx context.Context, prompt string, today time.Time) trip_models.SkeletonResult {
	todayStr := today.Format(dateLayout)

	segments, err := s.generateSegments(ctx, prompt, todayStr)
	if err != nil || len(segments) == 0 {
		s.log.Warn().Err(err).Msg("segment generation failed, using heuristic fallback")
		return fallbackSkeleton(prompt, today)
	}

	params, err := s.generateParams(ctx, prompt, todayStr)
	if err != nil {
		s.log.Warn().Err(err).Msg("trip param extraction failed, using defaults")
		params = defaultTripParams(todayStr)
		params.StartDate = segments[0].CheckIn
		params.EndDate = segments[len(segments)-1].CheckOut
	}

	s.log.Info().Int("segments", len(segments)).Int("travelers", params.Travelers).Msg("skeleton generated")
	return trip_models.SkeletonResult{Skeleton: segments, TripParams: params}
}

func (s *SkeletonService) generateSegments(ctx context.Context, prompt, todayStr string) ([]trip_models.TripSegment, error) {
	system := fmt.Sprintf(`You are a Travel Logistics Architect. Today's date is %s.

INPUT: A user's travel request (e.g., "10 days in Japan").

OUTPUT: A strict JSON array of TripSegments that breaks the trip into logical city/region hops with specific dates.

SCHEMA:
%s

RULES:
1. Break multi-city trips into separate segments.
2. Calculate specific dates based on today's date.
3. For stays search queries, be specific about neighborhood/area.
4. For activity keywords, include specific attractions, landmarks.
5. Each segment should be 2-4 nights unless specified.
6. Order segments logically for efficient travel.
7. Return ONLY the JSON array, no additional text.`, todayStr, skeletonSchema)

	content, err := s.ai.CompleteJSON(ctx, llm.Request{
		System:      system,
		User:        prompt,
		Temperature: 0.3,
		MaxTokens:   2000,
	})
	if err != nil {
		return nil, err
	}

	return normalizeSegments(llm.CleanJSONResponse(content), todayStr)
}

func (s *SkeletonService) generateParams(ctx context.Context, prompt, todayStr string) (trip_models.TripParams, error) {
	system := fmt.Sprintf(`You are a precise API parameter extractor. Today is %s.

Convert the user's travel request into a valid JSON object matching this schema:
%s

Important rules:
1. If dates are relative, calculate exact YYYY-MM-DD dates.
2. Default travelers to 2 if not specified.
3. Default budgetUSD to 3000 if not specified.
4. Return ONLY the JSON object, no additional text.`, todayStr, tripParamsSchema)

	content, err := s.ai.CompleteJSON(ctx, llm.Request{
		System:      system,
		User:        prompt,
		Temperature: 0.1,
		MaxTokens:   500,
	})
	if err != nil {
		return trip_models.TripParams{}, err
	}

	var parsed trip_models.TripParams
	if err := json.Unmarshal([]byte(llm.CleanJSONResponse(content)), &parsed); err != nil {
		return trip_models.TripParams{}, fmt.Errorf("parse trip params: %w", err)
	}

	defaults := defaultTripParams(todayStr)
	if parsed.Destination == "" {
		parsed.Destination = defaults.Destination
	}
	if parsed.StartDate == "" {
		parsed.StartDate = defaults.StartDate
	}
	if parsed.EndDate == "" {
		parsed.EndDate = defaults.EndDate
	}
	if parsed.Travelers <= 0 {
		parsed.Travelers = defaults.Travelers
	}
	if parsed.BudgetUSD <= 0 {
		parsed.BudgetUSD = defaults.BudgetUSD
	}
	if parsed.TripVibe == nil {
		parsed.TripVibe = []string{}
	}
	return parsed, nil
}

// normalizeSegments tolerates every shape models actually return: a bare
// array, an object wrapping the array under a handful of keys, or a single
// segment object. Every field is defaulted individually.
func normalizeSegments(raw, todayStr string) ([]trip_models.TripSegment, error) {
	var payload any
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, fmt.Errorf("parse skeleton: %w", err)
	}

	var elems []any
	switch v := payload.(type) {
	case []any:
		elems = v
	case map[string]any:
		for _, key := range []string{"segments", "tripSegments", "trip_segments", "data"} {
			if arr, ok := v[key].([]any); ok {
				elems = arr
				break
			}
		}
		if elems == nil {
			// degenerate case: a single segment object
			elems = []any{v}
		}
	default:
		return nil, fmt.Errorf("parse skeleton: unexpected JSON shape")
	}

	segments := make([]trip_models.TripSegment, 0, len(elems))
	for i, e := range elems {
		m, ok := e.(map[string]any)
		if !ok {
			continue
		}

		seg := trip_models.TripSegment{
			Order:    i + 1,
			Location: "Unknown",
			CheckIn:  todayStr,
			CheckOut: todayStr,
		}
		if order, ok := m["order"].(float64); ok && order > 0 {
			seg.Order = int(order)
		}
		if loc, ok := m["location"].(string); ok && loc != "" {
			seg.Location = loc
		}
		if v, ok := firstString(m, "checkIn", "check_in"); ok {
			seg.CheckIn = v
		}
		if v, ok := firstString(m, "checkOut", "check_out"); ok {
			seg.CheckOut = v
		}

		seg.SearchQueries.Stays = "Hotels in " + seg.Location
		seg.SearchQueries.ActivityKeywords = []string{}
		if sq, ok := m["searchQueries"].(map[string]any); ok {
			if stays, ok := sq["stays"].(string); ok && stays != "" {
				seg.SearchQueries.Stays = stays
			}
			if kws, ok := sq["activityKeywords"].([]any); ok {
				for _, kw := range kws {
					if s, ok := kw.(string); ok {
						seg.SearchQueries.ActivityKeywords = append(seg.SearchQueries.ActivityKeywords, s)
					}
				}
			}
		}

		segments = append(segments, seg)
	}

	return segments, nil
}

func firstString(m map[string]any, keys ...string) (string, bool) {
	for _, k := range keys {
		if s, ok := m[k].(string); ok && s != "" {
			return s, true
		}
	}
	return "", false
}

// fallbackSkeleton builds a single-city 7-day skeleton from naive
// heuristics so the pipeline always has something to work with.
func fallbackSkeleton(prompt string, today time.Time) trip_models.SkeletonResult {
	destination := "Unknown"
	words := strings.Fields(strings.TrimSpace(prompt))
	if len(words) > 0 {
		destination = strings.Trim(words[len(words)-1], ".,!?\"'")
	}

	todayStr := today.Format(dateLayout)
	endStr := today.AddDate(0, 0, 7).Format(dateLayout)

	segment := trip_models.TripSegment{
		Order:    1,
		Location: destination,
		CheckIn:  todayStr,
		CheckOut: endStr,
		SearchQueries: trip_models.SearchQueries{
			Stays:            "Hotels in " + destination,
			ActivityKeywords: []string{},
		},
	}

	params := defaultTripParams(todayStr)
	params.Destination = destination
	params.EndDate = endStr

	return trip_models.SkeletonResult{
		Skeleton:   []trip_models.TripSegment{segment},
		TripParams: params,
	}
}

func defaultTripParams(todayStr string) trip_models.TripParams {
	return trip_models.TripParams{
		Destination: "Unknown",
		StartDate:   todayStr,
		EndDate:     todayStr,
		Travelers:   2,
		BudgetUSD:   3000,
		TripVibe:    []string{},
	}
}
