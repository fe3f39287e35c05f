package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"tripweaver/internal/models/trip_models"
	"tripweaver/pkg/llm"
)

// Query pairs an item id with the free-text string to geocode.
type Query struct {
	ID    string
	Query string
}

// ResolverInterface is the two-stage geocoder used by the fetch step plus
// the batched city resolver used by the curator.
type ResolverInterface interface {
	ResolveBatch(ctx context.Context, queries []Query) (map[string]trip_models.Coordinates, error)
	ResolveWithLLM(ctx context.Context, queries []Query) (map[string]trip_models.Coordinates, error)
	ResolveCities(ctx context.Context, cities []string) map[string]trip_models.Coordinates
}

// SkillExecutor invokes a remote browser-automation skill by id.
// Implemented by the providers package client.
type SkillExecutor interface {
	ExecuteSkill(ctx context.Context, skillID string, params map[string]any) (map[string]any, error)
}

type Geocoder struct {
	skills  SkillExecutor
	skillID string
	ai      llm.ChatClientInterface
	cache   CoordsCache
	log     zerolog.Logger
}

func NewGeocoder(skills SkillExecutor, skillID string, ai llm.ChatClientInterface, cache CoordsCache, log zerolog.Logger) *Geocoder {
	return &Geocoder{
		skills:  skills,
		skillID: skillID,
		ai:      ai,
		cache:   cache,
		log:     log.With().Str("component", "geocoder").Logger(),
	}
}

// ResolveBatch resolves queries through the external geocoding skill in a
// single call. Results are matched back to ids by exact key first, then by
// case-insensitive substring in either direction; when several keys
// contain the query the longest one wins, which keeps "Park Hyatt Tokyo"
// from being claimed by a bare "Park" entry.
func (g *Geocoder) ResolveBatch(ctx context.Context, queries []Query) (map[string]trip_models.Coordinates, error) {
	results := make(map[string]trip_models.Coordinates)
	var pending []Query
	for _, q := range queries {
		if coords, ok := g.cache.Get(q.Query); ok {
			results[q.ID] = coords
			continue
		}
		pending = append(pending, q)
	}
	if len(pending) == 0 {
		return results, nil
	}

	locations := make([]string, len(pending))
	for i, q := range pending {
		locations[i] = q.Query
	}

	raw, err := g.skills.ExecuteSkill(ctx, g.skillID, map[string]any{
		"parameter": map[string]any{"locations": locations},
	})
	if err != nil {
		return results, fmt.Errorf("batch geocode: %w", err)
	}

	data := geocodeMapFrom(raw)
	for _, q := range pending {
		key := matchKey(data, q.Query)
		if key == "" {
			continue
		}
		coords, ok := coordsFrom(data[key])
		if !ok {
			continue
		}
		results[q.ID] = coords
		g.cache.Put(q.Query, coords)
	}

	g.log.Debug().Int("requested", len(queries)).Int("resolved", len(results)).Msg("batch geocoding done")
	return results, nil
}

// ResolveWithLLM is the stage-2 fallback: the model is asked to map ids to
// coordinates from world knowledge. Generic queries ("Lunch") come back as
// the city center named in the query.
func (g *Geocoder) ResolveWithLLM(ctx context.Context, queries []Query) (map[string]trip_models.Coordinates, error) {
	results := make(map[string]trip_models.Coordinates)
	if len(queries) == 0 {
		return results, nil
	}

	var list strings.Builder
	for _, q := range queries {
		fmt.Fprintf(&list, "ID: %s | Query: %s\n", q.ID, q.Query)
	}

	system := fmt.Sprintf(`You are a Geocoding Engine.
INPUT:
%s
TASK: Return a JSON object mapping IDs to {lat, lng} coordinates.
Use your knowledge to provide the most accurate real-world coordinates for these places.
If generic (e.g. "Lunch"), provide coordinates for the city center mentioned in the query.
Return JSON ONLY.`, list.String())

	content, err := g.ai.CompleteJSON(ctx, llm.Request{
		System:      system,
		User:        "Geocode these items.",
		Temperature: 0.1,
	})
	if err != nil {
		return results, fmt.Errorf("llm geocode: %w", err)
	}

	var parsed map[string]json.RawMessage
	if err := json.Unmarshal([]byte(llm.CleanJSONResponse(content)), &parsed); err != nil {
		return results, fmt.Errorf("llm geocode parse: %w", err)
	}

	for _, q := range queries {
		raw, ok := parsed[q.ID]
		if !ok {
			continue
		}
		var anyVal any
		if err := json.Unmarshal(raw, &anyVal); err != nil {
			continue
		}
		coords, ok := coordsFrom(anyVal)
		if !ok {
			continue
		}
		results[q.ID] = coords
		g.cache.Put(q.Query, coords)
	}

	g.log.Debug().Int("requested", len(queries)).Int("resolved", len(results)).Msg("LLM fallback geocoding done")
	return results, nil
}

// ResolveCities geocodes the unique cities of a curated plan in one LLM
// call. Missing or failed entries fall back to the static table, so every
// requested city is present in the returned map.
func (g *Geocoder) ResolveCities(ctx context.Context, cities []string) map[string]trip_models.Coordinates {
	results := make(map[string]trip_models.Coordinates, len(cities))
	var pending []string
	for _, city := range cities {
		if coords, ok := g.cache.Get(city); ok {
			results[city] = coords
			continue
		}
		pending = append(pending, city)
	}

	if len(pending) > 0 {
		prompt := fmt.Sprintf(`Geocode these cities. Return a JSON object where each key is the city name and value is { "lat": number, "lng": number }.
Cities: %s
Return ONLY valid JSON, no explanation.`, strings.Join(pending, ", "))

		content, err := g.ai.CompleteJSON(ctx, llm.Request{User: prompt, Temperature: 0.1})
		if err != nil {
			g.log.Warn().Err(err).Msg("city geocoding failed, using static table")
		} else {
			var parsed map[string]any
			if err := json.Unmarshal([]byte(llm.CleanJSONResponse(content)), &parsed); err != nil {
				g.log.Warn().Err(err).Msg("city geocoding returned unparseable JSON")
			} else {
				for _, city := range pending {
					key := matchKey(parsed, city)
					if key == "" {
						continue
					}
					if coords, ok := coordsFrom(parsed[key]); ok {
						results[city] = coords
						g.cache.Put(city, coords)
					}
				}
			}
		}
	}

	for _, city := range cities {
		if _, ok := results[city]; !ok {
			results[city] = CityCenter(city)
		}
	}
	return results
}

// geocodeMapFrom unwraps the skill response, tolerating result.data, data
// and top-level nesting.
func geocodeMapFrom(raw map[string]any) map[string]any {
	if result, ok := raw["result"].(map[string]any); ok {
		if data, ok := result["data"].(map[string]any); ok {
			return data
		}
	}
	if data, ok := raw["data"].(map[string]any); ok {
		return data
	}
	return raw
}

// matchKey finds the response key for a query: exact match first, then
// bidirectional case-insensitive contains with the longest key winning.
func matchKey(data map[string]any, query string) string {
	if _, ok := data[query]; ok {
		return query
	}
	lower := strings.ToLower(query)
	best := ""
	for k := range data {
		kl := strings.ToLower(k)
		if strings.Contains(kl, lower) || strings.Contains(lower, kl) {
			if len(k) > len(best) {
				best = k
			}
		}
	}
	return best
}

// coordsFrom accepts {lat,lng} and {latitude,longitude} shapes.
func coordsFrom(v any) (trip_models.Coordinates, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return trip_models.Coordinates{}, false
	}
	lat, latOK := numberFrom(m["lat"])
	lng, lngOK := numberFrom(m["lng"])
	if !latOK || !lngOK {
		lat, latOK = numberFrom(m["latitude"])
		lng, lngOK = numberFrom(m["longitude"])
	}
	if !latOK || !lngOK {
		return trip_models.Coordinates{}, false
	}
	coords := trip_models.Coordinates{Lat: lat, Lng: lng}
	if coords.IsZero() {
		return trip_models.Coordinates{}, false
	}
	return coords, true
}

func numberFrom(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
