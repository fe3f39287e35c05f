package geo_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"tripweaver/internal/geo"
	"tripweaver/pkg/llm"
)

type fakeSkill struct {
	calls int
	resp  map[string]any
	err   error
}

func (f *fakeSkill) ExecuteSkill(context.Context, string, map[string]any) (map[string]any, error) {
	f.calls++
	return f.resp, f.err
}

type fakeChat struct {
	fn func(req llm.Request) (string, error)
}

func (f *fakeChat) CompleteJSON(_ context.Context, req llm.Request) (string, error) {
	return f.fn(req)
}

func newGeocoder(skill *fakeSkill, ai llm.ChatClientInterface) *geo.Geocoder {
	return geo.NewGeocoder(skill, "skill-id", ai, geo.NewMemoryCoordsCache(), zerolog.Nop())
}

func TestResolveBatch_FuzzyMatchPrefersLongestKey(t *testing.T) {
	skill := &fakeSkill{resp: map[string]any{
		"result": map[string]any{
			"data": map[string]any{
				"Park":                        map[string]any{"lat": 1.0, "lng": 1.0},
				"Park Hyatt Tokyo, Shinjuku":  map[string]any{"lat": 35.68, "lng": 139.69},
				"Completely Unrelated Museum": map[string]any{"lat": 9.0, "lng": 9.0},
			},
		},
	}}

	g := newGeocoder(skill, &fakeChat{})
	got, err := g.ResolveBatch(context.Background(), []geo.Query{{ID: "s1", Query: "Park Hyatt Tokyo"}})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	c, ok := got["s1"]
	if !ok {
		t.Fatal("query should resolve")
	}
	if c.Lat != 35.68 {
		t.Fatalf("short key must not shadow the longer match, got %+v", c)
	}
}

func TestResolveBatch_CacheShortCircuitsSkillCall(t *testing.T) {
	skill := &fakeSkill{resp: map[string]any{
		"data": map[string]any{"Colosseum, Rome": map[string]any{"lat": 41.89, "lng": 12.49}},
	}}
	g := newGeocoder(skill, &fakeChat{})

	q := []geo.Query{{ID: "a1", Query: "Colosseum, Rome"}}
	if _, err := g.ResolveBatch(context.Background(), q); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if _, err := g.ResolveBatch(context.Background(), q); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if skill.calls != 1 {
		t.Fatalf("second resolve should come from cache, skill ran %d times", skill.calls)
	}
}

func TestResolveBatch_LatitudeLongitudeShape(t *testing.T) {
	skill := &fakeSkill{resp: map[string]any{
		"Louvre, Paris": map[string]any{"latitude": 48.86, "longitude": 2.33},
	}}
	g := newGeocoder(skill, &fakeChat{})

	got, err := g.ResolveBatch(context.Background(), []geo.Query{{ID: "m1", Query: "Louvre, Paris"}})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if c := got["m1"]; c.Lat != 48.86 || c.Lng != 2.33 {
		t.Fatalf("latitude/longitude shape not accepted: %+v", c)
	}
}

func TestResolveWithLLM_ParsesIDMap(t *testing.T) {
	ai := &fakeChat{fn: func(llm.Request) (string, error) {
		return `{"x1": {"lat": 51.5, "lng": -0.12}, "x2": {"lat": 0, "lng": 0}}`, nil
	}}
	g := newGeocoder(&fakeSkill{}, ai)

	got, err := g.ResolveWithLLM(context.Background(), []geo.Query{
		{ID: "x1", Query: "Big Ben, London"},
		{ID: "x2", Query: "Nowhere"},
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if c := got["x1"]; c.Lat != 51.5 {
		t.Fatalf("x1 not resolved: %+v", got)
	}
	if _, ok := got["x2"]; ok {
		t.Fatal("sentinel coordinates must not count as resolved")
	}
}

func TestResolveCities_FallsBackToStaticTable(t *testing.T) {
	ai := &fakeChat{fn: func(llm.Request) (string, error) {
		return "", errors.New("model down")
	}}
	g := newGeocoder(&fakeSkill{}, ai)

	got := g.ResolveCities(context.Background(), []string{"Tokyo", "Atlantis"})
	if len(got) != 2 {
		t.Fatalf("every requested city must be present, got %d", len(got))
	}
	if got["Tokyo"].Lat != 35.6762 {
		t.Fatalf("Tokyo should come from the static table, got %+v", got["Tokyo"])
	}
	// unknown cities get the default center rather than a sentinel
	if got["Atlantis"].IsZero() {
		t.Fatal("unknown city must still get usable coordinates")
	}
}

func TestCityCenter_SubstringMatch(t *testing.T) {
	if c := geo.CityCenter("Tokyo, Japan"); c.Lat != 35.6762 {
		t.Fatalf("substring lookup failed: %+v", c)
	}
	if c := geo.CityCenter("Ulan Bator"); c.Lat != 48.8566 {
		t.Fatalf("unknown city should default to Paris, got %+v", c)
	}
}
