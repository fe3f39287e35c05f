package providers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"tripweaver/internal/providers"
)

func skillServer(t *testing.T, payload map[string]any, capture *map[string]any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("X-Browser-Use-API-Key"); got != "test-key" {
			t.Errorf("missing api key header, got %q", got)
		}
		if !strings.Contains(r.URL.Path, "/skills/") || !strings.HasSuffix(r.URL.Path, "/execute") {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if capture != nil {
			var body map[string]any
			_ = json.NewDecoder(r.Body).Decode(&body)
			*capture, _ = body["parameters"].(map[string]any)
		}
		_ = json.NewEncoder(w).Encode(payload)
	}))
}

func newTestClient(base string) *providers.Client {
	return providers.NewClient(base, "test-key", 100, zerolog.Nop())
}

func TestAirbnbProvider_ParsesNestedListings(t *testing.T) {
	var params map[string]any
	ts := skillServer(t, map[string]any{
		"result": map[string]any{
			"data": map[string]any{
				"listings": []any{
					map[string]any{
						"title":       "Cozy Trastevere Flat",
						"price_total": "$1,250.00",
						"latitude":    41.88,
						"longitude":   12.47,
						"url":         "https://airbnb.example/1",
						"rating":      4.9,
						"photos":      []any{"https://img.example/1.jpg"},
					},
				},
			},
		},
	}, &params)
	defer ts.Close()

	p := providers.NewAirbnbProvider(newTestClient(ts.URL), "skill-a")
	got, err := p.FetchStays(context.Background(), "Rome", "2026-09-01", "2026-09-04", 2)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 listing, got %d", len(got))
	}

	item := got[0]
	if !strings.HasPrefix(item.ID, "airbnb_0_") {
		t.Fatalf("unexpected id %q", item.ID)
	}
	if item.Price != 1250 {
		t.Fatalf("price string not parsed, got %v", item.Price)
	}
	if item.Coordinates.Lat != 41.88 || item.ImageURL != "https://img.example/1.jpg" {
		t.Fatalf("listing fields not mapped: %+v", item)
	}
	if params["location"] != "Rome" || params["guests"] != 2.0 {
		t.Fatalf("unexpected request params: %v", params)
	}
}

func TestBookingProvider_TopLevelHotels(t *testing.T) {
	ts := skillServer(t, map[string]any{
		"hotels": []any{
			map[string]any{
				"name":         "Grand Hotel Roma",
				"property_id":  "987",
				"price":        map[string]any{"amount": 210.0},
				"review_score": 8.4,
				"latitude":     41.9,
				"longitude":    12.5,
			},
		},
	}, nil)
	defer ts.Close()

	p := providers.NewBookingProvider(newTestClient(ts.URL), "skill-b")
	got, err := p.FetchStays(context.Background(), "Rome", "2026-09-01", "2026-09-04", 2)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(got) != 1 || got[0].ID != "booking-987" {
		t.Fatalf("unexpected result: %+v", got)
	}
	if got[0].Rating != 8.4 || got[0].Price != 210 {
		t.Fatalf("fields not mapped: %+v", got[0])
	}
}

func TestHeadoutProvider_DefaultsDuration(t *testing.T) {
	ts := skillServer(t, map[string]any{
		"data": map[string]any{
			"activities": []any{
				map[string]any{"name": "Colosseum Tour", "id": "55", "price": 48.0},
			},
		},
	}, nil)
	defer ts.Close()

	p := providers.NewHeadoutProvider(newTestClient(ts.URL), "skill-h")
	got, err := p.FetchActivities(context.Background(), "Rome")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(got) != 1 || got[0].ID != "headout-55" {
		t.Fatalf("unexpected result: %+v", got)
	}
	if got[0].Duration != "Varies" {
		t.Fatalf("missing duration should default, got %q", got[0].Duration)
	}
	if !got[0].Coordinates.IsZero() {
		t.Fatalf("no coordinates in payload should leave the sentinel, got %+v", got[0].Coordinates)
	}
}

func TestKlookProvider_SentinelCoordsAndFallbackURL(t *testing.T) {
	ts := skillServer(t, map[string]any{
		"result": map[string]any{
			"data": map[string]any{
				"activities": []any{
					map[string]any{"title": "Street Food Crawl", "price": "35"},
				},
			},
		},
	}, nil)
	defer ts.Close()

	p := providers.NewKlookProvider(newTestClient(ts.URL), "skill-k")
	got, err := p.FetchActivities(context.Background(), "Bangkok")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	item := got[0]
	if !strings.HasPrefix(item.ID, "klook_") {
		t.Fatalf("unexpected id %q", item.ID)
	}
	if !item.Coordinates.IsZero() {
		t.Fatalf("klook items always start ungeocoded, got %+v", item.Coordinates)
	}
	if !strings.Contains(item.BookingURL, "klook.com/search") {
		t.Fatalf("missing url should fall back to a search link, got %q", item.BookingURL)
	}
	if item.Price != 35 {
		t.Fatalf("string price not parsed, got %v", item.Price)
	}
}

func TestExecuteSkill_NoAPIKey(t *testing.T) {
	c := providers.NewClient("http://unused", "", 100, zerolog.Nop())
	_, err := c.ExecuteSkill(context.Background(), "skill", nil)
	if !errors.Is(err, providers.ErrNoAPIKey) {
		t.Fatalf("expected ErrNoAPIKey, got %v", err)
	}
}

func TestExecuteSkill_RetriesTransientFailures(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
	}))
	defer ts.Close()

	c := newTestClient(ts.URL)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	got, err := c.ExecuteSkill(ctx, "skill", map[string]any{})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if got["ok"] != true {
		t.Fatalf("unexpected payload: %v", got)
	}
	if atomic.LoadInt32(&hits) != 3 {
		t.Fatalf("expected 3 attempts, got %d", hits)
	}
}

func TestExecuteSkill_BadRequestDoesNotRetry(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer ts.Close()

	c := newTestClient(ts.URL)
	if _, err := c.ExecuteSkill(context.Background(), "skill", nil); err == nil {
		t.Fatal("expected error on 400")
	}
	if atomic.LoadInt32(&hits) != 1 {
		t.Fatalf("client errors must not be retried, got %d attempts", hits)
	}
}

func TestParsePrice(t *testing.T) {
	cases := []struct {
		in   any
		want float64
	}{
		{120.5, 120.5},
		{"$1,250.00", 1250},
		{"free", 0},
		{nil, 0},
		{"89", 89},
	}
	for _, tc := range cases {
		if got := providers.ParsePrice(tc.in); got != tc.want {
			t.Fatalf("ParsePrice(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
