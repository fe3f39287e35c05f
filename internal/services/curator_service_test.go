package services_test

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"tripweaver/internal/models/trip_models"
	"tripweaver/internal/services"
	"tripweaver/pkg/llm"
)

func curatorFixture() services.CurateInput {
	stay := trip_models.TripItem{
		ID:          "booking-1",
		Type:        trip_models.TypeHotel,
		Name:        "Hotel Roma",
		Price:       120,
		Currency:    "USD",
		Coordinates: trip_models.Coordinates{Lat: 41.9, Lng: 12.5},
		BookingURL:  "https://booking.example/roma",
		Provider:    "Booking.com",
		Rating:      8.7,
		ImageURL:    "https://img.example/roma.jpg",
	}
	activity := trip_models.TripItem{
		ID:          "headout-5",
		Type:        trip_models.TypeActivity,
		Name:        "Colosseum Tour",
		Price:       50,
		Currency:    "USD",
		Coordinates: trip_models.Coordinates{Lat: 41.89, Lng: 12.49},
		BookingURL:  "https://headout.example/colosseum",
		Provider:    "Headout",
		Rating:      4.8,
	}
	segment := trip_models.TripSegment{
		Order: 1, Location: "Rome", CheckIn: "2026-09-01", CheckOut: "2026-09-03",
	}
	return services.CurateInput{
		Skeleton:   []trip_models.TripSegment{segment},
		TripParams: trip_models.TripParams{Destination: "Rome", Travelers: 2, BudgetUSD: 2000, StartDate: "2026-09-01", EndDate: "2026-09-03"},
		Options: trip_models.FetchedOptions{
			SegmentsData: []trip_models.SegmentData{
				{Segment: segment, Stays: []trip_models.TripItem{stay}, Activities: []trip_models.TripItem{activity}},
			},
			TotalStays:      1,
			TotalActivities: 1,
		},
		UserPrompt: "weekend in Rome",
		TripID:     "trip-123",
	}
}

const curatedPlanJSON = `{
  "days": [
    {
      "day": 1, "date": "2026-09-01", "location": "Rome",
      "title": "Ancient Rome", "theme": "History",
      "items": [
        {"time": "11:00", "type": "hotel", "id": "booking-1", "name": "Check-in: Hotel Roma", "price": 120},
        {"time": "14:00", "type": "activity", "id": "headout-5", "name": "Colosseum Tour", "price": 45, "hasReel": true, "instagramSearchTerm": "colosseum-rome-aesthetic"},
        {"time": "19:30", "type": "meal", "name": "Dinner at Trattoria", "price": 35}
      ]
    },
    {
      "day": 2, "date": "2026-09-02", "location": "Rome",
      "title": "Farewell", "theme": "Departure",
      "items": [
        {"time": "11:00", "type": "hotel", "id": "booking-1", "name": "Check-out: Hotel Roma", "price": 0}
      ]
    }
  ]
}`

func TestCurate_HydratesAgainstOptionPool(t *testing.T) {
	ai := &fakeChat{fn: func(llm.Request) (string, error) { return curatedPlanJSON, nil }}
	svc := services.NewCuratorService(ai, &fakeResolver{}, zerolog.Nop())

	got := svc.Curate(context.Background(), curatorFixture())

	if got.ID != "trip-123" {
		t.Fatalf("trip id not carried through: %q", got.ID)
	}
	if got.IsDemo {
		t.Fatal("plan should not be marked demo")
	}
	if len(got.Days) != 2 {
		t.Fatalf("expected 2 days, got %d", len(got.Days))
	}

	day1 := got.Days[0]
	checkIn := day1.Items[0]
	if checkIn.Price != 120 || checkIn.Provider != "Booking.com" {
		t.Fatalf("check-in not hydrated from the stay: %+v", checkIn)
	}
	if checkIn.Coordinates != (trip_models.Coordinates{Lat: 41.9, Lng: 12.5}) {
		t.Fatalf("check-in should carry the stay's coordinates, got %+v", checkIn.Coordinates)
	}

	tour := day1.Items[1]
	if tour.Coordinates != (trip_models.Coordinates{Lat: 41.89, Lng: 12.49}) {
		t.Fatalf("activity should use authoritative coordinates, got %+v", tour.Coordinates)
	}
	if tour.Price != 45 {
		t.Fatalf("model's price should be preserved for matched activities, got %v", tour.Price)
	}
	if !tour.HasReel || tour.InstagramSearchTerm != "colosseum-rome-aesthetic" {
		t.Fatalf("reel flags should survive hydration: %+v", tour)
	}
	if tour.BookingURL != "https://headout.example/colosseum" {
		t.Fatalf("booking url should come from the pool, got %q", tour.BookingURL)
	}

	dinner := day1.Items[2]
	if !strings.HasPrefix(dinner.ID, "gen_") {
		t.Fatalf("invented item should get a synthetic id, got %q", dinner.ID)
	}
	if dinner.Type != trip_models.TypeFood {
		t.Fatalf("meal type should normalize to food, got %q", dinner.Type)
	}
	// anchored near the day's hotel, jittered by at most 0.015 degrees
	if math.Abs(dinner.Coordinates.Lat-41.9) > 0.015 || math.Abs(dinner.Coordinates.Lng-12.5) > 0.015 {
		t.Fatalf("invented item should be anchored near the hotel, got %+v", dinner.Coordinates)
	}

	checkOut := got.Days[1].Items[0]
	if checkOut.Price != 0 {
		t.Fatalf("check-out price must be forced to 0, got %v", checkOut.Price)
	}
	if !strings.HasPrefix(checkOut.Name, "Check-out: ") {
		t.Fatalf("unexpected check-out name %q", checkOut.Name)
	}

	// ground-truth sum, not the requested budget
	if got.TotalBudget != 120+45+35 {
		t.Fatalf("total budget should be the literal item sum, got %v", got.TotalBudget)
	}
	if got.Dates != "2026-09-01 to 2026-09-03" {
		t.Fatalf("unexpected dates %q", got.Dates)
	}
}

func TestCurate_TypeNormalization(t *testing.T) {
	plan := `{"days": [{"day": 1, "date": "2026-09-01", "location": "Rome", "items": [
		{"time": "10:00", "type": "sightseeing", "name": "Vatican Museums", "price": 30},
		{"time": "13:00", "type": "wandering", "name": "Aimless Stroll", "price": 0}
	]}]}`
	ai := &fakeChat{fn: func(llm.Request) (string, error) { return plan, nil }}
	svc := services.NewCuratorService(ai, &fakeResolver{}, zerolog.Nop())

	got := svc.Curate(context.Background(), curatorFixture())

	items := got.Days[0].Items
	if items[0].Type != trip_models.TypeMuseum {
		t.Fatalf("museum vocabulary should map to museum, got %q", items[0].Type)
	}
	if items[1].Type != trip_models.TypeActivity {
		t.Fatalf("unknown types should collapse to activity, got %q", items[1].Type)
	}
}

func TestCurate_FallbackOnModelFailure(t *testing.T) {
	ai := &fakeChat{fn: func(llm.Request) (string, error) { return "", errors.New("model down") }}
	svc := services.NewCuratorService(ai, &fakeResolver{}, zerolog.Nop())

	got := svc.Curate(context.Background(), curatorFixture())

	if !got.IsDemo {
		t.Fatal("fallback itinerary must be marked demo")
	}
	// 2026-09-01 through 2026-09-03 inclusive
	if len(got.Days) != 3 {
		t.Fatalf("expected 3 fallback days, got %d", len(got.Days))
	}
	for _, day := range got.Days {
		if len(day.Items) != 3 {
			t.Fatalf("fallback days carry 3 placeholder items, got %d on day %d", len(day.Items), day.Day)
		}
		for _, item := range day.Items {
			if item.Coordinates.IsZero() {
				t.Fatalf("fallback item %q has sentinel coordinates", item.Name)
			}
		}
	}
	if got.TotalBudget != 2000 {
		t.Fatalf("fallback keeps the requested budget, got %v", got.TotalBudget)
	}
}

func TestCurate_FallbackOnUnparseableJSON(t *testing.T) {
	ai := &fakeChat{fn: func(llm.Request) (string, error) { return "here is your itinerary!", nil }}
	svc := services.NewCuratorService(ai, &fakeResolver{}, zerolog.Nop())

	got := svc.Curate(context.Background(), curatorFixture())
	if !got.IsDemo {
		t.Fatal("unparseable output must fall back to the demo itinerary")
	}
}
