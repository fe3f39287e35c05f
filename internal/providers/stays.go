package providers

import (
	"context"
	"fmt"
	"time"

	"tripweaver/internal/models/trip_models"
)

// StayProvider fetches lodging candidates for one segment. Implementations
// return an error on any failure; the aggregation layer converts that to
// an empty result.
type StayProvider interface {
	Name() string
	FetchStays(ctx context.Context, location, checkIn, checkOut string, travelers int) ([]trip_models.TripItem, error)
}

// AirbnbProvider scrapes Airbnb search results through a Browser-Use skill.
type AirbnbProvider struct {
	client  *Client
	skillID string
}

func NewAirbnbProvider(client *Client, skillID string) *AirbnbProvider {
	return &AirbnbProvider{client: client, skillID: skillID}
}

func (p *AirbnbProvider) Name() string { return "Airbnb" }

func (p *AirbnbProvider) FetchStays(ctx context.Context, location, checkIn, checkOut string, travelers int) ([]trip_models.TripItem, error) {
	raw, err := p.client.ExecuteSkill(ctx, p.skillID, map[string]any{
		"location": location,
		"checkin":  checkIn,
		"checkout": checkOut,
		"guests":   travelers,
	})
	if err != nil {
		return nil, err
	}

	listings := resultSection(raw, "listings")
	nonce := time.Now().UnixMilli()
	items := make([]trip_models.TripItem, 0, len(listings))
	for i, l := range listings {
		listing, ok := l.(map[string]any)
		if !ok {
			continue
		}
		name := stringField(listing, "title")
		if name == "" {
			name = "Airbnb Listing"
		}
		items = append(items, trip_models.TripItem{
			ID:          fmt.Sprintf("airbnb_%d_%d", i, nonce),
			Type:        trip_models.TypeHotel,
			Name:        name,
			Price:       ParsePrice(listing["price_total"]),
			Currency:    "USD",
			Coordinates: trip_models.Coordinates{Lat: floatField(listing, "latitude"), Lng: floatField(listing, "longitude")},
			BookingURL:  stringField(listing, "url"),
			Provider:    "Airbnb",
			Rating:      floatField(listing, "rating"),
			ImageURL:    firstPhoto(listing),
			Description: fmt.Sprintf("Airbnb listing in %s", location),
		})
	}
	return items, nil
}

func firstPhoto(listing map[string]any) string {
	photos, ok := listing["photos"].([]any)
	if !ok || len(photos) == 0 {
		return ""
	}
	s, _ := photos[0].(string)
	return s
}

// BookingProvider scrapes Booking.com search results through a Browser-Use
// skill.
type BookingProvider struct {
	client  *Client
	skillID string
}

func NewBookingProvider(client *Client, skillID string) *BookingProvider {
	return &BookingProvider{client: client, skillID: skillID}
}

func (p *BookingProvider) Name() string { return "Booking.com" }

func (p *BookingProvider) FetchStays(ctx context.Context, location, checkIn, checkOut string, travelers int) ([]trip_models.TripItem, error) {
	raw, err := p.client.ExecuteSkill(ctx, p.skillID, map[string]any{
		"destination": location,
		"checkin":     checkIn,
		"checkout":    checkOut,
		"adults":      travelers,
		"rooms":       1,
		"children":    0,
	})
	if err != nil {
		return nil, err
	}

	listings := resultSection(raw, "listings", "hotels")
	items := make([]trip_models.TripItem, 0, len(listings))
	for _, l := range listings {
		listing, ok := l.(map[string]any)
		if !ok {
			continue
		}
		name := stringField(listing, "name")
		if name == "" {
			name = "Booking.com Hotel"
		}
		id := stringField(listing, "property_id")
		if id == "" {
			id = fmt.Sprintf("%d", time.Now().UnixMilli())
		}
		price := 0.0
		if pm, ok := listing["price"].(map[string]any); ok {
			price = ParsePrice(pm["amount"])
		}
		items = append(items, trip_models.TripItem{
			ID:          "booking-" + id,
			Type:        trip_models.TypeHotel,
			Name:        name,
			Price:       price,
			Currency:    "USD",
			Coordinates: trip_models.Coordinates{Lat: floatField(listing, "latitude"), Lng: floatField(listing, "longitude")},
			BookingURL:  stringField(listing, "url"),
			Provider:    "Booking.com",
			Rating:      floatField(listing, "review_score"),
			ImageURL:    stringField(listing, "photo_url"),
			Description: fmt.Sprintf("Booking.com hotel in %s", location),
		})
	}
	return items, nil
}
