package providers

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"tripweaver/internal/models/trip_models"
)

// ActivityProvider fetches activity candidates for one city.
type ActivityProvider interface {
	Name() string
	FetchActivities(ctx context.Context, location string) ([]trip_models.TripItem, error)
}

// HeadoutProvider scrapes Headout listings through a Browser-Use skill.
type HeadoutProvider struct {
	client  *Client
	skillID string
}

func NewHeadoutProvider(client *Client, skillID string) *HeadoutProvider {
	return &HeadoutProvider{client: client, skillID: skillID}
}

func (p *HeadoutProvider) Name() string { return "Headout" }

func (p *HeadoutProvider) FetchActivities(ctx context.Context, location string) ([]trip_models.TripItem, error) {
	raw, err := p.client.ExecuteSkill(ctx, p.skillID, map[string]any{
		"location":  location,
		"limit":     20,
		"currency":  "USD",
		"sort_type": "RECOMMENDED",
	})
	if err != nil {
		return nil, err
	}

	listings := resultSection(raw, "listings", "activities")
	items := make([]trip_models.TripItem, 0, len(listings))
	for _, l := range listings {
		entry, ok := l.(map[string]any)
		if !ok {
			continue
		}
		name := stringField(entry, "name", "title")
		if name == "" {
			name = "Headout Activity"
		}
		id := stringField(entry, "id")
		if id == "" {
			id = fmt.Sprintf("%d", time.Now().UnixMilli())
		}
		duration := stringField(entry, "duration")
		if duration == "" {
			duration = "Varies"
		}
		items = append(items, trip_models.TripItem{
			ID:          "headout-" + id,
			Type:        trip_models.TypeActivity,
			Name:        name,
			Price:       ParsePrice(entry["price"]),
			Currency:    "USD",
			Coordinates: trip_models.Coordinates{Lat: floatField(entry, "latitude"), Lng: floatField(entry, "longitude")},
			BookingURL:  stringField(entry, "url"),
			Provider:    "Headout",
			Rating:      floatField(entry, "rating"),
			Duration:    duration,
			ImageURL:    stringField(entry, "image_url", "imageUrl"),
			Description: fmt.Sprintf("Book this activity in %s through Headout.", location),
		})
	}
	return items, nil
}

// KlookProvider scrapes Klook listings through a Browser-Use skill. Klook
// never returns coordinates, so every item starts with the sentinel and
// relies on geocoding healing.
type KlookProvider struct {
	client  *Client
	skillID string
}

func NewKlookProvider(client *Client, skillID string) *KlookProvider {
	return &KlookProvider{client: client, skillID: skillID}
}

func (p *KlookProvider) Name() string { return "Klook" }

func (p *KlookProvider) FetchActivities(ctx context.Context, location string) ([]trip_models.TripItem, error) {
	raw, err := p.client.ExecuteSkill(ctx, p.skillID, map[string]any{
		"location":  location,
		"date":      nil,
		"max_price": nil,
		"currency":  "USD",
	})
	if err != nil {
		return nil, err
	}

	listings := resultSection(raw, "activities", "results", "items")
	nonce := time.Now().UnixMilli()
	items := make([]trip_models.TripItem, 0, len(listings))
	for i, l := range listings {
		entry, ok := l.(map[string]any)
		if !ok {
			continue
		}
		name := stringField(entry, "title", "name")
		if name == "" {
			name = "Klook Activity"
		}
		desc := stringField(entry, "description")
		if desc == "" {
			desc = fmt.Sprintf("Book this activity in %s through Klook.", location)
		}
		bookingURL := stringField(entry, "activity_url", "url")
		if bookingURL == "" {
			bookingURL = "https://www.klook.com/search/?query=" + url.QueryEscape(location)
		}
		items = append(items, trip_models.TripItem{
			ID:          fmt.Sprintf("klook_%d_%d", nonce, i),
			Type:        trip_models.TypeActivity,
			Name:        name,
			Price:       ParsePrice(entry["price"]),
			Currency:    "USD",
			Coordinates: trip_models.Coordinates{},
			BookingURL:  bookingURL,
			Provider:    "Klook",
			Rating:      floatField(entry, "rating"),
			ImageURL:    stringField(entry, "image_url", "imageUrl", "image", "photo"),
			Description: desc,
		})
	}
	return items, nil
}
