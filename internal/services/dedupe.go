package services

import (
	"strings"

	"tripweaver/internal/models/trip_models"
)

// noiseWords are marketing filler that makes distinct listings look alike
// ("Louvre skip-the-line ticket" vs "Louvre guided tour entry").
var noiseWords = []string{
	"skip-the-line", "ticket", "tour", "entry", "access", "guided",
	"priority", "reserved", "admission", "pass", "experience",
}

// normalizeName lowercases a listing name, strips noise vocabulary and
// removes every non-alphanumeric character, leaving just the venue words.
func normalizeName(name string) string {
	lower := strings.ToLower(name)
	for _, w := range noiseWords {
		lower = strings.ReplaceAll(lower, w, "")
	}
	var b strings.Builder
	for _, r := range lower {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// DedupeItems removes near-duplicate listings, preserving order. Two items
// collide when one normalized name contains the other, in either
// direction; the first occurrence wins. Names that normalize to fewer than
// 4 characters are too generic to compare and are kept unconditionally.
func DedupeItems(items []trip_models.TripItem) []trip_models.TripItem {
	kept := make([]trip_models.TripItem, 0, len(items))
	seen := make([]string, 0, len(items))

	for _, item := range items {
		norm := normalizeName(item.Name)
		if len(norm) < 4 {
			kept = append(kept, item)
			continue
		}
		dup := false
		for _, s := range seen {
			if strings.Contains(s, norm) || strings.Contains(norm, s) {
				dup = true
				break
			}
		}
		if dup {
			continue
		}
		seen = append(seen, norm)
		kept = append(kept, item)
	}
	return kept
}
