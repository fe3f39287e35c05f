package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"tripweaver/internal/geo"
	"tripweaver/internal/models/trip_models"
	"tripweaver/pkg/llm"
	"tripweaver/pkg/utils"
)

// CuratorServiceInterface assembles the final day-by-day itinerary. One
// monolithic model call covers the whole trip so the model can reason
// about cross-day variety; the result is hydrated against the known-good
// option pool. Curate never fails: every error path degrades to a
// placeholder itinerary marked isDemo.
type CuratorServiceInterface interface {
	Curate(ctx context.Context, in CurateInput) trip_models.CuratedItinerary
}

type CurateInput struct {
	Skeleton   []trip_models.TripSegment
	TripParams trip_models.TripParams
	Options    trip_models.FetchedOptions
	UserPrompt string
	TripID     string
	IsDemo     bool
}

type CuratorService struct {
	ai  llm.ChatClientInterface
	geo geo.ResolverInterface
	log zerolog.Logger
}

func NewCuratorService(ai llm.ChatClientInterface, resolver geo.ResolverInterface, log zerolog.Logger) CuratorServiceInterface {
	return &CuratorService{
		ai:  ai,
		geo: resolver,
		log: log.With().Str("component", "curator").Logger(),
	}
}

// rawItem is the untrusted per-item shape the model returns. Pointer
// fields distinguish "absent" from zero so hydration can prefer the
// model's value only when it actually supplied one.
type rawItem struct {
	Time                string   `json:"time"`
	Type                string   `json:"type"`
	ID                  string   `json:"id"`
	Name                string   `json:"name"`
	Description         string   `json:"description"`
	Price               *float64 `json:"price"`
	HasReel             *bool    `json:"hasReel"`
	InstagramSearchTerm string   `json:"instagramSearchTerm"`
}

type rawDay struct {
	Day      int       `json:"day"`
	Date     string    `json:"date"`
	Location string    `json:"location"`
	Title    string    `json:"title"`
	Theme    string    `json:"theme"`
	Items    []rawItem `json:"items"`
}

func (s *CuratorService) Curate(ctx context.Context, in CurateInput) trip_models.CuratedItinerary {
	firstDate, lastDate, totalDays := tripSpan(in.Skeleton, in.TripParams)
	dateLocations := dateLocationMap(firstDate, totalDays, in.Options.SegmentsData, in.TripParams.Destination)

	plan, err := s.curateWithModel(ctx, in, firstDate, lastDate, totalDays, dateLocations)
	if err != nil {
		s.log.Error().Err(err).Str("trip_id", in.TripID).Msg("curation failed, building fallback itinerary")
		return s.fallbackItinerary(in, firstDate, lastDate, totalDays, dateLocations)
	}

	s.log.Info().Str("trip_id", plan.ID).Int("days", len(plan.Days)).Float64("total", plan.TotalBudget).Msg("itinerary curated")
	return plan
}

func (s *CuratorService) curateWithModel(
	ctx context.Context,
	in CurateInput,
	firstDate time.Time,
	lastDate time.Time,
	totalDays int,
	dateLocations map[string]string,
) (trip_models.CuratedItinerary, error) {
	var empty trip_models.CuratedItinerary

	pool := newOptionPool(in.Options.SegmentsData)
	prompt := s.buildPrompt(in, firstDate, lastDate, totalDays, dateLocations)

	content, err := s.ai.CompleteJSON(ctx, llm.Request{
		System:      "You are a JSON-only API. Output valid JSON with no markdown formatting.",
		User:        prompt,
		Temperature: 0.4,
		MaxTokens:   8000,
	})
	if err != nil {
		return empty, err
	}

	var parsed struct {
		Days []rawDay `json:"days"`
	}
	if err := json.Unmarshal([]byte(llm.CleanJSONResponse(content)), &parsed); err != nil {
		return empty, fmt.Errorf("%w: parse curated plan: %v", utils.ErrUnexpectedAIBehavior, err)
	}
	if len(parsed.Days) == 0 {
		return empty, fmt.Errorf("%w: model returned no days", utils.ErrUnexpectedAIBehavior)
	}

	// Anchoring needs a coordinate per unique city in the output, resolved
	// dynamically so unfamiliar destinations still get a usable center.
	var cities []string
	seenCity := map[string]bool{}
	for _, d := range parsed.Days {
		city := dayLocation(d, dateLocations, in.TripParams.Destination)
		if !seenCity[city] {
			seenCity[city] = true
			cities = append(cities, city)
		}
	}
	cityCoords := s.geo.ResolveCities(ctx, cities)

	days := make([]trip_models.ItineraryDay, 0, len(parsed.Days))
	var total float64
	for idx, d := range parsed.Days {
		day := s.hydrateDay(d, idx, pool, dateLocations, cityCoords, in.TripParams.Destination)
		for _, item := range day.Items {
			total += item.Price
		}
		days = append(days, day)
	}

	return trip_models.CuratedItinerary{
		ID:          in.TripID,
		Destination: joinLocations(in.Skeleton),
		Dates:       fmt.Sprintf("%s to %s", firstDate.Format(dateLayout), lastDate.Format(dateLayout)),
		TotalBudget: total,
		Currency:    "USD",
		Travelers:   in.TripParams.Travelers,
		Days:        days,
		IsDemo:      in.IsDemo,
	}, nil
}

func (s *CuratorService) buildPrompt(
	in CurateInput,
	firstDate time.Time,
	lastDate time.Time,
	totalDays int,
	dateLocations map[string]string,
) string {
	type promptStay struct {
		ID     string  `json:"id"`
		Name   string  `json:"name"`
		Price  float64 `json:"price"`
		Rating float64 `json:"rating"`
	}
	type promptActivity struct {
		ID     string  `json:"id"`
		Name   string  `json:"name"`
		Price  float64 `json:"price"`
		Rating float64 `json:"rating"`
		Desc   string  `json:"desc"`
	}
	type promptSegment struct {
		Location   string           `json:"location"`
		CheckIn    string           `json:"checkIn"`
		CheckOut   string           `json:"checkOut"`
		Stays      []promptStay     `json:"stays"`
		Activities []promptActivity `json:"activities"`
	}

	// Top 5 stays and 15 activities per segment with truncated
	// descriptions keep the prompt bounded without starving selection.
	segments := make([]promptSegment, 0, len(in.Options.SegmentsData))
	for _, sd := range in.Options.SegmentsData {
		ps := promptSegment{
			Location:   sd.Segment.Location,
			CheckIn:    sd.Segment.CheckIn,
			CheckOut:   sd.Segment.CheckOut,
			Stays:      []promptStay{},
			Activities: []promptActivity{},
		}
		for _, stay := range capItems(sd.Stays, 5) {
			ps.Stays = append(ps.Stays, promptStay{ID: stay.ID, Name: stay.Name, Price: stay.Price, Rating: stay.Rating})
		}
		for _, act := range capItems(sd.Activities, 15) {
			ps.Activities = append(ps.Activities, promptActivity{
				ID: act.ID, Name: act.Name, Price: act.Price, Rating: act.Rating,
				Desc: truncate(act.Description, 60),
			})
		}
		segments = append(segments, ps)
	}

	optionsJSON, _ := json.MarshalIndent(segments, "", "  ")
	dateMapJSON, _ := json.MarshalIndent(dateLocations, "", "  ")

	return fmt.Sprintf(`You are a Master Travel Curator creating a complete %d-day itinerary.

USER REQUEST: "%s"

TRIP DATES: %s to %s
BUDGET: $%.0f USD total
TRAVELERS: %d

AVAILABLE OPTIONS PER SEGMENT:
%s

DATE-TO-CITY MAPPING:
%s

STRICT RULES:
1. Create exactly %d days (Day 1 through Day %d).
2. Each day MUST have 3-5 items with realistic times (morning 09:00, afternoon 14:00, evening 19:00).
3. USE UNIQUE ACTIVITIES - do NOT repeat the same activity across multiple days.
4. VENUE DIVERSITY: Do NOT schedule two activities that visit the same landmark (e.g., do NOT visit "Colosseum Tour" on Monday and "Colosseum Ticket" on Tuesday). Pick the best one.
5. Reference activities by their exact "id" and "name" from the options provided.
6. Include meals (Breakfast, Lunch, Dinner) with type: "food".
7. For each day, use activities from the correct city based on the date.
8. ALLOWED TYPES: hotel, activity, food, museum, train, flight. Use "museum" for galleries/exhibits, "food" for meals.

ACCOMMODATION RULES (CRITICAL):
9. For EACH city segment, you MUST pick exactly ONE stay from the "stays" list.
10. ARRIVAL DAY (Day 1 of entire trip): Schedule "Check-in" or "Bag Drop" as the FIRST item of the day (e.g., 11:00 or 14:00). Then schedule activities AFTER.
11. NEW CITY ARRIVAL (mid-trip city change): Schedule "Check-in" immediately upon arrival in the new city, before other activities.
12. DEPARTURE FROM CITY: On the last day in a city (if changing cities OR last day of trip), schedule "Check-out" at 11:00.
13. For "Check-out", use the SAME hotel ID and name as the Check-in for that city.
14. Do NOT invent new hotels. Use the exact IDs provided in the stays list.

HOTEL ITEM FORMAT:
Check-in/Bag Drop: { "time": "11:00", "type": "hotel", "id": "[stay_id]", "name": "Check-in: [Hotel Name]", "description": "Check into your accommodation.", "price": [price] }
Check-out: { "time": "11:00", "type": "hotel", "id": "[stay_id]", "name": "Check-out: [Hotel Name]", "description": "Check out of your accommodation.", "price": 0 }

OUTPUT FORMAT (JSON only, no markdown):
{
  "days": [
    {
      "day": 1,
      "date": "YYYY-MM-DD",
      "location": "City Name",
      "title": "Creative Day Title",
      "theme": "Short Theme",
      "items": [
        { "time": "11:00", "type": "hotel", "id": "airbnb_0_123", "name": "Check-in: Cozy Apartment", "description": "Check into your accommodation.", "price": 150, "hasReel": false },
        { "time": "14:00", "id": "activity_id", "name": "Colosseum Tour", "description": "Iconic Roman amphitheater", "price": 50, "type": "activity", "hasReel": true, "instagramSearchTerm": "colosseum-rome-aesthetic" },
        { "time": "19:30", "name": "Dinner at Trattoria", "description": "Local cuisine", "price": 35, "type": "food", "hasReel": true, "instagramSearchTerm": "rome-trattoria-aesthetic" }
      ]
    }
  ]
}

REEL RULES:
- hasReel: Set to TRUE for famous landmarks, scenic spots, iconic restaurants, and photogenic locations.
- hasReel: Set to FALSE for logistics (check-in, check-out, generic meals, transfers).
- instagramSearchTerm: Only include if hasReel=true. Format: "attraction-city-aesthetic" (e.g., "uffizi-florence-aesthetic").`,
		totalDays,
		in.UserPrompt,
		firstDate.Format(dateLayout), lastDate.Format(dateLayout),
		in.TripParams.BudgetUSD,
		in.TripParams.Travelers,
		optionsJSON,
		dateMapJSON,
		totalDays, totalDays,
	)
}

// hydrateDay reconciles one model-generated day against the option pool,
// substituting authoritative coordinates, images and booking links for
// everything the model referenced and anchoring invented items near the
// day's hotel or city center.
func (s *CuratorService) hydrateDay(
	d rawDay,
	idx int,
	pool *optionPool,
	dateLocations map[string]string,
	cityCoords map[string]trip_models.Coordinates,
	destination string,
) trip_models.ItineraryDay {
	location := dayLocation(d, dateLocations, destination)

	anchor := trip_models.Coordinates{}
	for _, item := range d.Items {
		if !isHotelItem(item) {
			continue
		}
		if stay, ok := pool.findStay(item.ID, item.Name); ok && !stay.Coordinates.IsZero() {
			anchor = stay.Coordinates
			break
		}
	}
	if anchor.IsZero() {
		if c, ok := cityCoords[location]; ok {
			anchor = c
		} else {
			anchor = geo.CityCenter(location)
		}
	}

	items := make([]trip_models.TripItem, 0, len(d.Items))
	for _, raw := range d.Items {
		items = append(items, s.hydrateItem(raw, idx, pool, anchor))
	}

	title := d.Title
	if title == "" {
		title = fmt.Sprintf("Day %d", idx+1)
	}
	subtitle := d.Theme
	if subtitle == "" {
		subtitle = location
	}
	dayNum := d.Day
	if dayNum == 0 {
		dayNum = idx + 1
	}

	return trip_models.ItineraryDay{
		Day:      dayNum,
		Date:     d.Date,
		Location: location,
		Title:    title,
		Subtitle: subtitle,
		Items:    items,
	}
}

func (s *CuratorService) hydrateItem(raw rawItem, dayIdx int, pool *optionPool, anchor trip_models.Coordinates) trip_models.TripItem {
	if isHotelItem(raw) {
		if stay, ok := pool.findStay(raw.ID, raw.Name); ok {
			isCheckOut := strings.Contains(strings.ToLower(raw.Name), "check-out")
			name := "Check-in: " + stay.Name
			price := stay.Price
			if isCheckOut {
				name = "Check-out: " + stay.Name
				price = 0
			}
			currency := stay.Currency
			if currency == "" {
				currency = "USD"
			}
			return trip_models.TripItem{
				ID:          stay.ID,
				Type:        trip_models.TypeHotel,
				Name:        name,
				Price:       price,
				Currency:    currency,
				Coordinates: stay.Coordinates,
				BookingURL:  stay.BookingURL,
				Provider:    stay.Provider,
				Time:        raw.Time,
				Description: raw.Description,
				Rating:      stay.Rating,
				ImageURL:    stay.ImageURL,
			}
		}
	}

	if original, ok := pool.find(raw.ID, raw.Name); ok {
		name := raw.Name
		if name == "" {
			name = original.Name
		}
		price := original.Price
		if raw.Price != nil {
			price = *raw.Price
		}
		currency := original.Currency
		if currency == "" {
			currency = "USD"
		}
		return trip_models.TripItem{
			ID:                  original.ID,
			Type:                determineType(name, raw.Type),
			Name:                name,
			Price:               price,
			Currency:            currency,
			Coordinates:         original.Coordinates,
			BookingURL:          original.BookingURL,
			Provider:            original.Provider,
			Time:                raw.Time,
			Duration:            original.Duration,
			Description:         raw.Description,
			Rating:              original.Rating,
			ImageURL:            original.ImageURL,
			HasReel:             raw.HasReel != nil && *raw.HasReel,
			InstagramSearchTerm: raw.InstagramSearchTerm,
		}
	}

	// The model invented this one, typically a meal or filler. Keep it but
	// place it near the day anchor so the pin lands in the right part of
	// town.
	name := raw.Name
	if name == "" {
		name = "Activity"
	}
	id := raw.ID
	if id == "" {
		id = fmt.Sprintf("gen_%d_%d_%04x", dayIdx, time.Now().UnixMilli(), rand.Intn(0x10000))
	}
	var price float64
	if raw.Price != nil {
		price = *raw.Price
	}
	return trip_models.TripItem{
		ID:                  id,
		Type:                determineType(name, raw.Type),
		Name:                name,
		Price:               price,
		Currency:            "USD",
		Coordinates:         geo.Jitter(anchor, 0.015),
		Time:                raw.Time,
		Description:         raw.Description,
		IsEstimate:          true,
		HasReel:             raw.HasReel != nil && *raw.HasReel,
		InstagramSearchTerm: raw.InstagramSearchTerm,
	}
}

// fallbackItinerary is the never-fail path: one day per calendar day with
// three placeholder items at the city center, marked as a demo plan.
func (s *CuratorService) fallbackItinerary(
	in CurateInput,
	firstDate time.Time,
	lastDate time.Time,
	totalDays int,
	dateLocations map[string]string,
) trip_models.CuratedItinerary {
	days := make([]trip_models.ItineraryDay, 0, totalDays)
	for i := 0; i < totalDays; i++ {
		dateStr := firstDate.AddDate(0, 0, i).Format(dateLayout)
		location := dateLocations[dateStr]
		if location == "" {
			location = in.TripParams.Destination
		}
		center := geo.CityCenter(location)

		days = append(days, trip_models.ItineraryDay{
			Day:      i + 1,
			Date:     dateStr,
			Location: location,
			Title:    fmt.Sprintf("Day %d in %s", i+1, location),
			Subtitle: location,
			Items: []trip_models.TripItem{
				{ID: fmt.Sprintf("fb_%d_1", i), Time: "10:00", Name: "Morning Exploration", Description: "Discover the city", Price: 0, Currency: "USD", Type: trip_models.TypeActivity, Coordinates: center},
				{ID: fmt.Sprintf("fb_%d_2", i), Time: "14:00", Name: "Lunch", Description: "Local cuisine", Price: 20, Currency: "USD", Type: trip_models.TypeFood, Coordinates: center},
				{ID: fmt.Sprintf("fb_%d_3", i), Time: "19:00", Name: "Evening Relaxation", Description: "Unwind after a day of exploration", Price: 0, Currency: "USD", Type: trip_models.TypeActivity, Coordinates: center},
			},
		})
	}

	return trip_models.CuratedItinerary{
		ID:          in.TripID,
		Destination: joinLocations(in.Skeleton),
		Dates:       fmt.Sprintf("%s to %s", firstDate.Format(dateLayout), lastDate.Format(dateLayout)),
		TotalBudget: in.TripParams.BudgetUSD,
		Currency:    "USD",
		Travelers:   in.TripParams.Travelers,
		Days:        days,
		IsDemo:      true,
	}
}

// optionPool indexes every fetched stay and activity by id and lowercased
// name for the hydration pass.
type optionPool struct {
	byID   map[string]trip_models.TripItem
	byName map[string]trip_models.TripItem
	stays  []trip_models.TripItem
}

func newOptionPool(segments []trip_models.SegmentData) *optionPool {
	p := &optionPool{
		byID:   make(map[string]trip_models.TripItem),
		byName: make(map[string]trip_models.TripItem),
	}
	for _, sd := range segments {
		for _, stay := range sd.Stays {
			p.byID[stay.ID] = stay
			p.byName[strings.ToLower(stay.Name)] = stay
			p.stays = append(p.stays, stay)
		}
		for _, act := range sd.Activities {
			p.byID[act.ID] = act
			p.byName[strings.ToLower(act.Name)] = act
		}
	}
	return p
}

func (p *optionPool) find(id, name string) (trip_models.TripItem, bool) {
	if item, ok := p.byID[id]; ok {
		return item, true
	}
	item, ok := p.byName[strings.ToLower(name)]
	return item, ok
}

// findStay matches by id first, then fuzzily: the model writes names like
// "Check-in: Park Hyatt Tokyo", so containment of the stay's name in the
// item's name is the signal.
func (p *optionPool) findStay(id, name string) (trip_models.TripItem, bool) {
	if item, ok := p.byID[id]; ok {
		return item, true
	}
	for _, stay := range p.stays {
		if stay.Name != "" && strings.Contains(name, stay.Name) {
			return stay, true
		}
	}
	return trip_models.TripItem{}, false
}

var (
	museumNameRe = regexp.MustCompile(`(?i)museum|gallery|exhibit|art|uffizi|louvre|vatican`)
	foodNameRe   = regexp.MustCompile(`(?i)breakfast|lunch|dinner|cafe|restaurant|trattoria|pizzeria`)
)

// determineType normalizes whatever type label the model emitted into the
// allowed enum, with name-based detection taking priority over the label.
func determineType(name, aiType string) string {
	if aiType == "meal" {
		return trip_models.TypeFood
	}
	if museumNameRe.MatchString(name) {
		return trip_models.TypeMuseum
	}
	if foodNameRe.MatchString(name) {
		return trip_models.TypeFood
	}
	switch aiType {
	case trip_models.TypeHotel, trip_models.TypeActivity, trip_models.TypeFood,
		trip_models.TypeMuseum, trip_models.TypeTrain, trip_models.TypeFlight:
		return aiType
	}
	return trip_models.TypeActivity
}

func isHotelItem(item rawItem) bool {
	lower := strings.ToLower(item.Name)
	return item.Type == trip_models.TypeHotel ||
		strings.Contains(lower, "check-in") ||
		strings.Contains(lower, "check-out")
}

// tripSpan computes the inclusive day count from the first check-in to the
// last check-out, falling back to the trip params when segment dates don't
// parse.
func tripSpan(skeleton []trip_models.TripSegment, params trip_models.TripParams) (time.Time, time.Time, int) {
	firstStr, lastStr := params.StartDate, params.EndDate
	if len(skeleton) > 0 {
		firstStr = skeleton[0].CheckIn
		lastStr = skeleton[len(skeleton)-1].CheckOut
	}

	first, err := time.Parse(dateLayout, firstStr)
	if err != nil {
		first = time.Now().UTC().Truncate(24 * time.Hour)
	}
	last, err := time.Parse(dateLayout, lastStr)
	if err != nil || last.Before(first) {
		last = first
	}

	totalDays := int(last.Sub(first).Hours()/24) + 1
	return first, last, totalDays
}

// dateLocationMap assigns each calendar day to the segment whose
// [checkIn, checkOut) interval contains it, the last segment catching the
// final check-out day and any stragglers.
func dateLocationMap(firstDate time.Time, totalDays int, segments []trip_models.SegmentData, destination string) map[string]string {
	m := make(map[string]string, totalDays)
	for i := 0; i < totalDays; i++ {
		d := firstDate.AddDate(0, 0, i)
		dateStr := d.Format(dateLayout)

		location := destination
		if len(segments) > 0 {
			location = segments[len(segments)-1].Segment.Location
			for _, sd := range segments {
				start, err1 := time.Parse(dateLayout, sd.Segment.CheckIn)
				end, err2 := time.Parse(dateLayout, sd.Segment.CheckOut)
				if err1 != nil || err2 != nil {
					continue
				}
				if !d.Before(start) && d.Before(end) {
					location = sd.Segment.Location
					break
				}
			}
		}
		m[dateStr] = location
	}
	return m
}

func dayLocation(d rawDay, dateLocations map[string]string, destination string) string {
	if d.Location != "" {
		return d.Location
	}
	if loc, ok := dateLocations[d.Date]; ok {
		return loc
	}
	return destination
}

func joinLocations(skeleton []trip_models.TripSegment) string {
	names := make([]string, 0, len(skeleton))
	for _, seg := range skeleton {
		names = append(names, seg.Location)
	}
	return strings.Join(names, " → ")
}

func capItems(items []trip_models.TripItem, n int) []trip_models.TripItem {
	if len(items) > n {
		return items[:n]
	}
	return items
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
