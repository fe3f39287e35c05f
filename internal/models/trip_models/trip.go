package trip_models

// Coordinates in decimal degrees. The zero value {0,0} is the reserved
// "ungeocoded" sentinel used throughout the pipeline.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func (c Coordinates) IsZero() bool {
	return c.Lat == 0 && c.Lng == 0
}

// TripRequest is the workflow trigger payload accepted by the gateway.
// Immutable once the workflow starts.
type TripRequest struct {
	TripID      string  `json:"tripId,omitempty"`
	Destination string  `json:"destination"`
	Days        int     `json:"days"`
	Budget      float64 `json:"budget"`
	Travelers   int     `json:"travelers"`
	StartDate   string  `json:"startDate,omitempty"`
	UserPrompt  string  `json:"userPrompt"`
}

type SearchQueries struct {
	Stays            string   `json:"stays"`
	ActivityKeywords []string `json:"activityKeywords"`
}

// TripSegment is one ordered leg of the trip. CheckOut is exclusive of the
// stay; segment N's checkOut should equal segment N+1's checkIn for a
// contiguous itinerary, though that is not enforced.
type TripSegment struct {
	Order         int           `json:"order"`
	Location      string        `json:"location"`
	CheckIn       string        `json:"checkIn"`
	CheckOut      string        `json:"checkOut"`
	SearchQueries SearchQueries `json:"searchQueries"`
}

type TripParams struct {
	Destination string   `json:"destination"`
	OriginCity  string   `json:"originCity,omitempty"`
	StartDate   string   `json:"startDate"`
	EndDate     string   `json:"endDate"`
	Travelers   int      `json:"travelers"`
	BudgetUSD   float64  `json:"budgetUSD"`
	TripVibe    []string `json:"tripVibe"`
}

// Allowed TripItem types.
const (
	TypeHotel    = "hotel"
	TypeActivity = "activity"
	TypeFood     = "food"
	TypeMuseum   = "museum"
	TypeTrain    = "train"
	TypeFlight   = "flight"
)

// TripItem is a candidate or finalized bookable unit. IDs are
// provider-namespaced and unique within a trip.
type TripItem struct {
	ID                  string      `json:"id"`
	Type                string      `json:"type"`
	Name                string      `json:"name"`
	Price               float64     `json:"price"`
	Currency            string      `json:"currency"`
	Coordinates         Coordinates `json:"coordinates"`
	BookingURL          string      `json:"bookingUrl,omitempty"`
	Provider            string      `json:"provider,omitempty"`
	Time                string      `json:"time,omitempty"`
	Duration            string      `json:"duration,omitempty"`
	Description         string      `json:"description,omitempty"`
	Rating              float64     `json:"rating,omitempty"`
	ImageURL            string      `json:"imageUrl,omitempty"`
	IsEstimate          bool        `json:"isEstimate,omitempty"`
	HasReel             bool        `json:"hasReel,omitempty"`
	InstagramSearchTerm string      `json:"instagramSearchTerm,omitempty"`
}

// SegmentData bundles a segment with its validated options. Once finalized
// by the fetch step, every item carries non-sentinel coordinates.
type SegmentData struct {
	Segment    TripSegment `json:"segment"`
	Stays      []TripItem  `json:"stays"`
	Activities []TripItem  `json:"activities"`
}

type SkeletonResult struct {
	Skeleton   []TripSegment `json:"skeleton"`
	TripParams TripParams    `json:"tripParams"`
}

type FetchedOptions struct {
	SegmentsData    []SegmentData `json:"segmentsData"`
	TotalStays      int           `json:"totalStays"`
	TotalActivities int           `json:"totalActivities"`
}

type ItineraryDay struct {
	Day      int        `json:"day"`
	Date     string     `json:"date"`
	Location string     `json:"location"`
	Title    string     `json:"title"`
	Subtitle string     `json:"subtitle"`
	Items    []TripItem `json:"items"`
}

// CuratedItinerary is the workflow's final output, persisted verbatim by
// the save step and never mutated afterwards.
type CuratedItinerary struct {
	ID          string         `json:"id"`
	Destination string         `json:"destination"`
	Dates       string         `json:"dates"`
	TotalBudget float64        `json:"totalBudget"`
	Currency    string         `json:"currency"`
	Travelers   int            `json:"travelers"`
	Days        []ItineraryDay `json:"days"`
	IsDemo      bool           `json:"isDemo,omitempty"`
}
