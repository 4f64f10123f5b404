package model

import "time"

// Offering is a live instructor service joined with its catalog entry, the
// unit search ranks.
type Offering struct {
	InstructorID        string   `json:"instructor_id"`
	InstructorName      string   `json:"instructor_name"`
	InstructorServiceID string   `json:"instructor_service_id"`
	CatalogServiceID    string   `json:"catalog_service_id"`
	ServiceName         string   `json:"service_name"`
	CategoryName        string   `json:"category_name"`
	Keywords            []string `json:"-"`
	HourlyRateCents     int64    `json:"hourly_rate_cents"`
	DurationOptions     []int    `json:"duration_options"`
}

// SearchHit is an offering with its relevance score.
type SearchHit struct {
	Offering
	Score float64 `json:"score"`
}

// SearchEvent is a recorded search used by analytics.
type SearchEvent struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id,omitempty"`
	Query        string    `json:"query"`
	ServiceIDs   []string  `json:"service_ids"`
	ResultsCount int       `json:"results_count"`
	CreatedAt    time.Time `json:"created_at"`
}
