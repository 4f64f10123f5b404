package model

import "time"

// Category groups catalog services (e.g. Music, Languages).
type Category struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Slug         string `json:"slug"`
	Description  string `json:"description"`
	DisplayOrder int    `json:"display_order"`
}

// CatalogService is a platform-defined lesson type instructors can offer.
type CatalogService struct {
	ID           string   `json:"id"`
	CategoryID   string   `json:"category_id"`
	CategoryName string   `json:"category_name,omitempty"`
	Name         string   `json:"name"`
	Slug         string   `json:"slug"`
	Description  string   `json:"description"`
	Keywords     []string `json:"keywords"`
	DisplayOrder int      `json:"display_order"`
}

// ServiceAnalytics is the periodically recalculated demand snapshot of a catalog service.
type ServiceAnalytics struct {
	CatalogServiceID   string    `json:"catalog_service_id"`
	Bookings7d         int       `json:"bookings_7d"`
	Bookings30d        int       `json:"bookings_30d"`
	UniqueStudents30d  int       `json:"unique_students_30d"`
	ActiveInstructors  int       `json:"active_instructors"`
	AvgHourlyRateCents int64     `json:"avg_hourly_rate_cents"`
	Searches7d         int       `json:"searches_7d"`
	DemandScore        float64   `json:"demand_score"`
	CalculatedAt       time.Time `json:"calculated_at"`
}
