package model

import "time"

// AvailabilityDay is the encoded slot bitmap of one instructor for one local date.
type AvailabilityDay struct {
	InstructorID string    `json:"instructor_id"`
	Date         time.Time `json:"date"`
	Bits         []byte    `json:"-"`
	UpdatedAt    time.Time `json:"updated_at"`
}
