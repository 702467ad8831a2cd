package model

import "time"

type Slot struct {
	ID         string     `json:"id,omitempty" bson:"_id,omitempty"`
	VenueID    string     `json:"venue_id" bson:"venue_id"`
	Date       time.Time  `json:"date" bson:"date"`
	StartTime  string     `json:"start_time" bson:"start_time"`
	EndTime    string     `json:"end_time" bson:"end_time"`
	IsReserved bool       `json:"is_reserved" bson:"is_reserved"`
	ReservedAt *time.Time `json:"reserved_at,omitempty" bson:"reserved_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at" bson:"created_at"`
}

type GenerateSlotsRequest struct {
	StartDate string `json:"start_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Days      int    `json:"days,omitempty" validate:"omitempty,min=1,max=366"`
}

type GenerateSlotsResult struct {
	VenueID      string   `json:"venue_id"`
	Created      int      `json:"created"`
	SkippedDates []string `json:"skipped_dates,omitempty"`
}

type RemoveSlotsResult struct {
	VenueID string `json:"venue_id"`
	Deleted int64  `json:"deleted"`
}
