package model

// Venue is read from the venue directory; this service never writes it.
type Venue struct {
	ID              string `json:"id" bson:"_id,omitempty"`
	OwnerID         string `json:"owner_id" bson:"owner_id"`
	Name            string `json:"name" bson:"name"`
	OpeningTime     string `json:"opening_time" bson:"opening_time"`
	ClosingTime     string `json:"closing_time" bson:"closing_time"`
	SlotDurationMin int    `json:"slot_duration_min" bson:"slot_duration_min"`
}
