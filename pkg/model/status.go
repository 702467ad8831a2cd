package model

const (
	BookingPending   = "pending"
	BookingConfirmed = "confirmed"
	BookingCancelled = "cancelled"
)

const (
	ChallengePending   = "pending"
	ChallengeAccepted  = "accepted"
	ChallengeCancelled = "cancelled"
)

// DateLayout is the wire format of a calendar date.
const DateLayout = "2006-01-02"

// TimeLayout is the wire format of a time of day.
const TimeLayout = "15:04"
