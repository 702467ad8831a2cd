package validator

import (
	"testing"

	"futsal/pkg/logger"
	"futsal/pkg/model"
	"futsal/pkg/validation"
)

func TestBookingValidator_Validate(t *testing.T) {
	v := NewBookingValidator(logger.Discard())

	tests := []struct {
		name    string
		req     model.BookingRequest
		wantErr bool
		field   string
	}{
		{
			name: "valid request",
			req:  model.BookingRequest{VenueID: "507f1f77bcf86cd799439011", Date: "2024-06-01", StartTime: "18:00"},
		},
		{
			name:    "invalid venue id",
			req:     model.BookingRequest{VenueID: "venue-1", Date: "2024-06-01", StartTime: "18:00"},
			wantErr: true,
			field:   "venue_id",
		},
		{
			name:    "invalid date",
			req:     model.BookingRequest{VenueID: "507f1f77bcf86cd799439011", Date: "2024-13-01", StartTime: "18:00"},
			wantErr: true,
			field:   "date",
		},
		{
			name:    "invalid start time",
			req:     model.BookingRequest{VenueID: "507f1f77bcf86cd799439011", Date: "2024-06-01", StartTime: "6pm"},
			wantErr: true,
			field:   "start_time",
		},
		{
			name:    "missing start time",
			req:     model.BookingRequest{VenueID: "507f1f77bcf86cd799439011", Date: "2024-06-01"},
			wantErr: true,
			field:   "start_time",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(&tt.req)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr {
				return
			}
			verrs, ok := err.(validation.ValidationErrors)
			if !ok {
				t.Fatalf("expected ValidationErrors, got %T", err)
			}
			if _, ok := verrs.Details()[tt.field]; !ok {
				t.Errorf("expected error on %s, got %v", tt.field, verrs)
			}
		})
	}
}
