package validator

import (
	"testing"

	"futsal/pkg/logger"
	"futsal/pkg/model"
)

func TestSlotValidator_ValidateGenerate(t *testing.T) {
	v := NewSlotValidator(logger.Discard())

	tests := []struct {
		name    string
		req     model.GenerateSlotsRequest
		wantErr bool
	}{
		{"defaults", model.GenerateSlotsRequest{}, false},
		{"explicit range", model.GenerateSlotsRequest{StartDate: "2024-06-01", Days: 7}, false},
		{"bad date", model.GenerateSlotsRequest{StartDate: "01/06/2024"}, true},
		{"negative days", model.GenerateSlotsRequest{Days: -1}, true},
		{"more than a year", model.GenerateSlotsRequest{Days: 367}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateGenerate(&tt.req)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateGenerate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
