package validator

import (
	"futsal/pkg/logger"
	"futsal/pkg/model"
	"futsal/pkg/validation"

	"github.com/go-playground/validator/v10"
)

type BookingValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewBookingValidator(log *logger.Logger) *BookingValidator {
	return &BookingValidator{
		validate: validation.New(log, "booking"),
		logger:   log,
	}
}

// Validate checks the request shape. Whether the start time is a slot
// boundary depends on the venue and is decided by the service.
func (v *BookingValidator) Validate(req *model.BookingRequest) error {
	return validation.Struct(v.validate, req)
}
