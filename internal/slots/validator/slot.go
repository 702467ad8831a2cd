package validator

import (
	"futsal/pkg/logger"
	"futsal/pkg/model"
	"futsal/pkg/validation"

	"github.com/go-playground/validator/v10"
)

type SlotValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewSlotValidator(log *logger.Logger) *SlotValidator {
	return &SlotValidator{
		validate: validation.New(log, "slot"),
		logger:   log,
	}
}

func (v *SlotValidator) ValidateGenerate(req *model.GenerateSlotsRequest) error {
	return validation.Struct(v.validate, req)
}
