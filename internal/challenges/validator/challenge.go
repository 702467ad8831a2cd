package validator

import (
	"futsal/pkg/logger"
	"futsal/pkg/model"
	"futsal/pkg/validation"

	"github.com/go-playground/validator/v10"
)

type ChallengeValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewChallengeValidator(log *logger.Logger) *ChallengeValidator {
	return &ChallengeValidator{
		validate: validation.New(log, "challenge"),
		logger:   log,
	}
}

func (v *ChallengeValidator) Validate(req *model.ChallengeRequest) error {
	return validation.Struct(v.validate, req)
}
