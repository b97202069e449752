package api

import (
	"errors"
	"sync"

	"github.com/go-playground/validator/v10"
)

// ErrValidation marks request errors that map to HTTP 400.
var ErrValidation = errors.New("validation failed")

// ValidationError carries the client-facing reason for a rejected request.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Unwrap() error { return ErrValidation }

func newValidationError(message string) error {
	return &ValidationError{Message: message}
}

const (
	msgRatingRequired = "user_id, artist, title, and rating are required"
	msgRatingInvalid  = `rating must be either "up" or "down"`
	msgUserRequired   = "user_id is required"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// validateRequest runs struct tag validation. Missing fields always win over
// malformed ones so a request lacking a rating is reported as incomplete.
func validateRequest(req any, requiredMsg string, messages map[string]string) error {
	err := getValidator().Struct(req)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return newValidationError(err.Error())
	}
	for _, fe := range fieldErrs {
		if fe.Tag() == "required" {
			return newValidationError(requiredMsg)
		}
	}
	for _, fe := range fieldErrs {
		if msg, ok := messages[fe.Field()+"."+fe.Tag()]; ok {
			return newValidationError(msg)
		}
	}
	return newValidationError(requiredMsg)
}
