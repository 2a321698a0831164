package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when a place, person or thing does not resolve.
	ErrNotFound = errors.New("not found")
	// ErrPermissionDenied is returned when the actor may not perform the operation.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrExternalLookup marks electoral roll and gateway failures. It is logged, not returned to callers.
	ErrExternalLookup = errors.New("external lookup failed")
	// ErrIntegrityViolation marks an import row that collides with existing data.
	ErrIntegrityViolation = errors.New("integrity violation")
)

// FieldError is one failed rule on one input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError reports input that fails a declared rule.
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// NewValidationError builds a single field ValidationError.
func NewValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: fmt.Sprintf(format, args...)}}}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// fromValidator converts validator/v10 errors into a ValidationError.
func fromValidator(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &ValidationError{}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, FieldError{Field: fe.Field(), Message: ruleMessage(fe)})
	}
	return out
}

func ruleMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "phone":
		return "must be a valid phone number"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "role":
		return "is not a known role"
	}
	return "failed rule " + fe.Tag()
}

// notFound maps gorm's missing record error onto ErrNotFound.
func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return err
}

func isNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
