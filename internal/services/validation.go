package services

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/localnerve/voternet/internal/models"
)

var phonePattern = regexp.MustCompile(`^\+?[0-9 -]{10,}$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("role", func(fl validator.FieldLevel) bool {
		_, err := models.ParseRole(fl.Field().String())
		return err == nil
	})
	return v
}

// VolunteerInput is the user supplied part of a person.
type VolunteerInput struct {
	Name    string `json:"name" validate:"required,max=255"`
	Email   string `json:"email" validate:"omitempty,email,max=255"`
	Phone   string `json:"phone" validate:"required,phone,max=32"`
	VoterID string `json:"voterid" validate:"omitempty,alphanum,max=32"`
	Role    string `json:"role" validate:"omitempty,role"`
	Notes   string `json:"notes" validate:"max=255"`
}

// Normalize trims every field and lowercases the email and role.
func (in *VolunteerInput) Normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Phone = strings.TrimSpace(in.Phone)
	in.VoterID = strings.ToUpper(strings.TrimSpace(in.VoterID))
	in.Role = strings.ToLower(strings.TrimSpace(in.Role))
	in.Notes = strings.TrimSpace(in.Notes)
}

// Validate normalizes and checks the input.
func (in *VolunteerInput) Validate() error {
	in.Normalize()
	if err := validate.Struct(in); err != nil {
		return fromValidator(err)
	}
	return nil
}

func (in *VolunteerInput) role() models.Role {
	if r, err := models.ParseRole(in.Role); err == nil {
		return r
	}
	return models.RoleVolunteer
}
