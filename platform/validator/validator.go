// Package validator provides validation infrastructure for the application.
// This is part of the platform layer and contains no business logic.
package validator

import (
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Dutch postcode: four digits (not starting with 0) and two letters,
// optionally separated by a space.
var postcodePattern = regexp.MustCompile(`^[1-9][0-9]{3}\s?[A-Za-z]{2}$`)

// Validator wraps the go-playground validator for structured validation.
// Using a struct allows for dependency injection and easier testing.
type Validator struct {
	v *validator.Validate
}

// New creates a new Validator instance with the domain rules registered.
func New() *Validator {
	v := validator.New()
	_ = v.RegisterValidation("postcode", validatePostcode)
	return &Validator{v: v}
}

// Struct validates a struct based on validation tags.
func (val *Validator) Struct(s interface{}) error {
	return val.v.Struct(s)
}

// Var validates a single variable against a tag.
func (val *Validator) Var(field interface{}, tag string) error {
	return val.v.Var(field, tag)
}

// RegisterValidation registers a custom validation function.
func (val *Validator) RegisterValidation(tag string, fn validator.Func) error {
	return val.v.RegisterValidation(tag, fn)
}

func validatePostcode(fl validator.FieldLevel) bool {
	return postcodePattern.MatchString(strings.TrimSpace(fl.Field().String()))
}
