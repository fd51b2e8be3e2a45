package types

import (
	"github.com/go-playground/validator/v10"
)

// Validate validates the CVData using the validator.
// Empty work history, education and skills are valid; only the name is required.
func (d *CVData) Validate() error {
	validate := validator.New()
	return validate.Struct(d)
}

// Validate validates the CoverLetterRequest using the validator.
func (r *CoverLetterRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}
