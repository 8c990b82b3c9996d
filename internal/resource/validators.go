package resource

import (
	"github.com/go-playground/validator/v10"
)

// RegisterValidators installs the depot_category and depot_file_type tags.
func RegisterValidators(v *validator.Validate) error {
	if err := v.RegisterValidation("depot_category", func(fl validator.FieldLevel) bool {
		return Category(fl.Field().String()).Valid()
	}); err != nil {
		return err
	}
	return v.RegisterValidation("depot_file_type", func(fl validator.FieldLevel) bool {
		return FileType(fl.Field().String()).Valid()
	})
}
