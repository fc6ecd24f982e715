package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Validate checks the configuration against its struct validation tags.
// World semantics (enum names, GUID shape, scene step references) are
// checked separately by BuildState, which has to resolve them anyway.
func Validate(cfg *Config) error {
	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		if errs, ok := err.(validator.ValidationErrors); ok {
			for _, fieldErr := range errs {
				return fmt.Errorf("invalid config field %s: failed %q validation",
					fieldErr.Namespace(), fieldErr.Tag())
			}
		}
		return fmt.Errorf("config validation error: %w", err)
	}
	return nil
}
