package validator

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks struct tags and returns violations keyed by lowercased
// field name, or nil when the value is valid.
func Validate(v interface{}) map[string]string {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	violations := make(map[string]string)
	for _, fe := range err.(validator.ValidationErrors) {
		violations[strings.ToLower(fe.Field())] = fe.Tag()
	}
	return violations
}
