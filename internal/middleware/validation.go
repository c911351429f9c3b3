package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = newValidator()

// newValidator reports JSON field names and lets numeric tags such as gt=0
// apply to decimal amounts
func newValidator() *validator.Validate {
	v := validator.New()

	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})

	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})

	return v
}

func ValidateRequest(v interface{}) error {
	return validate.Struct(v)
}

// DecodeAndValidate decodes the JSON body into v and runs its validate tags
func DecodeAndValidate(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return ValidateRequest(v)
}

// ValidationError names a rejected field by its JSON name
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func FormatValidationErrors(err error) []ValidationError {
	var result []ValidationError

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		for _, e := range validationErrors {
			result = append(result, ValidationError{
				Field:   e.Field(),
				Message: getErrorMessage(e),
			})
		}
	}

	return result
}

// RespondWithDecodeError answers a failed DecodeAndValidate
func RespondWithDecodeError(w http.ResponseWriter, err error) {
	if details := FormatValidationErrors(err); len(details) > 0 {
		RespondWithValidationErrors(w, details)
		return
	}
	RespondWithError(w, http.StatusBadRequest, "invalid request body")
}

var fieldMessages = map[string]string{
	"required": "This field is required",
	"email":    "Invalid email format",
	"uuid":     "Invalid identifier",
	"url":      "Invalid URL",
	"oneof":    "Value must be one of: %s",
	"min":      "Value must be at least %s",
	"max":      "Value must be at most %s",
	"gte":      "Value must be greater than or equal to %s",
	"lte":      "Value must be less than or equal to %s",
	"gt":       "Value must be greater than %s",
	"lt":       "Value must be less than %s",
}

func getErrorMessage(e validator.FieldError) string {
	msg, ok := fieldMessages[e.Tag()]
	if !ok {
		return "Invalid value"
	}
	if strings.Contains(msg, "%s") {
		return fmt.Sprintf(msg, e.Param())
	}
	return msg
}
