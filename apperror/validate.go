package apperror

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	// `validator` reads `validate:"..."` struct tags on request DTOs.
	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate

	alphaNumUnderscore = regexp.MustCompile(`^[A-Za-z0-9_]+$`)
)

// validatorInstance lazily builds the shared validator. A *validator.Validate
// caches struct metadata, so one instance is reused for the whole process.
func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		// Report JSON field names ("display_name") instead of Go names ("DisplayName").
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
		// Usernames: letters, digits and underscores only.
		_ = validate.RegisterValidation("alphanumunderscore", func(fl validator.FieldLevel) bool {
			return alphaNumUnderscore.MatchString(fl.Field().String())
		})
	})
	return validate
}

// Validate runs struct-tag validation on v and converts any failure into a
// single ValidationError whose message lists every failing field, e.g.
// "validation failed: email must be a valid email; password must be at least 8 characters".
func Validate(v interface{}) error {
	err := validatorInstance().Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return NewValidationError("validation failed", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describeFieldError(fe))
	}
	return NewValidationError("validation failed: "+strings.Join(msgs, "; "), err)
}

func describeFieldError(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email", field)
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	case "alphanumunderscore":
		return fmt.Sprintf("%s may only contain letters, digits and underscores", field)
	case "url":
		return fmt.Sprintf("%s must be a valid URL", field)
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}
