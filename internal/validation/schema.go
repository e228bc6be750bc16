package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/pairup/backend/internal/models"
)

// ValidationErrors collects every failing rule of a record, not just the first.
type ValidationErrors []string

func (v ValidationErrors) Error() string {
	return strings.Join(v, ", ")
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	mustRegister(v, "personname", func(fl validator.FieldLevel) bool {
		return validateName(fl.FieldName(), fl.Field().String()) == nil
	})
	mustRegister(v, "adultage", func(fl validator.FieldLevel) bool {
		t, ok := fl.Field().Interface().(time.Time)
		if !ok {
			return false
		}
		_, err := ValidateBirthDate(t)
		return err == nil
	})
	mustRegister(v, "gender", func(fl validator.FieldLevel) bool {
		return ValidateGender(fl.Field().String()) == nil
	})
	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(err)
	}
}

// ValidatePrivateData checks a complete private record, as loaded from the store.
func ValidatePrivateData(d *models.PrivateUserData) error {
	return structErrors(validate.Struct(d))
}

// ValidatePublicData checks a complete public record.
func ValidatePublicData(d *models.PublicUserData) error {
	return structErrors(validate.Struct(d))
}

// PreparePrivatePatch validates a partial private record and returns a copy ready
// to write: nil values removed and date strings parsed into time.Time.
func PreparePrivatePatch(m map[string]any) (map[string]any, error) {
	cleaned, err := normalize(m, "birthDate", "createdAt")
	if err != nil {
		return nil, err
	}
	var patch models.PrivateUserPatch
	if err := decodePatch(cleaned, &patch); err != nil {
		return nil, err
	}
	if err := structErrors(validate.Struct(&patch)); err != nil {
		return nil, err
	}
	return cleaned, nil
}

// PreparePublicPatch is PreparePrivatePatch for the public record.
func PreparePublicPatch(m map[string]any) (map[string]any, error) {
	cleaned, err := normalize(m)
	if err != nil {
		return nil, err
	}
	var patch models.PublicUserPatch
	if err := decodePatch(cleaned, &patch); err != nil {
		return nil, err
	}
	if err := structErrors(validate.Struct(&patch)); err != nil {
		return nil, err
	}
	return cleaned, nil
}

func normalize(m map[string]any, dateKeys ...string) (map[string]any, error) {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if v == nil {
			continue
		}
		out[k] = v
	}
	var errs ValidationErrors
	for _, k := range dateKeys {
		s, ok := out[k].(string)
		if !ok {
			continue
		}
		t, err := ParseBirthDate(s)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: %s", k, describe(InvalidDate)))
			continue
		}
		out[k] = t
	}
	if len(errs) > 0 {
		return nil, errs
	}
	return out, nil
}

func decodePatch(m map[string]any, dst any) error {
	b, err := json.Marshal(m)
	if err != nil {
		return ValidationErrors{err.Error()}
	}
	if err := json.Unmarshal(b, dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return ValidationErrors{fmt.Sprintf("%s: has the wrong type", typeErr.Field)}
		}
		return ValidationErrors{err.Error()}
	}
	return nil
}

func structErrors(err error) error {
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return ValidationErrors{err.Error()}
	}
	out := make(ValidationErrors, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, message(fe))
	}
	return out
}

func message(fe validator.FieldError) string {
	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}
	switch fe.Tag() {
	case "required":
		return field + ": is required"
	case "personname":
		if s, ok := fe.Value().(string); ok {
			if err := validateName(field, s); err != nil {
				return err.Error()
			}
		}
		return field + ": " + describe(InvalidPattern)
	case "adultage":
		if t, ok := fe.Value().(time.Time); ok {
			if _, err := ValidateBirthDate(t); err != nil {
				var fieldErr *FieldError
				if errors.As(err, &fieldErr) {
					return field + ": " + describe(fieldErr.Kind)
				}
			}
		}
		return field + ": " + describe(InvalidDate)
	case "gender":
		return field + ": must be one of male, female, non-binary, prefer-not-to-say"
	case "email":
		return field + ": must be a valid email address"
	case "url":
		return field + ": must be a valid URL"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s: must be at least %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s: must be at least %s", field, fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s: must be at most %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s: must be at most %s", field, fe.Param())
	case "gtefield":
		return field + ": must not be less than min"
	}
	return fmt.Sprintf("%s: failed %s", field, fe.Tag())
}

// ValidateEmail checks a single address, e.g. an invite recipient.
func ValidateEmail(s string) error {
	if err := validate.Var(s, "required,email"); err != nil {
		return ValidationErrors{"email: must be a valid email address"}
	}
	return nil
}

// ValidateStruct runs the struct's validate tags, reporting every failure.
func ValidateStruct(v any) error {
	return structErrors(validate.Struct(v))
}
