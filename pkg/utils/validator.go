package utils

import (
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"user-backend/pkg/apperror"

	"github.com/go-playground/validator/v10"
)

const DateLayout = "2006-01-02"

// MaxPasswordBytes is the longest input bcrypt accepts.
const MaxPasswordBytes = 72

var (
	personNamePattern = regexp.MustCompile(`^[a-zA-Z\s]+$`)
	phonePattern      = regexp.MustCompile(`^[+]?[1-9]\d{0,15}$`)
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their JSON names so clients can map errors to inputs.
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return field.Name
		}
		return name
	})

	mustRegister(v, "personname", func(fl validator.FieldLevel) bool {
		return personNamePattern.MatchString(strings.TrimSpace(fl.Field().String()))
	})
	mustRegister(v, "phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	mustRegister(v, "strongpassword", func(fl validator.FieldLevel) bool {
		return IsStrongPassword(fl.Field().String())
	})
	// maxbytes bounds the encoded length, unlike max which counts runes.
	mustRegister(v, "maxbytes", func(fl validator.FieldLevel) bool {
		limit, err := strconv.Atoi(fl.Param())
		if err != nil {
			return false
		}
		return len(fl.Field().String()) <= limit
	})
	mustRegister(v, "birthdate", func(fl validator.FieldLevel) bool {
		return IsPlausibleBirthDate(fl.Field().String(), time.Now())
	})

	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register validation %s: %v", tag, err))
	}
}

// IsStrongPassword requires a lower and upper case letter, a digit and one of @$!%*?&.
func IsStrongPassword(password string) bool {
	var lower, upper, digit, special bool
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		case strings.ContainsRune("@$!%*?&", r):
			special = true
		}
	}
	return lower && upper && digit && special
}

// IsPlausibleBirthDate accepts YYYY-MM-DD dates giving an age between 13 and 120 years.
func IsPlausibleBirthDate(value string, now time.Time) bool {
	birth, err := time.Parse(DateLayout, value)
	if err != nil {
		return false
	}
	age := now.Year() - birth.Year()
	return age >= 13 && age <= 120
}

// ValidateStruct returns one entry per failing field, in declaration order.
func ValidateStruct(data any) []apperror.FieldError {
	err := validate.Struct(data)
	if err == nil {
		return nil
	}

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return []apperror.FieldError{{Field: "body", Message: err.Error()}}
	}

	errors := make([]apperror.FieldError, 0, len(validationErrors))
	for _, fieldErr := range validationErrors {
		errors = append(errors, apperror.FieldError{
			Field:   fieldErr.Field(),
			Message: getErrorMessage(fieldErr),
		})
	}
	return errors
}

// Validate wraps ValidateStruct into the ValidationError variant.
func Validate(data any) error {
	if fields := ValidateStruct(data); len(fields) > 0 {
		return apperror.Validation(fields)
	}
	return nil
}

// converts validator errors to human-readable messages
func getErrorMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Please provide a valid email"
	case "min":
		return fmt.Sprintf("Minimum length is %s", err.Param())
	case "max":
		return fmt.Sprintf("Maximum length is %s", err.Param())
	case "maxbytes":
		return fmt.Sprintf("Maximum length is %s bytes", err.Param())
	case "len":
		return fmt.Sprintf("Must be exactly %s characters", err.Param())
	case "oneof":
		options := strings.ReplaceAll(err.Param(), " ", ", ")
		return fmt.Sprintf("Must be one of: %s", options)
	case "uuid":
		return "Must be a valid UUID"
	case "personname":
		return "Can only contain letters and spaces"
	case "phone":
		return "Please provide a valid phone number"
	case "strongpassword":
		return "Must contain at least one uppercase letter, one lowercase letter, one number, and one special character"
	case "birthdate":
		return "Please provide a valid date of birth (YYYY-MM-DD); age must be between 13 and 120"
	case "eqfield":
		return "Password confirmation does not match new password"
	default:
		return fmt.Sprintf("Invalid %s field", err.Field())
	}
}

// formats validation errors into single string
func FormatValidationErrors(errors []apperror.FieldError) string {
	msgs := make([]string, 0, len(errors))
	for _, e := range errors {
		msgs = append(msgs, fmt.Sprintf("%s: %s", e.Field, e.Message))
	}
	return strings.Join(msgs, "; ")
}
