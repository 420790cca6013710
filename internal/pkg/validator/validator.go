package validator

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()

	// Use JSON tag names in error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	registerCustomValidations()
}

func registerCustomValidations() {
	// Token subject types
	validate.RegisterValidation("subject_type", func(fl validator.FieldLevel) bool {
		switch fl.Field().String() {
		case "courier", "pdv", "supplier":
			return true
		}
		return false
	})

	// Token purposes
	validate.RegisterValidation("purpose", func(fl validator.FieldLevel) bool {
		switch fl.Field().String() {
		case "checkin", "collection", "delivery":
			return true
		}
		return false
	})

	// Fixed-point amounts travel as strings; digits with an optional
	// two-digit fraction
	validate.RegisterValidation("amount", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		if s == "" {
			return false
		}
		intPart, fracPart, hasFrac := strings.Cut(s, ".")
		if intPart == "" || !isDigits(intPart) {
			return false
		}
		if hasFrac && (len(fracPart) == 0 || len(fracPart) > 2 || !isDigits(fracPart)) {
			return false
		}
		return true
	})
}

func isDigits(s string) bool {
	for _, ch := range s {
		if ch < '0' || ch > '9' {
			return false
		}
	}
	return true
}

// Validate validates a struct and returns a map of field errors
func Validate(s interface{}) map[string]string {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	errors := make(map[string]string)
	for _, err := range err.(validator.ValidationErrors) {
		field := err.Field()
		switch err.Tag() {
		case "required":
			errors[field] = "This field is required"
		case "min":
			errors[field] = "Value is too short (min: " + err.Param() + ")"
		case "max":
			errors[field] = "Value is too long (max: " + err.Param() + ")"
		case "gte":
			errors[field] = "Value must be at least " + err.Param()
		case "lte":
			errors[field] = "Value must be at most " + err.Param()
		case "subject_type":
			errors[field] = "Invalid subject type. Must be: courier, pdv, or supplier"
		case "purpose":
			errors[field] = "Invalid purpose. Must be: checkin, collection, or delivery"
		case "amount":
			errors[field] = "Invalid amount. Use digits with up to two decimals, e.g. \"120.50\""
		default:
			errors[field] = "Invalid value"
		}
	}

	return errors
}

// ValidateVar validates a single variable
func ValidateVar(field interface{}, tag string) error {
	return validate.Var(field, tag)
}
