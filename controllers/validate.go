package controllers

import (
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	pinPattern           = regexp.MustCompile(`^\d{4,6}$`)
	accountNumberPattern = regexp.MustCompile(`^\d{10,16}$`)
)

// newValidator builds the shared request validator with the ATM-specific
// rules registered.
func newValidator() *validator.Validate {
	validate := validator.New()

	validate.RegisterValidation("pin", func(fl validator.FieldLevel) bool {
		return pinPattern.MatchString(fl.Field().String())
	})
	validate.RegisterValidation("account_number", func(fl validator.FieldLevel) bool {
		return accountNumberPattern.MatchString(fl.Field().String())
	})

	return validate
}

// validationMessage flattens validator errors into one client-facing line.
func validationMessage(err error) string {
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return "validation error"
	}

	var messages []string
	for _, e := range validationErrors {
		switch e.Tag() {
		case "required":
			messages = append(messages, "field "+e.Field()+" is required")
		case "email":
			messages = append(messages, "field "+e.Field()+" must be a valid email")
		case "min":
			messages = append(messages, "field "+e.Field()+" must be at least "+e.Param()+" characters")
		case "max":
			messages = append(messages, "field "+e.Field()+" must be at most "+e.Param()+" characters")
		case "len":
			messages = append(messages, "field "+e.Field()+" must be exactly "+e.Param()+" characters")
		case "numeric":
			messages = append(messages, "field "+e.Field()+" must contain only digits")
		case "gt":
			messages = append(messages, "field "+e.Field()+" must be greater than "+e.Param())
		case "pin":
			messages = append(messages, "field "+e.Field()+" must be a 4-6 digit PIN")
		case "account_number":
			messages = append(messages, "field "+e.Field()+" must be a 10-16 digit account number")
		default:
			messages = append(messages, "field "+e.Field()+" is invalid")
		}
	}
	return strings.Join(messages, "; ")
}
