// Package validation holds the field rules of the registration form and
// the per-step dispatcher that runs them.
package validation

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"github.com/digitalocean/registration-wizard/pkg/models"
)

// SpecialCharacters are the symbols counted by the password rule
const SpecialCharacters = "!@#$%^&*()_+}{:;\"'`~\\/?,.<>|=-"

const (
	minPasswordLength  = 8
	minPasswordPerKind = 2
)

// Whitespace covers Unicode space separators and the BOM as well as ASCII
var emailShape = regexp.MustCompile(`^[^\s\p{Z}\x{FEFF}@]+@[^\s\p{Z}\x{FEFF}@]+\.[^\s\p{Z}\x{FEFF}@]+$`)

// Result is the outcome of checking one field
type Result struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message,omitempty"`
}

type rule struct {
	value   func(models.FormData) interface{}
	tag     string
	message string
}

var rules = map[string]rule{
	models.FieldEmailID: {
		value:   func(f models.FormData) interface{} { return f.EmailID },
		tag:     "required,email_shape",
		message: "Please enter a valid email address",
	},
	models.FieldPassword: {
		value:   func(f models.FormData) interface{} { return f.Password },
		tag:     "required,password_strength",
		message: "Password must contain at least 2 uppercase letters, 2 lowercase letters, 2 digits, and 2 special characters, with a minimum length of 8 characters",
	},
	models.FieldFirstName: {
		value:   func(f models.FormData) interface{} { return f.FirstName },
		tag:     "required,alpha,min=2,max=50",
		message: "Please enter a valid first name (2-50 characters, alphabets only)",
	},
	models.FieldLastName: {
		value:   func(f models.FormData) interface{} { return f.LastName },
		tag:     "omitempty,alpha",
		message: "Please enter a valid last name (alphabets only)",
	},
	models.FieldAddress: {
		value:   func(f models.FormData) interface{} { return f.Address },
		tag:     "required,min=10",
		message: "Please enter a valid address (minimum 10 characters)",
	},
	models.FieldCountryCode: {
		value:   func(f models.FormData) interface{} { return f.CountryCode },
		tag:     "required",
		message: "Please select a country code",
	},
	models.FieldPhoneNumber: {
		value:   func(f models.FormData) interface{} { return f.PhoneNumber },
		tag:     "required,len=10,number",
		message: "Please enter a 10-digit numeric phone number",
	},
	models.FieldAcceptTermsAndCondition: {
		value:   func(f models.FormData) interface{} { return f.AcceptTermsAndCondition },
		tag:     "required",
		message: "Please accept the terms and conditions",
	},
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Registration only fails on an empty tag name or nil func
	_ = v.RegisterValidation("email_shape", func(fl validator.FieldLevel) bool {
		return emailShape.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("password_strength", func(fl validator.FieldLevel) bool {
		return StrongPassword(fl.Field().String())
	})
	return v
}

// StrongPassword reports whether the password has at least two characters
// of each class (upper, lower, digit, special) and eight characters overall.
// Order of the classes does not matter.
func StrongPassword(password string) bool {
	if utf8.RuneCountInString(password) < minPasswordLength {
		return false
	}

	var upper, lower, digit, special int
	for _, r := range password {
		switch {
		case r <= unicode.MaxASCII && unicode.IsUpper(r):
			upper++
		case r <= unicode.MaxASCII && unicode.IsLower(r):
			lower++
		case r >= '0' && r <= '9':
			digit++
		case strings.ContainsRune(SpecialCharacters, r):
			special++
		}
	}

	return upper >= minPasswordPerKind &&
		lower >= minPasswordPerKind &&
		digit >= minPasswordPerKind &&
		special >= minPasswordPerKind
}

// IsField reports whether name is one of the form fields
func IsField(name string) bool {
	_, ok := rules[name]
	return ok
}

// ValidateField checks one field of the form. Unknown fields are valid.
func ValidateField(field string, form models.FormData) Result {
	r, ok := rules[field]
	if !ok {
		return Result{Valid: true}
	}

	if err := validate.Var(r.value(form), r.tag); err != nil {
		return Result{Valid: false, Message: r.message}
	}
	return Result{Valid: true}
}
