package validation

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Validator is a function that validates a string value and returns an error message if invalid.
type Validator func(v string) string

// Required validates that a field is not empty and does not exceed maxLen characters.
// Uses rune count for proper Unicode support.
func Required(fieldName string, maxLen int) Validator {
	return func(v string) string {
		v = strings.TrimSpace(v)
		if v == "" {
			return fieldName + " is required."
		}
		if utf8.RuneCountInString(v) > maxLen {
			return fmt.Sprintf("%s cannot exceed %d characters.", fieldName, maxLen)
		}
		return ""
	}
}

// RequiredRange validates that a field is not empty and is between minLen and maxLen characters.
// Uses rune count for proper Unicode support.
func RequiredRange(fieldName string, minLen, maxLen int) Validator {
	return func(v string) string {
		v = strings.TrimSpace(v)
		if v == "" {
			return fieldName + " is required."
		}
		n := utf8.RuneCountInString(v)
		if n < minLen || n > maxLen {
			return fmt.Sprintf("%s must be between %d and %d characters.", fieldName, minLen, maxLen)
		}
		return ""
	}
}

// MinLength validates that a field has at least minLen characters.
// Whitespace is significant, so it suits secrets such as passwords.
func MinLength(fieldName string, minLen int) Validator {
	return func(v string) string {
		if v == "" {
			return fieldName + " is required."
		}
		if utf8.RuneCountInString(v) < minLen {
			return fmt.Sprintf("%s must be at least %d characters.", fieldName, minLen)
		}
		return ""
	}
}

// Email validates that a field is a bare email address (no display name).
func Email(fieldName string) Validator {
	return func(v string) string {
		v = strings.TrimSpace(v)
		if v == "" {
			return fieldName + " is required."
		}
		addr, err := mail.ParseAddress(v)
		if err != nil || addr.Address != v || !strings.Contains(addr.Address[strings.LastIndex(addr.Address, "@"):], ".") {
			return "Enter a valid email address."
		}
		return ""
	}
}

// OneOf validates that a field matches one of the provided options (case-insensitive).
func OneOf(fieldName string, options []string) Validator {
	return func(v string) string {
		v = strings.ToUpper(strings.TrimSpace(v))
		for _, opt := range options {
			if v == strings.ToUpper(opt) {
				return ""
			}
		}
		return fmt.Sprintf("%s must be one of: %s", fieldName, strings.Join(options, ", "))
	}
}

// Pattern validates that a field matches the provided regular expression.
func Pattern(fieldName string, re *regexp.Regexp) Validator {
	return func(v string) string {
		v = strings.TrimSpace(v)
		if v == "" {
			return ""
		}
		if !re.MatchString(v) {
			return fieldName + " has an invalid format."
		}
		return ""
	}
}

// FieldValidator provides a fluent API for validating multiple fields.
type FieldValidator struct {
	errors map[string]string
}

// New creates a new FieldValidator instance.
func New() *FieldValidator {
	return &FieldValidator{errors: make(map[string]string)}
}

// Validate validates a field with one or more validators.
// It stops at the first error for each field.
func (fv *FieldValidator) Validate(field, value string, validators ...Validator) *FieldValidator {
	for _, v := range validators {
		if err := v(value); err != "" {
			fv.errors[field] = err
			break // Stop at first error per field
		}
	}
	return fv
}

// Errors returns the accumulated validation errors.
func (fv *FieldValidator) Errors() map[string]string {
	return fv.errors
}
