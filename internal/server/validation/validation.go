// Package validation checks and normalizes request payloads before they
// reach the session manager.
package validation

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

const (
	// bcrypt ignores everything past 72 bytes.
	passwordMaxBytes = 72

	// users.email is VARCHAR(255); RFC 5321 caps a path at 254 and the
	// local part at 64.
	emailMaxLen      = 254
	emailLocalMaxLen = 64
)

var (
	validate   = validator.New()
	emailShape = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

// fails reports whether value breaks the validator tag.
func fails(value, tag string) bool {
	return validate.Var(value, tag) != nil
}

// FieldError describes one invalid field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Errors is a list of field failures.
type Errors []FieldError

func (e Errors) Error() string {
	msgs := make([]string, len(e))
	for i, fe := range e {
		msgs[i] = fe.Message
	}
	return strings.Join(msgs, ", ")
}

func (e *Errors) add(field, msg string) {
	*e = append(*e, FieldError{Field: field, Message: msg})
}

// Register is the normalized registration input.
type Register struct {
	Name     string
	Email    string
	Password string
}

// Login is the normalized login input.
type Login struct {
	Email    string
	Password string
}

// ValidateRegister trims the name, normalizes the email and enforces the
// password policy. It returns nil Errors on success.
func ValidateRegister(name, email, password string) (Register, Errors) {
	var errs Errors
	out := Register{
		Name:     strings.TrimSpace(name),
		Email:    normalizeEmail(email),
		Password: password,
	}

	switch {
	case fails(out.Name, "required"):
		errs.add("name", "Name is required")
	case fails(out.Name, "min=2"):
		errs.add("name", "Name must be at least 2 characters long")
	case fails(out.Name, "max=50"):
		errs.add("name", "Name cannot exceed 50 characters")
	}

	checkEmail(&errs, out.Email)

	switch {
	case fails(password, "required"):
		errs.add("password", "Password is required")
	case fails(password, "min=6"):
		errs.add("password", "Password must be at least 6 characters long")
	case len(password) > passwordMaxBytes:
		errs.add("password", "Password cannot exceed 72 bytes")
	case !hasClasses(password):
		errs.add("password", "Password must contain at least one uppercase letter, one lowercase letter, and one number")
	}

	if len(errs) > 0 {
		return Register{}, errs
	}
	return out, nil
}

// ValidateLogin normalizes the email and requires both fields.
func ValidateLogin(email, password string) (Login, Errors) {
	var errs Errors
	out := Login{Email: normalizeEmail(email), Password: password}

	checkEmail(&errs, out.Email)
	if password == "" {
		errs.add("password", "Password is required")
	}

	if len(errs) > 0 {
		return Login{}, errs
	}
	return out, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func checkEmail(errs *Errors, email string) {
	if fails(email, "required") {
		errs.add("email", "Email is required")
		return
	}
	local, _, _ := strings.Cut(email, "@")
	if len(email) > emailMaxLen || len(local) > emailLocalMaxLen ||
		fails(email, "email") || !emailShape.MatchString(email) {
		errs.add("email", "Please provide a valid email address")
	}
}

func hasClasses(password string) bool {
	var lower, upper, digit bool
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return lower && upper && digit
}
