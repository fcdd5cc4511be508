// Package sanitize escapes and normalizes untrusted input before it is stored.
package sanitize

import (
	"errors"
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	ErrRequired     = errors.New("value is required")
	ErrInvalidURL   = errors.New("URL must start with http:// or https://")
	ErrUnsafeURL    = errors.New("URL scheme is not allowed")
	ErrSlugTooShort = errors.New("slug must be at least 3 characters")
	ErrInvalidPhone = errors.New("invalid phone number")
	ErrInvalidEmail = errors.New("invalid email address")
	ErrWeakPassword = errors.New("password must be at least 8 characters with uppercase, lowercase, number, and special character")
	ErrPasswordLong = errors.New("password must be at most 72 bytes")
)

// FieldError ties a validation failure to the input field that caused it
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// NewFieldError wraps err with the field name
func NewFieldError(field string, err error) *FieldError {
	return &FieldError{Field: field, Err: err}
}

const (
	// MaxRichTextLength caps HTML-bearing input before pattern removal
	MaxRichTextLength = 10000

	MinSlugLength     = 3
	MinPasswordLength = 8
	// MaxPasswordBytes is the longest input bcrypt accepts
	MaxPasswordBytes = 72
	MinPhoneLength    = 7
	MaxPhoneLength    = 20

	passwordSymbols = `!@#$%^&*(),.?":{}|<>`
)

var (
	scriptBlock  = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	eventHandler = regexp.MustCompile(`(?i)on\w+\s*=`)
	unsafeScheme = regexp.MustCompile(`(?i)(javascript:|vbscript:|data:text/html)`)

	slugDisallowed = regexp.MustCompile(`[^a-z0-9_-]`)

	validate = validator.New()
)

// EscapeText trims s, escapes HTML reserved characters and truncates the result to maxLen runes.
// A maxLen of zero or less disables truncation.
func EscapeText(s string, maxLen int) string {
	escaped := html.EscapeString(strings.TrimSpace(s))
	return truncate(escaped, maxLen)
}

// SanitizeRichText removes script blocks, inline event handler attributes and
// script-capable URI schemes. All other markup is kept as written.
func SanitizeRichText(s string) string {
	s = truncate(s, MaxRichTextLength)
	s = scriptBlock.ReplaceAllString(s, "")
	s = eventHandler.ReplaceAllString(s, "")
	s = unsafeScheme.ReplaceAllString(s, "")
	return s
}

// CheckPassword returns ErrPasswordLong when s cannot be hashed and ErrWeakPassword
// when it fails ValidatePasswordStrength.
func CheckPassword(s string) error {
	if len(s) > MaxPasswordBytes {
		return ErrPasswordLong
	}
	if !ValidatePasswordStrength(s) {
		return ErrWeakPassword
	}
	return nil
}

// ValidatePasswordStrength reports whether s has at least 8 characters including
// an ASCII uppercase letter, an ASCII lowercase letter, an ASCII digit and a symbol.
func ValidatePasswordStrength(s string) bool {
	if len([]rune(s)) < MinPasswordLength {
		return false
	}

	var upper, lower, digit, symbol bool
	for _, r := range s {
		switch {
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune(passwordSymbols, r):
			symbol = true
		}
	}
	return upper && lower && digit && symbol
}

// ValidateURL returns the trimmed URL when it uses http or https
func ValidateURL(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ErrRequired
	}

	if !strings.HasPrefix(s, "http://") && !strings.HasPrefix(s, "https://") {
		return "", ErrInvalidURL
	}
	lower := strings.ToLower(s)
	if strings.HasPrefix(lower, "javascript:") || strings.HasPrefix(lower, "data:") {
		return "", ErrUnsafeURL
	}
	return s, nil
}

// NormalizeSlug lowercases s and strips every character outside [a-z0-9_-]
func NormalizeSlug(s string) (string, error) {
	slug := slugDisallowed.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), "")
	if len(slug) < MinSlugLength {
		return "", ErrSlugTooShort
	}
	return slug, nil
}

// NormalizePhone keeps digits and '+' and checks the result is 7 to 20 characters long
func NormalizePhone(s string) (string, error) {
	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '+' {
			b.WriteRune(r)
		}
	}

	phone := b.String()
	if len(phone) < MinPhoneLength || len(phone) > MaxPhoneLength {
		return "", ErrInvalidPhone
	}
	return phone, nil
}

// NormalizeEmail trims and lowercases s and checks its syntax
func NormalizeEmail(s string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(s))
	if email == "" {
		return "", ErrRequired
	}
	if err := validate.Var(email, "email"); err != nil {
		return "", ErrInvalidEmail
	}
	return email, nil
}

func truncate(s string, maxLen int) string {
	if maxLen <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen])
}
