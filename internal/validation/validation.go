// Package validation checks user-supplied answers before they reach the
// onboarding aggregate. Validators return nil on success so callers can feed
// them straight into a Collector.
package validation

import (
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/oklog/ulid/v2"
)

// ValidationError represents a single field validation failure.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func fail(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// Collector accumulates validation errors without failing on first.
type Collector struct {
	errors []ValidationError
}

// Add records err; nil is ignored.
func (c *Collector) Add(err *ValidationError) {
	if err != nil {
		c.errors = append(c.errors, *err)
	}
}

// HasErrors reports whether anything was recorded.
func (c *Collector) HasErrors() bool { return len(c.errors) > 0 }

// Errors returns the recorded errors in the order they were added.
func (c *Collector) Errors() []ValidationError { return c.errors }

// ValidateUTF8 rejects strings that are not valid UTF-8.
func ValidateUTF8(field, value string) *ValidationError {
	if utf8.ValidString(value) {
		return nil
	}
	return fail(field, "must be valid UTF-8")
}

// ValidateNoNullBytes rejects strings containing NUL.
func ValidateNoNullBytes(field, value string) *ValidationError {
	if strings.IndexByte(value, 0) < 0 {
		return nil
	}
	return fail(field, "must not contain null bytes")
}

// ValidateMaxLength limits value to max runes.
func ValidateMaxLength(field, value string, max int) *ValidationError {
	if utf8.RuneCountInString(value) <= max {
		return nil
	}
	return fail(field, "exceeds maximum length of %d characters", max)
}

// ValidateULID accepts 26-character Crockford base32 identifiers in either case.
func ValidateULID(field, value string) *ValidationError {
	if len(value) != ulid.EncodedSize {
		return fail(field, "must be a valid ULID (%d characters)", ulid.EncodedSize)
	}
	if _, err := ulid.ParseStrict(value); err != nil {
		return fail(field, "must be a valid ULID (invalid character)")
	}
	return nil
}

// ValidateRequired rejects empty and whitespace-only strings.
func ValidateRequired(field, value string) *ValidationError {
	if strings.TrimSpace(value) != "" {
		return nil
	}
	return fail(field, "is required")
}

// ValidateEnum requires an exact, case-sensitive match against allowed.
func ValidateEnum(field, value string, allowed []string) *ValidationError {
	if slices.Contains(allowed, value) {
		return nil
	}
	return fail(field, "must be one of: %s", strings.Join(allowed, ", "))
}

// ValidateIntRange requires min <= value <= max.
func ValidateIntRange(field string, value, min, max int) *ValidationError {
	if value >= min && value <= max {
		return nil
	}
	return fail(field, "must be between %d and %d", min, max)
}

// ValidateRange requires min <= value <= max. NaN is always out of range.
func ValidateRange(field string, value, min, max float64) *ValidationError {
	if value >= min && value <= max {
		return nil
	}
	return fail(field, "must be between %.1f and %.1f", min, max)
}
