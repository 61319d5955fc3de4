package service

import (
	"html"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
)

var (
	submissionURLPattern = regexp.MustCompile(`^(https?:\/\/)?([\w.-]+)\.([a-zA-Z]{2,6})(\/[\w.-]*)*\/?$`)
	namePolicy           = bluemonday.StrictPolicy()
)

var deadlineLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

// NewValidator returns a validator with the custom tags used by request DTOs registered.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	registerValidators(v)
	return v
}

func registerValidators(v *validator.Validate) {
	_ = v.RegisterValidation("submission_url", func(fl validator.FieldLevel) bool {
		return IsSubmissionURL(fl.Field().String())
	})
}

// IsSubmissionURL reports whether raw looks like an http(s) URL with a dotted host.
func IsSubmissionURL(raw string) bool {
	return submissionURLPattern.MatchString(raw)
}

// ParseDeadline accepts RFC 3339 timestamps as well as offset-less and date-only
// forms, which are read as UTC.
func ParseDeadline(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range deadlineLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed.UTC(), true
		}
	}
	return time.Time{}, false
}

// normalizeName trims raw and reports whether any text survives once markup
// is stripped. The stored name is the trimmed input, never the policy output.
func normalizeName(raw string) (string, bool) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", false
	}
	text := strings.TrimSpace(html.UnescapeString(namePolicy.Sanitize(name)))
	return name, text != ""
}
