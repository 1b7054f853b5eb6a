package models

import (
	"fmt"
	"strings"
	"time"
)

// LocalDateTimeLayout is the ISO-8601 local date-time format used for node inputs and list output.
const LocalDateTimeLayout = "2006-01-02T15:04:05"

var localDateTimeLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
}

// ParseLocalDateTime parses an ISO-8601 local date-time such as "2025-01-15T10:00:00" in loc.
// Surrounding single or double quotes are stripped. field names the input in error messages.
func ParseLocalDateTime(input, field string, loc *time.Location) (time.Time, error) {
	s := strings.Trim(input, `"'`)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: %s", ErrMissingField, field)
	}
	if loc == nil {
		loc = time.Local
	}

	for _, layout := range localDateTimeLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %s has invalid format, use ISO 8601 like 2025-01-15T10:00:00 (input was %q)",
		ErrInvalidDateTime, field, s)
}
