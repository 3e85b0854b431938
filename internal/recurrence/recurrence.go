// Package recurrence validates the recurrence patterns stored on events.
//
// Patterns are metadata only: nothing in the calendar expands them into
// occurrences. Normalising them up front keeps what is stored parseable by
// any consumer that does want to expand them later.
package recurrence

import (
	"errors"
	"fmt"
	"strings"

	"github.com/teambition/rrule-go"
)

// ErrEmpty is returned for a blank pattern.
var ErrEmpty = errors.New("recurrence pattern is empty")

var keywords = map[string]string{
	"daily":    "FREQ=DAILY",
	"weekly":   "FREQ=WEEKLY",
	"biweekly": "FREQ=WEEKLY;INTERVAL=2",
	"monthly":  "FREQ=MONTHLY",
	"yearly":   "FREQ=YEARLY",
}

// Normalize converts a keyword ("Weekly") or an RFC 5545 rule, with or
// without the "RRULE:" prefix, into canonical RRULE text without DTSTART.
func Normalize(pattern string) (string, error) {
	p := strings.TrimSpace(pattern)
	if p == "" {
		return "", ErrEmpty
	}
	if rule, ok := keywords[strings.ToLower(p)]; ok {
		p = rule
	}
	p = strings.TrimPrefix(strings.ToUpper(p), "RRULE:")

	opt, err := rrule.StrToROption(p)
	if err != nil {
		return "", fmt.Errorf("invalid recurrence pattern %q: %w", pattern, err)
	}
	return opt.RRuleString(), nil
}

// Validate reports whether pattern can be normalised.
func Validate(pattern string) error {
	_, err := Normalize(pattern)
	return err
}
