package service

import (
	"fmt"
	"strings"
	"time"
)

const TimeLayout = "2006-01-02 15:04:05"

var clientLayouts = []string{
	TimeLayout + "Z07:00",
	TimeLayout,
}

// ParseTimestamp accepts "YYYY-MM-DD HH:MM:SS" with a space or "T"
// separator, an optional fraction and an optional Z or numeric offset.
// The result is UTC with the fraction dropped.
func ParseTimestamp(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if len(s) > 10 && s[10] == 'T' {
		s = s[:10] + " " + s[11:]
	}
	for _, layout := range clientLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC().Truncate(time.Second), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTimestamp, raw)
}

func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}
