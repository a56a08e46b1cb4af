package repository

import (
	"fmt"
	"time"
)

// timeLayout is fixed-width so stored timestamps sort and compare as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// parseLayouts also accepts rows written before timeLayout was fixed and
// SQLite's CURRENT_TIMESTAMP default.
var parseLayouts = []string{
	timeLayout,
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	for _, layout := range parseLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", raw)
}
