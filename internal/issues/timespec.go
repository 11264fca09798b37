package issues

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

var deltaPattern = regexp.MustCompile(`^(\d+)([smhdwMy])$`)

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseTime interprets when as an absolute date or as a delta back from
// now: "90s", "15m", "6h", "3d", "2w", "1M" (30 days), "1y" (365 days).
func ParseTime(when string, now time.Time) (time.Time, error) {
	if m := deltaPattern.FindStringSubmatch(when); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return time.Time{}, fmt.Errorf("%q: %w", when, ErrInvalidTimeDelta)
		}
		var unit time.Duration
		switch m[2] {
		case "s":
			unit = time.Second
		case "m":
			unit = time.Minute
		case "h":
			unit = time.Hour
		case "d":
			unit = 24 * time.Hour
		case "w":
			unit = 7 * 24 * time.Hour
		case "M":
			unit = 30 * 24 * time.Hour
		case "y":
			unit = 365 * 24 * time.Hour
		}
		return now.Add(-time.Duration(n) * unit), nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, when, now.Location()); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%q: %w", when, ErrInvalidTimeDelta)
}
