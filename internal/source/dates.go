package source

import (
	"strings"
	"time"
)

var (
	dayFirstLayouts = []string{
		"2-1-2006", "2/1/2006", "2.1.2006",
		"2-1-2006 15:04", "2/1/2006 15:04",
		"2-1-2006 15:04:05", "2/1/2006 15:04:05",
	}
	monthFirstLayouts = []string{
		"1-2-2006", "1/2/2006",
		"1-2-2006 15:04", "1/2/2006 15:04",
		"1-2-2006 15:04:05", "1/2/2006 15:04:05",
	}
	isoLayouts = []string{
		"2006-01-02",
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		time.RFC3339,
		time.RFC3339Nano,
	}
)

// ParseDate parses a sale date and returns local midnight of the calendar
// day as written. Time of day and zone offsets are discarded.
func ParseDate(value string, schema Schema) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}

	ordered := ambiguousLayouts(schema.DayFirst)
	layouts := make([]string, 0, len(schema.DateLayouts)+len(isoLayouts)+len(ordered))
	layouts = append(layouts, schema.DateLayouts...)
	layouts = append(layouts, isoLayouts...)
	layouts = append(layouts, ordered...)

	for _, layout := range layouts {
		t, err := time.Parse(layout, value)
		if err != nil {
			continue
		}
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.Local), true
	}
	return time.Time{}, false
}

func ambiguousLayouts(dayFirst bool) []string {
	if dayFirst {
		return dayFirstLayouts
	}
	return monthFirstLayouts
}

// FormatDate renders a date in the schema's preferred form for writing.
func FormatDate(t time.Time, schema Schema) string {
	if len(schema.DateLayouts) > 0 {
		return t.Format(schema.DateLayouts[0])
	}
	if schema.DayFirst {
		return t.Format("02-01-2006")
	}
	return t.Format("2006-01-02")
}
