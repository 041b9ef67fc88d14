package parser

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/balkashynov/tempo/internal/recurrence"
)

var weekdayNames = map[string]time.Weekday{
	"mo": time.Monday, "mon": time.Monday, "monday": time.Monday,
	"tu": time.Tuesday, "tue": time.Tuesday, "tuesday": time.Tuesday,
	"we": time.Wednesday, "wed": time.Wednesday, "wednesday": time.Wednesday,
	"th": time.Thursday, "thu": time.Thursday, "thursday": time.Thursday,
	"fr": time.Friday, "fri": time.Friday, "friday": time.Friday,
	"sa": time.Saturday, "sat": time.Saturday, "saturday": time.Saturday,
	"su": time.Sunday, "sun": time.Sunday, "sunday": time.Sunday,
}

var dayGroups = map[string][]time.Weekday{
	"weekdays": {time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday},
	"weekend":  {time.Saturday, time.Sunday},
	"daily":    {time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday, time.Sunday},
}

// NormalizeRule turns a weekday list into a weekly rule string
// Accepts formats like:
// - "mo,we,fr", "Mon, Wed, Fri" -> "FREQ=WEEKLY;BYDAY=MO,WE,FR"
// - "weekdays", "weekend", "daily"
// - a full rule ("FREQ=WEEKLY;BYDAY=MO"), returned unchanged for validation
// Days are de-duplicated and ordered Monday first.
func NormalizeRule(input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", fmt.Errorf("recurrence is empty")
	}
	if strings.HasPrefix(strings.ToUpper(input), "FREQ=") {
		return strings.ToUpper(input), nil
	}

	seen := make(map[time.Weekday]bool)
	for _, part := range strings.Split(strings.ToLower(input), ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if group, ok := dayGroups[part]; ok {
			for _, d := range group {
				seen[d] = true
			}
			continue
		}
		d, ok := weekdayNames[part]
		if !ok {
			return "", fmt.Errorf("unknown day %q. Use: mo,tu,we,th,fr,sa,su, weekdays, weekend or daily", part)
		}
		seen[d] = true
	}
	if len(seen) == 0 {
		return "", fmt.Errorf("no days in %q", input)
	}

	days := make([]time.Weekday, 0, len(seen))
	for d := range seen {
		days = append(days, d)
	}
	// Monday first, Sunday last
	sort.Slice(days, func(i, j int) bool {
		return (days[i]+6)%7 < (days[j]+6)%7
	})

	codes := make([]string, 0, len(days))
	for _, d := range days {
		codes = append(codes, recurrence.Code(d))
	}
	return "FREQ=WEEKLY;BYDAY=" + strings.Join(codes, ","), nil
}

// DescribeRule renders a stored rule for listings, e.g. "Mon, Wed, Fri"
func DescribeRule(raw string) string {
	r := recurrence.ParseRule(raw)
	if !r.Weekly {
		return raw + " (unsupported)"
	}
	if len(r.Days) == 0 {
		return "weekly, no days"
	}
	names := make([]string, 0, len(r.Days))
	for _, d := range r.Days {
		names = append(names, d.String()[:3])
	}
	return strings.Join(names, ", ")
}
