package recurrence

import (
	"strings"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/balkashynov/tempo/internal/apperr"
)

const weeklyPrefix = "FREQ=WEEKLY"

var dayCodes = map[string]time.Weekday{
	"MO": time.Monday,
	"TU": time.Tuesday,
	"WE": time.Wednesday,
	"TH": time.Thursday,
	"FR": time.Friday,
	"SA": time.Saturday,
	"SU": time.Sunday,
}

var rruleDays = map[time.Weekday]rrule.Weekday{
	time.Monday:    rrule.MO,
	time.Tuesday:   rrule.TU,
	time.Wednesday: rrule.WE,
	time.Thursday:  rrule.TH,
	time.Friday:    rrule.FR,
	time.Saturday:  rrule.SA,
	time.Sunday:    rrule.SU,
}

// Rule is the supported subset of an RFC5545 rule: weekly, by day of week.
type Rule struct {
	Weekly   bool
	HasByDay bool
	Days     []time.Weekday // unique, in the order they appear
}

// ParseRule never fails. Anything that is not a FREQ=WEEKLY rule is inert
// (Weekly == false) and unknown day codes are skipped.
func ParseRule(raw string) Rule {
	var r Rule
	if !strings.HasPrefix(raw, weeklyPrefix) {
		return r
	}
	r.Weekly = true

	seen := make(map[time.Weekday]bool)
	for _, part := range strings.Split(raw, ";") {
		codes, ok := strings.CutPrefix(part, "BYDAY=")
		if !ok {
			continue
		}
		r.HasByDay = true
		for _, code := range strings.Split(codes, ",") {
			wd, ok := dayCodes[code]
			if !ok || seen[wd] {
				continue
			}
			seen[wd] = true
			r.Days = append(r.Days, wd)
		}
	}
	return r
}

// Has reports whether the rule fires on wd.
func (r Rule) Has(wd time.Weekday) bool {
	for _, d := range r.Days {
		if d == wd {
			return true
		}
	}
	return false
}

// Code returns the two-letter RFC5545 code of wd.
func Code(wd time.Weekday) string {
	for code, d := range dayCodes {
		if d == wd {
			return code
		}
	}
	return ""
}

var allowedKeys = map[string]bool{"FREQ": true, "BYDAY": true, "WKST": true}

// Validate checks a rule before it is stored, so that stored rules are never
// silently inert. allowMissingByDay follows the expander's ByDayPolicy.
func Validate(raw string, allowMissingByDay bool) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return apperr.Validation("recurrence rule is required")
	}
	if !strings.HasPrefix(raw, weeklyPrefix) {
		return apperr.Validation("recurrence rule %q must start with %s", raw, weeklyPrefix)
	}

	opt, err := rrule.StrToROption(raw)
	if err != nil {
		return apperr.Validation("invalid recurrence rule %q: %v", raw, err)
	}
	if opt.Freq != rrule.WEEKLY {
		return apperr.Validation("only weekly recurrence rules are supported")
	}

	hasByDay := false
	for _, part := range strings.Split(raw, ";") {
		key, value, _ := strings.Cut(part, "=")
		if !allowedKeys[key] {
			return apperr.Validation("recurrence rule field %s is not supported", key)
		}
		if key != "BYDAY" {
			continue
		}
		hasByDay = true
		for _, code := range strings.Split(value, ",") {
			if _, ok := dayCodes[code]; !ok {
				return apperr.Validation("unknown day code %q, use MO,TU,WE,TH,FR,SA,SU", code)
			}
		}
	}
	if !hasByDay && !allowMissingByDay {
		return apperr.Validation("recurrence rule %q has no BYDAY days", raw)
	}
	return nil
}
