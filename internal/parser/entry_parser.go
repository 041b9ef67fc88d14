package parser

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/balkashynov/tempo/internal/models"
)

var (
	clockRangeRegex = regexp.MustCompile(`^(\d{1,2}:\d{2})\s*-\s*(\d{1,2}:\d{2})$`)
	entryRangeRegex = regexp.MustCompile(`\b(\d{1,2}:\d{2})\s*-\s*(\d{1,2}:\d{2})\b`)
	categoryRegex   = regexp.MustCompile(`#([\p{L}0-9_-]+)`)
	onRegex         = regexp.MustCompile(`on:([^\s]+)`)
)

// ParsedEntry represents a worktime parsed from quick-entry syntax
type ParsedEntry struct {
	Start    models.Clock
	End      models.Clock
	Day      time.Time
	Category string
	Note     string
	Errors   []string
}

// ParseClockRange parses "HH:MM-HH:MM". The end must not be before the start.
func ParseClockRange(input string) (models.Clock, models.Clock, error) {
	m := clockRangeRegex.FindStringSubmatch(strings.TrimSpace(input))
	if m == nil {
		return 0, 0, fmt.Errorf("invalid time range %q. Use: HH:MM-HH:MM", input)
	}
	return clockPair(m[1], m[2])
}

func clockPair(from, to string) (models.Clock, models.Clock, error) {
	start, err := models.ParseClock(from)
	if err != nil {
		return 0, 0, err
	}
	end, err := models.ParseClock(to)
	if err != nil {
		return 0, 0, err
	}
	if end < start {
		return 0, 0, fmt.Errorf("end %s is before start %s", end, start)
	}
	return start, end, nil
}

// ParseEntry extracts a worktime from a one-line description
// Syntax: "09:00-10:30 #Category free text note on:yesterday"
// The day defaults to ref's day. Problems are collected in Errors.
func ParseEntry(input string, ref time.Time) ParsedEntry {
	result := ParsedEntry{
		Day:    startOfDay(ref),
		Errors: []string{},
	}

	if m := entryRangeRegex.FindStringSubmatch(input); m != nil {
		start, end, err := clockPair(m[1], m[2])
		if err != nil {
			result.Errors = append(result.Errors, "Invalid time range: "+err.Error())
		} else {
			result.Start, result.End = start, end
		}
		input = strings.Replace(input, m[0], "", 1)
	} else {
		result.Errors = append(result.Errors, "Missing time range. Use: HH:MM-HH:MM")
	}

	if m := categoryRegex.FindStringSubmatch(input); m != nil {
		result.Category = m[1]
		input = categoryRegex.ReplaceAllString(input, "")
	}

	if m := onRegex.FindStringSubmatch(input); m != nil {
		day, err := ParseDate(m[1], ref)
		if err != nil {
			result.Errors = append(result.Errors, "Invalid day '"+m[1]+"': "+err.Error())
		} else {
			result.Day = day
		}
		input = onRegex.ReplaceAllString(input, "")
	}

	// Clean up the note (remove extra spaces)
	result.Note = strings.Join(strings.Fields(input), " ")
	return result
}

// Interval returns the start and end instants of a parsed entry
func (p ParsedEntry) Interval() (time.Time, time.Time) {
	return p.Start.On(p.Day), p.End.On(p.Day)
}

func startOfDay(ref time.Time) time.Time {
	return time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, ref.Location())
}
