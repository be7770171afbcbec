// Package exclusion maps calendar dates to tee-time windows that are not
// subject to posting checks (member-guest days, shotgun events, course
// closures and the like).
//
// Rules are loaded once per run from rows [date, start?, end?] with times in
// 24-hour HH:MM. A rule with neither bound excludes the whole day; a rule with
// one bound is open-ended on the other side. Both bounds are inclusive.
package exclusion

import (
	"strings"
	"time"

	"github.com/pfrederiksen/handicap-check/internal/logger"
)

// DateLayout is the format dates take in the exclusion sheet and in
// report date strings.
const DateLayout = "01-02-06"

// Rule excludes tee times on a single date. A nil bound is unbounded.
type Rule struct {
	Date  string     // normalized to DateLayout
	Start *time.Time // time of day, zero date
	End   *time.Time // time of day, zero date

	// Malformed is set when a bound was present but unparsable; such a rule
	// never matches.
	Malformed bool
}

// FullDay reports whether the rule excludes the entire date
func (r Rule) FullDay() bool {
	return !r.Malformed && r.Start == nil && r.End == nil
}

// Matches reports whether a parsed tee time falls inside the rule.
func (r Rule) Matches(teeTime time.Time) bool {
	if r.Malformed {
		return false
	}
	if r.FullDay() {
		return true
	}
	if r.Start != nil && teeTime.Before(*r.Start) {
		return false
	}
	if r.End != nil && teeTime.After(*r.End) {
		return false
	}
	return true
}

// Calendar holds every exclusion rule keyed by date
type Calendar struct {
	rules map[string][]Rule
}

// NewCalendar builds a calendar from rules
func NewCalendar(rules []Rule) *Calendar {
	c := &Calendar{rules: make(map[string][]Rule)}
	for _, r := range rules {
		c.rules[r.Date] = append(c.rules[r.Date], r)
	}
	return c
}

// ParseRows builds a calendar from sheet rows. The header row is discarded.
// Rows whose date cannot be parsed are skipped. Blank times are absent
// bounds; a time that is present but unparsable makes the rule match nothing.
func ParseRows(rows [][]string) *Calendar {
	if len(rows) > 0 {
		rows = rows[1:]
	}

	rules := make([]Rule, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 || strings.TrimSpace(row[0]) == "" {
			continue
		}

		date, ok := ParseDate(row[0])
		if !ok {
			logger.Warn("Skipping exclusion row with unparsable date", logger.Fields{
				"date": row[0],
			})
			continue
		}

		rule := Rule{Date: date.Format(DateLayout)}
		startOK, endOK := true, true
		if len(row) > 1 {
			rule.Start, startOK = parseClock(row[1])
		}
		if len(row) > 2 {
			rule.End, endOK = parseClock(row[2])
		}
		if !startOK || !endOK {
			logger.Warn("Exclusion row has an unparsable time and will not match", logger.Fields{
				"date":  row[0],
				"start": cellAt(row, 1),
				"end":   cellAt(row, 2),
			})
			rule.Malformed = true
		}
		rules = append(rules, rule)
	}

	return NewCalendar(rules)
}

// RulesFor returns the rules for a date
func (c *Calendar) RulesFor(date time.Time) []Rule {
	if c == nil {
		return nil
	}
	return c.rules[date.Format(DateLayout)]
}

// Len returns the total number of rules
func (c *Calendar) Len() int {
	n := 0
	for _, rules := range c.rules {
		n += len(rules)
	}
	return n
}

// Excluded reports whether a raw tee time ("h:mm AM/PM") on the given date
// falls inside any exclusion rule. A tee time that cannot be parsed is never
// excluded.
func (c *Calendar) Excluded(date time.Time, rawTeeTime string) bool {
	teeTime, ok := ParseTeeTime(rawTeeTime)
	if !ok {
		return false
	}

	for _, rule := range c.RulesFor(date) {
		if rule.Matches(teeTime) {
			return true
		}
	}
	return false
}

// ParseTeeTime parses the tee sheet's 12-hour clock format.
func ParseTeeTime(s string) (time.Time, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range []string{"3:04 PM", "3:04PM", "3:04:05 PM"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseDate accepts "01-02-06" and "01-02-2006" (single-digit month and day too).
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"01-02-06", "1-2-06", "01-02-2006", "1-2-2006"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// parseClock parses a 24-hour HH:MM bound. A blank value is (nil, true);
// an unparsable one is (nil, false).
func parseClock(s string) (*time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, true
	}
	t, err := time.Parse("15:04", s)
	if err != nil {
		return nil, false
	}
	return &t, true
}

func cellAt(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}
