package teesheet

import (
	"fmt"
	"strings"

	"github.com/pfrederiksen/handicap-check/internal/logger"
)

// MinColumns is the number of positional fields a tee sheet row must carry
const MinColumns = 4

// DefaultDelimiter separates a member name from its disambiguating suffix
const DefaultDelimiter = "-"

// Entry is one golfer sign-in on the tee sheet
type Entry struct {
	Row        int    `json:"row"` // 1-based row number in the feed, header excluded
	Slot       string `json:"slot"`
	Time       string `json:"time"`
	RawName    string `json:"raw_name"`
	Identifier string `json:"ghin,omitempty"`
}

// MalformedFieldError reports a feed row that cannot be turned into an Entry
type MalformedFieldError struct {
	Row    int
	Field  string
	Reason string
}

func (e *MalformedFieldError) Error() string {
	return fmt.Sprintf("row %d: malformed %s: %s", e.Row, e.Field, e.Reason)
}

// ParseRow validates a single positional row.
func ParseRow(n int, row []string) (*Entry, error) {
	if len(row) < MinColumns {
		return nil, &MalformedFieldError{
			Row:    n,
			Field:  "row",
			Reason: fmt.Sprintf("expected at least %d columns, got %d", MinColumns, len(row)),
		}
	}

	return &Entry{
		Row:        n,
		Slot:       strings.TrimSpace(row[0]),
		Time:       strings.TrimSpace(row[1]),
		RawName:    row[2],
		Identifier: strings.TrimSpace(row[3]),
	}, nil
}

// ParseRows converts raw feed rows into entries. The header row is always
// discarded; malformed rows are logged and skipped.
func ParseRows(rows [][]string) []*Entry {
	if len(rows) > 0 {
		rows = rows[1:]
	}

	entries := make([]*Entry, 0, len(rows))
	for i, row := range rows {
		entry, err := ParseRow(i+1, row)
		if err != nil {
			logger.Warn("Skipping malformed tee sheet row", logger.Fields{
				"row": i + 1,
			})
			continue
		}
		entries = append(entries, entry)
	}
	return entries
}

// CleanName truncates a raw name at the first occurrence of delim and trims
// surrounding whitespace. "Smith-A" becomes "Smith".
func CleanName(raw, delim string) string {
	if delim != "" {
		if i := strings.Index(raw, delim); i != -1 {
			raw = raw[:i]
		}
	}
	return strings.TrimSpace(raw)
}

// DedupKey identifies one physical golfer within a tee sheet: the GHIN
// number when present, otherwise the cleaned name.
func (e *Entry) DedupKey(delim string) string {
	if e.Identifier != "" {
		return e.Identifier
	}
	return CleanName(e.RawName, delim)
}
