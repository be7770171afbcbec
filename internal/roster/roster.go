// Package roster provides the member roster lookup used to resolve golfer
// names, GHIN numbers and contact details.
//
// The roster is loaded once per run from positional rows
// [name, ghin?, email?, gender?, member_number?] and is read-only afterwards.
// Name comparisons are case- and whitespace-insensitive (see NormalizeName);
// GHIN and member number comparisons are exact after trimming.
package roster

import (
	"strings"
)

// Gender is the nominal gender recorded on the roster.
type Gender string

const (
	GenderMale    Gender = "M"
	GenderFemale  Gender = "F"
	GenderUnknown Gender = ""
)

// ParseGender maps a roster cell to a Gender. Anything other than M or F is unknown.
func ParseGender(s string) Gender {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "M":
		return GenderMale
	case "F":
		return GenderFemale
	default:
		return GenderUnknown
	}
}

// Record is one member of the club roster
type Record struct {
	Name         string `json:"name"`
	Identifier   string `json:"ghin,omitempty"`
	Email        string `json:"email,omitempty"`
	Gender       Gender `json:"gender,omitempty"`
	MemberNumber string `json:"member_number,omitempty"`
}

// HasIdentifier reports whether the member has a GHIN number on file.
func (r *Record) HasIdentifier() bool {
	return r != nil && r.Identifier != ""
}

// Index is a normalized lookup over roster records
type Index struct {
	records      []*Record
	byName       map[string]*Record
	byIdentifier map[string]*Record
	byMember     map[string]*Record
}

// NormalizeName lowercases a name, trims it and collapses internal
// whitespace runs to a single space.
func NormalizeName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

// NewIndex builds an index from records. When two records share a
// normalized name or GHIN number, the first one wins.
func NewIndex(records []*Record) *Index {
	idx := &Index{
		records:      make([]*Record, 0, len(records)),
		byName:       make(map[string]*Record, len(records)),
		byIdentifier: make(map[string]*Record, len(records)),
		byMember:     make(map[string]*Record, len(records)),
	}

	for _, rec := range records {
		if rec == nil {
			continue
		}
		key := NormalizeName(rec.Name)
		if key == "" {
			continue
		}
		idx.records = append(idx.records, rec)

		if _, exists := idx.byName[key]; !exists {
			idx.byName[key] = rec
		}
		if rec.Identifier != "" {
			if _, exists := idx.byIdentifier[rec.Identifier]; !exists {
				idx.byIdentifier[rec.Identifier] = rec
			}
		}
		if rec.MemberNumber != "" {
			if _, exists := idx.byMember[rec.MemberNumber]; !exists {
				idx.byMember[rec.MemberNumber] = rec
			}
		}
	}

	return idx
}

// ParseRows builds an index from sheet rows. The first row is a header and
// is always discarded. Rows with an empty name are skipped.
func ParseRows(rows [][]string) *Index {
	records := make([]*Record, 0, len(rows))
	if len(rows) > 0 {
		rows = rows[1:]
	}

	for _, row := range rows {
		name := strings.TrimSpace(cell(row, 0))
		if name == "" {
			continue
		}
		records = append(records, &Record{
			Name:         name,
			Identifier:   strings.TrimSpace(cell(row, 1)),
			Email:        strings.TrimSpace(cell(row, 2)),
			Gender:       ParseGender(cell(row, 3)),
			MemberNumber: strings.TrimSpace(cell(row, 4)),
		})
	}

	return NewIndex(records)
}

// ByName finds a member by normalized name.
func (idx *Index) ByName(name string) (*Record, bool) {
	rec, ok := idx.byName[NormalizeName(name)]
	return rec, ok
}

// ByIdentifier finds a member by GHIN number.
func (idx *Index) ByIdentifier(ghin string) (*Record, bool) {
	ghin = strings.TrimSpace(ghin)
	if ghin == "" {
		return nil, false
	}
	rec, ok := idx.byIdentifier[ghin]
	return rec, ok
}

// ByMemberNumber finds a member by club member number.
func (idx *Index) ByMemberNumber(number string) (*Record, bool) {
	number = strings.TrimSpace(number)
	if number == "" {
		return nil, false
	}
	rec, ok := idx.byMember[number]
	return rec, ok
}

// Len returns the number of indexed records
func (idx *Index) Len() int {
	return len(idx.records)
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}
