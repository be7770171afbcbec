// Package classify reconciles a day's tee sheet against the roster and the
// GHIN posting report.
//
// Each distinct golfer on the tee sheet ends up in exactly one of three
// buckets: Posted, NoPost (played, GHIN known, no score posted) or
// NoIdentifier (no GHIN number on the tee sheet or roster, so posting cannot
// be checked). NoPost golfers are additionally split into men and women
// using the roster gender.
package classify

import (
	"context"
	"time"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/pfrederiksen/handicap-check/internal/exclusion"
	"github.com/pfrederiksen/handicap-check/internal/logger"
	"github.com/pfrederiksen/handicap-check/internal/roster"
	"github.com/pfrederiksen/handicap-check/internal/teesheet"
)

// Status is the classification outcome for one golfer
type Status string

const (
	StatusPosted       Status = "posted"
	StatusNoPost       Status = "no_post"
	StatusNoIdentifier Status = "no_identifier"
)

// Oracle answers whether a GHIN number posted for the round date
type Oracle interface {
	HasPosted(ctx context.Context, identifier string) (bool, error)
}

// Result is the outcome for one distinct golfer
type Result struct {
	Name         string        `json:"name"`
	Identifier   string        `json:"ghin,omitempty"`
	Email        string        `json:"email,omitempty"`
	Gender       roster.Gender `json:"gender,omitempty"`
	MemberNumber string        `json:"member_number,omitempty"`
	TeeTime      string        `json:"tee_time"`
	Status       Status        `json:"status"`
}

// Contact is a non-poster entry in a gender list
type Contact struct {
	Name         string `json:"name"`
	Email        string `json:"email,omitempty"`
	MemberNumber string `json:"member_number,omitempty"`
}

// Outcome holds the classified lists for one run
type Outcome struct {
	Results      []*Result `json:"results"`
	Posted       []string  `json:"posted"`
	NoPost       []string  `json:"no_post"`
	NoIdentifier []string  `json:"no_identifier"`
	Men          []Contact `json:"men"`
	Women        []Contact `json:"women"`

	// Diagnostics
	Duplicates int `json:"duplicates"`
	Singletons int `json:"singletons"`
	Excluded   int `json:"excluded"`
}

// Classifier holds the run's read-only reference data
type Classifier struct {
	Roster    *roster.Index
	Calendar  *exclusion.Calendar
	Oracle    Oracle
	Delimiter string
}

// New creates a classifier with the default name delimiter
func New(idx *roster.Index, cal *exclusion.Calendar, oracle Oracle) *Classifier {
	return &Classifier{
		Roster:    idx,
		Calendar:  cal,
		Oracle:    oracle,
		Delimiter: teesheet.DefaultDelimiter,
	}
}

// Classify processes tee sheet entries in order. The only error is the
// posting report being unavailable.
func (c *Classifier) Classify(ctx context.Context, entries []*teesheet.Entry, date time.Time) (*Outcome, error) {
	out := &Outcome{
		Results:      make([]*Result, 0, len(entries)),
		Posted:       make([]string, 0),
		NoPost:       make([]string, 0),
		NoIdentifier: make([]string, 0),
		Men:          make([]Contact, 0),
		Women:        make([]Contact, 0),
	}

	slotSizes := make(map[string]int, len(entries))
	for _, e := range entries {
		slotSizes[e.Time]++
	}

	seen := mapset.NewThreadUnsafeSet[string]()

	for _, e := range entries {
		key := e.DedupKey(c.Delimiter)
		if !seen.Add(key) {
			out.Duplicates++
			continue
		}

		// TODO: confirm with the handicap committee whether walk-ons booked
		// alone are meant to be skipped; singleton slots are dropped today.
		if slotSizes[e.Time] <= 1 {
			out.Singletons++
			continue
		}

		if c.Calendar.Excluded(date, e.Time) {
			out.Excluded++
			continue
		}

		res, err := c.classifyEntry(ctx, e)
		if err != nil {
			return nil, err
		}
		out.add(res)
	}

	logger.Info("Tee sheet classified", logger.Fields{
		"date":          date.Format(exclusion.DateLayout),
		"entries":       len(entries),
		"posted":        len(out.Posted),
		"no_post":       len(out.NoPost),
		"no_identifier": len(out.NoIdentifier),
		"duplicates":    out.Duplicates,
		"singletons":    out.Singletons,
		"excluded":      out.Excluded,
	})

	return out, nil
}

func (c *Classifier) classifyEntry(ctx context.Context, e *teesheet.Entry) (*Result, error) {
	cleaned := teesheet.CleanName(e.RawName, c.Delimiter)

	if e.Identifier != "" {
		name := cleaned
		if rec, ok := c.Roster.ByIdentifier(e.Identifier); ok {
			name = rec.Name
		}
		return c.check(ctx, name, e.Identifier, e.Time)
	}

	rec, ok := c.Roster.ByName(cleaned)
	if !ok || !rec.HasIdentifier() {
		return &Result{
			Name:    cleaned,
			TeeTime: e.Time,
			Status:  StatusNoIdentifier,
		}, nil
	}
	return c.check(ctx, cleaned, rec.Identifier, e.Time)
}

// check queries the oracle and fills contact details for non-posters
func (c *Classifier) check(ctx context.Context, name, ghin, teeTime string) (*Result, error) {
	posted, err := c.Oracle.HasPosted(ctx, ghin)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Name:       name,
		Identifier: ghin,
		TeeTime:    teeTime,
		Status:     StatusPosted,
	}
	if posted {
		return res, nil
	}

	res.Status = StatusNoPost
	if rec, ok := c.Roster.ByName(name); ok {
		res.Email = rec.Email
		res.Gender = rec.Gender
		res.MemberNumber = rec.MemberNumber
	}
	return res, nil
}

func (o *Outcome) add(r *Result) {
	o.Results = append(o.Results, r)

	switch r.Status {
	case StatusPosted:
		o.Posted = append(o.Posted, r.Name)
	case StatusNoIdentifier:
		o.NoIdentifier = append(o.NoIdentifier, r.Name)
	case StatusNoPost:
		o.NoPost = append(o.NoPost, r.Name)
		contact := Contact{Name: r.Name, Email: r.Email, MemberNumber: r.MemberNumber}
		// Unknown gender is counted in NoPost but lands in neither list.
		switch r.Gender {
		case roster.GenderMale:
			o.Men = append(o.Men, contact)
		case roster.GenderFemale:
			o.Women = append(o.Women, contact)
		}
	}
}
