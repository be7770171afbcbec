// Package aggregate maintains the cumulative per-golfer tallies kept across
// runs: how many times each golfer appeared on the no-post and no-GHIN lists,
// and how many rounds they posted versus did not post.
//
// Records are read from the report store, merged with one run's observations
// and written back. Counters only ever grow. A golfer's date history gains
// one entry per run in which the golfer is observed.
package aggregate

import (
	"sort"
	"strings"
	"time"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/pfrederiksen/handicap-check/internal/roster"
)

// DateLayout is the format of dates in a golfer's history
const DateLayout = "01-02-06"

// Counter selects which tally an observation increments
type Counter int

const (
	CountPosted Counter = iota
	CountNoPost
	CountOther
)

// Record is one golfer's cumulative tallies
type Record struct {
	Name        string   `json:"name"`
	PostedCount int      `json:"posted_count"`
	NoPostCount int      `json:"no_post_count"`
	OtherCount  int      `json:"other_count"`
	Dates       []string `json:"dates"`
}

// Count returns the selected counter
func (r *Record) Count(c Counter) int {
	switch c {
	case CountPosted:
		return r.PostedCount
	case CountNoPost:
		return r.NoPostCount
	default:
		return r.OtherCount
	}
}

func (r *Record) incr(c Counter) {
	switch c {
	case CountPosted:
		r.PostedCount++
	case CountNoPost:
		r.NoPostCount++
	default:
		r.OtherCount++
	}
}

// Played is the number of rounds with a known posting outcome
func (r *Record) Played() int {
	return r.PostedCount + r.NoPostCount
}

// PctAll is posted / (posted + no_post + other), or 0 with no rounds
func (r *Record) PctAll() float64 {
	total := r.PostedCount + r.NoPostCount + r.OtherCount
	if total == 0 {
		return 0
	}
	return float64(r.PostedCount) / float64(total)
}

// PctPlayed is posted / (posted + no_post), or 0 with no rounds
func (r *Record) PctPlayed() float64 {
	if r.Played() == 0 {
		return 0
	}
	return float64(r.PostedCount) / float64(r.Played())
}

// Merge adds one run's observed names to existing records, incrementing the
// selected counter and appending today's date once per distinct name. Missing records
// are created. The result is sorted by that counter, highest first.
func Merge(existing []*Record, observed []string, today time.Time, counter Counter) []*Record {
	records, byKey := index(existing)
	records = apply(records, byKey, observed, today, counter)
	sortBy(records, func(r *Record) int { return r.Count(counter) })
	return records
}

// MergePercentages applies a run's posted and not-posted lists to the
// posting percentage records. The result is sorted by rounds played,
// highest first.
func MergePercentages(existing []*Record, posted, noPost []string, today time.Time) []*Record {
	records, byKey := index(existing)
	records = apply(records, byKey, posted, today, CountPosted)
	records = apply(records, byKey, noPost, today, CountNoPost)
	sortBy(records, (*Record).Played)
	return records
}

// index copies records so callers' slices are never mutated
func index(existing []*Record) ([]*Record, map[string]*Record) {
	records := make([]*Record, 0, len(existing))
	byKey := make(map[string]*Record, len(existing))
	for _, r := range existing {
		if r == nil {
			continue
		}
		key := roster.NormalizeName(r.Name)
		if key == "" {
			continue
		}
		if prev, ok := byKey[key]; ok {
			// The sheet was edited by hand and holds the same golfer twice.
			prev.PostedCount += r.PostedCount
			prev.NoPostCount += r.NoPostCount
			prev.OtherCount += r.OtherCount
			prev.Dates = append(prev.Dates, r.Dates...)
			continue
		}
		cp := *r
		cp.Dates = append([]string(nil), r.Dates...)
		records = append(records, &cp)
		byKey[key] = &cp
	}
	return records, byKey
}

// apply counts each golfer at most once per observed list
func apply(records []*Record, byKey map[string]*Record, observed []string, today time.Time, counter Counter) []*Record {
	date := today.Format(DateLayout)
	seen := mapset.NewThreadUnsafeSet[string]()
	for _, name := range observed {
		name = strings.TrimSpace(name)
		key := roster.NormalizeName(name)
		if key == "" || !seen.Add(key) {
			continue
		}

		rec, ok := byKey[key]
		if !ok {
			rec = &Record{Name: name}
			byKey[key] = rec
			records = append(records, rec)
		}
		rec.incr(counter)
		rec.Dates = append(rec.Dates, date)
	}
	return records
}

func sortBy(records []*Record, count func(*Record) int) {
	sort.SliceStable(records, func(i, j int) bool {
		ci, cj := count(records[i]), count(records[j])
		if ci != cj {
			return ci > cj
		}
		return strings.ToLower(records[i].Name) < strings.ToLower(records[j].Name)
	})
}
