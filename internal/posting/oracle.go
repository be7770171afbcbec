package posting

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/pfrederiksen/handicap-check/internal/logger"
)

// ErrDatasetUnavailable is returned when the posting report cannot be loaded
var ErrDatasetUnavailable = errors.New("posting report unavailable")

// Source loads the posting report rows for a round date. The header row must
// already be removed; the first column of every row is the GHIN number.
type Source interface {
	Fetch(ctx context.Context, date time.Time) ([][]string, error)
}

// Oracle answers posting questions for one round date
type Oracle struct {
	source Source
	date   time.Time

	loaded bool
	err    error
	posted map[int64]struct{}
}

// NewOracle binds a source to a round date. Nothing is fetched until the
// first HasPosted call.
func NewOracle(source Source, date time.Time) *Oracle {
	return &Oracle{
		source: source,
		date:   date,
	}
}

// HasPosted reports whether the golfer with the given GHIN number posted a
// score. An identifier that is not an integer is reported as not posted. The
// only error is a failure to load the report.
func (o *Oracle) HasPosted(ctx context.Context, identifier string) (bool, error) {
	if err := o.load(ctx); err != nil {
		return false, err
	}

	ghin, ok := ParseIdentifier(identifier)
	if !ok {
		logger.Debug("Identifier is not numeric, treating as not posted", logger.Fields{
			"ghin": identifier,
		})
		return false, nil
	}

	_, posted := o.posted[ghin]
	return posted, nil
}

// Len returns the number of distinct GHIN numbers in the loaded report
func (o *Oracle) Len() int {
	return len(o.posted)
}

// load fetches the report once; failures are memoized too
func (o *Oracle) load(ctx context.Context) error {
	if o.loaded {
		return o.err
	}
	o.loaded = true

	rows, err := o.source.Fetch(ctx, o.date)
	if err != nil {
		o.err = fmt.Errorf("%w: %v", ErrDatasetUnavailable, err)
		return o.err
	}

	o.posted = make(map[int64]struct{}, len(rows))
	skipped := 0
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		ghin, ok := ParseIdentifier(row[0])
		if !ok {
			skipped++
			continue
		}
		o.posted[ghin] = struct{}{}
	}

	logger.Info("Posting report loaded", logger.Fields{
		"date":    o.date.Format("01-02-06"),
		"rows":    len(rows),
		"golfers": len(o.posted),
		"skipped": skipped,
	})
	return nil
}

// ParseIdentifier coerces a GHIN cell to an integer. Spreadsheet exports
// sometimes render whole numbers as "1234567.0", which is accepted.
func ParseIdentifier(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return int64(f), true
}
