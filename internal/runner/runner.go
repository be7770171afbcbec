package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/itbasis/go-clock"
	"go.uber.org/multierr"

	"github.com/pfrederiksen/handicap-check/internal/aggregate"
	"github.com/pfrederiksen/handicap-check/internal/classify"
	"github.com/pfrederiksen/handicap-check/internal/exclusion"
	"github.com/pfrederiksen/handicap-check/internal/logger"
	"github.com/pfrederiksen/handicap-check/internal/metrics"
	"github.com/pfrederiksen/handicap-check/internal/notifier"
	"github.com/pfrederiksen/handicap-check/internal/posting"
	"github.com/pfrederiksen/handicap-check/internal/report"
	"github.com/pfrederiksen/handicap-check/internal/roster"
	"github.com/pfrederiksen/handicap-check/internal/storage"
	"github.com/pfrederiksen/handicap-check/internal/teesheet"
)

// ReferenceSource loads the roster and exclusion calendar
type ReferenceSource interface {
	Roster(ctx context.Context) (*roster.Index, error)
	Exclusions(ctx context.Context) (*exclusion.Calendar, error)
}

// TableStore reads and replaces the cumulative tables
type TableStore interface {
	ReadTable(ctx context.Context, name string) ([][]string, error)
	WriteTable(ctx context.Context, name string, rows [][]string) error
}

// TeeSheet fetches the day's sign-ins
type TeeSheet interface {
	Fetch(ctx context.Context, date time.Time) ([]*teesheet.Entry, error)
}

// HistoryRecorder stores per-golfer rounds
type HistoryRecorder interface {
	RecordRun(ctx context.Context, date time.Time, runID string, results []*classify.Result) error
}

// SnapshotSaver keeps a copy of each run's outcome
type SnapshotSaver interface {
	SaveRun(date time.Time, snap *storage.RunSnapshot) error
}

// Runner wires the collaborators of a run. Reference, TeeSheet, Postings and
// Tables are required; the rest are skipped when nil or empty.
type Runner struct {
	Reference ReferenceSource
	TeeSheet  TeeSheet
	Postings  posting.Source
	Tables    TableStore

	Notifier       notifier.Notifier
	NotifyTo       []string
	ExportDir      string
	History        HistoryRecorder
	Snapshots      SnapshotSaver
	Metrics        *metrics.Recorder
	PushgatewayURL string

	Delimiter string
	Clock     clock.Clock
}

// Summary describes a finished run
type Summary struct {
	RunID    string            `json:"run_id"`
	Date     string            `json:"date"`
	Entries  int               `json:"tee_sheet_entries"`
	Outcome  *classify.Outcome `json:"outcome"`
	Exports  []string          `json:"exports,omitempty"`
	Failures []string          `json:"failures,omitempty"`

	// Err holds every non-fatal step failure
	Err error `json:"-"`
}

func (r *Runner) now() time.Time {
	if r.Clock == nil {
		return time.Now()
	}
	return r.Clock.Now()
}

// Run reconciles the tee sheet for date against the posting report
func (r *Runner) Run(ctx context.Context, date time.Time) (*Summary, error) {
	started := r.now()
	sum := &Summary{RunID: uuid.NewString(), Date: date.Format(report.DateLayout)}
	log := logger.Default().With(logger.Fields{"run_id": sum.RunID, "date": sum.Date})

	idx, err := r.Reference.Roster(ctx)
	if err != nil {
		return nil, fatal("loading roster", err)
	}
	cal, err := r.Reference.Exclusions(ctx)
	if err != nil {
		return nil, fatal("loading exclusions", err)
	}
	log.Info("Loaded reference data", logger.Fields{"members": idx.Len(), "exclusions": cal.Len()})

	entries, err := r.TeeSheet.Fetch(ctx, date)
	if err != nil {
		return nil, fatal("fetching tee sheet", err)
	}
	sum.Entries = len(entries)
	log.Info("Fetched tee sheet", logger.Fields{"entries": len(entries)})

	oracle := posting.NewOracle(r.Postings, date)
	c := classify.New(idx, cal, oracle)
	if r.Delimiter != "" {
		c.Delimiter = r.Delimiter
	}
	outcome, err := c.Classify(ctx, entries, date)
	if err != nil {
		return nil, fatal("classifying", err)
	}
	sum.Outcome = outcome
	log.Info("Classified golfers", logger.Fields{
		"postings":      oracle.Len(),
		"posted":        len(outcome.Posted),
		"no_post":       len(outcome.NoPost),
		"no_identifier": len(outcome.NoIdentifier),
		"duplicates":    outcome.Duplicates,
		"excluded":      outcome.Excluded,
	})

	var failures error
	step := func(name string, err error) {
		if err == nil {
			return
		}
		log.Error("Run step failed", logger.Fields{"step": name}, err)
		failures = multierr.Append(failures, fmt.Errorf("%s: %w", name, err))
	}

	step("updating "+aggregate.TableNoPost, r.updateCountTable(ctx, aggregate.TableNoPost, outcome.NoPost, date, aggregate.CountNoPost))
	step("updating "+aggregate.TableNoIdentifier, r.updateCountTable(ctx, aggregate.TableNoIdentifier, outcome.NoIdentifier, date, aggregate.CountOther))
	step("updating "+aggregate.TablePostPercentage, r.updatePercentages(ctx, outcome, date))

	if r.ExportDir != "" {
		paths, err := report.WriteGenderExports(r.ExportDir, date, outcome.Men, outcome.Women)
		sum.Exports = paths
		step("writing exports", err)
	}

	if r.History != nil {
		step("recording history", r.History.RecordRun(ctx, date, sum.RunID, outcome.Results))
	}

	if r.Snapshots != nil {
		step("saving run snapshot", r.Snapshots.SaveRun(date, &storage.RunSnapshot{
			RunID:        sum.RunID,
			Results:      outcome.Results,
			Posted:       outcome.Posted,
			NoPost:       outcome.NoPost,
			NoIdentifier: outcome.NoIdentifier,
		}))
	}

	if r.Notifier != nil {
		step("sending notification", r.Notifier.Notify(ctx, &notifier.Notification{
			To:          r.NotifyTo,
			Subject:     report.NoPostSubject(date),
			Body:        report.NoPostEmail(outcome.Men, outcome.Women, date),
			Attachments: sum.Exports,
		}))
	}

	if r.Metrics != nil {
		r.Metrics.ObserveOutcome(len(entries), outcome)
		r.Metrics.ObserveRun(started, r.now(), len(multierr.Errors(failures)))
		if r.PushgatewayURL != "" {
			step("pushing metrics", r.Metrics.Push(ctx, r.PushgatewayURL))
		}
	}

	sum.Err = failures
	for _, e := range multierr.Errors(failures) {
		sum.Failures = append(sum.Failures, e.Error())
	}
	log.Info("Run complete", logger.Fields{"failures": len(sum.Failures)})
	return sum, nil
}

func (r *Runner) updateCountTable(ctx context.Context, table string, names []string, date time.Time, counter aggregate.Counter) error {
	rows, err := r.Tables.ReadTable(ctx, table)
	if err != nil {
		return err
	}
	records := aggregate.Merge(aggregate.DecodeCountTable(rows, counter), names, date, counter)
	return r.Tables.WriteTable(ctx, table, aggregate.EncodeCountTable(records, counter))
}

func (r *Runner) updatePercentages(ctx context.Context, o *classify.Outcome, date time.Time) error {
	rows, err := r.Tables.ReadTable(ctx, aggregate.TablePostPercentage)
	if err != nil {
		return err
	}
	records := aggregate.MergePercentages(aggregate.DecodePercentTable(rows), o.Posted, o.NoPost, date)
	return r.Tables.WriteTable(ctx, aggregate.TablePostPercentage, aggregate.EncodePercentTable(records))
}

// Tournament runs the pre-tournament handicap check for a golfer workbook
// and writes the report next to it
func (r *Runner) Tournament(ctx context.Context, workbookPath string) (*report.TournamentReport, string, error) {
	members, err := report.ReadTournamentMembers(workbookPath)
	if err != nil {
		return nil, "", fatal("reading tournament workbook", err)
	}

	idx, err := r.Reference.Roster(ctx)
	if err != nil {
		return nil, "", fatal("loading roster", err)
	}

	rows, err := r.Tables.ReadTable(ctx, aggregate.TablePostPercentage)
	if err != nil {
		return nil, "", fatal("reading "+aggregate.TablePostPercentage, err)
	}

	rep := report.TournamentCheck(report.DocumentTitle(workbookPath), members, idx, aggregate.DecodePercentTable(rows))
	path := report.DocumentPath(workbookPath)
	if err := report.WriteTournamentReport(path, rep); err != nil {
		return rep, "", err
	}

	logger.Info("Tournament check written", logger.Fields{
		"path":       path,
		"members":    len(members),
		"below_full": len(rep.BelowFull),
		"no_history": len(rep.NoHistory),
	})
	return rep, path, nil
}
