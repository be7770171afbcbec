package sheets

import (
	"context"
	"fmt"
	"strconv"

	"google.golang.org/api/sheets/v4"

	"github.com/pfrederiksen/handicap-check/internal/exclusion"
	"github.com/pfrederiksen/handicap-check/internal/logger"
	"github.com/pfrederiksen/handicap-check/internal/roster"
)

// Ranges of the reference tabs
const (
	RosterRange     = "Sheet1!A:E"
	ExclusionsRange = "ExcludedDates!A:C"

	// tableColumns covers the widest aggregate table
	tableColumns = "A:G"

	valueInputOption = "USER_ENTERED"
)

// ReadRange fetches a range and converts every cell to a string
func ReadRange(ctx context.Context, srv *sheets.Service, spreadsheetID, rng string) ([][]string, error) {
	resp, err := srv.Spreadsheets.Values.Get(spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", rng, err)
	}
	return toStrings(resp.Values), nil
}

// Reference loads the roster and exclusion calendar from the spreadsheets
type Reference struct {
	srv      *sheets.Service
	rosterID string
	reportID string
}

// NewReference creates a reference loader. rosterID and reportID may be the
// same spreadsheet.
func NewReference(srv *sheets.Service, rosterID, reportID string) *Reference {
	return &Reference{srv: srv, rosterID: rosterID, reportID: reportID}
}

// Roster reads the member roster
func (r *Reference) Roster(ctx context.Context) (*roster.Index, error) {
	rows, err := ReadRange(ctx, r.srv, r.rosterID, RosterRange)
	if err != nil {
		return nil, fmt.Errorf("loading roster: %w", err)
	}
	idx := roster.ParseRows(rows)
	logger.Debug("Loaded roster", logger.Fields{"members": idx.Len()})
	return idx, nil
}

// Exclusions reads the excluded dates and time windows
func (r *Reference) Exclusions(ctx context.Context) (*exclusion.Calendar, error) {
	rows, err := ReadRange(ctx, r.srv, r.reportID, ExclusionsRange)
	if err != nil {
		return nil, fmt.Errorf("loading exclusions: %w", err)
	}
	cal := exclusion.ParseRows(rows)
	logger.Debug("Loaded exclusions", logger.Fields{"rules": cal.Len()})
	return cal, nil
}

// Store reads and rewrites the aggregate tables of the report spreadsheet.
// Tables read during a run are cached for the rest of that run; a Store
// should not outlive one run.
type Store struct {
	srv           *sheets.Service
	spreadsheetID string
	cache         map[string][][]string
}

// NewStore creates a store for one run
func NewStore(srv *sheets.Service, spreadsheetID string) *Store {
	return &Store{
		srv:           srv,
		spreadsheetID: spreadsheetID,
		cache:         make(map[string][][]string),
	}
}

// ReadTable returns all rows of the named tab, header included
func (s *Store) ReadTable(ctx context.Context, name string) ([][]string, error) {
	if rows, ok := s.cache[name]; ok {
		return rows, nil
	}

	rows, err := ReadRange(ctx, s.srv, s.spreadsheetID, name+"!"+tableColumns)
	if err != nil {
		return nil, err
	}
	s.cache[name] = rows
	return rows, nil
}

// WriteTable clears the named tab and writes rows starting at A1
func (s *Store) WriteTable(ctx context.Context, name string, rows [][]string) error {
	values := s.srv.Spreadsheets.Values

	if _, err := values.Clear(s.spreadsheetID, name+"!"+tableColumns, &sheets.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("clearing %s: %w", name, err)
	}

	body := &sheets.ValueRange{Values: toInterfaces(rows)}
	if _, err := values.Update(s.spreadsheetID, name+"!A1", body).
		ValueInputOption(valueInputOption).
		Context(ctx).
		Do(); err != nil {
		// The tab is now empty; drop the cached copy so a retry rereads it.
		delete(s.cache, name)
		return fmt.Errorf("writing %s: %w", name, err)
	}

	s.cache[name] = rows
	return nil
}

func toStrings(values [][]interface{}) [][]string {
	rows := make([][]string, len(values))
	for i, row := range values {
		rows[i] = make([]string, len(row))
		for j, v := range row {
			switch v := v.(type) {
			case nil:
			case float64:
				// Unformatted numbers arrive as JSON floats; GHIN numbers must
				// not turn into exponents.
				rows[i][j] = strconv.FormatFloat(v, 'f', -1, 64)
			default:
				rows[i][j] = fmt.Sprint(v)
			}
		}
	}
	return rows
}

func toInterfaces(rows [][]string) [][]interface{} {
	values := make([][]interface{}, len(rows))
	for i, row := range rows {
		values[i] = make([]interface{}, len(row))
		for j, v := range row {
			values[i][j] = v
		}
	}
	return values
}
