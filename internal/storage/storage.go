package storage

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/pfrederiksen/handicap-check/internal/classify"
	"github.com/pfrederiksen/handicap-check/internal/exclusion"
	"github.com/pfrederiksen/handicap-check/internal/roster"
)

// DefaultDataDir is used when --data-dir is not given
const DefaultDataDir = "~/.local/share/handicap-check"

// Reference data file names inside the data directory
const (
	RosterFile     = "roster.csv"
	ExclusionsFile = "excluded_dates.csv"
)

// Table is the on-disk form of one cumulative table
type Table struct {
	Name      string     `json:"name"`
	UpdatedAt string     `json:"updated_at"`
	Rows      [][]string `json:"rows"`
}

// RunSnapshot records the outcome of one run
type RunSnapshot struct {
	RunID        string             `json:"run_id"`
	Date         string             `json:"date"`
	CreatedAt    string             `json:"created_at"`
	Results      []*classify.Result `json:"results"`
	Posted       []string           `json:"posted"`
	NoPost       []string           `json:"no_post"`
	NoIdentifier []string           `json:"no_identifier"`
}

// Store handles persistence of tables and run snapshots
type Store struct {
	fs      afero.Fs
	dataDir string
}

// New creates a new Store rooted at dataDir on fs
func New(fs afero.Fs, dataDir string) (*Store, error) {
	// Expand ~ to home directory
	if strings.HasPrefix(dataDir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, dataDir[2:])
	}

	if err := fs.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	return &Store{
		fs:      fs,
		dataDir: dataDir,
	}, nil
}

// Dir returns the resolved data directory
func (s *Store) Dir() string {
	return s.dataDir
}

func (s *Store) tablePath(name string) string {
	return filepath.Join(s.dataDir, name+".json")
}

func (s *Store) runPath(date time.Time) string {
	return filepath.Join(s.dataDir, fmt.Sprintf("run_%s.json", date.Format(exclusion.DateLayout)))
}

// ReadTable loads a table's rows. A table that was never written is empty.
func (s *Store) ReadTable(_ context.Context, name string) ([][]string, error) {
	data, err := afero.ReadFile(s.fs, s.tablePath(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading table %s: %w", name, err)
	}

	var table Table
	if err := json.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("parsing table %s: %w", name, err)
	}
	return table.Rows, nil
}

// WriteTable replaces a table's rows
func (s *Store) WriteTable(_ context.Context, name string, rows [][]string) error {
	table := Table{
		Name:      name,
		UpdatedAt: time.Now().UTC().Format(time.RFC3339),
		Rows:      rows,
	}
	return s.writeJSON(s.tablePath(name), table, "table "+name)
}

// SaveRun writes the snapshot for the run's date, replacing an earlier run
// of the same date
func (s *Store) SaveRun(date time.Time, snap *RunSnapshot) error {
	snap.Date = date.Format(exclusion.DateLayout)
	if snap.CreatedAt == "" {
		snap.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}
	return s.writeJSON(s.runPath(date), snap, "run snapshot")
}

// LoadRun reads the snapshot for a date
func (s *Store) LoadRun(date time.Time) (*RunSnapshot, error) {
	data, err := afero.ReadFile(s.fs, s.runPath(date))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("no run recorded for %s", date.Format(exclusion.DateLayout))
		}
		return nil, fmt.Errorf("reading run snapshot: %w", err)
	}

	var snap RunSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parsing run snapshot: %w", err)
	}
	return &snap, nil
}

// Roster reads roster.csv from the data directory
func (s *Store) Roster(_ context.Context) (*roster.Index, error) {
	rows, err := s.readCSV(RosterFile)
	if err != nil {
		return nil, fmt.Errorf("loading roster: %w", err)
	}
	return roster.ParseRows(rows), nil
}

// Exclusions reads excluded_dates.csv. A missing file means no exclusions.
func (s *Store) Exclusions(_ context.Context) (*exclusion.Calendar, error) {
	rows, err := s.readCSV(ExclusionsFile)
	if err != nil {
		if os.IsNotExist(err) {
			return exclusion.NewCalendar(nil), nil
		}
		return nil, fmt.Errorf("loading exclusions: %w", err)
	}
	return exclusion.ParseRows(rows), nil
}

func (s *Store) readCSV(name string) ([][]string, error) {
	f, err := s.fs.Open(filepath.Join(s.dataDir, name))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", name, err)
	}
	return rows, nil
}

func (s *Store) writeJSON(path string, v interface{}, what string) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", what, err)
	}

	if err := afero.WriteFile(s.fs, path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", what, err)
	}
	return nil
}
