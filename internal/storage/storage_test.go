package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"

	"github.com/pfrederiksen/handicap-check/internal/classify"
)

func newTestStore(t *testing.T) (*Store, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	store, err := New(fs, "/data")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return store, fs
}

func TestTables(t *testing.T) {
	store, fs := newTestStore(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		setup   func()
		table   string
		wantLen int
		wantErr bool
	}{
		{
			name:    "never written table is empty",
			setup:   func() {},
			table:   "NoPost",
			wantLen: 0,
		},
		{
			name: "written table round trips",
			setup: func() {
				rows := [][]string{{"Name", "Count", "Dates"}, {"Alice", "1", "06-14-25"}}
				if err := store.WriteTable(ctx, "NoGHIN", rows); err != nil {
					t.Fatalf("WriteTable() error = %v", err)
				}
			},
			table:   "NoGHIN",
			wantLen: 2,
		},
		{
			name: "corrupt table file",
			setup: func() {
				_ = afero.WriteFile(fs, "/data/PostPercentage.json", []byte("{not json"), 0644)
			},
			table:   "PostPercentage",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup()
			rows, err := store.ReadTable(ctx, tt.table)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ReadTable() error = %v, wantErr %v", err, tt.wantErr)
			}
			if len(rows) != tt.wantLen {
				t.Errorf("ReadTable() rows = %d, want %d", len(rows), tt.wantLen)
			}
		})
	}
}

func TestRunSnapshot(t *testing.T) {
	store, fs := newTestStore(t)
	date := time.Date(2025, time.June, 14, 0, 0, 0, 0, time.UTC)

	snap := &RunSnapshot{
		RunID:  "run-1",
		Posted: []string{"Alice"},
		NoPost: []string{"Bob"},
		Results: []*classify.Result{
			{Name: "Alice", Identifier: "1", Status: classify.StatusPosted, TeeTime: "8:00 AM"},
		},
	}
	if err := store.SaveRun(date, snap); err != nil {
		t.Fatalf("SaveRun() error = %v", err)
	}

	if ok, _ := afero.Exists(fs, filepath.Join("/data", "run_06-14-25.json")); !ok {
		t.Fatal("expected run_06-14-25.json to be written")
	}

	got, err := store.LoadRun(date)
	if err != nil {
		t.Fatalf("LoadRun() error = %v", err)
	}
	if got.RunID != "run-1" || got.Date != "06-14-25" {
		t.Errorf("LoadRun() = %+v", got)
	}
	if len(got.Results) != 1 || got.Results[0].Status != classify.StatusPosted {
		t.Errorf("LoadRun() results = %+v", got.Results)
	}

	if _, err := store.LoadRun(date.AddDate(0, 0, 1)); err == nil {
		t.Error("LoadRun() for a date without a run should fail")
	}
}

func TestReferenceFiles(t *testing.T) {
	store, fs := newTestStore(t)
	ctx := context.Background()

	if _, err := store.Roster(ctx); err == nil {
		t.Error("Roster() without roster.csv should fail")
	}

	cal, err := store.Exclusions(ctx)
	if err != nil {
		t.Fatalf("Exclusions() without file error = %v", err)
	}
	if cal.Len() != 0 {
		t.Errorf("missing exclusions file should give an empty calendar, got %d", cal.Len())
	}

	_ = afero.WriteFile(fs, "/data/roster.csv", []byte(
		"Name,GHIN,Email,Gender,Member\n"+
			"Alice Smith,1234567,alice@example.com,F,A12\n"+
			"\"Jones, Bob\",,,M\n"), 0644)
	_ = afero.WriteFile(fs, "/data/excluded_dates.csv", []byte(
		"Date,Start,End\n06-14-25,08:00,10:00\n06-15-25\n"), 0644)

	idx, err := store.Roster(ctx)
	if err != nil {
		t.Fatalf("Roster() error = %v", err)
	}
	if idx.Len() != 2 {
		t.Errorf("Roster() len = %d, want 2", idx.Len())
	}
	if _, ok := idx.ByName("jones, bob"); !ok {
		t.Error("quoted roster name should be found")
	}

	cal, err = store.Exclusions(ctx)
	if err != nil {
		t.Fatalf("Exclusions() error = %v", err)
	}
	if cal.Len() != 2 {
		t.Errorf("Exclusions() len = %d, want 2", cal.Len())
	}
}

func TestNew_ExpandsHome(t *testing.T) {
	store, err := New(afero.NewMemMapFs(), "~/hc-data")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if filepath.Base(store.Dir()) != "hc-data" || store.Dir() == "~/hc-data" {
		t.Errorf("Dir() = %q, want home-expanded path", store.Dir())
	}
}
