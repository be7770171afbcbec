package sheets

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// fakeSheets serves the values endpoints from an in-memory map keyed by tab
type fakeSheets struct {
	mu      sync.Mutex
	tabs    map[string][][]interface{}
	gets    int
	failPut bool
	lastOpt string
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	// /v4/spreadsheets/{id}/values/{range}[:clear]
	parts := strings.SplitN(r.URL.Path, "/values/", 2)
	if len(parts) != 2 {
		http.NotFound(w, r)
		return
	}
	rng := parts[1]
	tab := strings.SplitN(strings.TrimSuffix(rng, ":clear"), "!", 2)[0]

	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.Method == http.MethodGet:
		f.gets++
		json.NewEncoder(w).Encode(map[string]interface{}{"range": rng, "values": f.tabs[tab]})
	case r.Method == http.MethodPost && strings.HasSuffix(rng, ":clear"):
		delete(f.tabs, tab)
		json.NewEncoder(w).Encode(map[string]interface{}{"clearedRange": rng})
	case r.Method == http.MethodPut:
		if f.failPut {
			http.Error(w, `{"error":{"code":500,"message":"backend"}}`, http.StatusInternalServerError)
			return
		}
		f.lastOpt = r.URL.Query().Get("valueInputOption")
		var body sheets.ValueRange
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.tabs[tab] = body.Values
		json.NewEncoder(w).Encode(map[string]interface{}{"updatedRows": len(body.Values)})
	default:
		http.Error(w, "unexpected", http.StatusMethodNotAllowed)
	}
}

func newFake(t *testing.T, tabs map[string][][]interface{}) (*fakeSheets, *sheets.Service) {
	t.Helper()
	fake := &fakeSheets{tabs: tabs}
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	srv, err := sheets.NewService(context.Background(),
		option.WithEndpoint(server.URL+"/"),
		option.WithHTTPClient(server.Client()),
	)
	require.NoError(t, err)
	return fake, srv
}

func TestReference(t *testing.T) {
	_, srv := newFake(t, map[string][][]interface{}{
		"Sheet1": {
			{"Name", "GHIN", "Email", "Gender", "Member"},
			{"Alice Smith", 1234567, "alice@example.com", "F", "A12"},
			{"Bob Jones", "", "", "M"},
		},
		"ExcludedDates": {
			{"Date", "Start", "End"},
			{"06-14-25", "08:00", "10:00"},
			{"06-15-25"},
		},
	})

	ref := NewReference(srv, "roster-id", "report-id")
	ctx := context.Background()

	idx, err := ref.Roster(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, idx.Len())

	alice, ok := idx.ByIdentifier("1234567")
	require.True(t, ok, "numeric cells should come back as plain digits")
	assert.Equal(t, "Alice Smith", alice.Name)

	cal, err := ref.Exclusions(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, cal.Len())
}

func TestStore_ReadCachesPerRun(t *testing.T) {
	fake, srv := newFake(t, map[string][][]interface{}{
		"NoPost": {{"Name", "Count", "Dates"}, {"Alice", 2, "06-01-25, 06-02-25"}},
	})
	store := NewStore(srv, "report-id")
	ctx := context.Background()

	rows, err := store.ReadTable(ctx, "NoPost")
	require.NoError(t, err)
	assert.Equal(t, []string{"Alice", "2", "06-01-25, 06-02-25"}, rows[1])

	_, err = store.ReadTable(ctx, "NoPost")
	require.NoError(t, err)
	assert.Equal(t, 1, fake.gets)
}

func TestStore_WriteTable(t *testing.T) {
	fake, srv := newFake(t, map[string][][]interface{}{
		"NoGHIN": {{"Name", "Count", "Dates"}, {"Old", 9, ""}},
	})
	store := NewStore(srv, "report-id")
	ctx := context.Background()

	rows := [][]string{{"Name", "Count", "Dates"}, {"Carl", "1", "06-14-25"}}
	require.NoError(t, store.WriteTable(ctx, "NoGHIN", rows))

	assert.Equal(t, "USER_ENTERED", fake.lastOpt)
	assert.Len(t, fake.tabs["NoGHIN"], 2)
	assert.Equal(t, "Carl", fake.tabs["NoGHIN"][1][0])

	got, err := store.ReadTable(ctx, "NoGHIN")
	require.NoError(t, err)
	assert.Equal(t, rows, got)
	assert.Equal(t, 0, fake.gets, "a written table is served from the run cache")
}

func TestStore_WriteFailureDropsCache(t *testing.T) {
	fake, srv := newFake(t, map[string][][]interface{}{
		"NoPost": {{"Name", "Count", "Dates"}},
	})
	store := NewStore(srv, "report-id")
	ctx := context.Background()

	_, err := store.ReadTable(ctx, "NoPost")
	require.NoError(t, err)

	fake.failPut = true
	err = store.WriteTable(ctx, "NoPost", [][]string{{"Name", "Count", "Dates"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "writing NoPost")

	_, err = store.ReadTable(ctx, "NoPost")
	require.NoError(t, err)
	assert.Equal(t, 2, fake.gets)
}
