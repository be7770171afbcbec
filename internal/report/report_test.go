package report

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/pfrederiksen/handicap-check/internal/aggregate"
	"github.com/pfrederiksen/handicap-check/internal/classify"
	"github.com/pfrederiksen/handicap-check/internal/roster"
)

var runDate = time.Date(2025, time.June, 14, 0, 0, 0, 0, time.UTC)

func TestNoPostEmail(t *testing.T) {
	tests := []struct {
		name  string
		men   []classify.Contact
		women []classify.Contact
		want  string
	}{
		{
			name: "both lists empty",
			want: "The men that didn't post on 06-14-25 are:\nNone\n\n" +
				"The women that didn't post on 06-14-25 are:\nNone",
		},
		{
			name: "missing email and member number",
			men: []classify.Contact{
				{Name: "Bob Jones", Email: "bob@example.com", MemberNumber: "B7"},
				{Name: "Carl Ray"},
			},
			women: []classify.Contact{{Name: "Alice Smith", Email: "alice@example.com"}},
			want: "The men that didn't post on 06-14-25 are:\n" +
				"- Bob Jones | bob@example.com | B7\n" +
				"- Carl Ray | No email | No member #\n\n" +
				"The women that didn't post on 06-14-25 are:\n" +
				"- Alice Smith | alice@example.com | No member #",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NoPostEmail(tt.men, tt.women, runDate))
		})
	}
}

func TestNoPostSubject(t *testing.T) {
	assert.Equal(t, "Non-Posters for 06-14-25", NoPostSubject(runDate))
}

func TestSummaryEmail(t *testing.T) {
	body := SummaryEmail(&classify.Outcome{
		Posted:       []string{"A", "B"},
		NoPost:       []string{"C", "D"},
		NoIdentifier: []string{"Guest Player"},
		Men:          []classify.Contact{{Name: "C"}},
	}, runDate)

	assert.Contains(t, body, "Handicap check for 06-14-25")
	assert.Contains(t, body, "Posted:        2")
	assert.Contains(t, body, "No GHIN:       1")
	assert.Contains(t, body, "without a roster gender: 1")
	assert.Contains(t, body, "- Guest Player")
}

func TestWriteGenderExports(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "exports")
	men := []classify.Contact{{Name: "Bob Jones", Email: "bob@example.com", MemberNumber: "B7"}}

	paths, err := WriteGenderExports(dir, runDate, men, nil)
	require.NoError(t, err)
	require.Len(t, paths, 2)
	assert.Equal(t, "NoPost-Men-06-14-25.xlsx", filepath.Base(paths[0]))
	assert.Equal(t, "NoPost-Women-06-14-25.xlsx", filepath.Base(paths[1]))

	f, err := excelize.OpenFile(paths[0])
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(f.GetSheetName(0))
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Name", "Email", "Member #"}, {"Bob Jones", "bob@example.com", "B7"}}, rows)

	w, err := excelize.OpenFile(paths[1])
	require.NoError(t, err)
	defer w.Close()
	rows, err = w.GetRows(w.GetSheetName(0))
	require.NoError(t, err)
	assert.Len(t, rows, 1, "empty list still gets a header")
}

func writeTournamentWorkbook(t *testing.T, path string, members ...string) {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetCellValue(sheet, "A1", "Golfer"))
	require.NoError(t, f.SetCellValue(sheet, "AC1", "Member #"))
	for i, m := range members {
		require.NoError(t, f.SetCellValue(sheet, "A"+strconv.Itoa(i+2), "player"))
		require.NoError(t, f.SetCellValue(sheet, "AC"+strconv.Itoa(i+2), m))
	}
	require.NoError(t, f.SaveAs(path))
}

func TestReadTournamentMembers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Spring Classic Golfers.xlsx")
	writeTournamentWorkbook(t, path, "A12", " ", "B7")

	members, err := ReadTournamentMembers(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"A12", "B7"}, members)

	_, err = ReadTournamentMembers(filepath.Join(t.TempDir(), "missing.xlsx"))
	assert.Error(t, err)
}

func TestTournamentCheck(t *testing.T) {
	idx := roster.NewIndex([]*roster.Record{
		{Name: "Alice  Smith", MemberNumber: "A12"},
		{Name: "Bob Jones", MemberNumber: "B7"},
		{Name: "Cy Young", MemberNumber: "C3"},
		{Name: "Dee Walker", MemberNumber: "D4"},
	})
	pct := []*aggregate.Record{
		{Name: "alice smith", PostedCount: 3, NoPostCount: 1},
		{Name: "Bob Jones", PostedCount: 5},
		{Name: "Dee Walker", OtherCount: 2},
	}

	rep := TournamentCheck("Spring Classic- Handicap Check", []string{"A12", "B7", "C3", "D4", "Z9"}, idx, pct)

	assert.Equal(t, []TournamentGolfer{{Name: "Alice Smith", PctPlayed: 0.75}}, rep.BelowFull)
	assert.Equal(t, []string{"Cy Young", "Dee Walker"}, rep.NoHistory, "no played rounds is no history, not 0%")
	assert.Equal(t, []string{"Z9"}, rep.Unresolved)

	text := rep.Render()
	assert.True(t, strings.HasPrefix(text, "Spring Classic- Handicap Check\n"))
	assert.Contains(t, text, "Alice Smith: 75%")
	assert.Contains(t, text, "• Cy Young")
	assert.NotContains(t, text, "Bob Jones")
	assert.NotContains(t, text, "Dee Walker: 0%")
}

func TestDocumentNaming(t *testing.T) {
	tests := []struct {
		path      string
		wantTitle string
	}{
		{path: "/t/Spring Classic Golfers.xlsx", wantTitle: "Spring Classic- Handicap Check"},
		{path: "/t/Member Guest Golfer List 2025.xlsx", wantTitle: "Member Guest- Handicap Check"},
		{path: "/t/club_champs.xlsx", wantTitle: "club_champs- Handicap Check"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.wantTitle, DocumentTitle(tt.path))
			assert.Equal(t, filepath.Join("/t", tt.wantTitle+".txt"), DocumentPath(tt.path))
		})
	}
}

func TestWriteTournamentReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "r.txt")
	require.NoError(t, WriteTournamentReport(path, &TournamentReport{Title: "T", NoHistory: []string{"X"}}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "• X")
}
