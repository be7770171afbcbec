package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/pfrederiksen/handicap-check/internal/aggregate"
	"github.com/pfrederiksen/handicap-check/internal/roster"
)

// MemberNumberColumn is column AC of the tournament golfer export
const MemberNumberColumn = 28

// TournamentGolfer is a field member below full posting compliance
type TournamentGolfer struct {
	Name      string
	PctPlayed float64
}

// TournamentReport is the pre-tournament handicap check
type TournamentReport struct {
	Title      string
	BelowFull  []TournamentGolfer
	NoHistory  []string
	Unresolved []string // member numbers not in the roster
}

// ReadTournamentMembers returns the member numbers in column AC of the
// workbook's first sheet, skipping the header row and blank cells.
func ReadTournamentMembers(path string) ([]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening tournament workbook: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, fmt.Errorf("reading tournament workbook: %w", err)
	}

	var members []string
	for i, row := range rows {
		if i == 0 || len(row) <= MemberNumberColumn {
			continue
		}
		if m := strings.TrimSpace(row[MemberNumberColumn]); m != "" {
			members = append(members, m)
		}
	}
	return members, nil
}

// TournamentCheck resolves each member number through the roster and looks
// the golfer up in the posting percentage table. Golfers under 100% of
// played rounds posted are listed with their percentage; golfers absent from
// the table, or present with no played rounds, have no history.
func TournamentCheck(title string, members []string, idx *roster.Index, percentages []*aggregate.Record) *TournamentReport {
	byName := make(map[string]*aggregate.Record, len(percentages))
	for _, r := range percentages {
		key := roster.NormalizeName(r.Name)
		if _, ok := byName[key]; !ok {
			byName[key] = r
		}
	}

	rep := &TournamentReport{Title: title}
	for _, m := range members {
		rec, ok := idx.ByMemberNumber(m)
		if !ok {
			rep.Unresolved = append(rep.Unresolved, m)
			continue
		}

		name := strings.Join(strings.Fields(rec.Name), " ")
		pct, ok := byName[roster.NormalizeName(name)]
		switch {
		case !ok || pct.Played() == 0:
			rep.NoHistory = append(rep.NoHistory, name)
		case pct.PctPlayed() < 1:
			rep.BelowFull = append(rep.BelowFull, TournamentGolfer{Name: name, PctPlayed: pct.PctPlayed()})
		}
	}
	return rep
}

// DocumentBase derives the report title from the workbook name: everything
// before "Golfer" when present, otherwise the name without its extension.
func DocumentBase(workbookPath string) string {
	base := filepath.Base(workbookPath)
	if i := strings.Index(base, "Golfer"); i >= 0 {
		return strings.TrimRight(base[:i], " \t")
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// DocumentTitle is the report heading, e.g. "Spring Classic- Handicap Check"
func DocumentTitle(workbookPath string) string {
	return DocumentBase(workbookPath) + "- Handicap Check"
}

// DocumentPath is where the report for a workbook is written
func DocumentPath(workbookPath string) string {
	return filepath.Join(filepath.Dir(workbookPath), DocumentTitle(workbookPath)+".txt")
}

// Render formats the report as plain text
func (r *TournamentReport) Render() string {
	var b strings.Builder
	b.WriteString(r.Title + "\n")
	b.WriteString(strings.Repeat("=", len(r.Title)) + "\n\n")

	b.WriteString("Golfers with less than 100% Post Percentage:\n")
	for _, g := range r.BelowFull {
		fmt.Fprintf(&b, "  • %s: %.0f%%\n", g.Name, g.PctPlayed*100)
	}

	b.WriteString("\nGolfers that have not played a round:\n")
	for _, name := range r.NoHistory {
		fmt.Fprintf(&b, "  • %s\n", name)
	}

	if len(r.Unresolved) > 0 {
		b.WriteString("\nMember numbers not found in the roster:\n")
		for _, m := range r.Unresolved {
			fmt.Fprintf(&b, "  • %s\n", m)
		}
	}
	return b.String()
}

// WriteTournamentReport renders the report to path
func WriteTournamentReport(path string, r *TournamentReport) error {
	if err := os.WriteFile(path, []byte(r.Render()), 0644); err != nil {
		return fmt.Errorf("writing tournament report: %w", err)
	}
	return nil
}
