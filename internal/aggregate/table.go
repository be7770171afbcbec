package aggregate

import (
	"strconv"
	"strings"
)

// Table names in the report spreadsheet
const (
	TableNoPost         = "NoPost"
	TableNoIdentifier   = "NoGHIN"
	TablePostPercentage = "PostPercentage"
)

var (
	CountHeader   = []string{"Name", "Count", "Dates"}
	PercentHeader = []string{"Name", "Rounds Posted", "Rounds Not Posted", "Other", "Pct All", "Pct Played", "Dates"}
)

// DecodeCountTable reads [Name, Count, Dates] rows into records, storing the
// count in the selected counter. The header row is discarded. Counts that are
// missing or not numeric start from zero.
func DecodeCountTable(rows [][]string, counter Counter) []*Record {
	records := make([]*Record, 0, len(rows))
	for _, row := range body(rows) {
		name := strings.TrimSpace(cell(row, 0))
		if name == "" {
			continue
		}
		rec := &Record{Name: name, Dates: splitDates(cell(row, 2))}
		n := parseCount(cell(row, 1))
		switch counter {
		case CountPosted:
			rec.PostedCount = n
		case CountNoPost:
			rec.NoPostCount = n
		default:
			rec.OtherCount = n
		}
		records = append(records, rec)
	}
	return records
}

// EncodeCountTable renders records as [Name, Count, Dates] rows with a header
func EncodeCountTable(records []*Record, counter Counter) [][]string {
	rows := make([][]string, 0, len(records)+1)
	rows = append(rows, append([]string(nil), CountHeader...))
	for _, r := range records {
		rows = append(rows, []string{r.Name, strconv.Itoa(r.Count(counter)), joinDates(r.Dates)})
	}
	return rows
}

// DecodePercentTable reads posting percentage rows. Derived percentage
// columns are ignored; they are recomputed on encode.
func DecodePercentTable(rows [][]string) []*Record {
	records := make([]*Record, 0, len(rows))
	for _, row := range body(rows) {
		name := strings.TrimSpace(cell(row, 0))
		if name == "" {
			continue
		}
		records = append(records, &Record{
			Name:        name,
			PostedCount: parseCount(cell(row, 1)),
			NoPostCount: parseCount(cell(row, 2)),
			OtherCount:  parseCount(cell(row, 3)),
			Dates:       splitDates(cell(row, 6)),
		})
	}
	return records
}

// EncodePercentTable renders posting percentage rows with a header
func EncodePercentTable(records []*Record) [][]string {
	rows := make([][]string, 0, len(records)+1)
	rows = append(rows, append([]string(nil), PercentHeader...))
	for _, r := range records {
		rows = append(rows, []string{
			r.Name,
			strconv.Itoa(r.PostedCount),
			strconv.Itoa(r.NoPostCount),
			strconv.Itoa(r.OtherCount),
			FormatPercent(r.PctAll()),
			FormatPercent(r.PctPlayed()),
			joinDates(r.Dates),
		})
	}
	return rows
}

// FormatPercent renders a fraction as "75%" (one decimal when needed)
func FormatPercent(f float64) string {
	s := strconv.FormatFloat(f*100, 'f', 1, 64)
	s = strings.TrimSuffix(s, ".0")
	return s + "%"
}

func parseCount(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func splitDates(s string) []string {
	parts := strings.Split(s, ",")
	dates := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			dates = append(dates, p)
		}
	}
	return dates
}

func joinDates(dates []string) string {
	return strings.Join(dates, ", ")
}

func body(rows [][]string) [][]string {
	if len(rows) == 0 {
		return rows
	}
	return rows[1:]
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}
