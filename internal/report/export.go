package report

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/pfrederiksen/handicap-check/internal/classify"
)

var exportHeader = []interface{}{"Name", "Email", "Member #"}

// ExportName is the file name of one gender's export for a date
func ExportName(gender string, date time.Time) string {
	return fmt.Sprintf("NoPost-%s-%s.xlsx", gender, date.Format(DateLayout))
}

// WriteGenderExports writes NoPost-Men-<date>.xlsx and NoPost-Women-<date>.xlsx
// into dir and returns their paths. Both files are written even when a list
// is empty so the email always carries the same attachments.
func WriteGenderExports(dir string, date time.Time, men, women []classify.Contact) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating export directory: %w", err)
	}

	lists := []struct {
		gender   string
		contacts []classify.Contact
	}{
		{"Men", men},
		{"Women", women},
	}

	paths := make([]string, 0, len(lists))
	for _, l := range lists {
		path := filepath.Join(dir, ExportName(l.gender, date))
		if err := writeContactsXLSX(path, l.contacts); err != nil {
			return paths, fmt.Errorf("writing %s export: %w", l.gender, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writeContactsXLSX(path string, contacts []classify.Contact) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	if err := f.SetSheetRow(sheet, "A1", &exportHeader); err != nil {
		return err
	}
	for i, c := range contacts {
		cellRef, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{c.Name, c.Email, c.MemberNumber}
		if err := f.SetSheetRow(sheet, cellRef, &row); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(sheet, "A", "B", 30); err != nil {
		return err
	}

	return f.SaveAs(path)
}
