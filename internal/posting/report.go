package posting

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/xuri/excelize/v2"
)

// ParseXLSX reads the first worksheet of a GHIN report workbook. The header
// row is removed.
func ParseXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", sheet, err)
	}
	return dropHeader(rows), nil
}

// ParseHTMLReport reads the first table in an HTML rendering of the report.
// Header cells (th) and the first row are removed.
func ParseHTMLReport(r io.Reader) ([][]string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	table := doc.Find("table").First()
	if table.Length() == 0 {
		return nil, fmt.Errorf("no report table found")
	}

	rows := make([][]string, 0)
	table.Find("tr").Each(func(i int, tr *goquery.Selection) {
		cells := make([]string, 0)
		tr.Find("td,th").Each(func(j int, td *goquery.Selection) {
			cells = append(cells, strings.TrimSpace(td.Text()))
		})
		if len(cells) > 0 {
			rows = append(rows, cells)
		}
	})

	return dropHeader(rows), nil
}

// FileSource reads a report that was downloaded by hand. It ignores the
// round date.
type FileSource struct {
	Path string
}

// Fetch reads the file as xlsx, csv, or html depending on its extension
func (s *FileSource) Fetch(_ context.Context, _ time.Time) ([][]string, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("reading posting report: %w", err)
	}

	switch strings.ToLower(filepath.Ext(s.Path)) {
	case ".xlsx":
		return ParseXLSX(bytes.NewReader(data))
	case ".html", ".htm":
		return ParseHTMLReport(bytes.NewReader(data))
	case ".csv":
		return parseCSV(bytes.NewReader(data))
	default:
		return nil, fmt.Errorf("unsupported posting report format: %s", s.Path)
	}
}

func dropHeader(rows [][]string) [][]string {
	if len(rows) == 0 {
		return rows
	}
	return rows[1:]
}

func parseCSV(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing CSV: %w", err)
	}
	return dropHeader(rows), nil
}
