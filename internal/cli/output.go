package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/pfrederiksen/handicap-check/internal/classify"
	"github.com/pfrederiksen/handicap-check/internal/exclusion"
	"github.com/pfrederiksen/handicap-check/internal/report"
	"github.com/pfrederiksen/handicap-check/internal/runner"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

func currentFormat() OutputFormat {
	return OutputFormat(strings.ToLower(flagFormat))
}

// WriteOutput writes the run summary in the specified format
func WriteOutput(w io.Writer, sum *runner.Summary, format OutputFormat, verbose bool) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, sum)
	case FormatText:
		return writeText(w, sum, verbose)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// writeJSON outputs v as indented JSON
func writeJSON(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// writeText outputs the summary as human-readable text
func writeText(w io.Writer, sum *runner.Summary, verbose bool) error {
	o := sum.Outcome
	if o == nil {
		o = &classify.Outcome{}
	}

	date, _ := exclusion.ParseDate(sum.Date)
	fmt.Fprintln(w, report.SummaryEmail(o, date))
	fmt.Fprintf(w, "Tee sheet entries: %d\n", sum.Entries)

	if verbose {
		fmt.Fprintf(w, "Run ID:        %s\n", sum.RunID)
		fmt.Fprintf(w, "Duplicates:    %d\n", o.Duplicates)
		fmt.Fprintf(w, "Singletons:    %d\n", o.Singletons)
		fmt.Fprintf(w, "Excluded:      %d\n", o.Excluded)
	}

	writeContacts(w, "Men", o.Men)
	writeContacts(w, "Women", o.Women)

	if verbose && len(o.Posted) > 0 {
		fmt.Fprintf(w, "\nPosted (%d):\n", len(o.Posted))
		for _, name := range o.Posted {
			fmt.Fprintf(w, "  %s\n", name)
		}
	}

	if len(sum.Exports) > 0 {
		fmt.Fprintln(w, "\nExports:")
		for _, path := range sum.Exports {
			fmt.Fprintf(w, "  %s\n", path)
		}
	}

	if len(sum.Failures) > 0 {
		fmt.Fprintf(w, "\nWarnings (%d):\n", len(sum.Failures))
		for _, f := range sum.Failures {
			fmt.Fprintf(w, "  %s\n", f)
		}
	}

	return nil
}

func writeContacts(w io.Writer, label string, contacts []classify.Contact) {
	if len(contacts) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s not posted (%d):\n", label, len(contacts))
	for _, c := range contacts {
		if c.Email != "" {
			fmt.Fprintf(w, "  %s <%s>\n", c.Name, c.Email)
		} else {
			fmt.Fprintf(w, "  %s\n", c.Name)
		}
	}
}
