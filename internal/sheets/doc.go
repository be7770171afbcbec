// Package sheets reads and writes the club's Google spreadsheets.
//
// Two spreadsheets are involved. The roster spreadsheet (ROSTER_SHEET_ID)
// holds members on its first tab. The report spreadsheet (GOOGLE_SHEET_ID)
// holds the ExcludedDates tab and the cumulative tables NoPost, NoGHIN and
// PostPercentage, which are rewritten in full on every run.
package sheets
