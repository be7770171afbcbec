// Package storage provides JSON-based persistence for the cumulative tables
// when the checker runs without Google Sheets (--store local).
//
// Each table is one file (<table>.json) holding the same rows the spreadsheet
// tab would hold. Every run also leaves a snapshot (run_MM-DD-YY.json) of its
// classification outcome. Reference data can be supplied as roster.csv and
// excluded_dates.csv in the same directory. The default location is
// ~/.local/share/handicap-check/.
package storage
