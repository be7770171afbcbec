// Package runner orchestrates one reconciliation run for a date.
//
// Setup failures (reference data, tee sheet, posting report) abort the run
// with a FatalSetupError. Every later step is independent: a failed table
// write, export, history insert, notification or metrics push is logged,
// collected into the Summary and the run carries on.
package runner
