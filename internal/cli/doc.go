// Package cli implements the command-line interface for handicap-check.
//
// The cli package provides the Cobra-based CLI: the daily check of a tee
// sheet against the GHIN posting report, the pre-tournament handicap check,
// the one-time Google authorization, saved-run display and per-golfer
// history lookups. It wires configuration into the runner and formats
// results as text or JSON.
package cli
