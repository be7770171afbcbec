// Package report renders what a run produces for people: the non-poster
// email, the per-gender spreadsheets attached to it, a run summary, and the
// pre-tournament handicap check document.
package report
