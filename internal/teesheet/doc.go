// Package teesheet fetches and parses the daily tee sheet from the MTech
// tee-time API.
//
// The feed is a CSV export with a header row followed by one row per golfer
// sign-in. Only the first four columns are used: column 0 is ignored, column
// 1 is the tee time ("h:mm AM/PM"), column 2 the member name as entered
// (optionally followed by a "-suffix" disambiguator) and column 3 the GHIN
// number, which may be blank.
package teesheet
