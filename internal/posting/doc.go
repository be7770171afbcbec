// Package posting answers whether a golfer posted a score for a given date.
//
// The answer comes from the GHIN "Played / Posted Report (Player Rounds)",
// which GHIN emails as an .xlsx attachment the day after the round. The
// report is fetched at most once per run: the first HasPosted call loads it
// through a Source and every later call reuses the memoized GHIN set. When the
// report cannot be loaded the run cannot classify anyone, so the error is
// returned to the caller as fatal (ErrDatasetUnavailable).
package posting
