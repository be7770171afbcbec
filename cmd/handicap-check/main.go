// Command handicap-check reconciles the club tee sheet against the GHIN
// posting report and reports golfers who played without posting.
package main

import "github.com/pfrederiksen/handicap-check/internal/cli"

func main() {
	cli.Execute()
}
