// Package main is the entry point for the csforecast CLI tool, which replays
// historical CS2 match results into leakage-free feature rows for outcome models.
package main

import "github.com/pable/go-cs-forecast/cmd"

func main() {
	cmd.Execute()
}
