// Package main provides streekctl, the admin CLI of the Streek backend.
package main

import (
	"fmt"
	"os"

	"github.com/limbo/streek/pkg/cleanup"
)

func main() {
	if err := execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// execute runs the command line and releases whatever the command registered, even when it failed.
func execute() error {
	defer cleanup.CleanUp()
	return rootCmd.Execute()
}
