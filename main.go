// ABOUTME: Entry point for the clinic console
// ABOUTME: Opens the interactive console or runs a scripting subcommand

package main

import (
	"fmt"
	"os"

	"github.com/markalston/clinic-console/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
