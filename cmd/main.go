// AION - local input control server
// Moves the mouse, clicks, types and opens URLs over a loopback HTTP API.
package main

import (
	"fmt"
	"os"

	"aion/internal/cli"
)

var version = "1.1.0"

func main() {
	cli.SetVersion(version)

	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, cli.FormatError(err))
		os.Exit(1)
	}
}
