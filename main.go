// issue is the CLI of a distributed, file-based issue tracker.
package main

import (
	"fmt"
	"os"

	"issue-lite/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
