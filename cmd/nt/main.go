// Command nt browses and edits a nodetree project: a folder hierarchy of
// node records kept in SQLite or a JSONL snapshot file.
package main

import (
	"errors"
	"fmt"
	"os"
)

func main() {
	root := newRootCmd(newEnv())
	if err := root.Execute(); err != nil {
		if !errors.Is(err, errIntegrity) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(exitCode(err))
	}
}

// exitCode maps errors to process exit codes: 2 for integrity failures
// (the report was already printed), 1 for everything else.
func exitCode(err error) int {
	if errors.Is(err, errIntegrity) {
		return 2
	}
	return 1
}
