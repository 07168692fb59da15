// Command chainlint lints shell-based test scripts for broken &&-chains.
package main

import (
	"os"

	"github.com/FollowTheProcess/msg"

	"github.com/FollowTheProcess/chainlint/cli/cmd"
)

func main() {
	if err := run(); err != nil {
		if !cmd.ErrFlagged(err) {
			msg.Error("%s", err)
		}
		os.Exit(1)
	}
}

func run() error {
	rootCmd := cmd.BuildRootCmd()
	return rootCmd.Execute()
}
