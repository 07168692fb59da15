// Package cmd implements the chainlint CLI.
package cmd

import (
	"fmt"
	"os"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/FollowTheProcess/chainlint/cli/app"
)

var (
	version     = "dev" // chainlint version, set at compile time by ldflags
	commit      = ""    // chainlint version's commit hash, set at compile time by ldflags
	headerStyle = color.New(color.FgWhite, color.Bold)
)

// BuildRootCmd builds and returns the root chainlint CLI command.
func BuildRootCmd() *cobra.Command {
	chainlintApp := app.New(os.Stdout, os.Stderr)

	rootCmd := &cobra.Command{
		Use:           "chainlint [paths]...",
		Version:       version,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		Short:         "Catch broken &&-chains in shell test scripts",
		Long: heredoc.Doc(`

		Catch broken &&-chains in shell test scripts!

		chainlint reads test_expect_success / test_expect_failure bodies out of
		shell-based test scripts and flags any command whose exit status isn't
		propagated into the one that follows it, the class of bug where a
		single failing command inside a test body gets silently swallowed.

		Paths may be literal files or glob patterns; with no paths, chainlint
		looks for "**/*.sh" under the current directory.
		`),
		Example: heredoc.Doc(`

		# Lint every *.sh file under the current directory
		$ chainlint

		# Lint a specific test script
		$ chainlint t/t1234-example.sh

		# Lint a whole test directory, reporting every test not just broken ones
		$ chainlint --emit-all t/*.sh

		# Use 8 workers and print a stats table afterwards
		$ chainlint --jobs 8 --stats t/*.sh
		`),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := chainlintApp.Run(args); err != nil {
				return err
			}
			if chainlintApp.Flagged() {
				return errFlagged
			}
			return nil
		},
	}

	flags := rootCmd.Flags()
	flags.BoolVar(&chainlintApp.Options.EmitAll, "emit-all", false, "Report every recognised test, not just the ones with broken chains.")
	flags.BoolVar(&chainlintApp.Options.Stats, "stats", false, "Print a per-worker summary table after linting.")
	flags.BoolVar(&chainlintApp.Options.Stats, "show-stats", false, "Alias for --stats.")
	flags.BoolVarP(&chainlintApp.Options.Verbose, "verbose", "v", false, "Enable verbose (debug) logging.")
	flags.BoolVarP(&chainlintApp.Options.Quiet, "quiet", "q", false, "Suppress the pass/fail summary line.")
	flags.IntVarP(&chainlintApp.Options.Jobs, "jobs", "j", 0, "Number of concurrent workers (default: number of CPUs).")

	rootCmd.SetUsageTemplate(usageTemplate)
	rootCmd.SetVersionTemplate(fmt.Sprintf(`{{printf "%s %s\n%s %s\n"}}`, headerStyle.Sprint("Version:"), version, headerStyle.Sprint("Commit:"), commit))

	return rootCmd
}

// errFlagged is returned (silently, SilenceErrors is set) by RunE to make
// cobra's Execute return a non-nil error when any file was flagged, so
// main can translate that into a non-zero exit code without chainlint's
// own summary line being treated as a cobra error message.
var errFlagged = fmt.Errorf("chainlint: one or more files flagged")

// ErrFlagged reports whether err is the sentinel used to signal "lint
// found something", as opposed to an operational failure.
func ErrFlagged(err error) bool {
	return err == errFlagged
}
