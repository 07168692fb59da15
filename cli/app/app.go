// Package app implements chainlint's CLI functionality; the cobra command
// defers execution to the exported methods here.
package app

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/FollowTheProcess/msg"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/fatih/color"
	"github.com/juju/ansiterm/tabwriter"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"golang.org/x/exp/maps"

	"github.com/FollowTheProcess/chainlint/chainlint"
	"github.com/FollowTheProcess/chainlint/logger"
	"github.com/FollowTheProcess/chainlint/pool"
)

// App represents the chainlint program.
type App struct {
	stdout  io.Writer     // Where to write normal output to
	stderr  io.Writer     // Where to write errors to
	Options *Options      // All the CLI options
	logger  logger.Logger // chainlint's logger, prints debug messages to stderr if --verbose is used
	printer msg.Printer   // chainlint's printer, prints user messages to stdout
	flagged bool          // whether the last Run found anything to report
}

// Options holds all the flag values for chainlint, at their zero values if
// the flag was not set.
type Options struct {
	EmitAll bool // The --emit-all flag: report every test, not just flagged ones
	Stats   bool // The --stats flag: print a per-worker summary after linting
	Verbose bool // The --verbose flag
	Quiet   bool // The --quiet flag: suppress the summary line
	Jobs    int  // The --jobs/-j flag: worker count, <1 means auto
}

// New creates and returns a new App.
func New(stdout, stderr io.Writer) *App {
	printer := msg.Default()
	printer.Stdout = stdout
	printer.Stderr = stderr
	return &App{
		stdout:  stdout,
		stderr:  stderr,
		Options: &Options{},
		printer: printer,
	}
}

// Run is the entry point to the chainlint program. patterns are the
// positional arguments: shell script paths or glob patterns to expand.
// Returns a non-nil error only for operational failures (a bad glob
// pattern); no matching files is not an error, and a file that fails to lint
// is reported, not an error in
// this sense. The exit code a caller should use is carried separately, by
// calling Flagged() after Run returns.
func (a *App) Run(patterns []string) error {
	zl, err := logger.NewZapLogger(a.Options.Verbose)
	if err != nil {
		return err
	}
	a.logger = zl
	defer a.logger.Sync() // nolint: errcheck

	if len(patterns) == 0 {
		patterns = []string{"**/*.sh"}
		a.logger.Debug("No paths given, defaulting to pattern %q", patterns[0])
	}

	files, err := a.expand(patterns)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		// No arguments, or every glob expanded empty: exit zero without
		// emitting reports, per spec.md §6.
		a.logger.Debug("No files matched: %s", strings.Join(patterns, ", "))
		return nil
	}

	a.logger.Info("Linting %d file(s) across %s worker(s)", len(files), jobsOrAuto(a.Options.Jobs))

	results, stats := pool.Run(files, a.Options.EmitAll, a.Options.Jobs)

	sort.Slice(results, func(i, j int) bool { return results[i].Path < results[j].Path })

	flagged := 0
	for _, r := range results {
		if r.IOErr != "" {
			fmt.Fprintf(a.stderr, "# chainlint: %s\n# chainlint: ?!ERR?! %s\n", r.Path, r.IOErr)
			flagged++
			continue
		}
		if out := chainlint.FormatScriptReport(r.Path, r.Reports); out != "" {
			fmt.Fprint(a.stdout, out)
			if r.HasFinding() {
				flagged++
			}
		}
	}
	a.flagged = flagged > 0

	if a.Options.Stats {
		a.printStats(stats)
	}

	if !a.Options.Quiet {
		a.printSummary(len(files), flagged)
	}

	return nil
}

// Flagged reports whether any file produced a finding, deciding the
// process exit code per spec.md §6.
func (a *App) Flagged() bool {
	return a.flagged
}

// expand turns positional glob patterns into a sorted, de-duplicated list
// of concrete file paths. Any pattern that matches nothing is tried as a
// literal path; if no such file exists either, the pattern is skipped with a
// fuzzy "did you mean" warning instead of a silent empty match.
func (a *App) expand(patterns []string) ([]string, error) {
	seen := make(map[string]bool)

	for _, pattern := range patterns {
		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return nil, fmt.Errorf("bad glob pattern %q: %w", pattern, err)
		}
		if len(matches) == 0 {
			if _, statErr := os.Stat(pattern); statErr == nil {
				matches = []string{pattern}
			} else {
				a.suggest(pattern)
				continue
			}
		}
		for _, m := range matches {
			seen[m] = true
		}
	}

	out := maps.Keys(seen)
	sort.Strings(out)
	return out, nil
}

// suggest prints a "did you mean" hint for a pattern that matched nothing,
// ranked against the files in the current directory tree.
func (a *App) suggest(pattern string) {
	candidates, err := doublestar.FilepathGlob("**/*.sh")
	if err != nil || len(candidates) == 0 {
		a.printer.Warnf("%q matched no files", pattern)
		return
	}
	ranked := fuzzy.RankFindNormalizedFold(pattern, candidates)
	if len(ranked) == 0 {
		a.printer.Warnf("%q matched no files", pattern)
		return
	}
	sort.Sort(ranked)
	a.printer.Warnf("%q matched no files, did you mean %q?", pattern, ranked[0].Target)
}

// printStats renders the per-worker file tally as a table, in the
// teacher's tabwriter + fatih/color style.
func (a *App) printStats(stats pool.Stats) {
	writer := tabwriter.NewWriter(a.stdout, 0, 8, 1, '\t', tabwriter.AlignRight)

	titleStyle := color.New(color.FgHiWhite, color.Bold)
	fmt.Fprintf(a.stdout, "chainlint stats (%s):\n", stats.Wall.Round(1))
	titleStyle.Fprintln(writer, "Worker\tFiles")

	for _, w := range stats.PerWorker {
		fmt.Fprintf(writer, "%d\t%d\n", w.Worker, w.Files)
	}
	writer.Flush()

	fmt.Fprintf(a.stdout, "%d file(s), %d finding(s)\n", stats.Files, stats.Findings)
}

// printSummary prints the one-line pass/fail summary, unless --quiet.
func (a *App) printSummary(total, flagged int) {
	if flagged == 0 {
		a.printer.Goodf("%d file(s) clean", total)
		return
	}
	a.printer.Warnf("%d of %d file(s) flagged", flagged, total)
}

func jobsOrAuto(jobs int) string {
	if jobs < 1 {
		return "auto"
	}
	return fmt.Sprintf("%d", jobs)
}
