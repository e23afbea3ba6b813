package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/kk-code-lab/ffind/internal/config"
	"github.com/kk-code-lab/ffind/internal/format"
	"github.com/kk-code-lab/ffind/internal/query"
	"github.com/kk-code-lab/ffind/internal/search"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// configPath is overridable in tests.
var configPath = config.DefaultPath

// NewRootCommand creates and returns the root cobra command for ffind.
// Flag parsing is disabled on the root: the whole argument list goes
// through the query grammar, so the one-shot command and the
// interactive panel accept exactly the same modifiers.
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ffind [modifiers] TEXT...",
		Short: "Fuzzy file and directory finder",
		Long: `ffind searches a directory tree for entries whose name or path
fuzzily match the given text, honoring gitignore rules.

Modifiers mix freely with the match text:
  -d, --dir             match directories only
  -e, --exact           require a contiguous substring match
  -b, --base PATH       search under PATH instead of the current directory
  -n, --limit N         keep at most N results (0 = unlimited)
  -1, --first           stop at the first match
  -t, --timeout SECONDS give up after SECONDS (0 = unlimited)
  -H, --hidden          include hidden files
  -j, --json            print results as JSON
  -c, --compact         print results as single-line JSON

Text containing a path separator matches against the relative path
instead of the entry name, so "src/main" finds src/main.go but not
other/main.go.

Exit codes: 0 with at least one result, 1 with none, 124 when the
timeout expired first.`,
		Version:            Version,
		SilenceUsage:       true,
		SilenceErrors:      true,
		DisableFlagParsing: true,
		// Query text is positional by design; without ArbitraryArgs
		// cobra would reject it as an unknown subcommand.
		Args: cobra.ArbitraryArgs,
		RunE: runSearch,
	}

	cmd.AddCommand(NewInteractiveCommand())

	return cmd
}

func runSearch(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		if err := cmd.Help(); err != nil {
			return err
		}
		return &ExitError{Code: ExitUsageError}
	}

	// Flag parsing is off, so help and version are ours to route. A
	// token sitting in a modifier's argument slot stays an argument:
	// "-b --help" names a directory, not the help flag.
	for i := 0; i < len(args); i++ {
		if query.TakesArgument(args[i]) {
			i++
			continue
		}
		switch args[i] {
		case "-h", "--help":
			return cmd.Help()
		case "--version":
			fmt.Fprintf(cmd.OutOrStdout(), "ffind version %s\n", Version)
			return nil
		}
	}

	cfg, err := config.Load(configPath())
	if err != nil {
		return err
	}

	q, err := query.ParseTokens(args, query.Defaults{
		Limit:         cfg.Limit,
		Timeout:       cfg.Timeout,
		IncludeHidden: cfg.ShowHidden,
	})
	if err != nil {
		return err
	}

	// SIGINT shares the timeout path: stop feeding candidates, print
	// what accumulated.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	rs, err := search.NewSearcher().Search(ctx, q)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch {
	case q.Limit == 1:
		err = format.WriteFirst(out, rs)
	case q.Output == query.OutputJSON:
		err = format.WriteJSON(out, rs, false)
	case q.Output == query.OutputCompact:
		err = format.WriteJSON(out, rs, true)
	default:
		err = format.WriteList(out, rs, format.Options{Color: useColor(cfg)})
	}
	if err != nil {
		return err
	}

	if rs.TimedOut {
		return &ExitError{Code: ExitTimeout}
	}
	if rs.Empty() {
		return &ExitError{Code: ExitNoResults}
	}
	return nil
}

func useColor(cfg *config.Config) bool {
	switch cfg.Color {
	case config.ColorAlways:
		return true
	case config.ColorNever:
		return false
	default:
		return isatty.IsTerminal(os.Stdout.Fd())
	}
}

// Process exit codes for the one-shot invocation.
const (
	ExitNoResults  = 1
	ExitUsageError = 2
	ExitTimeout    = 124
)

// ExitError carries a process exit code through cobra's error return
// without printing anything by itself.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit code %d", e.Code)
}

// ExitCode maps an Execute result to the process exit code, printing
// genuine errors to stderr on the way.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	var parseErr *query.ParseError
	if errors.As(err, &parseErr) {
		return ExitUsageError
	}
	return 1
}
