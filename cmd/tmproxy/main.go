package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	flag "github.com/spf13/pflag"
	"go.uber.org/automaxprocs/maxprocs"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	ctx, stop := notifyContext(context.Background())
	code := runMain(ctx, os.Args[1:], DefaultDeps())
	stop()
	os.Exit(code)
}

// runMain dispatches to a command and returns the process exit code.
func runMain(ctx context.Context, args []string, deps *Dependencies) int {
	warnUnknownEnvVars(deps.Stderr, deps.Environ())

	if len(args) == 0 {
		printUsage(deps.Stderr)
		return ExitUsage
	}

	var err error
	switch cmd, rest := args[0], args[1:]; cmd {
	case "serve":
		err = runServe(ctx, rest, deps)
	case "rewrite":
		err = runRewrite(ctx, rest, deps)
	case "config":
		err = runConfig(rest, deps)
	case "doctor":
		err = runDoctor(ctx, rest, deps)
	case "version", "--version":
		fmt.Fprintf(deps.Stdout, "tmproxy %s\n", Version)
	case "help", "-h", "--help":
		err = runHelp(rest, deps)
	default:
		printUsage(deps.Stderr)
		err = fmt.Errorf("%w: unknown command %q", ErrUsage, cmd)
	}

	if errors.Is(err, flag.ErrHelp) {
		return ExitSuccess
	}
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %v\n", err)
	}
	return exitCodeFor(err)
}

// setMaxProcs matches GOMAXPROCS to the container CPU quota and returns the
// undo function. Verbose mode logs the decision to w.
// Error ignored: maxprocs.Set only fails if GOMAXPROCS env is invalid,
// in which case Go runtime defaults apply and the program continues safely.
func setMaxProcs(verbose bool, w io.Writer) func() {
	logf := func(string, ...any) {}
	if verbose {
		logf = func(format string, args ...any) {
			fmt.Fprintf(w, format+"\n", args...)
		}
	}
	undo, _ := maxprocs.Set(maxprocs.Logger(logf))
	return undo
}
