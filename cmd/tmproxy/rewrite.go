package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/alecthomas/chroma/v2/quick"

	"github.com/alnah/go-tmproxy/internal/fileutil"
)

// Highlighting used by rewrite --highlight.
const (
	highlightLexer     = "html"
	highlightFormatter = "terminal256"
	highlightStyle     = "monokai"
)

// stdinFileName names the output file when stdin is written to a directory.
const stdinFileName = "index.html"

// runRewrite applies the rewrite rules to one document, read from a file or
// stdin, and writes the result to --output or stdout.
func runRewrite(ctx context.Context, args []string, deps *Dependencies) error {
	f, rest, err := parseRewriteFlags(args, deps.Stderr)
	if err != nil {
		return err
	}
	if len(rest) > 1 {
		return fmt.Errorf("%w: rewrite takes at most one input, got %d", ErrUsage, len(rest))
	}
	if f.highlight && f.output != "" {
		return fmt.Errorf("%w: --highlight only applies to stdout", ErrUsage)
	}

	cfg, err := resolveConfig(&f.settingsFlags, deps)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg, deps.Stderr)
	if err != nil {
		return err
	}
	rw, err := newRewriter(cfg, logger)
	if err != nil {
		return err
	}

	input, err := readInput(rest, deps.Stdin)
	if err != nil {
		return err
	}

	out, err := rw.Process(ctx, input)
	if err != nil {
		return err
	}

	return writeOutput(f, outputPath(f.output, rest), out, deps.Stdout)
}

// outputPath resolves --output. An existing directory receives a file named
// after the input, or stdinFileName when reading stdin.
func outputPath(output string, args []string) string {
	if output == "" || !fileutil.DirExists(output) {
		return output
	}
	name := stdinFileName
	if len(args) > 0 && args[0] != "-" {
		name = filepath.Base(args[0])
	}
	return filepath.Join(output, name)
}

// readInput reads the named file, or stdin when no name or "-" is given.
func readInput(args []string, stdin io.Reader) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("%w: stdin: %w", ErrReadInput, err)
		}
		return string(data), nil
	}

	path := args[0]
	if fileutil.IsURL(path) {
		return "", fmt.Errorf("%w: %s (use serve to proxy a site)", ErrURLInput, path)
	}
	data, err := os.ReadFile(path) // #nosec G304 -- path is user-provided
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrReadInput, err)
	}
	return string(data), nil
}

func writeOutput(f *rewriteFlags, path, out string, stdout io.Writer) error {
	switch {
	case path != "":
		if err := fileutil.WriteFileAtomic(path, out, 0o644); err != nil {
			return fmt.Errorf("%w: %w", ErrWriteOutput, err)
		}
	case f.highlight:
		if err := quick.Highlight(stdout, out, highlightLexer, highlightFormatter, highlightStyle); err != nil {
			return fmt.Errorf("%w: %w", ErrWriteOutput, err)
		}
	default:
		if _, err := io.WriteString(stdout, out); err != nil {
			return fmt.Errorf("%w: %w", ErrWriteOutput, err)
		}
	}
	return nil
}
