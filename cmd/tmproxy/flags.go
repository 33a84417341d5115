package main

import (
	"errors"
	"fmt"
	"io"

	flag "github.com/spf13/pflag"
)

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config  string
	quiet   bool
	verbose bool
}

// ruleFlags holds the rewrite settings shared by serve, rewrite and config.
type ruleFlags struct {
	origin        string
	host          string
	port          int
	marker        string
	exclude       []string
	noWordMark    bool
	noLinkRewrite bool
}

// logFlags holds log output flags.
type logFlags struct {
	level  string
	format string
}

// settingsFlags holds the flags that feed the effective configuration.
// fs is kept so merging can tell explicit flags from defaults.
type settingsFlags struct {
	common  commonFlags
	rules   ruleFlags
	log     logFlags
	workers int
	fs      *flag.FlagSet
}

// serveFlags holds all flags for the serve command.
type serveFlags struct {
	settingsFlags
}

// rewriteFlags holds all flags for the rewrite command.
type rewriteFlags struct {
	settingsFlags
	output    string
	highlight bool
}

// configFlags holds all flags for the config command.
type configFlags struct {
	settingsFlags
}

// doctorFlags holds all flags for the doctor command.
type doctorFlags struct {
	settingsFlags
	json bool
}

func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only log errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "log debug details")
}

func addRuleFlags(fs *flag.FlagSet, f *ruleFlags) {
	fs.StringVar(&f.origin, "origin", "", "site to proxy")
	fs.StringVar(&f.host, "host", "", "listen host")
	fs.IntVarP(&f.port, "port", "p", 0, "listen port")
	fs.StringVar(&f.marker, "marker", "", "glyph appended to six-letter words")
	fs.StringSliceVar(&f.exclude, "exclude", nil, "element whose content is never marked (repeatable)")
	fs.BoolVar(&f.noWordMark, "no-word-mark", false, "disable word marking")
	fs.BoolVar(&f.noLinkRewrite, "no-link-rewrite", false, "disable link rewriting")
}

func addLogFlags(fs *flag.FlagSet, f *logFlags) {
	fs.StringVar(&f.level, "log-level", "", "log level: debug, info, warn, error")
	fs.StringVar(&f.format, "log-format", "", "log format: text, json")
}

func addSettingsFlags(fs *flag.FlagSet, f *settingsFlags) {
	f.fs = fs
	addCommonFlags(fs, &f.common)
	addRuleFlags(fs, &f.rules)
	addLogFlags(fs, &f.log)
}

// parseServeFlags parses serve command flags and returns positional args.
func parseServeFlags(args []string, stderr io.Writer) (*serveFlags, []string, error) {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	f := &serveFlags{}

	fs.IntVarP(&f.workers, "workers", "w", 0, "concurrent rewrites (0 = auto)")
	addSettingsFlags(fs, &f.settingsFlags)

	if err := parse(fs, args, stderr, printServeUsage); err != nil {
		return nil, nil, err
	}
	return f, fs.Args(), nil
}

// parseRewriteFlags parses rewrite command flags and returns positional args.
func parseRewriteFlags(args []string, stderr io.Writer) (*rewriteFlags, []string, error) {
	fs := flag.NewFlagSet("rewrite", flag.ContinueOnError)
	f := &rewriteFlags{}

	fs.StringVarP(&f.output, "output", "o", "", "output file or directory (default stdout)")
	fs.BoolVar(&f.highlight, "highlight", false, "print the result with syntax highlighting")
	addSettingsFlags(fs, &f.settingsFlags)

	if err := parse(fs, args, stderr, printRewriteUsage); err != nil {
		return nil, nil, err
	}
	return f, fs.Args(), nil
}

// parseConfigFlags parses config command flags and returns positional args.
func parseConfigFlags(args []string, stderr io.Writer) (*configFlags, []string, error) {
	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	f := &configFlags{}

	addSettingsFlags(fs, &f.settingsFlags)

	if err := parse(fs, args, stderr, printConfigUsage); err != nil {
		return nil, nil, err
	}
	return f, fs.Args(), nil
}

// parseDoctorFlags parses doctor command flags and returns positional args.
func parseDoctorFlags(args []string, stderr io.Writer) (*doctorFlags, []string, error) {
	fs := flag.NewFlagSet("doctor", flag.ContinueOnError)
	f := &doctorFlags{}

	fs.BoolVar(&f.json, "json", false, "print results as JSON")
	fs.IntVarP(&f.workers, "workers", "w", 0, "concurrent rewrites (0 = auto)")
	addSettingsFlags(fs, &f.settingsFlags)

	if err := parse(fs, args, stderr, printDoctorUsage); err != nil {
		return nil, nil, err
	}
	return f, fs.Args(), nil
}

// parse runs fs.Parse and prints usage to stderr on -h/--help or a bad
// flag. Errors other than flag.ErrHelp are wrapped with ErrUsage.
func parse(fs *flag.FlagSet, args []string, stderr io.Writer, usage func(io.Writer)) error {
	fs.SetOutput(stderr)
	fs.Usage = func() { usage(stderr) }

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		usage(stderr)
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}
	return nil
}
