package main

import (
	"fmt"
	"io"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: tmproxy <command> [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  serve      Proxy a site and rewrite its HTML")
	fmt.Fprintln(w, "  rewrite    Rewrite one HTML document from a file or stdin")
	fmt.Fprintln(w, "  config     Print the effective configuration as YAML")
	fmt.Fprintln(w, "  doctor     Check that serve can start")
	fmt.Fprintln(w, "  version    Show version information")
	fmt.Fprintln(w, "  help       Show help for a command")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'tmproxy help <command>' for details on a specific command.")
}

// printSettingsUsage prints the flags shared by serve, rewrite and config.
func printSettingsUsage(w io.Writer) {
	fmt.Fprintln(w, "Configuration:")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
	fmt.Fprintln(w, "      --origin <url>        Site to proxy (default https://habr.com)")
	fmt.Fprintln(w, "      --host <s>            Listen host (default 127.0.0.1)")
	fmt.Fprintln(w, "  -p, --port <n>            Listen port (default 8080)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Rewriting:")
	fmt.Fprintln(w, "      --marker <s>          Glyph appended to six-letter words (default ™)")
	fmt.Fprintln(w, "      --exclude <tag>       Element whose content is never marked")
	fmt.Fprintln(w, "                            Repeatable; replaces the default script,iframe")
	fmt.Fprintln(w, "      --no-word-mark        Disable word marking")
	fmt.Fprintln(w, "      --no-link-rewrite     Disable link rewriting")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Logging:")
	fmt.Fprintln(w, "      --log-level <s>       Level: debug, info, warn, error")
	fmt.Fprintln(w, "      --log-format <s>      Format: text, json")
	fmt.Fprintln(w, "  -q, --quiet               Only log errors")
	fmt.Fprintln(w, "  -v, --verbose             Log debug details")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment:")
	fmt.Fprintln(w, "  TMPROXY_CONFIG, TMPROXY_CONFIG_DIR, TMPROXY_ORIGIN, TMPROXY_HOST,")
	fmt.Fprintln(w, "  TMPROXY_PORT, TMPROXY_MARKER, TMPROXY_WORKERS, TMPROXY_LOG_LEVEL,")
	fmt.Fprintln(w, "  TMPROXY_LOG_FORMAT. Flags take priority over the environment, which")
	fmt.Fprintln(w, "  takes priority over the config file.")
}

// printServeUsage prints usage for the serve command.
func printServeUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: tmproxy serve [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Proxy the origin on host:port. HTML responses get six-letter words")
	fmt.Fprintln(w, "marked and links to the origin pointed back at the proxy.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Serving:")
	fmt.Fprintln(w, "  -w, --workers <n>         Concurrent rewrites (0 = auto)")
	fmt.Fprintln(w)
	printSettingsUsage(w)
}

// printRewriteUsage prints usage for the rewrite command.
func printRewriteUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: tmproxy rewrite [file] [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Rewrite one HTML document the way serve rewrites responses.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Arguments:")
	fmt.Fprintln(w, "  file    HTML file (stdin if omitted or \"-\")")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output:")
	fmt.Fprintln(w, "  -o, --output <path>       Output file or directory (default stdout)")
	fmt.Fprintln(w, "      --highlight           Colorize HTML on stdout")
	fmt.Fprintln(w)
	printSettingsUsage(w)
}

// printConfigUsage prints usage for the config command.
func printConfigUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: tmproxy config [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Print the configuration serve would use, after merging defaults, the")
	fmt.Fprintln(w, "config file, the environment and flags. The output is a valid config file.")
	fmt.Fprintln(w)
	printSettingsUsage(w)
}

// printDoctorUsage prints usage for the doctor command.
func printDoctorUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: tmproxy doctor [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Check the effective configuration: the origin answers, the listen")
	fmt.Fprintln(w, "address is free and the rewrite rules build. Exits 1 on errors.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output:")
	fmt.Fprintln(w, "      --json                Print results as JSON")
	fmt.Fprintln(w, "  -w, --workers <n>         Concurrent rewrites (0 = auto)")
	fmt.Fprintln(w)
	printSettingsUsage(w)
}

// runHelp prints help for a specific command.
func runHelp(args []string, deps *Dependencies) error {
	if len(args) == 0 {
		printUsage(deps.Stdout)
		return nil
	}

	switch args[0] {
	case "serve":
		printServeUsage(deps.Stdout)
	case "rewrite":
		printRewriteUsage(deps.Stdout)
	case "config":
		printConfigUsage(deps.Stdout)
	case "doctor":
		printDoctorUsage(deps.Stdout)
	case "version":
		fmt.Fprintln(deps.Stdout, "Usage: tmproxy version")
		fmt.Fprintln(deps.Stdout)
		fmt.Fprintln(deps.Stdout, "Show version information.")
	case "help":
		fmt.Fprintln(deps.Stdout, "Usage: tmproxy help [command]")
		fmt.Fprintln(deps.Stdout)
		fmt.Fprintln(deps.Stdout, "Show help for a command.")
	default:
		printUsage(deps.Stderr)
		return fmt.Errorf("%w: unknown command %q", ErrUsage, args[0])
	}
	return nil
}
