package main

import (
	"fmt"

	"github.com/alnah/go-tmproxy/internal/yamlutil"
)

// runConfig prints the effective configuration as YAML. The output is a
// valid config file.
func runConfig(args []string, deps *Dependencies) error {
	f, rest, err := parseConfigFlags(args, deps.Stderr)
	if err != nil {
		return err
	}
	if len(rest) > 0 {
		return fmt.Errorf("%w: config takes no arguments, got %q", ErrUsage, rest)
	}

	cfg, err := resolveConfig(&f.settingsFlags, deps)
	if err != nil {
		return err
	}

	data, err := yamlutil.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if _, err := deps.Stdout.Write(data); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteOutput, err)
	}
	return nil
}
