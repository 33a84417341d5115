package main

import "errors"

// Sentinel errors for CLI operations.
var (
	ErrUsage       = errors.New("invalid usage")
	ErrInvalidEnv  = errors.New("invalid environment variable")
	ErrURLInput    = errors.New("rewrite reads files, not URLs")
	ErrReadInput   = errors.New("failed to read input")
	ErrWriteOutput = errors.New("failed to write output")
	ErrListen      = errors.New("failed to listen")
)
