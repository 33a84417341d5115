package tmproxy

import (
	"errors"

	"github.com/alnah/go-tmproxy/internal/pipeline"
)

// Sentinel errors for library operations.
var (
	// Listen address validation errors.
	ErrMissingListenPort = errors.New("listen port is required for link rewriting")
	ErrInvalidListenPort = errors.New("listen port must be between 1 and 65535")

	// Origin validation errors.
	ErrInvalidOrigin = errors.New("origin must be an absolute http or https URL")
	ErrMissingOrigin = pipeline.ErrMissingOrigin

	// Rule construction errors.
	ErrInvalidTagName = pipeline.ErrInvalidTagName
	ErrEmptyMarker    = pipeline.ErrEmptyMarker
	ErrInvalidMarker  = pipeline.ErrInvalidMarker

	// Processing errors.
	ErrRuleFailed = pipeline.ErrRuleFailed
)
