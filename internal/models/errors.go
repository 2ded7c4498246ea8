package models

import "errors"

// Error taxonomy for the analysis pipeline. Only ErrToolInput is
// recovered locally; the rest are fatal to their scope.
var (
	// ErrValidation: the reasoning backend returned output that fails
	// schema validation. Fatal to the job.
	ErrValidation = errors.New("agent output failed schema validation")

	// ErrToolInput: an auxiliary tool received malformed input. The
	// tool returns an insufficient-data result and the phase continues.
	ErrToolInput = errors.New("tool received malformed input")

	// ErrExtraction: document content extraction failed. Fatal to the
	// document, not to any case analysis.
	ErrExtraction = errors.New("document extraction failed")

	// ErrJobTimeout: the job exceeded its soft or hard time limit.
	ErrJobTimeout = errors.New("analysis job exceeded time limit")
)
