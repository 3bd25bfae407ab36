package domain

import (
	"errors"
	"fmt"
)

// Sentinel outcomes distinguished by the retriever and its callers.
var (
	// ErrNoMatches means retrieval legitimately found nothing above the
	// relevance threshold. A normal outcome, not a system fault.
	ErrNoMatches = errors.New("no matching results")

	// ErrIndexUnavailable means no index has been built at the configured
	// location, or the stored index is unreadable.
	ErrIndexUnavailable = errors.New("vector index unavailable")
)

// ConfigError reports missing or invalid configuration. Fatal at startup or
// at ingestion start; nothing is partially applied.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Reason)
}

// NewConfigError builds a ConfigError for the named field.
func NewConfigError(field, reason string) error {
	return &ConfigError{Field: field, Reason: reason}
}

// EmbeddingError wraps a failure of the embedding service call.
type EmbeddingError struct {
	Err error
}

func (e *EmbeddingError) Error() string { return "embedding service: " + e.Err.Error() }
func (e *EmbeddingError) Unwrap() error { return e.Err }

// ModelError wraps a failure of the language model invocation.
type ModelError struct {
	Err error
}

func (e *ModelError) Error() string { return "model invocation: " + e.Err.Error() }
func (e *ModelError) Unwrap() error { return e.Err }
