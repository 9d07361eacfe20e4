// Package errors provides foundational, type-safe error primitives used across siteship.
//
// This package contains classified error types and helpers for robust error handling,
// including a fluent builder API for constructing ClassifiedError values with context.
//
// Key features:
//   - ErrorCategory: Broad error classification (config, validation, publish, git, etc.)
//   - ErrorSeverity: Impact level (fatal, error, warning, info)
//   - RetryStrategy: Retry behavior (never, immediate, backoff)
//   - ClassifiedError: Structured error with category, severity, and context
//   - ErrorBuilder: Fluent API for creating classified errors
//   - CLIErrorAdapter: exit code mapping and presentation for the command line
//
// Example usage:
//
//	err := errors.PublishError("publish step failed").
//		WithCause(copyErr).
//		WithContext("step", "copy").
//		Build()
package errors
