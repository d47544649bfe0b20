// Package xerrors defines the typed error kinds raised by the indexing
// and search pipeline. Each kind is a distinct struct rather than a
// shared sentinel so callers can branch with errors.As and so the
// transient/permanent distinction required of the upload client is
// carried in the type, not in an exception hierarchy.
package xerrors

import (
	"fmt"
	"time"
)

// InvalidInputError is raised at the facade boundary for a malformed
// project root or query. Never recovered locally; the facade turns it
// into an "Error: ..." string.
type InvalidInputError struct {
	Field string
	Value string
	Cause error
}

func NewInvalidInputError(field, value string, cause error) *InvalidInputError {
	return &InvalidInputError{Field: field, Value: value, Cause: cause}
}

func (e *InvalidInputError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("invalid %s %q: %v", e.Field, e.Value, e.Cause)
	}
	return fmt.Sprintf("invalid %s %q", e.Field, e.Value)
}

func (e *InvalidInputError) Unwrap() error { return e.Cause }

// FileReadError is raised by the decoder when a file cannot be opened.
// Recovered locally: the orchestrator logs it and skips the file.
type FileReadError struct {
	Path      string
	Operation string
	Cause     error
	Timestamp time.Time
}

func NewFileReadError(path, op string, cause error) *FileReadError {
	return &FileReadError{Path: path, Operation: op, Cause: cause, Timestamp: time.Now()}
}

func (e *FileReadError) Error() string {
	return fmt.Sprintf("file %s failed for %s: %v", e.Operation, e.Path, e.Cause)
}

func (e *FileReadError) Unwrap() error { return e.Cause }

// EncodingFallbackWarning marks a file that fell back to lossy UTF-8
// decoding after every strict encoding attempt failed. Not fatal — it
// is logged as a warning and indexing proceeds with the lossy text.
type EncodingFallbackWarning struct {
	Path string
}

func NewEncodingFallbackWarning(path string) *EncodingFallbackWarning {
	return &EncodingFallbackWarning{Path: path}
}

func (e *EncodingFallbackWarning) Error() string {
	return fmt.Sprintf("falling back to lossy UTF-8 decoding for %s", e.Path)
}

// UploadTransientError is returned by the upload/search clients when
// every retry attempt was exhausted on a transient condition (timeout,
// connection error, HTTP 5xx). Recovered locally for uploads (the
// orchestrator skips the batch); surfaced for search.
type UploadTransientError struct {
	Attempts int
	Cause    error
}

func NewUploadTransientError(attempts int, cause error) *UploadTransientError {
	return &UploadTransientError{Attempts: attempts, Cause: cause}
}

func (e *UploadTransientError) Error() string {
	return fmt.Sprintf("upload failed after %d attempts: %v", e.Attempts, e.Cause)
}

func (e *UploadTransientError) Unwrap() error { return e.Cause }

// UploadPermanentError is returned for non-retryable conditions: HTTP
// 4xx responses or a response body that fails to decode.
type UploadPermanentError struct {
	StatusCode int
	Cause      error
}

func NewUploadPermanentError(statusCode int, cause error) *UploadPermanentError {
	return &UploadPermanentError{StatusCode: statusCode, Cause: cause}
}

func (e *UploadPermanentError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("upload rejected with status %d: %v", e.StatusCode, e.Cause)
	}
	return fmt.Sprintf("upload rejected: %v", e.Cause)
}

func (e *UploadPermanentError) Unwrap() error { return e.Cause }

// SearchError wraps a failed search request after retries. Never
// recovered locally — it is surfaced to the facade caller.
type SearchError struct {
	Query string
	Cause error
}

func NewSearchError(query string, cause error) *SearchError {
	return &SearchError{Query: query, Cause: cause}
}

func (e *SearchError) Error() string {
	return fmt.Sprintf("search failed for query %q: %v", truncate(e.Query, 80), e.Cause)
}

func (e *SearchError) Unwrap() error { return e.Cause }

// RegistryCorruptError is raised when the persisted registry file
// exists but cannot be parsed. Surfaced to the caller; the core never
// silently discards an unreadable registry.
type RegistryCorruptError struct {
	Path  string
	Cause error
}

func NewRegistryCorruptError(path string, cause error) *RegistryCorruptError {
	return &RegistryCorruptError{Path: path, Cause: cause}
}

func (e *RegistryCorruptError) Error() string {
	return fmt.Sprintf("project registry at %s is corrupt: %v", e.Path, e.Cause)
}

func (e *RegistryCorruptError) Unwrap() error { return e.Cause }

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
