package domain

import "fmt"

// ConfigurationError reports a missing or invalid setting. It is surfaced
// at construction time and is never retried.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Reason)
}

// TransientServiceError reports a network or rate-limit failure that
// persisted through bounded retries.
type TransientServiceError struct {
	Service  string
	Attempts int
	Err      error
}

func (e *TransientServiceError) Error() string {
	return fmt.Sprintf("%s: transient failure after %d attempts: %v", e.Service, e.Attempts, e.Err)
}

func (e *TransientServiceError) Unwrap() error { return e.Err }

// AuthenticationError reports a rejected credential. Fatal, never retried.
type AuthenticationError struct {
	Service string
	Err     error
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("%s: authentication failed: %v", e.Service, e.Err)
}

func (e *AuthenticationError) Unwrap() error { return e.Err }

// DimensionMismatchError indicates drift between the embedding model's
// output and the configured index dimension. Never silently coerced.
type DimensionMismatchError struct {
	Want int
	Got  int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("vector dimension mismatch: want %d, got %d", e.Want, e.Got)
}

// DocumentLoadError reports a malformed or unreadable source file.
type DocumentLoadError struct {
	Path string
	Err  error
}

func (e *DocumentLoadError) Error() string {
	return fmt.Sprintf("failed to load %s: %v", e.Path, e.Err)
}

func (e *DocumentLoadError) Unwrap() error { return e.Err }

// UnsupportedFormatError reports a file whose extension is outside the
// ingestion allow-list.
type UnsupportedFormatError struct {
	Path string
	Ext  string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported file format %q: %s", e.Ext, e.Path)
}
