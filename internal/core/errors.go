package core

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyProfile is returned when the interest profile has no content
	ErrEmptyProfile = errors.New("profile is empty")

	// ErrProfileTooLarge is returned when the profile exceeds the embedding input limit
	ErrProfileTooLarge = errors.New("profile exceeds embedding input limit")

	// ErrMissingAPIKey is returned when the embedding provider has no credential
	ErrMissingAPIKey = errors.New("API key is required")

	// ErrListingDateNotFound is returned when a feed page has no recognizable listing date
	ErrListingDateNotFound = errors.New("listing date marker not found")

	// ErrMalformedEmbedding is returned when the embedding service answers with unusable vectors
	ErrMalformedEmbedding = errors.New("malformed embedding response")
)

// ConfigurationError aborts a run before any network call is made.
type ConfigurationError struct {
	Field string
	Err   error
}

func (e *ConfigurationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("configuration error: %v", e.Err)
	}
	return fmt.Sprintf("configuration error (%s): %v", e.Field, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// SourceFetchError reports a feed that could not be fetched or understood.
type SourceFetchError struct {
	Feed       string
	URL        string
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *SourceFetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("feed %s (%s): status %d: %v", e.Feed, e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("feed %s (%s): %v", e.Feed, e.URL, e.Err)
}

func (e *SourceFetchError) Unwrap() error { return e.Err }

// EmbeddingServiceError reports a failed or malformed embedding batch.
type EmbeddingServiceError struct {
	Batch int // Zero-based batch index, -1 for the profile call
	Err   error
}

func (e *EmbeddingServiceError) Error() string {
	if e.Batch < 0 {
		return fmt.Sprintf("embedding service (profile): %v", e.Err)
	}
	return fmt.Sprintf("embedding service (batch %d): %v", e.Batch, e.Err)
}

func (e *EmbeddingServiceError) Unwrap() error { return e.Err }
