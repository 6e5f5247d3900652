package index

import (
	"errors"
	"fmt"
)

var (
	// ErrVectorLengthMismatch indicates two vectors have different dimensions.
	ErrVectorLengthMismatch = errors.New("vector length mismatch")

	// ErrInvalidArgument is returned for a non-positive k or a blank query.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrModelMismatch is returned when the query provider's model differs
	// from the model the index was built with.
	ErrModelMismatch = errors.New("embeddings model mismatch")
)

// EmbeddingError reports a failure of the embedding provider, or a vector it
// returned that does not fit the index.
type EmbeddingError struct {
	EntryID string // empty for query embeddings and whole-batch failures
	Err     error
}

func (e *EmbeddingError) Error() string {
	if e.EntryID != "" {
		return fmt.Sprintf("embedding %q: %v", e.EntryID, e.Err)
	}
	return fmt.Sprintf("embedding: %v", e.Err)
}

func (e *EmbeddingError) Unwrap() error { return e.Err }
