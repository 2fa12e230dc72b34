package entities

import "errors"

var (
	// ErrEmptyQuery is returned for blank submissions.
	ErrEmptyQuery = errors.New("query is empty")

	// ErrDimensionMismatch is returned when a query vector and a chunk
	// embedding differ in length.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrGeneration marks failures of the external generation call.
	ErrGeneration = errors.New("generation failed")

	// ErrNoChoices is returned when a generator answers with no choices.
	ErrNoChoices = errors.New("generator returned no choices")

	// ErrKnowledgeUnavailable is returned when the knowledge source cannot be read.
	ErrKnowledgeUnavailable = errors.New("knowledge base unavailable")
)

// GenerationError wraps a failed generation call.
type GenerationError struct {
	Query string
	Err   error
}

func (e *GenerationError) Error() string {
	return "generating answer: " + e.Err.Error()
}

func (e *GenerationError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrGeneration) match any GenerationError.
func (e *GenerationError) Is(target error) bool {
	return target == ErrGeneration
}
