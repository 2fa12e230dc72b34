package embedding

import (
	"context"
	"math"
	"unicode/utf16"
)

// DefaultDimensions is the length of vectors produced by SineEmbedder.
const DefaultDimensions = 256

// SineEmbedder is a placeholder embedder: element i is sin(i + len(text)).
// It carries no semantics; texts of equal length embed identically.
// Length is counted in UTF-16 code units so vectors match knowledge bases
// embedded by the browser widget.
type SineEmbedder struct {
	dims int
}

// NewSineEmbedder creates a SineEmbedder. dims <= 0 means DefaultDimensions.
func NewSineEmbedder(dims int) *SineEmbedder {
	if dims <= 0 {
		dims = DefaultDimensions
	}
	return &SineEmbedder{dims: dims}
}

// Embed never fails.
func (e *SineEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	n := float64(len(utf16.Encode([]rune(text))))
	vec := make([]float64, e.dims)
	for i := range vec {
		vec[i] = math.Sin(float64(i) + n)
	}
	return vec, nil
}

// Dimensions returns the vector length.
func (e *SineEmbedder) Dimensions() int {
	return e.dims
}
