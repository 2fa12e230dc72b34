// Package similarity scores vectors against each other.
package similarity

import "math"

// Cosine returns the cosine similarity of a and b.
// Vectors of different length, empty vectors and zero-norm vectors score 0,
// so the result is always a finite number in [-1, 1].
func Cosine(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
