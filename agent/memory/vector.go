package memory

import (
	"math"
	"sort"
)

type match struct {
	Index      int
	Similarity float32
}

func cosine(a, b []float32) float32 {
	if len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float32
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	denom := float32(math.Sqrt(float64(normA))) * float32(math.Sqrt(float64(normB)))
	if denom == 0 {
		return 0
	}
	return dot / denom
}

// topN ranks candidates by cosine similarity to query. Equal scores keep
// candidate order.
func topN(query []float32, candidates [][]float32, n int) []match {
	matches := make([]match, len(candidates))
	for i, c := range candidates {
		matches[i] = match{Index: i, Similarity: cosine(query, c)}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Similarity > matches[j].Similarity
	})
	if n > len(matches) {
		n = len(matches)
	}
	return matches[:n]
}

func toFloat32(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(x)
	}
	return out
}
