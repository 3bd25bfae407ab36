// Package vectorstore provides the similarity ranking shared by the
// concrete store backends.
package vectorstore

import (
	"math"
	"sort"

	"docchat/internal/domain"
)

// Cosine returns the cosine similarity of a and b, 0 when either vector has
// zero magnitude.
func Cosine(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// TopK ranks the stored vectors against the query and returns up to k
// results by descending similarity. Equal scores keep insertion order.
func TopK(query []float64, chunks []domain.Chunk, vectors [][]float64, k int) []domain.SearchResult {
	if k <= 0 || len(vectors) == 0 {
		return nil
	}
	idxs := make([]int, len(vectors))
	scores := make([]float64, len(vectors))
	for i := range vectors {
		idxs[i] = i
		scores[i] = Cosine(query, vectors[i])
	}
	sort.SliceStable(idxs, func(a, b int) bool { return scores[idxs[a]] > scores[idxs[b]] })
	if k > len(idxs) {
		k = len(idxs)
	}
	results := make([]domain.SearchResult, 0, k)
	for _, i := range idxs[:k] {
		results = append(results, domain.SearchResult{Chunk: chunks[i], Score: scores[i]})
	}
	return results
}
