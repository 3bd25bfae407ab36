package retriever

import (
	"context"
	"strings"

	"docchat/internal/domain"
)

// DefaultSeparator delimits passages inside the assembled context so the
// model can tell where one retrieved chunk ends and the next begins.
const DefaultSeparator = "\n\n---\n\n"

// Retriever embeds a query, searches the vector store and assembles the
// grounding context from the surviving matches. Read-only over the store.
type Retriever struct {
	embedder  domain.Embedder
	store     domain.VectorStore
	topK      int
	threshold float64
	separator string
}

// Result is a successful retrieval: the joined context string and the
// matches it was assembled from, in descending score order.
type Result struct {
	Context string
	Matches []domain.SearchResult
}

// New builds a retriever. A positive threshold keeps only matches scoring
// at or above it; zero or less disables the filter entirely, so everything
// the store returns is kept, negative similarities included.
func New(embedder domain.Embedder, store domain.VectorStore, topK int, threshold float64) *Retriever {
	if topK <= 0 {
		topK = 3
	}
	return &Retriever{
		embedder:  embedder,
		store:     store,
		topK:      topK,
		threshold: threshold,
		separator: DefaultSeparator,
	}
}

// Retrieve returns ErrNoMatches when nothing scores above the threshold,
// including for an empty index. An index that was never built surfaces as
// ErrIndexUnavailable from the store instead.
func (r *Retriever) Retrieve(ctx context.Context, query string) (Result, error) {
	vector, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return Result{}, err
	}
	matches, err := r.store.Search(vector, r.topK)
	if err != nil {
		return Result{}, err
	}
	kept := matches
	if r.threshold > 0 {
		kept = matches[:0:0]
		for _, m := range matches {
			if m.Score >= r.threshold {
				kept = append(kept, m)
			}
		}
	}
	if len(kept) == 0 {
		return Result{}, domain.ErrNoMatches
	}
	texts := make([]string, len(kept))
	for i, m := range kept {
		texts[i] = m.Chunk.Text
	}
	return Result{Context: strings.Join(texts, r.separator), Matches: kept}, nil
}
