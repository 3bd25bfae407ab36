// Package memory implements an in-process vector store with brute-force
// cosine search.
package memory

import (
	"context"
	"fmt"
	"sync/atomic"

	"docchat/internal/domain"
	"docchat/internal/vectorstore"
)

// snapshot is one fully-built generation of the index. Snapshots are
// immutable after publication.
type snapshot struct {
	dimension int
	chunks    []domain.Chunk
	vectors   [][]float64
}

// Store keeps the current snapshot behind an atomic pointer. Rebuild
// assembles a fresh snapshot off to the side and publishes it in one store;
// readers never block and never observe a partially-replaced index.
type Store struct {
	current atomic.Pointer[snapshot]
}

func New() *Store { return &Store{} }

// Rebuild embeds every chunk and replaces the stored set wholesale. On any
// failure the previously published snapshot stays in place.
func (s *Store) Rebuild(ctx context.Context, chunks []domain.Chunk, embedder domain.Embedder) error {
	texts := make([]string, len(chunks))
	for i, ch := range chunks {
		texts[i] = ch.Text
	}
	vectors, err := embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return err
	}
	if len(vectors) != len(chunks) {
		return fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(chunks))
	}
	snap := &snapshot{chunks: append([]domain.Chunk(nil), chunks...), vectors: vectors}
	for _, v := range vectors {
		if snap.dimension == 0 {
			snap.dimension = len(v)
		}
		if len(v) != snap.dimension {
			return fmt.Errorf("inconsistent embedding dimension: got %d, want %d", len(v), snap.dimension)
		}
	}
	s.current.Store(snap)
	return nil
}

// Search ranks the current snapshot against the query vector. A store that
// was never rebuilt reports ErrIndexUnavailable; an empty snapshot yields
// an empty result set.
func (s *Store) Search(vector []float64, k int) ([]domain.SearchResult, error) {
	snap := s.current.Load()
	if snap == nil {
		return nil, domain.ErrIndexUnavailable
	}
	return vectorstore.TopK(vector, snap.chunks, snap.vectors, k), nil
}

// Len reports the number of stored chunks, 0 when never rebuilt.
func (s *Store) Len() int {
	snap := s.current.Load()
	if snap == nil {
		return 0
	}
	return len(snap.chunks)
}
