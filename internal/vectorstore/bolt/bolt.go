// Package bolt implements a vector store persisted in a bbolt file.
//
// Each rebuild writes a fresh generation bucket and flips the current
// pointer inside a single transaction, so the on-disk index is replaced
// wholesale: readers see either the previous generation or the new one, and
// a failed rebuild leaves the previous generation untouched. The replaced
// generation is dropped in the same transaction and is not recoverable.
package bolt

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"

	"docchat/internal/domain"
	"docchat/internal/vectorstore"
)

var (
	metaBucket        = []byte("meta")
	generationsBucket = []byte("generations")
	currentKey        = []byte("current")
)

type record struct {
	SourceID     string    `json:"source_id"`
	Text         string    `json:"text"`
	SourceOffset int       `json:"source_offset"`
	Vector       []float64 `json:"vector"`
}

type snapshot struct {
	chunks  []domain.Chunk
	vectors [][]float64
}

// Store is a bbolt-backed vector store. Searches are served from an
// in-memory snapshot of the current generation, swapped atomically after
// each rebuild; the file is only touched by Open and Rebuild.
type Store struct {
	db *bbolt.DB

	// rebuildMu keeps the snapshot swap paired with the disk flip when
	// rebuilds run concurrently. Readers never take it.
	rebuildMu sync.Mutex
	current   atomic.Pointer[snapshot]
}

// Open opens or creates the index file at path and loads the current
// generation, if one was ever published.
func Open(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open index %s: %w", path, err)
	}
	s := &Store{db: db}
	if err := s.load(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) load() error {
	var snap *snapshot
	err := s.db.View(func(tx *bbolt.Tx) error {
		meta := tx.Bucket(metaBucket)
		if meta == nil {
			return nil // fresh file, nothing published yet
		}
		cur := meta.Get(currentKey)
		if cur == nil {
			return nil
		}
		gens := tx.Bucket(generationsBucket)
		if gens == nil {
			return fmt.Errorf("%w: current generation missing", domain.ErrIndexUnavailable)
		}
		gen := gens.Bucket(cur)
		if gen == nil {
			return fmt.Errorf("%w: current generation missing", domain.ErrIndexUnavailable)
		}
		loaded := &snapshot{}
		c := gen.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var rec record
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("%w: corrupt record: %v", domain.ErrIndexUnavailable, err)
			}
			loaded.chunks = append(loaded.chunks, domain.Chunk{
				SourceID:     rec.SourceID,
				Text:         rec.Text,
				SourceOffset: rec.SourceOffset,
			})
			loaded.vectors = append(loaded.vectors, rec.Vector)
		}
		snap = loaded
		return nil
	})
	if err != nil {
		return err
	}
	if snap != nil {
		s.current.Store(snap)
	}
	return nil
}

// Rebuild embeds every chunk, then publishes them as a new generation in
// one transaction. Embedding failures abort before the file is written.
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

	genID := []byte(uuid.NewString())
	s.rebuildMu.Lock()
	defer s.rebuildMu.Unlock()
	err = s.db.Update(func(tx *bbolt.Tx) error {
		meta, err := tx.CreateBucketIfNotExists(metaBucket)
		if err != nil {
			return err
		}
		gens, err := tx.CreateBucketIfNotExists(generationsBucket)
		if err != nil {
			return err
		}
		gen, err := gens.CreateBucket(genID)
		if err != nil {
			return err
		}
		for i := range chunks {
			data, err := json.Marshal(record{
				SourceID:     chunks[i].SourceID,
				Text:         chunks[i].Text,
				SourceOffset: chunks[i].SourceOffset,
				Vector:       vectors[i],
			})
			if err != nil {
				return err
			}
			key := make([]byte, 8)
			binary.BigEndian.PutUint64(key, uint64(i))
			if err := gen.Put(key, data); err != nil {
				return err
			}
		}
		prev := meta.Get(currentKey)
		if err := meta.Put(currentKey, genID); err != nil {
			return err
		}
		if prev != nil {
			if err := gens.DeleteBucket(prev); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("publish index generation: %w", err)
	}

	s.current.Store(&snapshot{
		chunks:  append([]domain.Chunk(nil), chunks...),
		vectors: vectors,
	})
	return nil
}

// Search ranks the current generation against the query vector.
func (s *Store) Search(vector []float64, k int) ([]domain.SearchResult, error) {
	snap := s.current.Load()
	if snap == nil {
		return nil, domain.ErrIndexUnavailable
	}
	return vectorstore.TopK(vector, snap.chunks, snap.vectors, k), nil
}

// Len reports the number of chunks in the current generation.
func (s *Store) Len() int {
	snap := s.current.Load()
	if snap == nil {
		return 0
	}
	return len(snap.chunks)
}

// Close releases the underlying file.
func (s *Store) Close() error { return s.db.Close() }
