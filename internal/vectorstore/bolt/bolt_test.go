package bolt

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.etcd.io/bbolt"

	"docchat/internal/domain"
)

type stubEmbedder struct {
	vectors map[string][]float64
	err     error
}

func (s *stubEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.vectors[text], nil
}

func (s *stubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([][]float64, len(texts))
	for i, t := range texts {
		out[i] = s.vectors[t]
	}
	return out, nil
}

func (s *stubEmbedder) Dimension() int { return 2 }

func tempStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "index.db")
	store, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store, path
}

func TestSearchBeforeFirstRebuildIsUnavailable(t *testing.T) {
	store, _ := tempStore(t)
	_, err := store.Search([]float64{1, 0}, 3)
	assert.ErrorIs(t, err, domain.ErrIndexUnavailable)
}

func TestRebuildSearchAndReopen(t *testing.T) {
	store, path := tempStore(t)
	emb := &stubEmbedder{vectors: map[string][]float64{
		"alpha": {1, 0},
		"beta":  {0, 1},
	}}
	chunks := []domain.Chunk{
		{SourceID: "a.md", Text: "alpha", SourceOffset: 0},
		{SourceID: "b.md", Text: "beta", SourceOffset: 42},
	}
	require.NoError(t, store.Rebuild(context.Background(), chunks, emb))

	results, err := store.Search([]float64{1, 0}, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "a.md", results[0].Chunk.SourceID)
	require.NoError(t, store.Close())

	// A fresh open must serve the persisted generation.
	reopened, err := Open(path)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()
	assert.Equal(t, 2, reopened.Len())
	results, err = reopened.Search([]float64{0, 1}, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "beta", results[0].Chunk.Text)
	assert.Equal(t, 42, results[0].Chunk.SourceOffset)
}

func TestRebuildReplacesWholesale(t *testing.T) {
	store, path := tempStore(t)
	emb := &stubEmbedder{vectors: map[string][]float64{
		"old-1": {1, 0}, "old-2": {1, 0}, "new-1": {1, 0},
	}}
	require.NoError(t, store.Rebuild(context.Background(), []domain.Chunk{
		{Text: "old-1"}, {Text: "old-2"},
	}, emb))
	require.NoError(t, store.Rebuild(context.Background(), []domain.Chunk{
		{Text: "new-1"},
	}, emb))

	results, err := store.Search([]float64{1, 0}, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "new-1", results[0].Chunk.Text)
	require.NoError(t, store.Close())

	// The old generation is gone from disk as well.
	reopened, err := Open(path)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()
	assert.Equal(t, 1, reopened.Len())
}

func TestFailedRebuildKeepsPreviousGeneration(t *testing.T) {
	store, _ := tempStore(t)
	good := &stubEmbedder{vectors: map[string][]float64{"keep": {1, 0}}}
	require.NoError(t, store.Rebuild(context.Background(), []domain.Chunk{{Text: "keep"}}, good))

	bad := &stubEmbedder{err: errors.New("rate limited")}
	require.Error(t, store.Rebuild(context.Background(), []domain.Chunk{{Text: "drop"}}, bad))

	results, err := store.Search([]float64{1, 0}, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "keep", results[0].Chunk.Text)
}

func TestConcurrentRebuildsLeaveSnapshotMatchingDisk(t *testing.T) {
	store, path := tempStore(t)
	vectors := map[string][]float64{}
	var sets [][]domain.Chunk
	for size := 1; size <= 6; size++ {
		var set []domain.Chunk
		for i := 0; i < size; i++ {
			text := fmt.Sprintf("chunk-%d-%d", size, i)
			vectors[text] = []float64{1, 0}
			set = append(set, domain.Chunk{Text: text})
		}
		sets = append(sets, set)
	}
	emb := &stubEmbedder{vectors: vectors}

	var wg sync.WaitGroup
	for _, set := range sets {
		wg.Add(1)
		go func(chunks []domain.Chunk) {
			defer wg.Done()
			assert.NoError(t, store.Rebuild(context.Background(), chunks, emb))
		}(set)
	}
	wg.Wait()

	// Whatever generation won, the served snapshot must be the one on
	// disk, not a loser's leftover swap.
	served := store.Len()
	require.NoError(t, store.Close())
	reopened, err := Open(path)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()
	assert.Equal(t, reopened.Len(), served)
}

func TestOpenCorruptRecordIsUnavailable(t *testing.T) {
	store, path := tempStore(t)
	emb := &stubEmbedder{vectors: map[string][]float64{"alpha": {1, 0}}}
	require.NoError(t, store.Rebuild(context.Background(), []domain.Chunk{{Text: "alpha"}}, emb))
	require.NoError(t, store.Close())

	db, err := bbolt.Open(path, 0o600, nil)
	require.NoError(t, err)
	require.NoError(t, db.Update(func(tx *bbolt.Tx) error {
		cur := tx.Bucket(metaBucket).Get(currentKey)
		gen := tx.Bucket(generationsBucket).Bucket(cur)
		k, _ := gen.Cursor().First()
		return gen.Put(k, []byte("{not json"))
	}))
	require.NoError(t, db.Close())

	_, err = Open(path)
	assert.ErrorIs(t, err, domain.ErrIndexUnavailable)
}

func TestOpenDanglingCurrentPointerIsUnavailable(t *testing.T) {
	store, path := tempStore(t)
	emb := &stubEmbedder{vectors: map[string][]float64{"alpha": {1, 0}}}
	require.NoError(t, store.Rebuild(context.Background(), []domain.Chunk{{Text: "alpha"}}, emb))
	require.NoError(t, store.Close())

	db, err := bbolt.Open(path, 0o600, nil)
	require.NoError(t, err)
	require.NoError(t, db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(metaBucket).Put(currentKey, []byte("no-such-generation"))
	}))
	require.NoError(t, db.Close())

	_, err = Open(path)
	assert.ErrorIs(t, err, domain.ErrIndexUnavailable)
}

func TestRebuildEmptyCorpusYieldsEmptyResults(t *testing.T) {
	store, _ := tempStore(t)
	require.NoError(t, store.Rebuild(context.Background(), nil, &stubEmbedder{}))
	results, err := store.Search([]float64{1, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}
