package vectorstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docchat/internal/domain"
)

func TestCosine(t *testing.T) {
	assert.InDelta(t, 1.0, Cosine([]float64{1, 0}, []float64{2, 0}), 1e-9)
	assert.InDelta(t, 0.0, Cosine([]float64{1, 0}, []float64{0, 3}), 1e-9)
	assert.InDelta(t, -1.0, Cosine([]float64{1, 0}, []float64{-1, 0}), 1e-9)
	assert.Equal(t, 0.0, Cosine([]float64{0, 0}, []float64{1, 1}))
}

func TestTopKOrdering(t *testing.T) {
	chunks := []domain.Chunk{
		{SourceID: "a"}, {SourceID: "b"}, {SourceID: "c"},
	}
	vectors := [][]float64{
		{0, 1}, // orthogonal to query
		{1, 0}, // identical direction
		{1, 1}, // in between
	}
	results := TopK([]float64{1, 0}, chunks, vectors, 3)
	require.Len(t, results, 3)
	assert.Equal(t, "b", results[0].Chunk.SourceID)
	assert.Equal(t, "c", results[1].Chunk.SourceID)
	assert.Equal(t, "a", results[2].Chunk.SourceID)
	for i := 0; i+1 < len(results); i++ {
		assert.GreaterOrEqual(t, results[i].Score, results[i+1].Score)
	}
}

func TestTopKTiesKeepInsertionOrder(t *testing.T) {
	chunks := []domain.Chunk{{SourceID: "first"}, {SourceID: "second"}}
	vectors := [][]float64{{2, 0}, {5, 0}} // same direction, same cosine
	results := TopK([]float64{1, 0}, chunks, vectors, 2)
	require.Len(t, results, 2)
	assert.Equal(t, "first", results[0].Chunk.SourceID)
	assert.Equal(t, "second", results[1].Chunk.SourceID)
}

func TestTopKClampsToStoredCount(t *testing.T) {
	chunks := []domain.Chunk{{SourceID: "a"}}
	vectors := [][]float64{{1, 0}}
	assert.Len(t, TopK([]float64{1, 0}, chunks, vectors, 10), 1)
	assert.Empty(t, TopK([]float64{1, 0}, nil, nil, 10))
}
