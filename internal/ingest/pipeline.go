// Package ingest rebuilds the vector index from a directory of documents.
package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"docchat/internal/chunker"
	"docchat/internal/domain"
)

// ChunkConfig carries the splitting parameters for one ingestion run.
type ChunkConfig struct {
	MaxChunkSize int
	OverlapSize  int
}

// Pipeline loads documents, chunks them and replaces the index in a single
// rebuild. The run is all-or-nothing: any failure leaves the previously
// published index untouched.
type Pipeline struct {
	embedder domain.Embedder
	store    domain.VectorStore
	log      *zap.Logger
}

func New(embedder domain.Embedder, store domain.VectorStore, log *zap.Logger) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	return &Pipeline{embedder: embedder, store: store, log: log}
}

// Run ingests every file under sourceDir matching pattern and returns the
// number of chunks written. Configuration is validated before any file IO.
func (p *Pipeline) Run(ctx context.Context, sourceDir, pattern string, cfg ChunkConfig) (int, error) {
	splitter, err := chunker.New(cfg.MaxChunkSize, cfg.OverlapSize)
	if err != nil {
		return 0, err
	}
	if pattern == "" {
		pattern = "*.md"
	}
	// A missing directory must not pass as an empty corpus: a rebuild
	// from zero matches would silently wipe the published index.
	info, err := os.Stat(sourceDir)
	if err != nil {
		return 0, domain.NewConfigError("ingest.source_dir", "cannot read "+sourceDir+": "+err.Error())
	}
	if !info.IsDir() {
		return 0, domain.NewConfigError("ingest.source_dir", sourceDir+" is not a directory")
	}
	matches, err := filepath.Glob(filepath.Join(sourceDir, pattern))
	if err != nil {
		return 0, domain.NewConfigError("ingest.pattern", err.Error())
	}

	var chunks []domain.Chunk
	docs := 0
	for _, path := range matches {
		info, err := os.Stat(path)
		if err != nil {
			return 0, fmt.Errorf("stat %s: %w", path, err)
		}
		if info.IsDir() {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return 0, fmt.Errorf("read %s: %w", path, err)
		}
		doc := domain.Document{ID: path, Path: path, Content: string(data)}
		docChunks := splitter.Split(doc)
		chunks = append(chunks, docChunks...)
		docs++
		p.log.Debug("chunked document",
			zap.String("path", path),
			zap.Int("chunks", len(docChunks)))
	}

	if err := p.store.Rebuild(ctx, chunks, p.embedder); err != nil {
		return 0, err
	}
	p.log.Info("index rebuilt",
		zap.Int("documents", docs),
		zap.Int("chunks", len(chunks)))
	return len(chunks), nil
}
