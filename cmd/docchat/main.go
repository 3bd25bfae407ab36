package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"docchat/internal/config"
	"docchat/internal/domain"
	"docchat/internal/embedding"
	"docchat/internal/engine"
	"docchat/internal/ingest"
	"docchat/internal/llm"
	"docchat/internal/retriever"
	"docchat/internal/service"
	"docchat/internal/vectorstore/bolt"
	"docchat/internal/vectorstore/memory"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:           "docchat",
	Short:         "Retrieval-augmented question answering over a document corpus",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "",
		"path to YAML config (default ./config.yaml, then ~/.config/docchat/config.yaml)")
	rootCmd.AddCommand(ingestCmd, serveCmd, chatCmd)
}

func main() {
	_ = godotenv.Load()
	if err := rootCmd.Execute(); err != nil {
		rootCmd.PrintErrln("Error:", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.AppConfig, error) {
	if cfgPath != "" {
		return config.Load(cfgPath)
	}
	cfg, _, err := config.LoadDefault()
	return cfg, err
}

func newEmbedder(cfg *config.AppConfig) (domain.Embedder, error) {
	return embedding.NewOpenAI(embedding.OpenAIConfig{
		BaseURL:   cfg.Embedder.BaseURL,
		APIKeyEnv: cfg.Embedder.APIKeyEnv,
		Model:     cfg.Embedder.Model,
		BatchSize: cfg.Embedder.BatchSize,
	})
}

// openStore builds the configured vector store. The memory backend has no
// persisted index, so the corpus is ingested on the spot before use.
func openStore(ctx context.Context, cfg *config.AppConfig, emb domain.Embedder, log *zap.Logger) (domain.VectorStore, func() error, error) {
	switch cfg.Index.Type {
	case "memory":
		store := memory.New()
		pipeline := ingest.New(emb, store, log)
		if _, err := pipeline.Run(ctx, cfg.Ingest.SourceDir, cfg.Ingest.Pattern, ingest.ChunkConfig{
			MaxChunkSize: cfg.Chunker.MaxChunkSize,
			OverlapSize:  cfg.Chunker.OverlapSize,
		}); err != nil {
			return nil, nil, err
		}
		return store, func() error { return nil }, nil
	default:
		store, err := bolt.Open(cfg.Index.Path)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	}
}

// buildService assembles the full query path from the config.
func buildService(ctx context.Context, cfg *config.AppConfig, log *zap.Logger) (service.Service, func() error, error) {
	emb, err := newEmbedder(cfg)
	if err != nil {
		return nil, nil, err
	}
	model, err := llm.NewOpenAI(llm.OpenAIConfig{
		BaseURL:   cfg.LLM.BaseURL,
		APIKeyEnv: cfg.LLM.APIKeyEnv,
		Model:     cfg.LLM.Model,
	})
	if err != nil {
		return nil, nil, err
	}
	store, closeStore, err := openStore(ctx, cfg, emb, log)
	if err != nil {
		return nil, nil, err
	}
	r := retriever.New(emb, store, cfg.Retrieval.TopK, cfg.Retrieval.RelevanceThreshold)
	e := engine.New(model, cfg.LLM.Persona)
	return service.NewChatService(r, e, log), closeStore, nil
}
