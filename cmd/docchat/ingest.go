package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"docchat/internal/domain"
	"docchat/internal/ingest"
	"docchat/internal/logger"
	"docchat/internal/vectorstore/bolt"
)

var ingestPattern string

var ingestCmd = &cobra.Command{
	Use:   "ingest [source-dir]",
	Short: "Rebuild the vector index from a document directory",
	Long: `Loads every document matching the glob pattern, splits it into
overlapping chunks, embeds them and replaces the persisted index wholesale.
The previous index contents are gone after a successful run.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.Index.Type != "bolt" {
			return domain.NewConfigError("index.type",
				"the memory backend has nothing to persist; serve and chat ingest at startup instead")
		}
		log, err := logger.New(cfg.Logging)
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		// Credentials are checked here, before any file is touched.
		emb, err := newEmbedder(cfg)
		if err != nil {
			return err
		}
		store, err := bolt.Open(cfg.Index.Path)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		dir := cfg.Ingest.SourceDir
		if len(args) == 1 {
			dir = args[0]
		}
		pattern := cfg.Ingest.Pattern
		if ingestPattern != "" {
			pattern = ingestPattern
		}

		count, err := ingest.New(emb, store, log).Run(cmd.Context(), dir, pattern, ingest.ChunkConfig{
			MaxChunkSize: cfg.Chunker.MaxChunkSize,
			OverlapSize:  cfg.Chunker.OverlapSize,
		})
		if err != nil {
			return err
		}
		fmt.Printf("Saved %d chunks to %s.\n", count, cfg.Index.Path)
		return nil
	},
}

func init() {
	ingestCmd.Flags().StringVar(&ingestPattern, "pattern", "", "glob pattern for source files (overrides config)")
}
