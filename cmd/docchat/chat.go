package main

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"docchat/internal/logger"
	"docchat/internal/tui"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the indexed corpus in the terminal",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		// Console logging would fight the TUI for the terminal, so log
		// only to the file, when one is configured.
		log, err := logger.NewFile(cfg.Logging)
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		svc, closeStore, err := buildService(cmd.Context(), cfg, log)
		if err != nil {
			return err
		}
		defer func() { _ = closeStore() }()

		_, err = tea.NewProgram(tui.New(svc), tea.WithAltScreen()).Run()
		return err
	},
}
