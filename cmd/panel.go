package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/questdeck/questdeck/internal/plugin"
	"github.com/questdeck/questdeck/internal/ui"
)

var panelCmd = &cobra.Command{
	Use:   "panel",
	Short: "Open the quest helper panel",
	Long: `Open the interactive quest helper panel.

The panel lets you save your provider API key and request quest guidance for
the game in your latest Steam screenshot. Only one request runs at a time;
the help action is disabled while a request is in flight.`,
	Args: cobra.NoArgs,
	RunE: runPanel,
}

func init() {
	rootCmd.AddCommand(panelCmd)
}

func runPanel(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Panel output owns the terminal, so plugin logs go to a file.
	logger, closeLog, err := fileLogger(filepath.Join(cfg.DataDir, "questdeck.log"))
	if err != nil {
		return err
	}
	defer closeLog()

	p := plugin.New(cfg, logger)
	if err := p.Start(context.Background()); err != nil {
		return fmt.Errorf("failed to start plugin backend: %w", err)
	}
	defer p.Stop()

	program := tea.NewProgram(ui.NewModel(p), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("panel exited with error: %w", err)
	}
	return nil
}

func fileLogger(path string) (*log.Logger, func(), error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, nil, fmt.Errorf("creating log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}
	return log.New(f, "", log.LstdFlags), func() { f.Close() }, nil
}
