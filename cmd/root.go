package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/questdeck/questdeck/internal/config"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "questdeck",
	Short: "QuestDeck - AI quest help for the Steam Deck",
	Long: `QuestDeck relays quest help requests to an AI provider and shows the
guidance in a panel.

It reads your latest Steam screenshot, asks the provider what to do next in
the game, and displays the answer. The provider API key is stored locally
and can be managed with the key subcommands.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config.toml (default: data dir)")
}

// loadConfig resolves the active configuration for a command run.
func loadConfig() (config.Config, error) {
	path := configPath
	if path == "" {
		path = config.DefaultPath()
	}
	return config.Load(path)
}

// Execute runs the root command
func Execute() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
