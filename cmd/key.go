package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/questdeck/questdeck/internal/settings"
)

var (
	keySuccessStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#50FA7B"))
	keyErrorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5555")).Bold(true)
	keyHintStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6272A4")).Italic(true)
)

// keyEnvVar is the bootstrap variable consumed when `key set` is run
// without an argument. It is read once here, after the .env load; the
// request path always goes through the settings store.
const keyEnvVar = "QUESTDECK_API_KEY"

var keyCmd = &cobra.Command{
	Use:   "key",
	Short: "Manage the stored provider API key",
}

var keySetCmd = &cobra.Command{
	Use:   "set [api-key]",
	Short: "Save the provider API key",
	Long: `Save the provider API key to the local settings store.

The key may be passed as an argument or, when omitted, read from the
` + keyEnvVar + ` environment variable (which a .env file in the working
directory can provide).`,
	Args: cobra.MaximumNArgs(1),
	RunE: runKeySet,
}

var keyGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Show whether an API key is stored",
	Args:  cobra.NoArgs,
	RunE:  runKeyGet,
}

func init() {
	keyCmd.AddCommand(keySetCmd)
	keyCmd.AddCommand(keyGetCmd)
	rootCmd.AddCommand(keyCmd)
}

// resolveKey picks the key to store: the argument when given, otherwise the
// bootstrap environment variable. Whitespace-only values count as absent.
func resolveKey(args []string) (string, error) {
	if len(args) > 0 {
		key := strings.TrimSpace(args[0])
		if key == "" {
			return "", errors.New("API key cannot be empty")
		}
		return key, nil
	}

	key := strings.TrimSpace(os.Getenv(keyEnvVar))
	if key == "" {
		return "", fmt.Errorf("no API key given and %s is not set", keyEnvVar)
	}
	return key, nil
}

func runKeySet(cmd *cobra.Command, args []string) error {
	key, err := resolveKey(args)
	if err != nil {
		return fmt.Errorf("%s %w", keyErrorStyle.Render("Error:"), err)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store := settings.NewStore(cfg.DataDir)
	if err := store.Set(key); err != nil {
		return fmt.Errorf("%s %w", keyErrorStyle.Render("Failed to save API key:"), err)
	}

	fmt.Println(keySuccessStyle.Render("API key saved"))
	return nil
}

func runKeyGet(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store := settings.NewStore(cfg.DataDir)
	key := store.Get()
	if key == "" {
		fmt.Println(keyHintStyle.Render("No API key stored"))
		return nil
	}

	fmt.Println(keySuccessStyle.Render("API key stored: " + maskKey(key)))
	return nil
}

// maskKey hides all but the edges of the key so it can be identified without
// exposing the secret in terminal history.
func maskKey(key string) string {
	if len(key) <= 8 {
		return strings.Repeat("*", len(key))
	}
	return key[:4] + strings.Repeat("*", 4) + key[len(key)-4:]
}
