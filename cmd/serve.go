package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/questdeck/questdeck/internal/plugin"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the plugin backend bridge",
	Long: `Run the plugin backend alone, exposing its operations over the local
HTTP bridge:

  POST /plugin/request_quest_help
  POST /plugin/set_api_key
  POST /plugin/get_api_key
  POST /plugin/recent_requests
  GET  /health

The bridge binds to loopback only and stops on SIGINT/SIGTERM.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger := log.New(os.Stderr, "", log.LstdFlags)

	p := plugin.New(cfg, logger)
	if err := p.Start(context.Background()); err != nil {
		return fmt.Errorf("failed to start plugin backend: %w", err)
	}
	defer p.Stop()

	server := plugin.NewServer(p, cfg.BridgeAddr, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		logger.Printf("received %s, shutting down", sig)
		return server.Shutdown(context.Background())
	}
}
