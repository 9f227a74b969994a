package handlers

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"arxivreco/internal/logger"
	"arxivreco/internal/server"
)

// NewServeCmd creates the serve command for the published site and archive API
func NewServeCmd() *cobra.Command {
	var (
		port int
		host string
		dir  string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the published page and the digest archive over HTTP",
		Long: `Start a local web server over the output directory.

The server provides:
  • the published index.html and data/*.json files
  • GET /api/digests, /api/digests/latest and /api/digests/{date}
  • GET /health

Examples:
  # Start server on default port 8080
  arxivreco serve

  # Start on custom port
  arxivreco serve --port 3000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), port, host, dir)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "HTTP server port (default from config: 8080)")
	cmd.Flags().StringVar(&host, "host", "", "HTTP server host (default from config: localhost)")
	cmd.Flags().StringVar(&dir, "dir", "", "directory to serve (default from config: docs)")

	return cmd
}

func runServe(ctx context.Context, port int, host, dir string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Override server config from flags if provided
	serverCfg := server.Config{
		Host:      cfg.Server.Host,
		Port:      cfg.Server.Port,
		OutputDir: cfg.Output.Directory,
	}
	if port != 0 {
		serverCfg.Port = port
	}
	if host != "" {
		serverCfg.Host = host
	}
	if dir != "" {
		serverCfg.OutputDir = dir
	}

	srv := server.New(serverCfg)

	// Channel to listen for errors coming from the server
	serverErrors := make(chan error, 1)

	go func() {
		logger.Info(fmt.Sprintf("Server listening on http://%s:%d", serverCfg.Host, serverCfg.Port))
		logger.Info("Press Ctrl+C to stop")
		serverErrors <- srv.Start()
	}()

	// Channel to listen for interrupt signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	// Block until we receive our signal or an error from server
	select {
	case err := <-serverErrors:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil

	case sig := <-shutdown:
		logger.Info("Server shutdown initiated", "signal", sig.String())

	case <-ctx.Done():
		logger.Info("Server shutdown initiated", "reason", ctx.Err().Error())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", err)
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}
