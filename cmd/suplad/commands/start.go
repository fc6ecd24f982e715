package commands

import (
	"context"
	"crypto/tls"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/supla-lite/suplad/internal/logger"
	"github.com/supla-lite/suplad/pkg/api"
	"github.com/supla-lite/suplad/pkg/config"
	"github.com/supla-lite/suplad/pkg/metrics"
	"github.com/supla-lite/suplad/pkg/server"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the SUPLA server",
	Long: `Start the SUPLA protocol server and the HTTP API with the specified
configuration.

Use --config to specify a custom configuration file, or it will use the
default location at $XDG_CONFIG_HOME/suplad/config.yaml.

Examples:
  # Start with default config location
  suplad start

  # Start with custom config file
  suplad start --config /etc/suplad/config.yaml

  # Start with environment variable overrides
  SUPLAD_LOGGING_LEVEL=DEBUG suplad start`,
	RunE: runStart,
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := config.MustLoad(configFile)
	if err != nil {
		return err
	}

	if err := logger.Init(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
		logger.Info("metrics enabled")
	}

	st, err := cfg.BuildState()
	if err != nil {
		return fmt.Errorf("failed to build world state: %w", err)
	}
	logger.Info("world configured",
		"devices", len(cfg.Devices),
		"channels", st.ChannelCount(),
		"scenes", st.SceneCount(),
	)

	opts := cfg.Server.ServerOptions()
	if cfg.Server.CertFile != "" && cfg.Server.KeyFile != "" {
		cert, err := tls.LoadX509KeyPair(cfg.Server.CertFile, cfg.Server.KeyFile)
		if err != nil {
			return fmt.Errorf("failed to load TLS certificate: %w", err)
		}
		opts.TLSConfig = &tls.Config{Certificates: []tls.Certificate{cert}}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv := server.New(st, opts)
	if err := srv.Start(ctx); err != nil {
		return err
	}
	defer srv.Stop()

	// The API server blocks in Start, run it alongside the protocol
	// server and surface its failure the same way as a signal.
	apiDone := make(chan error, 1)
	if cfg.API.IsEnabled() {
		apiServer := api.NewServer(cfg.API, st)
		go func() {
			apiDone <- apiServer.Start(ctx)
		}()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	logger.Info("server is running, press Ctrl+C to stop")

	select {
	case sig := <-sigChan:
		logger.Info("shutdown signal received", "signal", sig.String())
		cancel()
		if cfg.API.IsEnabled() {
			<-apiDone
		}
	case err := <-apiDone:
		cancel()
		if err != nil {
			return err
		}
	}

	return nil
}
