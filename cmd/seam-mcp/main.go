// Package main is the entry point for the seam-mcp service.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/aaronjoyvictor/seam-mcp/api"
	mcpauth "github.com/aaronjoyvictor/seam-mcp/internal/auth"
	"github.com/aaronjoyvictor/seam-mcp/internal/config"
	"github.com/aaronjoyvictor/seam-mcp/internal/events"
	"github.com/aaronjoyvictor/seam-mcp/internal/metrics"
	"github.com/aaronjoyvictor/seam-mcp/internal/policy"
	"github.com/aaronjoyvictor/seam-mcp/internal/seam"
	"github.com/aaronjoyvictor/seam-mcp/internal/server"
	"github.com/aaronjoyvictor/seam-mcp/internal/telemetry"
	"github.com/aaronjoyvictor/seam-mcp/internal/tools"
)

const serviceName = "seam-mcp"

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

var (
	envFile       string
	transportFlag string
)

var rootCmd = &cobra.Command{
	Use:          serviceName,
	Short:        "MCP server that locks and unlocks a Seam-connected door",
	Version:      version,
	SilenceUsage: true,
	RunE:         runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the lock_door and unlock_door tools (default)",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

var lockCmd = &cobra.Command{
	Use:   "lock",
	Short: "Lock the configured door once and exit",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runAction(cmd, seam.ActionLock)
	},
}

var unlockCmd = &cobra.Command{
	Use:   "unlock",
	Short: "Unlock the configured door once and exit",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runAction(cmd, seam.ActionUnlock)
	},
}

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "Print the MCP tool contract",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		_, err := cmd.OutOrStdout().Write(api.ToolsContract)
		return err
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	rootCmd.Flags().StringVar(&transportFlag, "transport", "", "override SEAM_MCP_TRANSPORT (http|stdio)")
	serveCmd.Flags().StringVar(&transportFlag, "transport", "", "override SEAM_MCP_TRANSPORT (http|stdio)")

	rootCmd.AddCommand(serveCmd, lockCmd, unlockCmd, toolsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func bootstrap() (config.Config, zerolog.Logger, error) {
	if err := config.LoadDotEnv(envFile); err != nil {
		return config.Config{}, zerolog.Nop(), err
	}
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, zerolog.Nop(), fmt.Errorf("loading config: %w", err)
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs
	log.Logger = zerolog.New(os.Stderr).With().Timestamp().Str("service", serviceName).Str("version", version).Logger()

	return cfg, log.Logger, nil
}

func newGateway(cfg config.Config, logger zerolog.Logger) (*seam.Gateway, seam.Config) {
	seamCfg := seam.ResolveConfig(os.Getenv, logger)
	return seam.NewGateway(seamCfg, seam.GatewayOptions{
		BaseURL: cfg.SeamAPIURL,
		Logger:  logger,
	}), seamCfg
}

func runAction(cmd *cobra.Command, action seam.Action) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gateway, _ := newGateway(cfg, logger)
	message, err := gateway.Perform(ctx, action)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), message)
	return err
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, rootLogger, err := bootstrap()
	if err != nil {
		return err
	}
	if t := strings.ToLower(strings.TrimSpace(transportFlag)); t != "" {
		if t != config.TransportHTTP && t != config.TransportStdio {
			return fmt.Errorf("invalid --transport %q (allowed: %s|%s)", t, config.TransportStdio, config.TransportHTTP)
		}
		cfg.Transport = t
	}

	logger := rootLogger.With().Str("component", "main").Logger()
	logger.Info().Str("transport", cfg.Transport).Msg("starting seam-mcp")

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: version,
		TracesEnabled:  cfg.TracesEnabled,
	})
	if err != nil {
		return fmt.Errorf("initializing OpenTelemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := shutdownTelemetry(shutdownCtx); shutdownErr != nil {
			logger.Error().Err(shutdownErr).Msg("failed to shut down OpenTelemetry")
		}
	}()

	gateway, seamCfg := newGateway(cfg, rootLogger)

	var recorder *metrics.Recorder
	if cfg.MetricsEnabled {
		recorder = metrics.New()
	}

	var publisher events.Publisher
	if cfg.NATSURL != "" {
		natsPublisher, natsErr := events.NewNATSPublisher(events.NATSConfig{
			URL:     cfg.NATSURL,
			Subject: cfg.NATSSubject,
			Name:    serviceName,
		}, rootLogger)
		if natsErr != nil {
			return fmt.Errorf("initializing event publisher: %w", natsErr)
		}
		defer func() {
			if closeErr := natsPublisher.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close event publisher")
			}
		}()
		publisher = natsPublisher
		logger.Info().Str("subject", cfg.NATSSubject).Msg("publishing lock action events to NATS")
	}

	runner := tools.NewRunner(gateway, tools.Options{
		Metrics: recorder,
		Events:  publisher,
		Logger:  rootLogger,
	})

	registry, err := server.NewToolRegistry(api.ToolsContract)
	if err != nil {
		return fmt.Errorf("parsing MCP tool contract: %w", err)
	}
	if cfg.ConfirmUnlock {
		if err := registry.RequireConfirmation(tools.ToolUnlockDoor); err != nil {
			return err
		}
	}
	modeGuard, err := policy.NewGuard(cfg.Mode)
	if err != nil {
		return fmt.Errorf("invalid mode configuration: %w", err)
	}
	logger.Info().Str("mode", modeGuard.Mode()).Bool("confirm_unlock", cfg.ConfirmUnlock).Msg("execution policy initialized")

	switch cfg.Transport {
	case config.TransportStdio:
		if runErr := server.RunStdio(ctx, os.Stdin, os.Stdout, registry, modeGuard, runner, version, rootLogger); runErr != nil && !errors.Is(runErr, context.Canceled) {
			return fmt.Errorf("stdio runtime stopped: %w", runErr)
		}
		logger.Info().Msg("stdio runtime stopped")
		return nil

	case config.TransportHTTP:
		resolvedToken, err := mcpauth.ResolveToken(mcpauth.TokenSourceOptions{
			AllowCLIConfigToken: cfg.AllowCLIConfigToken,
			CLIConfigPath:       cfg.CLIConfigPath,
		})
		if err != nil {
			return fmt.Errorf("resolving session token: %w", err)
		}
		var authn server.SessionAuthenticator
		if resolvedToken.Token == "" {
			logger.Warn().Msgf("no session token configured; set %s to require bearer auth on tool calls", mcpauth.EnvSessionToken)
		} else {
			authn = server.NewTokenSessionAuthenticator(resolvedToken.Token)
			logger.Info().Str("token_source", string(resolvedToken.Source)).Msg("session authentication enabled")
		}

		httpServer := server.NewHTTPServer(server.HTTPOptions{
			Version:   version,
			Commit:    commit,
			BuildDate: buildDate,
			Contract:  api.ToolsContract,
			Ready:     readinessCheck(seamCfg),
			Metrics:   recorder,
			Authn:     authn,
		}, registry, modeGuard, runner, rootLogger)
		return serveHTTP(ctx, cfg.ListenAddr, httpServer.Handler(), logger)

	default:
		return fmt.Errorf("unsupported transport %q", cfg.Transport)
	}
}

func readinessCheck(cfg seam.Config) func() error {
	return func() error {
		if missing := cfg.Missing(); len(missing) > 0 {
			return fmt.Errorf("missing configuration: %s", strings.Join(missing, ", "))
		}
		return nil
	}
}

func serveHTTP(ctx context.Context, addr string, handler http.Handler, logger zerolog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      0, // SSE responses stream until the tool call completes.
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Msg("HTTP server listening")
		if serveErr := srv.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			errCh <- serveErr
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info().Msg("received shutdown signal")
	case serveErr := <-errCh:
		return fmt.Errorf("HTTP server error: %w", serveErr)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTP server shutdown: %w", err)
	}
	logger.Info().Msg("server stopped gracefully")
	return nil
}
