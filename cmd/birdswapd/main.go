package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"birdswap/config"
	"birdswap/core"
	"birdswap/core/events"
	"birdswap/observability/logging"
	telemetry "birdswap/observability/otel"
	"birdswap/rpc"
	"birdswap/storage"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	allowMigrateFlag := flag.Bool("allow-migrate", false, "Upgrade older on-disk state to the newest schema at startup")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	env := strings.TrimSpace(os.Getenv("BIRDSWAP_ENV"))
	if env == "" {
		env = cfg.Logging.Env
	}
	logger, logCloser := logging.SetupWithOptions("birdswapd", env, logging.Options{
		File:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		Level:      cfg.Logging.Level,
	})
	defer logCloser.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, env, *allowMigrateFlag, logger); err != nil {
		logger.Error("birdswapd exited", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, env string, allowMigrate bool, logger *slog.Logger) error {
	shutdownTelemetry, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName: "birdswapd",
		Environment: env,
		Endpoint:    cfg.Telemetry.Endpoint,
		Insecure:    cfg.Telemetry.Insecure,
		Traces:      cfg.Telemetry.Traces,
		Metrics:     cfg.Telemetry.Metrics,
	})
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTelemetry(flushCtx); err != nil {
			logger.Warn("telemetry shutdown failed", slog.Any("error", err))
		}
	}()

	node, err := openNode(cfg, allowMigrate, logger)
	if err != nil {
		return err
	}
	defer node.Close()

	server := rpc.NewServer(node, rpc.Config{
		AuthToken:         cfg.RPC.AuthToken,
		RequestsPerMinute: cfg.RPC.RequestsPerMinute,
		Burst:             cfg.RPC.Burst,
		TrustProxyHeaders: cfg.RPC.TrustProxyHeaders,
		Logger:            logger,
	})
	httpServer := &http.Server{
		Addr:              cfg.RPC.ListenAddress,
		Handler:           otelhttp.NewHandler(server.Handler(), "birdswapd"),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       time.Duration(cfg.RPC.ReadTimeoutSecs) * time.Second,
		WriteTimeout:      time.Duration(cfg.RPC.WriteTimeoutSecs) * time.Second,
	}
	if cfg.RPC.AuthToken == "" {
		logger.Warn("RPC auth token not configured; write methods are disabled")
	}
	logger.Info("configuration loaded",
		slog.String("backend", cfg.Storage.Backend),
		slog.String("owner", cfg.Marketplace.Owner),
		logging.MaskField("authToken", cfg.RPC.AuthToken))

	serveErr := make(chan error, 1)
	go func() {
		addrs := node.Addresses()
		logger.Info("JSON-RPC listening",
			slog.String("listen", cfg.RPC.ListenAddress),
			slog.String("marketplace", addrs.Marketplace.Hex()),
			slog.String("moonbirds", addrs.Moonbirds.Hex()))
		serveErr <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve rpc: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

// openNode opens the configured database and the node on top of it.
func openNode(cfg *config.Config, allowMigrate bool, logger *slog.Logger) (*core.Node, error) {
	db, err := storage.Open(cfg.Storage.Backend, cfg.Storage.DataDir)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", cfg.Storage.Backend, err)
	}
	m := cfg.Marketplace
	node, err := core.NewNode(db, core.Options{
		Owner:                config.Address(m.Owner),
		FeePayoutAddress:     config.Address(m.FeePayoutAddress),
		FeeBps:               m.FeeBps,
		AlternateCurrency:    config.Address(m.AlternateCurrency),
		RoyaltyReceiver:      config.Address(m.RoyaltyReceiver),
		RoyaltyBps:           m.RoyaltyBps,
		RequireNestedDeposit: m.RequireNestedDeposit,
		AllowMigrate:         allowMigrate || cfg.AllowMigrate,
		Pauses:               cfg.Pauses.PauseView(),
		Logger:               logger,
		Emitter:              logEmitter{logger: logger.With("component", "events")},
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("open node: %w", err)
	}
	return node, nil
}

// logEmitter writes every committed event to the log.
type logEmitter struct {
	logger *slog.Logger
}

func (l logEmitter) Emit(evt events.Event) {
	rendered := events.Render(evt)
	if rendered == nil {
		return
	}
	attrs := make([]any, 0, len(rendered.Attributes)+1)
	attrs = append(attrs, slog.String("type", rendered.Type))
	for k, v := range rendered.Attributes {
		attrs = append(attrs, slog.String(k, v))
	}
	l.logger.Info("event", attrs...)
}
