package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/rustream/server/internal/audit"
	"github.com/rustream/server/internal/auth"
	"github.com/rustream/server/internal/banner"
	"github.com/rustream/server/internal/config"
	"github.com/rustream/server/internal/content"
	"github.com/rustream/server/internal/crypto"
	"github.com/rustream/server/internal/logging"
	"github.com/rustream/server/internal/metrics"
	"github.com/rustream/server/internal/ratelimit"
	"github.com/rustream/server/internal/server"
	"github.com/rustream/server/internal/session"
)

var envFile string

func main() {
	root := &cobra.Command{
		Use:   "rustream",
		Short: "RuStream media streaming server",
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", "", "path to a .env file (default: $ENV_FILE or .env)")

	serve := serveCmd()
	root.AddCommand(serve, validateConfigCmd(), createUserDirsCmd())
	root.RunE = serve.RunE

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server (default command)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}
}

func validateConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate-config",
		Short: "Load and validate configuration, then exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load(envFile)
			fmt.Printf("configuration OK: %d user(s), media_source=%s\n", len(cfg.Authorization), cfg.MediaSource)
			return nil
		},
	}
}

func createUserDirsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create-user-dirs",
		Short: "Create missing per-user secure index directories and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load(envFile)
			for username := range cfg.Authorization {
				fmt.Printf("ensured %s\n", config.SecureIndexName(username))
			}
			return nil
		},
	}
}

func runServe() error {
	cfg := config.Load(envFile)

	logger := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stdout)
	slog.SetDefault(logger)

	banner.Print(os.Stdout, cfg)

	redisAddr := os.Getenv("redis_addr")
	var rdb *redis.Client
	if redisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: redisAddr})
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			logger.Warn("redis unreachable, lockout/rate-limit/telemetry degrade to no-ops", slog.String("error", err.Error()))
			rdb = nil
		}
	}

	natsURL := os.Getenv("nats_url")
	var nc *nats.Conn
	if natsURL != "" {
		var err error
		nc, err = nats.Connect(natsURL, nats.Name("rustream"))
		if err != nil {
			logger.Warn("nats unreachable, audit events stay local-only", slog.String("error", err.Error()))
			nc = nil
		}
	}

	cipher, err := crypto.NewSymmetric()
	if err != nil {
		return fmt.Errorf("generating session cipher: %w", err)
	}

	store := session.New()
	telemetry := session.NewTelemetry(redisAddr, "")
	lockout := auth.NewLockout(rdb)
	authn := auth.New(cfg, store, cipher, lockout)

	walker := content.NewWalker(cfg.MediaSource, cfg.FileFormats)
	cache, err := content.NewCache(512, 5*time.Minute)
	if err != nil {
		return fmt.Errorf("building content cache: %w", err)
	}
	watcher, err := content.NewWatcher(cfg.MediaSource, cache)
	if err != nil {
		logger.Warn("content watcher unavailable, cache entries rely on TTL expiry only", slog.String("error", err.Error()))
	} else {
		defer watcher.Close()
	}

	spoolDir := os.Getenv("audit_spool_dir")
	if spoolDir == "" {
		spoolDir = "./audit-spool"
	}
	auditSvc := audit.NewService(spoolDir, 256, nc, "rustream.audit", logger)
	auditSvc.StartReplayer(context.Background(), 30*time.Second)

	metricsC := metrics.NewCollector()
	connLimiter := ratelimit.NewConnectionLimiter(cfg.MaxConnections)
	loginLimiter := ratelimit.NewLimiter(rdb, os.Getenv("rate_limit_salt"))

	srv := server.New(server.Deps{
		Config:       cfg,
		Logger:       logger,
		Authn:        authn,
		Store:        store,
		Telemetry:    telemetry,
		Walker:       walker,
		Cache:        cache,
		Audit:        auditSvc,
		Metrics:      metricsC,
		ConnLimiter:  connLimiter,
		LoginLimiter: loginLimiter,
	})

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger.Info("starting rustream", slog.String("addr", cfg.MediaHost), slog.Int("port", int(cfg.MediaPort)))
	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	logger.Info("rustream stopped")
	return nil
}
