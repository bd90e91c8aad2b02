package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	sqliteadapter "github.com/atvirokodosprendimai/catalog/internal/adapters/db/sqlite"
	httpadapter "github.com/atvirokodosprendimai/catalog/internal/adapters/http"
	"github.com/atvirokodosprendimai/catalog/internal/adapters/redisguard"
	rpcadapter "github.com/atvirokodosprendimai/catalog/internal/adapters/rpcjson"
	"github.com/atvirokodosprendimai/catalog/internal/application"
	"github.com/atvirokodosprendimai/catalog/internal/config"
	"github.com/atvirokodosprendimai/catalog/internal/domain"
	"github.com/atvirokodosprendimai/catalog/internal/seed"
)

func main() {
	args := os.Args
	if len(args) == 1 {
		args = append(args, "--help")
	}

	root := &cli.Command{
		Name:  "catalog",
		Usage: "Bot and project catalog server and CLI",
		Commands: []*cli.Command{
			serverCommand(),
			itemsCommand(),
			reviewsCommand(),
			statsCommand(),
			adminCommand(),
			seedCommand(),
			configCommand(),
		},
	}

	if err := root.Run(context.Background(), args); err != nil {
		log.Print(err)
		os.Exit(exitCodeFor(err))
	}
}

func newLogger(debug bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if debug {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}

func serverCommand() *cli.Command {
	return &cli.Command{
		Name:  "server",
		Usage: "Run HTTP server and JSON-RPC socket",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "env-file", Value: ".env", Usage: "dotenv file to load before the environment"},
			&cli.StringFlag{Name: "addr", Usage: "HTTP listen address (CATALOG_ADDR)"},
			&cli.StringFlag{Name: "rpc-socket", Usage: "JSON-RPC unix socket path (CATALOG_RPC_SOCKET)"},
			&cli.StringFlag{Name: "db-path", Usage: "SQLite database path (CATALOG_DB_PATH)"},
			&cli.StringFlag{Name: "variant", Usage: "catalog variant: bots or projects (CATALOG_VARIANT)"},
			&cli.StringFlag{Name: "redis-url", Usage: "redis:// URL for the idempotency guard (CATALOG_REDIS_URL)"},
			&cli.BoolFlag{Name: "debug", Usage: "debug logging"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, err := config.Load(c.String("env-file"))
			if err != nil {
				return err
			}
			overrideConfig(cfg, c)
			logger, err := newLogger(cfg.Debug)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()
			return runServer(ctx, cfg, logger)
		},
	}
}

func overrideConfig(cfg *config.Config, c *cli.Command) {
	if v := c.String("addr"); v != "" {
		cfg.Addr = v
	}
	if v := c.String("rpc-socket"); v != "" {
		cfg.RPCSocket = v
	}
	if v := c.String("db-path"); v != "" {
		cfg.DBPath = v
	}
	if v := c.String("variant"); v != "" {
		cfg.Variant = v
	}
	if v := c.String("redis-url"); v != "" {
		cfg.RedisURL = v
	}
	if c.Bool("debug") {
		cfg.Debug = true
	}
}

type closer func() error

// openDB is swapped in tests to observe the connection lifecycle.
var openDB = sqliteadapter.Open

func closeAll(closers []closer) {
	for i := len(closers) - 1; i >= 0; i-- {
		_ = closers[i]()
	}
}

// buildService loads the persisted snapshot (or seeds a fresh one) and wires
// the store, its subscribers and the idempotency guard. The returned closers
// run in reverse order on shutdown; on error everything opened so far is
// already closed.
func buildService(ctx context.Context, cfg *config.Config, reg prometheus.Registerer, logger *zap.Logger) (_ *application.CatalogService, _ []closer, err error) {
	variant, err := seed.Lookup(cfg.Variant)
	if err != nil {
		return nil, nil, err
	}
	policy := variant.Policy
	policy.StrictTransitions = cfg.StrictModeration

	db, err := openDB(cfg.DBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open db: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, fmt.Errorf("db handle: %w", err)
	}
	closers := []closer{sqlDB.Close}
	defer func() {
		if err != nil {
			closeAll(closers)
		}
	}()

	if err := sqliteadapter.RunMigrations(ctx, db); err != nil {
		return nil, nil, err
	}
	if version, err := sqliteadapter.MigrationStatus(db); err == nil {
		logger.Info("schema ready", zap.Int64("version", version), zap.String("db", cfg.DBPath))
	}

	repo := sqliteadapter.NewCatalogRepository(db)
	initial, found, err := repo.LoadSnapshot(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load snapshot: %w", err)
	}
	if !found {
		if initial, err = variant.Snapshot(); err != nil {
			return nil, nil, err
		}
		if err := repo.SaveSnapshot(ctx, initial); err != nil {
			return nil, nil, fmt.Errorf("save seed: %w", err)
		}
		logger.Info("seeded catalog", zap.String("variant", variant.Name), zap.Int("items", len(initial.Items)))
	}

	hash := cfg.AdminPasswordHash
	if hash == "" {
		if hash, err = application.HashPassword(cfg.AdminPassword); err != nil {
			return nil, nil, err
		}
		logger.Warn("no admin password hash configured, hashing CATALOG_ADMIN_PASSWORD at startup")
	}

	var guard application.IdempotencyGuard = application.NewMemoryGuard(cfg.IdempotencyTTL)
	if cfg.RedisURL != "" {
		rg, err := redisguard.Open(ctx, cfg.RedisURL, cfg.IdempotencyTTL)
		if err != nil {
			return nil, nil, err
		}
		guard = rg
		closers = append(closers, rg.Close)
		logger.Info("idempotency guard", zap.String("backend", "redis"))
	}

	metrics := application.NewMetrics(reg)
	metrics.Set(initial)
	store := application.NewStore(domain.NewReducer(policy), initial)
	store.Subscribe(metrics.Observe)

	service := application.NewCatalogService(store, application.ServiceOptions{
		Kind:              variant.Kind,
		AdminPasswordHash: hash,
		Guard:             guard,
		Repo:              repo,
		Logger:            logger,
	})
	return service, closers, nil
}

func runServer(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	service, closers, err := buildService(ctx, cfg, reg, logger)
	if err != nil {
		return err
	}
	defer closeAll(closers)

	router := httpadapter.NewRouter(service, logger, reg)
	srv := &http.Server{Addr: cfg.Addr, Handler: router, ReadHeaderTimeout: 5 * time.Second}
	rpcSrv, err := rpcadapter.Start(cfg.RPCSocket, service, logger)
	if err != nil {
		return err
	}
	defer func() {
		_ = rpcSrv.Close()
	}()
	logger.Info("json-rpc listening", zap.String("socket", "unix://"+cfg.RPCSocket))

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", srv.Addr), zap.String("variant", cfg.Variant))
		errCh <- srv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	case <-ctx.Done():
		logger.Info("shutting down", zap.Error(ctx.Err()))
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
