package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/okian/smarthire/internal/adapters/http/api"
	"github.com/okian/smarthire/internal/adapters/http/site"
	"github.com/okian/smarthire/internal/adapters/http/swagger"
	repository "github.com/okian/smarthire/internal/adapters/repository"
	"github.com/okian/smarthire/internal/adapters/repository/memstore"
	"github.com/okian/smarthire/internal/adapters/repository/poscache"
	"github.com/okian/smarthire/internal/adapters/repository/sqlstore"
	app "github.com/okian/smarthire/internal/app"
	"github.com/okian/smarthire/internal/config"
	"github.com/okian/smarthire/internal/domain/model"
	"github.com/okian/smarthire/internal/domain/scoring"
	"github.com/okian/smarthire/pkg/logger"
	"github.com/okian/smarthire/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout               = 30 * time.Second
	writeTimeout              = 60 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	serviceMetricsInterval    = 5 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	// Disable default Go metrics collection to avoid duplicate metrics
	// We collect our own custom system metrics instead
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		_, _ = os.Stderr.WriteString("failed to read .env: " + err.Error() + "\n")
		os.Exit(1)
	}

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		// Use stderr for initialization errors since logger isn't available yet
		_, _ = os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
		_, _ = os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	_ = logger.SetLevelString(cfg.LogLevel)

	log := logger.Named("smarthire")
	code := 0
	if err := run(ctx, cfg, log); err != nil {
		log.Error(ctx, "server exited with error", logger.Error(err))
		code = 1
	}
	_ = logger.Sync()
	stop()
	os.Exit(code)
}

// run wires the store, service and HTTP server and blocks until ctx is done
// or the listener fails.
func run(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	store, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	svc := newService(cfg, store, log)
	if cfg.SeedPositions && cfg.StorageBackend == config.BackendMemory {
		if err := seedMemory(ctx, svc); err != nil {
			return err
		}
	}

	if err := svc.Start(ctx); err != nil {
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := svc.Stop(stopCtx); err != nil {
			log.Error(stopCtx, "service stop failed", logger.Error(err))
		}
	}()

	go startSystemMetricsUpdater(ctx)
	go startServiceMetricsUpdater(ctx, svc)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newHandler(ctx, cfg, svc, log),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server",
			logger.String("addr", cfg.Addr),
			logger.String("storage", cfg.StorageBackend),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- fmt.Errorf("%w: %w", api.ErrServe, err)
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(shutdownCtx, "server shutdown failed", logger.Error(err))
	}

	log.Info(shutdownCtx, "server stopped")
	return nil
}

// openStore builds the configured backend, optionally behind the Redis
// position cache. The returned func releases every connection it opened.
func openStore(ctx context.Context, cfg *config.Config, log logger.Logger) (repository.Store, func(), error) {
	var (
		store repository.Store
		err   error
	)
	switch cfg.StorageBackend {
	case config.BackendMemory:
		store = memstore.New()
	case config.BackendPostgres, config.BackendPGX:
		store, err = openSQL(ctx, cfg, log)
		if err != nil {
			return nil, nil, err
		}
	default:
		return nil, nil, fmt.Errorf("%w: unknown storage_backend %q", config.ErrInvalidConfig, cfg.StorageBackend)
	}

	if cfg.RedisAddr == "" {
		return store, func() { closeQuietly(ctx, log, "store", store.Close) }, nil
	}

	rdb := poscache.NewClient(poscache.Config{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn(ctx, "redis unreachable, position cache will fall through",
			logger.String("addr", cfg.RedisAddr),
			logger.Error(err),
		)
	}
	cached := poscache.New(store, rdb,
		poscache.WithTTL(cfg.PositionCacheTTL),
		poscache.WithLogger(log.Named("poscache")),
	)
	return cached, func() {
		closeQuietly(ctx, log, "redis", rdb.Close)
		closeQuietly(ctx, log, "store", cached.Close)
	}, nil
}

func openSQL(ctx context.Context, cfg *config.Config, log logger.Logger) (*sqlstore.Store, error) {
	store, err := sqlstore.Open(ctx, sqlstore.Config{
		Driver:          cfg.StorageBackend,
		DSN:             cfg.DatabaseURL,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: 30 * time.Minute,
	}, sqlstore.WithLogger(log.Named("sqlstore")))
	if err != nil {
		return nil, err
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}
	if cfg.SeedPositions {
		if _, err := store.SeedPositions(ctx, model.DefaultPositions()); err != nil {
			_ = store.Close()
			return nil, err
		}
	}
	return store, nil
}

func closeQuietly(ctx context.Context, log logger.Logger, what string, closeFn func() error) {
	if err := closeFn(); err != nil {
		log.Warn(ctx, "close failed", logger.String("resource", what), logger.Error(err))
	}
}

// newService builds the screening service from config.
func newService(cfg *config.Config, store repository.Store, log logger.Logger) *app.Service {
	scorer := scoring.NewMatchScorer(
		scoring.WithNeutralSkillScore(cfg.NeutralSkillScore),
		scoring.WithExperiencePolicy(scoring.Policy(cfg.ExperiencePolicy)),
		scoring.WithRelevanceBonus(cfg.RelevanceBonus),
	)
	return app.New(
		app.WithStore(store),
		app.WithScorer(scorer),
		app.WithWorkerCount(cfg.WorkerCount),
		app.WithQueueSize(cfg.QueueSize),
		app.WithMinutesSavedPerCV(cfg.MinutesSavedPerCV),
		app.WithMaxListLimit(cfg.MaxListLimit),
		app.WithLogger(log),
	)
}

// seedMemory loads the default positions into a fresh in-memory catalog.
func seedMemory(ctx context.Context, svc *app.Service) error {
	for _, p := range model.DefaultPositions() {
		if _, err := svc.CreatePosition(ctx, p); err != nil && !errors.Is(err, repository.ErrDuplicate) {
			return fmt.Errorf("seed position %q: %w", p.Title, err)
		}
	}
	return nil
}

// newHandler registers every route and wraps the mux with request ids.
func newHandler(ctx context.Context, cfg *config.Config, svc *app.Service, log logger.Logger) http.Handler {
	mux := http.NewServeMux()

	apiServer := api.NewServer(svc,
		api.WithMaxUploadBytes(cfg.MaxUploadBytes),
		api.WithLogger(log),
	)
	apiServer.Register(ctx, mux)
	swagger.Register(ctx, mux)
	site.Register(ctx, mux)

	return api.RequestIDMiddleware(mux)
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// startServiceMetricsUpdater starts a background goroutine that updates service metrics.
func startServiceMetricsUpdater(ctx context.Context, svc *app.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			svc.RefreshGauges(ctx)
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)

	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}
