// Command castle runs the scouting data core with its operational HTTP
// surface: a health endpoint and the metrics registry. The business
// operations are consumed in-process by the surrounding application.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cherriae/FTC-Castle/external/ftcscout"
	"github.com/cherriae/FTC-Castle/internal/adapters/mongodb"
	"github.com/cherriae/FTC-Castle/internal/adapters/repository"
	"github.com/cherriae/FTC-Castle/internal/app"
	"github.com/cherriae/FTC-Castle/internal/config"
	"github.com/cherriae/FTC-Castle/internal/domain/idempotency"
	"github.com/cherriae/FTC-Castle/pkg/logger"
	"github.com/cherriae/FTC-Castle/pkg/metrics"
)

const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	var logOpts []logger.Option
	if cfg.LogDir != "" {
		logOpts = append(logOpts, logger.WithLogDir(cfg.LogDir))
	}
	if err := logger.Init(logOpts...); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	defer func() {
		_ = logger.Sync()
	}()
	log := logger.Get()

	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info",
			logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	store, cleanup, err := buildStore(ctx, cfg)
	if err != nil {
		log.Error(ctx, "failed to build store", logger.Error(err))
		return
	}
	defer cleanup()

	scout := ftcscout.New(ftcscout.WithBaseURL(cfg.FTCScoutBaseURL))

	svc := app.New(store,
		app.WithLogger(log),
		app.WithRetry(cfg.RetryAttempts, time.Duration(cfg.RetryDelayMS)*time.Millisecond),
		app.WithTracker(idempotency.NewTracker(idempotency.WithMaxSize(cfg.IdempotencyCacheSize))),
		app.WithSubmitRate(cfg.SubmitPerMinute, cfg.SubmitBurst),
		app.WithMinMatches(cfg.MinMatches),
		app.WithTeamMetaProvider(scout),
	)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if _, err := svc.RecordCount(r.Context()); err != nil {
			http.Error(w, "store unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	srv := &http.Server{
		Addr:              cfg.OpsAddr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "starting ops server", logger.String("addr", cfg.OpsAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error(ctx, "ops server failed", logger.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info(ctx, "shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(shutdownCtx, "ops server shutdown failed", logger.Error(err))
	}
}

// buildStore constructs the configured persistence backend. The returned
// cleanup is safe to call once.
func buildStore(ctx context.Context, cfg *config.Config) (repository.Store, func(), error) {
	if cfg.Store == config.StoreMemory {
		return repository.NewMemStore(), func() {}, nil
	}

	handle, err := mongodb.Connect(ctx, cfg.MongoURI, mongodb.WithDatabase(cfg.Database))
	if err != nil {
		return nil, nil, err
	}
	store := repository.NewMongoStore(handle)
	if err := store.EnsureIndexes(ctx); err != nil {
		_ = handle.Close(ctx)
		return nil, nil, err
	}
	cleanup := func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = handle.Close(closeCtx)
	}
	return store, cleanup, nil
}
