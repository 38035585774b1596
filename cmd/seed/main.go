// Command seed fills the configured store with fixture scouting data by
// driving the real submission path.
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/cherriae/FTC-Castle/internal/adapters/mongodb"
	"github.com/cherriae/FTC-Castle/internal/adapters/repository"
	"github.com/cherriae/FTC-Castle/internal/app"
	"github.com/cherriae/FTC-Castle/internal/config"
	"github.com/cherriae/FTC-Castle/internal/seed"
	"github.com/cherriae/FTC-Castle/pkg/logger"
)

const runTimeout = 10 * time.Minute

func main() {
	var (
		orgs    = flag.Int("orgs", 4, "Number of scouting organizations")
		users   = flag.Int("users", 3, "Observers per organization")
		events  = flag.Int("events", 2, "Number of events")
		matches = flag.Int("matches", 10, "Matches per event")
		rng     = flag.Int64("seed", 0, "Random seed (0 means time-based)")
	)
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()
	log := logger.Get()

	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	cfg, err := config.Load(ctx)
	if err != nil {
		log.Error(ctx, "failed to load config", logger.Error(err))
		os.Exit(1)
	}

	handle, err := mongodb.Connect(ctx, cfg.MongoURI, mongodb.WithDatabase(cfg.Database))
	if err != nil {
		log.Error(ctx, "failed to connect", logger.Error(err))
		os.Exit(1)
	}
	defer func() {
		_ = handle.Close(context.Background())
	}()

	store := repository.NewMongoStore(handle)
	if err := store.EnsureIndexes(ctx); err != nil {
		log.Error(ctx, "failed to create indexes", logger.Error(err))
		os.Exit(1)
	}

	// No rate limiting while seeding.
	svc := app.New(store,
		app.WithRetry(cfg.RetryAttempts, time.Duration(cfg.RetryDelayMS)*time.Millisecond),
		app.WithLogger(log),
	)

	s := *rng
	if s == 0 {
		s = time.Now().UnixNano()
	}
	err = seed.Run(ctx, svc, store, seed.Config{
		Organizations:   *orgs,
		UsersPerOrg:     *users,
		Events:          *events,
		MatchesPerEvent: *matches,
		Seed:            s,
	})
	if err != nil {
		log.Error(ctx, "seeding failed", logger.Error(err))
		os.Exit(1)
	}
}
