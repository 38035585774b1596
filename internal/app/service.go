// Package app provides the scouting core service: ingestion, mutation,
// permission resolution, and analytics over the record store.
package app

import (
	"time"

	"github.com/cherriae/FTC-Castle/internal/adapters/mongodb"
	"github.com/cherriae/FTC-Castle/internal/adapters/repository"
	"github.com/cherriae/FTC-Castle/internal/domain/idempotency"
	"github.com/cherriae/FTC-Castle/pkg/logger"
)

// Service implements the in-process contract consumed by the surrounding
// application. All store access goes through the retryer.
type Service struct {
	store   repository.Store
	retry   *mongodb.Retryer
	tracker idempotency.Tracker
	limiter *observerLimiter
	meta    TeamMetaProvider

	minMatches int

	log logger.Logger
}

// TeamMetaProvider supplies competition-team metadata used to enrich
// comparison output. Optional; lookups that fail are ignored.
type TeamMetaProvider interface {
	TeamName(teamNumber int) string
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithRetry sets the retry policy for store operations.
func WithRetry(attempts int, delay time.Duration) Option {
	return func(s *Service) {
		s.retry = mongodb.NewRetryer(attempts, delay)
	}
}

// WithTracker sets the idempotency tracker for submissions.
func WithTracker(t idempotency.Tracker) Option {
	return func(s *Service) {
		if t != nil {
			s.tracker = t
		}
	}
}

// WithSubmitRate caps submissions per observer. perMinute <= 0 disables
// the limiter.
func WithSubmitRate(perMinute, burst int) Option {
	return func(s *Service) {
		if perMinute > 0 {
			s.limiter = newObserverLimiter(perMinute, burst)
		}
	}
}

// WithMinMatches sets the qualifying-match floor for the team leaderboard.
func WithMinMatches(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.minMatches = n
		}
	}
}

// WithTeamMetaProvider sets the competition-data lookup used to name teams
// in comparison output.
func WithTeamMetaProvider(p TeamMetaProvider) Option {
	return func(s *Service) {
		s.meta = p
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

// New builds a Service over a store.
func New(store repository.Store, opts ...Option) *Service {
	s := &Service{
		store:      store,
		retry:      mongodb.NewRetryer(mongodb.DefaultAttempts, mongodb.DefaultDelay),
		tracker:    idempotency.NewTracker(),
		minMatches: 1,
		log:        logger.Get(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}
