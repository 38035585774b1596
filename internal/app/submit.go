package app

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/cherriae/FTC-Castle/internal/adapters/mongodb"
	"github.com/cherriae/FTC-Castle/internal/domain/record"
	"github.com/cherriae/FTC-Castle/internal/domain/roster"
	"github.com/cherriae/FTC-Castle/pkg/logger"
	"github.com/cherriae/FTC-Castle/pkg/metrics"
)

// Submit validates and stores one scouting submission. token, when
// non-empty, makes the call idempotent: a retried submission with the same
// token is rejected instead of inserted twice. Validation and conflict
// failures carry a caller-readable reason; anything unexpected is logged in
// full and surfaced as ErrInternal.
func (s *Service) Submit(ctx context.Context, raw record.Raw, observerID primitive.ObjectID, token string) (primitive.ObjectID, error) {
	if s.limiter != nil && !s.limiter.allow(observerID) {
		metrics.RecordSubmissionRejected("rate_limited")
		return primitive.NilObjectID, ErrRateLimited
	}

	if token != "" && s.tracker.SeenAndRecord(ctx, token) {
		metrics.RecordSubmissionRejected("replay")
		return primitive.NilObjectID, ErrAlreadySubmitted
	}
	fail := func(reason string, err error) (primitive.ObjectID, error) {
		if token != "" {
			s.tracker.Unrecord(ctx, token)
		}
		metrics.RecordSubmissionRejected(reason)
		return primitive.NilObjectID, err
	}

	rec, err := raw.FromRaw()
	if err != nil {
		return fail("validation", err)
	}

	submitter, err := s.observer(ctx, observerID)
	if err != nil {
		return fail("unknown_observer", err)
	}

	dup, err := mongodb.DoValue(ctx, s.retry, "duplicate_check", func(ctx context.Context) (bool, error) {
		return s.store.HasOrganizationDuplicate(ctx, rec.Key(), submitter, nil)
	})
	if err != nil {
		return fail("internal", s.internal(ctx, "duplicate check failed", err))
	}
	if dup {
		return fail("duplicate", &DuplicateError{TeamNumber: rec.TeamNumber, MatchNumber: rec.MatchNumber})
	}

	claimed, err := mongodb.DoValue(ctx, s.retry, "count_alliance", func(ctx context.Context) (int, error) {
		return s.store.CountAlliance(ctx, rec.EventCode, rec.MatchNumber, rec.Alliance, nil)
	})
	if err != nil {
		return fail("internal", s.internal(ctx, "alliance capacity check failed", err))
	}
	if claimed >= record.AllianceCapacity {
		return fail("alliance_full", &AllianceFullError{Alliance: rec.Alliance, MatchNumber: rec.MatchNumber})
	}

	rec.ScouterID = observerID
	rec.CreatedAt = time.Now().UTC()

	id, err := mongodb.DoValue(ctx, s.retry, "insert_record", func(ctx context.Context) (primitive.ObjectID, error) {
		return s.store.Insert(ctx, rec)
	})
	if err != nil {
		return fail("internal", s.internal(ctx, "insert failed", err))
	}

	metrics.RecordSubmissionAccepted()
	s.log.Info(ctx, "scouting record submitted",
		logger.String("id", id.Hex()),
		logger.Int("team", rec.TeamNumber),
		logger.String("event", rec.EventCode),
		logger.Int("match", rec.MatchNumber))
	return id, nil
}

// observer resolves the acting observer, wrapping lookups in the retryer.
func (s *Service) observer(ctx context.Context, id primitive.ObjectID) (*roster.User, error) {
	u, err := mongodb.DoValue(ctx, s.retry, "find_user", func(ctx context.Context) (*roster.User, error) {
		return s.store.UserByID(ctx, id)
	})
	if err != nil {
		if mongodb.IsTransient(err) {
			return nil, s.internal(ctx, "observer lookup failed", err)
		}
		return nil, ErrUnknownObserver
	}
	return u, nil
}

// internal logs the real error and returns the generic internal outcome.
func (s *Service) internal(ctx context.Context, msg string, err error) error {
	s.log.Error(ctx, msg, logger.Error(err))
	return ErrInternal
}
