package app

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/cherriae/FTC-Castle/internal/adapters/mongodb"
	"github.com/cherriae/FTC-Castle/internal/adapters/repository"
	"github.com/cherriae/FTC-Castle/internal/domain/access"
	"github.com/cherriae/FTC-Castle/internal/domain/record"
	"github.com/cherriae/FTC-Castle/internal/domain/roster"
	"github.com/cherriae/FTC-Castle/pkg/logger"
	"github.com/cherriae/FTC-Castle/pkg/metrics"
)

// CanMutate resolves whether an actor may mutate a record. Returns
// ErrNotFound when the id names no record.
func (s *Service) CanMutate(ctx context.Context, actorID, recordID primitive.ObjectID, action access.Action) (access.Decision, error) {
	rec, err := s.loadRecord(ctx, recordID)
	if err != nil {
		return access.Decision{}, err
	}
	return s.resolveMutation(ctx, actorID, rec, action)
}

// resolveMutation gathers the actor, record owner, and actor's organization
// and applies the permission rules to them.
func (s *Service) resolveMutation(ctx context.Context, actorID primitive.ObjectID, rec *record.Record, action access.Action) (access.Decision, error) {
	actor, err := s.observer(ctx, actorID)
	if err != nil {
		return access.Decision{}, err
	}
	owner, err := mongodb.DoValue(ctx, s.retry, "find_user", func(ctx context.Context) (*roster.User, error) {
		return s.store.UserByID(ctx, rec.ScouterID)
	})
	if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
		return access.Decision{}, s.internal(ctx, "record owner lookup failed", err)
	}

	var actorTeam *roster.Team
	if actor.TeamNumber != nil {
		actorTeam, err = mongodb.DoValue(ctx, s.retry, "find_team", func(ctx context.Context) (*roster.Team, error) {
			return s.store.TeamByNumber(ctx, *actor.TeamNumber)
		})
		if err != nil && !errors.Is(err, repository.ErrTeamNotFound) {
			return access.Decision{}, s.internal(ctx, "organization lookup failed", err)
		}
	}

	return access.CanMutate(actorID, actor, owner, actorTeam, action), nil
}

// Update overwrites a record with a re-coerced patch. It re-runs the
// organization-duplicate check (excluding the record itself) and, when the
// alliance value is changing, the alliance capacity check. Returns whether
// a document was actually modified; a nonexistent id or a denied actor
// yields false without error.
func (s *Service) Update(ctx context.Context, id primitive.ObjectID, raw record.Raw, actorID primitive.ObjectID) (bool, error) {
	rec, err := s.loadRecordOk(ctx, id)
	if err != nil || rec == nil {
		return false, err
	}

	decision, err := s.resolveMutation(ctx, actorID, rec, access.ActionUpdate)
	if err != nil {
		return false, err
	}
	if !decision.Allowed {
		metrics.RecordPermissionDenied("update")
		s.log.Info(ctx, "update denied",
			logger.String("id", id.Hex()),
			logger.String("actor", actorID.Hex()),
			logger.String("reason", decision.Reason))
		return false, nil
	}

	patch, err := raw.FromRaw()
	if err != nil {
		return false, err
	}

	actor, err := s.observer(ctx, actorID)
	if err != nil {
		return false, err
	}
	dup, err := mongodb.DoValue(ctx, s.retry, "duplicate_check", func(ctx context.Context) (bool, error) {
		return s.store.HasOrganizationDuplicate(ctx, patch.Key(), actor, &id)
	})
	if err != nil {
		return false, s.internal(ctx, "duplicate check failed", err)
	}
	if dup {
		return false, &DuplicateError{TeamNumber: patch.TeamNumber, MatchNumber: patch.MatchNumber}
	}

	if patch.Alliance != rec.Alliance {
		claimed, err := mongodb.DoValue(ctx, s.retry, "count_alliance", func(ctx context.Context) (int, error) {
			return s.store.CountAlliance(ctx, patch.EventCode, patch.MatchNumber, patch.Alliance, &id)
		})
		if err != nil {
			return false, s.internal(ctx, "alliance capacity check failed", err)
		}
		if claimed >= record.AllianceCapacity {
			return false, &AllianceFullError{Alliance: patch.Alliance, MatchNumber: patch.MatchNumber}
		}
	}

	modified, err := mongodb.DoValue(ctx, s.retry, "update_record", func(ctx context.Context) (bool, error) {
		return s.store.Update(ctx, id, patch, actorID)
	})
	if err != nil {
		return false, s.internal(ctx, "update failed", err)
	}
	if modified {
		metrics.RecordUpdate()
		s.log.Info(ctx, "scouting record updated",
			logger.String("id", id.Hex()),
			logger.String("actor", actorID.Hex()))
	}
	return modified, nil
}

// Delete removes a record. With adminOverride the organization checks are
// bypassed; the caller must have independently established administrator
// status before setting it. Returns whether a document was removed.
func (s *Service) Delete(ctx context.Context, id, actorID primitive.ObjectID, adminOverride bool) (bool, error) {
	rec, err := s.loadRecordOk(ctx, id)
	if err != nil || rec == nil {
		return false, err
	}

	if !adminOverride {
		decision, err := s.resolveMutation(ctx, actorID, rec, access.ActionDelete)
		if err != nil {
			return false, err
		}
		if !decision.Allowed {
			metrics.RecordPermissionDenied("delete")
			s.log.Info(ctx, "delete denied",
				logger.String("id", id.Hex()),
				logger.String("actor", actorID.Hex()),
				logger.String("reason", decision.Reason))
			return false, nil
		}
	}

	deleted, err := mongodb.DoValue(ctx, s.retry, "delete_record", func(ctx context.Context) (bool, error) {
		return s.store.Delete(ctx, id)
	})
	if err != nil {
		return false, s.internal(ctx, "delete failed", err)
	}
	if deleted {
		metrics.RecordDelete()
		s.log.Info(ctx, "scouting record deleted",
			logger.String("id", id.Hex()),
			logger.String("actor", actorID.Hex()),
			logger.Bool("admin_override", adminOverride))
	}
	return deleted, nil
}

// loadRecord returns a record or ErrNotFound.
func (s *Service) loadRecord(ctx context.Context, id primitive.ObjectID) (*record.Record, error) {
	rec, err := mongodb.DoValue(ctx, s.retry, "get_record", func(ctx context.Context) (*record.Record, error) {
		return s.store.Get(ctx, id)
	})
	if errors.Is(err, repository.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, s.internal(ctx, "record lookup failed", err)
	}
	return rec, nil
}

// loadRecordOk is loadRecord with not-found mapped to (nil, nil), for the
// operations that report a missing record as boolean false.
func (s *Service) loadRecordOk(ctx context.Context, id primitive.ObjectID) (*record.Record, error) {
	rec, err := s.loadRecord(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return rec, err
}
