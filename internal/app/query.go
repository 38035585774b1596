package app

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/cherriae/FTC-Castle/internal/adapters/mongodb"
	"github.com/cherriae/FTC-Castle/internal/adapters/repository"
	"github.com/cherriae/FTC-Castle/internal/domain/record"
	"github.com/cherriae/FTC-Castle/internal/domain/stats"
	"github.com/cherriae/FTC-Castle/pkg/metrics"
)

// ErrCompareCount is returned when a comparison names fewer than two or
// more than three teams.
var ErrCompareCount = errors.New("select two or three teams to compare")

// GetRecord returns one record if it is visible to the viewer. A record the
// viewer may not see is reported as not found, not as a denial.
func (s *Service) GetRecord(ctx context.Context, id, viewerID primitive.ObjectID) (*record.Record, error) {
	rec, err := s.loadRecord(ctx, id)
	if err != nil {
		return nil, err
	}
	viewer, err := s.observer(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	if rec.ScouterID != viewerID {
		if viewer.TeamNumber == nil || rec.ScouterTeam == nil || *rec.ScouterTeam != *viewer.TeamNumber {
			return nil, ErrNotFound
		}
	}
	rec.IsOwner = rec.ScouterID == viewerID
	return rec, nil
}

// ListRecords returns the records visible to the viewer, narrowed by the
// filter and ordered by event then match number.
func (s *Service) ListRecords(ctx context.Context, viewerID primitive.ObjectID, f repository.Filter) ([]*record.Record, error) {
	recs, err := s.visibleRecords(ctx, viewerID, f)
	if err != nil {
		return nil, err
	}
	for _, r := range recs {
		r.IsOwner = r.ScouterID == viewerID
	}
	return recs, nil
}

func (s *Service) visibleRecords(ctx context.Context, viewerID primitive.ObjectID, f repository.Filter) ([]*record.Record, error) {
	viewer, err := s.observer(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	recs, err := mongodb.DoValue(ctx, s.retry, "list_records", func(ctx context.Context) ([]*record.Record, error) {
		return s.store.List(ctx, viewer, f)
	})
	if err != nil {
		return nil, s.internal(ctx, "record listing failed", err)
	}
	return recs, nil
}

// TeamLeaderboard aggregates the viewer's visible records into per-team
// averages, totals, and climb success rates.
func (s *Service) TeamLeaderboard(ctx context.Context, viewerID primitive.ObjectID, opts stats.LeaderboardOptions) ([]stats.TeamRow, error) {
	recs, err := s.visibleRecords(ctx, viewerID, repository.Filter{EventCode: opts.EventCode})
	if err != nil {
		return nil, err
	}
	if opts.MinMatches == 0 {
		opts.MinMatches = s.minMatches
	}
	metrics.RecordAnalyticsQuery("team_leaderboard")
	return stats.TeamLeaderboard(recs, opts), nil
}

// ScouterLeaderboard ranks observers by record count or distinct teams
// scouted over the viewer's visible records.
func (s *Service) ScouterLeaderboard(ctx context.Context, viewerID primitive.ObjectID, opts stats.ScouterOptions) ([]stats.ScouterRow, error) {
	recs, err := s.visibleRecords(ctx, viewerID, repository.Filter{EventCode: opts.EventCode})
	if err != nil {
		return nil, err
	}
	metrics.RecordAnalyticsQuery("scouter_leaderboard")
	return stats.ScouterLeaderboard(recs, opts), nil
}

// CompareResult is one team's comparison aggregate with optional metadata
// from the competition-data provider.
type CompareResult struct {
	stats.Comparison
	TeamName string `json:"team_name,omitempty"`
}

// CompareTeams aggregates two or three teams side by side over the viewer's
// visible records. Teams with no visible records are omitted from the
// result.
func (s *Service) CompareTeams(ctx context.Context, viewerID primitive.ObjectID, teamNumbers []int) ([]CompareResult, error) {
	if len(teamNumbers) < 2 || len(teamNumbers) > 3 {
		return nil, ErrCompareCount
	}
	recs, err := s.visibleRecords(ctx, viewerID, repository.Filter{})
	if err != nil {
		return nil, err
	}
	metrics.RecordAnalyticsQuery("compare_teams")

	out := make([]CompareResult, 0, len(teamNumbers))
	for _, team := range teamNumbers {
		c := stats.CompareTeam(recs, team)
		if c == nil {
			continue
		}
		res := CompareResult{Comparison: *c}
		if s.meta != nil {
			res.TeamName = s.meta.TeamName(team)
		}
		out = append(out, res)
	}
	return out, nil
}

// Events lists the distinct events in the viewer's visible records.
func (s *Service) Events(ctx context.Context, viewerID primitive.ObjectID) ([]stats.EventSummary, error) {
	recs, err := s.visibleRecords(ctx, viewerID, repository.Filter{})
	if err != nil {
		return nil, err
	}
	return stats.Events(recs), nil
}

// TeamMatches returns a team's visible records in match order.
func (s *Service) TeamMatches(ctx context.Context, viewerID primitive.ObjectID, teamNumber int) ([]*record.Record, error) {
	recs, err := s.visibleRecords(ctx, viewerID, repository.Filter{TeamNumber: teamNumber})
	if err != nil {
		return nil, err
	}
	return stats.MatchHistory(recs, teamNumber), nil
}

// TeamPaths returns a team's recorded autonomous paths in match order.
func (s *Service) TeamPaths(ctx context.Context, viewerID primitive.ObjectID, teamNumber int) ([]stats.AutoPath, error) {
	recs, err := s.visibleRecords(ctx, viewerID, repository.Filter{TeamNumber: teamNumber})
	if err != nil {
		return nil, err
	}
	return stats.AutoPaths(recs, teamNumber), nil
}

// HasTeamData reports whether the viewer can see any records for a team.
func (s *Service) HasTeamData(ctx context.Context, viewerID primitive.ObjectID, teamNumber int) (bool, error) {
	recs, err := s.visibleRecords(ctx, viewerID, repository.Filter{TeamNumber: teamNumber})
	if err != nil {
		return false, err
	}
	return len(recs) > 0, nil
}

// RecordCount reports the total number of stored records, for the ops
// surface.
func (s *Service) RecordCount(ctx context.Context) (int64, error) {
	n, err := mongodb.DoValue(ctx, s.retry, "count_records", func(ctx context.Context) (int64, error) {
		return s.store.Count(ctx)
	})
	if err != nil {
		return 0, s.internal(ctx, "record count failed", err)
	}
	metrics.UpdateRecordsTotal(int(n))
	return n, nil
}
