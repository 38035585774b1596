// Package stats computes leaderboard and comparison aggregates over a slice
// of scouting records already filtered for visibility. Everything here is a
// pure function of its inputs; nothing touches the store.
package stats

import (
	"sort"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/cherriae/FTC-Castle/internal/domain/record"
)

// Sort keys accepted by TeamLeaderboard.
const (
	SortTotal        = "total"
	SortAuto         = "auto"
	SortTeleop       = "teleop"
	SortClimb        = "climb"
	SortPark         = "park"
	SortCompletePark = "complete_park"
	SortStackedPark  = "stacked_park"
)

// Sort keys accepted by ScouterLeaderboard.
const (
	SortMatchCount  = "match_count"
	SortUniqueTeams = "unique_teams"
)

// TeamRow is one leaderboard entry for a scouted team.
type TeamRow struct {
	TeamNumber    int `json:"team_number"`
	MatchesPlayed int `json:"matches_played"`

	AutoPurpleClassified float64 `json:"auto_purple_classified"`
	AutoGreenClassified  float64 `json:"auto_green_classified"`
	AutoPurpleOverflow   float64 `json:"auto_purple_overflow"`
	AutoGreenOverflow    float64 `json:"auto_green_overflow"`

	TeleopPurpleClassified float64 `json:"teleop_purple_classified"`
	TeleopGreenClassified  float64 `json:"teleop_green_classified"`
	TeleopPurpleOverflow   float64 `json:"teleop_purple_overflow"`
	TeleopGreenOverflow    float64 `json:"teleop_green_overflow"`

	TotalScore  float64 `json:"total_score"`
	TotalAuto   float64 `json:"total_auto"`
	TotalTeleop float64 `json:"total_teleop"`

	ClimbSuccessRate        float64 `json:"climb_success_rate"`
	ParkSuccessRate         float64 `json:"park_success_rate"`
	CompleteParkSuccessRate float64 `json:"complete_park_success_rate"`
	StackedParkSuccessRate  float64 `json:"stacked_park_success_rate"`
}

// LeaderboardOptions narrow and order the team leaderboard.
type LeaderboardOptions struct {
	EventCode  string // empty means all events
	SortBy     string // one of the team sort keys; SortTotal when unrecognized
	MinMatches int    // teams below this record count are dropped
}

type teamAcc struct {
	matches int
	sums    [8]float64

	climbAttempts, climbSuccesses               int
	parkAttempts, parkSuccesses                 int
	completeParkAttempts, completeParkSuccesses int
	stackedParkAttempts, stackedParkSuccesses   int
}

// TeamLeaderboard groups records by scouted team, averaging every scoring
// counter, deriving per-phase totals from the averages, and computing climb
// success rates as successes/attempts*100.
func TeamLeaderboard(records []*record.Record, opts LeaderboardOptions) []TeamRow {
	minMatches := opts.MinMatches
	if minMatches < 1 {
		minMatches = 1
	}

	acc := make(map[int]*teamAcc)
	for _, r := range records {
		if opts.EventCode != "" && r.EventCode != opts.EventCode {
			continue
		}
		a := acc[r.TeamNumber]
		if a == nil {
			a = &teamAcc{}
			acc[r.TeamNumber] = a
		}
		a.matches++
		for i, v := range counters(r) {
			a.sums[i] += float64(v)
		}

		a.climbAttempts++
		if r.ClimbSuccess {
			a.climbSuccesses++
		}
		switch r.ClimbType {
		case record.ClimbPark:
			a.parkAttempts++
			if r.ClimbSuccess {
				a.parkSuccesses++
			}
		case record.ClimbComplete:
			a.completeParkAttempts++
			if r.ClimbSuccess {
				a.completeParkSuccesses++
			}
		case record.ClimbStackedPark:
			a.stackedParkAttempts++
			if r.ClimbSuccess {
				a.stackedParkSuccesses++
			}
		}
	}

	rows := make([]TeamRow, 0, len(acc))
	for team, a := range acc {
		if a.matches < minMatches {
			continue
		}
		n := float64(a.matches)
		row := TeamRow{
			TeamNumber:    team,
			MatchesPlayed: a.matches,

			AutoPurpleClassified: a.sums[0] / n,
			AutoGreenClassified:  a.sums[1] / n,
			AutoPurpleOverflow:   a.sums[2] / n,
			AutoGreenOverflow:    a.sums[3] / n,

			TeleopPurpleClassified: a.sums[4] / n,
			TeleopGreenClassified:  a.sums[5] / n,
			TeleopPurpleOverflow:   a.sums[6] / n,
			TeleopGreenOverflow:    a.sums[7] / n,

			ClimbSuccessRate:        rate(a.climbSuccesses, a.climbAttempts),
			ParkSuccessRate:         rate(a.parkSuccesses, a.parkAttempts),
			CompleteParkSuccessRate: rate(a.completeParkSuccesses, a.completeParkAttempts),
			StackedParkSuccessRate:  rate(a.stackedParkSuccesses, a.stackedParkAttempts),
		}
		row.TotalAuto = row.AutoPurpleClassified + row.AutoGreenClassified + row.AutoPurpleOverflow + row.AutoGreenOverflow
		row.TotalTeleop = row.TeleopPurpleClassified + row.TeleopGreenClassified + row.TeleopPurpleOverflow + row.TeleopGreenOverflow
		row.TotalScore = row.TotalAuto + row.TotalTeleop
		rows = append(rows, row)
	}

	key := teamSortKey(opts.SortBy)
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := key(&rows[i]), key(&rows[j])
		if a != b {
			return a > b
		}
		return rows[i].TeamNumber < rows[j].TeamNumber
	})
	return rows
}

func teamSortKey(sortBy string) func(*TeamRow) float64 {
	switch sortBy {
	case SortAuto:
		return func(r *TeamRow) float64 { return r.TotalAuto }
	case SortTeleop:
		return func(r *TeamRow) float64 { return r.TotalTeleop }
	case SortClimb:
		return func(r *TeamRow) float64 { return r.ClimbSuccessRate }
	case SortPark:
		return func(r *TeamRow) float64 { return r.ParkSuccessRate }
	case SortCompletePark:
		return func(r *TeamRow) float64 { return r.CompleteParkSuccessRate }
	case SortStackedPark:
		return func(r *TeamRow) float64 { return r.StackedParkSuccessRate }
	default:
		return func(r *TeamRow) float64 { return r.TotalScore }
	}
}

func rate(successes, attempts int) float64 {
	if attempts == 0 {
		return 0
	}
	return float64(successes) / float64(attempts) * 100
}

func counters(r *record.Record) [8]int {
	return [8]int{
		r.AutoPurpleClassified, r.AutoGreenClassified, r.AutoPurpleOverflow, r.AutoGreenOverflow,
		r.TeleopPurpleClassified, r.TeleopGreenClassified, r.TeleopPurpleOverflow, r.TeleopGreenOverflow,
	}
}

// ScouterRow is one observer-leaderboard entry.
type ScouterRow struct {
	ScouterID   primitive.ObjectID `json:"scouter_id"`
	Username    string             `json:"username"`
	TeamNumber  *int               `json:"team_number,omitempty"`
	MatchCount  int                `json:"match_count"`
	UniqueTeams int                `json:"unique_teams"`
}

// ScouterOptions narrow and order the observer leaderboard.
type ScouterOptions struct {
	EventCode  string // empty means all events
	TeamNumber int    // 0 means all scouting organizations
	SortBy     string // SortMatchCount or SortUniqueTeams
}

// ScouterLeaderboard counts records and distinct scouted teams per observer.
// Records must carry joined scouter info.
func ScouterLeaderboard(records []*record.Record, opts ScouterOptions) []ScouterRow {
	type scouterAcc struct {
		row   ScouterRow
		teams map[int]struct{}
	}
	acc := make(map[primitive.ObjectID]*scouterAcc)
	for _, r := range records {
		if opts.EventCode != "" && r.EventCode != opts.EventCode {
			continue
		}
		if opts.TeamNumber != 0 && (r.ScouterTeam == nil || *r.ScouterTeam != opts.TeamNumber) {
			continue
		}
		a := acc[r.ScouterID]
		if a == nil {
			a = &scouterAcc{
				row: ScouterRow{
					ScouterID:  r.ScouterID,
					Username:   r.ScouterName,
					TeamNumber: r.ScouterTeam,
				},
				teams: make(map[int]struct{}),
			}
			acc[r.ScouterID] = a
		}
		a.row.MatchCount++
		a.teams[r.TeamNumber] = struct{}{}
	}

	rows := make([]ScouterRow, 0, len(acc))
	for _, a := range acc {
		a.row.UniqueTeams = len(a.teams)
		rows = append(rows, a.row)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		var a, b int
		if opts.SortBy == SortUniqueTeams {
			a, b = rows[i].UniqueTeams, rows[j].UniqueTeams
		} else {
			a, b = rows[i].MatchCount, rows[j].MatchCount
		}
		if a != b {
			return a > b
		}
		return rows[i].Username < rows[j].Username
	})
	return rows
}

// EventSummary is one scouted event with its record count.
type EventSummary struct {
	EventCode string `json:"event_code"`
	Count     int    `json:"count"`
}

// Events lists the distinct event codes in the records, sorted ascending.
func Events(records []*record.Record) []EventSummary {
	counts := make(map[string]int)
	for _, r := range records {
		counts[r.EventCode]++
	}
	out := make([]EventSummary, 0, len(counts))
	for code, n := range counts {
		out = append(out, EventSummary{EventCode: code, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EventCode < out[j].EventCode })
	return out
}
