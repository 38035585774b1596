package stats

import (
	"sort"

	"github.com/cherriae/FTC-Castle/internal/domain/record"
)

// MatchHistory returns a team's records ordered by event code then match
// number, the order the matches were played in.
func MatchHistory(records []*record.Record, teamNumber int) []*record.Record {
	var out []*record.Record
	for _, r := range records {
		if r.TeamNumber == teamNumber {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].EventCode != out[j].EventCode {
			return out[i].EventCode < out[j].EventCode
		}
		return out[i].MatchNumber < out[j].MatchNumber
	})
	return out
}

// AutoPath is one drawn autonomous path together with the match it was
// recorded in.
type AutoPath struct {
	EventCode   string             `json:"event_code"`
	MatchNumber int                `json:"match_number"`
	Points      []record.PathPoint `json:"points"`
}

// AutoPaths returns the drawn autonomous paths recorded for a team, in
// match order, skipping records without one.
func AutoPaths(records []*record.Record, teamNumber int) []AutoPath {
	var out []AutoPath
	for _, r := range MatchHistory(records, teamNumber) {
		if len(r.AutoPath) > 0 {
			out = append(out, AutoPath{
				EventCode:   r.EventCode,
				MatchNumber: r.MatchNumber,
				Points:      r.AutoPath,
			})
		}
	}
	return out
}
