package stats

import (
	"github.com/cherriae/FTC-Castle/internal/domain/record"
)

// compareScale flattens raw counter averages into a 0-1-ish band for the
// radar-style comparison view.
const compareScale = 20

// Comparison is the aggregate for one team in a side-by-side comparison.
// Counter averages ignore zero values so that a single bad match does not
// drag a team's profile down; the normalized figures divide the summed
// averages by a fixed scale rather than claiming absolute score.
type Comparison struct {
	TeamNumber     int `json:"team_number"`
	MatchesScouted int `json:"matches_scouted"`

	AvgAutoPurpleClassified float64 `json:"avg_auto_purple_classified"`
	AvgAutoGreenClassified  float64 `json:"avg_auto_green_classified"`
	AvgAutoPurpleOverflow   float64 `json:"avg_auto_purple_overflow"`
	AvgAutoGreenOverflow    float64 `json:"avg_auto_green_overflow"`

	AvgTeleopPurpleClassified float64 `json:"avg_teleop_purple_classified"`
	AvgTeleopGreenClassified  float64 `json:"avg_teleop_green_classified"`
	AvgTeleopPurpleOverflow   float64 `json:"avg_teleop_purple_overflow"`
	AvgTeleopGreenOverflow    float64 `json:"avg_teleop_green_overflow"`

	PreferredClimbType string `json:"preferred_climb_type"`

	AutoScoring   float64 `json:"auto_scoring"`
	TeleopScoring float64 `json:"teleop_scoring"`
	ClimbRating   float64 `json:"climb_rating"`
}

type positiveMean struct {
	sum float64
	n   int
}

func (m *positiveMean) add(v int) {
	if v > 0 {
		m.sum += float64(v)
		m.n++
	}
}

func (m *positiveMean) value() float64 {
	if m.n == 0 {
		return 0
	}
	return m.sum / float64(m.n)
}

// CompareTeam aggregates one team's records for comparison. It returns nil
// when the team has no records in the slice.
func CompareTeam(records []*record.Record, teamNumber int) *Comparison {
	var means [8]positiveMean
	var climbSuccesses, matches int
	var lastClimb string

	for _, r := range records {
		if r.TeamNumber != teamNumber {
			continue
		}
		matches++
		for i, v := range counters(r) {
			means[i].add(v)
		}
		if r.ClimbSuccess {
			climbSuccesses++
		}
		lastClimb = r.ClimbType
	}
	if matches == 0 {
		return nil
	}

	c := &Comparison{
		TeamNumber:     teamNumber,
		MatchesScouted: matches,

		AvgAutoPurpleClassified: means[0].value(),
		AvgAutoGreenClassified:  means[1].value(),
		AvgAutoPurpleOverflow:   means[2].value(),
		AvgAutoGreenOverflow:    means[3].value(),

		AvgTeleopPurpleClassified: means[4].value(),
		AvgTeleopGreenClassified:  means[5].value(),
		AvgTeleopPurpleOverflow:   means[6].value(),
		AvgTeleopGreenOverflow:    means[7].value(),

		PreferredClimbType: lastClimb,
		ClimbRating:        float64(climbSuccesses) / float64(matches),
	}
	c.AutoScoring = (c.AvgAutoPurpleClassified + c.AvgAutoGreenClassified + c.AvgAutoPurpleOverflow + c.AvgAutoGreenOverflow) / compareScale
	c.TeleopScoring = (c.AvgTeleopPurpleClassified + c.AvgTeleopGreenClassified + c.AvgTeleopPurpleOverflow + c.AvgTeleopGreenOverflow) / compareScale
	return c
}
