// Package record contains the scouting record model and the coercion rules
// applied once at the ingestion boundary.
package record

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Alliance sides. A match fields at most AllianceCapacity teams per side.
const (
	AllianceRed  = "red"
	AllianceBlue = "blue"

	AllianceCapacity = 3
)

// Climb classifications used to compute end-of-match success rates.
const (
	ClimbNone        = ""
	ClimbPark        = "park"
	ClimbComplete    = "complete park"
	ClimbStackedPark = "stacked park"
)

// Robot disabled states.
const (
	DisabledNone      = "None"
	DisabledPartially = "Partially"
	DisabledFull      = "Full"
)

// PathPoint is one coordinate of a drawn autonomous path.
type PathPoint struct {
	X float64 `bson:"x" json:"x"`
	Y float64 `bson:"y" json:"y"`
}

// Record is one observer's report of one team's performance in one match.
// The scouter_name/scouter_team fields are populated only by joined reads;
// they are never written back to the collection.
type Record struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TeamNumber  int                `bson:"team_number" json:"team_number"`
	EventCode   string             `bson:"event_code" json:"event_code"`
	MatchNumber int                `bson:"match_number" json:"match_number"`
	Alliance    string             `bson:"alliance" json:"alliance"`

	// Auto
	AutoPurpleClassified int `bson:"auto_purple_classified" json:"auto_purple_classified"`
	AutoGreenClassified  int `bson:"auto_green_classified" json:"auto_green_classified"`
	AutoPurpleOverflow   int `bson:"auto_purple_overflow" json:"auto_purple_overflow"`
	AutoGreenOverflow    int `bson:"auto_green_overflow" json:"auto_green_overflow"`

	// Teleop
	TeleopPurpleClassified int `bson:"teleop_purple_classified" json:"teleop_purple_classified"`
	TeleopGreenClassified  int `bson:"teleop_green_classified" json:"teleop_green_classified"`
	TeleopPurpleOverflow   int `bson:"teleop_purple_overflow" json:"teleop_purple_overflow"`
	TeleopGreenOverflow    int `bson:"teleop_green_overflow" json:"teleop_green_overflow"`

	PatternCompleted string `bson:"pattern_completed" json:"pattern_completed"`

	// Climb
	ClimbType    string `bson:"climb_type" json:"climb_type"`
	ClimbSuccess bool   `bson:"climb_success" json:"climb_success"`

	RobotDisabled string `bson:"robot_disabled" json:"robot_disabled"`

	AutoPath  []PathPoint `bson:"auto_path" json:"auto_path"`
	AutoNotes string      `bson:"auto_notes" json:"auto_notes"`
	Notes     string      `bson:"notes" json:"notes"`

	// Metadata
	ScouterID    primitive.ObjectID  `bson:"scouter_id" json:"scouter_id"`
	CreatedAt    time.Time           `bson:"created_at" json:"created_at"`
	LastEditedBy *primitive.ObjectID `bson:"last_edited_by,omitempty" json:"last_edited_by,omitempty"`
	LastEditedAt *time.Time          `bson:"last_edited_at,omitempty" json:"last_edited_at,omitempty"`

	// Joined scouter info (read-side only).
	ScouterName string `bson:"scouter_name,omitempty" json:"scouter_name,omitempty"`
	ScouterTeam *int   `bson:"scouter_team,omitempty" json:"scouter_team,omitempty"`
	IsOwner     bool   `bson:"-" json:"is_owner"`
}

// MatchKey identifies one team's slot in one match of one event. At most one
// record per key may be authored by observers of the same organization.
type MatchKey struct {
	EventCode   string
	MatchNumber int
	TeamNumber  int
}

// Key returns the record's match key.
func (r *Record) Key() MatchKey {
	return MatchKey{EventCode: r.EventCode, MatchNumber: r.MatchNumber, TeamNumber: r.TeamNumber}
}
