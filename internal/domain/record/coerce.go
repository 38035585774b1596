package record

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Raw is an uninterpreted submission payload. Client-supplied fields arrive
// loosely typed; FromRaw normalizes them into a Record, substituting typed
// zero values for anything missing or malformed.
type Raw map[string]any

// FromRaw builds a Record from a raw submission. Identity fields are
// validated; everything else falls back to its zero value rather than
// rejecting the submission.
func (raw Raw) FromRaw() (*Record, error) {
	team := raw.intField("team_number")
	if team <= 0 {
		return nil, ErrInvalidTeamNumber
	}
	match := raw.intField("match_number")
	if match <= 0 {
		return nil, ErrInvalidMatchNumber
	}
	event := strings.TrimSpace(raw.stringField("event_code", ""))
	if event == "" {
		return nil, ErrMissingEventCode
	}
	alliance := strings.ToLower(strings.TrimSpace(raw.stringField("alliance", AllianceRed)))
	if alliance == "" {
		alliance = AllianceRed
	}
	if alliance != AllianceRed && alliance != AllianceBlue {
		return nil, ErrInvalidAlliance
	}

	rec := &Record{
		TeamNumber:  team,
		EventCode:   event,
		MatchNumber: match,
		Alliance:    alliance,

		AutoPurpleClassified: raw.intField("auto_purple_classified"),
		AutoGreenClassified:  raw.intField("auto_green_classified"),
		AutoPurpleOverflow:   raw.intField("auto_purple_overflow"),
		AutoGreenOverflow:    raw.intField("auto_green_overflow"),

		TeleopPurpleClassified: raw.intField("teleop_purple_classified"),
		TeleopGreenClassified:  raw.intField("teleop_green_classified"),
		TeleopPurpleOverflow:   raw.intField("teleop_purple_overflow"),
		TeleopGreenOverflow:    raw.intField("teleop_green_overflow"),

		PatternCompleted: raw.stringField("pattern_completed", ""),

		ClimbType:    raw.stringField("climb_type", ClimbNone),
		ClimbSuccess: raw.boolField("climb_success"),

		RobotDisabled: raw.stringField("robot_disabled", DisabledNone),

		AutoPath:  raw.pathField("auto_path"),
		AutoNotes: raw.stringField("auto_notes", ""),
		Notes:     raw.stringField("notes", ""),
	}
	return rec, nil
}

func (raw Raw) intField(key string) int {
	switch v := raw[key].(type) {
	case int:
		return v
	case int32:
		return int(v)
	case int64:
		return int(v)
	case float64:
		return int(v)
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

func (raw Raw) boolField(key string) bool {
	switch v := raw[key].(type) {
	case bool:
		return v
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "on", "1", "yes":
			return true
		}
		return false
	case float64:
		return v != 0
	case int:
		return v != 0
	default:
		return false
	}
}

func (raw Raw) stringField(key, def string) string {
	v, ok := raw[key]
	if !ok || v == nil {
		return def
	}
	s, ok := v.(string)
	if !ok {
		return def
	}
	return s
}

// pathField accepts both a decoded point list and a JSON-encoded string,
// since drawn paths are serialized client-side before submission.
func (raw Raw) pathField(key string) []PathPoint {
	switch v := raw[key].(type) {
	case []PathPoint:
		return v
	case []any:
		return decodePoints(v)
	case string:
		if strings.TrimSpace(v) == "" {
			return nil
		}
		var pts []PathPoint
		if err := json.Unmarshal([]byte(v), &pts); err != nil {
			return nil
		}
		return pts
	default:
		return nil
	}
}

func decodePoints(in []any) []PathPoint {
	pts := make([]PathPoint, 0, len(in))
	for _, e := range in {
		m, ok := e.(map[string]any)
		if !ok {
			continue
		}
		pts = append(pts, PathPoint{X: num(m["x"]), Y: num(m["y"])})
	}
	if len(pts) == 0 {
		return nil
	}
	return pts
}

func num(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}
