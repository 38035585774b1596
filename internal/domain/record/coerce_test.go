package record_test

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/cherriae/FTC-Castle/internal/domain/record"
)

func TestFromRaw(t *testing.T) {
	Convey("Given a raw submission", t, func() {
		base := record.Raw{
			"team_number":  1234,
			"event_code":   "USNYNYBRQ3",
			"match_number": 5,
			"alliance":     "red",
		}

		Convey("When all identity fields are valid", func() {
			rec, err := base.FromRaw()

			Convey("Then it should produce a record with zeroed counters", func() {
				So(err, ShouldBeNil)
				So(rec.TeamNumber, ShouldEqual, 1234)
				So(rec.EventCode, ShouldEqual, "USNYNYBRQ3")
				So(rec.MatchNumber, ShouldEqual, 5)
				So(rec.Alliance, ShouldEqual, record.AllianceRed)
				So(rec.AutoPurpleClassified, ShouldEqual, 0)
				So(rec.TeleopGreenOverflow, ShouldEqual, 0)
				So(rec.ClimbSuccess, ShouldBeFalse)
				So(rec.ClimbType, ShouldEqual, record.ClimbNone)
				So(rec.RobotDisabled, ShouldEqual, record.DisabledNone)
			})
		})

		Convey("When numeric fields arrive as strings", func() {
			raw := record.Raw{
				"team_number":            "1234",
				"event_code":             "USNYNYBRQ3",
				"match_number":           "5",
				"alliance":               "Blue",
				"auto_purple_classified": "7",
				"teleop_green_overflow":  "not a number",
			}
			rec, err := raw.FromRaw()

			Convey("Then parseable values are kept and garbage becomes zero", func() {
				So(err, ShouldBeNil)
				So(rec.TeamNumber, ShouldEqual, 1234)
				So(rec.MatchNumber, ShouldEqual, 5)
				So(rec.Alliance, ShouldEqual, record.AllianceBlue)
				So(rec.AutoPurpleClassified, ShouldEqual, 7)
				So(rec.TeleopGreenOverflow, ShouldEqual, 0)
			})
		})

		Convey("When boolean fields arrive as form values", func() {
			for _, truthy := range []any{true, "true", "on", "1", "yes", 1} {
				raw := record.Raw{}
				for k, v := range base {
					raw[k] = v
				}
				raw["climb_success"] = truthy
				rec, err := raw.FromRaw()
				So(err, ShouldBeNil)
				So(rec.ClimbSuccess, ShouldBeTrue)
			}
			for _, falsy := range []any{false, "false", "off", "", nil, 0} {
				raw := record.Raw{}
				for k, v := range base {
					raw[k] = v
				}
				raw["climb_success"] = falsy
				rec, err := raw.FromRaw()
				So(err, ShouldBeNil)
				So(rec.ClimbSuccess, ShouldBeFalse)
			}
		})

		Convey("When the auto path arrives as a JSON string", func() {
			raw := record.Raw{}
			for k, v := range base {
				raw[k] = v
			}
			raw["auto_path"] = `[{"x":1.5,"y":2},{"x":3,"y":4.25}]`
			rec, err := raw.FromRaw()

			Convey("Then it should decode the points", func() {
				So(err, ShouldBeNil)
				So(len(rec.AutoPath), ShouldEqual, 2)
				So(rec.AutoPath[0].X, ShouldEqual, 1.5)
				So(rec.AutoPath[1].Y, ShouldEqual, 4.25)
			})
		})

		Convey("When the auto path arrives as a decoded list", func() {
			raw := record.Raw{}
			for k, v := range base {
				raw[k] = v
			}
			raw["auto_path"] = []any{
				map[string]any{"x": 1.0, "y": 2.0},
				map[string]any{"x": "3.5", "y": 4},
			}
			rec, err := raw.FromRaw()

			So(err, ShouldBeNil)
			So(len(rec.AutoPath), ShouldEqual, 2)
			So(rec.AutoPath[1].X, ShouldEqual, 3.5)
		})

		Convey("When the team number is missing or not positive", func() {
			for _, bad := range []any{nil, 0, -5, "zero"} {
				raw := record.Raw{
					"team_number":  bad,
					"event_code":   "USNYNYBRQ3",
					"match_number": 5,
					"alliance":     "red",
				}
				_, err := raw.FromRaw()
				So(err, ShouldEqual, record.ErrInvalidTeamNumber)
			}
		})

		Convey("When the alliance key is absent", func() {
			raw := record.Raw{
				"team_number":  1234,
				"event_code":   "USNYNYBRQ3",
				"match_number": 5,
			}
			rec, err := raw.FromRaw()

			Convey("Then the record defaults onto the red alliance", func() {
				So(err, ShouldBeNil)
				So(rec.Alliance, ShouldEqual, record.AllianceRed)
			})
		})

		Convey("When the alliance is not red or blue", func() {
			raw := record.Raw{}
			for k, v := range base {
				raw[k] = v
			}
			raw["alliance"] = "green"
			_, err := raw.FromRaw()

			So(err, ShouldEqual, record.ErrInvalidAlliance)
		})

		Convey("When the event code is blank", func() {
			raw := record.Raw{}
			for k, v := range base {
				raw[k] = v
			}
			raw["event_code"] = "   "
			_, err := raw.FromRaw()

			So(err, ShouldEqual, record.ErrMissingEventCode)
		})
	})
}
