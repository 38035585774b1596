package app_test

import (
	"context"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/cherriae/FTC-Castle/internal/adapters/repository"
	"github.com/cherriae/FTC-Castle/internal/app"
	"github.com/cherriae/FTC-Castle/internal/domain/access"
	"github.com/cherriae/FTC-Castle/internal/domain/record"
	"github.com/cherriae/FTC-Castle/internal/domain/roster"
	"github.com/cherriae/FTC-Castle/internal/domain/stats"
	"github.com/cherriae/FTC-Castle/pkg/logger"
)

func init() {
	// Initialize logging for tests
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

type fixture struct {
	store *repository.MemStore
	svc   *app.Service

	orgA, orgB int

	alice *roster.User // org A owner
	adam  *roster.User // org A admin
	amy   *roster.User // org A member
	bella *roster.User // org B member
	loner *roster.User // no organization
}

func newFixture(opts ...app.Option) *fixture {
	f := &fixture{
		store: repository.NewMemStore(),
		orgA:  8569,
		orgB:  1234,
	}
	f.alice = f.seedUser("alice", &f.orgA)
	f.adam = f.seedUser("adam", &f.orgA)
	f.amy = f.seedUser("amy", &f.orgA)
	f.bella = f.seedUser("bella", &f.orgB)
	f.loner = f.seedUser("loner", nil)

	_ = f.store.SeedTeam(context.Background(), &roster.Team{
		ID:         primitive.NewObjectID(),
		TeamNumber: f.orgA,
		Name:       "Quantum Mechanics",
		OwnerID:    f.alice.ID.Hex(),
		Admins:     []string{f.adam.ID.Hex()},
	})
	_ = f.store.SeedTeam(context.Background(), &roster.Team{
		ID:         primitive.NewObjectID(),
		TeamNumber: f.orgB,
		Name:       "Gear Grinders",
		OwnerID:    f.bella.ID.Hex(),
	})

	opts = append([]app.Option{app.WithRetry(3, time.Millisecond)}, opts...)
	f.svc = app.New(f.store, opts...)
	return f
}

func (f *fixture) seedUser(username string, team *int) *roster.User {
	u := &roster.User{
		ID:         primitive.NewObjectID(),
		Username:   username,
		TeamNumber: team,
	}
	_ = f.store.SeedUser(context.Background(), u)
	return u
}

func submission(team, match int, mutate func(record.Raw)) record.Raw {
	raw := record.Raw{
		"team_number":  team,
		"event_code":   "USNYNYBRQ3",
		"match_number": match,
		"alliance":     "red",
	}
	if mutate != nil {
		mutate(raw)
	}
	return raw
}

func TestSubmit(t *testing.T) {
	Convey("Given a service over a seeded roster", t, func() {
		f := newFixture()
		ctx := context.Background()

		Convey("A valid submission is stored with coerced values", func() {
			id, err := f.svc.Submit(ctx, submission(1234, 5, func(raw record.Raw) {
				raw["auto_purple_classified"] = "3"
				raw["climb_success"] = "on"
			}), f.alice.ID, "")

			So(err, ShouldBeNil)
			So(id.IsZero(), ShouldBeFalse)

			recs, err := f.svc.ListRecords(ctx, f.alice.ID, repository.Filter{
				EventCode: "USNYNYBRQ3", MatchNumber: 5, TeamNumber: 1234,
			})
			So(err, ShouldBeNil)
			So(len(recs), ShouldEqual, 1)
			So(recs[0].AutoPurpleClassified, ShouldEqual, 3)
			So(recs[0].ClimbSuccess, ShouldBeTrue)
			So(recs[0].IsOwner, ShouldBeTrue)
			So(recs[0].CreatedAt.IsZero(), ShouldBeFalse)
		})

		Convey("A submission without an alliance lands on red", func() {
			id, err := f.svc.Submit(ctx, submission(1234, 5, func(raw record.Raw) {
				delete(raw, "alliance")
			}), f.alice.ID, "")

			So(err, ShouldBeNil)
			rec, err := f.svc.GetRecord(ctx, id, f.alice.ID)
			So(err, ShouldBeNil)
			So(rec.Alliance, ShouldEqual, record.AllianceRed)
		})

		Convey("A bad team number is rejected with a validation error", func() {
			_, err := f.svc.Submit(ctx, submission(-1, 5, nil), f.alice.ID, "")
			So(err, ShouldEqual, record.ErrInvalidTeamNumber)
		})

		Convey("With an existing record for the slot", func() {
			_, err := f.svc.Submit(ctx, submission(1234, 5, nil), f.alice.ID, "")
			So(err, ShouldBeNil)

			Convey("A same-organization resubmission is a duplicate", func() {
				_, err := f.svc.Submit(ctx, submission(1234, 5, nil), f.adam.ID, "")

				var dup *app.DuplicateError
				So(err, ShouldHaveSameTypeAs, dup)
				So(err.Error(), ShouldContainSubstring, "1234")
				So(err.Error(), ShouldContainSubstring, "5")
			})

			Convey("A different organization may scout the same slot", func() {
				_, err := f.svc.Submit(ctx, submission(1234, 5, func(raw record.Raw) {
					raw["alliance"] = "blue"
				}), f.bella.ID, "")
				So(err, ShouldBeNil)
			})
		})

		Convey("An alliance side holds at most three teams per match", func() {
			observers := []*roster.User{f.alice, f.bella, f.loner}
			for i, obs := range observers {
				_, err := f.svc.Submit(ctx, submission(100+i, 7, nil), obs.ID, "")
				So(err, ShouldBeNil)
			}

			_, err := f.svc.Submit(ctx, submission(999, 7, nil), f.amy.ID, "")

			var full *app.AllianceFullError
			So(err, ShouldHaveSameTypeAs, full)

			Convey("But the other side is still open", func() {
				_, err := f.svc.Submit(ctx, submission(999, 7, func(raw record.Raw) {
					raw["alliance"] = "blue"
				}), f.amy.ID, "")
				So(err, ShouldBeNil)
			})
		})

		Convey("An unknown observer cannot submit", func() {
			_, err := f.svc.Submit(ctx, submission(1234, 5, nil), primitive.NewObjectID(), "")
			So(err, ShouldEqual, app.ErrUnknownObserver)
		})

		Convey("A replayed submission token is rejected", func() {
			_, err := f.svc.Submit(ctx, submission(1234, 5, nil), f.alice.ID, "tok-1")
			So(err, ShouldBeNil)

			_, err = f.svc.Submit(ctx, submission(4321, 6, nil), f.alice.ID, "tok-1")
			So(err, ShouldEqual, app.ErrAlreadySubmitted)
		})

		Convey("A token from a rejected submission may be reused", func() {
			_, err := f.svc.Submit(ctx, submission(-1, 5, nil), f.alice.ID, "tok-2")
			So(err, ShouldEqual, record.ErrInvalidTeamNumber)

			_, err = f.svc.Submit(ctx, submission(1234, 5, nil), f.alice.ID, "tok-2")
			So(err, ShouldBeNil)
		})
	})
}

// flakyStore fails Insert with a transient error a fixed number of times.
type flakyStore struct {
	*repository.MemStore

	mu       sync.Mutex
	failures int
	inserts  int
}

func (s *flakyStore) Insert(ctx context.Context, rec *record.Record) (primitive.ObjectID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failures > 0 {
		s.failures--
		return primitive.NilObjectID, mongo.ErrClientDisconnected
	}
	s.inserts++
	return s.MemStore.Insert(ctx, rec)
}

func TestSubmitRetryIdempotence(t *testing.T) {
	Convey("Given a store whose first insert attempt fails transiently", t, func() {
		f := newFixture()
		flaky := &flakyStore{MemStore: f.store, failures: 1}
		svc := app.New(flaky, app.WithRetry(3, time.Millisecond))
		ctx := context.Background()

		Convey("A single logical submission inserts exactly one record", func() {
			id, err := svc.Submit(ctx, submission(1234, 5, nil), f.alice.ID, "tok-retry")

			So(err, ShouldBeNil)
			So(id.IsZero(), ShouldBeFalse)
			So(flaky.inserts, ShouldEqual, 1)

			n, err := flaky.Count(ctx)
			So(err, ShouldBeNil)
			So(n, ShouldEqual, 1)

			Convey("And a client-side replay of the token does not add another", func() {
				_, err := svc.Submit(ctx, submission(1234, 5, nil), f.alice.ID, "tok-retry")
				So(err, ShouldEqual, app.ErrAlreadySubmitted)

				n, _ := flaky.Count(ctx)
				So(n, ShouldEqual, 1)
			})
		})

		Convey("Exhausted retries surface the generic internal outcome", func() {
			flaky.failures = 10
			_, err := svc.Submit(ctx, submission(1234, 5, nil), f.alice.ID, "tok-exhausted")

			So(err, ShouldEqual, app.ErrInternal)

			Convey("And the token is freed for a later retry", func() {
				flaky.failures = 0
				_, err := svc.Submit(ctx, submission(1234, 5, nil), f.alice.ID, "tok-exhausted")
				So(err, ShouldBeNil)
			})
		})
	})
}

func TestSubmitRateLimit(t *testing.T) {
	Convey("Given a service with a tight submit rate", t, func() {
		f := newFixture(app.WithSubmitRate(1, 2))
		ctx := context.Background()

		Convey("Submissions beyond the burst are rejected", func() {
			_, err := f.svc.Submit(ctx, submission(1, 1, nil), f.alice.ID, "")
			So(err, ShouldBeNil)
			_, err = f.svc.Submit(ctx, submission(2, 1, func(raw record.Raw) {
				raw["alliance"] = "blue"
			}), f.alice.ID, "")
			So(err, ShouldBeNil)

			_, err = f.svc.Submit(ctx, submission(3, 2, nil), f.alice.ID, "")
			So(err, ShouldEqual, app.ErrRateLimited)

			Convey("Other observers are unaffected", func() {
				_, err := f.svc.Submit(ctx, submission(3, 2, nil), f.bella.ID, "")
				So(err, ShouldBeNil)
			})
		})
	})
}

func TestCanMutateAndUpdate(t *testing.T) {
	Convey("Given a record authored by an organization member", t, func() {
		f := newFixture()
		ctx := context.Background()

		id, err := f.svc.Submit(ctx, submission(1234, 5, nil), f.amy.ID, "")
		So(err, ShouldBeNil)

		Convey("CanMutate allows the author", func() {
			d, err := f.svc.CanMutate(ctx, f.amy.ID, id, access.ActionUpdate)
			So(err, ShouldBeNil)
			So(d.Allowed, ShouldBeTrue)
		})

		Convey("CanMutate allows a verified team admin", func() {
			d, err := f.svc.CanMutate(ctx, f.adam.ID, id, access.ActionDelete)
			So(err, ShouldBeNil)
			So(d.Allowed, ShouldBeTrue)
		})

		Convey("CanMutate denies an unrelated observer with a reason", func() {
			d, err := f.svc.CanMutate(ctx, f.bella.ID, id, access.ActionUpdate)
			So(err, ShouldBeNil)
			So(d.Allowed, ShouldBeFalse)
			So(d.Reason, ShouldEqual, access.ReasonNotSameTeam)
		})

		Convey("CanMutate reports a missing record as not found", func() {
			_, err := f.svc.CanMutate(ctx, f.amy.ID, primitive.NewObjectID(), access.ActionUpdate)
			So(err, ShouldEqual, app.ErrNotFound)
		})

		Convey("Update by the author persists the patch", func() {
			modified, err := f.svc.Update(ctx, id, submission(1234, 5, func(raw record.Raw) {
				raw["notes"] = "solid cycle times"
			}), f.amy.ID)

			So(err, ShouldBeNil)
			So(modified, ShouldBeTrue)

			got, err := f.svc.GetRecord(ctx, id, f.amy.ID)
			So(err, ShouldBeNil)
			So(got.Notes, ShouldEqual, "solid cycle times")
			So(got.LastEditedBy, ShouldNotBeNil)
		})

		Convey("Update on a nonexistent id reports false", func() {
			modified, err := f.svc.Update(ctx, primitive.NewObjectID(), submission(1234, 5, nil), f.amy.ID)
			So(err, ShouldBeNil)
			So(modified, ShouldBeFalse)
		})

		Convey("Update by a denied observer reports false without touching the record", func() {
			modified, err := f.svc.Update(ctx, id, submission(1234, 5, func(raw record.Raw) {
				raw["notes"] = "vandalism"
			}), f.bella.ID)

			So(err, ShouldBeNil)
			So(modified, ShouldBeFalse)

			got, err := f.svc.GetRecord(ctx, id, f.amy.ID)
			So(err, ShouldBeNil)
			So(got.Notes, ShouldEqual, "")
		})

		Convey("Update cannot move a record into a full alliance", func() {
			// Fill blue for match 5 with three records from org B and the loner.
			for i, obs := range []*roster.User{f.bella, f.loner} {
				_, err := f.svc.Submit(ctx, submission(200+i, 5, func(raw record.Raw) {
					raw["alliance"] = "blue"
				}), obs.ID, "")
				So(err, ShouldBeNil)
			}
			thirdID, err := f.svc.Submit(ctx, submission(202, 5, func(raw record.Raw) {
				raw["alliance"] = "blue"
			}), f.adam.ID, "")
			So(err, ShouldBeNil)

			patch := submission(1234, 5, func(raw record.Raw) {
				raw["alliance"] = "blue"
			})
			_, err = f.svc.Update(ctx, id, patch, f.amy.ID)

			var full *app.AllianceFullError
			So(err, ShouldHaveSameTypeAs, full)

			Convey("And succeeds once a member is removed", func() {
				deleted, err := f.svc.Delete(ctx, thirdID, f.adam.ID, false)
				So(err, ShouldBeNil)
				So(deleted, ShouldBeTrue)

				modified, err := f.svc.Update(ctx, id, patch, f.amy.ID)
				So(err, ShouldBeNil)
				So(modified, ShouldBeTrue)
			})
		})
	})
}

func TestDelete(t *testing.T) {
	Convey("Given a record authored by an organization member", t, func() {
		f := newFixture()
		ctx := context.Background()

		id, err := f.svc.Submit(ctx, submission(1234, 5, nil), f.amy.ID, "")
		So(err, ShouldBeNil)

		Convey("The author may delete", func() {
			deleted, err := f.svc.Delete(ctx, id, f.amy.ID, false)
			So(err, ShouldBeNil)
			So(deleted, ShouldBeTrue)
		})

		Convey("A non-admin non-owner call leaves the record intact", func() {
			deleted, err := f.svc.Delete(ctx, id, f.bella.ID, false)
			So(err, ShouldBeNil)
			So(deleted, ShouldBeFalse)

			n, err := f.store.Count(ctx)
			So(err, ShouldBeNil)
			So(n, ShouldEqual, 1)
		})

		Convey("Admin override bypasses the organization checks", func() {
			deleted, err := f.svc.Delete(ctx, id, f.bella.ID, true)
			So(err, ShouldBeNil)
			So(deleted, ShouldBeTrue)
		})

		Convey("A nonexistent id reports false", func() {
			deleted, err := f.svc.Delete(ctx, primitive.NewObjectID(), f.amy.ID, false)
			So(err, ShouldBeNil)
			So(deleted, ShouldBeFalse)
		})
	})
}

func TestAnalytics(t *testing.T) {
	Convey("Given submissions across organizations", t, func() {
		f := newFixture()
		ctx := context.Background()

		// Org A scouts teams 1 and 2; org B scouts team 9.
		_, err := f.svc.Submit(ctx, submission(1, 1, func(raw record.Raw) {
			raw["teleop_purple_classified"] = 10
		}), f.alice.ID, "")
		So(err, ShouldBeNil)
		_, err = f.svc.Submit(ctx, submission(1, 2, func(raw record.Raw) {
			raw["teleop_purple_classified"] = 6
		}), f.adam.ID, "")
		So(err, ShouldBeNil)
		_, err = f.svc.Submit(ctx, submission(2, 1, func(raw record.Raw) {
			raw["alliance"] = "blue"
			raw["auto_green_classified"] = 4
		}), f.amy.ID, "")
		So(err, ShouldBeNil)
		_, err = f.svc.Submit(ctx, submission(9, 3, nil), f.bella.ID, "")
		So(err, ShouldBeNil)

		Convey("The team leaderboard only covers visible records", func() {
			rows, err := f.svc.TeamLeaderboard(ctx, f.alice.ID, stats.LeaderboardOptions{SortBy: stats.SortTotal})
			So(err, ShouldBeNil)
			So(len(rows), ShouldEqual, 2)
			So(rows[0].TeamNumber, ShouldEqual, 1)
			So(rows[0].MatchesPlayed, ShouldEqual, 2)
			So(rows[0].TotalTeleop, ShouldEqual, 8)

			rowsB, err := f.svc.TeamLeaderboard(ctx, f.bella.ID, stats.LeaderboardOptions{})
			So(err, ShouldBeNil)
			So(len(rowsB), ShouldEqual, 1)
			So(rowsB[0].TeamNumber, ShouldEqual, 9)
		})

		Convey("The scouter leaderboard joins observer names", func() {
			rows, err := f.svc.ScouterLeaderboard(ctx, f.alice.ID, stats.ScouterOptions{})
			So(err, ShouldBeNil)
			So(len(rows), ShouldEqual, 3)
			for _, row := range rows {
				So(row.MatchCount, ShouldEqual, 1)
				So(row.Username, ShouldNotBeEmpty)
			}
		})

		Convey("Comparison requires two or three teams", func() {
			_, err := f.svc.CompareTeams(ctx, f.alice.ID, []int{1})
			So(err, ShouldEqual, app.ErrCompareCount)

			results, err := f.svc.CompareTeams(ctx, f.alice.ID, []int{1, 2})
			So(err, ShouldBeNil)
			So(len(results), ShouldEqual, 2)
			So(results[0].TeamNumber, ShouldEqual, 1)
			So(results[0].TeleopScoring, ShouldEqual, 0.4)

			Convey("Teams with no visible records are omitted", func() {
				results, err := f.svc.CompareTeams(ctx, f.alice.ID, []int{1, 9})
				So(err, ShouldBeNil)
				So(len(results), ShouldEqual, 1)
			})
		})

		Convey("Event and team views follow visibility", func() {
			events, err := f.svc.Events(ctx, f.alice.ID)
			So(err, ShouldBeNil)
			So(len(events), ShouldEqual, 1)
			So(events[0].Count, ShouldEqual, 3)

			has, err := f.svc.HasTeamData(ctx, f.alice.ID, 9)
			So(err, ShouldBeNil)
			So(has, ShouldBeFalse)

			matches, err := f.svc.TeamMatches(ctx, f.alice.ID, 1)
			So(err, ShouldBeNil)
			So(len(matches), ShouldEqual, 2)
			So(matches[0].MatchNumber, ShouldEqual, 1)
		})

		Convey("GetRecord hides other organizations' records", func() {
			recs, err := f.svc.ListRecords(ctx, f.bella.ID, repository.Filter{})
			So(err, ShouldBeNil)
			So(len(recs), ShouldEqual, 1)

			_, err = f.svc.GetRecord(ctx, recs[0].ID, f.alice.ID)
			So(err, ShouldEqual, app.ErrNotFound)

			got, err := f.svc.GetRecord(ctx, recs[0].ID, f.bella.ID)
			So(err, ShouldBeNil)
			So(got.IsOwner, ShouldBeTrue)
		})
	})
}
