// Package seed generates realistic fixture data and pushes it through the
// full submission path, for local development and load checks.
package seed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/cherriae/FTC-Castle/internal/app"
	"github.com/cherriae/FTC-Castle/internal/domain/record"
	"github.com/cherriae/FTC-Castle/internal/domain/roster"
	"github.com/cherriae/FTC-Castle/pkg/logger"
)

// Config controls a seeding run.
type Config struct {
	Organizations   int
	UsersPerOrg     int
	Events          int
	MatchesPerEvent int
	Seed            int64
}

// Seeder registers fixture observers and organizations before records flow
// through the service. Both store backends implement it.
type Seeder interface {
	SeedUser(ctx context.Context, u *roster.User) error
	SeedTeam(ctx context.Context, t *roster.Team) error
}

var climbTypes = []string{
	record.ClimbNone, record.ClimbPark, record.ClimbComplete, record.ClimbStackedPark,
}

var disabledStates = []string{
	record.DisabledNone, record.DisabledNone, record.DisabledNone, record.DisabledPartially, record.DisabledFull,
}

// Run seeds organizations, observers, and one submission per observer per
// match slot. Duplicate and capacity rejections are expected once slots
// fill; they are counted, not treated as failures.
func Run(ctx context.Context, svc *app.Service, store Seeder, cfg Config) error {
	if cfg.Organizations < 1 || cfg.UsersPerOrg < 1 || cfg.Events < 1 || cfg.MatchesPerEvent < 1 {
		return errors.New("all counts must be positive")
	}
	faker := gofakeit.New(uint64(cfg.Seed))
	log := logger.Get()

	var observers []*roster.User
	for o := 0; o < cfg.Organizations; o++ {
		orgNumber := 100 + o
		owner := fixtureUser(faker, orgNumber, roster.RoleOwner)
		team := &roster.Team{
			ID:         primitive.NewObjectID(),
			TeamNumber: orgNumber,
			Name:       faker.Company(),
			OwnerID:    owner.ID.Hex(),
		}
		if err := store.SeedUser(ctx, owner); err != nil {
			return fmt.Errorf("seed owner: %w", err)
		}
		observers = append(observers, owner)

		for u := 1; u < cfg.UsersPerOrg; u++ {
			role := roster.RoleMember
			if u == 1 {
				role = roster.RoleAdmin
			}
			member := fixtureUser(faker, orgNumber, role)
			if role == roster.RoleAdmin {
				team.Admins = append(team.Admins, member.ID.Hex())
			}
			if err := store.SeedUser(ctx, member); err != nil {
				return fmt.Errorf("seed member: %w", err)
			}
			observers = append(observers, member)
		}
		if err := store.SeedTeam(ctx, team); err != nil {
			return fmt.Errorf("seed team: %w", err)
		}
	}

	var accepted, rejected int
	start := time.Now()
	for e := 0; e < cfg.Events; e++ {
		eventCode := fmt.Sprintf("US%s%s%d", faker.LetterN(2), faker.LetterN(2), faker.Number(1, 9))
		for m := 1; m <= cfg.MatchesPerEvent; m++ {
			for i, observer := range observers {
				raw := fixtureRecord(faker, eventCode, m, i)
				_, err := svc.Submit(ctx, raw, observer.ID, uuid.NewString())
				switch {
				case err == nil:
					accepted++
				case isExpectedRejection(err):
					rejected++
				default:
					return fmt.Errorf("submit: %w", err)
				}
			}
		}
	}

	log.Info(ctx, "seeding complete",
		logger.Int("accepted", accepted),
		logger.Int("rejected", rejected),
		logger.String("elapsed", time.Since(start).String()))
	return nil
}

func isExpectedRejection(err error) bool {
	var dup *app.DuplicateError
	var full *app.AllianceFullError
	return errors.As(err, &dup) || errors.As(err, &full) || errors.Is(err, app.ErrRateLimited)
}

func fixtureUser(faker *gofakeit.Faker, orgNumber int, role string) *roster.User {
	team := orgNumber
	return &roster.User{
		ID:         primitive.NewObjectID(),
		Username:   faker.Username(),
		Email:      faker.Email(),
		TeamNumber: &team,
		Role:       role,
	}
}

func fixtureRecord(faker *gofakeit.Faker, eventCode string, matchNumber, slot int) record.Raw {
	alliance := record.AllianceRed
	if slot%2 == 1 {
		alliance = record.AllianceBlue
	}
	return record.Raw{
		"team_number":  faker.Number(1, 20000),
		"event_code":   eventCode,
		"match_number": matchNumber,
		"alliance":     alliance,

		"auto_purple_classified": faker.Number(0, 6),
		"auto_green_classified":  faker.Number(0, 6),
		"auto_purple_overflow":   faker.Number(0, 3),
		"auto_green_overflow":    faker.Number(0, 3),

		"teleop_purple_classified": faker.Number(0, 12),
		"teleop_green_classified":  faker.Number(0, 12),
		"teleop_purple_overflow":   faker.Number(0, 6),
		"teleop_green_overflow":    faker.Number(0, 6),

		"pattern_completed": faker.RandomString([]string{"", "partial", "full"}),
		"climb_type":        faker.RandomString(climbTypes),
		"climb_success":     faker.Bool(),
		"robot_disabled":    faker.RandomString(disabledStates),

		"auto_notes": faker.Sentence(6),
		"notes":      faker.Sentence(10),
	}
}
