package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	mongoopts "go.mongodb.org/mongo-driver/mongo/options"

	"github.com/cherriae/FTC-Castle/internal/adapters/mongodb"
	"github.com/cherriae/FTC-Castle/internal/domain/record"
	"github.com/cherriae/FTC-Castle/internal/domain/roster"
)

// Collection names.
const (
	collectionRecords = "team_data"
	collectionUsers   = "users"
	collectionTeams   = "teams"
)

const opTimeout = 45 * time.Second

// MongoStore is the document-store implementation of Store.
type MongoStore struct {
	handle *mongodb.Handle
}

// NewMongoStore builds a MongoStore over a connected handle.
func NewMongoStore(handle *mongodb.Handle) *MongoStore {
	return &MongoStore{handle: handle}
}

func (s *MongoStore) records() *mongo.Collection { return s.handle.Collection(collectionRecords) }
func (s *MongoStore) users() *mongo.Collection   { return s.handle.Collection(collectionUsers) }
func (s *MongoStore) teams() *mongo.Collection   { return s.handle.Collection(collectionTeams) }

// EnsureIndexes creates the query indexes the read paths depend on. The
// compound match-key index is intentionally non-unique: two organizations
// may each hold a record for the same slot.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	_, err := s.records().Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "team_number", Value: 1}}},
		{Keys: bson.D{{Key: "scouter_id", Value: 1}}},
		{Keys: bson.D{
			{Key: "event_code", Value: 1},
			{Key: "match_number", Value: 1},
			{Key: "team_number", Value: 1},
		}},
	})
	if err != nil {
		return fmt.Errorf("create record indexes: %w", err)
	}
	_, err = s.teams().Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "team_number", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("create team index: %w", err)
	}
	return nil
}

// Insert stores a new record and returns its identifier.
func (s *MongoStore) Insert(ctx context.Context, rec *record.Record) (primitive.ObjectID, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := s.records().InsertOne(ctx, rec)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("insert record: %w", err)
	}
	id, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, fmt.Errorf("insert record: unexpected id type %T", res.InsertedID)
	}
	return id, nil
}

// scouterJoinStages joins each record to its observer and flattens the
// username and organization number into the record document.
func scouterJoinStages() []bson.D {
	return []bson.D{
		aggregationLookup(collectionUsers, "scouter_id", "_id", "scouter"),
		aggregationUnwind("$scouter"),
		aggregationAddFields(bson.M{
			"scouter_name": "$scouter.username",
			"scouter_team": "$scouter.teamNumber",
		}),
		aggregationProject(bson.M{"scouter": 0}),
	}
}

// visibilityMatch restricts joined records to those the viewer may see:
// their own, plus their organization's when they belong to one.
func visibilityMatch(viewer *roster.User) bson.D {
	if viewer.TeamNumber != nil {
		return aggregationMatch(bson.M{"$or": bson.A{
			bson.M{"scouter.teamNumber": *viewer.TeamNumber},
			bson.M{"scouter._id": viewer.ID},
		}})
	}
	return aggregationMatch(bson.M{"scouter._id": viewer.ID})
}

// Get returns one record with joined observer info.
func (s *MongoStore) Get(ctx context.Context, id primitive.ObjectID) (*record.Record, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	pipeline := append([]bson.D{aggregationMatch(bson.M{"_id": id})}, scouterJoinStages()...)
	cur, err := s.records().Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("get record: %w", err)
	}
	defer cur.Close(ctx)

	var recs []*record.Record
	if err := cur.All(ctx, &recs); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	if len(recs) == 0 {
		return nil, ErrRecordNotFound
	}
	return recs[0], nil
}

// List returns the records visible to the viewer, narrowed by the filter.
func (s *MongoStore) List(ctx context.Context, viewer *roster.User, f Filter) ([]*record.Record, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	pipeline := []bson.D{
		aggregationLookup(collectionUsers, "scouter_id", "_id", "scouter"),
		aggregationUnwind("$scouter"),
		visibilityMatch(viewer),
	}
	if cond := filterMatch(f); len(cond) > 0 {
		pipeline = append(pipeline, aggregationMatch(cond))
	}
	pipeline = append(pipeline,
		aggregationAddFields(bson.M{
			"scouter_name": "$scouter.username",
			"scouter_team": "$scouter.teamNumber",
		}),
		aggregationProject(bson.M{"scouter": 0}),
		aggregationSort(bson.D{
			{Key: "event_code", Value: 1},
			{Key: "match_number", Value: 1},
		}),
	)

	cur, err := s.records().Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer cur.Close(ctx)

	var recs []*record.Record
	if err := cur.All(ctx, &recs); err != nil {
		return nil, fmt.Errorf("decode records: %w", err)
	}
	return recs, nil
}

func filterMatch(f Filter) bson.M {
	cond := bson.M{}
	if f.EventCode != "" {
		cond["event_code"] = f.EventCode
	}
	if f.MatchNumber > 0 {
		cond["match_number"] = f.MatchNumber
	}
	if f.TeamNumber > 0 {
		cond["team_number"] = f.TeamNumber
	}
	if !f.ScouterID.IsZero() {
		cond["scouter_id"] = f.ScouterID
	}
	return cond
}

// HasOrganizationDuplicate reports whether the match key was already scouted
// from within the submitter's organization. Observers without an
// organization only conflict with their own prior submission.
func (s *MongoStore) HasOrganizationDuplicate(ctx context.Context, key record.MatchKey, submitter *roster.User, exclude *primitive.ObjectID) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	keyMatch := bson.M{
		"event_code":   key.EventCode,
		"match_number": key.MatchNumber,
		"team_number":  key.TeamNumber,
	}
	if exclude != nil {
		keyMatch["_id"] = bson.M{"$ne": *exclude}
	}

	var orgMatch bson.D
	if submitter.TeamNumber != nil {
		orgMatch = aggregationMatch(bson.M{"$or": bson.A{
			bson.M{"scouter.teamNumber": *submitter.TeamNumber},
			bson.M{"scouter._id": submitter.ID},
		}})
	} else {
		orgMatch = aggregationMatch(bson.M{"scouter._id": submitter.ID})
	}

	pipeline := []bson.D{
		aggregationMatch(keyMatch),
		aggregationLookup(collectionUsers, "scouter_id", "_id", "scouter"),
		aggregationUnwind("$scouter"),
		orgMatch,
		{bson.E{Key: "$limit", Value: 1}},
	}

	cur, err := s.records().Aggregate(ctx, pipeline)
	if err != nil {
		return false, fmt.Errorf("duplicate check: %w", err)
	}
	defer cur.Close(ctx)
	return cur.Next(ctx), cur.Err()
}

// CountAlliance counts records already claiming an alliance side for a match.
func (s *MongoStore) CountAlliance(ctx context.Context, eventCode string, matchNumber int, alliance string, exclude *primitive.ObjectID) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	filter := bson.M{
		"event_code":   eventCode,
		"match_number": matchNumber,
		"alliance":     alliance,
	}
	if exclude != nil {
		filter["_id"] = bson.M{"$ne": *exclude}
	}
	n, err := s.records().CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("count alliance: %w", err)
	}
	return int(n), nil
}

// Update overwrites a record's submitted fields in a single conditional
// write and stamps the editor.
func (s *MongoStore) Update(ctx context.Context, id primitive.ObjectID, rec *record.Record, editor primitive.ObjectID) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	set := bson.M{
		"team_number":  rec.TeamNumber,
		"event_code":   rec.EventCode,
		"match_number": rec.MatchNumber,
		"alliance":     rec.Alliance,

		"auto_purple_classified": rec.AutoPurpleClassified,
		"auto_green_classified":  rec.AutoGreenClassified,
		"auto_purple_overflow":   rec.AutoPurpleOverflow,
		"auto_green_overflow":    rec.AutoGreenOverflow,

		"teleop_purple_classified": rec.TeleopPurpleClassified,
		"teleop_green_classified":  rec.TeleopGreenClassified,
		"teleop_purple_overflow":   rec.TeleopPurpleOverflow,
		"teleop_green_overflow":    rec.TeleopGreenOverflow,

		"pattern_completed": rec.PatternCompleted,
		"climb_type":        rec.ClimbType,
		"climb_success":     rec.ClimbSuccess,
		"robot_disabled":    rec.RobotDisabled,
		"auto_path":         rec.AutoPath,
		"auto_notes":        rec.AutoNotes,
		"notes":             rec.Notes,

		"last_edited_by": editor,
		"last_edited_at": time.Now().UTC(),
	}

	res, err := s.records().UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return false, fmt.Errorf("update record: %w", err)
	}
	return res.ModifiedCount > 0, nil
}

// Delete removes a record.
func (s *MongoStore) Delete(ctx context.Context, id primitive.ObjectID) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := s.records().DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, fmt.Errorf("delete record: %w", err)
	}
	return res.DeletedCount > 0, nil
}

// Count returns the number of stored records.
func (s *MongoStore) Count(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	n, err := s.records().CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return n, nil
}

// UserByID returns an observer account.
func (s *MongoStore) UserByID(ctx context.Context, id primitive.ObjectID) (*roster.User, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var u roster.User
	err := s.users().FindOne(ctx, bson.M{"_id": id}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &u, nil
}

// TeamByNumber returns an organization.
func (s *MongoStore) TeamByNumber(ctx context.Context, teamNumber int) (*roster.Team, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var t roster.Team
	err := s.teams().FindOne(ctx, bson.M{"team_number": teamNumber}).Decode(&t)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrTeamNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find team: %w", err)
	}
	return &t, nil
}

// SeedUser inserts or replaces an observer document. Used by tooling and
// integration tests, not by the service itself.
func (s *MongoStore) SeedUser(ctx context.Context, u *roster.User) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	opts := mongoopts.Replace().SetUpsert(true)
	_, err := s.users().ReplaceOne(ctx, bson.M{"_id": u.ID}, u, opts)
	if err != nil {
		return fmt.Errorf("seed user: %w", err)
	}
	return nil
}

// SeedTeam inserts or replaces an organization document.
func (s *MongoStore) SeedTeam(ctx context.Context, t *roster.Team) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	opts := mongoopts.Replace().SetUpsert(true)
	_, err := s.teams().ReplaceOne(ctx, bson.M{"team_number": t.TeamNumber}, t, opts)
	if err != nil {
		return fmt.Errorf("seed team: %w", err)
	}
	return nil
}
