// Package repository defines the scouting record store interface and its
// document-store and in-memory implementations.
package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/cherriae/FTC-Castle/internal/domain/record"
	"github.com/cherriae/FTC-Castle/internal/domain/roster"
)

// Filter narrows ListRecords. Zero fields are ignored.
type Filter struct {
	EventCode   string
	MatchNumber int
	TeamNumber  int
	ScouterID   primitive.ObjectID
}

// RecordStore provides read/write access to scouting records. Read methods
// that return records join each record to its observer, populating the
// scouter_name and scouter_team fields.
type RecordStore interface {
	// Insert stores a new record and returns its identifier.
	Insert(ctx context.Context, rec *record.Record) (primitive.ObjectID, error)

	// Get returns one record with joined observer info.
	// Returns ErrRecordNotFound when the id is unknown.
	Get(ctx context.Context, id primitive.ObjectID) (*record.Record, error)

	// List returns the records visible to the viewer: their own, plus their
	// organization's if they have one, narrowed by the filter.
	List(ctx context.Context, viewer *roster.User, f Filter) ([]*record.Record, error)

	// HasOrganizationDuplicate reports whether a record for the same match
	// key was already submitted by an observer of the submitter's
	// organization (or by the submitter themselves when they have none).
	// exclude, when non-nil, names a record id to ignore.
	HasOrganizationDuplicate(ctx context.Context, key record.MatchKey, submitter *roster.User, exclude *primitive.ObjectID) (bool, error)

	// CountAlliance counts records already claiming an alliance side for a
	// match, optionally ignoring one record id.
	CountAlliance(ctx context.Context, eventCode string, matchNumber int, alliance string, exclude *primitive.ObjectID) (int, error)

	// Update overwrites a record's submitted fields and stamps the editor.
	// Returns whether a document was actually modified.
	Update(ctx context.Context, id primitive.ObjectID, rec *record.Record, editor primitive.ObjectID) (bool, error)

	// Delete removes a record. Returns whether a document was removed.
	Delete(ctx context.Context, id primitive.ObjectID) (bool, error)

	// Count returns the number of stored records.
	Count(ctx context.Context) (int64, error)
}

// UserDirectory is the read-only observer lookup consumed by permission and
// duplicate checks.
type UserDirectory interface {
	// UserByID returns an observer account, or ErrUserNotFound.
	UserByID(ctx context.Context, id primitive.ObjectID) (*roster.User, error)
}

// TeamDirectory is the read-only organization lookup.
type TeamDirectory interface {
	// TeamByNumber returns an organization, or ErrTeamNotFound.
	TeamByNumber(ctx context.Context, teamNumber int) (*roster.Team, error)
}

// Store bundles everything the service needs from persistence.
type Store interface {
	RecordStore
	UserDirectory
	TeamDirectory
}
