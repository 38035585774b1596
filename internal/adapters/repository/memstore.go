package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/cherriae/FTC-Castle/internal/domain/record"
	"github.com/cherriae/FTC-Castle/internal/domain/roster"
)

// MemStore is an in-memory Store implementation. It backs the "memory"
// store mode for local development and the service unit tests; it applies
// the same join and visibility semantics as the document store.
type MemStore struct {
	mu      sync.RWMutex
	records map[primitive.ObjectID]*record.Record
	users   map[primitive.ObjectID]*roster.User
	teams   map[int]*roster.Team
}

// NewMemStore builds an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{
		records: make(map[primitive.ObjectID]*record.Record),
		users:   make(map[primitive.ObjectID]*roster.User),
		teams:   make(map[int]*roster.Team),
	}
}

// SeedUser registers an observer account.
func (s *MemStore) SeedUser(_ context.Context, u *roster.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
	return nil
}

// SeedTeam registers an organization.
func (s *MemStore) SeedTeam(_ context.Context, t *roster.Team) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.teams[t.TeamNumber] = t
	return nil
}

// Insert stores a new record and returns its identifier.
func (s *MemStore) Insert(_ context.Context, rec *record.Record) (primitive.ObjectID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := rec.ID
	if id.IsZero() {
		id = primitive.NewObjectID()
	}
	stored := *rec
	stored.ID = id
	s.records[id] = &stored
	return id, nil
}

// joined returns a copy of the record with observer info flattened in, the
// same shape the document-store reads produce.
func (s *MemStore) joined(rec *record.Record) *record.Record {
	out := *rec
	if u, ok := s.users[rec.ScouterID]; ok {
		out.ScouterName = u.Username
		out.ScouterTeam = u.TeamNumber
	}
	return &out
}

// Get returns one record with joined observer info.
func (s *MemStore) Get(_ context.Context, id primitive.ObjectID) (*record.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return nil, ErrRecordNotFound
	}
	return s.joined(rec), nil
}

func (s *MemStore) visibleTo(viewer *roster.User, rec *record.Record) bool {
	if rec.ScouterID == viewer.ID {
		return true
	}
	if viewer.TeamNumber == nil {
		return false
	}
	scouter, ok := s.users[rec.ScouterID]
	if !ok || scouter.TeamNumber == nil {
		return false
	}
	return *scouter.TeamNumber == *viewer.TeamNumber
}

func matchesFilter(f Filter, rec *record.Record) bool {
	if f.EventCode != "" && rec.EventCode != f.EventCode {
		return false
	}
	if f.MatchNumber > 0 && rec.MatchNumber != f.MatchNumber {
		return false
	}
	if f.TeamNumber > 0 && rec.TeamNumber != f.TeamNumber {
		return false
	}
	if !f.ScouterID.IsZero() && rec.ScouterID != f.ScouterID {
		return false
	}
	return true
}

// List returns the records visible to the viewer, narrowed by the filter.
func (s *MemStore) List(_ context.Context, viewer *roster.User, f Filter) ([]*record.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*record.Record
	for _, rec := range s.records {
		if !s.visibleTo(viewer, rec) || !matchesFilter(f, rec) {
			continue
		}
		out = append(out, s.joined(rec))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].EventCode != out[j].EventCode {
			return out[i].EventCode < out[j].EventCode
		}
		return out[i].MatchNumber < out[j].MatchNumber
	})
	return out, nil
}

// HasOrganizationDuplicate reports whether the match key was already scouted
// from within the submitter's organization.
func (s *MemStore) HasOrganizationDuplicate(_ context.Context, key record.MatchKey, submitter *roster.User, exclude *primitive.ObjectID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for id, rec := range s.records {
		if exclude != nil && id == *exclude {
			continue
		}
		if rec.Key() != key {
			continue
		}
		if rec.ScouterID == submitter.ID {
			return true, nil
		}
		if submitter.TeamNumber == nil {
			continue
		}
		scouter, ok := s.users[rec.ScouterID]
		if ok && scouter.TeamNumber != nil && *scouter.TeamNumber == *submitter.TeamNumber {
			return true, nil
		}
	}
	return false, nil
}

// CountAlliance counts records already claiming an alliance side for a match.
func (s *MemStore) CountAlliance(_ context.Context, eventCode string, matchNumber int, alliance string, exclude *primitive.ObjectID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	for id, rec := range s.records {
		if exclude != nil && id == *exclude {
			continue
		}
		if rec.EventCode == eventCode && rec.MatchNumber == matchNumber && rec.Alliance == alliance {
			n++
		}
	}
	return n, nil
}

// Update overwrites a record's submitted fields and stamps the editor.
func (s *MemStore) Update(_ context.Context, id primitive.ObjectID, rec *record.Record, editor primitive.ObjectID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.records[id]
	if !ok {
		return false, nil
	}
	now := time.Now().UTC()
	updated := *rec
	updated.ID = id
	updated.ScouterID = existing.ScouterID
	updated.CreatedAt = existing.CreatedAt
	updated.LastEditedBy = &editor
	updated.LastEditedAt = &now
	s.records[id] = &updated
	return true, nil
}

// Delete removes a record.
func (s *MemStore) Delete(_ context.Context, id primitive.ObjectID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[id]; !ok {
		return false, nil
	}
	delete(s.records, id)
	return true, nil
}

// Count returns the number of stored records.
func (s *MemStore) Count(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.records)), nil
}

// UserByID returns an observer account.
func (s *MemStore) UserByID(_ context.Context, id primitive.ObjectID) (*roster.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return u, nil
}

// TeamByNumber returns an organization.
func (s *MemStore) TeamByNumber(_ context.Context, teamNumber int) (*roster.Team, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.teams[teamNumber]
	if !ok {
		return nil, ErrTeamNotFound
	}
	return t, nil
}
