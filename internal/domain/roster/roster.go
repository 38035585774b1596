// Package roster models observers and the organizations they belong to.
package roster

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Roles within a team, in ascending privilege.
const (
	RoleMember = "member"
	RoleAdmin  = "admin"
	RoleOwner  = "owner"
)

// User is an observer account. TeamNumber is nil for observers with no
// organization affiliation.
type User struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Username   string             `bson:"username" json:"username"`
	Email      string             `bson:"email" json:"email"`
	TeamNumber *int               `bson:"teamNumber,omitempty" json:"team_number,omitempty"`
	Role       string             `bson:"role" json:"role"`
}

// SameOrganization reports whether both users belong to the same team.
// Users without a team never share an organization, not even with each other.
func (u *User) SameOrganization(other *User) bool {
	if u == nil || other == nil {
		return false
	}
	if u.TeamNumber == nil || other.TeamNumber == nil {
		return false
	}
	return *u.TeamNumber == *other.TeamNumber
}

// Team is an organization of observers. Admin and owner lists hold user
// object IDs in hex form, matching how the membership documents are stored.
type Team struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TeamNumber int                `bson:"team_number" json:"team_number"`
	Name       string             `bson:"team_name" json:"team_name"`
	OwnerID    string             `bson:"owner_id" json:"owner_id"`
	Admins     []string           `bson:"admins" json:"admins"`
}

// IsOwner reports whether the user owns the team.
func (t *Team) IsOwner(userID primitive.ObjectID) bool {
	if t == nil {
		return false
	}
	return t.OwnerID == userID.Hex()
}

// IsAdmin reports whether the user is a team admin or the team owner.
func (t *Team) IsAdmin(userID primitive.ObjectID) bool {
	if t == nil {
		return false
	}
	if t.IsOwner(userID) {
		return true
	}
	hex := userID.Hex()
	for _, a := range t.Admins {
		if a == hex {
			return true
		}
	}
	return false
}
