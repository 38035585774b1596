// Package access holds the mutation permission rules. Decisions are pure:
// the caller resolves users and teams, this package only judges them.
package access

import (
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/cherriae/FTC-Castle/internal/domain/roster"
)

// Action is a mutation kind being authorized.
type Action string

const (
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Denial reasons surfaced to callers.
const (
	ReasonNotTeamAdmin = "not a team admin"
	ReasonNotSameTeam  = "not same team"
)

// Decision is the outcome of a permission check. Reason is set only when
// Allowed is false.
type Decision struct {
	Allowed bool
	Reason  string
}

func allow() Decision            { return Decision{Allowed: true} }
func deny(reason string) Decision { return Decision{Reason: reason} }

// CanMutate decides whether an actor may update or delete a record authored
// by owner. actorTeam is the actor's organization, nil when the actor has
// none. The rules, in order: the original author may always mutate; a
// teammate may mutate only as a verified admin or owner of the shared
// organization; everyone else is denied.
func CanMutate(actorID primitive.ObjectID, actor, owner *roster.User, actorTeam *roster.Team, _ Action) Decision {
	if owner != nil && owner.ID == actorID {
		return allow()
	}
	if actor != nil && actor.SameOrganization(owner) {
		if actorTeam != nil && actorTeam.IsAdmin(actorID) {
			return allow()
		}
		return deny(ReasonNotTeamAdmin)
	}
	return deny(ReasonNotSameTeam)
}
