package services

import "strconv"

// Actor identifies who is asking for a mutation. Staff actors carry the
// role they hold in the active restaurant; guest actors carry only their
// per-table contributor identity.
type Actor struct {
	Kind          string // "staff", "guest" or "system"
	UserID        uint
	Role          string
	Name          string
	ContributorID string
}

const (
	ActorStaff  = "staff"
	ActorGuest  = "guest"
	ActorSystem = "system"
)

func StaffActor(userID uint, role, name string) Actor {
	return Actor{Kind: ActorStaff, UserID: userID, Role: role, Name: name}
}

func GuestActor(contributorID, name string) Actor {
	return Actor{Kind: ActorGuest, ContributorID: contributorID, Name: name}
}

// SystemActor is used for transitions the machine triggers on itself, like
// freeing a table once its order completes.
var SystemActor = Actor{Kind: ActorSystem}

func (a Actor) auditID() string {
	switch a.Kind {
	case ActorStaff:
		return "user:" + strconv.FormatUint(uint64(a.UserID), 10)
	case ActorGuest:
		return "contributor:" + a.ContributorID
	default:
		return "system"
	}
}
