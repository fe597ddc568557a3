package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/tableside/tableside-app/apperrors"
	"github.com/tableside/tableside-app/models"
	"github.com/tableside/tableside-app/services"
)

// requestIdentity bundles everything a staff handler needs about the
// caller: the principal, their active restaurant and the actor to hand to
// the services.
type requestIdentity struct {
	User       *models.User
	Membership *models.Membership
	Actor      services.Actor
}

// resolveIdentity reads the principal set by the auth middleware and picks
// the session's active restaurant. Fails when the user belongs to no
// restaurant yet; the client should send them to the creation flow.
func resolveIdentity(c *gin.Context, identity *services.IdentityService) (*requestIdentity, error) {
	userVal, exists := c.Get("user")
	if !exists {
		return nil, apperrors.ErrUnauthorized
	}
	user := userVal.(*models.User)
	sessionID := c.GetString("session_id")

	membership, err := identity.ActiveTenant(user, sessionID)
	if err != nil {
		return nil, err
	}
	if membership == nil {
		return nil, apperrors.ErrNotAMember.WithMessage("you do not belong to any restaurant yet")
	}

	role := user.RoleIn(membership.RestaurantID)
	return &requestIdentity{
		User:       user,
		Membership: membership,
		Actor:      services.StaffActor(user.ID, role, user.Name),
	}, nil
}
