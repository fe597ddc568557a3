package middlewares

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tableside/tableside-app/apperrors"
	"github.com/tableside/tableside-app/services"
	"github.com/tableside/tableside-app/utils"
)

// AuthMiddleware checks the Bearer token and loads the principal onto the
// context. Everything behind it can rely on "user", "role" and
// "session_id" being set.
func AuthMiddleware(identity *services.IdentityService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.RespondAppError(c, apperrors.ErrUnauthorized.WithMessage("authorization header missing"))
			c.Abort()
			return
		}
		if !strings.HasPrefix(authHeader, "Bearer ") {
			utils.RespondAppError(c, apperrors.ErrUnauthorized.WithMessage("invalid token format"))
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		claims, err := utils.ParseToken(tokenString)
		if err != nil {
			utils.RespondAppError(c, apperrors.ErrUnauthorized.WithMessage(err.Error()))
			c.Abort()
			return
		}

		user, err := identity.ResolvePrincipal(claims)
		if err != nil {
			utils.RespondAppError(c, err)
			c.Abort()
			return
		}

		// The effective role is the one held in the session's active
		// restaurant, not the global account role.
		role := user.Role
		if membership, err := identity.ActiveTenant(user, claims.SessionID); err == nil && membership != nil {
			role = user.RoleIn(membership.RestaurantID)
		}

		c.Set("user", user)
		c.Set("user_id", user.ID)
		c.Set("role", role)
		c.Set("session_id", claims.SessionID)
		c.Set("token", tokenString)
		c.Next()
	}
}
