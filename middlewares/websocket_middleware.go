package middlewares

import (
	"github.com/gin-gonic/gin"

	"github.com/tableside/tableside-app/services"
	"github.com/tableside/tableside-app/utils"
)

// WebSocketAuthMiddleware authenticates staff websocket upgrades. Browsers
// cannot set headers on websocket requests, so the token rides in the
// query string.
func WebSocketAuthMiddleware(identity *services.IdentityService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			c.AbortWithStatus(401)
			return
		}

		claims, err := utils.ParseToken(token)
		if err != nil {
			c.AbortWithStatus(401)
			return
		}

		user, err := identity.ResolvePrincipal(claims)
		if err != nil {
			c.AbortWithStatus(401)
			return
		}

		role := user.Role
		if membership, err := identity.ActiveTenant(user, claims.SessionID); err == nil && membership != nil {
			role = user.RoleIn(membership.RestaurantID)
		}

		c.Set("role", role)
		c.Set("user_id", user.ID)
		c.Set("session_id", claims.SessionID)

		c.Next()
	}
}
