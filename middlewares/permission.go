package middlewares

import (
	"github.com/gin-gonic/gin"

	"github.com/tableside/tableside-app/apperrors"
	"github.com/tableside/tableside-app/auth"
	"github.com/tableside/tableside-app/utils"
)

// RequirePermission rejects the request unless the authenticated role
// carries the permission. Runs after AuthMiddleware. Services re-check
// against the membership role for the active restaurant; this gate keeps
// obviously unauthorized requests out of the handlers entirely.
func RequirePermission(perm auth.Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get("role")
		if !exists {
			utils.RespondAppError(c, apperrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if !auth.HasPermission(role.(string), perm) {
			utils.RespondAppError(c, apperrors.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}
