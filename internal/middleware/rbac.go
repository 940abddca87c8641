package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/hall-booking-api/internal/models"
	appErrors "github.com/noah-isme/hall-booking-api/pkg/errors"
	"github.com/noah-isme/hall-booking-api/pkg/response"
)

// RequireRoles admits the request only when the authenticated caller holds one
// of roles. It must run after JWT.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make(map[models.UserRole]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(c *gin.Context) {
		claims, ok := c.Get(ContextUserKey)
		typed, valid := claims.(*models.JWTClaims)
		if !ok || !valid || typed == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		if _, ok := allowed[typed.Role]; !ok {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "this action requires the administrator role"))
			c.Abort()
			return
		}
		c.Next()
	}
}
