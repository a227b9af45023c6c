package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/libertyblog/api/internal/domain/repository"
	"github.com/libertyblog/api/pkg/response"
)

// RequireStaff allows only staff or superuser accounts through. Must run
// after Auth so userID is present in the context.
func RequireStaff(users repository.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := c.GetString("userID")
		if uid == "" {
			response.Error[any](c, http.StatusUnauthorized, "missing access token", nil)
			c.Abort()
			return
		}
		u, err := users.GetByID(uid)
		if err != nil || u == nil || !u.IsAdmin() {
			response.Error[any](c, http.StatusForbidden, "staff access required", nil)
			c.Abort()
			return
		}
		c.Next()
	}
}
