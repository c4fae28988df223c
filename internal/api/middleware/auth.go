package middleware

import (
	"errors"
	"net/http"
	"strings"

	"ctchen222/tictactoe-relay/internal/api/response"
	"ctchen222/tictactoe-relay/internal/api/service"

	"github.com/gin-gonic/gin"
)

const SubjectKey = "admin.subject"

// RequireAdmin admits requests carrying a valid bearer token. When no admin
// secret is configured every request is refused with 403.
func RequireAdmin(auth *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !auth.Enabled() {
			response.AbortWithError(c, http.StatusForbidden, service.ErrAuthDisabled.Error())
			return
		}

		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			response.AbortWithError(c, http.StatusUnauthorized, "missing bearer token")
			return
		}

		claims, err := auth.ParseToken(token)
		if err != nil {
			status := http.StatusUnauthorized
			if errors.Is(err, service.ErrAuthDisabled) {
				status = http.StatusForbidden
			}
			response.AbortWithError(c, status, err.Error())
			return
		}

		c.Set(SubjectKey, claims.Subject)
		c.Next()
	}
}
