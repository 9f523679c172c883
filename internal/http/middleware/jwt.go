package middleware

import (
	"net/http"
	"strings"

	"taskboard/internal/service"

	"github.com/gin-gonic/gin"
)

// SubjectKey - ключ в gin.Context, куда кладём subject из токена
const SubjectKey = "subject"

// JWT requires a valid bearer token. Disabled means the API is open
// (single-user, local setup without AUTH_PASSWORD).
func JWT(enabled bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !enabled {
			c.Next()
			return
		}

		auth := c.GetHeader("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}

		subject, err := service.ParseJWT(strings.TrimPrefix(auth, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Set(SubjectKey, subject)
		c.Next()
	}
}
