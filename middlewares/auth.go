package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"workouttribe/auth"
)

// UserIDKey is where Authenticate stores the resolved caller id.
const UserIDKey = "userId"

// Authenticate resolves the Authorization header and aborts with 401 when it
// does not carry a valid token.
func Authenticate(guard *auth.Guard) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := guard.Resolve(c.Request.Header.Get("Authorization"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Not authorized."})
			return
		}
		c.Set(UserIDKey, userID)
		c.Next()
	}
}

// UserID returns the id stored by Authenticate, or "" on public routes.
func UserID(c *gin.Context) string {
	return c.GetString(UserIDKey)
}
