package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// ClientIDKey is the gin context key the middleware stores the verified
// client identifier under.
const ClientIDKey = "client_id"

// Middleware enforces a bearer JWT on the request. Requests without a valid
// token get 401.
func Middleware(tokens *AuthToken) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "missing authorization header",
			})
			return
		}

		tokenString := strings.TrimPrefix(header, "Bearer ")
		if tokenString == header {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "authorization header must use bearer scheme",
			})
			return
		}

		ok, clientID, err := tokens.VerifyToken(tokenString)
		if err != nil || !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "invalid or expired token",
			})
			return
		}

		c.Set(ClientIDKey, clientID)
		c.Next()
	}
}
