package identity

import (
	"net/http"
	"strings"

	dmn "github.com/beka-birhanu/vinom-arena/identity"
	"github.com/beka-birhanu/vinom-arena/service/i"
	"github.com/gin-gonic/gin"
)

const (
	// ContextUserClaims is the key used to store operator claims in the Gin context.
	ContextUserClaims = "userClaims"
)

// Authoriz admits requests carrying a valid operator bearer token.
func Authoriz(ts i.Tokenizer) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Status(http.StatusUnauthorized) // No token found in the header.
			c.Abort()
			return
		}

		// Split the "Bearer" prefix from the token.
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			c.Status(http.StatusUnauthorized) // Malformed Authorization header.
			c.Abort()
			return
		}

		claims, err := ts.Decode(parts[1])
		if err != nil {
			c.Status(http.StatusUnauthorized)
			c.Abort()
			return
		}

		if role, _ := claims["role"].(string); role != dmn.RoleOperator {
			c.Status(http.StatusForbidden)
			c.Abort()
			return
		}

		c.Set(ContextUserClaims, claims)
		c.Next()
	}
}
