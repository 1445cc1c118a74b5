package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"slotbook/utils"
)

// AuthUserKey is the gin context key holding the authenticated user id.
const AuthUserKey = "authUserID"

// JWTAuthMiddleware requires a bearer token signed with secret and stores its
// subject under AuthUserKey. Handlers compare it with the userId they act for.
func JWTAuthMiddleware(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			utils.JSONError(c, http.StatusUnauthorized, "Missing or invalid Authorization header", "")
			return
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		userID, err := utils.ExtractIDFromToken(secret, tokenString)
		if err != nil {
			utils.JSONError(c, http.StatusUnauthorized, "Invalid token", err.Error())
			return
		}
		c.Set(AuthUserKey, userID)
		c.Next()
	}
}

// AuthenticatedUser returns the user id set by JWTAuthMiddleware, if any.
func AuthenticatedUser(c *gin.Context) (string, bool) {
	v, ok := c.Get(AuthUserKey)
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok && id != ""
}
