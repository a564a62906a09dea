package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/fshare/internal/pkg/errcode"
	"github.com/xxxsen/fshare/internal/pkg/jwt"
	"github.com/xxxsen/fshare/internal/pkg/response"
)

const (
	ContextUserIDKey   = "user_id"
	ContextUsernameKey = "username"
)

func JWTAuth(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := parseBearer(c, secret)
		if !ok {
			response.Error(c, errcode.ErrUnauthorized, "invalid authorization")
			c.Abort()
			return
		}
		setIdentity(c, claims)
		c.Next()
	}
}

// JWTOptional parses a bearer token when one is present but lets
// anonymous requests through. Share endpoints use it: website and
// direct-link access needs no identity, while internal-share checks need
// to know who is asking.
func JWTOptional(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") != "" {
			if claims, ok := parseBearer(c, secret); ok {
				setIdentity(c, claims)
			}
		}
		c.Next()
	}
}

func parseBearer(c *gin.Context, secret []byte) (*jwt.Claims, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return nil, false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return nil, false
	}
	claims, err := jwt.ParseToken(parts[1], secret)
	if err != nil {
		return nil, false
	}
	return claims, true
}

func setIdentity(c *gin.Context, claims *jwt.Claims) {
	c.Set(ContextUserIDKey, claims.UserID)
	if claims.Username != "" {
		c.Set(ContextUsernameKey, claims.Username)
	}
}
