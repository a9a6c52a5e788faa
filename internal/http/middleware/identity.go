// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file resolves the caller's identity from the signed token before the
// rest of the chain runs, so rate limiting and access logs can key by user
// instead of client IP.
package middleware

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// Identity decodes the presented token, when one exists, and stashes the
// subject id under the "userID" context key consumed by KeyByUserOrIP and the
// access logger. Tokens are read from the "token" cookie or the Authorization
// header (raw or Bearer form).
//
// Invalid or absent tokens are ignored here: endpoint access decisions belong
// to the services, and anonymous requests simply fall back to IP keying.
func Identity(verify func(token string) (subjectID int64, ok bool)) gin.HandlerFunc {
	return func(c *gin.Context) {
		if verify != nil {
			if token := rawToken(c); token != "" {
				if uid, ok := verify(token); ok {
					c.Set("userID", strconv.FormatInt(uid, 10))
				}
			}
		}
		c.Next()
	}
}

// rawToken pulls the token string out of the cookie or Authorization header.
func rawToken(c *gin.Context) string {
	if v, err := c.Cookie("token"); err == nil && v != "" {
		return v
	}
	h := strings.TrimSpace(c.GetHeader("Authorization"))
	if strings.HasPrefix(strings.ToLower(h), "bearer ") {
		h = strings.TrimSpace(h[len("bearer "):])
	}
	return h
}
