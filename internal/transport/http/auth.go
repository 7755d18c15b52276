package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const callerKey = "callerID"

// RequireCaller verifies an HS256 bearer token and stores its subject as the
// caller id. Tokens are issued elsewhere.
func RequireCaller(secret []byte) gin.HandlerFunc {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			abortUnauthenticated(c, "missing bearer token")
			return
		}
		claims := &jwt.RegisteredClaims{}
		_, err := parser.ParseWithClaims(strings.TrimSpace(raw), claims, func(*jwt.Token) (interface{}, error) {
			return secret, nil
		})
		if err != nil {
			abortUnauthenticated(c, "invalid token")
			return
		}
		if claims.Subject == "" {
			abortUnauthenticated(c, "token has no subject")
			return
		}
		c.Set(callerKey, claims.Subject)
		c.Next()
	}
}

// SignToken issues an HS256 token for subject. Used by tooling and tests.
func SignToken(secret []byte, subject string, claims jwt.RegisteredClaims) (string, error) {
	if subject == "" {
		return "", errors.New("subject required")
	}
	claims.Subject = subject
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func caller(c *gin.Context) string {
	return c.GetString(callerKey)
}

func abortUnauthenticated(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, errorBody{Error: errorPayload{Kind: "unauthenticated", Message: msg}})
}
