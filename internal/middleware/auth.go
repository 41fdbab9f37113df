package middleware

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const (
	CredentialKey   = "credential"
	AuthHeader      = "X-Authorization"
	SessionTokenKey = "token"
)

// LoadCredential picks up the presented credential: the X-Authorization
// header first, then the token saved in the cookie session at login.
func LoadCredential() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader(AuthHeader)
		if token == "" {
			session := sessions.Default(c)
			if v, ok := session.Get(SessionTokenKey).(string); ok {
				token = v
			}
		}
		if token != "" {
			c.Set(CredentialKey, token)
		}
		c.Next()
	}
}

// AuthRequired rejects requests that present no credential at all. Whether
// the credential is valid is decided by the services.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if Credential(c) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Next()
	}
}

// Credential returns the credential loaded for this request, or "".
func Credential(c *gin.Context) string {
	return c.GetString(CredentialKey)
}
