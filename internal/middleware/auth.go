package middleware

import (
	"errors"
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	callerIDKey   = "callerID"
	callerRoleKey = "callerRole"

	// TokenCookie carries the token for clients that cannot set headers,
	// such as browser websocket connections.
	TokenCookie = "client_token"
)

var errMissingToken = errors.New("missing bearer token")

// authError is the body written when authentication fails.
type authError struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// Authenticator verifies HS256 tokens and stores the caller identity on
// the gin context.
type Authenticator struct {
	secret []byte
}

// NewAuthenticator creates an Authenticator for the given signing secret.
func NewAuthenticator(secret string) *Authenticator {
	return &Authenticator{secret: []byte(secret)}
}

// Required rejects requests without a valid token.
func (a *Authenticator) Required() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := a.authenticate(c); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, authError{Error: err.Error(), Code: "unauthorized"})
			return
		}
		c.Next()
	}
}

// Optional sets the caller identity when a valid token is present and
// lets anonymous requests through otherwise.
func (a *Authenticator) Optional() gin.HandlerFunc {
	return func(c *gin.Context) {
		_ = a.authenticate(c)
		c.Next()
	}
}

// RequireRole must run after Required.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !slices.Contains(roles, CallerRole(c)) {
			c.AbortWithStatusJSON(http.StatusForbidden, authError{Error: "insufficient role", Code: "forbidden"})
			return
		}
		c.Next()
	}
}

// CallerID returns the authenticated caller, or "" for anonymous requests.
func CallerID(c *gin.Context) string {
	return c.GetString(callerIDKey)
}

// CallerRole returns the authenticated caller's role claim.
func CallerRole(c *gin.Context) string {
	return c.GetString(callerRoleKey)
}

func (a *Authenticator) authenticate(c *gin.Context) error {
	raw := bearerToken(c)
	if raw == "" {
		return errMissingToken
	}

	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return errors.New("invalid token")
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return errors.New("invalid token subject")
	}
	role, _ := claims["role"].(string)

	c.Set(callerIDKey, sub)
	c.Set(callerRoleKey, role)
	return nil
}

func bearerToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	if cookie, err := c.Cookie(TokenCookie); err == nil {
		return cookie
	}
	return ""
}
