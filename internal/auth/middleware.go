package auth

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"upasthiti/internal/access"
	"upasthiti/internal/session"
)

const (
	ctxClaims  = "claims"
	ctxSession = "session"

	// DetectorKeyHeader carries the shared secret of the fraud detector.
	DetectorKeyHeader = "X-Detector-Key"
)

// Sessions resolves a session id to a live session.
type Sessions interface {
	Get(sessionID string) (session.Session, error)
}

// SessionAuth enforces bearer JWT tokens signed with HS256 and loads the
// session they name. A logged-out or expired session is rejected even when
// the token itself is still valid.
func SessionAuth(signingKey, issuer string, sessions Sessions) gin.HandlerFunc {
	return func(c *gin.Context) {
		authz := c.GetHeader("Authorization")
		if authz == "" || !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		tokenStr := strings.TrimSpace(authz[len("bearer "):])
		claims, err := Parse(tokenStr, signingKey, issuer)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		s, err := sessions.Get(claims.SessionID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "session expired"})
			return
		}
		c.Set(ctxClaims, claims)
		c.Set(ctxSession, s)
		c.Next()
	}
}

// DetectorKey admits requests that present key in DetectorKeyHeader. An empty
// key admits nothing.
func DetectorKey(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		got := c.GetHeader(DetectorKeyHeader)
		if key == "" || subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid detector key"})
			return
		}
		c.Next()
	}
}

// RequireView rejects sessions whose role may not open view.
func RequireView(view access.View) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := CurrentSession(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "no session"})
			return
		}
		if !access.IsViewAllowed(s.Role(), view) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden", "view": view})
			return
		}
		c.Next()
	}
}

// CurrentSession returns the session loaded by SessionAuth.
func CurrentSession(c *gin.Context) (session.Session, bool) {
	v, ok := c.Get(ctxSession)
	if !ok {
		return session.Session{}, false
	}
	s, ok := v.(session.Session)
	return s, ok
}
