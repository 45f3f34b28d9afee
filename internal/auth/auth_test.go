package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"upasthiti/internal/access"
	"upasthiti/internal/errs"
	"upasthiti/internal/identity"
	"upasthiti/internal/session"
)

const (
	testKey    = "test-key"
	testIssuer = "test-issuer"
)

type fakeSessions map[string]session.Session

func (f fakeSessions) Get(id string) (session.Session, error) {
	s, ok := f[id]
	if !ok {
		return session.Session{}, errs.ErrSessionNotFound
	}
	return s, nil
}

func TestIssueParse_RoundTrip(t *testing.T) {
	t.Parallel()
	tok, err := Issue("sid-1", "faculty", testIssuer, testKey, time.Hour, time.Now())
	require.NoError(t, err)

	claims, err := Parse(tok, testKey, testIssuer)
	require.NoError(t, err)
	assert.Equal(t, "sid-1", claims.SessionID)
	assert.Equal(t, "faculty", claims.Role)
}

func TestParse_Rejects(t *testing.T) {
	t.Parallel()
	good, err := Issue("sid-1", "student", testIssuer, testKey, time.Hour, time.Now())
	require.NoError(t, err)
	expired, err := Issue("sid-1", "student", testIssuer, testKey, time.Minute, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	noSID, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Issuer: testIssuer},
	}).SignedString([]byte(testKey))
	require.NoError(t, err)

	tests := []struct {
		name, tok, key, issuer string
	}{
		{"wrong key", good, "other", testIssuer},
		{"wrong issuer", good, testKey, "someone-else"},
		{"expired", expired, testKey, testIssuer},
		{"garbage", "not.a.jwt", testKey, testIssuer},
		{"missing sid", noSID, testKey, testIssuer},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := Parse(tc.tok, tc.key, tc.issuer)
			assert.Error(t, err)
		})
	}
}

func newRouter(sessions Sessions, view access.View) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/x", SessionAuth(testKey, testIssuer, sessions), RequireView(view), func(c *gin.Context) {
		s, _ := CurrentSession(c)
		c.String(http.StatusOK, s.Identity.ID)
	})
	return r
}

func do(t *testing.T, r http.Handler, bearer string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSessionAuth(t *testing.T) {
	t.Parallel()
	student, err := identity.New("student1", "Aarav", "pw", identity.StudentProfile{StudentID: "1", EnrolledSubjects: []string{"CS101"}})
	require.NoError(t, err)
	sessions := fakeSessions{"live": {ID: "live", Identity: student}}

	liveTok, err := Issue("live", "student", testIssuer, testKey, time.Hour, time.Now())
	require.NoError(t, err)
	goneTok, err := Issue("gone", "student", testIssuer, testKey, time.Hour, time.Now())
	require.NoError(t, err)

	r := newRouter(sessions, access.ViewScanQR)
	assert.Equal(t, http.StatusUnauthorized, do(t, r, "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(t, r, "junk").Code)
	assert.Equal(t, http.StatusUnauthorized, do(t, r, goneTok).Code)

	w := do(t, r, liveTok)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "student1", w.Body.String())

	denied := newRouter(sessions, access.ViewGenerateQR)
	assert.Equal(t, http.StatusForbidden, do(t, denied, liveTok).Code)
}

func TestDetectorKey(t *testing.T) {
	t.Parallel()
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name       string
		key, given string
		want       int
	}{
		{"match", "s3cret", "s3cret", http.StatusNoContent},
		{"wrong", "s3cret", "s3cre", http.StatusUnauthorized},
		{"missing", "s3cret", "", http.StatusUnauthorized},
		{"unset key admits nothing", "", "", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := gin.New()
			r.POST("/in", DetectorKey(tc.key), func(c *gin.Context) { c.Status(http.StatusNoContent) })
			req := httptest.NewRequest(http.MethodPost, "/in", nil)
			if tc.given != "" {
				req.Header.Set(DetectorKeyHeader, tc.given)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tc.want, w.Code)
		})
	}
}
