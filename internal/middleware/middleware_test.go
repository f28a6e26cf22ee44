package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"robux-topup-backend/pkg/log"
)

const secret = "middleware-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

func protected() *gin.Engine {
	r := gin.New()
	r.GET("/admin", AuthRequired(secret), RoleRequired(RoleAdmin), func(c *gin.Context) {
		c.String(http.StatusOK, Subject(c))
	})
	return r
}

func call(r http.Handler, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthRequired(t *testing.T) {
	now := time.Now()
	admin, err := IssueToken(secret, "ops@example.com", RoleAdmin, time.Hour, now)
	require.NoError(t, err)
	customer, err := IssueToken(secret, "builderman", "customer", time.Hour, now)
	require.NoError(t, err)
	expired, err := IssueToken(secret, "ops@example.com", RoleAdmin, time.Minute, now.Add(-time.Hour))
	require.NoError(t, err)
	forged, err := IssueToken("other-secret", "ops@example.com", RoleAdmin, time.Hour, now)
	require.NoError(t, err)
	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{Role: RoleAdmin, RegisteredClaims: jwt.RegisteredClaims{Subject: "x"}})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"admin", "Bearer " + admin, http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"expired", "Bearer " + expired, http.StatusUnauthorized},
		{"wrong secret", "Bearer " + forged, http.StatusUnauthorized},
		{"alg none", "Bearer " + unsigned, http.StatusUnauthorized},
		{"not admin", "Bearer " + customer, http.StatusForbidden},
	}

	r := protected()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := call(r, tt.header)
			assert.Equal(t, tt.want, w.Code)
			if tt.want == http.StatusOK {
				assert.Equal(t, "ops@example.com", w.Body.String())
			}
		})
	}
}

func TestAuthRequired_EmptySecretRejects(t *testing.T) {
	token, err := IssueToken("anything", "ops", RoleAdmin, time.Hour, time.Now())
	require.NoError(t, err)

	r := gin.New()
	r.GET("/admin", AuthRequired(""), func(c *gin.Context) { c.Status(http.StatusOK) })
	w := call(r, "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	_, err = IssueToken("", "ops", RoleAdmin, time.Hour, time.Now())
	assert.Error(t, err)
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	r := gin.New()
	r.Use(RequestLogger(log.New("test", log.WithWriter(&buf))))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "req-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "req-1", w.Header().Get(RequestIDHeader))
	assert.Contains(t, buf.String(), `"request_id":"req-1"`)
	assert.Contains(t, buf.String(), `"status":204`)
	assert.Contains(t, buf.String(), `"path":"/ping"`)

	buf.Reset()
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
	assert.Contains(t, buf.String(), `"level":"error"`)
}
