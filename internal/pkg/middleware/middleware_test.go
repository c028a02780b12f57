package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roomdesk/service-booking/internal/pkg/auth"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(jwtManager *auth.JWTManager) *gin.Engine {
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/whoami", OptionalAuthMiddleware(jwtManager), func(c *gin.Context) {
		p := GetPrincipal(c)
		if p == nil {
			c.String(http.StatusOK, "anonymous")
			return
		}
		c.String(http.StatusOK, *p)
	})
	r.GET("/admin", AuthMiddleware(jwtManager), RequireRole(auth.RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func TestOptionalAuth(t *testing.T) {
	jwtManager := auth.NewJWTManager("secret", "test", time.Minute)
	r := newRouter(jwtManager)

	t.Run("anonymous", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/whoami", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "anonymous", w.Body.String())
		assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
	})

	t.Run("bearer token", func(t *testing.T) {
		token, err := jwtManager.GenerateAccessToken("alice", auth.RoleMember)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, "alice", w.Body.String())
	})

	t.Run("bad token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set("Authorization", "Bearer nope")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("request id is propagated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set(RequestIDHeader, "abc-123")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
	})
}

func TestRequireRole(t *testing.T) {
	jwtManager := auth.NewJWTManager("secret", "test", time.Minute)
	r := newRouter(jwtManager)

	member, err := jwtManager.GenerateAccessToken("bob", auth.RoleMember)
	require.NoError(t, err)
	admin, err := jwtManager.GenerateAccessToken("carol", auth.RoleAdmin)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
		want  int
	}{
		{"no token", "", http.StatusUnauthorized},
		{"member", member, http.StatusForbidden},
		{"admin", admin, http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}
