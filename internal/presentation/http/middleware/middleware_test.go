package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sangkips/crm-backend/internal/domain/enum"
	"github.com/sangkips/crm-backend/internal/infrastructure/database/dbtest"
	"github.com/sangkips/crm-backend/internal/infrastructure/repository"
	"github.com/sangkips/crm-backend/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(r http.Handler, method, target string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader("{}"))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// asActor stands in for AuthMiddleware.
func asActor(id uuid.UUID, role enum.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(UserIDKey, id)
		c.Set(UserRoleKey, role)
		c.Next()
	}
}

func TestAuthMiddleware(t *testing.T) {
	jwt := utils.NewJWTManager("test-secret", time.Hour, time.Hour)
	userID := uuid.New()

	r := gin.New()
	r.GET("/me", AuthMiddleware(jwt), func(c *gin.Context) {
		a, ok := Actor(c)
		require.True(t, ok)
		c.String(http.StatusOK, a.ID.String()+" "+a.Role.String())
	})

	access, err := jwt.GenerateAccessToken(userID, "jo@example.com", "manager")
	require.NoError(t, err)
	refresh, err := jwt.GenerateRefreshToken(userID)
	require.NoError(t, err)
	badRole, err := jwt.GenerateAccessToken(userID, "jo@example.com", "owner")
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + access, http.StatusUnauthorized},
		{"garbage", "Bearer not-a-token", http.StatusUnauthorized},
		{"refresh token", "Bearer " + refresh, http.StatusUnauthorized},
		{"unknown role", "Bearer " + badRole, http.StatusUnauthorized},
		{"valid", "Bearer " + access, http.StatusOK},
		{"lowercase scheme", "bearer " + access, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headers := map[string]string{}
			if tt.header != "" {
				headers["Authorization"] = tt.header
			}
			w := serve(r, http.MethodGet, "/me", headers)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			if tt.status == http.StatusOK {
				assert.Equal(t, userID.String()+" manager", w.Body.String())
			} else {
				assert.Contains(t, w.Body.String(), `"success":false`)
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	run := func(role enum.Role) *httptest.ResponseRecorder {
		r := gin.New()
		r.GET("/users", asActor(uuid.New(), role), RequireRole(enum.RoleAdmin, enum.RoleManager), func(c *gin.Context) {
			c.Status(http.StatusNoContent)
		})
		return serve(r, http.MethodGet, "/users", nil)
	}

	assert.Equal(t, http.StatusNoContent, run(enum.RoleManager).Code)
	w := run(enum.RoleEmployee)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "User role employee is not authorized")

	r := gin.New()
	r.GET("/users", RequireRole(enum.RoleAdmin), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodGet, "/users", nil).Code)
}

func TestUserRateLimiter(t *testing.T) {
	rl := NewUserRateLimiter(RateLimiterConfig{Requests: 2, Window: time.Hour})
	alice, bob := uuid.New(), uuid.New()

	build := func(id uuid.UUID) *gin.Engine {
		r := gin.New()
		r.GET("/leads", asActor(id, enum.RoleEmployee), rl.Middleware(), func(c *gin.Context) {
			c.Status(http.StatusOK)
		})
		return r
	}
	ra, rb := build(alice), build(bob)

	assert.Equal(t, http.StatusOK, serve(ra, http.MethodGet, "/leads", nil).Code)
	assert.Equal(t, http.StatusOK, serve(ra, http.MethodGet, "/leads", nil).Code)
	w := serve(ra, http.MethodGet, "/leads", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))

	// Buckets are per user.
	assert.Equal(t, http.StatusOK, serve(rb, http.MethodGet, "/leads", nil).Code)
}

func TestIPRateLimit(t *testing.T) {
	r := gin.New()
	r.POST("/login", IPRateLimit(1), func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, serve(r, http.MethodPost, "/login", nil).Code)
	w := serve(r, http.MethodPost, "/login", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "Too many requests")
}

func TestIdempotency(t *testing.T) {
	repo := repository.NewIdempotencyRepository(dbtest.New(t))
	alice, bob := uuid.New(), uuid.New()
	calls := 0

	build := func(id uuid.UUID) *gin.Engine {
		r := gin.New()
		r.Use(asActor(id, enum.RoleManager), Idempotency(IdempotencyConfig{Repo: repo}))
		r.POST("/leads", func(c *gin.Context) {
			calls++
			c.JSON(http.StatusCreated, gin.H{"call": calls})
		})
		r.POST("/fail", func(c *gin.Context) {
			calls++
			c.JSON(http.StatusBadRequest, gin.H{"call": calls})
		})
		return r
	}
	ra, rb := build(alice), build(bob)
	key := map[string]string{IdempotencyKeyHeader: "abc"}

	first := serve(ra, http.MethodPost, "/leads", key)
	require.Equal(t, http.StatusCreated, first.Code)
	assert.Empty(t, first.Header().Get(ReplayedHeader))

	replay := serve(ra, http.MethodPost, "/leads", key)
	assert.Equal(t, http.StatusCreated, replay.Code)
	assert.Equal(t, "true", replay.Header().Get(ReplayedHeader))
	assert.JSONEq(t, first.Body.String(), replay.Body.String())
	assert.Equal(t, 1, calls)

	// Keys are scoped to the user.
	serve(rb, http.MethodPost, "/leads", key)
	assert.Equal(t, 2, calls)

	// Without a key every request runs.
	serve(ra, http.MethodPost, "/leads", nil)
	assert.Equal(t, 3, calls)

	// Failures are not stored.
	failKey := map[string]string{IdempotencyKeyHeader: "bad"}
	serve(ra, http.MethodPost, "/fail", failKey)
	serve(ra, http.MethodPost, "/fail", failKey)
	assert.Equal(t, 5, calls)

	// A live key cannot be reused on another endpoint.
	w := serve(ra, http.MethodPost, "/fail", key)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, 5, calls)
}

func TestIdempotency_ExpiredKeyIsReplaced(t *testing.T) {
	repo := repository.NewIdempotencyRepository(dbtest.New(t))
	now := time.Now()
	clock := func() time.Time { return now }
	calls := 0

	r := gin.New()
	r.Use(asActor(uuid.New(), enum.RoleManager), Idempotency(IdempotencyConfig{Repo: repo, Now: clock}))
	r.POST("/quotations", func(c *gin.Context) {
		calls++
		c.JSON(http.StatusCreated, gin.H{"call": calls})
	})
	key := map[string]string{IdempotencyKeyHeader: "q-1"}

	serve(r, http.MethodPost, "/quotations", key)
	now = now.Add(IdempotencyKeyTTL + time.Minute)

	w := serve(r, http.MethodPost, "/quotations", key)
	assert.Empty(t, w.Header().Get(ReplayedHeader))
	assert.JSONEq(t, `{"call":2}`, w.Body.String())

	replay := serve(r, http.MethodPost, "/quotations", key)
	assert.Equal(t, "true", replay.Header().Get(ReplayedHeader))
	assert.JSONEq(t, `{"call":2}`, replay.Body.String())
	assert.Equal(t, 2, calls)
}
