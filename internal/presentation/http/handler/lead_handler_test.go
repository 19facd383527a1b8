package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sangkips/crm-backend/internal/application/service"
	"github.com/sangkips/crm-backend/internal/domain/entity"
	"github.com/sangkips/crm-backend/internal/domain/enum"
	"github.com/sangkips/crm-backend/internal/infrastructure/database/dbtest"
	"github.com/sangkips/crm-backend/internal/infrastructure/repository"
	"github.com/sangkips/crm-backend/internal/presentation/http/dto/request"
	"github.com/sangkips/crm-backend/internal/presentation/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
	request.RegisterValidators()
}

type leadAPI struct {
	db     *gorm.DB
	router *gin.Engine
}

func newLeadAPI(t *testing.T) *leadAPI {
	t.Helper()
	db := dbtest.New(t)
	logger := zap.NewNop()
	users := repository.NewUserRepository(db)
	leads := service.NewLeadService(repository.NewLeadRepository(db), users, repository.NewCompanyRepository(db), nil, nil, logger)
	reports := service.NewReportService(repository.NewAnalyticsRepository(db), users, nil, 50000, nil, logger)
	h := NewLeadHandler(leads, reports)

	r := gin.New()
	g := r.Group("/api/leads", func(c *gin.Context) {
		// X-Test-User carries "<uuid> <role>" in place of a bearer token.
		if raw := c.GetHeader("X-Test-User"); raw != "" {
			parts := strings.Fields(raw)
			c.Set(middleware.UserIDKey, uuid.MustParse(parts[0]))
			c.Set(middleware.UserRoleKey, enum.Role(parts[1]))
		}
		c.Next()
	})
	g.GET("", h.List)
	g.POST("", h.Create)
	g.GET("/stats", h.Stats)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
	g.POST("/:id/activities", h.AddActivity)
	return &leadAPI{db: db, router: r}
}

func (a *leadAPI) user(t *testing.T, role enum.Role) string {
	t.Helper()
	u := &entity.User{Name: string(role), Email: uuid.NewString() + "@example.com", Password: "hash", Role: role}
	require.NoError(t, a.db.Create(u).Error)
	return u.ID.String() + " " + string(role)
}

func (a *leadAPI) do(method, path, who, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if who != "" {
		req.Header.Set("X-Test-User", who)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	var out map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return w, out
}

func TestLeadHandler_CRUD(t *testing.T) {
	api := newLeadAPI(t)
	mgr := api.user(t, enum.RoleManager)

	w, body := api.do(http.MethodPost, "/api/leads", mgr,
		`{"name":"Jane","email":"Jane@Acme.test","company":"Acme","source":"referral"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, true, body["success"])
	lead := body["lead"].(map[string]interface{})
	id := lead["id"].(string)
	assert.Equal(t, "jane@acme.test", lead["email"])
	assert.Equal(t, "new", lead["status"])

	w, body = api.do(http.MethodPut, "/api/leads/"+id, mgr, `{"status":"contacted"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "contacted", body["lead"].(map[string]interface{})["status"])

	w, _ = api.do(http.MethodPost, "/api/leads/"+id+"/activities", mgr,
		`{"type":"call","description":"intro call","dueDate":"2025-03-01"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w, body = api.do(http.MethodGet, "/api/leads?search=acme", mgr, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, body["total"])
	assert.Len(t, body["leads"], 1)

	w, _ = api.do(http.MethodGet, "/api/leads/stats", mgr, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = api.do(http.MethodDelete, "/api/leads/"+id, mgr, "")
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = api.do(http.MethodGet, "/api/leads/"+id, mgr, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestLeadHandler_Errors(t *testing.T) {
	api := newLeadAPI(t)
	mgr := api.user(t, enum.RoleManager)
	emp := api.user(t, enum.RoleEmployee)

	t.Run("no actor", func(t *testing.T) {
		w, _ := api.do(http.MethodGet, "/api/leads", "", "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("validation lists json field names", func(t *testing.T) {
		w, body := api.do(http.MethodPost, "/api/leads", mgr, `{"email":"not-an-email"}`)
		require.Equal(t, http.StatusBadRequest, w.Code)
		fields := map[string]bool{}
		for _, e := range body["errors"].([]interface{}) {
			fields[e.(map[string]interface{})["field"].(string)] = true
		}
		assert.True(t, fields["name"])
		assert.True(t, fields["email"])
		assert.True(t, fields["company"])
	})

	t.Run("malformed id", func(t *testing.T) {
		w, _ := api.do(http.MethodGet, "/api/leads/not-a-uuid", mgr, "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("bad assignee", func(t *testing.T) {
		w, _ := api.do(http.MethodPost, "/api/leads", mgr,
			`{"name":"x","email":"x@y.test","company":"y","assignedTo":"nope"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("employee cannot read others", func(t *testing.T) {
		w, body := api.do(http.MethodPost, "/api/leads", mgr, `{"name":"x","email":"x@y.test","company":"y"}`)
		require.Equal(t, http.StatusCreated, w.Code)
		id := body["lead"].(map[string]interface{})["id"].(string)

		w, _ = api.do(http.MethodGet, fmt.Sprintf("/api/leads/%s", id), emp, "")
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}
