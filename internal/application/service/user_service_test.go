package service

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/sangkips/crm-backend/internal/domain/enum"
	"github.com/sangkips/crm-backend/internal/infrastructure/repository"
	"github.com/sangkips/crm-backend/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestUserService_Access(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	admin := e.user(t, "admin", enum.RoleAdmin)
	mgr := e.user(t, "mgr", enum.RoleManager)
	emp := e.user(t, "emp", enum.RoleEmployee)
	other := e.user(t, "other", enum.RoleEmployee)

	_, err := e.users.ListUsers(ctx, emp)
	assertStatus(t, err, http.StatusForbidden)

	users, err := e.users.ListUsers(ctx, mgr)
	require.NoError(t, err)
	assert.Len(t, users, 4)

	_, err = e.users.GetUser(ctx, emp, emp.ID)
	require.NoError(t, err)
	_, err = e.users.GetUser(ctx, emp, other.ID)
	assertStatus(t, err, http.StatusForbidden)

	_, err = e.users.UpdateUser(ctx, mgr, emp.ID, &UpdateUserInput{Name: ptr("renamed")})
	assertStatus(t, err, http.StatusForbidden)

	err = e.users.DeleteUser(ctx, mgr, emp.ID)
	assertStatus(t, err, http.StatusForbidden)

	require.NoError(t, e.users.DeleteUser(ctx, admin, other.ID))
	_, err = e.users.GetUser(ctx, admin, other.ID)
	assertStatus(t, err, http.StatusNotFound)
}

func TestUserService_RoleChange(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	admin := e.user(t, "admin", enum.RoleAdmin)
	emp := e.user(t, "emp", enum.RoleEmployee)

	// Sending the unchanged role is not a role change.
	u, err := e.users.UpdateUser(ctx, emp, emp.ID, &UpdateUserInput{Role: ptr(enum.RoleEmployee), Bio: ptr("hi")})
	require.NoError(t, err)
	assert.Equal(t, "hi", u.Bio)

	_, err = e.users.UpdateUser(ctx, emp, emp.ID, &UpdateUserInput{Role: ptr(enum.RoleAdmin)})
	assertStatus(t, err, http.StatusForbidden)

	u, err = e.users.UpdateUser(ctx, admin, emp.ID, &UpdateUserInput{Role: ptr(enum.RoleManager)})
	require.NoError(t, err)
	assert.Equal(t, enum.RoleManager, u.Role)
}

func TestUserService_EmailConflict(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	admin := e.user(t, "admin", enum.RoleAdmin)
	emp := e.user(t, "emp", enum.RoleEmployee)

	taken, err := e.users.GetUser(ctx, admin, admin.ID)
	require.NoError(t, err)

	_, err = e.users.UpdateUser(ctx, emp, emp.ID, &UpdateUserInput{Email: ptr(strings.ToUpper(taken.Email))})
	assertStatus(t, err, http.StatusConflict)
}

func TestUserService_SettingsAreSelfOnly(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	admin := e.user(t, "admin", enum.RoleAdmin)
	emp := e.user(t, "emp", enum.RoleEmployee)

	_, err := e.users.UpdateSettings(ctx, admin, emp.ID, &SettingsPatch{Theme: ptr("dark")})
	assertStatus(t, err, http.StatusForbidden)

	settings, err := e.users.UpdateSettings(ctx, emp, emp.ID, &SettingsPatch{Theme: ptr("dark"), EmailNotifications: ptr(false)})
	require.NoError(t, err)
	assert.Equal(t, "dark", settings.Theme)
	assert.False(t, settings.EmailNotifications)

	security, err := e.users.UpdateSecurity(ctx, emp, emp.ID, &SecurityPatch{TwoFactorAuth: ptr(true)})
	require.NoError(t, err)
	assert.True(t, security.TwoFactorAuth)

	_, err = e.users.LoginHistory(ctx, emp, admin.ID)
	assertStatus(t, err, http.StatusForbidden)
	history, err := e.users.LoginHistory(ctx, admin, emp.ID)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestUserService_WritesRefreshCachedReports(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	admin := e.user(t, "admin", enum.RoleAdmin)
	emp := e.user(t, "emp", enum.RoleEmployee)

	repNames := func() []string {
		t.Helper()
		rep, err := e.reports.SalesPerformance(ctx, admin, RangeInput{})
		require.NoError(t, err)
		names := make([]string, 0, len(rep.PerformanceData))
		for _, p := range rep.PerformanceData {
			names = append(names, p.SalesRep.Name)
		}
		return names
	}
	assert.ElementsMatch(t, []string{"emp"}, repNames())

	_, err := e.users.UpdateUser(ctx, admin, emp.ID, &UpdateUserInput{Name: ptr("Renamed")})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Renamed"}, repNames())

	auth := NewAuthService(
		repository.NewUserRepository(e.db),
		repository.NewPasswordResetTokenRepository(e.db),
		utils.NewJWTManager("test-secret", time.Hour, 24*time.Hour),
		nil,
		e.cache,
		zap.NewNop(),
	)
	_, err = auth.Register(ctx, &RegisterInput{Name: "Newbie", Email: "newbie@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Renamed", "Newbie"}, repNames())

	require.NoError(t, e.users.DeleteUser(ctx, admin, emp.ID))
	assert.ElementsMatch(t, []string{"Newbie"}, repNames())
}
