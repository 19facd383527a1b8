package repository

import (
	"context"
	"testing"
	"time"

	"github.com/sangkips/crm-backend/internal/domain/entity"
	"github.com/sangkips/crm-backend/internal/domain/enum"
	"github.com/sangkips/crm-backend/internal/infrastructure/database/dbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository_RecordLoginTrimsHistory(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()
	repo := NewUserRepository(db)
	user := seedUser(t, db, "emp", enum.RoleEmployee)

	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < entity.MaxLoginHistory+3; i++ {
		require.NoError(t, repo.RecordLogin(ctx, user.ID, &entity.LoginHistory{
			Browser:   "Firefox",
			Timestamp: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	history, err := repo.LoginHistory(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, history, entity.MaxLoginHistory)
	assert.True(t, history[0].Timestamp.After(history[1].Timestamp))
	assert.Equal(t, "Unknown", history[0].Location)
}

func TestUserRepository_DeleteRemovesLoginHistory(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()
	repo := NewUserRepository(db)
	user := seedUser(t, db, "emp", enum.RoleEmployee)
	require.NoError(t, repo.RecordLogin(ctx, user.ID, &entity.LoginHistory{Browser: "Chrome"}))

	require.NoError(t, repo.Delete(ctx, user.ID))

	got, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
	var n int64
	db.Model(&entity.LoginHistory{}).Count(&n)
	assert.Zero(t, n)
}

func TestUserRepository_ListByRoles(t *testing.T) {
	db := dbtest.New(t)
	seedUser(t, db, "admin", enum.RoleAdmin)
	seedUser(t, db, "mgr", enum.RoleManager)
	seedUser(t, db, "emp", enum.RoleEmployee)

	users, err := NewUserRepository(db).ListByRoles(context.Background(), enum.RoleEmployee, enum.RoleManager)
	require.NoError(t, err)
	assert.Len(t, users, 2)
}

func TestUserRepository_UpdateKeepsPassword(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()
	repo := NewUserRepository(db)
	user := seedUser(t, db, "emp", enum.RoleEmployee)

	user.Password = ""
	user.Bio = "sells things"
	require.NoError(t, repo.Update(ctx, user))

	got, err := repo.GetByEmail(ctx, user.Email)
	require.NoError(t, err)
	assert.Equal(t, "hash", got.Password)
	assert.Equal(t, "sells things", got.Bio)
}
