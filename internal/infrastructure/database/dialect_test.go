package database_test

import (
	"testing"
	"time"

	"github.com/sangkips/crm-backend/internal/domain/entity"
	"github.com/sangkips/crm-backend/internal/infrastructure/database"
	"github.com/sangkips/crm-backend/internal/infrastructure/database/dbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonthExpressionsOnSQLite(t *testing.T) {
	db := dbtest.New(t)

	u := entity.User{Name: "A", Email: "a@example.com", Password: "x"}
	require.NoError(t, db.Create(&u).Error)
	require.NoError(t, db.Model(&u).UpdateColumn("created_at", time.Date(2023, time.November, 30, 23, 0, 0, 0, time.UTC)).Error)

	var row struct {
		Year  int
		Month int
	}
	err := db.Model(&entity.User{}).
		Select(database.YearExpr(db, "created_at") + " AS year, " + database.MonthExpr(db, "created_at") + " AS month").
		Where("id = ?", u.ID).
		Scan(&row).Error
	require.NoError(t, err)

	assert.Equal(t, 2023, row.Year)
	assert.Equal(t, 11, row.Month)
}
