package repository

import (
	"context"
	"testing"

	"github.com/sangkips/crm-backend/internal/domain/entity"
	"github.com/sangkips/crm-backend/internal/domain/enum"
	"github.com/sangkips/crm-backend/internal/infrastructure/database/dbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompanyRepository_GetOrCreateIsSingleton(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()
	repo := NewCompanyRepository(db)

	first, err := repo.GetOrCreate(ctx)
	require.NoError(t, err)
	assert.Equal(t, entity.DefaultCompanyName, first.Name)

	second, err := repo.GetOrCreate(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	var n int64
	db.Model(&entity.Company{}).Count(&n)
	assert.Equal(t, int64(1), n)
}

func TestCompanyRepository_CustomFields(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()
	repo := NewCompanyRepository(db)
	company, err := repo.GetOrCreate(ctx)
	require.NoError(t, err)

	field := &entity.CustomFieldDefinition{
		CompanyID: company.ID,
		Name:      "Budget band",
		Entity:    enum.CustomFieldEntityLead,
		Type:      enum.CustomFieldTypeDropdown,
		Options:   []string{"small", "large"},
	}
	require.NoError(t, repo.AddCustomField(ctx, field))

	company, err = repo.GetOrCreate(ctx)
	require.NoError(t, err)
	require.Len(t, company.CustomFields, 1)
	assert.Equal(t, []string{"small", "large"}, company.CustomFields[0].Options)

	require.NoError(t, repo.DeleteCustomField(ctx, field.ID))
	got, err := repo.GetCustomField(ctx, field.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}
