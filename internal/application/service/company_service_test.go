package service

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/sangkips/crm-backend/internal/domain/entity"
	"github.com/sangkips/crm-backend/internal/domain/enum"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompanyService_Profile(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	admin := e.user(t, "admin", enum.RoleAdmin)
	emp := e.user(t, "emp", enum.RoleEmployee)

	company, err := e.company.GetCompany(ctx, emp)
	require.NoError(t, err)
	assert.Equal(t, entity.DefaultCompanyName, company.Name)

	_, err = e.company.UpdateCompany(ctx, emp, &CompanyPatch{Name: ptr("Hijack")})
	assertStatus(t, err, http.StatusForbidden)

	_, err = e.company.UpdateCompany(ctx, admin, &CompanyPatch{Name: ptr("  ")})
	assertStatus(t, err, http.StatusBadRequest)

	updated, err := e.company.UpdateCompany(ctx, admin, &CompanyPatch{Name: ptr("Acme CRM"), City: ptr("Nairobi")})
	require.NoError(t, err)
	assert.Equal(t, "Acme CRM", updated.Name)
	assert.Equal(t, "Nairobi", updated.City)

	again, err := e.company.GetCompany(ctx, emp)
	require.NoError(t, err)
	assert.Equal(t, company.ID, again.ID, "the company is a singleton")
}

func TestCompanyService_CustomFields(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	mgr := e.user(t, "mgr", enum.RoleManager)
	emp := e.user(t, "emp", enum.RoleEmployee)

	_, err := e.company.AddCustomField(ctx, emp, &CustomFieldInput{Name: "Tier", Entity: enum.CustomFieldEntityLead, Type: enum.CustomFieldTypeText})
	assertStatus(t, err, http.StatusForbidden)

	tier, err := e.company.AddCustomField(ctx, mgr, &CustomFieldInput{Name: "Tier", Entity: enum.CustomFieldEntityLead, Type: enum.CustomFieldTypeText})
	require.NoError(t, err)

	t.Run("duplicate name per entity", func(t *testing.T) {
		_, err := e.company.AddCustomField(ctx, mgr, &CustomFieldInput{Name: "tier", Entity: enum.CustomFieldEntityLead, Type: enum.CustomFieldTypeNumber})
		assertStatus(t, err, http.StatusConflict)
	})

	t.Run("same name on another entity", func(t *testing.T) {
		_, err := e.company.AddCustomField(ctx, mgr, &CustomFieldInput{Name: "Tier", Entity: enum.CustomFieldEntityQuotation, Type: enum.CustomFieldTypeText})
		require.NoError(t, err)
	})

	t.Run("dropdown needs options", func(t *testing.T) {
		_, err := e.company.AddCustomField(ctx, mgr, &CustomFieldInput{Name: "Size", Entity: enum.CustomFieldEntityLead, Type: enum.CustomFieldTypeDropdown})
		assertStatus(t, err, http.StatusBadRequest)
	})

	t.Run("update", func(t *testing.T) {
		updated, err := e.company.UpdateCustomField(ctx, mgr, tier.ID, &CustomFieldPatch{
			Type:    ptr(enum.CustomFieldTypeDropdown),
			Options: []string{"gold", "silver"},
		})
		require.NoError(t, err)
		assert.Equal(t, enum.CustomFieldTypeDropdown, updated.Type)
		assert.Equal(t, []string{"gold", "silver"}, updated.Options)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, e.company.DeleteCustomField(ctx, mgr, tier.ID))
		err := e.company.DeleteCustomField(ctx, mgr, tier.ID)
		assertStatus(t, err, http.StatusNotFound)
		_, err = e.company.UpdateCustomField(ctx, mgr, uuid.New(), &CustomFieldPatch{Name: ptr("x")})
		assertStatus(t, err, http.StatusNotFound)
	})
}

func TestCompanyService_UploadLogoReplacesPrevious(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	admin := e.user(t, "admin", enum.RoleAdmin)

	upload := func(name string) string {
		url, err := e.company.UploadLogo(ctx, admin, &FileInput{
			Filename: name, ContentType: "image/png", Size: 4, Body: strings.NewReader("png!"),
		})
		require.NoError(t, err)
		return url
	}

	first := upload("logo.png")
	assert.True(t, strings.HasPrefix(first, "/files/company/"), first)
	second := upload("logo2.png")
	assert.NotEqual(t, first, second)

	firstKey, ok := e.store.KeyFromURL(first)
	require.True(t, ok)
	_, err := e.store.Download(ctx, firstKey)
	assert.Error(t, err, "the replaced logo is removed")

	company, err := e.company.GetCompany(ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, second, company.Logo)

	_, err = e.company.UploadLogo(ctx, admin, &FileInput{Filename: "logo.exe", Size: 4, Body: strings.NewReader("MZ!!")})
	assertStatus(t, err, http.StatusBadRequest)
}
