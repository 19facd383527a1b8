package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/sangkips/crm-backend/internal/application/query"
	"github.com/sangkips/crm-backend/internal/domain/entity"
	"github.com/sangkips/crm-backend/internal/domain/enum"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLeadService_CreateDefaults(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	admin := e.user(t, "admin", enum.RoleAdmin)
	emp := e.user(t, "emp", enum.RoleEmployee)

	t.Run("admin lead stays unassigned", func(t *testing.T) {
		lead, err := e.leads.CreateLead(ctx, admin, &LeadInput{Name: "Acme", Email: " Sales@Acme.TEST ", Company: "Acme"})
		require.NoError(t, err)
		assert.Nil(t, lead.AssignedTo)
		assert.Equal(t, enum.LeadStatusNew, lead.Status)
		assert.Equal(t, enum.LeadSourceOther, lead.Source)
		assert.Equal(t, "sales@acme.test", lead.Email)
		assert.Equal(t, admin.ID, lead.CreatedBy)
	})

	t.Run("employee lead is assigned to its creator", func(t *testing.T) {
		lead, err := e.leads.CreateLead(ctx, emp, &LeadInput{Name: "Globex", Email: "g@globex.test", Company: "Globex"})
		require.NoError(t, err)
		require.NotNil(t, lead.AssignedTo)
		assert.Equal(t, emp.ID, *lead.AssignedTo)
	})

	t.Run("unknown assignee", func(t *testing.T) {
		missing := uuid.New()
		_, err := e.leads.CreateLead(ctx, admin, &LeadInput{Name: "X", Email: "x@x.test", Company: "X", AssignedTo: &missing})
		assertStatus(t, err, http.StatusNotFound)
	})

	t.Run("invalid status", func(t *testing.T) {
		_, err := e.leads.CreateLead(ctx, admin, &LeadInput{Name: "X", Email: "x@x.test", Company: "X", Status: "closed"})
		assertStatus(t, err, http.StatusBadRequest)
	})
}

func TestLeadService_EmployeeOwnership(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	admin := e.user(t, "admin", enum.RoleAdmin)
	emp := e.user(t, "emp", enum.RoleEmployee)
	other := e.user(t, "other", enum.RoleEmployee)

	mine := e.lead(t, admin, "mine", &emp.ID)
	theirs := e.lead(t, admin, "theirs", &other.ID)
	e.lead(t, admin, "nobody", nil)

	_, err := e.leads.GetLead(ctx, emp, mine.ID)
	require.NoError(t, err)

	_, err = e.leads.GetLead(ctx, emp, theirs.ID)
	assertStatus(t, err, http.StatusForbidden)

	_, err = e.leads.UpdateLead(ctx, emp, theirs.ID, &LeadPatch{Name: ptr("stolen")})
	assertStatus(t, err, http.StatusForbidden)

	err = e.leads.DeleteLead(ctx, emp, mine.ID)
	assertStatus(t, err, http.StatusForbidden)

	page, err := e.leads.ListLeads(ctx, emp, query.LeadParams{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Pagination.Total)
	require.Len(t, page.Leads, 1)
	assert.Equal(t, mine.ID, page.Leads[0].ID)

	// An explicit assignee filter cannot widen an employee's view.
	page, err = e.leads.ListLeads(ctx, emp, query.LeadParams{AssignedTo: other.ID.String()})
	require.NoError(t, err)
	for _, l := range page.Leads {
		assert.True(t, l.IsAssignedTo(emp.ID))
	}

	page, err = e.leads.ListLeads(ctx, admin, query.LeadParams{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Pagination.Total)
}

func TestLeadService_UpdateStatusLogsActivity(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	mgr := e.user(t, "mgr", enum.RoleManager)
	lead := e.lead(t, mgr, "acme", nil)

	updated, err := e.leads.UpdateLead(ctx, mgr, lead.ID, &LeadPatch{Status: ptr(enum.LeadStatusContacted)})
	require.NoError(t, err)
	assert.Equal(t, enum.LeadStatusContacted, updated.Status)
	require.Len(t, updated.Activities, 1)
	assert.Equal(t, enum.ActivityTypeStatusChange, updated.Activities[0].Type)
	assert.Equal(t, "Status changed from new to contacted", updated.Activities[0].Description)

	// Same status again adds nothing.
	updated, err = e.leads.UpdateLead(ctx, mgr, lead.ID, &LeadPatch{Status: ptr(enum.LeadStatusContacted)})
	require.NoError(t, err)
	assert.Len(t, updated.Activities, 1)
}

func TestLeadService_Reassign(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	admin := e.user(t, "admin", enum.RoleAdmin)
	emp := e.user(t, "emp", enum.RoleEmployee)
	lead := e.lead(t, admin, "acme", &emp.ID)

	updated, err := e.leads.UpdateLead(ctx, admin, lead.ID, &LeadPatch{ClearAssignee: true})
	require.NoError(t, err)
	assert.Nil(t, updated.AssignedTo)

	updated, err = e.leads.UpdateLead(ctx, admin, lead.ID, &LeadPatch{AssignedTo: &emp.ID})
	require.NoError(t, err)
	require.NotNil(t, updated.AssignedTo)
	assert.Equal(t, emp.ID, *updated.AssignedTo)
	require.NotNil(t, updated.Assignee)
	assert.Equal(t, "emp", updated.Assignee.Name)
}

func TestLeadService_AddActivity(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	emp := e.user(t, "emp", enum.RoleEmployee)
	lead := e.lead(t, emp, "acme", nil)

	updated, err := e.leads.AddActivity(ctx, emp, lead.ID, &ActivityInput{Type: enum.ActivityTypeCall, Description: "  intro call "})
	require.NoError(t, err)
	require.Len(t, updated.Activities, 1)
	assert.Equal(t, "intro call", updated.Activities[0].Description)
	assert.Equal(t, emp.ID, updated.Activities[0].CreatedBy)

	_, err = e.leads.AddActivity(ctx, emp, lead.ID, &ActivityInput{Type: "fax", Description: "x"})
	assertStatus(t, err, http.StatusBadRequest)

	_, err = e.leads.AddActivity(ctx, emp, uuid.New(), &ActivityInput{Type: enum.ActivityTypeNote, Description: "x"})
	assertStatus(t, err, http.StatusNotFound)
}

func TestLeadService_CustomFields(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	admin := e.user(t, "admin", enum.RoleAdmin)

	_, err := e.company.AddCustomField(ctx, admin, &CustomFieldInput{
		Name: "Tier", Entity: enum.CustomFieldEntityLead, Type: enum.CustomFieldTypeDropdown,
		Options: []string{"gold", "silver"}, Required: true,
	})
	require.NoError(t, err)
	_, err = e.company.AddCustomField(ctx, admin, &CustomFieldInput{
		Name: "Budget", Entity: enum.CustomFieldEntityLead, Type: enum.CustomFieldTypeNumber,
	})
	require.NoError(t, err)

	lead, err := e.leads.CreateLead(ctx, admin, &LeadInput{
		Name: "Acme", Email: "a@acme.test", Company: "Acme",
		CustomFields: map[string]interface{}{"Tier": "gold", "Budget": "1200.5"},
	})
	require.NoError(t, err)
	assert.Equal(t, entity.OptionValue("gold"), lead.CustomFields["Tier"])
	assert.Equal(t, entity.NumberValue(1200.5), lead.CustomFields["Budget"])

	_, err = e.leads.CreateLead(ctx, admin, &LeadInput{
		Name: "Bad", Email: "b@bad.test", Company: "Bad",
		CustomFields: map[string]interface{}{"Tier": "bronze", "Color": "red"},
	})
	assertStatus(t, err, http.StatusBadRequest)

	_, err = e.leads.CreateLead(ctx, admin, &LeadInput{Name: "Missing", Email: "m@m.test", Company: "M"})
	assertStatus(t, err, http.StatusBadRequest)
}

func TestLeadService_DeleteRemovesActivities(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	mgr := e.user(t, "mgr", enum.RoleManager)
	lead := e.lead(t, mgr, "acme", nil)
	kept := e.lead(t, mgr, "globex", nil)

	for _, id := range []uuid.UUID{lead.ID, kept.ID} {
		_, err := e.leads.AddActivity(ctx, mgr, id, &ActivityInput{Type: enum.ActivityTypeNote, Description: "met at expo"})
		require.NoError(t, err)
	}

	require.NoError(t, e.leads.DeleteLead(ctx, mgr, lead.ID))

	var gone, remaining int64
	require.NoError(t, e.db.Model(&entity.Activity{}).Where("lead_id = ?", lead.ID).Count(&gone).Error)
	require.NoError(t, e.db.Model(&entity.Activity{}).Where("lead_id = ?", kept.ID).Count(&remaining).Error)
	assert.Zero(t, gone)
	assert.Equal(t, int64(1), remaining)

	_, err := e.leads.GetLead(ctx, mgr, lead.ID)
	assertStatus(t, err, http.StatusNotFound)
}
