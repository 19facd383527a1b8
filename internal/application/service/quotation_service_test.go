package service

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/sangkips/crm-backend/internal/application/query"
	"github.com/sangkips/crm-backend/internal/domain/entity"
	"github.com/sangkips/crm-backend/internal/domain/enum"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestResolveTotals(t *testing.T) {
	items := []entity.QuotationItem{
		{Quantity: 2, UnitPrice: 50},
		{Quantity: 1, UnitPrice: 100},
	}
	priceItems(items)
	assert.Equal(t, 100.0, items[0].Amount)

	t.Run("derived", func(t *testing.T) {
		got := resolveTotals(items, Totals{})
		assert.Equal(t, Totals{Subtotal: 200, Tax: 20, Total: 220}, got)
	})

	t.Run("partial totals are recomputed", func(t *testing.T) {
		got := resolveTotals(items, Totals{Subtotal: 999, Total: 999})
		assert.Equal(t, Totals{Subtotal: 200, Tax: 20, Total: 220}, got)
	})

	t.Run("complete totals are kept", func(t *testing.T) {
		given := Totals{Subtotal: 180, Tax: 18, Total: 198}
		assert.Equal(t, given, resolveTotals(items, given))
	})

	t.Run("cents", func(t *testing.T) {
		odd := []entity.QuotationItem{{Quantity: 3, UnitPrice: 0.1}}
		priceItems(odd)
		got := resolveTotals(odd, Totals{})
		assert.Equal(t, 0.3, got.Subtotal)
		assert.Equal(t, 0.03, got.Tax)
		assert.Equal(t, 0.33, got.Total)
	})
}

func TestValidateItems(t *testing.T) {
	assertStatus(t, validateItems(nil), http.StatusBadRequest)
	assertStatus(t, validateItems([]QuotationItemInput{{Description: "x", Quantity: 0, UnitPrice: 1}}), http.StatusBadRequest)
	assertStatus(t, validateItems([]QuotationItemInput{{Description: "x", Quantity: 1, UnitPrice: -1}}), http.StatusBadRequest)
	assert.NoError(t, validateItems([]QuotationItemInput{{Description: "x", Quantity: 1, UnitPrice: 0}}))
}

func TestQuotationService_Create(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	mgr := e.user(t, "mgr", enum.RoleManager)
	lead := e.lead(t, mgr, "acme", nil)

	q, err := e.quotations.CreateQuotation(ctx, mgr, &CreateQuotationInput{
		LeadID:     lead.ID,
		Client:     entity.Client{Name: "Acme", Email: "buyer@acme.test", Company: "Acme"},
		ValidUntil: nowUTC().AddDate(0, 0, 30),
		Items: []QuotationItemInput{
			{Description: "Licence", Quantity: 2, UnitPrice: 50},
			{Description: "Support", Quantity: 1, UnitPrice: 100},
		},
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(q.QuotationNumber, "QT-"), q.QuotationNumber)
	assert.Equal(t, enum.QuotationStatusDraft, q.Status)
	assert.Equal(t, 200.0, q.Subtotal)
	assert.Equal(t, 20.0, q.Tax)
	assert.Equal(t, 220.0, q.Total)
	assert.Len(t, q.Items, 2)
	assert.Equal(t, 1, e.pdfs.count())

	reloaded, err := e.leads.GetLead(ctx, mgr, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, enum.LeadStatusProposal, reloaded.Status)
	require.Len(t, reloaded.Activities, 1)
	assert.Contains(t, reloaded.Activities[0].Description, "due to quotation creation")
}

func TestQuotationService_Numbers(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	mgr := e.user(t, "mgr", enum.RoleManager)
	lead := e.lead(t, mgr, "acme", nil)

	first := e.quotation(t, mgr, lead, 10)
	second := e.quotation(t, mgr, lead, 10)
	assert.NotEqual(t, first.QuotationNumber, second.QuotationNumber)

	_, err := e.quotations.CreateQuotation(ctx, mgr, &CreateQuotationInput{
		LeadID:          lead.ID,
		QuotationNumber: first.QuotationNumber,
		Client:          entity.Client{Name: "Acme"},
		ValidUntil:      nowUTC().AddDate(0, 1, 0),
		Items:           []QuotationItemInput{{Description: "x", Quantity: 1, UnitPrice: 1}},
	})
	assertStatus(t, err, http.StatusConflict)
}

func TestQuotationService_DeletedNumbersStayReserved(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	mgr := e.user(t, "mgr", enum.RoleManager)
	lead := e.lead(t, mgr, "acme", nil)

	input := func(number string) *CreateQuotationInput {
		return &CreateQuotationInput{
			LeadID:          lead.ID,
			QuotationNumber: number,
			Client:          entity.Client{Name: "Acme"},
			ValidUntil:      nowUTC().AddDate(0, 1, 0),
			Items:           []QuotationItemInput{{Description: "x", Quantity: 1, UnitPrice: 1}},
		}
	}

	custom, err := e.quotations.CreateQuotation(ctx, mgr, input("Q-CUSTOM"))
	require.NoError(t, err)
	require.NoError(t, e.quotations.DeleteQuotation(ctx, mgr, custom.ID))

	_, err = e.quotations.CreateQuotation(ctx, mgr, input("Q-CUSTOM"))
	assertStatus(t, err, http.StatusConflict)

	other := e.quotation(t, mgr, lead, 10)
	_, err = e.quotations.UpdateQuotation(ctx, mgr, other.ID, &UpdateQuotationInput{QuotationNumber: ptr("Q-CUSTOM")})
	assertStatus(t, err, http.StatusConflict)

	// Generated numbers skip a deleted quotation's number too.
	generated := e.quotation(t, mgr, lead, 10)
	require.NoError(t, e.quotations.DeleteQuotation(ctx, mgr, generated.ID))
	next := e.quotation(t, mgr, lead, 10)
	assert.NotEqual(t, generated.QuotationNumber, next.QuotationNumber)
}

func TestNumberConflict(t *testing.T) {
	assertStatus(t, numberConflict(gorm.ErrDuplicatedKey, "QT-000001"), http.StatusConflict)

	boom := errors.New("boom")
	assert.Equal(t, boom, numberConflict(boom, "QT-000001"))
}

func TestQuotationService_AcceptCascadesOnce(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	mgr := e.user(t, "mgr", enum.RoleManager)
	lead := e.lead(t, mgr, "acme", nil)
	q := e.quotation(t, mgr, lead, 100)

	accepted := enum.QuotationStatusAccepted
	for i := 0; i < 2; i++ {
		updated, err := e.quotations.UpdateQuotation(ctx, mgr, q.ID, &UpdateQuotationInput{Status: &accepted})
		require.NoError(t, err)
		assert.Equal(t, accepted, updated.Status)
	}

	reloaded, err := e.leads.GetLead(ctx, mgr, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, enum.LeadStatusWon, reloaded.Status)

	var cascades int
	for _, a := range reloaded.Activities {
		if strings.Contains(a.Description, "quotation acceptance") {
			cascades++
		}
	}
	assert.Equal(t, 1, cascades)
}

func TestQuotationService_RejectMarksLeadLost(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	mgr := e.user(t, "mgr", enum.RoleManager)
	lead := e.lead(t, mgr, "acme", nil)
	q := e.quotation(t, mgr, lead, 100)

	_, err := e.quotations.UpdateQuotation(ctx, mgr, q.ID, &UpdateQuotationInput{Status: ptr(enum.QuotationStatusRejected)})
	require.NoError(t, err)

	reloaded, err := e.leads.GetLead(ctx, mgr, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, enum.LeadStatusLost, reloaded.Status)
}

func TestQuotationService_CascadeSurvivesDeletedLead(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	mgr := e.user(t, "mgr", enum.RoleManager)
	lead := e.lead(t, mgr, "acme", nil)
	q := e.quotation(t, mgr, lead, 100)
	require.NoError(t, e.leads.DeleteLead(ctx, mgr, lead.ID))

	updated, err := e.quotations.UpdateQuotation(ctx, mgr, q.ID, &UpdateQuotationInput{Status: ptr(enum.QuotationStatusAccepted)})
	require.NoError(t, err)
	assert.Equal(t, enum.QuotationStatusAccepted, updated.Status)
}

func TestQuotationService_ReplaceItemsRecomputes(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	mgr := e.user(t, "mgr", enum.RoleManager)
	lead := e.lead(t, mgr, "acme", nil)
	q := e.quotation(t, mgr, lead, 100)

	updated, err := e.quotations.UpdateQuotation(ctx, mgr, q.ID, &UpdateQuotationInput{
		Items: []QuotationItemInput{{Description: "Bigger", Quantity: 4, UnitPrice: 250}},
	})
	require.NoError(t, err)
	require.Len(t, updated.Items, 1)
	assert.Equal(t, 1000.0, updated.Subtotal)
	assert.Equal(t, 100.0, updated.Tax)
	assert.Equal(t, 1100.0, updated.Total)
	assert.Equal(t, 2, e.pdfs.count())
}

func TestQuotationService_EmployeeScope(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	admin := e.user(t, "admin", enum.RoleAdmin)
	emp := e.user(t, "emp", enum.RoleEmployee)
	other := e.user(t, "other", enum.RoleEmployee)

	mine := e.lead(t, admin, "mine", &emp.ID)
	theirs := e.lead(t, admin, "theirs", &other.ID)

	_, err := e.quotations.CreateQuotation(ctx, emp, &CreateQuotationInput{
		LeadID:     theirs.ID,
		Client:     entity.Client{Name: "x"},
		ValidUntil: nowUTC().AddDate(0, 1, 0),
		Items:      []QuotationItemInput{{Description: "x", Quantity: 1, UnitPrice: 1}},
	})
	assertStatus(t, err, http.StatusForbidden)

	own := e.quotation(t, emp, mine, 10)
	foreign := e.quotation(t, admin, mine, 10)

	_, err = e.quotations.GetQuotation(ctx, emp, own.ID)
	require.NoError(t, err)
	_, err = e.quotations.GetQuotation(ctx, emp, foreign.ID)
	assertStatus(t, err, http.StatusForbidden)

	page, err := e.quotations.ListQuotations(ctx, emp, query.QuotationParams{})
	require.NoError(t, err)
	require.Len(t, page.Quotations, 1)
	assert.Equal(t, own.ID, page.Quotations[0].ID)

	err = e.quotations.DeleteQuotation(ctx, emp, own.ID)
	assertStatus(t, err, http.StatusForbidden)
}

func TestQuotationService_Send(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	mgr := e.user(t, "mgr", enum.RoleManager)
	lead := e.lead(t, mgr, "acme", nil)
	q := e.quotation(t, mgr, lead, 100)

	sent, err := e.quotations.SendQuotation(ctx, mgr, q.ID)
	require.NoError(t, err)
	assert.Equal(t, enum.QuotationStatusSent, sent.Status)

	// Sending does not close the lead.
	reloaded, err := e.leads.GetLead(ctx, mgr, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, enum.LeadStatusProposal, reloaded.Status)
}

func TestQuotationService_GeneratePDF(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	mgr := e.user(t, "mgr", enum.RoleManager)
	lead := e.lead(t, mgr, "acme", nil)
	q := e.quotation(t, mgr, lead, 100)

	require.NoError(t, e.quotations.GeneratePDF(ctx, q.ID))

	got, err := e.quotations.GetQuotation(ctx, mgr, q.ID)
	require.NoError(t, err)
	assert.Equal(t, "/files/quotations/"+q.ID.String()+".pdf", got.PDFURL)

	rc, err := e.store.Download(ctx, "quotations/"+q.ID.String()+".pdf")
	require.NoError(t, err)
	_ = rc.Close()

	require.NoError(t, e.quotations.DeleteQuotation(ctx, mgr, q.ID))
	_, err = e.store.Download(ctx, "quotations/"+q.ID.String()+".pdf")
	assert.Error(t, err)
}
