package repository

import (
	"context"
	"testing"
	"time"

	"github.com/sangkips/crm-backend/internal/domain/entity"
	"github.com/sangkips/crm-backend/internal/domain/enum"
	domainRepo "github.com/sangkips/crm-backend/internal/domain/repository"
	"github.com/sangkips/crm-backend/internal/infrastructure/database/dbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestQuotationRepository_ItemsKeepOrder(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()
	repo := NewQuotationRepository(db)
	admin := seedUser(t, db, "admin", enum.RoleAdmin)
	lead := seedLead(t, db, "acme", admin.ID)

	q := seedQuotation(t, db, "QT-000001", lead, admin.ID, enum.QuotationStatusDraft, 100, time.Now().UTC())

	q.Items = []entity.QuotationItem{
		{Description: "first", Quantity: 1, UnitPrice: 10, Amount: 10},
		{Description: "second", Quantity: 2, UnitPrice: 20, Amount: 40},
		{Description: "third", Quantity: 3, UnitPrice: 5, Amount: 15},
	}
	require.NoError(t, repo.Update(ctx, q, true))

	got, err := repo.GetByID(ctx, q.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 3)
	assert.Equal(t, "first", got.Items[0].Description)
	assert.Equal(t, "third", got.Items[2].Description)
	require.NotNil(t, got.Lead)
	assert.Equal(t, "acme", got.Lead.Name)

	var itemCount int64
	db.Model(&entity.QuotationItem{}).Count(&itemCount)
	assert.Equal(t, int64(3), itemCount)
}

func TestQuotationRepository_UpdateWithoutItemsKeepsThem(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()
	repo := NewQuotationRepository(db)
	admin := seedUser(t, db, "admin", enum.RoleAdmin)
	lead := seedLead(t, db, "acme", admin.ID)
	q := seedQuotation(t, db, "QT-000001", lead, admin.ID, enum.QuotationStatusDraft, 100, time.Now().UTC())

	q.Notes = "net 30"
	q.Items = nil
	require.NoError(t, repo.Update(ctx, q, false))

	got, err := repo.GetByID(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, "net 30", got.Notes)
	assert.Len(t, got.Items, 1)
}

func TestQuotationRepository_List(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()
	repo := NewQuotationRepository(db)
	admin := seedUser(t, db, "admin", enum.RoleAdmin)
	emp := seedUser(t, db, "emp", enum.RoleEmployee)
	acme := seedLead(t, db, "acme", admin.ID)
	globex := seedLead(t, db, "globex", admin.ID)
	now := time.Now().UTC()

	seedQuotation(t, db, "QT-000001", acme, admin.ID, enum.QuotationStatusDraft, 100, now)
	seedQuotation(t, db, "QT-000002", globex, emp.ID, enum.QuotationStatusSent, 300, now.Add(time.Minute))
	seedQuotation(t, db, "QT-000003", acme, emp.ID, enum.QuotationStatusAccepted, 200, now.Add(2*time.Minute))

	t.Run("creator restriction", func(t *testing.T) {
		_, total, err := repo.List(ctx, &domainRepo.QuotationFilter{CreatorID: &emp.ID})
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
	})

	t.Run("by lead", func(t *testing.T) {
		_, total, err := repo.List(ctx, &domainRepo.QuotationFilter{LeadID: &acme.ID})
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
	})

	t.Run("search client company", func(t *testing.T) {
		qs, _, err := repo.List(ctx, &domainRepo.QuotationFilter{Search: "globex ltd"})
		require.NoError(t, err)
		require.Len(t, qs, 1)
		assert.Equal(t, "QT-000002", qs[0].QuotationNumber)
	})

	t.Run("sorted by total descending", func(t *testing.T) {
		qs, _, err := repo.List(ctx, &domainRepo.QuotationFilter{Sort: domainRepo.Sort{Column: "total", Desc: true}})
		require.NoError(t, err)
		require.Len(t, qs, 3)
		assert.Equal(t, "QT-000002", qs[0].QuotationNumber)
		assert.Equal(t, "QT-000001", qs[2].QuotationNumber)
	})
}

func TestQuotationRepository_NextNumberCountsDeleted(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()
	repo := NewQuotationRepository(db)
	admin := seedUser(t, db, "admin", enum.RoleAdmin)
	lead := seedLead(t, db, "acme", admin.ID)
	q := seedQuotation(t, db, "QT-000001", lead, admin.ID, enum.QuotationStatusDraft, 100, time.Now().UTC())
	require.NoError(t, repo.Delete(ctx, q.ID))

	next, err := repo.GetNextNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, next)
}

func TestQuotationRepository_NumberTakenCountsDeleted(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()
	repo := NewQuotationRepository(db)
	admin := seedUser(t, db, "admin", enum.RoleAdmin)
	lead := seedLead(t, db, "acme", admin.ID)
	q := seedQuotation(t, db, "Q-CUSTOM", lead, admin.ID, enum.QuotationStatusDraft, 100, time.Now().UTC())

	taken, err := repo.NumberTaken(ctx, "Q-CUSTOM")
	require.NoError(t, err)
	assert.True(t, taken)

	require.NoError(t, repo.Delete(ctx, q.ID))
	taken, err = repo.NumberTaken(ctx, "Q-CUSTOM")
	require.NoError(t, err)
	assert.True(t, taken)

	taken, err = repo.NumberTaken(ctx, "Q-OTHER")
	require.NoError(t, err)
	assert.False(t, taken)
}

func TestQuotationRepository_UpdateStatusChangesOnce(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()
	repo := NewQuotationRepository(db)
	admin := seedUser(t, db, "admin", enum.RoleAdmin)
	lead := seedLead(t, db, "acme", admin.ID)
	q := seedQuotation(t, db, "QT-000001", lead, admin.ID, enum.QuotationStatusDraft, 100, time.Now().UTC())

	// Both callers read draft; only the first one moves the row.
	changed, err := repo.UpdateStatus(ctx, q.ID, enum.QuotationStatusAccepted)
	require.NoError(t, err)
	assert.True(t, changed)
	changed, err = repo.UpdateStatus(ctx, q.ID, enum.QuotationStatusAccepted)
	require.NoError(t, err)
	assert.False(t, changed)

	// A stale save of other fields does not roll the status back.
	q.Status = enum.QuotationStatusDraft
	q.Notes = "net 30"
	q.Lead, q.Creator = nil, nil
	require.NoError(t, repo.Update(ctx, q, false))

	got, err := repo.GetByID(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, enum.QuotationStatusAccepted, got.Status)
	assert.Equal(t, "net 30", got.Notes)
}

func TestQuotationRepository_DuplicateNumberIsTranslated(t *testing.T) {
	db := dbtest.New(t)
	admin := seedUser(t, db, "admin", enum.RoleAdmin)
	lead := seedLead(t, db, "acme", admin.ID)
	seedQuotation(t, db, "QT-000001", lead, admin.ID, enum.QuotationStatusDraft, 100, time.Now().UTC())

	err := NewQuotationRepository(db).Create(context.Background(), &entity.Quotation{
		QuotationNumber: "QT-000001",
		LeadID:          lead.ID,
		Client:          entity.Client{Name: "Acme"},
		ValidUntil:      time.Now().UTC(),
		Status:          enum.QuotationStatusDraft,
		CreatedBy:       admin.ID,
	})
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func TestQuotationRepository_ExpireBefore(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()
	repo := NewQuotationRepository(db)
	admin := seedUser(t, db, "admin", enum.RoleAdmin)
	lead := seedLead(t, db, "acme", admin.ID)
	old := time.Now().UTC().AddDate(0, -3, 0)

	stale := seedQuotation(t, db, "QT-000001", lead, admin.ID, enum.QuotationStatusSent, 100, old)
	accepted := seedQuotation(t, db, "QT-000002", lead, admin.ID, enum.QuotationStatusAccepted, 100, old)
	fresh := seedQuotation(t, db, "QT-000003", lead, admin.ID, enum.QuotationStatusDraft, 100, time.Now().UTC())

	n, err := repo.ExpireBefore(ctx, time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	for id, want := range map[*entity.Quotation]enum.QuotationStatus{
		stale:    enum.QuotationStatusExpired,
		accepted: enum.QuotationStatusAccepted,
		fresh:    enum.QuotationStatusDraft,
	} {
		got, err := repo.GetByID(ctx, id.ID)
		require.NoError(t, err)
		assert.Equal(t, want, got.Status, id.QuotationNumber)
	}
}
