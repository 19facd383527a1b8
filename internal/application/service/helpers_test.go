package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sangkips/crm-backend/internal/domain/entity"
	"github.com/sangkips/crm-backend/internal/domain/enum"
	"github.com/sangkips/crm-backend/internal/domain/policy"
	"github.com/sangkips/crm-backend/internal/infrastructure/cache"
	"github.com/sangkips/crm-backend/internal/infrastructure/database/dbtest"
	"github.com/sangkips/crm-backend/internal/infrastructure/repository"
	"github.com/sangkips/crm-backend/internal/infrastructure/storage"
	"github.com/sangkips/crm-backend/pkg/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// env is a fully wired service graph over a private sqlite database.
type env struct {
	db    *gorm.DB
	store *storage.LocalStorage
	cache *cache.ReportCache
	pdfs  *recordingDispatcher

	leads       *LeadService
	quotations  *QuotationService
	users       *UserService
	company     *CompanyService
	reports     *ReportService
	uploads     *UploadService
	maintenance *MaintenanceService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := dbtest.New(t)
	logger := zap.NewNop()

	store, err := storage.NewLocalStorage(t.TempDir(), "/files")
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	reportCache := cache.NewReportCache(rdb, 0, nil, logger)

	users := repository.NewUserRepository(db)
	leads := repository.NewLeadRepository(db)
	quotations := repository.NewQuotationRepository(db)
	company := repository.NewCompanyRepository(db)

	e := &env{db: db, store: store, cache: reportCache, pdfs: &recordingDispatcher{}}
	e.leads = NewLeadService(leads, users, company, reportCache, nil, logger)
	e.quotations = NewQuotationService(QuotationDeps{
		Quotations: quotations,
		Leads:      leads,
		Company:    company,
		Storage:    store,
		Renderer:   fakeRenderer{},
		Dispatcher: e.pdfs,
		Cache:      reportCache,
		Logger:     logger,
	})
	e.users = NewUserService(users, store, reportCache, logger)
	e.company = NewCompanyService(company, store, 1<<20, nil, logger)
	e.reports = NewReportService(repository.NewAnalyticsRepository(db), users, reportCache, 50000, nil, logger)
	e.uploads = NewUploadService(store, 1<<20, logger)
	e.maintenance = NewMaintenanceService(quotations, repository.NewPasswordResetTokenRepository(db),
		repository.NewIdempotencyRepository(db), reportCache, nil, logger)
	return e
}

func (e *env) user(t *testing.T, name string, role enum.Role) policy.Actor {
	t.Helper()
	u := &entity.User{
		Name:     name,
		Email:    fmt.Sprintf("%s-%s@example.com", name, uuid.NewString()[:8]),
		Password: "hash",
		Role:     role,
	}
	require.NoError(t, e.db.Create(u).Error)
	return policy.Actor{ID: u.ID, Role: role}
}

func (e *env) lead(t *testing.T, actor policy.Actor, name string, assignee *uuid.UUID) *entity.Lead {
	t.Helper()
	lead, err := e.leads.CreateLead(context.Background(), actor, &LeadInput{
		Name:       name,
		Email:      name + "@lead.test",
		Company:    name + " Ltd",
		AssignedTo: assignee,
	})
	require.NoError(t, err)
	return lead
}

func (e *env) quotation(t *testing.T, actor policy.Actor, lead *entity.Lead, price float64) *entity.Quotation {
	t.Helper()
	q, err := e.quotations.CreateQuotation(context.Background(), actor, &CreateQuotationInput{
		LeadID:     lead.ID,
		Client:     entity.Client{Name: lead.Name, Email: lead.Email, Company: lead.Company},
		ValidUntil: nowUTC().AddDate(0, 1, 0),
		Items:      []QuotationItemInput{{Description: "Consulting", Quantity: 1, UnitPrice: price}},
	})
	require.NoError(t, err)
	return q
}

func assertStatus(t *testing.T, err error, code int) {
	t.Helper()
	require.Error(t, err)
	var appErr *apperror.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %v", err)
	assert.Equal(t, code, appErr.Code, appErr.Message)
}

func ptr[T any](v T) *T { return &v }

// recordingDispatcher remembers which quotations had a PDF requested.
type recordingDispatcher struct {
	mu  sync.Mutex
	ids []uuid.UUID
}

func (d *recordingDispatcher) EnqueueQuotationPDF(_ context.Context, id uuid.UUID) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ids = append(d.ids, id)
	return nil
}

func (d *recordingDispatcher) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.ids)
}

type fakeRenderer struct{}

func (fakeRenderer) Render(_ context.Context, q *entity.Quotation, _ *entity.Company) ([]byte, error) {
	return []byte("%PDF-1.4 " + q.QuotationNumber), nil
}
