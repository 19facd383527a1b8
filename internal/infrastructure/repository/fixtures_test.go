package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/crm-backend/internal/domain/entity"
	"github.com/sangkips/crm-backend/internal/domain/enum"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedUser(t *testing.T, db *gorm.DB, name string, role enum.Role) *entity.User {
	t.Helper()
	u := &entity.User{
		Name:     name,
		Email:    fmt.Sprintf("%s-%s@example.com", name, uuid.NewString()[:8]),
		Password: "hash",
		Role:     role,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

type leadOpt func(l *entity.Lead)

func withStatus(s enum.LeadStatus) leadOpt { return func(l *entity.Lead) { l.Status = s } }

func withAssignee(id uuid.UUID) leadOpt { return func(l *entity.Lead) { l.AssignedTo = &id } }

func createdAt(ts time.Time) leadOpt { return func(l *entity.Lead) { l.CreatedAt = ts } }

func seedLead(t *testing.T, db *gorm.DB, name string, creator uuid.UUID, opts ...leadOpt) *entity.Lead {
	t.Helper()
	l := &entity.Lead{
		Name:      name,
		Email:     name + "@lead.test",
		Company:   name + " Ltd",
		CreatedBy: creator,
	}
	for _, o := range opts {
		o(l)
	}
	require.NoError(t, NewLeadRepository(db).Create(context.Background(), l))
	return l
}

func seedQuotation(t *testing.T, db *gorm.DB, number string, lead *entity.Lead, creator uuid.UUID, status enum.QuotationStatus, total float64, at time.Time) *entity.Quotation {
	t.Helper()
	q := &entity.Quotation{
		QuotationNumber: number,
		LeadID:          lead.ID,
		Client:          entity.Client{Name: lead.Name, Company: lead.Company},
		ValidUntil:      at.AddDate(0, 1, 0),
		Subtotal:        total,
		Total:           total,
		Status:          status,
		CreatedBy:       creator,
		CreatedAt:       at,
		Items: []entity.QuotationItem{
			{Description: "Consulting", Quantity: 1, UnitPrice: total, Amount: total},
		},
	}
	require.NoError(t, NewQuotationRepository(db).Create(context.Background(), q))
	return q
}
