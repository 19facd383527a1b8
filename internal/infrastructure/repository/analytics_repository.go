package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/crm-backend/internal/domain/entity"
	domainRepo "github.com/sangkips/crm-backend/internal/domain/repository"
	"github.com/sangkips/crm-backend/internal/infrastructure/database"
	"gorm.io/gorm"
)

type analyticsRepository struct {
	db *gorm.DB
}

// NewAnalyticsRepository creates a new analytics repository
func NewAnalyticsRepository(db *gorm.DB) domainRepo.AnalyticsRepository {
	return &analyticsRepository{db: db}
}

// scan targets; aliases avoid words some dialects reserve
type groupScan struct {
	Grp    string  `gorm:"column:grp"`
	Cnt    int64   `gorm:"column:cnt"`
	Amount float64 `gorm:"column:amount"`
}

type monthScan struct {
	Yr     int     `gorm:"column:yr"`
	Mon    int     `gorm:"column:mon"`
	Cnt    int64   `gorm:"column:cnt"`
	Amount float64 `gorm:"column:amount"`
}

type assigneeScan struct {
	Assignee  *uuid.UUID `gorm:"column:assignee"`
	Cnt       int64      `gorm:"column:cnt"`
	Contacted int64      `gorm:"column:contacted"`
}

type creatorScan struct {
	Creator  uuid.UUID `gorm:"column:creator"`
	Cnt      int64     `gorm:"column:cnt"`
	Amount   float64   `gorm:"column:amount"`
	Accepted int64     `gorm:"column:accepted"`
	Revenue  float64   `gorm:"column:revenue"`
}

func (r *analyticsRepository) leads(ctx context.Context, c domainRepo.LeadCriteria) *gorm.DB {
	return r.db.WithContext(ctx).Model(&entity.Lead{}).Scopes(
		CreatedWithin(c.Range),
		OwnedBy("assigned_to", c.AssignedTo),
	)
}

func (r *analyticsRepository) quotations(ctx context.Context, c domainRepo.QuotationCriteria) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&entity.Quotation{}).Scopes(
		CreatedWithin(c.Range),
		OwnedBy("created_by", c.CreatedBy),
	)
	if c.Status != nil {
		q = q.Where("status = ?", *c.Status)
	}
	return q
}

func (r *analyticsRepository) CountLeads(ctx context.Context, c domainRepo.LeadCriteria) (int64, error) {
	var n int64
	err := r.leads(ctx, c).Count(&n).Error
	return n, err
}

func (r *analyticsRepository) GroupLeads(ctx context.Context, c domainRepo.LeadCriteria, field domainRepo.GroupField) ([]domainRepo.GroupRow, error) {
	var rows []groupScan
	err := r.leads(ctx, c).
		Select(string(field) + " AS grp, COUNT(*) AS cnt").
		Group(string(field)).
		Scan(&rows).Error
	return toGroupRows(rows), err
}

func (r *analyticsRepository) MonthlyLeads(ctx context.Context, c domainRepo.LeadCriteria) ([]domainRepo.MonthRow, error) {
	y, m := database.YearExpr(r.db, "created_at"), database.MonthExpr(r.db, "created_at")
	var rows []monthScan
	err := r.leads(ctx, c).
		Select(y + " AS yr, " + m + " AS mon, COUNT(*) AS cnt").
		Group(y + ", " + m).
		Scan(&rows).Error
	return toMonthRows(rows), err
}

func (r *analyticsRepository) LeadsByAssignee(ctx context.Context, c domainRepo.LeadCriteria) ([]domainRepo.AssigneeRow, error) {
	var rows []assigneeScan
	err := r.leads(ctx, c).
		Select("assigned_to AS assignee, COUNT(*) AS cnt, " +
			"SUM(CASE WHEN status <> 'new' THEN 1 ELSE 0 END) AS contacted").
		Group("assigned_to").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		if row.Assignee != nil {
			ids = append(ids, *row.Assignee)
		}
	}
	names, err := r.userNames(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]domainRepo.AssigneeRow, 0, len(rows))
	for _, row := range rows {
		ar := domainRepo.AssigneeRow{UserID: row.Assignee, Leads: row.Cnt, Contacted: row.Contacted}
		if row.Assignee != nil {
			ar.Name = names[*row.Assignee]
		}
		out = append(out, ar)
	}
	return out, nil
}

func (r *analyticsRepository) CountQuotations(ctx context.Context, c domainRepo.QuotationCriteria) (int64, error) {
	var n int64
	err := r.quotations(ctx, c).Count(&n).Error
	return n, err
}

func (r *analyticsRepository) SumQuotations(ctx context.Context, c domainRepo.QuotationCriteria) (float64, error) {
	var sum float64
	err := r.quotations(ctx, c).Select("COALESCE(SUM(total), 0)").Scan(&sum).Error
	return sum, err
}

func (r *analyticsRepository) GroupQuotations(ctx context.Context, c domainRepo.QuotationCriteria, field domainRepo.GroupField) ([]domainRepo.GroupRow, error) {
	var rows []groupScan
	err := r.quotations(ctx, c).
		Select(string(field) + " AS grp, COUNT(*) AS cnt, COALESCE(SUM(total), 0) AS amount").
		Group(string(field)).
		Scan(&rows).Error
	return toGroupRows(rows), err
}

func (r *analyticsRepository) MonthlyQuotations(ctx context.Context, c domainRepo.QuotationCriteria) ([]domainRepo.MonthRow, error) {
	y, m := database.YearExpr(r.db, "created_at"), database.MonthExpr(r.db, "created_at")
	var rows []monthScan
	err := r.quotations(ctx, c).
		Select(y + " AS yr, " + m + " AS mon, COUNT(*) AS cnt, COALESCE(SUM(total), 0) AS amount").
		Group(y + ", " + m).
		Scan(&rows).Error
	return toMonthRows(rows), err
}

func (r *analyticsRepository) QuotationsByCreator(ctx context.Context, c domainRepo.QuotationCriteria) ([]domainRepo.CreatorRow, error) {
	var rows []creatorScan
	err := r.quotations(ctx, c).
		Select("created_by AS creator, COUNT(*) AS cnt, COALESCE(SUM(total), 0) AS amount, " +
			"SUM(CASE WHEN status = 'accepted' THEN 1 ELSE 0 END) AS accepted, " +
			"COALESCE(SUM(CASE WHEN status = 'accepted' THEN total ELSE 0 END), 0) AS revenue").
		Group("created_by").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.Creator)
	}
	names, err := r.userNames(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]domainRepo.CreatorRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, domainRepo.CreatorRow{
			UserID:   row.Creator,
			Name:     names[row.Creator],
			Count:    row.Cnt,
			Total:    row.Amount,
			Accepted: row.Accepted,
			Revenue:  row.Revenue,
		})
	}
	return out, nil
}

func (r *analyticsRepository) CountQuotedLeads(ctx context.Context, c domainRepo.QuotationCriteria) (int64, error) {
	var n int64
	err := r.quotations(ctx, c).Select("COUNT(DISTINCT lead_id)").Scan(&n).Error
	return n, err
}

func (r *analyticsRepository) MonthlyQuotedLeads(ctx context.Context, c domainRepo.QuotationCriteria) ([]domainRepo.MonthRow, error) {
	y, m := database.YearExpr(r.db, "created_at"), database.MonthExpr(r.db, "created_at")
	var rows []monthScan
	err := r.quotations(ctx, c).
		Select(y + " AS yr, " + m + " AS mon, COUNT(DISTINCT lead_id) AS cnt").
		Group(y + ", " + m).
		Scan(&rows).Error
	return toMonthRows(rows), err
}

// userNames resolves display names for ids. Users that no longer exist are absent.
func (r *analyticsRepository) userNames(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	names := make(map[uuid.UUID]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}
	var users []entity.User
	if err := r.db.WithContext(ctx).Select("id", "name").Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	for _, u := range users {
		names[u.ID] = u.Name
	}
	return names, nil
}

func toGroupRows(rows []groupScan) []domainRepo.GroupRow {
	out := make([]domainRepo.GroupRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, domainRepo.GroupRow{Key: r.Grp, Count: r.Cnt, Total: r.Amount})
	}
	return out
}

func toMonthRows(rows []monthScan) []domainRepo.MonthRow {
	out := make([]domainRepo.MonthRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, domainRepo.MonthRow{Year: r.Yr, Month: r.Mon, Count: r.Cnt, Total: r.Amount})
	}
	return out
}
