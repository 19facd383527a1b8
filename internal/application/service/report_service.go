package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/crm-backend/internal/application/aggregation"
	"github.com/sangkips/crm-backend/internal/domain/enum"
	"github.com/sangkips/crm-backend/internal/domain/policy"
	"github.com/sangkips/crm-backend/internal/domain/repository"
	"github.com/sangkips/crm-backend/internal/infrastructure/cache"
	"github.com/sangkips/crm-backend/internal/infrastructure/observability"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// maxReportQueries bounds the sub-queries one report runs at the same time.
const maxReportQueries = 4

// Report names, used for cache keys, spans and metrics.
const (
	reportLeads          = "leads"
	reportQuotations     = "quotations"
	reportConversion     = "conversion"
	reportSales          = "sales_performance"
	reportDashboard      = "dashboard"
	reportLeadStats      = "lead_stats"
	reportQuotationStats = "quotation_stats"
)

// RangeInput is the raw startDate/endDate pair from the query string
type RangeInput struct {
	Start string
	End   string
}

// DateRange echoes the window a report was computed over
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type MonthCount struct {
	Month string `json:"month"`
	Year  int    `json:"year"`
	Count int64  `json:"count"`
}

type MonthAmount struct {
	Month       string  `json:"month"`
	Year        int     `json:"year"`
	Count       int64   `json:"count"`
	TotalAmount float64 `json:"totalAmount"`
}

// AssigneeCount is one row of leadsByAssignee. ID is null for the Unassigned row.
type AssigneeCount struct {
	ID    *uuid.UUID `json:"id"`
	Name  string     `json:"name"`
	Count int64      `json:"count"`
}

type CreatorTotal struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Count       int64     `json:"count"`
	TotalAmount float64   `json:"totalAmount"`
}

type LeadsReport struct {
	DateRange       DateRange        `json:"dateRange"`
	TotalLeads      int64            `json:"totalLeads"`
	LeadsByStatus   map[string]int64 `json:"leadsByStatus"`
	LeadsBySource   map[string]int64 `json:"leadsBySource"`
	LeadsByMonth    []MonthCount     `json:"leadsByMonth"`
	LeadsByAssignee []AssigneeCount  `json:"leadsByAssignee"`
}

type QuotationsReport struct {
	DateRange           DateRange                          `json:"dateRange"`
	TotalQuotations     int64                              `json:"totalQuotations"`
	TotalAmount         float64                            `json:"totalAmount"`
	QuotationsByStatus  map[string]aggregation.AmountGroup `json:"quotationsByStatus"`
	QuotationsByMonth   []MonthAmount                      `json:"quotationsByMonth"`
	QuotationsByCreator []CreatorTotal                     `json:"quotationsByCreator"`
}

type MonthlyConversion struct {
	Month                 string  `json:"month"`
	Year                  int     `json:"year"`
	LeadToQuotationRate   float64 `json:"leadToQuotationRate"`
	QuotationToSaleRate   float64 `json:"quotationToSaleRate"`
	OverallConversionRate float64 `json:"overallConversionRate"`
}

type ConversionReport struct {
	DateRange                   DateRange                   `json:"dateRange"`
	TotalLeads                  int64                       `json:"totalLeads"`
	LeadsWithQuotations         int64                       `json:"leadsWithQuotations"`
	LeadsWithAcceptedQuotations int64                       `json:"leadsWithAcceptedQuotations"`
	ConversionRates             aggregation.ConversionRates `json:"conversionRates"`
	MonthlyData                 []MonthlyConversion         `json:"monthlyData"`
}

type SalesRep struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

type RepPerformance struct {
	SalesRep       SalesRep `json:"salesRep"`
	LeadsAssigned  int64    `json:"leadsAssigned"`
	LeadsContacted int64    `json:"leadsContacted"`
	QuotationsSent int64    `json:"quotationsSent"`
	SalesClosed    int64    `json:"salesClosed"`
	ConversionRate float64  `json:"conversionRate"`
	Revenue        float64  `json:"revenue"`
	Target         float64  `json:"target"`
	Performance    string   `json:"performance"`
}

type SalesPerformanceReport struct {
	DateRange       DateRange        `json:"dateRange"`
	PerformanceData []RepPerformance `json:"performanceData"`
}

type DashboardStats struct {
	TotalLeads      int64   `json:"totalLeads"`
	NewLeads        int64   `json:"newLeads"`
	TotalQuotations int64   `json:"totalQuotations"`
	ConversionRate  float64 `json:"conversionRate"`
}

type LeadStats struct {
	StatusCounts map[string]int64 `json:"statusCounts"`
	SourceCounts map[string]int64 `json:"sourceCounts"`
	MonthlyData  []MonthCount     `json:"monthlyData"`
}

type QuotationStats struct {
	StatusCounts map[string]aggregation.AmountGroup `json:"statusCounts"`
	MonthlyData  []MonthAmount                      `json:"monthlyData"`
}

// ReportService assembles reports from server-side aggregations. Employees
// only ever see figures for their own leads and quotations.
type ReportService struct {
	analytics   repository.AnalyticsRepository
	userRepo    repository.UserRepository
	cache       *cache.ReportCache
	metrics     *observability.Metrics
	logger      *zap.Logger
	tracer      trace.Tracer
	salesTarget float64
	now         func() time.Time
}

// NewReportService creates a new report service
func NewReportService(
	analytics repository.AnalyticsRepository,
	userRepo repository.UserRepository,
	reportCache *cache.ReportCache,
	salesTarget float64,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		analytics:   analytics,
		userRepo:    userRepo,
		cache:       reportCache,
		metrics:     metrics,
		logger:      logger,
		tracer:      otel.Tracer("github.com/sangkips/crm-backend/reports"),
		salesTarget: salesTarget,
		now:         nowUTC,
	}
}

// LeadsReport counts leads in the window by status, source, month and assignee.
func (s *ReportService) LeadsReport(ctx context.Context, actor policy.Actor, in RangeInput) (*LeadsReport, error) {
	r, err := s.resolve(in)
	if err != nil {
		return nil, err
	}
	out := &LeadsReport{}
	err = s.run(ctx, reportLeads, actor, out, func(ctx context.Context) (interface{}, error) {
		c := repository.LeadCriteria{Range: &r, AssignedTo: policy.LeadOwnerRestriction(actor)}
		rep := &LeadsReport{DateRange: DateRange{Start: r.Start, End: r.End}}

		var byStatus, bySource []repository.GroupRow
		var months []repository.MonthRow
		var assignees []repository.AssigneeRow

		g, gctx := fanOut(ctx)
		g.Go(func() (err error) { rep.TotalLeads, err = s.analytics.CountLeads(gctx, c); return })
		g.Go(func() (err error) { byStatus, err = s.analytics.GroupLeads(gctx, c, repository.GroupByStatus); return })
		g.Go(func() (err error) { bySource, err = s.analytics.GroupLeads(gctx, c, repository.GroupBySource); return })
		g.Go(func() (err error) { months, err = s.analytics.MonthlyLeads(gctx, c); return })
		g.Go(func() (err error) { assignees, err = s.analytics.LeadsByAssignee(gctx, c); return })
		if err := g.Wait(); err != nil {
			return nil, err
		}

		rep.LeadsByStatus = aggregation.CountMap(byStatus)
		rep.LeadsBySource = aggregation.CountMap(bySource)
		rep.LeadsByMonth = monthCounts(aggregation.Dense(r.Start, r.End, months))
		rep.LeadsByAssignee = assigneeCounts(assignees)
		return rep, nil
	}, rangeKey(r)...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// QuotationsReport counts and sums quotations in the window by status, month and creator.
func (s *ReportService) QuotationsReport(ctx context.Context, actor policy.Actor, in RangeInput) (*QuotationsReport, error) {
	r, err := s.resolve(in)
	if err != nil {
		return nil, err
	}
	out := &QuotationsReport{}
	err = s.run(ctx, reportQuotations, actor, out, func(ctx context.Context) (interface{}, error) {
		c := repository.QuotationCriteria{Range: &r, CreatedBy: policy.QuotationOwnerRestriction(actor)}
		rep := &QuotationsReport{DateRange: DateRange{Start: r.Start, End: r.End}}

		var byStatus []repository.GroupRow
		var months []repository.MonthRow
		var creators []repository.CreatorRow

		g, gctx := fanOut(ctx)
		g.Go(func() (err error) { rep.TotalQuotations, err = s.analytics.CountQuotations(gctx, c); return })
		g.Go(func() (err error) { rep.TotalAmount, err = s.analytics.SumQuotations(gctx, c); return })
		g.Go(func() (err error) { byStatus, err = s.analytics.GroupQuotations(gctx, c, repository.GroupByStatus); return })
		g.Go(func() (err error) { months, err = s.analytics.MonthlyQuotations(gctx, c); return })
		g.Go(func() (err error) { creators, err = s.analytics.QuotationsByCreator(gctx, c); return })
		if err := g.Wait(); err != nil {
			return nil, err
		}

		rep.QuotationsByStatus = aggregation.AmountMap(byStatus)
		rep.QuotationsByMonth = monthAmounts(aggregation.Dense(r.Start, r.End, months))
		rep.QuotationsByCreator = make([]CreatorTotal, 0, len(creators))
		for _, row := range creators {
			rep.QuotationsByCreator = append(rep.QuotationsByCreator, CreatorTotal{
				ID: row.UserID, Name: row.Name, Count: row.Count, TotalAmount: row.Total,
			})
		}
		return rep, nil
	}, rangeKey(r)...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ConversionReport measures the lead to quotation to sale funnel. Quoted and
// accepted counts are distinct leads. The monthly series covers whole
// calendar months.
func (s *ReportService) ConversionReport(ctx context.Context, actor policy.Actor, in RangeInput) (*ConversionReport, error) {
	r, err := s.resolve(in)
	if err != nil {
		return nil, err
	}
	out := &ConversionReport{}
	err = s.run(ctx, reportConversion, actor, out, func(ctx context.Context) (interface{}, error) {
		accepted := enum.QuotationStatusAccepted
		leadOwner := policy.LeadOwnerRestriction(actor)
		quoteOwner := policy.QuotationOwnerRestriction(actor)
		months := aggregation.WholeMonths(r)

		leadC := repository.LeadCriteria{Range: &r, AssignedTo: leadOwner}
		quotedC := repository.QuotationCriteria{Range: &r, CreatedBy: quoteOwner}
		acceptedC := repository.QuotationCriteria{Range: &r, CreatedBy: quoteOwner, Status: &accepted}
		mLeadC := repository.LeadCriteria{Range: &months, AssignedTo: leadOwner}
		mQuotedC := repository.QuotationCriteria{Range: &months, CreatedBy: quoteOwner}
		mAcceptedC := repository.QuotationCriteria{Range: &months, CreatedBy: quoteOwner, Status: &accepted}

		rep := &ConversionReport{DateRange: DateRange{Start: r.Start, End: r.End}}
		var leadRows, quotedRows, acceptedRows []repository.MonthRow

		g, gctx := fanOut(ctx)
		g.Go(func() (err error) { rep.TotalLeads, err = s.analytics.CountLeads(gctx, leadC); return })
		g.Go(func() (err error) { rep.LeadsWithQuotations, err = s.analytics.CountQuotedLeads(gctx, quotedC); return })
		g.Go(func() (err error) {
			rep.LeadsWithAcceptedQuotations, err = s.analytics.CountQuotedLeads(gctx, acceptedC)
			return
		})
		g.Go(func() (err error) { leadRows, err = s.analytics.MonthlyLeads(gctx, mLeadC); return })
		g.Go(func() (err error) { quotedRows, err = s.analytics.MonthlyQuotedLeads(gctx, mQuotedC); return })
		g.Go(func() (err error) { acceptedRows, err = s.analytics.MonthlyQuotedLeads(gctx, mAcceptedC); return })
		if err := g.Wait(); err != nil {
			return nil, err
		}

		rep.ConversionRates = aggregation.Conversion(rep.TotalLeads, rep.LeadsWithQuotations, rep.LeadsWithAcceptedQuotations)

		leads := aggregation.Dense(months.Start, months.End, leadRows)
		quoted := aggregation.Dense(months.Start, months.End, quotedRows)
		won := aggregation.Dense(months.Start, months.End, acceptedRows)
		rep.MonthlyData = make([]MonthlyConversion, 0, len(leads))
		for i, b := range leads {
			rates := aggregation.Conversion(b.Count, quoted[i].Count, won[i].Count)
			rep.MonthlyData = append(rep.MonthlyData, MonthlyConversion{
				Month:                 b.Label(),
				Year:                  b.Year,
				LeadToQuotationRate:   rates.LeadToQuotation,
				QuotationToSaleRate:   rates.QuotationToSale,
				OverallConversionRate: rates.Overall,
			})
		}
		return rep, nil
	}, rangeKey(r)...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SalesPerformance rolls up leads and quotations per sales rep. Employees see
// only their own row; managers and admins see every employee and manager.
func (s *ReportService) SalesPerformance(ctx context.Context, actor policy.Actor, in RangeInput) (*SalesPerformanceReport, error) {
	r, err := s.resolve(in)
	if err != nil {
		return nil, err
	}
	out := &SalesPerformanceReport{}
	err = s.run(ctx, reportSales, actor, out, func(ctx context.Context) (interface{}, error) {
		var reps []SalesRep
		var leadRows []repository.AssigneeRow
		var quoteRows []repository.CreatorRow

		g, gctx := fanOut(ctx)
		g.Go(func() (err error) { reps, err = s.salesReps(gctx, actor); return })
		g.Go(func() (err error) {
			leadRows, err = s.analytics.LeadsByAssignee(gctx, repository.LeadCriteria{
				Range: &r, AssignedTo: policy.LeadOwnerRestriction(actor),
			})
			return
		})
		g.Go(func() (err error) {
			quoteRows, err = s.analytics.QuotationsByCreator(gctx, repository.QuotationCriteria{
				Range: &r, CreatedBy: policy.QuotationOwnerRestriction(actor),
			})
			return
		})
		if err := g.Wait(); err != nil {
			return nil, err
		}

		leadsBy := make(map[uuid.UUID]repository.AssigneeRow, len(leadRows))
		for _, row := range leadRows {
			if row.UserID != nil {
				leadsBy[*row.UserID] = row
			}
		}
		quotesBy := make(map[uuid.UUID]repository.CreatorRow, len(quoteRows))
		for _, row := range quoteRows {
			quotesBy[row.UserID] = row
		}

		rep := &SalesPerformanceReport{
			DateRange:       DateRange{Start: r.Start, End: r.End},
			PerformanceData: make([]RepPerformance, 0, len(reps)),
		}
		for _, u := range reps {
			l, q := leadsBy[u.ID], quotesBy[u.ID]
			rate := aggregation.Rate(q.Accepted, l.Leads)
			rep.PerformanceData = append(rep.PerformanceData, RepPerformance{
				SalesRep:       u,
				LeadsAssigned:  l.Leads,
				LeadsContacted: l.Contacted,
				QuotationsSent: q.Count,
				SalesClosed:    q.Accepted,
				ConversionRate: rate,
				Revenue:        q.Revenue,
				Target:         s.salesTarget,
				Performance:    aggregation.PerformanceTier(rate),
			})
		}
		return rep, nil
	}, rangeKey(r)...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *ReportService) salesReps(ctx context.Context, actor policy.Actor) ([]SalesRep, error) {
	if !actor.Role.IsPrivileged() {
		u, err := s.userRepo.GetByID(ctx, actor.ID)
		if err != nil || u == nil {
			return nil, err
		}
		return []SalesRep{{ID: u.ID, Name: u.Name, Email: u.Email}}, nil
	}
	users, err := s.userRepo.ListByRoles(ctx, enum.RoleEmployee, enum.RoleManager)
	if err != nil {
		return nil, err
	}
	reps := make([]SalesRep, 0, len(users))
	for _, u := range users {
		reps = append(reps, SalesRep{ID: u.ID, Name: u.Name, Email: u.Email})
	}
	return reps, nil
}

// DashboardStats returns the headline counters. The conversion rate is
// accepted quotations over all leads.
func (s *ReportService) DashboardStats(ctx context.Context, actor policy.Actor) (*DashboardStats, error) {
	now := s.now()
	out := &DashboardStats{}
	err := s.run(ctx, reportDashboard, actor, out, func(ctx context.Context) (interface{}, error) {
		accepted := enum.QuotationStatusAccepted
		leadOwner := policy.LeadOwnerRestriction(actor)
		quoteOwner := policy.QuotationOwnerRestriction(actor)
		lastWeek := repository.TimeRange{Start: now.AddDate(0, 0, -7), End: now}

		stats := &DashboardStats{}
		var acceptedCount int64

		g, gctx := fanOut(ctx)
		g.Go(func() (err error) {
			stats.TotalLeads, err = s.analytics.CountLeads(gctx, repository.LeadCriteria{AssignedTo: leadOwner})
			return
		})
		g.Go(func() (err error) {
			stats.NewLeads, err = s.analytics.CountLeads(gctx, repository.LeadCriteria{Range: &lastWeek, AssignedTo: leadOwner})
			return
		})
		g.Go(func() (err error) {
			stats.TotalQuotations, err = s.analytics.CountQuotations(gctx, repository.QuotationCriteria{CreatedBy: quoteOwner})
			return
		})
		g.Go(func() (err error) {
			acceptedCount, err = s.analytics.CountQuotations(gctx, repository.QuotationCriteria{CreatedBy: quoteOwner, Status: &accepted})
			return
		})
		if err := g.Wait(); err != nil {
			return nil, err
		}
		stats.ConversionRate = aggregation.Rate(acceptedCount, stats.TotalLeads)
		return stats, nil
	}, now.Format("2006-01-02T15"))
	if err != nil {
		return nil, err
	}
	return out, nil
}

// LeadStats returns lead counts by status and source plus a dense twelve month series.
func (s *ReportService) LeadStats(ctx context.Context, actor policy.Actor) (*LeadStats, error) {
	window := aggregation.LastTwelveMonths(s.now())
	out := &LeadStats{}
	err := s.run(ctx, reportLeadStats, actor, out, func(ctx context.Context) (interface{}, error) {
		owner := policy.LeadOwnerRestriction(actor)
		all := repository.LeadCriteria{AssignedTo: owner}

		var byStatus, bySource []repository.GroupRow
		var months []repository.MonthRow

		g, gctx := fanOut(ctx)
		g.Go(func() (err error) { byStatus, err = s.analytics.GroupLeads(gctx, all, repository.GroupByStatus); return })
		g.Go(func() (err error) { bySource, err = s.analytics.GroupLeads(gctx, all, repository.GroupBySource); return })
		g.Go(func() (err error) {
			months, err = s.analytics.MonthlyLeads(gctx, repository.LeadCriteria{Range: &window, AssignedTo: owner})
			return
		})
		if err := g.Wait(); err != nil {
			return nil, err
		}
		return &LeadStats{
			StatusCounts: aggregation.CountMap(byStatus),
			SourceCounts: aggregation.CountMap(bySource),
			MonthlyData:  monthCounts(aggregation.Dense(window.Start, window.End, months)),
		}, nil
	}, rangeKey(window)...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// QuotationStats returns quotation counts and totals by status plus a dense
// twelve month series.
func (s *ReportService) QuotationStats(ctx context.Context, actor policy.Actor) (*QuotationStats, error) {
	window := aggregation.LastTwelveMonths(s.now())
	out := &QuotationStats{}
	err := s.run(ctx, reportQuotationStats, actor, out, func(ctx context.Context) (interface{}, error) {
		owner := policy.QuotationOwnerRestriction(actor)

		var byStatus []repository.GroupRow
		var months []repository.MonthRow

		g, gctx := fanOut(ctx)
		g.Go(func() (err error) {
			byStatus, err = s.analytics.GroupQuotations(gctx, repository.QuotationCriteria{CreatedBy: owner}, repository.GroupByStatus)
			return
		})
		g.Go(func() (err error) {
			months, err = s.analytics.MonthlyQuotations(gctx, repository.QuotationCriteria{Range: &window, CreatedBy: owner})
			return
		})
		if err := g.Wait(); err != nil {
			return nil, err
		}
		return &QuotationStats{
			StatusCounts: aggregation.AmountMap(byStatus),
			MonthlyData:  monthAmounts(aggregation.Dense(window.Start, window.End, months)),
		}, nil
	}, rangeKey(window)...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *ReportService) resolve(in RangeInput) (repository.TimeRange, error) {
	return aggregation.ResolveRange(in.Start, in.End, s.now())
}

// run authorizes, traces and times one report, serving it from the cache when possible.
func (s *ReportService) run(ctx context.Context, name string, actor policy.Actor, dest interface{}, load func(context.Context) (interface{}, error), parts ...string) error {
	if err := policy.Authorize(actor, policy.ReportRead, nil); err != nil {
		return err
	}

	ctx, span := s.tracer.Start(ctx, "report."+name, trace.WithAttributes(
		attribute.String("report.name", name),
		attribute.String("actor.role", actor.Role.String()),
	))
	defer span.End()

	started := time.Now()
	key := append([]string{scopeKey(actor)}, parts...)
	if err := s.cache.FetchJSON(ctx, name, dest, load, key...); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.Error("report failed", zap.String("report", name), zap.Error(err))
		return err
	}
	s.metrics.ObserveReport(name, time.Since(started))
	return nil
}

func fanOut(ctx context.Context) (*errgroup.Group, context.Context) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxReportQueries)
	return g, gctx
}

// scopeKey separates cached reports of employees, who see only their own data.
func scopeKey(actor policy.Actor) string {
	if actor.Role.IsPrivileged() {
		return "all"
	}
	return "user:" + actor.ID.String()
}

func rangeKey(r repository.TimeRange) []string {
	return []string{r.Start.UTC().Format(time.RFC3339Nano), r.End.UTC().Format(time.RFC3339Nano)}
}

func monthCounts(buckets []aggregation.Bucket) []MonthCount {
	out := make([]MonthCount, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, MonthCount{Month: b.Label(), Year: b.Year, Count: b.Count})
	}
	return out
}

func monthAmounts(buckets []aggregation.Bucket) []MonthAmount {
	out := make([]MonthAmount, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, MonthAmount{Month: b.Label(), Year: b.Year, Count: b.Count, TotalAmount: b.Total})
	}
	return out
}

// assigneeCounts keeps assigned groups in store order and appends the
// Unassigned row last, only when it is non-empty.
func assigneeCounts(rows []repository.AssigneeRow) []AssigneeCount {
	out := make([]AssigneeCount, 0, len(rows)+1)
	var unassigned int64
	for _, row := range rows {
		if row.UserID == nil {
			unassigned += row.Leads
			continue
		}
		out = append(out, AssigneeCount{ID: row.UserID, Name: row.Name, Count: row.Leads})
	}
	if unassigned > 0 {
		out = append(out, AssigneeCount{Name: "Unassigned", Count: unassigned})
	}
	return out
}
