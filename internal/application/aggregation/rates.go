package aggregation

import "github.com/sangkips/crm-backend/internal/domain/repository"

// Performance tiers for sales reps, by conversion rate.
const (
	TierExcellent        = "Excellent"
	TierGood             = "Good"
	TierAverage          = "Average"
	TierNeedsImprovement = "Needs Improvement"
)

// Rate returns num/den as a percentage, or 0 when den is 0.
func Rate(num, den int64) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den) * 100
}

// ConversionRates are the three funnel ratios of the conversion report
type ConversionRates struct {
	LeadToQuotation float64 `json:"leadToQuotation"`
	QuotationToSale float64 `json:"quotationToSale"`
	Overall         float64 `json:"overall"`
}

// Conversion computes the funnel ratios from the lead total and the distinct
// quoted and accepted lead counts.
func Conversion(totalLeads, quoted, accepted int64) ConversionRates {
	return ConversionRates{
		LeadToQuotation: Rate(quoted, totalLeads),
		QuotationToSale: Rate(accepted, quoted),
		Overall:         Rate(accepted, totalLeads),
	}
}

// PerformanceTier grades a conversion rate. Thresholds are inclusive lower bounds.
func PerformanceTier(rate float64) string {
	switch {
	case rate >= 30:
		return TierExcellent
	case rate >= 20:
		return TierGood
	case rate >= 10:
		return TierAverage
	default:
		return TierNeedsImprovement
	}
}

// CountMap folds grouped rows into key -> count.
func CountMap(rows []repository.GroupRow) map[string]int64 {
	out := make(map[string]int64, len(rows))
	for _, r := range rows {
		out[r.Key] += r.Count
	}
	return out
}

// AmountGroup is a count with its summed total
type AmountGroup struct {
	Count       int64   `json:"count"`
	TotalAmount float64 `json:"totalAmount"`
}

// AmountMap folds grouped rows into key -> {count, totalAmount}.
func AmountMap(rows []repository.GroupRow) map[string]AmountGroup {
	out := make(map[string]AmountGroup, len(rows))
	for _, r := range rows {
		g := out[r.Key]
		g.Count += r.Count
		g.TotalAmount += r.Total
		out[r.Key] = g
	}
	return out
}
