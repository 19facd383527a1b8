package service

import (
	"fmt"
	"strings"

	"github.com/sangkips/crm-backend/internal/domain/entity"
	"github.com/sangkips/crm-backend/pkg/apperror"
	"github.com/shopspring/decimal"
)

// DefaultTaxRate is applied when a quotation arrives without complete totals.
var DefaultTaxRate = decimal.RequireFromString("0.10")

// Totals are the money fields of a quotation
type Totals struct {
	Subtotal float64
	Tax      float64
	Total    float64
}

// priceItems fills in missing line amounts as quantity × unit price, rounded
// to cents.
func priceItems(items []entity.QuotationItem) {
	for i := range items {
		if items[i].Amount == 0 {
			items[i].Amount = decimal.NewFromFloat(items[i].Quantity).
				Mul(decimal.NewFromFloat(items[i].UnitPrice)).
				Round(2).InexactFloat64()
		}
	}
}

// resolveTotals keeps given totals when all three are set. When any of them is
// zero or missing, all three are derived from the items: subtotal is the sum of
// line amounts, tax is DefaultTaxRate of it, total is their sum.
func resolveTotals(items []entity.QuotationItem, given Totals) Totals {
	if given.Subtotal != 0 && given.Tax != 0 && given.Total != 0 {
		return given
	}
	subtotal := decimal.Zero
	for _, it := range items {
		subtotal = subtotal.Add(decimal.NewFromFloat(it.Amount))
	}
	subtotal = subtotal.Round(2)
	tax := subtotal.Mul(DefaultTaxRate).Round(2)
	return Totals{
		Subtotal: subtotal.InexactFloat64(),
		Tax:      tax.InexactFloat64(),
		Total:    subtotal.Add(tax).InexactFloat64(),
	}
}

// validateItems enforces quantity ≥ 1 and non-negative prices on every line.
func validateItems(items []QuotationItemInput) error {
	if len(items) == 0 {
		return apperror.NewValidationError([]apperror.FieldError{{Field: "items", Message: "at least one item is required"}})
	}
	var fieldErrs []apperror.FieldError
	for i, it := range items {
		prefix := fmt.Sprintf("items[%d].", i)
		if strings.TrimSpace(it.Description) == "" {
			fieldErrs = append(fieldErrs, apperror.FieldError{Field: prefix + "description", Message: "is required"})
		}
		if it.Quantity < 1 {
			fieldErrs = append(fieldErrs, apperror.FieldError{Field: prefix + "quantity", Message: "must be at least 1"})
		}
		if it.UnitPrice < 0 {
			fieldErrs = append(fieldErrs, apperror.FieldError{Field: prefix + "unitPrice", Message: "must not be negative"})
		}
		if it.Amount < 0 {
			fieldErrs = append(fieldErrs, apperror.FieldError{Field: prefix + "amount", Message: "must not be negative"})
		}
	}
	if len(fieldErrs) > 0 {
		return apperror.NewValidationError(fieldErrs)
	}
	return nil
}
