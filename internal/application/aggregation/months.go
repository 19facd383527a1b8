package aggregation

import (
	"time"

	"github.com/sangkips/crm-backend/internal/domain/repository"
)

var monthLabels = [12]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// MonthLabel returns the short English name for a 1-based month.
func MonthLabel(month int) string {
	if month < 1 || month > 12 {
		return ""
	}
	return monthLabels[month-1]
}

// YearMonth identifies one calendar month
type YearMonth struct {
	Year  int
	Month int
}

// MonthSpan lists every calendar month from start to end inclusive, oldest first.
// It steps by calendar month, so a range from Jan 31 to Mar 1 yields Jan, Feb, Mar.
func MonthSpan(start, end time.Time) []YearMonth {
	start, end = start.UTC(), end.UTC()
	if start.After(end) {
		return nil
	}
	var out []YearMonth
	y, m := start.Year(), int(start.Month())
	ey, em := end.Year(), int(end.Month())
	for y < ey || (y == ey && m <= em) {
		out = append(out, YearMonth{Year: y, Month: m})
		m++
		if m > 12 {
			m = 1
			y++
		}
	}
	return out
}

// Bucket is one month of a dense series
type Bucket struct {
	Year  int
	Month int
	Count int64
	Total float64
}

// Label returns the month's short name.
func (b Bucket) Label() string {
	return MonthLabel(b.Month)
}

// Dense merges sparse store rows into one bucket per month of [start, end].
// Months without a row are zero. Rows outside the range are ignored.
func Dense(start, end time.Time, rows []repository.MonthRow) []Bucket {
	index := make(map[YearMonth]repository.MonthRow, len(rows))
	for _, r := range rows {
		k := YearMonth{Year: r.Year, Month: r.Month}
		prev := index[k]
		prev.Count += r.Count
		prev.Total += r.Total
		index[k] = prev
	}

	span := MonthSpan(start, end)
	out := make([]Bucket, 0, len(span))
	for _, ym := range span {
		r := index[ym]
		out = append(out, Bucket{Year: ym.Year, Month: ym.Month, Count: r.Count, Total: r.Total})
	}
	return out
}
