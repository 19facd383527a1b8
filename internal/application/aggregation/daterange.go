// Package aggregation holds the store-independent half of report computation:
// date range resolution, dense month bucketing, rates and performance tiers.
package aggregation

import (
	"strings"
	"time"

	"github.com/sangkips/crm-backend/internal/domain/repository"
	"github.com/sangkips/crm-backend/pkg/apperror"
)

// ErrInvalidDate is returned for any start or end date that cannot be parsed.
var ErrInvalidDate = apperror.NewBadRequestError("Invalid date format")

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseDate accepts a calendar date or an RFC 3339 timestamp.
func ParseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, ErrInvalidDate
}

// ResolveRange turns the optional startDate/endDate query values into the
// report window. Missing values default to [now-1 month, now]. The end is
// always pushed to the last millisecond of its day.
func ResolveRange(startRaw, endRaw string, now time.Time) (repository.TimeRange, error) {
	now = now.UTC()
	start := now.AddDate(0, -1, 0)
	end := now

	if strings.TrimSpace(startRaw) != "" {
		t, err := ParseDate(startRaw)
		if err != nil {
			return repository.TimeRange{}, err
		}
		start = t
	}
	if strings.TrimSpace(endRaw) != "" {
		t, err := ParseDate(endRaw)
		if err != nil {
			return repository.TimeRange{}, err
		}
		end = t
	}

	end = EndOfDay(end)
	if start.After(end) {
		return repository.TimeRange{}, apperror.NewBadRequestError("startDate must not be after endDate")
	}
	return repository.TimeRange{Start: start, End: end}, nil
}

// EndOfDay returns 23:59:59.999 on t's calendar day.
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), t.Location())
}

// LastTwelveMonths is the window used by the lead and quotation stats series:
// the first day of the month eleven months ago through the end of today.
func LastTwelveMonths(now time.Time) repository.TimeRange {
	now = now.UTC()
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -11, 0)
	return repository.TimeRange{Start: first, End: EndOfDay(now)}
}

// WholeMonths widens r to the first instant of its first month and the last
// millisecond of its last month. Monthly series count whole calendar months.
func WholeMonths(r repository.TimeRange) repository.TimeRange {
	s, e := r.Start.UTC(), r.End.UTC()
	first := time.Date(s.Year(), s.Month(), 1, 0, 0, 0, 0, time.UTC)
	last := time.Date(e.Year(), e.Month()+1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
	return repository.TimeRange{Start: first, End: EndOfDay(last)}
}
