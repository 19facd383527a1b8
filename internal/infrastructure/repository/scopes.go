package repository

import (
	"strings"

	"github.com/google/uuid"
	domainRepo "github.com/sangkips/crm-backend/internal/domain/repository"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OwnedBy restricts a query to rows whose column equals owner.
// A nil owner leaves the query unrestricted.
func OwnedBy(column string, owner *uuid.UUID) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if owner == nil {
			return db
		}
		return db.Where(clause.Eq{Column: clause.Column{Name: column}, Value: *owner})
	}
}

// Search ORs a case-insensitive substring match over columns.
func Search(term string, columns ...string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if term == "" || len(columns) == 0 {
			return db
		}
		pattern := "%" + escapeLike(strings.ToLower(term)) + "%"
		conds := make([]string, 0, len(columns))
		args := make([]interface{}, 0, len(columns))
		for _, col := range columns {
			conds = append(conds, "LOWER("+col+") LIKE ? ESCAPE '\\'")
			args = append(args, pattern)
		}
		return db.Where("("+strings.Join(conds, " OR ")+")", args...)
	}
}

// CreatedWithin limits rows to an inclusive created_at window.
func CreatedWithin(r *domainRepo.TimeRange) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if r == nil {
			return db
		}
		return db.Where("created_at >= ? AND created_at <= ?", r.Start.UTC(), r.End.UTC())
	}
}

// Sorted orders by a whitelisted column. Columns reach this scope only from
// the query builder's whitelist.
func Sorted(s domainRepo.Sort) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		col := s.Column
		if col == "" {
			col = "created_at"
		}
		return db.Order(clause.OrderByColumn{Column: clause.Column{Name: col}, Desc: s.Desc})
	}
}

// Paginate applies offset and limit.
func Paginate(p domainRepo.Page) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		p.Normalize()
		return db.Offset(p.Offset()).Limit(p.Limit)
	}
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
