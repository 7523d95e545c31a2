package option

import (
	"fmt"
	"strings"

	"github.com/montessori/ecole/pkg/db/pagination"
	"gorm.io/gorm"
)

// QueryOption mutates a gorm statement before it is executed.
type QueryOption interface {
	Apply(db *gorm.DB) *gorm.DB
}

type queryFunc func(db *gorm.DB) *gorm.DB

func (f queryFunc) Apply(db *gorm.DB) *gorm.DB { return f(db) }

type Operator string

const (
	EQ   Operator = "="
	IN   Operator = "IN"
	LIKE Operator = "LIKE"
)

// Condition is a single column predicate. Field is an SQL expression written
// by the caller, never user input.
type Condition struct {
	Field    string
	Operator Operator
	Value    any
}

func (c Condition) sql() (string, bool) {
	field := strings.TrimSpace(c.Field)
	if field == "" {
		return "", false
	}
	switch c.Operator {
	case IN:
		return field + " IN (?)", true
	case "":
		return field + " = ?", true
	default:
		return fmt.Sprintf("%s %s ?", field, c.Operator), true
	}
}

// ApplyOperator adds the condition as a WHERE clause.
func ApplyOperator(cond Condition) QueryOption {
	return queryFunc(func(db *gorm.DB) *gorm.DB {
		sql, ok := cond.sql()
		if !ok {
			return db
		}
		return db.Where(sql, cond.Value)
	})
}

// AnyOf matches rows satisfying at least one of conds.
func AnyOf(conds ...Condition) QueryOption {
	return queryFunc(func(db *gorm.DB) *gorm.DB {
		var group *gorm.DB
		for _, cond := range conds {
			sql, ok := cond.sql()
			if !ok {
				continue
			}
			if group == nil {
				group = db.Session(&gorm.Session{NewDB: true}).Where(sql, cond.Value)
				continue
			}
			group = group.Or(sql, cond.Value)
		}
		if group == nil {
			return db
		}
		return db.Where(group)
	})
}

// Search matches term case-insensitively against any of fields. An empty term
// matches everything.
func Search(term string, fields ...string) QueryOption {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return queryFunc(func(db *gorm.DB) *gorm.DB { return db })
	}
	like := "%" + term + "%"
	conds := make([]Condition, 0, len(fields))
	for _, field := range fields {
		conds = append(conds, Condition{Field: "LOWER(" + field + ")", Operator: LIKE, Value: like})
	}
	return AnyOf(conds...)
}

// ApplyPagination orders by (created_at, id) and limits the statement to the
// page after the token's cursor. One extra row is fetched so callers can tell
// whether more pages exist. A malformed token fails the query with
// pagination.ErrInvalidPageToken.
func ApplyPagination(page pagination.Pagination) QueryOption {
	return queryFunc(func(db *gorm.DB) *gorm.DB {
		if token := strings.TrimSpace(page.PageToken); token != "" {
			cursor, err := pagination.DecodeCursor(token)
			if err != nil {
				db.AddError(pagination.ErrInvalidPageToken)
				return db
			}
			id, createdAt, err := cursor.Position()
			if err != nil {
				db.AddError(err)
				return db
			}
			db = db.Where("(created_at > ? OR (created_at = ? AND id > ?))", createdAt, createdAt, id)
		}
		return db.Order("created_at asc, id asc").Limit(page.Size() + 1)
	})
}
