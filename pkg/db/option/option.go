package option

import (
	"fmt"
	"strings"

	"github.com/smallbiznis/invoicely/pkg/db/pagination"
	"gorm.io/gorm"
)

type QueryOption interface {
	Apply(*gorm.DB) *gorm.DB
}

type QueryOptionFunc func(*gorm.DB) *gorm.DB

func (f QueryOptionFunc) Apply(db *gorm.DB) *gorm.DB {
	return f(db)
}

type Direction string

const (
	ASC  Direction = "asc"
	DESC Direction = "desc"
)

// QuerySortBy orders by Field when it is listed in Allow, otherwise by
// Default. Columns never come straight from user input.
type QuerySortBy struct {
	Allow     map[string]bool
	Field     string
	Default   string
	Direction Direction
}

func WithSortBy(s QuerySortBy) QueryOption {
	return QueryOptionFunc(func(db *gorm.DB) *gorm.DB {
		field := strings.TrimSpace(s.Field)
		if !s.Allow[field] {
			field = s.Default
		}
		if field == "" {
			field = "created_at"
		}
		dir := DESC
		if strings.EqualFold(string(s.Direction), string(ASC)) {
			dir = ASC
		}
		return db.Order(fmt.Sprintf("%s %s, id %s", field, dir, dir))
	})
}

type Operator string

const (
	EQ  Operator = "="
	NEQ Operator = "<>"
	GT  Operator = ">"
	GTE Operator = ">="
	LT  Operator = "<"
	LTE Operator = "<="
	IN  Operator = "IN"
)

type Condition struct {
	Field    string
	Operator Operator
	Value    any
}

func ApplyOperator(c Condition) QueryOption {
	return QueryOptionFunc(func(db *gorm.DB) *gorm.DB {
		op := c.Operator
		if op == "" {
			op = EQ
		}
		if op == IN {
			return db.Where(fmt.Sprintf("%s IN ?", c.Field), c.Value)
		}
		return db.Where(fmt.Sprintf("%s %s ?", c.Field, op), c.Value)
	})
}

func WithLimit(limit int) QueryOption {
	return QueryOptionFunc(func(db *gorm.DB) *gorm.DB {
		if limit <= 0 {
			return db
		}
		return db.Limit(limit)
	})
}

func ApplyPagination(page pagination.Pagination) QueryOption {
	return QueryOptionFunc(func(db *gorm.DB) *gorm.DB {
		page = page.Normalize()
		return db.Offset(page.Offset()).Limit(page.Size)
	})
}
