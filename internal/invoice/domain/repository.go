package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/invoicely/pkg/db/option"
	"gorm.io/gorm"
)

// ListInvoiceFilter narrows a partner's non-deleted invoices.
type ListInvoiceFilter struct {
	PartnerID     *snowflake.ID
	Status        *InvoiceStatus
	CustomerID    *snowflake.ID
	IssueDateFrom *time.Time
	IssueDateTo   *time.Time
	DueBefore     *time.Time
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, invoice *Invoice) error
	Update(ctx context.Context, db *gorm.DB, invoice *Invoice) error
	UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status InvoiceStatus, at time.Time) error
	SoftDelete(ctx context.Context, db *gorm.DB, id snowflake.ID, at time.Time) error
	// ClearTemplate drops every invoice reference to templateID.
	ClearTemplate(ctx context.Context, db *gorm.DB, templateID snowflake.ID) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Invoice, error)
	FindByNumber(ctx context.Context, db *gorm.DB, partnerID snowflake.ID, invoiceNumber string) (*Invoice, error)
	// List returns matching non-deleted invoices ordered by issue date desc.
	List(ctx context.Context, db *gorm.DB, filter ListInvoiceFilter, opts ...option.QueryOption) ([]*Invoice, error)
	Count(ctx context.Context, db *gorm.DB, filter ListInvoiceFilter) (int64, error)

	ListItems(ctx context.Context, db *gorm.DB, invoiceIDs []snowflake.ID) (map[snowflake.ID][]InvoiceItem, error)
	// ReplaceItems deletes the invoice's current items and inserts items.
	// Callers run it inside the same transaction as the invoice write.
	ReplaceItems(ctx context.Context, db *gorm.DB, invoiceID snowflake.ID, items []InvoiceItem) error
}
