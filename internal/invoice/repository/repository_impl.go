package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/invoicely/internal/invoice/domain"
	pkgdb "github.com/smallbiznis/invoicely/pkg/db"
	"github.com/smallbiznis/invoicely/pkg/db/option"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, invoice *domain.Invoice) error {
	return db.WithContext(ctx).Create(invoice).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, invoice *domain.Invoice) error {
	return db.WithContext(ctx).
		Model(&domain.Invoice{}).
		Where("id = ?", invoice.ID).
		Select(
			"invoice_number", "status", "currency", "issue_date", "due_date",
			"subtotal_amount", "tax_amount", "discount_amount", "total_amount",
			"notes", "updated_at",
		).
		Updates(invoice).Error
}

func (r *repo) UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status domain.InvoiceStatus, at time.Time) error {
	return db.WithContext(ctx).
		Model(&domain.Invoice{}).
		Where("id = ?", id).
		Updates(map[string]any{"status": status, "updated_at": at}).Error
}

func (r *repo) SoftDelete(ctx context.Context, db *gorm.DB, id snowflake.ID, at time.Time) error {
	return db.WithContext(ctx).
		Model(&domain.Invoice{}).
		Where("id = ?", id).
		Updates(map[string]any{"deleted": true, "updated_at": at}).Error
}

func (r *repo) ClearTemplate(ctx context.Context, db *gorm.DB, templateID snowflake.ID) error {
	return db.WithContext(ctx).
		Model(&domain.Invoice{}).
		Where("template_id = ?", templateID).
		Update("template_id", nil).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Invoice, error) {
	return r.first(ctx, db.Where("id = ? AND deleted = ?", id, false))
}

// FindByNumber includes soft-deleted rows since the unique index covers them.
func (r *repo) FindByNumber(ctx context.Context, db *gorm.DB, partnerID snowflake.ID, invoiceNumber string) (*domain.Invoice, error) {
	return r.first(ctx, db.Where("partner_id = ? AND invoice_number = ?", partnerID, invoiceNumber))
}

func (r *repo) first(ctx context.Context, stmt *gorm.DB) (*domain.Invoice, error) {
	var invoices []domain.Invoice
	if err := stmt.WithContext(ctx).Limit(1).Find(&invoices).Error; err != nil {
		return nil, err
	}
	if len(invoices) == 0 {
		return nil, nil
	}
	return &invoices[0], nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListInvoiceFilter, opts ...option.QueryOption) ([]*domain.Invoice, error) {
	var invoices []*domain.Invoice
	stmt := r.filtered(ctx, db, filter)
	for _, opt := range opts {
		stmt = opt.Apply(stmt)
	}
	err := stmt.
		Order("issue_date desc, id desc").
		Find(&invoices).Error
	if err != nil {
		return nil, err
	}
	return invoices, nil
}

func (r *repo) Count(ctx context.Context, db *gorm.DB, filter domain.ListInvoiceFilter) (int64, error) {
	var count int64
	err := r.filtered(ctx, db, filter).Count(&count).Error
	return count, err
}

func (r *repo) filtered(ctx context.Context, db *gorm.DB, filter domain.ListInvoiceFilter) *gorm.DB {
	stmt := db.WithContext(ctx).
		Model(&domain.Invoice{}).
		Where("deleted = ?", false)
	if filter.PartnerID != nil {
		stmt = stmt.Where("partner_id = ?", *filter.PartnerID)
	}
	if filter.Status != nil {
		stmt = stmt.Where("status = ?", *filter.Status)
	}
	if filter.CustomerID != nil {
		stmt = stmt.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.IssueDateFrom != nil {
		stmt = stmt.Where("issue_date >= ?", *filter.IssueDateFrom)
	}
	if filter.IssueDateTo != nil {
		stmt = stmt.Where("issue_date <= ?", *filter.IssueDateTo)
	}
	if filter.DueBefore != nil {
		stmt = stmt.Where("due_date IS NOT NULL AND due_date < ?", *filter.DueBefore)
	}
	return stmt
}

func (r *repo) ListItems(ctx context.Context, db *gorm.DB, invoiceIDs []snowflake.ID) (map[snowflake.ID][]domain.InvoiceItem, error) {
	result := make(map[snowflake.ID][]domain.InvoiceItem, len(invoiceIDs))
	if len(invoiceIDs) == 0 {
		return result, nil
	}

	err := pkgdb.InChunks(invoiceIDs, pkgdb.MaxInParams, func(chunk []snowflake.ID) error {
		var items []domain.InvoiceItem
		err := db.WithContext(ctx).
			Where("invoice_id IN ?", chunk).
			Order("invoice_id asc, position asc, id asc").
			Find(&items).Error
		if err != nil {
			return err
		}
		for _, item := range items {
			result[item.InvoiceID] = append(result[item.InvoiceID], item)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (r *repo) ReplaceItems(ctx context.Context, db *gorm.DB, invoiceID snowflake.ID, items []domain.InvoiceItem) error {
	if err := db.WithContext(ctx).
		Where("invoice_id = ?", invoiceID).
		Delete(&domain.InvoiceItem{}).Error; err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	for i := range items {
		items[i].InvoiceID = invoiceID
	}
	return db.WithContext(ctx).Create(&items).Error
}
