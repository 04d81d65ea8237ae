package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/invoicely/internal/payment/domain"
	pkgdb "github.com/smallbiznis/invoicely/pkg/db"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, payment *domain.Payment) error {
	return db.WithContext(ctx).Create(payment).Error
}

func (r *repo) ListByInvoice(ctx context.Context, db *gorm.DB, invoiceID snowflake.ID) ([]*domain.Payment, error) {
	var payments []*domain.Payment
	err := db.WithContext(ctx).
		Where("invoice_id = ?", invoiceID).
		Order("payment_date asc, id asc").
		Find(&payments).Error
	if err != nil {
		return nil, err
	}
	return payments, nil
}

func (r *repo) ListCompletedByInvoices(ctx context.Context, db *gorm.DB, invoiceIDs []snowflake.ID) (map[snowflake.ID][]domain.Payment, error) {
	out := make(map[snowflake.ID][]domain.Payment)
	if len(invoiceIDs) == 0 {
		return out, nil
	}

	err := pkgdb.InChunks(invoiceIDs, pkgdb.MaxInParams, func(chunk []snowflake.ID) error {
		var payments []domain.Payment
		err := db.WithContext(ctx).
			Where("invoice_id IN ? AND status = ?", chunk, domain.PaymentStatusCompleted).
			Order("payment_date asc, id asc").
			Find(&payments).Error
		if err != nil {
			return err
		}
		for _, payment := range payments {
			out[payment.InvoiceID] = append(out[payment.InvoiceID], payment)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
