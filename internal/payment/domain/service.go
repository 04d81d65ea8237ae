package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type RecordPaymentRequest struct {
	InvoiceID   snowflake.ID
	PaymentDate time.Time
	Method      string
	Amount      decimal.Decimal
	Status      string
	Reference   string
}

type Service interface {
	Record(context.Context, RecordPaymentRequest) (Payment, error)
	ListByInvoice(ctx context.Context, invoiceID snowflake.ID) ([]Payment, error)
}

var (
	ErrInvalidInvoice     = errors.New("invalid_invoice")
	ErrInvalidAmount      = errors.New("invalid_amount")
	ErrInvalidPaymentDate = errors.New("invalid_payment_date")
	ErrInvalidStatus      = errors.New("invalid_payment_status")
)
