package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	invoicedomain "github.com/smallbiznis/invoicely/internal/invoice/domain"
)

type CreateSubscriptionRequest struct {
	PartnerID   snowflake.ID
	EventType   string
	TargetURL   string
	SecretToken string
	Metadata    map[string]any
}

type SubscriptionService interface {
	Create(context.Context, CreateSubscriptionRequest) (Subscription, error)
	ListByPartner(ctx context.Context, partnerID snowflake.ID) ([]Subscription, error)
	// ListActive returns the partner's active subscriptions for eventType.
	ListActive(ctx context.Context, partnerID snowflake.ID, eventType string) ([]Subscription, error)
	Deactivate(ctx context.Context, id snowflake.ID) error
}

type PaymentUpdatedRequest struct {
	PartnerID     snowflake.ID
	InvoiceNumber string
	PaymentStatus string
	Reference     string
}

type InvoiceCreatedRequest struct {
	PartnerID      snowflake.ID
	CustomerID     snowflake.ID
	InvoiceNumber  string
	Currency       string
	IssueDate      time.Time
	DueDate        *time.Time
	TaxAmount      *decimal.Decimal
	DiscountAmount *decimal.Decimal
	Notes          string
}

// Publisher fans out invoice events to subscribers. Delivery failures are
// never returned.
type Publisher interface {
	PublishInvoiceStatusChange(ctx context.Context, invoice invoicedomain.Invoice)
}

type Service interface {
	HandleInvoiceCreated(context.Context, InvoiceCreatedRequest) (invoicedomain.Invoice, error)
	// HandlePaymentUpdated applies the mapped status and reports whether the
	// stored status changed.
	HandlePaymentUpdated(context.Context, PaymentUpdatedRequest) (invoicedomain.Invoice, bool, error)
	// ProcessPaymentUpdated runs HandlePaymentUpdated and publishes the status
	// change when there was one.
	ProcessPaymentUpdated(context.Context, PaymentUpdatedRequest) (invoicedomain.Invoice, error)
	// ProcessInvoiceUpdate applies an API edit and publishes the status
	// change when the edit moved the invoice to another status.
	ProcessInvoiceUpdate(ctx context.Context, id snowflake.ID, req invoicedomain.UpdateInvoiceRequest) (invoicedomain.Invoice, error)
	VerifyIncomingSignature(signatureHeader string, payload []byte, secret string) bool
}

var (
	ErrInvalidSignature     = errors.New("invalid_signature")
	ErrInvalidPartner       = errors.New("invalid_partner")
	ErrInvalidEventType     = errors.New("invalid_event_type")
	ErrInvalidTargetURL     = errors.New("invalid_target_url")
	ErrInvalidInvoiceNumber = errors.New("invalid_invoice_number")
	ErrInvalidPaymentStatus = errors.New("invalid_payment_status")
	ErrNotFound             = errors.New("not_found")
)
