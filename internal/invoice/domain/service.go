package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/invoicely/pkg/db/pagination"
)

type InvoiceItemRequest struct {
	ItemName        string
	ItemDescription string
	Quantity        *decimal.Decimal
	UnitPrice       decimal.Decimal
}

type CreateInvoiceRequest struct {
	PartnerID      snowflake.ID
	CustomerID     snowflake.ID
	InvoiceNumber  string
	Currency       string
	IssueDate      time.Time
	DueDate        *time.Time
	TaxAmount      *decimal.Decimal
	DiscountAmount *decimal.Decimal
	Notes          string
	Items          []InvoiceItemRequest
	// TemplateID must name a template of the same partner when set.
	TemplateID *snowflake.ID
	// Source labels the creation channel in metrics, "api" when empty.
	Source string
}

// UpdateInvoiceRequest applies only the non-nil fields. A non-nil Items
// replaces the whole item set.
type UpdateInvoiceRequest struct {
	InvoiceNumber  *string
	Currency       *string
	IssueDate      *time.Time
	DueDate        *time.Time
	Status         *InvoiceStatus
	TaxAmount      *decimal.Decimal
	DiscountAmount *decimal.Decimal
	Notes          *string
	Items          []InvoiceItemRequest
}

type ListInvoiceRequest struct {
	PartnerID     snowflake.ID
	Status        *InvoiceStatus
	CustomerID    *snowflake.ID
	IssueDateFrom *time.Time
	IssueDateTo   *time.Time
	Page          pagination.Pagination
}

type ListInvoiceResponse struct {
	pagination.PageInfo
	Invoices []Invoice `json:"content"`
}

type SearchInvoiceRequest struct {
	PartnerID snowflake.ID
	Status    *InvoiceStatus
	DueBefore *time.Time
}

type Service interface {
	Create(context.Context, CreateInvoiceRequest) (Invoice, error)
	Update(ctx context.Context, id snowflake.ID, req UpdateInvoiceRequest) (Invoice, error)
	GetByID(ctx context.Context, id snowflake.ID) (Invoice, error)
	GetByNumber(ctx context.Context, partnerID snowflake.ID, invoiceNumber string) (Invoice, error)
	List(context.Context, ListInvoiceRequest) (ListInvoiceResponse, error)
	Search(context.Context, SearchInvoiceRequest) ([]Invoice, error)
	SoftDelete(ctx context.Context, id snowflake.ID) error
	NextInvoiceNumber(ctx context.Context, partnerID snowflake.ID) (string, error)
	// SetStatus persists a new status and reports whether it differed from
	// the stored one.
	SetStatus(ctx context.Context, id snowflake.ID, status InvoiceStatus) (Invoice, bool, error)
}

var (
	ErrInvalidPartner         = errors.New("invalid_partner")
	ErrInvalidCustomer        = errors.New("invalid_customer")
	ErrInvalidInvoiceNumber   = errors.New("invalid_invoice_number")
	ErrInvalidCurrency        = errors.New("invalid_currency")
	ErrInvalidIssueDate       = errors.New("invalid_issue_date")
	ErrInvalidStatus          = errors.New("invalid_status")
	ErrInvalidItemName        = errors.New("invalid_item_name")
	ErrInvalidQuantity        = errors.New("invalid_quantity")
	ErrInvalidUnitPrice       = errors.New("invalid_unit_price")
	ErrInvalidAmount          = errors.New("invalid_amount")
	ErrInvalidID              = errors.New("invalid_id")
	ErrNotFound               = errors.New("not_found")
	ErrDuplicateInvoiceNumber = errors.New("duplicate_invoice_number")
)
