// Package domain contains the invoice aggregate and its persistence models.
package domain

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/invoicely/internal/money"
)

// DateLayout is the wire format of calendar dates.
const DateLayout = "2006-01-02"

// InvoiceStatus represents invoice lifecycle states.
type InvoiceStatus string

const (
	InvoiceStatusDraft    InvoiceStatus = "DRAFT"
	InvoiceStatusSent     InvoiceStatus = "SENT"
	InvoiceStatusPaid     InvoiceStatus = "PAID"
	InvoiceStatusOverdue  InvoiceStatus = "OVERDUE"
	InvoiceStatusCanceled InvoiceStatus = "CANCELED"
)

// InvoiceStatuses lists every status in declaration order.
var InvoiceStatuses = []InvoiceStatus{
	InvoiceStatusDraft,
	InvoiceStatusSent,
	InvoiceStatusPaid,
	InvoiceStatusOverdue,
	InvoiceStatusCanceled,
}

// ParseInvoiceStatus matches value case-insensitively against the known
// statuses.
func ParseInvoiceStatus(value string) (InvoiceStatus, bool) {
	normalized := InvoiceStatus(strings.ToUpper(strings.TrimSpace(value)))
	for _, status := range InvoiceStatuses {
		if status == normalized {
			return status, true
		}
	}
	return "", false
}

// Outstanding reports whether an invoice in this status still counts as
// money owed.
func (s InvoiceStatus) Outstanding() bool {
	return s != InvoiceStatusPaid && s != InvoiceStatusCanceled
}

const DefaultCurrency = "USD"

// Invoice is the aggregate root. Items are persisted by the repository
// through ReplaceItems and are never cascaded by the ORM.
type Invoice struct {
	ID             snowflake.ID    `gorm:"primaryKey" json:"id"`
	PartnerID      snowflake.ID    `gorm:"not null;index;uniqueIndex:ux_invoices_partner_number,priority:1" json:"partnerId"`
	CustomerID     snowflake.ID    `gorm:"not null;index" json:"customerId"`
	InvoiceNumber  string          `gorm:"type:varchar(64);not null;uniqueIndex:ux_invoices_partner_number,priority:2" json:"invoiceNumber"`
	Status         InvoiceStatus   `gorm:"type:varchar(16);not null;default:'DRAFT';index" json:"status"`
	Currency       string          `gorm:"type:varchar(8);not null;default:'USD'" json:"currency"`
	IssueDate      time.Time       `gorm:"not null;index" json:"issueDate"`
	DueDate        *time.Time      `json:"dueDate,omitempty"`
	SubtotalAmount decimal.Decimal `gorm:"type:numeric(19,2);not null;default:0" json:"subtotalAmount"`
	TaxAmount      decimal.Decimal `gorm:"type:numeric(19,2);not null;default:0" json:"taxAmount"`
	DiscountAmount decimal.Decimal `gorm:"type:numeric(19,2);not null;default:0" json:"discountAmount"`
	TotalAmount    decimal.Decimal `gorm:"type:numeric(19,2);not null;default:0" json:"totalAmount"`
	Notes          string          `gorm:"type:text" json:"notes,omitempty"`
	TemplateID     *snowflake.ID   `gorm:"index" json:"templateId,omitempty"`
	Deleted        bool            `gorm:"not null;default:false;index" json:"deleted"`
	CreatedAt      time.Time       `gorm:"not null" json:"createdAt"`
	UpdatedAt      time.Time       `gorm:"not null" json:"updatedAt"`

	Items []InvoiceItem `gorm:"-" json:"items"`
}

func (Invoice) TableName() string { return "invoices" }

// RecalcTotals recomputes every line total and then the subtotal and total.
// It must run after any change to items, tax or discount.
func (inv *Invoice) RecalcTotals() {
	lineTotals := make([]decimal.Decimal, 0, len(inv.Items))
	for i := range inv.Items {
		inv.Items[i].RecalcLineTotal()
		lineTotals = append(lineTotals, inv.Items[i].LineTotal)
	}
	totals := money.InvoiceTotals(lineTotals, inv.TaxAmount, inv.DiscountAmount)
	inv.SubtotalAmount = totals.Subtotal
	inv.TotalAmount = totals.Total
}

// MarshalJSON renders calendar dates without a time component.
func (inv Invoice) MarshalJSON() ([]byte, error) {
	type alias Invoice
	out := struct {
		alias
		IssueDate string  `json:"issueDate"`
		DueDate   *string `json:"dueDate,omitempty"`
	}{alias: alias(inv), IssueDate: inv.IssueDate.Format(DateLayout)}
	if inv.DueDate != nil {
		due := inv.DueDate.Format(DateLayout)
		out.DueDate = &due
	}
	if out.Items == nil {
		out.Items = []InvoiceItem{}
	}
	return json.Marshal(out)
}

// InvoiceItem is one line of an invoice.
type InvoiceItem struct {
	ID              snowflake.ID    `gorm:"primaryKey" json:"id"`
	InvoiceID       snowflake.ID    `gorm:"not null;index" json:"invoiceId"`
	ItemName        string          `gorm:"type:varchar(255);not null" json:"itemName"`
	ItemDescription string          `gorm:"type:text" json:"itemDescription,omitempty"`
	Quantity        decimal.Decimal `gorm:"type:numeric(19,4);not null;default:1" json:"quantity"`
	UnitPrice       decimal.Decimal `gorm:"type:numeric(19,4);not null;default:0" json:"unitPrice"`
	LineTotal       decimal.Decimal `gorm:"type:numeric(19,2);not null;default:0" json:"lineTotal"`
	Position        int             `gorm:"not null;default:0" json:"position"`
	CreatedAt       time.Time       `gorm:"not null" json:"createdAt"`
}

func (InvoiceItem) TableName() string { return "invoice_items" }

// RecalcLineTotal derives LineTotal from Quantity and UnitPrice.
func (it *InvoiceItem) RecalcLineTotal() {
	it.LineTotal = money.LineTotal(it.Quantity, it.UnitPrice)
}
