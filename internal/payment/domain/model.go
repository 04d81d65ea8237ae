package domain

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusCompleted PaymentStatus = "COMPLETED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
	PaymentStatusRefunded  PaymentStatus = "REFUNDED"
)

// ParsePaymentStatus accepts any casing. An empty value means COMPLETED.
func ParsePaymentStatus(value string) (PaymentStatus, bool) {
	switch PaymentStatus(strings.ToUpper(strings.TrimSpace(value))) {
	case "", PaymentStatusCompleted:
		return PaymentStatusCompleted, true
	case PaymentStatusPending:
		return PaymentStatusPending, true
	case PaymentStatusFailed:
		return PaymentStatusFailed, true
	case PaymentStatusRefunded:
		return PaymentStatusRefunded, true
	default:
		return "", false
	}
}

type Payment struct {
	ID          snowflake.ID    `gorm:"primaryKey" json:"id"`
	InvoiceID   snowflake.ID    `gorm:"not null;index" json:"invoiceId"`
	PaymentDate time.Time       `gorm:"not null;index" json:"paymentDate"`
	Method      string          `gorm:"type:varchar(64)" json:"method,omitempty"`
	Amount      decimal.Decimal `gorm:"type:numeric(19,2);not null" json:"amount"`
	Status      PaymentStatus   `gorm:"type:varchar(16);not null;default:'COMPLETED';index" json:"status"`
	Reference   string          `gorm:"type:varchar(255)" json:"reference,omitempty"`
	CreatedAt   time.Time       `gorm:"not null" json:"createdAt"`
	UpdatedAt   time.Time       `gorm:"not null" json:"updatedAt"`
}

func (Payment) TableName() string { return "payments" }

func (p Payment) MarshalJSON() ([]byte, error) {
	type alias Payment
	return json.Marshal(struct {
		alias
		PaymentDate string `json:"paymentDate"`
	}{alias: alias(p), PaymentDate: p.PaymentDate.Format("2006-01-02")})
}
