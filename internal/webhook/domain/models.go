package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// EventInvoiceStatusChanged is the only outbound event type.
const EventInvoiceStatusChanged = "invoice.status.changed"

// Subscription is a partner-owned outbound webhook target.
type Subscription struct {
	ID          snowflake.ID      `gorm:"primaryKey" json:"id"`
	PartnerID   snowflake.ID      `gorm:"not null;index" json:"partnerId"`
	EventType   string            `gorm:"type:varchar(128);not null;index" json:"eventType"`
	TargetURL   string            `gorm:"column:target_url;type:varchar(1024);not null" json:"targetUrl"`
	SecretToken string            `gorm:"type:varchar(255)" json:"-"`
	Active      bool              `gorm:"not null;default:true" json:"active"`
	Metadata    datatypes.JSONMap `json:"metadata,omitempty"`
	CreatedAt   time.Time         `gorm:"not null" json:"createdAt"`
	UpdatedAt   time.Time         `gorm:"not null" json:"updatedAt"`
}

func (Subscription) TableName() string { return "webhook_subscriptions" }

// HasSecret is exposed in API responses instead of the secret itself.
func (s Subscription) HasSecret() bool { return s.SecretToken != "" }

// StatusChangedPayload is the JSON body of invoice.status.changed. Ids are
// sent as JSON numbers, unlike the string ids of the REST responses.
type StatusChangedPayload struct {
	InvoiceID     int64  `json:"invoiceId"`
	InvoiceNumber string `json:"invoiceNumber"`
	Status        string `json:"status"`
	PartnerID     int64  `json:"partnerId"`
}
