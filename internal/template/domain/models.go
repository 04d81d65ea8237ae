package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

const DefaultTemplateType = "INVOICE"

type Template struct {
	ID           snowflake.ID `gorm:"primaryKey" json:"id"`
	PartnerID    snowflake.ID `gorm:"not null;index" json:"partnerId"`
	Name         string       `gorm:"type:varchar(255);not null" json:"name"`
	TemplateType string       `gorm:"type:varchar(32);not null;default:'INVOICE'" json:"templateType"`
	ContentJSON  string       `gorm:"type:text" json:"contentJson,omitempty"`
	IsDefault    bool         `gorm:"not null;default:false" json:"isDefault"`
	CreatedAt    time.Time    `gorm:"not null" json:"createdAt"`
	UpdatedAt    time.Time    `gorm:"not null" json:"updatedAt"`
}

func (Template) TableName() string { return "templates" }
