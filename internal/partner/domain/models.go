package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type Partner struct {
	ID           snowflake.ID `gorm:"primaryKey" json:"id"`
	OwnerUserID  snowflake.ID `gorm:"not null;index" json:"ownerUserId"`
	Name         string       `gorm:"type:varchar(255);not null" json:"name"`
	LegalName    string       `gorm:"type:varchar(255)" json:"legalName,omitempty"`
	Email        string       `gorm:"type:varchar(255)" json:"email,omitempty"`
	Phone        string       `gorm:"type:varchar(64)" json:"phone,omitempty"`
	AddressLine1 string       `gorm:"type:varchar(255)" json:"addressLine1,omitempty"`
	AddressLine2 string       `gorm:"type:varchar(255)" json:"addressLine2,omitempty"`
	City         string       `gorm:"type:varchar(128)" json:"city,omitempty"`
	State        string       `gorm:"type:varchar(128)" json:"state,omitempty"`
	Country      string       `gorm:"type:varchar(128)" json:"country,omitempty"`
	PostalCode   string       `gorm:"type:varchar(32)" json:"postalCode,omitempty"`
	Deleted      bool         `gorm:"not null;default:false" json:"deleted"`
	CreatedAt    time.Time    `gorm:"not null" json:"createdAt"`
	UpdatedAt    time.Time    `gorm:"not null" json:"updatedAt"`
}

func (Partner) TableName() string { return "partners" }
