package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type Customer struct {
	ID        snowflake.ID      `gorm:"primaryKey" json:"id"`
	PartnerID snowflake.ID      `gorm:"not null;index" json:"partnerId"`
	Name      string            `gorm:"type:varchar(255);not null" json:"name"`
	Email     string            `gorm:"type:varchar(255)" json:"email,omitempty"`
	Phone     string            `gorm:"type:varchar(64)" json:"phone,omitempty"`
	Address   string            `gorm:"type:text" json:"address,omitempty"`
	Metadata  datatypes.JSONMap `json:"metadata,omitempty"`
	Deleted   bool              `gorm:"not null;default:false" json:"deleted"`
	CreatedAt time.Time         `gorm:"not null" json:"createdAt"`
	UpdatedAt time.Time         `gorm:"not null" json:"updatedAt"`
}

func (Customer) TableName() string { return "customers" }
