package seed

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

const RoleAdmin = "ADMIN"

// User is a console account. Only the bootstrap admin is created by this
// service; sign-in is handled elsewhere.
type User struct {
	ID           snowflake.ID `gorm:"primaryKey" json:"id"`
	Email        string       `gorm:"type:varchar(255);not null;uniqueIndex:ux_users_email" json:"email"`
	PasswordHash string       `gorm:"type:varchar(255);not null" json:"-"`
	FullName     string       `gorm:"type:varchar(255)" json:"fullName,omitempty"`
	Role         string       `gorm:"type:varchar(32);not null;default:'USER'" json:"role"`
	CreatedAt    time.Time    `gorm:"not null" json:"createdAt"`
	UpdatedAt    time.Time    `gorm:"not null" json:"updatedAt"`
}

func (User) TableName() string { return "users" }
