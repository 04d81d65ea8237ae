// Package seed performs one-off startup bootstrap.
package seed

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/invoicely/internal/clock"
	"gorm.io/gorm"
)

const defaultAdminName = "System Administrator"

// Seeder creates bootstrap records.
type Seeder struct {
	db    *gorm.DB
	genID *snowflake.Node
	clock clock.Clock
}

func NewSeeder(db *gorm.DB, genID *snowflake.Node, c clock.Clock) *Seeder {
	if c == nil {
		c = clock.SystemClock{}
	}
	return &Seeder{db: db, genID: genID, clock: c}
}

// EnsureAdmin creates an ADMIN user for email unless one already exists.
// Blank email or password turns it into a no-op. It reports whether a user
// was created.
func (s *Seeder) EnsureAdmin(ctx context.Context, email, password string) (bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || strings.TrimSpace(password) == "" {
		return false, nil
	}
	if s.db == nil {
		return false, errors.New("seed database handle is required")
	}

	created := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&User{}).Where("email = ?", email).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}

		hash, err := HashPassword(password)
		if err != nil {
			return err
		}
		now := s.clock.Now().UTC()
		user := User{
			ID:           s.genID.Generate(),
			Email:        email,
			PasswordHash: hash,
			FullName:     defaultAdminName,
			Role:         RoleAdmin,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := tx.Create(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return nil
			}
			return err
		}
		created = true
		return nil
	})
	return created, err
}
