package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, partner *Partner) error
	Save(ctx context.Context, db *gorm.DB, partner *Partner) error
	// FindByID returns nil, nil for unknown or soft-deleted partners.
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Partner, error)
	List(ctx context.Context, db *gorm.DB, ownerUserID *snowflake.ID) ([]*Partner, error)
}
