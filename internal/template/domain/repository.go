package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/invoicely/pkg/db/pagination"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, tmpl *Template) error
	Update(ctx context.Context, db *gorm.DB, tmpl *Template) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Template, error)
	List(ctx context.Context, db *gorm.DB, partnerID snowflake.ID, page pagination.Pagination) ([]*Template, error)
	Count(ctx context.Context, db *gorm.DB, partnerID snowflake.ID) (int64, error)
	UnsetDefault(ctx context.Context, db *gorm.DB, partnerID snowflake.ID, updatedAt time.Time) error
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error
}
