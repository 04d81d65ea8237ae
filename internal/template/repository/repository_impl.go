package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/invoicely/internal/template/domain"
	"github.com/smallbiznis/invoicely/pkg/db/option"
	"github.com/smallbiznis/invoicely/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, tmpl *domain.Template) error {
	return db.WithContext(ctx).Create(tmpl).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, tmpl *domain.Template) error {
	return db.WithContext(ctx).
		Model(&domain.Template{}).
		Where("id = ?", tmpl.ID).
		Updates(map[string]any{
			"name":          tmpl.Name,
			"template_type": tmpl.TemplateType,
			"content_json":  tmpl.ContentJSON,
			"is_default":    tmpl.IsDefault,
			"updated_at":    tmpl.UpdatedAt,
		}).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Template, error) {
	var templates []domain.Template
	err := db.WithContext(ctx).
		Where("id = ?", id).
		Limit(1).
		Find(&templates).Error
	if err != nil {
		return nil, err
	}
	if len(templates) == 0 {
		return nil, nil
	}
	return &templates[0], nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, partnerID snowflake.ID, page pagination.Pagination) ([]*domain.Template, error) {
	var templates []*domain.Template
	stmt := db.WithContext(ctx).Where("partner_id = ?", partnerID)
	stmt = option.ApplyPagination(page).Apply(stmt)
	err := stmt.
		Order("is_default desc, created_at desc, id desc").
		Find(&templates).Error
	if err != nil {
		return nil, err
	}
	return templates, nil
}

func (r *repo) Count(ctx context.Context, db *gorm.DB, partnerID snowflake.ID) (int64, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&domain.Template{}).
		Where("partner_id = ?", partnerID).
		Count(&count).Error
	return count, err
}

func (r *repo) UnsetDefault(ctx context.Context, db *gorm.DB, partnerID snowflake.ID, updatedAt time.Time) error {
	return db.WithContext(ctx).
		Model(&domain.Template{}).
		Where("partner_id = ? AND is_default = ?", partnerID, true).
		Updates(map[string]any{
			"is_default": false,
			"updated_at": updatedAt,
		}).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&domain.Template{}).Error
}
