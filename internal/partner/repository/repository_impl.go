package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/invoicely/internal/partner/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, partner *domain.Partner) error {
	return db.WithContext(ctx).Create(partner).Error
}

func (r *repo) Save(ctx context.Context, db *gorm.DB, partner *domain.Partner) error {
	return db.WithContext(ctx).Save(partner).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Partner, error) {
	var partners []domain.Partner
	err := db.WithContext(ctx).
		Where("id = ? AND deleted = ?", id, false).
		Limit(1).
		Find(&partners).Error
	if err != nil {
		return nil, err
	}
	if len(partners) == 0 {
		return nil, nil
	}
	return &partners[0], nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, ownerUserID *snowflake.ID) ([]*domain.Partner, error) {
	var partners []*domain.Partner
	stmt := db.WithContext(ctx).
		Model(&domain.Partner{}).
		Where("deleted = ?", false)
	if ownerUserID != nil {
		stmt = stmt.Where("owner_user_id = ?", *ownerUserID)
	}
	if err := stmt.Order("created_at desc, id desc").Find(&partners).Error; err != nil {
		return nil, err
	}
	return partners, nil
}
