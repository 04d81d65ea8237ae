package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/invoicely/internal/customer/domain"
	"github.com/smallbiznis/invoicely/pkg/db/option"
	"github.com/smallbiznis/invoicely/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, customer *domain.Customer) error {
	return db.WithContext(ctx).Create(customer).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Customer, error) {
	var customers []domain.Customer
	err := db.WithContext(ctx).
		Where("id = ? AND deleted = ?", id, false).
		Limit(1).
		Find(&customers).Error
	if err != nil {
		return nil, err
	}
	if len(customers) == 0 {
		return nil, nil
	}
	return &customers[0], nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, partnerID snowflake.ID, filter domain.ListCustomerFilter, page pagination.Pagination) ([]*domain.Customer, error) {
	var customers []*domain.Customer
	stmt := r.filtered(ctx, db, partnerID, filter)
	stmt = option.ApplyPagination(page).Apply(stmt)
	err := stmt.
		Order("created_at desc, id desc").
		Find(&customers).Error
	if err != nil {
		return nil, err
	}
	return customers, nil
}

func (r *repo) Count(ctx context.Context, db *gorm.DB, partnerID snowflake.ID, filter domain.ListCustomerFilter) (int64, error) {
	var count int64
	err := r.filtered(ctx, db, partnerID, filter).Count(&count).Error
	return count, err
}

func (r *repo) filtered(ctx context.Context, db *gorm.DB, partnerID snowflake.ID, filter domain.ListCustomerFilter) *gorm.DB {
	stmt := db.WithContext(ctx).
		Model(&domain.Customer{}).
		Where("partner_id = ? AND deleted = ?", partnerID, false)
	if filter.Name != "" {
		stmt = stmt.Where("name = ?", filter.Name)
	}
	if filter.Email != "" {
		stmt = stmt.Where("email = ?", filter.Email)
	}
	return stmt
}
