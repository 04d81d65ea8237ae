package repository

import (
	"github.com/smallbiznis/invoicely/internal/webhook/domain"
	"github.com/smallbiznis/invoicely/pkg/repository"
	"gorm.io/gorm"
)

// Provide builds the subscription store on the shared generic repository.
func Provide(db *gorm.DB) repository.Repository[domain.Subscription] {
	return repository.ProvideStore[domain.Subscription](db)
}
