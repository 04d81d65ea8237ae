package repository

import (
	"github.com/smallbiznis/invoicely/internal/attachment/domain"
	"github.com/smallbiznis/invoicely/pkg/repository"
	"gorm.io/gorm"
)

func Provide(db *gorm.DB) repository.Repository[domain.FileAttachment] {
	return repository.ProvideStore[domain.FileAttachment](db)
}
