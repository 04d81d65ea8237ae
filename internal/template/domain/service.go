package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/invoicely/pkg/db/pagination"
)

type CreateTemplateRequest struct {
	PartnerID    snowflake.ID
	Name         string
	TemplateType string
	ContentJSON  string
	IsDefault    bool
}

// UpdateTemplateRequest leaves a field untouched when its pointer is nil.
type UpdateTemplateRequest struct {
	Name         *string
	TemplateType *string
	ContentJSON  *string
	IsDefault    *bool
}

type ListTemplateRequest struct {
	PartnerID snowflake.ID
	Page      pagination.Pagination
}

type ListTemplateResponse struct {
	pagination.PageInfo
	Templates []Template `json:"content"`
}

type Service interface {
	Create(context.Context, CreateTemplateRequest) (Template, error)
	GetByID(ctx context.Context, id snowflake.ID) (Template, error)
	List(context.Context, ListTemplateRequest) (ListTemplateResponse, error)
	Update(ctx context.Context, id snowflake.ID, req UpdateTemplateRequest) (Template, error)
	SetDefault(ctx context.Context, id snowflake.ID) (Template, error)
	Delete(ctx context.Context, id snowflake.ID) error
}

var (
	ErrInvalidPartner = errors.New("invalid_partner")
	ErrInvalidName    = errors.New("invalid_name")
	ErrInvalidType    = errors.New("invalid_template_type")
	ErrInvalidContent = errors.New("invalid_content_json")
	ErrInvalidID      = errors.New("invalid_id")
	ErrNotFound       = errors.New("not_found")
)
