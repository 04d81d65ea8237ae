package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/invoicely/pkg/db/pagination"
)

type ListCustomerRequest struct {
	PartnerID snowflake.ID
	Name      string
	Email     string
	Page      pagination.Pagination
}

type ListCustomerFilter struct {
	Name  string
	Email string
}

type ListCustomerResponse struct {
	pagination.PageInfo
	Customers []Customer `json:"content"`
}

type CreateCustomerRequest struct {
	PartnerID snowflake.ID
	Name      string
	Email     string
	Phone     string
	Address   string
	Metadata  map[string]any
}

type Service interface {
	Create(context.Context, CreateCustomerRequest) (Customer, error)
	List(context.Context, ListCustomerRequest) (ListCustomerResponse, error)
	GetByID(ctx context.Context, id snowflake.ID) (Customer, error)
}

var (
	ErrInvalidPartner = errors.New("invalid_partner")
	ErrInvalidName    = errors.New("invalid_name")
	ErrInvalidEmail   = errors.New("invalid_email")
	ErrNotFound       = errors.New("not_found")
)
