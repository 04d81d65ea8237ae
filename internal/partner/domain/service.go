package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

type CreatePartnerRequest struct {
	OwnerUserID  snowflake.ID
	Name         string
	LegalName    string
	Email        string
	Phone        string
	AddressLine1 string
	AddressLine2 string
	City         string
	State        string
	Country      string
	PostalCode   string
}

type UpdatePartnerRequest struct {
	Name         *string
	LegalName    *string
	Email        *string
	Phone        *string
	AddressLine1 *string
	AddressLine2 *string
	City         *string
	State        *string
	Country      *string
	PostalCode   *string
}

type Service interface {
	Create(context.Context, CreatePartnerRequest) (Partner, error)
	Update(ctx context.Context, id snowflake.ID, req UpdatePartnerRequest) (Partner, error)
	GetByID(ctx context.Context, id snowflake.ID) (Partner, error)
	List(ctx context.Context, ownerUserID *snowflake.ID) ([]Partner, error)
	SoftDelete(ctx context.Context, id snowflake.ID) error
}

var (
	ErrInvalidName  = errors.New("invalid_name")
	ErrInvalidEmail = errors.New("invalid_email")
	ErrInvalidOwner = errors.New("invalid_owner")
	ErrNotFound     = errors.New("not_found")
)
