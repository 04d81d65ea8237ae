package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/invoicely/internal/clock"
	"github.com/smallbiznis/invoicely/internal/partner/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("partner.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreatePartnerRequest) (domain.Partner, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Partner{}, domain.ErrInvalidName
	}
	email := strings.TrimSpace(req.Email)
	if email != "" && !strings.Contains(email, "@") {
		return domain.Partner{}, domain.ErrInvalidEmail
	}
	if req.OwnerUserID == 0 {
		return domain.Partner{}, domain.ErrInvalidOwner
	}

	now := s.clock.Now()
	partner := domain.Partner{
		ID:           s.genID.Generate(),
		OwnerUserID:  req.OwnerUserID,
		Name:         name,
		LegalName:    strings.TrimSpace(req.LegalName),
		Email:        email,
		Phone:        strings.TrimSpace(req.Phone),
		AddressLine1: strings.TrimSpace(req.AddressLine1),
		AddressLine2: strings.TrimSpace(req.AddressLine2),
		City:         strings.TrimSpace(req.City),
		State:        strings.TrimSpace(req.State),
		Country:      strings.TrimSpace(req.Country),
		PostalCode:   strings.TrimSpace(req.PostalCode),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Insert(ctx, s.db, &partner); err != nil {
		return domain.Partner{}, err
	}

	s.log.Info("partner created", zap.String("partner_id", partner.ID.String()))
	return partner, nil
}

func (s *Service) Update(ctx context.Context, id snowflake.ID, req domain.UpdatePartnerRequest) (domain.Partner, error) {
	partner, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.Partner{}, err
	}
	if partner == nil {
		return domain.Partner{}, domain.ErrNotFound
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return domain.Partner{}, domain.ErrInvalidName
		}
		partner.Name = name
	}
	if req.Email != nil {
		email := strings.TrimSpace(*req.Email)
		if email != "" && !strings.Contains(email, "@") {
			return domain.Partner{}, domain.ErrInvalidEmail
		}
		partner.Email = email
	}
	assign(&partner.LegalName, req.LegalName)
	assign(&partner.Phone, req.Phone)
	assign(&partner.AddressLine1, req.AddressLine1)
	assign(&partner.AddressLine2, req.AddressLine2)
	assign(&partner.City, req.City)
	assign(&partner.State, req.State)
	assign(&partner.Country, req.Country)
	assign(&partner.PostalCode, req.PostalCode)
	partner.UpdatedAt = s.clock.Now()

	if err := s.repo.Save(ctx, s.db, partner); err != nil {
		return domain.Partner{}, err
	}
	return *partner, nil
}

func (s *Service) GetByID(ctx context.Context, id snowflake.ID) (domain.Partner, error) {
	partner, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.Partner{}, err
	}
	if partner == nil {
		return domain.Partner{}, domain.ErrNotFound
	}
	return *partner, nil
}

func (s *Service) List(ctx context.Context, ownerUserID *snowflake.ID) ([]domain.Partner, error) {
	items, err := s.repo.List(ctx, s.db, ownerUserID)
	if err != nil {
		return nil, err
	}
	partners := make([]domain.Partner, 0, len(items))
	for _, item := range items {
		partners = append(partners, *item)
	}
	return partners, nil
}

func (s *Service) SoftDelete(ctx context.Context, id snowflake.ID) error {
	partner, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return err
	}
	if partner == nil {
		return domain.ErrNotFound
	}
	partner.Deleted = true
	partner.UpdatedAt = s.clock.Now()
	return s.repo.Save(ctx, s.db, partner)
}

func assign(dst *string, value *string) {
	if value != nil {
		*dst = strings.TrimSpace(*value)
	}
}
