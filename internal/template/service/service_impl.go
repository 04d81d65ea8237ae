package service

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/invoicely/internal/clock"
	invoicedomain "github.com/smallbiznis/invoicely/internal/invoice/domain"
	partnerdomain "github.com/smallbiznis/invoicely/internal/partner/domain"
	"github.com/smallbiznis/invoicely/internal/template/domain"
	"github.com/smallbiznis/invoicely/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Clock       clock.Clock
	Repo        domain.Repository
	PartnerRepo partnerdomain.Repository
	InvoiceRepo invoicedomain.Repository
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	clock       clock.Clock
	repo        domain.Repository
	partnerRepo partnerdomain.Repository
	invoiceRepo invoicedomain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("template.service"),
		genID:       p.GenID,
		clock:       p.Clock,
		repo:        p.Repo,
		partnerRepo: p.PartnerRepo,
		invoiceRepo: p.InvoiceRepo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateTemplateRequest) (domain.Template, error) {
	if req.PartnerID == 0 {
		return domain.Template{}, domain.ErrInvalidPartner
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Template{}, domain.ErrInvalidName
	}

	templateType := domain.DefaultTemplateType
	if strings.TrimSpace(req.TemplateType) != "" {
		templateType = normalizeType(req.TemplateType)
	}

	if err := validateContent(req.ContentJSON); err != nil {
		return domain.Template{}, err
	}

	partner, err := s.partnerRepo.FindByID(ctx, s.db, req.PartnerID)
	if err != nil {
		return domain.Template{}, err
	}
	if partner == nil {
		return domain.Template{}, partnerdomain.ErrNotFound
	}

	now := s.clock.Now()
	tmpl := domain.Template{
		ID:           s.genID.Generate(),
		PartnerID:    partner.ID,
		Name:         name,
		TemplateType: templateType,
		ContentJSON:  req.ContentJSON,
		IsDefault:    req.IsDefault,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if tmpl.IsDefault {
			if err := s.repo.UnsetDefault(ctx, tx, tmpl.PartnerID, now); err != nil {
				return err
			}
		}
		return s.repo.Insert(ctx, tx, &tmpl)
	})
	if err != nil {
		return domain.Template{}, err
	}

	s.log.Info("template created",
		zap.String("template_id", tmpl.ID.String()),
		zap.String("partner_id", tmpl.PartnerID.String()),
	)
	return tmpl, nil
}

func (s *Service) GetByID(ctx context.Context, id snowflake.ID) (domain.Template, error) {
	if id == 0 {
		return domain.Template{}, domain.ErrInvalidID
	}
	tmpl, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.Template{}, err
	}
	if tmpl == nil {
		return domain.Template{}, domain.ErrNotFound
	}
	return *tmpl, nil
}

func (s *Service) List(ctx context.Context, req domain.ListTemplateRequest) (domain.ListTemplateResponse, error) {
	if req.PartnerID == 0 {
		return domain.ListTemplateResponse{}, domain.ErrInvalidPartner
	}

	partner, err := s.partnerRepo.FindByID(ctx, s.db, req.PartnerID)
	if err != nil {
		return domain.ListTemplateResponse{}, err
	}
	if partner == nil {
		return domain.ListTemplateResponse{}, partnerdomain.ErrNotFound
	}

	total, err := s.repo.Count(ctx, s.db, req.PartnerID)
	if err != nil {
		return domain.ListTemplateResponse{}, err
	}
	items, err := s.repo.List(ctx, s.db, req.PartnerID, req.Page)
	if err != nil {
		return domain.ListTemplateResponse{}, err
	}

	templates := make([]domain.Template, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		templates = append(templates, *item)
	}

	return domain.ListTemplateResponse{
		PageInfo:  pagination.BuildPageInfo(req.Page, total),
		Templates: templates,
	}, nil
}

func (s *Service) Update(ctx context.Context, id snowflake.ID, req domain.UpdateTemplateRequest) (domain.Template, error) {
	tmpl, err := s.GetByID(ctx, id)
	if err != nil {
		return domain.Template{}, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return domain.Template{}, domain.ErrInvalidName
		}
		tmpl.Name = name
	}

	if req.TemplateType != nil {
		templateType := normalizeType(*req.TemplateType)
		if templateType == "" {
			return domain.Template{}, domain.ErrInvalidType
		}
		tmpl.TemplateType = templateType
	}

	if req.ContentJSON != nil {
		if err := validateContent(*req.ContentJSON); err != nil {
			return domain.Template{}, err
		}
		tmpl.ContentJSON = *req.ContentJSON
	}

	becomesDefault := req.IsDefault != nil && *req.IsDefault && !tmpl.IsDefault
	if req.IsDefault != nil {
		tmpl.IsDefault = *req.IsDefault
	}

	tmpl.UpdatedAt = s.clock.Now()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if becomesDefault {
			if err := s.repo.UnsetDefault(ctx, tx, tmpl.PartnerID, tmpl.UpdatedAt); err != nil {
				return err
			}
		}
		return s.repo.Update(ctx, tx, &tmpl)
	})
	if err != nil {
		return domain.Template{}, err
	}

	return tmpl, nil
}

func (s *Service) SetDefault(ctx context.Context, id snowflake.ID) (domain.Template, error) {
	isDefault := true
	return s.Update(ctx, id, domain.UpdateTemplateRequest{IsDefault: &isDefault})
}

func (s *Service) Delete(ctx context.Context, id snowflake.ID) error {
	tmpl, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.invoiceRepo.ClearTemplate(ctx, tx, tmpl.ID); err != nil {
			return err
		}
		return s.repo.Delete(ctx, tx, tmpl.ID)
	})
	if err != nil {
		return err
	}

	s.log.Info("template deleted", zap.String("template_id", tmpl.ID.String()))
	return nil
}

func normalizeType(value string) string {
	return strings.ToUpper(strings.TrimSpace(value))
}

// validateContent accepts an empty body or any well-formed JSON document.
func validateContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return nil
	}
	if !json.Valid([]byte(content)) {
		return domain.ErrInvalidContent
	}
	return nil
}
