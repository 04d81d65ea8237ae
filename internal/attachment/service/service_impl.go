package service

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/bwmarrin/snowflake"
	attachmentdomain "github.com/smallbiznis/invoicely/internal/attachment/domain"
	"github.com/smallbiznis/invoicely/internal/clock"
	invoicedomain "github.com/smallbiznis/invoicely/internal/invoice/domain"
	partnerdomain "github.com/smallbiznis/invoicely/internal/partner/domain"
	"github.com/smallbiznis/invoicely/internal/storage"
	"github.com/smallbiznis/invoicely/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const defaultFileName = "upload.bin"

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Clock       clock.Clock
	Storage     storage.Provider
	Store       repository.Repository[attachmentdomain.FileAttachment]
	PartnerRepo partnerdomain.Repository
	InvoiceRepo invoicedomain.Repository
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	clock       clock.Clock
	storage     storage.Provider
	store       repository.Repository[attachmentdomain.FileAttachment]
	partnerRepo partnerdomain.Repository
	invoiceRepo invoicedomain.Repository
}

func NewService(p Params) attachmentdomain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("attachment.service"),
		genID:       p.GenID,
		clock:       p.Clock,
		storage:     p.Storage,
		store:       p.Store,
		partnerRepo: p.PartnerRepo,
		invoiceRepo: p.InvoiceRepo,
	}
}

func (s *Service) Upload(ctx context.Context, req attachmentdomain.UploadRequest) (attachmentdomain.FileAttachment, error) {
	if req.PartnerID == 0 {
		return attachmentdomain.FileAttachment{}, attachmentdomain.ErrInvalidPartner
	}
	if req.Content == nil {
		return attachmentdomain.FileAttachment{}, attachmentdomain.ErrInvalidFile
	}

	partner, err := s.partnerRepo.FindByID(ctx, s.db, req.PartnerID)
	if err != nil {
		return attachmentdomain.FileAttachment{}, err
	}
	if partner == nil {
		return attachmentdomain.FileAttachment{}, partnerdomain.ErrNotFound
	}
	if req.InvoiceID != nil {
		invoice, err := s.invoiceRepo.FindByID(ctx, s.db, *req.InvoiceID)
		if err != nil {
			return attachmentdomain.FileAttachment{}, err
		}
		if invoice == nil || invoice.PartnerID != req.PartnerID {
			return attachmentdomain.FileAttachment{}, invoicedomain.ErrNotFound
		}
	}

	name := strings.TrimSpace(req.FileName)
	if name == "" {
		name = defaultFileName
	}
	key := StorageKey(req.PartnerID, req.InvoiceID, name)

	if _, err := s.storage.Save(ctx, key, req.Content, req.Size, req.ContentType); err != nil {
		return attachmentdomain.FileAttachment{}, fmt.Errorf("store file: %w", err)
	}

	now := s.clock.Now()
	attachment := attachmentdomain.FileAttachment{
		ID:         s.genID.Generate(),
		PartnerID:  req.PartnerID,
		InvoiceID:  req.InvoiceID,
		FileName:   name,
		StorageKey: key,
		MimeType:   strings.TrimSpace(req.ContentType),
		SizeBytes:  req.Size,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.store.Create(ctx, &attachment); err != nil {
		if delErr := s.storage.Delete(ctx, key); delErr != nil {
			s.log.Warn("failed to remove orphaned upload", zap.String("key", key), zap.Error(delErr))
		}
		return attachmentdomain.FileAttachment{}, err
	}

	s.log.Info("attachment uploaded",
		zap.String("attachment_id", attachment.ID.String()),
		zap.String("partner_id", attachment.PartnerID.String()),
		zap.Int64("size_bytes", attachment.SizeBytes),
	)
	return attachment, nil
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (attachmentdomain.FileAttachment, error) {
	if id == 0 {
		return attachmentdomain.FileAttachment{}, attachmentdomain.ErrNotFound
	}
	item, err := s.store.FindOne(ctx, &attachmentdomain.FileAttachment{ID: id})
	if err != nil {
		return attachmentdomain.FileAttachment{}, err
	}
	if item == nil {
		return attachmentdomain.FileAttachment{}, attachmentdomain.ErrNotFound
	}
	return *item, nil
}

func (s *Service) Open(ctx context.Context, id snowflake.ID) (attachmentdomain.FileAttachment, io.ReadCloser, error) {
	item, err := s.Get(ctx, id)
	if err != nil {
		return attachmentdomain.FileAttachment{}, nil, err
	}
	rc, err := s.storage.Open(ctx, item.StorageKey)
	if err != nil {
		return attachmentdomain.FileAttachment{}, nil, err
	}
	return item, rc, nil
}

func (s *Service) Delete(ctx context.Context, id snowflake.ID) error {
	item, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.storage.Delete(ctx, item.StorageKey); err != nil {
		return fmt.Errorf("delete stored file: %w", err)
	}
	return s.store.Delete(ctx, id)
}

// StorageKey places invoice files under the invoice and everything else under
// the partner's uploads.
func StorageKey(partnerID snowflake.ID, invoiceID *snowflake.ID, name string) string {
	safe := unsafeChars.ReplaceAllString(name, "_")
	if strings.Trim(safe, ".") == "" {
		safe = defaultFileName
	}
	if invoiceID != nil {
		return fmt.Sprintf("partners/%s/invoices/%s/%s", partnerID, *invoiceID, safe)
	}
	return fmt.Sprintf("partners/%s/uploads/%s", partnerID, safe)
}
