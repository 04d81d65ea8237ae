package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/invoicely/internal/clock"
	customerdomain "github.com/smallbiznis/invoicely/internal/customer/domain"
	invoicedomain "github.com/smallbiznis/invoicely/internal/invoice/domain"
	"github.com/smallbiznis/invoicely/internal/observability/metrics"
	partnerdomain "github.com/smallbiznis/invoicely/internal/partner/domain"
	templatedomain "github.com/smallbiznis/invoicely/internal/template/domain"
	"github.com/smallbiznis/invoicely/pkg/db"
	"github.com/smallbiznis/invoicely/pkg/db/option"
	"github.com/smallbiznis/invoicely/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	GenID        *snowflake.Node
	Clock        clock.Clock
	Repo         invoicedomain.Repository
	PartnerRepo  partnerdomain.Repository
	CustomerRepo customerdomain.Repository
	TemplateRepo templatedomain.Repository
	Metrics      *metrics.Metrics `optional:"true"`
}

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	genID        *snowflake.Node
	clock        clock.Clock
	repo         invoicedomain.Repository
	partnerRepo  partnerdomain.Repository
	customerRepo customerdomain.Repository
	templateRepo templatedomain.Repository
	metrics      *metrics.Metrics
}

func NewService(p ServiceParam) invoicedomain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("invoice.service"),

		genID:        p.GenID,
		clock:        p.Clock,
		repo:         p.Repo,
		partnerRepo:  p.PartnerRepo,
		customerRepo: p.CustomerRepo,
		templateRepo: p.TemplateRepo,
		metrics:      p.Metrics,
	}
}

func (s *Service) Create(ctx context.Context, req invoicedomain.CreateInvoiceRequest) (invoicedomain.Invoice, error) {
	if req.PartnerID == 0 {
		return invoicedomain.Invoice{}, invoicedomain.ErrInvalidPartner
	}
	if req.CustomerID == 0 {
		return invoicedomain.Invoice{}, invoicedomain.ErrInvalidCustomer
	}
	number := strings.TrimSpace(req.InvoiceNumber)
	if number == "" {
		return invoicedomain.Invoice{}, invoicedomain.ErrInvalidInvoiceNumber
	}
	currency, err := normalizeCurrency(req.Currency)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}
	if req.IssueDate.IsZero() {
		return invoicedomain.Invoice{}, invoicedomain.ErrInvalidIssueDate
	}
	tax, err := nonNegative(req.TaxAmount)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}
	discount, err := nonNegative(req.DiscountAmount)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}

	now := s.clock.Now()
	invoice := invoicedomain.Invoice{
		ID:             s.genID.Generate(),
		PartnerID:      req.PartnerID,
		CustomerID:     req.CustomerID,
		InvoiceNumber:  number,
		Status:         invoicedomain.InvoiceStatusDraft,
		Currency:       currency,
		IssueDate:      clock.DateOf(req.IssueDate),
		DueDate:        datePtr(req.DueDate),
		TaxAmount:      tax,
		DiscountAmount: discount,
		Notes:          strings.TrimSpace(req.Notes),
		TemplateID:     req.TemplateID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	invoice.Items, err = s.buildItems(req.Items, invoice.ID, now)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}
	invoice.RecalcTotals()

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.ensurePartnerCustomer(ctx, tx, req.PartnerID, req.CustomerID); err != nil {
			return err
		}
		if req.TemplateID != nil {
			if err := s.ensureTemplate(ctx, tx, req.PartnerID, *req.TemplateID); err != nil {
				return err
			}
		}

		existing, err := s.repo.FindByNumber(ctx, tx, req.PartnerID, number)
		if err != nil {
			return err
		}
		if existing != nil {
			return invoicedomain.ErrDuplicateInvoiceNumber
		}

		if err := s.repo.Insert(ctx, tx, &invoice); err != nil {
			if db.IsDuplicateKeyErr(err) {
				return invoicedomain.ErrDuplicateInvoiceNumber
			}
			return err
		}
		return s.repo.ReplaceItems(ctx, tx, invoice.ID, invoice.Items)
	})
	if err != nil {
		return invoicedomain.Invoice{}, err
	}

	source := strings.TrimSpace(req.Source)
	if source == "" {
		source = "api"
	}
	s.metrics.RecordInvoiceCreated(ctx, source)
	s.log.Info("invoice created",
		zap.String("invoice_id", invoice.ID.String()),
		zap.String("partner_id", invoice.PartnerID.String()),
		zap.String("invoice_number", invoice.InvoiceNumber),
		zap.String("total_amount", invoice.TotalAmount.StringFixed(2)),
	)

	return invoice, nil
}

func (s *Service) Update(ctx context.Context, id snowflake.ID, req invoicedomain.UpdateInvoiceRequest) (invoicedomain.Invoice, error) {
	var updated invoicedomain.Invoice
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invoice, err := s.repo.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if invoice == nil {
			return invoicedomain.ErrNotFound
		}

		if req.InvoiceNumber != nil {
			number := strings.TrimSpace(*req.InvoiceNumber)
			if number == "" {
				return invoicedomain.ErrInvalidInvoiceNumber
			}
			if number != invoice.InvoiceNumber {
				existing, err := s.repo.FindByNumber(ctx, tx, invoice.PartnerID, number)
				if err != nil {
					return err
				}
				if existing != nil {
					return invoicedomain.ErrDuplicateInvoiceNumber
				}
				invoice.InvoiceNumber = number
			}
		}
		if req.Currency != nil {
			currency, err := normalizeCurrency(*req.Currency)
			if err != nil {
				return err
			}
			invoice.Currency = currency
		}
		if req.IssueDate != nil {
			if req.IssueDate.IsZero() {
				return invoicedomain.ErrInvalidIssueDate
			}
			invoice.IssueDate = clock.DateOf(*req.IssueDate)
		}
		if req.DueDate != nil {
			invoice.DueDate = datePtr(req.DueDate)
		}
		if req.Status != nil {
			status, ok := invoicedomain.ParseInvoiceStatus(string(*req.Status))
			if !ok {
				return invoicedomain.ErrInvalidStatus
			}
			invoice.Status = status
		}
		if req.TaxAmount != nil {
			tax, err := nonNegative(req.TaxAmount)
			if err != nil {
				return err
			}
			invoice.TaxAmount = tax
		}
		if req.DiscountAmount != nil {
			discount, err := nonNegative(req.DiscountAmount)
			if err != nil {
				return err
			}
			invoice.DiscountAmount = discount
		}
		if req.Notes != nil {
			invoice.Notes = strings.TrimSpace(*req.Notes)
		}

		now := s.clock.Now()
		replaceItems := req.Items != nil
		if replaceItems {
			invoice.Items, err = s.buildItems(req.Items, invoice.ID, now)
			if err != nil {
				return err
			}
		} else {
			items, err := s.repo.ListItems(ctx, tx, []snowflake.ID{invoice.ID})
			if err != nil {
				return err
			}
			invoice.Items = items[invoice.ID]
		}

		invoice.RecalcTotals()
		invoice.UpdatedAt = now

		if err := s.repo.Update(ctx, tx, invoice); err != nil {
			if db.IsDuplicateKeyErr(err) {
				return invoicedomain.ErrDuplicateInvoiceNumber
			}
			return err
		}
		if replaceItems {
			if err := s.repo.ReplaceItems(ctx, tx, invoice.ID, invoice.Items); err != nil {
				return err
			}
		}

		updated = *invoice
		return nil
	})
	if err != nil {
		return invoicedomain.Invoice{}, err
	}

	return updated, nil
}

func (s *Service) GetByID(ctx context.Context, id snowflake.ID) (invoicedomain.Invoice, error) {
	invoice, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}
	if invoice == nil {
		return invoicedomain.Invoice{}, invoicedomain.ErrNotFound
	}
	if err := s.attachItems(ctx, s.db, []*invoicedomain.Invoice{invoice}); err != nil {
		return invoicedomain.Invoice{}, err
	}
	return *invoice, nil
}

func (s *Service) GetByNumber(ctx context.Context, partnerID snowflake.ID, invoiceNumber string) (invoicedomain.Invoice, error) {
	invoice, err := s.repo.FindByNumber(ctx, s.db, partnerID, strings.TrimSpace(invoiceNumber))
	if err != nil {
		return invoicedomain.Invoice{}, err
	}
	if invoice == nil || invoice.Deleted {
		return invoicedomain.Invoice{}, invoicedomain.ErrNotFound
	}
	return *invoice, nil
}

func (s *Service) List(ctx context.Context, req invoicedomain.ListInvoiceRequest) (invoicedomain.ListInvoiceResponse, error) {
	if err := s.ensurePartner(ctx, s.db, req.PartnerID); err != nil {
		return invoicedomain.ListInvoiceResponse{}, err
	}

	filter := invoicedomain.ListInvoiceFilter{
		PartnerID:     &req.PartnerID,
		Status:        req.Status,
		CustomerID:    req.CustomerID,
		IssueDateFrom: datePtr(req.IssueDateFrom),
		IssueDateTo:   datePtr(req.IssueDateTo),
	}

	total, err := s.repo.Count(ctx, s.db, filter)
	if err != nil {
		return invoicedomain.ListInvoiceResponse{}, err
	}
	items, err := s.repo.List(ctx, s.db, filter, option.ApplyPagination(req.Page))
	if err != nil {
		return invoicedomain.ListInvoiceResponse{}, err
	}
	if err := s.attachItems(ctx, s.db, items); err != nil {
		return invoicedomain.ListInvoiceResponse{}, err
	}

	return invoicedomain.ListInvoiceResponse{
		PageInfo: pagination.BuildPageInfo(req.Page, total),
		Invoices: flatten(items),
	}, nil
}

// Search filters by status when given, otherwise by due date.
func (s *Service) Search(ctx context.Context, req invoicedomain.SearchInvoiceRequest) ([]invoicedomain.Invoice, error) {
	if err := s.ensurePartner(ctx, s.db, req.PartnerID); err != nil {
		return nil, err
	}

	filter := invoicedomain.ListInvoiceFilter{PartnerID: &req.PartnerID}
	switch {
	case req.Status != nil:
		filter.Status = req.Status
	case req.DueBefore != nil:
		filter.DueBefore = datePtr(req.DueBefore)
	}

	items, err := s.repo.List(ctx, s.db, filter)
	if err != nil {
		return nil, err
	}
	if err := s.attachItems(ctx, s.db, items); err != nil {
		return nil, err
	}
	return flatten(items), nil
}

func (s *Service) SoftDelete(ctx context.Context, id snowflake.ID) error {
	invoice, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return err
	}
	if invoice == nil {
		return invoicedomain.ErrNotFound
	}
	if err := s.repo.SoftDelete(ctx, s.db, id, s.clock.Now()); err != nil {
		return err
	}
	s.log.Info("invoice deleted", zap.String("invoice_id", id.String()))
	return nil
}

// NextInvoiceNumber suggests INV-000001 style numbers from the partner's
// current invoice count. It does not reserve the number.
func (s *Service) NextInvoiceNumber(ctx context.Context, partnerID snowflake.ID) (string, error) {
	if err := s.ensurePartner(ctx, s.db, partnerID); err != nil {
		return "", err
	}
	count, err := s.repo.Count(ctx, s.db, invoicedomain.ListInvoiceFilter{PartnerID: &partnerID})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("INV-%06d", count+1), nil
}

func (s *Service) SetStatus(ctx context.Context, id snowflake.ID, status invoicedomain.InvoiceStatus) (invoicedomain.Invoice, bool, error) {
	var (
		result  invoicedomain.Invoice
		changed bool
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invoice, err := s.repo.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if invoice == nil {
			return invoicedomain.ErrNotFound
		}

		result = *invoice
		if invoice.Status == status {
			return nil
		}

		now := s.clock.Now()
		if err := s.repo.UpdateStatus(ctx, tx, id, status, now); err != nil {
			return err
		}

		s.metrics.RecordStatusTransition(ctx, string(invoice.Status), string(status))
		s.log.Info("invoice status changed",
			zap.String("invoice_id", id.String()),
			zap.String("from", string(invoice.Status)),
			zap.String("to", string(status)),
		)

		result.Status = status
		result.UpdatedAt = now
		changed = true
		return nil
	})
	if err != nil {
		return invoicedomain.Invoice{}, false, err
	}
	return result, changed, nil
}

func (s *Service) ensurePartner(ctx context.Context, tx *gorm.DB, partnerID snowflake.ID) error {
	if partnerID == 0 {
		return invoicedomain.ErrInvalidPartner
	}
	partner, err := s.partnerRepo.FindByID(ctx, tx, partnerID)
	if err != nil {
		return err
	}
	if partner == nil {
		return partnerdomain.ErrNotFound
	}
	return nil
}

func (s *Service) ensurePartnerCustomer(ctx context.Context, tx *gorm.DB, partnerID, customerID snowflake.ID) error {
	if err := s.ensurePartner(ctx, tx, partnerID); err != nil {
		return err
	}
	customer, err := s.customerRepo.FindByID(ctx, tx, customerID)
	if err != nil {
		return err
	}
	if customer == nil || customer.PartnerID != partnerID {
		return customerdomain.ErrNotFound
	}
	return nil
}

func (s *Service) ensureTemplate(ctx context.Context, tx *gorm.DB, partnerID, templateID snowflake.ID) error {
	tmpl, err := s.templateRepo.FindByID(ctx, tx, templateID)
	if err != nil {
		return err
	}
	if tmpl == nil || tmpl.PartnerID != partnerID {
		return templatedomain.ErrNotFound
	}
	return nil
}

func (s *Service) buildItems(reqs []invoicedomain.InvoiceItemRequest, invoiceID snowflake.ID, now time.Time) ([]invoicedomain.InvoiceItem, error) {
	items := make([]invoicedomain.InvoiceItem, 0, len(reqs))
	for i, req := range reqs {
		name := strings.TrimSpace(req.ItemName)
		if name == "" {
			return nil, invoicedomain.ErrInvalidItemName
		}
		quantity := decimal.NewFromInt(1)
		if req.Quantity != nil {
			quantity = *req.Quantity
		}
		if quantity.IsNegative() {
			return nil, invoicedomain.ErrInvalidQuantity
		}
		if req.UnitPrice.IsNegative() {
			return nil, invoicedomain.ErrInvalidUnitPrice
		}

		item := invoicedomain.InvoiceItem{
			ID:              s.genID.Generate(),
			InvoiceID:       invoiceID,
			ItemName:        name,
			ItemDescription: strings.TrimSpace(req.ItemDescription),
			Quantity:        quantity,
			UnitPrice:       req.UnitPrice,
			Position:        i,
			CreatedAt:       now,
		}
		item.RecalcLineTotal()
		items = append(items, item)
	}
	return items, nil
}

func (s *Service) attachItems(ctx context.Context, tx *gorm.DB, invoices []*invoicedomain.Invoice) error {
	ids := make([]snowflake.ID, 0, len(invoices))
	for _, inv := range invoices {
		ids = append(ids, inv.ID)
	}
	items, err := s.repo.ListItems(ctx, tx, ids)
	if err != nil {
		return err
	}
	for _, inv := range invoices {
		inv.Items = items[inv.ID]
		if inv.Items == nil {
			inv.Items = []invoicedomain.InvoiceItem{}
		}
	}
	return nil
}

func flatten(items []*invoicedomain.Invoice) []invoicedomain.Invoice {
	invoices := make([]invoicedomain.Invoice, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		invoices = append(invoices, *item)
	}
	return invoices
}

func normalizeCurrency(value string) (string, error) {
	currency := strings.ToUpper(strings.TrimSpace(value))
	if currency == "" {
		return invoicedomain.DefaultCurrency, nil
	}
	if len(currency) != 3 {
		return "", invoicedomain.ErrInvalidCurrency
	}
	return currency, nil
}

func nonNegative(value *decimal.Decimal) (decimal.Decimal, error) {
	if value == nil {
		return decimal.Zero, nil
	}
	if value.IsNegative() {
		return decimal.Zero, invoicedomain.ErrInvalidAmount
	}
	return *value, nil
}

func datePtr(t *time.Time) *time.Time {
	if t == nil || t.IsZero() {
		return nil
	}
	d := clock.DateOf(*t)
	return &d
}
