package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	analyticsdomain "github.com/smallbiznis/invoicely/internal/analytics/domain"
	"github.com/smallbiznis/invoicely/internal/analytics/engine"
	invoicedomain "github.com/smallbiznis/invoicely/internal/invoice/domain"
	partnerdomain "github.com/smallbiznis/invoicely/internal/partner/domain"
	paymentdomain "github.com/smallbiznis/invoicely/internal/payment/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	InvoiceRepo invoicedomain.Repository
	PaymentRepo paymentdomain.Repository
	PartnerRepo partnerdomain.Repository
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	invoiceRepo invoicedomain.Repository
	paymentRepo paymentdomain.Repository
	partnerRepo partnerdomain.Repository
}

func NewService(p Params) analyticsdomain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("analytics.service"),
		invoiceRepo: p.InvoiceRepo,
		paymentRepo: p.PaymentRepo,
		partnerRepo: p.PartnerRepo,
	}
}

func (s *Service) Summary(ctx context.Context, filter analyticsdomain.Filter) (analyticsdomain.SummaryResponse, error) {
	invoices, payments, err := s.load(ctx, filter)
	if err != nil {
		return analyticsdomain.SummaryResponse{}, err
	}
	return engine.Summarize(invoices, payments, filter), nil
}

func (s *Service) Timeseries(ctx context.Context, req analyticsdomain.TimeseriesRequest) (analyticsdomain.TimeseriesResponse, error) {
	invoices, payments, err := s.load(ctx, req.Filter)
	if err != nil {
		return analyticsdomain.TimeseriesResponse{}, err
	}
	return engine.BuildTimeseries(invoices, payments, req.Filter, analyticsdomain.ParseMetric(req.Metric)), nil
}

// load reads every non-deleted invoice in scope and their completed payments
// in one transaction. Date and status filters are applied by the engine.
func (s *Service) load(ctx context.Context, filter analyticsdomain.Filter) ([]invoicedomain.Invoice, engine.PaymentsByInvoice, error) {
	var (
		invoices []invoicedomain.Invoice
		payments engine.PaymentsByInvoice
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if filter.PartnerID != nil {
			partner, err := s.partnerRepo.FindByID(ctx, tx, *filter.PartnerID)
			if err != nil {
				return err
			}
			if partner == nil {
				return partnerdomain.ErrNotFound
			}
		}

		items, err := s.invoiceRepo.List(ctx, tx, invoicedomain.ListInvoiceFilter{PartnerID: filter.PartnerID})
		if err != nil {
			return err
		}
		ids := make([]snowflake.ID, 0, len(items))
		invoices = make([]invoicedomain.Invoice, 0, len(items))
		for _, item := range items {
			ids = append(ids, item.ID)
			invoices = append(invoices, *item)
		}

		payments, err = s.paymentRepo.ListCompletedByInvoices(ctx, tx, ids)
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	s.log.Debug("analytics scope loaded",
		zap.Int("invoices", len(invoices)),
		zap.Int("paid_invoices", len(payments)),
	)
	return invoices, payments, nil
}
