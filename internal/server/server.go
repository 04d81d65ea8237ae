package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/invoicely/internal/analytics"
	analyticsdomain "github.com/smallbiznis/invoicely/internal/analytics/domain"
	"github.com/smallbiznis/invoicely/internal/attachment"
	attachmentdomain "github.com/smallbiznis/invoicely/internal/attachment/domain"
	"github.com/smallbiznis/invoicely/internal/config"
	"github.com/smallbiznis/invoicely/internal/customer"
	customerdomain "github.com/smallbiznis/invoicely/internal/customer/domain"
	"github.com/smallbiznis/invoicely/internal/invoice"
	invoicedomain "github.com/smallbiznis/invoicely/internal/invoice/domain"
	obslogger "github.com/smallbiznis/invoicely/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/invoicely/internal/observability/metrics"
	obstracing "github.com/smallbiznis/invoicely/internal/observability/tracing"
	"github.com/smallbiznis/invoicely/internal/partner"
	partnerdomain "github.com/smallbiznis/invoicely/internal/partner/domain"
	"github.com/smallbiznis/invoicely/internal/payment"
	paymentdomain "github.com/smallbiznis/invoicely/internal/payment/domain"
	"github.com/smallbiznis/invoicely/internal/providers"
	"github.com/smallbiznis/invoicely/internal/providers/pdf"
	"github.com/smallbiznis/invoicely/internal/ratelimit"
	"github.com/smallbiznis/invoicely/internal/storage"
	"github.com/smallbiznis/invoicely/internal/template"
	templatedomain "github.com/smallbiznis/invoicely/internal/template/domain"
	"github.com/smallbiznis/invoicely/internal/webhook"
	webhookdomain "github.com/smallbiznis/invoicely/internal/webhook/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	partner.Module,
	customer.Module,
	template.Module,
	invoice.Module,
	payment.Module,
	analytics.Module,
	webhook.Module,
	storage.Module,
	attachment.Module,
	providers.Module,
	ratelimit.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obslogger.GinMiddleware(obslogger.MiddlewareConfig{
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(httpMetrics.GinMiddleware())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(cfg config.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	return NewEngine(httpMetrics)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine *gin.Engine
	cfg    config.Config
	log    *zap.Logger

	partnerSvc      partnerdomain.Service
	customerSvc     customerdomain.Service
	templateSvc     templatedomain.Service
	invoiceSvc      invoicedomain.Service
	paymentSvc      paymentdomain.Service
	analyticsSvc    analyticsdomain.Service
	subscriptionSvc webhookdomain.SubscriptionService
	webhookSvc      webhookdomain.Service
	attachmentSvc   attachmentdomain.Service
	pdf             pdf.Provider

	webhookLimiter *ratelimit.WebhookLimiter
	obsMetrics     *obsmetrics.Metrics
}

type ServerParams struct {
	fx.In

	Gin *gin.Engine
	Cfg config.Config
	Log *zap.Logger

	PartnerSvc      partnerdomain.Service
	CustomerSvc     customerdomain.Service
	TemplateSvc     templatedomain.Service
	InvoiceSvc      invoicedomain.Service
	PaymentSvc      paymentdomain.Service
	AnalyticsSvc    analyticsdomain.Service
	SubscriptionSvc webhookdomain.SubscriptionService
	WebhookSvc      webhookdomain.Service
	AttachmentSvc   attachmentdomain.Service
	PDF             pdf.Provider

	WebhookLimiter *ratelimit.WebhookLimiter `optional:"true"`
	ObsMetrics     *obsmetrics.Metrics       `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:          p.Gin,
		cfg:             p.Cfg,
		log:             p.Log.Named("http.server"),
		partnerSvc:      p.PartnerSvc,
		customerSvc:     p.CustomerSvc,
		templateSvc:     p.TemplateSvc,
		invoiceSvc:      p.InvoiceSvc,
		paymentSvc:      p.PaymentSvc,
		analyticsSvc:    p.AnalyticsSvc,
		subscriptionSvc: p.SubscriptionSvc,
		webhookSvc:      p.WebhookSvc,
		attachmentSvc:   p.AttachmentSvc,
		pdf:             p.PDF,
		webhookLimiter:  p.WebhookLimiter,
		obsMetrics:      p.ObsMetrics,
	}

	svc.registerAPIRoutes()
	svc.registerWebhookRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")

	partners := api.Group("/partners")
	partners.POST("", s.CreatePartner)
	partners.GET("", s.ListPartners)
	partners.GET("/:id", s.GetPartnerByID)
	partners.PUT("/:id", s.UpdatePartner)
	partners.DELETE("/:id", s.DeletePartner)

	customers := api.Group("/customers")
	customers.POST("", s.CreateCustomer)
	customers.GET("", s.ListCustomers)
	customers.GET("/:id", s.GetCustomerByID)

	templates := api.Group("/templates")
	templates.POST("", s.CreateTemplate)
	templates.GET("", s.ListTemplates)
	templates.GET("/:id", s.GetTemplateByID)
	templates.PUT("/:id", s.UpdateTemplate)
	templates.POST("/:id/default", s.SetDefaultTemplate)
	templates.DELETE("/:id", s.DeleteTemplate)

	invoices := api.Group("/invoices")
	invoices.POST("", s.CreateInvoice)
	invoices.GET("", s.ListInvoices)
	invoices.GET("/search", s.SearchInvoices)
	invoices.GET("/generate-number", s.GenerateInvoiceNumber)
	invoices.GET("/:id", s.GetInvoiceByID)
	invoices.PUT("/:id", s.UpdateInvoice)
	invoices.DELETE("/:id", s.DeleteInvoice)
	invoices.GET("/:id/pdf", s.RenderInvoicePDF)
	invoices.POST("/:id/payments", s.RecordPayment)
	invoices.GET("/:id/payments", s.ListPayments)

	analyticsGroup := api.Group("/analytics")
	analyticsGroup.GET("/summary", s.AnalyticsSummary)
	analyticsGroup.GET("/timeseries", s.AnalyticsTimeseries)

	subscriptions := api.Group("/webhook-subscriptions")
	subscriptions.POST("", s.CreateWebhookSubscription)
	subscriptions.GET("", s.ListWebhookSubscriptions)
	subscriptions.DELETE("/:id", s.DeactivateWebhookSubscription)

	files := api.Group("/files")
	files.POST("", s.UploadFile)
	files.POST("/upload", s.UploadFile)
	files.GET("/:id", s.GetFile)
	files.GET("/:id/download", s.DownloadFile)
	files.DELETE("/:id", s.DeleteFile)
}

func (s *Server) registerWebhookRoutes() {
	hooks := s.engine.Group("/api/webhooks", s.WebhookRateLimit())
	hooks.POST("/invoice-created", s.HandleInvoiceCreatedWebhook)
	hooks.POST("/payment-updated", s.HandlePaymentUpdatedWebhook)
}
