package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	obslogger "github.com/smallbiznis/invoicely/internal/observability/logger"
	webhookdomain "github.com/smallbiznis/invoicely/internal/webhook/domain"
	"github.com/smallbiznis/invoicely/internal/webhook/signature"
	"go.uber.org/zap"
)

const (
	ackStatusOK    = "ok"
	ackStatusError = "error"
)

type webhookAckResponse struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	RequestID string `json:"requestId"`
}

type invoiceCreatedWebhookRequest struct {
	PartnerID      flexID           `json:"partnerId" binding:"required"`
	CustomerID     flexID           `json:"customerId" binding:"required"`
	InvoiceNumber  string           `json:"invoiceNumber" binding:"required"`
	Currency       string           `json:"currency"`
	IssueDate      string           `json:"issueDate" binding:"required"`
	DueDate        string           `json:"dueDate"`
	TaxAmount      *decimal.Decimal `json:"taxAmount"`
	DiscountAmount *decimal.Decimal `json:"discountAmount"`
	Notes          string           `json:"notes"`
	Metadata       map[string]any   `json:"metadata"`
}

type paymentUpdatedWebhookRequest struct {
	PartnerID     flexID         `json:"partnerId" binding:"required"`
	InvoiceNumber string         `json:"invoiceNumber" binding:"required"`
	PaymentStatus string         `json:"paymentStatus" binding:"required"`
	Reference     string         `json:"reference"`
	Metadata      map[string]any `json:"metadata"`
}

func (s *Server) HandleInvoiceCreatedWebhook(c *gin.Context) {
	requestID := webhookRequestID(c)

	var req invoiceCreatedWebhookRequest
	if !s.readSignedWebhook(c, requestID, &req) {
		return
	}

	issueDate, err := parseDate(req.IssueDate)
	if err != nil {
		AbortWithError(c, newValidationError("issueDate", "invalid_date", "invalid issueDate, expected YYYY-MM-DD"))
		return
	}
	dueDate, err := parseOptionalDate(req.DueDate)
	if err != nil {
		AbortWithError(c, newValidationError("dueDate", "invalid_date", "invalid dueDate, expected YYYY-MM-DD"))
		return
	}

	inv, err := s.webhookSvc.HandleInvoiceCreated(c.Request.Context(), webhookdomain.InvoiceCreatedRequest{
		PartnerID:      req.PartnerID.ID(),
		CustomerID:     req.CustomerID.ID(),
		InvoiceNumber:  strings.TrimSpace(req.InvoiceNumber),
		Currency:       req.Currency,
		IssueDate:      issueDate,
		DueDate:        dueDate,
		TaxAmount:      req.TaxAmount,
		DiscountAmount: req.DiscountAmount,
		Notes:          req.Notes,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, webhookAckResponse{
		Status:    ackStatusOK,
		Message:   "created invoice " + inv.InvoiceNumber,
		RequestID: requestID,
	})
}

func (s *Server) HandlePaymentUpdatedWebhook(c *gin.Context) {
	requestID := webhookRequestID(c)

	var req paymentUpdatedWebhookRequest
	if !s.readSignedWebhook(c, requestID, &req) {
		return
	}

	ctx := c.Request.Context()
	invoiceNumber := strings.TrimSpace(req.InvoiceNumber)

	release, locked, err := s.webhookLimiter.LockInvoice(ctx, req.PartnerID.ID().String(), invoiceNumber)
	if err != nil {
		obslogger.FromContext(ctx).Warn("payment webhook lock failed", zap.Error(err))
		AbortWithError(c, ErrServiceUnavailable)
		return
	}
	defer release()
	if !locked {
		AbortWithError(c, ErrConflict)
		return
	}

	inv, err := s.webhookSvc.ProcessPaymentUpdated(ctx, webhookdomain.PaymentUpdatedRequest{
		PartnerID:     req.PartnerID.ID(),
		InvoiceNumber: invoiceNumber,
		PaymentStatus: req.PaymentStatus,
		Reference:     strings.TrimSpace(req.Reference),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, webhookAckResponse{
		Status:    ackStatusOK,
		Message:   "updated invoice status to " + string(inv.Status),
		RequestID: requestID,
	})
}

// readSignedWebhook reads the raw body, checks X-Signature against it and
// then decodes and validates dst. It writes the response itself on failure.
func (s *Server) readSignedWebhook(c *gin.Context, requestID string, dst any) bool {
	raw, err := c.GetRawData()
	if err != nil {
		AbortWithError(c, invalidRequestError())
		return false
	}

	header := c.GetHeader(signature.Header)
	if !s.webhookSvc.VerifyIncomingSignature(header, raw, s.cfg.Webhooks.IncomingSecret) {
		s.obsMetrics.RecordWebhookInbound(c.Request.Context(), strings.TrimPrefix(c.FullPath(), "/api/webhooks/"), "invalid_signature")
		obslogger.FromContext(c.Request.Context()).Warn("webhook signature rejected",
			zap.String("route", c.FullPath()),
			zap.Bool("signature_present", header != ""),
		)
		_ = c.Error(webhookdomain.ErrInvalidSignature)
		c.AbortWithStatusJSON(http.StatusUnauthorized, webhookAckResponse{
			Status:    ackStatusError,
			Message:   "invalid signature",
			RequestID: requestID,
		})
		return false
	}

	if err := json.Unmarshal(raw, dst); err != nil {
		AbortWithError(c, bindingError(err))
		return false
	}
	if err := validateStruct(dst); err != nil {
		AbortWithError(c, err)
		return false
	}
	return true
}

func webhookRequestID(c *gin.Context) string {
	if id := strings.TrimSpace(c.GetString(obslogger.RequestIDKey)); id != "" {
		return id
	}
	return uuid.NewString()
}
