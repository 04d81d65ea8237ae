package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	paymentdomain "github.com/smallbiznis/invoicely/internal/payment/domain"
)

type recordPaymentRequest struct {
	PaymentDate string           `json:"paymentDate"`
	Method      string           `json:"method"`
	Amount      *decimal.Decimal `json:"amount" binding:"required"`
	Status      string           `json:"status"`
	Reference   string           `json:"reference"`
}

func (s *Server) RecordPayment(c *gin.Context) {
	invoiceID, ok := pathID(c)
	if !ok {
		return
	}

	var req recordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, bindingError(err))
		return
	}

	var paymentDate time.Time
	if strings.TrimSpace(req.PaymentDate) != "" {
		parsed, err := parseDate(req.PaymentDate)
		if err != nil {
			AbortWithError(c, newValidationError("paymentDate", "invalid_date", "invalid paymentDate, expected YYYY-MM-DD"))
			return
		}
		paymentDate = parsed
	}

	resp, err := s.paymentSvc.Record(c.Request.Context(), paymentdomain.RecordPaymentRequest{
		InvoiceID:   invoiceID,
		PaymentDate: paymentDate,
		Method:      strings.TrimSpace(req.Method),
		Amount:      *req.Amount,
		Status:      req.Status,
		Reference:   strings.TrimSpace(req.Reference),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListPayments(c *gin.Context) {
	invoiceID, ok := pathID(c)
	if !ok {
		return
	}

	resp, err := s.paymentSvc.ListByInvoice(c.Request.Context(), invoiceID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
