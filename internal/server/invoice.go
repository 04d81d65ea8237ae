package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	invoicedomain "github.com/smallbiznis/invoicely/internal/invoice/domain"
	"github.com/smallbiznis/invoicely/pkg/db/pagination"
)

type invoiceItemRequest struct {
	ItemName        string           `json:"itemName" binding:"required"`
	ItemDescription string           `json:"itemDescription"`
	Quantity        *decimal.Decimal `json:"quantity"`
	UnitPrice       *decimal.Decimal `json:"unitPrice" binding:"required"`
}

type createInvoiceRequest struct {
	PartnerID      flexID               `json:"partnerId" binding:"required"`
	CustomerID     flexID               `json:"customerId" binding:"required"`
	InvoiceNumber  string               `json:"invoiceNumber" binding:"required"`
	Currency       string               `json:"currency"`
	IssueDate      string               `json:"issueDate" binding:"required"`
	DueDate        string               `json:"dueDate"`
	TaxAmount      *decimal.Decimal     `json:"taxAmount"`
	DiscountAmount *decimal.Decimal     `json:"discountAmount"`
	Notes          string               `json:"notes"`
	Items          []invoiceItemRequest `json:"items" binding:"omitempty,dive"`
	TemplateID     flexID               `json:"templateId"`
}

type updateInvoiceRequest struct {
	InvoiceNumber  *string              `json:"invoiceNumber"`
	Currency       *string              `json:"currency"`
	IssueDate      *string              `json:"issueDate"`
	DueDate        *string              `json:"dueDate"`
	Status         *string              `json:"status"`
	TaxAmount      *decimal.Decimal     `json:"taxAmount"`
	DiscountAmount *decimal.Decimal     `json:"discountAmount"`
	Notes          *string              `json:"notes"`
	Items          []invoiceItemRequest `json:"items" binding:"omitempty,dive"`
}

func toItemRequests(items []invoiceItemRequest) []invoicedomain.InvoiceItemRequest {
	if items == nil {
		return nil
	}
	out := make([]invoicedomain.InvoiceItemRequest, 0, len(items))
	for _, item := range items {
		out = append(out, invoicedomain.InvoiceItemRequest{
			ItemName:        strings.TrimSpace(item.ItemName),
			ItemDescription: strings.TrimSpace(item.ItemDescription),
			Quantity:        item.Quantity,
			UnitPrice:       *item.UnitPrice,
		})
	}
	return out
}

func (s *Server) CreateInvoice(c *gin.Context) {
	var req createInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, bindingError(err))
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

	resp, err := s.invoiceSvc.Create(c.Request.Context(), invoicedomain.CreateInvoiceRequest{
		PartnerID:      req.PartnerID.ID(),
		CustomerID:     req.CustomerID.ID(),
		InvoiceNumber:  strings.TrimSpace(req.InvoiceNumber),
		Currency:       req.Currency,
		IssueDate:      issueDate,
		DueDate:        dueDate,
		TaxAmount:      req.TaxAmount,
		DiscountAmount: req.DiscountAmount,
		Notes:          req.Notes,
		Items:          toItemRequests(req.Items),
		TemplateID:     req.TemplateID.Ptr(),
		Source:         "api",
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) GetInvoiceByID(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	resp, err := s.invoiceSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateInvoice(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req updateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, bindingError(err))
		return
	}

	update := invoicedomain.UpdateInvoiceRequest{
		InvoiceNumber:  trimmedPtr(req.InvoiceNumber),
		Currency:       req.Currency,
		TaxAmount:      req.TaxAmount,
		DiscountAmount: req.DiscountAmount,
		Notes:          req.Notes,
		Items:          toItemRequests(req.Items),
	}
	if req.IssueDate != nil {
		issueDate, err := parseDate(*req.IssueDate)
		if err != nil {
			AbortWithError(c, newValidationError("issueDate", "invalid_date", "invalid issueDate, expected YYYY-MM-DD"))
			return
		}
		update.IssueDate = &issueDate
	}
	if req.DueDate != nil {
		dueDate, err := parseDate(*req.DueDate)
		if err != nil {
			AbortWithError(c, newValidationError("dueDate", "invalid_date", "invalid dueDate, expected YYYY-MM-DD"))
			return
		}
		update.DueDate = &dueDate
	}
	if req.Status != nil {
		status, ok := invoicedomain.ParseInvoiceStatus(*req.Status)
		if !ok {
			AbortWithError(c, invoicedomain.ErrInvalidStatus)
			return
		}
		update.Status = &status
	}

	resp, err := s.webhookSvc.ProcessInvoiceUpdate(c.Request.Context(), id, update)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteInvoice(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := s.invoiceSvc.SoftDelete(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) ListInvoices(c *gin.Context) {
	partnerID, ok := requiredQueryID(c, "partnerId")
	if !ok {
		return
	}

	var query struct {
		pagination.Pagination
		Status     string `form:"status"`
		CustomerID string `form:"customerId"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, bindingError(err))
		return
	}

	status, err := parseOptionalStatus(query.Status)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	customerID, err := parseOptionalSnowflakeID(query.CustomerID)
	if err != nil {
		AbortWithError(c, newValidationError("customerId", "invalid_id", "invalid customerId"))
		return
	}
	issueDateFrom, ok := dateQuery(c, "issueDateFrom")
	if !ok {
		return
	}
	issueDateTo, ok := dateQuery(c, "issueDateTo")
	if !ok {
		return
	}

	resp, err := s.invoiceSvc.List(c.Request.Context(), invoicedomain.ListInvoiceRequest{
		PartnerID:     partnerID,
		Status:        status,
		CustomerID:    customerID,
		IssueDateFrom: issueDateFrom,
		IssueDateTo:   issueDateTo,
		Page:          query.Pagination,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) SearchInvoices(c *gin.Context) {
	partnerID, ok := requiredQueryID(c, "partnerId")
	if !ok {
		return
	}
	status, err := parseOptionalStatus(c.Query("status"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	dueBefore, ok := dateQuery(c, "dueBefore")
	if !ok {
		return
	}

	resp, err := s.invoiceSvc.Search(c.Request.Context(), invoicedomain.SearchInvoiceRequest{
		PartnerID: partnerID,
		Status:    status,
		DueBefore: dueBefore,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GenerateInvoiceNumber(c *gin.Context) {
	partnerID, ok := requiredQueryID(c, "partnerId")
	if !ok {
		return
	}

	number, err := s.invoiceSvc.NextInvoiceNumber(c.Request.Context(), partnerID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"invoiceNumber": number}})
}

func (s *Server) RenderInvoicePDF(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	inv, err := s.invoiceSvc.GetByID(ctx, id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	partner, err := s.partnerSvc.GetByID(ctx, inv.PartnerID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	customer, err := s.customerSvc.GetByID(ctx, inv.CustomerID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	doc, err := s.pdf.RenderInvoice(ctx, inv, partner, customer)
	if err != nil {
		AbortWithError(c, fmt.Errorf("render invoice pdf: %w", err))
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%q", "invoice-"+inv.InvoiceNumber+".pdf"))
	c.Data(http.StatusOK, "application/pdf", doc)
}
