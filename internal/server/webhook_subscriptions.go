package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	webhookdomain "github.com/smallbiznis/invoicely/internal/webhook/domain"
)

type createWebhookSubscriptionRequest struct {
	PartnerID   flexID         `json:"partnerId" binding:"required"`
	EventType   string         `json:"eventType"`
	TargetURL   string         `json:"targetUrl" binding:"required,url"`
	SecretToken string         `json:"secretToken"`
	Metadata    map[string]any `json:"metadata"`
}

func (s *Server) CreateWebhookSubscription(c *gin.Context) {
	var req createWebhookSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, bindingError(err))
		return
	}

	eventType := strings.TrimSpace(req.EventType)
	if eventType == "" {
		eventType = webhookdomain.EventInvoiceStatusChanged
	}

	resp, err := s.subscriptionSvc.Create(c.Request.Context(), webhookdomain.CreateSubscriptionRequest{
		PartnerID:   req.PartnerID.ID(),
		EventType:   eventType,
		TargetURL:   strings.TrimSpace(req.TargetURL),
		SecretToken: strings.TrimSpace(req.SecretToken),
		Metadata:    req.Metadata,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListWebhookSubscriptions(c *gin.Context) {
	partnerID, ok := requiredQueryID(c, "partnerId")
	if !ok {
		return
	}

	resp, err := s.subscriptionSvc.ListByPartner(c.Request.Context(), partnerID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeactivateWebhookSubscription(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := s.subscriptionSvc.Deactivate(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
