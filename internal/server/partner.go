package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	partnerdomain "github.com/smallbiznis/invoicely/internal/partner/domain"
)

type createPartnerRequest struct {
	OwnerUserID  flexID `json:"ownerUserId"`
	Name         string `json:"name" binding:"required"`
	LegalName    string `json:"legalName"`
	Email        string `json:"email" binding:"omitempty,email"`
	Phone        string `json:"phone"`
	AddressLine1 string `json:"addressLine1"`
	AddressLine2 string `json:"addressLine2"`
	City         string `json:"city"`
	State        string `json:"state"`
	Country      string `json:"country"`
	PostalCode   string `json:"postalCode"`
}

type updatePartnerRequest struct {
	Name         *string `json:"name"`
	LegalName    *string `json:"legalName"`
	Email        *string `json:"email" binding:"omitempty,email"`
	Phone        *string `json:"phone"`
	AddressLine1 *string `json:"addressLine1"`
	AddressLine2 *string `json:"addressLine2"`
	City         *string `json:"city"`
	State        *string `json:"state"`
	Country      *string `json:"country"`
	PostalCode   *string `json:"postalCode"`
}

func (s *Server) CreatePartner(c *gin.Context) {
	var req createPartnerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, bindingError(err))
		return
	}

	resp, err := s.partnerSvc.Create(c.Request.Context(), partnerdomain.CreatePartnerRequest{
		OwnerUserID:  req.OwnerUserID.ID(),
		Name:         strings.TrimSpace(req.Name),
		LegalName:    strings.TrimSpace(req.LegalName),
		Email:        strings.TrimSpace(req.Email),
		Phone:        strings.TrimSpace(req.Phone),
		AddressLine1: strings.TrimSpace(req.AddressLine1),
		AddressLine2: strings.TrimSpace(req.AddressLine2),
		City:         strings.TrimSpace(req.City),
		State:        strings.TrimSpace(req.State),
		Country:      strings.TrimSpace(req.Country),
		PostalCode:   strings.TrimSpace(req.PostalCode),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListPartners(c *gin.Context) {
	ownerUserID, err := parseOptionalSnowflakeID(c.Query("ownerUserId"))
	if err != nil {
		AbortWithError(c, newValidationError("ownerUserId", "invalid_id", "invalid ownerUserId"))
		return
	}

	resp, err := s.partnerSvc.List(c.Request.Context(), ownerUserID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetPartnerByID(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	resp, err := s.partnerSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdatePartner(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req updatePartnerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, bindingError(err))
		return
	}

	resp, err := s.partnerSvc.Update(c.Request.Context(), id, partnerdomain.UpdatePartnerRequest{
		Name:         trimmedPtr(req.Name),
		LegalName:    trimmedPtr(req.LegalName),
		Email:        trimmedPtr(req.Email),
		Phone:        trimmedPtr(req.Phone),
		AddressLine1: trimmedPtr(req.AddressLine1),
		AddressLine2: trimmedPtr(req.AddressLine2),
		City:         trimmedPtr(req.City),
		State:        trimmedPtr(req.State),
		Country:      trimmedPtr(req.Country),
		PostalCode:   trimmedPtr(req.PostalCode),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeletePartner(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := s.partnerSvc.SoftDelete(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func trimmedPtr(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	return &trimmed
}
