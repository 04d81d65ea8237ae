package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	templatedomain "github.com/smallbiznis/invoicely/internal/template/domain"
	"github.com/smallbiznis/invoicely/pkg/db/pagination"
)

type createTemplateRequest struct {
	PartnerID    flexID `json:"partnerId" binding:"required"`
	Name         string `json:"name" binding:"required"`
	TemplateType string `json:"templateType"`
	ContentJSON  string `json:"contentJson"`
	IsDefault    bool   `json:"isDefault"`
}

type updateTemplateRequest struct {
	Name         *string `json:"name"`
	TemplateType *string `json:"templateType"`
	ContentJSON  *string `json:"contentJson"`
	IsDefault    *bool   `json:"isDefault"`
}

func (s *Server) CreateTemplate(c *gin.Context) {
	var req createTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, bindingError(err))
		return
	}

	resp, err := s.templateSvc.Create(c.Request.Context(), templatedomain.CreateTemplateRequest{
		PartnerID:    req.PartnerID.ID(),
		Name:         strings.TrimSpace(req.Name),
		TemplateType: req.TemplateType,
		ContentJSON:  req.ContentJSON,
		IsDefault:    req.IsDefault,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListTemplates(c *gin.Context) {
	partnerID, ok := requiredQueryID(c, "partnerId")
	if !ok {
		return
	}

	var page pagination.Pagination
	if err := c.ShouldBindQuery(&page); err != nil {
		AbortWithError(c, bindingError(err))
		return
	}

	resp, err := s.templateSvc.List(c.Request.Context(), templatedomain.ListTemplateRequest{
		PartnerID: partnerID,
		Page:      page,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetTemplateByID(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	resp, err := s.templateSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateTemplate(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req updateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, bindingError(err))
		return
	}

	resp, err := s.templateSvc.Update(c.Request.Context(), id, templatedomain.UpdateTemplateRequest{
		Name:         req.Name,
		TemplateType: req.TemplateType,
		ContentJSON:  req.ContentJSON,
		IsDefault:    req.IsDefault,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) SetDefaultTemplate(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	resp, err := s.templateSvc.SetDefault(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteTemplate(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := s.templateSvc.Delete(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
