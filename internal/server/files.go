package server

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	attachmentdomain "github.com/smallbiznis/invoicely/internal/attachment/domain"
	obslogger "github.com/smallbiznis/invoicely/internal/observability/logger"
	"go.uber.org/zap"
)

const defaultContentType = "application/octet-stream"

func (s *Server) UploadFile(c *gin.Context) {
	partnerID, err := parseSnowflakeID(c.PostForm("partnerId"))
	if err != nil {
		AbortWithError(c, newValidationError("partnerId", "invalid_id", "partnerId is required"))
		return
	}
	invoiceID, err := parseOptionalSnowflakeID(c.PostForm("invoiceId"))
	if err != nil {
		AbortWithError(c, newValidationError("invoiceId", "invalid_id", "invalid invoiceId"))
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		AbortWithError(c, newValidationError("file", "required", "file is required"))
		return
	}
	file, err := header.Open()
	if err != nil {
		AbortWithError(c, fmt.Errorf("open upload: %w", err))
		return
	}
	defer file.Close()

	contentType := strings.TrimSpace(header.Header.Get("Content-Type"))
	if contentType == "" {
		contentType = defaultContentType
	}

	resp, err := s.attachmentSvc.Upload(c.Request.Context(), attachmentdomain.UploadRequest{
		PartnerID:   partnerID,
		InvoiceID:   invoiceID,
		FileName:    header.Filename,
		ContentType: contentType,
		Size:        header.Size,
		Content:     file,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) GetFile(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	resp, err := s.attachmentSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DownloadFile(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	meta, body, err := s.attachmentSvc.Open(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	defer body.Close()

	contentType := meta.MimeType
	if contentType == "" {
		contentType = defaultContentType
	}
	encoded := strings.ReplaceAll(url.QueryEscape(meta.FileName), "+", "%20")

	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+encoded)
	c.Header("Content-Type", contentType)
	if meta.SizeBytes > 0 {
		c.Header("Content-Length", strconv.FormatInt(meta.SizeBytes, 10))
	}
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, body); err != nil {
		obslogger.FromContext(c.Request.Context()).Warn("file download interrupted",
			zap.String("attachment_id", meta.ID.String()),
			zap.Error(err),
		)
	}
}

func (s *Server) DeleteFile(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := s.attachmentSvc.Delete(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
