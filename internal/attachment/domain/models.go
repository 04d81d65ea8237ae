package domain

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/bwmarrin/snowflake"
)

type FileAttachment struct {
	ID         snowflake.ID  `gorm:"primaryKey" json:"id"`
	PartnerID  snowflake.ID  `gorm:"not null;index" json:"partnerId"`
	InvoiceID  *snowflake.ID `gorm:"index" json:"invoiceId,omitempty"`
	FileName   string        `gorm:"type:varchar(255);not null" json:"fileName"`
	StorageKey string        `gorm:"type:varchar(1024);not null" json:"-"`
	MimeType   string        `gorm:"type:varchar(255)" json:"mimeType,omitempty"`
	SizeBytes  int64         `gorm:"not null;default:0" json:"sizeBytes"`
	CreatedAt  time.Time     `gorm:"not null" json:"createdAt"`
	UpdatedAt  time.Time     `gorm:"not null" json:"updatedAt"`
}

func (FileAttachment) TableName() string { return "file_attachments" }

type UploadRequest struct {
	PartnerID   snowflake.ID
	InvoiceID   *snowflake.ID
	FileName    string
	ContentType string
	Size        int64
	Content     io.Reader
}

type Service interface {
	Upload(context.Context, UploadRequest) (FileAttachment, error)
	Get(ctx context.Context, id snowflake.ID) (FileAttachment, error)
	// Open returns the attachment and its content. Callers close the reader.
	Open(ctx context.Context, id snowflake.ID) (FileAttachment, io.ReadCloser, error)
	Delete(ctx context.Context, id snowflake.ID) error
}

var (
	ErrInvalidPartner = errors.New("invalid_partner")
	ErrInvalidFile    = errors.New("invalid_file")
	ErrNotFound       = errors.New("not_found")
)
