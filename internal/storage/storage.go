// Package storage persists attachment bytes under logical keys such as
// "partners/1/invoices/2/file.pdf". The backend is chosen once at startup.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/smallbiznis/invoicely/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	KindLocal = "local"
	KindS3    = "s3"
	KindAzure = "azure"
)

var (
	ErrInvalidKey = errors.New("invalid_storage_key")
	ErrNotFound   = errors.New("not_found")
)

// Provider stores and retrieves objects by logical key.
type Provider interface {
	// Save writes r under key, replacing any existing object, and returns a
	// backend reference for the stored object.
	Save(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Exists(ctx context.Context, key string) (bool, error)
	// Delete succeeds when the object is already absent.
	Delete(ctx context.Context, key string) error
}

type Config struct {
	Kind      string
	LocalPath string

	S3Bucket       string
	S3Region       string
	S3Endpoint     string
	S3AccessKey    string
	S3SecretKey    string
	S3UsePathStyle bool

	AzureConnectionString string
	AzureContainer        string
}

func FromAppConfig(cfg config.Config) Config {
	return Config{
		Kind:                  cfg.Storage.Provider,
		LocalPath:             cfg.Storage.LocalPath,
		S3Bucket:              cfg.Storage.S3Bucket,
		S3Region:              cfg.Storage.S3Region,
		S3Endpoint:            cfg.Storage.S3Endpoint,
		S3AccessKey:           cfg.Storage.S3AccessKey,
		S3SecretKey:           cfg.Storage.S3SecretKey,
		S3UsePathStyle:        cfg.Storage.S3UsePathStyle,
		AzureConnectionString: cfg.Storage.AzureConnectionString,
		AzureContainer:        cfg.Storage.AzureContainer,
	}
}

var Module = fx.Module("storage",
	fx.Provide(FromAppConfig),
	fx.Provide(New),
)

// New builds the provider selected by cfg.Kind. An empty kind means local.
func New(cfg Config, log *zap.Logger) (Provider, error) {
	log = log.Named("storage")
	kind := strings.ToLower(strings.TrimSpace(cfg.Kind))
	switch kind {
	case "", KindLocal:
		log.Info("using local storage", zap.String("path", cfg.LocalPath))
		return NewLocal(cfg.LocalPath)
	case KindS3:
		log.Info("using s3 storage", zap.String("bucket", cfg.S3Bucket))
		return NewS3(cfg, log)
	case KindAzure:
		log.Info("using azure blob storage", zap.String("container", cfg.AzureContainer))
		return NewAzure(cfg, log)
	default:
		return nil, fmt.Errorf("unsupported storage provider %q", cfg.Kind)
	}
}

// cleanKey rejects absolute keys and any parent directory segment.
func cleanKey(key string) (string, error) {
	key = strings.TrimSpace(strings.ReplaceAll(key, "\\", "/"))
	if key == "" || strings.HasPrefix(key, "/") {
		return "", ErrInvalidKey
	}
	for _, part := range strings.Split(key, "/") {
		if part == ".." {
			return "", ErrInvalidKey
		}
	}
	return key, nil
}
