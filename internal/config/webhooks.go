package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// OutgoingWebhookConfig controls outbound event fan-out. It is read on every
// dispatch so edits to webhooks.yml apply without a restart.
type OutgoingWebhookConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	DefaultSecret string        `mapstructure:"defaultSecret"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

type WebhookConfigHolder struct {
	current atomic.Value // holds OutgoingWebhookConfig
}

// NewStaticWebhookConfigHolder returns a holder that never reloads.
func NewStaticWebhookConfigHolder(cfg OutgoingWebhookConfig) *WebhookConfigHolder {
	holder := &WebhookConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func NewWebhookConfigHolder(cfg Config) (*WebhookConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("webhooks")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/invoicely")
	v.AddConfigPath(".")

	v.SetEnvPrefix("INVOICELY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("outgoing.enabled", cfg.Webhooks.OutgoingEnabled)
	v.SetDefault("outgoing.defaultSecret", cfg.Webhooks.DefaultSecret)
	v.SetDefault("outgoing.timeout", cfg.Webhooks.Timeout)

	found := true
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		found = false
	}

	var outgoing OutgoingWebhookConfig
	if err := v.UnmarshalKey("outgoing", &outgoing); err != nil {
		return nil, err
	}
	if err := validateOutgoingWebhookConfig(outgoing); err != nil {
		return nil, err
	}

	holder := NewStaticWebhookConfigHolder(outgoing)
	if !found {
		return holder, nil
	}

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated OutgoingWebhookConfig
		if err := v.UnmarshalKey("outgoing", &updated); err != nil {
			log.Printf("[webhook-config] reload failed: %v", err)
			return
		}
		if err := validateOutgoingWebhookConfig(updated); err != nil {
			log.Printf("[webhook-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[webhook-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

func (h *WebhookConfigHolder) Get() OutgoingWebhookConfig {
	return h.current.Load().(OutgoingWebhookConfig)
}

func validateOutgoingWebhookConfig(cfg OutgoingWebhookConfig) error {
	if cfg.Timeout <= 0 {
		return errors.New("outgoing.timeout must be positive")
	}
	return nil
}
