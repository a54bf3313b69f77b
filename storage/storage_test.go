package storage_test

import (
	"context"
	"errors"
	"testing"

	"github.com/kbukum/portfolio/component"
	"github.com/kbukum/portfolio/logger"
	"github.com/kbukum/portfolio/storage"
	"github.com/kbukum/portfolio/storage/local"
	"github.com/kbukum/portfolio/storage/memory"
	_ "github.com/kbukum/portfolio/storage/s3"
)

func TestConfig_Selected(t *testing.T) {
	full := storage.S3Config{AccessKeyID: "a", SecretAccessKey: "b", Bucket: "c"}
	tests := []struct {
		name string
		cfg  storage.Config
		want string
	}{
		{"no s3 settings", storage.Config{}, storage.ProviderLocal},
		{"all s3 settings", storage.Config{S3: full}, storage.ProviderS3},
		{"bucket without secret", storage.Config{S3: storage.S3Config{AccessKeyID: "a", Bucket: "c"}}, storage.ProviderLocal},
		{"credentials without bucket", storage.Config{S3: storage.S3Config{AccessKeyID: "a", SecretAccessKey: "b"}}, storage.ProviderLocal},
		{"forced local", storage.Config{Provider: "LOCAL", S3: full}, storage.ProviderLocal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			cfg.ApplyDefaults()
			if got := cfg.Selected(); got != tt.want {
				t.Errorf("Selected() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     storage.Config
		wantErr bool
	}{
		{"defaults", storage.Config{}, false},
		{"forced s3 without credentials", storage.Config{Provider: "s3", S3: storage.S3Config{Bucket: "b"}}, true},
		{"forced s3 complete", storage.Config{Provider: "s3", S3: storage.S3Config{AccessKeyID: "a", SecretAccessKey: "b", Bucket: "c"}}, false},
		{"unknown provider", storage.Config{Provider: "gcs"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			cfg.ApplyDefaults()
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNew_SelectsBackend(t *testing.T) {
	log := logger.NewNop()

	s, err := storage.New(storage.Config{Local: storage.LocalConfig{BasePath: t.TempDir()}}, log)
	if err != nil {
		t.Fatalf("New local: %v", err)
	}
	if _, ok := s.(*local.Storage); !ok {
		t.Errorf("got %T, want *local.Storage", s)
	}

	s, err = storage.New(storage.Config{
		Local: storage.LocalConfig{BasePath: t.TempDir()},
		S3:    storage.S3Config{AccessKeyID: "a", SecretAccessKey: "b", Bucket: "c"},
	}, log)
	if err != nil {
		t.Fatalf("New s3: %v", err)
	}
	if _, ok := s.(storage.Redirector); !ok {
		t.Errorf("got %T, want an S3 backend", s)
	}
}

func TestValidateKey(t *testing.T) {
	valid := []string{"abc.png", "thumbnails/abc.png"}
	invalid := []string{"", "/abc.png", "../abc.png", "a//b.png", "a/./b", `a\b`, "."}
	for _, k := range valid {
		if err := storage.ValidateKey(k); err != nil {
			t.Errorf("ValidateKey(%q) = %v", k, err)
		}
	}
	for _, k := range invalid {
		if err := storage.ValidateKey(k); !errors.Is(err, storage.ErrInvalidKey) {
			t.Errorf("ValidateKey(%q) = %v, want ErrInvalidKey", k, err)
		}
	}
}

func TestComponent_Health(t *testing.T) {
	ctx := context.Background()
	s, err := local.NewStorage(t.TempDir(), "")
	if err != nil {
		t.Fatal(err)
	}
	c := storage.NewComponent(s, storage.Config{Local: storage.LocalConfig{BasePath: s.BasePath()}})
	if h := c.Health(ctx); h.Status != component.StatusHealthy {
		t.Errorf("health = %+v", h)
	}
	if d := c.Describe(); d.Type != "storage" {
		t.Errorf("describe = %+v", d)
	}

	// memory storage has no Ping and is always considered healthy
	m := storage.NewComponent(memory.New(), storage.Config{})
	if h := m.Health(ctx); h.Status != component.StatusHealthy {
		t.Errorf("memory health = %+v", h)
	}

	if h := storage.NewComponent(nil, storage.Config{}).Health(ctx); h.Status != component.StatusUnhealthy {
		t.Errorf("nil backend health = %+v", h)
	}
}
