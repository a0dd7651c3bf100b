package backend

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"hisab/internal/config"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"memory", Config{Type: MemoryBackend}, false},
		{"sqlite with path", Config{Type: SQLiteBackend, SQLiteDBPath: "x.db"}, false},
		{"sqlite without path", Config{Type: SQLiteBackend}, true},
		{"postgres without dsn", Config{Type: PostgresBackend}, true},
		{"unknown", Config{Type: "redis"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestFromAppConfig(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Error("expected error for nil config")
	}
	cfg, err := FromAppConfig(&config.Config{ShareBackend: "sqlite", SQLiteDBPath: "a.db"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Type != SQLiteBackend || cfg.SQLiteDBPath != "a.db" {
		t.Errorf("got %+v", cfg)
	}
	_, err = FromAppConfig(&config.Config{ShareBackend: "sheets"})
	if err == nil || !strings.Contains(err.Error(), "memory, sqlite, postgres") {
		t.Errorf("expected error listing valid backends, got %v", err)
	}
}

func TestFactoryCreate(t *testing.T) {
	f := NewFactory(nil)
	ctx := context.Background()

	for _, cfg := range []Config{
		{Type: MemoryBackend},
		{Type: SQLiteBackend, SQLiteDBPath: filepath.Join(t.TempDir(), "share.db")},
	} {
		t.Run(cfg.Type.String(), func(t *testing.T) {
			res, err := f.Create(ctx, cfg)
			if err != nil {
				t.Fatalf("Create: %v", err)
			}
			defer res.Cleanup()
			if err := res.Store.Ping(ctx); err != nil {
				t.Errorf("Ping: %v", err)
			}
		})
	}

	if _, err := f.Create(ctx, Config{Type: "bogus"}); err == nil {
		t.Error("expected error for invalid type")
	}
}
