package app

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/onelinediary/server/internal/config"
)

func TestBuildDSN(t *testing.T) {
	dsn, err := BuildDSN(InitRequest{
		DatabaseType:     "postgres",
		DatabaseHost:     "db",
		DatabasePort:     5432,
		DatabaseUser:     "diary",
		DatabasePassword: "pw",
		DatabaseName:     "diary",
	})
	if err != nil {
		t.Fatalf("BuildDSN: %v", err)
	}
	if dsn != "postgres://diary:pw@db:5432/diary?sslmode=disable" {
		t.Fatalf("unexpected dsn %q", dsn)
	}

	dsn, err = BuildDSN(InitRequest{DatabaseType: "sqlite", DatabasePath: "data/diary.db"})
	if err != nil {
		t.Fatalf("BuildDSN sqlite: %v", err)
	}
	if dsn != "file:data/diary.db" {
		t.Fatalf("unexpected sqlite dsn %q", dsn)
	}

	if _, err = BuildDSN(InitRequest{DatabaseType: "oracle"}); err == nil {
		t.Fatalf("expected error for unsupported type")
	}
}

func TestInitialize_WritesLoadableConfig(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	t.Setenv(config.EnvDBConnection, "")
	t.Setenv(config.EnvJWTSecret, "")

	req := InitRequest{
		DatabaseType: "sqlite",
		DatabasePath: filepath.Join(dir, "diary.db"),
		Port:         4000,
		Timezone:     "Asia/Seoul",
	}
	if err := Initialize(configPath, req); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("load generated config: %v", err)
	}
	if cfg.Server.Port != 4000 {
		t.Fatalf("expected port=4000, got %d", cfg.Server.Port)
	}
	if len(cfg.JWT.Secret) != 64 {
		t.Fatalf("expected generated 64-char secret, got %q", cfg.JWT.Secret)
	}

	if err = Initialize(configPath, req); !errors.Is(err, ErrAlreadyInitialized) {
		t.Fatalf("expected ErrAlreadyInitialized, got %v", err)
	}
}
