package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const fullYAML = `
database:
  driver: mysql
  host: 10.0.0.5
  port: 3307
  database: palabra_prod

leech:
  threshold: 6
  action: tag_only

undo:
  capacity: 25

server:
  port: 9090

jobs:
  resume_expired: "0 4 * * *"
  unbury: "15 * * * *"
`

func TestParse_FullConfig(t *testing.T) {
	cfg, err := Parse([]byte(fullYAML))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if cfg.Database.Driver != "mysql" {
		t.Errorf("Database.Driver = %q, want mysql", cfg.Database.Driver)
	}
	if cfg.Database.Host != "10.0.0.5" || cfg.Database.Port != 3307 {
		t.Errorf("Database host:port = %s:%d, want 10.0.0.5:3307", cfg.Database.Host, cfg.Database.Port)
	}
	if cfg.Leech.Threshold != 6 {
		t.Errorf("Leech.Threshold = %d, want 6", cfg.Leech.Threshold)
	}
	if cfg.Leech.Action != "tag_only" {
		t.Errorf("Leech.Action = %q, want tag_only", cfg.Leech.Action)
	}
	if cfg.Undo.Capacity != 25 {
		t.Errorf("Undo.Capacity = %d, want 25", cfg.Undo.Capacity)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Jobs.ResumeExpired != "0 4 * * *" {
		t.Errorf("Jobs.ResumeExpired = %q, want 0 4 * * *", cfg.Jobs.ResumeExpired)
	}
	if cfg.Jobs.Unbury != "15 * * * *" {
		t.Errorf("Jobs.Unbury = %q, want 15 * * * *", cfg.Jobs.Unbury)
	}
}

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte("{}"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if cfg.Database.Driver != "sqlite" {
		t.Errorf("Database.Driver = %q, want sqlite", cfg.Database.Driver)
	}
	if cfg.Database.Path != "palabra.db" {
		t.Errorf("Database.Path = %q, want palabra.db", cfg.Database.Path)
	}
	if cfg.Leech.Threshold != 8 {
		t.Errorf("Leech.Threshold = %d, want 8", cfg.Leech.Threshold)
	}
	if cfg.Leech.Action != "pause" {
		t.Errorf("Leech.Action = %q, want pause", cfg.Leech.Action)
	}
	if cfg.Undo.Capacity != 50 {
		t.Errorf("Undo.Capacity = %d, want 50", cfg.Undo.Capacity)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Jobs.ResumeExpired == "" {
		t.Error("Jobs.ResumeExpired default missing")
	}
	if cfg.Jobs.Unbury == "" {
		t.Error("Jobs.Unbury default missing")
	}
}

func TestParse_InvalidDriver(t *testing.T) {
	_, err := Parse([]byte("database:\n  driver: postgres\n"))
	if err == nil {
		t.Fatal("expected validation error for unknown driver")
	}
	if !strings.Contains(err.Error(), "database.driver") {
		t.Errorf("error %q should name database.driver", err)
	}
}

func TestParse_InvalidLeechAction(t *testing.T) {
	_, err := Parse([]byte("leech:\n  action: delete\n"))
	if err == nil {
		t.Fatal("expected validation error for unknown leech action")
	}
	if !strings.Contains(err.Error(), "leech.action") {
		t.Errorf("error %q should name leech.action", err)
	}
}

func TestParse_NegativeThreshold(t *testing.T) {
	_, err := Parse([]byte("leech:\n  threshold: -3\n"))
	if err == nil {
		t.Fatal("expected validation error for negative threshold")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "palabra.yaml")
	if err := os.WriteFile(path, []byte(fullYAML), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Database.Database != "palabra_prod" {
		t.Errorf("Database.Database = %q, want palabra_prod", cfg.Database.Database)
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Leech.Threshold != 8 || cfg.Undo.Capacity != 50 {
		t.Errorf("Default() = threshold %d capacity %d, want 8 and 50",
			cfg.Leech.Threshold, cfg.Undo.Capacity)
	}
}
