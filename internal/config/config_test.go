package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMergesFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "datenight.yaml")
	raw := `
server:
  addr: ":9090"
curation:
  minRows: 7
scheduler:
  timezone: "Not/AZone"
sources:
  - id: only
    name: Only Source
    feedUrl: https://example.org/feed
    enabled: true
`
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv(configPathEnv, path)
	t.Setenv(openAIKeyEnv, "sk-test")
	t.Setenv(httpAddrEnv, "")
	t.Setenv(databaseDSNEnv, "postgres://env/db")

	cfg := Load()

	if cfg.Server.Addr != ":9090" {
		t.Fatalf("expected file addr, got %s", cfg.Server.Addr)
	}
	if cfg.Server.RequestTimeout != 45*time.Second {
		t.Fatalf("default request timeout lost: %v", cfg.Server.RequestTimeout)
	}
	if cfg.Curation.MinRows != 7 || cfg.Curation.Target != 5 {
		t.Fatalf("unexpected curation config %+v", cfg.Curation)
	}
	if cfg.ChatGPT.APIKey != "sk-test" || cfg.ChatGPT.Model != "gpt-4o-mini" {
		t.Fatalf("unexpected chatgpt config %+v", cfg.ChatGPT)
	}
	if cfg.Database.DSN != "postgres://env/db" {
		t.Fatalf("env dsn not applied: %s", cfg.Database.DSN)
	}
	if len(cfg.Sources) != 1 || cfg.Sources[0].ScannerName() != "rss" {
		t.Fatalf("unexpected sources %+v", cfg.Sources)
	}
	if cfg.Scheduler.Location() != time.UTC {
		t.Fatalf("unknown timezone should revert to UTC, got %v", cfg.Scheduler.Location())
	}
}

func TestEnabledSourcesOrdered(t *testing.T) {
	t.Parallel()

	cfg := Config{Sources: []SourceConfig{
		{ID: "c", Enabled: true, Order: 3},
		{ID: "off", Enabled: false, Order: 0},
		{ID: "a", Enabled: true, Order: 1},
		{ID: "b", Enabled: true, Order: 2, BaseURL: "https://b.example"},
	}}

	got := cfg.EnabledSources()
	if len(got) != 3 || got[0].ID != "a" || got[1].ID != "b" || got[2].ID != "c" {
		t.Fatalf("unexpected order %+v", got)
	}
	if got[1].ScannerName() != "html" {
		t.Fatalf("listing source should use html scanner, got %s", got[1].ScannerName())
	}
}
