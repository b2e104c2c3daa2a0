package app

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/clcruickshank2/datenight/internal/config"
)

func TestScannerRegistryLogsNames(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	sources := []config.SourceConfig{
		{ID: "eater", FeedURL: "https://denver.eater.com/rss/index.xml", Enabled: true},
		{ID: "westword", BaseURL: "https://www.westword.com", Enabled: true},
		{ID: "legacy", Scanner: "atom", Enabled: true},
	}

	registry := scannerRegistry(sources, logger)
	if got := strings.Join(registry.Names(), ","); got != "html,rss" {
		t.Fatalf("names = %s", got)
	}

	out := buf.String()
	if !strings.Contains(out, "scanners registered") || !strings.Contains(out, "names=\"[html rss]\"") {
		t.Fatalf("registration not logged: %q", out)
	}
	if !strings.Contains(out, "source=legacy") || strings.Contains(out, "source=eater") || strings.Contains(out, "source=westword") {
		t.Fatalf("unexpected warnings: %q", out)
	}
}
