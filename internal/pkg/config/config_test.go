package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const minimalConfig = `
leagues:
  - name: khl
    odds_url: https://example.test/khl
    results_url: https://example.test/khl/results
`

func TestLoad_AppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Browser.PageLoadTimeout != 10*time.Second {
		t.Errorf("PageLoadTimeout = %v", cfg.Browser.PageLoadTimeout)
	}
	if cfg.Browser.ContentWait != 3*time.Second {
		t.Errorf("ContentWait = %v", cfg.Browser.ContentWait)
	}
	if cfg.Browser.UserAgent == "" {
		t.Error("UserAgent default missing")
	}
	if cfg.Server.Port != 8000 {
		t.Errorf("Port = %d", cfg.Server.Port)
	}

	l := cfg.Leagues[0]
	if l.OddsFile != "khl_odds.csv" || l.ResultsFile != "khl_results_final.csv" {
		t.Errorf("ledger file defaults = %q / %q", l.OddsFile, l.ResultsFile)
	}
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"no leagues", `logging: {level: info}`},
		{"missing urls", `
leagues:
  - name: khl
`},
		{"duplicate league", `
leagues:
  - name: khl
    odds_url: https://example.test/a
    results_url: https://example.test/b
  - name: khl
    odds_url: https://example.test/c
    results_url: https://example.test/d
`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tt.content)); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestLeague(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if _, err := cfg.League("khl"); err != nil {
		t.Errorf("League(khl): %v", err)
	}
	if _, err := cfg.League("vhl"); err == nil {
		t.Error("League(vhl) should fail")
	}
}
