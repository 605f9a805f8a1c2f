package appconfig

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("missing file must not error: %v", err)
	}
	if cfg.ListenAddr != ":8080" {
		t.Errorf("listen addr: got %q", cfg.ListenAddr)
	}
	if cfg.Defaults.RiskFreeRate != 0.07 || cfg.Defaults.MarketPremium != 0.06 {
		t.Errorf("rate defaults: got %v / %v", cfg.Defaults.RiskFreeRate, cfg.Defaults.MarketPremium)
	}
	if cfg.Retry.MaxAttempts != 5 || cfg.Retry.BaseDelaySeconds != 3 {
		t.Errorf("retry defaults: got %+v", cfg.Retry)
	}
	if cfg.CacheTTL() != 3*time.Hour {
		t.Errorf("cache ttl: got %v", cfg.CacheTTL())
	}
}

func TestLoadPartialOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.yaml")
	body := "listen_addr: \":9000\"\ndefaults:\n  risk_free_rate: 0.045\n"
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ListenAddr != ":9000" {
		t.Errorf("listen addr: got %q", cfg.ListenAddr)
	}
	if cfg.Defaults.RiskFreeRate != 0.045 {
		t.Errorf("risk free: got %v", cfg.Defaults.RiskFreeRate)
	}
	// Untouched keys keep their defaults.
	if cfg.Defaults.MarketPremium != 0.06 {
		t.Errorf("market premium: got %v", cfg.Defaults.MarketPremium)
	}
}

func TestLoadMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("listen_addr: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("malformed yaml must error")
	}
}
