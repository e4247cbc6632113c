package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
chat:
  token: "123:abc"
  admin_addr: "559285231368"
payment:
  access_token: "TEST-token"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Chat.RunMode != RunModeLongpoll {
		t.Errorf("run mode = %q, want longpoll", cfg.Chat.RunMode)
	}
	if cfg.Store.Driver != StoreDriverFile {
		t.Errorf("store driver = %q, want file", cfg.Store.Driver)
	}
	if cfg.Store.CatalogPath != "contas.json" || cfg.Store.LedgerPath != "pagamentos.json" {
		t.Errorf("store paths = %q/%q", cfg.Store.CatalogPath, cfg.Store.LedgerPath)
	}
	if cfg.Payment.QRSize != 400 {
		t.Errorf("qr size = %d, want 400", cfg.Payment.QRSize)
	}
	if cfg.Send.MinIntervalMS != 500 {
		t.Errorf("min interval = %d, want 500", cfg.Send.MinIntervalMS)
	}
}

func TestNormalizeRejectsMissingAdmin(t *testing.T) {
	cfg := &Config{}
	cfg.Chat.Token = "123:abc"
	cfg.Payment.AccessToken = "TEST-token"
	if err := Normalize(cfg); err == nil {
		t.Fatal("expected error for missing admin_addr")
	}
}

func TestNormalizeRejectsUnknownDriver(t *testing.T) {
	cfg := &Config{}
	cfg.Chat.Token = "123:abc"
	cfg.Chat.AdminAddr = "1"
	cfg.Payment.AccessToken = "t"
	cfg.Store.Driver = "redis"
	if err := Normalize(cfg); err == nil {
		t.Fatal("expected error for unknown store driver")
	}
}

func TestNormalizeWebhookRequiresURL(t *testing.T) {
	cfg := &Config{}
	cfg.Chat.Token = "123:abc"
	cfg.Chat.AdminAddr = "1"
	cfg.Chat.RunMode = "webhook"
	cfg.Payment.AccessToken = "t"
	if err := Normalize(cfg); err == nil {
		t.Fatal("expected error for webhook mode without url")
	}
}
