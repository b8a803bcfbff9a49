package app

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleConfig = `
telegram:
  token: "123:abc"
  run_mode: longpoll

database:
  host: localhost
  port: "5432"
  user: bot
  name: bot
  sslmode: disable

bot:
  channel: "@listings"
  admin_ids:
    - 900
    - 901
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, sampleConfig))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Telegram.Token != "123:abc" {
		t.Errorf("token = %q", cfg.Telegram.Token)
	}
	if cfg.Bot.Channel != "@listings" {
		t.Errorf("channel = %q", cfg.Bot.Channel)
	}
	if !cfg.IsAdminID(900) || !cfg.IsAdminID(901) || cfg.IsAdminID(902) {
		t.Errorf("admin allow-list = %v", cfg.Bot.AdminIDs)
	}
	if cfg.Database.MaxConnections != 4 {
		t.Errorf("default max_connections = %d", cfg.Database.MaxConnections)
	}
	if cfg.CoreConfig() == nil {
		t.Error("CoreConfig must expose the embedded core section")
	}
}

func TestLoadConfigRequiresChannel(t *testing.T) {
	body := `
telegram:
  token: "123:abc"
`
	if _, err := LoadConfig(writeConfig(t, body)); err == nil {
		t.Fatal("expected an error for a missing bot.channel")
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}
