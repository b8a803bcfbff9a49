package app

import (
	"fmt"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	coreconfig "github.com/m3rciful/estatebot/core/config"
	coredatabase "github.com/m3rciful/estatebot/core/database"
)

// BotConfig holds the listing-bot specific settings.
type BotConfig struct {
	// Channel is the publication target: "@username" or a numeric chat id.
	Channel string `yaml:"channel" envconfig:"PUBLISH_CHANNEL"`
	// AdminIDs is the static allow-list consulted at registration time.
	AdminIDs []int64 `yaml:"admin_ids" envconfig:"ADMIN_IDS"`
}

// Config aggregates core transport/logging settings with database and
// bot-specific sections.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Database coredatabase.Config `yaml:"database"`
	Bot      BotConfig           `yaml:"bot"`
}

// CoreConfig exposes the embedded core configuration to the cmd runner.
func (c *Config) CoreConfig() *coreconfig.Config {
	return &c.Config
}

// IsAdminID reports whether id is on the static admin allow-list.
func (c *Config) IsAdminID(id int64) bool {
	for _, admin := range c.Bot.AdminIDs {
		if admin == id {
			return true
		}
	}
	return false
}

// LoadConfig reads configuration from a YAML file and environment variables.
func LoadConfig(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := coreconfig.Normalize(&cfg.Config); err != nil {
		return nil, err
	}
	if strings.TrimSpace(cfg.Bot.Channel) == "" {
		return nil, fmt.Errorf("bot.channel is required")
	}
	if cfg.Database.MaxConnections <= 0 {
		cfg.Database.MaxConnections = 4
	}
	return &cfg, nil
}
