// Package config loads chatflowd's configuration.
//
// Precedence (highest to lowest): flags > CHATFLOW_ env vars >
// chatflow.yaml|yml > defaults.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// Config file names searched in the working directory.
const (
	FileName    = "chatflow.yaml"
	FileNameAlt = "chatflow.yml"
)

// Config is chatflowd's full configuration.
type Config struct {
	HTTPAddr string `koanf:"http_addr"`
	Agent    string `koanf:"agent"`

	// Store selects the session store: memory, bolt, or redis.
	Store     string `koanf:"store"`
	BoltPath  string `koanf:"bolt_path"`
	GraphPath string `koanf:"graph_path"`

	Redis   Redis   `koanf:"redis"`
	Slack   Slack   `koanf:"slack"`
	MQTT    MQTT    `koanf:"mqtt"`
	Webhook Webhook `koanf:"webhook"`

	// Fallback overrides the default fallback texts.
	Fallback []string `koanf:"fallback"`

	LogLevel string `koanf:"log_level"`

	Triggers []Trigger `koanf:"triggers"`
}

// Redis configures the Redis session store.
type Redis struct {
	Addr     string        `koanf:"addr"`
	Password string        `koanf:"password"`
	DB       int           `koanf:"db"`
	TTL      time.Duration `koanf:"ttl"`
	Prefix   string        `koanf:"prefix"`
}

// Slack configures the Slack adapter.
type Slack struct {
	Enabled  bool   `koanf:"enabled"`
	BotToken string `koanf:"bot_token"`
}

// MQTT configures the MQTT adapter.
type MQTT struct {
	Enabled    bool   `koanf:"enabled"`
	Broker     string `koanf:"broker"`
	ClientID   string `koanf:"client_id"`
	Username   string `koanf:"username"`
	Password   string `koanf:"password"`
	SubTopic   string `koanf:"sub_topic"`
	ReplyTopic string `koanf:"reply_topic"`
	QoS        int    `koanf:"qos"`
}

// Webhook configures the fulfillment webhook client.
type Webhook struct {
	URL     string        `koanf:"url"`
	Token   string        `koanf:"token"`
	Timeout time.Duration `koanf:"timeout"`
}

// Trigger is a scheduled event injection.
type Trigger struct {
	ID       string `koanf:"id"`
	User     string `koanf:"user"`
	Event    string `koanf:"event"`
	Schedule string `koanf:"schedule"`
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"http_addr": ":8080",
		"agent":     "agents/default",
		"store":     "memory",
		"bolt_path": "chatflow.db",
		"log_level": "info",
	}
}

func findFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range []string{FileName, FileNameAlt} {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// Load builds the configuration.  cfgFile may be empty, in which case
// chatflow.yaml|yml is searched in the working directory; flags may be
// nil.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findFile(cfgFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}
	}

	// CHATFLOW_SLACK__BOT_TOKEN -> slack.bot_token
	if err := k.Load(env.Provider("CHATFLOW_", ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, "CHATFLOW_"))
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			key := strings.ReplaceAll(f.Name, "-", "_")
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	switch cfg.Store {
	case "memory", "bolt", "redis":
	default:
		return nil, fmt.Errorf("unknown store %q", cfg.Store)
	}

	if cfg.MQTT.QoS < 0 || cfg.MQTT.QoS > 2 {
		return nil, fmt.Errorf("mqtt qos must be 0, 1, or 2; got %d", cfg.MQTT.QoS)
	}

	return &cfg, nil
}
