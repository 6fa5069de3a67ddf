// Package config handles discoclaw configuration: a YAML file with
// environment-variable expansion, .env loading via godotenv, and env-var
// overrides for secrets. The process fails fast at startup when required
// values are missing.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the full discoclaw configuration.
type Config struct {
	Logging LoggingConfig `yaml:"logging"`
	Discord DiscordConfig `yaml:"discord"`
	Ollama  OllamaConfig  `yaml:"ollama"`
}

// LoggingConfig controls the slog handler.
type LoggingConfig struct {
	// Level is "debug", "info", "warn", or "error".
	Level string `yaml:"level"`

	// Format is "text" or "json".
	Format string `yaml:"format"`
}

// DiscordConfig holds the Discord side of the relay.
type DiscordConfig struct {
	// Token is the bot token. Usually supplied via DISCORD_TOKEN.
	Token string `yaml:"token"`

	// GuildID is the guild where slash commands are registered.
	GuildID string `yaml:"guild_id"`

	// HubChannelID is the channel whose messages spawn reply threads.
	HubChannelID string `yaml:"hub_channel_id"`

	// PeerUserID is a user whose DMs always get a reply.
	PeerUserID string `yaml:"peer_user_id"`

	// Activity is the custom status shown while connected.
	Activity string `yaml:"activity"`
}

// OllamaConfig holds the generation backend settings.
type OllamaConfig struct {
	// URL is the Ollama server address. Usually supplied via OLLAMA_URL.
	URL string `yaml:"url"`

	// Port is the Ollama server port. Usually supplied via OLLAMA_PORT.
	Port int `yaml:"port"`

	// ChatModel generates conversational replies.
	ChatModel string `yaml:"chat_model"`

	// SummaryModel generates thread titles.
	SummaryModel string `yaml:"summary_model"`

	// VisionModel describes image attachments.
	VisionModel string `yaml:"vision_model"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Discord: DiscordConfig{
			Activity: "eating waffles",
		},
		Ollama: OllamaConfig{
			Port:         11434,
			ChatModel:    "taco",
			SummaryModel: "summary",
			VisionModel:  "image",
		},
	}
}

// envVarPattern matches ${VAR} and ${VAR:-default} in config values.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-([^}]*))?\}`)

// Load reads the configuration. A missing path is fine: the config then comes
// entirely from defaults and environment variables. .env files are loaded
// first so the expansion below sees them.
func Load(path string) (*Config, error) {
	// godotenv does not overwrite variables already set in the environment.
	_ = godotenv.Load()

	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		expanded := expandEnvVars(string(data))
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, fmt.Errorf("parsing config YAML: %w", err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// expandEnvVars substitutes ${VAR} and ${VAR:-default} references.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		if val, ok := os.LookupEnv(groups[1]); ok {
			return val
		}
		return groups[2]
	})
}

// applyEnvOverrides lets the canonical environment variables win over the
// config file, so secrets never need to live in YAML.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("DISCORD_TOKEN"); v != "" {
		cfg.Discord.Token = v
	}
	if v := os.Getenv("OLLAMA_URL"); v != "" {
		cfg.Ollama.URL = v
	}
	if v := os.Getenv("OLLAMA_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("OLLAMA_PORT must be an integer, got %q", v)
		}
		cfg.Ollama.Port = port
	}
	return nil
}

// Validate checks that everything required to start is present.
func (c *Config) Validate() error {
	if c.Discord.Token == "" {
		return fmt.Errorf("discord token is required (set DISCORD_TOKEN or discord.token)")
	}
	if c.Ollama.URL == "" {
		return fmt.Errorf("ollama URL is required (set OLLAMA_URL or ollama.url)")
	}
	if c.Ollama.Port <= 0 || c.Ollama.Port > 65535 {
		return fmt.Errorf("ollama port %d is out of range", c.Ollama.Port)
	}
	if c.Ollama.ChatModel == "" {
		return fmt.Errorf("ollama chat model is required")
	}
	return nil
}
