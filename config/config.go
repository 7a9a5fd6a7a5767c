package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Source is a single feed-list entry: a display name and a feed URL.
type Source struct {
	Name string `toml:"name"`
	URL  string `toml:"url"`
}

// Sources holds the two independently maintained feed lists. The
// primary list is curated; the secondary list supplies fallback URLs
// for sources the primary already names, plus additional sources.
type Sources struct {
	Primary   []Source `toml:"primary"`
	Secondary []Source `toml:"secondary"`
}

// Digest holds the tuning knobs for selection and retention.
type Digest struct {
	MaxPerSource  int `toml:"max_per_source"`
	CooldownDays  int `toml:"cooldown_days"`
	RetentionDays int `toml:"retention_days"`
	FeedLimit     int `toml:"feed_limit"`
}

// Config is the top-level TOML configuration.
type Config struct {
	Sources  Sources  `toml:"sources"`
	Keywords []string `toml:"keywords"`
	Digest   Digest   `toml:"digest"`
}

// DefaultKeywords is the relevance filter applied to sources whose name
// does not itself signal AI coverage.
var DefaultKeywords = []string{
	"ai", "artificial intelligence", "machine learning", "deep learning",
	"neural network", "gpt", "llm", "chatgpt", "openai", "anthropic",
	"claude", "gemini", "transformer", "generative ai", "diffusion",
	"stable diffusion", "midjourney", "copilot", "automation",
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	config.applyDefaults()
	return &config, nil
}

func (c *Config) applyDefaults() {
	if len(c.Keywords) == 0 {
		c.Keywords = DefaultKeywords
	}
	if c.Digest.MaxPerSource == 0 {
		c.Digest.MaxPerSource = 2
	}
	if c.Digest.CooldownDays == 0 {
		c.Digest.CooldownDays = 5
	}
	if c.Digest.RetentionDays == 0 {
		c.Digest.RetentionDays = 30
	}
	if c.Digest.FeedLimit == 0 {
		c.Digest.FeedLimit = 10
	}
}
