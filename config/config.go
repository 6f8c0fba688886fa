package config

import (
	_ "embed"
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed channels.toml
var channelsToml []byte

const (
	// RecencyWindow is how far back the aggregated feed reaches
	RecencyWindow = 96 * time.Hour

	// PreviewTimeout bounds a single link preview fetch
	PreviewTimeout = 5 * time.Second

	// CastRevalidate is how long a single cast lookup may be served from cache
	CastRevalidate = 60 * time.Second
)

// FarcasterEpoch is the zero point of protocol timestamps
var FarcasterEpoch = time.Date(2021, time.January, 1, 0, 0, 0, 0, time.UTC)

// Channel pairs a channel locator with the tag shown next to its casts
type Channel struct {
	URL string `toml:"url"`
	Tag string `toml:"tag"`
}

// Config is the compiled-in feed configuration
type Config struct {
	HubURL   string    `toml:"hub_url"`
	Channels []Channel `toml:"channels"`
}

// Load parses the embedded channel configuration
func Load() (*Config, error) {
	return parse(channelsToml)
}

func parse(data []byte) (*Config, error) {
	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("error parsing channel config: %w", err)
	}

	if config.HubURL == "" {
		return nil, fmt.Errorf("channel config is missing hub_url")
	}

	for i, channel := range config.Channels {
		if channel.URL == "" {
			return nil, fmt.Errorf("channel %d has no url", i)
		}
		if channel.Tag == "" {
			return nil, fmt.Errorf("channel %s has no tag", channel.URL)
		}
	}

	return &config, nil
}
