package config

import (
	"time"
)

// Config holds runtime settings of the farm-records client.
type Config struct {
	ServerURL           string
	DatabaseDSN         string
	PhotosDir           string
	LogFile             string
	OnlineCheckInterval time.Duration
	RequestTimeout      time.Duration
}

// LoadDefaults populates c with defaults suitable for a local server.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:8080"
	c.DatabaseDSN = "growkeeper.db"
	c.PhotosDir = "photos"
	c.LogFile = "growkeeper.log"
	c.OnlineCheckInterval = 3 * time.Second
	c.RequestTimeout = 30 * time.Second
}

// LoadConfig applies defaults, then the JSON file named by -c/-config, then
// command-line flags. Later sources win.
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJSON(cfg, args); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	return cfg, nil
}
