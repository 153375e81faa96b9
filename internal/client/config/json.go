package config

import (
	"github.com/dmitrijs2005/growkeeper/internal/flagx"
	"github.com/dmitrijs2005/growkeeper/internal/timex"
)

// JsonConfig is the on-disk form of Config. Durations accept "3s" or
// integer nanoseconds. Empty fields keep the earlier value.
type JsonConfig struct {
	ServerURL           string         `json:"server_url"`
	DatabaseDSN         string         `json:"database_dsn"`
	PhotosDir           string         `json:"photos_dir"`
	LogFile             string         `json:"log_file"`
	OnlineCheckInterval timex.Duration `json:"online_check_interval"`
	RequestTimeout      timex.Duration `json:"request_timeout"`
}

func parseJSON(cfg *Config, args []string) error {
	path := flagx.ConfigPath(args)
	if path == "" {
		return nil
	}

	var jc JsonConfig
	if err := flagx.ReadJSON(path, &jc); err != nil {
		return err
	}

	setString(&cfg.ServerURL, jc.ServerURL)
	setString(&cfg.DatabaseDSN, jc.DatabaseDSN)
	setString(&cfg.PhotosDir, jc.PhotosDir)
	setString(&cfg.LogFile, jc.LogFile)
	if jc.OnlineCheckInterval.Duration > 0 {
		cfg.OnlineCheckInterval = jc.OnlineCheckInterval.Duration
	}
	if jc.RequestTimeout.Duration > 0 {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
