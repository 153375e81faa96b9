package config

import (
	"flag"
	"time"

	"github.com/dmitrijs2005/growkeeper/internal/flagx"
)

// parseFlags overlays cfg with the client's command-line flags:
//
//	-a string   sync server base URL
//	-d string   local database path
//	-p string   directory holding photo files
//	-l string   log file path
//	-i int      online check interval (seconds)
//	-t int      request timeout (seconds)
func parseFlags(cfg *Config, args []string) error {
	fs := flag.NewFlagSet("client", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerURL, "a", cfg.ServerURL, "sync server base URL")
	fs.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "local database path")
	fs.StringVar(&cfg.PhotosDir, "p", cfg.PhotosDir, "photos directory")
	fs.StringVar(&cfg.LogFile, "l", cfg.LogFile, "log file")
	onlineCheck := fs.Int("i", int(cfg.OnlineCheckInterval.Seconds()), "online check interval (in seconds)")
	timeout := fs.Int("t", int(cfg.RequestTimeout.Seconds()), "request timeout (in seconds)")

	if err := flagx.Parse(fs, args); err != nil {
		return err
	}

	cfg.OnlineCheckInterval = time.Duration(*onlineCheck) * time.Second
	cfg.RequestTimeout = time.Duration(*timeout) * time.Second
	return nil
}
