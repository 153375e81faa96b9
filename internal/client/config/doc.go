// Package config loads runtime configuration for the farm-records client.
//
// Sources, in increasing precedence:
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected with -c or -config.
//  3. Command-line flags -a -d -p -l -i -t.
//
// Example JSON:
//
//	{
//	  "server_url": "https://farm.example.org",
//	  "database_dsn": "/var/lib/growkeeper/farm.db",
//	  "photos_dir": "/var/lib/growkeeper/photos",
//	  "online_check_interval": "5s",
//	  "request_timeout": "30s"
//	}
//
// The sync watermark and session tokens are not configuration; they live in
// the local database (see package state).
package config
