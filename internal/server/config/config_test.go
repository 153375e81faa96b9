package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(nil)
	require.NoError(t, err)

	want := &Config{}
	want.LoadDefaults()
	assert.Empty(t, cmp.Diff(want, cfg))
	assert.Equal(t, int64(20<<20), cfg.MaxPhotoSize)
}

func TestLoadConfig_Flags(t *testing.T) {
	cfg, err := LoadConfig([]string{
		"-a", ":9090", "-h", ":6000", "-d", "postgres://x", "-s", "k",
		"-t", "5", "-r=60", "-u", "user", "-p", "pass", "-b", "bucket",
		"-g", "eu-north-1", "-e", "http://minio:9000", "-m", "1024",
		"-v", "ignored",
	})
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.EndpointAddrHTTP)
	assert.Equal(t, ":6000", cfg.EndpointAddrGRPC)
	assert.Equal(t, "postgres://x", cfg.DatabaseDSN)
	assert.Equal(t, "k", cfg.SecretKey)
	assert.Equal(t, 5*time.Minute, cfg.AccessTokenValidityDuration)
	assert.Equal(t, time.Hour, cfg.RefreshTokenValidityDuration)
	assert.Equal(t, "user", cfg.S3RootUser)
	assert.Equal(t, "pass", cfg.S3RootPassword)
	assert.Equal(t, "bucket", cfg.S3Bucket)
	assert.Equal(t, "eu-north-1", cfg.S3Region)
	assert.Equal(t, "http://minio:9000", cfg.S3BaseEndpoint)
	assert.Equal(t, int64(1024), cfg.MaxPhotoSize)
}

func TestLoadConfig_BadFlag(t *testing.T) {
	_, err := LoadConfig([]string{"-m", "big"})
	require.Error(t, err)
}

func TestLoadConfig_JSONThenFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"endpoint_addr_http": ":7000",
		"database_dsn": "postgres://json",
		"access_token_validity_duration": "2m",
		"refresh_token_validity_duration": 3600000000000,
		"s3_bucket": "json-bucket",
		"max_photo_size": 2048,
		"health_check_interval": "1s"
	}`), 0o600))

	cfg, err := LoadConfig([]string{"-c", path, "-b", "flag-bucket"})
	require.NoError(t, err)

	assert.Equal(t, ":7000", cfg.EndpointAddrHTTP)
	assert.Equal(t, ":50051", cfg.EndpointAddrGRPC)
	assert.Equal(t, "postgres://json", cfg.DatabaseDSN)
	assert.Equal(t, 2*time.Minute, cfg.AccessTokenValidityDuration)
	assert.Equal(t, time.Hour, cfg.RefreshTokenValidityDuration)
	assert.Equal(t, "flag-bucket", cfg.S3Bucket)
	assert.Equal(t, int64(2048), cfg.MaxPhotoSize)
	assert.Equal(t, time.Second, cfg.HealthCheckInterval)
}

func TestLoadConfig_BadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"s3_bucket": 1}`), 0o600))

	_, err := LoadConfig([]string{"-config", path})
	require.ErrorContains(t, err, "parse config")
}
