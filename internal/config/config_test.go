// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Daniil Levchenko

package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8000", cfg.Server.Address)
	assert.Equal(t, 30*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, "simplenote.db", cfg.Storage.DB.DSN)
	assert.Equal(t, 5*time.Minute, cfg.Sync.Interval)
	assert.Equal(t, 20, cfg.Sync.PageSize)
}

func TestLoad_EnvOverridesDefaults(t *testing.T) {
	t.Setenv("SERVER_ADDRESS", "http://example.com:9000")
	t.Setenv("SERVER_REQUEST_TIMEOUT", "10s")
	t.Setenv("STORAGE_DB_DSN", "/tmp/notes.db")
	t.Setenv("SYNC_INTERVAL", "1m")
	t.Setenv("SYNC_PAGE_SIZE", "50")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://example.com:9000", cfg.Server.Address)
	assert.Equal(t, 10*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, "/tmp/notes.db", cfg.Storage.DB.DSN)
	assert.Equal(t, time.Minute, cfg.Sync.Interval)
	assert.Equal(t, 50, cfg.Sync.PageSize)
}

func TestLoad_BadEnvValue(t *testing.T) {
	t.Setenv("SYNC_PAGE_SIZE", "lots")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_JSONFileLayer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	payload := map[string]any{
		"server": map[string]any{
			"address":         "http://json.example:8000",
			"request_timeout": "15s",
		},
		"sync": map[string]any{
			"interval":  "2m",
			"page_size": 10,
		},
	}
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	t.Setenv("CONFIG", path)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://json.example:8000", cfg.Server.Address)
	assert.Equal(t, 15*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, 2*time.Minute, cfg.Sync.Interval)
	assert.Equal(t, 10, cfg.Sync.PageSize)
	// Unset values still fall back to defaults.
	assert.Equal(t, "simplenote.db", cfg.Storage.DB.DSN)
}

func TestLoad_EnvBeatsJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"server":{"address":"http://json.example:8000"}}`), 0o600))

	t.Setenv("CONFIG", path)
	t.Setenv("SERVER_ADDRESS", "http://env.example:8000")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://env.example:8000", cfg.Server.Address)
}

func TestLoad_MissingJSONFile(t *testing.T) {
	t.Setenv("CONFIG", filepath.Join(t.TempDir(), "does-not-exist.json"))

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ClientConfig)
		wantErr error
	}{
		{
			name:    "valid",
			mutate:  func(*ClientConfig) {},
			wantErr: nil,
		},
		{
			name:    "address without scheme",
			mutate:  func(c *ClientConfig) { c.Server.Address = "localhost" },
			wantErr: ErrInvalidServerAddress,
		},
		{
			name:    "zero timeout",
			mutate:  func(c *ClientConfig) { c.Server.RequestTimeout = 0 },
			wantErr: ErrInvalidRequestTimeout,
		},
		{
			name:    "empty dsn",
			mutate:  func(c *ClientConfig) { c.Storage.DB.DSN = "" },
			wantErr: ErrEmptyDSN,
		},
		{
			name:    "non-positive page size",
			mutate:  func(c *ClientConfig) { c.Sync.PageSize = 0 },
			wantErr: ErrInvalidPageSize,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaults()
			tt.mutate(cfg)

			err := cfg.validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestDuration_UnmarshalJSON(t *testing.T) {
	var d Duration
	require.NoError(t, json.Unmarshal([]byte(`"90s"`), &d))
	assert.Equal(t, 90*time.Second, time.Duration(d))

	assert.Error(t, json.Unmarshal([]byte(`"ninety"`), &d))
	assert.Error(t, json.Unmarshal([]byte(`90`), &d))
}
