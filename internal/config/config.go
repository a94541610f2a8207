// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Daniil Levchenko

package config

import (
	"net/url"
	"time"
)

// ClientConfig is the top-level configuration for the simplenote client.
// It is populated by merging values from command-line flags, environment
// variables, and an optional JSON file, in that order of precedence.
//
// Struct tags:
//   - envPrefix — prefix applied to all nested env tag lookups (caarlos0/env).
//   - env       — direct environment variable name for scalar fields.
type ClientConfig struct {
	// Server holds the remote API address and request timeout.
	Server Server `envPrefix:"SERVER_"`

	// Storage holds the local database settings.
	Storage Storage `envPrefix:"STORAGE_"`

	// Sync holds background synchronisation settings.
	Sync Sync `envPrefix:"SYNC_"`

	// JSONFilePath is the optional path to a JSON configuration file.
	// Populated via the CONFIG environment variable or the -c / -config flag.
	JSONFilePath string `env:"CONFIG"`
}

// Server holds network settings for the outbound API client.
type Server struct {
	// Address is the base URL of the SimpleNote API
	// (e.g. "http://localhost:8000").
	// Env: SERVER_ADDRESS
	Address string `env:"ADDRESS"`

	// RequestTimeout bounds every remote call, connect and read included
	// (e.g. "30s"). A timeout is treated like any other network failure.
	// Env: SERVER_REQUEST_TIMEOUT
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"`
}

// Storage holds local persistence settings.
type Storage struct {
	// DB holds the SQLite database settings.
	DB DB `envPrefix:"DB_"`
}

// DB holds connection settings for the local SQLite database.
type DB struct {
	// DSN is the SQLite file path (e.g. "simplenote.db").
	// Env: STORAGE_DB_DSN
	DSN string `env:"DSN"`
}

// Sync holds background synchronisation settings.
type Sync struct {
	// Interval defines how often the background sync job runs (e.g. "5m").
	// Env: SYNC_INTERVAL
	Interval time.Duration `env:"INTERVAL"`

	// PageSize is the page size requested from the paginated note list
	// endpoint during the pull phase.
	// Env: SYNC_PAGE_SIZE
	PageSize int `env:"PAGE_SIZE"`
}

// defaults returns the baseline configuration merged in last, so that any
// value supplied by flags, env, or JSON wins over it.
func defaults() *ClientConfig {
	return &ClientConfig{
		Server: Server{
			Address:        "http://localhost:8000",
			RequestTimeout: 30 * time.Second,
		},
		Storage: Storage{
			DB: DB{DSN: "simplenote.db"},
		},
		Sync: Sync{
			Interval: 5 * time.Minute,
			PageSize: 20,
		},
	}
}

func (c *ClientConfig) validate() error {
	u, err := url.Parse(c.Server.Address)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ErrInvalidServerAddress
	}
	if c.Server.RequestTimeout <= 0 {
		return ErrInvalidRequestTimeout
	}
	if c.Storage.DB.DSN == "" {
		return ErrEmptyDSN
	}
	if c.Sync.PageSize <= 0 {
		return ErrInvalidPageSize
	}

	return nil
}
