package config

import (
	"flag"
	"time"
)

var flagsParsed bool

// parseFlags reads command-line flags into a sparse [ClientConfig]. Flags
// carry the highest precedence when the configuration layers are merged.
// A second call returns an empty config so tests can invoke Load repeatedly.
func parseFlags() *ClientConfig {
	if flagsParsed || flag.Parsed() {
		return &ClientConfig{}
	}
	flagsParsed = true

	var (
		serverAddress  string
		requestTimeout time.Duration
		databaseDSN    string
		syncInterval   time.Duration
		jsonConfigPath string
	)

	flag.StringVar(&serverAddress, "a", "", "SimpleNote API base URL")
	flag.DurationVar(&requestTimeout, "t", 0, "Request timeout")
	flag.StringVar(&databaseDSN, "d", "", "Local database path")
	flag.DurationVar(&syncInterval, "sync-interval", 0, "Background sync interval")
	flag.StringVar(&jsonConfigPath, "c", "", "JSON config file path")
	flag.StringVar(&jsonConfigPath, "config", "", "JSON config file path (alias)")
	flag.Parse()

	return &ClientConfig{
		Server: Server{
			Address:        serverAddress,
			RequestTimeout: requestTimeout,
		},
		Storage: Storage{
			DB: DB{DSN: databaseDSN},
		},
		Sync: Sync{
			Interval: syncInterval,
		},
		JSONFilePath: jsonConfigPath,
	}
}
