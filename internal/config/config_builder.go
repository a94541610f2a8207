package config

import (
	"fmt"

	"dario.cat/mergo"
)

// Load assembles the client configuration from all sources. Layers are
// merged first-non-zero-wins, so precedence is:
//
//	flags > environment > JSON file > built-in defaults
//
// The JSON file path itself may come from the -c/-config flag or the CONFIG
// environment variable. The merged result is validated before it is
// returned.
func Load() (*ClientConfig, error) {
	layers := make([]*ClientConfig, 0, 4)

	layers = append(layers, parseFlags())

	envCfg := &ClientConfig{}
	if err := parseEnv(envCfg); err != nil {
		return nil, err
	}
	layers = append(layers, envCfg)

	jsonPath := ""
	for _, layer := range layers {
		if layer.JSONFilePath != "" {
			jsonPath = layer.JSONFilePath
			break
		}
	}
	if jsonPath != "" {
		jsonCfg, err := parseJSON(jsonPath)
		if err != nil {
			return nil, err
		}
		layers = append(layers, jsonCfg)
	}

	layers = append(layers, defaults())

	cfg := new(ClientConfig)
	for _, layer := range layers {
		if err := mergo.Merge(cfg, layer); err != nil {
			return nil, fmt.Errorf("error merging configs: %w", err)
		}
	}

	return cfg, cfg.validate()
}
