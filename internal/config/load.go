package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

const (
	configFileEnvVar  = "CONFIG_FILE"
	defaultConfigFile = "./config.yaml"
)

// Load reads the config file named by CONFIG_FILE (./config.yaml by default)
// and overlays any environment variables that are set. A missing file is not
// an error: the placeholders are caught later by ValidateLogin/ValidateDispatch.
func Load() (Config, error) {
	settings, err := LoadFile(GetEnv(configFileEnvVar, defaultConfigFile))
	if err != nil {
		return nil, err
	}
	if err := env.Parse(&settings); err != nil {
		return nil, fmt.Errorf("[config Load] parse env: %w", err)
	}
	return New(settings), nil
}

// LoadFile parses a YAML settings file. A file that does not exist yields
// zero settings.
func LoadFile(path string) (Settings, error) {
	var settings Settings
	content, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return settings, nil
	}
	if err != nil {
		return settings, fmt.Errorf("[config LoadFile] read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(content, &settings); err != nil {
		return settings, fmt.Errorf("[config LoadFile] parse %s: %w", path, err)
	}
	return settings, nil
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}

func valueOr(value, defaultValue string) string {
	if value == "" {
		return defaultValue
	}
	return value
}
