package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// configName is the config file name without extension.
const configName = ".bundlefang"

// configType is the config file format.
const configType = "yaml"

// envPrefix is the environment variable prefix for bundlefang settings.
const envPrefix = "BUNDLEFANG"

// envKeySeparator is the nested key separator in environment variable names.
const envKeySeparator = "_"

// LoadConfig loads configuration from file, env vars, and defaults.
// If configPath is non-empty, it is used as the explicit config file path.
// Otherwise, the config file is searched in CWD and $HOME.
// Missing config file is not an error; defaults are used.
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()

	applyDefaults(viperCfg)

	viperCfg.SetConfigType(configType)
	viperCfg.SetEnvPrefix(envPrefix)
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", envKeySeparator))
	viperCfg.AutomaticEnv()

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName(configName)
		viperCfg.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viperCfg.AddConfigPath(home)
		}
	}

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFound) {
			return nil, fmt.Errorf("read config: %w", readErr)
		}
	}

	var cfg Config

	unmarshalErr := viperCfg.Unmarshal(&cfg)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("unmarshal config: %w", unmarshalErr)
	}

	validateErr := cfg.Validate()
	if validateErr != nil {
		return nil, fmt.Errorf("validate config: %w", validateErr)
	}

	return &cfg, nil
}

func applyDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("out_dir", "dist")
	viperCfg.SetDefault("backend", "stub")
	viperCfg.SetDefault("declaration", "compatible")
	viperCfg.SetDefault("cjs_interop", true)
	viperCfg.SetDefault("fail_on_warn", false)
	viperCfg.SetDefault("externals", []string{})

	viperCfg.SetDefault("cache.dir", "")
	viperCfg.SetDefault("cache.memory_entries", 0)

	viperCfg.SetDefault("node10.enabled", true)
	viperCfg.SetDefault("node10.write_to_manifest", false)

	viperCfg.SetDefault("validation.bin", true)
	viperCfg.SetDefault("validation.dependencies", true)
	viperCfg.SetDefault("validation.exports", true)
	viperCfg.SetDefault("validation.files", true)
	viperCfg.SetDefault("validation.main", true)
	viperCfg.SetDefault("validation.module", true)
	viperCfg.SetDefault("validation.name", true)
	viperCfg.SetDefault("validation.types", true)
	viperCfg.SetDefault("validation.types_versions", true)

	viperCfg.SetDefault("chart.path", "")

	viperCfg.SetDefault("observability.otlp_endpoint", "")
	viperCfg.SetDefault("observability.otlp_insecure", false)
	viperCfg.SetDefault("observability.log_level", "info")
	viperCfg.SetDefault("observability.log_json", false)
}
