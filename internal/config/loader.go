package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// configName is the config file name without extension.
const configName = ".commitpulse"

// configType is the config file format.
const configType = "yaml"

// envPrefix is the environment variable prefix for commitpulse settings.
const envPrefix = "COMMITPULSE"

// envKeySeparator is the nested key separator in environment variable names.
const envKeySeparator = "_"

// Default values applied before file and environment overrides.
const (
	DefaultFetchWeeks        = 12
	DefaultFetchWorkers      = 4
	DefaultFetchCacheDir     = ".commitpulse-cache"
	DefaultAliasesPath       = "aliases.json"
	DefaultReportOutputDir   = "reports"
	DefaultReportTopAuthors  = 10
	DefaultFetchCommitDetail = false
)

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

	tokenErr := cfg.resolveToken()
	if tokenErr != nil {
		return nil, tokenErr
	}

	validateErr := cfg.Validate()
	if validateErr != nil {
		return nil, fmt.Errorf("validate config: %w", validateErr)
	}

	return &cfg, nil
}

func applyDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("github.repos", []string{})
	viperCfg.SetDefault("github.token", os.Getenv("GITHUB_TOKEN"))

	viperCfg.SetDefault("fetch.weeks", DefaultFetchWeeks)
	viperCfg.SetDefault("fetch.workers", DefaultFetchWorkers)
	viperCfg.SetDefault("fetch.commit_details", DefaultFetchCommitDetail)
	viperCfg.SetDefault("fetch.cache_dir", DefaultFetchCacheDir)

	viperCfg.SetDefault("aliases.path", DefaultAliasesPath)

	viperCfg.SetDefault("report.formats", []string{"markdown"})
	viperCfg.SetDefault("report.output_dir", DefaultReportOutputDir)
	viperCfg.SetDefault("report.top_authors", DefaultReportTopAuthors)
	viperCfg.SetDefault("report.skip_authors", []string{})
}
