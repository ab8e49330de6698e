// Package config defines the commitpulse configuration and its loader.
// Settings come from a config file, environment variables, and defaults,
// in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// Config is the top-level configuration struct for commitpulse.
// Field tags use mapstructure for viper unmarshalling.
type Config struct {
	GitHub  GitHubConfig  `mapstructure:"github"`
	Fetch   FetchConfig   `mapstructure:"fetch"`
	Aliases AliasesConfig `mapstructure:"aliases"`
	Report  ReportConfig  `mapstructure:"report"`
}

// GitHubConfig identifies the organization and repositories to analyze.
type GitHubConfig struct {
	Owner string   `mapstructure:"owner"`
	Repos []string `mapstructure:"repos"`
	Token string   `mapstructure:"token"`
	// TokenFile points at a file holding the token, for setups that keep
	// secrets out of config files and the environment.
	TokenFile string `mapstructure:"token_file"`
}

// resolveToken reads the token file when no inline token is set. An inline
// token, including one injected through the environment, always wins.
func (c *Config) resolveToken() error {
	if c.GitHub.Token != "" || c.GitHub.TokenFile == "" {
		return nil
	}

	raw, err := os.ReadFile(c.GitHub.TokenFile)
	if err != nil {
		return fmt.Errorf("read token file: %w", err)
	}

	c.GitHub.Token = strings.TrimSpace(string(raw))

	return nil
}

// FetchConfig holds data collection knobs.
type FetchConfig struct {
	Weeks         int    `mapstructure:"weeks"`
	Workers       int    `mapstructure:"workers"`
	CommitDetails bool   `mapstructure:"commit_details"`
	CacheDir      string `mapstructure:"cache_dir"`
}

// AliasesConfig points at the username alias file.
type AliasesConfig struct {
	Path string `mapstructure:"path"`
}

// ReportConfig holds output settings.
type ReportConfig struct {
	Formats     []string `mapstructure:"formats"`
	OutputDir   string   `mapstructure:"output_dir"`
	TopAuthors  int      `mapstructure:"top_authors"`
	SkipAuthors []string `mapstructure:"skip_authors"`
}

// Sentinel errors for configuration validation.
var (
	// ErrMissingOwner indicates github.owner is empty.
	ErrMissingOwner = errors.New("github.owner must be set")
	// ErrMissingRepos indicates github.repos is empty.
	ErrMissingRepos = errors.New("github.repos must list at least one repository")
	// ErrInvalidWeeks indicates the fetch window is not positive.
	ErrInvalidWeeks = errors.New("fetch.weeks must be positive")
	// ErrInvalidWorkers indicates the workers value is not positive.
	ErrInvalidWorkers = errors.New("fetch.workers must be positive")
	// ErrInvalidTopAuthors indicates the top authors cap is negative.
	ErrInvalidTopAuthors = errors.New("report.top_authors must be non-negative")
	// ErrUnknownFormat indicates report.formats names an unsupported format.
	ErrUnknownFormat = errors.New("report.formats contains an unknown format")
)

// knownFormats mirrors the report package's closed format set. Kept here
// so config validation does not import the renderers.
var knownFormats = map[string]struct{}{
	"markdown":  {},
	"csv":       {},
	"json":      {},
	"table":     {},
	"dashboard": {},
}

// Validate checks Config invariants and returns the first error found.
func (c *Config) Validate() error {
	if c.GitHub.Owner == "" {
		return ErrMissingOwner
	}

	if len(c.GitHub.Repos) == 0 {
		return ErrMissingRepos
	}

	if c.Fetch.Weeks <= 0 {
		return ErrInvalidWeeks
	}

	if c.Fetch.Workers <= 0 {
		return ErrInvalidWorkers
	}

	if c.Report.TopAuthors < 0 {
		return ErrInvalidTopAuthors
	}

	for _, format := range c.Report.Formats {
		_, ok := knownFormats[format]
		if !ok {
			return ErrUnknownFormat
		}
	}

	return nil
}
