package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "commitpulse.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

const minimalConfig = `
github:
  owner: acme
  repos:
    - api
`

func TestLoadConfig_AppliesDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := LoadConfig(writeConfig(t, minimalConfig))

	require.NoError(t, err)
	assert.Equal(t, "acme", cfg.GitHub.Owner)
	assert.Equal(t, DefaultFetchWeeks, cfg.Fetch.Weeks)
	assert.Equal(t, DefaultFetchWorkers, cfg.Fetch.Workers)
	assert.Equal(t, DefaultAliasesPath, cfg.Aliases.Path)
	assert.Equal(t, []string{"markdown"}, cfg.Report.Formats)
	assert.Equal(t, DefaultReportTopAuthors, cfg.Report.TopAuthors)
}

func TestLoadConfig_FileOverridesDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := LoadConfig(writeConfig(t, `
github:
  owner: acme
  repos: [api, web]
fetch:
  weeks: 4
  workers: 8
  commit_details: true
report:
  formats: [csv, json]
  skip_authors: [dependabot]
`))

	require.NoError(t, err)
	assert.Equal(t, []string{"api", "web"}, cfg.GitHub.Repos)
	assert.Equal(t, 4, cfg.Fetch.Weeks)
	assert.Equal(t, 8, cfg.Fetch.Workers)
	assert.True(t, cfg.Fetch.CommitDetails)
	assert.Equal(t, []string{"csv", "json"}, cfg.Report.Formats)
	assert.Equal(t, []string{"dependabot"}, cfg.Report.SkipAuthors)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("COMMITPULSE_GITHUB_TOKEN", "env-token")

	cfg, err := LoadConfig(writeConfig(t, minimalConfig))

	require.NoError(t, err)
	assert.Equal(t, "env-token", cfg.GitHub.Token)
}

func TestLoadConfig_TokenFile(t *testing.T) {
	// Clear the ambient token so the file is the only source.
	t.Setenv("GITHUB_TOKEN", "")

	tokenPath := filepath.Join(t.TempDir(), "token")
	require.NoError(t, os.WriteFile(tokenPath, []byte("file-token\n"), 0o600))

	cfg, err := LoadConfig(writeConfig(t, minimalConfig+`
  token_file: `+tokenPath+"\n"))

	require.NoError(t, err)
	assert.Equal(t, "file-token", cfg.GitHub.Token)
}

func TestLoadConfig_TokenFileUnreadable(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "")

	_, err := LoadConfig(writeConfig(t, minimalConfig+`
  token_file: `+filepath.Join(t.TempDir(), "absent")+"\n"))

	require.Error(t, err)
}

func TestLoadConfig_MissingFileFailsValidation(t *testing.T) {
	t.Parallel()

	// Without a config file there is no owner, which validation rejects.
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))

	require.Error(t, err)
}

func TestValidate_Errors(t *testing.T) {
	t.Parallel()

	base := func() Config {
		return Config{
			GitHub: GitHubConfig{Owner: "acme", Repos: []string{"api"}},
			Fetch:  FetchConfig{Weeks: 12, Workers: 4},
		}
	}

	missingOwner := base()
	missingOwner.GitHub.Owner = ""
	assert.ErrorIs(t, missingOwner.Validate(), ErrMissingOwner)

	missingRepos := base()
	missingRepos.GitHub.Repos = nil
	assert.ErrorIs(t, missingRepos.Validate(), ErrMissingRepos)

	badWeeks := base()
	badWeeks.Fetch.Weeks = 0
	assert.ErrorIs(t, badWeeks.Validate(), ErrInvalidWeeks)

	badWorkers := base()
	badWorkers.Fetch.Workers = -1
	assert.ErrorIs(t, badWorkers.Validate(), ErrInvalidWorkers)

	badTop := base()
	badTop.Report.TopAuthors = -1
	assert.ErrorIs(t, badTop.Validate(), ErrInvalidTopAuthors)

	badFormat := base()
	badFormat.Report.Formats = []string{"pdf"}
	assert.ErrorIs(t, badFormat.Validate(), ErrUnknownFormat)

	valid := base()
	require.NoError(t, valid.Validate())
}
