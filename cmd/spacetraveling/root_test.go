package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eringen/spacetraveling"
)

func resetConfig(t *testing.T) {
	t.Helper()
	t.Chdir(t.TempDir())
	cfgFile = ""
	appConfig = spacetraveling.Config{}
}

func TestInitializeConfigDefaults(t *testing.T) {
	resetConfig(t)
	require.NoError(t, initializeConfig(buildCmd))

	assert.Equal(t, spacetraveling.SourcePrismic, appConfig.Content.Source)
	assert.Equal(t, 2, appConfig.Content.PageSize)
	assert.Equal(t, 30*time.Second, appConfig.Content.Timeout)
	assert.True(t, appConfig.Comments.Enabled)
	assert.NotNil(t, logger)
}

func TestInitializeConfigReadsFileAndEnv(t *testing.T) {
	resetConfig(t)
	require.NoError(t, os.WriteFile("config.yaml", []byte(`
site:
  name: "Space"
content:
  page_size: 5
  timeout: 10s
build:
  output_dir: "dist"
`), 0o644))
	require.NoError(t, os.WriteFile(".env", []byte("PRISMIC_API_ENDPOINT=https://repo.cdn.prismic.io/api/v2\n"), 0o644))
	t.Setenv("PRISMIC_API_ENDPOINT", "")
	t.Setenv("SPACETRAVELING_BUILD_CONCURRENCY", "9")

	require.NoError(t, initializeConfig(buildCmd))

	assert.Equal(t, "Space", appConfig.Site.Name)
	assert.Equal(t, 5, appConfig.Content.PageSize)
	assert.Equal(t, 10*time.Second, appConfig.Content.Timeout)
	assert.Equal(t, "dist", appConfig.Build.OutputDir)
	assert.Equal(t, 9, appConfig.Build.Concurrency)
	assert.Equal(t, "https://repo.cdn.prismic.io/api/v2", appConfig.Content.Endpoint)
}

func TestInitializeConfigMissingExplicitFile(t *testing.T) {
	resetConfig(t)
	cfgFile = filepath.Join(t.TempDir(), "nope.yaml")
	assert.Error(t, initializeConfig(buildCmd))
}
