package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadNoiseKeywords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "noise_keywords:\n  - 直播\n  - 广告\n  - promo\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	keywords, err := LoadNoiseKeywords(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"直播", "广告", "promo"}, keywords)
}

func TestLoadNoiseKeywordsMissingFile(t *testing.T) {
	keywords, err := LoadNoiseKeywords(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Nil(t, keywords)
}

func TestLoadNoiseKeywordsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("noise_keywords: [unterminated"), 0o644))

	_, err := LoadNoiseKeywords(path)
	assert.Error(t, err)
}

func TestSourcesFromEnvEnabledWithLimit(t *testing.T) {
	t.Setenv("ENABLE_ZOL", "true")
	t.Setenv("FETCH_LIMIT_ZOL", "7")

	sources := SourcesFromEnv([]string{"zol"})
	require.Len(t, sources, 1)
	assert.Equal(t, SourceConfig{ID: "zol", Limit: 7}, sources[0])
}

func TestSourcesFromEnvDefaultLimit(t *testing.T) {
	t.Setenv("ENABLE_ZOL", "1")
	t.Setenv("FETCH_LIMIT_ZOL", "")

	sources := SourcesFromEnv([]string{"zol"})
	require.Len(t, sources, 1)
	assert.Equal(t, DefaultFetchLimit, sources[0].Limit)
}

func TestSourcesFromEnvNonPositiveLimitUsesDefault(t *testing.T) {
	t.Setenv("ENABLE_ZOL", "t")
	t.Setenv("FETCH_LIMIT_ZOL", "-3")

	sources := SourcesFromEnv([]string{"zol"})
	require.Len(t, sources, 1)
	assert.Equal(t, DefaultFetchLimit, sources[0].Limit)
}

func TestSourcesFromEnvMalformedLimitSkipsSource(t *testing.T) {
	t.Setenv("ENABLE_ZOL", "true")
	t.Setenv("FETCH_LIMIT_ZOL", "ten")

	assert.Empty(t, SourcesFromEnv([]string{"zol"}))
}

func TestSourcesFromEnvDisabledByDefault(t *testing.T) {
	t.Setenv("ENABLE_ZOL", "")
	t.Setenv("FETCH_LIMIT_ZOL", "")

	assert.Empty(t, SourcesFromEnv([]string{"zol"}))
}

func TestSourcesFromEnvMixedSources(t *testing.T) {
	t.Setenv("ENABLE_ZOL", "true")
	t.Setenv("FETCH_LIMIT_ZOL", "3")
	t.Setenv("ENABLE_OTHER", "false")

	sources := SourcesFromEnv([]string{"other", "zol"})
	require.Len(t, sources, 1)
	assert.Equal(t, "zol", sources[0].ID)
}

func TestParseEnableFlag(t *testing.T) {
	for _, v := range []string{"true", "TRUE", "1", "t", " True "} {
		assert.True(t, parseEnableFlag(v), "%q should enable", v)
	}
	for _, v := range []string{"", "0", "false", "yes", "on"} {
		assert.False(t, parseEnableFlag(v), "%q should not enable", v)
	}
}
