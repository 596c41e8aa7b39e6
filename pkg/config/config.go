// Package config loads the harvest runtime configuration: the YAML
// noise-keyword file and the environment-driven per-source flags.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// DefaultFetchLimit is used when a source has no explicit fetch limit.
const DefaultFetchLimit = 10

// SourceConfig is the per-source enable/limit pair supplied by the caller.
// The core never reads the environment itself.
type SourceConfig struct {
	ID    string `json:"id"`
	Limit int    `json:"limit"`
}

// LoadNoiseKeywords reads the noise-keyword list from a YAML file. A missing
// file is not an error; harvesting simply runs unfiltered.
func LoadNoiseKeywords(path string) ([]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Warn().Str("path", path).Msg("Noise keyword file not found, running unfiltered")
			return nil, nil
		}
		return nil, err
	}

	var cfg struct {
		NoiseKeywords []string `yaml:"noise_keywords"`
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	log.Info().Str("path", path).Int("keywords", len(cfg.NoiseKeywords)).Msg("Noise keywords loaded")
	return cfg.NoiseKeywords, nil
}

// SourcesFromEnv resolves the enabled sources among the given IDs. For each
// ID it reads ENABLE_<ID> and FETCH_LIMIT_<ID>: a source is skipped unless
// explicitly enabled, a malformed limit skips the source, a non-positive
// limit falls back to the default.
func SourcesFromEnv(ids []string) []SourceConfig {
	var out []SourceConfig
	for _, id := range ids {
		upper := strings.ToUpper(id)
		if !parseEnableFlag(os.Getenv("ENABLE_" + upper)) {
			log.Debug().Str("source", id).Msg("Source disabled")
			continue
		}

		limit := DefaultFetchLimit
		if raw := os.Getenv("FETCH_LIMIT_" + upper); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil {
				log.Error().Str("source", id).Str("value", raw).Msg("Fetch limit is not an integer, skipping source")
				continue
			}
			if n <= 0 {
				log.Warn().Str("source", id).Int("value", n).Int("default", DefaultFetchLimit).Msg("Fetch limit must be positive, using default")
			} else {
				limit = n
			}
		}

		out = append(out, SourceConfig{ID: id, Limit: limit})
		log.Info().Str("source", id).Int("limit", limit).Msg("Source enabled")
	}
	if len(out) == 0 {
		log.Warn().Msg("No sources enabled")
	}
	return out
}

func parseEnableFlag(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "1", "t":
		return true
	}
	return false
}
