// Package main provides the console harvest runner: it iterates the enabled
// sources, discovers article links, extracts records and reports them to the
// log.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/midasf01/smahoblog14/internal/orchestrator"
	"github.com/midasf01/smahoblog14/internal/scraping"
	"github.com/midasf01/smahoblog14/pkg/config"
	"github.com/midasf01/smahoblog14/pkg/logging"
)

func main() {
	logConfig := logging.DefaultLogConfig()
	logConfig.Level = getEnv("LOG_LEVEL", "info")
	if err := logging.SetupLogger(logConfig); err != nil {
		log.Fatal().Err(err).Msg("Failed to set up logger")
	}

	log.Info().Msg("Harvest run starting")

	noiseKeywords, err := config.LoadNoiseKeywords(getEnv("CONFIG_PATH", "config.yaml"))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load noise keywords")
	}

	sources := config.SourcesFromEnv(scraping.SourceIDs())
	if len(sources) == 0 {
		log.Info().Msg("Nothing to do")
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	o := orchestrator.New(scraping.NewHarvester(nil), noiseKeywords)
	o.Run(ctx, sources)

	log.Info().Msg("Harvest run finished")
}

// getEnv retrieves an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
