// Package orchestrator drives the configured sources through discovery,
// noise filtering and extraction, and reports results to the console log.
package orchestrator

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/midasf01/smahoblog14/internal/scraping"
	"github.com/midasf01/smahoblog14/pkg/config"
	"github.com/midasf01/smahoblog14/pkg/news"
)

// Orchestrator runs the configured sources. It holds no per-run state; one
// failing source or article never aborts its siblings.
type Orchestrator struct {
	harvester     *scraping.Harvester
	noiseKeywords []string
	newSource     func(id string) (scraping.Source, bool)
}

// New creates an orchestrator over the global source registry.
func New(harvester *scraping.Harvester, noiseKeywords []string) *Orchestrator {
	return &Orchestrator{
		harvester:     harvester,
		noiseKeywords: noiseKeywords,
		newSource:     scraping.NewSource,
	}
}

// Run processes every configured source in order.
func (o *Orchestrator) Run(ctx context.Context, sources []config.SourceConfig) {
	for _, sc := range sources {
		src, ok := o.newSource(sc.ID)
		if !ok {
			log.Error().Str("source", sc.ID).Msg("Unknown source ID")
			continue
		}
		o.runSource(ctx, src, sc.Limit)
		if ctx.Err() != nil {
			return
		}
	}
}

func (o *Orchestrator) runSource(ctx context.Context, src scraping.Source, limit int) {
	logger := log.With().Str("source", src.ID()).Logger()

	logger.Info().Int("limit", limit).Msg("Starting link discovery")
	links, err := src.DiscoverLinks(ctx, limit)
	if err != nil {
		logger.Error().Err(err).Msg("Link discovery failed")
		return
	}

	filtered := o.filterLinks(links)
	logger.Info().
		Int("candidates", len(links)).
		Int("after_noise_filter", len(filtered)).
		Msg("Link discovery completed")

	for _, l := range filtered {
		logger.Info().Str("url", l.URL).Str("title", l.Title).Msg("Article link")
	}

	for _, r := range o.harvester.Harvest(ctx, src, filtered) {
		if r.Err != nil {
			logger.Error().Err(r.Err).Str("url", r.Link.URL).Msg("Article extraction failed")
			continue
		}
		logger.Info().
			Str("title", r.Record.Title).
			Str("url", r.Record.FinalURL).
			Int("images", len(r.Record.Images)).
			Int("content_bytes", len(r.Record.ContentHTML)).
			Msg("Article extracted")
	}
}

// filterLinks drops links whose URL or title carries a noise keyword.
func (o *Orchestrator) filterLinks(links []news.ArticleLink) []news.ArticleLink {
	if len(o.noiseKeywords) == 0 {
		return links
	}
	out := make([]news.ArticleLink, 0, len(links))
	for _, l := range links {
		if ContainsNoiseKeyword(l.URL, o.noiseKeywords) || ContainsNoiseKeyword(l.Title, o.noiseKeywords) {
			log.Info().Str("url", l.URL).Str("title", l.Title).Msg("Skipping noisy link")
			continue
		}
		out = append(out, l)
	}
	return out
}

// ContainsNoiseKeyword reports whether text carries any of the keywords,
// case-insensitively.
func ContainsNoiseKeyword(text string, keywords []string) bool {
	if text == "" {
		return false
	}
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		if kw != "" && strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}
