package scraping

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/midasf01/smahoblog14/pkg/news"
)

// HarvesterConfig configures concurrent article extraction.
type HarvesterConfig struct {
	MaxWorkers int           `json:"max_workers"`
	JobTimeout time.Duration `json:"job_timeout"`
}

// DefaultHarvesterConfig returns default harvester configuration.
func DefaultHarvesterConfig() *HarvesterConfig {
	return &HarvesterConfig{
		MaxWorkers: 4,
		JobTimeout: 90 * time.Second,
	}
}

// HarvestResult pairs one discovered link with its extraction outcome.
type HarvestResult struct {
	JobID  string              `json:"job_id"`
	Link   news.ArticleLink    `json:"link"`
	Record *news.ArticleRecord `json:"record,omitempty"`
	Err    error               `json:"-"`
}

// Harvester extracts a batch of article links through a bounded worker pool.
// Each job owns its request lifecycle, timeout and retry state; workers share
// nothing but the read-only source.
type Harvester struct {
	config *HarvesterConfig
}

// NewHarvester creates a harvester. A nil config uses the defaults.
func NewHarvester(config *HarvesterConfig) *Harvester {
	if config == nil {
		config = DefaultHarvesterConfig()
	}
	return &Harvester{config: config}
}

// Harvest runs extraction for every link and returns one result per link
// submitted before cancellation. A failing article never stops its siblings.
func (h *Harvester) Harvest(ctx context.Context, source Source, links []news.ArticleLink) []HarvestResult {
	if len(links) == 0 {
		return nil
	}

	workers := h.config.MaxWorkers
	if workers > len(links) {
		workers = len(links)
	}

	jobs := make(chan news.ArticleLink)
	results := make(chan HarvestResult, len(links))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for link := range jobs {
				results <- h.runJob(ctx, workerID, source, link)
			}
		}(i)
	}

	submitted := 0
feed:
	for _, link := range links {
		select {
		case jobs <- link:
			submitted++
		case <-ctx.Done():
			log.Warn().Err(ctx.Err()).Int("remaining", len(links)-submitted).Msg("Harvest cancelled, dropping remaining links")
			break feed
		}
	}
	close(jobs)
	wg.Wait()
	close(results)

	out := make([]HarvestResult, 0, submitted)
	for r := range results {
		out = append(out, r)
	}
	return out
}

func (h *Harvester) runJob(ctx context.Context, workerID int, source Source, link news.ArticleLink) HarvestResult {
	jobID := uuid.New().String()
	start := time.Now()

	jobCtx, cancel := context.WithTimeout(ctx, h.config.JobTimeout)
	defer cancel()

	record, err := source.ExtractArticle(jobCtx, link.URL)

	log.Debug().
		Int("worker_id", workerID).
		Str("job_id", jobID).
		Str("url", link.URL).
		Bool("success", err == nil).
		Dur("processing_time", time.Since(start)).
		Msg("Extraction job completed")

	return HarvestResult{JobID: jobID, Link: link, Record: record, Err: err}
}
