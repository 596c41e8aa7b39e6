// Package api exposes link discovery and article extraction over HTTP.
package api

import (
	"fmt"
	"net/url"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/midasf01/smahoblog14/internal/scraping"
	"github.com/midasf01/smahoblog14/pkg/config"
)

// maxDiscoverLimit caps one discovery request.
const maxDiscoverLimit = 50

// Handlers contains the HTTP handlers for the API.
type Handlers struct {
	newSource func(id string) (scraping.Source, bool)
}

// NewHandlers creates a handlers instance over the global source registry.
func NewHandlers() *Handlers {
	return &Handlers{newSource: scraping.NewSource}
}

// Health returns the service health status.
func (h *Handlers) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":    "healthy",
		"service":   "smahoblog-harvester",
		"sources":   scraping.SourceIDs(),
		"timestamp": time.Now().UTC(),
	})
}

// DiscoverRequest asks for article links from one source's listing page.
type DiscoverRequest struct {
	Source string `json:"source"`
	Limit  int    `json:"limit"`
}

// DiscoverLinks runs link discovery for one source.
func (h *Handlers) DiscoverLinks(c *fiber.Ctx) error {
	var req DiscoverRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
	}

	src, ok := h.newSource(req.Source)
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": fmt.Sprintf("Unknown source: %q", req.Source),
		})
	}

	limit := req.Limit
	if limit <= 0 {
		limit = config.DefaultFetchLimit
	}
	if limit > maxDiscoverLimit {
		limit = maxDiscoverLimit
	}

	links, err := src.DiscoverLinks(c.Context(), limit)
	if err != nil {
		log.Error().Err(err).Str("source", req.Source).Msg("Link discovery failed")
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error":   "Link discovery failed",
			"details": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"source": req.Source,
		"count":  len(links),
		"links":  links,
	})
}

// ExtractRequest asks for a full article record.
type ExtractRequest struct {
	Source string `json:"source"`
	URL    string `json:"url"`
}

// ExtractArticle runs article extraction for one URL.
func (h *Handlers) ExtractArticle(c *fiber.Ctx) error {
	var req ExtractRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
	}

	if err := validateArticleURL(req.URL); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Validation failed",
			"details": err.Error(),
		})
	}

	src, ok := h.newSource(req.Source)
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": fmt.Sprintf("Unknown source: %q", req.Source),
		})
	}

	record, err := src.ExtractArticle(c.Context(), req.URL)
	if err != nil {
		log.Error().Err(err).Str("url", req.URL).Msg("Article extraction failed")
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error":   "Article extraction failed",
			"details": err.Error(),
		})
	}

	return c.JSON(record)
}

func validateArticleURL(rawURL string) error {
	if rawURL == "" {
		return fmt.Errorf("url is required")
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("unsupported url scheme: %s", parsed.Scheme)
	}
	if parsed.Host == "" {
		return fmt.Errorf("url must have a host")
	}
	return nil
}

// SetupRoutes registers the API routes on the app.
func SetupRoutes(app *fiber.App, h *Handlers) {
	app.Get("/health", h.Health)

	v1 := app.Group("/api/v1")
	v1.Post("/discover", h.DiscoverLinks)
	v1.Post("/extract", h.ExtractArticle)
}
