package scraping

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"

	"github.com/midasf01/smahoblog14/pkg/news"
)

// DiscoveryConfig holds the selector tables and URL rules for one site's
// listing pages. Selectors run broad to narrow; changing their order changes
// which anchors win deduplication.
type DiscoveryConfig struct {
	LinkSelectors  []string `json:"link_selectors"`
	TitleSelectors []string `json:"title_selectors"`
	HostMarker     string   `json:"host_marker"`
	PathPatterns   []string `json:"path_patterns"`
	DesktopHost    string   `json:"desktop_host"`
	MobileHost     string   `json:"mobile_host"`
}

// DiscoverLinks locates candidate article anchors in a listing page and
// returns at most limit links, in document order. An unparseable or
// structurally empty page yields an empty result, never an error.
func DiscoverLinks(listingHTML, baseURL string, limit int, cfg *DiscoveryConfig) []news.ArticleLink {
	if limit <= 0 {
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(listingHTML))
	if err != nil {
		log.Error().Err(err).Str("base_url", baseURL).Msg("Listing page parse failed")
		return nil
	}

	// Union of all selector matches, deduplicated by raw href, first
	// occurrence wins.
	var anchors []*goquery.Selection
	seenHref := make(map[string]bool)
	for _, sel := range cfg.LinkSelectors {
		matches := doc.Find(sel)
		if matches.Length() > 0 {
			log.Debug().Str("selector", sel).Int("matches", matches.Length()).Msg("Listing selector matched")
		}
		matches.Each(func(_ int, s *goquery.Selection) {
			href, ok := s.Attr("href")
			if !ok || href == "" || seenHref[href] {
				return
			}
			seenHref[href] = true
			anchors = append(anchors, s)
		})
	}

	links := make([]news.ArticleLink, 0, limit)
	seenURL := make(map[string]bool)
	for _, a := range anchors {
		if len(links) >= limit {
			break
		}
		href, _ := a.Attr("href")
		full := resolveHref(href, baseURL)
		if full == "" || !isContentURL(full, cfg) {
			continue
		}
		if cfg.DesktopHost != "" {
			full = strings.Replace(full, cfg.DesktopHost, cfg.MobileHost, 1)
		}
		if seenURL[full] {
			continue
		}
		seenURL[full] = true
		links = append(links, news.ArticleLink{URL: full, Title: anchorTitle(a, cfg.TitleSelectors)})
	}

	log.Info().Str("base_url", baseURL).Int("links", len(links)).Msg("Link discovery completed")
	return links
}

// anchorTitle resolves a best-effort title for an anchor: child selectors in
// order, then the anchor's own text. Empty is allowed.
func anchorTitle(a *goquery.Selection, selectors []string) string {
	for _, sel := range selectors {
		if t := strings.TrimSpace(a.Find(sel).First().Text()); t != "" {
			return t
		}
	}
	return strings.TrimSpace(a.Text())
}

// resolveHref turns an anchor href into an absolute URL. Protocol-relative
// hrefs get a scheme, relative ones join the base, absolute ones pass through.
func resolveHref(href, baseURL string) string {
	switch {
	case strings.HasPrefix(href, "//"):
		return "https:" + href
	case strings.HasPrefix(href, "http://"), strings.HasPrefix(href, "https://"):
		return href
	default:
		base, err := url.Parse(baseURL)
		if err != nil {
			return ""
		}
		ref, err := url.Parse(href)
		if err != nil {
			return ""
		}
		return base.ResolveReference(ref).String()
	}
}

// isContentURL accepts only URLs on the target site whose path carries one of
// the configured content markers.
func isContentURL(fullURL string, cfg *DiscoveryConfig) bool {
	if !strings.Contains(fullURL, cfg.HostMarker) {
		return false
	}
	for _, pattern := range cfg.PathPatterns {
		if strings.Contains(fullURL, pattern) {
			return true
		}
	}
	return false
}
