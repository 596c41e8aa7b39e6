package scraping

import (
	"context"
	"sort"
	"time"

	"github.com/midasf01/smahoblog14/pkg/news"
)

// Source is one news site the harvester knows how to read. Implementations
// keep their site quirks (selector tables, URL rules, header discipline)
// behind these two operations.
type Source interface {
	ID() string
	DiscoverLinks(ctx context.Context, limit int) ([]news.ArticleLink, error)
	ExtractArticle(ctx context.Context, articleURL string) (*news.ArticleRecord, error)
}

// SourceFactory builds a fresh Source instance.
type SourceFactory func() Source

var sourceRegistry = map[string]SourceFactory{}

// RegisterSource adds a source constructor under its ID. Registration happens
// at init time; the registry is read-only afterwards.
func RegisterSource(id string, factory SourceFactory) {
	sourceRegistry[id] = factory
}

// NewSource constructs the source registered under id.
func NewSource(id string) (Source, bool) {
	factory, ok := sourceRegistry[id]
	if !ok {
		return nil, false
	}
	return factory(), true
}

// SourceIDs returns the registered source IDs, sorted.
func SourceIDs() []string {
	ids := make([]string, 0, len(sourceRegistry))
	for id := range sourceRegistry {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func init() {
	RegisterSource("zol", NewZOLSource)
}

// ZOL.com.cn mobile section.
const (
	zolListingURL  = "https://m.zol.com.cn/mobile/"
	zolDesktopHost = "news.zol.com.cn"
	zolMobileHost  = "m.zol.com.cn"

	zolListingTimeout = 15 * time.Second
	zolArticleTimeout = 20 * time.Second
)

func zolDiscoveryConfig() *DiscoveryConfig {
	return &DiscoveryConfig{
		LinkSelectors: []string{
			".news-list a",
			".list-item a",
			".item-news a",
			"ul li a",
			`a[href*="/article/"]`,
			`a[href*="/index"]`,
			"div > a",
		},
		TitleSelectors: []string{"h3", ".title", "h4", ".item-title", "p", "div.text"},
		HostMarker:     "zol.com.cn",
		PathPatterns:   []string{"/mobile/", "/article/", "/news/", "/index", "/cell_phone/"},
		DesktopHost:    zolDesktopHost,
		MobileHost:     zolMobileHost,
	}
}

func zolExtractorConfig() *ExtractorConfig {
	return &ExtractorConfig{
		TitleSelectors: []string{
			".article-title",
			"h1.article-name",
			".title-name",
			"header h1",
			"h1",
			".title",
		},
		BodySelectors: []string{
			".article-content",
			".article-body",
			".art-con",
			"#article-content",
			".news-content",
			".content-box",
		},
		StripSelectors: []string{
			"script",
			"style",
			".recommend",
			".related",
			".relevant",
			".ad",
			`[class*="advert"]`,
			".topic",
			".footer",
			".foot",
			".share",
		},
		PrimaryImageSelectors: []string{
			"img.article-img",
			"img.content-img",
			"img.big-pic",
			".article-img img",
		},
		ScriptMarkers:     []string{"window.pageInfo", "articleProp", "pageData"},
		SitePathFragments: []string{"zol-img.com.cn", "/article/"},
		DesktopHost:       zolDesktopHost,
		MobileHost:        zolMobileHost,
		MinBodyTextLen:    200,
		MinHintedTextLen:  80,
	}
}

// ZOLSource reads the phone-news section of ZOL's mobile portal.
type ZOLSource struct {
	listTransport *Transport
	extractor     *Extractor
	discovery     *DiscoveryConfig
	listingURL    string
}

// NewZOLSource wires the ZOL selector tables to mobile transports. Listing
// and article fetches carry separate timeouts.
func NewZOLSource() Source {
	listCfg := DefaultTransportConfig()
	listCfg.Timeout = zolListingTimeout
	listCfg.Referer = zolListingURL

	articleCfg := DefaultTransportConfig()
	articleCfg.Timeout = zolArticleTimeout
	articleCfg.Referer = zolListingURL

	return &ZOLSource{
		listTransport: NewTransport(listCfg),
		extractor:     NewExtractor(NewTransport(articleCfg), zolExtractorConfig()),
		discovery:     zolDiscoveryConfig(),
		listingURL:    zolListingURL,
	}
}

func (z *ZOLSource) ID() string { return "zol" }

// DiscoverLinks fetches the mobile listing page and returns up to limit
// article links.
func (z *ZOLSource) DiscoverLinks(ctx context.Context, limit int) ([]news.ArticleLink, error) {
	body, _, err := z.listTransport.Fetch(ctx, z.listingURL)
	if err != nil {
		return nil, err
	}
	return DiscoverLinks(body, z.listingURL, limit, z.discovery), nil
}

// ExtractArticle resolves a full article record for one URL.
func (z *ZOLSource) ExtractArticle(ctx context.Context, articleURL string) (*news.ArticleRecord, error) {
	return z.extractor.Extract(ctx, articleURL)
}
