package scraping

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/html"

	"github.com/midasf01/smahoblog14/pkg/news"
)

const (
	// UnresolvedTitle marks a record whose title could not be located
	// through any fallback tier.
	UnresolvedTitle = "(untitled)"

	// unresolvedBody is stored when no body container could be located.
	// The record is still returned; title and images may be usable.
	unresolvedBody = "<p>article body unavailable</p>"

	// titleSeparators cut site suffixes off the <title> fallback.
	titleSeparators = "_-|"

	// Size-attribute thresholds applied to body-scoped <img> elements
	// before the classifier predicates run.
	minImageAttrDim    = 100
	minImageLargerSide = 200
)

// scriptImageURL matches absolute image URLs inside script payloads. Escaped
// slashes are normalized away before matching.
var scriptImageURL = regexp.MustCompile(`https?://[^\s"'\\<>]+?\.(?:jpg|jpeg|png|webp|gif)`)

// ExtractorConfig holds the fallback chains used to locate article parts on
// one site. All lists are ordered; evaluation stops at the first hit.
type ExtractorConfig struct {
	TitleSelectors []string `json:"title_selectors"`
	BodySelectors  []string `json:"body_selectors"`
	StripSelectors []string `json:"strip_selectors"`

	// PrimaryImageSelectors match the site's curated "main photo" classes
	// inside the body container.
	PrimaryImageSelectors []string `json:"primary_image_selectors"`

	// ScriptMarkers gate which inline scripts are scanned for embedded
	// image URLs.
	ScriptMarkers []string `json:"script_markers"`

	// SitePathFragments identify site image hosts for the relaxed
	// whole-document scan.
	SitePathFragments []string `json:"site_path_fragments"`

	DesktopHost string `json:"desktop_host"`
	MobileHost  string `json:"mobile_host"`

	// MinBodyTextLen is the text volume a container needs to win the
	// heuristic body scan on its own; MinHintedTextLen suffices when the
	// container also carries a content-hinting class.
	MinBodyTextLen   int `json:"min_body_text_len"`
	MinHintedTextLen int `json:"min_hinted_text_len"`
}

// Extractor resolves a full article record from an article page.
type Extractor struct {
	transport *Transport
	config    *ExtractorConfig
}

// NewExtractor creates an extractor bound to one transport and one site's
// selector tables.
func NewExtractor(transport *Transport, config *ExtractorConfig) *Extractor {
	return &Extractor{transport: transport, config: config}
}

// Extract fetches an article page and assembles its record. Network failure
// after retries or an unparseable response fails the whole extraction;
// missing title or body degrade the matching field instead.
func (e *Extractor) Extract(ctx context.Context, articleURL string) (*news.ArticleRecord, error) {
	mobileURL := e.normalizeURL(articleURL)

	body, finalURL, err := e.transport.Fetch(ctx, mobileURL)
	if err != nil {
		return nil, err
	}

	// A redirect back to the desktop host loses the mobile markup. One
	// corrective fetch against the mobile equivalent; the original
	// response stands when the corrective fetch fails.
	if e.config.DesktopHost != "" && strings.Contains(finalURL, e.config.DesktopHost) {
		retryURL := e.normalizeURL(finalURL)
		log.Debug().Str("final_url", finalURL).Str("retry_url", retryURL).Msg("Desktop redirect detected, re-fetching mobile variant")
		if b, f, err := e.transport.Fetch(ctx, retryURL); err == nil {
			body, finalURL = b, f
		}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		log.Error().Err(err).Str("url", mobileURL).Msg("Article page parse failed")
		return nil, fmt.Errorf("parse %s: %w", mobileURL, err)
	}

	title := e.resolveTitle(doc)

	bodySel := e.resolveBodyContainer(doc)
	contentHTML := unresolvedBody
	if bodySel != nil {
		e.stripNonContent(bodySel)
		if fragment, err := goquery.OuterHtml(bodySel); err == nil {
			contentHTML = fragment
		}
	} else {
		log.Warn().Str("url", mobileURL).Msg("No body container resolved, storing placeholder")
	}

	images := e.collectImages(doc, bodySel, title, finalURL)

	log.Debug().
		Str("url", mobileURL).
		Str("title", title).
		Int("images", len(images)).
		Msg("Article extraction completed")

	return &news.ArticleRecord{
		Title:       title,
		ContentHTML: contentHTML,
		OriginalURL: articleURL,
		FinalURL:    finalURL,
		Images:      images,
	}, nil
}

// normalizeURL rewrites desktop-host URLs to the mobile variant. The rewrite
// is idempotent.
func (e *Extractor) normalizeURL(u string) string {
	if e.config.DesktopHost == "" {
		return u
	}
	return strings.Replace(u, e.config.DesktopHost, e.config.MobileHost, 1)
}

// resolveTitle walks the title fallback chain: structural selectors, then
// og:title, then the page <title> cut at the first separator.
func (e *Extractor) resolveTitle(doc *goquery.Document) string {
	for _, sel := range e.config.TitleSelectors {
		if t := strings.TrimSpace(doc.Find(sel).First().Text()); t != "" {
			return t
		}
	}
	if og, ok := doc.Find(`meta[property="og:title"]`).Attr("content"); ok {
		if t := strings.TrimSpace(og); t != "" {
			return t
		}
	}
	if t := strings.TrimSpace(doc.Find("title").First().Text()); t != "" {
		if i := strings.IndexAny(t, titleSeparators); i >= 0 {
			t = strings.TrimSpace(t[:i])
		}
		if t != "" {
			return t
		}
	}
	return UnresolvedTitle
}

// resolveBodyContainer walks the body fallback chain: structural selectors
// first, then a scored scan over all block containers. The scan requires a
// direct paragraph child, which keeps page-level wrappers out, and picks the
// highest text volume among containers meeting the length threshold (lowered
// when the class name hints at article content). Returns nil when nothing
// qualifies.
func (e *Extractor) resolveBodyContainer(doc *goquery.Document) *goquery.Selection {
	for _, sel := range e.config.BodySelectors {
		if s := doc.Find(sel).First(); s.Length() > 0 {
			return s
		}
	}

	var best *goquery.Selection
	bestLen := 0
	doc.Find("div, section, article").Each(func(_ int, s *goquery.Selection) {
		if s.ChildrenFiltered("p").Length() == 0 {
			return
		}
		textLen := len([]rune(strings.TrimSpace(s.Text())))
		if textLen == 0 {
			return
		}
		class, _ := s.Attr("class")
		hinted := hasContentHint(class)
		if textLen < e.config.MinBodyTextLen && !(hinted && textLen >= e.config.MinHintedTextLen) {
			return
		}
		if textLen > bestLen {
			best, bestLen = s, textLen
		}
	})
	if best != nil {
		log.Debug().Int("text_len", bestLen).Msg("Body container resolved heuristically")
	}
	return best
}

func hasContentHint(class string) bool {
	c := strings.ToLower(class)
	for _, tok := range []string{"article", "content", "news", "text"} {
		if strings.Contains(c, tok) {
			return true
		}
	}
	return false
}

// stripNonContent removes ad and recommendation blocks from the chosen body
// container before serialization.
func (e *Extractor) stripNonContent(body *goquery.Selection) {
	for _, sel := range e.config.StripSelectors {
		body.Find(sel).Remove()
	}
}

// imageAccumulator collects image candidates in priority order, deduplicated
// by src.
type imageAccumulator struct {
	refs []news.ImageRef
	seen map[string]bool
}

func newImageAccumulator() *imageAccumulator {
	return &imageAccumulator{seen: make(map[string]bool)}
}

func (acc *imageAccumulator) add(src, alt, fallbackAlt string) {
	src = strings.TrimSpace(src)
	if src == "" || acc.seen[src] {
		return
	}
	if alt = strings.TrimSpace(alt); alt == "" {
		alt = fallbackAlt
	}
	acc.seen[src] = true
	acc.refs = append(acc.refs, news.ImageRef{Src: src, Order: len(acc.refs), Alt: alt})
}

// collectImages runs the image stages in strict priority order: og:image,
// primary-class body images, remaining body images, image-fragment anchors,
// script payloads, then two progressively relaxed whole-document passes when
// everything else came up empty. The result is capped and densely renumbered.
func (e *Extractor) collectImages(doc *goquery.Document, bodySel *goquery.Selection, title, pageURL string) []news.ImageRef {
	acc := newImageAccumulator()

	// Stage a: Open Graph image.
	if og, ok := doc.Find(`meta[property="og:image"]`).Attr("content"); ok {
		if src := absoluteImageURL(og, pageURL); src != "" {
			acc.add(src, "", title)
		}
	}

	// Stages b and c: body-scoped images, curated classes first.
	primarySeen := make(map[*html.Node]bool)
	if bodySel != nil {
		for _, sel := range e.config.PrimaryImageSelectors {
			bodySel.Find(sel).Each(func(_ int, img *goquery.Selection) {
				for _, n := range img.Nodes {
					primarySeen[n] = true
				}
				e.addBodyImage(acc, img, title, pageURL)
			})
		}
		bodySel.Find("img").Each(func(_ int, img *goquery.Selection) {
			if len(img.Nodes) > 0 && primarySeen[img.Nodes[0]] {
				return
			}
			e.addBodyImage(acc, img, title, pageURL)
		})

		// Stage d: anchors carrying the image URL in a #src= fragment.
		bodySel.Find(`a[href*="#src="]`).Each(func(_ int, a *goquery.Selection) {
			href, _ := a.Attr("href")
			src := decodeFragmentImage(href)
			if src == "" || !IsContentImage(src) || !IsHighQuality(src, 0, 0) {
				return
			}
			acc.add(src, a.AttrOr("title", ""), title)
		})
	}

	// Stage e: embedded page-data scripts.
	doc.Find("script").Each(func(_ int, s *goquery.Selection) {
		text := s.Text()
		if !containsAny(text, e.config.ScriptMarkers) {
			return
		}
		unescaped := strings.ReplaceAll(text, `\/`, "/")
		for _, src := range scriptImageURL.FindAllString(unescaped, -1) {
			if IsContentImage(src) && IsHighQuality(src, 0, 0) {
				acc.add(src, "", title)
			}
		}
	})

	// Stage f: relaxed quality, site image paths only.
	if len(acc.refs) == 0 {
		doc.Find("img").EachWithBreak(func(_ int, img *goquery.Selection) bool {
			src := absoluteImageURL(imageSrc(img), pageURL)
			if src == "" || !containsAny(src, e.config.SitePathFragments) || !IsContentImage(src) {
				return true
			}
			acc.add(src, img.AttrOr("alt", ""), title)
			return false
		})
	}

	// Stage g: last resort, anything that is not obvious page chrome.
	if len(acc.refs) == 0 {
		doc.Find("img").EachWithBreak(func(_ int, img *goquery.Selection) bool {
			src := absoluteImageURL(imageSrc(img), pageURL)
			if src == "" || hasChromeToken(src) {
				return true
			}
			acc.add(src, img.AttrOr("alt", ""), title)
			return false
		})
	}

	refs := acc.refs
	if len(refs) > news.MaxImages {
		refs = refs[:news.MaxImages]
	}
	for i := range refs {
		refs[i].Order = i
	}
	return refs
}

// addBodyImage applies the size-attribute filter and the classifier
// predicates to one body-scoped <img>, upgrading the resolution variant of
// accepted sources.
func (e *Extractor) addBodyImage(acc *imageAccumulator, img *goquery.Selection, title, pageURL string) {
	src := absoluteImageURL(imageSrc(img), pageURL)
	if src == "" {
		return
	}
	w, h := imageAttrDims(img)
	if (w > 0 && w < minImageAttrDim) || (h > 0 && h < minImageAttrDim) {
		return
	}
	if w > 0 && h > 0 && isNearSquare(w, h) && maxInt(w, h) < minImageLargerSide {
		return
	}
	if !IsContentImage(src) || !IsHighQuality(src, w, h) {
		return
	}
	acc.add(UpgradeResolution(src), img.AttrOr("alt", ""), title)
}

// imageSrc reads the effective source of an <img>, honoring the lazy-load
// attribute variants the target sites use.
func imageSrc(img *goquery.Selection) string {
	for _, attr := range []string{"src", "data-src", "data-original"} {
		if v, ok := img.Attr(attr); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func imageAttrDims(img *goquery.Selection) (int, int) {
	parse := func(attr string) int {
		v, ok := img.Attr(attr)
		if !ok {
			return 0
		}
		n, err := strconv.Atoi(strings.TrimSuffix(strings.TrimSpace(v), "px"))
		if err != nil || n < 0 {
			return 0
		}
		return n
	}
	return parse("width"), parse("height")
}

// absoluteImageURL normalizes an image reference to an absolute URL.
func absoluteImageURL(src, pageURL string) string {
	src = strings.TrimSpace(src)
	switch {
	case src == "":
		return ""
	case strings.HasPrefix(src, "//"):
		return "https:" + src
	case strings.HasPrefix(src, "http://"), strings.HasPrefix(src, "https://"):
		return src
	default:
		base, err := url.Parse(pageURL)
		if err != nil {
			return ""
		}
		ref, err := url.Parse(src)
		if err != nil {
			return ""
		}
		return base.ResolveReference(ref).String()
	}
}

// decodeFragmentImage extracts and decodes the image URL carried in a
// #src=-style fragment parameter.
func decodeFragmentImage(href string) string {
	_, frag, ok := strings.Cut(href, "#src=")
	if !ok {
		return ""
	}
	if i := strings.IndexAny(frag, "&#"); i >= 0 {
		frag = frag[:i]
	}
	decoded, err := url.QueryUnescape(frag)
	if err != nil {
		return ""
	}
	if strings.HasPrefix(decoded, "//") {
		decoded = "https:" + decoded
	}
	return decoded
}

func containsAny(s string, tokens []string) bool {
	for _, tok := range tokens {
		if strings.Contains(s, tok) {
			return true
		}
	}
	return false
}

// hasChromeToken is the stage-g floor: icons, logos and avatars stay out even
// with every quality filter relaxed.
func hasChromeToken(u string) bool {
	l := strings.ToLower(u)
	for _, tok := range []string{"icon", "logo", "avatar"} {
		if strings.Contains(l, tok) {
			return true
		}
	}
	return false
}
