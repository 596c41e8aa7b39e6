package scraping

import (
	"regexp"
	"strconv"
	"strings"
)

// Token tables driving image classification. Exclusion checks always run
// before inclusion checks; reordering them changes which images survive.
var (
	// excludeTokens mark UI chrome rather than article photography.
	excludeTokens = []string{
		"icon", "logo", "avatar", "banner", "qrcode", "sprite",
		"nav", "header", "footer", "btn", "blank", "spacer",
		"loading", "share", "comment", "weixin",
	}

	// smallSquareTokens are fixed icon sizes baked into filenames.
	smallSquareTokens = []string{
		"16x16", "32x32", "48x48", "64x64", "80x80", "100x100",
	}

	// priorityTokens strongly indicate editorial content paths.
	priorityTokens = []string{"article", "content", "news"}

	// contentTokens are weaker content hints, checked after priorityTokens.
	contentTokens = []string{"upload", "attach", "photo", "pic", "img", "image"}

	imageExtensions = []string{".jpg", ".jpeg", ".png", ".webp", ".gif", ".bmp"}

	// cropTokens mark aspect-ratio crops and small fixed-size variants.
	cropTokens = []string{"crop", "t_s120x90", "t_s90x60", "_c.", "60x60"}

	// originTokens mark full-resolution variants.
	originTokens = []string{"origin", "original", "large", "big", "raw", "source"}

	// hiResPathMarkers are site-specific paths that only serve large images.
	hiResPathMarkers = []string{
		"zol-img.com.cn/t_s2000", "zol-img.com.cn/t_s1200", "zol-img.com.cn/t_s800",
	}

	// largeSizeTokens is the generic last-resort size hint list.
	largeSizeTokens = []string{"720", "1080", "1200", "1440", "1920", "2000"}

	sizePairPattern = regexp.MustCompile(`(\d{2,4})[xX](\d{2,4})`)

	// sizeTokenPattern matches the ZOL family of size tokens, e.g. t_s640x480.
	sizeTokenPattern = regexp.MustCompile(`t_s(\d{2,4})x(\d{2,4})`)
)

// sizeTokenFamily lists the known resize variants largest first. Upgrades
// substitute the first token larger than the one found in the URL.
var sizeTokenFamily = []string{
	"t_s2000x2000", "t_s1200x900", "t_s800x600", "t_s640x480",
	"t_s400x300", "t_s208x130", "t_s120x90",
}

const (
	minQualityDim  = 120
	nearSquareDim  = 200
	goodQualityDim = 300
)

// IsContentImage reports whether the URL plausibly points at an article
// content image rather than icons, logos or other page chrome.
func IsContentImage(rawURL string) bool {
	u := strings.ToLower(rawURL)
	if u == "" {
		return false
	}
	for _, tok := range excludeTokens {
		if strings.Contains(u, tok) {
			return false
		}
	}
	for _, tok := range smallSquareTokens {
		if strings.Contains(u, tok) {
			return false
		}
	}
	for _, tok := range priorityTokens {
		if strings.Contains(u, tok) {
			return true
		}
	}
	for _, tok := range contentTokens {
		if strings.Contains(u, tok) {
			return true
		}
	}
	path := u
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	for _, ext := range imageExtensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}

// IsHighQuality reports whether the image meets the resolution and aspect
// thresholds that separate photography from thumbnails. Width and height are
// the element's size attributes when known, zero otherwise.
func IsHighQuality(rawURL string, width, height int) bool {
	u := strings.ToLower(rawURL)
	for _, tok := range cropTokens {
		if strings.Contains(u, tok) {
			return false
		}
	}
	if w, h, ok := sizeFromURL(u); ok {
		if w < minQualityDim || h < minQualityDim {
			return false
		}
		if isNearSquare(w, h) && maxInt(w, h) < nearSquareDim {
			return false
		}
	}
	for _, tok := range originTokens {
		if strings.Contains(u, tok) {
			return true
		}
	}
	for _, tok := range hiResPathMarkers {
		if strings.Contains(u, tok) {
			return true
		}
	}
	if width >= goodQualityDim || height >= goodQualityDim {
		return true
	}
	if w, h, ok := sizeFromURL(u); ok && (w >= goodQualityDim || h >= goodQualityDim) {
		return true
	}
	for _, tok := range largeSizeTokens {
		if strings.Contains(u, tok) {
			return true
		}
	}
	return false
}

// UpgradeResolution rewrites a URL carrying a known size token to the first
// larger variant from the same family. URLs without a recognized token are
// returned unchanged.
func UpgradeResolution(src string) string {
	m := sizeTokenPattern.FindStringSubmatch(src)
	if m == nil {
		return src
	}
	w, _ := strconv.Atoi(m[1])
	h, _ := strconv.Atoi(m[2])
	area := w * h
	for _, tok := range sizeTokenFamily {
		tm := sizeTokenPattern.FindStringSubmatch(tok)
		tw, _ := strconv.Atoi(tm[1])
		th, _ := strconv.Atoi(tm[2])
		if tw*th <= area {
			continue
		}
		if out := strings.Replace(src, m[0], tok, 1); out != src {
			return out
		}
	}
	return src
}

func sizeFromURL(u string) (int, int, bool) {
	m := sizePairPattern.FindStringSubmatch(u)
	if m == nil {
		return 0, 0, false
	}
	w, _ := strconv.Atoi(m[1])
	h, _ := strconv.Atoi(m[2])
	return w, h, true
}

func isNearSquare(w, h int) bool {
	if w == 0 || h == 0 {
		return false
	}
	long, short := maxInt(w, h), minInt(w, h)
	return long*3 <= short*4
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
