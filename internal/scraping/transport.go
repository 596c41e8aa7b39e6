package scraping

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/gogs/chardet"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

// mobileUserAgents is the pool a Transport picks its identity from. Mobile
// portals serve different markup to desktop agents, so every entry is a phone
// browser.
var mobileUserAgents = []string{
	// iPhone
	"Mozilla/5.0 (iPhone; CPU iPhone OS 14_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/14.0 Mobile/15E148 Safari/604.1",
	"Mozilla/5.0 (iPhone; CPU iPhone OS 15_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) CriOS/96.0.4664.53 Mobile/15E148 Safari/604.1",
	"Mozilla/5.0 (iPhone; CPU iPhone OS 15_4 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Mobile/15E148 Safari/605.1.15",
	// Android
	"Mozilla/5.0 (Linux; Android 10; SM-G981B) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/80.0.3987.162 Mobile Safari/537.36",
	"Mozilla/5.0 (Linux; Android 11; Pixel 5) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/90.0.4430.91 Mobile Safari/537.36",
	"Mozilla/5.0 (Linux; Android 12; SM-S908B) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/102.0.0.0 Mobile Safari/537.36",
	// Huawei
	"Mozilla/5.0 (Linux; Android 10; VOG-L29) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.120 Mobile Safari/537.36",
	// Xiaomi
	"Mozilla/5.0 (Linux; Android 11; M2102K1G) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/95.0.4638.74 Mobile Safari/537.36",
}

// TransportConfig configures page retrieval behavior.
type TransportConfig struct {
	Timeout     time.Duration `json:"timeout"`
	MaxRetries  int           `json:"max_retries"`
	RetryDelay  time.Duration `json:"retry_delay"`
	Referer     string        `json:"referer"`
	UserAgent   string        `json:"user_agent"` // empty picks a random mobile agent
	MaxBodySize int64         `json:"max_body_size"`
}

// DefaultTransportConfig returns the retrieval defaults for article pages.
func DefaultTransportConfig() *TransportConfig {
	return &TransportConfig{
		Timeout:     20 * time.Second,
		MaxRetries:  3,
		RetryDelay:  1 * time.Second,
		MaxBodySize: 10 * 1024 * 1024, // 10MB
	}
}

// Transport performs resilient HTTP retrieval: mobile header discipline,
// bounded retries with a fixed inter-attempt delay, and sniffed-encoding
// decoding of the response body.
type Transport struct {
	client    *http.Client
	config    *TransportConfig
	userAgent string
}

// NewTransport creates a transport. A nil config uses the defaults.
func NewTransport(config *TransportConfig) *Transport {
	if config == nil {
		config = DefaultTransportConfig()
	}
	ua := config.UserAgent
	if ua == "" {
		ua = mobileUserAgents[rand.Intn(len(mobileUserAgents))]
	}
	return &Transport{
		client:    &http.Client{Timeout: config.Timeout},
		config:    config,
		userAgent: ua,
	}
}

// Fetch performs a GET against targetURL, retrying transient failures. It
// returns the decoded body and the post-redirect URL. All attempts failing is
// a hard failure; callers must not treat it as an empty page.
func (t *Transport) Fetch(ctx context.Context, targetURL string) (string, string, error) {
	var lastErr error
	for attempt := 1; attempt <= t.config.MaxRetries; attempt++ {
		body, finalURL, err := t.fetchOnce(ctx, targetURL)
		if err == nil {
			return body, finalURL, nil
		}
		lastErr = err
		log.Warn().
			Err(err).
			Str("url", targetURL).
			Int("attempt", attempt).
			Int("max_retries", t.config.MaxRetries).
			Msg("Fetch attempt failed")
		if attempt < t.config.MaxRetries {
			select {
			case <-time.After(t.config.RetryDelay):
			case <-ctx.Done():
				return "", "", ctx.Err()
			}
		}
	}
	return "", "", fmt.Errorf("fetch %s: %w", targetURL, lastErr)
}

func (t *Transport) fetchOnce(ctx context.Context, targetURL string) (string, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return "", "", err
	}

	req.Header.Set("User-Agent", t.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "zh-CN,zh;q=0.9,ja;q=0.8,en-US;q=0.7,en;q=0.6")
	req.Header.Set("Connection", "keep-alive")
	req.Header.Set("Upgrade-Insecure-Requests", "1")
	req.Header.Set("Cache-Control", "max-age=0")
	if t.config.Referer != "" {
		req.Header.Set("Referer", t.config.Referer)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return "", "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", "", fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, t.config.MaxBodySize))
	if err != nil {
		return "", "", err
	}

	return decodeBody(raw, resp.Header.Get("Content-Type")), resp.Request.URL.String(), nil
}

// decodeBody converts a response body to UTF-8. Declared charsets on the
// target sites are frequently wrong, so detection runs on the bytes first and
// the declared/prescanned charset is only a fallback.
func decodeBody(raw []byte, contentType string) string {
	if det, err := chardet.NewHtmlDetector().DetectBest(raw); err == nil && det != nil && det.Confidence >= 50 {
		if enc, err := htmlindex.Get(normalizeCharsetLabel(det.Charset)); err == nil {
			if out, _, err := transform.Bytes(enc.NewDecoder(), raw); err == nil {
				return string(out)
			}
		}
	}
	if r, err := charset.NewReader(bytes.NewReader(raw), contentType); err == nil {
		if out, err := io.ReadAll(r); err == nil {
			return string(out)
		}
	}
	return string(raw)
}

// normalizeCharsetLabel maps detector names onto WHATWG encoding labels.
func normalizeCharsetLabel(name string) string {
	label := strings.ToLower(strings.TrimSpace(name))
	if label == "gb-18030" {
		return "gb18030"
	}
	return label
}
