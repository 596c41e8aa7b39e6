package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/midasf01/smahoblog14/internal/scraping"
	"github.com/midasf01/smahoblog14/pkg/news"
)

type apiStubSource struct {
	links       []news.ArticleLink
	record      *news.ArticleRecord
	discoverErr error
	extractErr  error
	gotLimit    int
	gotURL      string
}

func (s *apiStubSource) ID() string { return "zol" }

func (s *apiStubSource) DiscoverLinks(_ context.Context, limit int) ([]news.ArticleLink, error) {
	s.gotLimit = limit
	if s.discoverErr != nil {
		return nil, s.discoverErr
	}
	return s.links, nil
}

func (s *apiStubSource) ExtractArticle(_ context.Context, articleURL string) (*news.ArticleRecord, error) {
	s.gotURL = articleURL
	if s.extractErr != nil {
		return nil, s.extractErr
	}
	return s.record, nil
}

func setupTestApp(stub *apiStubSource) *fiber.App {
	app := fiber.New()
	h := &Handlers{newSource: func(id string) (scraping.Source, bool) {
		if stub != nil && id == stub.ID() {
			return stub, true
		}
		return nil, false
	}}
	SetupRoutes(app, h)
	return app
}

func postJSON(t *testing.T, app *fiber.App, path string, body any) (*http.Response, map[string]any) {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var parsed map[string]any
	require.NoError(t, json.Unmarshal(data, &parsed))
	return resp, parsed
}

func TestHealthEndpoint(t *testing.T) {
	app := setupTestApp(nil)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var body map[string]any
	require.NoError(t, json.Unmarshal(data, &body))
	assert.Equal(t, "healthy", body["status"])
	assert.NotEmpty(t, body["sources"])
}

func TestDiscoverLinksHappyPath(t *testing.T) {
	stub := &apiStubSource{links: []news.ArticleLink{
		{URL: "https://m.zol.com.cn/article/1.html", Title: "a"},
		{URL: "https://m.zol.com.cn/article/2.html", Title: "b"},
	}}
	app := setupTestApp(stub)

	resp, body := postJSON(t, app, "/api/v1/discover", DiscoverRequest{Source: "zol", Limit: 5})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(2), body["count"])
	assert.Equal(t, 5, stub.gotLimit)
}

func TestDiscoverLinksDefaultsAndCapsLimit(t *testing.T) {
	stub := &apiStubSource{}
	app := setupTestApp(stub)

	resp, _ := postJSON(t, app, "/api/v1/discover", DiscoverRequest{Source: "zol"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 10, stub.gotLimit, "zero limit falls back to the default")

	resp, _ = postJSON(t, app, "/api/v1/discover", DiscoverRequest{Source: "zol", Limit: 500})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, maxDiscoverLimit, stub.gotLimit)
}

func TestDiscoverLinksUnknownSource(t *testing.T) {
	app := setupTestApp(&apiStubSource{})

	resp, body := postJSON(t, app, "/api/v1/discover", DiscoverRequest{Source: "nope", Limit: 5})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, body["error"], "nope")
}

func TestDiscoverLinksUpstreamFailure(t *testing.T) {
	stub := &apiStubSource{discoverErr: errors.New("listing unreachable")}
	app := setupTestApp(stub)

	resp, body := postJSON(t, app, "/api/v1/discover", DiscoverRequest{Source: "zol", Limit: 5})
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, "Link discovery failed", body["error"])
}

func TestDiscoverLinksMalformedBody(t *testing.T) {
	app := setupTestApp(&apiStubSource{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/discover", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestExtractArticleHappyPath(t *testing.T) {
	stub := &apiStubSource{record: &news.ArticleRecord{
		Title:       "New flagship hands-on",
		ContentHTML: "<p>body</p>",
		OriginalURL: "https://m.zol.com.cn/article/1.html",
		FinalURL:    "https://m.zol.com.cn/article/1.html",
		Images:      []news.ImageRef{{Src: "https://article.zol-img.com.cn/a.jpg", Order: 0}},
	}}
	app := setupTestApp(stub)

	resp, body := postJSON(t, app, "/api/v1/extract", ExtractRequest{
		Source: "zol",
		URL:    "https://m.zol.com.cn/article/1.html",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "New flagship hands-on", body["title"])
	assert.Equal(t, "https://m.zol.com.cn/article/1.html", stub.gotURL)
}

func TestExtractArticleRejectsBadURL(t *testing.T) {
	app := setupTestApp(&apiStubSource{})

	for _, u := range []string{"", "ftp://m.zol.com.cn/a", "https://", "not a url at all\x7f"} {
		resp, body := postJSON(t, app, "/api/v1/extract", ExtractRequest{Source: "zol", URL: u})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "url %q", u)
		assert.Equal(t, "Validation failed", body["error"])
	}
}

func TestExtractArticleUnknownSource(t *testing.T) {
	app := setupTestApp(&apiStubSource{})

	resp, _ := postJSON(t, app, "/api/v1/extract", ExtractRequest{
		Source: "nope",
		URL:    "https://m.zol.com.cn/article/1.html",
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestExtractArticleUpstreamFailure(t *testing.T) {
	stub := &apiStubSource{extractErr: errors.New("fetch failed after retries")}
	app := setupTestApp(stub)

	resp, body := postJSON(t, app, "/api/v1/extract", ExtractRequest{
		Source: "zol",
		URL:    "https://m.zol.com.cn/article/1.html",
	})
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, "Article extraction failed", body["error"])
}

func TestValidateArticleURL(t *testing.T) {
	assert.NoError(t, validateArticleURL("https://m.zol.com.cn/article/1.html"))
	assert.NoError(t, validateArticleURL("http://m.zol.com.cn/article/1.html"))
	assert.Error(t, validateArticleURL(""))
	assert.Error(t, validateArticleURL("ftp://host/a"))
	assert.Error(t, validateArticleURL("https:///no-host"))
}
