package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/SatishMiral/chrome-extension-backend/config"
	"github.com/SatishMiral/chrome-extension-backend/models"
	"github.com/SatishMiral/chrome-extension-backend/scraper"
)

// stubTab serves fixed HTML per URL.
type stubTab struct {
	pages   map[string]string
	current string
	closed  bool
}

func (s *stubTab) BlockResources([]string) error { return nil }

func (s *stubTab) Navigate(ctx context.Context, url string) error {
	if _, ok := s.pages[url]; !ok {
		return errors.New("unexpected url " + url)
	}
	s.current = url
	return nil
}

func (s *stubTab) HTML(ctx context.Context) (string, error) { return s.pages[s.current], nil }

func (s *stubTab) Close() error {
	s.closed = true
	return nil
}

type stubReporter struct{ alive bool }

func (s stubReporter) IsAlive() bool { return s.alive }
func (s stubReporter) Stats() models.SessionStats {
	return models.SessionStats{State: "live"}
}

func testConfig() *config.Config {
	cfg := config.Load()
	cfg.Server.Mode = "test"
	cfg.Auth.Enabled = false
	return cfg
}

func get(h http.Handler, target string, header ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestCompareProduct_EndToEnd(t *testing.T) {
	tab := &stubTab{pages: map[string]string{
		"https://www.flipkart.com/p/ABC": `<html><body>
			<span class="B_NuCI">Widget X</span>
			<div class="_30jeq3 _16Jk6d">₹999</div>
		</body></html>`,
		"https://www.amazon.in/s?k=Widget%20X": `<html><body><div class="s-main-slot">
			<div class="s-result-item">
				<span class="a-offscreen">₹950</span>
				<span class="a-icon-alt">4.1 out of 5</span>
				<a class="a-link-normal s-underline-text" href="/dp/123">Widget X</a>
			</div>
		</div></body></html>`,
	}}
	tabs := scraper.TabSourceFunc(func(ctx context.Context) (scraper.Tab, error) { return tab, nil })
	pipeline := scraper.NewPipeline(tabs, config.ScraperConfig{NavigationTimeout: time.Second})

	r := NewRouter(pipeline, stubReporter{alive: true}, testConfig(), nil, time.Now())
	w := get(r, "/compare-product?url=https://www.flipkart.com/p/ABC")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	want := `{"success":true,"results":[{"price":"₹950","rating":"4.1","link":"https://www.amazon.in/dp/123","extractedPrice":"₹999"}]}`
	if w.Body.String() != want {
		t.Errorf("body =\n%s\nwant\n%s", w.Body.String(), want)
	}
	if !tab.closed {
		t.Error("tab should be closed after the request")
	}
}

func TestCompareRoutes_NoSession(t *testing.T) {
	tabs := scraper.TabSourceFunc(func(ctx context.Context) (scraper.Tab, error) {
		return nil, models.NewScrapeError(models.ErrCodeSessionUnavailable, "no browser", models.ErrSessionUnavailable)
	})
	r := NewRouter(scraper.NewPipeline(tabs, config.ScraperConfig{}), stubReporter{}, testConfig(), nil, time.Now())

	for _, path := range []string{"/compare-product", "/compare-flipkart-product", "/compare-amazon-product"} {
		w := get(r, path+"?url=https://example.com/p")
		if w.Code != http.StatusServiceUnavailable {
			t.Errorf("%s: status = %d, want 503", path, w.Code)
		}
	}
}

func TestRouter_AmbientHeaders(t *testing.T) {
	r := NewRouter(scraper.NewPipeline(nil, config.ScraperConfig{}), stubReporter{alive: true}, testConfig(), nil, time.Now())

	const origin = "chrome-extension://abcdefghijklmnop"

	w := get(r, "/", "Origin", origin)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("response should carry a request id")
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("response should carry CORS headers")
	}
	if !strings.Contains(w.Header().Get("Access-Control-Expose-Headers"), "X-Request-Id") &&
		!strings.Contains(w.Header().Get("Access-Control-Expose-Headers"), "X-Request-ID") {
		t.Errorf("expose headers = %q", w.Header().Get("Access-Control-Expose-Headers"))
	}

	w = get(r, "/", "X-Request-ID", "abc-123")
	if w.Header().Get("X-Request-ID") != "abc-123" {
		t.Errorf("request id = %q, want the caller's", w.Header().Get("X-Request-ID"))
	}

	req := httptest.NewRequest(http.MethodOptions, "/compare-product", nil)
	req.Header.Set("Origin", origin)
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d, want 204", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("preflight should allow any origin")
	}
}

func TestRouter_Auth(t *testing.T) {
	cfg := testConfig()
	cfg.Auth.Enabled = true
	cfg.Auth.APIKeys = []string{"secret"}
	r := NewRouter(scraper.NewPipeline(nil, config.ScraperConfig{}), stubReporter{alive: true}, cfg, nil, time.Now())

	if w := get(r, "/compare-amazon-product"); w.Code != http.StatusUnauthorized {
		t.Errorf("missing key: status = %d, want 401", w.Code)
	}
	if w := get(r, "/compare-amazon-product", "X-API-Key", "wrong"); w.Code != http.StatusUnauthorized {
		t.Errorf("wrong key: status = %d, want 401", w.Code)
	}

	// Authenticated but no url: the handler answers 400.
	w := get(r, "/compare-amazon-product", "Authorization", "Bearer secret")
	if w.Code != http.StatusBadRequest {
		t.Errorf("valid key: status = %d, want 400", w.Code)
	}
	var body models.ErrorResponse
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	if body.Error != "Amazon URL is required." {
		t.Errorf("error = %q", body.Error)
	}

	if w := get(r, "/health"); w.Code != http.StatusOK {
		t.Errorf("health should not require auth, status = %d", w.Code)
	}
}

func TestRouter_Metrics(t *testing.T) {
	r := NewRouter(scraper.NewPipeline(nil, config.ScraperConfig{}), stubReporter{alive: true}, testConfig(), nil, time.Now())
	get(r, "/")

	w := get(r, "/metrics")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "pricecompare_http_requests_total") {
		t.Error("metrics should include the request counter")
	}
}
