package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/star/launchdash/internal/auth"
	"github.com/star/launchdash/internal/dashboard"
	"github.com/star/launchdash/internal/health"
	"github.com/star/launchdash/internal/httputil"
	"github.com/star/launchdash/internal/launch"
	"github.com/star/launchdash/internal/render"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

func testApp(t *testing.T) *dashboard.App {
	t.Helper()
	ds, err := launch.NewDataset([]launch.Record{
		{FlightNumber: 1, Site: "siteA", PayloadKg: 500, Outcome: launch.Success, BoosterVersion: "boosterX", BoosterCategory: "v1.0"},
		{FlightNumber: 2, Site: "siteA", PayloadKg: 9000, Outcome: launch.Failure, BoosterVersion: "boosterY", BoosterCategory: "v1.1"},
		{FlightNumber: 3, Site: "siteB", PayloadKg: 3000, Outcome: launch.Success, BoosterVersion: "boosterX", BoosterCategory: "v1.0"},
		{FlightNumber: 4, Site: "siteB", PayloadKg: 3000, Outcome: launch.Failure, BoosterVersion: "boosterZ", BoosterCategory: "FT"},
	}, "test")
	if err != nil {
		t.Fatal(err)
	}
	return dashboard.New(ds)
}

var testWeb = fstest.MapFS{
	"index.html": &fstest.MapFile{Data: []byte("<!doctype html><title>dash</title>")},
	"app.js":     &fstest.MapFile{Data: []byte("// app")},
}

func newTestServer(t *testing.T, authCfg auth.Config, ready bool) http.Handler {
	t.Helper()
	var rd health.Readiness
	if ready {
		rd.MarkReady()
	}
	srv := NewServer(Config{Addr: ":0"}, testLogger(), authCfg, testApp(t), render.New(400, 300), &rd, testWeb)
	return srv.Handler()
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestLayout(t *testing.T) {
	h := newTestServer(t, auth.Config{}, true)
	w := do(t, h, "GET", "/api/v1/layout", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var l dashboard.Layout
	if err := json.NewDecoder(w.Body).Decode(&l); err != nil {
		t.Fatal(err)
	}
	if l.Title != "SpaceX Launch Records Dashboard" {
		t.Errorf("title = %q", l.Title)
	}
	if len(l.Dropdown.Options) != 3 {
		t.Errorf("got %d options, want 3", len(l.Dropdown.Options))
	}
}

func TestUpdate(t *testing.T) {
	h := newTestServer(t, auth.Config{}, true)

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantOut    []string
	}{
		{
			name:       "initial render",
			body:       `{"changed":[],"state":{"site":"ALL","payload":[0,10000]}}`,
			wantStatus: http.StatusOK,
			wantOut:    []string{dashboard.SuccessPie, dashboard.PayloadScatter},
		},
		{
			name:       "defaults when state omitted",
			body:       `{}`,
			wantStatus: http.StatusOK,
			wantOut:    []string{dashboard.SuccessPie, dashboard.PayloadScatter},
		},
		{
			name:       "slider only",
			body:       `{"changed":["payload-slider"],"state":{"site":"siteA","payload":[0,1000]}}`,
			wantStatus: http.StatusOK,
			wantOut:    []string{dashboard.PayloadScatter},
		},
		{
			name:       "malformed json",
			body:       `{"changed":`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown field",
			body:       `{"bogus":1}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "low above high",
			body:       `{"state":{"payload":[5000,1000]}}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "payload wrong arity",
			body:       `{"state":{"payload":[1,2,3]}}`,
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, "POST", "/api/v1/update", tt.body)
			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", w.Code, tt.wantStatus, w.Body.String())
			}

			if tt.wantStatus != http.StatusOK {
				var resp map[string]any
				json.NewDecoder(w.Body).Decode(&resp)
				if resp["error"] == nil {
					t.Error("expected error field in response")
				}
				return
			}

			var resp updateResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatal(err)
			}
			if len(resp.Outputs) != len(tt.wantOut) {
				t.Fatalf("got %d outputs, want %d", len(resp.Outputs), len(tt.wantOut))
			}
			for i, o := range resp.Outputs {
				if o.Component != tt.wantOut[i] {
					t.Errorf("output %d = %q, want %q", i, o.Component, tt.wantOut[i])
				}
				if !strings.Contains(o.SVG, "<svg") {
					t.Errorf("output %d has no SVG", i)
				}
			}
		})
	}
}

func TestUpdateScatterFiltered(t *testing.T) {
	h := newTestServer(t, auth.Config{}, true)
	w := do(t, h, "POST", "/api/v1/update", `{"changed":["payload-slider"],"state":{"site":"siteA","payload":[0,1000]}}`)

	var resp updateResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if got := resp.Outputs[0].Figure.PointCount(); got != 1 {
		t.Errorf("scatter points = %d, want 1", got)
	}
}

func TestChart(t *testing.T) {
	h := newTestServer(t, auth.Config{}, true)

	tests := []struct {
		name       string
		target     string
		wantStatus int
		wantType   string
	}{
		{"pie svg", "/api/v1/charts/success-pie-chart", http.StatusOK, "image/svg+xml"},
		{"scatter png", "/api/v1/charts/success-payload-scatter-chart?site=siteB&low=0&high=5000&format=png", http.StatusOK, "image/png"},
		{"scatter json", "/api/v1/charts/success-payload-scatter-chart?format=json", http.StatusOK, "application/json"},
		{"unknown component", "/api/v1/charts/nope", http.StatusNotFound, "application/json"},
		{"bad low", "/api/v1/charts/success-pie-chart?low=abc", http.StatusBadRequest, "application/json"},
		{"bad high", "/api/v1/charts/success-pie-chart?high=abc", http.StatusBadRequest, "application/json"},
		{"inverted range", "/api/v1/charts/success-pie-chart?low=9000&high=100", http.StatusBadRequest, "application/json"},
		{"bad format", "/api/v1/charts/success-pie-chart?format=gif", http.StatusBadRequest, "application/json"},
		{"NaN low json", "/api/v1/charts/success-payload-scatter-chart?low=NaN&high=5000&format=json", http.StatusBadRequest, "application/json"},
		{"infinite bounds json", "/api/v1/charts/success-payload-scatter-chart?low=-Inf&high=Inf&format=json", http.StatusBadRequest, "application/json"},
		{"NaN bounds svg", "/api/v1/charts/success-payload-scatter-chart?low=NaN&high=NaN", http.StatusBadRequest, "application/json"},
		{"infinite high svg", "/api/v1/charts/success-pie-chart?high=Inf", http.StatusBadRequest, "application/json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, "GET", tt.target, "")
			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", w.Code, tt.wantStatus, w.Body.String())
			}
			if got := w.Header().Get("Content-Type"); got != tt.wantType {
				t.Errorf("content type = %q, want %q", got, tt.wantType)
			}
		})
	}
}

func TestChartPNGMagic(t *testing.T) {
	h := newTestServer(t, auth.Config{}, true)
	w := do(t, h, "GET", "/api/v1/charts/success-pie-chart?format=png", "")
	if !bytes.HasPrefix(w.Body.Bytes(), []byte("\x89PNG")) {
		t.Error("body is not a PNG")
	}
}

func TestChartRenderLimit(t *testing.T) {
	app := testApp(t)
	limiter := newRenderLimiter(1)
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/charts/{component}", chartHandler(testLogger(), app, render.New(0, 0), limiter, false))

	req := httptest.NewRequest("GET", "/api/v1/charts/success-pie-chart", nil)
	ip := httputil.ClientIP(req, false)
	if !limiter.acquire(ip) {
		t.Fatal("first acquire failed")
	}

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", w.Code)
	}

	limiter.release(ip)
	w = httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("status after release = %d, want 200", w.Code)
	}
	if n := limiter.count(ip); n != 0 {
		t.Errorf("in-flight after request = %d, want 0", n)
	}
}

// TestInitialUpdateUsesLayoutRange posts the layout's slider value back
// unchanged, as the page does on first load, and expects the dataset bounds
// in the scatter title rather than the slider's step-snapped ends.
func TestInitialUpdateUsesLayoutRange(t *testing.T) {
	h := newTestServer(t, auth.Config{}, true)

	var l dashboard.Layout
	if err := json.NewDecoder(do(t, h, "GET", "/api/v1/layout", "").Body).Decode(&l); err != nil {
		t.Fatal(err)
	}
	body, err := json.Marshal(map[string]any{
		"changed": []string{},
		"state":   map[string]any{"site": l.Dropdown.Value, "payload": l.Slider.Value},
	})
	if err != nil {
		t.Fatal(err)
	}

	w := do(t, h, "POST", "/api/v1/update", string(body))
	var resp updateResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Outputs) != 2 {
		t.Fatalf("got %d outputs, want 2", len(resp.Outputs))
	}
	if title := resp.Outputs[1].Figure.Title; !strings.Contains(title, "500kg - 9000kg") {
		t.Errorf("scatter title = %q, want dataset bounds 500kg - 9000kg", title)
	}
}

func TestUpdateRenderLimit(t *testing.T) {
	app := testApp(t)
	limiter := newRenderLimiter(1)
	handler := updateHandler(testLogger(), app, render.New(0, 0), limiter, false)

	newReq := func() *http.Request {
		return httptest.NewRequest("POST", "/api/v1/update", strings.NewReader(`{}`))
	}
	ip := httputil.ClientIP(newReq(), false)
	if !limiter.acquire(ip) {
		t.Fatal("first acquire failed")
	}

	w := httptest.NewRecorder()
	handler(w, newReq())
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header")
	}

	limiter.release(ip)
	w = httptest.NewRecorder()
	handler(w, newReq())
	if w.Code != http.StatusOK {
		t.Errorf("status after release = %d, want 200", w.Code)
	}
	if n := limiter.count(ip); n != 0 {
		t.Errorf("in-flight after request = %d, want 0", n)
	}
}

func TestStateFromRejectsNonFinite(t *testing.T) {
	app := testApp(t)
	tests := []struct {
		name    string
		payload []float64
	}{
		{"NaN low", []float64{math.NaN(), 5000}},
		{"NaN both", []float64{math.NaN(), math.NaN()}},
		{"infinite range", []float64{math.Inf(-1), math.Inf(1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := stateFrom(app, "", tt.payload); err == nil {
				t.Error("expected error for non-finite payload bounds")
			}
		})
	}
}

func TestWriteJSONEncodeFailure(t *testing.T) {
	w := httptest.NewRecorder()
	err := writeJSON(w, http.StatusOK, map[string]float64{"x": math.NaN()})
	if err == nil {
		t.Fatal("expected encode error")
	}
	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}

	var resp map[string]any
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("error body is not JSON: %v", err)
	}
	if resp["error"] == nil {
		t.Error("expected error field in response")
	}
}

func TestMetadata(t *testing.T) {
	h := newTestServer(t, auth.Config{}, true)
	w := do(t, h, "GET", "/api/v1/dataset/metadata", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var resp metadataResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Source != "test" || resp.Records != 4 {
		t.Errorf("source/records = %q/%d", resp.Source, resp.Records)
	}
	if resp.PayloadMin != 500 || resp.PayloadMax != 9000 {
		t.Errorf("bounds = %v..%v, want 500..9000", resp.PayloadMin, resp.PayloadMax)
	}
	if len(resp.Sites) != 2 || resp.Sites[0] != "siteA" {
		t.Errorf("sites = %v", resp.Sites)
	}
}

func TestStaticAndProbes(t *testing.T) {
	h := newTestServer(t, auth.Config{Enabled: true, Token: "tok"}, false)

	tests := []struct {
		name       string
		target     string
		wantStatus int
	}{
		{"index", "/", http.StatusOK},
		{"asset", "/app.js", http.StatusOK},
		{"missing asset", "/nope.css", http.StatusNotFound},
		{"healthz", "/healthz", http.StatusOK},
		{"readyz before ready", "/readyz", http.StatusServiceUnavailable},
		{"metrics", "/metrics", http.StatusOK},
		{"api needs token", "/api/v1/layout", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, "GET", tt.target, "")
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}

func TestAuthorizedAPI(t *testing.T) {
	h := newTestServer(t, auth.Config{Enabled: true, Token: "tok"}, true)
	req := httptest.NewRequest("GET", "/api/v1/layout", nil)
	req.Header.Set("Authorization", "Bearer tok")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}

func TestRequestIDHeader(t *testing.T) {
	h := newTestServer(t, auth.Config{}, true)
	w := do(t, h, "GET", "/healthz", "")
	if w.Header().Get(httputil.RequestIDHeader) == "" {
		t.Error("expected X-Request-ID on response")
	}
}

func TestProbePath(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"/healthz", true},
		{"/readyz", true},
		{"/api/v1/layout", false},
		{"/", false},
	}
	for _, tt := range tests {
		if got := probePath(tt.path); got != tt.want {
			t.Errorf("probePath(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}
