package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/star/launchdash/internal/charts"
	"github.com/star/launchdash/internal/dashboard"
	"github.com/star/launchdash/internal/filter"
	"github.com/star/launchdash/internal/httputil"
	"github.com/star/launchdash/internal/render"
)

// maxUpdateBody caps POST /api/v1/update request bodies.
const maxUpdateBody = 64 << 10

// writeJSON encodes v before writing the status line, so an unencodable value
// turns into a 500 instead of a truncated success response.
func writeJSON(w http.ResponseWriter, status int, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"response encoding failed"}` + "\n"))
		return fmt.Errorf("encoding response: %w", err)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(append(data, '\n'))
	return nil
}

func logEncodeError(logger *slog.Logger, r *http.Request, err error) {
	if err != nil {
		logger.Error("response encoding failed",
			"component", "api",
			"request_id", httputil.RequestIDFrom(r.Context()),
			"path", r.URL.Path,
			"error", err,
		)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// layoutHandler serves the static page description.
// GET /api/v1/layout
func layoutHandler(app *dashboard.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, app.Layout())
	}
}

type updateRequest struct {
	Changed []string    `json:"changed"`
	State   updateState `json:"state"`
}

type updateState struct {
	Site    string    `json:"site"`
	Payload []float64 `json:"payload"`
}

type updateOutput struct {
	Component string             `json:"component"`
	Figure    charts.Description `json:"figure"`
	SVG       string             `json:"svg"`
}

type updateResponse struct {
	Outputs []updateOutput `json:"outputs"`
}

// stateFrom turns wire values into a dashboard.State, filling gaps from the
// dataset defaults.
func stateFrom(app *dashboard.App, site string, payload []float64) (dashboard.State, error) {
	st := dashboard.DefaultState(app.Dataset())
	if site != "" {
		st.Site = filter.Selection(site)
	}
	switch len(payload) {
	case 0:
	case 2:
		st.Payload = filter.PayloadRange{Low: payload[0], High: payload[1]}
	default:
		return st, fmt.Errorf("payload must be [low, high], got %d values", len(payload))
	}
	if !finite(st.Payload.Low) || !finite(st.Payload.High) {
		return st, errors.New("payload bounds must be finite numbers")
	}
	if st.Payload.Low > st.Payload.High {
		return st, fmt.Errorf("payload low %v exceeds high %v", st.Payload.Low, st.Payload.High)
	}
	return st, nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// updateHandler recomputes the charts that depend on the changed controls.
// The SVG renders count against the same per-IP cap as the chart route.
// POST /api/v1/update
func updateHandler(logger *slog.Logger, app *dashboard.App, renderer *render.Renderer, limiter *renderLimiter, trustProxy bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req updateRequest
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxUpdateBody))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
			return
		}

		st, err := stateFrom(app, req.State.Site, req.State.Payload)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		ip := httputil.ClientIP(r, trustProxy)
		if !limiter.acquire(ip) {
			w.Header().Set("Retry-After", "1")
			writeError(w, http.StatusTooManyRequests, "too many concurrent chart renders")
			return
		}
		defer limiter.release(ip)

		outs := app.Update(req.Changed, st)
		resp := updateResponse{Outputs: make([]updateOutput, 0, len(outs))}
		for _, o := range outs {
			svg, err := renderer.SVG(o.Figure)
			if err != nil {
				logger.Error("chart render failed",
					"component", "api",
					"request_id", httputil.RequestIDFrom(r.Context()),
					"output", o.Component,
					"error", err,
				)
				writeError(w, http.StatusInternalServerError, "chart render failed")
				return
			}
			resp.Outputs = append(resp.Outputs, updateOutput{
				Component: o.Component,
				Figure:    o.Figure,
				SVG:       svg,
			})
		}

		logEncodeError(logger, r, writeJSON(w, http.StatusOK, resp))
	}
}

func parseKg(v string, def float64) (float64, error) {
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || !finite(f) {
		return 0, errors.New("must be a finite number")
	}
	return f, nil
}

// chartHandler renders one chart for the selection given in the query.
// GET /api/v1/charts/{component}?site=CCAFS%20LC-40&low=0&high=5000&format=png
func chartHandler(logger *slog.Logger, app *dashboard.App, renderer *render.Renderer, limiter *renderLimiter, trustProxy bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		component := r.PathValue("component")
		if _, ok := app.Binding(component); !ok {
			writeError(w, http.StatusNotFound, fmt.Sprintf("unknown chart %q", component))
			return
		}

		q := r.URL.Query()
		bounds := app.Dataset().Payload()
		low, err := parseKg(q.Get("low"), bounds.Min)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid low parameter, "+err.Error())
			return
		}
		high, err := parseKg(q.Get("high"), bounds.Max)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid high parameter, "+err.Error())
			return
		}
		st, err := stateFrom(app, q.Get("site"), []float64{low, high})
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		format := q.Get("format")
		if format == "json" {
			d, _ := app.Compute(component, st)
			logEncodeError(logger, r, writeJSON(w, http.StatusOK, d))
			return
		}
		f, err := render.ParseFormat(format)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		ip := httputil.ClientIP(r, trustProxy)
		if !limiter.acquire(ip) {
			w.Header().Set("Retry-After", "1")
			writeError(w, http.StatusTooManyRequests, "too many concurrent chart renders")
			return
		}
		defer limiter.release(ip)

		d, _ := app.Compute(component, st)
		var buf bytes.Buffer
		if err := renderer.Render(d, f, &buf); err != nil {
			logger.Error("chart render failed",
				"component", "api",
				"request_id", httputil.RequestIDFrom(r.Context()),
				"output", component,
				"format", string(f),
				"error", err,
			)
			writeError(w, http.StatusInternalServerError, "chart render failed")
			return
		}

		w.Header().Set("Content-Type", f.ContentType())
		w.Header().Set("Cache-Control", "no-store")
		w.Write(buf.Bytes())
	}
}

type metadataResponse struct {
	Source     string             `json:"source"`
	LoadedAt   string             `json:"loaded_at"`
	Records    int                `json:"records"`
	PayloadMin float64            `json:"payload_min_kg"`
	PayloadMax float64            `json:"payload_max_kg"`
	Sites      []string           `json:"sites"`
	Options    []dashboard.Option `json:"options"`
}

// metadataHandler describes the loaded dataset.
// GET /api/v1/dataset/metadata
func metadataHandler(app *dashboard.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ds := app.Dataset()
		b := ds.Payload()
		writeJSON(w, http.StatusOK, metadataResponse{
			Source:     ds.Source,
			LoadedAt:   ds.LoadedAt.UTC().Format(time.RFC3339),
			Records:    ds.Len(),
			PayloadMin: b.Min,
			PayloadMax: b.Max,
			Sites:      ds.Sites(),
			Options:    dashboard.SiteOptions(ds),
		})
	}
}
