// Package server exposes the small HTTP API consumed by the web UI.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/WasatchCloudBase/livetrack/internal/cluster"
	"github.com/WasatchCloudBase/livetrack/pkg/core"
)

// TrackService produces the merged track list for a batch of trackers.
type TrackService interface {
	FetchTracks(ctx context.Context, trackers []core.Tracker, dayWindow int) []core.TrackPoint
}

// TrackerSource supplies the current tracker roster.
type TrackerSource interface {
	Trackers(ctx context.Context) ([]core.Tracker, error)
}

// AnnotationSource supplies the fixed map annotations.
type AnnotationSource interface {
	Annotations(ctx context.Context) []core.Annotation
}

// Handler wires the orchestrator, roster and clusterer behind HTTP
// routes so the routes stay small.
type Handler struct {
	tracks      TrackService
	roster      TrackerSource
	annotations AnnotationSource
	reducer     *cluster.Reducer
	log         *slog.Logger
}

// NewHandler constructs a Handler.
func NewHandler(tracks TrackService, roster TrackerSource, annotations AnnotationSource, reducer *cluster.Reducer, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{
		tracks:      tracks,
		roster:      roster,
		annotations: annotations,
		reducer:     reducer,
		log:         log,
	}
}

// Register attaches API routes to the provided mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/v1/tracks", h.handleTracks)
	mux.HandleFunc("/api/v1/annotations", h.handleAnnotations)
	mux.HandleFunc("/healthcheck", h.handleHealthcheck)
}

// handleTracks runs a fetch batch for the full roster and returns the
// merged points. The days parameter defaults to 1.
func (h *Handler) handleTracks(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	days := 1
	if v := r.URL.Query().Get("days"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 || parsed > 30 {
			http.Error(w, "invalid days parameter", http.StatusBadRequest)
			return
		}
		days = parsed
	}

	trackers, err := h.roster.Trackers(r.Context())
	if err != nil {
		h.log.Error("Failed to load tracker roster", "error", err)
		http.Error(w, "roster unavailable", http.StatusBadGateway)
		return
	}

	start := time.Now()
	points := h.tracks.FetchTracks(r.Context(), trackers, days)
	h.log.Debug("Served track batch",
		"trackers", len(trackers), "points", len(points), "elapsed", time.Since(start))

	writeJSON(w, struct {
		Days   int               `json:"days"`
		Points []core.TrackPoint `json:"points"`
	}{Days: days, Points: points})
}

// handleAnnotations returns the clustered marker set for the caller's
// viewport span.
func (h *Handler) handleAnnotations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	latDelta, errLat := strconv.ParseFloat(r.URL.Query().Get("latDelta"), 64)
	lonDelta, errLon := strconv.ParseFloat(r.URL.Query().Get("lonDelta"), 64)
	if errLat != nil || errLon != nil || latDelta <= 0 || lonDelta <= 0 {
		http.Error(w, "invalid viewport span", http.StatusBadRequest)
		return
	}

	items := h.annotations.Annotations(r.Context())
	reduced := h.reducer.Reduce(items, core.Span{LatDelta: latDelta, LonDelta: lonDelta})

	writeJSON(w, struct {
		Annotations []core.Annotation `json:"annotations"`
	}{Annotations: reduced})
}

func (h *Handler) handleHealthcheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// New builds an http.Server with sane timeouts for the given handler.
func New(listen string, h *Handler) *http.Server {
	mux := http.NewServeMux()
	h.Register(mux)
	return &http.Server{
		Addr:              listen,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
	}
}
