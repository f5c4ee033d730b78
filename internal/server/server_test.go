package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WasatchCloudBase/livetrack/internal/cluster"
	"github.com/WasatchCloudBase/livetrack/pkg/core"
)

type stubTracks struct {
	points  []core.TrackPoint
	gotDays int
}

func (s *stubTracks) FetchTracks(_ context.Context, _ []core.Tracker, dayWindow int) []core.TrackPoint {
	s.gotDays = dayWindow
	return s.points
}

type stubRoster struct {
	trackers []core.Tracker
	err      error
}

func (s *stubRoster) Trackers(context.Context) ([]core.Tracker, error) {
	return s.trackers, s.err
}

type stubAnnotations struct {
	items []core.Annotation
}

func (s *stubAnnotations) Annotations(context.Context) []core.Annotation {
	return s.items
}

func newTestServer(t *testing.T, tracks *stubTracks, roster *stubRoster, ann *stubAnnotations) *httptest.Server {
	t.Helper()
	h := NewHandler(tracks, roster, ann, cluster.NewReducer(1.0), nil)
	mux := http.NewServeMux()
	h.Register(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestHandleTracks(t *testing.T) {
	tracks := &stubTracks{points: []core.TrackPoint{
		{TrackerName: "JohnDoe", Time: time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)},
	}}
	roster := &stubRoster{trackers: []core.Tracker{{Name: "JohnDoe"}}}
	srv := newTestServer(t, tracks, roster, &stubAnnotations{})

	resp, err := http.Get(srv.URL + "/api/v1/tracks?days=3")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var payload struct {
		Days   int               `json:"days"`
		Points []core.TrackPoint `json:"points"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))

	assert.Equal(t, 3, payload.Days)
	assert.Equal(t, 3, tracks.gotDays)
	require.Len(t, payload.Points, 1)
	assert.Equal(t, "JohnDoe", payload.Points[0].TrackerName)
}

func TestHandleTracks_DefaultsAndValidation(t *testing.T) {
	tracks := &stubTracks{}
	roster := &stubRoster{}
	srv := newTestServer(t, tracks, roster, &stubAnnotations{})

	resp, err := http.Get(srv.URL + "/api/v1/tracks")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, tracks.gotDays)

	for _, bad := range []string{"0", "-1", "31", "abc"} {
		resp, err := http.Get(srv.URL + "/api/v1/tracks?days=" + bad)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "days=%s", bad)
	}
}

func TestHandleTracks_RosterFailure(t *testing.T) {
	roster := &stubRoster{err: errors.New("sheet unavailable")}
	srv := newTestServer(t, &stubTracks{}, roster, &stubAnnotations{})

	resp, err := http.Get(srv.URL + "/api/v1/tracks")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestHandleAnnotations(t *testing.T) {
	ann := &stubAnnotations{items: []core.Annotation{
		{Name: "preferred", Latitude: 40.5, Longitude: -111.8, Category: core.CategoryStation, Priority: core.SourcePreferred},
		{Name: "secondary", Latitude: 40.5001, Longitude: -111.8, Category: core.CategoryStation, Priority: core.SourceSecondary},
	}}
	srv := newTestServer(t, &stubTracks{}, &stubRoster{}, ann)

	resp, err := http.Get(srv.URL + "/api/v1/annotations?latDelta=0.01&lonDelta=0.01")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var payload struct {
		Annotations []core.Annotation `json:"annotations"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))

	require.Len(t, payload.Annotations, 1)
	assert.Equal(t, "preferred", payload.Annotations[0].Name)
}

func TestHandleAnnotations_InvalidSpan(t *testing.T) {
	srv := newTestServer(t, &stubTracks{}, &stubRoster{}, &stubAnnotations{})

	for _, query := range []string{"", "latDelta=1", "latDelta=0&lonDelta=1", "latDelta=x&lonDelta=1"} {
		resp, err := http.Get(srv.URL + "/api/v1/annotations?" + query)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "query %q", query)
	}
}

func TestHealthcheck(t *testing.T) {
	srv := newTestServer(t, &stubTracks{}, &stubRoster{}, &stubAnnotations{})

	resp, err := http.Get(srv.URL + "/healthcheck")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var payload map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	assert.Equal(t, "ok", payload["status"])
}
