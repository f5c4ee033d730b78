package stations

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WasatchCloudBase/livetrack/pkg/core"
)

func stationServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRegistry_Annotations(t *testing.T) {
	primary := stationServer(t, `{"stations":[
		{"name":"KSLC","latitude":40.77,"longitude":-111.97},
		{"name":"","latitude":0,"longitude":0}
	]}`)
	secondary := stationServer(t, `{"stations":[
		{"name":"FPS","latitude":40.45,"longitude":-111.90}
	]}`)

	r := NewRegistry(primary.URL, secondary.URL, time.Second, nil)
	got := r.Annotations(t.Context())

	require.Len(t, got, 2)
	assert.Equal(t, "KSLC", got[0].Name)
	assert.Equal(t, core.SourcePreferred, got[0].Priority)
	assert.Equal(t, core.CategoryStation, got[0].Category)
	assert.Equal(t, "FPS", got[1].Name)
	assert.Equal(t, core.SourceSecondary, got[1].Priority)
}

func TestRegistry_SourceFailureDegrades(t *testing.T) {
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(bad.Close)
	secondary := stationServer(t, `{"stations":[{"name":"FPS","latitude":40.45,"longitude":-111.90}]}`)

	r := NewRegistry(bad.URL, secondary.URL, time.Second, nil)
	got := r.Annotations(t.Context())

	require.Len(t, got, 1)
	assert.Equal(t, "FPS", got[0].Name)
}

func TestRegistry_EmptyURLsSkipped(t *testing.T) {
	r := NewRegistry("", "", time.Second, nil)
	assert.Empty(t, r.Annotations(t.Context()))
}
