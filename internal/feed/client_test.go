package feed

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Fetch(t *testing.T) {
	var gotQuery string
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("d1")
		gotUA = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte("<kml>hello</kml>"))
	}))
	defer srv.Close()

	c := NewClient(5 * time.Second)
	cutoff := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	body, err := c.Fetch(t.Context(), srv.URL, cutoff)
	require.NoError(t, err)

	assert.Equal(t, "<kml>hello</kml>", string(body))
	assert.Equal(t, "2024-06-01T12:00:00Z", gotQuery)
	assert.Contains(t, gotUA, "Mozilla/5.0")
}

func TestClient_FetchInvalidURL(t *testing.T) {
	c := NewClient(time.Second)

	tests := []struct {
		name string
		url  string
	}{
		{"empty", ""},
		{"no scheme", "share.garmin.com/Feed/Share/JohnDoe"},
		{"garbage", "://not-a-url"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Fetch(t.Context(), tt.url, time.Now())
			assert.ErrorIs(t, err, ErrInvalidURL)
		})
	}
}

func TestClient_FetchBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewClient(time.Second)
	_, err := c.Fetch(t.Context(), srv.URL, time.Now())
	assert.ErrorIs(t, err, ErrStatus)
}

func TestClient_FetchNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // closed before use

	c := NewClient(time.Second)
	_, err := c.Fetch(t.Context(), srv.URL, time.Now())
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidURL)
	assert.NotErrorIs(t, err, ErrStatus)
}
