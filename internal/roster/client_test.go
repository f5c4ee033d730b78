package roster

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Trackers(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"values":[
			["Pilot Name","Inactive","Share URL"],
			["JohnDoe","FALSE","https://share.garmin.com/Feed/Share/JohnDoe"],
			["Retired","TRUE","https://share.garmin.com/Feed/Share/Retired"],
			["ShortRow"],
			["","FALSE","https://share.garmin.com/Feed/Share/NoName"],
			["JaneDoe","FALSE","https://share.garmin.com/Feed/Share/JaneDoe"]
		]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second, nil)
	trackers, err := c.Trackers(t.Context())
	require.NoError(t, err)

	require.Len(t, trackers, 2)
	assert.Equal(t, "JohnDoe", trackers[0].Name)
	assert.Equal(t, "JaneDoe", trackers[1].Name)
	assert.Equal(t, "https://share.garmin.com/Feed/Share/JohnDoe", trackers[0].ShareURL)
}

func TestClient_TrackersBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second, nil)
	_, err := c.Trackers(t.Context())
	assert.Error(t, err)
}

func TestClient_TrackersBadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second, nil)
	_, err := c.Trackers(t.Context())
	assert.Error(t, err)
}
