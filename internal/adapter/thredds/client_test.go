package thredds

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testResponse() subsetResponse {
	return subsetResponse{
		Times: []string{"2020-06-01T00:00:00Z", "2020-06-01T01:00:00Z"},
		Lat:   [][]float64{{39.0, 39.0}, {39.1, 39.1}},
		Lon:   [][]float64{{-74.5, -74.4}, {-74.5, -74.4}},
		U: [][][]float64{
			{{3, 4}, {5, 6}},
			{{1, 2}, {3, 4}},
		},
		V: [][][]float64{
			{{0, 0}, {1, 1}},
			{{2, 2}, {3, 3}},
		},
	}
}

func TestClient_FetchWindow_Success(t *testing.T) {
	start := time.Date(2020, 6, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2020, 6, 1, 23, 0, 0, 0, time.UTC)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "160", r.URL.Query().Get("height"))
		assert.Equal(t, "2020-06-01T00:00:00Z", r.URL.Query().Get("start"))
		assert.Equal(t, "2020-06-01T23:00:00Z", r.URL.Query().Get("end"))

		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(testResponse()))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second, discardLogger())
	field, err := c.FetchWindow(context.Background(), 160, start, end)
	require.NoError(t, err)

	assert.Equal(t, 160, field.HeightMeters)
	require.Len(t, field.Times, 2)
	assert.Equal(t, time.Date(2020, 6, 1, 1, 0, 0, 0, time.UTC), field.Times[1].UTC())
	assert.Equal(t, 6.0, field.U[0][1][1])
	assert.Equal(t, 3.0, field.V[1][1][0])
}

func TestClient_FetchWindow_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream archive unavailable"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second, discardLogger())
	_, err := c.FetchWindow(context.Background(), 10, time.Now(), time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
	assert.Contains(t, err.Error(), "upstream archive unavailable")
}

func TestClient_FetchWindow_ShapeMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		resp := testResponse()
		resp.U = resp.U[:1] // one grid for two timesteps
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second, discardLogger())
	_, err := c.FetchWindow(context.Background(), 10, time.Now(), time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dataset response")
}

func TestClient_FetchWindow_BadTimestamp(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		resp := testResponse()
		resp.Times[0] = "06/01/2020 00:00"
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second, discardLogger())
	_, err := c.FetchWindow(context.Background(), 10, time.Now(), time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse timestep")
}

func TestClient_FetchWindow_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 50*time.Millisecond, discardLogger())
	_, err := c.FetchWindow(context.Background(), 10, time.Now(), time.Now())
	require.Error(t, err)
}
