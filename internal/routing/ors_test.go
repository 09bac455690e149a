package routing

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestORSTable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v2/matrix/driving-car", r.URL.Path)
		assert.Equal(t, "secret-key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req orsMatrixRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, [][2]float64{{1, 2}, {3, 4}}, req.Locations)
		assert.Equal(t, []string{"duration", "distance"}, req.Metrics)

		w.Write([]byte(`{"durations": [[0, 60.2], [59.8, 0]], "distances": [[0, 900], [910, 0]]}`))
	}))
	defer srv.Close()

	o := NewORS(srv.URL, "secret-key")
	got, err := o.Table(context.Background(), "car", [][2]float64{{1, 2}, {3, 4}})
	require.NoError(t, err)

	assert.Equal(t, int64(60), got.Durations.At(0, 1))
	assert.Equal(t, int64(60), got.Durations.At(1, 0))
	require.NotNil(t, got.Distances)
	assert.Equal(t, int64(900), got.Distances.At(0, 1))
}

func TestORSTableUnknownProfilePassesThrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/matrix/wheelchair", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"))
		w.Write([]byte(`{"durations": [[0]]}`))
	}))
	defer srv.Close()

	got, err := NewORS(srv.URL, "").Table(context.Background(), "wheelchair", [][2]float64{{0, 0}})
	require.NoError(t, err)
	assert.Nil(t, got.Distances)
}

func TestORSTableErrorMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error": {"message": "out of service area"}}`))
	}))
	defer srv.Close()

	_, err := NewORS(srv.URL, "k").Table(context.Background(), "car", [][2]float64{{0, 0}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400")
	assert.Contains(t, err.Error(), "out of service area")
}
