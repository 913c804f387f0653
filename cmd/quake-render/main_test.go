package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/mr1hm/go-quake-map/internal/config"
	"github.com/mr1hm/go-quake-map/internal/observability"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const feed = `{"type":"FeatureCollection","features":[
  {"type":"Feature","id":"a","properties":{"mag":5,"place":"Deep","time":1609459200000},"geometry":{"type":"Point","coordinates":[-116.79,33.65,95]}},
  {"type":"Feature","id":"b","properties":{"mag":null,"place":"Broken","time":1609459200000},"geometry":{"type":"Point","coordinates":[-116.79,33.65,5]}}
]}`

func loadConfig(t *testing.T, feedURL string) *config.Config {
	t.Helper()
	t.Setenv("FEED_URL", feedURL)
	t.Setenv("MAP_CONFIG", "")
	cfg, err := config.Load()
	require.NoError(t, err)
	return cfg
}

func TestRun_WritesPageAndGeoJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(feed))
	}))
	defer srv.Close()

	dir := t.TempDir()
	opts := Options{
		Output:  filepath.Join(dir, "index.html"),
		GeoJSON: filepath.Join(dir, "quakes.geojson"),
	}

	err := run(context.Background(), loadConfig(t, srv.URL), opts, observability.NewMetricsForTesting())
	require.NoError(t, err)

	page, err := os.ReadFile(opts.Output)
	require.NoError(t, err)
	assert.Contains(t, string(page), "quake-map-data")
	assert.Contains(t, string(page), "Deep")

	raw, err := os.ReadFile(opts.GeoJSON)
	require.NoError(t, err)
	fc, err := geojson.UnmarshalFeatureCollection(raw)
	require.NoError(t, err)
	require.Len(t, fc.Features, 1)
	assert.Equal(t, "a", fc.Features[0].ID)
}

func TestRun_StrictFailsOnMalformed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(feed))
	}))
	defer srv.Close()

	out := filepath.Join(t.TempDir(), "index.html")
	err := run(context.Background(), loadConfig(t, srv.URL), Options{Output: out, Strict: true}, observability.NewMetricsForTesting())
	require.Error(t, err)

	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr))
}

func TestRun_FetchFailureWritesNothing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	dir := t.TempDir()
	opts := Options{
		Output:  filepath.Join(dir, "index.html"),
		GeoJSON: filepath.Join(dir, "quakes.geojson"),
	}

	err := run(context.Background(), loadConfig(t, srv.URL), opts, observability.NewMetricsForTesting())
	require.Error(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestWriteFile_ReplacesExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.html")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0o644))

	require.NoError(t, writeFile(path, []byte("new")))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "new", string(got))
}
