package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = "header\nP1,Oak,,,Quercus,alba,,-76.9440,38.9820,,5\n"

func TestHTTPSource_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write([]byte(sample))
	}))
	defer srv.Close()

	src := NewHTTPSource(srv.URL+"/plants.csv", 5*time.Second)
	got, err := src.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, sample, got)
	assert.Equal(t, srv.URL+"/plants.csv", src.Name())
}

func TestHTTPSource_NonOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewHTTPSource(srv.URL, time.Second).Fetch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 404")
}

func TestHTTPSource_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := NewHTTPSource(srv.URL, 0).Fetch(ctx)
	assert.Error(t, err)
}

func TestFileSource_Fetch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plants.csv")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))

	got, err := NewFileSource(path).Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, sample, got)

	_, err = NewFileSource(filepath.Join(t.TempDir(), "missing.csv")).Fetch(context.Background())
	assert.Error(t, err)
}

func TestNewSource(t *testing.T) {
	assert.IsType(t, &HTTPSource{}, NewSource("https://example.org/plants.csv", time.Second))
	assert.IsType(t, &FileSource{}, NewSource("file:///data/plants.csv", time.Second))
	assert.IsType(t, &FileSource{}, NewSource("./plants.csv", time.Second))
	assert.Equal(t, "/data/plants.csv", NewSource("file:///data/plants.csv", 0).Name())
}
