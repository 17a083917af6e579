package loader

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchHTTP(t *testing.T) {
	body := bytes.Repeat([]byte("x"), 100_000)
	agents := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		agents <- r.Header.Get("User-Agent")
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	var calls int
	var last, total int64
	data, err := fetchWith(context.Background(), srv.Client(), srv.URL+"/env.hdr", func(loaded, size int64) {
		calls++
		last, total = loaded, size
	})
	require.NoError(t, err)
	assert.Equal(t, body, data)
	assert.Equal(t, defaultUserAgent, <-agents)
	assert.Positive(t, calls)
	assert.Equal(t, int64(len(body)), last)
	// Chunked bodies report their size once complete.
	assert.Equal(t, int64(len(body)), total)
}

func TestFetchHTTPStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	defer srv.Close()

	_, err := Fetch(context.Background(), srv.URL, nil)
	assert.ErrorIs(t, err, ErrUnexpectedStatus)
	assert.ErrorContains(t, err, "410")
}

func TestFetchFile(t *testing.T) {
	src := writeFile(t, t.TempDir(), "blob.bin", []byte("abcdef"))

	var seen []string
	data, err := Fetch(context.Background(), src, func(loaded, total int64) {
		seen = append(seen, FormatProgress(loaded, total))
	})
	require.NoError(t, err)
	assert.Equal(t, []byte("abcdef"), data)
	assert.Equal(t, "100% loaded", seen[len(seen)-1])

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Fetch(ctx, src, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReadAllWithProgressUnknownSize(t *testing.T) {
	var last, total int64
	data, err := readAllWithProgress(strings.NewReader("hello"), -1, func(loaded, size int64) {
		last, total = loaded, size
	})
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
	assert.Equal(t, int64(5), last)
	assert.Equal(t, int64(5), total)
}

func TestFormatProgress(t *testing.T) {
	assert.Equal(t, "0% loaded", FormatProgress(0, 200))
	assert.Equal(t, "50% loaded", FormatProgress(100, 200))
	assert.Equal(t, "100% loaded", FormatProgress(200, 200))
	assert.Equal(t, "42 bytes loaded", FormatProgress(42, -1))
}

func TestResolveURI(t *testing.T) {
	cases := []struct {
		name, base, uri, want string
	}{
		{"remote relative", "https://cdn.example.com/models/helmet.gltf?v=2", "tex/albedo.png", "https://cdn.example.com/models/tex/albedo.png"},
		{"remote parent", "https://cdn.example.com/models/helmet.gltf", "../shared/buf.bin", "https://cdn.example.com/shared/buf.bin"},
		{"local escaped", filepath.Join("public", "helmet.gltf"), "my%20tex.png", filepath.Join("public", "my tex.png")},
		{"local to remote", filepath.Join("public", "helmet.gltf"), "https://cdn.example.com/a.bin", "https://cdn.example.com/a.bin"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := resolveURI(tc.base, tc.uri)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}
