package loader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const (
	// DefaultFetchTimeout bounds a single download.
	DefaultFetchTimeout = 60 * time.Second

	defaultUserAgent = "oxy-reveal/1.0"
)

// ErrUnexpectedStatus is returned when a download answers with a non-200 status.
var ErrUnexpectedStatus = errors.New("unexpected HTTP status")

// ProgressFunc is called as bytes arrive. Total is -1 when the size is unknown.
type ProgressFunc func(loaded, total int64)

// newHTTPClient returns the client used when none is configured.
func newHTTPClient() *http.Client {
	return &http.Client{Timeout: DefaultFetchTimeout}
}

// Fetch reads src fully. http and https URLs are downloaded; anything else is read from disk.
//
// Parameters:
//   - ctx: cancels the transfer
//   - src: a URL or a file path
//   - progress: optional byte progress callback
//
// Returns:
//   - []byte: the contents
//   - error: ErrUnexpectedStatus for non-200 responses, or the transport or file error
func Fetch(ctx context.Context, src string, progress ProgressFunc) ([]byte, error) {
	return fetchWith(ctx, newHTTPClient(), src, progress)
}

func fetchWith(ctx context.Context, client *http.Client, src string, progress ProgressFunc) ([]byte, error) {
	if isRemote(src) {
		return fetchHTTP(ctx, client, src, progress)
	}
	return fetchFile(ctx, src, progress)
}

func fetchHTTP(ctx context.Context, client *http.Client, src string, progress ProgressFunc) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", src, err)
	}
	req.Header.Set("User-Agent", defaultUserAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", src, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: %w: %d", src, ErrUnexpectedStatus, resp.StatusCode)
	}
	return readAllWithProgress(resp.Body, resp.ContentLength, progress)
}

func fetchFile(ctx context.Context, src string, progress ProgressFunc) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(src)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", src, err)
	}
	defer f.Close()

	total := int64(-1)
	if info, err := f.Stat(); err == nil {
		total = info.Size()
	}
	return readAllWithProgress(&contextReader{ctx: ctx, r: f}, total, progress)
}

// readAllWithProgress copies r into memory, reporting every read to progress.
func readAllWithProgress(r io.Reader, total int64, progress ProgressFunc) ([]byte, error) {
	if progress == nil {
		return io.ReadAll(r)
	}

	var buf bytes.Buffer
	if total > 0 {
		buf.Grow(int(total))
	}
	pr := &progressReader{r: r, total: total, progress: progress}
	if _, err := io.Copy(&buf, pr); err != nil {
		return nil, err
	}
	if total <= 0 {
		progress(pr.loaded, pr.loaded)
	}
	return buf.Bytes(), nil
}

type progressReader struct {
	r        io.Reader
	loaded   int64
	total    int64
	progress ProgressFunc
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.loaded += int64(n)
		p.progress(p.loaded, p.total)
	}
	return n, err
}

// contextReader stops reading once ctx is done.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *contextReader) Read(b []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(b)
}

// LogProgress returns a ProgressFunc that logs "<pct>% loaded" whenever the whole percentage changes.
//
// Parameters:
//   - label: prefix identifying the asset
//
// Returns:
//   - ProgressFunc: the logging callback
func LogProgress(label string) ProgressFunc {
	var mu sync.Mutex
	last := -1
	return func(loaded, total int64) {
		if total <= 0 {
			return
		}
		pct := float64(loaded) / float64(total) * 100
		mu.Lock()
		defer mu.Unlock()
		if int(pct) == last {
			return
		}
		last = int(pct)
		log.Printf("%s %s", label, FormatProgress(loaded, total))
	}
}

// FormatProgress renders a byte count as a whole percentage, e.g. "42% loaded".
func FormatProgress(loaded, total int64) string {
	if total <= 0 {
		return fmt.Sprintf("%d bytes loaded", loaded)
	}
	return fmt.Sprintf("%.0f%% loaded", float64(loaded)/float64(total)*100)
}

func isRemote(src string) bool {
	return strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://")
}

// resolveURI resolves a document-relative URI against the document's location.
// URIs in glTF are percent-encoded, so local paths are unescaped.
func resolveURI(base, uri string) (string, error) {
	if isRemote(base) {
		b, err := url.Parse(base)
		if err != nil {
			return "", err
		}
		ref, err := url.Parse(uri)
		if err != nil {
			return "", err
		}
		return b.ResolveReference(ref).String(), nil
	}
	if isRemote(uri) {
		return uri, nil
	}

	unescaped, err := url.PathUnescape(uri)
	if err != nil {
		return "", err
	}
	if filepath.IsAbs(unescaped) {
		return unescaped, nil
	}
	return filepath.Join(filepath.Dir(base), filepath.FromSlash(unescaped)), nil
}
