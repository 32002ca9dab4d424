// Package source fetches the static documents the reader pipeline consumes:
// the book structure, per-folder manifests and the character index. Documents
// come either from the deployed site over HTTP or from a local book checkout.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path"
	"strconv"
	"strings"
	"time"
)

// ErrNotExist reports that a document is absent. Callers treat it as the
// documented "nothing here" state rather than a failure.
var ErrNotExist = errors.New("document does not exist")

// Source fetches a document by its site-relative path ("book1/C1/audio_manifest.json").
type Source interface {
	Fetch(ctx context.Context, name string) ([]byte, error)
}

// HTTPDoer describes the HTTP client used by HTTPSource.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// HTTPSource reads documents from a static site.
type HTTPSource struct {
	baseURL string
	client  HTTPDoer
	now     func() time.Time
}

// NewHTTPSource builds a source rooted at baseURL. A nil client uses a client
// with a 10s timeout.
func NewHTTPSource(baseURL string, client HTTPDoer) *HTTPSource {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPSource{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		client:  client,
		now:     time.Now,
	}
}

// Fetch implements Source.
func (s *HTTPSource) Fetch(ctx context.Context, name string) ([]byte, error) {
	return s.fetch(ctx, s.baseURL+"/"+strings.TrimLeft(name, "/"))
}

// FetchFresh fetches name with a cache-busting query so intermediate caches
// never serve a stale structure document.
func (s *HTTPSource) FetchFresh(ctx context.Context, name string) ([]byte, error) {
	u, err := url.Parse(s.baseURL + "/" + strings.TrimLeft(name, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse document url: %w", err)
	}
	q := u.Query()
	q.Set("v", strconv.FormatInt(s.now().UnixMilli(), 10))
	u.RawQuery = q.Encode()
	return s.fetch(ctx, u.String())
}

func (s *HTTPSource) fetch(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("build document request: %w", err)
	}
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrNotExist, target)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("fetch %s returned %d", target, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", target, err)
	}
	return body, nil
}

// FSSource reads documents from a filesystem, normally the site directory.
type FSSource struct {
	fsys fs.FS
}

// NewDirSource reads documents below dir.
func NewDirSource(dir string) *FSSource {
	return &FSSource{fsys: os.DirFS(dir)}
}

// NewFSSource wraps any fs.FS (embedded sites, fstest.MapFS in tests).
func NewFSSource(fsys fs.FS) *FSSource {
	return &FSSource{fsys: fsys}
}

// Fetch implements Source.
func (s *FSSource) Fetch(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	clean := path.Clean(strings.TrimLeft(name, "/"))
	data, err := fs.ReadFile(s.fsys, clean)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotExist, clean)
		}
		return nil, fmt.Errorf("read %s: %w", clean, err)
	}
	return data, nil
}

// FetchFresh fetches bypassing caches when the source supports it.
func FetchFresh(ctx context.Context, src Source, name string) ([]byte, error) {
	if fresh, ok := src.(interface {
		FetchFresh(context.Context, string) ([]byte, error)
	}); ok {
		return fresh.FetchFresh(ctx, name)
	}
	return src.Fetch(ctx, name)
}

// New picks an HTTP source for http(s) locations and a directory source otherwise.
func New(location string, client HTTPDoer) Source {
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		return NewHTTPSource(location, client)
	}
	return NewDirSource(location)
}
