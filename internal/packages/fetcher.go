package packages

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	hosterrors "github.com/conneroisu/imprint/internal/errors"
	"github.com/conneroisu/imprint/internal/logging"
)

// DefaultRegistry is the package registry used when none is configured.
const DefaultRegistry = "https://packages.typst.org"

// maxAttempts bounds downloads to one initial request plus one retry.
const maxAttempts = 2

// Fetcher maps package specs to local directories, downloading and
// unpacking archives on first use.
type Fetcher struct {
	cacheDir string
	localDir string
	registry string
	offline  bool
	agent    string
	client   *http.Client
	logger   logging.Logger

	timeout    time.Duration
	hasTimeout bool

	// mutex serializes fetches so two callers never unpack into the same
	// directory at once.
	mutex    sync.Mutex
	requests int64
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithRegistry sets the registry base URL, e.g. "https://packages.typst.org".
func WithRegistry(url string) Option {
	return func(f *Fetcher) {
		if url != "" {
			f.registry = strings.TrimRight(url, "/")
		}
	}
}

// WithLocalDir sets a directory of locally installed packages that is
// searched before the cache.
func WithLocalDir(dir string) Option {
	return func(f *Fetcher) { f.localDir = dir }
}

// WithHTTPClient replaces the HTTP client used for downloads.
func WithHTTPClient(client *http.Client) Option {
	return func(f *Fetcher) {
		if client != nil {
			f.client = client
		}
	}
}

// WithTimeout bounds each download attempt. Zero means no timeout. It
// applies to the client in use after every option has run.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = d
		f.hasTimeout = true
	}
}

// WithUserAgent sets the User-Agent header sent to the registry.
func WithUserAgent(agent string) Option {
	return func(f *Fetcher) { f.agent = agent }
}

// WithOffline disables downloads; packages must already be cached.
func WithOffline(offline bool) Option {
	return func(f *Fetcher) { f.offline = offline }
}

// WithLogger sets the logger.
func WithLogger(logger logging.Logger) Option {
	return func(f *Fetcher) {
		if logger != nil {
			f.logger = logger.WithComponent("packages")
		}
	}
}

// DefaultCacheDir returns the per-user package cache directory, falling back
// to the system temp directory when the user cache directory is unknown.
func DefaultCacheDir() string {
	if dir, err := os.UserCacheDir(); err == nil && dir != "" {
		return filepath.Join(dir, "imprint", "packages")
	}
	return filepath.Join(os.TempDir(), "imprint", "packages")
}

// NewFetcher creates a fetcher caching into cacheDir. An empty cacheDir
// selects DefaultCacheDir.
func NewFetcher(cacheDir string, opts ...Option) *Fetcher {
	if cacheDir == "" {
		cacheDir = DefaultCacheDir()
	}

	f := &Fetcher{
		cacheDir: cacheDir,
		registry: DefaultRegistry,
		client:   &http.Client{},
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.hasTimeout {
		c := *f.client
		c.Timeout = f.timeout
		f.client = &c
	}
	return f
}

// CacheDir returns the cache root.
func (f *Fetcher) CacheDir() string {
	return f.cacheDir
}

// Path returns the deterministic cache directory for spec.
func (f *Fetcher) Path(spec Spec) string {
	return filepath.Join(f.cacheDir, spec.Namespace, spec.Name, spec.Version.String())
}

// URL returns the registry archive URL for spec.
func (f *Fetcher) URL(spec Spec) string {
	return fmt.Sprintf("%s/%s/%s-%s.tar.gz", f.registry, spec.Namespace, spec.Name, spec.Version)
}

// Requests returns how many HTTP requests this fetcher has issued.
func (f *Fetcher) Requests() int64 {
	return atomic.LoadInt64(&f.requests)
}

// Fetch returns the local directory holding spec's files. A directory that
// already exists is returned without any validation or network access.
func (f *Fetcher) Fetch(ctx context.Context, spec Spec) (string, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	if f.localDir != "" {
		local := filepath.Join(f.localDir, spec.Namespace, spec.Name, spec.Version.String())
		if isDir(local) {
			return local, nil
		}
	}

	dir := f.Path(spec)
	if isDir(dir) {
		f.logger.Debug(ctx, "Package cache hit", "package", spec.String(), "dir", dir)
		return dir, nil
	}

	if f.offline {
		return "", hosterrors.NewPackageNotFoundError(spec.String(), fmt.Errorf("not cached and downloads are disabled"))
	}

	url := f.URL(spec)
	op := logging.StartOperation(f.logger, "fetch")
	f.logger.Info(ctx, "Downloading package", "package", spec.String(), "url", url)

	data, err := f.download(ctx, url)
	if err != nil {
		op.EndWithError(ctx, err)
		return "", err
	}

	if err := unpack(data, dir); err != nil {
		// Best effort: a leftover directory would be trusted by the next fetch.
		_ = os.RemoveAll(dir)
		op.EndWithError(ctx, err)
		return "", hosterrors.NewMalformedArchiveError(spec.String(), err)
	}

	if err := checkManifest(dir, spec); err != nil {
		_ = os.RemoveAll(dir)
		op.EndWithError(ctx, err)
		return "", hosterrors.NewMalformedArchiveError(spec.String(), err)
	}

	op.End(ctx)
	return dir, nil
}

// download performs the GET with exactly one retry and no backoff.
func (f *Fetcher) download(ctx context.Context, url string) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		data, err := f.get(ctx, url)
		if err == nil {
			return data, nil
		}
		lastErr = err
		f.logger.Warn(ctx, err, "Package download failed", "url", url, "attempt", attempt)
		if ctx.Err() != nil {
			break
		}
	}
	return nil, hosterrors.NewNetworkError(url, lastErr)
}

func (f *Fetcher) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if f.agent != "" {
		req.Header.Set("User-Agent", f.agent)
	}

	atomic.AddInt64(&f.requests, 1)
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	return data, nil
}

// List returns the specs present in the cache, sorted by their string form.
func (f *Fetcher) List() ([]Spec, error) {
	matches, err := filepath.Glob(filepath.Join(f.cacheDir, "*", "*", "*"))
	if err != nil {
		return nil, err
	}

	var specs []Spec
	for _, m := range matches {
		if !isDir(m) {
			continue
		}
		rel, err := filepath.Rel(f.cacheDir, m)
		if err != nil {
			continue
		}
		parts := strings.Split(filepath.ToSlash(rel), "/")
		if len(parts) != 3 {
			continue
		}
		spec, err := ParseSpec(fmt.Sprintf("@%s/%s:%s", parts[0], parts[1], parts[2]))
		if err != nil {
			continue
		}
		specs = append(specs, spec)
	}

	sort.Slice(specs, func(i, j int) bool { return specs[i].String() < specs[j].String() })
	return specs, nil
}

// Remove deletes one package from the cache.
func (f *Fetcher) Remove(spec Spec) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return os.RemoveAll(f.Path(spec))
}

// Clean deletes the whole cache root.
func (f *Fetcher) Clean() error {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return os.RemoveAll(f.cacheDir)
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
