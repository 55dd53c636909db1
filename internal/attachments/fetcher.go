package attachments

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Fetcher downloads attachments into a local cache directory. Requests are
// rate limited per domain so procurement portals don't see bursts.
type Fetcher struct {
	CacheDir string
	Client   *http.Client

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func NewFetcher(cacheDir string) *Fetcher {
	return &Fetcher{
		CacheDir: cacheDir,
		Client: &http.Client{
			Timeout: 60 * time.Second,
		},
		limiters: make(map[string]*rate.Limiter),
	}
}

// CacheFilename derives the cache filename for a URL. The hash prefix keeps
// names filesystem-safe; the extension is preserved only for PDFs.
func CacheFilename(rawURL string) string {
	sum := sha256.Sum256([]byte(rawURL))
	h := hex.EncodeToString(sum[:])[:16]
	if strings.HasSuffix(strings.ToLower(rawURL), ".pdf") {
		return h + ".pdf"
	}
	return h + ".bin"
}

func domainFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return "unknown"
	}
	return u.Host
}

func (f *Fetcher) limiter(domain string) *rate.Limiter {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.limiters == nil {
		f.limiters = make(map[string]*rate.Limiter)
	}
	lim, ok := f.limiters[domain]
	if !ok {
		lim = rate.NewLimiter(rate.Every(time.Second), 1)
		f.limiters[domain] = lim
	}
	return lim
}

// Fetch downloads the attachment at rawURL into the cache, returning the
// local path. An already-cached file is returned without a request.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	if err := os.MkdirAll(f.CacheDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create cache directory: %w", err)
	}

	localPath := filepath.Join(f.CacheDir, CacheFilename(rawURL))
	if _, err := os.Stat(localPath); err == nil {
		return localPath, nil
	}

	if err := f.limiter(domainFromURL(rawURL)).Wait(ctx); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build attachment request: %w", err)
	}

	resp, err := f.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch attachment: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	out, err := os.Create(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to create cache file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		os.Remove(localPath)
		return "", fmt.Errorf("failed to write cache file: %w", err)
	}

	return localPath, nil
}
