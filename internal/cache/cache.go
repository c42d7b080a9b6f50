// Package cache is an explicitly passed artifact-cache handle.
//
// Notebooks that fetch models or datasets share one cache directory per
// run. The handle is safe for concurrent use on distinct keys. Two
// notebooks racing on the same key may both download it once; writes go
// to a temp file renamed into place, so the race wastes bandwidth but
// never corrupts data.
package cache

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// Cache stores fetched artifacts under a single directory, keyed by name.
type Cache struct {
	dir    string
	client *http.Client
}

// New creates the cache directory if needed and returns a handle to it.
func New(dir string) (*Cache, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(absDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %s - %w", dir, err)
	}
	return &Cache{dir: absDir, client: http.DefaultClient}, nil
}

// Dir returns the cache directory.
func (c *Cache) Dir() string {
	return c.dir
}

// Path returns the on-disk location for a key. Keys are flattened to a
// single path component so a key can never escape the cache directory.
func (c *Cache) Path(key string) string {
	name := strings.ReplaceAll(key, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.TrimLeft(name, ".")
	return filepath.Join(c.dir, name)
}

// Has reports whether a key is already cached.
func (c *Cache) Has(key string) bool {
	info, err := os.Stat(c.Path(key))
	return err == nil && info.Mode().IsRegular()
}

// DownloadError reports a failed artifact fetch.
type DownloadError struct {
	Key string
	Err error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("download failed for %s: %v", e.Key, e.Err)
}

func (e *DownloadError) Unwrap() error { return e.Err }

// Fetch returns the cached path for a URL, downloading it on first use.
// The key is the URL's base name.
func (c *Cache) Fetch(ctx context.Context, url string) (string, error) {
	key := filepath.Base(url)
	return c.Ensure(ctx, key, func(ctx context.Context, w io.Writer) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		resp, err := c.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("unexpected status %s", resp.Status)
		}
		_, err = io.Copy(w, resp.Body)
		return err
	})
}

// Ensure returns the cached path for a key, invoking fetch to produce
// the artifact when it is not already present. A plain existence check
// gates the fetch; no cross-process locking is attempted.
func (c *Cache) Ensure(ctx context.Context, key string, fetch func(ctx context.Context, w io.Writer) error) (string, error) {
	path := c.Path(key)
	if c.Has(key) {
		return path, nil
	}

	tmp, err := os.CreateTemp(c.dir, ".fetch-*")
	if err != nil {
		return "", &DownloadError{Key: key, Err: err}
	}
	defer os.Remove(tmp.Name())

	if err := fetch(ctx, tmp); err != nil {
		tmp.Close()
		return "", &DownloadError{Key: key, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return "", &DownloadError{Key: key, Err: err}
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", &DownloadError{Key: key, Err: err}
	}
	return path, nil
}
