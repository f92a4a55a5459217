package snapcatalog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// DownloadOpts configures an image download.
type DownloadOpts struct {
	MaxBytes  int64         // max response body size (default: 20MB)
	MinBytes  int           // reject if smaller (default: 0)
	Timeout   time.Duration // per-request timeout (default: 30s)
	UserAgent string        // default: "Mozilla/5.0 (compatible; go-snapcatalog/1.0)"
}

const (
	defaultMaxBytes  = 20 << 20 // OpenAI's per-image limit
	defaultUserAgent = "Mozilla/5.0 (compatible; go-snapcatalog/1.0)"
)

// DownloadResult holds downloaded image data.
type DownloadResult struct {
	Data     []byte
	MIMEType string
}

// Download fetches an image from url with cfg.HTTPClient.
// Returns nil result (not error) on recoverable failures (404, non-image, etc.)
// so that one bad URL does not sink the batch; the reason is logged.
func (cfg *Config) Download(ctx context.Context, url string, opts DownloadOpts) (*DownloadResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	res, err := cfg.download(ctx, url, opts)
	if err != nil {
		slog.Warn("snapcatalog: download rejected", "url", url, "reason", err.Error())
		return nil, nil
	}
	return res, nil
}

// download fetches url and returns why it was rejected as an error.
func (cfg *Config) download(ctx context.Context, imageURL string, opts DownloadOpts) (*DownloadResult, error) {
	cfg.defaults()
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = defaultMaxBytes
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}

	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("bad url: %w", err)
	}
	req.Header.Set("User-Agent", opts.UserAgent)

	resp, err := cfg.HTTPClient.Do(req) //nolint:gosec // URL is caller-supplied
	if err != nil {
		return nil, fmt.Errorf("download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download status %d", resp.StatusCode)
	}

	ct := stripParams(resp.Header.Get("Content-Type"))
	if !strings.HasPrefix(ct, "image/") {
		return nil, fmt.Errorf("content type %q is not an image", ct)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, opts.MaxBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if len(data) < opts.MinBytes {
		return nil, fmt.Errorf("%d bytes, want at least %d", len(data), opts.MinBytes)
	}

	return &DownloadResult{Data: data, MIMEType: ct}, nil
}
