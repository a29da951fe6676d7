package fetcher

import (
	"context"
	"errors"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/brochure-cli/internal/extract"
	"github.com/sells-group/brochure-cli/internal/resilience"
)

// ErrTooLarge is returned when a brochure exceeds HTTPOptions.MaxBytes.
var ErrTooLarge = errors.New("fetcher: document exceeds size limit")

// HTTPOptions configures the HTTP fetcher.
type HTTPOptions struct {
	UserAgent   string
	Timeout     time.Duration
	MaxRetries  int
	MaxBytes    int64
	RatePerHost rate.Limit

	// Retry overrides the backoff used between attempts. MaxAttempts is
	// always taken from MaxRetries.
	Retry resilience.Policy
}

// HTTPFetcher implements Fetcher over net/http with per-host rate limiting and
// retries on transient failures.
type HTTPFetcher struct {
	client   *http.Client
	opts     HTTPOptions
	limiters *hostLimiter
}

var _ Fetcher = (*HTTPFetcher)(nil)

// NewHTTPFetcher creates an HTTPFetcher, filling unset options with defaults.
func NewHTTPFetcher(opts HTTPOptions) *HTTPFetcher {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = 3
	}
	if opts.MaxBytes == 0 {
		opts.MaxBytes = 50 << 20
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "brochure-cli/1.0"
	}
	if opts.RatePerHost == 0 {
		opts.RatePerHost = 5
	}
	if opts.Retry.InitialBackoff == 0 {
		opts.Retry = resilience.DefaultPolicy()
	}
	opts.Retry.MaxAttempts = opts.MaxRetries
	opts.Retry.OnRetry = resilience.LogRetry("fetcher", "download")

	return &HTTPFetcher{
		client: &http.Client{
			Timeout: opts.Timeout,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		opts:     opts,
		limiters: newHostLimiter(opts.RatePerHost, int(opts.RatePerHost)+1),
	}
}

// Fetch downloads rawURL into memory.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (extract.Payload, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return extract.Payload{}, eris.Errorf("fetcher: invalid url %q", rawURL)
	}

	start := time.Now()
	data, err := resilience.Do(ctx, f.opts.Retry, func(ctx context.Context) ([]byte, error) {
		return f.get(ctx, u)
	})
	if err != nil {
		return extract.Payload{}, eris.Wrapf(err, "fetcher: download %s", rawURL)
	}

	zap.L().Info("fetched document",
		zap.String("url", rawURL),
		zap.Int("bytes", len(data)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return extract.Payload{Label: rawURL, Data: data}, nil
}

func (f *HTTPFetcher) get(ctx context.Context, u *url.URL) ([]byte, error) {
	if err := f.limiters.Wait(ctx, u.Host); err != nil {
		return nil, eris.Wrap(err, "rate limiter wait")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "create request")
	}
	req.Header.Set("User-Agent", f.opts.UserAgent)
	req.Header.Set("Accept", "application/pdf,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode == http.StatusTooManyRequests {
		f.limiters.OnRateLimit(u.Host)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, resilience.CheckStatus("fetcher", resp.StatusCode, body)
	}
	f.limiters.OnSuccess(u.Host)

	if resp.ContentLength > f.opts.MaxBytes {
		return nil, ErrTooLarge
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" {
		if mt, _, _ := mime.ParseMediaType(ct); mt != "application/pdf" && mt != "application/octet-stream" {
			zap.L().Warn("fetched document is not served as PDF",
				zap.String("url", u.String()),
				zap.String("content_type", ct),
			)
		}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.opts.MaxBytes+1))
	if err != nil {
		return nil, eris.Wrap(err, "read body")
	}
	if int64(len(data)) > f.opts.MaxBytes {
		return nil, ErrTooLarge
	}
	return data, nil
}

// Load reads source from the network or disk.
func (f *HTTPFetcher) Load(ctx context.Context, source string) (extract.Payload, error) {
	if IsURL(source) {
		return f.Fetch(ctx, source)
	}
	return LoadFile(source, f.opts.MaxBytes)
}

// LoadFile reads a local brochure. The payload label is the file's base name.
// A maxBytes of zero disables the size check.
func LoadFile(path string, maxBytes int64) (extract.Payload, error) {
	info, err := os.Stat(path)
	if err != nil {
		return extract.Payload{}, eris.Wrapf(err, "fetcher: stat %s", path)
	}
	if info.IsDir() {
		return extract.Payload{}, eris.Errorf("fetcher: %s is a directory", path)
	}
	if maxBytes > 0 && info.Size() > maxBytes {
		return extract.Payload{}, eris.Wrapf(ErrTooLarge, "fetcher: %s is %d bytes", path, info.Size())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return extract.Payload{}, eris.Wrapf(err, "fetcher: read %s", path)
	}
	return extract.Payload{Label: filepath.Base(path), Data: data}, nil
}
