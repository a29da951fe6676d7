// Package fetcher loads brochure bytes from URLs and local files.
package fetcher

import (
	"context"
	"net/url"
	"strings"

	"github.com/sells-group/brochure-cli/internal/extract"
)

// Fetcher turns a user-supplied source into a payload for the aggregator.
type Fetcher interface {
	// Fetch downloads rawURL. Timeouts, retries and HTTP status handling
	// happen here so the aggregator only ever sees bytes.
	Fetch(ctx context.Context, rawURL string) (extract.Payload, error)

	// Load dispatches to Fetch for http(s) URLs and reads a local file otherwise.
	Load(ctx context.Context, source string) (extract.Payload, error)
}

// IsURL reports whether source should be downloaded rather than read from disk.
func IsURL(source string) bool {
	u, err := url.Parse(strings.TrimSpace(source))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
