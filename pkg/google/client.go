package google

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/sells-group/brochure-cli/internal/resilience"
)

// ErrNoResults is returned when a search finds no brochure.
var ErrNoResults = errors.New("google: no brochure found")

// Client finds policy brochures on the web.
type Client interface {
	FindBrochure(ctx context.Context, planName string) (string, error)
}

// Option configures the client.
type Option func(*searchClient)

// WithEndpoint overrides the Custom Search API endpoint.
func WithEndpoint(url string) Option {
	return func(c *searchClient) {
		c.endpoint = url
	}
}

// WithResults sets how many results are requested per search (1-10).
func WithResults(n int64) Option {
	return func(c *searchClient) {
		c.results = n
	}
}

// WithRetry overrides the retry policy for search calls.
func WithRetry(p resilience.Policy) Option {
	return func(c *searchClient) {
		c.retry = p
	}
}

type searchClient struct {
	apiKey   string
	cx       string
	endpoint string
	results  int64
	retry    resilience.Policy
	svc      *customsearch.Service
}

// NewClient creates a Custom Search client for the programmable search
// engine identified by searchEngineID.
func NewClient(ctx context.Context, apiKey, searchEngineID string, opts ...Option) (Client, error) {
	if apiKey == "" || searchEngineID == "" {
		return nil, eris.New("google: api key and search engine id are required")
	}
	c := &searchClient{
		apiKey:  apiKey,
		cx:      searchEngineID,
		results: 5,
		retry:   resilience.DefaultPolicy(),
	}
	for _, o := range opts {
		o(c)
	}
	c.retry.ShouldRetry = isRetryable
	c.retry.OnRetry = resilience.LogRetry("google", "search")

	svcOpts := []option.ClientOption{option.WithAPIKey(apiKey)}
	if c.endpoint != "" {
		svcOpts = append(svcOpts, option.WithEndpoint(c.endpoint))
	}
	svc, err := customsearch.NewService(ctx, svcOpts...)
	if err != nil {
		return nil, eris.Wrap(err, "google: create search service")
	}
	c.svc = svc
	return c, nil
}

// Query returns the search phrase used for a plan name.
func Query(planName string) string {
	return strings.TrimSpace(planName) + " policy brochure"
}

// FindBrochure searches for "{plan} policy brochure" restricted to PDFs and
// returns the best link. Links that end in .pdf win over the rest.
func (c *searchClient) FindBrochure(ctx context.Context, planName string) (string, error) {
	if strings.TrimSpace(planName) == "" {
		return "", eris.New("google: plan name is required")
	}
	q := Query(planName)

	res, err := resilience.Do(ctx, c.retry, func(ctx context.Context) (*customsearch.Search, error) {
		return c.svc.Cse.List().
			Cx(c.cx).
			Q(q).
			FileType("pdf").
			Num(c.results).
			Context(ctx).
			Do()
	})
	if err != nil {
		return "", eris.Wrapf(err, "google: search %q", q)
	}

	link := bestLink(res.Items)
	if link == "" {
		return "", ErrNoResults
	}
	zap.L().Info("found brochure",
		zap.String("plan", planName),
		zap.String("url", link),
		zap.Int("results", len(res.Items)),
	)
	return link, nil
}

func bestLink(items []*customsearch.Result) string {
	first := ""
	for _, it := range items {
		if it == nil || it.Link == "" {
			continue
		}
		if first == "" {
			first = it.Link
		}
		path := strings.ToLower(it.Link)
		if i := strings.IndexAny(path, "?#"); i >= 0 {
			path = path[:i]
		}
		if strings.HasSuffix(path, ".pdf") {
			return it.Link
		}
	}
	return first
}

func isRetryable(err error) bool {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code == http.StatusTooManyRequests || gerr.Code >= 500
	}
	return resilience.IsTransient(err)
}
