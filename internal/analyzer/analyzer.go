// Package analyzer runs a brochure analysis end to end: it collects the
// brochures, aggregates their text, builds the prompt, asks the model and
// records the result.
package analyzer

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/brochure-cli/internal/extract"
	"github.com/sells-group/brochure-cli/internal/fetcher"
	"github.com/sells-group/brochure-cli/internal/llm"
	"github.com/sells-group/brochure-cli/internal/model"
	"github.com/sells-group/brochure-cli/internal/prompt"
	"github.com/sells-group/brochure-cli/internal/store"
	"github.com/sells-group/brochure-cli/pkg/google"
)

// minTextChars is the least non-space text an aggregated input must carry
// before it is worth sending to the model.
const minTextChars = 20

var (
	// ErrNoText means the brochures parsed but carried (almost) no text.
	ErrNoText = errors.New("could not extract text: the file might be corrupted, empty, or image-based")
	// ErrNoInput means the request named no brochure and no plan.
	ErrNoInput = errors.New("analyzer: no brochure given")
	// ErrSearchUnavailable means a plan lookup was requested without a search client.
	ErrSearchUnavailable = errors.New("analyzer: plan search is not configured")
)

// Request describes one analysis.
type Request struct {
	Mode prompt.Mode
	// Sources are URLs or file paths, read after Payloads.
	Sources []string
	// Payloads are documents the caller already holds, such as uploads.
	Payloads []extract.Payload
	// PlanName triggers a web search when no brochure is given.
	PlanName string
}

// Deps wires the collaborators. Search and Store are optional.
type Deps struct {
	Aggregator *extract.Aggregator
	Fetcher    fetcher.Fetcher
	Generator  llm.Generator
	Templates  prompt.Templates
	Search     google.Client
	Store      store.Store
	// CompareLimit overrides how many brochures a comparison reads.
	CompareLimit int
	// FetchConcurrency bounds parallel downloads. Default 4.
	FetchConcurrency int
}

// Service runs analyses. It is safe for concurrent use.
type Service struct {
	deps Deps
}

// New creates a Service.
func New(deps Deps) *Service {
	if deps.Templates == (prompt.Templates{}) {
		deps.Templates = prompt.Defaults()
	}
	if deps.FetchConcurrency <= 0 {
		deps.FetchConcurrency = 4
	}
	return &Service{deps: deps}
}

// Limit returns the document cap for mode.
func (s *Service) Limit(mode prompt.Mode) int {
	if mode == prompt.ModeCompare && s.deps.CompareLimit >= 2 {
		return s.deps.CompareLimit
	}
	return mode.MaxDocuments()
}

// Input is the aggregated text of a request with the labels it covers.
type Input struct {
	Text    string
	Sources []string
	Dropped []string
}

// Collect gathers the payloads for req within limit. Sources past the limit
// are reported in dropped and never downloaded.
func (s *Service) Collect(ctx context.Context, req Request, limit int) ([]extract.Payload, []string, error) {
	plan := strings.TrimSpace(req.PlanName)
	sources := req.Sources
	if len(req.Payloads) == 0 && len(sources) == 0 {
		if plan == "" {
			return nil, nil, ErrNoInput
		}
		link, err := s.FindBrochure(ctx, plan)
		if err != nil {
			return nil, nil, err
		}
		sources = []string{link}
	}

	payloads := append([]extract.Payload(nil), req.Payloads...)
	var dropped []string
	if len(payloads) > limit {
		for _, p := range payloads[limit:] {
			dropped = append(dropped, p.Label)
		}
		payloads = payloads[:limit]
	}
	room := limit - len(payloads)
	if len(sources) > room {
		dropped = append(dropped, sources[room:]...)
		sources = sources[:room]
	}
	if len(dropped) > 0 {
		zap.L().Warn("analyzer: ignoring brochures beyond limit",
			zap.Int("limit", limit),
			zap.Strings("dropped", dropped),
		)
	}

	fetched, err := s.load(ctx, sources)
	if err != nil {
		return nil, nil, err
	}
	return append(payloads, fetched...), dropped, nil
}

// load resolves sources concurrently and returns payloads in source order.
func (s *Service) load(ctx context.Context, sources []string) ([]extract.Payload, error) {
	if len(sources) == 0 {
		return nil, nil
	}
	if s.deps.Fetcher == nil {
		return nil, eris.New("analyzer: no fetcher configured")
	}
	out := make([]extract.Payload, len(sources))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.deps.FetchConcurrency)
	for i, src := range sources {
		g.Go(func() error {
			p, err := s.deps.Fetcher.Load(gctx, src)
			if err != nil {
				return err
			}
			out[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// FindBrochure looks up a brochure URL for planName.
func (s *Service) FindBrochure(ctx context.Context, planName string) (string, error) {
	if s.deps.Search == nil {
		return "", ErrSearchUnavailable
	}
	return s.deps.Search.FindBrochure(ctx, planName)
}

// Prepare collects and aggregates the brochures for req.
func (s *Service) Prepare(ctx context.Context, req Request) (*Input, error) {
	limit := s.Limit(req.Mode)
	payloads, dropped, err := s.Collect(ctx, req, limit)
	if err != nil {
		return nil, err
	}

	text, err := s.deps.Aggregator.Aggregate(payloads, limit)
	if err != nil {
		return nil, err
	}

	labels := make([]string, len(payloads))
	for i, p := range payloads {
		labels[i] = p.Label
	}
	return &Input{Text: text, Sources: labels, Dropped: dropped}, nil
}

// Analyze runs req through the model and records the result when a store is
// configured. Extraction failures come back as *extract.Failure.
func (s *Service) Analyze(ctx context.Context, req Request) (*model.Analysis, error) {
	if s.deps.Generator == nil {
		return nil, eris.New("analyzer: no model configured")
	}
	if _, err := prompt.ParseMode(string(req.Mode)); err != nil {
		return nil, err
	}

	start := time.Now()
	in, err := s.Prepare(ctx, req)
	if err != nil {
		return nil, err
	}
	if countText(in.Text) < minTextChars {
		return nil, ErrNoText
	}

	p, err := s.deps.Templates.Build(req.Mode, in.Text)
	if err != nil {
		return nil, err
	}
	resp, err := s.deps.Generator.Generate(ctx, p)
	if err != nil {
		return nil, err
	}

	a := &model.Analysis{
		Mode:       string(req.Mode),
		PlanName:   strings.TrimSpace(req.PlanName),
		Sources:    in.Sources,
		Dropped:    in.Dropped,
		Model:      s.deps.Generator.Model(),
		InputChars: len(in.Text),
		Response:   resp,
		CreatedAt:  time.Now().UTC(),
	}
	if s.deps.Store != nil {
		if err := s.deps.Store.SaveAnalysis(ctx, a); err != nil {
			zap.L().Error("analyzer: save analysis", zap.Error(err))
		}
	}

	zap.L().Info("analysis complete",
		zap.String("id", a.ID),
		zap.String("mode", a.Mode),
		zap.Strings("sources", a.Sources),
		zap.Int("input_chars", a.InputChars),
		zap.Duration("elapsed", time.Since(start)),
	)
	return a, nil
}

// countText counts non-space runes, ignoring document block markers.
func countText(s string) int {
	n := 0
	for _, line := range strings.Split(s, "\n") {
		if strings.HasPrefix(line, "--- START OF DOCUMENT ") || strings.HasPrefix(line, "--- END OF DOCUMENT ") {
			continue
		}
		for _, r := range line {
			if !unicode.IsSpace(r) {
				n++
			}
		}
	}
	return n
}
