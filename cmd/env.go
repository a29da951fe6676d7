package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/brochure-cli/internal/analyzer"
	"github.com/sells-group/brochure-cli/internal/extract"
	"github.com/sells-group/brochure-cli/internal/fetcher"
	"github.com/sells-group/brochure-cli/internal/llm"
	"github.com/sells-group/brochure-cli/internal/ocr"
	"github.com/sells-group/brochure-cli/internal/prompt"
	"github.com/sells-group/brochure-cli/internal/store"
	"github.com/sells-group/brochure-cli/pkg/google"
)

// appEnv holds the initialized clients and the analyzer used by the
// analyze/compare/serve commands.
type appEnv struct {
	Store    store.Store // may be nil
	Analyzer *analyzer.Service
}

// Close releases resources held by the environment.
func (e *appEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initEnv validates the config for mode and wires the analyzer. Callers
// should defer env.Close().
func initEnv(ctx context.Context, mode string) (*appEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	agg, err := initAggregator()
	if err != nil {
		return nil, err
	}

	gen, err := llm.New(ctx, cfg)
	if err != nil {
		return nil, err
	}

	templates := prompt.Defaults()
	if cfg.Prompt.File != "" {
		templates, err = prompt.LoadFile(cfg.Prompt.File)
		if err != nil {
			return nil, err
		}
		zap.L().Info("loaded prompt templates", zap.String("file", cfg.Prompt.File))
	}

	search, err := initSearch(ctx)
	if err != nil {
		return nil, err
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	deps := analyzer.Deps{
		Aggregator:   agg,
		Fetcher:      initFetcher(),
		Generator:    gen,
		Templates:    templates,
		Search:       search,
		CompareLimit: cfg.Extract.MaxDocumentsCompare,
	}
	// A nil *SQLiteStore in the interface would not compare equal to nil.
	if st != nil {
		deps.Store = st
	}

	return &appEnv{Store: deps.Store, Analyzer: analyzer.New(deps)}, nil
}

func initAggregator() (*extract.Aggregator, error) {
	ex, err := extract.NewExtractor(extract.Engine(cfg.Extract.Engine))
	if err != nil {
		return nil, eris.Wrap(err, "init extractor")
	}

	recognizer, err := ocr.NewRecognizer(ocr.Config{
		Provider:      cfg.OCR.Provider,
		PdfToTextPath: cfg.OCR.PdfToTextPath,
		MistralKey:    cfg.OCR.MistralKey,
		MistralModel:  cfg.OCR.MistralModel,
	})
	if err != nil {
		return nil, err
	}
	if recognizer != nil {
		zap.L().Info("ocr fallback enabled", zap.String("provider", cfg.OCR.Provider))
		ex = ocr.NewFallback(ex, recognizer, time.Duration(cfg.OCR.TimeoutSecs)*time.Second)
	}
	return extract.NewAggregator(ex), nil
}

func initFetcher() *fetcher.HTTPFetcher {
	return fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		UserAgent:   cfg.Fetch.UserAgent,
		Timeout:     time.Duration(cfg.Fetch.TimeoutSecs) * time.Second,
		MaxRetries:  cfg.Fetch.MaxRetries,
		MaxBytes:    cfg.Fetch.MaxBytes,
		RatePerHost: rate.Limit(2),
	})
}

// initSearch returns nil when Custom Search is not configured.
func initSearch(ctx context.Context) (google.Client, error) {
	if cfg.Google.Key == "" || cfg.Google.SearchEngineID == "" {
		zap.L().Debug("BROCHURE_GOOGLE_KEY or BROCHURE_GOOGLE_SEARCH_ENGINE_ID not set, plan search disabled")
		return nil, nil
	}
	c, err := google.NewClient(ctx, cfg.Google.Key, cfg.Google.SearchEngineID)
	if err != nil {
		return nil, eris.Wrap(err, "init google search")
	}
	zap.L().Info("google custom search enabled")
	return c, nil
}

// initStore opens and migrates the history database. It returns nil when
// the store is disabled.
func initStore(ctx context.Context) (*store.SQLiteStore, error) {
	if !cfg.Store.Enabled {
		return nil, nil
	}
	path := cfg.Store.Path
	if path == "" {
		path = "brochure.db"
	}
	st, err := store.NewSQLite(path)
	if err != nil {
		return nil, eris.Wrap(err, "open store")
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}
