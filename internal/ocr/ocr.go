// Package ocr recovers text from brochures that have no text layer, such as
// scanned or image-only PDFs.
package ocr

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/brochure-cli/internal/extract"
)

// Recognizer reads the text of a PDF from its rendered pages.
type Recognizer interface {
	Recognize(ctx context.Context, p extract.Payload) (string, error)
}

// Config selects a recognizer. An empty Provider disables OCR.
type Config struct {
	Provider      string
	PdfToTextPath string
	MistralKey    string
	MistralModel  string
}

// NewRecognizer creates the Recognizer named by cfg.Provider. It returns nil
// when OCR is disabled.
func NewRecognizer(cfg Config) (Recognizer, error) {
	switch cfg.Provider {
	case "", "none":
		return nil, nil
	case "pdftotext":
		return NewPdfToText(cfg.PdfToTextPath), nil
	case "mistral":
		if cfg.MistralKey == "" {
			return nil, eris.New("ocr: mistral provider requires ocr.mistral_key")
		}
		return NewMistralOCR(cfg.MistralKey, cfg.MistralModel), nil
	default:
		return nil, eris.Errorf("ocr: unknown provider %q", cfg.Provider)
	}
}

// Fallback wraps an extractor and runs OCR on documents that parse but
// carry no text. Parse failures are returned unchanged.
type Fallback struct {
	next       extract.Extractor
	recognizer Recognizer
	timeout    time.Duration
}

var _ extract.Extractor = (*Fallback)(nil)

// NewFallback creates a Fallback. timeout bounds each OCR call; zero means
// two minutes.
func NewFallback(next extract.Extractor, r Recognizer, timeout time.Duration) *Fallback {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Fallback{next: next, recognizer: r, timeout: timeout}
}

// ExtractText implements extract.Extractor.
func (f *Fallback) ExtractText(p extract.Payload) extract.Result {
	res := f.next.ExtractText(p)
	if !res.OK() || strings.TrimSpace(res.Text) != "" {
		return res
	}

	ctx, cancel := context.WithTimeout(context.Background(), f.timeout)
	defer cancel()

	start := time.Now()
	text, err := f.recognizer.Recognize(ctx, p)
	if err != nil {
		zap.L().Warn("ocr: recognition failed, keeping empty text",
			zap.String("document", p.Label),
			zap.Error(err),
		)
		return res
	}

	text = strings.TrimSpace(text)
	zap.L().Info("ocr: recovered text",
		zap.String("document", p.Label),
		zap.Int("chars", len(text)),
		zap.Duration("elapsed", time.Since(start)),
	)
	if text == "" {
		return res
	}
	return extract.Text(text + "\n")
}
