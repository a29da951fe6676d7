package extract

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

var (
	// ErrNoDocuments is returned when Aggregate receives no payloads.
	ErrNoDocuments = eris.New("extract: no documents to aggregate")
	// ErrInvalidLimit is returned when maxDocuments is below one.
	ErrInvalidLimit = eris.New("extract: maxDocuments must be at least 1")
)

// Aggregator extracts a batch of brochures and combines their text. It holds
// no per-call state and is safe for concurrent use.
type Aggregator struct {
	extractor Extractor
}

// NewAggregator returns an Aggregator backed by ex.
func NewAggregator(ex Extractor) *Aggregator {
	return &Aggregator{extractor: ex}
}

// ExtractText extracts a single payload.
func (a *Aggregator) ExtractText(p Payload) Result {
	return a.extractor.ExtractText(p)
}

// Aggregate keeps the first maxDocuments payloads, extracts them in order and
// returns the combined text. A single document is returned verbatim; two or
// more are wrapped in numbered, labelled blocks. Extraction stops at the first
// failure, which is returned as a *Failure; later payloads are never read.
func (a *Aggregator) Aggregate(payloads []Payload, maxDocuments int) (string, error) {
	if maxDocuments < 1 {
		return "", ErrInvalidLimit
	}
	if len(payloads) == 0 {
		return "", ErrNoDocuments
	}

	if len(payloads) > maxDocuments {
		dropped := make([]string, 0, len(payloads)-maxDocuments)
		for _, p := range payloads[maxDocuments:] {
			dropped = append(dropped, p.Label)
		}
		zap.L().Info("ignoring documents beyond limit",
			zap.Int("limit", maxDocuments),
			zap.Strings("dropped", dropped),
		)
		payloads = payloads[:maxDocuments]
	}

	texts := make([]string, len(payloads))
	for i, p := range payloads {
		res := a.extractor.ExtractText(p)
		if !res.OK() {
			return "", res.Failure
		}
		texts[i] = res.Text
	}

	if len(texts) == 1 {
		return texts[0], nil
	}

	var sb strings.Builder
	for i, text := range texts {
		writeBlock(&sb, i+1, payloads[i].Label, text)
	}
	return sb.String(), nil
}

// writeBlock appends one labelled document block.
func writeBlock(sb *strings.Builder, ordinal int, label, text string) {
	fmt.Fprintf(sb, "--- START OF DOCUMENT %d: %s ---\n", ordinal, label)
	sb.WriteString(text)
	if !strings.HasSuffix(text, "\n") {
		sb.WriteByte('\n')
	}
	fmt.Fprintf(sb, "--- END OF DOCUMENT %d ---\n\n", ordinal)
}

var defaultAggregator = func() *Aggregator {
	ex, _ := NewExtractor(EngineAuto)
	return NewAggregator(ex)
}()

// ExtractText extracts p with the default engine.
func ExtractText(p Payload) Result {
	return defaultAggregator.ExtractText(p)
}

// Aggregate runs Aggregator.Aggregate with the default engine.
func Aggregate(payloads []Payload, maxDocuments int) (string, error) {
	return defaultAggregator.Aggregate(payloads, maxDocuments)
}
