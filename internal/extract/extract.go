// Package extract turns PDF brochures into plain text and aggregates one or
// more of them into a single string ready to be placed into a prompt.
package extract

import (
	"bytes"
	"fmt"
	"strings"
	"unicode"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"
)

// Engine names a PDF parsing backend.
type Engine string

const (
	EnginePDFCPU Engine = "pdfcpu"
	EngineRSC    Engine = "rscpdf"
	EngineAuto   Engine = "auto"
)

// Extractor converts one payload into text. Implementations must never panic
// and must report unreadable input as a Failure.
type Extractor interface {
	ExtractText(p Payload) Result
}

// pageReader splits a PDF into the text of each of its pages. A page without a
// text layer yields "". An error means the document itself could not be opened.
type pageReader interface {
	name() string
	pages(data []byte) ([]string, error)
}

// NewExtractor returns the Extractor for the named engine. An empty name
// selects EngineAuto.
func NewExtractor(engine Engine) (Extractor, error) {
	switch engine {
	case EngineAuto, "":
		return &pdfExtractor{readers: []pageReader{rscReader{requireWidths: true}, pdfcpuReader{}}}, nil
	case EnginePDFCPU:
		return &pdfExtractor{readers: []pageReader{pdfcpuReader{}}}, nil
	case EngineRSC:
		return &pdfExtractor{readers: []pageReader{rscReader{}}}, nil
	default:
		return nil, eris.Errorf("extract: unknown engine %q", engine)
	}
}

// pdfExtractor tries each reader in order and keeps the first one that can open
// the document.
type pdfExtractor struct {
	readers []pageReader
}

// pdfMagicWindow is how far into the buffer the %PDF- header may appear.
const pdfMagicWindow = 1024

func (e *pdfExtractor) ExtractText(p Payload) Result {
	if len(p.Data) == 0 {
		return Fail(p.Label, "empty document")
	}
	head := p.Data
	if len(head) > pdfMagicWindow {
		head = head[:pdfMagicWindow]
	}
	if !bytes.Contains(head, []byte("%PDF-")) {
		return Fail(p.Label, "not a PDF: missing %PDF- header")
	}

	var firstErr error
	for _, r := range e.readers {
		pages, err := safePages(r, p.Data)
		if err != nil {
			zap.L().Info("extract: reader could not read document",
				zap.String("label", p.Label),
				zap.String("engine", r.name()),
				zap.Error(err),
			)
			if firstErr == nil {
				firstErr = eris.Wrap(err, r.name())
			}
			continue
		}
		return Text(joinPages(pages))
	}
	return Fail(p.Label, firstErr.Error())
}

// safePages shields callers from parser panics on malformed input.
func safePages(r pageReader, data []byte) (pages []string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			pages = nil
			err = fmt.Errorf("malformed PDF: %v", rec)
		}
	}()
	return r.pages(data)
}

// joinPages concatenates page text in order, ending every page with a newline.
// A document whose pages are all blank produces "".
func joinPages(pages []string) string {
	var sb strings.Builder
	blank := true
	for _, pg := range pages {
		pg = cleanPage(pg)
		if pg != "" {
			blank = false
		}
		sb.WriteString(pg)
		sb.WriteByte('\n')
	}
	if blank {
		return ""
	}
	return sb.String()
}

// cleanPage applies NFKC (which unfolds ligatures such as "ﬁ"), drops control
// characters other than newlines and tabs, and trims trailing space per line.
func cleanPage(s string) string {
	s = norm.NFKC.String(s)
	s = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) || r == unicode.ReplacementChar {
			return -1
		}
		return r
	}, s)

	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRightFunc(l, unicode.IsSpace)
	}
	return strings.Trim(strings.Join(lines, "\n"), "\n")
}
