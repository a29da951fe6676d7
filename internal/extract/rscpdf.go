package extract

import (
	"bytes"
	"errors"
	"math"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"rsc.io/pdf"
)

// errNoWidths means a page draws glyphs from a font without a /Widths array,
// usually one of the standard 14. rsc.io/pdf cannot advance the pen for those,
// so every glyph of a string lands on the same x and word gaps are lost.
var errNoWidths = errors.New("font has no glyph widths")

// rscReader uses rsc.io/pdf, which resolves fonts and ToUnicode maps and so
// reads CID-keyed brochures that the raw content scan cannot. It has no
// repair mode, so damaged files are left to pdfcpu.
type rscReader struct {
	// requireWidths rejects documents whose glyphs carry no widths instead of
	// returning fused words, so a later reader can take over.
	requireWidths bool
}

func (rscReader) name() string { return string(EngineRSC) }

func (r rscReader) pages(data []byte) ([]string, error) {
	doc, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, eris.Wrap(err, "open")
	}
	n := doc.NumPage()
	if n == 0 {
		return nil, eris.New("document has no pages")
	}

	out := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		text, err := rscPageText(doc.Page(i), r.requireWidths)
		if err != nil {
			return nil, eris.Wrapf(err, "page %d", i)
		}
		out = append(out, text)
	}
	return out, nil
}

// rscPageText rebuilds lines from positioned glyphs. rsc.io/pdf drops space
// glyphs, so word breaks are inferred from horizontal gaps.
func rscPageText(p pdf.Page, requireWidths bool) (text string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			text, err = "", eris.Errorf("content stream: %v", rec)
		}
	}()
	if p.V.IsNull() {
		return "", nil
	}

	glyphs := p.Content().Text
	if missingWidths(glyphs) {
		if requireWidths {
			return "", errNoWidths
		}
		zap.L().Warn("extract: font without widths, word breaks may be lost",
			zap.String("engine", string(EngineRSC)),
		)
	}

	var sb strings.Builder
	for i, g := range glyphs {
		if i > 0 {
			prev := glyphs[i-1]
			size := math.Max(g.FontSize, 1)
			switch {
			case math.Abs(g.Y-prev.Y) > size*0.5:
				sb.WriteByte('\n')
			case g.X-(prev.X+prev.W) > size*0.15:
				sb.WriteByte(' ')
			}
		}
		sb.WriteString(g.S)
	}
	return sb.String(), nil
}

// missingWidths reports whether any visible glyph has a zero advance.
func missingWidths(glyphs []pdf.Text) bool {
	for _, g := range glyphs {
		if g.W == 0 && strings.TrimSpace(g.S) != "" {
			return true
		}
	}
	return false
}
