package extract

import (
	"bytes"
	"io"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/rotisserie/eris"
)

func init() {
	// Keep pdfcpu from creating a config directory under the user's home.
	api.DisableConfigDir()
}

// pdfcpuReader opens documents with pdfcpu, which validates the structure and
// repairs broken cross-reference tables, then scans each page's decoded
// content stream for text-showing operators.
type pdfcpuReader struct{}

func (pdfcpuReader) name() string { return string(EnginePDFCPU) }

func (pdfcpuReader) pages(data []byte) ([]string, error) {
	conf := model.NewDefaultConfiguration()
	ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), conf)
	if err != nil {
		return nil, eris.Wrap(err, "read")
	}
	if ctx.PageCount == 0 {
		return nil, eris.New("document has no pages")
	}

	out := make([]string, 0, ctx.PageCount)
	for pageNr := 1; pageNr <= ctx.PageCount; pageNr++ {
		out = append(out, pdfcpuPageText(ctx, pageNr))
	}
	return out, nil
}

// pdfcpuPageText returns "" for pages without a usable content stream.
func pdfcpuPageText(ctx *model.Context, pageNr int) string {
	r, err := pdfcpu.ExtractPageContent(ctx, pageNr)
	if err != nil || r == nil {
		return ""
	}
	data, err := io.ReadAll(r)
	if err != nil || len(data) == 0 {
		return ""
	}
	return contentText(data)
}
