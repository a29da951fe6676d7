package ocr

import (
	"bytes"
	"context"
	"os/exec"

	"github.com/rotisserie/eris"

	"github.com/sells-group/brochure-cli/internal/extract"
)

// PdfToText runs the poppler pdftotext tool, which picks up text that the
// built-in engines miss (Type3 fonts, unusual encodings).
type PdfToText struct {
	binPath string
}

// NewPdfToText creates a PdfToText recognizer. If binPath is empty, "pdftotext" is used.
func NewPdfToText(binPath string) *PdfToText {
	if binPath == "" {
		binPath = "pdftotext"
	}
	return &PdfToText{binPath: binPath}
}

// Recognize pipes the document through pdftotext -layout and returns stdout.
func (p *PdfToText) Recognize(ctx context.Context, doc extract.Payload) (string, error) {
	cmd := exec.CommandContext(ctx, p.binPath, "-layout", "-enc", "UTF-8", "-", "-")
	cmd.Stdin = bytes.NewReader(doc.Data)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", eris.Wrapf(err, "ocr: pdftotext failed for %s: %s", doc.Label, stderr.String())
	}

	return stdout.String(), nil
}
