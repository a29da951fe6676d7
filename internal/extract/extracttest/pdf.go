// Package extracttest builds small, well-formed PDF files for tests.
package extracttest

import (
	"fmt"
	"strings"
)

// ImagePage marks a page that only draws an image.
const ImagePage = "\x00image"

// BuildPDF returns a PDF with one page per argument. Each argument is the
// page text, one line per "\n"; "" makes a page without a content stream and
// ImagePage makes a page that paints a 1x1 image and no text. Every page uses
// Helvetica with WinAnsiEncoding and explicit widths.
func BuildPDF(pages ...string) []byte {
	return build(pages, fontDict(true), textStream)
}

// BuildStandardFontPDF is BuildPDF with a bare standard-14 font dictionary:
// no /FirstChar, /LastChar or /Widths, as most generated brochures ship it.
func BuildStandardFontPDF(pages ...string) []byte {
	return build(pages, fontDict(false), textStream)
}

// BuildRawPDF returns a PDF with one page per content stream, written as
// given. The pages share the font resource /F1 of BuildPDF.
func BuildRawPDF(streams ...string) []byte {
	return build(streams, fontDict(true), func(s string) string { return s })
}

func build(pages []string, font string, content func(string) string) []byte {
	bodies := map[int]string{}
	bodies[1] = "<< /Type /Catalog /Pages 2 0 R >>"
	bodies[3] = font

	next := 4
	imageObj := 0
	for _, p := range pages {
		if p == ImagePage {
			imageObj = next
			bodies[imageObj] = "<< /Type /XObject /Subtype /Image /Width 1 /Height 1 /ColorSpace /DeviceGray /BitsPerComponent 8 /Length 1 >>\nstream\n\xff\nendstream"
			next++
			break
		}
	}

	kids := make([]string, 0, len(pages))
	for _, p := range pages {
		pageObj := next
		next++
		kids = append(kids, fmt.Sprintf("%d 0 R", pageObj))

		resources := "<< /Font << /F1 3 0 R >> >>"
		contents := ""
		switch {
		case p == ImagePage:
			resources = fmt.Sprintf("<< /XObject << /Im1 %d 0 R >> >>", imageObj)
			contents = streamObj(bodies, &next, "q\n100 0 0 100 72 600 cm\n/Im1 Do\nQ")
		case p != "":
			contents = streamObj(bodies, &next, content(p))
		}

		page := fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources %s", resources)
		if contents != "" {
			page += " /Contents " + contents
		}
		bodies[pageObj] = page + " >>"
	}
	bodies[2] = fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages))

	var b strings.Builder
	b.WriteString("%PDF-1.4\n")
	offsets := make([]int, next)
	for n := 1; n < next; n++ {
		offsets[n] = b.Len()
		fmt.Fprintf(&b, "%d 0 obj\n%s\nendobj\n", n, bodies[n])
	}

	xref := b.Len()
	fmt.Fprintf(&b, "xref\n0 %d\n", next)
	b.WriteString("0000000000 65535 f \n")
	for n := 1; n < next; n++ {
		fmt.Fprintf(&b, "%010d 00000 n \n", offsets[n])
	}
	fmt.Fprintf(&b, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", next, xref)
	return []byte(b.String())
}

func streamObj(bodies map[int]string, next *int, content string) string {
	n := *next
	*next++
	bodies[n] = fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content)
	return fmt.Sprintf("%d 0 R", n)
}

func textStream(text string) string {
	var sb strings.Builder
	sb.WriteString("BT\n/F1 12 Tf\n72 720 Td\n")
	for i, line := range strings.Split(text, "\n") {
		if i > 0 {
			sb.WriteString("0 -14 Td\n")
		}
		fmt.Fprintf(&sb, "(%s) Tj\n", escape(line))
	}
	sb.WriteString("ET")
	return sb.String()
}

func escape(s string) string {
	r := strings.NewReplacer(`\`, `\\`, "(", `\(`, ")", `\)`)
	return r.Replace(s)
}

func fontDict(withWidths bool) string {
	if !withWidths {
		return "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>"
	}
	widths := strings.TrimSpace(strings.Repeat("500 ", 126-32+1))
	return "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding " +
		"/FirstChar 32 /LastChar 126 /Widths [" + widths + "] >>"
}
