package extract

import (
	"bytes"
	"encoding/hex"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/charmap"
	xunicode "golang.org/x/text/encoding/unicode"
)

// tjSpaceThreshold is the TJ displacement (thousandths of an em) past which a
// gap between two strings is read as a word break.
const tjSpaceThreshold = -200

type tokenKind int

const (
	tokNumber tokenKind = iota
	tokString
	tokName
	tokArrayStart
	tokArrayEnd
	tokOperator
	tokOther
)

type token struct {
	kind tokenKind
	num  float64
	str  string
}

type operand struct {
	token
	arr []token
}

// contentText returns the text drawn by a decoded page content stream. Only
// the text-showing operators (Tj, TJ, ' and ") contribute characters; the
// positioning operators decide where line breaks and spaces go. Strings are
// decoded as UTF-16BE when they carry a byte order mark and as Windows-1252
// otherwise, which covers simple fonts. Glyph codes of CID fonts without a
// ToUnicode map come out unreadable here; the rscpdf engine handles those.
func contentText(stream []byte) string {
	sc := &contentScanner{data: stream}
	w := &textWriter{}

	var operands []operand
	var lastY float64
	haveY := false

	for {
		tok, ok := sc.next()
		if !ok {
			break
		}
		switch tok.kind {
		case tokArrayStart:
			operands = append(operands, operand{token: tok, arr: sc.array()})
			continue
		case tokOperator:
		default:
			operands = append(operands, operand{token: tok})
			continue
		}

		switch tok.str {
		case "Tj":
			if s, ok := lastString(operands); ok {
				w.text(s)
			}
		case "'", `"`:
			w.newline()
			if s, ok := lastString(operands); ok {
				w.text(s)
			}
		case "TJ":
			if n := len(operands); n > 0 {
				for _, el := range operands[n-1].arr {
					switch el.kind {
					case tokString:
						w.text(el.str)
					case tokNumber:
						if el.num < tjSpaceThreshold {
							w.space()
						}
					}
				}
			}
		case "Td", "TD":
			if ty, ok := number(operands, 0); ok && ty != 0 {
				w.newline()
			} else {
				w.space()
			}
		case "T*":
			w.newline()
		case "Tm":
			if y, ok := number(operands, 0); ok {
				if haveY && y != lastY {
					w.newline()
				} else {
					w.space()
				}
				lastY, haveY = y, true
			}
		case "BI":
			sc.skipInlineImage()
		}
		operands = operands[:0]
	}
	return w.String()
}

// lastString returns the final operand if it is a string.
func lastString(ops []operand) (string, bool) {
	if len(ops) == 0 || ops[len(ops)-1].kind != tokString {
		return "", false
	}
	return ops[len(ops)-1].str, true
}

// number returns the operand fromEnd positions before the last one.
func number(ops []operand, fromEnd int) (float64, bool) {
	i := len(ops) - 1 - fromEnd
	if i < 0 || i >= len(ops) || ops[i].kind != tokNumber {
		return 0, false
	}
	return ops[i].num, true
}

// textWriter collapses the spaces and newlines produced by positioning
// operators so they never pile up.
type textWriter struct {
	sb   strings.Builder
	last byte
}

func (w *textWriter) text(raw string) {
	s := decodePDFString(raw)
	if s == "" {
		return
	}
	w.sb.WriteString(s)
	w.last = s[len(s)-1]
}

func (w *textWriter) space() {
	if w.sb.Len() == 0 || w.last == ' ' || w.last == '\n' {
		return
	}
	w.sb.WriteByte(' ')
	w.last = ' '
}

func (w *textWriter) newline() {
	if w.sb.Len() == 0 || w.last == '\n' {
		return
	}
	w.sb.WriteByte('\n')
	w.last = '\n'
}

func (w *textWriter) String() string {
	return w.sb.String()
}

// decodePDFString maps the raw bytes of a PDF string to UTF-8.
func decodePDFString(raw string) string {
	if strings.HasPrefix(raw, "\xfe\xff") {
		dec := xunicode.UTF16(xunicode.BigEndian, xunicode.ExpectBOM).NewDecoder()
		if s, err := dec.String(raw); err == nil {
			return s
		}
	}
	s, err := charmap.Windows1252.NewDecoder().String(raw)
	if err != nil {
		return raw
	}
	return s
}

// contentScanner tokenizes a content stream. It understands just enough of the
// PDF lexical rules to find strings, numbers, arrays and operators.
type contentScanner struct {
	data []byte
	pos  int
}

func isPDFSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\r', '\n', '\f', 0:
		return true
	}
	return false
}

func isPDFDelim(c byte) bool {
	switch c {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

func (s *contentScanner) skipSpace() {
	for s.pos < len(s.data) {
		c := s.data[s.pos]
		switch {
		case isPDFSpace(c):
			s.pos++
		case c == '%':
			for s.pos < len(s.data) && s.data[s.pos] != '\n' && s.data[s.pos] != '\r' {
				s.pos++
			}
		default:
			return
		}
	}
}

func (s *contentScanner) next() (token, bool) {
	s.skipSpace()
	if s.pos >= len(s.data) {
		return token{}, false
	}
	c := s.data[s.pos]
	switch c {
	case '(':
		return token{kind: tokString, str: s.literal()}, true
	case '<':
		if s.pos+1 < len(s.data) && s.data[s.pos+1] == '<' {
			s.pos += 2
			return token{kind: tokOther}, true
		}
		return token{kind: tokString, str: s.hexString()}, true
	case '>':
		s.pos++
		if s.pos < len(s.data) && s.data[s.pos] == '>' {
			s.pos++
		}
		return token{kind: tokOther}, true
	case '[':
		s.pos++
		return token{kind: tokArrayStart}, true
	case ']':
		s.pos++
		return token{kind: tokArrayEnd}, true
	case '/':
		s.pos++
		return token{kind: tokName, str: s.regular()}, true
	case '{', '}', ')':
		s.pos++
		return token{kind: tokOther}, true
	}

	lit := s.regular()
	if lit == "" {
		s.pos++
		return token{kind: tokOther}, true
	}
	if c == '+' || c == '-' || c == '.' || (c >= '0' && c <= '9') {
		if f, err := strconv.ParseFloat(lit, 64); err == nil {
			return token{kind: tokNumber, num: f}, true
		}
	}
	return token{kind: tokOperator, str: lit}, true
}

// array collects tokens up to the matching ']'. Nested arrays are flattened.
func (s *contentScanner) array() []token {
	var out []token
	depth := 1
	for {
		tok, ok := s.next()
		if !ok {
			return out
		}
		switch tok.kind {
		case tokArrayStart:
			depth++
		case tokArrayEnd:
			depth--
			if depth == 0 {
				return out
			}
		default:
			out = append(out, tok)
		}
	}
}

func (s *contentScanner) regular() string {
	start := s.pos
	for s.pos < len(s.data) && !isPDFSpace(s.data[s.pos]) && !isPDFDelim(s.data[s.pos]) {
		s.pos++
	}
	return string(s.data[start:s.pos])
}

// literal reads a (...) string, honouring nesting and backslash escapes.
func (s *contentScanner) literal() string {
	s.pos++
	var out []byte
	depth := 1
	for s.pos < len(s.data) {
		c := s.data[s.pos]
		s.pos++
		switch c {
		case '\\':
			if s.pos >= len(s.data) {
				return string(out)
			}
			e := s.data[s.pos]
			s.pos++
			switch e {
			case 'n':
				out = append(out, '\n')
			case 'r':
				out = append(out, '\r')
			case 't':
				out = append(out, '\t')
			case 'b':
				out = append(out, '\b')
			case 'f':
				out = append(out, '\f')
			case '\r':
				if s.pos < len(s.data) && s.data[s.pos] == '\n' {
					s.pos++
				}
			case '\n':
			default:
				if e >= '0' && e <= '7' {
					v := int(e - '0')
					for k := 0; k < 2 && s.pos < len(s.data); k++ {
						d := s.data[s.pos]
						if d < '0' || d > '7' {
							break
						}
						v = v*8 + int(d-'0')
						s.pos++
					}
					out = append(out, byte(v))
				} else {
					out = append(out, e)
				}
			}
		case '(':
			depth++
			out = append(out, c)
		case ')':
			depth--
			if depth == 0 {
				return string(out)
			}
			out = append(out, c)
		default:
			out = append(out, c)
		}
	}
	return string(out)
}

func (s *contentScanner) hexString() string {
	s.pos++
	var digits []byte
	for s.pos < len(s.data) && s.data[s.pos] != '>' {
		if c := s.data[s.pos]; !isPDFSpace(c) {
			digits = append(digits, c)
		}
		s.pos++
	}
	s.pos++
	if len(digits)%2 == 1 {
		digits = append(digits, '0')
	}
	b, err := hex.DecodeString(string(digits))
	if err != nil {
		return ""
	}
	return string(b)
}

// skipInlineImage moves past the binary data of a BI ... ID ... EI block.
func (s *contentScanner) skipInlineImage() {
	for {
		tok, ok := s.next()
		if !ok {
			return
		}
		if tok.kind == tokOperator && tok.str == "ID" {
			break
		}
	}
	for s.pos < len(s.data) {
		i := bytes.Index(s.data[s.pos:], []byte("EI"))
		if i < 0 {
			s.pos = len(s.data)
			return
		}
		at := s.pos + i
		s.pos = at + 2
		before := at == 0 || isPDFSpace(s.data[at-1])
		after := s.pos >= len(s.data) || isPDFSpace(s.data[s.pos])
		if before && after {
			return
		}
	}
}
