package ocr

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/brochure-cli/internal/extract"
	"github.com/sells-group/brochure-cli/internal/extract/extracttest"
	"github.com/sells-group/brochure-cli/internal/resilience"
)

func TestNewRecognizer(t *testing.T) {
	r, err := NewRecognizer(Config{})
	require.NoError(t, err)
	assert.Nil(t, r)

	r, err = NewRecognizer(Config{Provider: "pdftotext", PdfToTextPath: "/usr/bin/pdftotext"})
	require.NoError(t, err)
	assert.IsType(t, &PdfToText{}, r)

	_, err = NewRecognizer(Config{Provider: "mistral"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires ocr.mistral_key")

	r, err = NewRecognizer(Config{Provider: "mistral", MistralKey: "k"})
	require.NoError(t, err)
	assert.IsType(t, &MistralOCR{}, r)

	_, err = NewRecognizer(Config{Provider: "tesseract"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown provider "tesseract"`)
}

func TestPdfToText_BinPath(t *testing.T) {
	assert.Equal(t, "pdftotext", NewPdfToText("").binPath)
	assert.Equal(t, "/custom/pdftotext", NewPdfToText("/custom/pdftotext").binPath)
}

func TestPdfToText_MissingBinary(t *testing.T) {
	p := NewPdfToText("/nonexistent/pdftotext")
	_, err := p.Recognize(context.Background(), extract.Payload{Label: "scan.pdf", Data: []byte("%PDF")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scan.pdf")
}

func TestMistralOCR_Defaults(t *testing.T) {
	m := NewMistralOCR("key", "")
	assert.Equal(t, defaultMistralModel, m.model)
	assert.Equal(t, mistralOCREndpoint, m.endpoint)
	assert.Equal(t, "custom", NewMistralOCR("key", "custom").model)
}

func newTestMistral(url string) *MistralOCR {
	m := NewMistralOCR("test-key", "test-model")
	m.endpoint = url
	m.retry = resilience.Policy{InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond}
	return m
}

func TestMistralOCR_Recognize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req mistralOCRRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)
		assert.Equal(t, "document_url", req.Document.Type)
		assert.Equal(t, "data:application/pdf;base64,JVBERg==", req.Document.DocumentURL)

		_ = json.NewEncoder(w).Encode(mistralOCRResponse{Pages: []mistralOCRPage{
			{Index: 0, Markdown: "# Plan Overview\n"},
			{Index: 1, Markdown: "Co-payment: 10%"},
		}})
	}))
	defer srv.Close()

	text, err := newTestMistral(srv.URL).Recognize(context.Background(), extract.Payload{Label: "a.pdf", Data: []byte("%PDF")})
	require.NoError(t, err)
	assert.Equal(t, "# Plan Overview\nCo-payment: 10%", text)
}

func TestMistralOCR_RetriesThenFails(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := newTestMistral(srv.URL).Recognize(context.Background(), extract.Payload{Label: "a.pdf"})
	require.Error(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestMistralOCR_ClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, `{"message":"invalid key"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := newTestMistral(srv.URL).Recognize(context.Background(), extract.Payload{Label: "a.pdf"})
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
	var se *resilience.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusUnauthorized, se.StatusCode)
}

type stubRecognizer struct {
	text  string
	err   error
	calls int
}

func (s *stubRecognizer) Recognize(context.Context, extract.Payload) (string, error) {
	s.calls++
	return s.text, s.err
}

func newExtractor(t *testing.T) extract.Extractor {
	t.Helper()
	ex, err := extract.NewExtractor(extract.EngineAuto)
	require.NoError(t, err)
	return ex
}

func TestFallback_SkipsDocumentsWithText(t *testing.T) {
	stub := &stubRecognizer{text: "ocr"}
	f := NewFallback(newExtractor(t), stub, 0)

	res := f.ExtractText(extract.Payload{Label: "a.pdf", Data: extracttest.BuildPDF("Sum Insured: 5 Lakh")})
	require.NoError(t, res.Err())
	assert.Equal(t, "Sum Insured: 5 Lakh\n", res.Text)
	assert.Zero(t, stub.calls)
}

func TestFallback_RecognizesImageOnly(t *testing.T) {
	stub := &stubRecognizer{text: "  Room Rent: Single AC room \n"}
	f := NewFallback(newExtractor(t), stub, time.Second)

	res := f.ExtractText(extract.Payload{Label: "scan.pdf", Data: extracttest.BuildPDF(extracttest.ImagePage)})
	require.NoError(t, res.Err())
	assert.Equal(t, "Room Rent: Single AC room\n", res.Text)
	assert.Equal(t, 1, stub.calls)
}

func TestFallback_KeepsEmptyTextOnError(t *testing.T) {
	stub := &stubRecognizer{err: errors.New("boom")}
	f := NewFallback(newExtractor(t), stub, time.Second)

	res := f.ExtractText(extract.Payload{Label: "scan.pdf", Data: extracttest.BuildPDF("")})
	require.True(t, res.OK())
	assert.Empty(t, res.Text)
}

func TestFallback_DoesNotMaskParseFailures(t *testing.T) {
	stub := &stubRecognizer{text: "should not be used"}
	f := NewFallback(newExtractor(t), stub, time.Second)

	res := f.ExtractText(extract.Payload{Label: "bad.pdf", Data: []byte("not a pdf")})
	require.False(t, res.OK())
	assert.Equal(t, "bad.pdf", res.Failure.Label)
	assert.Zero(t, stub.calls)
}
