package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/brochure-cli/internal/extract"
	"github.com/sells-group/brochure-cli/internal/resilience"
)

const (
	mistralOCREndpoint  = "https://api.mistral.ai/v1/ocr"
	defaultMistralModel = "mistral-ocr-latest"
)

// MistralOCR reads PDFs with the Mistral OCR API.
type MistralOCR struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
	retry    resilience.Policy
}

// NewMistralOCR creates a MistralOCR recognizer. If model is empty, the default is used.
func NewMistralOCR(apiKey, model string) *MistralOCR {
	if model == "" {
		model = defaultMistralModel
	}
	retry := resilience.DefaultPolicy()
	retry.OnRetry = resilience.LogRetry("mistral", "ocr")
	return &MistralOCR{
		apiKey:   apiKey,
		model:    model,
		endpoint: mistralOCREndpoint,
		client:   &http.Client{Timeout: 2 * time.Minute},
		retry:    retry,
	}
}

type mistralOCRRequest struct {
	Model    string             `json:"model"`
	Document mistralOCRDocument `json:"document"`
}

type mistralOCRDocument struct {
	Type        string `json:"type"`
	DocumentURL string `json:"document_url"`
}

type mistralOCRResponse struct {
	Pages []mistralOCRPage `json:"pages"`
}

type mistralOCRPage struct {
	Index    int    `json:"index"`
	Markdown string `json:"markdown"`
}

// Recognize uploads the document as a data URL and joins the returned pages
// in order.
func (m *MistralOCR) Recognize(ctx context.Context, doc extract.Payload) (string, error) {
	reqBody := mistralOCRRequest{
		Model: m.model,
		Document: mistralOCRDocument{
			Type:        "document_url",
			DocumentURL: "data:application/pdf;base64," + base64.StdEncoding.EncodeToString(doc.Data),
		},
	}
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", eris.Wrap(err, "ocr: marshal mistral request")
	}

	ocrResp, err := resilience.Do(ctx, m.retry, func(ctx context.Context) (*mistralOCRResponse, error) {
		return m.post(ctx, bodyBytes)
	})
	if err != nil {
		return "", eris.Wrapf(err, "ocr: mistral %s", doc.Label)
	}

	var sb strings.Builder
	for i, page := range ocrResp.Pages {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(strings.TrimRight(page.Markdown, "\n"))
	}
	return sb.String(), nil
}

func (m *MistralOCR) post(ctx context.Context, body []byte) (*mistralOCRResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "ocr: create mistral request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.apiKey)

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "ocr: mistral API call")
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "ocr: read mistral response")
	}
	if err := resilience.CheckStatus("mistral", resp.StatusCode, respBody); err != nil {
		return nil, err
	}

	var ocrResp mistralOCRResponse
	if err := json.Unmarshal(respBody, &ocrResp); err != nil {
		return nil, eris.Wrap(err, "ocr: unmarshal mistral response")
	}
	return &ocrResp, nil
}
