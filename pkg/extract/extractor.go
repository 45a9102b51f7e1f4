package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// errorPrefix marks a failed extraction result. The pipeline checks the
// prefix instead of a Go error so a failed PDF still flows into analysis as
// degraded input.
const errorPrefix = "Error"

// IsError reports whether an extraction result is the failure sentinel.
func IsError(text string) bool {
	return strings.HasPrefix(text, errorPrefix)
}

// Errorf builds a sentinel extraction result.
func Errorf(format string, args ...any) string {
	return errorPrefix + ": " + fmt.Sprintf(format, args...)
}

// Extractor turns a PDF URL into plain text. Implementations never return a
// Go error for extraction problems; they return a sentinel string (IsError)
// so callers can degrade instead of aborting.
type Extractor interface {
	ExtractText(ctx context.Context, pdfURL string) string
}

// HTTPExtractor delegates to an external extraction service.
type HTTPExtractor struct {
	baseURL string
	client  *http.Client
}

func NewHTTPExtractor(baseURL string) *HTTPExtractor {
	return &HTTPExtractor{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 5 * time.Minute},
	}
}

type extractRequest struct {
	URL string `json:"url"`
}

type extractResponse struct {
	Text  string `json:"text"`
	Error string `json:"error,omitempty"`
}

func (e *HTTPExtractor) ExtractText(ctx context.Context, pdfURL string) string {
	body, err := json.Marshal(extractRequest{URL: pdfURL})
	if err != nil {
		return Errorf("marshal request: %v", err)
	}

	endpoint := e.baseURL + "/extract"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(body))
	if err != nil {
		return Errorf("create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return Errorf("extraction service unreachable: %v", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return Errorf("read response: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		return Errorf("extraction service status %d: %s", resp.StatusCode, string(respBytes))
	}

	var parsed extractResponse
	if err := json.Unmarshal(respBytes, &parsed); err != nil {
		return Errorf("decode response: %v", err)
	}
	if parsed.Error != "" {
		return Errorf("%s", parsed.Error)
	}
	if strings.TrimSpace(parsed.Text) == "" {
		return Errorf("empty extraction result for %s", pdfURL)
	}
	return parsed.Text
}
