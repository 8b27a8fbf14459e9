package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com"
	DefaultModel   = "gemini-1.5-flash-latest"
	// DefaultTimeout bounds the whole upstream exchange, body included.
	DefaultTimeout = 20 * time.Second

	Temperature     = 0.8
	MaxOutputTokens = 200

	maxResponseBytes = 4 << 20
)

// ErrUnexpectedResponse is wrapped by every error describing a 2xx payload
// that does not carry a reply where one is expected.
var ErrUnexpectedResponse = errors.New("unexpected response format")

var (
	ErrMalformed    = fmt.Errorf("%w: body is not a generateContent response", ErrUnexpectedResponse)
	ErrNoCandidates = fmt.Errorf("%w: missing 'candidates' in response", ErrUnexpectedResponse)
	ErrNoParts      = fmt.Errorf("%w: missing 'content' or 'parts' in candidate", ErrUnexpectedResponse)
	ErrEmptyParts   = fmt.Errorf("%w: empty 'parts' in candidate", ErrUnexpectedResponse)

	// ErrTooLarge is returned instead of parsing a truncated 2xx body.
	ErrTooLarge = fmt.Errorf("%w: response body exceeds %d bytes", ErrUnexpectedResponse, maxResponseBytes)
)

// StatusError is returned for a non-2xx upstream answer. Body is kept for
// diagnostics and is not part of Error().
type StatusError struct {
	Code   int
	Status string
	Body   []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream returned %s", e.Status)
}

// Client calls the generateContent endpoint over plain HTTP. The API key is
// passed per call and travels only in the query string.
type Client struct {
	BaseURL string
	Model   string
	// ContentParts sends {"role":"user","parts":[{"text":...}]} instead of
	// the bare {"text":...} content entry.
	ContentParts bool
	HTTPClient   *http.Client
}

func NewClient(baseURL, model string, contentParts bool) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	if strings.TrimSpace(model) == "" {
		model = DefaultModel
	}
	return &Client{
		BaseURL:      strings.TrimRight(baseURL, "/"),
		Model:        model,
		ContentParts: contentParts,
		HTTPClient:   &http.Client{Timeout: DefaultTimeout},
	}
}

// NewRequest builds the request body for a single-prompt call.
func (c *Client) NewRequest(prompt string) GenerateContentRequest {
	content := Content{Text: prompt}
	if c.ContentParts {
		text := prompt
		content = Content{Role: "user", Parts: []Part{{Text: &text}}}
	}
	return GenerateContentRequest{
		Contents: []Content{content},
		GenerationConfig: GenerationConfig{
			Temperature:     Temperature,
			MaxOutputTokens: MaxOutputTokens,
		},
	}
}

func (c *Client) endpoint(apiKey string) string {
	q := url.Values{}
	q.Set("key", apiKey)
	return fmt.Sprintf("%s/v1beta/models/%s:generateContent?%s", c.BaseURL, url.PathEscape(c.Model), q.Encode())
}

// GenerateContent posts prompt once and returns the raw 2xx response body.
// Transport failures and non-2xx answers are returned as errors; the key is
// scrubbed from any URL that appears in them.
func (c *Client) GenerateContent(ctx context.Context, apiKey, prompt string) ([]byte, error) {
	body, err := json.Marshal(c.NewRequest(prompt))
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(apiKey), bytes.NewReader(body))
	if err != nil {
		return nil, redact(err, apiKey)
	}
	req.Header.Set("Content-Type", "application/json")

	hc := c.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: DefaultTimeout}
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, redact(err, apiKey)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		return nil, redact(fmt.Errorf("read response: %w", err), apiKey)
	}
	tooLarge := len(raw) > maxResponseBytes
	if tooLarge {
		raw = raw[:maxResponseBytes]
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Code: resp.StatusCode, Status: resp.Status, Body: raw}
	}
	if tooLarge {
		return nil, ErrTooLarge
	}
	return raw, nil
}

// ExtractText pulls candidates[0].content.parts[0].text out of raw. ok is
// false when the first part exists but carries no text field.
func ExtractText(raw []byte) (text string, ok bool, err error) {
	var resp GenerateContentResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", false, fmt.Errorf("%w (%v)", ErrMalformed, err)
	}
	if len(resp.Candidates) == 0 {
		return "", false, ErrNoCandidates
	}
	first := resp.Candidates[0]
	if first.Content == nil || first.Content.Parts == nil {
		return "", false, ErrNoParts
	}
	if len(first.Content.Parts) == 0 {
		return "", false, ErrEmptyParts
	}
	if t := first.Content.Parts[0].Text; t != nil {
		return *t, true, nil
	}
	return "", false, nil
}

func redact(err error, apiKey string) error {
	if apiKey == "" {
		return err
	}
	var ue *url.Error
	if errors.As(err, &ue) {
		ue.URL = strings.ReplaceAll(ue.URL, url.QueryEscape(apiKey), "REDACTED")
		ue.URL = strings.ReplaceAll(ue.URL, apiKey, "REDACTED")
	}
	return err
}
