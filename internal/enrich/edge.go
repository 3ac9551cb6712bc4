package enrich

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/aivira/grantdna/internal/model"
)

// DefaultTimeout bounds the enrichment round trip. The fallback path is the
// canonical behavior for a late answer, so a short timeout is fine.
const DefaultTimeout = 5 * time.Second

// EdgeClient calls the hosted enrichment edge function.
type EdgeClient struct {
	url    string
	apiKey string
	http   *http.Client
}

// NewEdgeClient creates an edge function client. A zero timeout selects
// DefaultTimeout.
func NewEdgeClient(url, apiKey string, timeout time.Duration) *EdgeClient {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &EdgeClient{
		url:    url,
		apiKey: apiKey,
		http:   &http.Client{Timeout: timeout},
	}
}

type edgeRequest struct {
	Email          string        `json:"email"`
	ConsentPurpose string        `json:"consentPurpose"`
	Prompt         string        `json:"prompt"`
	FormData       model.Answers `json:"formData"`
	Version        int           `json:"version"`
}

type edgeResponse struct {
	Success    bool            `json:"success"`
	Enrichment json.RawMessage `json:"enrichment"`
}

// Enrich posts the prompt and answers to the edge function. The enrichment
// field in the response may be either a structured object or a bare string;
// a string answer becomes generic suggestions with the string as reasoning.
func (c *EdgeClient) Enrich(ctx context.Context, a model.Answers, program model.Program) (model.Enrichment, error) {
	body, err := json.Marshal(edgeRequest{
		Email:          a.Email,
		ConsentPurpose: ConsentPurpose,
		Prompt:         BuildPrompt(a, program),
		FormData:       a,
		Version:        Version,
	})
	if err != nil {
		return model.Enrichment{}, fmt.Errorf("marshal enrichment request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return model.Enrichment{}, fmt.Errorf("build enrichment request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return model.Enrichment{}, fmt.Errorf("enrichment call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return model.Enrichment{}, fmt.Errorf("enrichment call failed: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.Enrichment{}, fmt.Errorf("read enrichment response: %w", err)
	}

	var er edgeResponse
	if err := json.Unmarshal(data, &er); err != nil {
		return model.Enrichment{}, fmt.Errorf("parse enrichment response: %w", err)
	}
	if !er.Success || len(er.Enrichment) == 0 {
		return model.Enrichment{}, fmt.Errorf("enrichment response unsuccessful")
	}

	var e model.Enrichment
	if err := json.Unmarshal(er.Enrichment, &e); err == nil && len(e.Suggestions) > 0 {
		return e, nil
	}

	var text string
	if err := json.Unmarshal(er.Enrichment, &text); err == nil && text != "" {
		return model.Enrichment{Suggestions: genericSuggestions, Reasoning: text}, nil
	}

	return model.Enrichment{}, fmt.Errorf("malformed enrichment payload")
}
