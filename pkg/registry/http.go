package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/Cairn-Labs/listing-steward/pkg/contracts"
)

// HTTPEngine talks to a remote configuration service over JSON/HTTP.
type HTTPEngine struct {
	baseURL string
	client  *http.Client
}

// NewHTTPEngine creates a client for the configuration service at baseURL.
// If client is nil a default with a 30s timeout is used.
func NewHTTPEngine(baseURL string, client *http.Client) (*HTTPEngine, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("engine base URL is required")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid engine base URL %q: %w", baseURL, err)
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPEngine{baseURL: baseURL, client: client}, nil
}

type listAssetRequest struct {
	Context contracts.CallContext `json:"context"`
	Params  contracts.RiskParams  `json:"params"`
}

type setFrozenRequest struct {
	Frozen bool `json:"frozen"`
}

// ListAsset activates the subject on the remote engine.
func (e *HTTPEngine) ListAsset(ctx context.Context, callCtx contracts.CallContext, subjectID string, params contracts.RiskParams) (contracts.ListingReceipt, error) {
	var receipt contracts.ListingReceipt
	err := e.post(ctx, fmt.Sprintf("/v1/assets/%s/list", url.PathEscape(subjectID)), listAssetRequest{Context: callCtx, Params: params}, &receipt)
	if err != nil {
		return contracts.ListingReceipt{}, err
	}
	return receipt, nil
}

// Status queries the subject's listing state.
func (e *HTTPEngine) Status(ctx context.Context, subjectID string) (contracts.SubjectStatus, error) {
	var status contracts.SubjectStatus
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.baseURL+fmt.Sprintf("/v1/assets/%s/status", url.PathEscape(subjectID)), nil)
	if err != nil {
		return contracts.SubjectStatus{}, err
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return contracts.SubjectStatus{}, fmt.Errorf("engine status call: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode == http.StatusNotFound {
		return contracts.SubjectStatus{Listed: false}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return contracts.SubjectStatus{}, engineHTTPError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return contracts.SubjectStatus{}, fmt.Errorf("decode status response: %w", err)
	}
	return status, nil
}

// SetFrozen halts or resumes the subject on the remote engine.
func (e *HTTPEngine) SetFrozen(ctx context.Context, subjectID string, frozen bool) error {
	return e.post(ctx, fmt.Sprintf("/v1/assets/%s/frozen", url.PathEscape(subjectID)), setFrozenRequest{Frozen: frozen}, nil)
}

// UpdateRiskParams replaces live parameters on the remote engine.
func (e *HTTPEngine) UpdateRiskParams(ctx context.Context, subjectID string, params contracts.RiskParams) error {
	return e.post(ctx, fmt.Sprintf("/v1/assets/%s/params", url.PathEscape(subjectID)), params, nil)
}

func (e *HTTPEngine) post(ctx context.Context, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode engine request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("engine call %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return engineHTTPError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode engine response: %w", err)
	}
	return nil
}

func engineHTTPError(resp *http.Response) error {
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return fmt.Errorf("engine returned %d: %s", resp.StatusCode, string(snippet))
}
