package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/localnerve/chapterviewer/internal/types"
)

// HTTPDoer describes the HTTP client used by the HTTP backends.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ProxyRequest is the body the proxy endpoint accepts.
type ProxyRequest struct {
	Action string          `json:"action"`
	Type   string          `json:"type"`
	Data   json.RawMessage `json:"data,omitempty"`
}

// ProxyResponse is the body the proxy endpoint returns.
type ProxyResponse struct {
	Success bool            `json:"success"`
	Action  string          `json:"action,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
	Message string          `json:"message,omitempty"`
}

// ProxyClient talks to the state proxy endpoint. The proxy holds the storage
// credential; the client never sees it.
type ProxyClient struct {
	endpoint string
	client   HTTPDoer
}

// NewProxyClient builds a client for endpoint ("https://site/api/github-proxy").
func NewProxyClient(endpoint string, client HTTPDoer) *ProxyClient {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &ProxyClient{
		endpoint: strings.TrimSpace(endpoint),
		client:   client,
	}
}

// Load implements KeyValue.
func (p *ProxyClient) Load(ctx context.Context, kind types.Kind) (json.RawMessage, error) {
	resp, err := p.call(ctx, ProxyRequest{Action: "load", Type: kind.String()})
	if err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 || string(resp.Data) == "null" {
		return nil, nil
	}
	return resp.Data, nil
}

// Save implements KeyValue.
func (p *ProxyClient) Save(ctx context.Context, kind types.Kind, data json.RawMessage) error {
	_, err := p.call(ctx, ProxyRequest{Action: "save", Type: kind.String(), Data: data})
	return err
}

func (p *ProxyClient) call(ctx context.Context, body ProxyRequest) (*ProxyResponse, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode proxy request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build proxy request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %w", ErrUnavailable, body.Action, body.Type, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read proxy response: %w", ErrUnavailable, err)
	}

	var out ProxyResponse
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &out); err != nil {
			return nil, fmt.Errorf("%w: decode proxy response (status %d): %w", ErrUnavailable, resp.StatusCode, err)
		}
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		msg := out.Error
		if msg == "" {
			msg = out.Message
		}
		return nil, fmt.Errorf("%w: proxy %s %s returned %d: %s", ErrUnavailable, body.Action, body.Type, resp.StatusCode, msg)
	}
	if !out.Success {
		return nil, fmt.Errorf("%w: proxy %s %s reported failure: %s", ErrUnavailable, body.Action, body.Type, out.Error)
	}
	return &out, nil
}
