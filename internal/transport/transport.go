// Package transport provides the process-wide pooled HTTP client (C1). It
// carries no retry, rate-limit, or circuit-breaker logic of its own — that
// lives one layer up in internal/reliability.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

// Response is the parsed-or-raw result of a transport call. JSON is
// populated when the response's Content-Type advertises JSON; otherwise
// Bytes carries the raw body.
type Response struct {
	Status  int
	Headers http.Header
	JSON    json.RawMessage
	Bytes   []byte
}

// Pool is the process-wide connection-pooled client.
type Pool struct {
	client *http.Client
}

// NewPool constructs the shared client: 30 max connections per host, up to
// 100 idle connections kept (the total number of connections across hosts
// is not capped), 30s total timeout, 10s dial, 20s response-header timeout.
func NewPool() *Pool {
	transport := &http.Transport{
		MaxConnsPerHost:       30,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   30,
		IdleConnTimeout:       5 * time.Minute,
		ResponseHeaderTimeout: 20 * time.Second,
		DialContext: (&net.Dialer{
			Timeout: 10 * time.Second,
		}).DialContext,
	}

	return &Pool{
		client: &http.Client{
			Transport: transport,
			Timeout:   30 * time.Second,
		},
	}
}

// Get issues a GET request and classifies the response body by Content-Type.
func (p *Pool) Get(ctx context.Context, url string, headers http.Header) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for k, vs := range headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	return p.do(req)
}

// PostJSON issues a POST request with a JSON-encoded body.
func (p *Pool) PostJSON(ctx context.Context, url string, body any, headers http.Header) (*Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, vs := range headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	return p.do(req)
}

func (p *Pool) do(req *http.Request) (*Response, error) {
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	out := &Response{
		Status:  resp.StatusCode,
		Headers: resp.Header,
		Bytes:   raw,
	}

	if strings.Contains(resp.Header.Get("Content-Type"), "json") && len(raw) > 0 {
		out.JSON = json.RawMessage(raw)
	}

	return out, nil
}
