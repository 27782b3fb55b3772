package analyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sprite-ai/beautyscan/internal/stream"
)

// AnalyzePath is the backend route that streams an analysis.
const AnalyzePath = "/api/analyze"

// AnalyzeRequest is the body of a backend analysis request.
type AnalyzeRequest struct {
	Image string `json:"image"`
}

// ErrorResponse is the body of a failed backend response.
type ErrorResponse struct {
	Message string `json:"message"`
}

// Remote analyzes images through a beautyscan backend, so the provider
// credential never leaves the server.
type Remote struct {
	baseURL    string
	httpClient *http.Client
}

// NewRemote creates a client for the backend at baseURL.
func NewRemote(baseURL string) *Remote {
	return &Remote{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			// Covers reading the streamed body too.
			Timeout: 2 * time.Minute,
		},
	}
}

// Analyze implements Analyzer.
func (r *Remote) Analyze(ctx context.Context, img Image) (<-chan stream.Fragment, error) {
	body, err := json.Marshal(AnalyzeRequest{Image: img.Base64()})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+AnalyzePath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/plain")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, &Error{Kind: KindTransport, Message: "could not reach the analysis server", Cause: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, responseError(resp)
	}

	out := make(chan stream.Fragment)
	go func() {
		defer close(out)
		defer resp.Body.Close()
		for f := range stream.ReadFragments(ctx, resp.Body) {
			if f.Err != nil {
				f.Err = &Error{Kind: KindTransport, Message: "the connection to the analysis server was lost", Cause: f.Err}
			}
			select {
			case out <- f:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func responseError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var er ErrorResponse
	_ = json.Unmarshal(raw, &er)

	kind := KindProvider
	switch resp.StatusCode {
	case http.StatusBadRequest, http.StatusRequestEntityTooLarge:
		kind = KindValidation
	case http.StatusUnauthorized, http.StatusForbidden:
		kind = KindAuth
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		kind = KindTransport
	}
	return &Error{Kind: kind, Message: er.Message, StatusCode: resp.StatusCode}
}
