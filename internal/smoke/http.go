package smoke

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

// HTTPClient wraps http.Client with a base URL.
type HTTPClient struct {
	client  *http.Client
	baseURL string
}

// NewHTTPClient returns a client that resolves paths against baseURL.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Response is a fully read HTTP response.
type Response struct {
	Status      int
	ContentType string
	Body        string
}

func (c *HTTPClient) do(ctx context.Context, method, path, contentType string, body io.Reader) (Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return Response{}, fmt.Errorf("failed to create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return Response{}, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{}, fmt.Errorf("failed to read response body: %w", err)
	}
	return Response{
		Status:      resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        string(data),
	}, nil
}

// Get performs a GET request.
func (c *HTTPClient) Get(ctx context.Context, path string) (Response, error) {
	return c.do(ctx, http.MethodGet, path, "", nil)
}

// PostJSON performs a POST request with a JSON body.
func (c *HTTPClient) PostJSON(ctx context.Context, path string, v any) (Response, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return Response{}, fmt.Errorf("failed to marshal request body: %w", err)
	}
	return c.do(ctx, http.MethodPost, path, "application/json", bytes.NewReader(data))
}

// Post performs a POST request with a raw body.
func (c *HTTPClient) Post(ctx context.Context, path, contentType, body string) (Response, error) {
	return c.do(ctx, http.MethodPost, path, contentType, strings.NewReader(body))
}
