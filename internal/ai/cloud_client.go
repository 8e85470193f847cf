package ai

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

// CloudClient is a thin caller for the remote inference service. It
// returns the raw status and body and leaves interpretation to the
// analyzer, so response-shape changes on the remote side never break
// the transport layer.
type CloudClient struct {
	baseURL string
	client  *http.Client
}

// NewCloudClient creates a client for the given base URL. Every call is
// bounded by the timeout and by the caller's context.
func NewCloudClient(baseURL string, timeout time.Duration) *CloudClient {
	return &CloudClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

type predictRequest struct {
	Text string `json:"text"`
}

type trainRequest struct {
	Data string `json:"data"`
	Type string `json:"type"`
}

// Predict posts document text to the /predict endpoint.
func (c *CloudClient) Predict(ctx context.Context, text string) (int, []byte, error) {
	return c.post(ctx, "/predict", predictRequest{Text: text})
}

// Train posts training data to the /train endpoint.
func (c *CloudClient) Train(ctx context.Context, data, documentType string) (int, []byte, error) {
	return c.post(ctx, "/train", trainRequest{Data: data, Type: documentType})
}

func (c *CloudClient) post(ctx context.Context, path string, payload interface{}) (int, []byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return 0, nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to read response from %s: %w", path, err)
	}

	return resp.StatusCode, respBody, nil
}
