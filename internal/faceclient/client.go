// Package faceclient calls the face recognition microservice that
// compares attendance snapshots against enrolled face images.
package faceclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// VerifyResult contains a snapshot-vs-enrollment comparison.
type VerifyResult struct {
	Similarity    float64 `json:"similarity"`
	Match         bool    `json:"match"`
	Threshold     float64 `json:"threshold"`
	FacesDetected int     `json:"faces_detected"`
}

// Client calls the face recognition microservice.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	Skip    bool
}

// New creates a client. With skip set, Verify returns a canned match so
// the pipeline runs without the microservice (dev mode).
func New(baseURL string, skip bool) *Client {
	return &Client{
		BaseURL: baseURL,
		Skip:    skip,
		HTTP: &http.Client{
			Timeout: 30 * time.Second, // face processing can take time
		},
	}
}

// Health checks service availability.
func (c *Client) Health(ctx context.Context) error {
	if c.Skip {
		return nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("faceclient: health request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("faceclient: health status %d", resp.StatusCode)
	}
	return nil
}

// Verify compares the snapshot image against the student's enrolled
// reference images and returns the best similarity.
func (c *Client) Verify(ctx context.Context, snapshotURL string, referenceURLs []string) (*VerifyResult, error) {
	if c.Skip {
		return &VerifyResult{Similarity: 0.95, Match: true, Threshold: 0.6, FacesDetected: 1}, nil
	}
	if snapshotURL == "" {
		return nil, fmt.Errorf("faceclient: snapshot url required")
	}
	if len(referenceURLs) == 0 {
		return nil, fmt.Errorf("faceclient: no reference images enrolled")
	}

	payload, err := json.Marshal(map[string]any{
		"snapshot_url":   snapshotURL,
		"reference_urls": referenceURLs,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/verify", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("faceclient: verify request failed: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("faceclient: verify failed (%d): %s", resp.StatusCode, string(body))
	}

	var result VerifyResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("faceclient: decode response failed: %w", err)
	}
	return &result, nil
}
