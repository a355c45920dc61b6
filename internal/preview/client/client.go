package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"plotbot/internal/preview/models"
)

// ============================================================
// Device Service Client
// ============================================================

// Client talks to the device service. Every call is a single request without retries.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a client for the service at baseURL. A nil httpClient means http.DefaultClient.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}
}

type previewRequest struct {
	SVG string `json:"svg"`
}

type printRequest struct {
	SVG     string           `json:"svg"`
	OffsetX float64          `json:"offset_x"`
	OffsetY float64          `json:"offset_y"`
	ScaleX  float64          `json:"scale_x"`
	ScaleY  float64          `json:"scale_y"`
	Mode    models.PrintMode `json:"mode"`
}

// Decompose asks the service to turn svg into polylines.
func (c *Client) Decompose(ctx context.Context, svg string) (models.PolylineSet, error) {
	log.Printf("[CLIENT] Requesting decomposition, svg size: %d bytes", len(svg))

	data, err := c.do(ctx, http.MethodPost, "/preview/", previewRequest{SVG: svg}, http.StatusOK)
	if err != nil {
		return nil, err
	}

	var set models.PolylineSet
	if err := json.Unmarshal(data, &set); err != nil {
		return nil, &ServiceError{Status: http.StatusOK, Err: fmt.Errorf("decode polylines: %w", err)}
	}

	log.Printf("[CLIENT] Received %d polylines (%d points)", len(set), set.Points())
	return set, nil
}

// Submit sends the original svg with the placement to be drawn in the given mode.
func (c *Client) Submit(ctx context.Context, svg string, p models.Placement, mode models.PrintMode) error {
	log.Printf("[CLIENT] Submitting print, mode: %s, placement: %+v", mode, p)

	req := printRequest{
		SVG:     svg,
		OffsetX: p.OffsetX,
		OffsetY: p.OffsetY,
		ScaleX:  p.ScaleX,
		ScaleY:  p.ScaleY,
		Mode:    mode,
	}
	_, err := c.do(ctx, http.MethodPost, "/print/", req, http.StatusNoContent)
	return err
}

// Config fetches the device configuration.
func (c *Client) Config(ctx context.Context) (models.DeviceConfig, error) {
	var cfg models.DeviceConfig

	data, err := c.do(ctx, http.MethodGet, "/config/", nil, http.StatusOK)
	if err != nil {
		return cfg, err
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, &ServiceError{Status: http.StatusOK, Err: fmt.Errorf("decode config: %w", err)}
	}
	return cfg, nil
}

// ListFiles returns the SVG files available on the device, possibly none.
func (c *Client) ListFiles(ctx context.Context) ([]string, error) {
	data, err := c.do(ctx, http.MethodGet, "/list/", nil, http.StatusOK)
	if err != nil {
		return nil, err
	}

	files := []string{}
	if err := json.Unmarshal(data, &files); err != nil {
		return nil, &ServiceError{Status: http.StatusOK, Err: fmt.Errorf("decode file list: %w", err)}
	}
	return files, nil
}

// do sends a JSON request and returns the body when the status equals want.
// Any other status is mapped through statusError.
func (c *Client) do(ctx context.Context, method, path string, payload any, want int) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		log.Printf("[CLIENT] %s %s failed: %v", method, path, err)
		return nil, &ServiceError{Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ServiceError{Status: resp.StatusCode, Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode != want {
		log.Printf("[CLIENT] %s %s returned status %d", method, path, resp.StatusCode)
		return nil, statusError(resp.StatusCode, data)
	}
	return data, nil
}
