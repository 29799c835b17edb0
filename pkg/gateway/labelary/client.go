// Package labelary converts ZPL printer data into raster images through
// the Labelary rendering service.
package labelary

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Endpoint is the public Labelary service.
const Endpoint = "https://api.labelary.com/v1"

// Print densities accepted by the service.
const (
	Density6  = "6dpmm"
	Density8  = "8dpmm"
	Density12 = "12dpmm"
	Density24 = "24dpmm"
)

// ErrEmptyInput indicates Convert was called without ZPL data.
var ErrEmptyInput = errors.New("empty ZPL input")

// Options controls a single conversion. Zero values take the service
// defaults: 8dpmm density, a 4x6 inch label, index 0, PNG output.
type Options struct {
	Density      string
	WidthInches  float64
	HeightInches float64
	Index        int
	Response     string // Accept media type
	Rotation     int    // degrees, 0 omits the header
}

// Result is a converted label.
type Result struct {
	ContentType string
	Content     []byte
}

// Config holds client configuration.
type Config struct {
	Endpoint string
	Timeout  time.Duration
}

// Client is the Labelary HTTP client.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// NewClient creates a Labelary client.
func NewClient(cfg Config) *Client {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = Endpoint
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Convert renders ZPL data into an image. One synchronous request per
// label; the label index selects the label within multi-label ZPL.
func (c *Client) Convert(ctx context.Context, zpl []byte, opts *Options) (*Result, error) {
	if len(zpl) == 0 {
		return nil, ErrEmptyInput
	}

	if opts == nil {
		opts = &Options{}
	}

	density := opts.Density
	if density == "" {
		density = Density8
	}

	width := opts.WidthInches
	if width == 0 {
		width = 4
	}

	height := opts.HeightInches
	if height == 0 {
		height = 6
	}

	response := opts.Response
	if response == "" {
		response = "image/png"
	}

	url := fmt.Sprintf("%s/printers/%s/labels/%gx%g/%d/",
		c.endpoint, density, width, height, opts.Index)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(zpl))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", response)
	if opts.Rotation != 0 {
		req.Header.Set("X-Rotation", fmt.Sprintf("%d", opts.Rotation))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("labelary returned %d: %s", resp.StatusCode, string(body))
	}

	return &Result{
		ContentType: resp.Header.Get("Content-Type"),
		Content:     body,
	}, nil
}
