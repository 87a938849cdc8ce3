// Package parser provides a client for the external document-parse service
// that extracts text from uploaded files (PDF, DOC, DOCX, PNG, JPEG).
//
// The parse service is a black box: the client uploads a file and receives
// the extracted documents. It may legitimately return zero documents for
// files with no extractable text; callers decide what that means.
package parser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

var (
	// ErrInvalidConfig indicates invalid configuration.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrParseFailed indicates the parse service rejected or failed the file.
	ErrParseFailed = errors.New("document parse failed")
)

// Document is one parsed document with its extracted text.
type Document struct {
	Text string `json:"text"`
}

// Parser extracts text from an uploaded file stored at path.
type Parser interface {
	Parse(ctx context.Context, path string) ([]Document, error)
}

// Config holds configuration for the parse service client.
type Config struct {
	// BaseURL is the parse service URL.
	BaseURL string

	// APIKey authenticates against the parse service.
	APIKey string

	// RequestTimeout bounds a single parse call.
	RequestTimeout time.Duration
}

// Validate validates the configuration.
func (c Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("%w: base URL required", ErrInvalidConfig)
	}
	if c.APIKey == "" {
		return fmt.Errorf("%w: API key required", ErrInvalidConfig)
	}
	return nil
}

// Client calls the external parse service over HTTP.
type Client struct {
	config Config
	client *http.Client
}

// NewClient creates a parse service client.
func NewClient(config Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	if config.RequestTimeout == 0 {
		config.RequestTimeout = 90 * time.Second
	}

	return &Client{
		config: config,
		client: &http.Client{Timeout: config.RequestTimeout},
	}, nil
}

// parseResponse is the wire format of the parse endpoint.
type parseResponse struct {
	Documents []Document `json:"documents"`
}

// Parse uploads the file at path and returns the extracted documents.
// The caller owns the file; Parse only reads it.
func (c *Client) Parse(ctx context.Context, path string) ([]Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening file for parse: %w", err)
	}
	defer f.Close()

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		part, err := mw.CreateFormFile("file", filepath.Base(path))
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, f); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(mw.Close())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/api/v1/parse", pr)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParseFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%w: status %d: %s", ErrParseFailed, resp.StatusCode, string(body))
	}

	var parsed parseResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decoding parse response: %w", err)
	}

	return parsed.Documents, nil
}

// Ensure Client implements Parser.
var _ Parser = (*Client)(nil)
