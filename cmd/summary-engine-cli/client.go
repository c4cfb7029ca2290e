// Package main provides the HTTP client used by the CLI commands.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// uploadResult mirrors the API's upload response.
type uploadResult struct {
	FileID string `json:"file_id"`
	Status string `json:"status"`
}

// document mirrors the API's document representation.
type document struct {
	FileID         string `json:"file_id"`
	Filename       string `json:"filename"`
	Status         string `json:"status"`
	ExtractionMode string `json:"extraction_mode"`
	Text           string `json:"text,omitempty"`
	Summary        string `json:"summary,omitempty"`
	Error          string `json:"error,omitempty"`
	UpdatedAt      string `json:"updated_at,omitempty"`
}

// documentList mirrors the API's listing response.
type documentList struct {
	Documents []document `json:"documents"`
	Count     int        `json:"count"`
}

// apiError mirrors the API's error envelope.
type apiError struct {
	Message string `json:"message"`
	Detail  string `json:"detail"`
}

// apiClient is a thin client for the summary engine API.
type apiClient struct {
	baseURL string
	http    *http.Client
}

func newAPIClient(baseURL string) *apiClient {
	return &apiClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 60 * time.Second},
	}
}

// Upload posts a PDF file for processing.
func (c *apiClient) Upload(ctx context.Context, path, mode string) (*uploadResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filepath.Base(path)))
	header.Set("Content-Type", "application/pdf")

	part, err := mw.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("create form part: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("write form part: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close form: %w", err)
	}

	url := fmt.Sprintf("%s/api/v1/documents?mode=%s", c.baseURL, mode)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var result uploadResult
	if err := c.do(req, http.StatusAccepted, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Get fetches one document record.
func (c *apiClient) Get(ctx context.Context, id string) (*document, error) {
	url := fmt.Sprintf("%s/api/v1/documents/%s", c.baseURL, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	var doc document
	if err := c.do(req, http.StatusOK, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// List fetches all document records.
func (c *apiClient) List(ctx context.Context) (*documentList, error) {
	url := fmt.Sprintf("%s/api/v1/documents", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	var list documentList
	if err := c.do(req, http.StatusOK, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

func (c *apiClient) do(req *http.Request, wantStatus int, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		var apiErr apiError
		raw, _ := io.ReadAll(resp.Body)
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Message != "" {
			if apiErr.Detail != "" {
				return fmt.Errorf("%s: %s (%s)", resp.Status, apiErr.Message, apiErr.Detail)
			}
			return fmt.Errorf("%s: %s", resp.Status, apiErr.Message)
		}
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
