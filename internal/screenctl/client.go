package screenctl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/okian/smarthire/internal/domain/model"
	"github.com/okian/smarthire/internal/domain/types"
)

// APIError is a non-2xx response decoded from the server's error body.
type APIError struct {
	StatusCode int
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("server returned %d", e.StatusCode)
	}
	return fmt.Sprintf("server returned %d %s: %s", e.StatusCode, e.Code, e.Message)
}

// Client talks to the screening HTTP API.
type Client struct {
	http    *http.Client
	baseURL string
}

// NewClient creates a client for cfg.BaseURL.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	base := cfg.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	return &Client{
		http:    &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(base, "/"),
	}
}

// Upload posts a CSV file for the named position.
func (c *Client) Upload(ctx context.Context, filename, position string, body io.Reader) (types.UploadResult, error) {
	var out types.UploadResult

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("position", position); err != nil {
		return out, fmt.Errorf("write position field: %w", err)
	}
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return out, fmt.Errorf("create file part: %w", err)
	}
	if _, err := io.Copy(part, body); err != nil {
		return out, fmt.Errorf("copy file: %w", err)
	}
	if err := mw.Close(); err != nil {
		return out, fmt.Errorf("close multipart: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/upload", &buf)
	if err != nil {
		return out, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	err = c.doJSON(req, &out)
	return out, err
}

// Candidates lists candidates, best score first.
func (c *Client) Candidates(ctx context.Context, position string, status model.Status, limit int) ([]model.Candidate, error) {
	q := filterQuery(position, status)
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/candidates?"+q.Encode(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	var out []model.Candidate
	if err := c.doJSON(req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Export streams the export CSV into w and reports the row count the server
// announced.
func (c *Client) Export(ctx context.Context, w io.Writer, position string, status model.Status) (int, error) {
	q := filterQuery(position, status)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/exports?"+q.Encode(), http.NoBody)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("export request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return 0, decodeAPIError(resp)
	}
	if _, err := io.Copy(w, resp.Body); err != nil {
		return 0, fmt.Errorf("read export: %w", err)
	}
	n, _ := strconv.Atoi(resp.Header.Get("X-Export-Rows"))
	return n, nil
}

func filterQuery(position string, status model.Status) url.Values {
	q := url.Values{}
	if position != "" {
		q.Set("position", position)
	}
	if status != "" {
		q.Set("status", string(status))
	}
	return q
}

func (c *Client) doJSON(req *http.Request, dst any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode %s response: %w", req.URL.Path, err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err == nil {
		_ = json.Unmarshal(body, apiErr)
	}
	return apiErr
}
