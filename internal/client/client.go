// Package client provides a typed HTTP client for the AdvocAI backend.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/raphaelgruber/advocai-go/internal/metrics"
	"golang.org/x/oauth2"
)

// DefaultBaseURL is used when Options.BaseURL is empty.
const DefaultBaseURL = "http://localhost:8000/api/"

// Options configures a Client.
type Options struct {
	// BaseURL is the versioned API root; endpoint paths resolve against it.
	BaseURL string
	// Timeout bounds each request. Zero means 60s.
	Timeout time.Duration
	// TokenSource supplies the bearer token at request time.
	TokenSource oauth2.TokenSource
	// OnUnauthorized is invoked when an authenticated request is rejected with 401.
	OnUnauthorized func(ctx context.Context)
	// Transport is the underlying round tripper. Nil means http.DefaultTransport.
	Transport http.RoundTripper
	// Logger receives request logs. Nil means slog.Default().
	Logger *slog.Logger
	// Metrics records per-endpoint request statistics when set.
	Metrics *metrics.Collector
	// SlowRequest is the duration above which requests are logged at WARN.
	SlowRequest time.Duration
}

// Client is an HTTP client for the AdvocAI backend.
type Client struct {
	base           *url.URL
	httpClient     *http.Client
	onUnauthorized func(ctx context.Context)
	validate       *validator.Validate
}

// New creates a new backend client.
func New(opts Options) (*Client, error) {
	raw := opts.BaseURL
	if raw == "" {
		raw = DefaultBaseURL
	}
	if !strings.HasSuffix(raw, "/") {
		raw += "/"
	}
	base, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if !base.IsAbs() || base.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", raw)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	next := opts.Transport
	if next == nil {
		next = http.DefaultTransport
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	slow := opts.SlowRequest
	if slow <= 0 {
		slow = 2 * time.Second
	}

	return &Client{
		base: base,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &loggingTransport{
				next:    &authTransport{next: next, source: opts.TokenSource},
				logger:  logger,
				metrics: opts.Metrics,
				slow:    slow,
			},
		},
		onUnauthorized: opts.OnUnauthorized,
		validate:       validator.New(validator.WithRequiredStructEnabled()),
	}, nil
}

// BaseURL returns the resolved API root.
func (c *Client) BaseURL() string {
	return c.base.String()
}

// resolve turns a relative endpoint path into an absolute URL.
func (c *Client) resolve(path string) (string, error) {
	ref, err := url.Parse(strings.TrimPrefix(path, "/"))
	if err != nil {
		return "", fmt.Errorf("parse path %q: %w", path, err)
	}
	return c.base.ResolveReference(ref).String(), nil
}

// do sends a request and returns the response body for 2xx answers.
// Non-2xx answers become *APIError; transport failures wrap ErrTransport.
func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string) ([]byte, http.Header, error) {
	target, err := c.resolve(path)
	if err != nil {
		return nil, nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("%s %s: %w: %w", method, path, ErrTransport, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("%s %s: read response: %w: %w", method, path, ErrTransport, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if resp.StatusCode == http.StatusUnauthorized && !IsPublic(req.URL.Path) && c.onUnauthorized != nil {
			c.onUnauthorized(ctx)
		}
		return nil, nil, fmt.Errorf("%s %s: %w", method, path, newAPIError(resp.StatusCode, data))
	}

	return data, resp.Header, nil
}

// decode unmarshals a JSON body into result and validates it.
func (c *Client) decode(path string, data []byte, result any) error {
	if result == nil {
		return nil
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return fmt.Errorf("%s: %w: empty body", path, ErrUnexpectedResponse)
	}
	if err := json.Unmarshal(data, result); err != nil {
		return fmt.Errorf("%s: %w: %w", path, ErrUnexpectedResponse, err)
	}
	if err := c.validate.Struct(result); err != nil {
		var invalid *validator.InvalidValidationError
		if errors.As(err, &invalid) {
			return nil
		}
		return fmt.Errorf("%s: %w: %w", path, ErrUnexpectedResponse, err)
	}
	return nil
}

// getJSON performs a GET and decodes the JSON answer into result.
func (c *Client) getJSON(ctx context.Context, path string, result any) error {
	data, _, err := c.do(ctx, http.MethodGet, path, nil, "")
	if err != nil {
		return err
	}
	return c.decode(path, data, result)
}

// sendJSON performs a request with a JSON body and decodes the answer.
// payload and result may be nil.
func (c *Client) sendJSON(ctx context.Context, method, path string, payload, result any) error {
	var body io.Reader
	contentType := ""
	if payload != nil {
		reqBody, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(reqBody)
		contentType = "application/json"
	}

	data, _, err := c.do(ctx, method, path, body, contentType)
	if err != nil {
		return err
	}
	return c.decode(path, data, result)
}

// ===== MULTIPART =====

// File is a file attached to a multipart request.
type File struct {
	// Field is the form field name.
	Field string
	// Name is the file name sent to the backend.
	Name string
	// Data is the file content.
	Data []byte
}

// sendMultipart performs a multipart/form-data request and decodes the answer.
func (c *Client) sendMultipart(ctx context.Context, method, path string, fields map[string]string, files []File, result any) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for name, value := range fields {
		if err := w.WriteField(name, value); err != nil {
			return fmt.Errorf("write field %s: %w", name, err)
		}
	}
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", mime.FormatMediaType("form-data", map[string]string{
			"name":     f.Field,
			"filename": f.Name,
		}))
		h.Set("Content-Type", DetectContentType(f.Name, f.Data))
		part, err := w.CreatePart(h)
		if err != nil {
			return fmt.Errorf("create part %s: %w", f.Field, err)
		}
		if _, err := part.Write(f.Data); err != nil {
			return fmt.Errorf("write part %s: %w", f.Field, err)
		}
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close multipart: %w", err)
	}

	data, _, err := c.do(ctx, method, path, &buf, w.FormDataContentType())
	if err != nil {
		return err
	}
	return c.decode(path, data, result)
}

// DetectContentType sniffs the MIME type of a file, trusting the extension
// only for plain text where sniffing cannot tell formats apart.
func DetectContentType(name string, data []byte) string {
	detected := mimetype.Detect(data)
	if detected.Is("text/plain") || detected.Is("application/octet-stream") {
		if byExt := mime.TypeByExtension(extension(name)); byExt != "" {
			return byExt
		}
	}
	return detected.String()
}

func extension(name string) string {
	if i := strings.LastIndex(name, "."); i >= 0 {
		return strings.ToLower(name[i:])
	}
	return ""
}

// ===== BLOBS =====

// Blob is a binary response body.
type Blob struct {
	Data        []byte
	ContentType string
	// Filename is the server-suggested name from Content-Disposition, if any.
	Filename string
}

// fetchBlob performs a request whose answer is binary.
func (c *Client) fetchBlob(ctx context.Context, method, path string, payload any) (*Blob, error) {
	var body io.Reader
	contentType := ""
	if payload != nil {
		reqBody, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(reqBody)
		contentType = "application/json"
	}

	data, header, err := c.do(ctx, method, path, body, contentType)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%s: %w: empty file", path, ErrUnexpectedResponse)
	}

	blob := &Blob{Data: data, ContentType: header.Get("Content-Type")}
	if _, params, err := mime.ParseMediaType(header.Get("Content-Disposition")); err == nil {
		blob.Filename = params["filename"]
	}
	return blob, nil
}
