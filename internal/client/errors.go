package client

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/tidwall/gjson"
)

// Error categories. Every error returned by Client matches exactly one of
// these with errors.Is.
var (
	ErrTransport          = errors.New("backend unreachable")
	ErrUnauthorized       = errors.New("not authenticated")
	ErrForbidden          = errors.New("forbidden")
	ErrValidation         = errors.New("invalid request")
	ErrNotFound           = errors.New("not found")
	ErrServer             = errors.New("backend error")
	ErrUnexpectedResponse = errors.New("unexpected response")
)

// APIError is a non-2xx response from the backend.
type APIError struct {
	StatusCode int
	// Message is the backend-supplied message, if any.
	Message string
	// Fields holds serializer field errors keyed by field name.
	Fields map[string][]string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%d %s: %s", e.StatusCode, http.StatusText(e.StatusCode), e.Message)
	}
	return fmt.Sprintf("%d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// Unwrap maps the status code onto the error categories.
func (e *APIError) Unwrap() error {
	switch {
	case e.StatusCode == http.StatusUnauthorized:
		return ErrUnauthorized
	case e.StatusCode == http.StatusForbidden:
		return ErrForbidden
	case e.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case e.StatusCode >= 500:
		return ErrServer
	case e.StatusCode >= 400:
		return ErrValidation
	default:
		return ErrUnexpectedResponse
	}
}

// messageKeys are the top-level keys the backend uses for a single message.
var messageKeys = []string{"error", "Error", "detail", "message"}

// newAPIError builds an APIError from a response body. Bodies that are not
// JSON (proxy error pages, blobs) leave Message empty.
func newAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status}
	if !gjson.ValidBytes(body) {
		return apiErr
	}

	root := gjson.ParseBytes(body)
	for _, key := range messageKeys {
		if v := root.Get(key); v.Exists() && v.Type == gjson.String && v.String() != "" {
			apiErr.Message = v.String()
			return apiErr
		}
	}

	if !root.IsObject() {
		return apiErr
	}
	fields := make(map[string][]string)
	root.ForEach(func(key, value gjson.Result) bool {
		switch {
		case value.IsArray():
			for _, item := range value.Array() {
				if item.Type == gjson.String {
					fields[key.String()] = append(fields[key.String()], item.String())
				}
			}
		case value.Type == gjson.String:
			fields[key.String()] = append(fields[key.String()], value.String())
		}
		return true
	})
	if len(fields) > 0 {
		apiErr.Fields = fields
		apiErr.Message = formatFields(fields)
	}
	return apiErr
}

// formatFields renders field errors deterministically. non_field_errors are
// shown without a prefix.
func formatFields(fields map[string][]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		msg := strings.Join(fields[k], " ")
		if k == "non_field_errors" {
			parts = append(parts, msg)
			continue
		}
		parts = append(parts, k+": "+msg)
	}
	return strings.Join(parts, "; ")
}

// Message returns the backend-supplied message carried by err, or fallback
// when there is none.
func Message(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
