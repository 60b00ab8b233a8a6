package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/raphaelgruber/advocai-go/internal/models"
)

// =============================================================================
// DOCUMENT SUMMARIZER
// =============================================================================

// SummarizeResult is the answer to a document upload.
type SummarizeResult struct {
	Success   bool   `json:"success"`
	Summary   string `json:"summary"`
	SessionID string `json:"session_id" validate:"required"`
	Filename  string `json:"filename,omitempty"`
}

// ChatResult is the assistant reply to an analyzer question.
type ChatResult struct {
	Response  string        `json:"response" validate:"required"`
	MessageID models.FlexID `json:"message_id,omitempty"`
}

// SessionHistory is a stored analyzer session with its transcript.
type SessionHistory struct {
	Session  models.AnalyzerSession `json:"session"`
	Messages []models.ChatMessage   `json:"messages"`
}

type sessionsResponse struct {
	Sessions []models.SessionSummary `json:"sessions" validate:"dive"`
}

// Summarize uploads a document and starts an analyzer session.
func (c *Client) Summarize(ctx context.Context, doc File) (*SummarizeResult, error) {
	doc.Field = "document"

	var result SummarizeResult
	if err := c.sendMultipart(ctx, http.MethodPost, "summarizer/summarize/", nil, []File{doc}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Chat asks a question about the session's document.
func (c *Client) Chat(ctx context.Context, sessionID, message string) (*ChatResult, error) {
	payload := map[string]string{"session_id": sessionID, "message": message}

	var result ChatResult
	if err := c.sendJSON(ctx, http.MethodPost, "summarizer/chat/", payload, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Sessions lists the user's analyzer sessions.
func (c *Client) Sessions(ctx context.Context) ([]models.SessionSummary, error) {
	var result sessionsResponse
	if err := c.getJSON(ctx, "summarizer/sessions/", &result); err != nil {
		return nil, err
	}
	return result.Sessions, nil
}

// SessionHistory fetches a session with its full chat history.
func (c *Client) SessionHistory(ctx context.Context, sessionID string) (*SessionHistory, error) {
	path := fmt.Sprintf("summarizer/sessions/%s/", url.PathEscape(sessionID))

	var result SessionHistory
	if err := c.getJSON(ctx, path, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
