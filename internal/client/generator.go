package client

import (
	"context"
	"net/http"

	"github.com/raphaelgruber/advocai-go/internal/models"
)

// =============================================================================
// GENERATOR
// =============================================================================

// Reply types of the generator.
const (
	ReplyQuestion = "question"
	ReplyDocument = "document"
)

// GenerateRequest carries the full transcript to the generator.
type GenerateRequest struct {
	Messages []models.GeneratorTurn `json:"messages"`
	// ConversationID is set when continuing a stored document.
	ConversationID string `json:"conversation_id,omitempty"`
}

// GenerateReply is either a follow-up question or a finished document.
type GenerateReply struct {
	Type string `json:"type" validate:"required,oneof=question document"`
	Text string `json:"text" validate:"required"`
}

// IsDocument reports whether the reply is a generated document.
func (r GenerateReply) IsDocument() bool {
	return r.Type == ReplyDocument
}

// GenerateChat sends the transcript to the conversational generator.
func (c *Client) GenerateChat(ctx context.Context, req GenerateRequest) (*GenerateReply, error) {
	var result GenerateReply
	if err := c.sendJSON(ctx, http.MethodPost, "generator/chat/", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// RenderPDF renders Markdown document content as a PDF.
func (c *Client) RenderPDF(ctx context.Context, content string) (*Blob, error) {
	payload := map[string]string{"document_content": content}
	return c.fetchBlob(ctx, http.MethodPost, "generator/download-pdf/", payload)
}
