package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/raphaelgruber/advocai-go/internal/models"
)

// =============================================================================
// DOCUMENTS
// =============================================================================

// Conversations lists the user's generated documents.
func (c *Client) Conversations(ctx context.Context) ([]models.Conversation, error) {
	const path = "documents/conversations/"

	var result []models.Conversation
	if err := c.getJSON(ctx, path, &result); err != nil {
		return nil, err
	}
	for i := range result {
		if err := c.validate.Struct(&result[i]); err != nil {
			return nil, fmt.Errorf("%s: %w: item %d: %w", path, ErrUnexpectedResponse, i, err)
		}
	}
	return result, nil
}

// Conversation fetches one document with its version history.
func (c *Client) Conversation(ctx context.Context, id string) (*models.Conversation, error) {
	path := fmt.Sprintf("documents/conversations/%s/", url.PathEscape(id))

	var result models.Conversation
	if err := c.getJSON(ctx, path, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// DeleteConversation removes a document and all of its versions.
func (c *Client) DeleteConversation(ctx context.Context, id string) error {
	path := fmt.Sprintf("documents/conversations/%s/", url.PathEscape(id))
	_, _, err := c.do(ctx, http.MethodDelete, path, nil, "")
	return err
}

// DownloadVersionPDF fetches one version rendered as PDF.
func (c *Client) DownloadVersionPDF(ctx context.Context, id string, version int) (*Blob, error) {
	path := fmt.Sprintf("utils/conversations/%s/versions/%d/download-pdf/", url.PathEscape(id), version)
	return c.fetchBlob(ctx, http.MethodGet, path, nil)
}

// DownloadLatestPDF fetches the newest version rendered as PDF.
func (c *Client) DownloadLatestPDF(ctx context.Context, id string) (*Blob, error) {
	path := fmt.Sprintf("utils/conversations/%s/download-latest-pdf/", url.PathEscape(id))
	return c.fetchBlob(ctx, http.MethodGet, path, nil)
}
