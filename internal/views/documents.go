package views

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/raphaelgruber/advocai-go/internal/client"
	"github.com/raphaelgruber/advocai-go/internal/download"
	"github.com/raphaelgruber/advocai-go/internal/models"
	"github.com/raphaelgruber/advocai-go/internal/ui"
)

// DocumentsAPI is the backend surface of the document list and versions views.
type DocumentsAPI interface {
	Conversations(ctx context.Context) ([]models.Conversation, error)
	Conversation(ctx context.Context, id string) (*models.Conversation, error)
	DeleteConversation(ctx context.Context, id string) error
	DownloadLatestPDF(ctx context.Context, id string) (*client.Blob, error)
	DownloadVersionPDF(ctx context.Context, id string, version int) (*client.Blob, error)
}

// pdfName picks the file name for a downloaded PDF: the title-derived name,
// then the server suggestion, then "document".
func pdfName(preferred string, blob *client.Blob) string {
	return models.FirstNonEmpty(preferred, blob.Filename, "document")
}

// =============================================================================
// DOCUMENT LIST
// =============================================================================

// Documents lists the user's generated documents.
type Documents struct {
	base
	api DocumentsAPI

	mu     sync.Mutex
	all    []models.Conversation
	filter string
}

// NewDocuments creates the document list view.
func NewDocuments(api DocumentsAPI, deps Deps) *Documents {
	return &Documents{base: newBase(deps), api: api}
}

// Load fetches the document list.
func (v *Documents) Load(ctx context.Context) error {
	done, err := v.begin()
	if err != nil {
		return err
	}
	err = v.load(ctx)
	done(err)
	return err
}

func (v *Documents) load(ctx context.Context) error {
	convs, err := v.api.Conversations(ctx)
	if err != nil {
		v.deps.Logger.Warn("error fetching conversations", "error", err)
		v.notify(ui.Error("Failed to load documents."))
		return fmt.Errorf("load documents: %w", err)
	}
	if v.isClosed() {
		return ErrClosed
	}
	v.mu.Lock()
	v.all = convs
	v.mu.Unlock()
	return nil
}

// SetFilter narrows Visible to titles containing substr, ignoring case.
func (v *Documents) SetFilter(substr string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.filter = strings.ToLower(strings.TrimSpace(substr))
}

// All returns every loaded document.
func (v *Documents) All() []models.Conversation {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]models.Conversation, len(v.all))
	copy(out, v.all)
	return out
}

// Visible returns the documents matching the filter.
func (v *Documents) Visible() []models.Conversation {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]models.Conversation, 0, len(v.all))
	for _, c := range v.all {
		if v.filter == "" || strings.Contains(strings.ToLower(c.Title), v.filter) {
			out = append(out, c)
		}
	}
	return out
}

// Edit opens a document in the editor.
func (v *Documents) Edit(id string) {
	v.navigate(ui.Route{Page: ui.PageEditor, ID: id})
}

// ShowVersions opens the version history of a document.
func (v *Documents) ShowVersions(id string) {
	v.navigate(ui.Route{Page: ui.PageVersions, ID: id})
}

// Create starts a new document.
func (v *Documents) Create() {
	v.navigate(ui.Route{Page: ui.PageGenerate})
}

// Delete removes a document after confirm agrees, then reloads the list
// once. It reports whether a deletion happened.
func (v *Documents) Delete(ctx context.Context, id string, confirm func() bool) (bool, error) {
	if confirm != nil && !confirm() {
		return false, nil
	}

	done, err := v.begin()
	if err != nil {
		return false, err
	}
	if err := v.api.DeleteConversation(ctx, id); err != nil {
		done(err)
		v.deps.Logger.Warn("error deleting conversation", "id", id, "error", err)
		v.notify(ui.Error("Failed to delete document."))
		return false, fmt.Errorf("delete document: %w", err)
	}
	v.notify(ui.Success("Document deleted successfully!"))

	err = v.load(ctx)
	done(err)
	return true, err
}

// DownloadLatest saves the newest version of a document as PDF.
func (v *Documents) DownloadLatest(ctx context.Context, id string) (*download.Saved, error) {
	done, err := v.begin()
	if err != nil {
		return nil, err
	}
	saved, err := v.downloadLatest(ctx, id)
	done(err)
	if err != nil {
		v.deps.Logger.Warn("error downloading pdf", "id", id, "error", err)
		v.notify(ui.Error("Failed to download PDF."))
		return nil, err
	}
	v.notify(ui.Success("Latest document PDF downloaded!"))
	return saved, nil
}

func (v *Documents) downloadLatest(ctx context.Context, id string) (*download.Saved, error) {
	blob, err := v.api.DownloadLatestPDF(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("download latest pdf: %w", err)
	}

	var title string
	v.mu.Lock()
	for _, c := range v.all {
		if c.ID == id {
			title = c.Title
			break
		}
	}
	v.mu.Unlock()

	saved, err := v.deps.Saver.Save(blob.Data, pdfName(title, blob))
	if err != nil {
		return nil, fmt.Errorf("save pdf: %w", err)
	}
	return saved, nil
}

// =============================================================================
// VERSIONS
// =============================================================================

// Versions shows the version history of one document.
type Versions struct {
	base
	api DocumentsAPI

	mu   sync.Mutex
	conv *models.Conversation
}

// NewVersions creates the versions view.
func NewVersions(api DocumentsAPI, deps Deps) *Versions {
	return &Versions{base: newBase(deps), api: api}
}

// Load fetches a document with its versions.
func (v *Versions) Load(ctx context.Context, id string) error {
	done, err := v.begin()
	if err != nil {
		return err
	}
	conv, err := v.api.Conversation(ctx, id)
	done(err)
	if err != nil {
		v.deps.Logger.Warn("error fetching conversation", "id", id, "error", err)
		v.notify(ui.Error("Failed to load document versions."))
		return fmt.Errorf("load versions: %w", err)
	}
	if v.isClosed() {
		return ErrClosed
	}
	if conv.ID == "" {
		conv.ID = id
	}
	v.mu.Lock()
	v.conv = conv
	v.mu.Unlock()
	return nil
}

// ID returns the loaded document id.
func (v *Versions) ID() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.conv == nil {
		return ""
	}
	return v.conv.ID
}

// Title returns the document title, "Document" when blank.
func (v *Versions) Title() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.conv == nil {
		return "Document"
	}
	return v.conv.DisplayTitle("Document")
}

func (v *Versions) rawTitle() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.conv == nil {
		return ""
	}
	return strings.TrimSpace(v.conv.Title)
}

// List returns the versions ordered by number.
func (v *Versions) List() []models.DocumentVersion {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.conv == nil {
		return nil
	}
	return v.conv.SortedVersions()
}

// Edit opens version n in the editor.
func (v *Versions) Edit(n int) {
	v.navigate(ui.Route{Page: ui.PageEditor, ID: v.ID(), Version: n})
}

// Download saves version n as PDF.
func (v *Versions) Download(ctx context.Context, n int) (*download.Saved, error) {
	id := v.ID()
	if id == "" {
		return nil, fmt.Errorf("download version %d: %w", n, ErrNoDocument)
	}

	done, err := v.begin()
	if err != nil {
		return nil, err
	}
	saved, err := v.download(ctx, id, n)
	done(err)
	if err != nil {
		v.deps.Logger.Warn("error downloading version pdf", "id", id, "version", n, "error", err)
		v.notify(ui.Error(fmt.Sprintf("Failed to download version %d PDF.", n)))
		return nil, err
	}
	v.notify(ui.Success(fmt.Sprintf("Version %d PDF downloaded!", n)))
	return saved, nil
}

func (v *Versions) download(ctx context.Context, id string, n int) (*download.Saved, error) {
	blob, err := v.api.DownloadVersionPDF(ctx, id, n)
	if err != nil {
		return nil, fmt.Errorf("download version pdf: %w", err)
	}
	// An untitled document takes the server's file name when it sent one.
	var name string
	if title := v.rawTitle(); title != "" {
		name = fmt.Sprintf("%s_v%d", title, n)
	}
	fallback := fmt.Sprintf("Document_v%d", n)
	saved, err := v.deps.Saver.Save(blob.Data, models.FirstNonEmpty(name, blob.Filename, fallback))
	if err != nil {
		return nil, fmt.Errorf("save pdf: %w", err)
	}
	return saved, nil
}
