package views

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/raphaelgruber/advocai-go/internal/client"
	"github.com/raphaelgruber/advocai-go/internal/download"
	"github.com/raphaelgruber/advocai-go/internal/models"
	"github.com/raphaelgruber/advocai-go/internal/ui"
)

// Apology is appended to the generation transcript when a turn fails.
const Apology = "Sorry, something went wrong. Please try again."

// ErrNoDocument is returned when there is no generated document to act on.
var ErrNoDocument = errors.New("no document to download")

// GeneratorAPI is the backend surface of the generation view.
type GeneratorAPI interface {
	GenerateChat(ctx context.Context, req client.GenerateRequest) (*client.GenerateReply, error)
	RenderPDF(ctx context.Context, content string) (*client.Blob, error)
	Conversation(ctx context.Context, id string) (*models.Conversation, error)
}

// Generate is the document generation chat. The whole transcript is sent
// with every turn; a document reply becomes the preview.
type Generate struct {
	base
	api        GeneratorAPI
	transcript Transcript

	mu             sync.Mutex
	conversationID string
	title          string
	version        int
	preview        string
}

// NewGenerate creates an empty generation view.
func NewGenerate(api GeneratorAPI, deps Deps) *Generate {
	return &Generate{base: newBase(deps), api: api}
}

// Turns returns the transcript.
func (v *Generate) Turns() []models.Turn {
	return v.transcript.Turns()
}

// Preview returns the current generated document, or "".
func (v *Generate) Preview() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.preview
}

// ConversationID returns the stored conversation being edited, or "".
func (v *Generate) ConversationID() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.conversationID
}

// Title returns the title of the opened conversation.
func (v *Generate) Title() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.title
}

// Version returns the opened version number, zero for a new document.
func (v *Generate) Version() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.version
}

// Open loads a stored conversation for editing. Version zero selects the
// latest version.
func (v *Generate) Open(ctx context.Context, conversationID string, version int) error {
	done, err := v.begin()
	if err != nil {
		return err
	}
	conv, err := v.api.Conversation(ctx, conversationID)
	if err != nil {
		done(err)
		v.notify(ui.Error(client.Message(err, "Failed to load document.")))
		return fmt.Errorf("open conversation: %w", err)
	}

	var preview string
	if version > 0 {
		ver, ok := conv.Version(version)
		if !ok {
			err := fmt.Errorf("version %d of %s: %w", version, conversationID, client.ErrNotFound)
			done(err)
			v.notify(ui.Error(fmt.Sprintf("Version %d not found.", version)))
			return err
		}
		preview = ver.Content
	} else {
		preview = conv.LatestContent()
		if latest, ok := conv.LatestVersion(); ok {
			version = latest.Number
		}
	}
	done(nil)
	if v.isClosed() {
		return ErrClosed
	}

	turns := make([]models.Turn, 0, len(conv.Messages))
	for i, m := range conv.Messages {
		turns = append(turns, models.TurnFromWire(fmt.Sprintf("%s-%d", conv.ID, i), m))
	}
	v.transcript.Replace(turns)

	v.mu.Lock()
	v.conversationID = conv.ID
	v.title = conv.DisplayTitle("Document")
	v.version = version
	v.preview = preview
	v.mu.Unlock()

	v.deps.Logger.Debug("opened conversation", "id", conv.ID, "version", version, "messages", len(turns))
	return nil
}

// Send appends the user's message and asks the generator for the next
// turn. A failure keeps the message and appends an apology. Blank input
// is ignored.
func (v *Generate) Send(ctx context.Context, text string) (*client.GenerateReply, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}

	done, err := v.begin()
	if err != nil {
		return nil, err
	}

	var reply *client.GenerateReply
	userTurn := models.Turn{Sender: models.SenderUser, Text: text}
	err = v.transcript.Optimistic(userTurn, KeepAndApologize, Apology, func() error {
		turns := v.transcript.Turns()
		req := client.GenerateRequest{
			Messages:       make([]models.GeneratorTurn, 0, len(turns)),
			ConversationID: v.ConversationID(),
		}
		for _, t := range turns {
			// Apologies are local and never sent back.
			if t.Kind == models.KindApology {
				continue
			}
			req.Messages = append(req.Messages, t.Wire())
		}

		var err error
		reply, err = v.api.GenerateChat(ctx, req)
		return err
	})
	done(err)
	if err != nil {
		v.deps.Logger.Warn("generator turn failed", "error", err)
		return nil, fmt.Errorf("generate: %w", err)
	}
	if v.isClosed() {
		return reply, ErrClosed
	}

	if reply.IsDocument() {
		v.mu.Lock()
		v.preview = reply.Text
		v.mu.Unlock()
		v.transcript.Append(models.Turn{Sender: models.SenderAssistant, Text: reply.Text, Kind: models.KindDocument})
	} else {
		v.transcript.Append(models.Turn{Sender: models.SenderAssistant, Text: reply.Text})
	}
	return reply, nil
}

// DownloadPDF renders the preview as PDF and saves it.
func (v *Generate) DownloadPDF(ctx context.Context) (*download.Saved, error) {
	preview := v.Preview()
	if preview == "" {
		v.notify(ui.Error("No document to download."))
		return nil, ErrNoDocument
	}

	done, err := v.begin()
	if err != nil {
		return nil, err
	}
	blob, err := v.api.RenderPDF(ctx, preview)
	if err != nil {
		done(err)
		v.notify(ui.Error(client.Message(err, "Failed to download PDF.")))
		return nil, fmt.Errorf("render pdf: %w", err)
	}

	name := "legal_document.pdf"
	if title := v.Title(); title != "" {
		name = title + ".pdf"
	}
	saved, err := v.deps.Saver.Save(blob.Data, name)
	done(err)
	if err != nil {
		v.notify(ui.Error("Failed to download PDF."))
		return nil, fmt.Errorf("save pdf: %w", err)
	}
	v.notify(ui.Success("PDF downloaded to " + saved.Path))
	return saved, nil
}
