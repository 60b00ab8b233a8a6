package views

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/raphaelgruber/advocai-go/internal/client"
	"github.com/raphaelgruber/advocai-go/internal/models"
	"github.com/raphaelgruber/advocai-go/internal/ui"
)

// Welcome greets the user after a document was analyzed.
const Welcome = "Hi! I've analyzed your document. Feel free to ask me any questions about the terms, risks, or anything else you'd like to understand better."

var (
	// ErrUnsupportedFile is returned for documents the analyzer cannot read.
	ErrUnsupportedFile = errors.New("unsupported document type")
	// ErrNoSession is returned when asking before a document was analyzed.
	ErrNoSession = errors.New("no active analyzer session")
)

// acceptedTypes maps the accepted extensions to the MIME types their
// content may sniff as.
var acceptedTypes = map[string][]string{
	".pdf":  {"application/pdf"},
	".docx": {"application/vnd.openxmlformats-officedocument.wordprocessingml.document", "application/zip"},
	".txt":  {"text/plain"},
}

// AnalyzerAPI is the backend surface of the analyzer view.
type AnalyzerAPI interface {
	Summarize(ctx context.Context, doc client.File) (*client.SummarizeResult, error)
	Chat(ctx context.Context, sessionID, message string) (*client.ChatResult, error)
	Sessions(ctx context.Context) ([]models.SessionSummary, error)
	SessionHistory(ctx context.Context, sessionID string) (*client.SessionHistory, error)
}

// Analyzer uploads documents for summarization and answers questions about
// them.
type Analyzer struct {
	base
	api        AnalyzerAPI
	transcript Transcript

	mu        sync.Mutex
	fileName  string
	sessionID string
	summary   string
	sessions  []models.SessionSummary
}

// NewAnalyzer creates an empty analyzer view.
func NewAnalyzer(api AnalyzerAPI, deps Deps) *Analyzer {
	return &Analyzer{base: newBase(deps), api: api}
}

// Turns returns the transcript.
func (v *Analyzer) Turns() []models.Turn { return v.transcript.Turns() }

// SessionID returns the active session, or "".
func (v *Analyzer) SessionID() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.sessionID
}

// Summary returns the active document summary.
func (v *Analyzer) Summary() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.summary
}

// FileName returns the name of the analyzed document.
func (v *Analyzer) FileName() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.fileName
}

// Sessions returns the previously loaded session list.
func (v *Analyzer) Sessions() []models.SessionSummary {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]models.SessionSummary, len(v.sessions))
	copy(out, v.sessions)
	return out
}

// CheckDocument verifies that data named name is an accepted document.
func CheckDocument(name string, data []byte) error {
	ext := strings.ToLower(filepath.Ext(name))
	allowed, ok := acceptedTypes[ext]
	if !ok {
		return fmt.Errorf("%w: %q (use .pdf, .docx or .txt)", ErrUnsupportedFile, ext)
	}
	if len(data) == 0 {
		return fmt.Errorf("%w: %s is empty", ErrUnsupportedFile, name)
	}
	detected := mimetype.Detect(data)
	for m := detected; m != nil; m = m.Parent() {
		for _, want := range allowed {
			if m.Is(want) {
				return nil
			}
		}
	}
	return fmt.Errorf("%w: %s looks like %s", ErrUnsupportedFile, name, detected.String())
}

// Upload sends the document at path for summarization and starts a new
// session greeted by a single welcome turn.
func (v *Analyzer) Upload(ctx context.Context, path string) (*client.SummarizeResult, error) {
	name := filepath.Base(path)
	data, err := os.ReadFile(path)
	if err != nil {
		v.notify(ui.Error("Failed to upload document"))
		return nil, fmt.Errorf("read document: %w", err)
	}
	if err := CheckDocument(name, data); err != nil {
		v.notify(ui.Error("Please upload a PDF, DOCX or TXT document."))
		return nil, err
	}

	done, err := v.begin()
	if err != nil {
		return nil, err
	}
	v.mu.Lock()
	v.fileName = name
	v.summary = ""
	v.mu.Unlock()

	res, err := v.api.Summarize(ctx, client.File{Name: name, Data: data})
	done(err)
	if err != nil {
		v.mu.Lock()
		v.fileName = ""
		v.mu.Unlock()
		v.notify(ui.Error(client.Message(err, "Failed to upload document")))
		return nil, fmt.Errorf("summarize: %w", err)
	}
	if v.isClosed() {
		return res, ErrClosed
	}

	v.mu.Lock()
	v.sessionID = res.SessionID
	v.summary = res.Summary
	v.mu.Unlock()
	v.transcript.Replace(nil)
	v.transcript.Append(models.Turn{Sender: models.SenderAssistant, Text: Welcome, Kind: models.KindWelcome})

	v.deps.Logger.Info("document analyzed", "file", name, "session", res.SessionID)
	v.refreshSessions(ctx)
	return res, nil
}

// Ask sends a question about the active document. A rejected question is
// removed from the transcript again.
func (v *Analyzer) Ask(ctx context.Context, question string) (*client.ChatResult, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, nil
	}
	sessionID := v.SessionID()
	if sessionID == "" {
		v.notify(ui.Error("Please upload a document first."))
		return nil, ErrNoSession
	}

	done, err := v.begin()
	if err != nil {
		return nil, err
	}

	var res *client.ChatResult
	userTurn := models.Turn{Sender: models.SenderUser, Text: question}
	err = v.transcript.Optimistic(userTurn, RollBack, "", func() error {
		var err error
		res, err = v.api.Chat(ctx, sessionID, question)
		return err
	})
	done(err)
	if err != nil {
		v.notify(ui.Error(client.Message(err, "Failed to send message")))
		return nil, fmt.Errorf("ask: %w", err)
	}
	if v.isClosed() {
		return res, ErrClosed
	}

	v.transcript.Append(models.Turn{
		ID:     string(res.MessageID),
		Sender: models.SenderAssistant,
		Text:   res.Response,
	})
	return res, nil
}

// RefreshSessions reloads the session list. Failures are only logged.
func (v *Analyzer) RefreshSessions(ctx context.Context) {
	done, err := v.begin()
	if err != nil {
		return
	}
	err = v.refreshSessions(ctx)
	done(err)
}

func (v *Analyzer) refreshSessions(ctx context.Context) error {
	sessions, err := v.api.Sessions(ctx)
	if err != nil {
		v.deps.Logger.Warn("failed to fetch sessions", "error", err)
		return err
	}
	v.mu.Lock()
	v.sessions = sessions
	v.mu.Unlock()
	return nil
}

// SelectSession switches to a previous session. Selecting the active
// session does nothing.
func (v *Analyzer) SelectSession(ctx context.Context, id string) error {
	if id == "" || id == v.SessionID() {
		return nil
	}

	done, err := v.begin()
	if err != nil {
		return err
	}
	history, err := v.api.SessionHistory(ctx, id)
	done(err)
	if err != nil {
		v.notify(ui.Error(client.Message(err, "Failed to load session")))
		return fmt.Errorf("load session: %w", err)
	}
	if v.isClosed() {
		return ErrClosed
	}

	turns := make([]models.Turn, 0, len(history.Messages))
	for _, m := range history.Messages {
		turns = append(turns, m.Turn())
	}
	v.transcript.Replace(turns)

	v.mu.Lock()
	v.sessionID = models.FirstNonEmpty(history.Session.ID, id)
	v.summary = history.Session.Summary
	v.fileName = "Previous Document"
	v.mu.Unlock()
	return nil
}

// RelativeDate renders t relative to now in whole days, as the session
// list shows it.
func RelativeDate(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}
	days := int(math.Ceil(math.Abs(now.Sub(t).Hours()) / 24))
	switch {
	case days <= 1:
		return "Today"
	case days == 2:
		return "Yesterday"
	case days < 7:
		return fmt.Sprintf("%d days ago", days-1)
	default:
		return t.Local().Format("Jan 2, 2006")
	}
}
