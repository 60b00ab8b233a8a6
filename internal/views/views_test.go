package views

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/raphaelgruber/advocai-go/internal/client"
	"github.com/raphaelgruber/advocai-go/internal/download"
	"github.com/raphaelgruber/advocai-go/internal/models"
	"github.com/raphaelgruber/advocai-go/internal/ui"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var minimalPDF = []byte("%PDF-1.4\n%%EOF\n")

// fakeAPI implements every backend surface the views use and counts calls.
type fakeAPI struct {
	mu    sync.Mutex
	calls []string

	// gate, when set, blocks GenerateChat until closed.
	gate chan struct{}

	generateReply *client.GenerateReply
	generateErr   error
	lastGenerate  client.GenerateRequest

	conversation  *models.Conversation
	conversations []models.Conversation
	listErr       error
	deleteErr     error
	blob          *client.Blob
	blobErr       error
	renderedFrom  string

	summarize    *client.SummarizeResult
	summarizeErr error
	lastUpload   client.File
	chat         *client.ChatResult
	chatErr      error
	sessions     []models.SessionSummary
	sessionsErr  error
	history      *client.SessionHistory

	signup    *client.SignupResult
	signupErr error
	verifyErr error
}

func (f *fakeAPI) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeAPI) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}

func (f *fakeAPI) count(call string) int {
	n := 0
	for _, c := range f.Calls() {
		if c == call {
			n++
		}
	}
	return n
}

func (f *fakeAPI) GenerateChat(ctx context.Context, req client.GenerateRequest) (*client.GenerateReply, error) {
	f.record("GenerateChat")
	if f.gate != nil {
		<-f.gate
	}
	f.mu.Lock()
	f.lastGenerate = req
	f.mu.Unlock()
	return f.generateReply, f.generateErr
}

func (f *fakeAPI) RenderPDF(ctx context.Context, content string) (*client.Blob, error) {
	f.record("RenderPDF")
	f.renderedFrom = content
	return f.blob, f.blobErr
}

func (f *fakeAPI) Conversation(ctx context.Context, id string) (*models.Conversation, error) {
	f.record("Conversation")
	if f.conversation == nil {
		return nil, &client.APIError{StatusCode: 404, Message: "Conversation not found"}
	}
	return f.conversation, nil
}

func (f *fakeAPI) Conversations(ctx context.Context) ([]models.Conversation, error) {
	f.record("Conversations")
	return f.conversations, f.listErr
}

func (f *fakeAPI) DeleteConversation(ctx context.Context, id string) error {
	f.record("DeleteConversation")
	if f.deleteErr != nil {
		return f.deleteErr
	}
	var kept []models.Conversation
	for _, c := range f.conversations {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	f.conversations = kept
	return nil
}

func (f *fakeAPI) DownloadLatestPDF(ctx context.Context, id string) (*client.Blob, error) {
	f.record("DownloadLatestPDF")
	return f.blob, f.blobErr
}

func (f *fakeAPI) DownloadVersionPDF(ctx context.Context, id string, version int) (*client.Blob, error) {
	f.record("DownloadVersionPDF")
	return f.blob, f.blobErr
}

func (f *fakeAPI) Summarize(ctx context.Context, doc client.File) (*client.SummarizeResult, error) {
	f.record("Summarize")
	f.lastUpload = doc
	return f.summarize, f.summarizeErr
}

func (f *fakeAPI) Chat(ctx context.Context, sessionID, message string) (*client.ChatResult, error) {
	f.record("Chat")
	return f.chat, f.chatErr
}

func (f *fakeAPI) Sessions(ctx context.Context) ([]models.SessionSummary, error) {
	f.record("Sessions")
	return f.sessions, f.sessionsErr
}

func (f *fakeAPI) SessionHistory(ctx context.Context, sessionID string) (*client.SessionHistory, error) {
	f.record("SessionHistory")
	return f.history, nil
}

func (f *fakeAPI) Signup(ctx context.Context, req client.SignupRequest) (*client.SignupResult, error) {
	f.record("Signup")
	return f.signup, f.signupErr
}

func (f *fakeAPI) VerifyOTP(ctx context.Context, email, code string) (*client.VerifyResult, error) {
	f.record("VerifyOTP")
	if f.verifyErr != nil {
		return nil, f.verifyErr
	}
	return &client.VerifyResult{Message: "Email verified successfully."}, nil
}

func (f *fakeAPI) ResendOTP(ctx context.Context, email string) (*client.MessageResult, error) {
	f.record("ResendOTP")
	return &client.MessageResult{Message: "New OTP sent."}, nil
}

type fixture struct {
	api     *fakeAPI
	notices *ui.Recorder
	history *ui.History
	dir     string
	deps    Deps
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		api:     &fakeAPI{},
		notices: &ui.Recorder{},
		history: &ui.History{},
		dir:     t.TempDir(),
	}
	f.deps = Deps{
		Notifier:  f.notices,
		Navigator: f.history,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		Saver:     download.Saver{Dir: f.dir},
	}
	return f
}

func (f *fixture) lastNotice(t *testing.T) ui.Notice {
	t.Helper()
	n, ok := f.notices.Last()
	require.True(t, ok, "expected a notice")
	return n
}

var errBackend = &client.APIError{StatusCode: 500, Message: "boom"}

// ===== TRANSCRIPT =====

func TestTranscriptOptimisticRollBack(t *testing.T) {
	var tr Transcript
	tr.Append(models.Turn{Sender: models.SenderAssistant, Text: "hello"})

	err := tr.Optimistic(models.Turn{Sender: models.SenderUser, Text: "q"}, RollBack, "", func() error {
		assert.Equal(t, 2, tr.Len(), "turn visible while sending")
		return errors.New("rejected")
	})
	require.Error(t, err)

	turns := tr.Turns()
	require.Len(t, turns, 1)
	assert.Equal(t, "hello", turns[0].Text)
}

func TestTranscriptOptimisticApology(t *testing.T) {
	var tr Transcript

	err := tr.Optimistic(models.Turn{Sender: models.SenderUser, Text: "q"}, KeepAndApologize, "sorry", func() error {
		return errors.New("rejected")
	})
	require.Error(t, err)

	turns := tr.Turns()
	require.Len(t, turns, 2)
	assert.Equal(t, "q", turns[0].Text)
	assert.Equal(t, models.SenderAssistant, turns[1].Sender)
	assert.Equal(t, models.KindApology, turns[1].Kind)
	assert.Equal(t, "sorry", turns[1].Text)
}

func TestTranscriptAppendFillsDefaults(t *testing.T) {
	var tr Transcript
	a := tr.Append(models.Turn{Text: "a"})
	b := tr.Append(models.Turn{Text: "b"})

	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
	assert.False(t, a.At.IsZero())
	assert.Equal(t, models.KindMessage, a.Kind)
}

// ===== GENERATE =====

func TestGenerateQuestionReply(t *testing.T) {
	f := newFixture(t)
	f.api.generateReply = &client.GenerateReply{Type: client.ReplyQuestion, Text: "Who are the parties?"}
	v := NewGenerate(f.api, f.deps)

	reply, err := v.Send(context.Background(), "  I need an NDA  ")
	require.NoError(t, err)
	assert.False(t, reply.IsDocument())

	turns := v.Turns()
	require.Len(t, turns, 2)
	assert.Equal(t, "I need an NDA", turns[0].Text)
	assert.True(t, turns[0].FromUser())
	assert.Equal(t, "Who are the parties?", turns[1].Text)
	assert.Empty(t, v.Preview())
	assert.Equal(t, []models.GeneratorTurn{{Sender: "user", Text: "I need an NDA"}}, f.api.lastGenerate.Messages)
	assert.Equal(t, ui.StatusSuccess, v.Status())
}

func TestGenerateDocumentReplyBecomesPreview(t *testing.T) {
	f := newFixture(t)
	f.api.generateReply = &client.GenerateReply{Type: client.ReplyDocument, Text: "# NDA"}
	v := NewGenerate(f.api, f.deps)

	_, err := v.Send(context.Background(), "Acme and Globex")
	require.NoError(t, err)

	assert.Equal(t, "# NDA", v.Preview())
	turns := v.Turns()
	require.Len(t, turns, 2)
	assert.Equal(t, models.KindDocument, turns[1].Kind)
}

func TestGenerateFailureKeepsTurnAndApologizes(t *testing.T) {
	f := newFixture(t)
	f.api.generateErr = errBackend
	v := NewGenerate(f.api, f.deps)

	_, err := v.Send(context.Background(), "Draft a lease")
	require.Error(t, err)

	turns := v.Turns()
	require.Len(t, turns, 2)
	assert.Equal(t, "Draft a lease", turns[0].Text)
	assert.Equal(t, Apology, turns[1].Text)
	assert.Equal(t, ui.StatusError, v.Status())

	// The apology is not sent back on the next turn.
	f.api.generateErr = nil
	f.api.generateReply = &client.GenerateReply{Type: client.ReplyQuestion, Text: "ok"}
	_, err = v.Send(context.Background(), "again")
	require.NoError(t, err)
	assert.Equal(t, []models.GeneratorTurn{
		{Sender: "user", Text: "Draft a lease"},
		{Sender: "user", Text: "again"},
	}, f.api.lastGenerate.Messages)
}

func TestGenerateBlankInputIsIgnored(t *testing.T) {
	f := newFixture(t)
	v := NewGenerate(f.api, f.deps)

	reply, err := v.Send(context.Background(), "   ")
	require.NoError(t, err)
	assert.Nil(t, reply)
	assert.Empty(t, f.api.Calls())
	assert.Empty(t, v.Turns())
}

func TestGenerateRejectsSecondSubmitWhilePending(t *testing.T) {
	f := newFixture(t)
	f.api.gate = make(chan struct{})
	f.api.generateReply = &client.GenerateReply{Type: client.ReplyQuestion, Text: "ok"}
	v := NewGenerate(f.api, f.deps)

	errc := make(chan error, 1)
	go func() {
		_, err := v.Send(context.Background(), "first")
		errc <- err
	}()
	require.Eventually(t, v.Busy, time.Second, 5*time.Millisecond)

	_, err := v.Send(context.Background(), "second")
	require.ErrorIs(t, err, ErrBusy)

	close(f.api.gate)
	require.NoError(t, <-errc)
	assert.Equal(t, 1, f.api.count("GenerateChat"))
	assert.Len(t, v.Turns(), 2)
}

func TestGenerateOpenSeedsFromVersion(t *testing.T) {
	f := newFixture(t)
	f.api.conversation = &models.Conversation{
		ID:    "c1",
		Title: "Lease",
		Versions: []models.DocumentVersion{
			{Number: 1, Content: "v1"},
			{Number: 2, Content: "v2"},
		},
		Messages: []models.GeneratorTurn{
			{Sender: "user", Text: "lease please"},
			{Sender: "ai", Text: "sure"},
		},
	}
	v := NewGenerate(f.api, f.deps)

	require.NoError(t, v.Open(context.Background(), "c1", 1))
	assert.Equal(t, "v1", v.Preview())
	assert.Equal(t, 1, v.Version())
	assert.Len(t, v.Turns(), 2)

	require.NoError(t, v.Open(context.Background(), "c1", 0))
	assert.Equal(t, "v2", v.Preview())
	assert.Equal(t, 2, v.Version())

	f.api.generateReply = &client.GenerateReply{Type: client.ReplyQuestion, Text: "?"}
	_, err := v.Send(context.Background(), "add a pet clause")
	require.NoError(t, err)
	assert.Equal(t, "c1", f.api.lastGenerate.ConversationID)
	assert.Len(t, f.api.lastGenerate.Messages, 3)
}

func TestGenerateOpenUnknownVersion(t *testing.T) {
	f := newFixture(t)
	f.api.conversation = &models.Conversation{ID: "c1", Versions: []models.DocumentVersion{{Number: 1}}}
	v := NewGenerate(f.api, f.deps)

	err := v.Open(context.Background(), "c1", 7)
	require.ErrorIs(t, err, client.ErrNotFound)
	assert.Equal(t, "Version 7 not found.", f.lastNotice(t).Text)
}

func TestGenerateDownloadPDF(t *testing.T) {
	f := newFixture(t)
	v := NewGenerate(f.api, f.deps)

	_, err := v.DownloadPDF(context.Background())
	require.ErrorIs(t, err, ErrNoDocument)
	assert.Equal(t, ui.Error("No document to download."), f.lastNotice(t))
	assert.Empty(t, f.api.Calls())

	f.api.generateReply = &client.GenerateReply{Type: client.ReplyDocument, Text: "# NDA"}
	_, err = v.Send(context.Background(), "nda")
	require.NoError(t, err)

	f.api.blob = &client.Blob{Data: minimalPDF}
	saved, err := v.DownloadPDF(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "# NDA", f.api.renderedFrom)
	assert.Equal(t, filepath.Join(f.dir, "legal_document.pdf"), saved.Path)
	assert.Equal(t, ui.LevelSuccess, f.lastNotice(t).Level)
}

// ===== ANALYZER =====

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestAnalyzerUploadSeedsWelcomeOnce(t *testing.T) {
	f := newFixture(t)
	f.api.summarize = &client.SummarizeResult{Success: true, Summary: "A lease.", SessionID: "s1"}
	f.api.sessions = []models.SessionSummary{{ID: "s1"}}
	v := NewAnalyzer(f.api, f.deps)

	_, err := v.Upload(context.Background(), writeFile(t, "lease.txt", "This lease is made between..."))
	require.NoError(t, err)

	turns := v.Turns()
	require.Len(t, turns, 1)
	assert.Equal(t, Welcome, turns[0].Text)
	assert.Equal(t, models.KindWelcome, turns[0].Kind)
	assert.Equal(t, "s1", v.SessionID())
	assert.Equal(t, "A lease.", v.Summary())
	assert.Equal(t, "lease.txt", f.api.lastUpload.Name)
	assert.Equal(t, []string{"Summarize", "Sessions"}, f.api.Calls())
	assert.Len(t, v.Sessions(), 1)

	// A second upload starts over with a single welcome turn.
	f.api.summarize = &client.SummarizeResult{Success: true, Summary: "An NDA.", SessionID: "s2"}
	_, err = v.Upload(context.Background(), writeFile(t, "nda.txt", "Confidential"))
	require.NoError(t, err)
	require.Len(t, v.Turns(), 1)
	assert.Equal(t, "s2", v.SessionID())
}

func TestAnalyzerRejectsUnsupportedFiles(t *testing.T) {
	f := newFixture(t)
	v := NewAnalyzer(f.api, f.deps)

	_, err := v.Upload(context.Background(), writeFile(t, "photo.png", "\x89PNG\r\n\x1a\n"))
	require.ErrorIs(t, err, ErrUnsupportedFile)

	_, err = v.Upload(context.Background(), writeFile(t, "fake.pdf", "just text"))
	require.ErrorIs(t, err, ErrUnsupportedFile)

	assert.Empty(t, f.api.Calls())
	assert.Equal(t, ui.LevelError, f.lastNotice(t).Level)
}

func TestAnalyzerUploadFailureClearsFile(t *testing.T) {
	f := newFixture(t)
	f.api.summarizeErr = &client.APIError{StatusCode: 400, Message: "Unsupported file type"}
	v := NewAnalyzer(f.api, f.deps)

	_, err := v.Upload(context.Background(), writeFile(t, "doc.txt", "text"))
	require.ErrorIs(t, err, client.ErrValidation)
	assert.Empty(t, v.FileName())
	assert.Empty(t, v.SessionID())
	assert.Equal(t, ui.Error("Unsupported file type"), f.lastNotice(t))
}

func TestAnalyzerAskRollsBackOnFailure(t *testing.T) {
	f := newFixture(t)
	f.api.summarize = &client.SummarizeResult{SessionID: "s1"}
	v := NewAnalyzer(f.api, f.deps)
	_, err := v.Upload(context.Background(), writeFile(t, "doc.txt", "text"))
	require.NoError(t, err)

	f.api.chatErr = errBackend
	_, err = v.Ask(context.Background(), "What is the rent?")
	require.Error(t, err)
	require.Len(t, v.Turns(), 1, "only the welcome turn remains")
	assert.Equal(t, ui.Error("boom"), f.lastNotice(t))

	f.api.chatErr = nil
	f.api.chat = &client.ChatResult{Response: "1000 per month", MessageID: "42"}
	_, err = v.Ask(context.Background(), "What is the rent?")
	require.NoError(t, err)
	turns := v.Turns()
	require.Len(t, turns, 3)
	assert.True(t, turns[1].FromUser())
	assert.Equal(t, "1000 per month", turns[2].Text)
}

func TestAnalyzerAskRequiresSession(t *testing.T) {
	f := newFixture(t)
	v := NewAnalyzer(f.api, f.deps)

	_, err := v.Ask(context.Background(), "hello")
	require.ErrorIs(t, err, ErrNoSession)
	assert.Empty(t, f.api.Calls())
}

func TestAnalyzerSelectActiveSessionIsNoop(t *testing.T) {
	f := newFixture(t)
	f.api.summarize = &client.SummarizeResult{SessionID: "s1", Summary: "first"}
	v := NewAnalyzer(f.api, f.deps)
	_, err := v.Upload(context.Background(), writeFile(t, "doc.txt", "text"))
	require.NoError(t, err)
	before := len(f.api.Calls())

	require.NoError(t, v.SelectSession(context.Background(), "s1"))
	assert.Len(t, f.api.Calls(), before)
	assert.Len(t, v.Turns(), 1)
	assert.Equal(t, "first", v.Summary())
}

func TestAnalyzerSelectSessionLoadsHistory(t *testing.T) {
	f := newFixture(t)
	f.api.history = &client.SessionHistory{
		Session: models.AnalyzerSession{ID: "s9", Summary: "old summary"},
		Messages: []models.ChatMessage{
			{ID: "1", Message: "q", IsUser: true},
			{ID: "2", Message: "a"},
		},
	}
	v := NewAnalyzer(f.api, f.deps)

	require.NoError(t, v.SelectSession(context.Background(), "s9"))
	assert.Equal(t, "s9", v.SessionID())
	assert.Equal(t, "old summary", v.Summary())
	turns := v.Turns()
	require.Len(t, turns, 2)
	assert.True(t, turns[0].FromUser())
	assert.False(t, turns[1].FromUser())
}

func TestAnalyzerRefreshSessionsOnlyLogs(t *testing.T) {
	f := newFixture(t)
	f.api.sessionsErr = errBackend
	v := NewAnalyzer(f.api, f.deps)

	v.RefreshSessions(context.Background())
	assert.Empty(t, f.notices.Notices())
}

func TestCheckDocument(t *testing.T) {
	assert.NoError(t, CheckDocument("a.pdf", minimalPDF))
	assert.NoError(t, CheckDocument("a.TXT", []byte("plain words")))
	assert.ErrorIs(t, CheckDocument("a.doc", []byte("x")), ErrUnsupportedFile)
	assert.ErrorIs(t, CheckDocument("a.txt", nil), ErrUnsupportedFile)
	assert.ErrorIs(t, CheckDocument("a.docx", []byte("plain words")), ErrUnsupportedFile)
}

func TestRelativeDate(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "Today", RelativeDate(now.Add(-2*time.Hour), now))
	assert.Equal(t, "Yesterday", RelativeDate(now.Add(-36*time.Hour), now))
	assert.Equal(t, "3 days ago", RelativeDate(now.Add(-80*time.Hour), now))
	assert.Empty(t, RelativeDate(time.Time{}, now))
}

// ===== DOCUMENTS =====

func sampleConversations() []models.Conversation {
	return []models.Conversation{
		{ID: "c1", Title: "Lease Agreement"},
		{ID: "c2", Title: "NDA"},
		{ID: "c3", Title: "Sublease for office"},
	}
}

func TestDocumentsFilterIgnoresCase(t *testing.T) {
	f := newFixture(t)
	f.api.conversations = sampleConversations()
	v := NewDocuments(f.api, f.deps)
	require.NoError(t, v.Load(context.Background()))

	v.SetFilter("Lease")
	var ids []string
	for _, c := range v.Visible() {
		ids = append(ids, c.ID)
	}
	assert.Equal(t, []string{"c1", "c3"}, ids)

	v.SetFilter("")
	assert.Len(t, v.Visible(), 3)
}

func TestDocumentsDeleteDeclined(t *testing.T) {
	f := newFixture(t)
	f.api.conversations = sampleConversations()
	v := NewDocuments(f.api, f.deps)

	deleted, err := v.Delete(context.Background(), "c1", func() bool { return false })
	require.NoError(t, err)
	assert.False(t, deleted)
	assert.Empty(t, f.api.Calls())
}

func TestDocumentsDeleteThenRefetchOnce(t *testing.T) {
	f := newFixture(t)
	f.api.conversations = sampleConversations()
	v := NewDocuments(f.api, f.deps)
	require.NoError(t, v.Load(context.Background()))

	deleted, err := v.Delete(context.Background(), "c2", func() bool { return true })
	require.NoError(t, err)
	assert.True(t, deleted)

	assert.Equal(t, []string{"Conversations", "DeleteConversation", "Conversations"}, f.api.Calls())
	assert.Len(t, v.All(), 2)
	assert.Contains(t, f.notices.Notices(), ui.Success("Document deleted successfully!"))
}

func TestDocumentsDeleteFailure(t *testing.T) {
	f := newFixture(t)
	f.api.deleteErr = errBackend
	v := NewDocuments(f.api, f.deps)

	_, err := v.Delete(context.Background(), "c1", nil)
	require.Error(t, err)
	assert.Equal(t, []string{"DeleteConversation"}, f.api.Calls())
	assert.Equal(t, ui.Error("Failed to delete document."), f.lastNotice(t))
}

func TestDocumentsLoadFailure(t *testing.T) {
	f := newFixture(t)
	f.api.listErr = errBackend
	v := NewDocuments(f.api, f.deps)

	require.Error(t, v.Load(context.Background()))
	assert.Equal(t, ui.Error("Failed to load documents."), f.lastNotice(t))
	assert.Equal(t, ui.StatusError, v.Status())
}

func TestDocumentsDownloadLatestUsesTitle(t *testing.T) {
	f := newFixture(t)
	f.api.conversations = sampleConversations()
	f.api.blob = &client.Blob{Data: minimalPDF, Filename: "server.pdf"}
	v := NewDocuments(f.api, f.deps)
	require.NoError(t, v.Load(context.Background()))

	saved, err := v.DownloadLatest(context.Background(), "c2")
	require.NoError(t, err)
	assert.Equal(t, "NDA.pdf", filepath.Base(saved.Path))
	assert.Equal(t, ui.Success("Latest document PDF downloaded!"), f.lastNotice(t))

	saved, err = v.DownloadLatest(context.Background(), "unknown")
	require.NoError(t, err)
	assert.Equal(t, "server.pdf", filepath.Base(saved.Path))
}

func TestDocumentsNavigation(t *testing.T) {
	f := newFixture(t)
	v := NewDocuments(f.api, f.deps)

	v.Edit("c1")
	v.ShowVersions("c1")
	v.Create()
	assert.Equal(t, []ui.Route{
		{Page: ui.PageEditor, ID: "c1"},
		{Page: ui.PageVersions, ID: "c1"},
		{Page: ui.PageGenerate},
	}, f.history.Routes())
}

func TestViewWithoutNotifierLogsNotices(t *testing.T) {
	var buf bytes.Buffer
	api := &fakeAPI{listErr: errBackend}
	v := NewDocuments(api, Deps{Logger: slog.New(slog.NewTextHandler(&buf, nil))})

	require.Error(t, v.Load(context.Background()))
	assert.Contains(t, buf.String(), "Failed to load documents.")
	assert.Contains(t, buf.String(), "level=WARN")
}

func TestVersions(t *testing.T) {
	f := newFixture(t)
	f.api.conversation = &models.Conversation{
		ID: "c1",
		Versions: []models.DocumentVersion{
			{Number: 2, Content: "b"},
			{Number: 1, Content: "a"},
		},
	}
	f.api.blob = &client.Blob{Data: minimalPDF}
	v := NewVersions(f.api, f.deps)
	require.NoError(t, v.Load(context.Background(), "c1"))

	assert.Equal(t, "Document", v.Title())
	list := v.List()
	require.Len(t, list, 2)
	assert.Equal(t, 1, list[0].Number)

	saved, err := v.Download(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, "Document_v2.pdf", filepath.Base(saved.Path))
	assert.Equal(t, ui.Success("Version 2 PDF downloaded!"), f.lastNotice(t))

	v.Edit(2)
	route, ok := f.history.Current()
	require.True(t, ok)
	assert.Equal(t, "/editor/c1?version=2", route.String())
}

func TestVersionsDownloadNaming(t *testing.T) {
	tests := []struct {
		name   string
		title  string
		server string
		want   string
	}{
		{"title wins", "Lease", "server.pdf", "Lease_v2.pdf"},
		{"untitled takes server name", "", "lease_v2.pdf", "lease_v2.pdf"},
		{"untitled without server name", "  ", "", "Document_v2.pdf"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.api.conversation = &models.Conversation{ID: "c1", Title: tt.title}
			f.api.blob = &client.Blob{Data: minimalPDF, Filename: tt.server}
			v := NewVersions(f.api, f.deps)
			require.NoError(t, v.Load(context.Background(), "c1"))

			saved, err := v.Download(context.Background(), 2)
			require.NoError(t, err)
			assert.Equal(t, tt.want, filepath.Base(saved.Path))
		})
	}
}

func TestVersionsDownloadFailure(t *testing.T) {
	f := newFixture(t)
	f.api.conversation = &models.Conversation{ID: "c1", Title: "Lease"}
	f.api.blobErr = errBackend
	v := NewVersions(f.api, f.deps)
	require.NoError(t, v.Load(context.Background(), "c1"))

	_, err := v.Download(context.Background(), 3)
	require.Error(t, err)
	assert.Equal(t, ui.Error("Failed to download version 3 PDF."), f.lastNotice(t))
}

// ===== CLOSED VIEWS =====

func TestClosedViewDropsLateResults(t *testing.T) {
	f := newFixture(t)
	f.api.gate = make(chan struct{})
	f.api.generateReply = &client.GenerateReply{Type: client.ReplyDocument, Text: "# Late"}
	v := NewGenerate(f.api, f.deps)

	errc := make(chan error, 1)
	go func() {
		_, err := v.Send(context.Background(), "draft")
		errc <- err
	}()
	require.Eventually(t, v.Busy, time.Second, 5*time.Millisecond)

	v.Close()
	close(f.api.gate)
	require.ErrorIs(t, <-errc, ErrClosed)
	assert.Empty(t, v.Preview())
	assert.Empty(t, f.notices.Notices())
}

func TestClosedViewSuppressesNotices(t *testing.T) {
	f := newFixture(t)
	f.api.listErr = errBackend
	v := NewDocuments(f.api, f.deps)
	v.Close()

	require.Error(t, v.Load(context.Background()))
	assert.Empty(t, f.notices.Notices())
}
