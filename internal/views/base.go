// Package views implements the per-screen controllers: local form state,
// request issuing and mapping of responses into view state and notices.
//
// Every view allows one in-flight request at a time and tolerates results
// that arrive after Close.
package views

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/raphaelgruber/advocai-go/internal/download"
	"github.com/raphaelgruber/advocai-go/internal/ui"
	"golang.org/x/sync/semaphore"
)

var (
	// ErrBusy is returned when a request of the same view is still pending.
	ErrBusy = errors.New("a request is already in progress")
	// ErrClosed is returned when a result arrives after the view was closed.
	ErrClosed = errors.New("view closed")
	// ErrInvalidInput is returned when client-side validation fails.
	ErrInvalidInput = errors.New("invalid input")
)

// FileSaver writes downloaded PDFs.
type FileSaver interface {
	Save(data []byte, name string) (*download.Saved, error)
}

// Deps are the collaborators shared by all views.
type Deps struct {
	Notifier  ui.Notifier
	Navigator ui.Navigator
	Logger    *slog.Logger
	Saver     FileSaver
}

func (d Deps) withDefaults() Deps {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	// Without a screen, notices still end up in the log.
	if d.Notifier == nil {
		d.Notifier = ui.LogNotifier{Logger: d.Logger}
	}
	if d.Navigator == nil {
		d.Navigator = ui.Discard
	}
	if d.Saver == nil {
		d.Saver = download.Saver{Dir: "."}
	}
	return d
}

// base carries the status, the duplicate-submit guard and the closed flag.
type base struct {
	deps  Deps
	guard *semaphore.Weighted

	mu     sync.Mutex
	status ui.Status
	closed bool
}

func newBase(deps Deps) base {
	return base{
		deps:  deps.withDefaults(),
		guard: semaphore.NewWeighted(1),
	}
}

// begin claims the view's single request slot and moves to loading.
// The returned function releases the slot and records the outcome.
func (b *base) begin() (func(err error), error) {
	if !b.guard.TryAcquire(1) {
		return nil, ErrBusy
	}
	b.mu.Lock()
	b.status = ui.StatusLoading
	b.mu.Unlock()

	return func(err error) {
		b.mu.Lock()
		if err != nil {
			b.status = ui.StatusError
		} else {
			b.status = ui.StatusSuccess
		}
		b.mu.Unlock()
		b.guard.Release(1)
	}, nil
}

// Status returns the request state of the view.
func (b *base) Status() ui.Status {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.status
}

// Close marks the view as gone; later results no longer touch state or
// produce notices.
func (b *base) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
}

func (b *base) isClosed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

func (b *base) notify(n ui.Notice) {
	if b.isClosed() {
		return
	}
	b.deps.Notifier.Notify(n)
}

func (b *base) navigate(r ui.Route) {
	if b.isClosed() {
		return
	}
	b.deps.Navigator.Navigate(r)
}

// formValidator checks form structs before any request is sent.
var formValidator = validator.New(validator.WithRequiredStructEnabled())

// validateForm returns a user-facing message for the first failing field,
// or "" when the form is valid.
func validateForm(form any, messages map[string]string) string {
	err := formValidator.Struct(form)
	if err == nil {
		return ""
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}
	first := verrs[0]
	if msg, ok := messages[first.Field()+"."+first.Tag()]; ok {
		return msg
	}
	if msg, ok := messages[first.Field()]; ok {
		return msg
	}
	return first.Field() + " is invalid."
}
