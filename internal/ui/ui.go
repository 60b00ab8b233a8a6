// Package ui holds the presentation contracts shared by view controllers and
// the terminal front end: user-visible notices, navigation routes and the
// per-view request status.
package ui

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
)

// =============================================================================
// NOTICES
// =============================================================================

// Level is the severity of a notice.
type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelSuccess:
		return "success"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// Notice is a short user-visible message.
type Notice struct {
	Level Level
	Text  string
}

// Notifier shows notices to the user.
type Notifier interface {
	Notify(n Notice)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notice)

// Notify implements Notifier.
func (f NotifierFunc) Notify(n Notice) { f(n) }

// Info, Success and Error are shorthands for building notices.
func Info(text string) Notice    { return Notice{Level: LevelInfo, Text: text} }
func Success(text string) Notice { return Notice{Level: LevelSuccess, Text: text} }
func Error(text string) Notice   { return Notice{Level: LevelError, Text: text} }

// LogNotifier writes notices to a logger.
type LogNotifier struct {
	Logger *slog.Logger
}

// Notify implements Notifier.
func (n LogNotifier) Notify(notice Notice) {
	level := slog.LevelInfo
	if notice.Level == LevelError {
		level = slog.LevelWarn
	}
	n.Logger.Log(context.Background(), level, notice.Text, "notice", notice.Level.String())
}

// Recorder collects notices in memory.
type Recorder struct {
	mu      sync.Mutex
	notices []Notice
}

// Notify implements Notifier.
func (r *Recorder) Notify(n Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, n)
}

// Notices returns a copy of everything recorded so far.
func (r *Recorder) Notices() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notice, len(r.notices))
	copy(out, r.notices)
	return out
}

// Last returns the most recent notice.
func (r *Recorder) Last() (Notice, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.notices) == 0 {
		return Notice{}, false
	}
	return r.notices[len(r.notices)-1], true
}

// =============================================================================
// NAVIGATION
// =============================================================================

// Page names a screen.
type Page string

const (
	PageHome      Page = "home"
	PageLogin     Page = "login"
	PageSignup    Page = "signup"
	PageVerifyOTP Page = "verify-otp"
	PageProfile   Page = "profile"
	PageGenerate  Page = "generate"
	PageAnalyzer  Page = "analyzer"
	PageDocuments Page = "documents"
	PageVersions  Page = "versions"
	PageEditor    Page = "editor"
	PageLawyers   Page = "lawyers"
)

// Route is a navigation target with its parameters.
type Route struct {
	Page Page
	// ID identifies a conversation or session.
	ID string
	// Version selects a document version; zero means latest.
	Version int
	// Email carries the address to verify on the OTP page.
	Email string
}

// String renders the route as a path.
func (r Route) String() string {
	s := "/" + string(r.Page)
	if r.ID != "" {
		s += "/" + r.ID
	}
	if r.Version > 0 {
		s += "?version=" + strconv.Itoa(r.Version)
	}
	return s
}

// Navigator moves the user to another screen.
type Navigator interface {
	Navigate(r Route)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(Route)

// Navigate implements Navigator.
func (f NavigatorFunc) Navigate(r Route) { f(r) }

// History records navigations in memory.
type History struct {
	mu     sync.Mutex
	routes []Route
}

// Navigate implements Navigator.
func (h *History) Navigate(r Route) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.routes = append(h.routes, r)
}

// Routes returns a copy of every navigation so far.
func (h *History) Routes() []Route {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Route, len(h.routes))
	copy(out, h.routes)
	return out
}

// Current returns the latest route.
func (h *History) Current() (Route, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.routes) == 0 {
		return Route{}, false
	}
	return h.routes[len(h.routes)-1], true
}

// =============================================================================
// STATUS
// =============================================================================

// Status is the request state of a view: idle, then loading, then success
// or error. The next action goes back through loading.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return "idle"
	}
}

// Discard is a Notifier and Navigator that drops everything.
var Discard discard

type discard struct{}

func (discard) Notify(Notice)  {}
func (discard) Navigate(Route) {}
