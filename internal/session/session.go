// Package session holds the authenticated user and the credentials that
// outgoing requests read at request time.
//
// A Session is constructed once at startup and lives for the whole process.
// Only Login, Logout, LoadOnStartup and Expire write credentials.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/raphaelgruber/advocai-go/internal/client"
	"github.com/raphaelgruber/advocai-go/internal/models"
	"github.com/raphaelgruber/advocai-go/internal/ui"
	"golang.org/x/oauth2"
)

var (
	// ErrNoToken is returned by the token source when nobody is logged in.
	ErrNoToken = errors.New("no access token stored")
	// ErrVerificationRequired is returned by Login for accounts awaiting OTP verification.
	ErrVerificationRequired = errors.New("email verification required")
	// ErrNotAuthenticated is returned by operations that need a logged-in user.
	ErrNotAuthenticated = errors.New("not logged in")
)

// Backend is the subset of the API client the session needs.
type Backend interface {
	Login(ctx context.Context, email, password string) (*client.LoginResult, error)
	GoogleLogin(ctx context.Context, idToken string) (*client.LoginResult, error)
	Logout(ctx context.Context, refreshToken string) error
	Profile(ctx context.Context) (*models.User, error)
	UpdateProfile(ctx context.Context, update client.ProfileUpdate) (*models.User, error)
}

// Options configures a Session.
type Options struct {
	Notifier  ui.Notifier
	Navigator ui.Navigator
	Logger    *slog.Logger
}

// Session is the auth/session store.
type Session struct {
	store     TokenStore
	notifier  ui.Notifier
	navigator ui.Navigator
	logger    *slog.Logger

	mu            sync.RWMutex
	api           Backend
	user          *models.User
	authenticated bool
}

// New creates a session over store. Bind must be called before any
// operation that talks to the backend.
func New(store TokenStore, opts Options) *Session {
	s := &Session{
		store:     store,
		notifier:  opts.Notifier,
		navigator: opts.Navigator,
		logger:    opts.Logger,
	}
	if s.notifier == nil {
		s.notifier = ui.Discard
	}
	if s.navigator == nil {
		s.navigator = ui.Discard
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Bind attaches the backend. The client itself is built with TokenSource
// and Expire, so the two are wired in two steps.
func (s *Session) Bind(api Backend) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.api = api
}

func (s *Session) backend() (Backend, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.api == nil {
		return nil, errors.New("session has no backend")
	}
	return s.api, nil
}

// User returns a copy of the current user, or nil when logged out.
func (s *Session) User() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// IsAuthenticated reports whether a user is logged in.
func (s *Session) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authenticated
}

// AccessToken returns the stored access token, or "".
func (s *Session) AccessToken() string {
	tok, err := s.store.Get(AccessTokenKey)
	if err != nil {
		s.logger.Warn("read access token", "error", err)
		return ""
	}
	return tok
}

// TokenSource returns a source that reads the stored token on every call.
func (s *Session) TokenSource() oauth2.TokenSource {
	return storeTokenSource{store: s.store}
}

type storeTokenSource struct {
	store TokenStore
}

func (ts storeTokenSource) Token() (*oauth2.Token, error) {
	access, err := ts.store.Get(AccessTokenKey)
	if err != nil {
		return nil, err
	}
	if access == "" {
		return nil, ErrNoToken
	}
	refresh, _ := ts.store.Get(RefreshTokenKey)
	return &oauth2.Token{AccessToken: access, RefreshToken: refresh, TokenType: "Bearer"}, nil
}

// =============================================================================
// OPERATIONS
// =============================================================================

// Login authenticates with email and password. On success both tokens and
// the user are stored and the user is sent home; on failure nothing is stored.
func (s *Session) Login(ctx context.Context, email, password string) error {
	api, err := s.backend()
	if err != nil {
		return err
	}
	res, err := api.Login(ctx, email, password)
	return s.completeLogin(res, err, email, "Login failed. Please check your credentials.")
}

// GoogleLogin authenticates with a Google ID token.
func (s *Session) GoogleLogin(ctx context.Context, idToken string) error {
	api, err := s.backend()
	if err != nil {
		return err
	}
	res, err := api.GoogleLogin(ctx, idToken)
	return s.completeLogin(res, err, "", "Google login failed.")
}

func (s *Session) completeLogin(res *client.LoginResult, err error, email, fallback string) error {
	if err != nil {
		s.notifier.Notify(ui.Error(client.Message(err, fallback)))
		return fmt.Errorf("login: %w", err)
	}

	if res.RequiresVerification {
		s.notifier.Notify(ui.Info(models.FirstNonEmpty(res.Message, "Please verify your email address.")))
		s.navigator.Navigate(ui.Route{Page: ui.PageVerifyOTP, Email: models.FirstNonEmpty(res.Email, email)})
		return ErrVerificationRequired
	}

	if err := s.store.Set(AccessTokenKey, res.Tokens.Access); err != nil {
		s.clearTokens()
		s.notifier.Notify(ui.Error("Could not save your credentials."))
		return fmt.Errorf("store access token: %w", err)
	}
	if err := s.store.Set(RefreshTokenKey, res.Tokens.Refresh); err != nil {
		s.clearTokens()
		s.notifier.Notify(ui.Error("Could not save your credentials."))
		return fmt.Errorf("store refresh token: %w", err)
	}

	user := *res.User
	s.mu.Lock()
	s.user = &user
	s.authenticated = true
	s.mu.Unlock()

	s.logger.Info("logged in", "user", user.Email)
	s.notifier.Notify(ui.Success("Login successful!"))
	s.navigator.Navigate(ui.Route{Page: ui.PageHome})
	return nil
}

// Logout tells the backend best-effort, then unconditionally clears local
// credentials and state and sends the user to the login page.
func (s *Session) Logout(ctx context.Context) {
	refresh, err := s.store.Get(RefreshTokenKey)
	if err != nil {
		s.logger.Warn("read refresh token", "error", err)
	}
	if refresh != "" {
		if api, err := s.backend(); err == nil {
			if err := api.Logout(Quiet(ctx), refresh); err != nil {
				s.logger.Warn("backend logout failed", "error", err)
			}
		}
	}

	s.reset()
	s.notifier.Notify(ui.Success("Logged out successfully!"))
	s.navigator.Navigate(ui.Route{Page: ui.PageLogin})
}

// LoadOnStartup validates a stored access token by fetching the profile.
// Any failure silently clears storage and leaves the user logged out.
func (s *Session) LoadOnStartup(ctx context.Context) {
	if s.AccessToken() == "" {
		return
	}
	api, err := s.backend()
	if err != nil {
		s.logger.Warn("startup load skipped", "error", err)
		return
	}

	user, err := api.Profile(Quiet(ctx))
	if err != nil {
		s.logger.Info("stored session rejected", "error", err)
		s.reset()
		return
	}

	s.mu.Lock()
	s.user = user
	s.authenticated = true
	s.mu.Unlock()
}

// UpdateProfile saves profile changes and replaces the stored user.
func (s *Session) UpdateProfile(ctx context.Context, update client.ProfileUpdate) (*models.User, error) {
	if !s.IsAuthenticated() {
		return nil, ErrNotAuthenticated
	}
	api, err := s.backend()
	if err != nil {
		return nil, err
	}

	user, err := api.UpdateProfile(ctx, update)
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}

	s.mu.Lock()
	s.user = user
	s.mu.Unlock()

	u := *user
	return &u, nil
}

// Expire handles a rejected authenticated request: credentials are
// cleared and the user is sent to the login page. Quiet contexts clear
// without notifying.
func (s *Session) Expire(ctx context.Context) {
	wasAuthenticated := s.IsAuthenticated()
	s.reset()
	if IsQuiet(ctx) || !wasAuthenticated {
		return
	}
	s.notifier.Notify(ui.Error("Your session has expired. Please log in again."))
	s.navigator.Navigate(ui.Route{Page: ui.PageLogin})
}

func (s *Session) reset() {
	s.clearTokens()
	s.mu.Lock()
	s.user = nil
	s.authenticated = false
	s.mu.Unlock()
}

func (s *Session) clearTokens() {
	if err := s.store.Remove(AccessTokenKey, RefreshTokenKey); err != nil {
		s.logger.Warn("clear credentials", "error", err)
	}
}

// =============================================================================
// QUIET CONTEXT
// =============================================================================

type quietKey struct{}

// Quiet marks ctx so that session expiry triggered by requests made under
// it is not announced to the user.
func Quiet(ctx context.Context) context.Context {
	return context.WithValue(ctx, quietKey{}, true)
}

// IsQuiet reports whether ctx was marked by Quiet.
func IsQuiet(ctx context.Context) bool {
	v, _ := ctx.Value(quietKey{}).(bool)
	return v
}
