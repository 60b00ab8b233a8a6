package client

import (
	"context"
	"net/http"

	"github.com/raphaelgruber/advocai-go/internal/models"
)

// =============================================================================
// AUTH
// =============================================================================

// SignupRequest is the registration form.
type SignupRequest struct {
	Email     string `json:"email"`
	Username  string `json:"username"`
	Name      string `json:"name"`
	Password  string `json:"password"`
	Password2 string `json:"password2"`
}

// SignupResult is the answer to a registration.
type SignupResult struct {
	Message              string `json:"message"`
	Email                string `json:"email"`
	RequiresVerification bool   `json:"requires_verification"`
}

// LoginResult is the answer to a password or social login.
// Unverified accounts get RequiresVerification and no tokens.
type LoginResult struct {
	Message              string         `json:"message"`
	User                 *models.User   `json:"user" validate:"required_without=RequiresVerification"`
	Tokens               *models.Tokens `json:"tokens" validate:"required_without=RequiresVerification"`
	Redirect             string         `json:"redirect,omitempty"`
	Email                string         `json:"email,omitempty"`
	RequiresVerification bool           `json:"requires_verification"`
}

// VerifyResult is the answer to an OTP verification.
type VerifyResult struct {
	Message string         `json:"message"`
	User    *models.User   `json:"user,omitempty"`
	Tokens  *models.Tokens `json:"tokens,omitempty"`
}

// MessageResult is an answer carrying only a message.
type MessageResult struct {
	Message string `json:"message"`
}

// ProfileUpdate holds the editable profile fields.
type ProfileUpdate struct {
	Name string
	// Picture is an optional new profile picture.
	Picture *File
}

// Signup registers a new account.
func (c *Client) Signup(ctx context.Context, req SignupRequest) (*SignupResult, error) {
	var result SignupResult
	if err := c.sendJSON(ctx, http.MethodPost, "auth/signup/", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Login exchanges credentials for tokens.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	payload := map[string]string{"email": email, "password": password}

	var result LoginResult
	if err := c.sendJSON(ctx, http.MethodPost, "auth/login/", payload, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GoogleLogin exchanges a Google ID token for tokens.
func (c *Client) GoogleLogin(ctx context.Context, idToken string) (*LoginResult, error) {
	payload := map[string]string{"token": idToken}

	var result LoginResult
	if err := c.sendJSON(ctx, http.MethodPost, "auth/google/", payload, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Logout invalidates the refresh token on the backend.
func (c *Client) Logout(ctx context.Context, refreshToken string) error {
	payload := map[string]string{"refresh": refreshToken}
	return c.sendJSON(ctx, http.MethodPost, "auth/logout/", payload, nil)
}

// VerifyOTP confirms an account with the emailed one-time code.
func (c *Client) VerifyOTP(ctx context.Context, email, code string) (*VerifyResult, error) {
	payload := map[string]string{"email": email, "otp_code": code}

	var result VerifyResult
	if err := c.sendJSON(ctx, http.MethodPost, "auth/verify-otp/", payload, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ResendOTP requests a fresh one-time code.
func (c *Client) ResendOTP(ctx context.Context, email string) (*MessageResult, error) {
	payload := map[string]string{"email": email}

	var result MessageResult
	if err := c.sendJSON(ctx, http.MethodPost, "auth/resend-otp/", payload, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Profile fetches the authenticated user.
func (c *Client) Profile(ctx context.Context) (*models.User, error) {
	var user models.User
	if err := c.getJSON(ctx, "auth/profile/", &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateProfile changes the display name and optionally the picture.
func (c *Client) UpdateProfile(ctx context.Context, update ProfileUpdate) (*models.User, error) {
	fields := map[string]string{"name": update.Name}
	var files []File
	if update.Picture != nil {
		pic := *update.Picture
		pic.Field = "profile_picture"
		files = append(files, pic)
	}

	var user models.User
	if err := c.sendMultipart(ctx, http.MethodPatch, "auth/profile/", fields, files, &user); err != nil {
		return nil, err
	}
	return &user, nil
}
