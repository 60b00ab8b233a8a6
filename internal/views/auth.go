package views

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/raphaelgruber/advocai-go/internal/client"
	"github.com/raphaelgruber/advocai-go/internal/models"
	"github.com/raphaelgruber/advocai-go/internal/ui"
)

// SessionAuth is the part of the session the auth views drive.
type SessionAuth interface {
	Login(ctx context.Context, email, password string) error
	GoogleLogin(ctx context.Context, idToken string) error
	User() *models.User
	UpdateProfile(ctx context.Context, update client.ProfileUpdate) (*models.User, error)
}

// AccountAPI covers registration and verification.
type AccountAPI interface {
	Signup(ctx context.Context, req client.SignupRequest) (*client.SignupResult, error)
	VerifyOTP(ctx context.Context, email, code string) (*client.VerifyResult, error)
	ResendOTP(ctx context.Context, email string) (*client.MessageResult, error)
}

// =============================================================================
// LOGIN
// =============================================================================

// LoginForm holds the login fields.
type LoginForm struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

var loginMessages = map[string]string{
	"Email.required":    "Please enter your email address.",
	"Email.email":       "Please enter a valid email address.",
	"Password.required": "Please enter your password.",
}

// Login is the login screen.
type Login struct {
	base
	session SessionAuth
}

// NewLogin creates the login view.
func NewLogin(session SessionAuth, deps Deps) *Login {
	return &Login{base: newBase(deps), session: session}
}

// Submit validates the form and logs in. The session reports the outcome
// and navigates.
func (v *Login) Submit(ctx context.Context, form LoginForm) error {
	form.Email = strings.TrimSpace(form.Email)
	if msg := validateForm(form, loginMessages); msg != "" {
		v.notify(ui.Error(msg))
		return fmt.Errorf("%w: %s", ErrInvalidInput, msg)
	}

	done, err := v.begin()
	if err != nil {
		return err
	}
	err = v.session.Login(ctx, form.Email, form.Password)
	done(err)
	return err
}

// Google logs in with a Google ID token.
func (v *Login) Google(ctx context.Context, idToken string) error {
	idToken = strings.TrimSpace(idToken)
	if idToken == "" {
		v.notify(ui.Error("Google login failed."))
		return fmt.Errorf("%w: empty Google token", ErrInvalidInput)
	}

	done, err := v.begin()
	if err != nil {
		return err
	}
	err = v.session.GoogleLogin(ctx, idToken)
	done(err)
	return err
}

// =============================================================================
// SIGNUP
// =============================================================================

// SignupForm holds the registration fields.
type SignupForm struct {
	Email     string `validate:"required,email"`
	Username  string `validate:"required"`
	Name      string
	Password  string `validate:"required"`
	Password2 string `validate:"required,eqfield=Password"`
}

var signupMessages = map[string]string{
	"Email.required":     "Please enter your email address.",
	"Email.email":        "Please enter a valid email address.",
	"Username.required":  "Please choose a username.",
	"Password.required":  "Please enter a password.",
	"Password2.required": "Please confirm your password.",
	"Password2.eqfield":  "Passwords do not match.",
}

// Signup is the registration screen.
type Signup struct {
	base
	api AccountAPI
}

// NewSignup creates the signup view.
func NewSignup(api AccountAPI, deps Deps) *Signup {
	return &Signup{base: newBase(deps), api: api}
}

// Submit registers the account. Unverified accounts are sent to OTP
// verification with the returned email, others to login.
func (v *Signup) Submit(ctx context.Context, form SignupForm) (*client.SignupResult, error) {
	form.Email = strings.TrimSpace(form.Email)
	form.Username = strings.TrimSpace(form.Username)
	form.Name = strings.TrimSpace(form.Name)
	if msg := validateForm(form, signupMessages); msg != "" {
		v.notify(ui.Error(msg))
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, msg)
	}

	done, err := v.begin()
	if err != nil {
		return nil, err
	}
	res, err := v.api.Signup(ctx, client.SignupRequest{
		Email:     form.Email,
		Username:  form.Username,
		Name:      form.Name,
		Password:  form.Password,
		Password2: form.Password2,
	})
	done(err)
	if err != nil {
		v.notify(ui.Error(client.Message(err, "Signup failed.")))
		return nil, fmt.Errorf("signup: %w", err)
	}
	v.notify(ui.Success(models.FirstNonEmpty(res.Message, "Signup successful!")))
	if res.RequiresVerification {
		v.navigate(ui.Route{Page: ui.PageVerifyOTP, Email: models.FirstNonEmpty(res.Email, form.Email)})
	} else {
		v.navigate(ui.Route{Page: ui.PageLogin})
	}
	return res, nil
}

// =============================================================================
// OTP VERIFICATION
// =============================================================================

// ErrNoEmail is returned when OTP verification is opened without an address.
var ErrNoEmail = errors.New("no email for OTP verification")

type otpForm struct {
	Code string `validate:"required,len=6,numeric"`
}

var otpMessages = map[string]string{
	"Code.required": "Please enter the verification code.",
	"Code":          "The verification code has 6 digits.",
}

// OTP is the email verification screen.
type OTP struct {
	base
	api   AccountAPI
	email string
}

// NewOTP creates the verification view for email. Without an email the
// user is sent back to signup.
func NewOTP(api AccountAPI, email string, deps Deps) (*OTP, error) {
	v := &OTP{base: newBase(deps), api: api, email: strings.TrimSpace(email)}
	if v.email == "" {
		v.notify(ui.Error("No email provided for OTP verification. Please sign up again."))
		v.navigate(ui.Route{Page: ui.PageSignup})
		return nil, ErrNoEmail
	}
	return v, nil
}

// Email returns the address being verified.
func (v *OTP) Email() string { return v.email }

// Verify submits the one-time code and sends the user to login.
func (v *OTP) Verify(ctx context.Context, code string) error {
	form := otpForm{Code: strings.TrimSpace(code)}
	if msg := validateForm(form, otpMessages); msg != "" {
		v.notify(ui.Error(msg))
		return fmt.Errorf("%w: %s", ErrInvalidInput, msg)
	}

	done, err := v.begin()
	if err != nil {
		return err
	}
	res, err := v.api.VerifyOTP(ctx, v.email, form.Code)
	done(err)
	if err != nil {
		v.notify(ui.Error(client.Message(err, "OTP verification failed.")))
		return fmt.Errorf("verify otp: %w", err)
	}

	v.notify(ui.Success(models.FirstNonEmpty(res.Message, "Email verified successfully!")))
	v.navigate(ui.Route{Page: ui.PageLogin})
	return nil
}

// Resend asks for a new code.
func (v *OTP) Resend(ctx context.Context) error {
	done, err := v.begin()
	if err != nil {
		return err
	}
	res, err := v.api.ResendOTP(ctx, v.email)
	done(err)
	if err != nil {
		v.notify(ui.Error(client.Message(err, "Failed to resend OTP.")))
		return fmt.Errorf("resend otp: %w", err)
	}
	v.notify(ui.Success(models.FirstNonEmpty(res.Message, "A new code has been sent.")))
	return nil
}

// =============================================================================
// PROFILE
// =============================================================================

// ProfileForm holds the editable profile fields.
type ProfileForm struct {
	Name string
	// PicturePath is an optional image file to upload.
	PicturePath string
}

// Profile is the profile screen.
type Profile struct {
	base
	session SessionAuth
}

// NewProfile creates the profile view.
func NewProfile(session SessionAuth, deps Deps) *Profile {
	return &Profile{base: newBase(deps), session: session}
}

// User returns the signed-in user, or nil.
func (v *Profile) User() *models.User {
	return v.session.User()
}

// Form returns the form seeded from the current user.
func (v *Profile) Form() ProfileForm {
	if u := v.session.User(); u != nil {
		return ProfileForm{Name: u.Name}
	}
	return ProfileForm{}
}

// Save uploads the changes.
func (v *Profile) Save(ctx context.Context, form ProfileForm) (*models.User, error) {
	update := client.ProfileUpdate{Name: strings.TrimSpace(form.Name)}
	if form.PicturePath != "" {
		data, err := os.ReadFile(form.PicturePath)
		if err != nil {
			v.notify(ui.Error("Could not read the selected picture."))
			return nil, fmt.Errorf("read picture: %w", err)
		}
		update.Picture = &client.File{Name: filepath.Base(form.PicturePath), Data: data}
	}

	done, err := v.begin()
	if err != nil {
		return nil, err
	}
	user, err := v.session.UpdateProfile(ctx, update)
	done(err)
	if err != nil {
		v.notify(ui.Error(client.Message(err, "Failed to update profile.")))
		return nil, err
	}
	v.notify(ui.Success("Profile updated successfully!"))
	return user, nil
}
