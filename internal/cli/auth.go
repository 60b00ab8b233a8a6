package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/raphaelgruber/advocai-go/internal/session"
	"github.com/raphaelgruber/advocai-go/internal/views"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	loginEmail       string
	loginGoogleToken string

	signupEmail    string
	signupUsername string
	signupName     string

	otpEmail string

	profileName    string
	profilePicture string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in to AdvocAI",
	Long: `Log in with email and password, or with a Google ID token.

The password is read from the terminal without echo. Credentials are kept
in the credentials file until you log out.

Examples:
  advocai login
  advocai login --email ada@example.com
  advocai login --google-token "$GOOGLE_ID_TOKEN"`,
	Args: cobra.NoArgs,
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Log out and forget stored credentials",
	Args:  cobra.NoArgs,
	RunE:  runLogout,
}

var signupCmd = &cobra.Command{
	Use:   "signup",
	Short: "Create an account",
	Long: `Create an account. A one-time code is emailed for verification.

Examples:
  advocai signup --email ada@example.com --username ada --name "Ada Lovelace"`,
	Args: cobra.NoArgs,
	RunE: runSignup,
}

var verifyOTPCmd = &cobra.Command{
	Use:   "verify-otp [code]",
	Short: "Verify your email with the emailed one-time code",
	Long: `Verify your email with the emailed one-time code.

Examples:
  advocai verify-otp --email ada@example.com 123456`,
	Args: cobra.MaximumNArgs(1),
	RunE: runVerifyOTP,
}

var resendOTPCmd = &cobra.Command{
	Use:   "resend-otp",
	Short: "Send a new verification code",
	Args:  cobra.NoArgs,
	RunE:  runResendOTP,
}

var profileCmd = requireAuth(&cobra.Command{
	Use:   "profile",
	Short: "Show your profile",
	Args:  cobra.NoArgs,
	RunE:  runProfile,
})

var profileUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Change your display name or profile picture",
	Long: `Change your display name or profile picture.

Examples:
  advocai profile update --name "Ada King"
  advocai profile update --picture ~/me.png`,
	Args: cobra.NoArgs,
	RunE: runProfileUpdate,
}

func init() {
	loginCmd.Flags().StringVarP(&loginEmail, "email", "e", "", "account email")
	loginCmd.Flags().StringVar(&loginGoogleToken, "google-token", "", "log in with a Google ID token")

	signupCmd.Flags().StringVarP(&signupEmail, "email", "e", "", "account email")
	signupCmd.Flags().StringVarP(&signupUsername, "username", "u", "", "username")
	signupCmd.Flags().StringVarP(&signupName, "name", "n", "", "display name")

	verifyOTPCmd.Flags().StringVarP(&otpEmail, "email", "e", "", "email to verify")
	resendOTPCmd.Flags().StringVarP(&otpEmail, "email", "e", "", "email to verify")

	profileUpdateCmd.Flags().StringVarP(&profileName, "name", "n", "", "new display name")
	profileUpdateCmd.Flags().StringVarP(&profilePicture, "picture", "p", "", "image file to use as profile picture")
	profileCmd.AddCommand(profileUpdateCmd)
}

func runLogin(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	v := views.NewLogin(a.session, a.deps(""))

	var err error
	if loginGoogleToken != "" {
		err = v.Google(ctx, loginGoogleToken)
	} else {
		form := views.LoginForm{Email: loginEmail}
		if form.Email == "" {
			if form.Email, err = promptLine(a.errOut, stdinReader, "Email: "); err != nil {
				return err
			}
		}
		if form.Password, err = readPassword("Password: "); err != nil {
			return err
		}
		err = v.Submit(ctx, form)
	}

	if errors.Is(err, session.ErrVerificationRequired) {
		return nil
	}
	return reported(err)
}

func runLogout(cmd *cobra.Command, args []string) error {
	a.session.Logout(cmd.Context())
	return nil
}

func runSignup(cmd *cobra.Command, args []string) error {
	form := views.SignupForm{Email: signupEmail, Username: signupUsername, Name: signupName}

	var err error
	if form.Email == "" {
		if form.Email, err = promptLine(a.errOut, stdinReader, "Email: "); err != nil {
			return err
		}
	}
	if form.Username == "" {
		if form.Username, err = promptLine(a.errOut, stdinReader, "Username: "); err != nil {
			return err
		}
	}
	if form.Name == "" {
		if form.Name, err = promptLine(a.errOut, stdinReader, "Name (optional): "); err != nil {
			return err
		}
	}
	if form.Password, err = readPassword("Password: "); err != nil {
		return err
	}
	if form.Password2, err = readPassword("Confirm password: "); err != nil {
		return err
	}

	_, err = views.NewSignup(a.api, a.deps("")).Submit(cmd.Context(), form)
	return reported(err)
}

func runVerifyOTP(cmd *cobra.Command, args []string) error {
	v, err := views.NewOTP(a.api, otpEmail, a.deps(""))
	if err != nil {
		return reported(err)
	}

	var code string
	if len(args) > 0 {
		code = args[0]
	} else if code, err = promptLine(a.errOut, stdinReader, fmt.Sprintf("Code sent to %s: ", v.Email())); err != nil {
		return err
	}
	return reported(v.Verify(cmd.Context(), code))
}

func runResendOTP(cmd *cobra.Command, args []string) error {
	v, err := views.NewOTP(a.api, otpEmail, a.deps(""))
	if err != nil {
		return reported(err)
	}
	return reported(v.Resend(cmd.Context()))
}

func runProfile(cmd *cobra.Command, args []string) error {
	user := views.NewProfile(a.session, a.deps("")).User()
	if user == nil {
		return errNotLoggedIn
	}

	fmt.Fprintf(a.out, "%s\n", a.theme.successStyle().Render(user.DisplayName()))
	fmt.Fprintf(a.out, "  Email:     %s\n", user.Email)
	if user.Username != "" {
		fmt.Fprintf(a.out, "  Username:  %s\n", user.Username)
	}
	if user.AuthProvider != "" {
		fmt.Fprintf(a.out, "  Provider:  %s\n", user.AuthProvider)
	}
	if user.ProfilePicture != "" {
		fmt.Fprintf(a.out, "  Picture:   %s\n", user.ProfilePicture)
	}
	if !user.DateJoined.IsZero() {
		fmt.Fprintf(a.out, "  Joined:    %s\n", user.DateJoined.Display())
	}
	return nil
}

func runProfileUpdate(cmd *cobra.Command, args []string) error {
	v := views.NewProfile(a.session, a.deps(""))

	form := v.Form()
	if cmd.Flags().Changed("name") {
		form.Name = profileName
	}
	form.PicturePath = profilePicture
	if !cmd.Flags().Changed("name") && form.PicturePath == "" {
		return fmt.Errorf("nothing to update: pass --name or --picture")
	}

	_, err := v.Save(cmd.Context(), form)
	return reported(err)
}

// readPassword reads a secret without echo when stdin is a terminal.
func readPassword(label string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return promptLine(a.errOut, stdinReader, label)
	}
	fmt.Fprint(a.errOut, label)
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(a.errOut)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(b), nil
}

// ===== REPORTED ERRORS =====

// reportedError marks an error the user already saw as a notice.
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

// reported wraps err so that Execute's caller does not print it again.
func reported(err error) error {
	if err == nil {
		return nil
	}
	return &reportedError{err: err}
}

// IsReported reports whether err was already shown to the user.
func IsReported(err error) bool {
	var r *reportedError
	return errors.As(err, &r)
}
