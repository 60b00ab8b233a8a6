// Package cli provides the command-line interface for advocai.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/raphaelgruber/advocai-go/internal/client"
	"github.com/raphaelgruber/advocai-go/internal/config"
	"github.com/raphaelgruber/advocai-go/internal/download"
	"github.com/raphaelgruber/advocai-go/internal/metrics"
	"github.com/raphaelgruber/advocai-go/internal/models"
	"github.com/raphaelgruber/advocai-go/internal/session"
	"github.com/raphaelgruber/advocai-go/internal/ui"
	"github.com/raphaelgruber/advocai-go/internal/views"
	"github.com/spf13/cobra"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	verbose    bool
	configFile string
	apiURL     string

	// Global application state, built in PersistentPreRunE
	cfg           config.Config
	a             *app
	loggerCleanup func() error
)

// annotationAuth marks commands that need a logged-in user.
const annotationAuth = "advocai/auth"

// requireAuth marks cmd as needing a logged-in user.
func requireAuth(cmd *cobra.Command) *cobra.Command {
	if cmd.Annotations == nil {
		cmd.Annotations = map[string]string{}
	}
	cmd.Annotations[annotationAuth] = "required"
	return cmd
}

func needsAuth(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations[annotationAuth] == "required" {
			return true
		}
	}
	return false
}

// errNotLoggedIn is returned by protected commands without a valid session.
var errNotLoggedIn = errors.New("not logged in; run 'advocai login' first")

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "advocai",
	Short: "Terminal client for the AdvocAI legal-document assistant",
	Long: `AdvocAI helps you understand and draft legal documents.

Upload a contract to get a summary and ask questions about it, draft new
documents by chatting with the assistant, and manage every saved version
of the documents you generated.

Examples:
  advocai login
  advocai analyze lease.pdf
  advocai generate
  advocai docs --search lease`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip wiring for version and help commands
		if cmd.Name() == "version" || cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}

		// Load config
		var err error
		cfg, err = config.LoadWith(config.Options{ConfigFile: configFile, EnvFile: ".env"})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: config file ignored: %v\n", err)
		}
		if apiURL != "" {
			cfg.APIURL = config.NormalizeBaseURL(apiURL)
		}

		logger, cleanup := config.SetupLogger(cfg.LogFile, cfg.LogLevel, verbose)
		loggerCleanup = cleanup
		slog.SetDefault(logger)

		a, err = newApp(cfg, logger, os.Stdout, os.Stderr)
		if err != nil {
			return err
		}

		if needsAuth(cmd) {
			a.session.LoadOnStartup(cmd.Context())
			if !a.session.IsAuthenticated() {
				return errNotLoggedIn
			}
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if a != nil && verbose {
			printStats(a.errOut, a.metrics.Snapshot())
		}
		if loggerCleanup != nil {
			if err := loggerCleanup(); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to close log file: %v\n", err)
			}
		}
	},
}

// app holds the wired components shared by all commands.
type app struct {
	cfg     config.Config
	logger  *slog.Logger
	metrics *metrics.Collector
	store   *session.FileStore
	session *session.Session
	api     *client.Client
	theme   Theme
	out     io.Writer
	errOut  io.Writer
}

// newApp wires session and client. The client reads tokens from the
// session and reports rejected credentials back to it.
func newApp(cfg config.Config, logger *slog.Logger, out, errOut io.Writer) (*app, error) {
	a := &app{
		cfg:     cfg,
		logger:  logger,
		metrics: metrics.NewCollector(),
		store:   session.NewFileStore(cfg.CredentialsFile),
		theme:   defaultTheme,
		out:     out,
		errOut:  errOut,
	}

	a.session = session.New(a.store, session.Options{
		Notifier:  a.notifier(),
		Navigator: a.navigator(),
		Logger:    logger,
	})

	api, err := client.New(client.Options{
		BaseURL:        cfg.APIURL,
		Timeout:        cfg.ClientTimeout,
		TokenSource:    a.session.TokenSource(),
		OnUnauthorized: a.session.Expire,
		Logger:         logger,
		Metrics:        a.metrics,
		SlowRequest:    cfg.SlowRequest,
	})
	if err != nil {
		return nil, fmt.Errorf("create API client: %w", err)
	}
	a.api = api
	a.session.Bind(api)
	return a, nil
}

func (a *app) notifier() ui.Notifier {
	return &termNotifier{w: a.errOut, theme: a.theme}
}

func (a *app) navigator() ui.Navigator {
	return &hintNavigator{w: a.errOut, theme: a.theme}
}

// deps returns the view dependencies printing to the terminal.
func (a *app) deps(downloadDir string) views.Deps {
	return views.Deps{
		Notifier:  a.notifier(),
		Navigator: a.navigator(),
		Logger:    a.logger,
		Saver:     download.Saver{Dir: models.FirstNonEmpty(downloadDir, a.cfg.DownloadDir)},
	}
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output and request statistics")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default: <user config dir>/advocai/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "backend base URL (overrides ADVOCAI_API_URL)")

	// Add subcommands
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(signupCmd)
	rootCmd.AddCommand(verifyOTPCmd)
	rootCmd.AddCommand(resendOTPCmd)
	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(docsCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(lawyersCmd)
	rootCmd.AddCommand(statsCmd)
}
