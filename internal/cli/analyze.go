package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/raphaelgruber/advocai-go/internal/ui"
	"github.com/raphaelgruber/advocai-go/internal/views"
	"github.com/spf13/cobra"
)

var analyzeNoChat bool

var analyzeCmd = requireAuth(&cobra.Command{
	Use:   "analyze <file>",
	Short: "Summarize a document and ask questions about it",
	Long: `Upload a PDF, DOCX or TXT document for analysis.

The summary is printed and an interactive chat opens where you can ask
about terms, risks or anything else in the document.

Subcommands:
  sessions  List previous analysis sessions
  open      Continue a previous session
  ask       Ask one question in a session without the chat

Examples:
  advocai analyze lease.pdf
  advocai analyze contract.docx --no-chat
  advocai analyze sessions
  advocai analyze ask 3f2a "When can the tenant terminate?"`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
})

var analyzeSessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List previous analysis sessions",
	Args:  cobra.NoArgs,
	RunE:  runAnalyzeSessions,
}

var analyzeOpenCmd = &cobra.Command{
	Use:   "open <session-id>",
	Short: "Continue a previous analysis session",
	Args:  cobra.ExactArgs(1),
	RunE:  runAnalyzeOpen,
}

var analyzeAskCmd = &cobra.Command{
	Use:   "ask <session-id> <question>",
	Short: "Ask one question about a previously analyzed document",
	Args:  cobra.ExactArgs(2),
	RunE:  runAnalyzeAsk,
}

func init() {
	analyzeCmd.Flags().BoolVar(&analyzeNoChat, "no-chat", false, "print the summary without opening the chat")
	analyzeOpenCmd.Flags().BoolVar(&analyzeNoChat, "no-chat", false, "print the history without opening the chat")

	analyzeCmd.AddCommand(analyzeSessionsCmd)
	analyzeCmd.AddCommand(analyzeOpenCmd)
	analyzeCmd.AddCommand(analyzeAskCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	v, relay := analyzerView()
	defer v.Close()

	fmt.Fprintln(a.errOut, a.theme.hintStyle().Render("Uploading and analyzing "+args[0]+"..."))
	res, err := v.Upload(ctx, args[0])
	if err != nil {
		return reported(err)
	}

	if analyzeNoChat {
		fmt.Fprintf(a.out, "%s\n\n%s\n\n", a.theme.successStyle().Render("Summary"), res.Summary)
		fmt.Fprintln(a.errOut, a.theme.hintStyle().Render("→ next: advocai analyze ask "+res.SessionID+" <question>"))
		return nil
	}
	return chatAnalyzer(ctx, v, relay)
}

func runAnalyzeSessions(cmd *cobra.Command, args []string) error {
	v := views.NewAnalyzer(a.api, a.deps(""))
	defer v.Close()

	v.RefreshSessions(cmd.Context())
	if v.Status() == ui.StatusError {
		return fmt.Errorf("failed to fetch sessions (see log for details)")
	}

	sessions := v.Sessions()
	if len(sessions) == 0 {
		fmt.Fprintln(a.out, "No sessions found.")
		return nil
	}

	now := time.Now()
	fmt.Fprintf(a.out, "Sessions (%d):\n\n", len(sessions))
	for _, s := range sessions {
		fmt.Fprintf(a.out, "- %s  %s, %d messages\n", s.ID, views.RelativeDate(s.CreatedAt.Time, now), s.MessageCount)
		if preview := s.SummaryPreview; preview != "" {
			fmt.Fprintf(a.out, "  %s\n", preview)
		}
		if verbose && s.DocumentPreview != "" {
			fmt.Fprintf(a.out, "  %s\n", a.theme.hintStyle().Render(s.DocumentPreview))
		}
	}
	return nil
}

func runAnalyzeOpen(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	v, relay := analyzerView()
	defer v.Close()

	if err := v.SelectSession(ctx, args[0]); err != nil {
		return reported(err)
	}

	if analyzeNoChat {
		fmt.Fprintf(a.out, "%s\n\n%s\n\n", a.theme.successStyle().Render("Summary"), v.Summary())
		printTurns(v.Turns())
		return nil
	}
	return chatAnalyzer(ctx, v, relay)
}

func runAnalyzeAsk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	v := views.NewAnalyzer(a.api, a.deps(""))
	defer v.Close()

	if err := v.SelectSession(ctx, args[0]); err != nil {
		return reported(err)
	}
	res, err := v.Ask(ctx, args[1])
	if err != nil {
		return reported(err)
	}
	if res != nil {
		fmt.Fprintf(a.out, "%s %s\n", a.theme.senderStyle(false).Render("AdvocAI:"), res.Response)
	}
	return nil
}

// chatAnalyzer hands an analyzer with an active session to the chat UI.
// Notices go to the chat screen from here on.
func chatAnalyzer(ctx context.Context, v *views.Analyzer, relay *relayNotifier) error {
	notices := &ui.Recorder{}
	relay.Switch(notices)

	return runChat(ctx, chatBackend{
		title: "AdvocAI · " + v.FileName(),
		intro: v.Summary(),
		send: func(ctx context.Context, text string) error {
			_, err := v.Ask(ctx, text)
			return err
		},
		turns: v.Turns,
	}, notices)
}

// analyzerView creates an analyzer whose notices can be redirected.
func analyzerView() (*views.Analyzer, *relayNotifier) {
	relay := &relayNotifier{target: a.notifier()}
	deps := a.deps("")
	deps.Notifier = relay
	return views.NewAnalyzer(a.api, deps), relay
}
