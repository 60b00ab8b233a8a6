package cli

import (
	"context"
	"fmt"

	"github.com/raphaelgruber/advocai-go/internal/models"
	"github.com/raphaelgruber/advocai-go/internal/ui"
	"github.com/raphaelgruber/advocai-go/internal/views"
	"github.com/spf13/cobra"
)

var (
	generateConversation string
	generateVersion      int
	generateMessages     []string
	generatePDF          bool
	generateOut          string
)

var generateCmd = requireAuth(&cobra.Command{
	Use:   "generate",
	Short: "Draft a legal document by chatting with the assistant",
	Long: `Draft a legal document by chatting with the assistant.

Without --message an interactive chat opens. The assistant asks follow-up
questions until it has enough details, then produces the document. Type
/pdf to save the current document as PDF and /quit to leave.

With --message (repeatable) the messages are sent in order and the replies
printed, which is handy for scripting.

Examples:
  advocai generate
  advocai generate --conversation 64f1c2 --version 2
  advocai generate -m "I need an NDA between Acme and Globex" --pdf`,
	Args: cobra.NoArgs,
	RunE: runGenerate,
})

func init() {
	generateCmd.Flags().StringVarP(&generateConversation, "conversation", "c", "", "continue a saved document")
	generateCmd.Flags().IntVar(&generateVersion, "version", 0, "version to open (default: latest)")
	generateCmd.Flags().StringArrayVarP(&generateMessages, "message", "m", nil, "message to send without opening the chat")
	generateCmd.Flags().BoolVar(&generatePDF, "pdf", false, "save the generated document as PDF")
	generateCmd.Flags().StringVarP(&generateOut, "out", "o", "", "download directory")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if len(generateMessages) > 0 {
		return runGenerateBatch(ctx)
	}

	relay := &relayNotifier{target: a.notifier()}
	deps := a.deps(generateOut)
	deps.Notifier = relay
	deps.Navigator = ui.Discard
	v := views.NewGenerate(a.api, deps)
	defer v.Close()

	title := "New document"
	if generateConversation != "" {
		if err := v.Open(ctx, generateConversation, generateVersion); err != nil {
			return reported(err)
		}
		title = fmt.Sprintf("%s (version %d)", v.Title(), v.Version())
	}

	notices := &ui.Recorder{}
	relay.Switch(notices)
	return runChat(ctx, chatBackend{
		title: "AdvocAI · " + title,
		intro: v.Preview(),
		send: func(ctx context.Context, text string) error {
			_, err := v.Send(ctx, text)
			return err
		},
		turns: v.Turns,
		download: func(ctx context.Context) (string, error) {
			saved, err := v.DownloadPDF(ctx)
			if err != nil {
				return "", err
			}
			return saved.Path, nil
		},
	}, notices)
}

func runGenerateBatch(ctx context.Context) error {
	v := views.NewGenerate(a.api, a.deps(generateOut))
	defer v.Close()

	if generateConversation != "" {
		if err := v.Open(ctx, generateConversation, generateVersion); err != nil {
			return reported(err)
		}
	}

	for _, msg := range generateMessages {
		fmt.Fprintf(a.out, "%s %s\n", a.theme.senderStyle(true).Render("You:"), msg)
		reply, err := v.Send(ctx, msg)
		if err != nil {
			fmt.Fprintf(a.out, "%s %s\n", a.theme.senderStyle(false).Render("AdvocAI:"), a.theme.errorStyle().Render(views.Apology))
			return err
		}
		if reply == nil {
			continue
		}
		if reply.IsDocument() {
			fmt.Fprintf(a.out, "%s generated a document\n\n%s\n\n", a.theme.senderStyle(false).Render("AdvocAI:"), reply.Text)
		} else {
			fmt.Fprintf(a.out, "%s %s\n", a.theme.senderStyle(false).Render("AdvocAI:"), reply.Text)
		}
	}

	if generatePDF {
		if _, err := v.DownloadPDF(ctx); err != nil {
			return reported(err)
		}
	}
	return nil
}

// printTurns writes a transcript as plain lines.
func printTurns(turns []models.Turn) {
	for _, t := range turns {
		label := a.theme.senderStyle(t.FromUser()).Render(t.Sender.Label() + ":")
		fmt.Fprintf(a.out, "%s %s\n", label, t.Text)
	}
}
