package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var statsCmd = requireAuth(&cobra.Command{
	Use:   "stats",
	Short: "Check the backend and show request statistics",
	Long: `Call the profile, documents and sessions endpoints concurrently and
show how each responded.

Examples:
  advocai stats
  advocai stats --api-url http://localhost:8000`,
	Args: cobra.NoArgs,
	RunE: runStats,
})

func runStats(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	var (
		documents int
		sessions  int
	)
	// A failed probe does not cancel the others.
	var g errgroup.Group
	g.Go(func() error {
		if _, err := a.api.Profile(ctx); err != nil {
			return fmt.Errorf("profile: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		list, err := a.api.Conversations(ctx)
		if err != nil {
			return fmt.Errorf("documents: %w", err)
		}
		documents = len(list)
		return nil
	})
	g.Go(func() error {
		list, err := a.api.Sessions(ctx)
		if err != nil {
			return fmt.Errorf("sessions: %w", err)
		}
		sessions = len(list)
		return nil
	})
	probeErr := g.Wait()

	fmt.Fprintf(a.out, "Backend: %s\n", a.api.BaseURL())
	if probeErr == nil {
		fmt.Fprintf(a.out, "Status:  %s (%d documents, %d sessions)\n",
			a.theme.successStyle().Render("ok"), documents, sessions)
	} else {
		fmt.Fprintf(a.out, "Status:  %s\n", a.theme.errorStyle().Render(probeErr.Error()))
	}

	// Verbose runs print the table after every command already.
	if !verbose {
		printStats(a.out, a.metrics.Snapshot())
	}
	return probeErr
}
