package cli

import (
	"fmt"
	"strconv"

	"github.com/raphaelgruber/advocai-go/internal/views"
	"github.com/spf13/cobra"
)

var lawyersSpecialty string

var lawyersCmd = &cobra.Command{
	Use:   "lawyers",
	Short: "Browse the lawyer directory",
	Long: `Browse the lawyer directory. The directory ships with advocai and
works without logging in.

Examples:
  advocai lawyers
  advocai lawyers --specialty family
  advocai lawyers show 2`,
	Args: cobra.NoArgs,
	RunE: runLawyers,
}

var lawyersShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a lawyer's profile",
	Args:  cobra.ExactArgs(1),
	RunE:  runLawyersShow,
}

func init() {
	lawyersCmd.Flags().StringVarP(&lawyersSpecialty, "specialty", "s", "", "filter by specialty")
	lawyersCmd.AddCommand(lawyersShowCmd)
}

func runLawyers(cmd *cobra.Command, args []string) error {
	v := views.NewLawyers(a.deps(""))
	defer v.Close()

	list, err := v.List(lawyersSpecialty)
	if err != nil {
		return reported(err)
	}
	if len(list) == 0 {
		fmt.Fprintln(a.out, "No lawyers found.")
		return nil
	}

	fmt.Fprintf(a.out, "Lawyers (%d):\n\n", len(list))
	for _, l := range list {
		fmt.Fprintf(a.out, "%d. [%s] %s  %s\n", l.ID, l.Initials(), a.theme.successStyle().Render(l.Name), l.Specialty)
		if verbose {
			fmt.Fprintf(a.out, "   %s, %s experience, fee %s\n", l.LawFirm, l.Experience, l.ConsultationFee)
		}
	}
	if len(list) == 1 {
		v.Open(list[0].ID)
	}
	return nil
}

func runLawyersShow(cmd *cobra.Command, args []string) error {
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid lawyer id: %s", args[0])
	}

	v := views.NewLawyers(a.deps(""))
	defer v.Close()

	l, err := v.Show(id)
	if err != nil {
		return reported(err)
	}

	fmt.Fprintf(a.out, "%s  %s\n", a.theme.successStyle().Render(l.Name), a.theme.hintStyle().Render("@"+l.Username))
	fmt.Fprintf(a.out, "Specialty:    %s\n", l.Specialty)
	fmt.Fprintf(a.out, "Law firm:     %s\n", l.LawFirm)
	fmt.Fprintf(a.out, "Experience:   %s\n", l.Experience)
	fmt.Fprintf(a.out, "Education:    %s\n", l.Education)
	fmt.Fprintf(a.out, "Consultation: %s\n", l.ConsultationFee)
	fmt.Fprintf(a.out, "Email:        %s\n", l.Email)
	fmt.Fprintf(a.out, "Phone:        %s\n", l.Phone)
	return nil
}
