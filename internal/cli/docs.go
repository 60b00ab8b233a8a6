package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/raphaelgruber/advocai-go/internal/views"
	"github.com/spf13/cobra"
)

var (
	docsSearch  string
	docsForce   bool
	docsOut     string
	docsContent bool
)

var docsCmd = requireAuth(&cobra.Command{
	Use:   "docs",
	Short: "List your generated documents",
	Long: `List the documents you generated, newest first as the backend returns them.

Subcommands:
  delete    Delete a document and all of its versions
  download  Save the latest version as PDF
  versions  Show the version history of a document

Examples:
  advocai docs
  advocai docs --search lease
  advocai docs download 64f1c2
  advocai docs versions 64f1c2
  advocai docs versions download 64f1c2 2
  advocai docs delete 64f1c2 --force`,
	Args: cobra.NoArgs,
	RunE: runDocs,
})

var docsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a document and all of its versions",
	Long: `Delete a document and all of its versions.
Requires confirmation unless --force is used.`,
	Args: cobra.ExactArgs(1),
	RunE: runDocsDelete,
}

var docsDownloadCmd = &cobra.Command{
	Use:   "download <id>",
	Short: "Save the latest version of a document as PDF",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocsDownload,
}

var docsVersionsCmd = &cobra.Command{
	Use:   "versions <id>",
	Short: "Show the version history of a document",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocsVersions,
}

var docsVersionsDownloadCmd = &cobra.Command{
	Use:   "download <id> <version>",
	Short: "Save one version of a document as PDF",
	Args:  cobra.ExactArgs(2),
	RunE:  runDocsVersionsDownload,
}

func init() {
	docsCmd.Flags().StringVarP(&docsSearch, "search", "s", "", "only show titles containing this text")
	docsDeleteCmd.Flags().BoolVarP(&docsForce, "force", "f", false, "skip confirmation")
	docsDownloadCmd.Flags().StringVarP(&docsOut, "out", "o", "", "download directory")
	docsVersionsCmd.Flags().BoolVar(&docsContent, "content", false, "print the content of every version")
	docsVersionsDownloadCmd.Flags().StringVarP(&docsOut, "out", "o", "", "download directory")

	docsVersionsCmd.AddCommand(docsVersionsDownloadCmd)
	docsCmd.AddCommand(docsDeleteCmd)
	docsCmd.AddCommand(docsDownloadCmd)
	docsCmd.AddCommand(docsVersionsCmd)
}

func runDocs(cmd *cobra.Command, args []string) error {
	v := views.NewDocuments(a.api, a.deps(""))
	defer v.Close()

	if err := v.Load(cmd.Context()); err != nil {
		return reported(err)
	}
	v.SetFilter(docsSearch)

	docs := v.Visible()
	if len(docs) == 0 {
		if len(v.All()) > 0 {
			fmt.Fprintf(a.out, "No documents match %q.\n", docsSearch)
		} else {
			fmt.Fprintln(a.out, "No documents yet.")
			v.Create()
		}
		return nil
	}

	fmt.Fprintf(a.out, "Documents (%d):\n\n", len(docs))
	for _, d := range docs {
		fmt.Fprintf(a.out, "- %s  %s\n", d.ID, d.DisplayTitle("Untitled Document"))
		if verbose {
			fmt.Fprintf(a.out, "  Created: %s, updated: %s, versions: %d\n",
				d.CreatedAt.Display(), d.UpdatedAt.Display(), len(d.Versions))
		}
	}
	return nil
}

func runDocsDelete(cmd *cobra.Command, args []string) error {
	v := views.NewDocuments(a.api, a.deps(""))
	defer v.Close()

	ask := confirm(a.errOut, os.Stdin, fmt.Sprintf("About to delete document %s and all of its versions.\n\nContinue?", args[0]))
	if docsForce {
		ask = nil
	}

	_, err := v.Delete(cmd.Context(), args[0], ask)
	return reported(err)
}

func runDocsDownload(cmd *cobra.Command, args []string) error {
	v := views.NewDocuments(a.api, a.deps(docsOut))
	defer v.Close()

	// The list supplies the title used as file name.
	if err := v.Load(cmd.Context()); err != nil {
		return reported(err)
	}
	saved, err := v.DownloadLatest(cmd.Context(), args[0])
	if err != nil {
		return reported(err)
	}
	printSaved(saved.Path, saved.Pages)
	return nil
}

func runDocsVersions(cmd *cobra.Command, args []string) error {
	v := views.NewVersions(a.api, a.deps(""))
	defer v.Close()

	if err := v.Load(cmd.Context(), args[0]); err != nil {
		return reported(err)
	}

	versions := v.List()
	fmt.Fprintf(a.out, "%s (%d versions)\n\n", a.theme.successStyle().Render(v.Title()), len(versions))
	for _, ver := range versions {
		fmt.Fprintf(a.out, "- Version %d  %s\n", ver.Number, ver.Timestamp.Display())
		if docsContent {
			fmt.Fprintf(a.out, "\n%s\n\n", indent(ver.Content, "    "))
		}
	}
	if len(versions) > 0 {
		v.Edit(versions[len(versions)-1].Number)
	}
	return nil
}

func runDocsVersionsDownload(cmd *cobra.Command, args []string) error {
	n, err := strconv.Atoi(args[1])
	if err != nil || n < 1 {
		return fmt.Errorf("invalid version number: %s", args[1])
	}

	v := views.NewVersions(a.api, a.deps(docsOut))
	defer v.Close()

	// The loaded title names the file.
	if err := v.Load(cmd.Context(), args[0]); err != nil {
		return reported(err)
	}
	saved, err := v.Download(cmd.Context(), n)
	if err != nil {
		return reported(err)
	}
	printSaved(saved.Path, saved.Pages)
	return nil
}

func printSaved(path string, pages int) {
	if pages > 0 {
		fmt.Fprintf(a.out, "Saved %s (%d pages)\n", path, pages)
		return
	}
	fmt.Fprintf(a.out, "Saved %s\n", path)
}

func indent(s, prefix string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}
