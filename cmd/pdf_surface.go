package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/peek-a-repo/peek/internal/log"
	"github.com/peek-a-repo/peek/internal/pdf"
)

var pdfSurfaceCmd = &cobra.Command{
	Use:   "pdf-surface",
	Short: "Serve the PDF render surface on stdin/stdout",
	Long: `Run the PDF render surface as a child process. It announces READY, then
answers each RENDER_REQUEST with one RENDER_DONE line of JSON.

Point pdf.command at this binary to keep document parsing out of the UI
process:

  pdf:
    command: peek
    args: [pdf-surface]`,
	Hidden: true,
	Args:   cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if debug {
			defer log.InitWriter(cmd.ErrOrStderr(), log.LevelDebug)()
		}
		return pdf.Serve(cmd.Context(), os.Stdin, os.Stdout, pdf.Inspector{})
	},
}

func init() {
	rootCmd.AddCommand(pdfSurfaceCmd)
}
