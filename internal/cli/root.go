package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vvka-141/metafmt/pkg/metafmt"
)

var rootCmd = &cobra.Command{
	Use:   "metafmt",
	Short: "Template-driven metadata document builder",
	Long: `metafmt builds structured metadata documents from a template.

The template names a tree of element types. Each element takes its
attributes from a data access object (DAO) of the configured site, or links
to an element built elsewhere in the same document. The document is written
as XML, JSON, YAML, CBOR or an HTML report, then validated.

Exit codes:
   0  document written and valid
   1  unclassified error
   2  bad command line
   3  crash
  10  bad configuration (metafmt.yaml, --dao-opt, output format)
  11  metadata store unreachable
  20  template error
  21  metadata missing an attribute an element needs
  22  metadata inconsistent or a reference unresolved
  30  document written but invalid`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the command line and prints any error to stderr. The
// returned error still carries its classification for the exit code.
func Execute() error {
	if len(os.Args) == 2 && os.Args[1] == "--version" {
		printVersionInfo(os.Stdout, resolveVersionInfo(), false)
		return nil
	}
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log every element as it is built")
	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return usageError(cmd, err)
	})
}

// getVerboseFlag reports --verbose. Commands always inherit the flag, so a
// lookup failure only means it was not parsed yet.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, _ := cmd.Flags().GetBool("verbose")
	return verbose
}

// usageError marks err as command line misuse and points at the help.
func usageError(cmd *cobra.Command, err error) error {
	return fmt.Errorf("%w: %w\n\nRun '%s --help' for usage.", metafmt.ErrUsage, err, cmd.CommandPath())
}
