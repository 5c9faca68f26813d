package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// RequireFlags validates that every named flag was given a non-empty value.
// Returns a usage error listing the missing flags with an example.
func RequireFlags(cmd *cobra.Command, names ...string) error {
	var missing []string
	for _, name := range names {
		f := cmd.Flags().Lookup(name)
		if f == nil || f.Value.String() == "" {
			missing = append(missing, "--"+name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return usageError(cmd, fmt.Errorf(`missing required flag(s): %s

Usage: %s

Example:
  %s`, strings.Join(missing, ", "), cmd.UseLine(), cmd.Example))
}

// NoArgs rejects positional arguments; templates and outputs are flags.
func NoArgs(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		return usageError(cmd, fmt.Errorf("unexpected argument %q (templates are passed with -t)", args[0]))
	}
	return nil
}
