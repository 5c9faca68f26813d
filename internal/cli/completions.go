package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/vvka-141/metafmt/internal/encoding"
	"github.com/vvka-141/metafmt/pkg/metafmt"
)

// completeFormats provides shell completion for output format names.
func completeFormats(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return matching(encoding.Formats(), toComplete), cobra.ShellCompDirectiveNoFileComp
}

// completeKinds provides shell completion for document kinds.
func completeKinds(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	kinds := make([]string, len(metafmt.DocumentKinds))
	for i, k := range metafmt.DocumentKinds {
		kinds[i] = string(k)
	}
	return matching(kinds, toComplete), cobra.ShellCompDirectiveNoFileComp
}

// completeDirectories provides shell completion for directory paths.
func completeDirectories(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	// Let the shell handle directory completion
	return nil, cobra.ShellCompDirectiveFilterDirs
}

func matching(candidates []string, prefix string) []string {
	var matches []string
	for _, c := range candidates {
		if strings.HasPrefix(c, prefix) {
			matches = append(matches, c)
		}
	}
	return matches
}
