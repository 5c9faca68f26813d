package cli

import (
	"fmt"
	"io"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// Set with -ldflags "-X github.com/vvka-141/metafmt/internal/cli.version=...".
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

type buildInfo struct {
	Version string
	Commit  string
	Date    string
}

var versionShort bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Args:  NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		printVersionInfo(cmd.OutOrStdout(), resolveVersionInfo(), versionShort)
		return nil
	},
}

func init() {
	versionCmd.Flags().BoolVar(&versionShort, "short", false, "Print only the version number")
	rootCmd.AddCommand(versionCmd)
}

// resolveVersionInfo prefers ldflags values. A plain `go install` build has
// none, so the module version and VCS stamp stand in.
func resolveVersionInfo() buildInfo {
	bi := buildInfo{Version: version, Commit: commit, Date: date}
	if bi.Version != "dev" {
		return bi
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return bi
	}
	if v := info.Main.Version; v != "" && v != "(devel)" {
		bi.Version = v
	}
	for _, s := range info.Settings {
		if s.Value == "" {
			continue
		}
		switch {
		case s.Key == "vcs.revision" && bi.Commit == "unknown":
			bi.Commit = s.Value
			if len(bi.Commit) > 12 {
				bi.Commit = bi.Commit[:12]
			}
		case s.Key == "vcs.time" && bi.Date == "unknown":
			bi.Date = s.Value
		}
	}
	return bi
}

func printVersionInfo(w io.Writer, bi buildInfo, short bool) {
	if short {
		fmt.Fprintln(w, bi.Version)
		return
	}
	fmt.Fprintf(w, "metafmt %s (%s, %s) %s/%s\n", bi.Version, bi.Commit, bi.Date, runtime.GOOS, runtime.GOARCH)
}
