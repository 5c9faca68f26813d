package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vvka-141/metafmt/internal/files/filesystem"
	"github.com/vvka-141/metafmt/internal/logging"
	"github.com/vvka-141/metafmt/internal/params"
	"github.com/vvka-141/metafmt/internal/services"
	"github.com/vvka-141/metafmt/pkg/metafmt"
)

var planCmd = &cobra.Command{
	Use:   "plan -t <template> [flags]",
	Short: "Show the build order of a template without querying metadata",
	Long: `Plan resolves the template against the configured site and prints the
tree in the order it will be built. Elements that were moved ahead of
their template position, so that a reference to them resolves, are marked
with an arrow.

No metadata store is opened.`,
	Example: `metafmt plan -t run.json --config-dir ./conf`,
	Args:    NoArgs,
	RunE:    runPlan,
}

type planFlagValues struct {
	template, configDir string
	daoOpts             []string
}

var planFlags planFlagValues

func init() {
	rootCmd.AddCommand(planCmd)

	planCmd.Flags().StringVarP(&planFlags.template, "template", "t", "",
		"Template file (.json, .jsonc, .yaml or .yml)")
	planCmd.Flags().StringVar(&planFlags.configDir, "config-dir", ".",
		"Directory holding metafmt.yaml")
	planCmd.Flags().StringSliceVar(&planFlags.daoOpts, "dao-opt", nil,
		"DAO environment option as key=value (can be specified multiple times)")

	_ = planCmd.RegisterFlagCompletionFunc("config-dir", completeDirectories)
}

func runPlan(cmd *cobra.Command, args []string) error {
	if err := RequireFlags(cmd, "template"); err != nil {
		return err
	}
	daoOpts, err := params.ParseKeyValuePairs(planFlags.daoOpts)
	if err != nil {
		return usageError(cmd, err)
	}

	files := filesystem.NewOSFileSystem()
	formatter := services.NewFormatter(logging.NewConsoleLogger(getVerboseFlag(cmd)), files, services.DefaultStoreOpener(files))
	_, arranged, err := formatter.Plan(context.Background(), metafmt.BuildConfig{
		TemplatePath: planFlags.template,
		ConfigDir:    planFlags.configDir,
		DAOOptions:   daoOpts,
	})
	if err != nil {
		return fmt.Errorf("plan failed: %w", err)
	}
	printer(cmd.OutOrStdout()).Plan(arranged)
	return nil
}
