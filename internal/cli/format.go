package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/vvka-141/metafmt/internal/encoding"
	"github.com/vvka-141/metafmt/internal/files/filesystem"
	"github.com/vvka-141/metafmt/internal/logging"
	"github.com/vvka-141/metafmt/internal/params"
	"github.com/vvka-141/metafmt/internal/report"
	"github.com/vvka-141/metafmt/internal/services"
	"github.com/vvka-141/metafmt/pkg/metafmt"
)

var formatCmd = &cobra.Command{
	Use:   "format -t <template> -o <output> --kind <kind> --model <model> [flags]",
	Short: "Build a metadata document from a template",
	Long: `Format builds one metadata document and writes it to the output file.

The format command:
1. Loads metafmt.yaml from --config-dir (a missing file is an empty config)
2. Layers the DAO environment: config database section, --env-file files,
   --dao-opt pairs, then the document selectors
3. Resolves every template element to a DAO of the configured site
4. Reorders siblings so referenced elements are built first
5. Queries the metadata, builds the document and validates it
6. Writes the document and prints a summary with its BLAKE3 digest

The output format is taken from -f, then from the output extension, then
from the config file. A .zst suffix compresses the output with zstd.

A document that fails validation is still written; the command then exits
with code 30.

Selectors:
  Every document kind needs --model. An experiment document also needs
  --experiment, a submodel document --submodel.

Password Authentication:
  The postgres driver reads $PGPASSWORD or $METAFMT_DSN, from the
  environment, a .env file in the working directory, or --env-file.`,
	Example: `metafmt format -t run.json -o run.xml --kind experiment --model HadGEM2-ES --experiment historical -p CMIP5`,
	Args:    NoArgs,
	RunE:    runFormat,
}

type formatFlagValues struct {
	template, output, format, kind string
	experiment, model, subModel    string
	project, configDir             string
	daoOpts, envFiles              []string
	stableIDs                      bool
	metricsFile                    string
}

var formatFlags formatFlagValues

func init() {
	rootCmd.AddCommand(formatCmd)

	formatCmd.Flags().StringVarP(&formatFlags.template, "template", "t", "",
		"Template file (.json, .jsonc, .yaml or .yml)")
	formatCmd.Flags().StringVarP(&formatFlags.output, "output", "o", "",
		"Output file; a .zst suffix compresses it")
	formatCmd.Flags().StringVarP(&formatFlags.format, "format", "f", "",
		"Output format: "+strings.Join(encoding.Formats(), "|")+"\n"+
			"(default: from the output extension, then metafmt.yaml, then xml)")
	formatCmd.Flags().StringVar(&formatFlags.kind, "kind", "",
		"Document kind: model|experiment|submodel")
	formatCmd.Flags().StringVar(&formatFlags.experiment, "experiment", "",
		"Experiment the document describes")
	formatCmd.Flags().StringVar(&formatFlags.model, "model", "",
		"Model the document describes")
	formatCmd.Flags().StringVar(&formatFlags.subModel, "submodel", "",
		"Sub-model the document describes")
	formatCmd.Flags().StringVarP(&formatFlags.project, "project", "p", "",
		"Project (overrides the global project of metafmt.yaml)")
	formatCmd.Flags().StringVar(&formatFlags.configDir, "config-dir", ".",
		"Directory holding metafmt.yaml")
	formatCmd.Flags().StringSliceVar(&formatFlags.daoOpts, "dao-opt", nil,
		"DAO environment option as key=value (can be specified multiple times)\n"+
			"Example: --dao-opt csv_dir=./dump --dao-opt driver=csv")
	formatCmd.Flags().StringSliceVar(&formatFlags.envFiles, "env-file", nil,
		"Load DAO environment options from .env files (can be specified multiple times)\n"+
			"Later files override earlier ones, --dao-opt overrides all")
	formatCmd.Flags().BoolVar(&formatFlags.stableIDs, "stable-ids", false,
		"Derive element identifiers from the template and selectors, so\n"+
			"rebuilding the same document gives the same identifiers")
	formatCmd.Flags().StringVar(&formatFlags.metricsFile, "metrics-file", "",
		"Write build metrics to this file in the Prometheus text format")

	_ = formatCmd.RegisterFlagCompletionFunc("format", completeFormats)
	_ = formatCmd.RegisterFlagCompletionFunc("kind", completeKinds)
	_ = formatCmd.RegisterFlagCompletionFunc("config-dir", completeDirectories)
}

// buildFormatConfig builds a BuildConfig from CLI flags. Missing flags and
// selectors the document kind needs are usage errors.
func buildFormatConfig(cmd *cobra.Command, verbose bool) (metafmt.BuildConfig, error) {
	if err := RequireFlags(cmd, "template", "output", "kind"); err != nil {
		return metafmt.BuildConfig{}, err
	}

	kind, err := metafmt.ParseDocumentKind(formatFlags.kind)
	if err != nil {
		return metafmt.BuildConfig{}, usageError(cmd, err)
	}
	if formatFlags.format != "" {
		if _, err := encoding.ParseFormat(formatFlags.format); err != nil {
			return metafmt.BuildConfig{}, usageError(cmd, err)
		}
	}

	daoOpts, err := params.ParseKeyValuePairs(formatFlags.daoOpts)
	if err != nil {
		return metafmt.BuildConfig{}, usageError(cmd, err)
	}

	cfg := metafmt.BuildConfig{
		TemplatePath: formatFlags.template,
		OutputPath:   formatFlags.output,
		Format:       formatFlags.format,
		Kind:         kind,
		Project:      formatFlags.project,
		Experiment:   formatFlags.experiment,
		Model:        formatFlags.model,
		SubModel:     formatFlags.subModel,
		ConfigDir:    formatFlags.configDir,
		DAOOptions:   daoOpts,
		EnvFiles:     formatFlags.envFiles,
		StableIDs:    formatFlags.stableIDs,
		MetricsFile:  formatFlags.metricsFile,
		Verbose:      verbose,
	}
	if err := cfg.ValidateSelectors(); err != nil {
		return metafmt.BuildConfig{}, usageError(cmd, err)
	}
	return cfg, nil
}

func runFormat(cmd *cobra.Command, args []string) error {
	verbose := getVerboseFlag(cmd)

	cfg, err := buildFormatConfig(cmd, verbose)
	if err != nil {
		return err
	}

	// PGPASSWORD and METAFMT_DSN may live in a .env file next to the caller.
	_ = godotenv.Load()

	logger := logging.NewConsoleLogger(verbose)
	files := filesystem.NewOSFileSystem()
	formatter := services.NewFormatter(logger, files, services.DefaultStoreOpener(files))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary, err := formatter.Format(ctx, cfg)
	if summary != nil {
		printer(cmd.OutOrStdout()).Summary(summary)
	}
	if err != nil {
		if errors.Is(err, metafmt.ErrValidationFailed) {
			return err
		}
		return fmt.Errorf("format failed: %w", err)
	}
	return nil
}

// printer styles output only when it goes to a terminal.
func printer(w io.Writer) *report.Printer {
	f, ok := w.(*os.File)
	return report.NewPrinter(w, ok && report.Styled(f))
}
