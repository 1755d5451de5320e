// Package predictcmder provides the predict command, which scores every query
// record against a set of base documents and writes the top K labels per key.
package predictcmder

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"charm.land/lipgloss/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/papercomputeco/docpredict/pkg/candidates"
	"github.com/papercomputeco/docpredict/pkg/cliui"
	"github.com/papercomputeco/docpredict/pkg/config"
	"github.com/papercomputeco/docpredict/pkg/logger"
	"github.com/papercomputeco/docpredict/pkg/predict"
	"github.com/papercomputeco/docpredict/pkg/results"
	"github.com/papercomputeco/docpredict/pkg/runner"
)

var headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Bold(true)

// boundFlags are the registry keys bound to viper for this command.
var boundFlags = []string{
	config.FlagWorkers,
	config.FlagSeparator,
	config.FlagPartition,
	config.FlagMerge,
	config.FlagFormat,
	config.FlagSimilarity,
	config.FlagUseWeight,
	config.FlagNormalizeText,
	config.FlagMode,
}

type predictCommander struct {
	workers       uint
	separator     string
	partition     string
	merge         string
	format        string
	similarity    string
	mode          string
	plain         bool
	useWeight     bool
	normalizeText bool
	logFile       string

	debug   bool
	logJSON bool

	viper  *viper.Viper
	logger *slog.Logger
	out    io.Writer
	errOut io.Writer
}

const predictLongDesc string = `Predict the top K base documents for every query record.

Arguments:
  model     embedding model, one "token<TAB>v1<TAB>v2..." line per feature
  k         number of labels to write per key
  basedoc   base documents, "label<TAB>feature text" per line
            (or "feature text" per line with --plain)
  input     query records, "key<TAB>feature text" per line
  output    predictions, "key<TAB>label_1<TAB>...<TAB>label_k" per key
  workers   optional worker count, overrides --workers

Files ending in .gz, .zst or .lz4 are decompressed on read and compressed on
write. When a key repeats in the input, its last occurrence wins.

Defaults come from .docpredict/config.toml and DOCPREDICT_* environment
variables. Flags take precedence over both.

Examples:
  docpredict predict model.tsv 5 docs.tsv queries.tsv out.tsv
  docpredict predict model.tsv.gz 10 docs.tsv queries.tsv out.tsv 8
  docpredict predict model.tsv 3 docs.txt queries.tsv out.parquet --plain --format parquet`

const predictShortDesc string = "Predict the top K base documents per record"

func NewPredictCmd() *cobra.Command {
	cmder := &predictCommander{}

	cmd := &cobra.Command{
		Use:   "predict <model> <k> <basedoc> <input> <output> [workers]",
		Short: predictShortDesc,
		Long:  predictLongDesc,
		Args:  cobra.RangeArgs(5, 6),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			v, err := config.InitViper(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			config.BindRegisteredFlags(v, cmd, config.PredictFlags, boundFlags)
			cmder.viper = v
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			// Arguments are valid from here on; runtime failures should not
			// print usage.
			cmd.SilenceUsage = true

			cmder.debug, _ = cmd.Flags().GetBool("debug")
			cmder.logJSON, _ = cmd.Flags().GetBool("log-json")
			cmder.out = cmd.OutOrStdout()
			cmder.errOut = cmd.ErrOrStderr()

			opts, err := cmder.options(args)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return cmder.run(ctx, opts)
		},
	}

	config.AddUintFlag(cmd, config.PredictFlags, config.FlagWorkers, &cmder.workers)
	config.AddStringFlag(cmd, config.PredictFlags, config.FlagSeparator, &cmder.separator)
	config.AddStringFlag(cmd, config.PredictFlags, config.FlagPartition, &cmder.partition)
	config.AddStringFlag(cmd, config.PredictFlags, config.FlagMerge, &cmder.merge)
	config.AddStringFlag(cmd, config.PredictFlags, config.FlagFormat, &cmder.format)
	config.AddStringFlag(cmd, config.PredictFlags, config.FlagSimilarity, &cmder.similarity)
	config.AddStringFlag(cmd, config.PredictFlags, config.FlagMode, &cmder.mode)
	config.AddBoolFlag(cmd, config.PredictFlags, config.FlagUseWeight, &cmder.useWeight)
	config.AddBoolFlag(cmd, config.PredictFlags, config.FlagNormalizeText, &cmder.normalizeText)
	cmd.Flags().BoolVar(&cmder.plain, "plain", false, "Base documents carry no label column (shorthand for --mode plain)")
	cmd.Flags().StringVar(&cmder.logFile, "log-file", "", "Also append debug-level JSON logs to this file")

	return cmd
}

// options resolves positional arguments and the viper precedence chain into
// predict.Options.
func (c *predictCommander) options(args []string) (predict.Options, error) {
	cfg := config.FromViper(c.viper)

	k, err := strconv.Atoi(args[1])
	if err != nil {
		return predict.Options{}, fmt.Errorf("%w: k must be an integer, got %q", predict.ErrInvalidOptions, args[1])
	}

	workers := cfg.Predict.Workers
	if len(args) == 6 {
		n, err := strconv.ParseUint(args[5], 10, 32)
		if err != nil || n == 0 {
			return predict.Options{}, fmt.Errorf("%w: workers must be a positive integer, got %q", predict.ErrInvalidOptions, args[5])
		}
		workers = uint(n)
	}

	mode := candidates.Mode(cfg.Candidates.Mode)
	if c.plain {
		mode = candidates.ModePlain
	}

	return predict.Options{
		ModelPath:   args[0],
		K:           k,
		BaseDocPath: args[2],
		InputPath:   args[3],
		OutputPath:  args[4],
		Workers:     workers,
		Separator:   cfg.Predict.Separator,
		Mode:        mode,
		Partition:   runner.Partition(cfg.Predict.Partition),
		Merge:       results.MergePolicy(cfg.Predict.Merge),
		Format:      results.Format(cfg.Predict.Format),
		ModelArgs:   cfg.Model.Args(),
	}, nil
}

func (c *predictCommander) run(ctx context.Context, opts predict.Options) error {
	tty := cliui.IsTerminal(c.errOut)
	c.logger = logger.New(
		logger.WithWriter(c.errOut),
		logger.WithDebug(c.debug),
		logger.WithJSON(c.logJSON),
		logger.WithPretty(tty),
		logger.WithSource(c.debug),
	)

	if c.logFile != "" {
		f, err := os.OpenFile(c.logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		defer f.Close()

		c.logger = logger.Multi(c.logger, logger.New(
			logger.WithWriter(f),
			logger.WithDebug(true),
			logger.WithJSON(true),
		))
	}

	opts.Logger = c.logger
	switch {
	case c.logJSON:
	case tty:
		opts.Stage = func(name string, fn func() error) error {
			return cliui.Step(c.errOut, name, fn)
		}
	default:
		opts.Stage = func(name string, fn func() error) error {
			return cliui.Plain(c.errOut, name, fn)
		}
	}

	summary, err := predict.Run(ctx, opts)
	if err != nil {
		return err
	}

	c.printSummary(summary)
	return nil
}

func (c *predictCommander) printSummary(s *predict.Summary) {
	rows := []struct {
		key   string
		value any
	}{
		{"processed", s.Processed},
		{"skipped", s.Skipped},
		{"keys", s.Keys},
		{"candidates", s.Candidates},
		{"features", s.Features},
		{"workers", s.Workers},
		{"elapsed", cliui.FormatDuration(s.Elapsed)},
		{"run id", s.RunID},
	}

	fmt.Fprintf(c.out, "\n%s %s\n\n", cliui.SuccessMark, headerStyle.Render("Prediction complete"))
	for _, row := range rows {
		fmt.Fprintln(c.out, cliui.KeyValue(row.key, 10, row.value))
	}
	fmt.Fprintln(c.out)
}
