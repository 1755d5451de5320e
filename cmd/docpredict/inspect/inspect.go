// Package inspectcmder provides the inspect command, which reports statistics
// about a model and, optionally, the base documents encoded with it.
package inspectcmder

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/papercomputeco/docpredict/pkg/candidates"
	"github.com/papercomputeco/docpredict/pkg/cliui"
	"github.com/papercomputeco/docpredict/pkg/config"
	"github.com/papercomputeco/docpredict/pkg/encoder"
	"github.com/papercomputeco/docpredict/pkg/logger"
	"github.com/papercomputeco/docpredict/pkg/model"
	"github.com/papercomputeco/docpredict/pkg/utils"
)

const (
	sampleSize     = 5
	sampleLabelLen = 40
)

var boundFlags = []string{
	config.FlagSeparator,
	config.FlagSimilarity,
	config.FlagUseWeight,
	config.FlagNormalizeText,
	config.FlagMode,
}

type inspectCommander struct {
	basedoc       string
	separator     string
	similarity    string
	mode          string
	plain         bool
	useWeight     bool
	normalizeText bool
	raw           bool

	debug bool

	viper *viper.Viper
	out   io.Writer
}

const inspectLongDesc string = `Inspect a model and, optionally, its base documents.

Loads the model the same way predict does and prints its feature count,
dimension and model arguments as a table. With --basedoc the base documents
are encoded too, reporting the candidate count, how many documents had no
known features, and a sample of labels.

Examples:
  docpredict inspect model.tsv
  docpredict inspect model.tsv.gz --basedoc docs.tsv
  docpredict inspect model.tsv --basedoc docs.txt --plain --raw`

const inspectShortDesc string = "Inspect a model and its base documents"

func NewInspectCmd() *cobra.Command {
	cmder := &inspectCommander{}

	cmd := &cobra.Command{
		Use:   "inspect <model>",
		Short: inspectShortDesc,
		Long:  inspectLongDesc,
		Args:  cobra.ExactArgs(1),
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
			cmd.SilenceUsage = true
			cmder.debug, _ = cmd.Flags().GetBool("debug")
			cmder.out = cmd.OutOrStdout()
			return cmder.run(args[0], cmd.ErrOrStderr())
		},
	}

	cmd.Flags().StringVarP(&cmder.basedoc, "basedoc", "b", "", "Base documents to encode with the model")
	cmd.Flags().BoolVar(&cmder.raw, "raw", false, "Print the report as markdown without rendering")
	cmd.Flags().BoolVar(&cmder.plain, "plain", false, "Base documents carry no label column (shorthand for --mode plain)")
	config.AddStringFlag(cmd, config.PredictFlags, config.FlagSeparator, &cmder.separator)
	config.AddStringFlag(cmd, config.PredictFlags, config.FlagSimilarity, &cmder.similarity)
	config.AddStringFlag(cmd, config.PredictFlags, config.FlagMode, &cmder.mode)
	config.AddBoolFlag(cmd, config.PredictFlags, config.FlagUseWeight, &cmder.useWeight)
	config.AddBoolFlag(cmd, config.PredictFlags, config.FlagNormalizeText, &cmder.normalizeText)

	return cmd
}

func (c *inspectCommander) run(modelPath string, errOut io.Writer) error {
	cfg := config.FromViper(c.viper)
	log := logger.New(
		logger.WithWriter(errOut),
		logger.WithDebug(c.debug),
		logger.WithPretty(cliui.IsTerminal(errOut)),
	)

	m, err := model.Load(modelPath, model.WithArgs(cfg.Model.Args()), model.WithLogger(log))
	if err != nil {
		return err
	}

	var b strings.Builder
	b.WriteString("# Model\n\n")
	b.WriteString("| property | value |\n|---|---|\n")
	fmt.Fprintf(&b, "| source | `%s` |\n", m.Source)
	fmt.Fprintf(&b, "| features | %d |\n", m.Store.Len())
	fmt.Fprintf(&b, "| dimension | %d |\n", m.Store.Dim())
	fmt.Fprintf(&b, "| similarity | %s |\n", m.Args.Similarity)
	fmt.Fprintf(&b, "| use weight | %t |\n", m.Args.UseWeight)
	fmt.Fprintf(&b, "| normalize text | %t |\n", m.Args.NormalizeText)

	if c.basedoc != "" {
		mode := candidates.Mode(cfg.Candidates.Mode)
		if c.plain {
			mode = candidates.ModePlain
		}

		idx, err := candidates.LoadFile(c.basedoc, candidates.Options{
			Mode:      mode,
			Encoder:   encoder.New(m),
			Separator: cfg.Predict.Separator,
			Logger:    log,
		})
		if err != nil {
			return err
		}

		b.WriteString("\n# Base documents\n\n")
		b.WriteString("| property | value |\n|---|---|\n")
		fmt.Fprintf(&b, "| source | `%s` |\n", c.basedoc)
		fmt.Fprintf(&b, "| mode | %s |\n", idx.Mode())
		fmt.Fprintf(&b, "| candidates | %d |\n", idx.Len())
		fmt.Fprintf(&b, "| without known features | %d |\n", idx.Empty())

		if idx.Len() > 0 {
			b.WriteString("\n## Sample\n\n")
			b.WriteString("| index | label | norm |\n|---|---|---|\n")
			for i := range min(sampleSize, idx.Len()) {
				fmt.Fprintf(&b, "| %d | %s | %.4f |\n",
					i,
					escapeCell(utils.Truncate(idx.Label(i), sampleLabelLen)),
					idx.Norm(i),
				)
			}
		}
	}

	report := b.String()
	if !c.raw {
		rendered, err := cliui.RenderMarkdown(report)
		if err != nil {
			return fmt.Errorf("rendering report: %w", err)
		}
		report = rendered
	}

	_, err = io.WriteString(c.out, report)
	return err
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
