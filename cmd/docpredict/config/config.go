// Package configcmder provides the config command for managing persistent
// docpredict defaults stored in the .docpredict/ directory.
package configcmder

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/docpredict/pkg/cliui"
	"github.com/papercomputeco/docpredict/pkg/config"
)

const configLongDesc string = `Manage persistent docpredict configuration.

Configuration is stored as config.toml in the .docpredict/ directory and
provides default values for predict and inspect flags. CLI flags and
DOCPREDICT_* environment variables take precedence over config file values.

Keys use dotted notation matching the TOML section structure:
  predict.workers, predict.separator, predict.partition,
  predict.merge, predict.format,
  model.similarity, model.use_weight, model.normalize_text,
  model.dropout_lhs, model.dropout_rhs,
  candidates.mode

Use subcommands to get, set, or list configuration values:
  docpredict config set <key> <value>    Set a configuration value
  docpredict config get <key>            Get a configuration value
  docpredict config list                 List all configuration values

Examples:
  docpredict config set predict.workers 8
  docpredict config set model.similarity dot
  docpredict config get predict.workers
  docpredict config list`

const configShortDesc string = "Manage persistent docpredict configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}

func completeKeys(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return config.ValidConfigKeys(), cobra.ShellCompDirectiveNoFileComp
	}
	return nil, cobra.ShellCompDirectiveNoFileComp
}

func checkKey(key string) error {
	if !config.IsValidConfigKey(key) {
		return fmt.Errorf("unknown config key: %q\n\nValid keys: %s",
			key, strings.Join(config.ValidConfigKeys(), ", "))
	}
	return nil
}

func printTarget(w io.Writer, target string) {
	if target != "" {
		fmt.Fprintf(w, "\n  %s %s\n\n",
			cliui.KeyStyle.Render("Config file:"),
			cliui.DimStyle.Render(target),
		)
		return
	}
	fmt.Fprintf(w, "\n  %s\n\n", cliui.DimStyle.Render("No config file found. Using defaults."))
}
