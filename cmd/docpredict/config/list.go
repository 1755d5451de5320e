package configcmder

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/docpredict/pkg/cliui"
	"github.com/papercomputeco/docpredict/pkg/config"
)

const listLongDesc string = `List all configuration values.

Displays every configuration key with its effective value: the config.toml
value when set, the built-in default otherwise.

Examples:
  docpredict config list`

const listShortDesc string = "List all configuration values"

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: listShortDesc,
		Long:  listLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			return runList(cmd.OutOrStdout(), configDir)
		},
	}

	return cmd
}

func runList(w io.Writer, configDir string) error {
	cfger, err := config.NewConfiger(configDir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	printTarget(w, cfger.GetTarget())

	cfg, err := cfger.LoadConfig()
	if err != nil {
		return err
	}

	keys := config.ValidConfigKeys()
	width := 0
	for _, k := range keys {
		width = max(width, len(k))
	}

	for _, key := range keys {
		value, err := config.Lookup(cfg, key)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, cliui.KeyValue(key, width, fmt.Sprintf("%q", value)))
	}
	fmt.Fprintln(w)

	return nil
}
