// Package docpredictcmder
package docpredictcmder

import (
	"github.com/spf13/cobra"

	configcmder "github.com/papercomputeco/docpredict/cmd/docpredict/config"
	inspectcmder "github.com/papercomputeco/docpredict/cmd/docpredict/inspect"
	predictcmder "github.com/papercomputeco/docpredict/cmd/docpredict/predict"
	versioncmder "github.com/papercomputeco/docpredict/cmd/version"
)

const docpredictLongDesc string = `docpredict ranks base documents for every query record using a trained
embedding model.

Run a batch prediction using:
  docpredict predict <model> <k> <basedoc> <input> <output> [workers]

Inspect a model and its base documents using:
  docpredict inspect <model> --basedoc <basedoc>`

const docpredictShortDesc string = "docpredict - batch document prediction"

func NewDocpredictCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "docpredict",
		Short: docpredictShortDesc,
		Long:  docpredictLongDesc,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().Bool("log-json", false, "Emit logs as JSON")
	cmd.PersistentFlags().String("config-dir", "", "Override the .docpredict configuration directory")

	cmd.AddCommand(predictcmder.NewPredictCmd())
	cmd.AddCommand(inspectcmder.NewInspectCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
