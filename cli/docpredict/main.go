package main

import (
	"os"

	docpredictcmder "github.com/papercomputeco/docpredict/cmd/docpredict"
)

func main() {
	cmd := docpredictcmder.NewDocpredictCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
