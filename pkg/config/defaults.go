package config

import (
	"github.com/papercomputeco/docpredict/pkg/candidates"
	"github.com/papercomputeco/docpredict/pkg/encoder"
	"github.com/papercomputeco/docpredict/pkg/model"
	"github.com/papercomputeco/docpredict/pkg/results"
	"github.com/papercomputeco/docpredict/pkg/runner"
)

const (
	defaultWorkers = 1
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Predict: PredictConfig{
			Workers:   defaultWorkers,
			Separator: encoder.DefaultSeparator,
			Partition: string(runner.PartitionChunk),
			Merge:     string(results.MergeLast),
			Format:    string(results.FormatTSV),
		},
		Model: ModelConfig{
			Similarity: string(model.SimilarityCosine),
		},
		Candidates: CandidatesConfig{
			Mode: string(candidates.ModeLabeled),
		},
	}
}
