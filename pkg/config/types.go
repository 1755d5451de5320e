package config

import (
	"fmt"
	"strconv"

	"github.com/papercomputeco/docpredict/pkg/candidates"
	"github.com/papercomputeco/docpredict/pkg/model"
	"github.com/papercomputeco/docpredict/pkg/results"
	"github.com/papercomputeco/docpredict/pkg/runner"
)

// Config represents the persistent docpredict configuration stored as
// config.toml in the .docpredict/ directory. The TOML layout uses sections for
// logical grouping.
type Config struct {
	Version    int              `toml:"version"`
	Predict    PredictConfig    `toml:"predict"`
	Model      ModelConfig      `toml:"model"`
	Candidates CandidatesConfig `toml:"candidates"`
}

// PredictConfig holds defaults for prediction runs.
type PredictConfig struct {
	Workers   uint   `toml:"workers"`
	Separator string `toml:"separator"`
	Partition string `toml:"partition"`
	Merge     string `toml:"merge"`
	Format    string `toml:"format"`
}

// ModelConfig holds the model arguments applied at load.
type ModelConfig struct {
	Similarity    string  `toml:"similarity"`
	UseWeight     bool    `toml:"use_weight"`
	NormalizeText bool    `toml:"normalize_text"`
	DropoutLHS    float64 `toml:"dropout_lhs"`
	DropoutRHS    float64 `toml:"dropout_rhs"`
}

// CandidatesConfig holds base document settings.
type CandidatesConfig struct {
	Mode string `toml:"mode"`
}

// Args converts the [model] section into model.Args.
func (m ModelConfig) Args() model.Args {
	return model.Args{
		Similarity:    model.Similarity(m.Similarity),
		UseWeight:     m.UseWeight,
		NormalizeText: m.NormalizeText,
		DropoutLHS:    m.DropoutLHS,
		DropoutRHS:    m.DropoutRHS,
	}
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"predict.workers": {
		get: func(c *Config) string { return strconv.FormatUint(uint64(c.Predict.Workers), 10) },
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 32)
			if err != nil {
				return fmt.Errorf("invalid value for predict.workers: %w", err)
			}
			if n == 0 {
				return fmt.Errorf("invalid value for predict.workers: must be >= 1")
			}
			c.Predict.Workers = uint(n)
			return nil
		},
	},
	"predict.separator": {
		get: func(c *Config) string { return c.Predict.Separator },
		set: func(c *Config, v string) error { c.Predict.Separator = v; return nil },
	},
	"predict.partition": {
		get: func(c *Config) string { return c.Predict.Partition },
		set: func(c *Config, v string) error {
			p, err := runner.ParsePartition(v)
			if err != nil {
				return fmt.Errorf("invalid value for predict.partition: %w", err)
			}
			c.Predict.Partition = string(p)
			return nil
		},
	},
	"predict.merge": {
		get: func(c *Config) string { return c.Predict.Merge },
		set: func(c *Config, v string) error {
			p, err := results.ParseMergePolicy(v)
			if err != nil {
				return fmt.Errorf("invalid value for predict.merge: %w", err)
			}
			c.Predict.Merge = string(p)
			return nil
		},
	},
	"predict.format": {
		get: func(c *Config) string { return c.Predict.Format },
		set: func(c *Config, v string) error {
			f, err := results.ParseFormat(v)
			if err != nil {
				return fmt.Errorf("invalid value for predict.format: %w", err)
			}
			c.Predict.Format = string(f)
			return nil
		},
	},
	"model.similarity": {
		get: func(c *Config) string { return c.Model.Similarity },
		set: func(c *Config, v string) error {
			s, err := model.ParseSimilarity(v)
			if err != nil {
				return fmt.Errorf("invalid value for model.similarity: %w", err)
			}
			c.Model.Similarity = string(s)
			return nil
		},
	},
	"model.use_weight":     boolKey("model.use_weight", func(c *Config) *bool { return &c.Model.UseWeight }),
	"model.normalize_text": boolKey("model.normalize_text", func(c *Config) *bool { return &c.Model.NormalizeText }),
	"model.dropout_lhs":    floatKey("model.dropout_lhs", func(c *Config) *float64 { return &c.Model.DropoutLHS }),
	"model.dropout_rhs":    floatKey("model.dropout_rhs", func(c *Config) *float64 { return &c.Model.DropoutRHS }),
	"candidates.mode": {
		get: func(c *Config) string { return c.Candidates.Mode },
		set: func(c *Config, v string) error {
			m, err := candidates.ParseMode(v)
			if err != nil {
				return fmt.Errorf("invalid value for candidates.mode: %w", err)
			}
			c.Candidates.Mode = string(m)
			return nil
		},
	},
}

func boolKey(name string, field func(c *Config) *bool) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return strconv.FormatBool(*field(c)) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", name, err)
			}
			*field(c) = b
			return nil
		},
	}
}

func floatKey(name string, field func(c *Config) *float64) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return strconv.FormatFloat(*field(c), 'g', -1, 64) },
		set: func(c *Config, v string) error {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", name, err)
			}
			if f < 0 || f > 1 {
				return fmt.Errorf("invalid value for %s: must be within [0, 1], got %g", name, f)
			}
			*field(c) = f
			return nil
		},
	}
}
