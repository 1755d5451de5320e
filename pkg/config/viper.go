package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/papercomputeco/docpredict/pkg/dotdir"
)

// EnvPrefix prefixes every environment variable read by InitViper.
const EnvPrefix = "DOCPREDICT"

// InitViper creates and returns a configured *viper.Viper.
// It sets defaults from NewDefaultConfig(), reads the config.toml file
// (if found via dotdir resolution), and binds environment variables
// with the DOCPREDICT_ prefix.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound via BindRegisteredFlags)
//  2. Environment variables (DOCPREDICT_PREDICT_WORKERS, DOCPREDICT_MODEL_SIMILARITY, etc.)
//  3. config.toml file values
//  4. Defaults from NewDefaultConfig()
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	setViperDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("toml")

	ddm := dotdir.NewManager()
	target, err := ddm.Target(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}

	if target != "" {
		v.AddConfigPath(target)
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file not found errors are fine, defaults will apply.
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation. This keeps defaults.go as the single source of truth.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("version", d.Version)

	v.SetDefault("predict.workers", d.Predict.Workers)
	v.SetDefault("predict.separator", d.Predict.Separator)
	v.SetDefault("predict.partition", d.Predict.Partition)
	v.SetDefault("predict.merge", d.Predict.Merge)
	v.SetDefault("predict.format", d.Predict.Format)

	v.SetDefault("model.similarity", d.Model.Similarity)
	v.SetDefault("model.use_weight", d.Model.UseWeight)
	v.SetDefault("model.normalize_text", d.Model.NormalizeText)
	v.SetDefault("model.dropout_lhs", d.Model.DropoutLHS)
	v.SetDefault("model.dropout_rhs", d.Model.DropoutRHS)

	v.SetDefault("candidates.mode", d.Candidates.Mode)
}

// FromViper builds a Config from the resolved viper values.
func FromViper(v *viper.Viper) *Config {
	return &Config{
		Version: v.GetInt("version"),
		Predict: PredictConfig{
			Workers:   v.GetUint("predict.workers"),
			Separator: v.GetString("predict.separator"),
			Partition: v.GetString("predict.partition"),
			Merge:     v.GetString("predict.merge"),
			Format:    v.GetString("predict.format"),
		},
		Model: ModelConfig{
			Similarity:    v.GetString("model.similarity"),
			UseWeight:     v.GetBool("model.use_weight"),
			NormalizeText: v.GetBool("model.normalize_text"),
			DropoutLHS:    v.GetFloat64("model.dropout_lhs"),
			DropoutRHS:    v.GetFloat64("model.dropout_rhs"),
		},
		Candidates: CandidatesConfig{
			Mode: v.GetString("candidates.mode"),
		},
	}
}
