package config

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flag is the single source of truth for a CLI flag.
// Commands reference flags by registry key rather than hard-coding names,
// shorthands, defaults, and descriptions inline.
type Flag struct {
	// Name is the long flag name (e.g. "workers").
	Name string

	// Shorthand is the one-letter short flag (e.g. "w"). Empty for no shorthand.
	Shorthand string

	// ViperKey is the dotted config key this flag maps to (e.g. "predict.workers").
	ViperKey string

	// Description is the help text shown in --help output.
	Description string
}

// FlagSet is a mapping of flag names to Flag structs that hold their name,
// shorthand, viper key, etc.
type FlagSet map[string]Flag

// Flag registry keys.
// Use these constants when calling the Add*Flag helpers and
// BindRegisteredFlags to avoid typos or drift from one command to another.
const (
	FlagWorkers       = "workers"
	FlagSeparator     = "separator"
	FlagPartition     = "partition"
	FlagMerge         = "merge"
	FlagFormat        = "format"
	FlagSimilarity    = "similarity"
	FlagUseWeight     = "use-weight"
	FlagNormalizeText = "normalize-text"
	FlagMode          = "mode"
)

// PredictFlags is the registry shared by commands that load a model and
// base documents.
var PredictFlags = FlagSet{
	FlagWorkers:       {Name: "workers", Shorthand: "w", ViperKey: "predict.workers", Description: "Number of worker goroutines"},
	FlagSeparator:     {Name: "separator", ViperKey: "predict.separator", Description: "Token separator within feature text"},
	FlagPartition:     {Name: "partition", ViperKey: "predict.partition", Description: "Record partitioning across workers (chunk, round-robin)"},
	FlagMerge:         {Name: "merge", ViperKey: "predict.merge", Description: "Duplicate key resolution across workers (last, first)"},
	FlagFormat:        {Name: "format", Shorthand: "f", ViperKey: "predict.format", Description: "Output format (tsv, parquet)"},
	FlagSimilarity:    {Name: "similarity", ViperKey: "model.similarity", Description: "Similarity function (cosine, dot)"},
	FlagUseWeight:     {Name: "use-weight", ViperKey: "model.use_weight", Description: "Honor token:weight feature weights"},
	FlagNormalizeText: {Name: "normalize-text", ViperKey: "model.normalize_text", Description: "Normalize tokens (NFKC, lowercase) before lookup"},
	FlagMode:          {Name: "mode", ViperKey: "candidates.mode", Description: "Base document layout (labeled, plain)"},
}

// AddStringFlag registers a string flag on cmd from the given FlagSet.
// The flag's name, shorthand, default, and description all come from the
// FlagSet entry so they cannot drift across commands.
func AddStringFlag(cmd *cobra.Command, fs FlagSet, key string, target *string) {
	def, ok := fs[key]
	if !ok {
		return
	}

	defaultVal := defaults().GetString(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().StringVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().StringVar(target, def.Name, defaultVal, def.Description)
	}
}

// AddUintFlag registers a uint flag on cmd from the given FlagSet.
func AddUintFlag(cmd *cobra.Command, fs FlagSet, registryKey string, target *uint) {
	def, ok := fs[registryKey]
	if !ok {
		return
	}

	defaultVal := defaults().GetUint(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().UintVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().UintVar(target, def.Name, defaultVal, def.Description)
	}
}

// AddBoolFlag registers a bool flag on cmd from the given FlagSet.
func AddBoolFlag(cmd *cobra.Command, fs FlagSet, registryKey string, target *bool) {
	def, ok := fs[registryKey]
	if !ok {
		return
	}

	defaultVal := defaults().GetBool(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().BoolVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().BoolVar(target, def.Name, defaultVal, def.Description)
	}
}

// BindRegisteredFlags binds already-registered flags to viper using definitions
// from the given FlagSet. Call this in PreRunE after InitViper to connect flags
// to the viper precedence chain (flag > env > config file > default).
func BindRegisteredFlags(v *viper.Viper, cmd *cobra.Command, fs FlagSet, registryKeys []string) {
	for _, registryKey := range registryKeys {
		def, ok := fs[registryKey]
		if !ok {
			continue
		}

		f := cmd.Flags().Lookup(def.Name)
		if f == nil {
			continue
		}

		_ = v.BindPFlag(def.ViperKey, f)
	}
}

// defaults returns a viper instance holding only NewDefaultConfig values.
func defaults() *viper.Viper {
	v := viper.New()
	setViperDefaults(v)
	return v
}
