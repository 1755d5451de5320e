package config_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/docpredict/pkg/config"
	"github.com/papercomputeco/docpredict/pkg/model"
)

var _ = Describe("Configer config", func() {
	var tmpDir string

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "config-test-*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	writeConfig := func(data string) {
		err := os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(data), 0o600)
		Expect(err).NotTo(HaveOccurred())
	}

	Describe("LoadConfig", func() {
		It("returns default config when no config file exists", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			cfg, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg).To(Equal(config.NewDefaultConfig()))
		})

		It("loads a valid config file", func() {
			writeConfig(`version = 0

[predict]
workers = 8
format = "parquet"

[model]
similarity = "dot"
use_weight = true
`)

			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			cfg, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Predict.Workers).To(Equal(uint(8)))
			Expect(cfg.Predict.Format).To(Equal("parquet"))
			Expect(cfg.Model.Similarity).To(Equal("dot"))
			Expect(cfg.Model.UseWeight).To(BeTrue())
		})

		It("fills in defaults for unset fields in a partial config", func() {
			writeConfig(`[model]
normalize_text = true
`)

			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			cfg, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())

			defaults := config.NewDefaultConfig()
			Expect(cfg.Model.NormalizeText).To(BeTrue())
			Expect(cfg.Model.Similarity).To(Equal(defaults.Model.Similarity))
			Expect(cfg.Predict).To(Equal(defaults.Predict))
			Expect(cfg.Candidates).To(Equal(defaults.Candidates))
		})

		It("keeps an explicit false over a default", func() {
			writeConfig(`[model]
use_weight = false
dropout_lhs = 0.0
`)

			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			cfg, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Model.UseWeight).To(BeFalse())
			Expect(cfg.Model.DropoutLHS).To(BeZero())
		})

		It("returns error for malformed TOML", func() {
			writeConfig("this is not valid toml [[[")

			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			_, err = c.LoadConfig()
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("parsing config TOML"))
		})

		It("returns error for unsupported config version", func() {
			writeConfig("version = 999\n")

			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			_, err = c.LoadConfig()
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("unsupported config version"))
		})

		It("rejects invalid enum values in the file", func() {
			writeConfig(`[predict]
partition = "random"
`)

			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			_, err = c.LoadConfig()
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("predict.partition"))
		})
	})

	Describe("SaveConfig", func() {
		It("persists config to disk", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			cfg := config.NewDefaultConfig()
			cfg.Predict.Workers = 4
			cfg.Candidates.Mode = "plain"
			Expect(c.SaveConfig(cfg)).To(Succeed())

			data, err := os.ReadFile(filepath.Join(tmpDir, "config.toml"))
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(ContainSubstring("workers = 4"))
			Expect(string(data)).To(ContainSubstring(`mode = "plain"`))
		})

		It("returns error for nil config", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			err = c.SaveConfig(nil)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("cannot save nil config"))
		})

		It("round-trips every field", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			cfg := &config.Config{
				Version: config.CurrentV,
				Predict: config.PredictConfig{
					Workers:   16,
					Separator: ",",
					Partition: "round-robin",
					Merge:     "first",
					Format:    "parquet",
				},
				Model: config.ModelConfig{
					Similarity:    "dot",
					UseWeight:     true,
					NormalizeText: true,
					DropoutLHS:    0.5,
					DropoutRHS:    0.25,
				},
				Candidates: config.CandidatesConfig{Mode: "plain"},
			}
			Expect(c.SaveConfig(cfg)).To(Succeed())

			loaded, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded).To(Equal(cfg))
		})
	})

	Describe("SetConfigValue", func() {
		It("sets a string config key", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			Expect(c.SetConfigValue("model.similarity", "dot")).To(Succeed())

			value, err := c.GetConfigValue("model.similarity")
			Expect(err).NotTo(HaveOccurred())
			Expect(value).To(Equal("dot"))
		})

		It("normalizes enum values", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			Expect(c.SetConfigValue("predict.partition", "RR")).To(Succeed())

			value, err := c.GetConfigValue("predict.partition")
			Expect(err).NotTo(HaveOccurred())
			Expect(value).To(Equal("round-robin"))
		})

		It("preserves existing values when setting a new key", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			Expect(c.SetConfigValue("predict.workers", "6")).To(Succeed())
			Expect(c.SetConfigValue("model.use_weight", "true")).To(Succeed())

			cfg, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Predict.Workers).To(Equal(uint(6)))
			Expect(cfg.Model.UseWeight).To(BeTrue())
		})

		It("returns error for unknown key", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			err = c.SetConfigValue("nonexistent.key", "value")
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("unknown config key"))
		})

		It("has no key for k, which is always given on the command line", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			err = c.SetConfigValue("predict.k", "5")
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("unknown config key"))
		})

		DescribeTable("rejects invalid values",
			func(key, value string) {
				c, err := config.NewConfiger(tmpDir)
				Expect(err).NotTo(HaveOccurred())

				err = c.SetConfigValue(key, value)
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring(key))
			},
			Entry("non-numeric workers", "predict.workers", "many"),
			Entry("zero workers", "predict.workers", "0"),
			Entry("unknown partition", "predict.partition", "random"),
			Entry("unknown merge", "predict.merge", "middle"),
			Entry("unknown format", "predict.format", "xml"),
			Entry("unknown similarity", "model.similarity", "l2"),
			Entry("non-bool use_weight", "model.use_weight", "maybe"),
			Entry("dropout out of range", "model.dropout_lhs", "1.5"),
			Entry("unknown mode", "candidates.mode", "fuzzy"),
		)
	})

	Describe("GetConfigValue", func() {
		It("returns default value when no config file exists", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			value, err := c.GetConfigValue("predict.workers")
			Expect(err).NotTo(HaveOccurred())
			Expect(value).To(Equal("1"))

			value, err = c.GetConfigValue("model.use_weight")
			Expect(err).NotTo(HaveOccurred())
			Expect(value).To(Equal("false"))
		})

		It("returns error for unknown key", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			_, err = c.GetConfigValue("nonexistent.key")
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("ValidConfigKeys", func() {
		It("returns all expected keys in section order", func() {
			Expect(config.ValidConfigKeys()).To(Equal([]string{
				"predict.workers",
				"predict.separator",
				"predict.partition",
				"predict.merge",
				"predict.format",
				"model.similarity",
				"model.use_weight",
				"model.normalize_text",
				"model.dropout_lhs",
				"model.dropout_rhs",
				"candidates.mode",
			}))
		})

		It("agrees with IsValidConfigKey", func() {
			for _, k := range config.ValidConfigKeys() {
				Expect(config.IsValidConfigKey(k)).To(BeTrue(), k)
			}
			Expect(config.IsValidConfigKey("predict.k")).To(BeFalse())
			Expect(config.IsValidConfigKey("proxy.provider")).To(BeFalse())
		})
	})
})

var _ = Describe("ParseConfigTOML", func() {
	It("returns defaults for empty input", func() {
		cfg, err := config.ParseConfigTOML([]byte(""))
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg).To(Equal(config.NewDefaultConfig()))
	})

	It("returns error for invalid TOML", func() {
		_, err := config.ParseConfigTOML([]byte("{{invalid"))
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("ModelConfig", func() {
	It("converts to model args", func() {
		args := config.ModelConfig{Similarity: "dot", UseWeight: true, DropoutLHS: 0.3}.Args()
		Expect(args.Similarity).To(Equal(model.SimilarityDot))
		Expect(args.UseWeight).To(BeTrue())
		Expect(args.NormalizeText).To(BeFalse())
		Expect(args.DropoutLHS).To(Equal(0.3))
	})
})

var _ = Describe("InitViper", func() {
	var tmpDir string

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "viper-test-*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	It("returns viper with defaults when no config file exists", func() {
		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(config.FromViper(v)).To(Equal(config.NewDefaultConfig()))
	})

	It("reads config file values over defaults", func() {
		data := `[predict]
workers = 12
`
		err := os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(data), 0o600)
		Expect(err).NotTo(HaveOccurred())

		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		Expect(v.GetUint("predict.workers")).To(Equal(uint(12)))
		Expect(v.GetString("predict.partition")).To(Equal("chunk"))
	})

	It("respects environment variables with DOCPREDICT_ prefix", func() {
		GinkgoT().Setenv("DOCPREDICT_MODEL_SIMILARITY", "dot")

		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		Expect(v.GetString("model.similarity")).To(Equal("dot"))
	})

	It("env vars take precedence over config file values", func() {
		data := `[predict]
workers = 12
`
		err := os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(data), 0o600)
		Expect(err).NotTo(HaveOccurred())

		GinkgoT().Setenv("DOCPREDICT_PREDICT_WORKERS", "3")

		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		Expect(config.FromViper(v).Predict.Workers).To(Equal(uint(3)))
	})
})

var _ = Describe("BindFlags", func() {
	var tmpDir string

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "bindflag-test-*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	It("binds cobra flags to viper keys via registry", func() {
		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		cmd := &cobra.Command{Use: "test"}
		var workers uint
		config.AddUintFlag(cmd, config.PredictFlags, config.FlagWorkers, &workers)

		Expect(cmd.Flags().Set("workers", "7")).To(Succeed())

		config.BindRegisteredFlags(v, cmd, config.PredictFlags, []string{config.FlagWorkers})

		Expect(v.GetUint("predict.workers")).To(Equal(uint(7)))
	})

	It("falls through to config when flag not set", func() {
		data := `[predict]
merge = "first"
`
		err := os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(data), 0o600)
		Expect(err).NotTo(HaveOccurred())

		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		cmd := &cobra.Command{Use: "test"}
		var merge string
		config.AddStringFlag(cmd, config.PredictFlags, config.FlagMerge, &merge)

		config.BindRegisteredFlags(v, cmd, config.PredictFlags, []string{config.FlagMerge})

		Expect(v.GetString("predict.merge")).To(Equal("first"))
	})

	It("skips bindings for nonexistent registry keys", func() {
		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		cmd := &cobra.Command{Use: "test"}
		config.BindRegisteredFlags(v, cmd, config.FlagSet{}, []string{"nonexistent"})

		Expect(v.GetString("predict.format")).To(Equal("tsv"))
	})

	It("AddUintFlag pulls name, shorthand, and default from FlagSet", func() {
		cmd := &cobra.Command{Use: "test"}
		var workers uint
		config.AddUintFlag(cmd, config.PredictFlags, config.FlagWorkers, &workers)

		f := cmd.Flags().Lookup("workers")
		Expect(f).NotTo(BeNil())
		Expect(f.Shorthand).To(Equal("w"))
		Expect(f.DefValue).To(Equal("1"))
	})

	It("AddBoolFlag registers a boolean flag", func() {
		cmd := &cobra.Command{Use: "test"}
		var useWeight bool
		config.AddBoolFlag(cmd, config.PredictFlags, config.FlagUseWeight, &useWeight)

		f := cmd.Flags().Lookup("use-weight")
		Expect(f).NotTo(BeNil())
		Expect(f.DefValue).To(Equal("false"))
		Expect(f.Usage).To(Equal("Honor token:weight feature weights"))
	})

	It("AddStringFlag uses the config default", func() {
		cmd := &cobra.Command{Use: "test"}
		var similarity string
		config.AddStringFlag(cmd, config.PredictFlags, config.FlagSimilarity, &similarity)

		f := cmd.Flags().Lookup("similarity")
		Expect(f).NotTo(BeNil())
		Expect(f.DefValue).To(Equal("cosine"))
	})
})

var _ = Describe("Lookup", func() {
	It("reads a key from an in-memory config", func() {
		cfg := config.NewDefaultConfig()
		cfg.Model.DropoutRHS = 0.125

		value, err := config.Lookup(cfg, "model.dropout_rhs")
		Expect(err).NotTo(HaveOccurred())
		Expect(value).To(Equal("0.125"))
	})

	It("rejects unknown keys", func() {
		_, err := config.Lookup(config.NewDefaultConfig(), "nope")
		Expect(err).To(HaveOccurred())
	})
})
