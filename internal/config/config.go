// Package config loads gocorr settings from .gocorr.yaml, GOCORR_*
// environment variables and bound CLI flags, in increasing precedence.
package config

import (
	"errors"
	"strings"

	"github.com/spf13/viper"

	"gocorr/adapters/datareadiness/coercer"
	"gocorr/domain/correlation"
	"gocorr/domain/dataset"
	apperrors "gocorr/internal/errors"
)

// EnvPrefix prefixes every environment override, e.g. GOCORR_ANALYSIS_METHOD
const EnvPrefix = "GOCORR"

// Config represents the complete application configuration
type Config struct {
	Analysis AnalysisConfig `mapstructure:"analysis"`
	Data     DataConfig     `mapstructure:"data"`
	Database DatabaseConfig `mapstructure:"database"`
	Output   OutputConfig   `mapstructure:"output"`
	Log      LogConfig      `mapstructure:"log"`
}

// AnalysisConfig holds request options in their textual form
type AnalysisConfig struct {
	Method         string             `mapstructure:"method"`
	PAdjust        string             `mapstructure:"p_adjust"`
	CI             float64            `mapstructure:"ci"`
	Alternative    string             `mapstructure:"alternative"`
	Bayesian       bool               `mapstructure:"bayesian"`
	Prior          string             `mapstructure:"bayesian_prior"`
	Partial        bool               `mapstructure:"partial"`
	Multilevel     bool               `mapstructure:"multilevel"`
	IncludeFactors bool               `mapstructure:"include_factors"`
	Redundant      bool               `mapstructure:"redundant"`
	RankTransform  bool               `mapstructure:"ranktransform"`
	Select         []string           `mapstructure:"select"`
	GroupBy        []string           `mapstructure:"group_by"`
	RandomEffects  []string           `mapstructure:"random_effects"`
	Covariates     []string           `mapstructure:"covariates"`
	Tuning         correlation.Tuning `mapstructure:"tuning"`
	Seed           uint64             `mapstructure:"seed"`
	Workers        int                `mapstructure:"workers"`
}

// DataConfig holds ingestion settings
type DataConfig struct {
	Sheet    string                 `mapstructure:"sheet"`
	Types    map[string]string      `mapstructure:"types"`
	Coercion coercer.CoercionConfig `mapstructure:"coercion"`
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	URL string `mapstructure:"url"`
}

// OutputConfig holds report settings
type OutputConfig struct {
	Format string `mapstructure:"format"`
	Digits int    `mapstructure:"digits"`
	// Value selects the matrix cell content: estimate, p, statistic, ci_low,
	// ci_high, n_obs or zero_order
	Value string `mapstructure:"value"`
}

// LogConfig holds logging settings
type LogConfig struct {
	// Level is empty to defer to LOG_LEVEL
	Level string `mapstructure:"level"`
}

// New returns a viper instance with defaults and environment binding
func New() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func setDefaults(v *viper.Viper) {
	opts := correlation.DefaultOptions()
	v.SetDefault("analysis.method", opts.Method.String())
	v.SetDefault("analysis.p_adjust", string(opts.PAdjust))
	v.SetDefault("analysis.ci", opts.CI)
	v.SetDefault("analysis.alternative", string(opts.Alternative))
	v.SetDefault("analysis.bayesian", false)
	v.SetDefault("analysis.bayesian_prior", opts.Prior.Name)
	v.SetDefault("analysis.partial", false)
	v.SetDefault("analysis.multilevel", false)
	v.SetDefault("analysis.include_factors", false)
	v.SetDefault("analysis.redundant", false)
	v.SetDefault("analysis.ranktransform", false)
	v.SetDefault("analysis.select", []string{})
	v.SetDefault("analysis.group_by", []string{})
	v.SetDefault("analysis.random_effects", []string{})
	v.SetDefault("analysis.covariates", []string{})
	v.SetDefault("analysis.tuning.beta", opts.Tuning.Beta)
	v.SetDefault("analysis.tuning.trim", opts.Tuning.Trim)
	v.SetDefault("analysis.tuning.bootstraps", opts.Tuning.Bootstraps)
	v.SetDefault("analysis.seed", opts.Seed)
	v.SetDefault("analysis.workers", 0)

	cc := coercer.DefaultCoercionConfig()
	v.SetDefault("data.sheet", "")
	v.SetDefault("data.coercion.numeric_threshold", cc.NumericThreshold)
	v.SetDefault("data.coercion.boolean_threshold", cc.BooleanThreshold)
	v.SetDefault("data.coercion.max_categories", cc.MaxCategories)
	v.SetDefault("data.coercion.missing_tokens", cc.MissingTokens)

	v.SetDefault("database.url", "")
	v.SetDefault("output.format", "table")
	v.SetDefault("output.digits", 3)
	v.SetDefault("output.value", "estimate")
	v.SetDefault("log.level", "")
}

// Load reads the config file, if any, and decodes the merged settings.
// An explicit file must exist; otherwise .gocorr.yaml is searched for in
// the working directory and the home directory.
func Load(v *viper.Viper, file string) (*Config, error) {
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(".gocorr")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, apperrors.ConfigInvalid("failed to read config file", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, apperrors.ConfigInvalid("failed to decode configuration", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Output.Format {
	case "table", "matrix", "markdown", "html", "json":
	default:
		return apperrors.ConfigInvalid("output.format must be one of table, matrix, markdown, html, json; got "+c.Output.Format, nil)
	}
	if c.Output.Digits < 0 || c.Output.Digits > 15 {
		return apperrors.ConfigInvalid("output.digits must be in [0, 15]", nil)
	}
	value, err := correlation.ParseMatrixValue(c.Output.Value)
	if err != nil {
		return apperrors.ConfigInvalid("output.value", err)
	}
	if value == correlation.ValueZeroOrder && (!c.Analysis.Multilevel || !c.Analysis.Partial || len(c.Analysis.Covariates) > 0) {
		return apperrors.ConfigInvalid("output.value zero_order needs analysis.multilevel and analysis.partial without analysis.covariates", nil)
	}
	_, err = c.Options()
	return err
}

// Options converts the analysis section into request options
func (c *Config) Options() (correlation.Options, error) {
	a := c.Analysis
	opts := correlation.DefaultOptions()

	method, err := correlation.ParseMethod(a.Method)
	if err != nil {
		return opts, apperrors.ConfigInvalid("analysis.method", err)
	}
	padjust, err := correlation.ParsePAdjust(a.PAdjust)
	if err != nil {
		return opts, apperrors.ConfigInvalid("analysis.p_adjust", err)
	}
	alt, err := correlation.ParseAlternative(a.Alternative)
	if err != nil {
		return opts, apperrors.ConfigInvalid("analysis.alternative", err)
	}
	prior, err := correlation.ParsePrior(a.Prior)
	if err != nil {
		return opts, apperrors.ConfigInvalid("analysis.bayesian_prior", err)
	}

	opts.Method = method
	opts.PAdjust = padjust
	opts.CI = a.CI
	opts.Alternative = alt
	opts.Bayesian = a.Bayesian
	opts.Prior = prior
	opts.Partial = a.Partial
	opts.Multilevel = a.Multilevel
	opts.IncludeFactors = a.IncludeFactors
	opts.Redundant = a.Redundant
	opts.RankTransform = a.RankTransform
	opts.Select = a.Select
	opts.GroupBy = a.GroupBy
	opts.RandomEffects = a.RandomEffects
	opts.Covariates = a.Covariates
	opts.Tuning = a.Tuning
	opts.Seed = a.Seed
	opts.Workers = a.Workers

	if err := opts.Validate(); err != nil {
		return opts, apperrors.ConfigInvalid("analysis", err)
	}
	return opts, nil
}

// ColumnTypes parses data.types
func (c *Config) ColumnTypes() (map[string]dataset.ColumnType, error) {
	out := make(map[string]dataset.ColumnType, len(c.Data.Types))
	for name, s := range c.Data.Types {
		t, err := dataset.ParseColumnType(s)
		if err != nil {
			return nil, apperrors.ConfigInvalid("data.types."+name, err)
		}
		out[name] = t
	}
	return out, nil
}
