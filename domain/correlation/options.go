package correlation

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"gocorr/domain/core"
)

// Tuning holds method-specific parameters
type Tuning struct {
	// Beta is the bend constant of the percentage bend correlation
	Beta float64 `mapstructure:"beta" json:"beta"`
	// Trim is the winsorization fraction on each tail
	Trim float64 `mapstructure:"trim" json:"trim"`
	// Bootstraps is the resample count of Shepherd's Pi outlier detection
	Bootstraps int `mapstructure:"bootstraps" json:"bootstraps"`
}

// DefaultTuning mirrors the conventional defaults of each estimator
func DefaultTuning() Tuning {
	return Tuning{Beta: 0.2, Trim: 0.2, Bootstraps: 500}
}

// Prior is the stretched beta prior on rho used by Bayesian tests
type Prior struct {
	Name  string  `json:"name"`
	Scale float64 `json:"scale"`
}

// Named prior widths
var (
	PriorMedium    = Prior{Name: "medium", Scale: 1.0 / 3.0}
	PriorWide      = Prior{Name: "wide", Scale: 1.0 / math.Sqrt(3)}
	PriorUltrawide = Prior{Name: "ultrawide", Scale: 1.0}
)

// ParsePrior accepts a named width or a positive scale
func ParsePrior(s string) (Prior, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "medium", "medium.narrow":
		return PriorMedium, nil
	case "wide":
		return PriorWide, nil
	case "ultrawide":
		return PriorUltrawide, nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || v <= 0 || math.IsInf(v, 0) {
		return Prior{}, core.NewInvalidOptionError("bayesian_prior", fmt.Sprintf("%q is not a named prior or positive scale", s))
	}
	return Prior{Name: "custom", Scale: v}, nil
}

// Options is the immutable configuration of one request. It is passed by
// value to every component; there is no process-wide state.
type Options struct {
	Method         Method
	PAdjust        PAdjust
	CI             float64
	Alternative    Alternative
	Bayesian       bool
	Prior          Prior
	Partial        bool
	Multilevel     bool
	IncludeFactors bool
	Redundant      bool
	RankTransform  bool

	// Select restricts the analysed columns; empty means all eligible columns
	Select []string
	// GroupBy partitions rows, or names the random effects when Multilevel
	GroupBy []string
	// RandomEffects names random-effect factors explicitly (Multilevel only)
	RandomEffects []string
	// Covariates restricts the partialled variables; empty means all others
	Covariates []string

	Tuning  Tuning
	Seed    uint64
	Workers int
}

// DefaultOptions returns the documented defaults
func DefaultOptions() Options {
	return Options{
		Method:      MethodPearson,
		PAdjust:     AdjustHolm,
		CI:          0.95,
		Alternative: TwoSided,
		Prior:       PriorMedium,
		Tuning:      DefaultTuning(),
		Seed:        42,
	}
}

// Validate checks option-level consistency. Variable-type checks happen in
// the resolver once the dataset is known.
func (o Options) Validate() error {
	if !o.Method.Valid() {
		return core.NewInvalidOptionError("method", fmt.Sprintf("invalid value %d", int(o.Method)))
	}
	if !(o.CI > 0 && o.CI < 1) {
		return core.NewInvalidOptionError("ci", fmt.Sprintf("%v must be in (0, 1)", o.CI))
	}
	switch o.Alternative {
	case TwoSided, Greater, Less:
	default:
		return core.NewInvalidOptionError("alternative", fmt.Sprintf("unknown alternative %q", o.Alternative))
	}
	switch o.PAdjust {
	case AdjustNone, AdjustBonferroni, AdjustHolm, AdjustHochberg, AdjustHommel, AdjustBH, AdjustBY:
	default:
		return core.NewInvalidOptionError("p_adjust", fmt.Sprintf("unknown method %q", o.PAdjust))
	}
	if o.Tuning.Beta <= 0 || o.Tuning.Beta >= 0.5 {
		return core.NewInvalidOptionError("tuning.beta", fmt.Sprintf("%v must be in (0, 0.5)", o.Tuning.Beta))
	}
	if o.Tuning.Trim <= 0 || o.Tuning.Trim >= 0.5 {
		return core.NewInvalidOptionError("tuning.trim", fmt.Sprintf("%v must be in (0, 0.5)", o.Tuning.Trim))
	}
	if o.Tuning.Bootstraps < 1 {
		return core.NewInvalidOptionError("tuning.bootstraps", "must be positive")
	}
	if o.Workers < 0 {
		return core.NewInvalidOptionError("workers", "must not be negative")
	}
	if o.Bayesian && !(o.Prior.Scale > 0) {
		return core.NewInvalidOptionError("bayesian_prior", "scale must be positive")
	}

	if o.Bayesian && o.Method != MethodAuto && !o.Method.Info().Bayesian {
		return core.NewUnsupportedError("bayesian=true with method %s, which has no Bayesian implementation", o.Method)
	}
	if o.RankTransform && o.Method.Info().Latent {
		return core.NewUnsupportedError("ranktransform with latent-variable method %s", o.Method)
	}
	if len(o.RandomEffects) > 0 && !o.Multilevel {
		return core.NewUnsupportedError("random effects %v require multilevel=true", o.RandomEffects)
	}
	if o.Multilevel && len(o.RandomEffects) > 0 && len(o.GroupBy) > 0 {
		return core.NewUnsupportedError("multilevel grouping by %v combined with row-wise partitioning by %v", o.RandomEffects, o.GroupBy)
	}
	if o.Multilevel && !o.Partial && len(o.Covariates) > 0 {
		return core.NewUnsupportedError("covariates %v with multilevel zero-order output; the conversion needs every other variable partialled, set partial=true", o.Covariates)
	}
	if o.Multilevel && o.Method != MethodAuto && o.Method.Info().Latent {
		return core.NewUnsupportedError("multilevel with latent-variable method %s", o.Method)
	}
	if o.Partial && o.Method.Info().Latent {
		return core.NewUnsupportedError("partial with latent-variable method %s", o.Method)
	}
	return nil
}

// RandomFactors returns the columns that enter the mixed model as random
// intercepts: explicit RandomEffects, else GroupBy when Multilevel.
func (o Options) RandomFactors() []string {
	if !o.Multilevel {
		return nil
	}
	if len(o.RandomEffects) > 0 {
		return o.RandomEffects
	}
	return o.GroupBy
}

// PartitionKeys returns the columns used to split rows into groups
func (o Options) PartitionKeys() []string {
	if o.Multilevel {
		return nil
	}
	return o.GroupBy
}

// Adjusted reports whether variables are residualized before testing
func (o Options) Adjusted() bool {
	return o.Partial || o.Multilevel
}
