package correlation

import (
	"fmt"
	"strings"

	"gocorr/domain/core"
)

// Method is the closed set of correlation tests. Each value has exactly one
// estimator registered in adapters/stats/estimators.
type Method int

const (
	MethodAuto Method = iota
	MethodPearson
	MethodSpearman
	MethodKendall
	MethodBiweight
	MethodDistance
	MethodPercentageBend
	MethodShepherd
	MethodBlomqvist
	MethodHoeffding
	MethodGamma
	MethodGaussian
	MethodBiserial
	MethodPointBiserial
	MethodWinsorized
	MethodPolychoric
	MethodTetrachoric

	methodCount
)

// MethodInfo describes the fixed properties of a method
type MethodInfo struct {
	Name         string
	Label        string
	EstimateName string
	// Bayesian is true when a posterior version exists
	Bayesian bool
	// Nominal is true when the method accepts unordered categorical columns
	Nominal bool
	// Latent is true for estimators of an underlying bivariate normal correlation
	Latent bool
}

var methodInfo = [methodCount]MethodInfo{
	MethodAuto:           {Name: "auto", Label: "Auto", EstimateName: "r"},
	MethodPearson:        {Name: "pearson", Label: "Pearson correlation", EstimateName: "r", Bayesian: true},
	MethodSpearman:       {Name: "spearman", Label: "Spearman correlation", EstimateName: "rho", Bayesian: true},
	MethodKendall:        {Name: "kendall", Label: "Kendall correlation", EstimateName: "tau"},
	MethodBiweight:       {Name: "biweight", Label: "Biweight correlation", EstimateName: "r"},
	MethodDistance:       {Name: "distance", Label: "Distance correlation (Bias Corrected)", EstimateName: "r"},
	MethodPercentageBend: {Name: "percentage_bend", Label: "Percentage Bend correlation", EstimateName: "r"},
	MethodShepherd:       {Name: "shepherd", Label: "Shepherd's Pi correlation", EstimateName: "rho", Bayesian: true},
	MethodBlomqvist:      {Name: "blomqvist", Label: "Blomqvist correlation", EstimateName: "r"},
	MethodHoeffding:      {Name: "hoeffding", Label: "Hoeffding's D", EstimateName: "D"},
	MethodGamma:          {Name: "gamma", Label: "Gamma correlation", EstimateName: "r"},
	MethodGaussian:       {Name: "gaussian", Label: "Gaussian rank correlation", EstimateName: "r", Bayesian: true},
	MethodBiserial:       {Name: "biserial", Label: "Biserial correlation", EstimateName: "rho"},
	MethodPointBiserial:  {Name: "point_biserial", Label: "Point-biserial correlation", EstimateName: "r", Bayesian: true},
	MethodWinsorized:     {Name: "winsorized", Label: "Winsorized correlation", EstimateName: "r", Bayesian: true},
	MethodPolychoric:     {Name: "polychoric", Label: "Polychoric correlation", EstimateName: "rho", Nominal: true, Latent: true},
	MethodTetrachoric:    {Name: "tetrachoric", Label: "Tetrachoric correlation", EstimateName: "rho", Nominal: true, Latent: true},
}

var methodAliases = map[string]Method{
	"percentage":     MethodPercentageBend,
	"percentagebend": MethodPercentageBend,
	"bend":           MethodPercentageBend,
	"shepherd_pi":    MethodShepherd,
	"pointbiserial":  MethodPointBiserial,
	"winsorize":      MethodWinsorized,
	"dcor":           MethodDistance,
}

// Info returns the fixed properties of m
func (m Method) Info() MethodInfo {
	if m < 0 || m >= methodCount {
		return MethodInfo{Name: fmt.Sprintf("method(%d)", int(m))}
	}
	return methodInfo[m]
}

// String returns the config name of the method
func (m Method) String() string { return m.Info().Name }

// Valid reports whether m is a member of the enumeration
func (m Method) Valid() bool { return m >= 0 && m < methodCount }

// Methods lists every concrete method (auto excluded) in declaration order
func Methods() []Method {
	out := make([]Method, 0, methodCount-1)
	for m := MethodPearson; m < methodCount; m++ {
		out = append(out, m)
	}
	return out
}

// ParseMethod maps a config name to a Method
func ParseMethod(s string) (Method, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.ReplaceAll(strings.ReplaceAll(key, "-", "_"), " ", "_")
	for m := MethodAuto; m < methodCount; m++ {
		if methodInfo[m].Name == key {
			return m, nil
		}
	}
	if m, ok := methodAliases[strings.ReplaceAll(key, "_", "")]; ok {
		return m, nil
	}
	if m, ok := methodAliases[key]; ok {
		return m, nil
	}
	return MethodAuto, core.NewInvalidOptionError("method", fmt.Sprintf("unknown method %q", s))
}

// MarshalText implements encoding.TextMarshaler
func (m Method) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler
func (m *Method) UnmarshalText(b []byte) error {
	v, err := ParseMethod(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// Alternative is the tail of the test
type Alternative string

const (
	TwoSided Alternative = "two_sided"
	Greater  Alternative = "greater"
	Less     Alternative = "less"
)

// ParseAlternative accepts two_sided/two.sided/greater/less
func ParseAlternative(s string) (Alternative, error) {
	switch strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), ".", "_") {
	case "", "two_sided", "two-sided", "both":
		return TwoSided, nil
	case "greater", "positive":
		return Greater, nil
	case "less", "negative":
		return Less, nil
	}
	return "", core.NewInvalidOptionError("alternative", fmt.Sprintf("unknown alternative %q", s))
}

// PAdjust is the multiple-comparison correction applied within each group
type PAdjust string

const (
	AdjustNone       PAdjust = "none"
	AdjustBonferroni PAdjust = "bonferroni"
	AdjustHolm       PAdjust = "holm"
	AdjustHochberg   PAdjust = "hochberg"
	AdjustHommel     PAdjust = "hommel"
	AdjustBH         PAdjust = "BH"
	AdjustBY         PAdjust = "BY"
)

// ParsePAdjust accepts the usual names; "fdr" is Benjamini-Hochberg
func ParsePAdjust(s string) (PAdjust, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return AdjustNone, nil
	case "bonferroni":
		return AdjustBonferroni, nil
	case "holm":
		return AdjustHolm, nil
	case "hochberg":
		return AdjustHochberg, nil
	case "hommel":
		return AdjustHommel, nil
	case "bh", "fdr":
		return AdjustBH, nil
	case "by":
		return AdjustBY, nil
	}
	return "", core.NewInvalidOptionError("p_adjust", fmt.Sprintf("unknown method %q", s))
}
