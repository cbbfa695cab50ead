package engine

import (
	"gocorr/domain/core"
	"gocorr/domain/correlation"
	"gocorr/domain/dataset"
)

// VariableKind is the resolver's view of a column
type VariableKind int

const (
	KindContinuous VariableKind = iota
	KindBinary
	KindOrdinal
	KindCategorical
)

func (k VariableKind) String() string {
	switch k {
	case KindBinary:
		return "binary"
	case KindOrdinal:
		return "ordinal"
	case KindCategorical:
		return "categorical"
	}
	return "continuous"
}

// discrete reports a kind with a latent-variable interpretation
func (k VariableKind) discrete() bool { return k != KindContinuous }

// KindOf classifies a column. Two distinct values make any column binary.
func KindOf(c *dataset.Column) VariableKind {
	switch {
	case c.IsBinary():
		return KindBinary
	case c.Type() == dataset.TypeOrdinal:
		return KindOrdinal
	case c.Type() == dataset.TypeCategorical:
		return KindCategorical
	}
	return KindContinuous
}

// autoTable is the method chosen for method=auto, indexed [x][y]
var autoTable = [4][4]correlation.Method{
	KindContinuous: {correlation.MethodPearson, correlation.MethodPointBiserial, correlation.MethodSpearman, correlation.MethodPolychoric},
	KindBinary:     {correlation.MethodPointBiserial, correlation.MethodTetrachoric, correlation.MethodPolychoric, correlation.MethodPolychoric},
	KindOrdinal:    {correlation.MethodSpearman, correlation.MethodPolychoric, correlation.MethodPolychoric, correlation.MethodPolychoric},
	KindCategorical: {correlation.MethodPolychoric, correlation.MethodPolychoric, correlation.MethodPolychoric, correlation.MethodPolychoric},
}

// AutoMethod returns the method=auto choice for two column kinds
func AutoMethod(x, y VariableKind) correlation.Method {
	return autoTable[x][y]
}

// categoricalSafe lists the methods defined on unordered categories
var categoricalSafe = map[correlation.Method]bool{
	correlation.MethodPolychoric:    true,
	correlation.MethodTetrachoric:   true,
	correlation.MethodBiserial:      true,
	correlation.MethodPointBiserial: true,
	correlation.MethodSpearman:      true,
	correlation.MethodKendall:       true,
	correlation.MethodGamma:         true,
	correlation.MethodBlomqvist:     true,
}

// Resolve maps the request options and the two column types onto the
// concrete test for the pair. It is a pure function; every error it
// returns wraps core.ErrUnsupportedCombination or core.ErrInvalidOption.
func Resolve(opts correlation.Options, x, y *dataset.Column) (correlation.TestSpec, error) {
	if err := opts.Validate(); err != nil {
		return correlation.TestSpec{}, err
	}
	kx, ky := KindOf(x), KindOf(y)

	method := opts.Method
	if method == correlation.MethodAuto {
		if opts.Adjusted() {
			// residuals are continuous whatever the input type
			method = correlation.MethodPearson
		} else {
			method = AutoMethod(kx, ky)
		}
	}

	if opts.Adjusted() {
		for _, c := range []*dataset.Column{x, y} {
			if KindOf(c) == KindCategorical {
				return correlation.TestSpec{}, core.NewUnsupportedError(
					"cannot residualize unordered categorical variable %s", c.Name())
			}
		}
	}

	switch method {
	case correlation.MethodPolychoric:
		if !kx.discrete() && !ky.discrete() {
			return correlation.TestSpec{}, core.NewUnsupportedError(
				"polychoric correlation of %s and %s: neither variable is categorical, ordinal or binary", x.Name(), y.Name())
		}
	case correlation.MethodTetrachoric:
		if kx != KindBinary || ky != KindBinary {
			return correlation.TestSpec{}, core.NewUnsupportedError(
				"tetrachoric correlation of %s (%s) and %s (%s) requires two binary variables", x.Name(), kx, y.Name(), ky)
		}
	case correlation.MethodBiserial, correlation.MethodPointBiserial:
		if kx != KindBinary && ky != KindBinary {
			return correlation.TestSpec{}, core.NewUnsupportedError(
				"%s correlation of %s and %s: neither variable is binary", method, x.Name(), y.Name())
		}
	}

	if !categoricalSafe[method] {
		for _, k := range []struct {
			name string
			kind VariableKind
		}{{x.Name(), kx}, {y.Name(), ky}} {
			if k.kind == KindCategorical {
				return correlation.TestSpec{}, core.NewUnsupportedError(
					"method %s is not defined for categorical variable %s", method, k.name)
			}
		}
	}

	info := method.Info()
	if opts.Bayesian && !info.Bayesian {
		return correlation.TestSpec{}, core.NewUnsupportedError(
			"bayesian=true with method %s, which has no Bayesian implementation", method)
	}
	if opts.Bayesian && opts.Multilevel && !opts.Partial {
		return correlation.TestSpec{}, core.NewUnsupportedError(
			"bayesian multilevel correlation must stay partial; set partial=true")
	}
	if opts.RankTransform && info.Latent {
		return correlation.TestSpec{}, core.NewUnsupportedError("ranktransform with latent-variable method %s", method)
	}
	if opts.Adjusted() && info.Latent {
		return correlation.TestSpec{}, core.NewUnsupportedError("partial or multilevel with latent-variable method %s", method)
	}
	if opts.Adjusted() && (method == correlation.MethodBiserial || method == correlation.MethodPointBiserial) {
		// residuals of a binary variable are no longer binary
		return correlation.TestSpec{}, core.NewUnsupportedError("partial or multilevel with %s correlation", method)
	}

	return correlation.TestSpec{
		Method:        method,
		Alternative:   opts.Alternative,
		CI:            opts.CI,
		Bayesian:      opts.Bayesian,
		Prior:         opts.Prior,
		Partial:       opts.Partial,
		Multilevel:    opts.Multilevel,
		RankTransform: opts.RankTransform,
		Tuning:        opts.Tuning,
		Seed:          opts.Seed,
	}, nil
}
