package estimators

import (
	"math"

	"gocorr/adapters/stats/inference"
	"gocorr/domain/core"
)

// spearmanEstimate expects ranked data: rho is Pearson's r over ranks
func spearmanEstimate(req Request) (Estimate, error) {
	rho, err := pearson(req.X, req.Y)
	if err != nil {
		return Estimate{}, err
	}
	s := req.Spec
	return Estimate{
		Value:  rho,
		Result: inference.Spearman(rho, req.N(), s.Covariates, s.CI, s.Alternative),
	}, nil
}

// kendallEstimate computes tau-b, which corrects for ties in either variable
func kendallEstimate(req Request) (Estimate, error) {
	x, y := req.X, req.Y
	n := len(x)
	var s, tiesX, tiesY, pairs float64
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			dx, dy := sign(x[i]-x[j]), sign(y[i]-y[j])
			s += dx * dy
			pairs++
			if dx == 0 {
				tiesX++
			}
			if dy == 0 {
				tiesY++
			}
		}
	}
	denom := (pairs - tiesX) * (pairs - tiesY)
	if pairs == tiesX {
		return Estimate{}, core.NewDegenerateError("x")
	}
	if pairs == tiesY {
		return Estimate{}, core.NewDegenerateError("y")
	}
	tau := clamp(s / math.Sqrt(denom))
	sp := req.Spec
	return Estimate{
		Value:  tau,
		Result: inference.Kendall(tau, n, sp.Covariates, sp.CI, sp.Alternative),
	}, nil
}

// gammaEstimate is Goodman and Kruskal's gamma: (C - D) / (C + D) with tied
// pairs dropped.
func gammaEstimate(req Request) (Estimate, error) {
	x, y := req.X, req.Y
	var concordant, discordant float64
	for i := 0; i < len(x); i++ {
		for j := i + 1; j < len(x); j++ {
			switch sign(x[i]-x[j]) * sign(y[i]-y[j]) {
			case 1:
				concordant++
			case -1:
				discordant++
			}
		}
	}
	if concordant+discordant == 0 {
		return Estimate{}, core.NewDegenerateError("x, y (every pair tied)")
	}
	return pearsonFamily((concordant-discordant)/(concordant+discordant), req), nil
}

// blomqvistEstimate is the medial correlation: agreement of signs around
// the two medians. Observations on a median are ignored.
func blomqvistEstimate(req Request) (Estimate, error) {
	mx, err := median(req.X)
	if err != nil {
		return Estimate{}, err
	}
	my, err := median(req.Y)
	if err != nil {
		return Estimate{}, err
	}
	var sum, count float64
	for i := range req.X {
		s := sign(req.X[i]-mx) * sign(req.Y[i]-my)
		if s != 0 {
			sum += s
			count++
		}
	}
	if count == 0 {
		return Estimate{}, core.NewDegenerateError("x, y (every observation on a median)")
	}
	return pearsonFamily(sum/count, req), nil
}
