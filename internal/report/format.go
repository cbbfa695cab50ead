package report

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"gocorr/domain/correlation"
)

// Stars returns the significance marker of a p-value
func Stars(p float64) string {
	switch {
	case math.IsNaN(p):
		return ""
	case p < 0.001:
		return "***"
	case p < 0.01:
		return "**"
	case p < 0.05:
		return "*"
	}
	return ""
}

// Number formats v with fixed digits; NA renders empty
func Number(v float64, digits int) string {
	switch {
	case math.IsNaN(v):
		return ""
	case math.IsInf(v, 1):
		return "Inf"
	case math.IsInf(v, -1):
		return "-Inf"
	}
	s := strconv.FormatFloat(v, 'f', digits, 64)
	if s == "-"+strconv.FormatFloat(0, 'f', digits, 64) {
		s = s[1:]
	}
	return s
}

// PValue formats p with a floor of "< .001"
func PValue(p float64) string {
	switch {
	case math.IsNaN(p):
		return ""
	case p < 0.001:
		return "< .001"
	}
	return strings.TrimPrefix(strconv.FormatFloat(p, 'f', 3, 64), "0")
}

// Interval formats a confidence interval as [lo, hi]
func Interval(lo, hi float64, digits int) string {
	if math.IsNaN(lo) || math.IsNaN(hi) {
		return ""
	}
	return fmt.Sprintf("[%s, %s]", Number(lo, digits), Number(hi, digits))
}

// BayesFactor formats BF10 in scientific notation once it leaves [0.001, 1000]
func BayesFactor(bf float64) string {
	switch {
	case math.IsNaN(bf):
		return ""
	case math.IsInf(bf, 1):
		return "Inf"
	case bf > 1000 || (bf > 0 && bf < 0.001):
		return strconv.FormatFloat(bf, 'e', 2, 64)
	}
	return strconv.FormatFloat(bf, 'f', 2, 64)
}

// BayesStars marks evidence for the alternative: BF10 > 3, 10 and 30
func BayesStars(bf float64) string {
	switch {
	case math.IsNaN(bf):
		return ""
	case bf > 30:
		return "***"
	case bf > 10:
		return "**"
	case bf > 3:
		return "*"
	}
	return ""
}

// Statistic formats the test statistic with its degrees of freedom
func Statistic(r correlation.TestResult, digits int) string {
	if math.IsNaN(r.Statistic) || r.StatisticName == "" {
		return ""
	}
	name := r.StatisticName
	if !math.IsNaN(r.DF) {
		name = fmt.Sprintf("%s(%s)", name, Number(r.DF, dfDigits(r.DF, digits)))
	}
	return fmt.Sprintf("%s = %s", name, Number(r.Statistic, digits))
}

func dfDigits(df float64, digits int) int {
	if df == math.Trunc(df) {
		return 0
	}
	return digits
}

// adjustLabel names the p-value correction as reported under tables
func adjustLabel(m correlation.PAdjust) string {
	switch m {
	case correlation.AdjustNone:
		return "none"
	case correlation.AdjustBonferroni:
		return "Bonferroni"
	case correlation.AdjustHolm:
		return "Holm (1979)"
	case correlation.AdjustHochberg:
		return "Hochberg (1988)"
	case correlation.AdjustHommel:
		return "Hommel (1988)"
	case correlation.AdjustBH:
		return "Benjamini & Hochberg (1995)"
	case correlation.AdjustBY:
		return "Benjamini & Yekutieli (2001)"
	}
	return string(m)
}
