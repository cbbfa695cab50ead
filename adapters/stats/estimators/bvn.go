package estimators

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// Gauss-Legendre half-rules (6, 12 and 20 points) used by Genz's BVND
var (
	gl6W = []float64{0.1713244923791705, 0.3607615730481384, 0.4679139345726904}
	gl6X = []float64{0.9324695142031522, 0.6612093864662647, 0.2386191860831970}

	gl12W = []float64{0.04717533638651177, 0.1069393259953183, 0.1600783285433464,
		0.2031674267230659, 0.2334925365383547, 0.2491470458134029}
	gl12X = []float64{0.9815606342467191, 0.9041172563704750, 0.7699026741943050,
		0.5873179542866171, 0.3678314989981802, 0.1252334085114692}

	gl20W = []float64{0.01761400713915212, 0.04060142980038694, 0.06267204833410906,
		0.08327674157670475, 0.1019301198172404, 0.1181945319615184,
		0.1316886384491766, 0.1420961093183821, 0.1491729864726037,
		0.1527533871307259}
	gl20X = []float64{0.9931285991850949, 0.9639719272779138, 0.9122344282513259,
		0.8391169718222188, 0.7463319064601508, 0.6360536807265150,
		0.5108670019508271, 0.3737060887154196, 0.2277858511416451,
		0.07652652113349733}
)

func phi(z float64) float64 { return distuv.UnitNormal.CDF(z) }

// BivariateNormalCDF returns P(X < h, Y < k) for standard normals with
// correlation r
func BivariateNormalCDF(h, k, r float64) float64 {
	return bvnUpper(-h, -k, r)
}

// bvnUpper returns P(X > dh, Y > dk), after Genz (2004), "Numerical
// computation of rectangular bivariate and trivariate normal and t
// probabilities". Absolute error is below 1e-15.
func bvnUpper(dh, dk, r float64) float64 {
	switch {
	case math.IsInf(dh, 1) || math.IsInf(dk, 1):
		return 0
	case math.IsInf(dh, -1):
		if math.IsInf(dk, -1) {
			return 1
		}
		return phi(-dk)
	case math.IsInf(dk, -1):
		return phi(-dh)
	case r == 0:
		return phi(-dh) * phi(-dk)
	}

	var w, x []float64
	switch ar := math.Abs(r); {
	case ar < 0.3:
		w, x = gl6W, gl6X
	case ar < 0.75:
		w, x = gl12W, gl12X
	default:
		w, x = gl20W, gl20X
	}
	// mirror the half-rule onto (0, 2)
	nodes := make([]float64, 0, 2*len(x))
	weights := make([]float64, 0, 2*len(w))
	for i := range x {
		nodes = append(nodes, 1-x[i])
		weights = append(weights, w[i])
	}
	for i := range x {
		nodes = append(nodes, 1+x[i])
		weights = append(weights, w[i])
	}

	const tp = 2 * math.Pi
	h, k := dh, dk
	hk := h * k
	bvn := 0.0

	if math.Abs(r) < 0.925 {
		hs := (h*h + k*k) / 2
		asr := math.Asin(r) / 2
		for i, t := range nodes {
			sn := math.Sin(asr * t)
			bvn += weights[i] * math.Exp((sn*hk-hs)/(1-sn*sn))
		}
		bvn = bvn*asr/tp + phi(-h)*phi(-k)
		return math.Max(0, math.Min(1, bvn))
	}

	if r < 0 {
		k = -k
		hk = -hk
	}
	if math.Abs(r) < 1 {
		as := 1 - r*r
		a := math.Sqrt(as)
		bs := (h - k) * (h - k)
		asr := -(bs/as + hk) / 2
		c := (4 - hk) / 8
		d := (12 - hk) / 80
		if asr > -100 {
			bvn = a * math.Exp(asr) * (1 - c*(bs-as)*(1-d*bs)/3 + c*d*as*as)
		}
		if hk > -100 {
			b := math.Sqrt(bs)
			sp := math.Sqrt(tp) * phi(-b/a)
			bvn -= math.Exp(-hk/2) * sp * b * (1 - c*bs*(1-d*bs)/3)
		}
		a /= 2
		var sum float64
		for i, t := range nodes {
			xs := (a * t) * (a * t)
			asr := -(bs/xs + hk) / 2
			if asr <= -100 {
				continue
			}
			sp := 1 + c*xs*(1+5*d*xs)
			rs := math.Sqrt(1 - xs)
			ep := math.Exp(-(hk/2)*xs/((1+rs)*(1+rs))) / rs
			sum += weights[i] * math.Exp(asr) * (sp - ep)
		}
		bvn = (a*sum - bvn) / tp
	}

	switch {
	case r > 0:
		bvn += phi(-math.Max(h, k))
	case h >= k:
		bvn = -bvn
	default:
		var l float64
		if h < 0 {
			l = phi(k) - phi(h)
		} else {
			l = phi(-h) - phi(-k)
		}
		bvn = l - bvn
	}
	return math.Max(0, math.Min(1, bvn))
}
