package selector

import (
	"math"
	"math/rand"
)

// sampleBeta draws one sample from Beta(alpha, beta) as the ratio of two
// Gamma draws, the same approach the original mesh optimizer used
// (Marsaglia-Tsang gamma-ratio method).
func sampleBeta(rng *rand.Rand, alpha, beta float64) float64 {
	x := sampleGamma(rng, alpha)
	y := sampleGamma(rng, beta)
	if x+y <= 0 {
		return 0.5
	}
	return x / (x + y)
}

// sampleGamma draws one sample from Gamma(shape, 1) using Marsaglia and
// Tsang's method. shape must be > 0.
func sampleGamma(rng *rand.Rand, shape float64) float64 {
	if shape < 1 {
		// Boost shape by 1 and correct with a uniform power, per
		// Marsaglia-Tsang's handling of shape < 1.
		u := rng.Float64()
		return sampleGamma(rng, shape+1) * math.Pow(u, 1.0/shape)
	}

	d := shape - 1.0/3.0
	c := 1.0 / math.Sqrt(9.0*d)

	for {
		x := rng.NormFloat64()
		v := 1.0 + c*x
		if v <= 0 {
			continue
		}
		v = v * v * v
		u := rng.Float64()

		if u < 1.0-0.0331*(x*x)*(x*x) {
			return d * v
		}
		if math.Log(u) < 0.5*x*x+d*(1.0-v+math.Log(v)) {
			return d * v
		}
	}
}
