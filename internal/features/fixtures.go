package features

import "gonum.org/v1/gonum/stat"

// fdrFactors maps fixture difficulty ratings to scaling factors. Easier
// fixtures inflate a baseline, harder ones deflate it.
var fdrFactors = map[int]float64{
	1: 1.30,
	2: 1.15,
	3: 1.00,
	4: 0.85,
	5: 0.70,
}

// FactorForFDR returns the scaling factor for one fixture. Ratings outside
// 1..5 are treated as neutral.
func FactorForFDR(fdr int) float64 {
	if f, ok := fdrFactors[fdr]; ok {
		return f
	}
	return 1.00
}

// FixtureFactor returns the scaling factor for one gameweek given the
// difficulty ratings of its fixtures. Double gameweeks average their
// factors; a blank gameweek (no fixtures) returns 0, zeroing the
// projection.
func FixtureFactor(fdrs []int) float64 {
	if len(fdrs) == 0 {
		return 0
	}
	factors := make([]float64, len(fdrs))
	for i, fdr := range fdrs {
		factors[i] = FactorForFDR(fdr)
	}
	return stat.Mean(factors, nil)
}
