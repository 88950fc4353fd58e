// Package features derives projection inputs from raw per-gameweek history:
// a recency-weighted scoring baseline, a playing-time reliability estimate,
// and fixture-difficulty scaling factors.
package features

// DefaultAlpha is the smoothing factor for recency averages. Higher values
// weight recent gameweeks more heavily.
const DefaultAlpha = 0.30

// Appearance is one observed gameweek for a player
type Appearance struct {
	Points  float64
	Minutes float64
	Started bool
}

// Baseline is a player's per-gameweek expectation derived from history
type Baseline struct {
	XPts        float64 // Expected points for a neutral fixture
	Reliability float64 // Playing-time confidence in [0, 1]
}

// EWMA returns the exponentially weighted moving average of values, seeded
// with the first observation. Returns 0 for an empty series.
func EWMA(values []float64, alpha float64) float64 {
	if len(values) == 0 {
		return 0
	}
	avg := values[0]
	for _, v := range values[1:] {
		avg = alpha*v + (1-alpha)*avg
	}
	return avg
}

// RecencyBaseline condenses a player's appearance history into a scoring
// baseline and reliability. Reliability blends how often the player starts
// with how close their recent minutes run to a full match:
// 0.6 x start-rate EWMA + 0.4 x clip(minutes EWMA / 90).
func RecencyBaseline(history []Appearance, alpha float64) Baseline {
	if len(history) == 0 {
		return Baseline{}
	}

	points := make([]float64, len(history))
	minutes := make([]float64, len(history))
	starts := make([]float64, len(history))
	for i, a := range history {
		points[i] = a.Points
		minutes[i] = a.Minutes
		if a.Started {
			starts[i] = 1
		}
	}

	minutesShare := EWMA(minutes, alpha) / 90.0
	if minutesShare > 1 {
		minutesShare = 1
	} else if minutesShare < 0 {
		minutesShare = 0
	}

	return Baseline{
		XPts:        EWMA(points, alpha),
		Reliability: 0.6*EWMA(starts, alpha) + 0.4*minutesShare,
	}
}

// Project spreads a baseline over fixture factors keyed by gameweek. A
// factor of zero (blank gameweek) zeroes the projection.
func Project(b Baseline, factors map[int]float64) map[int]float64 {
	out := make(map[int]float64, len(factors))
	for gw, f := range factors {
		out[gw] = b.XPts * f
	}
	return out
}
