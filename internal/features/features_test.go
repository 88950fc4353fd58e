package features

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEWMA(t *testing.T) {
	assert.Zero(t, EWMA(nil, DefaultAlpha))
	assert.InDelta(t, 5.0, EWMA([]float64{5}, DefaultAlpha), 1e-9)

	// Seeded with 2, then 0.3*4 + 0.7*2 = 2.6
	assert.InDelta(t, 2.6, EWMA([]float64{2, 4}, 0.3), 1e-9)
}

func TestRecencyBaseline(t *testing.T) {
	t.Run("empty history", func(t *testing.T) {
		assert.Zero(t, RecencyBaseline(nil, DefaultAlpha))
	})

	t.Run("ever-present starter", func(t *testing.T) {
		history := []Appearance{
			{Points: 6, Minutes: 90, Started: true},
			{Points: 8, Minutes: 90, Started: true},
		}
		b := RecencyBaseline(history, 0.3)

		assert.InDelta(t, 6.6, b.XPts, 1e-9)
		assert.InDelta(t, 1.0, b.Reliability, 1e-9)
	})

	t.Run("benchwarmer", func(t *testing.T) {
		history := []Appearance{
			{Points: 1, Minutes: 10, Started: false},
			{Points: 0, Minutes: 0, Started: false},
		}
		b := RecencyBaseline(history, 0.3)

		// start EWMA 0, minutes EWMA 7.0 -> 0.4 * 7/90
		assert.InDelta(t, 0.4*7.0/90.0, b.Reliability, 1e-9)
	})

	t.Run("minutes share clamped", func(t *testing.T) {
		history := []Appearance{{Points: 2, Minutes: 120, Started: true}}
		b := RecencyBaseline(history, 0.3)

		assert.InDelta(t, 1.0, b.Reliability, 1e-9)
	})
}

func TestFixtureFactor(t *testing.T) {
	tests := []struct {
		name string
		fdrs []int
		want float64
	}{
		{"blank gameweek", nil, 0},
		{"easiest fixture", []int{1}, 1.30},
		{"neutral fixture", []int{3}, 1.00},
		{"hardest fixture", []int{5}, 0.70},
		{"double gameweek averages", []int{2, 4}, 1.00},
		{"unknown rating is neutral", []int{9}, 1.00},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, FixtureFactor(tt.fdrs), 1e-9)
		})
	}
}

func TestProject(t *testing.T) {
	b := Baseline{XPts: 5.0}
	factors := map[int]float64{1: 1.30, 2: 0.0, 3: 1.00}

	out := Project(b, factors)

	assert.InDelta(t, 6.5, out[1], 1e-9)
	assert.Zero(t, out[2])
	assert.InDelta(t, 5.0, out[3], 1e-9)
}
