package squad

import (
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/gaffer/internal/domain"
)

// makePool builds a deterministic 40-player pool spread over ten clubs with
// enough depth in every position to fill the default composition.
func makePool() []domain.Player {
	specs := []struct {
		pos  domain.Position
		n    int
		base float64
	}{
		{domain.PositionGK, 8, 4.0},
		{domain.PositionDEF, 12, 4.0},
		{domain.PositionMID, 12, 5.0},
		{domain.PositionFWD, 8, 5.5},
	}

	var pool []domain.Player
	i := 0
	for _, sp := range specs {
		for k := 0; k < sp.n; k++ {
			i++
			pool = append(pool, domain.Player{
				UID:         fmt.Sprintf("p%02d", i),
				Name:        fmt.Sprintf("Player %02d", i),
				TeamID:      int64(i%10 + 1),
				Team:        fmt.Sprintf("T%d", i%10+1),
				Position:    sp.pos,
				Price:       sp.base + 0.5*float64(k%5),
				HorizonXPts: 10 + 1.5*float64(k),
				Reliability: 0.5 + 0.05*float64(k%10),
			})
		}
	}
	return pool
}

func newTestSelector(opts Options) *Selector {
	return NewSelector(opts, zerolog.Nop())
}

func TestSelectBuildsValidSquad(t *testing.T) {
	s := newTestSelector(DefaultOptions())

	res, err := s.Select(makePool())
	require.NoError(t, err)

	assert.True(t, res.Optimal)
	assert.Len(t, res.Squad.Players, 15)
	assert.NoError(t, res.Squad.Validate(domain.DefaultQuotas(), 3))
	assert.LessOrEqual(t, res.Squad.TotalPrice(), 100.0+1e-9)
	assert.Greater(t, res.Objective, 0.0)
}

func TestSelectDeterministic(t *testing.T) {
	s := newTestSelector(DefaultOptions())
	pool := makePool()

	first, err := s.Select(pool)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		res, err := s.Select(pool)
		require.NoError(t, err)
		assert.Equal(t, first.Squad, res.Squad)
		assert.InDelta(t, first.Objective, res.Objective, 1e-9)
	}
}

func TestSelectBudgetMonotonic(t *testing.T) {
	tight := DefaultOptions()
	tight.Budget = 85.0
	loose := DefaultOptions()
	loose.Budget = 100.0

	pool := makePool()

	tightRes, err := newTestSelector(tight).Select(pool)
	require.NoError(t, err)
	looseRes, err := newTestSelector(loose).Select(pool)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, looseRes.Objective, tightRes.Objective-1e-9)
}

func TestSelectInfeasible(t *testing.T) {
	t.Run("pool too small", func(t *testing.T) {
		s := newTestSelector(DefaultOptions())
		_, err := s.Select(makePool()[:10])

		var infErr *domain.InfeasibleError
		require.ErrorAs(t, err, &infErr)
	})

	t.Run("budget starved", func(t *testing.T) {
		opts := DefaultOptions()
		opts.Budget = 20.0
		s := newTestSelector(opts)

		_, err := s.Select(makePool())

		var infErr *domain.InfeasibleError
		require.ErrorAs(t, err, &infErr)
		assert.Contains(t, infErr.Error(), "budget=20.0")
	})

	t.Run("club cap starved", func(t *testing.T) {
		// A single-club pool can satisfy the quotas but never the cap.
		pool := makePool()[:15]
		quotaFill := []domain.Position{
			domain.PositionGK, domain.PositionGK,
			domain.PositionDEF, domain.PositionDEF, domain.PositionDEF, domain.PositionDEF, domain.PositionDEF,
			domain.PositionMID, domain.PositionMID, domain.PositionMID, domain.PositionMID, domain.PositionMID,
			domain.PositionFWD, domain.PositionFWD, domain.PositionFWD,
		}
		for i := range pool {
			pool[i].TeamID = 1
			pool[i].Team = "T1"
			pool[i].Position = quotaFill[i]
		}

		_, err := newTestSelector(DefaultOptions()).Select(pool)

		var infErr *domain.InfeasibleError
		require.ErrorAs(t, err, &infErr)
	})
}

func TestScoreBlendsReliability(t *testing.T) {
	player := domain.Player{HorizonXPts: 40.0, Reliability: 0.5}

	tests := []struct {
		name   string
		weight float64
		rel    float64
		want   float64
	}{
		{"zero weight ignores reliability", 0.0, 0.5, 40.0},
		{"full reliability keeps full value", 0.3, 1.0, 40.0},
		{"zero reliability keeps the floor", 0.3, 0.0, 28.0},
		{"half reliability splits the band", 0.3, 0.5, 34.0},
		{"reliability clamped to unit range", 0.3, 1.7, 40.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			opts.ReliabilityWeight = tt.weight
			s := newTestSelector(opts)

			p := player
			p.Reliability = tt.rel
			assert.InDelta(t, tt.want, s.Score(p), 1e-9)
		})
	}
}
