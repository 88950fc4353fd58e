// Package lineup picks the starting eleven, captaincy and bench order for a
// single gameweek from an already-selected squad.
package lineup

import (
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/gaffer/internal/domain"
	"github.com/aristath/gaffer/internal/solver"
)

// Minimums holds the formation floor for outfield starters. The keeper count
// is structural: exactly one starts, the other sits first on the bench.
type Minimums struct {
	DEF int
	MID int
	FWD int
}

// Options controls lineup selection
type Options struct {
	Quotas    domain.Quotas // Used to re-validate the incoming squad
	ClubCap   int
	Minimums  Minimums
	TimeLimit time.Duration
}

// DefaultOptions returns the standard formation floor (3-2-1).
func DefaultOptions() Options {
	return Options{
		Quotas:    domain.DefaultQuotas(),
		ClubCap:   3,
		Minimums:  Minimums{DEF: 3, MID: 2, FWD: 1},
		TimeLimit: 5 * time.Second,
	}
}

// Selector picks gameweek lineups
type Selector struct {
	opts Options
	log  zerolog.Logger
}

// NewSelector creates a lineup selector
func NewSelector(opts Options, log zerolog.Logger) *Selector {
	return &Selector{
		opts: opts,
		log:  log.With().Str("component", "lineup").Logger(),
	}
}

// Pick solves for the best starting eleven given per-player gameweek
// projections keyed by uid. Players without a projection count as zero. The
// squad is re-validated first and is never mutated.
func (s *Selector) Pick(squad domain.Squad, gameweek int, points map[string]float64) (domain.Lineup, error) {
	if err := squad.Validate(s.opts.Quotas, s.opts.ClubCap); err != nil {
		return domain.Lineup{}, err
	}

	n := len(squad.Players)
	objective := make([]float64, n)
	for i, p := range squad.Players {
		objective[i] = points[p.UID]
	}

	ones := make([]float64, n)
	for i := range ones {
		ones[i] = 1
	}
	posCoeffs := func(pos domain.Position) []float64 {
		coeffs := make([]float64, n)
		for i, p := range squad.Players {
			if p.Position == pos {
				coeffs[i] = 1
			}
		}
		return coeffs
	}

	constraints := []solver.Constraint{
		{Name: "starters", Coeffs: ones, Sense: solver.SenseEQ, RHS: 11},
		{Name: "keeper", Coeffs: posCoeffs(domain.PositionGK), Sense: solver.SenseEQ, RHS: 1},
		{Name: "min DEF", Coeffs: posCoeffs(domain.PositionDEF), Sense: solver.SenseGEQ, RHS: float64(s.opts.Minimums.DEF)},
		{Name: "min MID", Coeffs: posCoeffs(domain.PositionMID), Sense: solver.SenseGEQ, RHS: float64(s.opts.Minimums.MID)},
		{Name: "min FWD", Coeffs: posCoeffs(domain.PositionFWD), Sense: solver.SenseGEQ, RHS: float64(s.opts.Minimums.FWD)},
	}

	sol, err := solver.Solve(solver.Problem{Objective: objective, Constraints: constraints}, s.opts.TimeLimit)
	if err != nil {
		return domain.Lineup{}, fmt.Errorf("failed to solve lineup selection: %w", err)
	}
	switch sol.Status {
	case solver.StatusInfeasible:
		return domain.Lineup{}, &domain.InfeasibleError{
			Constraints: fmt.Sprintf("starters=11, keeper=1, minimums=%d/%d/%d",
				s.opts.Minimums.DEF, s.opts.Minimums.MID, s.opts.Minimums.FWD),
		}
	case solver.StatusTimeLimit:
		if sol.Selected == nil {
			return domain.Lineup{}, fmt.Errorf("time limit reached before any feasible lineup was found")
		}
	}

	lineup := domain.Lineup{
		Gameweek:  gameweek,
		Objective: sol.Objective,
		Optimal:   sol.Status == solver.StatusOptimal,
	}

	type benched struct {
		player domain.Player
		value  float64
	}
	var benchOutfield []benched

	// Starters keep squad order; captaincy ties resolve toward the earlier
	// squad slot.
	var haveCaptain, haveVice bool
	var captainVal, viceVal float64
	for i, p := range squad.Players {
		if !sol.Selected[i] {
			if p.Position == domain.PositionGK {
				lineup.BenchKeeper = p
			} else {
				benchOutfield = append(benchOutfield, benched{player: p, value: objective[i]})
			}
			continue
		}
		lineup.Starters = append(lineup.Starters, p)

		v := objective[i]
		switch {
		case !haveCaptain || v > captainVal:
			if haveCaptain {
				lineup.Vice = lineup.Captain
				viceVal = captainVal
				haveVice = true
			}
			lineup.Captain = p
			captainVal = v
			haveCaptain = true
		case !haveVice || v > viceVal:
			lineup.Vice = p
			viceVal = v
			haveVice = true
		}
	}

	sort.SliceStable(benchOutfield, func(a, b int) bool {
		return benchOutfield[a].value > benchOutfield[b].value
	})
	lineup.BenchOutfield = make([]domain.Player, len(benchOutfield))
	for i, b := range benchOutfield {
		lineup.BenchOutfield[i] = b.player
	}

	s.log.Debug().
		Int("gw", gameweek).
		Float64("objective", lineup.Objective).
		Str("captain", lineup.Captain.Name).
		Bool("optimal", lineup.Optimal).
		Msg("Picked lineup")

	return lineup, nil
}
