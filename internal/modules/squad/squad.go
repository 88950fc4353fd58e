// Package squad selects the full 15-man squad from a candidate pool by
// solving a binary assignment problem: pick the highest-scoring set of
// players that satisfies the composition, club and budget rules.
package squad

import (
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/gaffer/internal/domain"
	"github.com/aristath/gaffer/internal/solver"
)

// Options controls squad selection
type Options struct {
	Budget            float64
	Quotas            domain.Quotas
	ClubCap           int
	ReliabilityWeight float64 // Weight of playing-time confidence in the score, in [0,1]
	TimeLimit         time.Duration
}

// DefaultOptions returns the standard ruleset: 100.0 budget, 2-5-5-3
// composition, three players per club, and a 30% reliability blend.
func DefaultOptions() Options {
	return Options{
		Budget:            100.0,
		Quotas:            domain.DefaultQuotas(),
		ClubCap:           3,
		ReliabilityWeight: 0.30,
		TimeLimit:         10 * time.Second,
	}
}

// Result is a selected squad with the solver's verdict attached. Optimal is
// false when the time bound expired and the squad is only the best incumbent.
type Result struct {
	Squad     domain.Squad
	Objective float64
	Optimal   bool
}

// Selector builds and solves squad selection problems
type Selector struct {
	opts Options
	log  zerolog.Logger
}

// NewSelector creates a squad selector
func NewSelector(opts Options, log zerolog.Logger) *Selector {
	return &Selector{
		opts: opts,
		log:  log.With().Str("component", "squad").Logger(),
	}
}

// Score returns a player's selection score: horizon value discounted toward
// its reliability-weighted share. A fully reliable player keeps the full
// horizon value; an unreliable one keeps (1 - w) of it.
func (s *Selector) Score(p domain.Player) float64 {
	w := s.opts.ReliabilityWeight
	rel := p.Reliability
	if rel < 0 {
		rel = 0
	} else if rel > 1 {
		rel = 1
	}
	return p.HorizonXPts * ((1 - w) + w*rel)
}

// Select solves for the best squad over the pool. An infeasible constraint
// set surfaces a domain.InfeasibleError; a partial result is never returned
// in its place.
func (s *Selector) Select(pool []domain.Player) (Result, error) {
	if len(pool) < s.opts.Quotas.Size() {
		return Result{}, &domain.InfeasibleError{
			Constraints: fmt.Sprintf("pool of %d cannot fill %s", len(pool), s.constraintSummary()),
		}
	}

	n := len(pool)
	objective := make([]float64, n)
	for i, p := range pool {
		objective[i] = s.Score(p)
	}

	var constraints []solver.Constraint

	size := make([]float64, n)
	for i := range size {
		size[i] = 1
	}
	constraints = append(constraints, solver.Constraint{
		Name:   "squad size",
		Coeffs: size,
		Sense:  solver.SenseEQ,
		RHS:    float64(s.opts.Quotas.Size()),
	})

	for _, pos := range domain.Positions {
		coeffs := make([]float64, n)
		for i, p := range pool {
			if p.Position == pos {
				coeffs[i] = 1
			}
		}
		constraints = append(constraints, solver.Constraint{
			Name:   "quota " + string(pos),
			Coeffs: coeffs,
			Sense:  solver.SenseEQ,
			RHS:    float64(s.opts.Quotas.For(pos)),
		})
	}

	teams := make([]int64, 0)
	seen := make(map[int64]bool)
	for _, p := range pool {
		if !seen[p.TeamID] {
			seen[p.TeamID] = true
			teams = append(teams, p.TeamID)
		}
	}
	sort.Slice(teams, func(a, b int) bool { return teams[a] < teams[b] })
	for _, team := range teams {
		coeffs := make([]float64, n)
		for i, p := range pool {
			if p.TeamID == team {
				coeffs[i] = 1
			}
		}
		constraints = append(constraints, solver.Constraint{
			Name:   fmt.Sprintf("club cap %d", team),
			Coeffs: coeffs,
			Sense:  solver.SenseLEQ,
			RHS:    float64(s.opts.ClubCap),
		})
	}

	prices := make([]float64, n)
	for i, p := range pool {
		prices[i] = p.Price
	}
	constraints = append(constraints, solver.Constraint{
		Name:   "budget",
		Coeffs: prices,
		Sense:  solver.SenseLEQ,
		RHS:    s.opts.Budget,
	})

	sol, err := solver.Solve(solver.Problem{
		Objective:   objective,
		Constraints: constraints,
	}, s.opts.TimeLimit)
	if err != nil {
		return Result{}, fmt.Errorf("failed to solve squad selection: %w", err)
	}

	switch sol.Status {
	case solver.StatusInfeasible:
		return Result{}, &domain.InfeasibleError{Constraints: s.constraintSummary()}
	case solver.StatusTimeLimit:
		if sol.Selected == nil {
			return Result{}, fmt.Errorf("time limit reached before any feasible squad was found")
		}
	}

	players := make([]domain.Player, 0, s.opts.Quotas.Size())
	for i, picked := range sol.Selected {
		if picked {
			players = append(players, pool[i])
		}
	}
	result := Result{
		Squad:     domain.Squad{Players: players},
		Objective: sol.Objective,
		Optimal:   sol.Status == solver.StatusOptimal,
	}

	s.log.Info().
		Int("pool", len(pool)).
		Float64("objective", result.Objective).
		Float64("total_price", result.Squad.TotalPrice()).
		Bool("optimal", result.Optimal).
		Msg("Selected squad")

	return result, nil
}

func (s *Selector) constraintSummary() string {
	q := s.opts.Quotas
	return fmt.Sprintf("size=%d, quotas=%d/%d/%d/%d, club cap=%d, budget=%.1f",
		q.Size(), q.GK, q.DEF, q.MID, q.FWD, s.opts.ClubCap, s.opts.Budget)
}
