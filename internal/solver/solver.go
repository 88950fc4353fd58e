// Package solver provides a small 0/1 integer-program solver used by the
// squad and lineup selectors.
//
// The problems this service solves are binary assignment problems with a
// linear objective and linear constraints over non-negative coefficients
// (pick counts and prices), at most a few hundred variables, and tight
// cardinality constraints. That search space is well within reach of an
// exact branch-and-bound, so no external MILP library is required; the
// solver contract mirrors the black-box shape callers expect:
// solve(objective, constraints, time bound) -> (status, assignment).
package solver

import (
	"fmt"
	"sort"
	"time"
)

// Status is the outcome of a solve call. Callers must check it before
// trusting the assignment.
type Status int

const (
	// StatusOptimal means the returned assignment is proven optimal.
	StatusOptimal Status = iota
	// StatusInfeasible means no assignment satisfies the constraint set.
	StatusInfeasible
	// StatusTimeLimit means the time bound expired; the returned assignment
	// is the best incumbent found, not proven optimal.
	StatusTimeLimit
)

func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "Optimal"
	case StatusInfeasible:
		return "Infeasible"
	case StatusTimeLimit:
		return "TimeLimit"
	}
	return "Unknown"
}

// Sense is the direction of a linear constraint
type Sense int

const (
	SenseLEQ Sense = iota
	SenseGEQ
	SenseEQ
)

// Constraint is a linear constraint sum(coeffs[i] * x[i]) <sense> rhs.
// Coefficients must be non-negative; both feasibility pruning directions
// depend on that.
type Constraint struct {
	Name   string
	Coeffs []float64
	Sense  Sense
	RHS    float64
}

// Problem is a binary assignment problem: maximize sum(objective[i] * x[i])
// subject to the constraint set, x[i] in {0, 1}.
type Problem struct {
	Objective   []float64
	Constraints []Constraint
}

// Solution holds the solver outcome
type Solution struct {
	Status    Status
	Selected  []bool
	Objective float64
}

const (
	feasTol = 1e-6
	objTol  = 1e-9

	// Deadline checks are amortized over this many visited nodes.
	deadlineCheckInterval = 2048
)

// Solve runs branch-and-bound on the problem. A zero timeLimit means no
// bound. The search is deterministic for identical inputs: variables are
// explored in descending-objective order (stable on input index), and an
// incumbent is only replaced by a strictly better one, so ties keep the
// earliest-found assignment.
func Solve(p Problem, timeLimit time.Duration) (Solution, error) {
	n := len(p.Objective)
	if n == 0 {
		return Solution{}, fmt.Errorf("empty objective")
	}
	for _, c := range p.Constraints {
		if len(c.Coeffs) != n {
			return Solution{}, fmt.Errorf("constraint %q has %d coefficients, expected %d", c.Name, len(c.Coeffs), n)
		}
		for _, v := range c.Coeffs {
			if v < 0 {
				return Solution{}, fmt.Errorf("constraint %q has a negative coefficient", c.Name)
			}
		}
	}

	// Branch order: objective descending, input index ascending on ties.
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return p.Objective[order[a]] > p.Objective[order[b]]
	})

	// Suffix sums of constraint coefficients along the branch order: the
	// maximum a constraint's left-hand side can still grow from depth d.
	nc := len(p.Constraints)
	suffix := make([][]float64, nc)
	for ci, c := range p.Constraints {
		s := make([]float64, n+1)
		for d := n - 1; d >= 0; d-- {
			s[d] = s[d+1] + c.Coeffs[order[d]]
		}
		suffix[ci] = s
	}

	// Prefix sums of the positive objective along the branch order. Because
	// the order is objective-descending, the top-m remaining values from
	// depth d are exactly the next m entries, clamped at zero.
	posPrefix := make([]float64, n+1)
	for d := 0; d < n; d++ {
		v := p.Objective[order[d]]
		if v < 0 {
			v = 0
		}
		posPrefix[d+1] = posPrefix[d] + v
	}

	// Cardinality constraints (all-ones rows with LEQ/EQ sense) bound how
	// many more variables can be picked; that caps the objective bound.
	cardinality := make([]int, 0, 1)
	for ci, c := range p.Constraints {
		if c.Sense == SenseGEQ {
			continue
		}
		allOnes := true
		for _, v := range c.Coeffs {
			if v != 1 {
				allOnes = false
				break
			}
		}
		if allOnes {
			cardinality = append(cardinality, ci)
		}
	}

	var deadline time.Time
	if timeLimit > 0 {
		deadline = time.Now().Add(timeLimit)
	}

	st := &searchState{
		problem:     p,
		order:       order,
		suffix:      suffix,
		posPrefix:   posPrefix,
		cardinality: cardinality,
		lhs:         make([]float64, nc),
		chosen:      make([]bool, n),
		deadline:    deadline,
	}

	st.branch(0, 0)

	if st.timedOut {
		sol := Solution{Status: StatusTimeLimit}
		if st.hasIncumbent {
			sol.Selected = st.incumbent
			sol.Objective = st.incumbentObj
		}
		return sol, nil
	}
	if !st.hasIncumbent {
		return Solution{Status: StatusInfeasible}, nil
	}
	return Solution{
		Status:    StatusOptimal,
		Selected:  st.incumbent,
		Objective: st.incumbentObj,
	}, nil
}

type searchState struct {
	problem     Problem
	order       []int
	suffix      [][]float64
	posPrefix   []float64
	cardinality []int
	lhs         []float64
	chosen      []bool

	incumbent    []bool
	incumbentObj float64
	hasIncumbent bool

	deadline  time.Time
	nodeCount int
	timedOut  bool
}

// feasible checks whether the partial assignment at depth d can still be
// extended to a satisfying one.
func (st *searchState) feasible(d int) bool {
	for ci, c := range st.problem.Constraints {
		if c.Sense != SenseGEQ && st.lhs[ci] > c.RHS+feasTol {
			return false
		}
		if c.Sense != SenseLEQ && st.lhs[ci]+st.suffix[ci][d] < c.RHS-feasTol {
			return false
		}
	}
	return true
}

// bound returns an admissible upper bound on the objective reachable from
// depth d with the current partial objective.
func (st *searchState) bound(d int, cur float64) float64 {
	remaining := len(st.order) - d
	for _, ci := range st.cardinality {
		c := st.problem.Constraints[ci]
		slack := int(c.RHS - st.lhs[ci] + feasTol)
		if slack < remaining {
			remaining = slack
		}
	}
	if remaining <= 0 {
		return cur
	}
	end := d + remaining
	if end > len(st.order) {
		end = len(st.order)
	}
	return cur + st.posPrefix[end] - st.posPrefix[d]
}

func (st *searchState) branch(d int, cur float64) {
	if st.timedOut {
		return
	}
	st.nodeCount++
	if !st.deadline.IsZero() && st.nodeCount%deadlineCheckInterval == 0 && time.Now().After(st.deadline) {
		st.timedOut = true
		return
	}

	if !st.feasible(d) {
		return
	}
	if st.hasIncumbent && st.bound(d, cur) <= st.incumbentObj+objTol {
		return
	}
	if d == len(st.order) {
		// Feasibility pruning already enforced both constraint directions;
		// with nothing left to assign this is a satisfying assignment.
		if !st.hasIncumbent || cur > st.incumbentObj+objTol {
			st.incumbent = append([]bool(nil), st.chosen...)
			st.incumbentObj = cur
			st.hasIncumbent = true
		}
		return
	}

	v := st.order[d]

	// Include first: the descending-objective order makes the greedy branch
	// likely to produce a strong incumbent early.
	st.chosen[v] = true
	for ci, c := range st.problem.Constraints {
		st.lhs[ci] += c.Coeffs[v]
	}
	st.branch(d+1, cur+st.problem.Objective[v])
	st.chosen[v] = false
	for ci, c := range st.problem.Constraints {
		st.lhs[ci] -= c.Coeffs[v]
	}

	st.branch(d+1, cur)
}
