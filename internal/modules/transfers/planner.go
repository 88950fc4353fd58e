// Package transfers plans single-swap squad changes across a horizon of
// gameweeks: one greedy, committed decision per gameweek, threaded through
// the bank and squad state it leaves behind.
package transfers

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/aristath/gaffer/internal/domain"
	"github.com/aristath/gaffer/internal/modules/lineup"
)

// A candidate swap must beat the running best by this margin; ties keep the
// earliest-considered candidate, which keeps plans reproducible.
const gainEpsilon = 1e-9

// Options controls transfer planning
type Options struct {
	TopK    int // Market candidates kept per position before swap enumeration
	ClubCap int
}

// DefaultOptions returns the standard planning parameters.
func DefaultOptions() Options {
	return Options{
		TopK:    60,
		ClubCap: 3,
	}
}

// Planner evaluates one swap per gameweek against the lineup objective
type Planner struct {
	opts   Options
	lineup *lineup.Selector
	log    zerolog.Logger
}

// NewPlanner creates a transfer planner
func NewPlanner(opts Options, lineupSelector *lineup.Selector, log zerolog.Logger) *Planner {
	return &Planner{
		opts:   opts,
		lineup: lineupSelector,
		log:    log.With().Str("component", "transfers").Logger(),
	}
}

// Plan walks the gameweeks in order. Each gameweek it measures the baseline
// lineup objective, enumerates affordable same-position swaps against the
// market pruned to that week's best projections, and commits the single best
// strictly-improving swap, or a HOLD when none exists. Committed state (squad and bank) feeds the next
// gameweek; decisions are immutable once recorded.
func (p *Planner) Plan(squad domain.Squad, bank float64, market []domain.Player, gameweeks []int, points map[int]map[string]float64) (domain.TransferPlan, error) {
	current := squad.Clone()
	plan := domain.TransferPlan{
		Decisions: make([]domain.TransferDecision, 0, len(gameweeks)),
	}

	for _, gw := range gameweeks {
		gwPoints := points[gw]
		pruned := pruneMarket(market, gwPoints, p.opts.TopK)

		base, err := p.lineup.Pick(current, gw, gwPoints)
		if err != nil {
			return domain.TransferPlan{}, fmt.Errorf("failed to pick baseline lineup for gw %d: %w", gw, err)
		}

		var (
			bestGain  float64
			bestSquad domain.Squad
			bestNewXI float64
			bestOut   domain.Player
			bestIn    domain.Player
			found     bool
		)

		for i, out := range current.Players {
			for _, in := range pruned[out.Position] {
				if current.Contains(in.UID) {
					continue
				}
				// Boundary is affordable: buying at exactly bank + sale
				// proceeds is allowed.
				if in.Price > bank+out.Price {
					continue
				}

				hypothetical := current.Replace(i, in)
				if exceedsClubCap(hypothetical, p.opts.ClubCap) {
					continue
				}

				trial, err := p.lineup.Pick(hypothetical, gw, gwPoints)
				if err != nil {
					return domain.TransferPlan{}, fmt.Errorf("failed to evaluate swap for gw %d: %w", gw, err)
				}

				gain := trial.Objective - base.Objective
				if gain > bestGain+gainEpsilon {
					bestGain = gain
					bestSquad = hypothetical
					bestNewXI = trial.Objective
					bestOut = out
					bestIn = in
					found = true
				}
			}
		}

		var decision domain.TransferDecision
		if found {
			bank += bestOut.Price - bestIn.Price
			current = bestSquad
			decision = domain.TransferDecision{
				Gameweek:  gw,
				Action:    fmt.Sprintf("BUY %s / SELL %s", bestIn.Name, bestOut.Name),
				Buy:       transferLeg(bestIn),
				Sell:      transferLeg(bestOut),
				BankAfter: bank,
				BaseXIPts: base.Objective,
				NewXIPts:  bestNewXI,
				Gain:      bestGain,
			}
			p.log.Info().
				Int("gw", gw).
				Str("buy", bestIn.Name).
				Str("sell", bestOut.Name).
				Float64("gain", bestGain).
				Float64("bank", bank).
				Msg("Committed transfer")
		} else {
			decision = domain.TransferDecision{
				Gameweek:  gw,
				Action:    domain.ActionHold,
				BankAfter: bank,
				BaseXIPts: base.Objective,
				NewXIPts:  base.Objective,
			}
			p.log.Debug().Int("gw", gw).Msg("No improving swap, holding")
		}
		plan.Decisions = append(plan.Decisions, decision)
	}

	plan.FinalSquad = current
	plan.FinalBank = bank
	return plan, nil
}

// pruneMarket keeps the top-k candidates per position by the given
// gameweek's projected points (missing projections count as zero), breaking
// ties toward the lexically smaller uid so the enumeration order is stable
// across runs. Ranking per gameweek matters: a player with a big week but a
// modest horizon must survive into that week's enumeration.
func pruneMarket(market []domain.Player, points map[string]float64, k int) map[domain.Position][]domain.Player {
	byPos := make(map[domain.Position][]domain.Player, 4)
	for _, p := range market {
		byPos[p.Position] = append(byPos[p.Position], p)
	}
	for pos, players := range byPos {
		sort.SliceStable(players, func(a, b int) bool {
			pa, pb := points[players[a].UID], points[players[b].UID]
			if pa != pb {
				return pa > pb
			}
			return players[a].UID < players[b].UID
		})
		if k > 0 && len(players) > k {
			byPos[pos] = players[:k]
		}
	}
	return byPos
}

func exceedsClubCap(s domain.Squad, limit int) bool {
	for _, n := range s.ClubCounts() {
		if n > limit {
			return true
		}
	}
	return false
}

func transferLeg(p domain.Player) *domain.TransferLeg {
	return &domain.TransferLeg{
		UID:      p.UID,
		Name:     p.Name,
		Team:     p.Team,
		Position: p.Position,
		Price:    p.Price,
	}
}
