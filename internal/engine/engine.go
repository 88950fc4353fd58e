// Package engine wires the pipeline together: market data to candidate
// pool, pool to squad, squad to lineups and transfer plans. It is the one
// layer that touches both the repositories and the selectors, so HTTP
// handlers and the replan scheduler stay thin.
package engine

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/gaffer/internal/domain"
	"github.com/aristath/gaffer/internal/features"
	"github.com/aristath/gaffer/internal/modules/lineup"
	"github.com/aristath/gaffer/internal/modules/market"
	"github.com/aristath/gaffer/internal/modules/pool"
	"github.com/aristath/gaffer/internal/modules/squad"
	"github.com/aristath/gaffer/internal/modules/transfers"
)

// Engine runs the optimization pipeline against stored market data
type Engine struct {
	market  *market.Repository
	plans   *transfers.Repository
	pool    *pool.Builder
	squad   *squad.Selector
	lineup  *lineup.Selector
	planner *transfers.Planner
	budget  float64
	log     zerolog.Logger
}

// New creates an engine
func New(
	marketRepo *market.Repository,
	planRepo *transfers.Repository,
	poolBuilder *pool.Builder,
	squadSelector *squad.Selector,
	lineupSelector *lineup.Selector,
	planner *transfers.Planner,
	budget float64,
	log zerolog.Logger,
) *Engine {
	return &Engine{
		market:  marketRepo,
		plans:   planRepo,
		pool:    poolBuilder,
		squad:   squadSelector,
		lineup:  lineupSelector,
		planner: planner,
		budget:  budget,
		log:     log.With().Str("component", "engine").Logger(),
	}
}

// PlayerHistory is raw observed data for one player: identity, appearance
// history in gameweek order, and upcoming fixture difficulty ratings keyed
// by gameweek.
type PlayerHistory struct {
	Key      string                `json:"player_key"`
	SeasonID string                `json:"player_id"`
	Name     string                `json:"web_name"`
	Team     string                `json:"team_short"`
	TeamID   int64                 `json:"team_id"`
	Position string                `json:"position"`
	Price    float64               `json:"now_cost"`
	History  []features.Appearance `json:"history"`
	Fixtures map[int][]int         `json:"fixtures"`
}

// IngestHistory derives projections from raw appearance history and stores
// the resulting market rows. Each player's recency baseline is scaled by
// the fixture factor of every upcoming gameweek; reliability lands on the
// player row for squad selection.
func (e *Engine) IngestHistory(players []PlayerHistory) (int, error) {
	rows := make([]market.PlayerRow, 0, len(players))
	var projections []market.ProjectionRow

	for _, p := range players {
		baseline := features.RecencyBaseline(p.History, features.DefaultAlpha)

		rows = append(rows, market.PlayerRow{
			Key:         p.Key,
			SeasonID:    p.SeasonID,
			Name:        p.Name,
			Team:        p.Team,
			TeamID:      p.TeamID,
			Position:    p.Position,
			Price:       p.Price,
			Reliability: baseline.Reliability,
		})

		factors := make(map[int]float64, len(p.Fixtures))
		for gw, fdrs := range p.Fixtures {
			factors[gw] = features.FixtureFactor(fdrs)
		}
		for gw, xpts := range features.Project(baseline, factors) {
			projections = append(projections, market.ProjectionRow{
				Key:      p.Key,
				Gameweek: gw,
				XPts:     xpts,
			})
		}
	}

	if err := e.market.UpsertPlayers(rows); err != nil {
		return 0, fmt.Errorf("failed to store players: %w", err)
	}
	if err := e.market.UpsertProjections(projections); err != nil {
		return 0, fmt.Errorf("failed to store projections: %w", err)
	}

	e.log.Info().
		Int("players", len(rows)).
		Int("projections", len(projections)).
		Msg("Ingested player history")
	return len(projections), nil
}

// SquadResult is an optimized squad plus the rows lost shaping its pool
type SquadResult struct {
	Squad     domain.Squad `json:"squad"`
	Objective float64      `json:"objective"`
	Optimal   bool         `json:"optimal"`
	Dropped   int          `json:"dropped_rows"`
	Unmatched int          `json:"unmatched_players"`
}

// BuildPool shapes stored market data for the gameweek window into a clean
// candidate pool.
func (e *Engine) BuildPool(fromGW, toGW int) ([]domain.Player, int, int, error) {
	table, unmatched, err := e.market.CandidateTable(fromGW, toGW)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("failed to load candidate table: %w", err)
	}
	res, err := e.pool.Build(table)
	if err != nil {
		return nil, 0, 0, err
	}
	return res.Players, res.Dropped, unmatched, nil
}

// OptimizeSquad builds the pool for the window and selects the best squad.
func (e *Engine) OptimizeSquad(fromGW, toGW int) (SquadResult, error) {
	players, dropped, unmatched, err := e.BuildPool(fromGW, toGW)
	if err != nil {
		return SquadResult{}, err
	}

	res, err := e.squad.Select(players)
	if err != nil {
		return SquadResult{}, err
	}
	return SquadResult{
		Squad:     res.Squad,
		Objective: res.Objective,
		Optimal:   res.Optimal,
		Dropped:   dropped,
		Unmatched: unmatched,
	}, nil
}

// PickLineup picks the starting eleven for one gameweek using stored
// projections.
func (e *Engine) PickLineup(s domain.Squad, gameweek int) (domain.Lineup, error) {
	points, err := e.market.GameweekPoints(gameweek)
	if err != nil {
		return domain.Lineup{}, err
	}
	return e.lineup.Pick(s, gameweek, points)
}

// PlanTransfers plans one swap per gameweek across the window starting from
// the given squad and bank, persists the run, and returns the stored record.
func (e *Engine) PlanTransfers(s domain.Squad, bank float64, fromGW, toGW int) (*transfers.PlanRecord, error) {
	players, _, _, err := e.BuildPool(fromGW, toGW)
	if err != nil {
		return nil, err
	}
	points, err := e.market.PointsWindow(fromGW, toGW)
	if err != nil {
		return nil, err
	}

	gameweeks := make([]int, 0, toGW-fromGW+1)
	for gw := fromGW; gw <= toGW; gw++ {
		gameweeks = append(gameweeks, gw)
	}

	plan, err := e.planner.Plan(s, bank, players, gameweeks, points)
	if err != nil {
		return nil, err
	}

	id, err := e.plans.Save(plan, fromGW, toGW)
	if err != nil {
		return nil, err
	}
	record, err := e.plans.Latest()
	if err != nil {
		return nil, err
	}
	if record == nil || record.ID != id {
		// Another run landed between save and load; re-read by freshness is
		// still correct for callers, but log it.
		e.log.Warn().Str("plan_id", id).Msg("Saved plan superseded before read-back")
	}
	return record, nil
}

// ReplanAuto replans over the earliest stored gameweek window of the given
// horizon length. A market with no projections is skipped, not an error, so
// the scheduled job stays quiet until data arrives.
func (e *Engine) ReplanAuto(horizon int) error {
	lo, hi, ok, err := e.market.GameweekRange()
	if err != nil {
		return err
	}
	if !ok {
		e.log.Warn().Msg("No projections stored, skipping replan")
		return nil
	}
	to := lo + horizon - 1
	if to > hi {
		to = hi
	}
	return e.Replan(lo, to)
}

// Replan runs the full pipeline from scratch: optimize a squad for the
// window, then plan transfers across it with the leftover budget as bank.
// Used by the scheduled replan job.
func (e *Engine) Replan(fromGW, toGW int) error {
	res, err := e.OptimizeSquad(fromGW, toGW)
	if err != nil {
		return fmt.Errorf("failed to optimize squad: %w", err)
	}

	bank := e.budget - res.Squad.TotalPrice()
	if _, err := e.PlanTransfers(res.Squad, bank, fromGW, toGW); err != nil {
		return fmt.Errorf("failed to plan transfers: %w", err)
	}

	e.log.Info().
		Int("from_gw", fromGW).
		Int("to_gw", toGW).
		Float64("bank", bank).
		Msg("Replan complete")
	return nil
}
