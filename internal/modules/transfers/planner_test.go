package transfers

import (
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/gaffer/internal/domain"
	"github.com/aristath/gaffer/internal/modules/lineup"
)

// makeSquad builds a valid 2-5-5-3 squad spread over five clubs, every
// player priced at 5.0.
func makeSquad() domain.Squad {
	positions := []domain.Position{
		domain.PositionGK, domain.PositionGK,
		domain.PositionDEF, domain.PositionDEF, domain.PositionDEF, domain.PositionDEF, domain.PositionDEF,
		domain.PositionMID, domain.PositionMID, domain.PositionMID, domain.PositionMID, domain.PositionMID,
		domain.PositionFWD, domain.PositionFWD, domain.PositionFWD,
	}
	players := make([]domain.Player, len(positions))
	for i, pos := range positions {
		players[i] = domain.Player{
			UID:      fmt.Sprintf("p%02d", i),
			Name:     fmt.Sprintf("Player %02d", i),
			TeamID:   int64(i/3 + 1),
			Team:     fmt.Sprintf("T%d", i/3+1),
			Position: pos,
			Price:    5.0,
		}
	}
	return domain.Squad{Players: players}
}

func makePoints() map[string]float64 {
	values := []float64{
		5.0, 4.0, // GK
		6.0, 5.0, 4.0, 1.0, 0.5, // DEF
		9.0, 8.0, 7.0, 2.0, 0.4, // MID
		10.0, 3.0, 0.2, // FWD
	}
	points := make(map[string]float64, len(values))
	for i, v := range values {
		points[fmt.Sprintf("p%02d", i)] = v
	}
	return points
}

func star(price float64, teamID int64) domain.Player {
	return domain.Player{
		UID:         "star",
		Name:        "Star",
		TeamID:      teamID,
		Team:        fmt.Sprintf("T%d", teamID),
		Position:    domain.PositionFWD,
		Price:       price,
		HorizonXPts: 80.0,
	}
}

func newTestPlanner(opts Options) *Planner {
	return NewPlanner(opts, lineup.NewSelector(lineup.DefaultOptions(), zerolog.Nop()), zerolog.Nop())
}

func TestPlanCommitsBestSwap(t *testing.T) {
	p := newTestPlanner(DefaultOptions())

	// The star is affordable only at the exact boundary: bank 2.0 plus the
	// 5.0 sale covers the 7.0 price with nothing to spare.
	in := star(7.0, 8)
	points := map[int]map[string]float64{1: makePoints()}
	points[1]["star"] = 12.0

	plan, err := p.Plan(makeSquad(), 2.0, []domain.Player{in}, []int{1, 2}, points)
	require.NoError(t, err)
	require.Len(t, plan.Decisions, 2)

	first := plan.Decisions[0]
	assert.Equal(t, 1, first.Gameweek)
	assert.Equal(t, "BUY Star / SELL Player 14", first.Action)
	require.NotNil(t, first.Buy)
	require.NotNil(t, first.Sell)
	assert.Equal(t, "star", first.Buy.UID)
	assert.Equal(t, "p14", first.Sell.UID)
	assert.InDelta(t, 0.0, first.BankAfter, 1e-9)
	assert.InDelta(t, 60.0, first.BaseXIPts, 1e-9)
	assert.InDelta(t, 71.0, first.NewXIPts, 1e-9)
	assert.InDelta(t, 11.0, first.Gain, 1e-9)

	// No projections exist for gameweek 2, so nothing can improve on zero.
	second := plan.Decisions[1]
	assert.True(t, second.IsHold())
	assert.Equal(t, domain.ActionHold, second.Action)
	assert.InDelta(t, 0.0, second.BankAfter, 1e-9)

	assert.True(t, plan.FinalSquad.Contains("star"))
	assert.False(t, plan.FinalSquad.Contains("p14"))
	assert.InDelta(t, 0.0, plan.FinalBank, 1e-9)
	assert.NoError(t, plan.FinalSquad.Validate(domain.DefaultQuotas(), 3))
}

func TestPlanHoldsWhenUnaffordable(t *testing.T) {
	p := newTestPlanner(DefaultOptions())

	in := star(7.5, 8) // one tick past bank + sale price
	points := map[int]map[string]float64{1: makePoints()}
	points[1]["star"] = 12.0

	plan, err := p.Plan(makeSquad(), 2.0, []domain.Player{in}, []int{1}, points)
	require.NoError(t, err)
	require.Len(t, plan.Decisions, 1)

	assert.True(t, plan.Decisions[0].IsHold())
	assert.InDelta(t, 2.0, plan.FinalBank, 1e-9)
}

func TestPlanHoldsWhenClubCapWouldBreak(t *testing.T) {
	p := newTestPlanner(DefaultOptions())

	// Club 1 already fields three players; every forward slot belongs to
	// club 5, so any swap would push club 1 to four.
	in := star(5.0, 1)
	points := map[int]map[string]float64{1: makePoints()}
	points[1]["star"] = 12.0

	plan, err := p.Plan(makeSquad(), 5.0, []domain.Player{in}, []int{1}, points)
	require.NoError(t, err)

	assert.True(t, plan.Decisions[0].IsHold())
}

func TestPlanSkipsOwnedPlayers(t *testing.T) {
	p := newTestPlanner(DefaultOptions())

	squad := makeSquad()
	owned := squad.Players[12]
	owned.HorizonXPts = 80.0

	points := map[int]map[string]float64{1: makePoints()}
	points[1][owned.UID] = 100.0

	plan, err := p.Plan(squad, 5.0, []domain.Player{owned}, []int{1}, points)
	require.NoError(t, err)

	assert.True(t, plan.Decisions[0].IsHold())
}

func TestPlanPrunesMarketByGameweekValue(t *testing.T) {
	opts := DefaultOptions()
	opts.TopK = 1
	p := newTestPlanner(opts)

	// The explosive short-term pick must survive pruning on the strength of
	// this week's projection alone, even though the steady forward dwarfs it
	// over the horizon.
	steady := domain.Player{
		UID: "steady", Name: "Steady", TeamID: 8, Team: "T8",
		Position: domain.PositionFWD, Price: 5.0, HorizonXPts: 50.0,
	}
	burst := domain.Player{
		UID: "burst", Name: "Burst", TeamID: 9, Team: "T9",
		Position: domain.PositionFWD, Price: 5.0, HorizonXPts: 10.0,
	}
	points := map[int]map[string]float64{1: makePoints()}
	points[1]["burst"] = 12.0

	plan, err := p.Plan(makeSquad(), 5.0, []domain.Player{steady, burst}, []int{1}, points)
	require.NoError(t, err)

	first := plan.Decisions[0]
	assert.Equal(t, "BUY Burst / SELL Player 14", first.Action)
	require.NotNil(t, first.Buy)
	assert.Equal(t, "burst", first.Buy.UID)
	assert.InDelta(t, 11.0, first.Gain, 1e-9)
	assert.True(t, plan.FinalSquad.Contains("burst"))
	assert.False(t, plan.FinalSquad.Contains("steady"))
}

func TestPlanPropagatesLineupErrors(t *testing.T) {
	p := newTestPlanner(DefaultOptions())

	short := makeSquad()
	short.Players = short.Players[:14]

	_, err := p.Plan(short, 0, nil, []int{1}, nil)
	require.Error(t, err)

	var valErr *domain.ValidationError
	assert.ErrorAs(t, err, &valErr)
}

func TestPruneMarketOrdering(t *testing.T) {
	// Horizon values are deliberately inverted: ranking follows the
	// gameweek's points, not the long-run value.
	market := []domain.Player{
		{UID: "b", Position: domain.PositionMID, HorizonXPts: 99},
		{UID: "a", Position: domain.PositionMID, HorizonXPts: 20},
		{UID: "c", Position: domain.PositionMID, HorizonXPts: 1},
		{UID: "d", Position: domain.PositionDEF, HorizonXPts: 5},
	}
	points := map[string]float64{"a": 20, "b": 20, "c": 30}

	pruned := pruneMarket(market, points, 2)

	mids := pruned[domain.PositionMID]
	require.Len(t, mids, 2)
	assert.Equal(t, "c", mids[0].UID)
	assert.Equal(t, "a", mids[1].UID) // tie broken toward the smaller uid
	assert.Len(t, pruned[domain.PositionDEF], 1) // "d" has no projection, still kept
}
