package pool

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/gaffer/internal/domain"
)

var testColumns = []string{
	"player_key", "player_id", "web_name", "team_short", "team_id",
	"position", "now_cost", "horizon_xpts", "mean_reliability",
}

func row(key, id, name, team string, teamID any, pos string, cost, xpts, rel any) []any {
	return []any{key, id, name, team, teamID, pos, cost, xpts, rel}
}

func newTestBuilder() *Builder {
	return NewBuilder(DefaultOptions(), zerolog.Nop())
}

func TestBuildMissingColumns(t *testing.T) {
	b := newTestBuilder()

	_, err := b.Build(Table{
		Columns: []string{"web_name", "position"},
		Rows:    nil,
	})
	require.Error(t, err)

	var schemaErr *domain.SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Contains(t, schemaErr.Missing, "now_cost")
	assert.Contains(t, schemaErr.Missing, "player_key|player_id")
	assert.NotContains(t, schemaErr.Missing, "web_name")
}

func TestBuildIdentifierPrefersImmutableKey(t *testing.T) {
	b := newTestBuilder()

	res, err := b.Build(Table{
		Columns: testColumns,
		Rows: [][]any{
			row("code-77", "id-5", "Salah", "LIV", 12, "MID", 12.9, 48.0, 0.95),
			row("", "id-9", "Haaland", "MCI", 13, "FWD", 14.5, 52.0, 0.93),
		},
	})
	require.NoError(t, err)
	require.Len(t, res.Players, 2)

	assert.Equal(t, "code-77", res.Players[0].UID)
	assert.Equal(t, "id-9", res.Players[1].UID)
	assert.Equal(t, 0, res.Dropped)
}

func TestBuildDropsInvalidRows(t *testing.T) {
	b := newTestBuilder()

	res, err := b.Build(Table{
		Columns: testColumns,
		Rows: [][]any{
			row("k1", "", "Keeper", "ARS", 1, "GKP", 4.5, 20.0, 0.9),
			row("", "", "NoID", "ARS", 1, "DEF", 5.0, 18.0, 0.8),
			row("k2", "", "Coach", "ARS", 1, "MGR", 5.0, 18.0, 0.8),
			row("k3", "", "TooCheap", "ARS", 1, "MID", 3.0, 10.0, 0.5),
			row("k4", "", "TooDear", "ARS", 1, "FWD", 16.0, 60.0, 0.99),
		},
	})
	require.NoError(t, err)

	require.Len(t, res.Players, 1)
	assert.Equal(t, "k1", res.Players[0].UID)
	assert.Equal(t, 4, res.Dropped)
}

func TestBuildCoercesNumericStrings(t *testing.T) {
	b := newTestBuilder()

	res, err := b.Build(Table{
		Columns: testColumns,
		Rows: [][]any{
			row("k1", "", "Saka", "ARS", "1", "MID", "8.5", "30.5", "not-a-number"),
		},
	})
	require.NoError(t, err)
	require.Len(t, res.Players, 1)

	p := res.Players[0]
	assert.Equal(t, int64(1), p.TeamID)
	assert.InDelta(t, 8.5, p.Price, 1e-9)
	assert.InDelta(t, 30.5, p.HorizonXPts, 1e-9)
	assert.Zero(t, p.Reliability)
}

func TestBuildDeduplicates(t *testing.T) {
	tests := []struct {
		name      string
		rows      [][]any
		wantXPts  float64
		wantPrice float64
	}{
		{
			name: "higher horizon value wins",
			rows: [][]any{
				row("k1", "", "Dup", "ARS", 1, "MID", 8.0, 20.0, 0.9),
				row("k1", "", "Dup", "ARS", 1, "MID", 8.0, 25.0, 0.9),
			},
			wantXPts:  25.0,
			wantPrice: 8.0,
		},
		{
			name: "equal value keeps lower price",
			rows: [][]any{
				row("k1", "", "Dup", "ARS", 1, "MID", 8.5, 20.0, 0.9),
				row("k1", "", "Dup", "ARS", 1, "MID", 8.0, 20.0, 0.9),
			},
			wantXPts:  20.0,
			wantPrice: 8.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newTestBuilder()
			res, err := b.Build(Table{Columns: testColumns, Rows: tt.rows})
			require.NoError(t, err)

			require.Len(t, res.Players, 1)
			assert.Equal(t, 1, res.Dropped)
			assert.InDelta(t, tt.wantXPts, res.Players[0].HorizonXPts, 1e-9)
			assert.InDelta(t, tt.wantPrice, res.Players[0].Price, 1e-9)
		})
	}
}

func TestBuildPreservesFirstSeenOrder(t *testing.T) {
	b := newTestBuilder()

	res, err := b.Build(Table{
		Columns: testColumns,
		Rows: [][]any{
			row("a", "", "First", "ARS", 1, "MID", 8.0, 10.0, 0.9),
			row("b", "", "Second", "LIV", 2, "DEF", 5.0, 12.0, 0.9),
			row("a", "", "First", "ARS", 1, "MID", 8.0, 30.0, 0.9),
		},
	})
	require.NoError(t, err)
	require.Len(t, res.Players, 2)

	assert.Equal(t, "a", res.Players[0].UID)
	assert.InDelta(t, 30.0, res.Players[0].HorizonXPts, 1e-9)
	assert.Equal(t, "b", res.Players[1].UID)
}
