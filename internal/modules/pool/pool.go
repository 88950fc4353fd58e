// Package pool builds the clean candidate pool that every downstream
// selector consumes. It is a pure transform over an in-memory table: no
// I/O, no retained state between calls.
package pool

import (
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/aristath/gaffer/internal/domain"
)

// Required value columns. At least one of the identifier columns
// (player_key, player_id) must be present as well.
var requiredColumns = []string{
	"web_name",
	"team_short",
	"team_id",
	"position",
	"now_cost",
	"horizon_xpts",
	"mean_reliability",
}

// Options controls row filtering
type Options struct {
	PriceFloor   float64
	PriceCeiling float64
}

// DefaultOptions returns the standard price band.
func DefaultOptions() Options {
	return Options{
		PriceFloor:   3.5,
		PriceCeiling: 15.5,
	}
}

// Table is a column-oriented raw candidate table, the shape produced by a
// database query or a decoded request payload.
type Table struct {
	Columns []string
	Rows    [][]any
}

// Result is a built pool plus the number of input rows that did not survive
// validation or de-duplication.
type Result struct {
	Players []domain.Player
	Dropped int
}

// Builder validates and normalizes raw candidate tables
type Builder struct {
	opts Options
	log  zerolog.Logger
}

// NewBuilder creates a pool builder
func NewBuilder(opts Options, log zerolog.Logger) *Builder {
	return &Builder{
		opts: opts,
		log:  log.With().Str("component", "pool").Logger(),
	}
}

// Build validates the table schema and converts rows into players.
//
// A row is dropped when its identifier is empty, its position is unknown,
// or its price falls outside the configured band. Duplicate identifiers are
// resolved by keeping the row with the higher horizon value, breaking ties
// toward the lower price; survivors keep first-seen order.
func (b *Builder) Build(table Table) (Result, error) {
	idx := make(map[string]int, len(table.Columns))
	for i, c := range table.Columns {
		idx[c] = i
	}

	var missing []string
	for _, c := range requiredColumns {
		if _, ok := idx[c]; !ok {
			missing = append(missing, c)
		}
	}
	_, hasKey := idx["player_key"]
	_, hasID := idx["player_id"]
	if !hasKey && !hasID {
		missing = append(missing, "player_key|player_id")
	}
	if len(missing) > 0 {
		return Result{}, &domain.SchemaError{Missing: missing}
	}

	cell := func(row []any, col string) any {
		i := idx[col]
		if i >= len(row) {
			return nil
		}
		return row[i]
	}

	players := make([]domain.Player, 0, len(table.Rows))
	byUID := make(map[string]int, len(table.Rows))
	dropped := 0

	for _, row := range table.Rows {
		// The immutable key survives season rollovers; the season-scoped id
		// is only a fallback.
		uid := ""
		if hasKey {
			uid = asString(cell(row, "player_key"))
		}
		if uid == "" && hasID {
			uid = asString(cell(row, "player_id"))
		}
		if uid == "" {
			dropped++
			continue
		}

		pos, ok := parsePosition(asString(cell(row, "position")))
		if !ok {
			dropped++
			continue
		}

		price := asFloat(cell(row, "now_cost"))
		if price < b.opts.PriceFloor || price > b.opts.PriceCeiling {
			dropped++
			continue
		}

		p := domain.Player{
			UID:         uid,
			Name:        asString(cell(row, "web_name")),
			TeamID:      asInt64(cell(row, "team_id")),
			Team:        asString(cell(row, "team_short")),
			Position:    pos,
			Price:       price,
			HorizonXPts: asFloat(cell(row, "horizon_xpts")),
			Reliability: asFloat(cell(row, "mean_reliability")),
		}

		if prev, ok := byUID[uid]; ok {
			if betterDuplicate(p, players[prev]) {
				players[prev] = p
			}
			dropped++
			continue
		}
		byUID[uid] = len(players)
		players = append(players, p)
	}

	b.log.Debug().
		Int("input_rows", len(table.Rows)).
		Int("players", len(players)).
		Int("dropped", dropped).
		Msg("Built candidate pool")

	return Result{Players: players, Dropped: dropped}, nil
}

// betterDuplicate reports whether candidate should replace incumbent when
// both carry the same identifier.
func betterDuplicate(candidate, incumbent domain.Player) bool {
	if candidate.HorizonXPts != incumbent.HorizonXPts {
		return candidate.HorizonXPts > incumbent.HorizonXPts
	}
	return candidate.Price < incumbent.Price
}

func parsePosition(s string) (domain.Position, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "GK", "GKP":
		return domain.PositionGK, true
	case "DEF":
		return domain.PositionDEF, true
	case "MID":
		return domain.PositionMID, true
	case "FWD":
		return domain.PositionFWD, true
	}
	return "", false
}

func asString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case []byte:
		return strings.TrimSpace(string(t))
	case int64:
		return strconv.FormatInt(t, 10)
	case int:
		return strconv.Itoa(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	}
	return ""
}

func asFloat(v any) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case float32:
		return float64(t)
	case int64:
		return float64(t)
	case int:
		return float64(t)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0
		}
		return f
	case []byte:
		f, err := strconv.ParseFloat(strings.TrimSpace(string(t)), 64)
		if err != nil {
			return 0
		}
		return f
	}
	return 0
}

func asInt64(v any) int64 {
	switch t := v.(type) {
	case int64:
		return t
	case int:
		return int64(t)
	case float64:
		return int64(t)
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		if err != nil {
			return 0
		}
		return n
	}
	return 0
}
