// Package market stores the player universe and per-gameweek projections,
// and shapes them into the raw candidate table the pool builder consumes.
package market

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/gaffer/internal/database"
	"github.com/aristath/gaffer/internal/modules/pool"
)

// PlayerRow is one stored player
type PlayerRow struct {
	Key         string // Immutable identifier
	SeasonID    string // Season-scoped identifier
	Name        string
	Team        string
	TeamID      int64
	Position    string
	Price       float64
	Reliability float64
}

// ProjectionRow is one stored per-gameweek projection
type ProjectionRow struct {
	Key      string
	Gameweek int
	XPts     float64
}

// Repository persists players and projections in the market database
type Repository struct {
	db  *database.DB
	log zerolog.Logger
}

// NewRepository creates a market repository
func NewRepository(db *database.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("component", "market_repository").Logger(),
	}
}

// Init creates the market schema if it does not exist.
func (r *Repository) Init() error {
	schema := `
	CREATE TABLE IF NOT EXISTS players (
		player_key       TEXT PRIMARY KEY,
		player_id        TEXT NOT NULL DEFAULT '',
		web_name         TEXT NOT NULL,
		team_short       TEXT NOT NULL,
		team_id          INTEGER NOT NULL,
		position         TEXT NOT NULL,
		now_cost         REAL NOT NULL,
		mean_reliability REAL NOT NULL DEFAULT 0,
		updated_at       INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS projections (
		player_key TEXT NOT NULL,
		gw         INTEGER NOT NULL,
		xpts       REAL NOT NULL,
		updated_at INTEGER NOT NULL,
		PRIMARY KEY (player_key, gw)
	);
	CREATE INDEX IF NOT EXISTS idx_projections_gw ON projections(gw);
	`
	if _, err := r.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create market schema: %w", err)
	}
	return nil
}

// UpsertPlayers writes the player universe in a single transaction.
func (r *Repository) UpsertPlayers(players []PlayerRow) error {
	now := time.Now().Unix()
	err := database.WithTransaction(r.db.Conn(), func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`
			INSERT INTO players (player_key, player_id, web_name, team_short, team_id, position, now_cost, mean_reliability, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(player_key) DO UPDATE SET
				player_id = excluded.player_id,
				web_name = excluded.web_name,
				team_short = excluded.team_short,
				team_id = excluded.team_id,
				position = excluded.position,
				now_cost = excluded.now_cost,
				mean_reliability = excluded.mean_reliability,
				updated_at = excluded.updated_at
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, p := range players {
			if _, err := stmt.Exec(p.Key, p.SeasonID, p.Name, p.Team, p.TeamID, p.Position, p.Price, p.Reliability, now); err != nil {
				return fmt.Errorf("failed to upsert player %s: %w", p.Key, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	r.log.Debug().Int("count", len(players)).Msg("Upserted players")
	return nil
}

// UpsertProjections writes per-gameweek projections in a single transaction.
func (r *Repository) UpsertProjections(rows []ProjectionRow) error {
	now := time.Now().Unix()
	err := database.WithTransaction(r.db.Conn(), func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`
			INSERT INTO projections (player_key, gw, xpts, updated_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(player_key, gw) DO UPDATE SET
				xpts = excluded.xpts,
				updated_at = excluded.updated_at
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, p := range rows {
			if _, err := stmt.Exec(p.Key, p.Gameweek, p.XPts, now); err != nil {
				return fmt.Errorf("failed to upsert projection %s gw %d: %w", p.Key, p.Gameweek, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	r.log.Debug().Int("count", len(rows)).Msg("Upserted projections")
	return nil
}

// CandidateTable joins players with their projections summed over the
// gameweek window and returns the raw table plus the number of players that
// had no projection in the window. Unmatched players are dropped, never
// silently zeroed.
func (r *Repository) CandidateTable(fromGW, toGW int) (pool.Table, int, error) {
	rows, err := r.db.Query(`
		SELECT p.player_key, p.player_id, p.web_name, p.team_short, p.team_id,
		       p.position, p.now_cost, p.mean_reliability,
		       (SELECT SUM(j.xpts) FROM projections j
		        WHERE j.player_key = p.player_key AND j.gw BETWEEN ? AND ?) AS horizon_xpts
		FROM players p
		ORDER BY p.player_key
	`, fromGW, toGW)
	if err != nil {
		return pool.Table{}, 0, fmt.Errorf("failed to query candidate table: %w", err)
	}
	defer rows.Close()

	table := pool.Table{
		Columns: []string{
			"player_key", "player_id", "web_name", "team_short", "team_id",
			"position", "now_cost", "mean_reliability", "horizon_xpts",
		},
	}
	unmatched := 0

	for rows.Next() {
		var (
			key, id, name, team, position string
			teamID                        int64
			cost, reliability             float64
			horizon                       sql.NullFloat64
		)
		if err := rows.Scan(&key, &id, &name, &team, &teamID, &position, &cost, &reliability, &horizon); err != nil {
			return pool.Table{}, 0, fmt.Errorf("failed to scan candidate row: %w", err)
		}
		if !horizon.Valid {
			unmatched++
			continue
		}
		table.Rows = append(table.Rows, []any{
			key, id, name, team, teamID, position, cost, reliability, horizon.Float64,
		})
	}
	if err := rows.Err(); err != nil {
		return pool.Table{}, 0, fmt.Errorf("failed to iterate candidate rows: %w", err)
	}

	if unmatched > 0 {
		r.log.Warn().Int("unmatched", unmatched).Msg("Players without projections dropped from candidate table")
	}
	return table, unmatched, nil
}

// GameweekRange returns the smallest and largest gameweek with stored
// projections. ok is false when no projections exist.
func (r *Repository) GameweekRange() (minGW, maxGW int, ok bool, err error) {
	var lo, hi sql.NullInt64
	if err := r.db.QueryRow(`SELECT MIN(gw), MAX(gw) FROM projections`).Scan(&lo, &hi); err != nil {
		return 0, 0, false, fmt.Errorf("failed to query gameweek range: %w", err)
	}
	if !lo.Valid {
		return 0, 0, false, nil
	}
	return int(lo.Int64), int(hi.Int64), true, nil
}

// GameweekPoints returns projections for one gameweek keyed by player
// identifier.
func (r *Repository) GameweekPoints(gw int) (map[string]float64, error) {
	rows, err := r.db.Query(`SELECT player_key, xpts FROM projections WHERE gw = ?`, gw)
	if err != nil {
		return nil, fmt.Errorf("failed to query gameweek points: %w", err)
	}
	defer rows.Close()

	points := make(map[string]float64)
	for rows.Next() {
		var key string
		var xpts float64
		if err := rows.Scan(&key, &xpts); err != nil {
			return nil, fmt.Errorf("failed to scan gameweek point: %w", err)
		}
		points[key] = xpts
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate gameweek points: %w", err)
	}
	return points, nil
}

// PointsWindow returns projections for every gameweek in [fromGW, toGW],
// keyed by gameweek then player identifier, the shape the transfer planner
// consumes.
func (r *Repository) PointsWindow(fromGW, toGW int) (map[int]map[string]float64, error) {
	rows, err := r.db.Query(`SELECT gw, player_key, xpts FROM projections WHERE gw BETWEEN ? AND ?`, fromGW, toGW)
	if err != nil {
		return nil, fmt.Errorf("failed to query points window: %w", err)
	}
	defer rows.Close()

	window := make(map[int]map[string]float64)
	for rows.Next() {
		var gw int
		var key string
		var xpts float64
		if err := rows.Scan(&gw, &key, &xpts); err != nil {
			return nil, fmt.Errorf("failed to scan points window row: %w", err)
		}
		if window[gw] == nil {
			window[gw] = make(map[string]float64)
		}
		window[gw][key] = xpts
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate points window: %w", err)
	}
	return window, nil
}
