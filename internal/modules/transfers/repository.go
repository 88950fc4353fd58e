package transfers

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/aristath/gaffer/internal/database"
	"github.com/aristath/gaffer/internal/domain"
)

// PlanRecord is a persisted plan run
type PlanRecord struct {
	ID         string                    `json:"id"`
	CreatedAt  time.Time                 `json:"created_at"`
	FromGW     int                       `json:"from_gw"`
	ToGW       int                       `json:"to_gw"`
	FinalBank  float64                   `json:"final_bank"`
	FinalSquad domain.Squad              `json:"final_squad"`
	Decisions  []domain.TransferDecision `json:"decisions"`
}

// Repository persists plan runs in the plans database. The final squad is
// stored as a msgpack snapshot; decisions are stored relationally so they
// can be queried per gameweek.
type Repository struct {
	db  *database.DB
	log zerolog.Logger
}

// NewRepository creates a plan repository
func NewRepository(db *database.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("component", "plan_repository").Logger(),
	}
}

// Init creates the plan schema if it does not exist.
func (r *Repository) Init() error {
	schema := `
	CREATE TABLE IF NOT EXISTS plans (
		id          TEXT PRIMARY KEY,
		created_at  INTEGER NOT NULL,
		from_gw     INTEGER NOT NULL,
		to_gw       INTEGER NOT NULL,
		final_bank  REAL NOT NULL,
		final_squad BLOB NOT NULL
	);
	CREATE TABLE IF NOT EXISTS plan_decisions (
		plan_id       TEXT NOT NULL,
		gw            INTEGER NOT NULL,
		action        TEXT NOT NULL,
		buy_uid       TEXT,
		buy_name      TEXT,
		buy_team      TEXT,
		buy_position  TEXT,
		buy_price     REAL,
		sell_uid      TEXT,
		sell_name     TEXT,
		sell_team     TEXT,
		sell_position TEXT,
		sell_price    REAL,
		bank_after    REAL NOT NULL,
		base_xi_xpts  REAL NOT NULL,
		new_xi_xpts   REAL NOT NULL,
		gain          REAL NOT NULL,
		PRIMARY KEY (plan_id, gw)
	);
	CREATE INDEX IF NOT EXISTS idx_plans_created ON plans(created_at);
	`
	if _, err := r.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create plan schema: %w", err)
	}
	return nil
}

// Save persists a plan run and returns its generated id.
func (r *Repository) Save(plan domain.TransferPlan, fromGW, toGW int) (string, error) {
	id := uuid.New().String()
	now := time.Now().Unix()

	snapshot, err := msgpack.Marshal(plan.FinalSquad)
	if err != nil {
		return "", fmt.Errorf("failed to encode final squad: %w", err)
	}

	err = database.WithTransaction(r.db.Conn(), func(tx *sql.Tx) error {
		if _, err := tx.Exec(`
			INSERT INTO plans (id, created_at, from_gw, to_gw, final_bank, final_squad)
			VALUES (?, ?, ?, ?, ?, ?)
		`, id, now, fromGW, toGW, plan.FinalBank, snapshot); err != nil {
			return fmt.Errorf("failed to insert plan: %w", err)
		}

		stmt, err := tx.Prepare(`
			INSERT INTO plan_decisions (plan_id, gw, action,
				buy_uid, buy_name, buy_team, buy_position, buy_price,
				sell_uid, sell_name, sell_team, sell_position, sell_price,
				bank_after, base_xi_xpts, new_xi_xpts, gain)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, d := range plan.Decisions {
			args := []any{id, d.Gameweek, d.Action}
			args = append(args, legArgs(d.Buy)...)
			args = append(args, legArgs(d.Sell)...)
			args = append(args, d.BankAfter, d.BaseXIPts, d.NewXIPts, d.Gain)
			if _, err := stmt.Exec(args...); err != nil {
				return fmt.Errorf("failed to insert decision gw %d: %w", d.Gameweek, err)
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	r.log.Info().Str("plan_id", id).Int("decisions", len(plan.Decisions)).Msg("Saved transfer plan")
	return id, nil
}

// Latest returns the most recent plan run, or nil when none exists.
func (r *Repository) Latest() (*PlanRecord, error) {
	record := &PlanRecord{}
	var createdAt int64
	var snapshot []byte

	err := r.db.QueryRow(`
		SELECT id, created_at, from_gw, to_gw, final_bank, final_squad
		FROM plans ORDER BY created_at DESC, rowid DESC LIMIT 1
	`).Scan(&record.ID, &createdAt, &record.FromGW, &record.ToGW, &record.FinalBank, &snapshot)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query latest plan: %w", err)
	}

	record.CreatedAt = time.Unix(createdAt, 0)
	if err := msgpack.Unmarshal(snapshot, &record.FinalSquad); err != nil {
		return nil, fmt.Errorf("failed to decode final squad: %w", err)
	}

	decisions, err := r.loadDecisions(record.ID)
	if err != nil {
		return nil, err
	}
	record.Decisions = decisions
	return record, nil
}

func (r *Repository) loadDecisions(planID string) ([]domain.TransferDecision, error) {
	rows, err := r.db.Query(`
		SELECT gw, action,
			buy_uid, buy_name, buy_team, buy_position, buy_price,
			sell_uid, sell_name, sell_team, sell_position, sell_price,
			bank_after, base_xi_xpts, new_xi_xpts, gain
		FROM plan_decisions WHERE plan_id = ? ORDER BY gw
	`, planID)
	if err != nil {
		return nil, fmt.Errorf("failed to query plan decisions: %w", err)
	}
	defer rows.Close()

	var decisions []domain.TransferDecision
	for rows.Next() {
		var d domain.TransferDecision
		var buy, sell legColumns
		if err := rows.Scan(&d.Gameweek, &d.Action,
			&buy.uid, &buy.name, &buy.team, &buy.position, &buy.price,
			&sell.uid, &sell.name, &sell.team, &sell.position, &sell.price,
			&d.BankAfter, &d.BaseXIPts, &d.NewXIPts, &d.Gain); err != nil {
			return nil, fmt.Errorf("failed to scan plan decision: %w", err)
		}
		d.Buy = buy.leg()
		d.Sell = sell.leg()
		decisions = append(decisions, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate plan decisions: %w", err)
	}
	return decisions, nil
}

type legColumns struct {
	uid      sql.NullString
	name     sql.NullString
	team     sql.NullString
	position sql.NullString
	price    sql.NullFloat64
}

func (c legColumns) leg() *domain.TransferLeg {
	if !c.uid.Valid {
		return nil
	}
	return &domain.TransferLeg{
		UID:      c.uid.String,
		Name:     c.name.String,
		Team:     c.team.String,
		Position: domain.Position(c.position.String),
		Price:    c.price.Float64,
	}
}

func legArgs(leg *domain.TransferLeg) []any {
	if leg == nil {
		return []any{nil, nil, nil, nil, nil}
	}
	return []any{leg.UID, leg.Name, leg.Team, string(leg.Position), leg.Price}
}
