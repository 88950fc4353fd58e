// Package domain provides core domain models and types.
package domain

import "strconv"

// Position represents a player's position on the pitch
type Position string

const (
	PositionGK  Position = "GKP"
	PositionDEF Position = "DEF"
	PositionMID Position = "MID"
	PositionFWD Position = "FWD"
)

// Positions lists all valid positions in display order.
var Positions = []Position{PositionGK, PositionDEF, PositionMID, PositionFWD}

// Valid reports whether p is one of the four known positions.
func (p Position) Valid() bool {
	switch p {
	case PositionGK, PositionDEF, PositionMID, PositionFWD:
		return true
	}
	return false
}

// Player represents a tradeable asset in the candidate market
type Player struct {
	UID         string   `json:"uid"` // Stable unique identifier (prefers the immutable FPL code)
	Name        string   `json:"web_name"`
	TeamID      int64    `json:"team_id"`
	Team        string   `json:"team_short"`
	Position    Position `json:"position"`
	Price       float64  `json:"now_cost"`         // Same unit as the budget
	HorizonXPts float64  `json:"horizon_xpts"`     // Projected points over the planning window
	Reliability float64  `json:"mean_reliability"` // Playing-time confidence in [0,1]
}

// Quotas holds the exact per-position squad composition
type Quotas struct {
	GK  int `json:"gk"`
	DEF int `json:"def"`
	MID int `json:"mid"`
	FWD int `json:"fwd"`
}

// DefaultQuotas returns the standard 2-5-5-3 squad composition.
func DefaultQuotas() Quotas {
	return Quotas{GK: 2, DEF: 5, MID: 5, FWD: 3}
}

// Size returns the total squad size implied by the quotas.
func (q Quotas) Size() int {
	return q.GK + q.DEF + q.MID + q.FWD
}

// For returns the quota for a single position.
func (q Quotas) For(pos Position) int {
	switch pos {
	case PositionGK:
		return q.GK
	case PositionDEF:
		return q.DEF
	case PositionMID:
		return q.MID
	case PositionFWD:
		return q.FWD
	}
	return 0
}

// Squad is an ordered collection of players. A valid squad holds exactly the
// quota size (15 by default); order is preserved because captain/vice
// tie-breaks and swap enumeration depend on it.
type Squad struct {
	Players []Player `json:"players"`
}

// Clone returns an independent copy of the squad. Swap evaluation relies on
// hypothetical squads never aliasing the committed one.
func (s Squad) Clone() Squad {
	players := make([]Player, len(s.Players))
	copy(players, s.Players)
	return Squad{Players: players}
}

// Contains reports whether a player with the given uid is in the squad.
func (s Squad) Contains(uid string) bool {
	for _, p := range s.Players {
		if p.UID == uid {
			return true
		}
	}
	return false
}

// Replace returns a copy of the squad with the player at index idx replaced.
func (s Squad) Replace(idx int, in Player) Squad {
	out := s.Clone()
	out.Players[idx] = in
	return out
}

// PositionCounts returns the number of players per position.
func (s Squad) PositionCounts() map[Position]int {
	counts := make(map[Position]int, 4)
	for _, p := range s.Players {
		counts[p.Position]++
	}
	return counts
}

// ClubCounts returns the number of players per team id.
func (s Squad) ClubCounts() map[int64]int {
	counts := make(map[int64]int)
	for _, p := range s.Players {
		counts[p.TeamID]++
	}
	return counts
}

// TotalPrice returns the summed price of all players.
func (s Squad) TotalPrice() float64 {
	var total float64
	for _, p := range s.Players {
		total += p.Price
	}
	return total
}

// Validate checks the structural squad invariants: exact size, known
// positions, exact position quotas, and the per-club cap.
func (s Squad) Validate(quotas Quotas, clubCap int) error {
	if len(s.Players) != quotas.Size() {
		return &ValidationError{Reason: "squad size mismatch", Detail: strconv.Itoa(len(s.Players))}
	}
	for _, p := range s.Players {
		if !p.Position.Valid() {
			return &ValidationError{Reason: "unknown position", Detail: string(p.Position)}
		}
	}
	counts := s.PositionCounts()
	for _, pos := range Positions {
		if counts[pos] != quotas.For(pos) {
			return &ValidationError{Reason: "position quota violated", Detail: string(pos)}
		}
	}
	for _, n := range s.ClubCounts() {
		if n > clubCap {
			return &ValidationError{Reason: "club cap exceeded", Detail: "club cap"}
		}
	}
	return nil
}

// Lineup is the solved starting XI for a single gameweek, with captaincy and
// an ordered bench. The squad it was drawn from is never mutated.
type Lineup struct {
	Gameweek      int      `json:"gw"`
	Starters      []Player `json:"xi"`
	Captain       Player   `json:"captain"`
	Vice          Player   `json:"vice"`
	BenchKeeper   Player   `json:"bench_gk"`
	BenchOutfield []Player `json:"bench_outfield"`
	Objective     float64  `json:"objective"` // Sum of starters' gameweek points
	Optimal       bool     `json:"optimal"`   // False when the solver hit its time bound
}

// TransferLeg identifies one side of a swap
type TransferLeg struct {
	UID      string   `json:"uid"`
	Name     string   `json:"web_name"`
	Team     string   `json:"team_short"`
	Position Position `json:"position"`
	Price    float64  `json:"now_cost"`
}

// ActionHold is the action recorded when no improving swap exists.
const ActionHold = "HOLD"

// TransferDecision is the immutable record of one gameweek's planning
// outcome: either a single buy/sell pair or a HOLD.
type TransferDecision struct {
	Gameweek  int          `json:"gw"`
	Action    string       `json:"action"` // "HOLD" or "BUY <name> / SELL <name>"
	Buy       *TransferLeg `json:"buy,omitempty"`
	Sell      *TransferLeg `json:"sell,omitempty"`
	BankAfter float64      `json:"bank_after"`
	BaseXIPts float64      `json:"base_xi_xpts"`
	NewXIPts  float64      `json:"new_xi_xpts"`
	Gain      float64      `json:"gain"`
}

// IsHold reports whether the decision left the squad unchanged.
func (d TransferDecision) IsHold() bool {
	return d.Buy == nil || d.Sell == nil
}

// TransferPlan is the committed sequence of decisions across gameweeks plus
// the resulting squad and bank.
type TransferPlan struct {
	Decisions  []TransferDecision `json:"decisions"`
	FinalSquad Squad              `json:"final_squad"`
	FinalBank  float64            `json:"final_bank"`
}
