package entity

import "time"

// MoveRecord - one applied move with the state snapshots around it.
// Append-only: written in the same transaction as the state it produced
// and never touched again.
type MoveRecord struct {
	GameID         string    `json:"game_id"`
	MoveNumber     int       `json:"move_number"`
	PlayerID       string    `json:"player_id"`
	Mark           string    `json:"mark"`
	Row            int       `json:"row"`
	Col            int       `json:"col"`
	StateBefore    GameState `json:"state_before"`
	StateAfter     GameState `json:"state_after"`
	HeuristicValue float64   `json:"heuristic_value"`
	Evaluation     *float64  `json:"evaluation,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// NewMoveRecord - builds the record for a move the rules engine just accepted.
func NewMoveRecord(game *Game, playerID string, pos Position, before, after GameState) *MoveRecord {
	return &MoveRecord{
		GameID:         game.ID,
		MoveNumber:     after.MoveCount,
		PlayerID:       playerID,
		Mark:           before.Turn,
		Row:            pos.Row,
		Col:            pos.Col,
		StateBefore:    before,
		StateAfter:     after,
		HeuristicValue: HeuristicValue(after, before.Turn),
		CreatedAt:      time.Now().UTC(),
	}
}
