package entity

import "time"

const (
	StatusInProgress = "in_progress"
	StatusDraw       = "draw"
	StatusXWon       = "x_won"
	StatusOWon       = "o_won"
)

const (
	PvPType     = "pvp"
	WithBotType = "bot"
)

const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

// AIPlayerID - the reserved player identity for the external AI collaborator.
const AIPlayerID = "AI"

// GameState - the full in-play state of one game. A value type: the rules
// engine returns new states instead of modifying old ones.
type GameState struct {
	Board     Board  `json:"board"`
	Turn      string `json:"turn"`
	Status    string `json:"status"`
	Winner    string `json:"winner,omitempty"`
	MoveCount int    `json:"move_count"`
}

func NewGameState() GameState {
	return GameState{
		Board:  Board{},
		Turn:   PlayerX,
		Status: StatusInProgress,
	}
}

// Game - the persisted aggregate around a GameState. Version backs the
// optimistic concurrency check in the repository.
type Game struct {
	ID           string     `json:"id"`
	Mode         string     `json:"mode"`
	AIDifficulty string     `json:"ai_difficulty,omitempty"`
	PlayerXID    string     `json:"player_x_id"`
	PlayerOID    string     `json:"player_o_id"`
	State        GameState  `json:"state"`
	Version      int64      `json:"-"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
}

func NewGame(id, mode, aiDifficulty, playerXID, playerOID string) *Game {
	now := time.Now().UTC()

	return &Game{
		ID:           id,
		Mode:         mode,
		AIDifficulty: aiDifficulty,
		PlayerXID:    playerXID,
		PlayerOID:    playerOID,
		State:        NewGameState(),
		Version:      1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func (that *Game) IsFinished() bool {
	return that.State.Status != StatusInProgress
}

func (that *Game) IsWithBot() bool {
	return that.Mode == WithBotType
}

// CurrentPlayerID - the identity of whoever holds the next move.
func (that *Game) CurrentPlayerID() string {
	if that.State.Turn == PlayerX {
		return that.PlayerXID
	}
	return that.PlayerOID
}

func (that *Game) IsAITurn() bool {
	return !that.IsFinished() && that.CurrentPlayerID() == AIPlayerID
}
