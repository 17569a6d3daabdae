package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gridplay/tictactoe-backend/internal/apperror"
	"github.com/gridplay/tictactoe-backend/internal/entity"
)

type GameRepository interface {
	Create(ctx context.Context, game *entity.Game) error
	GetByID(ctx context.Context, id string) (*entity.Game, error)
	UpdateWithMove(ctx context.Context, game *entity.Game, record *entity.MoveRecord) error
	MovesByGameID(ctx context.Context, gameID string) ([]*entity.MoveRecord, error)
}

type dbGame struct {
	conn *sql.DB
}

func NewGameRepository(conn *sql.DB) GameRepository {
	return &dbGame{
		conn: conn,
	}
}

func (that *dbGame) Create(ctx context.Context, game *entity.Game) error {
	query := `INSERT INTO games
		(id, mode, ai_difficulty, player_x_id, player_o_id, board, turn, status, winner, move_count, version, created_at, updated_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := that.conn.ExecContext(ctx, query,
		game.ID, game.Mode, game.AIDifficulty, game.PlayerXID, game.PlayerOID,
		entity.EncodeBoard(game.State.Board), game.State.Turn, game.State.Status, game.State.Winner,
		game.State.MoveCount, game.Version, game.CreatedAt, game.UpdatedAt, game.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("can't save game: %w", err)
	}

	return nil
}

func (that *dbGame) GetByID(ctx context.Context, id string) (*entity.Game, error) {
	query := `SELECT id, mode, ai_difficulty, player_x_id, player_o_id, board, turn, status, winner, move_count, version, created_at, updated_at, finished_at
		FROM games WHERE id = ?`

	var (
		game       entity.Game
		board      string
		finishedAt sql.NullTime
	)

	err := that.conn.QueryRowContext(ctx, query, id).Scan(
		&game.ID, &game.Mode, &game.AIDifficulty, &game.PlayerXID, &game.PlayerOID,
		&board, &game.State.Turn, &game.State.Status, &game.State.Winner,
		&game.State.MoveCount, &game.Version, &game.CreatedAt, &game.UpdatedAt, &finishedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.ErrGameNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("can't find game: %w", err)
	}

	game.State.Board, err = entity.DecodeBoard(board)
	if err != nil {
		return nil, fmt.Errorf("stored board for game %s is corrupt: %w", id, err)
	}

	if finishedAt.Valid {
		game.FinishedAt = &finishedAt.Time
	}

	return &game, nil
}

// UpdateWithMove - persists the new game state and appends its move record
// as one transaction. The update is guarded by the version the state was
// loaded with; a concurrent writer makes the guard miss and the whole unit
// fails with ErrConcurrentModification.
func (that *dbGame) UpdateWithMove(ctx context.Context, game *entity.Game, record *entity.MoveRecord) error {
	tx, err := that.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("can't begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	query := `UPDATE games
		SET board = ?, turn = ?, status = ?, winner = ?, move_count = ?, version = version + 1, updated_at = ?, finished_at = ?
		WHERE id = ? AND version = ?`

	result, err := tx.ExecContext(ctx, query,
		entity.EncodeBoard(game.State.Board), game.State.Turn, game.State.Status, game.State.Winner,
		game.State.MoveCount, game.UpdatedAt, game.FinishedAt,
		game.ID, game.Version,
	)
	if err != nil {
		return fmt.Errorf("can't update game: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("can't read affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: game %s version %d", apperror.ErrConcurrentModification, game.ID, game.Version)
	}

	stateBefore, err := json.Marshal(record.StateBefore)
	if err != nil {
		return fmt.Errorf("can't marshal state before: %w", err)
	}

	stateAfter, err := json.Marshal(record.StateAfter)
	if err != nil {
		return fmt.Errorf("can't marshal state after: %w", err)
	}

	query = `INSERT INTO moves
		(game_id, move_number, player_id, mark, row, col, state_before, state_after, heuristic_value, evaluation, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = tx.ExecContext(ctx, query,
		record.GameID, record.MoveNumber, record.PlayerID, record.Mark, record.Row, record.Col,
		string(stateBefore), string(stateAfter), record.HeuristicValue, record.Evaluation, record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("can't append move: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("can't commit transaction: %w", err)
	}

	game.Version++

	return nil
}

func (that *dbGame) MovesByGameID(ctx context.Context, gameID string) ([]*entity.MoveRecord, error) {
	query := `SELECT game_id, move_number, player_id, mark, row, col, state_before, state_after, heuristic_value, evaluation, created_at
		FROM moves WHERE game_id = ? ORDER BY move_number`

	rows, err := that.conn.QueryContext(ctx, query, gameID)
	if err != nil {
		return nil, fmt.Errorf("can't list moves: %w", err)
	}
	defer rows.Close()

	var records []*entity.MoveRecord

	for rows.Next() {
		var (
			record      entity.MoveRecord
			stateBefore string
			stateAfter  string
			evaluation  sql.NullFloat64
			createdAt   time.Time
		)

		err = rows.Scan(
			&record.GameID, &record.MoveNumber, &record.PlayerID, &record.Mark, &record.Row, &record.Col,
			&stateBefore, &stateAfter, &record.HeuristicValue, &evaluation, &createdAt,
		)
		if err != nil {
			return nil, fmt.Errorf("can't scan move: %w", err)
		}

		if err = json.Unmarshal([]byte(stateBefore), &record.StateBefore); err != nil {
			return nil, fmt.Errorf("stored move snapshot for game %s is corrupt: %w", gameID, err)
		}
		if err = json.Unmarshal([]byte(stateAfter), &record.StateAfter); err != nil {
			return nil, fmt.Errorf("stored move snapshot for game %s is corrupt: %w", gameID, err)
		}

		if evaluation.Valid {
			record.Evaluation = &evaluation.Float64
		}
		record.CreatedAt = createdAt

		records = append(records, &record)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("can't iterate moves: %w", err)
	}

	return records, nil
}
