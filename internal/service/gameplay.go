package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/gridplay/tictactoe-backend/internal/apperror"
	"github.com/gridplay/tictactoe-backend/internal/entity"
)

var (
	ErrUnknownGameMode   = errors.New("unknown game mode")
	ErrUnknownDifficulty = errors.New("unknown ai difficulty")
	ErrPositionRequired  = errors.New("position is required for a human move")
)

type gameRepo interface {
	Create(ctx context.Context, game *entity.Game) error
	GetByID(ctx context.Context, id string) (*entity.Game, error)
	UpdateWithMove(ctx context.Context, game *entity.Game, record *entity.MoveRecord) error
	MovesByGameID(ctx context.Context, gameID string) ([]*entity.MoveRecord, error)
}

type aiMover interface {
	RequestMove(ctx context.Context, state entity.GameState, difficulty string) (entity.Position, float64, error)
}

type platformLogger interface {
	LogMove(game *entity.Game, record *entity.MoveRecord)
	LogResult(game *entity.Game, history []*entity.MoveRecord)
}

type moveScheduler interface {
	Schedule(gameID string)
}

// GamePlayService - sequences a single move application: load, validate
// and apply through the rules engine, persist state and move record as
// one unit, then hand control to the AI scheduler when the next mover is
// the AI collaborator.
type GamePlayService struct {
	logger *slog.Logger

	gameRepo  gameRepo
	ai        aiMover
	platform  platformLogger
	scheduler moveScheduler

	defaultDifficulty string
}

func NewGamePlayService(logger *slog.Logger, repo gameRepo, ai aiMover, platform platformLogger, scheduler moveScheduler, defaultDifficulty string) *GamePlayService {
	return &GamePlayService{
		logger: logger.With("component", "gameplay"),

		gameRepo:  repo,
		ai:        ai,
		platform:  platform,
		scheduler: scheduler,

		defaultDifficulty: defaultDifficulty,
	}
}

// CreateGame - starts a new game with an empty board and X to move. In bot
// mode the AI collaborator takes the O mark, so the human always opens.
func (that *GamePlayService) CreateGame(ctx context.Context, mode, aiDifficulty string) (*entity.Game, error) {
	playerXID := uuid.NewString()

	var playerOID string
	switch mode {
	case entity.PvPType:
		playerOID = uuid.NewString()
		aiDifficulty = ""
	case entity.WithBotType:
		playerOID = entity.AIPlayerID
		if aiDifficulty == "" {
			aiDifficulty = that.defaultDifficulty
		}
		switch aiDifficulty {
		case entity.DifficultyEasy, entity.DifficultyMedium, entity.DifficultyHard:
		default:
			return nil, fmt.Errorf("%w: %s", ErrUnknownDifficulty, aiDifficulty)
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownGameMode, mode)
	}

	game := entity.NewGame(uuid.NewString(), mode, aiDifficulty, playerXID, playerOID)

	if err := that.gameRepo.Create(ctx, game); err != nil {
		return nil, fmt.Errorf("failed to create game: %w", err)
	}

	that.logger.Info("game created", "gameID", game.ID, "mode", game.Mode)

	return game, nil
}

func (that *GamePlayService) GetGame(ctx context.Context, id string) (*entity.Game, error) {
	game, err := that.gameRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get game by id: %w", err)
	}

	return game, nil
}

func (that *GamePlayService) GameMoves(ctx context.Context, id string) ([]*entity.MoveRecord, error) {
	if _, err := that.gameRepo.GetByID(ctx, id); err != nil {
		return nil, fmt.Errorf("failed to get game by id: %w", err)
	}

	records, err := that.gameRepo.MovesByGameID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list moves: %w", err)
	}

	return records, nil
}

// SubmitMove - applies one human move, or, when pos is nil, resolves a
// pending AI turn in the caller's request. After a human move that leaves
// the AI to move, resolution is scheduled in the background and the state
// returned here reflects the human's move only; callers poll GetGame for
// the AI's reply.
func (that *GamePlayService) SubmitMove(ctx context.Context, id string, pos *entity.Position) (*entity.Game, error) {
	game, err := that.gameRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get game by id: %w", err)
	}

	if pos == nil {
		if game.IsFinished() {
			return nil, apperror.ErrGameFinished
		}
		if !game.IsAITurn() {
			return nil, ErrPositionRequired
		}

		if err = that.applyAIMove(ctx, game); err != nil {
			return nil, err
		}

		return game, nil
	}

	if game.IsAITurn() {
		return nil, apperror.ErrNotYourTurn
	}

	record, err := that.applyMove(game, game.CurrentPlayerID(), *pos, nil)
	if err != nil {
		return nil, err
	}

	if err = that.persistMove(ctx, game, record); err != nil {
		return nil, err
	}

	if !game.IsFinished() && game.IsAITurn() {
		that.scheduler.Schedule(game.ID)
	}

	return game, nil
}

// ResolveAIMove - the deferred resolution path. Runs with fresh resources
// after the triggering request has returned, so the state is re-loaded and
// re-validated: a finished game or a turn that is no longer the AI's makes
// the task a no-op rather than an error, which keeps retries and
// duplicated tasks harmless.
func (that *GamePlayService) ResolveAIMove(ctx context.Context, gameID string) error {
	log := that.logger.With("gameID", gameID)

	game, err := that.gameRepo.GetByID(ctx, gameID)
	if err != nil {
		return fmt.Errorf("failed to get game by id: %w", err)
	}

	if game.IsFinished() {
		log.Debug("skipping ai resolution, game already finished")
		return nil
	}

	if !game.IsAITurn() {
		log.Debug("skipping ai resolution, not the ai's turn")
		return nil
	}

	return that.applyAIMove(ctx, game)
}

// applyAIMove - asks the AI collaborator for a move and applies it through
// the same path as a human move. An AI failure applies nothing: the game
// stays as it was, awaiting another trigger.
func (that *GamePlayService) applyAIMove(ctx context.Context, game *entity.Game) error {
	pos, evaluation, err := that.ai.RequestMove(ctx, game.State, game.AIDifficulty)
	if err != nil {
		return fmt.Errorf("ai failed to choose a move: %w", err)
	}

	record, err := that.applyMove(game, entity.AIPlayerID, pos, &evaluation)
	if err != nil {
		return fmt.Errorf("ai chose an illegal move: %w", err)
	}

	if err = that.persistMove(ctx, game, record); err != nil {
		return err
	}

	// only reachable when both marks are played by the AI
	if !game.IsFinished() && game.IsAITurn() {
		that.scheduler.Schedule(game.ID)
	}

	return nil
}

func (that *GamePlayService) applyMove(game *entity.Game, playerID string, pos entity.Position, evaluation *float64) (*entity.MoveRecord, error) {
	before := game.State

	after, err := entity.ApplyMove(before, pos)
	if err != nil {
		return nil, fmt.Errorf("failed to make turn: %w", err)
	}

	game.State = after
	game.UpdatedAt = time.Now().UTC()
	if game.IsFinished() {
		finishedAt := game.UpdatedAt
		game.FinishedAt = &finishedAt
	}

	record := entity.NewMoveRecord(game, playerID, pos, before, after)
	record.Evaluation = evaluation

	return record, nil
}

func (that *GamePlayService) persistMove(ctx context.Context, game *entity.Game, record *entity.MoveRecord) error {
	if err := that.gameRepo.UpdateWithMove(ctx, game, record); err != nil {
		return fmt.Errorf("failed to update game: %w", err)
	}

	that.platform.LogMove(game, record)

	if game.IsFinished() {
		that.emitResult(ctx, game)
	}

	return nil
}

func (that *GamePlayService) emitResult(ctx context.Context, game *entity.Game) {
	history, err := that.gameRepo.MovesByGameID(ctx, game.ID)
	if err != nil {
		that.logger.Error("failed to load move history for result event", "gameID", game.ID, "error", err)
	}

	that.platform.LogResult(game, history)
}
