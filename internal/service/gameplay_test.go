package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"testing"

	"github.com/gridplay/tictactoe-backend/internal/apperror"
	"github.com/gridplay/tictactoe-backend/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGameRepo struct {
	mu    sync.Mutex
	games map[string]entity.Game
	moves map[string][]*entity.MoveRecord

	// onUpdate runs before an update takes the lock, letting tests squeeze
	// a competing write between a load and its persist
	onUpdate func()
}

func newFakeGameRepo() *fakeGameRepo {
	return &fakeGameRepo{
		games: make(map[string]entity.Game),
		moves: make(map[string][]*entity.MoveRecord),
	}
}

func (that *fakeGameRepo) Create(_ context.Context, game *entity.Game) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.games[game.ID] = *game
	return nil
}

func (that *fakeGameRepo) GetByID(_ context.Context, id string) (*entity.Game, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	game, ok := that.games[id]
	if !ok {
		return nil, apperror.ErrGameNotFound
	}
	return &game, nil
}

func (that *fakeGameRepo) UpdateWithMove(_ context.Context, game *entity.Game, record *entity.MoveRecord) error {
	if that.onUpdate != nil {
		that.onUpdate()
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	stored, ok := that.games[game.ID]
	if !ok {
		return apperror.ErrGameNotFound
	}
	if stored.Version != game.Version {
		return fmt.Errorf("%w: game %s version %d", apperror.ErrConcurrentModification, game.ID, game.Version)
	}

	game.Version++
	that.games[game.ID] = *game
	that.moves[game.ID] = append(that.moves[game.ID], record)
	return nil
}

func (that *fakeGameRepo) MovesByGameID(_ context.Context, gameID string) ([]*entity.MoveRecord, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.moves[gameID], nil
}

type stubAI struct {
	pos        entity.Position
	evaluation float64
	err        error
	calls      int
}

func (that *stubAI) RequestMove(_ context.Context, _ entity.GameState, _ string) (entity.Position, float64, error) {
	that.calls++
	if that.err != nil {
		return entity.Position{}, 0, that.err
	}
	return that.pos, that.evaluation, nil
}

type recordingPlatform struct {
	mu      sync.Mutex
	moves   []*entity.MoveRecord
	results []*entity.Game
}

func (that *recordingPlatform) LogMove(_ *entity.Game, record *entity.MoveRecord) {
	that.mu.Lock()
	defer that.mu.Unlock()
	that.moves = append(that.moves, record)
}

func (that *recordingPlatform) LogResult(game *entity.Game, _ []*entity.MoveRecord) {
	that.mu.Lock()
	defer that.mu.Unlock()
	that.results = append(that.results, game)
}

type recordingScheduler struct {
	scheduled []string
}

func (that *recordingScheduler) Schedule(gameID string) {
	that.scheduled = append(that.scheduled, gameID)
}

type gameplayFixture struct {
	repo      *fakeGameRepo
	ai        *stubAI
	platform  *recordingPlatform
	scheduler *recordingScheduler
	service   *GamePlayService
}

func newGameplayFixture() *gameplayFixture {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	fixture := &gameplayFixture{
		repo:      newFakeGameRepo(),
		ai:        &stubAI{},
		platform:  &recordingPlatform{},
		scheduler: &recordingScheduler{},
	}
	fixture.service = NewGamePlayService(logger, fixture.repo, fixture.ai, fixture.platform, fixture.scheduler, entity.DifficultyMedium)

	return fixture
}

func TestGamePlayService_CreateGame(t *testing.T) {
	t.Run("Bot game assigns the AI player the O mark", func(t *testing.T) {
		fx := newGameplayFixture()

		// When: creating a bot game with no explicit difficulty
		game, err := fx.service.CreateGame(context.Background(), entity.WithBotType, "")

		// Then: the human opens as X and the default difficulty applies
		require.NoError(t, err)
		assert.Equal(t, entity.AIPlayerID, game.PlayerOID)
		assert.NotEqual(t, entity.AIPlayerID, game.PlayerXID)
		assert.Equal(t, entity.DifficultyMedium, game.AIDifficulty)
		assert.Equal(t, entity.StatusInProgress, game.State.Status)
		assert.False(t, game.IsAITurn())

		stored, err := fx.repo.GetByID(context.Background(), game.ID)
		require.NoError(t, err)
		assert.Equal(t, game.ID, stored.ID)
	})

	t.Run("PvP game has two human players and no difficulty", func(t *testing.T) {
		fx := newGameplayFixture()

		game, err := fx.service.CreateGame(context.Background(), entity.PvPType, entity.DifficultyHard)

		require.NoError(t, err)
		assert.NotEqual(t, entity.AIPlayerID, game.PlayerOID)
		assert.Empty(t, game.AIDifficulty)
	})

	t.Run("Rejects unknown mode and difficulty", func(t *testing.T) {
		fx := newGameplayFixture()

		_, err := fx.service.CreateGame(context.Background(), "chess", "")
		require.ErrorIs(t, err, ErrUnknownGameMode)

		_, err = fx.service.CreateGame(context.Background(), entity.WithBotType, "impossible")
		require.ErrorIs(t, err, ErrUnknownDifficulty)
	})
}

func TestGamePlayService_GetGame(t *testing.T) {
	fx := newGameplayFixture()

	// When: fetching a game that was never created
	_, err := fx.service.GetGame(context.Background(), "missing")

	// Then: ErrGameNotFound surfaces
	require.ErrorIs(t, err, apperror.ErrGameNotFound)
}

func TestGamePlayService_SubmitMove(t *testing.T) {
	t.Run("Human move persists and schedules AI resolution", func(t *testing.T) {
		fx := newGameplayFixture()
		game, err := fx.service.CreateGame(context.Background(), entity.WithBotType, "")
		require.NoError(t, err)

		// When: the human plays the center
		updated, err := fx.service.SubmitMove(context.Background(), game.ID, &entity.Position{Row: 1, Col: 1})

		// Then: the response holds the human's move only and the AI turn is deferred
		require.NoError(t, err)
		assert.Equal(t, entity.PlayerX, updated.State.Board[4])
		assert.Equal(t, 1, updated.State.MoveCount)
		assert.Equal(t, entity.PlayerO, updated.State.Turn)
		assert.Equal(t, []string{game.ID}, fx.scheduler.scheduled)
		assert.Zero(t, fx.ai.calls)

		require.Len(t, fx.platform.moves, 1)
		assert.Equal(t, 1, fx.platform.moves[0].MoveNumber)
	})

	t.Run("PvP move schedules nothing", func(t *testing.T) {
		fx := newGameplayFixture()
		game, err := fx.service.CreateGame(context.Background(), entity.PvPType, "")
		require.NoError(t, err)

		_, err = fx.service.SubmitMove(context.Background(), game.ID, &entity.Position{Row: 0, Col: 0})

		require.NoError(t, err)
		assert.Empty(t, fx.scheduler.scheduled)
	})

	t.Run("Illegal move is rejected and nothing persisted", func(t *testing.T) {
		fx := newGameplayFixture()
		game, err := fx.service.CreateGame(context.Background(), entity.PvPType, "")
		require.NoError(t, err)

		_, err = fx.service.SubmitMove(context.Background(), game.ID, &entity.Position{Row: 0, Col: 0})
		require.NoError(t, err)

		// When: the same cell is played again
		_, err = fx.service.SubmitMove(context.Background(), game.ID, &entity.Position{Row: 0, Col: 0})

		// Then: rejection surfaces and only the first move is on record
		require.ErrorIs(t, err, apperror.ErrCellOccupied)

		records, err := fx.repo.MovesByGameID(context.Background(), game.ID)
		require.NoError(t, err)
		assert.Len(t, records, 1)
	})

	t.Run("Unknown game surfaces ErrGameNotFound", func(t *testing.T) {
		fx := newGameplayFixture()

		_, err := fx.service.SubmitMove(context.Background(), "missing", &entity.Position{Row: 0, Col: 0})

		require.ErrorIs(t, err, apperror.ErrGameNotFound)
	})

	t.Run("Human move during the AI's turn is rejected", func(t *testing.T) {
		fx := newGameplayFixture()
		game, err := fx.service.CreateGame(context.Background(), entity.WithBotType, "")
		require.NoError(t, err)

		_, err = fx.service.SubmitMove(context.Background(), game.ID, &entity.Position{Row: 0, Col: 0})
		require.NoError(t, err)

		// When: another human move arrives while the AI holds the turn
		_, err = fx.service.SubmitMove(context.Background(), game.ID, &entity.Position{Row: 1, Col: 1})

		// Then: it is rejected as out of turn
		require.ErrorIs(t, err, apperror.ErrNotYourTurn)
	})

	t.Run("Nil position on a human turn is rejected", func(t *testing.T) {
		fx := newGameplayFixture()
		game, err := fx.service.CreateGame(context.Background(), entity.WithBotType, "")
		require.NoError(t, err)

		_, err = fx.service.SubmitMove(context.Background(), game.ID, nil)

		require.ErrorIs(t, err, ErrPositionRequired)
	})

	t.Run("Nil position resolves a pending AI turn inline", func(t *testing.T) {
		fx := newGameplayFixture()
		fx.ai.pos = entity.Position{Row: 0, Col: 0}
		fx.ai.evaluation = 0.25

		game, err := fx.service.CreateGame(context.Background(), entity.WithBotType, "")
		require.NoError(t, err)

		_, err = fx.service.SubmitMove(context.Background(), game.ID, &entity.Position{Row: 1, Col: 1})
		require.NoError(t, err)

		// When: the pending AI turn is triggered without a position
		updated, err := fx.service.SubmitMove(context.Background(), game.ID, nil)

		// Then: the AI's move is applied with its evaluation on record
		require.NoError(t, err)
		assert.Equal(t, entity.PlayerO, updated.State.Board[0])
		assert.Equal(t, entity.PlayerX, updated.State.Turn)

		records, err := fx.repo.MovesByGameID(context.Background(), game.ID)
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, entity.AIPlayerID, records[1].PlayerID)
		require.NotNil(t, records[1].Evaluation)
		assert.InDelta(t, 0.25, *records[1].Evaluation, 1e-9)
	})

	t.Run("Winning move emits a result event and stamps FinishedAt", func(t *testing.T) {
		fx := newGameplayFixture()
		game, err := fx.service.CreateGame(context.Background(), entity.PvPType, "")
		require.NoError(t, err)

		// Given: X one move away from the top row
		for _, pos := range []entity.Position{{Row: 0, Col: 0}, {Row: 1, Col: 1}, {Row: 0, Col: 1}, {Row: 2, Col: 2}} {
			target := pos
			_, err = fx.service.SubmitMove(context.Background(), game.ID, &target)
			require.NoError(t, err)
		}

		// When: X completes the row
		updated, err := fx.service.SubmitMove(context.Background(), game.ID, &entity.Position{Row: 0, Col: 2})

		// Then: the game is won, stamped and reported to the platform
		require.NoError(t, err)
		assert.Equal(t, entity.StatusXWon, updated.State.Status)
		require.NotNil(t, updated.FinishedAt)
		require.Len(t, fx.platform.results, 1)
		assert.Equal(t, updated.ID, fx.platform.results[0].ID)
		assert.Empty(t, fx.scheduler.scheduled)
	})

	t.Run("Concurrent submissions lose with ErrConcurrentModification", func(t *testing.T) {
		fx := newGameplayFixture()
		game, err := fx.service.CreateGame(context.Background(), entity.PvPType, "")
		require.NoError(t, err)

		// Given: a second writer that bumps the stored version between
		// this submission's load and its persist
		raced := false
		fx.repo.onUpdate = func() {
			if raced {
				return
			}
			raced = true

			other, getErr := fx.repo.GetByID(context.Background(), game.ID)
			require.NoError(t, getErr)

			after, applyErr := entity.ApplyMove(other.State, entity.Position{Row: 2, Col: 2})
			require.NoError(t, applyErr)
			other.State = after

			record := entity.NewMoveRecord(other, "rival", entity.Position{Row: 2, Col: 2}, game.State, after)
			require.NoError(t, fx.repo.UpdateWithMove(context.Background(), other, record))
		}

		// When: the original submission persists against its stale copy
		_, err = fx.service.SubmitMove(context.Background(), game.ID, &entity.Position{Row: 0, Col: 0})

		// Then: it loses with a version conflict instead of overwriting
		require.ErrorIs(t, err, apperror.ErrConcurrentModification)

		stored, err := fx.repo.GetByID(context.Background(), game.ID)
		require.NoError(t, err)
		assert.Equal(t, entity.PlayerX, stored.State.Board[8])
		assert.Equal(t, entity.EmptyCell, stored.State.Board[0])
	})
}

func TestGamePlayService_ResolveAIMove(t *testing.T) {
	t.Run("Applies the AI's move through the normal path", func(t *testing.T) {
		fx := newGameplayFixture()
		fx.ai.pos = entity.Position{Row: 1, Col: 1}
		fx.ai.evaluation = 0.5

		game, err := fx.service.CreateGame(context.Background(), entity.WithBotType, "")
		require.NoError(t, err)
		_, err = fx.service.SubmitMove(context.Background(), game.ID, &entity.Position{Row: 0, Col: 0})
		require.NoError(t, err)

		// When: the scheduled resolution runs
		err = fx.service.ResolveAIMove(context.Background(), game.ID)

		// Then: the AI move is persisted and control returns to the human
		require.NoError(t, err)

		stored, err := fx.repo.GetByID(context.Background(), game.ID)
		require.NoError(t, err)
		assert.Equal(t, entity.PlayerO, stored.State.Board[4])
		assert.Equal(t, entity.PlayerX, stored.State.Turn)
		assert.Equal(t, 2, stored.State.MoveCount)
	})

	t.Run("AI failure leaves the game untouched", func(t *testing.T) {
		fx := newGameplayFixture()
		fx.ai.err = apperror.ErrAIService

		game, err := fx.service.CreateGame(context.Background(), entity.WithBotType, "")
		require.NoError(t, err)
		_, err = fx.service.SubmitMove(context.Background(), game.ID, &entity.Position{Row: 0, Col: 0})
		require.NoError(t, err)

		before, err := fx.repo.GetByID(context.Background(), game.ID)
		require.NoError(t, err)

		// When: resolution runs against a broken AI service
		err = fx.service.ResolveAIMove(context.Background(), game.ID)

		// Then: the error surfaces to the worker and the state is unchanged
		require.ErrorIs(t, err, apperror.ErrAIService)

		after, getErr := fx.repo.GetByID(context.Background(), game.ID)
		require.NoError(t, getErr)
		assert.Equal(t, before.State, after.State)
		assert.Equal(t, entity.StatusInProgress, after.State.Status)

		records, err := fx.repo.MovesByGameID(context.Background(), game.ID)
		require.NoError(t, err)
		assert.Len(t, records, 1)
	})

	t.Run("Finished game makes resolution a no-op", func(t *testing.T) {
		fx := newGameplayFixture()
		game, err := fx.service.CreateGame(context.Background(), entity.WithBotType, "")
		require.NoError(t, err)

		stored, err := fx.repo.GetByID(context.Background(), game.ID)
		require.NoError(t, err)
		stored.State.Status = entity.StatusDraw
		fx.repo.games[game.ID] = *stored

		err = fx.service.ResolveAIMove(context.Background(), game.ID)

		require.NoError(t, err)
		assert.Zero(t, fx.ai.calls)
	})

	t.Run("Human turn makes resolution a no-op", func(t *testing.T) {
		fx := newGameplayFixture()
		game, err := fx.service.CreateGame(context.Background(), entity.WithBotType, "")
		require.NoError(t, err)

		// When: a duplicated task fires while the human still holds the move
		err = fx.service.ResolveAIMove(context.Background(), game.ID)

		// Then: nothing happens
		require.NoError(t, err)
		assert.Zero(t, fx.ai.calls)
	})

	t.Run("Unknown game surfaces ErrGameNotFound", func(t *testing.T) {
		fx := newGameplayFixture()

		err := fx.service.ResolveAIMove(context.Background(), "missing")

		require.ErrorIs(t, err, apperror.ErrGameNotFound)
	})
}

func TestGamePlayService_GameMoves(t *testing.T) {
	fx := newGameplayFixture()
	game, err := fx.service.CreateGame(context.Background(), entity.PvPType, "")
	require.NoError(t, err)

	_, err = fx.service.SubmitMove(context.Background(), game.ID, &entity.Position{Row: 0, Col: 0})
	require.NoError(t, err)

	// When: listing the history
	records, err := fx.service.GameMoves(context.Background(), game.ID)

	// Then: the applied move is there
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 1, records[0].MoveNumber)

	// And: an unknown game is a not-found, not an empty list
	_, err = fx.service.GameMoves(context.Background(), "missing")
	require.ErrorIs(t, err, apperror.ErrGameNotFound)
}

