package repository

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/gridplay/tictactoe-backend/internal/entity"
	"github.com/redis/go-redis/v9"
)

// cacheTTL bounds how long a snapshot outlives the write that stored it.
const cacheTTL = time.Minute

// cachedGame - a GameRepository that keeps redis snapshots of games in
// front of the SQLite system of record: reads repopulate, updates
// invalidate. The cache is best effort: any redis failure is logged and
// the call falls through to the inner repository.
type cachedGame struct {
	logger *slog.Logger
	inner  GameRepository
	client *redis.Client
}

func NewCachedGameRepository(logger *slog.Logger, inner GameRepository, client *redis.Client) GameRepository {
	return &cachedGame{
		logger: logger.With("component", "game_cache"),
		inner:  inner,
		client: client,
	}
}

func (that *cachedGame) Create(ctx context.Context, game *entity.Game) error {
	if err := that.inner.Create(ctx, game); err != nil {
		return err
	}

	that.store(ctx, game)

	return nil
}

func (that *cachedGame) GetByID(ctx context.Context, id string) (*entity.Game, error) {
	gameKey := "game:" + id

	response, err := that.client.Get(ctx, gameKey).Result()
	if err == nil {
		var snapshot cachedGameSnapshot
		if err = json.Unmarshal([]byte(response), &snapshot); err == nil && snapshot.Game.ID != "" {
			snapshot.Game.Version = snapshot.Version
			return &snapshot.Game, nil
		}
		that.logger.Warn("failed to unmarshal cached game", "gameID", id, "error", err)
	} else if !errors.Is(err, redis.Nil) {
		that.logger.Warn("failed to read game from cache", "gameID", id, "error", err)
	}

	game, err := that.inner.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	that.store(ctx, game)

	return game, nil
}

// UpdateWithMove - invalidates the snapshot rather than storing the new
// state: a delayed write-through from the loser of a version race could
// shadow the winner's state, while after a Del the next read repopulates
// from SQLite, which the version guard keeps authoritative.
func (that *cachedGame) UpdateWithMove(ctx context.Context, game *entity.Game, record *entity.MoveRecord) error {
	err := that.inner.UpdateWithMove(ctx, game, record)

	if dropErr := that.client.Del(ctx, "game:"+game.ID).Err(); dropErr != nil {
		that.logger.Warn("failed to drop game from cache", "gameID", game.ID, "error", dropErr)
	}

	return err
}

func (that *cachedGame) MovesByGameID(ctx context.Context, gameID string) ([]*entity.MoveRecord, error) {
	return that.inner.MovesByGameID(ctx, gameID)
}

// cachedGameSnapshot - carries the optimistic version alongside the game,
// since Game keeps it out of its public JSON form.
type cachedGameSnapshot struct {
	Game    entity.Game `json:"game"`
	Version int64       `json:"version"`
}

func (that *cachedGame) store(ctx context.Context, game *entity.Game) {
	gameJSON, err := json.Marshal(cachedGameSnapshot{Game: *game, Version: game.Version})
	if err != nil {
		that.logger.Warn("failed to marshal game for cache", "gameID", game.ID, "error", err)
		return
	}

	gameKey := "game:" + game.ID
	if err = that.client.Set(ctx, gameKey, gameJSON, cacheTTL).Err(); err != nil {
		that.logger.Warn("failed to store game in cache", "gameID", game.ID, "error", err)
	}
}
