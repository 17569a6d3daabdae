package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	// import the SQLite driver to register it with the database/sql package.
	_ "github.com/mattn/go-sqlite3"
)

type Storage struct {
	Connection *sql.DB
}

func New(path string) (*Storage, error) {
	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("can't open database: %w", err)
	}

	if err = conn.Ping(); err != nil {
		return nil, fmt.Errorf("can't connect to database: %w", err)
	}

	return &Storage{Connection: conn}, nil
}

// Init - bootstraps the games and moves tables.
func (that *Storage) Init(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS games (
			id            TEXT PRIMARY KEY,
			mode          TEXT NOT NULL,
			ai_difficulty TEXT NOT NULL DEFAULT '',
			player_x_id   TEXT NOT NULL,
			player_o_id   TEXT NOT NULL,
			board         TEXT NOT NULL,
			turn          TEXT NOT NULL,
			status        TEXT NOT NULL,
			winner        TEXT NOT NULL DEFAULT '',
			move_count    INTEGER NOT NULL DEFAULT 0,
			version       INTEGER NOT NULL DEFAULT 1,
			created_at    TIMESTAMP NOT NULL,
			updated_at    TIMESTAMP NOT NULL,
			finished_at   TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS moves (
			id              INTEGER PRIMARY KEY AUTOINCREMENT,
			game_id         TEXT NOT NULL REFERENCES games(id),
			move_number     INTEGER NOT NULL,
			player_id       TEXT NOT NULL,
			mark            TEXT NOT NULL,
			row             INTEGER NOT NULL,
			col             INTEGER NOT NULL,
			state_before    TEXT NOT NULL,
			state_after     TEXT NOT NULL,
			heuristic_value REAL NOT NULL,
			evaluation      REAL,
			created_at      TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_moves_game_id ON moves (game_id, move_number)`,
	}

	for _, query := range queries {
		if _, err := that.Connection.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("can't create table: %w", err)
		}
	}

	return nil
}

func (that *Storage) Close() error {
	return that.Connection.Close()
}
