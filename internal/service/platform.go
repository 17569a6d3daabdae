package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gridplay/tictactoe-backend/internal/entity"
)

const (
	platformMovesPath   = "/game-sessions/moves"
	platformResultsPath = "/game-sessions/results"

	platformSendTimeout = 5 * time.Second
)

// PlatformLogger - best-effort analytics events for the platform backend.
// Both calls return immediately; delivery happens on a separate sender and
// failures never reach the gameplay path.
type PlatformLogger interface {
	LogMove(game *entity.Game, record *entity.MoveRecord)
	LogResult(game *entity.Game, history []*entity.MoveRecord)
}

type platformEvent struct {
	path    string
	payload any
}

type HTTPPlatformLogger struct {
	logger  *slog.Logger
	baseURL string
	client  *http.Client

	mu     sync.Mutex
	closed bool
	events chan platformEvent
	wg     sync.WaitGroup
}

// NewPlatformLogger - starts the sender goroutine. Call Close to drain and
// stop it. An empty baseURL disables delivery entirely; events are dropped.
func NewPlatformLogger(logger *slog.Logger, baseURL string, queueSize int) *HTTPPlatformLogger {
	that := &HTTPPlatformLogger{
		logger:  logger.With("component", "platform_logger"),
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: platformSendTimeout},
		events:  make(chan platformEvent, queueSize),
	}

	that.wg.Add(1)
	go that.run()

	return that
}

type platformMoveEntry struct {
	GameID         string           `json:"game_id"`
	PlayerID       string           `json:"player_id"`
	MoveIndex      int              `json:"move_index"`
	MoveNumber     int              `json:"move_number"`
	PreviousState  entity.GameState `json:"previous_state"`
	NextState      entity.GameState `json:"next_state"`
	HeuristicValue float64          `json:"heuristic_value"`
	Evaluation     *float64         `json:"evaluation,omitempty"`
	Timestamp      time.Time        `json:"timestamp"`
}

type platformResultEntry struct {
	GameID     string              `json:"game_id"`
	Winner     string              `json:"winner,omitempty"`
	Status     string              `json:"status"`
	FinalState entity.GameState    `json:"final_state"`
	History    []platformMoveBrief `json:"history"`
}

type platformMoveBrief struct {
	Player     string `json:"player"`
	Move       int    `json:"move"`
	MoveNumber int    `json:"move_number"`
}

func (that *HTTPPlatformLogger) LogMove(game *entity.Game, record *entity.MoveRecord) {
	entry := platformMoveEntry{
		GameID:         game.ID,
		PlayerID:       record.PlayerID,
		MoveIndex:      entity.Position{Row: record.Row, Col: record.Col}.Index(),
		MoveNumber:     record.MoveNumber,
		PreviousState:  record.StateBefore,
		NextState:      record.StateAfter,
		HeuristicValue: record.HeuristicValue,
		Evaluation:     record.Evaluation,
		Timestamp:      record.CreatedAt,
	}

	that.enqueue(platformEvent{path: platformMovesPath, payload: entry})
}

func (that *HTTPPlatformLogger) LogResult(game *entity.Game, history []*entity.MoveRecord) {
	entry := platformResultEntry{
		GameID:     game.ID,
		Winner:     game.State.Winner,
		Status:     game.State.Status,
		FinalState: game.State,
	}

	for _, record := range history {
		entry.History = append(entry.History, platformMoveBrief{
			Player:     record.Mark,
			Move:       entity.Position{Row: record.Row, Col: record.Col}.Index(),
			MoveNumber: record.MoveNumber,
		})
	}

	that.enqueue(platformEvent{path: platformResultsPath, payload: entry})
}

// enqueue - never blocks the caller: a full queue drops the event, and so
// does a logger that has already been closed.
func (that *HTTPPlatformLogger) enqueue(event platformEvent) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.closed {
		that.logger.Warn("platform logger is closed, dropping event", "path", event.path)
		return
	}

	select {
	case that.events <- event:
	default:
		that.logger.Warn("platform event queue is full, dropping event", "path", event.path)
	}
}

// Close - stops accepting events and waits for the queue to drain.
// Idempotent; events logged after Close are dropped.
func (that *HTTPPlatformLogger) Close() {
	that.mu.Lock()
	if that.closed {
		that.mu.Unlock()
		return
	}
	that.closed = true
	close(that.events)
	that.mu.Unlock()

	that.wg.Wait()
}

func (that *HTTPPlatformLogger) run() {
	defer that.wg.Done()

	for event := range that.events {
		if that.baseURL == "" {
			continue
		}

		if err := that.send(event); err != nil {
			that.logger.Error("failed to deliver platform event", "path", event.path, "error", err)
		}
	}
}

func (that *HTTPPlatformLogger) send(event platformEvent) error {
	body, err := json.Marshal(event.payload)
	if err != nil {
		return fmt.Errorf("could not marshal platform event: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), platformSendTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, that.baseURL+event.path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("could not build platform request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := that.client.Do(req)
	if err != nil {
		return fmt.Errorf("platform request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("platform responded with status %d", resp.StatusCode)
	}

	return nil
}
