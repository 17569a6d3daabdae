package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gridplay/tictactoe-backend/internal/apperror"
	"github.com/gridplay/tictactoe-backend/internal/entity"
)

const aiMovePath = "/api/ai/move"

type AIClient interface {
	RequestMove(ctx context.Context, state entity.GameState, difficulty string) (entity.Position, float64, error)
}

type aiClient struct {
	logger  *slog.Logger
	baseURL string
	client  *http.Client
}

// NewAIClient - an HTTP client for the external move-computation service.
// Every request is bounded by the given timeout; exceeding it is an
// ErrAIService, not a fatal condition for the game.
func NewAIClient(logger *slog.Logger, baseURL string, timeout time.Duration) AIClient {
	return &aiClient{
		logger:  logger.With("component", "ai_client"),
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

type aiMoveRequest struct {
	Game       string      `json:"game"`
	State      aiMoveState `json:"state"`
	Difficulty string      `json:"difficulty"`
}

type aiMoveState struct {
	Board         [3][3]*string `json:"board"`
	CurrentPlayer string        `json:"currentPlayer"`
}

type aiMoveResponse struct {
	Move       *entity.Position `json:"move"`
	Evaluation float64          `json:"evaluation"`
}

func (that *aiClient) RequestMove(ctx context.Context, state entity.GameState, difficulty string) (entity.Position, float64, error) {
	payload := aiMoveRequest{
		Game:       "tictactoe",
		State:      boardPayload(state),
		Difficulty: difficulty,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return entity.Position{}, 0, fmt.Errorf("could not marshal ai request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, that.baseURL+aiMovePath, bytes.NewReader(body))
	if err != nil {
		return entity.Position{}, 0, fmt.Errorf("could not build ai request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := that.client.Do(req)
	if err != nil {
		return entity.Position{}, 0, fmt.Errorf("%w: %v", apperror.ErrAIService, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return entity.Position{}, 0, fmt.Errorf("%w: unexpected status %d", apperror.ErrAIService, resp.StatusCode)
	}

	var moveResp aiMoveResponse
	if err = json.NewDecoder(resp.Body).Decode(&moveResp); err != nil {
		return entity.Position{}, 0, fmt.Errorf("%w: malformed response: %v", apperror.ErrAIService, err)
	}

	if moveResp.Move == nil {
		return entity.Position{}, 0, fmt.Errorf("%w: response is missing a move", apperror.ErrAIService)
	}

	return *moveResp.Move, moveResp.Evaluation, nil
}

// boardPayload - renders the board the way the AI service expects it:
// a 3x3 grid of null / "X" / "O" plus the mark to move.
func boardPayload(state entity.GameState) aiMoveState {
	var board [3][3]*string

	for i, cell := range state.Board {
		if cell == entity.EmptyCell {
			continue
		}
		mark := cell
		board[i/3][i%3] = &mark
	}

	return aiMoveState{
		Board:         board,
		CurrentPlayer: state.Turn,
	}
}
