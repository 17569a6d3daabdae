package rest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gridplay/tictactoe-backend/internal/apperror"
	"github.com/gridplay/tictactoe-backend/internal/entity"
	"github.com/gridplay/tictactoe-backend/internal/service"
)

type gamePlayService interface {
	CreateGame(ctx context.Context, mode, aiDifficulty string) (*entity.Game, error)
	GetGame(ctx context.Context, id string) (*entity.Game, error)
	SubmitMove(ctx context.Context, id string, pos *entity.Position) (*entity.Game, error)
	GameMoves(ctx context.Context, id string) ([]*entity.MoveRecord, error)
}

type handlers struct {
	logger  *slog.Logger
	service gamePlayService
}

func newHandlers(logger *slog.Logger, service gamePlayService) *handlers {
	return &handlers{
		logger:  logger.With("component", "rest"),
		service: service,
	}
}

func (that *handlers) Ping(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("pong")); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
}

func (that *handlers) CreateGame(w http.ResponseWriter, r *http.Request) {
	var req createGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		that.writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	game, err := that.service.CreateGame(r.Context(), req.Mode, req.AIDifficulty)
	if err != nil {
		that.writeServiceError(w, err)
		return
	}

	that.writeJSON(w, http.StatusCreated, game)
}

func (that *handlers) GetGame(w http.ResponseWriter, r *http.Request) {
	game, err := that.service.GetGame(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		that.writeServiceError(w, err)
		return
	}

	that.writeJSON(w, http.StatusOK, game)
}

func (that *handlers) SubmitMove(w http.ResponseWriter, r *http.Request) {
	var req moveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		that.writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	if (req.Row == nil) != (req.Col == nil) {
		that.writeError(w, http.StatusBadRequest, "row and col must be provided together")
		return
	}

	var pos *entity.Position
	if req.Row != nil {
		pos = &entity.Position{Row: *req.Row, Col: *req.Col}
	}

	game, err := that.service.SubmitMove(r.Context(), chi.URLParam(r, "id"), pos)
	if err != nil {
		that.writeServiceError(w, err)
		return
	}

	that.writeJSON(w, http.StatusOK, game)
}

func (that *handlers) GameMoves(w http.ResponseWriter, r *http.Request) {
	records, err := that.service.GameMoves(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		that.writeServiceError(w, err)
		return
	}

	if records == nil {
		records = []*entity.MoveRecord{}
	}

	that.writeJSON(w, http.StatusOK, records)
}

// writeServiceError - maps the domain error taxonomy onto status codes.
func (that *handlers) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperror.ErrGameNotFound):
		that.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, apperror.ErrInvalidCell),
		errors.Is(err, apperror.ErrCellOccupied),
		errors.Is(err, apperror.ErrNotYourTurn),
		errors.Is(err, apperror.ErrGameFinished),
		errors.Is(err, service.ErrUnknownGameMode),
		errors.Is(err, service.ErrUnknownDifficulty),
		errors.Is(err, service.ErrPositionRequired):
		that.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, apperror.ErrConcurrentModification):
		that.writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, apperror.ErrAIService):
		that.writeError(w, http.StatusBadGateway, err.Error())
	default:
		that.logger.Error("unhandled service error", "error", err)
		that.writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func (that *handlers) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		that.logger.Error("failed to encode response", "error", err)
	}
}

func (that *handlers) writeError(w http.ResponseWriter, status int, msg string) {
	that.writeJSON(w, status, errorResponse{Error: msg})
}
