package handler

import (
	"log/slog"
	"net/http"

	"github.com/mcoot/chessrooms/internal/api/request"
	"github.com/mcoot/chessrooms/internal/api/response"
	"github.com/mcoot/chessrooms/internal/services/engine"
)

// EngineHandler serves engine analysis over HTTP
type EngineHandler struct {
	finder engine.MoveFinder
	logger *slog.Logger
}

// NewEngineHandler creates a new engine handler
func NewEngineHandler(finder engine.MoveFinder, logger *slog.Logger) *EngineHandler {
	return &EngineHandler{
		finder: finder,
		logger: logger.With(slog.String("component", "engine-handler")),
	}
}

// BestMove handles POST /bestmove. It always answers 200; any failure
// becomes a null move.
func (h *EngineHandler) BestMove(w http.ResponseWriter, r *http.Request) {
	var resp response.BestMove

	var req request.BestMoveRequest
	if err := decodeJSON(r, &req); err != nil {
		h.logger.Debug("bestmove request not decoded", slog.String("error", err.Error()))
		response.JSON(w, http.StatusOK, resp)
		return
	}

	move, err := h.finder.BestMove(r.Context(), engine.Request{Position: req.Position, Depth: req.Depth})
	if err != nil {
		h.logger.Warn("engine search failed", slog.String("error", err.Error()))
	}
	if move != "" {
		resp.BestMove = &move
	}
	response.JSON(w, http.StatusOK, resp)
}
