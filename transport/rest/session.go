package rest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rocketscienceinc/tictactoe-hotseat/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-hotseat/internal/tictactoe"
)

type sessionManager interface {
	Snapshot(ctx context.Context, id string) (tictactoe.State, error)
	Forget(ctx context.Context, id string) error
}

type SessionHandler interface {
	GetState(w http.ResponseWriter, r *http.Request)
	Forget(w http.ResponseWriter, r *http.Request)
}

type sessionHandler struct {
	logger   *slog.Logger
	sessions sessionManager
}

func NewSessionHandler(logger *slog.Logger, sessions sessionManager) SessionHandler {
	return &sessionHandler{
		logger:   logger.With("component", "rest"),
		sessions: sessions,
	}
}

// GetState - GET /sessions/{id}: the derived state of a session.
func (that *sessionHandler) GetState(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "GetState")
	id := chi.URLParam(r, "id")

	state, err := that.sessions.Snapshot(r.Context(), id)
	if errors.Is(err, apperror.ErrSessionNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	if err != nil {
		log.Error("failed to read session", "sessionID", id, "error", err)
		writeError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	writeJSON(w, http.StatusOK, state)
}

// Forget - DELETE /sessions/{id}: ends the session and drops its snapshot.
func (that *sessionHandler) Forget(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "Forget")
	id := chi.URLParam(r, "id")

	if err := that.sessions.Forget(r.Context(), id); err != nil {
		log.Error("failed to forget session", "sessionID", id, "error", err)
		writeError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
