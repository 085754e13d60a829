package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rocketscienceinc/tictactoe-hotseat/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-hotseat/internal/entity"
	"github.com/rocketscienceinc/tictactoe-hotseat/internal/tictactoe"
)

// Settings configure every session created by a SessionManager.
type Settings struct {
	AIDelay time.Duration
	// AISeed seeds each session's bot; 0 means random.
	AISeed int64
	Names  entity.PlayerNames
}

type SessionManager struct {
	logger    *slog.Logger
	repo      sessionRepo
	scheduler tictactoe.Scheduler
	settings  Settings

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewSessionManager(logger *slog.Logger, repo sessionRepo, scheduler tictactoe.Scheduler, settings Settings) *SessionManager {
	if settings.Names == nil {
		settings.Names = entity.DefaultPlayerNames()
	}

	return &SessionManager{
		logger:    logger,
		repo:      repo,
		scheduler: scheduler,
		settings:  settings,
		sessions:  make(map[string]*Session),
	}
}

// NewSessionID - generates an identifier for a browser session.
func NewSessionID() string {
	return uuid.NewString()
}

// GetOrCreate - returns the live session, rebuilds it from its saved snapshot,
// or starts a fresh game. An empty id gets a new one.
func (that *SessionManager) GetOrCreate(ctx context.Context, id string) (*Session, error) {
	log := that.logger.With("method", "GetOrCreate")

	if id == "" {
		id = NewSessionID()
	}

	if session, ok := that.live(id); ok {
		return session, nil
	}

	// the store round trip happens without holding mu
	engine, err := that.loadEngine(ctx, id)
	if err != nil {
		return nil, err
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	if session, ok := that.sessions[id]; ok {
		return session, nil
	}

	session := newSession(id, that.logger, engine, that.repo, that.scheduler, that.settings.AIDelay)
	that.sessions[id] = session

	log.Info("session opened", "sessionID", id, "turns", len(engine.History()))

	return session, nil
}

func (that *SessionManager) live(id string) (*Session, bool) {
	that.mu.Lock()
	defer that.mu.Unlock()

	session, ok := that.sessions[id]

	return session, ok
}

// Snapshot - derived state of a live or saved session without opening it.
func (that *SessionManager) Snapshot(ctx context.Context, id string) (tictactoe.State, error) {
	if session, ok := that.live(id); ok {
		return session.State(), nil
	}

	saved, err := that.repo.GetByID(ctx, id)
	if err != nil {
		return tictactoe.State{}, fmt.Errorf("failed to get session by id: %w", err)
	}

	return that.restore(saved).State(), nil
}

// Release - closes a live session. Its snapshot stays in the repository.
func (that *SessionManager) Release(id string) {
	that.mu.Lock()
	session, ok := that.sessions[id]
	delete(that.sessions, id)
	that.mu.Unlock()

	if !ok {
		return
	}

	session.Close()
	that.logger.Info("session released", "sessionID", id)
}

// Forget - closes the session and drops its snapshot. Holders of the closed
// session get ErrSessionNotFound from its intents and must open it again.
func (that *SessionManager) Forget(ctx context.Context, id string) error {
	that.Release(id)

	if err := that.repo.DeleteByID(ctx, id); err != nil && !errors.Is(err, apperror.ErrSessionNotFound) {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	return nil
}

// Close - releases every live session.
func (that *SessionManager) Close() {
	that.mu.Lock()
	sessions := that.sessions
	that.sessions = make(map[string]*Session)
	that.mu.Unlock()

	for _, session := range sessions {
		session.Close()
	}
}

func (that *SessionManager) loadEngine(ctx context.Context, id string) (*tictactoe.Engine, error) {
	saved, err := that.repo.GetByID(ctx, id)
	if errors.Is(err, apperror.ErrSessionNotFound) {
		return tictactoe.NewEngine(that.settings.Names, entity.ModePlayer, tictactoe.NewRandSource(that.settings.AISeed)), nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get session by id: %w", err)
	}

	return that.restore(saved), nil
}

// restore rebuilds an engine from a snapshot; saved names override the defaults.
func (that *SessionManager) restore(saved *entity.Session) *tictactoe.Engine {
	names := that.settings.Names.Clone()
	for symbol, name := range saved.Players {
		if symbol.IsValid() {
			names[symbol] = name
		}
	}

	return tictactoe.Restore(saved.Turns, names, saved.Mode, tictactoe.NewRandSource(that.settings.AISeed))
}
