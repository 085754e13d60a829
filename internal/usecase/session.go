package usecase

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/rocketscienceinc/tictactoe-hotseat/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-hotseat/internal/entity"
	"github.com/rocketscienceinc/tictactoe-hotseat/internal/tictactoe"
)

const saveTimeout = 5 * time.Second

// Listener receives the derived state after every accepted change.
// It is called with the session locked and must not call back into the session.
type Listener func(state tictactoe.State)

type sessionRepo interface {
	Save(ctx context.Context, session *entity.Session) error
	GetByID(ctx context.Context, id string) (*entity.Session, error)
	DeleteByID(ctx context.Context, id string) error
}

// Session drives one game for one browser session. Intents and the bot's
// delayed move are serialised by mu.
type Session struct {
	id     string
	logger *slog.Logger
	repo   sessionRepo

	scheduler tictactoe.Scheduler
	aiDelay   time.Duration

	mu       sync.Mutex
	engine   *tictactoe.Engine
	listener Listener
	closed   bool

	pending    tictactoe.Task
	pendingKey tictactoe.AIDecisionKey
	pendingSeq uint64
}

func newSession(id string, logger *slog.Logger, engine *tictactoe.Engine, repo sessionRepo, scheduler tictactoe.Scheduler, aiDelay time.Duration) *Session {
	session := &Session{
		id:        id,
		logger:    logger.With("component", "session", "sessionID", id),
		repo:      repo,
		scheduler: scheduler,
		aiDelay:   aiDelay,
		engine:    engine,
	}

	// a restored game may already be waiting on the bot
	session.mu.Lock()
	session.reconcileAI()
	session.mu.Unlock()

	return session
}

func (that *Session) ID() string {
	return that.id
}

// SetListener - replaces the state listener; nil detaches it.
func (that *Session) SetListener(listener Listener) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.listener = listener
}

// Closed - reports whether the session was released or forgotten.
func (that *Session) Closed() bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.closed
}

func (that *Session) State() tictactoe.State {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.engine.State()
}

// SelectSquare - human move for the active player. Illegal moves and moves on
// a closed session are ignored.
func (that *Session) SelectSquare(ctx context.Context, row, col int) bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.closed {
		return false
	}

	if err := that.engine.ApplyMove(row, col, that.engine.ActivePlayer()); err != nil {
		that.logger.Debug("move ignored", "row", row, "col", col, "reason", err)
		return false
	}

	that.afterChange(ctx)

	return true
}

func (that *Session) ChangePlayerName(ctx context.Context, symbol entity.Symbol, name string) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.closed {
		return apperror.ErrSessionNotFound
	}

	if err := that.engine.SetPlayerName(symbol, name); err != nil {
		return err
	}

	that.afterChange(ctx)

	return nil
}

// SetMode - switches between human and bot opponents. The board is kept as is.
func (that *Session) SetMode(ctx context.Context, mode entity.GameMode) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.closed {
		return apperror.ErrSessionNotFound
	}

	if err := that.engine.SetGameMode(mode); err != nil {
		return err
	}

	that.afterChange(ctx)

	return nil
}

func (that *Session) ResetGame(ctx context.Context) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.closed {
		return apperror.ErrSessionNotFound
	}

	that.engine.Reset()
	that.afterChange(ctx)

	return nil
}

// Close - cancels the pending bot move and detaches the listener.
func (that *Session) Close() {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.closed = true
	that.listener = nil
	that.cancelPending()
}

func (that *Session) snapshot() *entity.Session {
	return &entity.Session{
		ID:      that.id,
		Turns:   that.engine.History(),
		Players: that.engine.Names(),
		Mode:    that.engine.Mode(),
	}
}

func (that *Session) afterChange(ctx context.Context) {
	if err := that.repo.Save(ctx, that.snapshot()); err != nil {
		that.logger.Error("failed to save session", "error", err)
	}

	that.reconcileAI()

	if that.listener != nil {
		that.listener(that.engine.State())
	}
}

// reconcileAI keeps at most one bot move pending, tied to the inputs it was
// chosen from. It must be called with mu held.
func (that *Session) reconcileAI() {
	if that.closed {
		return
	}

	key := that.engine.AIDecisionKey()
	if that.pending != nil && key == that.pendingKey {
		return
	}

	that.cancelPending()

	if !that.engine.ShouldScheduleAIMove() {
		return
	}

	square, ok := that.engine.ChooseAIMove()
	if !ok {
		return
	}

	seq := that.pendingSeq
	that.pendingKey = key
	that.pending = that.scheduler.Schedule(that.aiDelay, func() {
		that.runAIMove(seq, key, square)
	})

	that.logger.Debug("bot move scheduled", "row", square.Row, "col", square.Col, "delay", that.aiDelay)
}

func (that *Session) cancelPending() {
	if that.pending == nil {
		return
	}

	that.pending.Cancel()
	that.pending = nil
	that.pendingSeq++
}

func (that *Session) runAIMove(seq uint64, key tictactoe.AIDecisionKey, square entity.Square) {
	that.mu.Lock()
	defer that.mu.Unlock()

	// a cancelled timer may still fire if it had already started
	if that.closed || seq != that.pendingSeq || key != that.engine.AIDecisionKey() {
		that.logger.Debug("stale bot move dropped")
		return
	}

	that.pending = nil
	that.pendingSeq++

	if !that.engine.SubmitMoveAs(square.Row, square.Col, tictactoe.AISymbol) {
		that.logger.Warn("bot move rejected", "row", square.Row, "col", square.Col)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()

	that.afterChange(ctx)
}
