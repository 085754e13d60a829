package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe-hotseat/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-hotseat/internal/entity"
	"github.com/rocketscienceinc/tictactoe-hotseat/internal/repository"
)

func newTestManager(t *testing.T) (*SessionManager, repository.SessionRepository, *manualScheduler) {
	t.Helper()

	repo := repository.NewMemorySessionRepository()
	scheduler := &manualScheduler{}
	manager := NewSessionManager(discardLogger(), repo, scheduler, Settings{AIDelay: time.Second, AISeed: 1})
	t.Cleanup(manager.Close)

	return manager, repo, scheduler
}

func TestSessionManager_GetOrCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("Empty id gets a fresh uuid", func(t *testing.T) {
		manager, _, _ := newTestManager(t)

		// When: a browser without a session connects
		session, err := manager.GetOrCreate(ctx, "")

		// Then: a new game starts under a generated id
		require.NoError(t, err)
		_, err = uuid.Parse(session.ID())
		require.NoError(t, err)

		state := session.State()
		assert.Empty(t, state.Turns)
		assert.Equal(t, entity.ModePlayer, state.Mode)
		assert.Equal(t, "Player 1", state.Players[entity.PlayerX])
		assert.Equal(t, "Player 2", state.Players[entity.PlayerO])
	})

	t.Run("Same id returns the live session", func(t *testing.T) {
		manager, _, _ := newTestManager(t)

		first, err := manager.GetOrCreate(ctx, "tab")
		require.NoError(t, err)
		require.True(t, first.SelectSquare(ctx, 0, 0))

		// When: the same id connects again
		second, err := manager.GetOrCreate(ctx, "tab")

		// Then: the same game is shared
		require.NoError(t, err)
		assert.Same(t, first, second)
		assert.Len(t, second.State().Turns, 1)
	})

	t.Run("Released session is restored from its snapshot", func(t *testing.T) {
		manager, _, _ := newTestManager(t)

		// Given: a game in progress that was released
		first, err := manager.GetOrCreate(ctx, "reload")
		require.NoError(t, err)
		require.True(t, first.SelectSquare(ctx, 1, 1))
		require.True(t, first.SelectSquare(ctx, 0, 0))
		require.NoError(t, first.ChangePlayerName(ctx, entity.PlayerO, "Grace"))
		manager.Release("reload")

		// When: the same id reconnects
		restored, err := manager.GetOrCreate(ctx, "reload")

		// Then: history and names are back on a new session
		require.NoError(t, err)
		assert.NotSame(t, first, restored)

		state := restored.State()
		assert.Len(t, state.Turns, 2)
		assert.Equal(t, entity.PlayerX, state.ActivePlayer)
		assert.Equal(t, "Grace", state.Players[entity.PlayerO])
		assert.Equal(t, "Player 1", state.Players[entity.PlayerX])
	})

	t.Run("Restored game waiting on the bot schedules its move", func(t *testing.T) {
		manager, repo, scheduler := newTestManager(t)

		// Given: a snapshot in ai mode where O is to move
		require.NoError(t, repo.Save(ctx, &entity.Session{
			ID:    "waiting",
			Turns: []entity.Move{{Square: entity.Square{Row: 1, Col: 1}, Player: entity.PlayerX}},
			Mode:  entity.ModeAI,
		}))

		// When: the session is opened
		session, err := manager.GetOrCreate(ctx, "waiting")
		require.NoError(t, err)

		// Then: the bot answers once the delay elapses
		require.Len(t, scheduler.active(), 1)
		scheduler.fire()
		assert.Len(t, session.State().Turns, 2)
	})

	t.Run("Repository failure is returned", func(t *testing.T) {
		manager := NewSessionManager(discardLogger(), failingRepo{}, &manualScheduler{}, Settings{})
		defer manager.Close()

		session, err := manager.GetOrCreate(ctx, "any")

		require.ErrorIs(t, err, errRedisDown)
		assert.Nil(t, session)
	})
}

func TestSessionManager_Snapshot(t *testing.T) {
	ctx := context.Background()
	manager, repo, scheduler := newTestManager(t)

	t.Run("Live session", func(t *testing.T) {
		session, err := manager.GetOrCreate(ctx, "live")
		require.NoError(t, err)
		require.True(t, session.SelectSquare(ctx, 0, 0))

		state, err := manager.Snapshot(ctx, "live")

		require.NoError(t, err)
		assert.Len(t, state.Turns, 1)
	})

	t.Run("Saved session is read without opening it", func(t *testing.T) {
		// Given: a snapshot in ai mode waiting on the bot
		require.NoError(t, repo.Save(ctx, &entity.Session{
			ID:      "saved",
			Turns:   []entity.Move{{Square: entity.Square{Row: 2, Col: 2}, Player: entity.PlayerX}},
			Players: entity.PlayerNames{entity.PlayerX: "Ada"},
			Mode:    entity.ModeAI,
		}))
		before := scheduler.scheduled()

		// When: reading its state
		state, err := manager.Snapshot(ctx, "saved")

		// Then: the state is derived and no bot move is scheduled
		require.NoError(t, err)
		assert.Equal(t, entity.PlayerO, state.ActivePlayer)
		assert.Equal(t, "Ada", state.Players[entity.PlayerX])
		assert.Equal(t, "Player 2", state.Players[entity.PlayerO])
		assert.Equal(t, before, scheduler.scheduled())
	})

	t.Run("Unknown session", func(t *testing.T) {
		_, err := manager.Snapshot(ctx, "unknown")

		require.ErrorIs(t, err, apperror.ErrSessionNotFound)
	})
}

func TestSessionManager_Release(t *testing.T) {
	ctx := context.Background()
	manager, _, scheduler := newTestManager(t)

	// Given: a session in ai mode waiting on the bot
	session, err := manager.GetOrCreate(ctx, "gone")
	require.NoError(t, err)
	require.NoError(t, session.SetMode(ctx, entity.ModeAI))
	require.True(t, session.SelectSquare(ctx, 0, 0))
	require.Len(t, scheduler.active(), 1)

	// When: the session is released
	manager.Release("gone")

	// Then: the pending bot move is cancelled
	assert.Empty(t, scheduler.active())

	// And: releasing an unknown id is a no-op
	manager.Release("unknown")
}

func TestSessionManager_Forget(t *testing.T) {
	ctx := context.Background()
	manager, repo, _ := newTestManager(t)

	// Given: a saved session
	session, err := manager.GetOrCreate(ctx, "forget")
	require.NoError(t, err)
	require.True(t, session.SelectSquare(ctx, 2, 2))

	// When: it is forgotten
	require.NoError(t, manager.Forget(ctx, "forget"))

	// Then: the snapshot is gone and reopening starts fresh
	_, err = repo.GetByID(ctx, "forget")
	require.ErrorIs(t, err, apperror.ErrSessionNotFound)

	fresh, err := manager.GetOrCreate(ctx, "forget")
	require.NoError(t, err)
	assert.Empty(t, fresh.State().Turns)

	// And: forgetting an unknown id is not an error
	require.NoError(t, manager.Forget(ctx, "never-saved"))
}

func TestSessionManager_ForgetHeldSession(t *testing.T) {
	ctx := context.Background()
	manager, repo, _ := newTestManager(t)

	// Given: a connection still holding a session with one move
	held, err := manager.GetOrCreate(ctx, "abc")
	require.NoError(t, err)
	require.True(t, held.SelectSquare(ctx, 0, 0))

	// When: the session is forgotten and the holder keeps sending intents
	require.NoError(t, manager.Forget(ctx, "abc"))

	accepted := held.SelectSquare(ctx, 1, 1)
	renameErr := held.ChangePlayerName(ctx, entity.PlayerX, "Zed")
	modeErr := held.SetMode(ctx, entity.ModeAI)
	resetErr := held.ResetGame(ctx)

	// Then: every intent is refused and the snapshot stays deleted
	assert.True(t, held.Closed())
	assert.False(t, accepted)
	assert.ErrorIs(t, renameErr, apperror.ErrSessionNotFound)
	assert.ErrorIs(t, modeErr, apperror.ErrSessionNotFound)
	assert.ErrorIs(t, resetErr, apperror.ErrSessionNotFound)

	_, err = repo.GetByID(ctx, "abc")
	require.ErrorIs(t, err, apperror.ErrSessionNotFound)

	// And: opening the id again starts a fresh game on a new session
	fresh, err := manager.GetOrCreate(ctx, "abc")
	require.NoError(t, err)
	assert.NotSame(t, held, fresh)
	assert.False(t, fresh.Closed())

	state := fresh.State()
	assert.Empty(t, state.Turns)
	assert.Equal(t, "Player 1", state.Players[entity.PlayerX])
	assert.True(t, fresh.SelectSquare(ctx, 1, 1))
}

func TestSessionManager_ConcurrentGetOrCreate(t *testing.T) {
	ctx := context.Background()
	manager, _, _ := newTestManager(t)

	// When: many connections open the same id at once
	const callers = 16
	results := make(chan *Session, callers)
	for i := 0; i < callers; i++ {
		go func() {
			session, err := manager.GetOrCreate(ctx, "race")
			assert.NoError(t, err)
			results <- session
		}()
	}

	// Then: all of them share one session
	first := <-results
	for i := 0; i < callers-1; i++ {
		assert.Same(t, first, <-results)
	}
}
