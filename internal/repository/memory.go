package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/rocketscienceinc/tictactoe-hotseat/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-hotseat/internal/entity"
)

// memorySession keeps snapshots in process memory. It is used when redis is disabled.
type memorySession struct {
	mu       sync.RWMutex
	sessions map[string][]byte
}

func NewMemorySessionRepository() SessionRepository {
	return &memorySession{
		sessions: make(map[string][]byte),
	}
}

func (that *memorySession) Save(_ context.Context, session *entity.Session) error {
	// stored encoded so callers never share slices or maps with the repository
	sessionJSON, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("could not marshal session: %w", err)
	}

	that.mu.Lock()
	that.sessions[session.ID] = sessionJSON
	that.mu.Unlock()

	return nil
}

func (that *memorySession) GetByID(_ context.Context, id string) (*entity.Session, error) {
	that.mu.RLock()
	sessionJSON, ok := that.sessions[id]
	that.mu.RUnlock()

	if !ok {
		return nil, apperror.ErrSessionNotFound
	}

	var existingSession entity.Session
	if err := json.Unmarshal(sessionJSON, &existingSession); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	return &existingSession, nil
}

func (that *memorySession) DeleteByID(_ context.Context, id string) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if _, ok := that.sessions[id]; !ok {
		return apperror.ErrSessionNotFound
	}

	delete(that.sessions, id)

	return nil
}
