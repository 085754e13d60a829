package websocket

import (
	"encoding/json"
	"fmt"

	"github.com/rocketscienceinc/tictactoe-hotseat/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-hotseat/internal/entity"
	"github.com/rocketscienceinc/tictactoe-hotseat/internal/tictactoe"
)

const (
	actionConnect = "connect"
	actionSelect  = "game:select"
	actionRename  = "game:rename"
	actionMode    = "game:mode"
	actionReset   = "game:reset"

	actionState = "game:state"
	actionError = "error"
)

type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type SessionRef struct {
	ID string `json:"id"`
}

type ConnectPayload struct {
	Session *SessionRef `json:"session,omitempty"`
}

type SelectPayload struct {
	Square *entity.Square `json:"square"`
}

type RenamePayload struct {
	Symbol entity.Symbol `json:"symbol"`
	Name   string        `json:"name"`
}

type ModePayload struct {
	Mode entity.GameMode `json:"mode"`
}

type StatePayload struct {
	Session SessionRef      `json:"session"`
	State   tictactoe.State `json:"state"`
}

type ErrorPayload struct {
	Action string `json:"action,omitempty"`
	Error  string `json:"error"`
}

// encodeMessage - builds a frame body for the given action and payload.
func encodeMessage(action string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	data, err := json.Marshal(Message{Action: action, Payload: raw})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal message: %w", err)
	}

	return data, nil
}

func decodePayload(msg *Message, out any) error {
	if len(msg.Payload) == 0 {
		return apperror.ErrMissingPayload
	}

	if err := json.Unmarshal(msg.Payload, out); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	return nil
}
