package websocket

import (
	"context"
	"fmt"

	"github.com/rocketscienceinc/tictactoe-hotseat/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-hotseat/internal/usecase"
)

// handleConnect - binds the connection to a session and sends its state.
// The payload id wins over the cookie; both empty starts a new session.
func (that *Server) handleConnect(ctx context.Context, c *client, msg *Message) error {
	log := that.logger.With("method", "handleConnect")

	id := c.cookieID

	if len(msg.Payload) > 0 {
		var payload ConnectPayload
		if err := decodePayload(msg, &payload); err != nil {
			return err
		}

		if payload.Session != nil && payload.Session.ID != "" {
			id = payload.Session.ID
		}
	}

	if c.session != nil {
		if c.session.ID() == id && !c.session.Closed() {
			c.sendState(id, c.session.State())
			return nil
		}

		that.detach(c, c.session)
		c.session = nil
	}

	session, err := that.attach(ctx, c, id)
	if err != nil {
		return err
	}

	c.session = session
	c.sendState(session.ID(), session.State())

	log.Info("successfully connected session", "sessionID", session.ID())

	return nil
}

// handleSelect - an illegal move is answered with the unchanged state.
func (that *Server) handleSelect(ctx context.Context, c *client, msg *Message) error {
	session, err := that.requireSession(ctx, c)
	if err != nil {
		return err
	}

	var payload SelectPayload
	if err = decodePayload(msg, &payload); err != nil {
		return err
	}

	if payload.Square == nil {
		return fmt.Errorf("square: %w", apperror.ErrMissingPayload)
	}

	if !session.SelectSquare(ctx, payload.Square.Row, payload.Square.Col) {
		c.sendState(session.ID(), session.State())
	}

	return nil
}

func (that *Server) handleRename(ctx context.Context, c *client, msg *Message) error {
	session, err := that.requireSession(ctx, c)
	if err != nil {
		return err
	}

	var payload RenamePayload
	if err = decodePayload(msg, &payload); err != nil {
		return err
	}

	return session.ChangePlayerName(ctx, payload.Symbol, payload.Name)
}

func (that *Server) handleMode(ctx context.Context, c *client, msg *Message) error {
	session, err := that.requireSession(ctx, c)
	if err != nil {
		return err
	}

	var payload ModePayload
	if err = decodePayload(msg, &payload); err != nil {
		return err
	}

	return session.SetMode(ctx, payload.Mode)
}

func (that *Server) handleReset(ctx context.Context, c *client, _ *Message) error {
	session, err := that.requireSession(ctx, c)
	if err != nil {
		return err
	}

	return session.ResetGame(ctx)
}

// requireSession - the client's session; a session that was forgotten under
// the client is replaced by a fresh one with the same id.
func (that *Server) requireSession(ctx context.Context, c *client) (*usecase.Session, error) {
	if c.session == nil {
		return nil, apperror.ErrNotConnected
	}

	if c.session.Closed() {
		if err := that.reattach(ctx, c); err != nil {
			return nil, err
		}
	}

	return c.session, nil
}
