package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/tictactoe-hotseat/internal/tictactoe"
	"github.com/rocketscienceinc/tictactoe-hotseat/internal/usecase"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second
	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second
	// Must be less than pongWait.
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBufferSize = 32
)

// client is one browser connection. session is only touched by readPump.
type client struct {
	server   *Server
	conn     *websocket.Conn
	send     chan []byte
	cookieID string

	session *usecase.Session
}

func newClient(server *Server, conn *websocket.Conn, cookieID string) *client {
	return &client{
		server:   server,
		conn:     conn,
		send:     make(chan []byte, sendBufferSize),
		cookieID: cookieID,
	}
}

// readPump - reads and dispatches messages until the connection drops.
func (that *client) readPump(ctx context.Context) {
	log := that.server.logger.With("method", "readPump", "cookie", that.cookieID)

	defer func() {
		if that.session != nil {
			that.server.detach(that, that.session)
		}

		close(that.send)
	}()

	that.conn.SetReadLimit(maxMessageSize)
	_ = that.conn.SetReadDeadline(time.Now().Add(pongWait))
	that.conn.SetPongHandler(func(string) error {
		return that.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := that.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Error("error reading message", "error", err)
			}

			return
		}

		var message Message
		if err = json.Unmarshal(data, &message); err != nil {
			log.Warn("failed to unmarshal message", "error", err)
			that.sendError("", fmt.Errorf("malformed message: %w", err))
			continue
		}

		that.server.dispatch(ctx, that, &message)
	}
}

// writePump - writes queued messages and keeps the connection alive with pings.
func (that *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = that.conn.Close()
	}()

	for {
		select {
		case message, ok := <-that.send:
			_ = that.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = that.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := that.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = that.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := that.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// enqueue - never blocks; a view that cannot keep up loses frames.
func (that *client) enqueue(data []byte) {
	select {
	case that.send <- data:
	default:
		that.server.logger.Warn("send buffer full, dropping message", "cookie", that.cookieID)
	}
}

func (that *client) sendState(id string, state tictactoe.State) {
	data, err := encodeMessage(actionState, StatePayload{Session: SessionRef{ID: id}, State: state})
	if err != nil {
		that.server.logger.Error("failed to encode state", "sessionID", id, "error", err)
		return
	}

	that.enqueue(data)
}

func (that *client) sendError(action string, cause error) {
	data, err := encodeMessage(actionError, ErrorPayload{Action: action, Error: cause.Error()})
	if err != nil {
		that.server.logger.Error("failed to encode error", "error", err)
		return
	}

	that.enqueue(data)
}
