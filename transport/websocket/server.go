package websocket

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/tictactoe-hotseat/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-hotseat/internal/tictactoe"
	"github.com/rocketscienceinc/tictactoe-hotseat/internal/usecase"
)

const (
	sessionCookie   = "user_session"
	cookieTTL       = 24 * time.Hour
	shutdownTimeout = 5 * time.Second
	readBufferSize  = 1024
	writeBufferSize = 1024
)

type sessionManager interface {
	GetOrCreate(ctx context.Context, id string) (*usecase.Session, error)
	Release(id string)
}

type handlerFunc func(ctx context.Context, c *client, msg *Message) error

type Server struct {
	logger   *slog.Logger
	sessions sessionManager
	upgrader websocket.Upgrader

	handlers map[string]handlerFunc

	// attachMu serialises attach and detach so a released session is never
	// handed to a new view.
	attachMu sync.Mutex

	viewsMu sync.Mutex
	views   map[string]*sessionView
}

// sessionView is the set of connections watching one live session. A closed
// session's view is replaced when the id is opened again.
type sessionView struct {
	session *usecase.Session
	clients map[*client]struct{}
}

func New(logger *slog.Logger, sessions sessionManager) *Server {
	server := &Server{
		logger:   logger.With("component", "websocket"),
		sessions: sessions,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  readBufferSize,
			WriteBufferSize: writeBufferSize,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		handlers: make(map[string]handlerFunc),
		views:    make(map[string]*sessionView),
	}

	server.handlers[actionConnect] = server.handleConnect
	server.handlers[actionSelect] = server.handleSelect
	server.handlers[actionRename] = server.handleRename
	server.handlers[actionMode] = server.handleMode
	server.handlers[actionReset] = server.handleReset

	return server
}

func (that *Server) Router() http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Get("/ws", that.upgradeToWebSocket)

	return router
}

// Start - starts WebSocket server.
func (that *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:        ":" + port,
		Handler:     that.Router(),
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 30 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// upgradeToWebSocket - upgrades the connection and pumps messages until the peer leaves.
func (that *Server) upgradeToWebSocket(writer http.ResponseWriter, req *http.Request) {
	log := that.logger.With("method", "upgradeToWebSocket")

	sessionID, header := that.sessionCookie(req)

	conn, err := that.upgrader.Upgrade(writer, req, header)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	log.Info("WebSocket connection established", "sessionID", sessionID)

	c := newClient(that, conn, sessionID)

	go c.writePump()
	c.readPump(req.Context())
}

// sessionCookie - reads the session cookie or issues a new one.
func (that *Server) sessionCookie(req *http.Request) (string, http.Header) {
	log := that.logger.With("method", "sessionCookie")

	if cookie, err := req.Cookie(sessionCookie); err == nil && cookie.Value != "" {
		log.Debug("session cookie found", "cookie", cookie.Value)
		return cookie.Value, nil
	}

	cookie := &http.Cookie{
		Name:     sessionCookie,
		Value:    usecase.NewSessionID(),
		Expires:  time.Now().Add(cookieTTL),
		Path:     "/ws",
		HttpOnly: true,
	}

	header := http.Header{}
	header.Add("Set-Cookie", cookie.String())

	log.Info("session cookie not found, new one created", "cookie", cookie.Value)

	return cookie.Value, header
}

// dispatch - routes one inbound message to its handler.
func (that *Server) dispatch(ctx context.Context, c *client, msg *Message) {
	log := that.logger.With("method", "dispatch", "action", msg.Action)

	handler, ok := that.handlers[msg.Action]
	if !ok {
		log.Warn("unknown action")
		c.sendError(msg.Action, apperror.ErrUnknownAction)
		return
	}

	if err := handler(ctx, c, msg); err != nil {
		log.Warn("failed to process message", "error", err)
		c.sendError(msg.Action, err)
	}
}

// attach - opens the session and subscribes the client to its state.
func (that *Server) attach(ctx context.Context, c *client, id string) (*usecase.Session, error) {
	that.attachMu.Lock()
	defer that.attachMu.Unlock()

	session, err := that.sessions.GetOrCreate(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to open session: %w", err)
	}

	that.viewsMu.Lock()
	view := that.views[session.ID()]
	if view == nil || view.session != session {
		view = &sessionView{session: session, clients: make(map[*client]struct{})}
		that.views[session.ID()] = view
	}
	view.clients[c] = struct{}{}
	that.viewsMu.Unlock()

	session.SetListener(func(state tictactoe.State) {
		that.broadcast(session, state)
	})

	return session, nil
}

// detach - unsubscribes the client; the last view releases the session.
// Detaching from a session that was already replaced is a no-op.
func (that *Server) detach(c *client, session *usecase.Session) {
	that.attachMu.Lock()
	defer that.attachMu.Unlock()

	id := session.ID()

	that.viewsMu.Lock()
	view := that.views[id]
	if view == nil || view.session != session {
		that.viewsMu.Unlock()
		return
	}

	delete(view.clients, c)
	last := len(view.clients) == 0
	if last {
		delete(that.views, id)
	}
	that.viewsMu.Unlock()

	// a closed session was already dropped by the manager; the id may belong to a newer one
	if last && !session.Closed() {
		that.sessions.Release(id)
	}
}

// reattach - moves a client off a closed session onto the live one under the same id.
func (that *Server) reattach(ctx context.Context, c *client) error {
	closed := c.session
	c.session = nil

	that.detach(c, closed)

	session, err := that.attach(ctx, c, closed.ID())
	if err != nil {
		return err
	}

	c.session = session
	that.logger.Info("session ended, client reattached", "sessionID", session.ID())

	return nil
}

// broadcast - pushes state to every view of a session. Runs under the session lock.
func (that *Server) broadcast(session *usecase.Session, state tictactoe.State) {
	id := session.ID()

	data, err := encodeMessage(actionState, StatePayload{Session: SessionRef{ID: id}, State: state})
	if err != nil {
		that.logger.Error("failed to encode state", "sessionID", id, "error", err)
		return
	}

	that.viewsMu.Lock()
	defer that.viewsMu.Unlock()

	view := that.views[id]
	if view == nil || view.session != session {
		return
	}

	for c := range view.clients {
		c.enqueue(data)
	}
}
