package controller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/circleapp/theater/internal/repository/connection"
	"github.com/circleapp/theater/internal/service/theater"
	"github.com/circleapp/theater/pkg/ctxlogger"
	codec "github.com/circleapp/theater/pkg/theater"
	"github.com/circleapp/theater/pkg/wsrouter"
)

const (
	TypeJoinedSession = "JOINED_SESSION"
	TypePeerJoined    = "PEER_JOINED"
	TypePeerLeft      = "PEER_LEFT"
	TypeSync          = "SYNC"
	TypeError         = "ERROR"
	TypeAlive         = "ALIVE"

	closeSessionFull    = 4001
	closeSessionMissing = 4004
	closeInvalidToken   = 4003
	closeNameRequired   = 4005

	writeWait = 5 * time.Second
)

var ErrActionMismatch = errors.New("frame type does not match message action")

type Output struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

type joinedSessionPayload struct {
	AuthToken string          `json:"auth_token"`
	PeerID    string          `json:"peer_id"`
	Session   theater.Session `json:"session"`
}

type peerPayload struct {
	Peer  theater.Peer   `json:"peer"`
	Peers []theater.Peer `json:"peers,omitempty"`
}

func (c controller) joinSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "session-id")
	ctx := ctxlogger.AppendCtx(r.Context(), slog.String("session_id", sessionID))

	name := r.URL.Query().Get("name")
	authToken := r.URL.Query().Get("auth-token")
	if name == "" && authToken == "" {
		c.writeError(w, http.StatusBadRequest, fmt.Sprintf("%s: name", ErrMissingParam))
		return
	}
	if len(name) > 32 {
		c.writeError(w, http.StatusBadRequest, "name must not exceed 32 characters")
		return
	}

	if _, err := c.theaterService.GetSession(ctx, &theater.GetSessionParams{SessionID: sessionID}); err != nil {
		c.logger.InfoContext(ctx, "failed to get session", "error", err)
		if errors.Is(err, theater.ErrSessionNotFound) {
			c.writeError(w, http.StatusNotFound, err.Error())
			return
		}
		c.writeError(w, http.StatusInternalServerError, "failed to get session")
		return
	}

	ws, err := c.upgrader.Upgrade(w, r, nil)
	if err != nil {
		c.logger.WarnContext(ctx, "failed to upgrade to websocket", "error", err)
		return
	}
	conn := connection.NewConn(ws)
	defer ws.Close()

	joinResp, err := c.theaterService.JoinSession(ctx, &theater.JoinSessionParams{
		SessionID: sessionID,
		Name:      name,
		AuthToken: authToken,
		Conn:      conn,
	})
	if err != nil {
		c.logger.InfoContext(ctx, "failed to join session", "error", err)
		c.closeWithError(ctx, conn, err)
		return
	}
	defer c.disconnect(ctx, sessionID, joinResp.PeerID, conn)

	ctx = ctxlogger.AppendCtx(ctx, slog.String("peer_id", joinResp.PeerID))

	if err := c.writeToConn(ctx, conn, &Output{
		Type: TypeJoinedSession,
		Payload: joinedSessionPayload{
			AuthToken: joinResp.AuthToken,
			PeerID:    joinResp.PeerID,
			Session:   joinResp.Session,
		},
	}); err != nil {
		c.logger.WarnContext(ctx, "failed to write joined session", "error", err)
		return
	}

	if err := c.broadcast(ctx, joinResp.Conns, &Output{
		Type: TypePeerJoined,
		Payload: peerPayload{
			Peer:  c.findPeer(joinResp.Session.Peers, joinResp.PeerID),
			Peers: joinResp.Session.Peers,
		},
	}); err != nil {
		c.logger.WarnContext(ctx, "failed to broadcast peer joined", "error", err)
	}

	ctx = context.WithValue(ctx, sessionIdCtxKey, sessionID)
	ctx = context.WithValue(ctx, peerIdCtxKey, joinResp.PeerID)
	ctx = context.WithValue(ctx, connCtxKey, conn)

	if err := c.wsmux.ServeConn(ctx, conn); err != nil {
		if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
			c.logger.InfoContext(ctx, "connection closed unexpectedly", "error", err)
			return
		}
		c.logger.DebugContext(ctx, "connection closed", "error", err)
	}
}

func (c controller) findPeer(peers []theater.Peer, peerID string) theater.Peer {
	for _, p := range peers {
		if p.ID == peerID {
			return p
		}
	}

	return theater.Peer{ID: peerID}
}

// disconnect runs after the read loop ends; the request context may already
// be done.
func (c controller) disconnect(ctx context.Context, sessionID, peerID string, conn *connection.Conn) {
	ctx = context.WithoutCancel(ctx)

	leaveResp, err := c.theaterService.LeaveSession(ctx, &theater.LeaveSessionParams{
		SessionID: sessionID,
		PeerID:    peerID,
		Conn:      conn,
	})
	if err != nil {
		c.logger.InfoContext(ctx, "failed to leave session", "error", err)
		return
	}
	if leaveResp.Peer.ID == "" {
		return
	}

	if err := c.broadcast(ctx, leaveResp.Conns, &Output{
		Type:    TypePeerLeft,
		Payload: peerPayload{Peer: leaveResp.Peer},
	}); err != nil {
		c.logger.InfoContext(ctx, "failed to broadcast peer left", "error", err)
	}
}

func (c controller) handleAlive(_ context.Context, _ wsrouter.Conn, _ struct{}) error {
	return nil
}

// handleSync returns the handler for one sync action.
func (c controller) handleSync(action codec.Action) wsrouter.HandlerFunc[codec.Message] {
	return func(ctx context.Context, conn wsrouter.Conn, msg codec.Message) error {
		if msg.Action == 0 {
			msg.Action = action
		} else if msg.Action != action {
			return fmt.Errorf("%w: %s != %s", ErrActionMismatch, msg.Action, action)
		}

		resp, err := c.theaterService.HandleMessage(ctx, &theater.HandleMessageParams{
			SessionID: c.getSessionIdFromCtx(ctx),
			SenderID:  c.getPeerIdFromCtx(ctx),
			Message:   msg,
		})
		if err != nil {
			return fmt.Errorf("failed to handle %s: %w", action, err)
		}

		if err := c.broadcast(ctx, resp.Conns, &Output{Type: TypeSync, Payload: resp.Message}); err != nil {
			return fmt.Errorf("failed to broadcast sync: %w", err)
		}

		if resp.Reply != nil {
			if err := conn.WriteJSON(&Output{Type: TypeSync, Payload: resp.Reply}); err != nil {
				return fmt.Errorf("failed to write sync reply: %w", err)
			}
		}

		return nil
	}
}

// handleWSError reports a failed frame to the sender and keeps the
// connection open unless the write fails.
func (c controller) handleWSError(ctx context.Context, conn wsrouter.Conn, err error) error {
	c.logger.InfoContext(ctx, "failed to handle websocket message", "error", err)

	return conn.WriteJSON(&Output{
		Type:    TypeError,
		Payload: errorPayload{Message: c.publicError(err)},
	})
}

func (c controller) publicError(err error) string {
	for _, known := range []error{
		wsrouter.ErrUnknownType,
		wsrouter.ErrInvalidPayload,
		ErrActionMismatch,
		theater.ErrInvalidMessage,
		theater.ErrPeerNotFound,
		theater.ErrSessionNotFound,
	} {
		if errors.Is(err, known) {
			return err.Error()
		}
	}

	return "internal error"
}

func (c controller) closeWithError(ctx context.Context, conn *connection.Conn, err error) {
	code := websocket.CloseInternalServerErr
	switch {
	case errors.Is(err, theater.ErrSessionFull):
		code = closeSessionFull
	case errors.Is(err, theater.ErrInvalidToken):
		code = closeInvalidToken
	case errors.Is(err, theater.ErrSessionNotFound):
		code = closeSessionMissing
	case errors.Is(err, theater.ErrNameRequired):
		code = closeNameRequired
	}

	if err := conn.WriteJSON(&Output{
		Type:    TypeError,
		Payload: errorPayload{Message: err.Error()},
	}); err != nil {
		c.logger.DebugContext(ctx, "failed to write error", "error", err)
	}
	if err := conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, ""), time.Now().Add(writeWait)); err != nil {
		c.logger.DebugContext(ctx, "failed to write close", "error", err)
	}
}

func (c controller) writeToConn(ctx context.Context, conn *connection.Conn, output *Output) error {
	if err := conn.WriteJSON(output); err != nil {
		c.logger.InfoContext(ctx, "failed to write to conn", "type", output.Type, "error", err)
		return err
	}

	return nil
}

// broadcast writes to every conn and returns the first failure.
func (c controller) broadcast(ctx context.Context, conns []*connection.Conn, output *Output) error {
	var firstErr error
	for _, conn := range conns {
		if err := c.writeToConn(ctx, conn, output); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}
