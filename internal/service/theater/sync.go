package theater

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/circleapp/theater/internal/repository/connection"
	"github.com/circleapp/theater/internal/repository/session"
	codec "github.com/circleapp/theater/pkg/theater"
)

type HandleMessageParams struct {
	SessionID string
	SenderID  string
	Message   codec.Message
}

type HandleMessageResponse struct {
	// Message is the relayed message with the sender identity set by the
	// server.
	Message codec.Message
	Conns   []*connection.Conn
	// Reply is sent back to the sender only; set for sync requests.
	Reply *codec.Message
}

// HandleMessage records a peer's sync message and returns who to relay it to.
func (s *service) HandleMessage(ctx context.Context, params *HandleMessageParams) (HandleMessageResponse, error) {
	s.logger.DebugContext(ctx, "called", "session_id", params.SessionID, "sender_id", params.SenderID, "action", params.Message.Action)

	peer, err := s.sessionRepo.GetPeer(ctx, &session.GetPeerParams{
		SessionID: params.SessionID,
		PeerID:    params.SenderID,
	})
	if err != nil {
		s.logger.InfoContext(ctx, "failed to get peer", "error", err)
		if errors.Is(err, session.ErrPeerNotFound) {
			return HandleMessageResponse{}, ErrPeerNotFound
		}
		return HandleMessageResponse{}, err
	}

	msg := params.Message
	msg.SenderID = params.SenderID
	msg.SenderName = peer.Name
	if err := msg.Validate(); err != nil {
		s.logger.InfoContext(ctx, "invalid message", "error", err)
		return HandleMessageResponse{}, fmt.Errorf("%w: %w", ErrInvalidMessage, err)
	}
	if msg.Action.Stateful() && msg.ContentURL == "" {
		return HandleMessageResponse{}, fmt.Errorf("%w: missing content url", ErrInvalidMessage)
	}

	var resp HandleMessageResponse
	if msg.Action.Stateful() {
		if err := s.record(ctx, params.SessionID, msg); err != nil {
			return HandleMessageResponse{}, err
		}
	} else {
		reply, err := s.syncReply(ctx, params.SessionID)
		if err != nil {
			return HandleMessageResponse{}, err
		}
		resp.Reply = &reply
	}

	conns, err := s.getConnsExcept(ctx, params.SessionID, params.SenderID)
	if err != nil {
		return HandleMessageResponse{}, err
	}

	resp.Message = msg
	resp.Conns = conns
	return resp, nil
}

func (s *service) syncLock(sessionID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.syncLocks[sessionID]
	if !ok {
		l = &sync.Mutex{}
		s.syncLocks[sessionID] = l
	}

	return l
}

// record merges msg into the snapshot and moves the mirror. Messages of one
// session are applied one at a time so both see the same order.
func (s *service) record(ctx context.Context, sessionID string, msg codec.Message) error {
	l := s.syncLock(sessionID)
	l.Lock()
	defer l.Unlock()

	snap, err := s.updateSnapshot(ctx, sessionID, msg)
	if err != nil {
		return err
	}
	if err := s.applyToMirror(ctx, sessionID, msg, snap.Duration); err != nil {
		s.logger.InfoContext(ctx, "failed to apply message to mirror", "error", err)
	}

	return nil
}

func (s *service) updateSnapshot(ctx context.Context, sessionID string, msg codec.Message) (session.Snapshot, error) {
	prev, err := s.sessionRepo.GetSnapshot(ctx, sessionID)
	if err != nil && !errors.Is(err, session.ErrSnapshotNotFound) {
		s.logger.InfoContext(ctx, "failed to get snapshot", "error", err)
		return session.Snapshot{}, err
	}

	next := prev
	if msg.Action == codec.ActionStart || prev.ContentURL != msg.ContentURL || prev.ContentType != msg.ContentType.String() {
		next = session.Snapshot{}
	}
	next.Action = msg.Action.String()
	next.ContentType = msg.ContentType.String()
	next.ContentURL = msg.ContentURL
	if msg.CurrentTime != nil {
		next.CurrentTime = *msg.CurrentTime
	}
	if msg.CurrentPage != nil {
		next.CurrentPage = *msg.CurrentPage
	}
	if msg.TotalPages != nil {
		next.TotalPages = *msg.TotalPages
	}
	if msg.Duration != nil {
		next.Duration = *msg.Duration
	}
	if msg.IsPlaying != nil {
		next.IsPlaying = *msg.IsPlaying
	}
	switch msg.Action {
	case codec.ActionPlay:
		if msg.IsPlaying == nil {
			next.IsPlaying = true
		}
	case codec.ActionPause, codec.ActionStop:
		next.IsPlaying = false
	case codec.ActionStart, codec.ActionSeek, codec.ActionPage, codec.ActionSyncRequest:
	}
	next.UpdatedBy = msg.SenderID
	next.UpdatedAt = s.clock.Now().UnixMilli()

	if err := s.sessionRepo.SetSnapshot(ctx, &session.SetSnapshotParams{
		SessionID: sessionID,
		Snapshot:  next,
	}); err != nil {
		s.logger.InfoContext(ctx, "failed to set snapshot", "error", err)
		return session.Snapshot{}, err
	}

	return next, nil
}

// syncReply synthesises a seek carrying the session's current position.
func (s *service) syncReply(ctx context.Context, sessionID string) (codec.Message, error) {
	snap, err := s.sessionRepo.GetSnapshot(ctx, sessionID)
	if errors.Is(err, session.ErrSnapshotNotFound) {
		sess, err := s.getSession(ctx, sessionID)
		if err != nil {
			return codec.Message{}, err
		}
		snap = session.Snapshot{ContentType: sess.ContentType, ContentURL: sess.ContentURL}
	} else if err != nil {
		s.logger.InfoContext(ctx, "failed to get snapshot", "error", err)
		return codec.Message{}, err
	}

	ct, err := codec.ParseContentType(snap.ContentType)
	if err != nil {
		return codec.Message{}, err
	}

	opts := []codec.Option{
		codec.WithTimestamp(s.clock.Now().UnixMilli()),
	}
	if ct.TimeBased() {
		position, playing := snap.CurrentTime, snap.IsPlaying
		if m, ok := s.getMirror(sessionID); ok && m.contentURL == snap.ContentURL {
			position = m.position()
			playing = m.adapter.Snapshot().IsPlaying
		}
		opts = append(opts, codec.WithCurrentTime(position), codec.WithPlaying(playing))
		if snap.Duration > 0 {
			opts = append(opts, codec.WithDuration(snap.Duration))
		}
	} else {
		opts = append(opts, codec.WithPage(snap.CurrentPage, snap.TotalPages))
	}

	return codec.NewMessage(codec.ActionSeek, ct, snap.ContentURL, ServerSenderID, opts...), nil
}
