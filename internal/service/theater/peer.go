package theater

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"golang.org/x/exp/slices"

	"github.com/circleapp/theater/internal/repository/connection"
	"github.com/circleapp/theater/internal/repository/session"
)

func (s *service) getPeers(ctx context.Context, sessionID string) ([]Peer, error) {
	peerIDs, err := s.sessionRepo.GetPeerIDs(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	peers := make([]Peer, 0, len(peerIDs))
	for _, peerID := range peerIDs {
		peer, err := s.sessionRepo.GetPeer(ctx, &session.GetPeerParams{
			SessionID: sessionID,
			PeerID:    peerID,
		})
		if err != nil {
			return nil, err
		}

		peers = append(peers, Peer{ID: peerID, Name: peer.Name})
	}

	return peers, nil
}

// getConnsExcept returns the live connections of every peer in the session
// other than peerID. Peers without a connection are skipped.
func (s *service) getConnsExcept(ctx context.Context, sessionID, peerID string) ([]*connection.Conn, error) {
	peerIDs, err := s.sessionRepo.GetPeerIDs(ctx, sessionID)
	if err != nil {
		s.logger.InfoContext(ctx, "failed to get peer ids", "error", err)
		return nil, err
	}

	conns := make([]*connection.Conn, 0, len(peerIDs))
	for _, id := range peerIDs {
		if id == peerID {
			continue
		}
		conn, err := s.connRepo.GetConn(id)
		if err != nil {
			s.logger.DebugContext(ctx, "peer has no connection", "peer_id", id)
			continue
		}

		conns = append(conns, conn)
	}

	return conns, nil
}

type JoinSessionParams struct {
	SessionID string
	Name      string
	AuthToken string
	Conn      *connection.Conn
}

type JoinSessionResponse struct {
	PeerID    string
	AuthToken string
	Session   Session
	Conns     []*connection.Conn
}

// JoinSession admits a peer. A valid auth token for this session rejoins as
// the same peer, replacing any previous connection.
func (s *service) JoinSession(ctx context.Context, params *JoinSessionParams) (JoinSessionResponse, error) {
	s.logger.DebugContext(ctx, "called", "session_id", params.SessionID, "name", params.Name)

	sess, err := s.getSession(ctx, params.SessionID)
	if err != nil {
		return JoinSessionResponse{}, err
	}

	peerID, err := s.rejoinPeerID(ctx, params)
	if err != nil {
		return JoinSessionResponse{}, err
	}

	peerIDs, err := s.sessionRepo.GetPeerIDs(ctx, params.SessionID)
	if err != nil {
		s.logger.InfoContext(ctx, "failed to get peer ids", "error", err)
		return JoinSessionResponse{}, err
	}

	known := peerID != "" && slices.Contains(peerIDs, peerID)
	if !known && len(peerIDs) >= s.peersLimit {
		s.logger.InfoContext(ctx, "session is full", "session_id", params.SessionID)
		return JoinSessionResponse{}, ErrSessionFull
	}
	if !known && params.Name == "" {
		s.logger.InfoContext(ctx, "new peer without a name", "session_id", params.SessionID)
		return JoinSessionResponse{}, ErrNameRequired
	}
	if peerID == "" {
		peerID = uuid.NewString()
	}

	resp, err := s.admitPeer(ctx, params, sess, peerID, known)
	if err != nil {
		s.rollbackJoin(ctx, params, peerID, known)
		return JoinSessionResponse{}, err
	}

	return resp, nil
}

func (s *service) admitPeer(ctx context.Context, params *JoinSessionParams, sess session.Session, peerID string, known bool) (JoinSessionResponse, error) {
	if !known {
		if err := s.sessionRepo.SetPeer(ctx, &session.SetPeerParams{
			SessionID: params.SessionID,
			PeerID:    peerID,
			Name:      params.Name,
			JoinedAt:  s.clock.Now().UnixMilli(),
		}); err != nil {
			s.logger.InfoContext(ctx, "failed to set peer", "error", err)
			return JoinSessionResponse{}, err
		}
	}

	if params.Conn != nil {
		if _, err := s.connRepo.GetConn(peerID); err == nil {
			_ = s.connRepo.RemoveByPeerID(peerID)
		}
		if err := s.connRepo.Add(params.Conn, peerID); err != nil {
			s.logger.InfoContext(ctx, "failed to add conn", "error", err)
			return JoinSessionResponse{}, err
		}
	}

	if err := s.sessionRepo.RefreshSession(ctx, params.SessionID); err != nil {
		s.logger.InfoContext(ctx, "failed to refresh session", "error", err)
	}

	authToken, err := s.generateJWT(peerID, params.SessionID)
	if err != nil {
		s.logger.InfoContext(ctx, "failed to generate jwt", "error", err)
		return JoinSessionResponse{}, err
	}

	view, err := s.buildSession(ctx, params.SessionID, sess)
	if err != nil {
		return JoinSessionResponse{}, err
	}

	conns, err := s.getConnsExcept(ctx, params.SessionID, peerID)
	if err != nil {
		return JoinSessionResponse{}, err
	}

	return JoinSessionResponse{
		PeerID:    peerID,
		AuthToken: authToken,
		Session:   view,
		Conns:     conns,
	}, nil
}

// rollbackJoin undoes the writes of a failed join so a half-admitted peer
// does not hold a slot.
func (s *service) rollbackJoin(ctx context.Context, params *JoinSessionParams, peerID string, known bool) {
	if params.Conn != nil {
		if owner, err := s.connRepo.GetPeerID(params.Conn); err == nil && owner == peerID {
			_, _ = s.connRepo.RemoveByConn(params.Conn)
		}
	}
	if known {
		return
	}
	if err := s.sessionRepo.RemovePeer(ctx, &session.RemovePeerParams{
		SessionID: params.SessionID,
		PeerID:    peerID,
	}); err != nil && !errors.Is(err, session.ErrPeerNotFound) {
		s.logger.InfoContext(ctx, "failed to remove peer", "error", err)
	}
}

// rejoinPeerID returns the peer id carried by a valid auth token, or "" when
// the token is absent or unusable. A token minted for another session is
// rejected.
func (s *service) rejoinPeerID(ctx context.Context, params *JoinSessionParams) (string, error) {
	if params.AuthToken == "" {
		return "", nil
	}

	claims, err := s.parseJWT(params.AuthToken)
	if err != nil {
		s.logger.InfoContext(ctx, "ignoring auth token", "error", err)
		return "", nil
	}
	if claims.SessionID != params.SessionID {
		s.logger.InfoContext(ctx, "auth token belongs to another session", "token_session_id", claims.SessionID)
		return "", ErrInvalidToken
	}

	return claims.PeerID, nil
}

type LeaveSessionParams struct {
	SessionID string
	PeerID    string
	// Conn, when set, is only unregistered if it is still the peer's
	// current connection.
	Conn *connection.Conn
}

type LeaveSessionResponse struct {
	Peer  Peer
	Conns []*connection.Conn
}

// LeaveSession removes the peer and returns the remaining connections. When
// the last peer leaves the mirror is released and the session starts to
// expire.
func (s *service) LeaveSession(ctx context.Context, params *LeaveSessionParams) (LeaveSessionResponse, error) {
	s.logger.DebugContext(ctx, "called", "params", params)

	if params.Conn != nil {
		current, err := s.connRepo.GetConn(params.PeerID)
		if err == nil && current != params.Conn {
			s.logger.DebugContext(ctx, "connection was replaced, keeping peer", "peer_id", params.PeerID)
			if _, err := s.connRepo.RemoveByConn(params.Conn); err != nil && !errors.Is(err, connection.ErrNotFound) {
				return LeaveSessionResponse{}, err
			}
			return LeaveSessionResponse{}, nil
		}
	}

	peer, err := s.sessionRepo.GetPeer(ctx, &session.GetPeerParams{
		SessionID: params.SessionID,
		PeerID:    params.PeerID,
	})
	if err != nil {
		s.logger.InfoContext(ctx, "failed to get peer", "error", err)
		if errors.Is(err, session.ErrPeerNotFound) {
			return LeaveSessionResponse{}, ErrPeerNotFound
		}
		return LeaveSessionResponse{}, err
	}

	if _, err := s.connRepo.GetConn(params.PeerID); err == nil {
		if params.Conn != nil {
			_, _ = s.connRepo.RemoveByConn(params.Conn)
		} else {
			_ = s.connRepo.RemoveByPeerID(params.PeerID)
		}
	}

	if err := s.sessionRepo.RemovePeer(ctx, &session.RemovePeerParams{
		SessionID: params.SessionID,
		PeerID:    params.PeerID,
	}); err != nil {
		s.logger.InfoContext(ctx, "failed to remove peer", "error", err)
		return LeaveSessionResponse{}, err
	}

	peerIDs, err := s.sessionRepo.GetPeerIDs(ctx, params.SessionID)
	if err != nil {
		s.logger.InfoContext(ctx, "failed to get peer ids", "error", err)
		return LeaveSessionResponse{}, err
	}

	if len(peerIDs) == 0 {
		s.releaseSession(params.SessionID)
		if err := s.sessionRepo.ExpireSession(ctx, params.SessionID, s.sessionExp); err != nil {
			s.logger.InfoContext(ctx, "failed to expire session", "error", err)
			return LeaveSessionResponse{}, err
		}
	}

	conns, err := s.getConnsExcept(ctx, params.SessionID, params.PeerID)
	if err != nil {
		return LeaveSessionResponse{}, err
	}

	return LeaveSessionResponse{
		Peer:  Peer{ID: params.PeerID, Name: peer.Name},
		Conns: conns,
	}, nil
}
