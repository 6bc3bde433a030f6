package redis

import (
	"context"

	"github.com/circleapp/theater/internal/repository/session"
)

func (r repo) getPeerKey(sessionID, peerID string) string {
	return "session:" + sessionID + ":peer:" + peerID
}

func (r repo) getPeerListKey(sessionID string) string {
	return "session:" + sessionID + ":peers"
}

func (r repo) SetPeer(ctx context.Context, params *session.SetPeerParams) error {
	r.logger.DebugContext(ctx, "called", "params", params)
	pipe := r.rc.TxPipeline()

	peer := session.Peer{
		Name:     params.Name,
		JoinedAt: params.JoinedAt,
	}
	peerKey := r.getPeerKey(params.SessionID, params.PeerID)
	pipe.HSet(ctx, peerKey, peer)
	pipe.Expire(ctx, peerKey, r.expireDuration)

	peerListKey := r.getPeerListKey(params.SessionID)
	r.addWithIncrement(ctx, pipe, peerListKey, params.PeerID)
	pipe.Expire(ctx, peerListKey, r.expireDuration)

	if err := r.executePipe(ctx, pipe); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return err
	}

	return nil
}

func (r repo) GetPeer(ctx context.Context, params *session.GetPeerParams) (session.Peer, error) {
	r.logger.DebugContext(ctx, "called", "params", params)

	var peer session.Peer
	if err := r.rc.HGetAll(ctx, r.getPeerKey(params.SessionID, params.PeerID)).Scan(&peer); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return session.Peer{}, err
	}

	if peer.Name == "" {
		r.logger.DebugContext(ctx, "returned", "error", session.ErrPeerNotFound)
		return session.Peer{}, session.ErrPeerNotFound
	}

	return peer, nil
}

// GetPeerIDs returns peer ids in join order.
func (r repo) GetPeerIDs(ctx context.Context, sessionID string) ([]string, error) {
	r.logger.DebugContext(ctx, "called", "session_id", sessionID)
	peerIDs, err := r.rc.ZRange(ctx, r.getPeerListKey(sessionID), 0, -1).Result()
	if err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return nil, err
	}

	return peerIDs, nil
}

func (r repo) RemovePeer(ctx context.Context, params *session.RemovePeerParams) error {
	r.logger.DebugContext(ctx, "called", "params", params)
	res, err := r.rc.ZRem(ctx, r.getPeerListKey(params.SessionID), params.PeerID).Result()
	if err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return err
	}

	if res == 0 {
		r.logger.DebugContext(ctx, "returned", "error", session.ErrPeerNotFound)
		return session.ErrPeerNotFound
	}

	if err := r.rc.Del(ctx, r.getPeerKey(params.SessionID, params.PeerID)).Err(); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return err
	}

	return nil
}
