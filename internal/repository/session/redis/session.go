package redis

import (
	"context"
	"time"

	"github.com/circleapp/theater/internal/repository/session"
)

func (r repo) getSessionKey(sessionID string) string {
	return "session:" + sessionID
}

func (r repo) SetSession(ctx context.Context, params *session.SetSessionParams) error {
	r.logger.DebugContext(ctx, "called", "params", params)
	pipe := r.rc.TxPipeline()

	sess := session.Session{
		HostName:    params.HostName,
		ContentID:   params.ContentID,
		ContentType: params.ContentType,
		ContentURL:  params.ContentURL,
		ScheduledAt: params.ScheduledAt,
		Timezone:    params.Timezone,
		CreatedAt:   params.CreatedAt,
	}
	sessionKey := r.getSessionKey(params.SessionID)
	pipe.HSet(ctx, sessionKey, sess)
	pipe.Expire(ctx, sessionKey, r.expireDuration)

	if err := r.executePipe(ctx, pipe); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return err
	}

	return nil
}

func (r repo) GetSession(ctx context.Context, sessionID string) (session.Session, error) {
	r.logger.DebugContext(ctx, "called", "session_id", sessionID)
	sessionKey := r.getSessionKey(sessionID)

	var sess session.Session
	if err := r.rc.HGetAll(ctx, sessionKey).Scan(&sess); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return session.Session{}, err
	}

	if sess.ContentID == "" {
		r.logger.DebugContext(ctx, "returned", "error", session.ErrSessionNotFound)
		return session.Session{}, session.ErrSessionNotFound
	}

	return sess, nil
}

func (r repo) IsSessionExists(ctx context.Context, sessionID string) (bool, error) {
	res, err := r.rc.Exists(ctx, r.getSessionKey(sessionID)).Result()
	if err != nil {
		return false, err
	}

	return res > 0, nil
}

// ExpireSession sets the ttl of all session keys to exp.
func (r repo) ExpireSession(ctx context.Context, sessionID string, exp time.Duration) error {
	r.logger.DebugContext(ctx, "called", "session_id", sessionID, "exp", exp)
	if err := r.expireSession(ctx, sessionID, exp); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return err
	}

	return nil
}

// RefreshSession restores the default ttl on all session keys.
func (r repo) RefreshSession(ctx context.Context, sessionID string) error {
	return r.ExpireSession(ctx, sessionID, r.expireDuration)
}
