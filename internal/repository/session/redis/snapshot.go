package redis

import (
	"context"

	"github.com/circleapp/theater/internal/repository/session"
)

func (r repo) getSnapshotKey(sessionID string) string {
	return "session:" + sessionID + ":snapshot"
}

func (r repo) SetSnapshot(ctx context.Context, params *session.SetSnapshotParams) error {
	r.logger.DebugContext(ctx, "called", "params", params)
	pipe := r.rc.TxPipeline()

	snapshotKey := r.getSnapshotKey(params.SessionID)
	pipe.HSet(ctx, snapshotKey, params.Snapshot)
	pipe.Expire(ctx, snapshotKey, r.expireDuration)

	if err := r.executePipe(ctx, pipe); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return err
	}

	return nil
}

func (r repo) GetSnapshot(ctx context.Context, sessionID string) (session.Snapshot, error) {
	r.logger.DebugContext(ctx, "called", "session_id", sessionID)

	var snapshot session.Snapshot
	if err := r.rc.HGetAll(ctx, r.getSnapshotKey(sessionID)).Scan(&snapshot); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return session.Snapshot{}, err
	}

	if snapshot.Action == "" {
		r.logger.DebugContext(ctx, "returned", "error", session.ErrSnapshotNotFound)
		return session.Snapshot{}, session.ErrSnapshotNotFound
	}

	return snapshot, nil
}
