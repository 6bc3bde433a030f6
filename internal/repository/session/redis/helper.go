package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

func (r repo) addWithIncrement(ctx context.Context, c redis.Scripter, key string, value interface{}) {
	c.EvalSha(ctx, r.maxScoreScript, []string{key}, value)
}

func (r repo) executePipe(ctx context.Context, pipe redis.Pipeliner) error {
	cmds, err := pipe.Exec(ctx)
	if err != nil {
		for _, cmd := range cmds {
			if err := cmd.Err(); err != nil {
				return err
			}
		}

		return err
	}

	return nil
}

// expireSession sets the ttl of every key of a session.
func (r repo) expireSession(ctx context.Context, sessionID string, exp time.Duration) error {
	seconds := int64(exp / time.Second)
	if seconds < 1 {
		seconds = 1
	}

	sessionKey := r.getSessionKey(sessionID)
	if err := r.rc.Expire(ctx, sessionKey, time.Duration(seconds)*time.Second).Err(); err != nil {
		return err
	}

	return r.rc.EvalSha(ctx, r.expireKeysWithPrefixScript, nil, sessionKey+":*", seconds).Err()
}
