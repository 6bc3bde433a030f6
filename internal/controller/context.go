package controller

import (
	"context"

	"github.com/circleapp/theater/internal/repository/connection"
)

type contextKey int

const (
	sessionIdCtxKey contextKey = iota
	peerIdCtxKey
	connCtxKey
)

func (c controller) getSessionIdFromCtx(ctx context.Context) string {
	sessionId, ok := ctx.Value(sessionIdCtxKey).(string)
	if !ok {
		return ""
	}

	return sessionId
}

func (c controller) getPeerIdFromCtx(ctx context.Context) string {
	peerId, ok := ctx.Value(peerIdCtxKey).(string)
	if !ok {
		return ""
	}

	return peerId
}

func (c controller) getConnFromCtx(ctx context.Context) *connection.Conn {
	conn, _ := ctx.Value(connCtxKey).(*connection.Conn)
	return conn
}
