package session

import "errors"

var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrPeerNotFound     = errors.New("peer not found")
	ErrSnapshotNotFound = errors.New("snapshot not found")
)
