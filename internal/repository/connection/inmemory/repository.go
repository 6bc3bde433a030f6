package inmemory

import (
	"log/slog"
	"sync"

	"github.com/circleapp/theater/internal/repository/connection"
)

type repo struct {
	connList map[*connection.Conn]string
	idList   map[string]*connection.Conn
	mu       sync.RWMutex
	logger   *slog.Logger
}

func NewRepo(logger *slog.Logger) *repo {
	return &repo{
		connList: make(map[*connection.Conn]string),
		idList:   make(map[string]*connection.Conn),
		logger:   logger,
	}
}

func (r *repo) Add(conn *connection.Conn, peerID string) error {
	funcName := "connection.inmemory.Add"
	r.mu.Lock()
	defer r.mu.Unlock()

	r.logger.Debug(funcName, "peer_id", peerID)
	if r.connList[conn] != "" || r.idList[peerID] != nil {
		r.logger.Info(funcName, "error", connection.ErrAlreadyExists)
		return connection.ErrAlreadyExists
	}

	r.connList[conn] = peerID
	r.idList[peerID] = conn

	r.logger.Debug(funcName, "result", "OK")
	return nil
}

// RemoveByConn forgets conn and returns the peer it belonged to. The
// connection itself is left open.
func (r *repo) RemoveByConn(conn *connection.Conn) (string, error) {
	funcName := "connection.inmemory.RemoveByConn"
	r.mu.Lock()
	defer r.mu.Unlock()

	r.logger.Debug(funcName)
	peerID, ok := r.connList[conn]
	if !ok {
		r.logger.Info(funcName, "error", connection.ErrNotFound)
		return "", connection.ErrNotFound
	}

	delete(r.connList, conn)
	delete(r.idList, peerID)

	r.logger.Debug(funcName, "result", peerID)
	return peerID, nil
}

// RemoveByPeerID forgets and closes the connection of peerID.
func (r *repo) RemoveByPeerID(peerID string) error {
	funcName := "connection.inmemory.RemoveByPeerID"
	r.mu.Lock()
	defer r.mu.Unlock()

	r.logger.Debug(funcName, "peer_id", peerID)
	conn, ok := r.idList[peerID]
	if !ok {
		r.logger.Info(funcName, "error", connection.ErrNotFound)
		return connection.ErrNotFound
	}
	if conn.Conn != nil {
		conn.Close()
	}

	delete(r.connList, conn)
	delete(r.idList, peerID)

	r.logger.Debug(funcName, "result", "OK")
	return nil
}

func (r *repo) GetPeerID(conn *connection.Conn) (string, error) {
	funcName := "connection.inmemory.GetPeerID"
	r.mu.RLock()
	defer r.mu.RUnlock()

	r.logger.Debug(funcName)
	peerID, ok := r.connList[conn]
	if !ok {
		r.logger.Info(funcName, "error", connection.ErrNotFound)
		return "", connection.ErrNotFound
	}

	r.logger.Debug(funcName, "result", peerID)
	return peerID, nil
}

func (r *repo) GetConn(peerID string) (*connection.Conn, error) {
	funcName := "connection.inmemory.GetConn"
	r.mu.RLock()
	defer r.mu.RUnlock()

	r.logger.Debug(funcName, "peer_id", peerID)
	conn, ok := r.idList[peerID]
	if !ok {
		r.logger.Debug(funcName, "error", connection.ErrNotFound)
		return nil, connection.ErrNotFound
	}

	r.logger.Debug(funcName, "result", "OK")
	return conn, nil
}
