package connection

import (
	"sync"

	"github.com/gorilla/websocket"
)

// Conn is a websocket connection that may be written from several goroutines.
type Conn struct {
	*websocket.Conn
	writeMu sync.Mutex
}

func NewConn(ws *websocket.Conn) *Conn {
	return &Conn{Conn: ws}
}

func (c *Conn) WriteJSON(v any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	return c.Conn.WriteJSON(v)
}
