package wsrouter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
)

var (
	ErrUnknownType    = errors.New("unknown message type")
	ErrInvalidPayload = errors.New("invalid payload")
)

// Message is the envelope of every frame read from a connection.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type Conn interface {
	ReadJSON(v any) error
	WriteJSON(v any) error
}

type HandlerFunc[T any] func(ctx context.Context, conn Conn, payload T) error

type Middleware func(next HandlerFunc[any]) HandlerFunc[any]

// ErrorHandler receives errors returned by handlers and dispatch failures.
// Returning a non-nil error stops ServeConn.
type ErrorHandler func(ctx context.Context, conn Conn, err error) error

type route struct {
	decode func(json.RawMessage) (any, error)
	handle HandlerFunc[any]
}

type WSRouter struct {
	mu          sync.RWMutex
	routes      map[string]route
	middlewares []Middleware
	onError     ErrorHandler
}

func New() *WSRouter {
	return &WSRouter{routes: make(map[string]route)}
}

func (r *WSRouter) Use(mws ...Middleware) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.middlewares = append(r.middlewares, mws...)
}

func (r *WSRouter) OnError(h ErrorHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.onError = h
}

// Handle registers handler for messageType. The payload is decoded into T
// before the middleware chain runs.
func Handle[T any](r *WSRouter, messageType string, handler HandlerFunc[T]) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.routes[messageType] = route{
		decode: func(raw json.RawMessage) (any, error) {
			var payload T
			if len(raw) == 0 || string(raw) == "null" {
				return payload, nil
			}
			if err := json.Unmarshal(raw, &payload); err != nil {
				return nil, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
			}
			return payload, nil
		},
		handle: func(ctx context.Context, conn Conn, payload any) error {
			return handler(ctx, conn, payload.(T))
		},
	}
}

// Dispatch routes a single message.
func (r *WSRouter) Dispatch(ctx context.Context, conn Conn, msg Message) error {
	r.mu.RLock()
	rt, ok := r.routes[msg.Type]
	mws := r.middlewares
	r.mu.RUnlock()

	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownType, msg.Type)
	}

	payload, err := rt.decode(msg.Payload)
	if err != nil {
		return err
	}

	h := rt.handle
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}

	return h(context.WithValue(ctx, messageTypeKey, msg.Type), conn, payload)
}

// ServeConn reads messages until the connection fails or the error handler
// gives up. Without an error handler, dispatch errors are ignored.
func (r *WSRouter) ServeConn(ctx context.Context, conn Conn) error {
	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			return err
		}

		if err := r.Dispatch(ctx, conn, msg); err != nil {
			r.mu.RLock()
			onError := r.onError
			r.mu.RUnlock()

			if onError == nil {
				continue
			}
			if err := onError(ctx, conn, err); err != nil {
				return err
			}
		}
	}
}
