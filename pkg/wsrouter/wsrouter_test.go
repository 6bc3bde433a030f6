package wsrouter

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	in  []Message
	out []any
}

func (c *fakeConn) ReadJSON(v any) error {
	if len(c.in) == 0 {
		return io.EOF
	}
	msg := c.in[0]
	c.in = c.in[1:]
	*(v.(*Message)) = msg
	return nil
}

func (c *fakeConn) WriteJSON(v any) error {
	c.out = append(c.out, v)
	return nil
}

type seekInput struct {
	CurrentTime float64 `json:"current_time"`
}

func TestRouterDispatchesTypedPayloads(t *testing.T) {
	r := New()
	var order []string
	r.Use(func(next HandlerFunc[any]) HandlerFunc[any] {
		return func(ctx context.Context, conn Conn, payload any) error {
			order = append(order, "mw:"+GetMessageTypeFromCtx(ctx))
			return next(ctx, conn, payload)
		}
	})

	var got seekInput
	Handle(r, "seek", func(_ context.Context, _ Conn, in seekInput) error {
		order = append(order, "seek")
		got = in
		return nil
	})
	Handle(r, "ALIVE", func(context.Context, Conn, struct{}) error {
		order = append(order, "alive")
		return nil
	})

	conn := &fakeConn{in: []Message{
		{Type: "seek", Payload: json.RawMessage(`{"current_time":12.5}`)},
		{Type: "ALIVE"},
	}}
	err := r.ServeConn(context.Background(), conn)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, 12.5, got.CurrentTime)
	assert.Equal(t, []string{"mw:seek", "seek", "mw:ALIVE", "alive"}, order)
}

func TestRouterErrors(t *testing.T) {
	r := New()
	handlerErr := errors.New("boom")
	Handle(r, "seek", func(context.Context, Conn, seekInput) error { return handlerErr })

	var errs []error
	r.OnError(func(_ context.Context, conn Conn, err error) error {
		errs = append(errs, err)
		return conn.WriteJSON(err.Error())
	})

	conn := &fakeConn{in: []Message{
		{Type: "nope"},
		{Type: "seek", Payload: json.RawMessage(`{"current_time":"x"}`)},
		{Type: "seek", Payload: json.RawMessage(`{}`)},
	}}
	_ = r.ServeConn(context.Background(), conn)

	require.Len(t, errs, 3)
	assert.ErrorIs(t, errs[0], ErrUnknownType)
	assert.ErrorIs(t, errs[1], ErrInvalidPayload)
	assert.ErrorIs(t, errs[2], handlerErr)
	assert.Len(t, conn.out, 3)
}

func TestErrorHandlerStopsServing(t *testing.T) {
	r := New()
	stop := errors.New("stop")
	r.OnError(func(context.Context, Conn, error) error { return stop })

	conn := &fakeConn{in: []Message{{Type: "nope"}, {Type: "nope"}}}
	err := r.ServeConn(context.Background(), conn)
	assert.ErrorIs(t, err, stop)
	assert.Len(t, conn.in, 1)
}
