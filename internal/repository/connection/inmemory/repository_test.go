package inmemory

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/circleapp/theater/internal/repository/connection"
)

func TestAddAndLookup(t *testing.T) {
	r := NewRepo(slog.Default())
	c := &connection.Conn{}

	require.NoError(t, r.Add(c, "p1"))
	assert.ErrorIs(t, r.Add(c, "p2"), connection.ErrAlreadyExists)
	assert.ErrorIs(t, r.Add(&connection.Conn{}, "p1"), connection.ErrAlreadyExists)

	got, err := r.GetConn("p1")
	require.NoError(t, err)
	assert.Same(t, c, got)

	id, err := r.GetPeerID(c)
	require.NoError(t, err)
	assert.Equal(t, "p1", id)
}

func TestRemove(t *testing.T) {
	r := NewRepo(slog.Default())
	c1, c2 := &connection.Conn{}, &connection.Conn{}
	require.NoError(t, r.Add(c1, "p1"))
	require.NoError(t, r.Add(c2, "p2"))

	id, err := r.RemoveByConn(c1)
	require.NoError(t, err)
	assert.Equal(t, "p1", id)
	_, err = r.GetConn("p1")
	assert.ErrorIs(t, err, connection.ErrNotFound)
	_, err = r.RemoveByConn(c1)
	assert.ErrorIs(t, err, connection.ErrNotFound)

	require.NoError(t, r.RemoveByPeerID("p2"))
	_, err = r.GetPeerID(c2)
	assert.ErrorIs(t, err, connection.ErrNotFound)
	assert.ErrorIs(t, r.RemoveByPeerID("p2"), connection.ErrNotFound)
}
