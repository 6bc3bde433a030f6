package redis

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/circleapp/theater/internal/repository/session"
)

func newTestRepo(t *testing.T) (*repo, *miniredis.Miniredis) {
	t.Helper()

	s := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { rc.Close() })

	return NewRepo(rc, slog.Default(), time.Hour), s
}

func TestSessionRoundTrip(t *testing.T) {
	r, s := newTestRepo(t)
	ctx := context.Background()

	err := r.SetSession(ctx, &session.SetSessionParams{
		SessionID:   "s1",
		HostName:    "Ava",
		ContentID:   "sing-along-abc",
		ContentType: "youtube",
		ContentURL:  "https://www.youtube.com/watch?v=75p-N9YKqNo",
		ScheduledAt: "2024-01-16T02:30:00Z",
		Timezone:    "America/Los_Angeles",
		CreatedAt:   1700000000000,
	})
	require.NoError(t, err)

	sess, err := r.GetSession(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "Ava", sess.HostName)
	assert.Equal(t, "youtube", sess.ContentType)
	assert.Equal(t, int64(1700000000000), sess.CreatedAt)
	assert.Equal(t, time.Hour, s.TTL("session:s1"))

	_, err = r.GetSession(ctx, "missing")
	assert.ErrorIs(t, err, session.ErrSessionNotFound)

	exists, err := r.IsSessionExists(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestPeersKeepJoinOrder(t *testing.T) {
	r, _ := newTestRepo(t)
	ctx := context.Background()

	for _, id := range []string{"p-b", "p-a", "p-c"} {
		require.NoError(t, r.SetPeer(ctx, &session.SetPeerParams{SessionID: "s1", PeerID: id, Name: "name-" + id}))
	}

	ids, err := r.GetPeerIDs(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"p-b", "p-a", "p-c"}, ids)

	peer, err := r.GetPeer(ctx, &session.GetPeerParams{SessionID: "s1", PeerID: "p-a"})
	require.NoError(t, err)
	assert.Equal(t, "name-p-a", peer.Name)

	require.NoError(t, r.RemovePeer(ctx, &session.RemovePeerParams{SessionID: "s1", PeerID: "p-a"}))
	assert.ErrorIs(t, r.RemovePeer(ctx, &session.RemovePeerParams{SessionID: "s1", PeerID: "p-a"}), session.ErrPeerNotFound)

	_, err = r.GetPeer(ctx, &session.GetPeerParams{SessionID: "s1", PeerID: "p-a"})
	assert.ErrorIs(t, err, session.ErrPeerNotFound)

	ids, err = r.GetPeerIDs(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"p-b", "p-c"}, ids)
}

func TestSnapshot(t *testing.T) {
	r, _ := newTestRepo(t)
	ctx := context.Background()

	_, err := r.GetSnapshot(ctx, "s1")
	assert.ErrorIs(t, err, session.ErrSnapshotNotFound)

	want := session.Snapshot{
		Action:      "seek",
		ContentType: "youtube",
		ContentURL:  "https://www.youtube.com/watch?v=75p-N9YKqNo",
		CurrentTime: 42.5,
		IsPlaying:   true,
		Duration:    184,
		UpdatedBy:   "p1",
		UpdatedAt:   1700000000000,
	}
	require.NoError(t, r.SetSnapshot(ctx, &session.SetSnapshotParams{SessionID: "s1", Snapshot: want}))

	got, err := r.GetSnapshot(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestExpireSession(t *testing.T) {
	r, s := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, r.SetSession(ctx, &session.SetSessionParams{SessionID: "s1", HostName: "Ava", ContentID: "c"}))
	require.NoError(t, r.SetPeer(ctx, &session.SetPeerParams{SessionID: "s1", PeerID: "p1", Name: "Ava"}))
	require.NoError(t, r.SetSnapshot(ctx, &session.SetSnapshotParams{SessionID: "s1", Snapshot: session.Snapshot{Action: "play"}}))
	require.NoError(t, r.SetSession(ctx, &session.SetSessionParams{SessionID: "s2", HostName: "Ben", ContentID: "c"}))

	require.NoError(t, r.ExpireSession(ctx, "s1", 30*time.Second))
	for _, key := range []string{"session:s1", "session:s1:peers", "session:s1:peer:p1", "session:s1:snapshot"} {
		assert.Equal(t, 30*time.Second, s.TTL(key), key)
	}
	assert.Equal(t, time.Hour, s.TTL("session:s2"))

	s.FastForward(31 * time.Second)
	_, err := r.GetSession(ctx, "s1")
	assert.ErrorIs(t, err, session.ErrSessionNotFound)

	require.NoError(t, r.RefreshSession(ctx, "s2"))
	assert.Equal(t, time.Hour, s.TTL("session:s2"))
}
