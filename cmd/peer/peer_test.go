package main

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"testing"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/circleapp/theater/internal/player"
	codec "github.com/circleapp/theater/pkg/theater"
	"github.com/circleapp/theater/pkg/youtube"
)

type fakeConn struct {
	mu  sync.Mutex
	in  []frame
	out []map[string]any
}

func (c *fakeConn) ReadJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.in) == 0 {
		return io.EOF
	}
	*(v.(*frame)) = c.in[0]
	c.in = c.in[1:]
	return nil
}

func (c *fakeConn) WriteJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.out = append(c.out, v.(map[string]any))
	return nil
}

func (c *fakeConn) Close() error { return nil }

func (c *fakeConn) sent() []codec.Message {
	c.mu.Lock()
	defer c.mu.Unlock()

	msgs := make([]codec.Message, 0, len(c.out))
	for _, o := range c.out {
		msgs = append(msgs, o["payload"].(codec.Message))
	}
	return msgs
}

func joinedFrame(t *testing.T, videoID string, duration float64) frame {
	t.Helper()

	payload, err := json.Marshal(map[string]any{
		"auth_token": "token",
		"peer_id":    "peer-1",
		"session": map[string]any{
			"id": "s1",
			"content": map[string]any{
				"type":     "youtube",
				"url":      youtube.WatchURL(videoID),
				"video_id": videoID,
				"duration": duration,
			},
		},
	})
	require.NoError(t, err)

	return frame{Type: "JOINED_SESSION", Payload: payload}
}

func syncFrame(t *testing.T, m codec.Message) frame {
	t.Helper()

	payload, err := m.Encode()
	require.NoError(t, err)
	return frame{Type: "SYNC", Payload: payload}
}

func TestWSURL(t *testing.T) {
	got, err := wsURL("http://localhost:8080/", "s 1", "Ava", "tok")
	require.NoError(t, err)
	assert.Equal(t, "ws://localhost:8080/ws/sessions/s%201?auth-token=tok&name=Ava", got)

	got, err = wsURL("https://relay.example.com", "s1", "Ben", "")
	require.NoError(t, err)
	assert.Equal(t, "wss://relay.example.com/ws/sessions/s1?name=Ben", got)

	got, err = wsURL("http://localhost/relay/", "s/1", "Ben", "")
	require.NoError(t, err)
	assert.Equal(t, "ws://localhost/relay/ws/sessions/s%2F1?name=Ben", got)

	_, err = wsURL("ftp://relay", "s1", "Ben", "")
	assert.Error(t, err)
}

func TestPeerJoinSendsSyncRequest(t *testing.T) {
	conn := &fakeConn{in: []frame{joinedFrame(t, "75p-N9YKqNo", 184)}}
	p := newPeer(conn, peerConfig{Name: "Ava", Clock: clockwork.NewFakeClock()})

	require.NoError(t, p.join(context.Background()))
	defer p.adapter.Close()

	sent := conn.sent()
	require.Len(t, sent, 1)
	assert.Equal(t, codec.ActionSyncRequest, sent[0].Action)
	assert.Equal(t, youtube.WatchURL("75p-N9YKqNo"), sent[0].ContentURL)
	assert.Equal(t, "peer-1", sent[0].SenderID)
	assert.Equal(t, player.StateReady, p.adapter.State())
	assert.Equal(t, 184.0, p.adapter.Snapshot().Duration)
}

func TestPeerJoinWithPlay(t *testing.T) {
	conn := &fakeConn{in: []frame{joinedFrame(t, "75p-N9YKqNo", 184)}}
	p := newPeer(conn, peerConfig{Name: "Ava", Play: true, Clock: clockwork.NewFakeClock()})

	require.NoError(t, p.join(context.Background()))
	defer p.adapter.Close()

	sent := conn.sent()
	require.Len(t, sent, 2)
	assert.Equal(t, codec.ActionPlay, sent[1].Action)
	assert.Equal(t, "Ava", sent[1].SenderName)
	assert.Equal(t, player.StatePlaying, p.adapter.State())
}

func TestPeerJoinErrors(t *testing.T) {
	errPayload, _ := json.Marshal(map[string]string{"message": "session is full"})
	p := newPeer(&fakeConn{in: []frame{{Type: "ERROR", Payload: errPayload}}}, peerConfig{})
	assert.ErrorIs(t, p.join(context.Background()), ErrNotJoined)

	p = newPeer(&fakeConn{in: []frame{joinedFrame(t, "", 0)}}, peerConfig{})
	assert.Error(t, p.join(context.Background()))
}

func TestPeerReconcilesSyncFrames(t *testing.T) {
	clock := clockwork.NewFakeClock()
	url := youtube.WatchURL("75p-N9YKqNo")
	conn := &fakeConn{in: []frame{joinedFrame(t, "75p-N9YKqNo", 184)}}
	p := newPeer(conn, peerConfig{Name: "Ben", Clock: clock})
	require.NoError(t, p.join(context.Background()))

	conn.mu.Lock()
	conn.in = []frame{
		syncFrame(t, codec.NewMessage(codec.ActionSeek, codec.ContentYouTube, url, "peer-2",
			codec.WithCurrentTime(40), codec.WithPlaying(true))),
		syncFrame(t, codec.NewMessage(codec.ActionSeek, codec.ContentYouTube, youtube.WatchURL("Zrw8Th_Vp9A"), "peer-2",
			codec.WithCurrentTime(90))),
		{Type: "PEER_LEFT", Payload: json.RawMessage(`{"peer":{"id":"peer-2"}}`)},
	}
	conn.mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	assert.ErrorIs(t, p.run(ctx), io.EOF)

	snap := p.adapter.Snapshot()
	assert.Equal(t, 40.0, snap.CurrentTime, "the frame for other content is ignored")
	assert.True(t, snap.IsPlaying)
	assert.Len(t, conn.sent(), 1, "reconciling never echoes a message")
}
