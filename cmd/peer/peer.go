package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"

	"github.com/circleapp/theater/internal/player"
	codec "github.com/circleapp/theater/pkg/theater"
	"github.com/circleapp/theater/pkg/youtube"
)

var ErrNotJoined = errors.New("did not receive joined session frame")

type frame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type joined struct {
	AuthToken string `json:"auth_token"`
	PeerID    string `json:"peer_id"`
	Session   struct {
		ID      string `json:"id"`
		Content struct {
			Type     string  `json:"type"`
			URL      string  `json:"url"`
			VideoID  string  `json:"video_id"`
			Duration float64 `json:"duration"`
		} `json:"content"`
	} `json:"session"`
}

type frameConn interface {
	ReadJSON(v any) error
	WriteJSON(v any) error
	Close() error
}

type peerConfig struct {
	Server    string
	SessionID string
	Name      string
	AuthToken string
	Video     string
	Play      bool

	Clock  clockwork.Clock
	Logger *slog.Logger
}

type peer struct {
	cfg    peerConfig
	conn   frameConn
	logger *slog.Logger

	writeMu sync.Mutex
	adapter *player.Adapter
	peerID  string
	url     string
}

func wsURL(server, sessionID, name, authToken string) (string, error) {
	u, err := url.Parse(server)
	if err != nil {
		return "", fmt.Errorf("invalid server url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported server scheme %q", u.Scheme)
	}

	base := strings.TrimRight(u.EscapedPath(), "/")
	u.Path = strings.TrimRight(u.Path, "/") + "/ws/sessions/" + sessionID
	u.RawPath = base + "/ws/sessions/" + url.PathEscape(sessionID)
	q := url.Values{}
	q.Set("name", name)
	if authToken != "" {
		q.Set("auth-token", authToken)
	}
	u.RawQuery = q.Encode()

	return u.String(), nil
}

func dial(ctx context.Context, cfg peerConfig) (*peer, error) {
	target, err := wsURL(cfg.Server, cfg.SessionID, cfg.Name, cfg.AuthToken)
	if err != nil {
		return nil, err
	}

	ws, _, err := websocket.DefaultDialer.DialContext(ctx, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", target, err)
	}

	return newPeer(ws, cfg), nil
}

func newPeer(conn frameConn, cfg peerConfig) *peer {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}

	return &peer{cfg: cfg, conn: conn, logger: cfg.Logger}
}

// join reads the joined frame and opens the local player on the session
// video, or on the video flag when set.
func (p *peer) join(ctx context.Context) error {
	var f frame
	if err := p.conn.ReadJSON(&f); err != nil {
		return fmt.Errorf("failed to read joined frame: %w", err)
	}
	if f.Type != "JOINED_SESSION" {
		return fmt.Errorf("%w: got %s %s", ErrNotJoined, f.Type, f.Payload)
	}

	var j joined
	if err := json.Unmarshal(f.Payload, &j); err != nil {
		return fmt.Errorf("failed to decode joined frame: %w", err)
	}
	p.peerID = j.PeerID
	p.logger = p.logger.With("peer_id", j.PeerID)
	p.logger.InfoContext(ctx, "joined session", "session_id", j.Session.ID, "auth_token", j.AuthToken)

	video := p.cfg.Video
	if video == "" {
		video = j.Session.Content.VideoID
	}
	videoID, ok := youtube.ExtractID(video)
	if !ok {
		return fmt.Errorf("no youtube video to play: %q", video)
	}
	p.url = youtube.WatchURL(videoID)

	duration := j.Session.Content.Duration
	p.adapter = player.NewAdapter(player.ReadyLibrary(),
		player.VirtualFactory(p.cfg.Clock, func(string) float64 { return duration }, true),
		player.Config{
			VideoID:     videoID,
			ContentURL:  p.url,
			ContentType: codec.ContentYouTube,
			SenderID:    p.peerID,
			SenderName:  p.cfg.Name,
			Clock:       p.cfg.Clock,
			Logger:      p.logger,
			OnProgress: func(s player.PlaybackState) {
				p.logger.Info("progress", "current_time", s.CurrentTime, "duration", s.Duration, "playing", s.IsPlaying)
			},
			OnStateChange: func(s player.State) {
				p.logger.Info("player state", "state", s.String())
			},
			OnError: func(code int, message string) {
				p.logger.Warn("player error", "code", code, "message", message)
			},
			Outbound: p.send,
		})
	if err := p.adapter.Open(ctx); err != nil {
		return fmt.Errorf("failed to open player: %w", err)
	}

	p.send(codec.NewMessage(codec.ActionSyncRequest, codec.ContentYouTube, p.url, p.peerID))
	if p.cfg.Play {
		if err := p.adapter.Play(); err != nil {
			return fmt.Errorf("failed to start playback: %w", err)
		}
	}

	return nil
}

func (p *peer) send(m codec.Message) {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	if err := p.conn.WriteJSON(map[string]any{"type": m.Action.String(), "payload": m}); err != nil {
		p.logger.Warn("failed to send message", "action", m.Action.String(), "error", err)
	}
}

// run handles frames until the connection or ctx ends.
func (p *peer) run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		p.conn.Close()
	}()
	defer p.adapter.Close()

	for {
		var f frame
		if err := p.conn.ReadJSON(&f); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		p.handle(ctx, f)
	}
}

func (p *peer) handle(ctx context.Context, f frame) {
	switch f.Type {
	case "SYNC":
		msg, err := codec.Decode(f.Payload)
		if err != nil {
			p.logger.WarnContext(ctx, "invalid sync frame", "error", err)
			return
		}
		if !msg.TimeBased() || msg.ContentURL != p.url {
			p.logger.DebugContext(ctx, "ignoring sync for other content", "content_url", msg.ContentURL)
			return
		}
		if msg.Action == codec.ActionSyncRequest || msg.Action == codec.ActionStop {
			return
		}

		res, err := p.adapter.ReconcileMessage(msg)
		if err != nil {
			p.logger.WarnContext(ctx, "failed to reconcile", "error", err)
			return
		}
		p.logger.InfoContext(ctx, "reconciled",
			"from", msg.SenderName,
			"action", msg.Action.String(),
			"drift", res.Drift,
			"seeked", res.Seeked,
			"throttled", res.Throttled,
		)
	case "PEER_JOINED", "PEER_LEFT":
		p.logger.InfoContext(ctx, strings.ToLower(f.Type), "payload", string(f.Payload))
	case "ERROR":
		p.logger.WarnContext(ctx, "server error", "payload", string(f.Payload))
	default:
		p.logger.DebugContext(ctx, "unhandled frame", "type", f.Type)
	}
}
