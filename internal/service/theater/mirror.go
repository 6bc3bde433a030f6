package theater

import (
	"context"

	"github.com/circleapp/theater/internal/player"
	codec "github.com/circleapp/theater/pkg/theater"
)

// ServerSenderID identifies messages synthesised by the relay.
const ServerSenderID = "server"

// mirror follows a session's time based playback on a virtual player so the
// relay can answer sync requests.
type mirror struct {
	adapter     *player.Adapter
	vp          *player.VirtualPlayer
	contentType codec.ContentType
	contentURL  string
}

func (m *mirror) position() float64 {
	if m.vp == nil {
		return m.adapter.Snapshot().CurrentTime
	}

	return m.vp.CurrentTime()
}

func (m *mirror) close() {
	_ = m.adapter.Close()
}

// mirrorFor returns the session mirror for the given content, replacing it
// when the content changed or reset is set.
func (s *service) mirrorFor(ctx context.Context, sessionID string, ct codec.ContentType, url string, duration float64, reset bool) (*mirror, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if m, ok := s.mirrors[sessionID]; ok {
		if !reset && m.contentURL == url && m.contentType == ct {
			return m, nil
		}
		m.close()
		delete(s.mirrors, sessionID)
	}

	m := &mirror{contentType: ct, contentURL: url}
	virtual := player.VirtualFactory(s.clock, func(string) float64 { return duration }, false)
	factory := func(ctx context.Context, id string, vars player.Vars, events player.Events) (player.Player, error) {
		p, err := virtual(ctx, id, vars, events)
		if vp, ok := p.(*player.VirtualPlayer); ok {
			m.vp = vp
		}
		return p, err
	}

	m.adapter = player.NewAdapter(s.playerLib, factory, player.Config{
		VideoID:            url,
		ContentURL:         url,
		ContentType:        ct,
		SenderID:           ServerSenderID,
		DriftTolerance:     s.driftTolerance,
		CorrectionInterval: s.correctionInterval,
		PollInterval:       s.pollInterval,
		Clock:              s.clock,
		Logger:             s.logger.With("session_id", sessionID),
	})
	if err := m.adapter.Open(context.WithoutCancel(ctx)); err != nil {
		return nil, err
	}
	s.mirrors[sessionID] = m

	return m, nil
}

func (s *service) getMirror(sessionID string) (*mirror, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.mirrors[sessionID]
	return m, ok
}

func (s *service) releaseMirror(sessionID string) {
	s.mu.Lock()
	m, ok := s.mirrors[sessionID]
	delete(s.mirrors, sessionID)
	s.mu.Unlock()

	if ok {
		m.close()
	}
}

// releaseSession drops the mirror and the sync lock of an empty session.
func (s *service) releaseSession(sessionID string) {
	s.releaseMirror(sessionID)

	s.mu.Lock()
	delete(s.syncLocks, sessionID)
	s.mu.Unlock()
}

// applyToMirror moves the mirror as a peer's player would move.
func (s *service) applyToMirror(ctx context.Context, sessionID string, msg codec.Message, duration float64) error {
	if !msg.TimeBased() {
		return nil
	}

	switch msg.Action {
	case codec.ActionStop:
		s.releaseMirror(sessionID)
		return nil
	case codec.ActionPage, codec.ActionSyncRequest:
		return nil
	case codec.ActionStart, codec.ActionPlay, codec.ActionPause, codec.ActionSeek:
	}

	m, err := s.mirrorFor(ctx, sessionID, msg.ContentType, msg.ContentURL, duration, msg.Action == codec.ActionStart)
	if err != nil {
		return err
	}

	remote := player.RemoteFromMessage(msg)
	switch msg.Action {
	case codec.ActionStart, codec.ActionSeek:
		if msg.CurrentTime != nil {
			if err := m.adapter.SeekTo(*msg.CurrentTime); err != nil {
				return err
			}
		}
		remote.CurrentTime = nil
	case codec.ActionPlay:
		if remote.IsPlaying == nil {
			playing := true
			remote.IsPlaying = &playing
		}
	case codec.ActionPause:
		playing := false
		remote.IsPlaying = &playing
	}

	res, err := m.adapter.Reconcile(remote)
	if err != nil {
		return err
	}
	s.logger.DebugContext(ctx, "mirror reconciled", "drift", res.Drift, "seeked", res.Seeked, "throttled", res.Throttled)

	return nil
}
