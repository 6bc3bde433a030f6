package theater

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/circleapp/theater/internal/content"
	"github.com/circleapp/theater/internal/repository/session"
	"github.com/circleapp/theater/internal/timezone"
	codec "github.com/circleapp/theater/pkg/theater"
	"github.com/circleapp/theater/pkg/youtube"
)

type CreateSessionParams struct {
	HostName  string
	ContentID string
	// ScheduledAt is a datetime-local value in Timezone; empty means
	// unscheduled.
	ScheduledAt string
	Timezone    string
}

type CreateSessionResponse struct {
	SessionID string
}

func (s *service) CreateSession(ctx context.Context, params *CreateSessionParams) (CreateSessionResponse, error) {
	s.logger.DebugContext(ctx, "called", "params", params)

	item, err := s.library.Get(params.ContentID)
	if err != nil {
		s.logger.InfoContext(ctx, "failed to get content", "error", err)
		if errors.Is(err, content.ErrNotFound) {
			return CreateSessionResponse{}, ErrContentNotFound
		}
		return CreateSessionResponse{}, err
	}

	var scheduledAt string
	if params.ScheduledAt != "" {
		zone, err := timezone.ParseZone(params.Timezone)
		if err != nil {
			return CreateSessionResponse{}, fmt.Errorf("%w: %w", ErrInvalidSchedule, err)
		}
		scheduledAt, err = timezone.LocalInputToUTC(params.ScheduledAt, zone)
		if err != nil {
			return CreateSessionResponse{}, fmt.Errorf("%w: %w", ErrInvalidSchedule, err)
		}
	}

	sessionID := uuid.NewString()
	if err := s.sessionRepo.SetSession(ctx, &session.SetSessionParams{
		SessionID:   sessionID,
		HostName:    params.HostName,
		ContentID:   item.ID,
		ContentType: item.Type.String(),
		ContentURL:  canonicalURL(item),
		ScheduledAt: scheduledAt,
		Timezone:    params.Timezone,
		CreatedAt:   s.clock.Now().UnixMilli(),
	}); err != nil {
		s.logger.InfoContext(ctx, "failed to set session", "error", err)
		return CreateSessionResponse{}, err
	}

	return CreateSessionResponse{SessionID: sessionID}, nil
}

// canonicalURL identifies the content in sync messages; signed URLs expire
// and are not used for this.
func canonicalURL(item content.Item) string {
	if item.Type == codec.ContentYouTube && item.VideoID != "" {
		return youtube.WatchURL(item.VideoID)
	}

	return item.URL
}

type GetSessionParams struct {
	SessionID string
}

func (s *service) GetSession(ctx context.Context, params *GetSessionParams) (Session, error) {
	s.logger.DebugContext(ctx, "called", "params", params)

	sess, err := s.getSession(ctx, params.SessionID)
	if err != nil {
		return Session{}, err
	}

	return s.buildSession(ctx, params.SessionID, sess)
}

func (s *service) getSession(ctx context.Context, sessionID string) (session.Session, error) {
	sess, err := s.sessionRepo.GetSession(ctx, sessionID)
	if err != nil {
		s.logger.InfoContext(ctx, "failed to get session", "error", err)
		if errors.Is(err, session.ErrSessionNotFound) {
			return session.Session{}, ErrSessionNotFound
		}
		return session.Session{}, err
	}

	return sess, nil
}

func (s *service) buildSession(ctx context.Context, sessionID string, sess session.Session) (Session, error) {
	item, err := s.library.Resolve(ctx, sess.ContentID)
	if err != nil {
		s.logger.InfoContext(ctx, "failed to resolve content", "error", err)
		if errors.Is(err, content.ErrNotFound) {
			return Session{}, ErrContentNotFound
		}
		return Session{}, err
	}

	peers, err := s.getPeers(ctx, sessionID)
	if err != nil {
		s.logger.InfoContext(ctx, "failed to get peers", "error", err)
		return Session{}, err
	}

	view := Session{
		ID:          sessionID,
		HostName:    sess.HostName,
		Content:     item,
		ScheduledAt: sess.ScheduledAt,
		Timezone:    sess.Timezone,
		Peers:       peers,
	}
	s.fillSchedule(ctx, &view)

	snapshot, err := s.sessionRepo.GetSnapshot(ctx, sessionID)
	switch {
	case err == nil:
		snap := toSnapshot(snapshot)
		view.Snapshot = &snap
	case errors.Is(err, session.ErrSnapshotNotFound):
	default:
		s.logger.InfoContext(ctx, "failed to get snapshot", "error", err)
		return Session{}, err
	}

	return view, nil
}

// fillSchedule renders the schedule in the session timezone; failures leave
// the raw UTC value for display.
func (s *service) fillSchedule(ctx context.Context, view *Session) {
	if view.ScheduledAt == "" {
		return
	}

	zone := timezone.Zone(view.Timezone)
	at, err := timezone.ParseUTC(view.ScheduledAt)
	if err != nil {
		s.logger.InfoContext(ctx, "failed to parse schedule", "error", err)
		view.ScheduledDisplay = view.ScheduledAt
		return
	}

	display, err := timezone.FormatScheduleTime(at, zone)
	if err != nil {
		s.logger.InfoContext(ctx, "failed to format schedule", "error", err)
		view.ScheduledDisplay = view.ScheduledAt
		return
	}
	view.ScheduledDisplay = display
	view.ScheduledDate, _ = timezone.FormatScheduleDate(at, zone)
	view.IsToday, _ = timezone.IsToday(at, zone, s.clock.Now())
}

func toSnapshot(snap session.Snapshot) Snapshot {
	return Snapshot{
		Action:      snap.Action,
		ContentType: snap.ContentType,
		ContentURL:  snap.ContentURL,
		CurrentTime: snap.CurrentTime,
		CurrentPage: snap.CurrentPage,
		TotalPages:  snap.TotalPages,
		IsPlaying:   snap.IsPlaying,
		Duration:    snap.Duration,
		UpdatedBy:   snap.UpdatedBy,
		UpdatedAt:   snap.UpdatedAt,
	}
}
