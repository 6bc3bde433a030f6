package checkin

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/circleapp/theater/internal/geolocation"
	repo "github.com/circleapp/theater/internal/repository/checkin"
)

const (
	SourceDevice = "device"
	SourceIP     = "ip"

	DefaultListLimit = 20
	MaxListLimit     = 100
)

var ErrInvalidParams = errors.New("invalid check-in params")

type iCheckInRepo interface {
	Save(context.Context, repo.CheckIn) error
	ListByMember(ctx context.Context, memberID string, limit int) ([]repo.CheckIn, error)
}

// iIPSource resolves a client address to a position source; nil means the
// capability is unavailable.
type iIPSource interface {
	Source(ip string) geolocation.Source
}

type service struct {
	repo     iCheckInRepo
	ipSource iIPSource
	options  geolocation.Options
	clock    clockwork.Clock
	logger   *slog.Logger
}

type Config struct {
	Options geolocation.Options
	Clock   clockwork.Clock
}

func NewService(checkInRepo iCheckInRepo, ipSource iIPSource, logger *slog.Logger, cfg *Config) *service {
	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	return &service{
		repo:     checkInRepo,
		ipSource: ipSource,
		options:  cfg.Options,
		clock:    clock,
		logger:   logger,
	}
}

type CheckInParams struct {
	MemberID          string
	Label             string
	Reported          *geolocation.Coords
	ReportedErrorCode *int
	RemoteIP          string
}

type CheckInResponse struct {
	CheckIn repo.CheckIn
}

// CheckIn captures one position for the member and stores it. Capture
// failures are returned as *geolocation.Error.
func (s service) CheckIn(ctx context.Context, params *CheckInParams) (CheckInResponse, error) {
	s.logger.DebugContext(ctx, "called", "member_id", params.MemberID)
	if params.MemberID == "" {
		return CheckInResponse{}, ErrInvalidParams
	}

	source, name := s.sourceFor(params)
	hook := geolocation.NewHook(source, s.options, s.clock, s.logger)
	pos, err := hook.GetCurrentPosition(ctx)
	if err != nil {
		s.logger.InfoContext(ctx, "failed to capture position", "error", err)
		return CheckInResponse{}, err
	}

	c := repo.CheckIn{
		ID:         uuid.NewString(),
		MemberID:   params.MemberID,
		Label:      params.Label,
		Latitude:   pos.Latitude,
		Longitude:  pos.Longitude,
		Accuracy:   pos.Accuracy,
		Source:     name,
		CapturedAt: pos.Timestamp.UnixMilli(),
	}
	if err := s.repo.Save(ctx, c); err != nil {
		s.logger.InfoContext(ctx, "failed to save check-in", "error", err)
		return CheckInResponse{}, err
	}

	return CheckInResponse{CheckIn: c}, nil
}

func (s service) sourceFor(params *CheckInParams) (geolocation.Source, string) {
	if params.Reported != nil || params.ReportedErrorCode != nil {
		return geolocation.ReportedSource{
			Coords:    params.Reported,
			ErrorCode: params.ReportedErrorCode,
			Clock:     s.clock,
		}, SourceDevice
	}
	if s.ipSource == nil {
		return nil, SourceIP
	}

	return s.ipSource.Source(params.RemoteIP), SourceIP
}

type ListCheckInsParams struct {
	MemberID string
	Limit    int
}

type ListCheckInsResponse struct {
	CheckIns []repo.CheckIn
}

func (s service) ListCheckIns(ctx context.Context, params *ListCheckInsParams) (ListCheckInsResponse, error) {
	if params.MemberID == "" {
		return ListCheckInsResponse{}, ErrInvalidParams
	}

	limit := params.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}

	list, err := s.repo.ListByMember(ctx, params.MemberID, limit)
	if err != nil {
		s.logger.InfoContext(ctx, "failed to list check-ins", "error", err)
		return ListCheckInsResponse{}, err
	}

	return ListCheckInsResponse{CheckIns: list}, nil
}
