package theater

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/circleapp/theater/internal/content"
	"github.com/circleapp/theater/internal/player"
	"github.com/circleapp/theater/internal/repository/connection"
	"github.com/circleapp/theater/internal/repository/session"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionFull     = errors.New("session is full")
	ErrPeerNotFound    = errors.New("peer not found")
	ErrInvalidToken    = errors.New("invalid auth token")
	ErrNameRequired    = errors.New("name is required for a new peer")
	ErrContentNotFound = errors.New("content not found")
	ErrInvalidMessage  = errors.New("invalid sync message")
	ErrInvalidSchedule = errors.New("invalid schedule")
)

type iSessionRepo interface {
	SetSession(context.Context, *session.SetSessionParams) error
	GetSession(context.Context, string) (session.Session, error)
	ExpireSession(context.Context, string, time.Duration) error
	RefreshSession(context.Context, string) error
	SetPeer(context.Context, *session.SetPeerParams) error
	GetPeer(context.Context, *session.GetPeerParams) (session.Peer, error)
	GetPeerIDs(context.Context, string) ([]string, error)
	RemovePeer(context.Context, *session.RemovePeerParams) error
	SetSnapshot(context.Context, *session.SetSnapshotParams) error
	GetSnapshot(context.Context, string) (session.Snapshot, error)
}

type iConnRepo interface {
	Add(*connection.Conn, string) error
	RemoveByPeerID(string) error
	RemoveByConn(*connection.Conn) (string, error)
	GetConn(string) (*connection.Conn, error)
	GetPeerID(*connection.Conn) (string, error)
}

type iContentLibrary interface {
	Get(id string) (content.Item, error)
	Resolve(ctx context.Context, id string) (content.Item, error)
}

type Config struct {
	PeersLimit int
	Secret     string
	// SessionExp is the ttl applied once the last peer leaves.
	SessionExp         time.Duration
	DriftTolerance     time.Duration
	CorrectionInterval time.Duration
	PollInterval       time.Duration
	Clock              clockwork.Clock
}

type service struct {
	sessionRepo iSessionRepo
	connRepo    iConnRepo
	library     iContentLibrary
	playerLib   *player.Library
	logger      *slog.Logger
	clock       clockwork.Clock

	peersLimit         int
	secret             string
	sessionExp         time.Duration
	driftTolerance     time.Duration
	correctionInterval time.Duration
	pollInterval       time.Duration

	mu      sync.Mutex
	mirrors map[string]*mirror
	// syncLocks serialises snapshot updates per session.
	syncLocks map[string]*sync.Mutex
}

func NewService(sessionRepo iSessionRepo, connRepo iConnRepo, library iContentLibrary, logger *slog.Logger, cfg *Config) *service {
	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	peersLimit := cfg.PeersLimit
	if peersLimit < 1 {
		peersLimit = 2
	}

	return &service{
		sessionRepo:        sessionRepo,
		connRepo:           connRepo,
		library:            library,
		playerLib:          player.ReadyLibrary(),
		logger:             logger,
		clock:              clock,
		peersLimit:         peersLimit,
		secret:             cfg.Secret,
		sessionExp:         cfg.SessionExp,
		driftTolerance:     cfg.DriftTolerance,
		correctionInterval: cfg.CorrectionInterval,
		pollInterval:       cfg.PollInterval,
		mirrors:            make(map[string]*mirror),
		syncLocks:          make(map[string]*sync.Mutex),
	}
}

// Close releases every server-side playback mirror.
func (s *service) Close() {
	s.mu.Lock()
	mirrors := s.mirrors
	s.mirrors = make(map[string]*mirror)
	s.mu.Unlock()

	for _, m := range mirrors {
		m.close()
	}
}
