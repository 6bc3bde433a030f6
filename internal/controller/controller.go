package controller

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"golang.org/x/exp/slices"

	"github.com/circleapp/theater/internal/content"
	"github.com/circleapp/theater/internal/service/checkin"
	"github.com/circleapp/theater/internal/service/theater"
	codec "github.com/circleapp/theater/pkg/theater"
	"github.com/circleapp/theater/pkg/validator"
	"github.com/circleapp/theater/pkg/wsrouter"
	"github.com/circleapp/theater/pkg/youtube"
)

type iTheaterService interface {
	CreateSession(context.Context, *theater.CreateSessionParams) (theater.CreateSessionResponse, error)
	GetSession(context.Context, *theater.GetSessionParams) (theater.Session, error)
	JoinSession(context.Context, *theater.JoinSessionParams) (theater.JoinSessionResponse, error)
	LeaveSession(context.Context, *theater.LeaveSessionParams) (theater.LeaveSessionResponse, error)
	HandleMessage(context.Context, *theater.HandleMessageParams) (theater.HandleMessageResponse, error)
}

type iCheckInService interface {
	CheckIn(context.Context, *checkin.CheckInParams) (checkin.CheckInResponse, error)
	ListCheckIns(context.Context, *checkin.ListCheckInsParams) (checkin.ListCheckInsResponse, error)
}

type iContentLibrary interface {
	List() []content.Item
	ListByType(codec.ContentType) []content.Item
	Resolve(ctx context.Context, id string) (content.Item, error)
}

type iVideoDataClient interface {
	Get(ctx context.Context, videoURL string) (*youtube.VideoData, error)
}

type Config struct {
	// CORSOrigins lists allowed origins; empty allows all.
	CORSOrigins []string
}

type controller struct {
	theaterService iTheaterService
	checkInService iCheckInService
	library        iContentLibrary
	videoData      iVideoDataClient
	upgrader       websocket.Upgrader
	wsmux          *wsrouter.WSRouter
	validate       *validator.Validator
	logger         *slog.Logger
	corsOrigins    []string
}

func NewController(
	theaterService iTheaterService,
	checkInService iCheckInService,
	library iContentLibrary,
	videoData iVideoDataClient,
	logger *slog.Logger,
	cfg *Config,
) *controller {
	c := &controller{
		theaterService: theaterService,
		checkInService: checkInService,
		library:        library,
		videoData:      videoData,
		validate:       validator.NewValidator(),
		logger:         logger,
		corsOrigins:    cfg.CORSOrigins,
	}
	c.upgrader = websocket.Upgrader{
		CheckOrigin: c.checkOrigin,
	}
	c.wsmux = c.getWSRouter()

	return c
}

func (c *controller) checkOrigin(r *http.Request) bool {
	if len(c.corsOrigins) == 0 {
		return true
	}

	origin := r.Header.Get("Origin")
	return origin == "" || slices.Contains(c.corsOrigins, origin)
}
