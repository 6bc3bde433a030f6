package geolocation

import (
	"context"

	"github.com/jonboulle/clockwork"
)

// Coords are device-reported coordinates.
type Coords struct {
	Latitude  float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64 `json:"longitude" validate:"gte=-180,lte=180"`
	Accuracy  float64 `json:"accuracy" validate:"gte=0"`
}

// ReportedSource replays what a client device captured: either coordinates or
// the platform error code it got instead.
type ReportedSource struct {
	Coords    *Coords
	ErrorCode *int
	Clock     clockwork.Clock
}

func (s ReportedSource) CurrentPosition(ctx context.Context, _ Options) (Position, error) {
	if err := ctx.Err(); err != nil {
		return Position{}, err
	}
	if s.ErrorCode != nil {
		return Position{}, NewError(*s.ErrorCode)
	}
	if s.Coords == nil {
		return Position{}, NewError(CodePositionUnavailable)
	}

	clock := s.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	return Position{
		Latitude:  s.Coords.Latitude,
		Longitude: s.Coords.Longitude,
		Accuracy:  s.Coords.Accuracy,
		Timestamp: clock.Now(),
	}, nil
}
