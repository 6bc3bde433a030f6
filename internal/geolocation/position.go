package geolocation

import (
	"context"
	"time"
)

const DefaultTimeout = 15 * time.Second

// Position is a single captured fix. Accuracy is in meters.
type Position struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Accuracy  float64   `json:"accuracy"`
	Timestamp time.Time `json:"timestamp"`
}

type Options struct {
	EnableHighAccuracy bool
	Timeout            time.Duration
	// MaximumAge is how old a previous fix may be and still be reused. Zero
	// never reuses.
	MaximumAge time.Duration
}

func DefaultOptions() Options {
	return Options{
		EnableHighAccuracy: true,
		Timeout:            DefaultTimeout,
	}
}

// Source produces a position or a classified *Error.
type Source interface {
	CurrentPosition(ctx context.Context, opts Options) (Position, error)
}

type SourceFunc func(ctx context.Context, opts Options) (Position, error)

func (f SourceFunc) CurrentPosition(ctx context.Context, opts Options) (Position, error) {
	return f(ctx, opts)
}
