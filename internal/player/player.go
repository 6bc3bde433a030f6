package player

import (
	"context"
	"fmt"
)

// PlayerState is the state code reported by the embedded player.
type PlayerState int

const (
	PlayerUnstarted PlayerState = -1
	PlayerEnded     PlayerState = 0
	PlayerPlaying   PlayerState = 1
	PlayerPaused    PlayerState = 2
	PlayerBuffering PlayerState = 3
	PlayerCued      PlayerState = 5
)

// Player is the surface of an embedded third party player.
type Player interface {
	PlayVideo() error
	PauseVideo() error
	SeekTo(seconds float64, allowSeekAhead bool) error
	Mute() error
	UnMute() error
	CurrentTime() float64
	Duration() float64
	Destroy() error
}

// Fullscreener is implemented by players that can toggle fullscreen.
type Fullscreener interface {
	SetFullscreen(on bool) error
}

// Events are the callbacks a player invokes. Players must not hold their own
// locks while invoking them.
type Events struct {
	OnReady       func()
	OnStateChange func(PlayerState)
	OnError       func(code int)
}

type Vars struct {
	Autoplay bool
	Controls bool
	Muted    bool
	Start    float64
}

type Factory func(ctx context.Context, videoID string, vars Vars, events Events) (Player, error)

// PlayerError carries an upstream player error code.
type PlayerError struct {
	Code int
}

func (e *PlayerError) Error() string {
	return fmt.Sprintf("player error %d", e.Code)
}
