package player

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/circleapp/theater/pkg/youtube"
)

// VirtualPlayer is an in-process player whose position follows the clock
// while playing. A zero duration means the length is unknown and playback
// never ends on its own.
type VirtualPlayer struct {
	clock  clockwork.Clock
	events Events

	mu         sync.Mutex
	duration   float64
	position   float64
	anchor     time.Time
	playing    bool
	muted      bool
	fullscreen bool
	ended      bool
	destroyed  bool
}

func NewVirtualPlayer(clock clockwork.Clock, duration float64, vars Vars, events Events) *VirtualPlayer {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	return &VirtualPlayer{
		clock:    clock,
		events:   events,
		duration: duration,
		position: vars.Start,
		muted:    vars.Muted,
	}
}

// DurationLookup returns the known length of a video in seconds.
type DurationLookup func(videoID string) float64

// VirtualFactory builds virtual players. With validateID set, ids that are not
// YouTube ids fail with the invalid parameter code.
func VirtualFactory(clock clockwork.Clock, lookup DurationLookup, validateID bool) Factory {
	return func(_ context.Context, videoID string, vars Vars, events Events) (Player, error) {
		if validateID {
			if _, ok := youtube.ExtractID(videoID); !ok {
				return nil, &PlayerError{Code: youtube.CodeInvalidParam}
			}
		}

		var duration float64
		if lookup != nil {
			duration = lookup(videoID)
		}

		p := NewVirtualPlayer(clock, duration, vars, events)
		if p.events.OnReady != nil {
			p.events.OnReady()
		}

		return p, nil
	}
}

func (p *VirtualPlayer) PlayVideo() error {
	p.mu.Lock()
	if p.destroyed {
		p.mu.Unlock()
		return ErrClosed
	}
	if p.ended {
		p.position = 0
		p.ended = false
	}
	p.anchor = p.clock.Now()
	p.playing = true
	p.mu.Unlock()

	p.fireState(PlayerPlaying)
	return nil
}

func (p *VirtualPlayer) PauseVideo() error {
	p.mu.Lock()
	if p.destroyed {
		p.mu.Unlock()
		return ErrClosed
	}
	p.position = p.positionLocked()
	p.playing = false
	p.mu.Unlock()

	p.fireState(PlayerPaused)
	return nil
}

func (p *VirtualPlayer) SeekTo(seconds float64, _ bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.destroyed {
		return ErrClosed
	}
	if seconds < 0 {
		seconds = 0
	}
	if p.duration > 0 && seconds > p.duration {
		seconds = p.duration
	}
	p.position = seconds
	p.anchor = p.clock.Now()
	p.ended = false

	return nil
}

func (p *VirtualPlayer) Mute() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.muted = true
	return nil
}

func (p *VirtualPlayer) UnMute() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.muted = false
	return nil
}

func (p *VirtualPlayer) IsMuted() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.muted
}

func (p *VirtualPlayer) SetFullscreen(on bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.fullscreen = on
	return nil
}

// CurrentTime reports the position and fires the ended event once the end is
// reached while playing.
func (p *VirtualPlayer) CurrentTime() float64 {
	p.mu.Lock()
	pos := p.positionLocked()
	justEnded := p.playing && p.duration > 0 && pos >= p.duration
	if justEnded {
		p.position = p.duration
		p.playing = false
		p.ended = true
	}
	p.mu.Unlock()

	if justEnded {
		p.fireState(PlayerEnded)
	}

	return pos
}

func (p *VirtualPlayer) Duration() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.duration
}

func (p *VirtualPlayer) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.playing
}

func (p *VirtualPlayer) Destroy() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.destroyed = true
	p.playing = false
	return nil
}

// Fail reports an upstream error code to the owner.
func (p *VirtualPlayer) Fail(code int) {
	if p.events.OnError != nil {
		p.events.OnError(code)
	}
}

func (p *VirtualPlayer) positionLocked() float64 {
	pos := p.position
	if p.playing {
		pos += p.clock.Since(p.anchor).Seconds()
	}
	if p.duration > 0 && pos > p.duration {
		pos = p.duration
	}

	return pos
}

func (p *VirtualPlayer) fireState(ps PlayerState) {
	if p.events.OnStateChange != nil {
		p.events.OnStateChange(ps)
	}
}
