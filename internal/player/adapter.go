package player

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/circleapp/theater/pkg/theater"
	"github.com/circleapp/theater/pkg/youtube"
)

var (
	ErrAlreadyOpen = errors.New("player already opened")
	ErrNotReady    = errors.New("player is not ready")
	ErrClosed      = errors.New("player is closed")
)

const (
	DefaultDriftTolerance     = 2 * time.Second
	DefaultCorrectionInterval = 500 * time.Millisecond
	DefaultPollInterval       = time.Second
)

type Config struct {
	VideoID     string
	ContentURL  string
	ContentType theater.ContentType
	SenderID    string
	SenderName  string
	Vars        Vars

	DriftTolerance     time.Duration
	CorrectionInterval time.Duration
	PollInterval       time.Duration

	Clock  clockwork.Clock
	Logger *slog.Logger

	// OnProgress receives a snapshot on every poll while playing.
	OnProgress func(PlaybackState)
	// OnStateChange receives every adapter state transition.
	OnStateChange func(State)
	// OnError receives the terminal error message.
	OnError func(code int, message string)
	// Outbound receives messages for local user actions.
	Outbound func(theater.Message)
}

// Adapter drives one embedded player and keeps it loosely in step with a
// remote peer. It owns its player exclusively.
type Adapter struct {
	cfg     Config
	library *Library
	factory Factory
	clock   clockwork.Clock
	logger  *slog.Logger

	mu             sync.Mutex
	player         Player
	state          State
	playback       PlaybackState
	errCode        int
	errMessage     string
	readySignaled  bool
	fullscreen     bool
	closed         bool
	lastCorrection time.Time
	pollStop       chan struct{}
	pollDone       chan struct{}
}

func NewAdapter(library *Library, factory Factory, cfg Config) *Adapter {
	if cfg.DriftTolerance <= 0 {
		cfg.DriftTolerance = DefaultDriftTolerance
	}
	if cfg.CorrectionInterval <= 0 {
		cfg.CorrectionInterval = DefaultCorrectionInterval
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.ContentType == 0 {
		cfg.ContentType = theater.ContentYouTube
	}
	if cfg.ContentURL == "" && cfg.ContentType == theater.ContentYouTube {
		cfg.ContentURL = youtube.WatchURL(cfg.VideoID)
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if library == nil {
		library = ReadyLibrary()
	}

	return &Adapter{
		cfg:     cfg,
		library: library,
		factory: factory,
		clock:   cfg.Clock,
		logger:  cfg.Logger.With("video_id", cfg.VideoID),
		state:   StateLoading,
		playback: PlaybackState{
			CurrentTime: cfg.Vars.Start,
			IsMuted:     cfg.Vars.Muted,
		},
	}
}

// Open waits for the player library and constructs the player.
func (a *Adapter) Open(ctx context.Context) error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return ErrClosed
	}
	if a.state != StateLoading || a.player != nil {
		a.mu.Unlock()
		return ErrAlreadyOpen
	}
	a.mu.Unlock()

	if err := a.library.Wait(ctx); err != nil {
		a.logger.InfoContext(ctx, "failed to load player library", "error", err)
		a.fail(0, "Failed to load the video player.")
		return err
	}

	p, err := a.factory(ctx, a.cfg.VideoID, a.cfg.Vars, Events{
		OnReady:       a.handleReady,
		OnStateChange: a.handleStateChange,
		OnError:       a.handleError,
	})
	if err != nil {
		a.logger.InfoContext(ctx, "failed to create player", "error", err)
		var perr *PlayerError
		if errors.As(err, &perr) {
			a.fail(perr.Code, youtube.ErrorMessage(perr.Code))
		} else {
			a.fail(0, "Failed to initialize the video player.")
		}
		return err
	}

	duration := p.Duration()

	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return errors.Join(ErrClosed, p.Destroy())
	}
	a.player = p
	if duration > 0 {
		a.playback.Duration = duration
	}
	ready := a.readySignaled && a.state == StateLoading
	if ready {
		a.setStateLocked(StateReady)
	}
	a.mu.Unlock()

	if ready {
		a.notifyState(StateReady)
	}

	if a.cfg.Vars.Autoplay {
		if err := p.PlayVideo(); err != nil {
			return err
		}
		a.setPlaying(true)
	}

	return nil
}

// Close destroys the player and stops polling. Safe to call more than once.
func (a *Adapter) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	a.stopPollingLocked()
	done := a.pollDone
	p := a.player
	a.mu.Unlock()

	if done != nil {
		<-done
	}
	if p != nil {
		return p.Destroy()
	}

	return nil
}

func (a *Adapter) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.state
}

func (a *Adapter) Snapshot() PlaybackState {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.playback
}

// Err returns the terminal error code and message, if any.
func (a *Adapter) Err() (int, string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.errCode, a.errMessage
}

func (a *Adapter) IsFullscreen() bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.fullscreen
}

func (a *Adapter) Play() error {
	p, err := a.active()
	if err != nil {
		return err
	}
	if err := p.PlayVideo(); err != nil {
		return err
	}

	a.setPlaying(true)
	a.emit(theater.ActionPlay)
	return nil
}

func (a *Adapter) Pause() error {
	p, err := a.active()
	if err != nil {
		return err
	}
	if err := p.PauseVideo(); err != nil {
		return err
	}

	a.setPlaying(false)
	a.emit(theater.ActionPause)
	return nil
}

func (a *Adapter) TogglePlay() error {
	if a.Snapshot().IsPlaying {
		return a.Pause()
	}

	return a.Play()
}

// SeekTo moves the local player and tells the peer.
func (a *Adapter) SeekTo(seconds float64) error {
	if err := a.seek(seconds); err != nil {
		return err
	}

	a.emit(theater.ActionSeek)
	return nil
}

// Skip seeks relative to the current position, clamped to the video bounds.
func (a *Adapter) Skip(delta time.Duration) error {
	snap := a.Snapshot()
	target := snap.CurrentTime + delta.Seconds()
	if target < 0 {
		target = 0
	}
	if snap.Duration > 0 && target > snap.Duration {
		target = snap.Duration
	}

	return a.SeekTo(target)
}

func (a *Adapter) Mute() error {
	p, err := a.active()
	if err != nil {
		return err
	}
	if err := p.Mute(); err != nil {
		return err
	}

	a.mu.Lock()
	a.playback.IsMuted = true
	a.mu.Unlock()
	return nil
}

func (a *Adapter) Unmute() error {
	p, err := a.active()
	if err != nil {
		return err
	}
	if err := p.UnMute(); err != nil {
		return err
	}

	a.mu.Lock()
	a.playback.IsMuted = false
	a.mu.Unlock()
	return nil
}

func (a *Adapter) ToggleMute() error {
	if a.Snapshot().IsMuted {
		return a.Unmute()
	}

	return a.Mute()
}

// ToggleFullscreen flips fullscreen; players that cannot go fullscreen only
// have the flag flipped for the host to act on.
func (a *Adapter) ToggleFullscreen() error {
	p, err := a.active()
	if err != nil {
		return err
	}

	a.mu.Lock()
	on := !a.fullscreen
	a.mu.Unlock()

	if fs, ok := p.(Fullscreener); ok {
		if err := fs.SetFullscreen(on); err != nil {
			return err
		}
	}

	a.mu.Lock()
	a.fullscreen = on
	a.mu.Unlock()
	return nil
}

func (a *Adapter) active() (Player, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return nil, ErrClosed
	}
	if !a.state.controllable() || a.player == nil {
		return nil, ErrNotReady
	}

	return a.player, nil
}

func (a *Adapter) seek(seconds float64) error {
	p, err := a.active()
	if err != nil {
		return err
	}
	if err := p.SeekTo(seconds, true); err != nil {
		return err
	}

	a.mu.Lock()
	a.playback.CurrentTime = seconds
	a.mu.Unlock()
	return nil
}

func (a *Adapter) setPlaying(playing bool) {
	a.mu.Lock()
	if a.state == StateError || a.closed {
		a.mu.Unlock()
		return
	}

	next := StatePaused
	if playing {
		next = StatePlaying
	}
	changed := a.state != next
	a.playback.IsPlaying = playing
	a.setStateLocked(next)
	a.mu.Unlock()

	if changed {
		a.notifyState(next)
	}
}

// setStateLocked moves to next and starts or stops the progress ticker.
func (a *Adapter) setStateLocked(next State) {
	a.state = next
	switch next {
	case StatePlaying:
		a.playback.IsReady = true
		a.startPollingLocked()
	case StateReady, StatePaused, StateEnded:
		a.playback.IsReady = true
		a.stopPollingLocked()
	case StateError, StateLoading:
		a.stopPollingLocked()
	}
}

func (a *Adapter) emit(action theater.Action) {
	if a.cfg.Outbound == nil {
		return
	}

	snap := a.Snapshot()
	opts := []theater.Option{
		theater.WithPlaying(snap.IsPlaying),
		theater.WithTimestamp(a.clock.Now().UnixMilli()),
	}
	if a.cfg.ContentType.TimeBased() {
		opts = append(opts, theater.WithCurrentTime(snap.CurrentTime))
	}
	if snap.Duration > 0 {
		opts = append(opts, theater.WithDuration(snap.Duration))
	}
	if a.cfg.SenderName != "" {
		opts = append(opts, theater.WithSenderName(a.cfg.SenderName))
	}

	a.cfg.Outbound(theater.NewMessage(action, a.cfg.ContentType, a.cfg.ContentURL, a.cfg.SenderID, opts...))
}

func (a *Adapter) fail(code int, message string) {
	a.mu.Lock()
	if a.state == StateError {
		a.mu.Unlock()
		return
	}
	a.errCode = code
	a.errMessage = message
	a.playback.IsPlaying = false
	a.setStateLocked(StateError)
	a.mu.Unlock()

	a.logger.Info("player failed", "code", code, "message", message)
	a.notifyState(StateError)
	if a.cfg.OnError != nil {
		a.cfg.OnError(code, message)
	}
}

func (a *Adapter) notifyState(s State) {
	if a.cfg.OnStateChange != nil {
		a.cfg.OnStateChange(s)
	}
}

func (a *Adapter) handleReady() {
	a.mu.Lock()
	a.readySignaled = true
	ready := a.player != nil && a.state == StateLoading
	if ready {
		if d := a.player.Duration(); d > 0 {
			a.playback.Duration = d
		}
		a.setStateLocked(StateReady)
	}
	a.mu.Unlock()

	if ready {
		a.notifyState(StateReady)
	}
}

func (a *Adapter) handleStateChange(ps PlayerState) {
	a.mu.Lock()
	if a.player == nil || a.state == StateError || a.closed {
		a.mu.Unlock()
		return
	}

	var next State
	switch ps {
	case PlayerPlaying:
		next = StatePlaying
		a.playback.IsPlaying = true
	case PlayerPaused:
		next = StatePaused
		a.playback.IsPlaying = false
	case PlayerEnded:
		next = StateEnded
		a.playback.IsPlaying = false
		if a.playback.Duration > 0 {
			a.playback.CurrentTime = a.playback.Duration
		}
	case PlayerCued:
		next = StateReady
	case PlayerBuffering, PlayerUnstarted:
		a.mu.Unlock()
		return
	default:
		a.mu.Unlock()
		return
	}

	changed := a.state != next
	a.setStateLocked(next)
	a.mu.Unlock()

	if changed {
		a.notifyState(next)
	}
}

func (a *Adapter) handleError(code int) {
	a.fail(code, youtube.ErrorMessage(code))
}
