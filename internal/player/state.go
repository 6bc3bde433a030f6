package player

type State int

const (
	StateLoading State = iota
	StateReady
	StatePlaying
	StatePaused
	StateEnded
	StateError
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateEnded:
		return "ended"
	case StateError:
		return "error"
	}

	return "unknown"
}

// controllable reports whether a player exists and accepts commands.
func (s State) controllable() bool {
	switch s {
	case StateReady, StatePlaying, StatePaused, StateEnded:
		return true
	case StateLoading, StateError:
		return false
	}

	return false
}

// PlaybackState is the adapter local view of playback. Only copies leave the
// adapter.
type PlaybackState struct {
	IsPlaying   bool    `json:"is_playing"`
	CurrentTime float64 `json:"current_time"`
	Duration    float64 `json:"duration"`
	IsMuted     bool    `json:"is_muted"`
	IsReady     bool    `json:"is_ready"`
}
