package player

import (
	"math"

	"github.com/circleapp/theater/pkg/theater"
)

// Remote is a peer's reported playback snapshot. Nil fields are not
// reconciled.
type Remote struct {
	CurrentTime *float64
	IsPlaying   *bool
}

func RemoteFromMessage(m theater.Message) Remote {
	return Remote{
		CurrentTime: m.CurrentTime,
		IsPlaying:   m.IsPlaying,
	}
}

// Reconciliation describes what a Reconcile call did.
type Reconciliation struct {
	Drift     float64
	Seeked    bool
	Throttled bool
	Played    bool
	Paused    bool
}

// Reconcile adjusts the local player towards a remote snapshot. Position is
// corrected only past the drift tolerance and at most once per correction
// interval; play state is reconciled independently. Nothing is emitted to the
// peer.
func (a *Adapter) Reconcile(remote Remote) (Reconciliation, error) {
	var res Reconciliation

	p, err := a.active()
	if err != nil {
		return res, err
	}

	if remote.CurrentTime != nil {
		target := *remote.CurrentTime
		res.Drift = math.Abs(p.CurrentTime() - target)

		if res.Drift > a.cfg.DriftTolerance.Seconds() {
			a.mu.Lock()
			now := a.clock.Now()
			allowed := a.lastCorrection.IsZero() || now.Sub(a.lastCorrection) >= a.cfg.CorrectionInterval
			if allowed {
				a.lastCorrection = now
			}
			a.mu.Unlock()

			if allowed {
				if err := a.seek(target); err != nil {
					return res, err
				}
				res.Seeked = true
			} else {
				res.Throttled = true
			}
		}
	}

	if remote.IsPlaying != nil {
		playing := a.Snapshot().IsPlaying
		switch {
		case *remote.IsPlaying && !playing:
			if err := p.PlayVideo(); err != nil {
				return res, err
			}
			a.setPlaying(true)
			res.Played = true
		case !*remote.IsPlaying && playing:
			if err := p.PauseVideo(); err != nil {
				return res, err
			}
			a.setPlaying(false)
			res.Paused = true
		}
	}

	return res, nil
}

func (a *Adapter) ReconcileMessage(m theater.Message) (Reconciliation, error) {
	return a.Reconcile(RemoteFromMessage(m))
}
