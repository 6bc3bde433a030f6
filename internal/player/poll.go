package player

// startPollingLocked starts the progress ticker if it is not running.
func (a *Adapter) startPollingLocked() {
	if a.pollStop != nil || a.closed {
		return
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	a.pollStop = stop
	a.pollDone = done

	ticker := a.clock.NewTicker(a.cfg.PollInterval)
	go func() {
		defer close(done)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				return
			case <-ticker.Chan():
				a.poll()
			}
		}
	}()
}

func (a *Adapter) stopPollingLocked() {
	if a.pollStop == nil {
		return
	}

	close(a.pollStop)
	a.pollStop = nil
}

func (a *Adapter) poll() {
	a.mu.Lock()
	if a.state != StatePlaying || a.player == nil {
		a.mu.Unlock()
		return
	}
	p := a.player
	a.mu.Unlock()

	currentTime := p.CurrentTime()
	duration := p.Duration()

	a.mu.Lock()
	if a.state != StatePlaying {
		a.mu.Unlock()
		return
	}
	a.playback.CurrentTime = currentTime
	if duration > 0 {
		a.playback.Duration = duration
	}
	snap := a.playback
	a.mu.Unlock()

	if a.cfg.OnProgress != nil {
		a.cfg.OnProgress(snap)
	}
}
