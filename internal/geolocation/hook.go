package geolocation

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/jonboulle/clockwork"
)

// Hook captures one position per explicit request. A newer request
// supersedes older ones; results from superseded requests are dropped.
type Hook struct {
	source Source
	opts   Options
	clock  clockwork.Clock
	logger *slog.Logger

	mu       sync.Mutex
	seq      uint64
	loading  bool
	position *Position
	err      *Error
	last     *Position
}

// NewHook returns a hook over source. A nil source means the capability is
// missing and every request fails with CodeUnsupported.
func NewHook(source Source, opts Options, clock clockwork.Clock, logger *slog.Logger) *Hook {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Hook{
		source: source,
		opts:   opts,
		clock:  clock,
		logger: logger,
	}
}

func (h *Hook) IsSupported() bool {
	return h.source != nil
}

func (h *Hook) IsLoading() bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.loading
}

// Position returns the fix of the latest completed request, if it succeeded.
func (h *Hook) Position() (Position, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.position == nil {
		return Position{}, false
	}

	return *h.position, true
}

// Err returns the error of the latest completed request, if it failed.
func (h *Hook) Err() *Error {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.err
}

// GetCurrentPosition asks the source for a fix within the configured timeout.
// Failures are returned as *Error.
func (h *Hook) GetCurrentPosition(ctx context.Context) (Position, error) {
	h.mu.Lock()
	h.seq++
	seq := h.seq
	h.position = nil
	h.err = nil

	if h.source == nil {
		h.err = NewError(CodeUnsupported)
		err := h.err
		h.mu.Unlock()
		return Position{}, err
	}

	if h.opts.MaximumAge > 0 && h.last != nil && h.clock.Since(h.last.Timestamp) < h.opts.MaximumAge {
		pos := *h.last
		h.position = &pos
		h.mu.Unlock()
		return pos, nil
	}

	h.loading = true
	h.mu.Unlock()

	reqCtx, cancel := context.WithTimeout(ctx, h.opts.Timeout)
	defer cancel()

	pos, err := h.source.CurrentPosition(reqCtx, h.opts)
	gerr := classify(err)

	h.mu.Lock()
	defer h.mu.Unlock()

	if seq != h.seq {
		h.logger.DebugContext(ctx, "dropping superseded geolocation result")
		if gerr != nil {
			return Position{}, gerr
		}
		return pos, nil
	}

	h.loading = false
	if gerr != nil {
		h.logger.InfoContext(ctx, "failed to get current position", "code", gerr.Code, "error", err)
		h.err = gerr
		return Position{}, gerr
	}

	if pos.Timestamp.IsZero() {
		pos.Timestamp = h.clock.Now()
	}
	h.position = &pos
	h.last = &pos

	return pos, nil
}

func classify(err error) *Error {
	var gerr *Error
	switch {
	case err == nil:
		return nil
	case errors.As(err, &gerr):
		return gerr
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return NewError(CodeTimeout)
	default:
		return NewError(CodePositionUnavailable)
	}
}
