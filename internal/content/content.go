package content

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/exp/slices"

	"github.com/circleapp/theater/pkg/theater"
	"github.com/circleapp/theater/pkg/youtube"
)

var ErrNotFound = errors.New("content not found")

// Item is one playable entry of the library. Stored assets carry a
// StorageKey; YouTube items carry a VideoID.
type Item struct {
	ID           string              `json:"id"`
	Type         theater.ContentType `json:"type"`
	Title        string              `json:"title"`
	Description  string              `json:"description,omitempty"`
	URL          string              `json:"url"`
	StorageKey   string              `json:"-"`
	VideoID      string              `json:"video_id,omitempty"`
	Duration     float64             `json:"duration,omitempty"`
	TotalPages   int                 `json:"total_pages,omitempty"`
	ThumbnailURL string              `json:"thumbnail_url,omitempty"`
}

// URLSigner turns a storage key into a time-limited URL.
type URLSigner interface {
	SignURL(ctx context.Context, key string) (string, error)
}

type Library struct {
	items  []Item
	signer URLSigner
	logger *slog.Logger
}

// New returns a library over items. signer may be nil, in which case stored
// assets resolve to their static URL.
func New(items []Item, signer URLSigner, logger *slog.Logger) *Library {
	if logger == nil {
		logger = slog.Default()
	}

	return &Library{
		items:  slices.Clone(items),
		signer: signer,
		logger: logger,
	}
}

func (l *Library) Get(id string) (Item, error) {
	i := slices.IndexFunc(l.items, func(it Item) bool { return it.ID == id })
	if i < 0 {
		return Item{}, fmt.Errorf("%w: %q", ErrNotFound, id)
	}

	return l.items[i], nil
}

func (l *Library) List() []Item {
	return slices.Clone(l.items)
}

func (l *Library) ListByType(t theater.ContentType) []Item {
	out := make([]Item, 0)
	for _, it := range l.items {
		if it.Type == t {
			out = append(out, it)
		}
	}

	return out
}

// Resolve returns the item with a playable URL.
func (l *Library) Resolve(ctx context.Context, id string) (Item, error) {
	it, err := l.Get(id)
	if err != nil {
		return Item{}, err
	}

	switch it.Type {
	case theater.ContentYouTube:
		if it.VideoID != "" {
			it.URL = youtube.WatchURL(it.VideoID)
		}
		if it.ThumbnailURL == "" && it.VideoID != "" {
			it.ThumbnailURL = youtube.ThumbnailURL(it.VideoID)
		}
	case theater.ContentVideo, theater.ContentPDF:
		if l.signer == nil || it.StorageKey == "" {
			break
		}
		u, err := l.signer.SignURL(ctx, it.StorageKey)
		if err != nil {
			l.logger.InfoContext(ctx, "failed to sign content url", "content_id", id, "error", err)
			return Item{}, fmt.Errorf("sign url for %q: %w", id, err)
		}
		it.URL = u
	}

	return it, nil
}

// Duration returns the known length in seconds of the item with the given id,
// or 0.
func (l *Library) Duration(id string) float64 {
	it, err := l.Get(id)
	if err != nil {
		return 0
	}

	return it.Duration
}
