package content

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/circleapp/theater/pkg/theater"
	"github.com/circleapp/theater/pkg/youtube"
)

type signerFunc func(ctx context.Context, key string) (string, error)

func (f signerFunc) SignURL(ctx context.Context, key string) (string, error) {
	return f(ctx, key)
}

func TestGet(t *testing.T) {
	lib := New(DefaultItems(), nil, nil)

	it, err := lib.Get("coloring-animals")
	require.NoError(t, err)
	assert.Equal(t, theater.ContentPDF, it.Type)
	assert.Equal(t, 12, it.TotalPages)

	_, err = lib.Get("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListByType(t *testing.T) {
	lib := New(DefaultItems(), nil, nil)

	assert.Len(t, lib.List(), 6)
	for _, ct := range []theater.ContentType{theater.ContentVideo, theater.ContentPDF, theater.ContentYouTube} {
		items := lib.ListByType(ct)
		assert.Len(t, items, 2, ct.String())
		for _, it := range items {
			assert.Equal(t, ct, it.Type)
		}
	}
}

func TestListIsACopy(t *testing.T) {
	lib := New(DefaultItems(), nil, nil)

	items := lib.List()
	items[0].Title = "changed"

	it, err := lib.Get(items[0].ID)
	require.NoError(t, err)
	assert.NotEqual(t, "changed", it.Title)
}

func TestResolveYouTube(t *testing.T) {
	lib := New(DefaultItems(), nil, nil)

	it, err := lib.Resolve(context.Background(), "sing-along-abc")
	require.NoError(t, err)
	assert.Equal(t, youtube.WatchURL("75p-N9YKqNo"), it.URL)
	assert.Equal(t, youtube.ThumbnailURL("75p-N9YKqNo"), it.ThumbnailURL)
}

func TestResolveSignsStoredAssets(t *testing.T) {
	var keys []string
	signer := signerFunc(func(_ context.Context, key string) (string, error) {
		keys = append(keys, key)
		return "https://cdn.example.com/" + key + "?sig=1", nil
	})
	lib := New(DefaultItems(), signer, nil)

	it, err := lib.Resolve(context.Background(), "storytime-three-bears")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/videos/three-bears.mp4?sig=1", it.URL)
	assert.Equal(t, []string{"videos/three-bears.mp4"}, keys)
}

func TestResolveWithoutSigner(t *testing.T) {
	lib := New(DefaultItems(), nil, nil)

	it, err := lib.Resolve(context.Background(), "bedtime-stories")
	require.NoError(t, err)
	assert.Equal(t, "/media/pdfs/bedtime-stories.pdf", it.URL)
}

func TestResolveSignerFailure(t *testing.T) {
	boom := errors.New("boom")
	lib := New(DefaultItems(), signerFunc(func(context.Context, string) (string, error) {
		return "", boom
	}), nil)

	_, err := lib.Resolve(context.Background(), "bedtime-stories")
	assert.ErrorIs(t, err, boom)

	_, err = lib.Resolve(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDuration(t *testing.T) {
	lib := New(DefaultItems(), nil, nil)

	assert.Equal(t, 184.0, lib.Duration("sing-along-abc"))
	assert.Zero(t, lib.Duration("missing"))
}
