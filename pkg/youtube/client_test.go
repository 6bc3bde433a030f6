package youtube

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, oembed, page http.HandlerFunc) *Client {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/oembed", oembed)
	mux.HandleFunc("/page/", page)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return NewClient(WithBaseURLs(srv.URL+"/oembed", srv.URL+"/page/"))
}

func TestGetUsesOEmbed(t *testing.T) {
	c := newTestClient(t,
		func(w http.ResponseWriter, r *http.Request) {
			assert.Contains(t, r.URL.Query().Get("url"), "abc12345678")
			w.Write([]byte(`{"title":"Counting Song","author_name":"Kids TV","thumbnail_url":"thumb.jpg"}`))
		},
		func(w http.ResponseWriter, r *http.Request) {
			t.Error("page fallback must not be used")
		},
	)

	data, err := c.Get(context.Background(), "https://youtu.be/abc12345678")
	require.NoError(t, err)
	assert.Equal(t, "Counting Song", data.Title)
	assert.Equal(t, "Kids TV", data.AuthorName)
}

func TestGetFallsBackToPageWhenNotEmbeddable(t *testing.T) {
	c := newTestClient(t,
		func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		},
		func(w http.ResponseWriter, r *http.Request) {
			assert.True(t, strings.HasSuffix(r.URL.Path, "abc12345678"))
			w.Write([]byte(`<html><head><title>Bedtime Story</title></head>
				<body><span><link itemprop="name" content="Story Channel"></span></body></html>`))
		},
	)

	data, err := c.Get(context.Background(), "abc12345678")
	require.NoError(t, err)
	assert.Equal(t, "Bedtime Story", data.Title)
	assert.Equal(t, "Story Channel", data.AuthorName)
	assert.Equal(t, ThumbnailURL("abc12345678"), data.ThumbnailURL)
}

func TestGetNotFound(t *testing.T) {
	c := newTestClient(t,
		func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		},
		func(w http.ResponseWriter, r *http.Request) {},
	)

	_, err := c.Get(context.Background(), "abc12345678")
	assert.ErrorIs(t, err, ErrVideoNotFound)
}

func TestGetInvalidURL(t *testing.T) {
	_, err := NewClient().Get(context.Background(), "not a video")
	assert.ErrorIs(t, err, ErrInvalidURL)
}
